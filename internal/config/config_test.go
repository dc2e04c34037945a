package config

import (
	"os"
	"reflect"
	"strings"
	"testing"
	"time"
)

const testKey = "3d4017c3e843895a92b70aa74d1b7ebc9c982ccf2ec4968cc0cd55f12af4660c"

func TestMustLoad_PanicsOnInvalidConfig(t *testing.T) {
	t.Setenv("LOG_LEVEL", "verbose")
	defer func() {
		if r := recover(); r == nil {
			t.Fatalf("MustLoad should panic on invalid config")
		}
	}()
	_ = MustLoad()
}

func TestLoad_Success_DefaultsAndOverrides(t *testing.T) {
	t.Setenv("PORT", "8088")
	t.Setenv("READ_TIMEOUT", "2s")
	t.Setenv("READ_HEADER_TIMEOUT", "1s")
	t.Setenv("WRITE_TIMEOUT", "3s")
	t.Setenv("IDLE_TIMEOUT", "4s")
	t.Setenv("SHUTDOWN_TIMEOUT", "5s")
	t.Setenv("MAX_HEADER_BYTES", "8192")
	t.Setenv("GIN_MODE", "weird") // normalizes to "release"

	t.Setenv("LOG_LEVEL", "warning")
	t.Setenv("LOG_PRETTY", "yes")
	t.Setenv("API_BASE_PATH", "api/v2/")

	t.Setenv("DB_PATH", "db.sqlite")
	t.Setenv("DEPLOYMENT_ID", "guild-1")

	t.Setenv("DISCORD_TOKEN", "Bot abc.def")
	t.Setenv("DISCORD_PUBLIC_KEY", testKey)
	t.Setenv("DISCORD_APP_ID", "111")
	t.Setenv("DISCORD_GUILD_ID", "222")

	t.Setenv("STATE_TTL", "30m")
	t.Setenv("SWEEP_INTERVAL", "5m")
	t.Setenv("DEFAULT_RATE_LIMIT", "3")
	t.Setenv("DEFAULT_RATE_WINDOW_MINUTES", "10")

	t.Setenv("RATE_RPS", "x")      // falls back to 20
	t.Setenv("RATE_BURST", "nope") // falls back to 40

	t.Setenv("ADMIN_TOKEN", "secret")
	t.Setenv("CORS_ALLOWED_ORIGINS", " https://a.com , , http://b ")
	t.Setenv("ENABLE_HSTS", "TRUE")
	t.Setenv("HSTS_MAX_AGE", "24h")

	t.Setenv("OTEL_ENABLED", "1")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "otel:4317")
	t.Setenv("OTEL_EXPORTER_OTLP_INSECURE", "0")
	t.Setenv("OTEL_SERVICE_NAME", "svc")
	t.Setenv("OTEL_TRACES_SAMPLER_ARG", "0.75")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Port != "8088" ||
		cfg.ReadTimeout != 2*time.Second ||
		cfg.ReadHeaderTimeout != time.Second ||
		cfg.WriteTimeout != 3*time.Second ||
		cfg.IdleTimeout != 4*time.Second ||
		cfg.ShutdownTimeout != 5*time.Second ||
		cfg.MaxHeaderBytes != 8192 ||
		cfg.GinMode != "release" {
		t.Fatalf("server fields unexpected: %+v", cfg)
	}
	if cfg.LogLevel != "warn" || !cfg.LogPretty || cfg.APIBasePath != "/api/v2" {
		t.Fatalf("logging unexpected: %+v", cfg)
	}
	if cfg.DBPath != "db.sqlite" || cfg.DeploymentID != "guild-1" {
		t.Fatalf("storage unexpected: %+v", cfg)
	}
	want := DiscordConfig{Token: "abc.def", PublicKey: testKey, AppID: "111", GuildID: "222"}
	if cfg.Discord != want {
		t.Fatalf("discord unexpected: %+v", cfg.Discord)
	}
	if cfg.StateTTL != 30*time.Minute || cfg.SweepInterval != 5*time.Minute {
		t.Fatalf("state unexpected: ttl=%v sweep=%v", cfg.StateTTL, cfg.SweepInterval)
	}
	if cfg.DefaultRateLimit != 3 || cfg.DefaultRateWindowMinutes != 10 {
		t.Fatalf("rate defaults unexpected: %+v", cfg)
	}
	if cfg.RateRPS != 20.0 || cfg.RateBurst != 40 {
		t.Fatalf("edge rate limiting unexpected: %+v", cfg)
	}
	if cfg.AdminToken != "secret" {
		t.Fatalf("admin token unexpected: %q", cfg.AdminToken)
	}
	if !reflect.DeepEqual(cfg.CORS.AllowedOrigins, []string{"https://a.com", "http://b"}) {
		t.Fatalf("cors origins unexpected: %#v", cfg.CORS.AllowedOrigins)
	}
	if !cfg.Security.EnableHSTS || cfg.Security.HSTSMaxAge != 24*time.Hour {
		t.Fatalf("security unexpected: %+v", cfg.Security)
	}
	if !cfg.OTEL.Enabled || cfg.OTEL.Endpoint != "otel:4317" || cfg.OTEL.Insecure || cfg.OTEL.ServiceName != "svc" || cfg.OTEL.SampleRatio != 0.75 {
		t.Fatalf("otel unexpected: %+v", cfg.OTEL)
	}
	if err := cfg.ValidateServe(); err != nil {
		t.Fatalf("ValidateServe: %v", err)
	}
	if b, err := cfg.PublicKeyBytes(); err != nil || len(b) != 32 {
		t.Fatalf("PublicKeyBytes = %d bytes, %v", len(b), err)
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.APIBasePath != "/api/v1" {
		t.Fatalf("API_BASE_PATH default expected '/api/v1', got %q", cfg.APIBasePath)
	}
	if cfg.StateTTL != time.Hour || cfg.SweepInterval != time.Hour {
		t.Fatalf("state defaults unexpected: %v %v", cfg.StateTTL, cfg.SweepInterval)
	}
	if cfg.DefaultRateLimit != 5 || cfg.DefaultRateWindowMinutes != 1 {
		t.Fatalf("rate defaults unexpected: %d/%d", cfg.DefaultRateLimit, cfg.DefaultRateWindowMinutes)
	}
	if cfg.DeploymentID != "default" || cfg.OTEL.ServiceName != "go-tellonym" {
		t.Fatalf("defaults unexpected: %+v", cfg)
	}
	if err := cfg.ValidateServe(); err == nil {
		t.Fatalf("ValidateServe should require platform credentials")
	}
}

func TestLoad_ValidationErrors(t *testing.T) {
	cases := []struct {
		name, key, val, want string
	}{
		{"invalid LOG_LEVEL", "LOG_LEVEL", "verbose", "LOG_LEVEL"},
		{"empty PORT via spaces", "PORT", "   ", "PORT must not be empty"},
		{"non-positive timeouts", "READ_TIMEOUT", "0s", "timeouts must be positive"},
		{"non-positive shutdown", "SHUTDOWN_TIMEOUT", "-1s", "timeouts must be positive"},
		{"max header bytes <= 0", "MAX_HEADER_BYTES", "0", "MAX_HEADER_BYTES"},
		{"empty DB_PATH", "DB_PATH", "   ", "DB_PATH must not be empty"},
		{"empty DEPLOYMENT_ID", "DEPLOYMENT_ID", "  ", "DEPLOYMENT_ID must not be empty"},
		{"bad public key", "DISCORD_PUBLIC_KEY", "zz", "DISCORD_PUBLIC_KEY"},
		{"short public key", "DISCORD_PUBLIC_KEY", "abcd", "DISCORD_PUBLIC_KEY"},
		{"state ttl", "STATE_TTL", "0s", "STATE_TTL"},
		{"sweep interval", "SWEEP_INTERVAL", "-5m", "SWEEP_INTERVAL"},
		{"default rate limit negative", "DEFAULT_RATE_LIMIT", "-1", "DEFAULT_RATE_LIMIT"},
		{"default window zero", "DEFAULT_RATE_WINDOW_MINUTES", "0", "DEFAULT_RATE_WINDOW_MINUTES"},
		{"rate rps negative", "RATE_RPS", "-1", "RATE_RPS"},
		{"rate burst < 1", "RATE_BURST", "0", "RATE_BURST"},
		{"hsts max age negative", "HSTS_MAX_AGE", "-1s", "HSTS_MAX_AGE"},
		{"otel sample ratio out of range", "OTEL_TRACES_SAMPLER_ARG", "1.5", "OTEL_TRACES_SAMPLER_ARG"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv(tc.key, tc.val)
			if _, err := Load(); err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected %q validation error, got: %v", tc.want, err)
			}
		})
	}
}

func TestHelpers_getenv(t *testing.T) {
	t.Setenv("X_EMPTY", "")
	if getenv("X_EMPTY", "d") != "d" {
		t.Fatalf("getenv should fall back to default on empty var")
	}
	t.Setenv("X_SET", "val")
	if getenv("X_SET", "d") != "val" {
		t.Fatalf("getenv should read set value")
	}
}

func TestHelpers_getfloat_getint_getdur(t *testing.T) {
	t.Setenv("F_VALID", "3.14")
	if getfloat("F_VALID", 0) != 3.14 {
		t.Fatalf("getfloat parse failed")
	}
	t.Setenv("F_BAD", "nope")
	if getfloat("F_BAD", 1.23) != 1.23 {
		t.Fatalf("getfloat default on bad parse failed")
	}
	t.Setenv("I_VALID", "42")
	if getint("I_VALID", 0) != 42 {
		t.Fatalf("getint parse failed")
	}
	t.Setenv("I_BAD", "x")
	if getint("I_BAD", 7) != 7 {
		t.Fatalf("getint default on bad parse failed")
	}
	t.Setenv("D_VALID", "150ms")
	if getdur("D_VALID", time.Second) != 150*time.Millisecond {
		t.Fatalf("getdur parse failed")
	}
	t.Setenv("D_BAD", "zzz")
	if getdur("D_BAD", 2*time.Second) != 2*time.Second {
		t.Fatalf("getdur default on bad parse failed")
	}
}

func TestHelpers_getbool(t *testing.T) {
	for i, v := range []string{"1", "true", "TRUE", " yes ", "Y", "on", "On"} {
		k := "B_T_" + string(rune('a'+i))
		t.Setenv(k, v)
		if !getbool(k, false) {
			t.Fatalf("getbool(%q) = false; want true", v)
		}
	}
	for i, v := range []string{"0", "false", "FALSE", " no ", "N", "off", "Off"} {
		k := "B_F_" + string(rune('a'+i))
		t.Setenv(k, v)
		if getbool(k, true) {
			t.Fatalf("getbool(%q) = true; want false", v)
		}
	}
	t.Setenv("B_EMPTY", "")
	if !getbool("B_EMPTY", true) || getbool("B_EMPTY", false) {
		t.Fatalf("getbool default behavior unexpected")
	}
}

func TestHelpers_splitCSV_and_normalizeBasePath(t *testing.T) {
	if out := splitCSV(""); out != nil {
		t.Fatalf("splitCSV empty should return nil")
	}
	if got := splitCSV(" a, ,b ,  c  ,"); !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Fatalf("splitCSV mismatch: got %#v", got)
	}
	for in, want := range map[string]string{"": "/", "v1": "/v1", "/v1/": "/v1", " / ": "/"} {
		if got := normalizeBasePath(in); got != want {
			t.Fatalf("normalizeBasePath(%q) = %q; want %q", in, got, want)
		}
	}
}

func TestMain(m *testing.M) {
	for _, k := range []string{"PORT", "DISCORD_TOKEN", "DISCORD_PUBLIC_KEY", "LOG_LEVEL", "DB_PATH", "DEPLOYMENT_ID"} {
		os.Unsetenv(k)
	}
	os.Exit(m.Run())
}
