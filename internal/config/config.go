// Package config loads the bot's settings from environment variables,
// applies defaults, and validates the result. Durable per-deployment
// settings (channels, bans, rate policy) live in the database; this package
// only carries process-level configuration and the defaults seeded into it.
package config

import (
	"encoding/hex"
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// CORSConfig defines Cross-Origin Resource Sharing settings for the admin API.
type CORSConfig struct {
	AllowedOrigins []string
}

// SecurityConfig defines security-related settings such as HSTS.
type SecurityConfig struct {
	EnableHSTS bool
	HSTSMaxAge time.Duration
}

// OTELConfig defines OpenTelemetry observability settings.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT (e.g. "otel:4317")
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE (true if no TLS)
	ServiceName string  // OTEL_SERVICE_NAME
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// DiscordConfig holds the platform credentials.
type DiscordConfig struct {
	Token     string // DISCORD_TOKEN (bot token, without the "Bot " prefix)
	PublicKey string // DISCORD_PUBLIC_KEY (hex ed25519)
	AppID     string // DISCORD_APP_ID
	GuildID   string // DISCORD_GUILD_ID (optional; empty registers globally)
}

// Config holds all configuration values for the application.
type Config struct {
	// Server
	Port              string
	ReadTimeout       time.Duration
	ReadHeaderTimeout time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	ShutdownTimeout   time.Duration
	MaxHeaderBytes    int
	GinMode           string // debug|release|test

	// Logging
	LogLevel    string // debug|info|warn|error|fatal|panic
	LogPretty   bool
	APIBasePath string

	// Storage
	DBPath       string
	DeploymentID string

	// Platform
	Discord DiscordConfig

	// Workflow state
	StateTTL      time.Duration
	SweepInterval time.Duration

	// Defaults seeded into a fresh deployment
	DefaultRateLimit         int
	DefaultRateWindowMinutes int

	// Edge rate limiting (token bucket per client)
	RateRPS   float64
	RateBurst int

	// Admin API
	AdminToken string
	CORS       CORSConfig
	Security   SecurityConfig

	// Observability
	OTEL OTELConfig
}

// MustLoad loads the configuration and panics if validation fails.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads configuration from environment variables,
// applies defaults, normalizes values, and validates the result.
func Load() (Config, error) {
	cfg := Config{
		Port:              getenv("PORT", "8080"),
		ReadTimeout:       getdur("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: getdur("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      getdur("WRITE_TIMEOUT", 20*time.Second),
		IdleTimeout:       getdur("IDLE_TIMEOUT", 60*time.Second),
		ShutdownTimeout:   getdur("SHUTDOWN_TIMEOUT", 10*time.Second),
		MaxHeaderBytes:    getint("MAX_HEADER_BYTES", 1<<20),
		GinMode:           strings.ToLower(getenv("GIN_MODE", "release")),

		LogLevel:    strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty:   getbool("LOG_PRETTY", false),
		APIBasePath: normalizeBasePath(getenv("API_BASE_PATH", "/api/v1")),

		DBPath:       getenv("DB_PATH", "tellonym.db"),
		DeploymentID: getenv("DEPLOYMENT_ID", "default"),

		Discord: DiscordConfig{
			Token:     strings.TrimPrefix(getenv("DISCORD_TOKEN", ""), "Bot "),
			PublicKey: strings.TrimSpace(getenv("DISCORD_PUBLIC_KEY", "")),
			AppID:     getenv("DISCORD_APP_ID", ""),
			GuildID:   getenv("DISCORD_GUILD_ID", ""),
		},

		StateTTL:      getdur("STATE_TTL", time.Hour),
		SweepInterval: getdur("SWEEP_INTERVAL", time.Hour),

		DefaultRateLimit:         getint("DEFAULT_RATE_LIMIT", 5),
		DefaultRateWindowMinutes: getint("DEFAULT_RATE_WINDOW_MINUTES", 1),

		RateRPS:   getfloat("RATE_RPS", 20.0),
		RateBurst: getint("RATE_BURST", 40),

		AdminToken: getenv("ADMIN_TOKEN", ""),
		CORS: CORSConfig{
			AllowedOrigins: splitCSV(getenv("CORS_ALLOWED_ORIGINS", "")),
		},
		Security: SecurityConfig{
			EnableHSTS: getbool("ENABLE_HSTS", false),
			HSTSMaxAge: getdur("HSTS_MAX_AGE", 180*24*time.Hour),
		},

		OTEL: OTELConfig{
			Enabled:     getbool("OTEL_ENABLED", false),
			Endpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    getbool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: getenv("OTEL_SERVICE_NAME", "go-tellonym"),
			SampleRatio: getfloat("OTEL_TRACES_SAMPLER_ARG", 1.0),
		},
	}

	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}
	switch cfg.GinMode {
	case "debug", "release", "test":
	default:
		cfg.GinMode = "release"
	}

	switch cfg.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return cfg, errors.New("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic")
	}
	if strings.TrimSpace(cfg.Port) == "" {
		return cfg, errors.New("PORT must not be empty")
	}
	if cfg.ReadTimeout <= 0 || cfg.ReadHeaderTimeout <= 0 || cfg.WriteTimeout <= 0 || cfg.IdleTimeout <= 0 || cfg.ShutdownTimeout <= 0 {
		return cfg, errors.New("timeouts must be positive durations")
	}
	if cfg.MaxHeaderBytes <= 0 {
		return cfg, errors.New("MAX_HEADER_BYTES must be > 0")
	}
	if strings.TrimSpace(cfg.DBPath) == "" {
		return cfg, errors.New("DB_PATH must not be empty")
	}
	if strings.TrimSpace(cfg.DeploymentID) == "" {
		return cfg, errors.New("DEPLOYMENT_ID must not be empty")
	}
	if cfg.Discord.PublicKey != "" {
		if _, err := cfg.PublicKeyBytes(); err != nil {
			return cfg, err
		}
	}
	if cfg.StateTTL <= 0 || cfg.SweepInterval <= 0 {
		return cfg, errors.New("STATE_TTL and SWEEP_INTERVAL must be positive durations")
	}
	if cfg.DefaultRateLimit < 0 {
		return cfg, errors.New("DEFAULT_RATE_LIMIT must be >= 0")
	}
	if cfg.DefaultRateWindowMinutes <= 0 {
		return cfg, errors.New("DEFAULT_RATE_WINDOW_MINUTES must be > 0")
	}
	if cfg.RateRPS < 0 {
		return cfg, errors.New("RATE_RPS must be >= 0")
	}
	if cfg.RateBurst < 1 {
		return cfg, errors.New("RATE_BURST must be >= 1")
	}
	if cfg.Security.HSTSMaxAge < 0 {
		return cfg, errors.New("HSTS_MAX_AGE must be >= 0")
	}
	if cfg.OTEL.SampleRatio < 0 || cfg.OTEL.SampleRatio > 1 {
		return cfg, errors.New("OTEL_TRACES_SAMPLER_ARG must be in [0,1]")
	}

	return cfg, nil
}

// PublicKeyBytes decodes the hex application public key.
func (c Config) PublicKeyBytes() ([]byte, error) {
	b, err := hex.DecodeString(c.Discord.PublicKey)
	if err != nil || len(b) != 32 {
		return nil, errors.New("DISCORD_PUBLIC_KEY must be a 64-character hex ed25519 key")
	}
	return b, nil
}

// ValidateServe checks the settings required to serve interactions.
func (c Config) ValidateServe() error {
	if c.Discord.Token == "" {
		return errors.New("DISCORD_TOKEN is required")
	}
	if c.Discord.PublicKey == "" {
		return errors.New("DISCORD_PUBLIC_KEY is required")
	}
	return nil
}

// ---- helpers (no external deps) ----

func getenv(k, def string) string {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		return v
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getint(k string, def int) int {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "y", "on":
			return true
		case "0", "false", "no", "n", "off":
			return false
		}
	}
	return def
}

func getdur(k string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		t := strings.TrimSpace(p)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

// normalizeBasePath ensures leading '/' and strips trailing '/' (except root).
func normalizeBasePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if len(p) > 1 && strings.HasSuffix(p, "/") {
		p = strings.TrimRight(p, "/")
	}
	return p
}
