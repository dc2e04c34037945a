package domain

import (
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite (no CGO)
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newDomainDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:domain_models?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&Settings{}, &BannedUser{}, &RateWindow{}, &TypeCounter{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func TestTableNames(t *testing.T) {
	cases := map[string]string{
		(Settings{}).TableName():    "settings",
		(BannedUser{}).TableName():  "banned_users",
		(RateWindow{}).TableName():  "rate_windows",
		(TypeCounter{}).TableName(): "type_counters",
	}
	for got, want := range cases {
		if got != want {
			t.Fatalf("TableName() = %q; want %q", got, want)
		}
	}
}

func TestMigrations_CompositeKeys(t *testing.T) {
	db := newDomainDB(t)

	ban := BannedUser{DeploymentID: "d1", UserID: "u1", CreatedAt: time.Now()}
	if err := db.Create(&ban).Error; err != nil {
		t.Fatalf("create ban: %v", err)
	}
	if err := db.Create(&BannedUser{DeploymentID: "d1", UserID: "u1"}).Error; err == nil {
		t.Fatalf("expected primary key violation for duplicate ban")
	}
	// Same user in another deployment is a distinct row.
	if err := db.Create(&BannedUser{DeploymentID: "d2", UserID: "u1"}).Error; err != nil {
		t.Fatalf("create ban in second deployment: %v", err)
	}

	ctr := TypeCounter{DeploymentID: "d1", Type: TypeAdvice, Total: 3}
	if err := db.Create(&ctr).Error; err != nil {
		t.Fatalf("create counter: %v", err)
	}
	if err := db.Create(&TypeCounter{DeploymentID: "d1", Type: TypeAdvice}).Error; err == nil {
		t.Fatalf("expected primary key violation for duplicate counter")
	}
}

func TestMessageTypeAndMode_Parse(t *testing.T) {
	for _, mt := range MessageTypes {
		if got, ok := ParseMessageType(string(mt)); !ok || got != mt {
			t.Fatalf("ParseMessageType(%q) = %q,%v", mt, got, ok)
		}
	}
	if _, ok := ParseMessageType("rant"); ok {
		t.Fatalf("unexpected valid type")
	}
	if _, ok := ParseCommentMode("identified"); !ok {
		t.Fatalf("identified should be valid")
	}
	if _, ok := ParseCommentMode("public"); ok {
		t.Fatalf("public should be invalid")
	}
}

func TestConfigPatch_ApplyIsShallow(t *testing.T) {
	s := DefaultSettings("d1")
	s.LogChannelID = "logs"

	off := false
	admin := "admin-logs"
	ConfigPatch{Enabled: &off, AdminLogChannelID: &admin}.Apply(&s)

	if s.Enabled {
		t.Fatalf("enabled not applied")
	}
	if s.AdminLogChannelID != admin {
		t.Fatalf("admin log channel = %q", s.AdminLogChannelID)
	}
	if s.LogChannelID != "logs" {
		t.Fatalf("untouched field changed: %q", s.LogChannelID)
	}
	if s.RateLimit != DefaultRateLimit || s.RateWindowMinutes != DefaultRateWindowMinutes {
		t.Fatalf("rate policy changed: %+v", s)
	}
}
