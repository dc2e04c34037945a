// Package domain defines the persistence models for deployment settings, the
// ban list, per-user rate windows, and message-type counters. These types are
// mapped with GORM and back the durable configuration of a deployment.
//
// Workflow state (pending drafts, dispatch mappings, comment threads) is not
// persisted; see ephemeral.go for those value types.
package domain

import "time"

// Settings is the single row of durable configuration for one deployment.
//
// Fields:
//   - DeploymentID: primary key; one bot installation owns one row.
//   - LogChannelID: public destination for published cards.
//   - AdminLogChannelID: privileged destination carrying sender identity.
//   - Enabled: system-enabled flag checked before every compose.
//   - RateLimit / RateWindowMinutes: per-sender submission policy.
//   - UpdatedAt: timestamp managed by GORM.
type Settings struct {
	DeploymentID      string    `json:"deployment_id"        gorm:"type:varchar(64);primaryKey"`
	LogChannelID      string    `json:"log_channel_id"       gorm:"type:varchar(32);not null;default:''"`
	AdminLogChannelID string    `json:"admin_log_channel_id" gorm:"type:varchar(32);not null;default:''"`
	Enabled           bool      `json:"enabled"              gorm:"not null"`
	RateLimit         int       `json:"rate_limit"           gorm:"not null;check:rate_limit >= 0"`
	RateWindowMinutes int       `json:"rate_window_minutes"  gorm:"not null;check:rate_window_minutes > 0"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// TableName returns the database table name for Settings.
func (Settings) TableName() string { return "settings" }

// BannedUser marks a platform user as barred from composing.
// The (deployment_id, user_id) pair is the primary key.
type BannedUser struct {
	DeploymentID string    `json:"-"          gorm:"type:varchar(64);primaryKey"`
	UserID       string    `json:"user_id"    gorm:"type:varchar(32);primaryKey"`
	CreatedAt    time.Time `json:"created_at"`
}

// TableName returns the database table name for BannedUser.
func (BannedUser) TableName() string { return "banned_users" }

// RateWindow is the persisted fixed-window counter for one sender.
//
// Attempts counts submissions recorded since WindowStart. A window is reset
// lazily by the rate limiter's check, never by the increment.
type RateWindow struct {
	DeploymentID string    `json:"-"            gorm:"type:varchar(64);primaryKey"`
	UserID       string    `json:"user_id"      gorm:"type:varchar(32);primaryKey"`
	Attempts     int       `json:"attempts"     gorm:"not null;default:0"`
	WindowStart  time.Time `json:"window_start" gorm:"not null"`
}

// TableName returns the database table name for RateWindow.
func (RateWindow) TableName() string { return "rate_windows" }

// TypeCounter tracks how many messages of a given type were published.
type TypeCounter struct {
	DeploymentID string      `json:"-"     gorm:"type:varchar(64);primaryKey"`
	Type         MessageType `json:"type"  gorm:"type:varchar(16);primaryKey"`
	Total        int64       `json:"total" gorm:"not null;default:0"`
}

// TableName returns the database table name for TypeCounter.
func (TypeCounter) TableName() string { return "type_counters" }
