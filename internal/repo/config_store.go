package repo

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-tellonym/internal/domain"
)

// ConfigStore is the durable configuration of one deployment. Writes are a
// shallow merge over the stored row; concurrent writers race and the last
// one wins.
type ConfigStore struct {
	DB           *gorm.DB
	DeploymentID string
	Defaults     domain.Settings
}

// NewConfigStore binds a store to deploymentID. defaults seeds the row the
// first time it is read or written.
func NewConfigStore(db *gorm.DB, deploymentID string, defaults domain.Settings) *ConfigStore {
	defaults.DeploymentID = deploymentID
	return &ConfigStore{DB: db, DeploymentID: deploymentID, Defaults: defaults}
}

// Settings returns the raw settings row (or the defaults).
func (s *ConfigStore) Settings(ctx context.Context) (domain.Settings, error) {
	return GetSettings(ctx, s.DB, s.DeploymentID, s.Defaults)
}

// Read assembles the merged configuration view.
func (s *ConfigStore) Read(ctx context.Context) (domain.Config, error) {
	st, err := s.Settings(ctx)
	if err != nil {
		return domain.Config{}, fmt.Errorf("read settings: %w", err)
	}
	ids, err := BannedUserIDs(ctx, s.DB, s.DeploymentID)
	if err != nil {
		return domain.Config{}, fmt.Errorf("read bans: %w", err)
	}
	counters, err := TypeCounters(ctx, s.DB, s.DeploymentID)
	if err != nil {
		return domain.Config{}, fmt.Errorf("read counters: %w", err)
	}

	banned := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		banned[id] = struct{}{}
	}
	return domain.Config{
		LogChannelID:      st.LogChannelID,
		AdminLogChannelID: st.AdminLogChannelID,
		Enabled:           st.Enabled,
		BannedUsers:       banned,
		RatePolicy:        domain.RatePolicy{Limit: st.RateLimit, WindowMinutes: st.RateWindowMinutes},
		Counters:          counters,
	}, nil
}

// Write merges p into the stored settings and returns the merged view.
func (s *ConfigStore) Write(ctx context.Context, p domain.ConfigPatch) (domain.Config, error) {
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		st, err := GetSettings(ctx, tx, s.DeploymentID, s.Defaults)
		if err != nil {
			return err
		}
		p.Apply(&st)
		return UpsertSettings(ctx, tx, &st)
	})
	if err != nil {
		return domain.Config{}, fmt.Errorf("write settings: %w", err)
	}
	return s.Read(ctx)
}

// IncrementCounter adds one to the durable counter for t.
func (s *ConfigStore) IncrementCounter(ctx context.Context, t domain.MessageType) error {
	return IncrementTypeCounter(ctx, s.DB, s.DeploymentID, t)
}

// RatePolicy returns the configured limit and window.
func (s *ConfigStore) RatePolicy(ctx context.Context) (domain.RatePolicy, error) {
	st, err := s.Settings(ctx)
	if err != nil {
		return domain.RatePolicy{}, err
	}
	return domain.RatePolicy{Limit: st.RateLimit, WindowMinutes: st.RateWindowMinutes}, nil
}

// RateWindow returns the stored window for userID.
func (s *ConfigStore) RateWindow(ctx context.Context, userID string) (domain.RateWindow, bool, error) {
	return GetRateWindow(ctx, s.DB, s.DeploymentID, userID)
}

// ResetRateWindow sets the window for userID to {0, start}.
func (s *ConfigStore) ResetRateWindow(ctx context.Context, userID string, start time.Time) error {
	return ResetRateWindow(ctx, s.DB, s.DeploymentID, userID, start)
}

// IncrementRateWindow records one attempt for userID.
func (s *ConfigStore) IncrementRateWindow(ctx context.Context, userID string, now time.Time) error {
	return IncrementRateWindow(ctx, s.DB, s.DeploymentID, userID, now)
}
