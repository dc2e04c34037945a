// Package services – AdminService
//
// This file implements AdminService, the single entry point for privileged
// configuration changes. Both the slash-command surface and the admin REST
// API call it, so validation lives here rather than in either transport.
//
// Every write goes through the ConfigStore shallow merge; concurrent admins
// race and the last writer wins.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/go-tellonym/internal/domain"
	"github.com/tbourn/go-tellonym/internal/repo"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

type snowflake struct {
	ID string `validate:"required,numeric,min=5,max=20"`
}

type ratePolicyInput struct {
	Limit         int `validate:"gte=0"`
	WindowMinutes int `validate:"gt=0"`
}

// RateStats summarises the rate limiter state.
type RateStats struct {
	Limit         int   `json:"limit"`
	WindowMinutes int   `json:"window_minutes"`
	TrackedUsers  int64 `json:"tracked_users"`
	UsersAtLimit  int64 `json:"users_at_limit"`
}

// MessageStats reports how many notes of each type were published.
type MessageStats struct {
	Counts map[domain.MessageType]int64 `json:"counts"`
	Total  int64                        `json:"total"`
}

func newMessageStats(m map[domain.MessageType]int64) MessageStats {
	s := MessageStats{Counts: m}
	for _, v := range m {
		s.Total += v
	}
	return s
}

// AdminService applies privileged changes to one deployment's config.
type AdminService struct {
	// Store is the deployment-scoped configuration store.
	Store *repo.ConfigStore
	// Now returns the current time; nil means time.Now.
	Now func() time.Time
}

func (s *AdminService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *AdminService) span(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return otel.Tracer("services/AdminService").Start(ctx, op, trace.WithAttributes(attrs...))
}

// Config returns the merged configuration view.
func (s *AdminService) Config(ctx context.Context) (domain.Config, error) {
	return s.Store.Read(ctx)
}

// Settings returns the stored settings row.
func (s *AdminService) Settings(ctx context.Context) (domain.Settings, error) {
	return s.Store.Settings(ctx)
}

// Update validates and applies a partial settings change.
//
// Channel ids, when present and non-empty, must be snowflakes; an empty
// string clears the destination. A rate policy is validated as a whole.
func (s *AdminService) Update(ctx context.Context, p domain.ConfigPatch) (domain.Config, error) {
	ctx, span := s.span(ctx, "Update")
	defer span.End()

	for _, ch := range []*string{p.LogChannelID, p.AdminLogChannelID} {
		if ch == nil || *ch == "" {
			continue
		}
		if validate.Struct(snowflake{ID: *ch}) != nil {
			return domain.Config{}, ErrInvalidChannelID
		}
	}
	if p.RatePolicy != nil {
		in := ratePolicyInput{Limit: p.RatePolicy.Limit, WindowMinutes: p.RatePolicy.WindowMinutes}
		if validate.Struct(in) != nil {
			return domain.Config{}, ErrInvalidRatePolicy
		}
	}
	return s.Store.Write(ctx, p)
}

// SetLogChannel sets the public destination for published cards.
func (s *AdminService) SetLogChannel(ctx context.Context, channelID string) (domain.Config, error) {
	return s.Update(ctx, domain.ConfigPatch{LogChannelID: &channelID})
}

// SetAdminLogChannel sets the privileged destination.
func (s *AdminService) SetAdminLogChannel(ctx context.Context, channelID string) (domain.Config, error) {
	return s.Update(ctx, domain.ConfigPatch{AdminLogChannelID: &channelID})
}

// SetEnabled switches composing on or off.
func (s *AdminService) SetEnabled(ctx context.Context, enabled bool) (domain.Config, error) {
	return s.Update(ctx, domain.ConfigPatch{Enabled: &enabled})
}

// ConfigureRateLimit stores a new rate policy. A limit of 0 disables it.
func (s *AdminService) ConfigureRateLimit(ctx context.Context, limit, windowMinutes int) (domain.RatePolicy, error) {
	p := domain.RatePolicy{Limit: limit, WindowMinutes: windowMinutes}
	cfg, err := s.Update(ctx, domain.ConfigPatch{RatePolicy: &p})
	if err != nil {
		return domain.RatePolicy{}, err
	}
	return cfg.RatePolicy, nil
}

func checkUserID(userID string) error {
	if validate.Struct(snowflake{ID: userID}) != nil {
		return ErrInvalidUserID
	}
	return nil
}

// Ban adds userID to the ban list.
func (s *AdminService) Ban(ctx context.Context, userID string) error {
	ctx, span := s.span(ctx, "Ban", attribute.String("user.id", userID))
	defer span.End()

	if err := checkUserID(userID); err != nil {
		return err
	}
	created, err := repo.AddBan(ctx, s.Store.DB, s.Store.DeploymentID, userID)
	if err != nil {
		return fmt.Errorf("add ban: %w", err)
	}
	if !created {
		return ErrAlreadyBanned
	}
	return nil
}

// Unban removes userID from the ban list.
func (s *AdminService) Unban(ctx context.Context, userID string) error {
	ctx, span := s.span(ctx, "Unban", attribute.String("user.id", userID))
	defer span.End()

	if err := checkUserID(userID); err != nil {
		return err
	}
	removed, err := repo.RemoveBan(ctx, s.Store.DB, s.Store.DeploymentID, userID)
	if err != nil {
		return fmt.Errorf("remove ban: %w", err)
	}
	if !removed {
		return ErrNotBanned
	}
	return nil
}

// ListBans returns one page of bans, oldest first, and the total count.
func (s *AdminService) ListBans(ctx context.Context, offset, limit int) ([]domain.BannedUser, int64, error) {
	total, err := repo.CountBans(ctx, s.Store.DB, s.Store.DeploymentID)
	if err != nil {
		return nil, 0, err
	}
	rows, err := repo.ListBansPage(ctx, s.Store.DB, s.Store.DeploymentID, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// MessageStats returns the per-type publish counters.
func (s *AdminService) MessageStats(ctx context.Context) (MessageStats, error) {
	m, err := repo.TypeCounters(ctx, s.Store.DB, s.Store.DeploymentID)
	if err != nil {
		return MessageStats{}, err
	}
	return newMessageStats(m), nil
}

// ResetMessageStats zeroes the counters and returns their previous values.
func (s *AdminService) ResetMessageStats(ctx context.Context) (MessageStats, error) {
	ctx, span := s.span(ctx, "ResetMessageStats")
	defer span.End()

	prev, err := repo.ResetTypeCounters(ctx, s.Store.DB, s.Store.DeploymentID)
	if err != nil {
		return MessageStats{}, err
	}
	return newMessageStats(prev), nil
}

// RateStats reports tracked senders and those currently at the limit.
func (s *AdminService) RateStats(ctx context.Context) (RateStats, error) {
	p, err := s.Store.RatePolicy(ctx)
	if err != nil {
		return RateStats{}, err
	}
	tracked, atLimit, err := repo.RateStats(ctx, s.Store.DB, s.Store.DeploymentID, p, s.now())
	if err != nil {
		return RateStats{}, err
	}
	return RateStats{
		Limit:         p.Limit,
		WindowMinutes: p.WindowMinutes,
		TrackedUsers:  tracked,
		UsersAtLimit:  atLimit,
	}, nil
}

// IsValidation reports whether err is an input validation failure.
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidUserID) ||
		errors.Is(err, ErrInvalidChannelID) ||
		errors.Is(err, ErrInvalidRatePolicy)
}
