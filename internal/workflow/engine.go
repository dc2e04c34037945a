// Package workflow – Engine
//
// This file implements Engine, the component that drives a note from compose
// through classification to publication, and mediates the reply and comment
// sub-flows on published notes. Conversations are keyed by opaque ids
// (cache ids, published message ids) rather than by a session.
//
// Every operation evaluates its gates before it consumes or writes ephemeral
// state, so a rejected attempt leaves nothing behind that a retry needs.
//
// Observability: every public method opens an OpenTelemetry span and counts
// its outcome in tellonym_workflow_outcomes_total.
package workflow

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/tbourn/go-tellonym/internal/domain"
	"github.com/tbourn/go-tellonym/internal/policy"
	"github.com/tbourn/go-tellonym/internal/state"
)

// Engine coordinates the compose, reply, and comment flows.
type Engine struct {
	Config    ConfigStore
	Limiter   Limiter
	Store     *state.Store
	Renderer  Renderer
	Resolver  Resolver
	Publisher Publisher
	Log       zerolog.Logger

	// NewID returns pending-compose cache ids; defaults to uuid.NewString.
	NewID func() string
	// TitleLocale drives heading capitalisation ("New Compliment").
	TitleLocale language.Tag
}

func (e *Engine) newID() string {
	if e.NewID != nil {
		return e.NewID()
	}
	return uuid.NewString()
}

func (e *Engine) title(s string) string {
	tag := e.TitleLocale
	if tag == language.Und {
		tag = language.English
	}
	return cases.Title(tag).String(s)
}

// begin opens a span for op. The returned finish records err on the span,
// counts the outcome, and logs unexpected failures with full detail.
func (e *Engine) begin(ctx context.Context, flow string, actor Actor, attrs ...attribute.KeyValue) (context.Context, func(error)) {
	tr := otel.Tracer("workflow/Engine")
	attrs = append(attrs, attribute.String("user.id", actor.ID))
	ctx, span := tr.Start(ctx, flow, trace.WithAttributes(attrs...))

	return ctx, func(err error) {
		kind := Classify(err)
		outcomes.WithLabelValues(flow, kind.String()).Inc()
		if err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("outcome", kind.String()))
			if kind == KindUnexpected {
				span.SetStatus(codes.Error, err.Error())
				e.Log.Error().Err(err).Str("flow", flow).Str("user_id", actor.ID).Msg("workflow step failed")
			} else {
				e.Log.Debug().Err(err).Str("flow", flow).Str("outcome", kind.String()).Msg("workflow step rejected")
			}
		}
		span.End()
	}
}

func (e *Engine) readConfig(ctx context.Context) (domain.Config, error) {
	cfg, err := e.Config.Read(ctx)
	if err != nil {
		return domain.Config{}, errors.Join(errors.New("read config"), err)
	}
	return cfg, nil
}

// gateSender applies the enabled and ban gates.
func gateSender(cfg domain.Config, userID string) error {
	if !policy.SystemEnabled(cfg) {
		return ErrSystemDisabled
	}
	if policy.IsBanned(cfg, userID) {
		return ErrBanned
	}
	return nil
}

// gateRate returns a *RateLimitedError when userID exhausted its window.
func (e *Engine) gateRate(ctx context.Context, userID string) error {
	limited, err := e.Limiter.IsLimited(ctx, userID)
	if err != nil {
		return err
	}
	if !limited {
		return nil
	}
	secs, err := e.Limiter.TimeLeftSeconds(ctx, userID)
	if err != nil {
		return err
	}
	return &RateLimitedError{Seconds: secs}
}

// cleanText trims s and enforces 1..max runes (max <= 0 means unbounded).
func cleanText(s string, max int) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", ErrEmptyText
	}
	if max > 0 && utf8.RuneCountInString(s) > max {
		return "", ErrTooLong
	}
	return s, nil
}

// Mention formats a user reference for message content.
func Mention(userID string) string { return "<@" + userID + ">" }
