// Package workflow – errors
//
// This file centralizes the sentinel errors returned by Engine operations and
// classifies them into a small taxonomy (see Kind). Translation into user
// facing text happens at the interaction layer.
package workflow

import (
	"errors"
	"fmt"
)

// Policy denials: reported to the user, never retried.
var (
	ErrSystemDisabled      = errors.New("system disabled")
	ErrBanned              = errors.New("sender is banned")
	ErrRateLimited         = errors.New("rate limited")
	ErrUnauthorizedReplier = errors.New("only the receiver may reply")
	ErrAlreadyCommented    = errors.New("already commented on this message")
	ErrLogsNotConfigured   = errors.New("log destination not configured")
	ErrEmptyText           = errors.New("text is empty")
	ErrTooLong             = errors.New("text too long")
)

// Expired or unknown ephemeral state.
var (
	ErrPendingComposeMissing = errors.New("pending compose expired or unknown")
	ErrMappingMissing        = errors.New("dispatch mapping expired or unknown")
)

// Identity resolution failures.
var (
	ErrReceiverNotFound  = errors.New("receiver not found")
	ErrReceiverAutomated = errors.New("receiver is an automated account")
)

// Delivery failures.
var (
	ErrPublishFailed     = errors.New("publish failed")
	ErrEditFailed        = errors.New("edit failed")
	ErrPrivateSendFailed = errors.New("private send failed")
)

// ErrTransient marks benign platform races (interaction expired or already
// acknowledged). Adapters wrap it; callers drop such errors silently.
var ErrTransient = errors.New("transient platform condition")

// RateLimitedError carries the seconds left in the sender's window.
type RateLimitedError struct {
	Seconds int
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("rate limited: %ds left", e.Seconds)
}

// Is lets errors.Is(err, ErrRateLimited) match.
func (e *RateLimitedError) Is(target error) bool { return target == ErrRateLimited }

// ReceiverNotFoundError keeps the query that failed to resolve.
type ReceiverNotFoundError struct {
	Query string
}

func (e *ReceiverNotFoundError) Error() string {
	return fmt.Sprintf("receiver not found: %q", e.Query)
}

// Is lets errors.Is(err, ErrReceiverNotFound) match.
func (e *ReceiverNotFoundError) Is(target error) bool { return target == ErrReceiverNotFound }

// Kind is the error taxonomy used for reporting and metrics.
type Kind int

const (
	KindNone Kind = iota
	KindPolicyDenied
	KindStateExpired
	KindResolutionFailed
	KindDeliveryFailed
	KindTransient
	KindUnexpected
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "ok"
	case KindPolicyDenied:
		return "policy_denied"
	case KindStateExpired:
		return "state_expired"
	case KindResolutionFailed:
		return "resolution_failed"
	case KindDeliveryFailed:
		return "delivery_failed"
	case KindTransient:
		return "transient"
	}
	return "unexpected"
}

// Classify maps err onto a Kind. A nil error is KindNone.
func Classify(err error) Kind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrTransient):
		return KindTransient
	case errors.Is(err, ErrSystemDisabled),
		errors.Is(err, ErrBanned),
		errors.Is(err, ErrRateLimited),
		errors.Is(err, ErrUnauthorizedReplier),
		errors.Is(err, ErrAlreadyCommented),
		errors.Is(err, ErrLogsNotConfigured),
		errors.Is(err, ErrEmptyText),
		errors.Is(err, ErrTooLong):
		return KindPolicyDenied
	case errors.Is(err, ErrPendingComposeMissing), errors.Is(err, ErrMappingMissing):
		return KindStateExpired
	case errors.Is(err, ErrReceiverNotFound), errors.Is(err, ErrReceiverAutomated):
		return KindResolutionFailed
	case errors.Is(err, ErrPublishFailed), errors.Is(err, ErrEditFailed), errors.Is(err, ErrPrivateSendFailed):
		return KindDeliveryFailed
	}
	return KindUnexpected
}
