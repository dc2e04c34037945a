// Package policy holds the side-effect-free gates evaluated before any
// workflow state is consumed or written.
package policy

import "github.com/tbourn/go-tellonym/internal/domain"

// CommentLedger answers whether a comment marker exists.
type CommentLedger interface {
	HasCommented(messageID, userID string) bool
}

// SystemEnabled reports whether composing is switched on.
func SystemEnabled(cfg domain.Config) bool { return cfg.Enabled }

// IsBanned reports whether userID is on the ban list.
func IsBanned(cfg domain.Config, userID string) bool {
	_, ok := cfg.BannedUsers[userID]
	return ok
}

// IsAuthorizedReplier reports whether userID received the mapped message.
func IsAuthorizedReplier(m domain.DispatchMapping, userID string) bool {
	return userID != "" && userID == m.ReceiverID
}

// HasCommented reports whether userID already commented on messageID.
func HasCommented(l CommentLedger, messageID, userID string) bool {
	return l.HasCommented(messageID, userID)
}

// LogsConfigured reports whether a public destination is set.
func LogsConfigured(cfg domain.Config) bool { return cfg.LogChannelID != "" }
