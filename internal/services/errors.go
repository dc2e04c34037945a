// Package services defines the administrative use-cases of a deployment:
// destinations, the enable switch, bans, rate policy, and statistics.
// This file centralizes the service-level error values so that they can be
// consistently returned by service methods and checked by callers.
//
// Translation into user-facing messages or HTTP status codes is performed at
// the transport layer (slash commands and the admin REST API).
package services

import "errors"

var (
	// ErrInvalidUserID is returned when a user id is not a platform snowflake.
	ErrInvalidUserID = errors.New("invalid user id")

	// ErrInvalidChannelID is returned when a channel id is not a snowflake.
	ErrInvalidChannelID = errors.New("invalid channel id")

	// ErrInvalidRatePolicy is returned when the limit is negative or the
	// window is not positive.
	ErrInvalidRatePolicy = errors.New("invalid rate policy")

	// ErrAlreadyBanned is returned when banning a user already on the list.
	ErrAlreadyBanned = errors.New("user is already banned")

	// ErrNotBanned is returned when unbanning a user who is not on the list.
	ErrNotBanned = errors.New("user is not banned")
)
