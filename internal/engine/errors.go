// Package engine implements the match lifecycle core: presence registry,
// matching queue, match store, continue-request protocol, message routing
// and the disconnect grace supervisor.
package engine

import "errors"

// Sentinel errors surfaced to clients as `error` events. Handlers compare
// with errors.Is; none of these is ever fatal to the process.
var (
	// ErrProfileNotFound indicates the announced user has no stored profile.
	ErrProfileNotFound = errors.New("profile not found")

	// ErrNotAnnounced indicates the connection tried a protocol operation
	// before announce-identity.
	ErrNotAnnounced = errors.New("identity not announced on this connection")

	// ErrUserBanned indicates the announced user is banned.
	ErrUserBanned = errors.New("user is banned")

	// ErrMatchNotFound indicates every resolution strategy was exhausted.
	ErrMatchNotFound = errors.New("match not found")

	// ErrMatchNotActive indicates a promotion was attempted on a match that
	// is no longer (or never was) in the anonymous phase.
	ErrMatchNotActive = errors.New("match is not active")

	// ErrMessageNotFound indicates the referenced message is not in the match.
	ErrMessageNotFound = errors.New("message not found")

	// ErrDuplicateRequest indicates a pending continue-request already
	// exists from the same sender on the same match.
	ErrDuplicateRequest = errors.New("continue request already pending")

	// ErrRequestNotFound indicates no pending continue-request is addressed
	// to the acting user.
	ErrRequestNotFound = errors.New("continue request not found")

	// ErrUnauthorized indicates the acting user is not a party to the match
	// or message.
	ErrUnauthorized = errors.New("not authorized for this match")
)
