package models

import "time"

// Participant is the normalized per-side record used by both ActiveMatch and
// CompletedMatch. ConnID points at the connection that currently represents
// the user and is rewritten on every announce; it can be stale or empty.
type Participant struct {
	UserID      string       `json:"user_id"`
	ConnID      string       `json:"conn_id,omitempty"`
	AnonymousID string       `json:"anonymous_id"`
	Profile     *UserProfile `json:"profile,omitempty"`
}

// ActiveMatch is an anonymous, ephemeral pairing. It lives until it is
// promoted to a CompletedMatch or torn down (rejection, disconnect timeout,
// explicit leave). While active, neither side ever sees the other's profile,
// only the AnonymousID.
type ActiveMatch struct {
	MatchID   string      `json:"match_id"`
	User1     Participant `json:"user1"`
	User2     Participant `json:"user2"`
	StartedAt time.Time   `json:"started_at"`
	Messages  []*Message  `json:"messages"`
}

// CompletedMatch is a revealed, durable match produced by promoting an
// ActiveMatch after an accepted continue-request.
type CompletedMatch struct {
	MatchID       string      `json:"match_id"`
	User1         Participant `json:"user1"`
	User2         Participant `json:"user2"`
	StartedAt     time.Time   `json:"started_at"`
	CompletedAt   time.Time   `json:"completed_at"`
	LastMessageAt time.Time   `json:"last_message_at"`
	Messages      []*Message  `json:"messages"`
}

// HasUser reports whether userID is one of the two participants.
func (m *ActiveMatch) HasUser(userID string) bool {
	return m.User1.UserID == userID || m.User2.UserID == userID
}

// Other returns the counterpart participant for userID.
func (m *ActiveMatch) Other(userID string) *Participant {
	if m.User1.UserID == userID {
		return &m.User2
	}
	return &m.User1
}

// Side returns the participant record for userID itself.
func (m *ActiveMatch) Side(userID string) *Participant {
	if m.User1.UserID == userID {
		return &m.User1
	}
	return &m.User2
}

func (m *CompletedMatch) HasUser(userID string) bool {
	return m.User1.UserID == userID || m.User2.UserID == userID
}

func (m *CompletedMatch) Other(userID string) *Participant {
	if m.User1.UserID == userID {
		return &m.User2
	}
	return &m.User1
}

func (m *CompletedMatch) Side(userID string) *Participant {
	if m.User1.UserID == userID {
		return &m.User1
	}
	return &m.User2
}
