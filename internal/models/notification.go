package models

import "time"

// Notification is a durable payload queued for a user who is offline and
// replayed on the next announce.
type Notification struct {
	Type      string    `json:"type"`
	MatchID   string    `json:"match_id,omitempty"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}
