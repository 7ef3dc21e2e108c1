package models

import "time"

// Message is a single chat message inside a match. Messages are append-only;
// deletion only sets the tombstone flag and blanks the displayed text.
type Message struct {
	ID        string              `json:"id"`
	UserID    string              `json:"user_id"`
	MatchID   string              `json:"match_id"`
	Text      string              `json:"text"`
	MediaURL  string              `json:"media_url,omitempty"`
	MediaType string              `json:"media_type,omitempty"`
	Timestamp time.Time           `json:"timestamp"`
	ReadBy    []string            `json:"read_by"`
	Reactions map[string][]string `json:"reactions"`
	Deleted   bool                `json:"deleted"`
}

// IsReadBy reports whether userID is already in the read list.
func (m *Message) IsReadBy(userID string) bool {
	for _, id := range m.ReadBy {
		if id == userID {
			return true
		}
	}
	return false
}

// ToggleReaction adds userID under label, or removes it if already present.
// Empty buckets are pruned so the map never carries dead labels.
func (m *Message) ToggleReaction(label, userID string) {
	if m.Reactions == nil {
		m.Reactions = make(map[string][]string)
	}
	bucket := m.Reactions[label]
	for i, id := range bucket {
		if id == userID {
			bucket = append(bucket[:i], bucket[i+1:]...)
			if len(bucket) == 0 {
				delete(m.Reactions, label)
			} else {
				m.Reactions[label] = bucket
			}
			return
		}
	}
	m.Reactions[label] = append(bucket, userID)
}
