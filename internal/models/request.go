package models

import "time"

// Statuses of a ContinueRequest. Terminal states are never stored: the
// record is deleted as soon as it is accepted or rejected.
const (
	RequestPending  = "pending"
	RequestAccepted = "accepted"
	RequestRejected = "rejected"
)

// ContinueRequest — заявка одного з учасників ActiveMatch на розкриття
// особистостей. Адресується за userId, а не за з'єднанням: анонімний матч
// має переживати перепідключення будь-якої зі сторін між заявкою та
// відповіддю.
type ContinueRequest struct {
	RequestID  string    `json:"request_id"`
	MatchID    string    `json:"match_id"`
	FromUserID string    `json:"from_user_id"`
	ToUserID   string    `json:"to_user_id"`
	FromConnID string    `json:"from_conn_id,omitempty"`
	ToConnID   string    `json:"to_conn_id,omitempty"`
	Status     string    `json:"status"`
	Delivered  bool      `json:"delivered"` // false, поки одержувач офлайн
	CreatedAt  time.Time `json:"created_at"`
}
