package models

// Client → server event types.
const (
	EvAnnounceIdentity = "announce-identity"
	EvStartMatching    = "start-matching"
	EvStopMatching     = "stop-matching"
	EvContinueRequest  = "continue-request"
	EvAcceptContinue   = "accept-continue-request"
	EvRejectContinue   = "reject-continue-request"
	EvSendMessage      = "send-message"
	EvMarkMessageRead  = "mark-message-read"
	EvReactToMessage   = "react-to-message"
	EvDeleteMessage    = "delete-message"
	EvTyping           = "typing"
	EvLeaveMatch       = "leave-match"
	EvGetMatches       = "get-matches"
	EvGetMatchState    = "get-match-state"
)

// Server → client event types.
const (
	EvError            = "error"
	EvProfileSet       = "profile-set"
	EvMatchFound       = "match-found"
	EvMatchingStopped  = "matching-stopped"
	EvContinueSent     = "continue-request-sent"
	EvContinueReceived = "continue-request-received"
	EvContinueRejected = "continue-request-rejected"
	EvMatchContinued   = "match-continued"
	EvMatchesUpdated   = "matches-updated"
	EvMatchEnded       = "match-ended"
	EvMatchLeft        = "match-left"
	EvNewMessage       = "new-message"
	EvMessageSent      = "message-sent"
	EvMessageRead      = "message-read"
	EvMessageReaction  = "message-reaction"
	EvMessageDeleted   = "message-deleted"
	EvUserTyping       = "user-typing"
	EvPartnerGone      = "partner-disconnected"
	EvNotification     = "notification"
	EvMatchesList      = "matches-list"
	EvMatchState       = "match-state"
)

// ClientEvent is the single flat envelope decoded from the WebSocket. Only
// the fields relevant to Type are set; the rest stay zero.
type ClientEvent struct {
	Type         string `json:"type"`
	UserID       string `json:"user_id,omitempty"`
	MatchID      string `json:"match_id,omitempty"`
	MessageID    string `json:"message_id,omitempty"`
	Text         string `json:"text,omitempty"`
	MediaURL     string `json:"media_url,omitempty"`
	MediaType    string `json:"media_type,omitempty"`
	Reaction     string `json:"reaction,omitempty"`
	GenderFilter string `json:"gender_filter,omitempty"`
	IsTyping     bool   `json:"is_typing,omitempty"`
}

// ServerEvent is the envelope written back to clients.
type ServerEvent struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

// --- Server event payloads ---

type ErrorPayload struct {
	Message string `json:"message"`
}

type ProfileSetPayload struct {
	Profile *UserProfile `json:"profile"`
	MatchID string       `json:"match_id,omitempty"`
}

type MatchFoundPayload struct {
	MatchID            string `json:"match_id"`
	AnonymousID        string `json:"anonymous_id"`
	PartnerAnonymousID string `json:"partner_anonymous_id"`
}

type ContinueSentPayload struct {
	RequestID string `json:"request_id"`
	MatchID   string `json:"match_id"`
	Status    string `json:"status"`
}

type ContinueReceivedPayload struct {
	RequestID          string `json:"request_id"`
	MatchID            string `json:"match_id"`
	PartnerAnonymousID string `json:"partner_anonymous_id"`
}

type MatchContinuedPayload struct {
	MatchID        string       `json:"match_id"`
	PartnerProfile *UserProfile `json:"partner_profile"`
}

type MatchEndedPayload struct {
	MatchID string `json:"match_id"`
	Reason  string `json:"reason,omitempty"`
}

type MessageReadPayload struct {
	MatchID   string `json:"match_id"`
	MessageID string `json:"message_id"`
	UserID    string `json:"user_id"`
}

type MessageReactionPayload struct {
	MatchID   string              `json:"match_id"`
	MessageID string              `json:"message_id"`
	Reactions map[string][]string `json:"reactions"`
}

type MessageDeletedPayload struct {
	MatchID   string `json:"match_id"`
	MessageID string `json:"message_id"`
}

type TypingPayload struct {
	MatchID  string `json:"match_id"`
	UserID   string `json:"user_id"`
	IsTyping bool   `json:"is_typing"`
}

// MatchSummary is one row of a matches-list response.
type MatchSummary struct {
	MatchID       string       `json:"match_id"`
	Partner       *UserProfile `json:"partner"`
	CompletedAt   string       `json:"completed_at"`
	LastMessageAt string       `json:"last_message_at"`
}

// MatchStatePayload describes one match from the point of view of the asking
// user. Partner stays nil while the match is anonymous.
type MatchStatePayload struct {
	MatchID            string       `json:"match_id"`
	Phase              string       `json:"phase"` // "anonymous" | "revealed"
	PartnerAnonymousID string       `json:"partner_anonymous_id,omitempty"`
	Partner            *UserProfile `json:"partner,omitempty"`
	Messages           []*Message   `json:"messages"`
}
