package engine

import (
	"strings"
	"time"

	"veilmatch/backend/internal/config"
	"veilmatch/backend/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SendMessage appends a message to the resolved match and delivers it. The
// counterpart gets `new-message`, the sender gets a `message-sent` echo —
// never both on the same side, so the client renders each message once.
func (e *Engine) SendMessage(c Client, matchID, text, mediaURL, mediaType string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	entry, err := e.entryFor(c)
	if err != nil {
		return err
	}
	userID := entry.UserID

	if strings.TrimSpace(text) == "" && mediaURL == "" {
		return nil // порожнє повідомлення мовчки ігноруємо
	}

	res, err := e.resolveMatchLocked(matchID, userID)
	if err != nil {
		return err
	}
	if !res.hasUser(userID) {
		return ErrUnauthorized
	}

	msg := &models.Message{
		ID:        uuid.New().String(),
		UserID:    userID,
		MatchID:   res.matchID(),
		Text:      text,
		MediaURL:  mediaURL,
		MediaType: mediaType,
		Timestamp: time.Now(),
		ReadBy:    []string{},
		Reactions: map[string][]string{},
	}

	var other *models.Participant
	if res.active != nil {
		res.active.Messages = append(res.active.Messages, msg)
		other = res.active.Other(userID)
	} else {
		res.completed.Messages = append(res.completed.Messages, msg)
		res.completed.LastMessageAt = msg.Timestamp
		other = res.completed.Other(userID)
	}
	e.persistMatchLocked(res)

	e.pushParticipant(other, models.ServerEvent{Type: models.EvNewMessage, Data: msg})
	e.push(c, models.ServerEvent{Type: models.EvMessageSent, Data: msg})
	return nil
}

// MarkRead adds the caller to the message's read list and tells the
// counterpart. Marking twice is harmless.
func (e *Engine) MarkRead(c Client, matchID, messageID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	entry, err := e.entryFor(c)
	if err != nil {
		return err
	}
	userID := entry.UserID

	res, msg, err := e.findMessageLocked(matchID, userID, messageID)
	if err != nil {
		return err
	}

	if !msg.IsReadBy(userID) {
		msg.ReadBy = append(msg.ReadBy, userID)
		e.persistMatchLocked(res)
	}

	e.pushParticipant(e.otherOf(res, userID), models.ServerEvent{
		Type: models.EvMessageRead,
		Data: models.MessageReadPayload{MatchID: res.matchID(), MessageID: messageID, UserID: userID},
	})
	return nil
}

// React toggles the caller's reaction under the given label. Both sides get
// the updated reaction map.
func (e *Engine) React(c Client, matchID, messageID, label string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	entry, err := e.entryFor(c)
	if err != nil {
		return err
	}
	userID := entry.UserID

	if label == "" {
		return nil
	}

	res, msg, err := e.findMessageLocked(matchID, userID, messageID)
	if err != nil {
		return err
	}

	msg.ToggleReaction(label, userID)
	e.persistMatchLocked(res)

	ev := models.ServerEvent{
		Type: models.EvMessageReaction,
		Data: models.MessageReactionPayload{
			MatchID:   res.matchID(),
			MessageID: messageID,
			Reactions: msg.Reactions,
		},
	}
	e.pushParticipant(e.otherOf(res, userID), ev)
	e.push(c, ev)
	return nil
}

// DeleteMessage tombstones a message. Only the author may delete; the text
// is replaced, the record itself stays in the history.
func (e *Engine) DeleteMessage(c Client, matchID, messageID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	entry, err := e.entryFor(c)
	if err != nil {
		return err
	}
	userID := entry.UserID

	res, msg, err := e.findMessageLocked(matchID, userID, messageID)
	if err != nil {
		return err
	}
	if msg.UserID != userID {
		return ErrUnauthorized
	}

	msg.Deleted = true
	msg.Text = config.DeletedMessageText
	msg.MediaURL = ""
	msg.MediaType = ""
	e.persistMatchLocked(res)

	ev := models.ServerEvent{
		Type: models.EvMessageDeleted,
		Data: models.MessageDeletedPayload{MatchID: res.matchID(), MessageID: messageID},
	}
	e.pushParticipant(e.otherOf(res, userID), ev)
	e.push(c, ev)
	return nil
}

// Typing forwards a typing indicator to the counterpart. Nothing is stored.
func (e *Engine) Typing(c Client, matchID string, isTyping bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	entry, err := e.entryFor(c)
	if err != nil {
		return err
	}
	userID := entry.UserID

	res, err := e.resolveMatchLocked(matchID, userID)
	if err != nil {
		return err
	}
	if !res.hasUser(userID) {
		return ErrUnauthorized
	}

	e.pushParticipant(e.otherOf(res, userID), models.ServerEvent{
		Type: models.EvUserTyping,
		Data: models.TypingPayload{MatchID: res.matchID(), UserID: userID, IsTyping: isTyping},
	})
	return nil
}

func (e *Engine) otherOf(res *resolved, userID string) *models.Participant {
	if res.active != nil {
		return res.active.Other(userID)
	}
	return res.completed.Other(userID)
}

func (e *Engine) findMessageLocked(matchID, userID, messageID string) (*resolved, *models.Message, error) {
	res, err := e.resolveMatchLocked(matchID, userID)
	if err != nil {
		return nil, nil, err
	}
	if !res.hasUser(userID) {
		return nil, nil, ErrUnauthorized
	}

	var messages []*models.Message
	if res.active != nil {
		messages = res.active.Messages
	} else {
		messages = res.completed.Messages
	}
	for _, msg := range messages {
		if msg.ID == messageID {
			return res, msg, nil
		}
	}
	return nil, nil, ErrMessageNotFound
}

// persistMatchLocked: завершені матчі пишуться синхронно, анонімні —
// best-effort. Відмова сховища логуються, пам'ять лишається авторитетною.
func (e *Engine) persistMatchLocked(res *resolved) {
	if res.completed != nil {
		if err := e.storage.SaveCompletedMatch(res.completed); err != nil {
			e.log.Error("failed to persist completed match",
				zap.String("match_id", res.completed.MatchID), zap.Error(err))
		}
		return
	}
	if err := e.storage.SaveActiveMatch(res.active); err != nil {
		e.log.Warn("failed to persist active match",
			zap.String("match_id", res.active.MatchID), zap.Error(err))
	}
}
