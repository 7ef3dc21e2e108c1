package engine

import (
	"time"

	"veilmatch/backend/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// StartMatching enqueues the connection and runs one pairing pass. The scan
// takes the first mutually compatible entry, not the oldest one. A user who
// is already in an active match may enqueue again for a second one: the
// queue layer deliberately has no single-active-match constraint.
func (e *Engine) StartMatching(c Client, genderFilter string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	entry, err := e.entryFor(c)
	if err != nil {
		return err
	}

	connID := c.GetConnID()
	if _, ok := e.queued[connID]; ok {
		return nil // вже в черзі, повторний запит ігноруємо
	}

	qe := &QueueEntry{
		ConnID:       connID,
		UserID:       entry.UserID,
		Profile:      entry.Profile,
		GenderFilter: genderFilter,
	}
	e.queue = append(e.queue, qe)
	e.queued[connID] = qe
	e.log.Debug("queued for matching",
		zap.String("user_id", qe.UserID), zap.String("gender_filter", genderFilter))

	e.pairLocked(qe)
	return nil
}

// StopMatching removes the connection from the queue. Idempotent: stopping
// a search that was never started is a success.
func (e *Engine) StopMatching(c Client) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.removeFromQueueLocked(c.GetConnID())
	e.push(c, models.ServerEvent{Type: models.EvMatchingStopped})
}

func (e *Engine) removeFromQueueLocked(connID string) {
	if _, ok := e.queued[connID]; !ok {
		return
	}
	delete(e.queued, connID)
	for i, qe := range e.queue {
		if qe.ConnID == connID {
			e.queue = append(e.queue[:i], e.queue[i+1:]...)
			break
		}
	}
}

// compatible — обидва фільтри мають бути задоволені. Порожній фільтр
// приймає будь-яку стать.
func compatible(a, b *QueueEntry) bool {
	if a.GenderFilter != "" && a.GenderFilter != b.Profile.Gender {
		return false
	}
	if b.GenderFilter != "" && b.GenderFilter != a.Profile.Gender {
		return false
	}
	return true
}

// pairLocked шукає першого сумісного кандидата для qe та створює матч.
func (e *Engine) pairLocked(qe *QueueEntry) {
	for _, candidate := range e.queue {
		// Не з'єднувати користувача із самим собою (включно з другою вкладкою)
		if candidate.UserID == qe.UserID {
			continue
		}
		if !compatible(qe, candidate) {
			continue
		}

		e.removeFromQueueLocked(qe.ConnID)
		e.removeFromQueueLocked(candidate.ConnID)
		e.createActiveLocked(qe, candidate)
		return
	}
	// Кандидата немає — запис лишається в черзі без таймауту.
}

func (e *Engine) createActiveLocked(a, b *QueueEntry) {
	matchID := uuid.New().String()
	m := &models.ActiveMatch{
		MatchID: matchID,
		User1: models.Participant{
			UserID:      a.UserID,
			ConnID:      a.ConnID,
			AnonymousID: a.Profile.AnonymousNumber,
			Profile:     a.Profile,
		},
		User2: models.Participant{
			UserID:      b.UserID,
			ConnID:      b.ConnID,
			AnonymousID: b.Profile.AnonymousNumber,
			Profile:     b.Profile,
		},
		StartedAt: time.Now(),
		Messages:  []*models.Message{},
	}
	e.active[matchID] = m

	for _, qe := range []*QueueEntry{a, b} {
		if entry, ok := e.presence[qe.ConnID]; ok {
			entry.InMatch = true
			entry.MatchID = matchID
		}
	}

	// Анонімна фаза зберігається best-effort.
	if err := e.storage.SaveActiveMatch(m); err != nil {
		e.log.Warn("failed to persist active match", zap.String("match_id", matchID), zap.Error(err))
	}

	e.pushConn(a.ConnID, models.ServerEvent{
		Type: models.EvMatchFound,
		Data: models.MatchFoundPayload{
			MatchID:            matchID,
			AnonymousID:        m.User1.AnonymousID,
			PartnerAnonymousID: m.User2.AnonymousID,
		},
	})
	e.pushConn(b.ConnID, models.ServerEvent{
		Type: models.EvMatchFound,
		Data: models.MatchFoundPayload{
			MatchID:            matchID,
			AnonymousID:        m.User2.AnonymousID,
			PartnerAnonymousID: m.User1.AnonymousID,
		},
	})

	e.log.Info("match created",
		zap.String("match_id", matchID),
		zap.String("user1", a.UserID),
		zap.String("user2", b.UserID))
}
