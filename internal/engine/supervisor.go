package engine

import (
	"time"

	"veilmatch/backend/internal/models"

	"go.uber.org/zap"
)

// Unregister handles a dropped connection. If another connection still
// represents the same user (multi-tab, reconnect race) nothing else happens.
// Otherwise a grace timer starts: a reconnect inside the window is a
// non-event, expiry tears down every active match the user is in and informs
// each counterpart exactly once.
func (e *Engine) Unregister(c Client) {
	e.mu.Lock()
	defer e.mu.Unlock()

	connID := c.GetConnID()
	delete(e.clients, connID)
	e.removeFromQueueLocked(connID)

	entry, ok := e.presence[connID]
	if !ok {
		return
	}
	delete(e.presence, connID)

	userID := entry.UserID
	if peers := e.byUser[userID]; peers != nil {
		delete(peers, connID)
		if len(peers) == 0 {
			delete(e.byUser, userID)
		}
	}
	if e.routing[userID] == connID {
		delete(e.routing, userID)
		// Якщо лишилась інша вкладка — вона стає авторитетною.
		for otherConn := range e.byUser[userID] {
			e.routing[userID] = otherConn
			break
		}
	}

	if len(e.byUser[userID]) > 0 {
		// Інше з'єднання цього користувача живе, матч не чіпаємо.
		return
	}

	// Прапорець InMatch на записі присутності тримає лише останній матч;
	// користувач може бути учасником кількох, тому скануємо сховище.
	inMatch := false
	for _, m := range e.active {
		if m.HasUser(userID) {
			inMatch = true
			break
		}
	}
	if !inMatch {
		return
	}

	e.cancelGraceLocked(userID)
	e.graceTimers[userID] = time.AfterFunc(e.gracePeriod, func() {
		e.graceExpired(userID)
	})
	e.log.Debug("grace timer started",
		zap.String("user_id", userID),
		zap.Duration("grace", e.gracePeriod))
}

func (e *Engine) cancelGraceLocked(userID string) {
	if t, ok := e.graceTimers[userID]; ok {
		t.Stop()
		delete(e.graceTimers, userID)
	}
}

// graceExpired runs on the timer goroutine, so it re-enters through the
// engine lock and re-checks presence: announce may have raced the expiry.
// Every active match the user is still in dissolves; matches that ended
// through another path while the timer was pending are simply absent.
func (e *Engine) graceExpired(userID string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	delete(e.graceTimers, userID)

	if len(e.byUser[userID]) > 0 {
		return // встиг перепідключитись
	}

	for matchID, am := range e.active {
		if !am.HasUser(userID) {
			continue
		}

		other := am.Other(userID)
		e.removeActiveLocked(matchID)
		e.dropRequestsForMatchLocked(matchID)

		e.pushParticipant(other, models.ServerEvent{
			Type: models.EvPartnerGone,
			Data: models.MatchEndedPayload{MatchID: matchID, Reason: "partner disconnected"},
		})

		e.log.Info("match dissolved after grace expiry",
			zap.String("match_id", matchID),
			zap.String("user_id", userID))
	}
}
