package engine

import (
	"veilmatch/backend/internal/models"

	"go.uber.org/zap"
)

// Announce binds a user identity to a connection. It loads the profile,
// re-attaches the connection to a match (explicit matchID hint first, then
// a participant scan over active matches), replays continue-requests that
// could not be delivered while the user was offline, and drains queued
// notifications.
func (e *Engine) Announce(c Client, userID, matchID string) error {
	if userID == "" {
		return ErrProfileNotFound
	}

	banned, err := e.storage.IsUserBanned(userID)
	if err != nil {
		e.log.Warn("ban check failed, allowing", zap.String("user_id", userID), zap.Error(err))
	}
	if banned {
		return ErrUserBanned
	}

	profile, err := e.storage.GetProfile(userID)
	if err != nil {
		return err
	}
	if profile == nil {
		return ErrProfileNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	connID := c.GetConnID()
	c.SetUserID(userID)

	entry := &PresenceEntry{
		ConnID:  connID,
		UserID:  userID,
		Profile: profile,
	}

	// Прив'язка до матчу: спочатку явний matchID від клієнта, інакше скан
	// активних матчів (перепідключення без збереженого id).
	if matchID != "" {
		e.adoptMatch(entry, matchID)
	}
	if !entry.InMatch {
		for _, m := range e.active {
			if m.HasUser(userID) {
				m.Side(userID).ConnID = connID
				entry.InMatch = true
				entry.MatchID = m.MatchID
				break
			}
		}
	}

	e.loadMembershipLocked(userID)

	e.presence[connID] = entry
	if e.byUser[userID] == nil {
		e.byUser[userID] = make(map[string]*PresenceEntry)
	}
	e.byUser[userID][connID] = entry
	e.routing[userID] = connID

	e.cancelGraceLocked(userID)

	e.push(c, models.ServerEvent{
		Type: models.EvProfileSet,
		Data: models.ProfileSetPayload{Profile: profile, MatchID: entry.MatchID},
	})

	e.replayPendingRequestsLocked(userID, connID)
	e.deliverQueuedNotificationsLocked(c, userID)

	e.log.Info("identity announced",
		zap.String("user_id", userID),
		zap.String("conn_id", connID),
		zap.String("match_id", entry.MatchID))
	return nil
}

// adoptMatch прив'язує з'єднання до матчу за явним id. Застарілий id — не
// помилка: announce має пройти, клієнт перезапустить пошук сам.
func (e *Engine) adoptMatch(entry *PresenceEntry, matchID string) {
	if m, ok := e.active[matchID]; ok && m.HasUser(entry.UserID) {
		m.Side(entry.UserID).ConnID = entry.ConnID
		entry.InMatch = true
		entry.MatchID = matchID
		return
	}
	if m := e.completedLocked(matchID); m != nil && m.HasUser(entry.UserID) {
		m.Side(entry.UserID).ConnID = entry.ConnID
		entry.MatchID = matchID
		return
	}
	e.log.Debug("stale match hint on announce",
		zap.String("user_id", entry.UserID), zap.String("match_id", matchID))
}

// loadMembershipLocked підтягує завершені матчі користувача з БД у пам'ять
// при першому announce після старту процесу.
func (e *Engine) loadMembershipLocked(userID string) {
	if _, ok := e.membership[userID]; ok {
		return
	}
	matches, err := e.storage.LoadCompletedMatchesForUser(userID)
	if err != nil {
		e.log.Error("failed to load completed matches", zap.String("user_id", userID), zap.Error(err))
		e.membership[userID] = nil
		return
	}
	ids := make([]string, 0, len(matches))
	for _, m := range matches {
		if _, exists := e.completed[m.MatchID]; !exists {
			e.completed[m.MatchID] = m
		}
		ids = append(ids, m.MatchID)
	}
	e.membership[userID] = ids
}

// replayPendingRequestsLocked доставляє заявки на продовження, адресовані
// користувачу, які не мали живого з'єднання на момент створення.
func (e *Engine) replayPendingRequestsLocked(userID, connID string) {
	for _, req := range e.requests {
		if req.ToUserID != userID || req.Status != models.RequestPending || req.Delivered {
			continue
		}
		m, ok := e.active[req.MatchID]
		if !ok {
			continue
		}
		req.ToConnID = connID
		if e.pushConn(connID, models.ServerEvent{
			Type: models.EvContinueReceived,
			Data: models.ContinueReceivedPayload{
				RequestID:          req.RequestID,
				MatchID:            req.MatchID,
				PartnerAnonymousID: m.Side(req.FromUserID).AnonymousID,
			},
		}) {
			req.Delivered = true
		}
	}
}

func (e *Engine) deliverQueuedNotificationsLocked(c Client, userID string) {
	notifications, err := e.storage.DrainNotifications(userID)
	if err != nil {
		e.log.Warn("failed to drain notifications", zap.String("user_id", userID), zap.Error(err))
		return
	}
	for _, n := range notifications {
		e.push(c, models.ServerEvent{Type: models.EvNotification, Data: n})
	}
}
