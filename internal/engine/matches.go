package engine

import (
	"sort"
	"time"

	"veilmatch/backend/internal/models"

	"go.uber.org/zap"
)

// resolved is the outcome of resolveMatchLocked: exactly one of the two
// fields is set.
type resolved struct {
	active    *models.ActiveMatch
	completed *models.CompletedMatch
}

func (r *resolved) matchID() string {
	if r.active != nil {
		return r.active.MatchID
	}
	return r.completed.MatchID
}

func (r *resolved) hasUser(userID string) bool {
	if r.active != nil {
		return r.active.HasUser(userID)
	}
	return r.completed.HasUser(userID)
}

// resolveMatchLocked finds a match for a protocol operation. Client-held
// match ids go stale across reconnects, so the strategies are ordered:
//
//  1. active match by explicit id
//  2. completed match by explicit id
//  3. active match containing userID
//  4. completed match containing userID
//
// When every strategy fails the caller gets ErrMatchNotFound; nothing is
// fabricated to paper over a missing record.
func (e *Engine) resolveMatchLocked(matchID, userID string) (*resolved, error) {
	if matchID != "" {
		if m, ok := e.active[matchID]; ok {
			return &resolved{active: m}, nil
		}
		if m := e.completedLocked(matchID); m != nil {
			return &resolved{completed: m}, nil
		}
	}
	if userID != "" {
		for _, m := range e.active {
			if m.HasUser(userID) {
				return &resolved{active: m}, nil
			}
		}
		for _, id := range e.membership[userID] {
			if m := e.completedLocked(id); m != nil {
				return &resolved{completed: m}, nil
			}
		}
	}
	return nil, ErrMatchNotFound
}

// completedLocked повертає завершений матч з пам'яті, з відкатом на БД.
func (e *Engine) completedLocked(matchID string) *models.CompletedMatch {
	if m, ok := e.completed[matchID]; ok {
		return m
	}
	m, err := e.storage.LoadCompletedMatch(matchID)
	if err != nil {
		e.log.Warn("completed match lookup failed", zap.String("match_id", matchID), zap.Error(err))
		return nil
	}
	if m != nil {
		e.completed[matchID] = m
	}
	return m
}

// promoteLocked turns an ActiveMatch into a CompletedMatch: the message
// history is carried over verbatim, both users' membership lists gain the
// match id and the active record disappears. Exactly one of the two stores
// holds the id at any point.
func (e *Engine) promoteLocked(matchID string) (*models.CompletedMatch, error) {
	am, ok := e.active[matchID]
	if !ok {
		return nil, ErrMatchNotActive
	}

	cm := &models.CompletedMatch{
		MatchID:       am.MatchID,
		User1:         am.User1,
		User2:         am.User2,
		StartedAt:     am.StartedAt,
		CompletedAt:   time.Now(),
		LastMessageAt: am.StartedAt,
		Messages:      am.Messages,
	}
	if n := len(am.Messages); n > 0 {
		cm.LastMessageAt = am.Messages[n-1].Timestamp
	}

	delete(e.active, matchID)
	e.completed[matchID] = cm
	e.addMembershipLocked(am.User1.UserID, matchID)
	e.addMembershipLocked(am.User2.UserID, matchID)

	if err := e.storage.SaveCompletedMatch(cm); err != nil {
		// Пам'ять лишається авторитетною; протокольна операція не падає.
		e.log.Error("failed to persist completed match", zap.String("match_id", matchID), zap.Error(err))
	}
	if err := e.storage.DeleteActiveMatch(matchID); err != nil {
		e.log.Warn("failed to delete active match snapshot", zap.String("match_id", matchID), zap.Error(err))
	}
	return cm, nil
}

// removeActiveLocked tears an active match down without promotion and clears
// the in-match flags on both users' presence entries. Returns nil if the
// match was already gone.
func (e *Engine) removeActiveLocked(matchID string) *models.ActiveMatch {
	am, ok := e.active[matchID]
	if !ok {
		return nil
	}
	delete(e.active, matchID)

	for _, userID := range []string{am.User1.UserID, am.User2.UserID} {
		for _, entry := range e.byUser[userID] {
			if entry.MatchID == matchID {
				entry.InMatch = false
				entry.MatchID = ""
			}
		}
	}

	if err := e.storage.DeleteActiveMatch(matchID); err != nil {
		e.log.Warn("failed to delete active match snapshot", zap.String("match_id", matchID), zap.Error(err))
	}
	return am
}

func (e *Engine) addMembershipLocked(userID, matchID string) {
	for _, id := range e.membership[userID] {
		if id == matchID {
			return
		}
	}
	e.membership[userID] = append(e.membership[userID], matchID)
}

func (e *Engine) removeMembershipLocked(userID, matchID string) {
	ids := e.membership[userID]
	for i, id := range ids {
		if id == matchID {
			e.membership[userID] = append(ids[:i], ids[i+1:]...)
			return
		}
	}
}

// LeaveMatch removes the caller from a match. An active match dissolves for
// both sides; a completed match is unlinked from both membership lists and
// deleted, together with any continue-request still pointing at it. Leaving
// a match that is already gone is a no-op success; leaving someone else's
// match is not.
func (e *Engine) LeaveMatch(c Client, matchID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	entry, err := e.entryFor(c)
	if err != nil {
		return err
	}
	userID := entry.UserID

	res, err := e.resolveMatchLocked(matchID, userID)
	if err != nil {
		// Вже немає — підтверджуємо, клієнту нема що чистити.
		e.push(c, models.ServerEvent{
			Type: models.EvMatchLeft,
			Data: models.MatchEndedPayload{MatchID: matchID, Reason: "already gone"},
		})
		return nil
	}
	if !res.hasUser(userID) {
		return ErrUnauthorized
	}

	if res.active != nil {
		am := e.removeActiveLocked(res.active.MatchID)
		if am != nil {
			e.dropRequestsForMatchLocked(am.MatchID)
			e.pushParticipant(am.Other(userID), models.ServerEvent{
				Type: models.EvMatchEnded,
				Data: models.MatchEndedPayload{MatchID: am.MatchID, Reason: "partner left"},
			})
		}
		e.push(c, models.ServerEvent{
			Type: models.EvMatchLeft,
			Data: models.MatchEndedPayload{MatchID: res.matchID()},
		})
		return nil
	}

	cm := res.completed
	e.removeMembershipLocked(cm.User1.UserID, cm.MatchID)
	e.removeMembershipLocked(cm.User2.UserID, cm.MatchID)
	delete(e.completed, cm.MatchID)
	e.dropRequestsForMatchLocked(cm.MatchID)

	if err := e.storage.DeleteCompletedMatch(cm.MatchID); err != nil {
		e.log.Error("failed to delete completed match", zap.String("match_id", cm.MatchID), zap.Error(err))
	}

	e.pushParticipant(cm.Other(userID), models.ServerEvent{
		Type: models.EvMatchEnded,
		Data: models.MatchEndedPayload{MatchID: cm.MatchID, Reason: "partner left"},
	})
	e.pushUser(cm.Other(userID).UserID, models.ServerEvent{Type: models.EvMatchesUpdated})
	e.push(c, models.ServerEvent{
		Type: models.EvMatchLeft,
		Data: models.MatchEndedPayload{MatchID: cm.MatchID},
	})
	e.push(c, models.ServerEvent{Type: models.EvMatchesUpdated})
	return nil
}

// Matches responds with the caller's completed matches, newest activity last.
func (e *Engine) Matches(c Client) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	entry, err := e.entryFor(c)
	if err != nil {
		return err
	}

	matches := make([]*models.CompletedMatch, 0, len(e.membership[entry.UserID]))
	for _, id := range e.membership[entry.UserID] {
		if m := e.completedLocked(id); m != nil {
			matches = append(matches, m)
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].LastMessageAt.Before(matches[j].LastMessageAt)
	})

	summaries := make([]models.MatchSummary, 0, len(matches))
	for _, m := range matches {
		summaries = append(summaries, models.MatchSummary{
			MatchID:       m.MatchID,
			Partner:       m.Other(entry.UserID).Profile,
			CompletedAt:   m.CompletedAt.Format(timeLayout),
			LastMessageAt: m.LastMessageAt.Format(timeLayout),
		})
	}

	e.push(c, models.ServerEvent{Type: models.EvMatchesList, Data: summaries})
	return nil
}

// MatchState reports one match as seen by the caller. While the match is
// anonymous the partner profile is withheld and only the anonymous id is
// present.
func (e *Engine) MatchState(c Client, matchID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	userID := c.GetUserID()
	res, err := e.resolveMatchLocked(matchID, userID)
	if err != nil {
		return err
	}
	if !res.hasUser(userID) {
		return ErrUnauthorized
	}

	var payload models.MatchStatePayload
	if res.active != nil {
		payload = models.MatchStatePayload{
			MatchID:            res.active.MatchID,
			Phase:              "anonymous",
			PartnerAnonymousID: res.active.Other(userID).AnonymousID,
			Messages:           res.active.Messages,
		}
	} else {
		payload = models.MatchStatePayload{
			MatchID:  res.completed.MatchID,
			Phase:    "revealed",
			Partner:  res.completed.Other(userID).Profile,
			Messages: res.completed.Messages,
		}
	}

	e.push(c, models.ServerEvent{Type: models.EvMatchState, Data: payload})
	return nil
}

const timeLayout = "2006-01-02T15:04:05Z07:00"
