package engine

import (
	"fmt"
	"time"

	"veilmatch/backend/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RequestContinue creates a pending continue-request on an active match.
// The request is addressed by userId, not by connection: either side may
// reconnect between request and response without breaking the handshake.
// Only one pending request per (match, sender) may exist.
func (e *Engine) RequestContinue(c Client, matchID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	entry, err := e.entryFor(c)
	if err != nil {
		return err
	}
	fromUserID := entry.UserID

	am := e.resolveActiveLocked(matchID, fromUserID)
	if am == nil {
		return ErrMatchNotFound
	}

	for _, req := range e.requests {
		if req.MatchID == am.MatchID && req.FromUserID == fromUserID && req.Status == models.RequestPending {
			return ErrDuplicateRequest
		}
	}

	other := am.Other(fromUserID)
	req := &models.ContinueRequest{
		RequestID:  uuid.New().String(),
		MatchID:    am.MatchID,
		FromUserID: fromUserID,
		ToUserID:   other.UserID,
		FromConnID: c.GetConnID(),
		Status:     models.RequestPending,
		CreatedAt:  time.Now(),
	}
	e.requests[req.RequestID] = req

	status := "waiting for partner to reconnect"
	if e.pushParticipant(other, models.ServerEvent{
		Type: models.EvContinueReceived,
		Data: models.ContinueReceivedPayload{
			RequestID:          req.RequestID,
			MatchID:            am.MatchID,
			PartnerAnonymousID: am.Side(fromUserID).AnonymousID,
		},
	}) {
		req.ToConnID = other.ConnID
		req.Delivered = true
		status = "delivered"
	}

	e.push(c, models.ServerEvent{
		Type: models.EvContinueSent,
		Data: models.ContinueSentPayload{
			RequestID: req.RequestID,
			MatchID:   am.MatchID,
			Status:    status,
		},
	})

	e.log.Info("continue request created",
		zap.String("match_id", am.MatchID),
		zap.String("from", fromUserID),
		zap.Bool("delivered", req.Delivered))
	return nil
}

// AcceptContinue accepts the pending request addressed to the caller and
// promotes the match. Both sides learn the other's real profile; if the
// requester is offline, a durable notification is queued and pushed through
// the external channel when one is linked.
func (e *Engine) AcceptContinue(c Client, matchID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	entry, err := e.entryFor(c)
	if err != nil {
		return err
	}

	req := e.pendingRequestForLocked(entry.UserID, matchID)
	if req == nil {
		return ErrRequestNotFound
	}

	cm, err := e.promoteLocked(req.MatchID)
	if err != nil {
		return err
	}

	req.Status = models.RequestAccepted
	delete(e.requests, req.RequestID)

	requester := cm.Side(req.FromUserID)
	acceptor := cm.Side(req.ToUserID)

	delivered := e.pushParticipant(requester, models.ServerEvent{
		Type: models.EvMatchContinued,
		Data: models.MatchContinuedPayload{MatchID: cm.MatchID, PartnerProfile: acceptor.Profile},
	})
	if delivered {
		e.pushUser(requester.UserID, models.ServerEvent{Type: models.EvMatchesUpdated})
	} else {
		e.queueAcceptNotificationLocked(cm.MatchID, requester, acceptor)
	}

	e.push(c, models.ServerEvent{
		Type: models.EvMatchContinued,
		Data: models.MatchContinuedPayload{MatchID: cm.MatchID, PartnerProfile: requester.Profile},
	})
	e.push(c, models.ServerEvent{Type: models.EvMatchesUpdated})

	e.log.Info("match continued",
		zap.String("match_id", cm.MatchID),
		zap.String("accepted_by", entry.UserID))
	return nil
}

// RejectContinue rejects the pending request addressed to the caller and
// tears the anonymous match down for both sides.
func (e *Engine) RejectContinue(c Client, matchID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	entry, err := e.entryFor(c)
	if err != nil {
		return err
	}

	req := e.pendingRequestForLocked(entry.UserID, matchID)
	if req == nil {
		return ErrRequestNotFound
	}

	req.Status = models.RequestRejected
	delete(e.requests, req.RequestID)

	am := e.removeActiveLocked(req.MatchID)

	e.pushUser(req.FromUserID, models.ServerEvent{
		Type: models.EvContinueRejected,
		Data: models.MatchEndedPayload{MatchID: req.MatchID},
	})
	if am != nil {
		e.pushParticipant(&am.User1, models.ServerEvent{
			Type: models.EvMatchEnded,
			Data: models.MatchEndedPayload{MatchID: am.MatchID, Reason: "continue request rejected"},
		})
		e.pushParticipant(&am.User2, models.ServerEvent{
			Type: models.EvMatchEnded,
			Data: models.MatchEndedPayload{MatchID: am.MatchID, Reason: "continue request rejected"},
		})
	}

	e.log.Info("continue request rejected",
		zap.String("match_id", req.MatchID),
		zap.String("rejected_by", entry.UserID))
	return nil
}

// resolveActiveLocked — звуження resolveMatchLocked до активних матчів:
// заявки на продовження мають сенс лише в анонімній фазі.
func (e *Engine) resolveActiveLocked(matchID, userID string) *models.ActiveMatch {
	if matchID != "" {
		if m, ok := e.active[matchID]; ok && m.HasUser(userID) {
			return m
		}
	}
	for _, m := range e.active {
		if m.HasUser(userID) {
			return m
		}
	}
	return nil
}

// pendingRequestForLocked знаходить очікуючу заявку, адресовану userID,
// опціонально звужену конкретним matchID.
func (e *Engine) pendingRequestForLocked(userID, matchID string) *models.ContinueRequest {
	for _, req := range e.requests {
		if req.ToUserID != userID || req.Status != models.RequestPending {
			continue
		}
		if matchID != "" && req.MatchID != matchID {
			continue
		}
		return req
	}
	return nil
}

func (e *Engine) dropRequestsForMatchLocked(matchID string) {
	for id, req := range e.requests {
		if req.MatchID == matchID {
			delete(e.requests, id)
		}
	}
}

func (e *Engine) queueAcceptNotificationLocked(matchID string, requester, acceptor *models.Participant) {
	n := models.Notification{
		Type:      models.EvMatchContinued,
		MatchID:   matchID,
		Text:      fmt.Sprintf("%s accepted your continue request", acceptor.Profile.Username),
		CreatedAt: time.Now(),
	}
	if err := e.storage.EnqueueNotification(requester.UserID, n); err != nil {
		e.log.Warn("failed to queue accept notification",
			zap.String("user_id", requester.UserID), zap.Error(err))
	}
	if e.notifier != nil && requester.Profile != nil {
		e.notifier.Push(requester.Profile.TelegramChatID, n.Text)
	}
}
