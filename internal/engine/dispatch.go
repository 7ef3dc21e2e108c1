package engine

import (
	"veilmatch/backend/internal/models"

	"go.uber.org/zap"
)

// Dispatch maps a decoded client event onto the engine operation. Every
// failure degrades to an `error` event on the same connection; nothing
// propagates back into the transport layer.
func (e *Engine) Dispatch(c Client, ev models.ClientEvent) {
	var err error

	switch ev.Type {
	case models.EvAnnounceIdentity:
		err = e.Announce(c, ev.UserID, ev.MatchID)
	case models.EvStartMatching:
		err = e.StartMatching(c, ev.GenderFilter)
	case models.EvStopMatching:
		e.StopMatching(c)
	case models.EvContinueRequest:
		err = e.RequestContinue(c, ev.MatchID)
	case models.EvAcceptContinue:
		err = e.AcceptContinue(c, ev.MatchID)
	case models.EvRejectContinue:
		err = e.RejectContinue(c, ev.MatchID)
	case models.EvSendMessage:
		err = e.SendMessage(c, ev.MatchID, ev.Text, ev.MediaURL, ev.MediaType)
	case models.EvMarkMessageRead:
		err = e.MarkRead(c, ev.MatchID, ev.MessageID)
	case models.EvReactToMessage:
		err = e.React(c, ev.MatchID, ev.MessageID, ev.Reaction)
	case models.EvDeleteMessage:
		err = e.DeleteMessage(c, ev.MatchID, ev.MessageID)
	case models.EvTyping:
		err = e.Typing(c, ev.MatchID, ev.IsTyping)
	case models.EvLeaveMatch:
		err = e.LeaveMatch(c, ev.MatchID)
	case models.EvGetMatches:
		err = e.Matches(c)
	case models.EvGetMatchState:
		err = e.MatchState(c, ev.MatchID)
	default:
		e.log.Debug("unknown client event", zap.String("type", ev.Type))
	}

	if err != nil {
		e.log.Debug("operation failed",
			zap.String("type", ev.Type),
			zap.String("conn_id", c.GetConnID()),
			zap.Error(err))
		e.pushError(c, err)
	}
}
