package engine

import (
	"sync"
	"time"

	"veilmatch/backend/internal/config"
	"veilmatch/backend/internal/models"
	"veilmatch/backend/internal/notify"
	"veilmatch/backend/internal/storage"

	"go.uber.org/zap"
)

// PresenceEntry describes one live connection that announced an identity.
type PresenceEntry struct {
	ConnID  string
	UserID  string
	Profile *models.UserProfile
	InMatch bool
	MatchID string
}

// QueueEntry is one connection waiting in the matching queue.
type QueueEntry struct {
	ConnID       string
	UserID       string
	Profile      *models.UserProfile
	GenderFilter string // "" — без фільтра
}

// Engine owns all matchmaking state: the presence registry, the matching
// queue, active and completed matches, pending continue-requests and the
// disconnect grace timers. One engine is constructed per process and every
// operation runs under a single mutex, so each event completes before the
// next one touches shared state.
type Engine struct {
	mu sync.Mutex

	storage  storage.Storage
	notifier notify.Notifier // nil — push вимкнено
	log      *zap.Logger

	gracePeriod time.Duration

	clients  map[string]Client         // connID -> клієнт
	presence map[string]*PresenceEntry // connID -> запис присутності
	byUser   map[string]map[string]*PresenceEntry
	routing  map[string]string // userID -> авторитетний connID (last writer wins)

	queue  []*QueueEntry          // порядок вставки
	queued map[string]*QueueEntry // connID -> запис у черзі

	active     map[string]*models.ActiveMatch
	completed  map[string]*models.CompletedMatch
	membership map[string][]string // userID -> список завершених matchID

	requests map[string]*models.ContinueRequest // requestID -> заявка

	graceTimers map[string]*time.Timer // userID -> таймер грейс-вікна
}

// New constructs an engine. notifier may be nil.
func New(s storage.Storage, notifier notify.Notifier, gracePeriod time.Duration, log *zap.Logger) *Engine {
	if gracePeriod <= 0 {
		gracePeriod = config.DefaultGracePeriod
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{
		storage:     s,
		notifier:    notifier,
		log:         log,
		gracePeriod: gracePeriod,
		clients:     make(map[string]Client),
		presence:    make(map[string]*PresenceEntry),
		byUser:      make(map[string]map[string]*PresenceEntry),
		routing:     make(map[string]string),
		queued:      make(map[string]*QueueEntry),
		active:      make(map[string]*models.ActiveMatch),
		completed:   make(map[string]*models.CompletedMatch),
		membership:  make(map[string][]string),
		requests:    make(map[string]*models.ContinueRequest),
		graceTimers: make(map[string]*time.Timer),
	}
}

// Restore завантажує активні матчі, що пережили рестарт процесу.
func (e *Engine) Restore() {
	matches, err := e.storage.LoadActiveMatches()
	if err != nil {
		e.log.Error("failed to restore active matches", zap.Error(err))
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	for _, m := range matches {
		// Збережені connID мертві після рестарту; announce перепише їх.
		m.User1.ConnID = ""
		m.User2.ConnID = ""
		e.active[m.MatchID] = m
	}
	e.log.Info("restored active matches", zap.Int("count", len(matches)))
}

// Register додає нове з'єднання. Викликається транспортом одразу після
// успішного upgrade, до запуску pump'ів.
func (e *Engine) Register(c Client) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.clients[c.GetConnID()] = c
	e.log.Debug("client registered", zap.String("conn_id", c.GetConnID()))
}

// --- Доставка подій ---

// push надсилає подію клієнту без блокування. Повільний клієнт втрачає
// подію: доставка best-effort, історія лишається в матчі.
func (e *Engine) push(c Client, ev models.ServerEvent) {
	select {
	case c.GetSendChannel() <- ev:
	default:
		e.log.Warn("send buffer full, dropping event",
			zap.String("conn_id", c.GetConnID()),
			zap.String("type", ev.Type))
	}
}

func (e *Engine) pushConn(connID string, ev models.ServerEvent) bool {
	c, ok := e.clients[connID]
	if !ok {
		return false
	}
	e.push(c, ev)
	return true
}

// pushUser доставляє подію авторитетному з'єднанню користувача, або
// будь-якому іншому живому, якщо авторитетне вже зникло.
func (e *Engine) pushUser(userID string, ev models.ServerEvent) bool {
	if connID, ok := e.routing[userID]; ok {
		if e.pushConn(connID, ev) {
			return true
		}
	}
	for connID := range e.byUser[userID] {
		if e.pushConn(connID, ev) {
			return true
		}
	}
	return false
}

// pushParticipant доставляє подію стороні матчу. Якщо збережений connID
// застарів, відкочується на пошук по userID і оновлює збережений connID.
func (e *Engine) pushParticipant(p *models.Participant, ev models.ServerEvent) bool {
	if p.ConnID != "" && e.pushConn(p.ConnID, ev) {
		return true
	}
	if connID, ok := e.routing[p.UserID]; ok && e.pushConn(connID, ev) {
		p.ConnID = connID
		return true
	}
	return false
}

func (e *Engine) pushError(c Client, err error) {
	e.push(c, models.ServerEvent{
		Type: models.EvError,
		Data: models.ErrorPayload{Message: err.Error()},
	})
}

// entryFor повертає запис присутності з'єднання або ErrNotAnnounced.
func (e *Engine) entryFor(c Client) (*PresenceEntry, error) {
	entry, ok := e.presence[c.GetConnID()]
	if !ok {
		return nil, ErrNotAnnounced
	}
	return entry, nil
}
