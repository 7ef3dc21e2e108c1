package storage

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"veilmatch/backend/internal/config"
	"veilmatch/backend/internal/models"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Storage is the persistence contract the engine depends on. It folds the
// three external collaborators together: profile store (Postgres), match
// persistence (Redis for anonymous matches, Postgres for completed ones) and
// the offline notification sink (Redis lists).
type Storage interface {
	GetProfile(userID string) (*models.UserProfile, error)
	SaveProfile(p *models.UserProfile) error

	IsUserBanned(userID string) (bool, error)
	BanUser(userID string, duration time.Duration) error
	UnbanUser(userID string) error

	SaveActiveMatch(m *models.ActiveMatch) error
	DeleteActiveMatch(matchID string) error
	LoadActiveMatches() ([]*models.ActiveMatch, error)

	SaveCompletedMatch(m *models.CompletedMatch) error
	DeleteCompletedMatch(matchID string) error
	LoadCompletedMatch(matchID string) (*models.CompletedMatch, error)
	LoadCompletedMatchesForUser(userID string) ([]*models.CompletedMatch, error)

	EnqueueNotification(userID string, n models.Notification) error
	DrainNotifications(userID string) ([]models.Notification, error)
}

// CompletedMatchRecord is the Postgres row behind a CompletedMatch. The full
// match (participants, message history) is serialized into Payload; the id
// and participant columns exist for lookups.
type CompletedMatchRecord struct {
	MatchID       string `gorm:"primaryKey"`
	User1ID       string `gorm:"index"`
	User2ID       string `gorm:"index"`
	StartedAt     time.Time
	CompletedAt   time.Time
	LastMessageAt time.Time
	Payload       string `gorm:"type:jsonb"`
}

const (
	activeMatchKeyPrefix = "match:active:"
	activeMatchIndexKey  = "match:active:index"
	notifyKeyPrefix      = "notify:"
	banKeyPrefix         = "ban:"
)

// Service реалізує Storage поверх GORM (PostgreSQL) та Redis.
type Service struct {
	DB    *gorm.DB
	Redis *redis.Client
	Ctx   context.Context
	Log   *zap.Logger
}

// NewService Constructor
func NewService(db *gorm.DB, rdb *redis.Client, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		DB:    db,
		Redis: rdb,
		Ctx:   context.Background(),
		Log:   log,
	}
}

// GetProfile повертає профіль або (nil, nil), якщо його не існує.
func (s *Service) GetProfile(userID string) (*models.UserProfile, error) {
	var profile models.UserProfile
	err := s.DB.Where("user_id = ?", userID).First(&profile).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// SaveProfile зберігає профіль у PostgreSQL.
func (s *Service) SaveProfile(p *models.UserProfile) error {
	return s.DB.Save(p).Error
}

// IsUserBanned перевіряє статус бану в Redis (швидка перевірка)
func (s *Service) IsUserBanned(userID string) (bool, error) {
	status, err := s.Redis.Get(s.Ctx, banKeyPrefix+userID).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return status != "", nil
}

// BanUser виставляє прапорець бану. duration == 0 — безстроково.
func (s *Service) BanUser(userID string, duration time.Duration) error {
	return s.Redis.Set(s.Ctx, banKeyPrefix+userID, "active", duration).Err()
}

func (s *Service) UnbanUser(userID string) error {
	return s.Redis.Del(s.Ctx, banKeyPrefix+userID).Err()
}

// SaveActiveMatch зберігає анонімний матч у Redis як JSON. Це best-effort:
// анонімна фаза за дизайном не переживає падіння процесу гарантовано.
func (s *Service) SaveActiveMatch(m *models.ActiveMatch) error {
	payload, err := json.Marshal(m)
	if err != nil {
		return err
	}
	pipe := s.Redis.TxPipeline()
	pipe.Set(s.Ctx, activeMatchKeyPrefix+m.MatchID, payload, config.ActiveMatchTTL)
	pipe.SAdd(s.Ctx, activeMatchIndexKey, m.MatchID)
	_, err = pipe.Exec(s.Ctx)
	return err
}

func (s *Service) DeleteActiveMatch(matchID string) error {
	pipe := s.Redis.TxPipeline()
	pipe.Del(s.Ctx, activeMatchKeyPrefix+matchID)
	pipe.SRem(s.Ctx, activeMatchIndexKey, matchID)
	_, err := pipe.Exec(s.Ctx)
	return err
}

// LoadActiveMatches повертає всі збережені анонімні матчі (відновлення
// після рестарту). Ключі, що зникли по TTL, тихо прибираються з індексу.
func (s *Service) LoadActiveMatches() ([]*models.ActiveMatch, error) {
	ids, err := s.Redis.SMembers(s.Ctx, activeMatchIndexKey).Result()
	if err != nil {
		return nil, err
	}

	var matches []*models.ActiveMatch
	for _, id := range ids {
		payload, err := s.Redis.Get(s.Ctx, activeMatchKeyPrefix+id).Result()
		if errors.Is(err, redis.Nil) {
			s.Redis.SRem(s.Ctx, activeMatchIndexKey, id)
			continue
		}
		if err != nil {
			return nil, err
		}

		var m models.ActiveMatch
		if err := json.Unmarshal([]byte(payload), &m); err != nil {
			s.Log.Warn("skipping unreadable active match", zap.String("match_id", id), zap.Error(err))
			continue
		}
		matches = append(matches, &m)
	}
	return matches, nil
}

// SaveCompletedMatch записує завершений матч у PostgreSQL (write-through).
func (s *Service) SaveCompletedMatch(m *models.CompletedMatch) error {
	payload, err := json.Marshal(m)
	if err != nil {
		return err
	}
	record := CompletedMatchRecord{
		MatchID:       m.MatchID,
		User1ID:       m.User1.UserID,
		User2ID:       m.User2.UserID,
		StartedAt:     m.StartedAt,
		CompletedAt:   m.CompletedAt,
		LastMessageAt: m.LastMessageAt,
		Payload:       string(payload),
	}
	return s.DB.Save(&record).Error
}

func (s *Service) DeleteCompletedMatch(matchID string) error {
	return s.DB.Where("match_id = ?", matchID).Delete(&CompletedMatchRecord{}).Error
}

// LoadCompletedMatch повертає матч або (nil, nil), якщо запису немає.
func (s *Service) LoadCompletedMatch(matchID string) (*models.CompletedMatch, error) {
	var record CompletedMatchRecord
	err := s.DB.Where("match_id = ?", matchID).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return decodeCompleted(&record, s.Log)
}

// LoadCompletedMatchesForUser повертає всі завершені матчі користувача.
func (s *Service) LoadCompletedMatchesForUser(userID string) ([]*models.CompletedMatch, error) {
	var records []CompletedMatchRecord
	err := s.DB.Where("user1_id = ? OR user2_id = ?", userID, userID).
		Order("completed_at asc").Find(&records).Error
	if err != nil {
		return nil, err
	}

	var matches []*models.CompletedMatch
	for i := range records {
		m, err := decodeCompleted(&records[i], s.Log)
		if err != nil || m == nil {
			continue
		}
		matches = append(matches, m)
	}
	return matches, nil
}

func decodeCompleted(record *CompletedMatchRecord, log *zap.Logger) (*models.CompletedMatch, error) {
	var m models.CompletedMatch
	if err := json.Unmarshal([]byte(record.Payload), &m); err != nil {
		log.Warn("skipping unreadable completed match", zap.String("match_id", record.MatchID), zap.Error(err))
		return nil, err
	}
	return &m, nil
}

// EnqueueNotification ставить сповіщення в чергу офлайн-доставки (Redis list).
func (s *Service) EnqueueNotification(userID string, n models.Notification) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return err
	}
	return s.Redis.RPush(s.Ctx, notifyKeyPrefix+userID, payload).Err()
}

// DrainNotifications атомарно забирає всі відкладені сповіщення користувача.
func (s *Service) DrainNotifications(userID string) ([]models.Notification, error) {
	key := notifyKeyPrefix + userID
	pipe := s.Redis.TxPipeline()
	rangeCmd := pipe.LRange(s.Ctx, key, 0, -1)
	pipe.Del(s.Ctx, key)
	if _, err := pipe.Exec(s.Ctx); err != nil {
		return nil, err
	}

	var notifications []models.Notification
	for _, payload := range rangeCmd.Val() {
		var n models.Notification
		if err := json.Unmarshal([]byte(payload), &n); err != nil {
			s.Log.Warn("dropping unreadable notification", zap.String("user_id", userID), zap.Error(err))
			continue
		}
		notifications = append(notifications, n)
	}
	return notifications, nil
}
