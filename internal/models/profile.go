package models

import (
	"fmt"
	"math/rand"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// UserProfile представляє профіль користувача.
// Ядро читає лише ідентифікаційні поля; редагування профілю живе поза ним.
type UserProfile struct {
	UserID          string         `gorm:"primaryKey" json:"user_id"`
	Username        string         `gorm:"uniqueIndex" json:"username"`
	Gender          string         `json:"gender"`
	AnonymousNumber string         `json:"anonymous_number"` // Стабільний псевдонім (цифри)
	Verified        bool           `json:"verified"`
	Interests       pq.StringArray `gorm:"type:text[]" json:"interests,omitempty"`
	TelegramChatID  int64          `gorm:"index" json:"-"` // 0, якщо Telegram не прив'язано
}

// BeforeCreate — хук GORM, який викликається перед створенням запису.
// Генерує UUID та стабільний анонімний номер, якщо їх ще не встановлено.
func (p *UserProfile) BeforeCreate(tx *gorm.DB) (err error) {
	if p.UserID == "" {
		p.UserID = uuid.New().String()
	}
	if p.AnonymousNumber == "" {
		p.AnonymousNumber = fmt.Sprintf("%06d", rand.Intn(1000000))
	}
	return
}
