// Package notify delivers out-of-band pushes to users who are offline when
// something important happens to one of their matches.
package notify

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// Notifier pushes a short text to a user's linked external channel. Push is
// fire-and-forget: delivery failures are logged, never propagated.
type Notifier interface {
	Push(chatID int64, text string)
}

// TelegramNotifier надсилає push через Telegram Bot API користувачам, які
// прив'язали свій chat id до профілю.
type TelegramNotifier struct {
	BotAPI *tgbotapi.BotAPI
	Log    *zap.Logger
}

// NewTelegramNotifier створює нотифікатор. Повертає помилку, якщо токен
// невалідний.
func NewTelegramNotifier(token string, log *zap.Logger) (*TelegramNotifier, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &TelegramNotifier{BotAPI: bot, Log: log}, nil
}

func (n *TelegramNotifier) Push(chatID int64, text string) {
	if chatID == 0 {
		return
	}
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := n.BotAPI.Send(msg); err != nil {
		n.Log.Warn("telegram push failed", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}
