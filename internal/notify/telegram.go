// Package notify delivers due-card reminders. Only reminder delivery lives
// here; all interactive presentation is outside this module.
package notify

import (
	"fmt"
	"os"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// TelegramNotifier sends reminders to a fixed Telegram chat
type TelegramNotifier struct {
	api    *tgbotapi.BotAPI
	chatID int64
}

// NewTelegram creates a notifier from TELEGRAM_BOT_TOKEN and TELEGRAM_CHAT_ID
func NewTelegram() (*TelegramNotifier, error) {
	token := os.Getenv("TELEGRAM_BOT_TOKEN")
	if token == "" {
		return nil, fmt.Errorf("TELEGRAM_BOT_TOKEN environment variable is not set")
	}

	chatIDStr := os.Getenv("TELEGRAM_CHAT_ID")
	chatID, err := strconv.ParseInt(chatIDStr, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid TELEGRAM_CHAT_ID: %v", err)
	}

	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram client: %v", err)
	}

	return &TelegramNotifier{api: api, chatID: chatID}, nil
}

// SendReminder tells the learner how many cards are waiting
func (n *TelegramNotifier) SendReminder(count int) error {
	text := fmt.Sprintf("📚 You have %d card(s) due for review!", count)
	msg := tgbotapi.NewMessage(n.chatID, text)
	if _, err := n.api.Send(msg); err != nil {
		return fmt.Errorf("failed to send reminder: %v", err)
	}
	return nil
}
