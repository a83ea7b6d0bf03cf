// Package notify delivers review reminders to learners.
package notify

import (
	"fmt"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/example/recallengine/internal/scheduler"
	"github.com/example/recallengine/pkg/models"
)

// TelegramNotifier sends due-review digests over Telegram.
type TelegramNotifier struct {
	bot *tgbotapi.BotAPI
	log *slog.Logger
}

var _ scheduler.Notifier = (*TelegramNotifier)(nil)

// NewTelegram creates a notifier from a bot token.
func NewTelegram(token string, log *slog.Logger) (*TelegramNotifier, error) {
	if log == nil {
		log = slog.Default()
	}
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %v", err)
	}
	return &TelegramNotifier{bot: bot, log: log}, nil
}

// SendDigest implements scheduler.Notifier. Learners without a chat id are
// skipped silently.
func (n *TelegramNotifier) SendDigest(learner models.Learner, dueCount int) error {
	if learner.TelegramChatID == 0 {
		return nil
	}

	text := fmt.Sprintf("📚 You have %d item due for review today.", dueCount)
	if dueCount != 1 {
		text = fmt.Sprintf("📚 You have %d items due for review today.", dueCount)
	}

	msg := tgbotapi.NewMessage(learner.TelegramChatID, text)
	if _, err := n.bot.Send(msg); err != nil {
		return fmt.Errorf("failed to send digest to learner %s: %v", learner.ID, err)
	}
	n.log.Debug("digest sent", "learner", learner.ID, "due", dueCount)
	return nil
}
