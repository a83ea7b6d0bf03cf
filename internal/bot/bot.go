// Package bot exposes the engine over Telegram commands.
package bot

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/example/recallengine/internal/advisory"
	"github.com/example/recallengine/internal/analysis"
	"github.com/example/recallengine/internal/database"
	"github.com/example/recallengine/internal/engine"
	"github.com/example/recallengine/internal/excel"
	"github.com/example/recallengine/internal/scheduler"
	"github.com/example/recallengine/pkg/models"
)

// statsSource reports a learner's stored memory states and their aggregates.
type statsSource interface {
	GetLearnerStatistics(ctx context.Context, learnerID string, now time.Time) (*database.LearnerStatistics, error)
	ListStates(ctx context.Context, learnerID string) ([]models.MemoryState, error)
}

// Deps bundles the services the bot fronts.
type Deps struct {
	Engine    *engine.Engine
	Generator *scheduler.Generator
	Scheduler *scheduler.Scheduler
	Analyzer  *analysis.Analyzer
	Advice    *advisory.Service
	Learners  engine.LearnerStore
	Items     excel.ItemStore
	Stats     statsSource
}

// Bot is the Telegram front end for the review engine.
type Bot struct {
	api          *tgbotapi.BotAPI
	deps         Deps
	config       Config
	adminUserIDs map[int64]bool
	send         func(msg tgbotapi.MessageConfig) error
	log          *slog.Logger
}

// New creates a bot from a token. Admin user ids come from the
// ADMIN_USER_IDS environment variable (comma separated).
func New(token string, deps Deps, log *slog.Logger) (*Bot, error) {
	if token == "" {
		return nil, fmt.Errorf("telegram token is empty")
	}
	if log == nil {
		log = slog.Default()
	}

	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %v", err)
	}

	b := &Bot{
		api:          api,
		deps:         deps,
		config:       DefaultConfig(),
		adminUserIDs: make(map[int64]bool),
		log:          log,
	}
	b.send = func(msg tgbotapi.MessageConfig) error {
		_, err := b.api.Send(msg)
		return err
	}

	if adminIDs := os.Getenv("ADMIN_USER_IDS"); adminIDs != "" {
		for _, idStr := range strings.Split(adminIDs, ",") {
			id, err := strconv.ParseInt(strings.TrimSpace(idStr), 10, 64)
			if err != nil {
				log.Warn("invalid admin user id", "value", idStr)
				continue
			}
			b.adminUserIDs[id] = true
		}
	}

	return b, nil
}

// Start blocks consuming updates until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30

	updates := b.api.GetUpdatesChan(u)
	b.log.Info("bot started", "username", b.api.Self.UserName)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message == nil || !update.Message.IsCommand() {
				continue
			}
			if err := b.HandleCommand(ctx, update.Message); err != nil {
				b.log.Error("command failed",
					"command", update.Message.Command(),
					"user", update.Message.From.ID,
					"error", err)
			}
		}
	}
}

// learnerID derives the storage key for a Telegram user.
func learnerID(userID int64) string {
	return strconv.FormatInt(userID, 10)
}

func (b *Bot) reply(chatID int64, text string) error {
	return b.send(tgbotapi.NewMessage(chatID, text))
}
