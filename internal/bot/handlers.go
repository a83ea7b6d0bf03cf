package bot

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/example/recallengine/internal/advisory"
	"github.com/example/recallengine/internal/analysis"
	"github.com/example/recallengine/internal/engine"
	"github.com/example/recallengine/internal/excel"
	"github.com/example/recallengine/pkg/models"
)

// HandleCommand dispatches a single bot command.
func (b *Bot) HandleCommand(ctx context.Context, message *tgbotapi.Message) error {
	var err error
	switch message.Command() {
	case "start":
		err = b.handleStart(ctx, message)
	case "help":
		err = b.handleHelp(message)
	case "add":
		err = b.handleAdd(ctx, message)
	case "review":
		err = b.handleReview(ctx, message)
	case "schedule":
		err = b.handleSchedule(ctx, message)
	case "stats":
		err = b.handleStats(ctx, message)
	case "analyze":
		err = b.handleAnalyze(ctx, message)
	case "policy":
		err = b.handlePolicy(ctx, message)
	case "advice":
		err = b.handleAdvice(ctx, message)
	case "import":
		err = b.handleImport(ctx, message)
	default:
		err = b.handleUnknownCommand(message)
	}
	return err
}

func (b *Bot) handleStart(ctx context.Context, message *tgbotapi.Message) error {
	if message.From == nil || message.Chat == nil {
		return fmt.Errorf("invalid message: required fields are missing")
	}

	id := learnerID(message.From.ID)
	learner, err := b.deps.Learners.GetLearner(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to look up learner: %v", err)
	}
	if learner == nil {
		now := time.Now()
		learner = &models.Learner{
			ID:                  id,
			Name:                strings.TrimSpace(message.From.FirstName + " " + message.From.LastName),
			Policy:              models.PolicyDefault,
			MaxDailyReviews:     b.config.DefaultMaxDailyReviews,
			NotificationEnabled: true,
			NotificationHour:    b.config.DefaultNotificationHour,
			TelegramChatID:      message.Chat.ID,
			CreatedAt:           now,
			UpdatedAt:           now,
		}
		if err := b.deps.Learners.SaveLearner(ctx, learner); err != nil {
			return fmt.Errorf("failed to create learner: %v", err)
		}
	}

	text := "👋 Welcome to the recall engine!\n\n" +
		"I track how well you remember things and tell you when to review them.\n\n" +
		"🔹 How it works:\n" +
		"1. Record each review with /review\n" +
		"2. Check your plan with /schedule\n" +
		"3. Watch your memory stats with /stats\n\n" +
		"Type /help for the full command list."

	return b.reply(message.Chat.ID, text)
}

func (b *Bot) handleHelp(message *tgbotapi.Message) error {
	text := "📖 Commands\n\n" +
		"/add <item> - Start tracking an item from the catalog\n" +
		"/review <item> <quality 0-100> - Record a review outcome\n" +
		"/schedule - Show today's review plan\n" +
		"/stats - Show your progress\n" +
		"/analyze <item> - Fit a forgetting curve for an item\n" +
		"/policy default|leitner|supermemo - Switch scheduling policy\n" +
		"/advice - Suggested review windows and next intervals\n\n" +
		"💡 Quality is how well you recalled the item: 0 is a blank, 100 is instant perfect recall."

	return b.reply(message.Chat.ID, text)
}

func (b *Bot) handleAdd(ctx context.Context, message *tgbotapi.Message) error {
	itemID := strings.TrimSpace(message.CommandArguments())
	if itemID == "" {
		return b.reply(message.Chat.ID, "Usage: /add <item>")
	}

	item, err := b.deps.Items.GetItem(ctx, itemID)
	if err != nil {
		return fmt.Errorf("failed to look up item: %v", err)
	}
	if item == nil {
		return b.reply(message.Chat.ID,
			fmt.Sprintf("No item %q in the catalog. Ask an administrator to /import it first.", itemID))
	}

	id := learnerID(message.From.ID)
	state, err := b.deps.Engine.AddItem(ctx, id, item, nil)
	if err != nil {
		return fmt.Errorf("failed to add item: %v", err)
	}
	b.deps.Scheduler.Invalidate(id)

	return b.reply(message.Chat.ID, fmt.Sprintf(
		"➕ Now tracking %s.\n\n"+
			"It is due immediately. Record your first review with:\n"+
			"/review %s <quality 0-100>\n\n"+
			"Starting stability: %.1f days", item.Title, item.ID, state.Stability))
}

func (b *Bot) handleReview(ctx context.Context, message *tgbotapi.Message) error {
	args := strings.Fields(message.CommandArguments())
	if len(args) != 2 {
		return b.reply(message.Chat.ID, "Usage: /review <item> <quality 0-100>")
	}

	itemID := args[0]
	score, err := strconv.ParseFloat(args[1], 64)
	if err != nil || score < 0 || score > 100 {
		return b.reply(message.Chat.ID, "Quality must be a number between 0 and 100.")
	}

	outcome := models.ReviewOutcome{
		Type: models.ReviewScheduled,
		Performance: models.PerformanceData{
			ResponseQuality: score / 100,
			Completed:       true,
		},
	}

	result, err := b.deps.Engine.Record(ctx, learnerID(message.From.ID), itemID, outcome)
	if err != nil {
		if errors.Is(err, engine.ErrNotFound) {
			return b.reply(message.Chat.ID,
				fmt.Sprintf("I don't have an item %q for you yet. Start tracking it with /add %s.", itemID, itemID))
		}
		return fmt.Errorf("failed to record review: %v", err)
	}

	b.deps.Scheduler.Invalidate(learnerID(message.From.ID))

	text := fmt.Sprintf("✅ Review recorded for %s\n\n"+
		"Memory strength: %.0f%%\n"+
		"Stability: %.1f days\n"+
		"Phase: %s\n"+
		"Next review: %s",
		itemID,
		result.State.MemoryStrength*100,
		result.State.Stability,
		result.State.Phase,
		result.NextReview.Format("Mon, 2 Jan 15:04"))
	if len(result.Insights) > 0 {
		text += "\n\n💡 " + strings.Join(result.Insights, "\n💡 ")
	}

	return b.reply(message.Chat.ID, text)
}

func (b *Bot) handleSchedule(ctx context.Context, message *tgbotapi.Message) error {
	id := learnerID(message.From.ID)

	learner, err := b.deps.Learners.GetLearner(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to look up learner: %v", err)
	}
	maxDaily := b.config.DefaultMaxDailyReviews
	if learner != nil && learner.MaxDailyReviews > 0 {
		maxDaily = learner.MaxDailyReviews
	}

	sched := b.deps.Scheduler.Latest(id)
	if sched == nil {
		sched, err = b.deps.Generator.Generate(ctx, id, b.config.ScheduleHorizonDays, maxDaily)
		if err != nil {
			return fmt.Errorf("failed to generate schedule: %v", err)
		}
	}

	if len(sched.Days) == 0 || len(sched.Days[0].Reviews) == 0 {
		return b.reply(message.Chat.ID, "🎉 Nothing due today. Come back tomorrow.")
	}

	today := sched.Days[0]
	var sb strings.Builder
	fmt.Fprintf(&sb, "📅 Today's plan (%d items, ~%.0f min)\n\n",
		len(today.Reviews), today.Metrics.TotalReviewMinutes)
	for i, r := range today.Reviews {
		marker := "🔔"
		if r.Reason == models.ReasonOverdue {
			marker = "⚠️"
		}
		fmt.Fprintf(&sb, "%d. %s %s (priority %.1f)\n", i+1, marker, r.ItemID, r.Priority)
	}
	fmt.Fprintf(&sb, "\n%d reviews planned over the next %d days.", sched.TotalReviews(), sched.HorizonDays)

	return b.reply(message.Chat.ID, sb.String())
}

func (b *Bot) handleStats(ctx context.Context, message *tgbotapi.Message) error {
	stats, err := b.deps.Stats.GetLearnerStatistics(ctx, learnerID(message.From.ID), time.Now())
	if err != nil {
		return fmt.Errorf("failed to load statistics: %v", err)
	}

	if stats.TotalItems == 0 {
		return b.reply(message.Chat.ID, "No items tracked yet. Record a review with /review to get started.")
	}

	text := fmt.Sprintf("📊 Your progress\n\n"+
		"Items tracked: %d\n"+
		"Due today: %d\n"+
		"Mastered: %d\n"+
		"Mean stability: %.1f days\n"+
		"Mean strength: %.0f%%",
		stats.TotalItems, stats.DueToday, stats.Mastered, stats.MeanStability, stats.MeanStrength*100)

	return b.reply(message.Chat.ID, text)
}

func (b *Bot) handleAnalyze(ctx context.Context, message *tgbotapi.Message) error {
	itemID := strings.TrimSpace(message.CommandArguments())
	if itemID == "" {
		return b.reply(message.Chat.ID, "Usage: /analyze <item>")
	}

	fit, err := b.deps.Analyzer.Refresh(ctx, learnerID(message.From.ID), itemID)
	if err != nil {
		if errors.Is(err, analysis.ErrInsufficientData) {
			return b.reply(message.Chat.ID, "Not enough review history yet. Record at least two reviews first.")
		}
		return fmt.Errorf("failed to analyze item: %v", err)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "📈 Forgetting curve for %s\n\n", itemID)
	fmt.Fprintf(&sb, "Half-life: %.1f days\n", fit.HalfLife)
	fmt.Fprintf(&sb, "Fit quality: %.2f\n\n", fit.RSquared)
	for _, p := range fit.Predictions {
		if p.Days == 1 || p.Days == 8 || p.Days == 32 {
			fmt.Fprintf(&sb, "In %.0f days: %.0f%% retention (%s urgency)\n",
				p.Days, p.Retention*100, p.Urgency)
		}
	}
	if len(fit.Insights) > 0 {
		sb.WriteString("\n💡 " + strings.Join(fit.Insights, "\n💡 "))
	}

	return b.reply(message.Chat.ID, sb.String())
}

func (b *Bot) handlePolicy(ctx context.Context, message *tgbotapi.Message) error {
	kind := models.PolicyKind(strings.TrimSpace(strings.ToLower(message.CommandArguments())))
	if !kind.IsValid() {
		return b.reply(message.Chat.ID, "Usage: /policy default|leitner|supermemo")
	}

	id := learnerID(message.From.ID)
	if err := b.deps.Engine.SwitchPolicy(ctx, id, kind); err != nil {
		return fmt.Errorf("failed to switch policy: %v", err)
	}
	b.deps.Scheduler.Invalidate(id)

	return b.reply(message.Chat.ID, fmt.Sprintf("🔄 Scheduling policy switched to %s.", kind))
}

func (b *Bot) handleAdvice(ctx context.Context, message *tgbotapi.Message) error {
	id := learnerID(message.From.ID)

	profile := advisory.LearnerProfile{LearnerID: id, PreferredHour: b.config.DefaultNotificationHour}
	if learner, err := b.deps.Learners.GetLearner(ctx, id); err == nil && learner != nil {
		profile.PreferredHour = learner.NotificationHour
	}

	windows := b.deps.Advice.ReviewWindows(ctx, profile)

	var sb strings.Builder
	sb.WriteString("🕐 Suggested review windows\n\n")
	for _, w := range windows {
		fmt.Fprintf(&sb, "• %s: %02d:00 to %02d:00\n", w.Label, w.StartHour, w.EndHour)
	}

	states, err := b.deps.Stats.ListStates(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to load memory states: %v", err)
	}
	if len(states) > 0 {
		sort.Slice(states, func(i, j int) bool {
			return states[i].NextReviewDate.Before(states[j].NextReviewDate)
		})
		if len(states) > adviceIntervalLimit {
			states = states[:adviceIntervalLimit]
		}
		sb.WriteString("\n📏 Suggested next intervals\n\n")
		for _, rec := range b.deps.Advice.Intervals(ctx, states) {
			fmt.Fprintf(&sb, "• %s: %.0f days (%s)\n", rec.ItemID, rec.IntervalDays, rec.Rationale)
		}
	}

	return b.reply(message.Chat.ID, sb.String())
}

// adviceIntervalLimit caps how many items /advice asks recommendations for.
const adviceIntervalLimit = 5

func (b *Bot) handleImport(ctx context.Context, message *tgbotapi.Message) error {
	if !b.adminUserIDs[message.From.ID] {
		return b.reply(message.Chat.ID, "⛔ This command is for administrators only.")
	}

	path := strings.TrimSpace(message.CommandArguments())
	if path == "" {
		return b.reply(message.Chat.ID, "Usage: /import <path to .xlsx or .csv>")
	}

	cfg := excel.DefaultImportConfig()
	cfg.FilePath = path

	result, err := excel.ImportItems(ctx, b.deps.Items, cfg)
	if err != nil {
		return b.reply(message.Chat.ID, fmt.Sprintf("Import failed: %v", err))
	}

	text := fmt.Sprintf("📥 Import finished\n\n"+
		"Processed: %d\nCreated: %d\nUpdated: %d\nSkipped: %d",
		result.TotalProcessed, result.Created, result.Updated, result.Skipped)
	if len(result.Errors) > 0 {
		text += fmt.Sprintf("\nErrors: %d (first: %s)", len(result.Errors), result.Errors[0])
	}

	return b.reply(message.Chat.ID, text)
}

func (b *Bot) handleUnknownCommand(message *tgbotapi.Message) error {
	return b.reply(message.Chat.ID, "Unknown command. Type /help for the command list.")
}
