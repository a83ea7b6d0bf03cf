package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/example/recallengine/internal/advisory"
	"github.com/example/recallengine/internal/analysis"
	"github.com/example/recallengine/internal/bot"
	"github.com/example/recallengine/internal/database"
	"github.com/example/recallengine/internal/engine"
	"github.com/example/recallengine/internal/notify"
	"github.com/example/recallengine/internal/scheduler"
	"github.com/example/recallengine/internal/spaced_repetition"
)

func main() {
	// .env is optional, environment variables win either way
	_ = godotenv.Load()

	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel(),
	}))
	slog.SetDefault(log)

	db, err := database.Connect()
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	states := database.NewMemoryStateRepository(db)
	sessions := database.NewReviewSessionRepository(db)
	learners := database.NewLearnerRepository(db)
	items := database.NewItemRepository(db)
	policies := database.NewPolicyStateRepository(db)

	intervalCfg := spaced_repetition.IntervalConfig{}.WithDefaults()

	eng := engine.New(engine.Stores{
		States:   states,
		Sessions: sessions,
		Learners: learners,
		Policies: policies,
	}, engine.WithLogger(log))

	gen := scheduler.NewGenerator(states, items, scheduler.Config{}, log)

	analyzer := analysis.NewAnalyzer(sessions, states, analysis.Config{}, log)

	var advisor advisory.Advisor
	if os.Getenv("OPENAI_API_KEY") != "" {
		openai, err := advisory.NewOpenAI()
		if err != nil {
			log.Warn("advisory client unavailable", "error", err)
		} else {
			advisor = openai
		}
	}
	advice := advisory.NewService(advisor, intervalCfg, log)

	token := os.Getenv("TELEGRAM_BOT_TOKEN")

	var notifier scheduler.Notifier
	if token != "" {
		tn, err := notify.NewTelegram(token, log)
		if err != nil {
			log.Error("failed to create telegram notifier", "error", err)
			os.Exit(1)
		}
		notifier = tn
	}

	sched := scheduler.New(gen, learners, notifier, log)
	sched.Start()
	defer sched.Stop()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if token != "" {
		b, err := bot.New(token, bot.Deps{
			Engine:    eng,
			Generator: gen,
			Scheduler: sched,
			Analyzer:  analyzer,
			Advice:    advice,
			Learners:  learners,
			Items:     items,
			Stats:     states,
		}, log)
		if err != nil {
			log.Error("failed to create bot", "error", err)
			os.Exit(1)
		}
		go func() {
			if err := b.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("bot stopped", "error", err)
			}
		}()
	} else {
		log.Warn("TELEGRAM_BOT_TOKEN not set, running scheduler only")
	}

	log.Info("recall engine started")
	<-ctx.Done()

	log.Info("shutting down")
}

func logLevel() slog.Level {
	switch os.Getenv("LOG_LEVEL") {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
