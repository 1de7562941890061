package main

import (
	"context"
	"errors"
	"log"
	"os/signal"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/abhigitlit/revisely/internal/config"
	"github.com/abhigitlit/revisely/internal/delivery/telegram"
	"github.com/abhigitlit/revisely/internal/dispatch"
	"github.com/abhigitlit/revisely/internal/infra/postgres"
	"github.com/abhigitlit/revisely/internal/logger"
	"github.com/abhigitlit/revisely/internal/repository"
	"github.com/abhigitlit/revisely/internal/service"
	"github.com/abhigitlit/revisely/internal/storage"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	zl, err := logger.New(cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = zl.Sync() }()

	bot, err := tgbotapi.NewBotAPI(cfg.TelegramAPIToken)
	if err != nil {
		zl.Fatal("failed to create bot api", zap.Error(err))
	}
	zl.Info("authorized on telegram", zap.String("account", bot.Self.UserName))

	// Set commands.
	commands := []tgbotapi.BotCommand{
		{
			Command:     "start",
			Description: "Pick a quiz to take",
		},
		{
			Command:     "cancel",
			Description: "Cancel the active quiz",
		},
	}
	if _, err := bot.Request(tgbotapi.NewSetMyCommands(commands...)); err != nil {
		zl.Warn("failed to set bot commands", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dsn, err := cfg.DB.DSN()
	if err != nil {
		zl.Fatal("database url is not configured", zap.Error(err))
	}
	pool, err := postgres.NewPool(ctx, dsn, postgres.PoolConfig{
		MaxConns:        int32(cfg.DB.MaxConnections),
		MaxConnLifetime: cfg.DB.MaxConnLifetime,
	})
	if err != nil {
		zl.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer pool.Close()

	if err := postgres.InitSchema(ctx, pool); err != nil {
		zl.Fatal("failed to initialize schema", zap.Error(err))
	}

	// Initialize repositories and services.
	bank, err := repository.NewQuizBankRepository(cfg.QuizDirectory)
	if err != nil {
		zl.Fatal("failed to open quiz bank", zap.Error(err))
	}
	ledger := repository.NewQuotaLedger(pool)
	userRepo := repository.NewUserRepository(pool)

	disp := dispatch.New(cfg.Dispatch.OpsPerSecond, cfg.Dispatch.QueueSize, zl)
	go disp.Run(ctx)

	sender := telegram.NewSender(bot, disp, zl)

	quota := service.NewQuotaService(ledger, cfg.Quota, cfg.AdminUserIDs)
	engine := service.NewQuizService(
		ctx,
		storage.NewSessionStore(),
		sender,
		ledger,
		quota,
		zl,
		cfg.Quiz,
	)

	handler := telegram.NewHandler(
		bot,
		sender,
		zl,
		engine,
		bank,
		ledger,
		quota,
		userRepo,
		cfg.Quiz.MaxLimitTries,
	)

	if err := handler.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		zl.Error("handler stopped", zap.Error(err))
	}

	zl.Info("shutdown complete")
}
