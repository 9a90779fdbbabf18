package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/SergejGorshkov/my-note/internal/auth"
	"github.com/SergejGorshkov/my-note/internal/config"
	"github.com/SergejGorshkov/my-note/internal/db"
	httpx "github.com/SergejGorshkov/my-note/internal/http"
	"github.com/SergejGorshkov/my-note/internal/jobs"
	"github.com/SergejGorshkov/my-note/internal/logger"
	"github.com/SergejGorshkov/my-note/internal/notify"
	"github.com/SergejGorshkov/my-note/internal/schedule"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// No logger yet; exit immediately with the diagnostic.
		_, _ = os.Stderr.WriteString("config error: " + err.Error() + "\n")
		os.Exit(2)
	}

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		_, _ = os.Stderr.WriteString("logger init error: " + err.Error() + "\n")
		os.Exit(2)
	}
	defer func() { _ = log.Sync() }()

	gdb, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("db connect failed", zap.Error(err))
	}
	if err := db.AutoMigrateAndIndexes(gdb); err != nil {
		log.Fatal("db migrate failed", zap.Error(err))
	}

	jwtSvc := auth.NewJWT(cfg.JWTSecret)
	r := httpx.NewRouter(cfg, gdb, jwtSvc, log)

	// Delivery path: channel client + worker pool. A missing token leaves the
	// process up with a fail-closed client; every send reports failure.
	if cfg.TgBotToken == "" {
		log.Error("TG_BOT_TOKEN not set, reminder delivery will fail closed")
	}
	sender := notify.NewTelegramClient(cfg.TelegramURL, cfg.TgBotToken, cfg.DeliveryTimeout)
	pool := notify.NewPool(sender, log, 4, 256)

	dispatcher := &notify.Dispatcher{
		Dir:  &notify.GormDirectory{DB: gdb},
		Pool: pool,
		Log:  log,
	}

	// Recurrence scheduler: ensure the daily entry exists, then evaluate every
	// minute against the persisted store.
	hour, minute, _ := config.ParseHHMM(cfg.ReminderAt)
	schedRepo := &schedule.Repo{DB: gdb}
	if err := schedRepo.Ensure(context.Background(), schedule.TaskDailyReminder, hour, minute); err != nil {
		log.Fatal("schedule ensure failed", zap.Error(err))
	}
	scheduler := schedule.NewScheduler(schedRepo, cfg.Location(), log)
	scheduler.Bind(schedule.TaskDailyReminder, dispatcher.RunCycle)

	ctx, cancel := context.WithCancel(context.Background())
	go scheduler.Run(ctx)

	// Per-note reminder jobs share the channel client.
	worker := &jobs.Worker{
		ID:     "worker-1",
		Repo:   &jobs.Repo{DB: gdb},
		DB:     gdb,
		Sender: sender,
		Log:    log,
	}
	go worker.Run(ctx)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info("listening", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("http server failed", zap.Error(err))
		}
	}()

	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	<-ch
	log.Info("shutdown signal received")

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = srv.Shutdown(shutdownCtx)

	// Let queued reminder deliveries drain before exit.
	pool.Close()
}
