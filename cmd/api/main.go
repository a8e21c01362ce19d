package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"tourgen/internal/adapter/repo"
	"tourgen/internal/http/handlers"
	"tourgen/internal/http/httpapi"
	"tourgen/internal/infra"
	"tourgen/internal/notify"
	"tourgen/internal/queue"
	"tourgen/internal/service"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := infra.Migrate(cfg.DatabaseURL); err != nil {
		logger.Fatal().Err(err).Msg("api: migrations failed")
	}

	pool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("api: db connection failed")
	}
	defer pool.Close()

	rdb, err := infra.NewRedisClient(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("api: redis connection failed")
	}
	defer rdb.Close()

	runner := infra.NewSQLRunner(pool, logger)
	jobs := repo.NewJobStore(runner)
	ledger := repo.NewCreditLedger(runner)
	notifier := notify.NewRedisNotifier(rdb, logger)
	dispatcher := queue.NewRedisDispatcher(rdb, cfg.DispatchQueue)

	pricing := service.Pricing{CreditsPerSecond: cfg.CreditsPerSecond}
	submitter := service.NewSubmitter(jobs, ledger, dispatcher, notifier, pricing, logger)
	lifecycle := service.NewLifecycle(jobs, ledger, notifier, logger)
	watchdog := service.NewWatchdog(jobs, lifecycle, cfg.JobTimeout, logger)

	app := &handlers.App{
		Config:    cfg,
		Logger:    logger,
		Jobs:      jobs,
		Submitter: submitter,
		Checker:   watchdog,
		Lifecycle: lifecycle,
		Notifier:  notifier,
	}

	// In-process sweep; the standalone reaper covers multi-instance
	// deployments and both share the same idempotent reclaim.
	sched := cron.New()
	if _, err := sched.AddFunc(cfg.ReaperSchedule, func() {
		count, err := watchdog.Reclaim(context.Background())
		if err != nil {
			logger.Error().Err(err).Msg("api: watchdog sweep failed")
			return
		}
		if count > 0 {
			logger.Info().Int("reclaimed", count).Msg("api: watchdog sweep")
		}
	}); err != nil {
		logger.Fatal().Err(err).Str("schedule", cfg.ReaperSchedule).Msg("api: invalid reaper schedule")
	}
	sched.Start()
	defer sched.Stop()

	server := infra.NewHTTPServer(cfg, httpapi.NewRouter(app))
	go func() {
		logger.Info().Msgf("API listening on :%s", cfg.Port)
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}
