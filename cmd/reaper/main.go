package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"tourgen/internal/adapter/repo"
	"tourgen/internal/infra"
	"tourgen/internal/notify"
	"tourgen/internal/service"
)

// The reaper is the background trigger of the watchdog. It can run next
// to the API's in-process sweep or replace it; overlapping sweeps are
// safe because each job's reclaim is CAS-guarded.
func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv).With().Str("cmd", "reaper").Logger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("reaper: db connection failed")
	}
	defer pool.Close()

	rdb, err := infra.NewRedisClient(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("reaper: redis connection failed")
	}
	defer rdb.Close()

	runner := infra.NewSQLRunner(pool, logger)
	jobs := repo.NewJobStore(runner)
	ledger := repo.NewCreditLedger(runner)
	notifier := notify.NewRedisNotifier(rdb, logger)
	lifecycle := service.NewLifecycle(jobs, ledger, notifier, logger)
	watchdog := service.NewWatchdog(jobs, lifecycle, cfg.JobTimeout, logger)

	sched := cron.New()
	if _, err := sched.AddFunc(cfg.ReaperSchedule, func() {
		count, err := watchdog.Reclaim(context.Background())
		if err != nil {
			logger.Error().Err(err).Msg("reaper: sweep failed")
			return
		}
		logger.Info().Int("reclaimed", count).Msg("reaper: sweep done")
	}); err != nil {
		logger.Fatal().Err(err).Str("schedule", cfg.ReaperSchedule).Msg("reaper: invalid schedule")
	}

	logger.Info().Str("schedule", cfg.ReaperSchedule).Msg("reaper: started")
	sched.Start()

	<-ctx.Done()
	<-sched.Stop().Done()
	logger.Info().Msg("reaper: stopped")
}
