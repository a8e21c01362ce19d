package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"tourgen/internal/domain"
)

const timeoutErrorMessage = "generation timed out"

// Watchdog bounds how long a job can stay billed-but-unresolved. It
// reclaims active jobs older than the timeout window by failing them
// and refunding the charge, through the same CAS-guarded path the
// producer callbacks use. Sweeps may overlap freely: a job is only
// handled by whichever attempt wins its compare-and-swap.
type Watchdog struct {
	store     domain.JobStore
	lifecycle *Lifecycle
	window    time.Duration
	logger    zerolog.Logger
	now       func() time.Time
}

func NewWatchdog(store domain.JobStore, lifecycle *Lifecycle, window time.Duration, logger zerolog.Logger) *Watchdog {
	return &Watchdog{
		store:     store,
		lifecycle: lifecycle,
		window:    window,
		logger:    logger,
		now:       time.Now,
	}
}

// Reclaim sweeps all timed-out active jobs and returns how many this
// invocation transitioned to failed. Re-running it is a no-op for jobs
// already reclaimed: their status no longer matches the CAS precondition.
func (w *Watchdog) Reclaim(ctx context.Context) (int, error) {
	now := w.now().UTC()
	candidates, err := w.store.ListActiveOlderThan(ctx, now.Add(-w.window))
	if err != nil {
		return 0, fmt.Errorf("watchdog: list stale jobs: %w", err)
	}

	reclaimed := 0
	for i := range candidates {
		job := &candidates[i]
		if _, err := w.lifecycle.FailFrom(ctx, job.ID, job.Status, timeoutErrorMessage, ReasonTimeoutRefund); err != nil {
			if errors.Is(err, domain.ErrStaleStatus) {
				// Another writer transitioned the job first; skip it.
				continue
			}
			w.logger.Error().Err(err).Str("job_id", job.ID).Msg("watchdog: reclaim failed")
			continue
		}
		reclaimed++
		w.logger.Info().
			Str("job_id", job.ID).
			Str("owner_id", job.OwnerID).
			Int("credits", job.CreditsCharged).
			Msg("watchdog: reclaimed timed-out job")
	}
	return reclaimed, nil
}

// CheckState classifies the outcome of an on-demand status check.
type CheckState string

const (
	CheckStateProcessing CheckState = "processing"
	CheckStateTerminal   CheckState = "terminal"
	CheckStateReclaimed  CheckState = "reclaimed"
)

// CheckResult is the answer to an explicit client status check.
type CheckResult struct {
	State   CheckState
	Job     *domain.GenerationJob
	Elapsed time.Duration
}

// CheckJob answers a client's explicit status question and doubles as
// the on-demand reclaim trigger: a stale active job is reclaimed right
// here, through the same idempotent path as the background sweep.
func (w *Watchdog) CheckJob(ctx context.Context, ownerID, jobID string) (*CheckResult, error) {
	job, err := w.store.GetForOwner(ctx, jobID, ownerID)
	if err != nil {
		return nil, err
	}
	now := w.now().UTC()
	if job.Status.Terminal() {
		return &CheckResult{State: CheckStateTerminal, Job: job}, nil
	}

	elapsed := now.Sub(job.CreatedAt)
	if elapsed <= w.window {
		return &CheckResult{State: CheckStateProcessing, Job: job, Elapsed: elapsed}, nil
	}

	failed, err := w.lifecycle.FailFrom(ctx, job.ID, job.Status, timeoutErrorMessage, ReasonTimeoutRefund)
	if err != nil {
		if errors.Is(err, domain.ErrStaleStatus) {
			// Lost the race to the producer or another sweep; the fresh
			// record is the answer.
			job, err = w.store.GetForOwner(ctx, jobID, ownerID)
			if err != nil {
				return nil, err
			}
			if job.Status.Terminal() {
				return &CheckResult{State: CheckStateTerminal, Job: job}, nil
			}
			return &CheckResult{State: CheckStateProcessing, Job: job, Elapsed: now.Sub(job.CreatedAt)}, nil
		}
		return nil, err
	}
	return &CheckResult{State: CheckStateReclaimed, Job: failed}, nil
}
