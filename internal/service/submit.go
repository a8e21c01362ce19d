package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"tourgen/internal/domain"
	"tourgen/internal/notify"
)

// Ledger reason codes. Refund reasons share one credit entry slot per
// job at the storage layer, so a job can never be refunded twice even
// when two refund paths race.
const (
	ReasonGeneration     = "generation-job"
	ReasonTimeoutRefund  = "timeout-refund"
	ReasonProducerRefund = "producer-failure-refund"
	ReasonSubmitRollback = "submission-rollback"
)

// Submitter accepts generation requests: it prices them, reserves the
// credits, records the job and hands it to the external producer.
type Submitter struct {
	store      domain.JobStore
	ledger     domain.CreditLedger
	dispatcher domain.Dispatcher
	notifier   notify.Notifier
	pricing    Pricing
	logger     zerolog.Logger
	now        func() time.Time
}

func NewSubmitter(store domain.JobStore, ledger domain.CreditLedger, dispatcher domain.Dispatcher, notifier notify.Notifier, pricing Pricing, logger zerolog.Logger) *Submitter {
	return &Submitter{
		store:      store,
		ledger:     ledger,
		dispatcher: dispatcher,
		notifier:   notifier,
		pricing:    pricing,
		logger:     logger,
		now:        time.Now,
	}
}

// Submit validates the request, debits the cost and creates the job in
// pending state. The debit happens before the job record exists, so a
// job is never visible without funds reserved; if the insert fails the
// debit is compensated before the error is returned. Dispatch failure
// does not fail the submission: the job stays pending and the watchdog
// will reclaim and refund it if the producer never picks it up.
// Returns the created job and the owner's remaining balance.
func (s *Submitter) Submit(ctx context.Context, ownerID string, req domain.TourRequest) (*domain.GenerationJob, int, error) {
	if err := req.Validate(); err != nil {
		return nil, 0, err
	}
	cost := s.pricing.CostFor(req)

	jobID := uuid.NewString()
	balance, err := s.ledger.Debit(ctx, ownerID, cost, ReasonGeneration, jobID)
	if err != nil {
		return nil, 0, err
	}

	now := s.now().UTC()
	job := &domain.GenerationJob{
		ID:              jobID,
		OwnerID:         ownerID,
		Status:          domain.JobStatusPending,
		SourceAssets:    req.SourceAssets,
		DurationSeconds: req.DurationSeconds,
		Quality:         req.Quality,
		CreditsCharged:  cost,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.store.Create(ctx, job); err != nil {
		// Manual rollback of the debit; there is no cross-resource
		// transaction spanning ledger and job store.
		if _, cerr := s.ledger.Credit(ctx, ownerID, cost, ReasonSubmitRollback, jobID); cerr != nil {
			s.logger.Error().Err(cerr).
				Str("job_id", jobID).
				Str("owner_id", ownerID).
				Int("amount", cost).
				Msg("submit: rollback credit failed, manual reconciliation required")
		}
		return nil, 0, fmt.Errorf("submit: create job: %w", err)
	}

	if err := s.dispatcher.Dispatch(ctx, job); err != nil {
		s.logger.Warn().Err(err).Str("job_id", jobID).Msg("submit: dispatch failed, job left pending for reclaim")
	}

	if err := s.notifier.Publish(ctx, notify.EventFromJob(job)); err != nil {
		s.logger.Warn().Err(err).Str("job_id", jobID).Msg("submit: publish pending event failed")
	}

	return job, balance, nil
}
