package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"tourgen/internal/domain"
	"tourgen/internal/service"
)

type submitResponse struct {
	JobID          string `json:"job_id"`
	Status         string `json:"status"`
	CreditsCharged int    `json:"credits_charged"`
	Balance        int    `json:"balance"`
}

// ToursCreate submits a generation job. The debit happens before the
// job exists, so a 402 means no record was created and no funds held.
func (a *App) ToursCreate(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	var req domain.TourRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	job, balance, err := a.Submitter.Submit(r.Context(), userID, req)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidRequest):
			a.error(w, http.StatusBadRequest, "bad_request", "invalid generation request")
		case errors.Is(err, domain.ErrInsufficientFunds):
			a.error(w, http.StatusPaymentRequired, "insufficient_funds", "not enough credits")
		default:
			a.Logger.Error().Err(err).Str("user_id", userID).Msg("tours: submit failed")
			a.error(w, http.StatusInternalServerError, "internal", "failed to submit job")
		}
		return
	}
	a.json(w, http.StatusAccepted, submitResponse{
		JobID:          job.ID,
		Status:         string(job.Status),
		CreditsCharged: job.CreditsCharged,
		Balance:        balance,
	})
}

// TourGet returns the owner-scoped job record.
func (a *App) TourGet(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	jobID := chi.URLParam(r, "job_id")
	if jobID == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "job_id required")
		return
	}
	job, err := a.Jobs.GetForOwner(r.Context(), jobID, userID)
	if err != nil {
		a.error(w, http.StatusNotFound, "not_found", "job not found")
		return
	}
	a.json(w, http.StatusOK, jobJSON(job))
}

type checkRequest struct {
	JobID string `json:"job_id"`
}

// TourCheck answers an explicit status question. A stale active job is
// reclaimed synchronously: the client gets the failed status and the
// refund in one round trip instead of waiting for the background sweep.
func (a *App) TourCheck(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	var req checkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.JobID == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "job_id required")
		return
	}
	result, err := a.Checker.CheckJob(r.Context(), userID, req.JobID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "not_found", "job not found")
			return
		}
		a.Logger.Error().Err(err).Str("job_id", req.JobID).Msg("tours: check failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to check job")
		return
	}

	payload := map[string]any{
		"state":  string(result.State),
		"status": string(result.Job.Status),
	}
	switch result.State {
	case service.CheckStateProcessing:
		payload["elapsed_seconds"] = int(result.Elapsed / time.Second)
	case service.CheckStateTerminal:
		if result.Job.ResultRef != "" {
			payload["result_ref"] = result.Job.ResultRef
		}
		if result.Job.ErrorMessage != "" {
			payload["error"] = result.Job.ErrorMessage
		}
	case service.CheckStateReclaimed:
		payload["error"] = result.Job.ErrorMessage
		refunded := 0
		if result.Job.CreditsRefunded {
			refunded = result.Job.CreditsCharged
		}
		payload["credits_refunded"] = refunded
	}
	a.json(w, http.StatusOK, payload)
}

func jobJSON(job *domain.GenerationJob) map[string]any {
	out := map[string]any{
		"id":               job.ID,
		"owner_id":         job.OwnerID,
		"status":           job.Status,
		"source_assets":    job.SourceAssets,
		"duration_seconds": job.DurationSeconds,
		"quality":          job.Quality,
		"credits_charged":  job.CreditsCharged,
		"credits_refunded": job.CreditsRefunded,
		"created_at":       job.CreatedAt,
		"updated_at":       job.UpdatedAt,
	}
	if job.CompletedAt != nil {
		out["completed_at"] = job.CompletedAt
	}
	if job.ResultRef != "" {
		out["result_ref"] = job.ResultRef
	}
	if job.ErrorMessage != "" {
		out["error"] = job.ErrorMessage
	}
	return out
}
