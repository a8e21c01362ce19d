package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"tourgen/internal/domain"
)

// JobProcessing is the producer's acceptance callback: the job moves
// pending -> processing. A lost race (watchdog already failed it, or a
// duplicate callback) is a conflict, not an error to retry.
func (a *App) JobProcessing(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "job_id")
	if jobID == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "job_id required")
		return
	}
	job, err := a.Lifecycle.MarkProcessing(r.Context(), jobID)
	if err != nil {
		if errors.Is(err, domain.ErrStaleStatus) {
			a.error(w, http.StatusConflict, "stale_status", "job is not pending")
			return
		}
		a.Logger.Error().Err(err).Str("job_id", jobID).Msg("producer: mark processing failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to update job")
		return
	}
	a.json(w, http.StatusOK, map[string]string{"job_id": job.ID, "status": string(job.Status)})
}

type producerResult struct {
	Status    string `json:"status"`
	ResultRef string `json:"result_ref"`
	Error     string `json:"error"`
}

// JobResult is the producer's terminal callback. A failed result goes
// through the shared refund path; a callback losing the race against
// the watchdog applies nothing.
func (a *App) JobResult(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "job_id")
	if jobID == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "job_id required")
		return
	}
	var res producerResult
	if err := json.NewDecoder(r.Body).Decode(&res); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}

	var job *domain.GenerationJob
	var err error
	switch res.Status {
	case string(domain.JobStatusCompleted):
		if res.ResultRef == "" {
			a.error(w, http.StatusBadRequest, "bad_request", "result_ref required for completed jobs")
			return
		}
		job, err = a.Lifecycle.Complete(r.Context(), jobID, res.ResultRef)
	case string(domain.JobStatusFailed):
		reason := res.Error
		if reason == "" {
			reason = "producer reported failure"
		}
		job, err = a.Lifecycle.Fail(r.Context(), jobID, reason)
	default:
		a.error(w, http.StatusBadRequest, "bad_request", "status must be completed or failed")
		return
	}
	if err != nil {
		if errors.Is(err, domain.ErrStaleStatus) {
			a.error(w, http.StatusConflict, "stale_status", "job already transitioned")
			return
		}
		a.Logger.Error().Err(err).Str("job_id", jobID).Msg("producer: result callback failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to update job")
		return
	}
	a.json(w, http.StatusOK, map[string]string{"job_id": job.ID, "status": string(job.Status)})
}
