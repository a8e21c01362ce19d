package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"tourgen/internal/notify"
)

const eventHeartbeat = 15 * time.Second

// TourEvents streams job status changes as server-sent events. The
// current state is sent first so a reconnecting client never depends on
// push delivery for correctness; the stream ends after a terminal
// event or when the client goes away.
func (a *App) TourEvents(w http.ResponseWriter, r *http.Request) {
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

	flusher, ok := w.(http.Flusher)
	if !ok {
		a.error(w, http.StatusInternalServerError, "internal", "streaming unsupported")
		return
	}

	// Subscribe before the snapshot write so a transition landing in
	// between is not lost.
	events, cancel, err := a.Notifier.Subscribe(r.Context(), jobID)
	if err != nil {
		a.Logger.Error().Err(err).Str("job_id", jobID).Msg("events: subscribe failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to subscribe")
		return
	}
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	// The stream outlives the server's write timeout.
	_ = http.NewResponseController(w).SetWriteDeadline(time.Time{})
	w.WriteHeader(http.StatusOK)

	writeEvent(w, notify.EventFromJob(job))
	flusher.Flush()
	if job.Status.Terminal() {
		return
	}

	heartbeat := time.NewTicker(eventHeartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-heartbeat.C:
			fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		case event, open := <-events:
			if !open {
				return
			}
			writeEvent(w, event)
			flusher.Flush()
			if event.Status.Terminal() {
				return
			}
		}
	}
}

func writeEvent(w http.ResponseWriter, event notify.JobEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "event: status\ndata: %s\n\n", payload)
}
