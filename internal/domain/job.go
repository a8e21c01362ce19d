package domain

import "time"

// JobStatus enumerates the generation job lifecycle states.
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// Terminal reports whether no further transitions may leave the status.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// Active reports whether the job is still waiting on the producer.
func (s JobStatus) Active() bool {
	return s == JobStatusPending || s == JobStatusProcessing
}

// CanTransition reports whether the edge from -> to exists in the
// lifecycle state machine. pending is never re-entered.
func CanTransition(from, to JobStatus) bool {
	switch from {
	case JobStatusPending:
		return to == JobStatusProcessing || to == JobStatusFailed
	case JobStatusProcessing:
		return to == JobStatusCompleted || to == JobStatusFailed
	default:
		return false
	}
}

// GenerationJob tracks one request for an externally produced virtual
// tour through its billed lifecycle. Input parameters and the charged
// amount are immutable after creation; only status and its dependent
// fields change, and only through the store's compare-and-swap.
type GenerationJob struct {
	ID              string
	OwnerID         string
	Status          JobStatus
	SourceAssets    []string
	DurationSeconds int
	Quality         string
	CreditsCharged  int
	CreditsRefunded bool
	ResultRef       string
	ErrorMessage    string
	CreatedAt       time.Time
	UpdatedAt       time.Time
	CompletedAt     *time.Time
}

// AllowedDurations are the tour lengths (seconds) a client may request.
var AllowedDurations = []int{15, 30, 60}

// AllowedQualities are the accepted rendering quality tiers.
var AllowedQualities = []string{"standard", "high"}

// TourRequest is the client-supplied input of a submission.
type TourRequest struct {
	SourceAssets    []string `json:"source_assets"`
	DurationSeconds int      `json:"duration_seconds"`
	Quality         string   `json:"quality"`
}

// Validate checks the request against the domain constraints. It does
// not touch any external state.
func (r TourRequest) Validate() error {
	if len(r.SourceAssets) == 0 {
		return ErrInvalidRequest
	}
	for _, ref := range r.SourceAssets {
		if ref == "" {
			return ErrInvalidRequest
		}
	}
	durationOK := false
	for _, d := range AllowedDurations {
		if r.DurationSeconds == d {
			durationOK = true
			break
		}
	}
	if !durationOK {
		return ErrInvalidRequest
	}
	if r.Quality == "" {
		return nil
	}
	for _, q := range AllowedQualities {
		if r.Quality == q {
			return nil
		}
	}
	return ErrInvalidRequest
}
