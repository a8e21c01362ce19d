package service

import "tourgen/internal/domain"

// Pricing computes the deterministic credit cost of a request. The
// per-second rate is a configuration input; the formula itself never
// varies per user.
type Pricing struct {
	CreditsPerSecond int
}

// CostFor prices a tour request. High quality renders cost double the
// standard rate.
func (p Pricing) CostFor(req domain.TourRequest) int {
	cost := p.CreditsPerSecond * req.DurationSeconds
	if req.Quality == "high" {
		cost *= 2
	}
	return cost
}
