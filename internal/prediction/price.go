package prediction

import "math"

// DefaultRangeMargin is the displayed spread around the point estimate.
const DefaultRangeMargin = 0.05

// DefaultConfidence substitutes for a missing confidence score. Display-layer
// fallback, not a modeling decision.
const DefaultConfidence = 0.94

// PriceRange is the displayed band around a point estimate, in whole currency
// units.
type PriceRange struct {
	Lower int64 `json:"lower"`
	Upper int64 `json:"upper"`
}

// Range derives the displayed price range from a point estimate. The estimate
// is clamped to be non-negative before the margin is applied; both bounds round
// to the nearest whole currency unit.
func Range(estimate, margin float64) PriceRange {
	safe := math.Max(0, estimate)
	return PriceRange{
		Lower: int64(math.Round(safe * (1 - margin))),
		Upper: int64(math.Round(safe * (1 + margin))),
	}
}

// Confidence returns the response's confidence score when present, else the
// given default.
func (r *Response) Confidence(fallback float64) float64 {
	if r != nil && r.ConfidenceScore != nil {
		return *r.ConfidenceScore
	}
	return fallback
}
