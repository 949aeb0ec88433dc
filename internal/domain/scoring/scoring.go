// Package scoring computes worker ranking scores from performance counters.
package scoring

import "math"

// Default scoring weights. Persisted scores across the fleet were computed
// with these values, so overriding them is a compatibility decision.
const (
	defaultCompletedWeight = 10.0
	defaultViolationWeight = 15.0
	defaultRatingWeight    = 5.0
)

// Option applies a configuration option to the Calculator.
type Option func(*Calculator)

// WithCompletedWeight sets the per-completed-task weight.
func WithCompletedWeight(w float64) Option {
	return func(c *Calculator) {
		if w > 0 {
			c.completedWeight = w
		}
	}
}

// WithViolationWeight sets the per-violation penalty weight.
func WithViolationWeight(w float64) Option {
	return func(c *Calculator) {
		if w > 0 {
			c.violationWeight = w
		}
	}
}

// WithRatingWeight sets the average-rating weight.
func WithRatingWeight(w float64) Option {
	return func(c *Calculator) {
		if w > 0 {
			c.ratingWeight = w
		}
	}
}

// Calculator maps a worker's counters to a single ranking score.
// The computation is pure; identical inputs always produce identical
// output, which is what makes the batch recalculation idempotent.
type Calculator struct {
	completedWeight float64
	violationWeight float64
	ratingWeight    float64
}

// NewCalculator creates a Calculator with the default weights.
func NewCalculator(opts ...Option) *Calculator {
	c := &Calculator{
		completedWeight: defaultCompletedWeight,
		violationWeight: defaultViolationWeight,
		ratingWeight:    defaultRatingWeight,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Score computes completed*10 - violations*15 + rating*5 under the default
// weights, clamped at a floor of 0. Inputs are not range-checked; counters
// are trusted to be non-negative and rating to sit in [0,5] upstream.
func (c *Calculator) Score(completedTasks, slaViolations int, averageRating float64) float64 {
	score := float64(completedTasks)*c.completedWeight -
		float64(slaViolations)*c.violationWeight +
		averageRating*c.ratingWeight
	return math.Max(0, score)
}
