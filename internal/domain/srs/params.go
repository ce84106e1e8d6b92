package srs

import (
	"time"

	"github.com/phrazzld/scry-vocab/internal/domain"
)

// Params defines all configurable parameters for the scheduling algorithm
type Params struct {
	// Core limits
	MinEaseFactor   float64
	MaxIntervalDays int

	// FirstReviewIntervals is indexed by quality and used only for an
	// item's first graduated review.
	FirstReviewIntervals [6]int

	// SameDayDelay is how long a same-day repeat is deferred.
	SameDayDelay time.Duration

	// MasteryQuality is the minimum latest quality that marks an item mastered.
	MasteryQuality domain.Quality

	Estimator EstimatorParams
}

// EstimatorParams holds the thresholds used to derive a quality score from
// an auto-graded answer.
type EstimatorParams struct {
	// Accuracy bands, highest first.
	HighAccuracy   float64
	MediumAccuracy float64
	LowAccuracy    float64

	// Response time bands.
	FastResponse time.Duration
	SlowResponse time.Duration
}

// NewDefaultParams creates a new Params instance with default values
func NewDefaultParams() *Params {
	return &Params{
		MinEaseFactor:        domain.MinEaseFactor,
		MaxIntervalDays:      domain.MaxIntervalDays,
		FirstReviewIntervals: [6]int{0, 0, 1, 3, 7, 14},
		SameDayDelay:         time.Hour,
		MasteryQuality:       domain.QualityCorrectHesitation,
		Estimator: EstimatorParams{
			HighAccuracy:   0.9,
			MediumAccuracy: 0.7,
			LowAccuracy:    0.5,
			FastResponse:   2 * time.Second,
			SlowResponse:   6 * time.Second,
		},
	}
}
