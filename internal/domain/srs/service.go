package srs

import (
	"errors"
	"fmt"
	"time"

	"github.com/phrazzld/scry-vocab/internal/domain"
)

// Common errors
var (
	ErrNilParams = errors.New("srs params cannot be nil")
)

// Service defines the interface for scheduling algorithm operations
type Service interface {
	// ComputeNext runs the interval calculator. It has no error conditions:
	// the quality must be validated by the caller.
	ComputeNext(q domain.Quality, ease float64, intervalDays, reviewCount int) Result

	// NextDue places the review described by res relative to now.
	NextDue(res Result, now time.Time) time.Time

	// Classify derives the coarse learning status of an item.
	Classify(reviewCount int, latest *domain.Quality) domain.Status

	// ApplyAnswer folds a validated answer into a copy of the record.
	// Returns domain.ErrInvalidQuality without touching anything when q is
	// out of range.
	ApplyAnswer(record domain.ItemRecord, q domain.Quality, now time.Time) (domain.ItemRecord, Result, error)

	// EstimateQuality derives a quality score from an auto-graded answer.
	EstimateQuality(accuracy float64, responseTime time.Duration) (domain.Quality, error)
}

// defaultService is the standard implementation of the Service interface
type defaultService struct {
	params *Params
}

// NewDefaultService creates a new SRS service with default parameters
func NewDefaultService() Service {
	return &defaultService{
		params: NewDefaultParams(),
	}
}

// NewServiceWithParams creates a new SRS service with custom parameters
func NewServiceWithParams(params *Params) (Service, error) {
	if params == nil {
		return nil, ErrNilParams
	}
	return &defaultService{
		params: params,
	}, nil
}

func (s *defaultService) ComputeNext(q domain.Quality, ease float64, intervalDays, reviewCount int) Result {
	return computeNext(q, ease, intervalDays, reviewCount, s.params)
}

func (s *defaultService) NextDue(res Result, now time.Time) time.Time {
	return nextDue(res, now, s.params)
}

func (s *defaultService) Classify(reviewCount int, latest *domain.Quality) domain.Status {
	return classify(reviewCount, latest, s.params)
}

func (s *defaultService) ApplyAnswer(
	record domain.ItemRecord,
	q domain.Quality,
	now time.Time,
) (domain.ItemRecord, Result, error) {
	if !q.Valid() {
		return record, Result{}, fmt.Errorf("%w: got %d", domain.ErrInvalidQuality, int(q))
	}

	next, res := applyAnswer(record, q, now, s.params)
	return next, res, nil
}

func (s *defaultService) EstimateQuality(accuracy float64, responseTime time.Duration) (domain.Quality, error) {
	return estimateQuality(accuracy, responseTime, s.params.Estimator)
}
