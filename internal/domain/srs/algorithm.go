package srs

import (
	"math"
	"time"

	"github.com/phrazzld/scry-vocab/internal/domain"
)

// Result is the outcome of a single interval calculation.
type Result struct {
	NewInterval   int
	NewEase       float64
	RepeatSameDay bool
}

// calculateNewEase applies the SM-2 ease adjustment and clamps the result.
//
// EF' = EF + (0.1 - (5-q) * (0.08 + (5-q) * 0.02))
//
// Every adjustment is a multiple of 0.02, so the result is rounded to two
// decimals to keep float drift out of the interval products.
func calculateNewEase(ease float64, q domain.Quality, params *Params) float64 {
	d := 5 - float64(q)
	newEase := ease + (0.1 - d*(0.08+d*0.02))
	newEase = math.Round(newEase*100) / 100

	if newEase < params.MinEaseFactor {
		newEase = params.MinEaseFactor
	}
	return newEase
}

// calculateNewInterval picks the next interval in days.
//
// Failing answers (q < 2) reset to zero and repeat the same day. A "familiar"
// miss (q == 2) comes back tomorrow. Correct answers use the first-review
// table for the first graduated review, the larger of the table and the
// ease product for the second, and the plain ease product afterwards.
func calculateNewInterval(
	q domain.Quality,
	newEase float64,
	intervalDays int,
	reviewCount int,
	params *Params,
) (int, bool) {
	if q.RepeatsSameDay() {
		return 0, true
	}

	var interval int
	switch {
	case q == domain.QualityIncorrectFamiliar:
		interval = 1
	case reviewCount == 0:
		interval = params.FirstReviewIntervals[q]
	case reviewCount == 1:
		interval = max(params.FirstReviewIntervals[q], scaleInterval(intervalDays, newEase))
	default:
		interval = scaleInterval(intervalDays, newEase)
	}

	return min(max(interval, 0), params.MaxIntervalDays), false
}

func scaleInterval(intervalDays int, ease float64) int {
	return int(math.Floor(float64(intervalDays) * ease))
}

// computeNext is the pure interval calculator. Quality must already be
// validated by the caller.
func computeNext(
	q domain.Quality,
	ease float64,
	intervalDays int,
	reviewCount int,
	params *Params,
) Result {
	newEase := calculateNewEase(ease, q, params)
	interval, sameDay := calculateNewInterval(q, newEase, intervalDays, reviewCount, params)

	return Result{
		NewInterval:   interval,
		NewEase:       newEase,
		RepeatSameDay: sameDay,
	}
}

// nextDue places the next review relative to the moment of scoring, never
// relative to the previous due date.
func nextDue(res Result, now time.Time, params *Params) time.Time {
	if res.RepeatSameDay {
		return now.Add(params.SameDayDelay)
	}
	return now.AddDate(0, 0, res.NewInterval)
}

// classify derives the coarse learning status.
func classify(reviewCount int, latest *domain.Quality, params *Params) domain.Status {
	switch {
	case reviewCount == 0:
		return domain.StatusNew
	case latest != nil && *latest >= params.MasteryQuality:
		return domain.StatusMastered
	default:
		return domain.StatusLearning
	}
}

// applyAnswer returns a new record with the answer folded in. The input is
// not modified.
//
// The answer's quality counts towards mastery only when the item already had
// a graduated review before this answer, so a brand-new item answered
// perfectly becomes Learning rather than jumping straight to Mastered.
func applyAnswer(
	record domain.ItemRecord,
	q domain.Quality,
	now time.Time,
	params *Params,
) (domain.ItemRecord, Result) {
	res := computeNext(q, record.EaseFactor, record.IntervalDays, record.ReviewCount, params)

	next := record
	next.EaseFactor = res.NewEase
	next.IntervalDays = res.NewInterval
	next.LastReviewedAt = domain.At(now)
	next.NextDueAt = domain.At(nextDue(res, now, params))

	if q.IsCorrect() {
		next.CorrectCount++
		next.Streak++
	} else {
		next.IncorrectCount++
		if q.RepeatsSameDay() {
			next.Streak = 0
		}
	}

	if !res.RepeatSameDay {
		next.ReviewCount++
	}

	var latest *domain.Quality
	if record.ReviewCount >= 1 {
		latest = &q
	}
	next.Status = classify(next.ReviewCount, latest, params)

	lastQuality := q
	next.LastQuality = &lastQuality

	return next, res
}
