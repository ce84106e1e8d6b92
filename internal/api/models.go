package api

import (
	"time"

	"github.com/phrazzld/scry-vocab/internal/domain"
	"github.com/phrazzld/scry-vocab/internal/domain/srs"
	"github.com/phrazzld/scry-vocab/internal/service/session"
)

// AnswerRequest grades the current item either directly with a quality score
// or, for auto-graded exercises, with an accuracy and a response time.
type AnswerRequest struct {
	Quality        *int     `json:"quality,omitempty"          validate:"required_without=Accuracy,excluded_with=Accuracy,omitempty,min=0,max=5"`
	Accuracy       *float64 `json:"accuracy,omitempty"         validate:"required_without=Quality,omitempty,min=0,max=1"`
	ResponseTimeMS *int64   `json:"response_time_ms,omitempty" validate:"required_with=Accuracy,omitempty,gte=0"`
}

// ItemResponse is the client view of an item record.
type ItemResponse struct {
	ID             string     `json:"id"`
	Term           string     `json:"term"`
	Meaning        string     `json:"meaning"`
	Difficulty     int        `json:"difficulty"`
	Status         string     `json:"status"`
	EaseFactor     float64    `json:"ease_factor"`
	IntervalDays   int        `json:"interval_days"`
	ReviewCount    int        `json:"review_count"`
	Streak         int        `json:"streak"`
	LastReviewedAt *time.Time `json:"last_reviewed_at"`
	NextDueAt      *time.Time `json:"next_due_at"`
}

// SessionResponse reports the machine state and, while studying, the item
// at the cursor.
type SessionResponse struct {
	session.Status
	Current *ItemResponse `json:"current,omitempty"`
	Resumed *bool         `json:"resumed,omitempty"`
}

// AnswerResponse reports the effect of an answer.
type AnswerResponse struct {
	Item          ItemResponse   `json:"item"`
	Quality       domain.Quality `json:"quality"`
	IntervalDays  int            `json:"interval_days"`
	EaseFactor    float64        `json:"ease_factor"`
	RepeatSameDay bool           `json:"repeat_same_day"`
	Session       session.Status `json:"session"`
}

func itemToResponse(r domain.ItemRecord) ItemResponse {
	resp := ItemResponse{
		ID:           r.ID.String(),
		Term:         r.Term,
		Meaning:      r.Meaning,
		Difficulty:   r.Difficulty,
		Status:       r.Status.String(),
		EaseFactor:   r.EaseFactor,
		IntervalDays: r.IntervalDays,
		ReviewCount:  r.ReviewCount,
		Streak:       r.Streak,
	}
	if t, ok := r.LastReviewedAt.Time(); ok {
		resp.LastReviewedAt = &t
	}
	if t, ok := r.NextDueAt.Time(); ok {
		resp.NextDueAt = &t
	}
	return resp
}

func answerToResponse(q domain.Quality, res srs.Result, st session.Status, r domain.ItemRecord) AnswerResponse {
	return AnswerResponse{
		Item:          itemToResponse(r),
		Quality:       q,
		IntervalDays:  res.NewInterval,
		EaseFactor:    res.NewEase,
		RepeatSameDay: res.RepeatSameDay,
		Session:       st,
	}
}
