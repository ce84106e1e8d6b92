package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/phrazzld/scry-vocab/internal/api/shared"
	"github.com/phrazzld/scry-vocab/internal/domain"
	"github.com/phrazzld/scry-vocab/internal/domain/queue"
	"github.com/phrazzld/scry-vocab/internal/platform/logger"
	"github.com/phrazzld/scry-vocab/internal/service/session"
)

// SessionMachine is the part of session.Machine the HTTP layer drives.
type SessionMachine interface {
	Start(ctx context.Context) error
	Resume(ctx context.Context) (bool, error)
	Answer(ctx context.Context, q domain.Quality) (session.Outcome, error)
	Skip(ctx context.Context) (queue.Progress, error)
	Suspend(ctx context.Context) error
	Finish(ctx context.Context) error
	Status() session.Status
	Current(ctx context.Context) (domain.ItemRecord, error)
}

// QualityEstimator grades auto-graded answers.
type QualityEstimator interface {
	EstimateQuality(accuracy float64, responseTime time.Duration) (domain.Quality, error)
}

// SessionHandler serves the /session routes.
type SessionHandler struct {
	machine   SessionMachine
	estimator QualityEstimator
	logger    *slog.Logger
}

// NewSessionHandler creates a SessionHandler.
func NewSessionHandler(machine SessionMachine, estimator QualityEstimator, logger *slog.Logger) *SessionHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionHandler{
		machine:   machine,
		estimator: estimator,
		logger:    logger.With(slog.String("component", "session_handler")),
	}
}

// Get handles GET /session.
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	h.respondWithSession(w, r, nil)
}

// Start handles POST /session. An empty queue is not an error: the response
// reports the idle state.
func (h *SessionHandler) Start(w http.ResponseWriter, r *http.Request) {
	if err := h.machine.Start(r.Context()); err != nil {
		HandleAPIError(w, r, err, "Failed to start study session")
		return
	}
	h.respondWithSession(w, r, nil)
}

// Resume handles POST /session/resume.
func (h *SessionHandler) Resume(w http.ResponseWriter, r *http.Request) {
	resumed, err := h.machine.Resume(r.Context())
	if err != nil {
		HandleAPIError(w, r, err, "Failed to resume study session")
		return
	}
	h.respondWithSession(w, r, &resumed)
}

// Answer handles POST /session/answer.
func (h *SessionHandler) Answer(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	var req AnswerRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid request format", err)
		return
	}
	if err := shared.ValidateRequest(&req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, SanitizeValidationError(err), err)
		return
	}

	q, err := h.quality(req)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	outcome, err := h.machine.Answer(r.Context(), q)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	log.Debug("answer recorded",
		slog.String("item_id", outcome.Record.ID.String()),
		slog.Int("quality", int(q)),
		slog.Int("interval_days", outcome.Result.NewInterval))

	shared.RespondWithJSON(w, r, http.StatusOK,
		answerToResponse(q, outcome.Result, h.machine.Status(), outcome.Record))
}

// Skip handles POST /session/skip.
func (h *SessionHandler) Skip(w http.ResponseWriter, r *http.Request) {
	if _, err := h.machine.Skip(r.Context()); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	h.respondWithSession(w, r, nil)
}

// Suspend handles POST /session/suspend, sent by clients going to the
// background.
func (h *SessionHandler) Suspend(w http.ResponseWriter, r *http.Request) {
	if err := h.machine.Suspend(r.Context()); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Finish handles POST /session/finish.
func (h *SessionHandler) Finish(w http.ResponseWriter, r *http.Request) {
	if err := h.machine.Finish(r.Context()); err != nil {
		HandleAPIError(w, r, err, "Failed to finish study session")
		return
	}
	h.respondWithSession(w, r, nil)
}

func (h *SessionHandler) quality(req AnswerRequest) (domain.Quality, error) {
	if req.Quality != nil {
		return domain.ParseQuality(*req.Quality)
	}
	return h.estimator.EstimateQuality(*req.Accuracy, time.Duration(*req.ResponseTimeMS)*time.Millisecond)
}

func (h *SessionHandler) respondWithSession(w http.ResponseWriter, r *http.Request, resumed *bool) {
	resp := SessionResponse{Status: h.machine.Status(), Resumed: resumed}

	if resp.State == session.StateStudying {
		record, err := h.machine.Current(r.Context())
		switch {
		case err == nil:
			item := itemToResponse(record)
			resp.Current = &item
		case errors.Is(err, session.ErrNotStudying):
			resp.Status = h.machine.Status()
		default:
			HandleAPIError(w, r, err, "Failed to load the current item")
			return
		}
	}

	shared.RespondWithJSON(w, r, http.StatusOK, resp)
}
