package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/phrazzld/scry-vocab/internal/api/middleware"
)

// RequestTimeout bounds the handling time of one request.
const RequestTimeout = 30 * time.Second

// NewRouter registers every route under /api plus /health.
func NewRouter(sessions *SessionHandler, items *ItemHandler, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewTraceMiddleware(logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(RequestTimeout))

	r.Route("/api", func(r chi.Router) {
		r.Route("/session", func(r chi.Router) {
			r.Get("/", sessions.Get)
			r.Post("/", sessions.Start)
			r.Post("/resume", sessions.Resume)
			r.Post("/answer", sessions.Answer)
			r.Post("/skip", sessions.Skip)
			r.Post("/suspend", sessions.Suspend)
			r.Post("/finish", sessions.Finish)
		})
		r.Route("/items", func(r chi.Router) {
			r.Post("/reset", items.Reset)
			r.Post("/import", items.Import)
		})
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			logger.Error("failed to write health check response", slog.String("error", err.Error()))
		}
	})

	return r
}
