package events

import (
	"context"
	"log/slog"
	"sync"
)

// InMemoryEmitter dispatches events synchronously to registered handlers.
type InMemoryEmitter struct {
	handlers []Handler
	mu       sync.RWMutex
	logger   *slog.Logger
}

var _ Emitter = (*InMemoryEmitter)(nil)

// NewInMemoryEmitter creates an emitter with no handlers.
func NewInMemoryEmitter(logger *slog.Logger) *InMemoryEmitter {
	if logger == nil {
		logger = slog.Default()
	}
	return &InMemoryEmitter{
		logger: logger.With(slog.String("component", "event_emitter")),
	}
}

// Register adds a handler.
func (e *InMemoryEmitter) Register(handler Handler) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.handlers = append(e.handlers, handler)
	e.logger.Debug("registered event handler", slog.Int("handler_count", len(e.handlers)))
}

// Emit sends event to every handler. A failing handler does not stop the
// others; the first error is returned.
func (e *InMemoryEmitter) Emit(ctx context.Context, event Event) error {
	e.mu.RLock()
	handlers := make([]Handler, len(e.handlers))
	copy(handlers, e.handlers)
	e.mu.RUnlock()

	var firstErr error
	for i, handler := range handlers {
		if err := handler.HandleEvent(ctx, event); err != nil {
			e.logger.ErrorContext(ctx, "handler failed to process event",
				slog.String("error", err.Error()),
				slog.Int("handler_index", i),
				slog.String("event_id", event.ID.String()),
				slog.String("event_kind", string(event.Kind)))
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// LogHandler writes every event to a logger at info level, load failures at
// warn level.
func LogHandler(logger *slog.Logger) Handler {
	logger = logger.With(slog.String("component", "session_events"))
	return HandlerFunc(func(ctx context.Context, event Event) error {
		attrs := []slog.Attr{
			slog.String("event_kind", string(event.Kind)),
			slog.Uint64("generation", event.Generation),
			slog.Int("position", event.Progress.Position),
			slog.Int("total", event.Progress.Total),
		}
		if event.Quality != nil {
			attrs = append(attrs, slog.Int("quality", int(*event.Quality)))
		}
		level := slog.LevelInfo
		if event.Error != "" {
			level = slog.LevelWarn
			attrs = append(attrs, slog.String("error", event.Error))
		}
		logger.LogAttrs(ctx, level, "session event", attrs...)
		return nil
	})
}
