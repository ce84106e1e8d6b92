package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/phrazzld/scry-vocab/internal/api"
)

const defaultShutdownTimeout = 10 * time.Second

func newServeCmd(state *cliState) *cobra.Command {
	var resume bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the study session HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, err := newApplication(ctx, state.cfg, state.logger)
			if err != nil {
				return err
			}

			if err := app.scheduler.Start(); err != nil {
				app.cleanup()
				return fmt.Errorf("failed to start scheduler: %w", err)
			}
			app.logger.Info("rollover scheduled", slog.Time("next_run", app.scheduler.NextRun()))

			if resume {
				resumed, err := app.machine.Resume(ctx)
				if err != nil {
					app.logger.Warn("could not resume session at startup", slog.String("error", err.Error()))
				} else {
					app.logger.Info("session ready at startup", slog.Bool("resumed", resumed))
				}
			}

			return app.startHTTPServer(ctx, app.router())
		},
	}

	cmd.Flags().BoolVar(&resume, "resume", false, "recover or start a session before accepting requests")
	return cmd
}

func (app *application) router() http.Handler {
	sessions := api.NewSessionHandler(app.machine, app.srsService, app.logger)
	items := api.NewItemHandler(app.items, app.importer, app.machine, app.logger)
	return api.NewRouter(sessions, items, app.logger)
}

// startHTTPServer serves until SIGINT/SIGTERM or ctx cancellation, then
// shuts down gracefully and releases application resources.
func (app *application) startHTTPServer(ctx context.Context, router http.Handler) error {
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", app.config.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverCtx, cancelServer := context.WithCancel(ctx)
	defer cancelServer()

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(shutdownCh)

	serveErr := make(chan error, 1)
	go func() {
		app.logger.Info("starting server", slog.Int("port", app.config.Server.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			app.logger.Error("server failed", slog.String("error", err.Error()))
			serveErr <- err
			cancelServer()
		}
	}()

	select {
	case <-shutdownCh:
		app.logger.Info("shutting down server")
	case <-serverCtx.Done():
		app.logger.Info("server context canceled, shutting down")
	}

	timeout := app.config.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = defaultShutdownTimeout
	}
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		app.logger.Error("server shutdown failed", slog.String("error", err.Error()))
		app.cleanup()
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	// Persist the position of an active session before the stores close.
	if err := app.machine.Suspend(shutdownCtx); err != nil {
		app.logger.Debug("no session suspended on shutdown", slog.String("reason", err.Error()))
	}

	app.cleanup()

	select {
	case err := <-serveErr:
		return fmt.Errorf("server failed: %w", err)
	default:
	}

	app.logger.Info("server shutdown completed")
	return nil
}
