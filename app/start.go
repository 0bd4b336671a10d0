package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Black-And-White-Club/party-companion/app/observability/attr"
)

// Start runs the background workers and the HTTP server until ctx is
// cancelled, then shuts down within the configured timeout.
func (app *App) Start(ctx context.Context) error {
	if err := app.Modules.Score.Run(ctx); err != nil {
		return fmt.Errorf("failed to start score subscribers: %w", err)
	}
	if err := app.Modules.Molkky.Run(ctx); err != nil {
		return fmt.Errorf("failed to start molkky workers: %w", err)
	}

	srv := &http.Server{
		Addr:              app.Config.HTTP.Addr,
		Handler:           app.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		app.Logger.InfoContext(ctx, "Starting HTTP server", attr.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err, ok := <-serveErr:
		if ok {
			return fmt.Errorf("http server failed: %w", err)
		}
	case <-ctx.Done():
		app.Logger.Info("Shutting down application")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), app.Config.HTTP.ShutdownTimeout)
	defer cancel()

	var errs []error
	if err := srv.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("http shutdown: %w", err))
	}
	if err := app.Modules.Molkky.Close(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("molkky workers: %w", err))
	}
	return errors.Join(errs...)
}
