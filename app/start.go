package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

const shutdownTimeout = 15 * time.Second

// Run starts the event router, the modules and the HTTP server, then blocks
// until ctx is cancelled and shuts everything down.
func (app *App) Run(ctx context.Context) error {
	routerErr := make(chan error, 1)
	go func() {
		routerErr <- app.Router.Run(ctx)
	}()
	select {
	case <-app.Router.Running():
	case err := <-routerErr:
		return fmt.Errorf("watermill router stopped during startup: %w", err)
	}

	app.Modules.RunAll(ctx)

	srv := &http.Server{
		Addr:         app.Config.HTTP.Addr,
		Handler:      app.HTTPHandler,
		ReadTimeout:  app.Config.HTTP.ReadTimeout,
		WriteTimeout: app.Config.HTTP.WriteTimeout,
	}
	serveErr := make(chan error, 1)
	go func() {
		app.logger.InfoContext(ctx, "HTTP server listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	var runErr error
	select {
	case <-ctx.Done():
		app.logger.Info("Shutting down application...")
	case err := <-serveErr:
		runErr = fmt.Errorf("http server failed: %w", err)
	case err := <-routerErr:
		if err != nil {
			runErr = fmt.Errorf("watermill router failed: %w", err)
		}
	}

	return errors.Join(runErr, app.shutdown(srv))
}

func (app *App) shutdown(srv *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var errs []error
	if err := srv.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("http shutdown: %w", err))
	}
	if err := app.Modules.CloseAll(); err != nil {
		errs = append(errs, err)
	}
	app.Modules.Wait()
	if err := app.Router.Close(); err != nil {
		errs = append(errs, fmt.Errorf("router close: %w", err))
	}
	app.closeInfra()
	if err := app.Observability.Shutdown(ctx); err != nil {
		errs = append(errs, err)
	}

	app.logger.Info("Application shut down")
	return errors.Join(errs...)
}
