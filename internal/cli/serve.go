package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	httpadapter "github.com/aretw0/espalier/pkg/adapters/http"
	"github.com/aretw0/espalier/pkg/adapters/mcp"
)

// NewHTTPHandler builds the REST handler for app.
func NewHTTPHandler(app *App) (http.Handler, error) {
	opts := []httpadapter.Option{
		httpadapter.WithLogger(app.Logger),
		httpadapter.WithMetricsHandler(app.Metrics.Handler()),
		httpadapter.WithMaxTopicLength(app.Config.Server.MaxTopicLength),
	}
	if app.Runs != nil {
		opts = append(opts, httpadapter.WithRunManager(app.Runs))
	}
	return httpadapter.NewHandler(app.Service, opts...)
}

// Serve runs the HTTP server until ctx is cancelled, then shuts down
// gracefully within the configured timeout.
func Serve(ctx context.Context, app *App) error {
	handler, err := NewHTTPHandler(app)
	if err != nil {
		return err
	}

	cfg := app.Config.Server
	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      handler,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	serverErrors := make(chan error, 1)
	go func() {
		app.Logger.Info("HTTP server listening", "addr", srv.Addr, "store", app.Config.Store.Backend)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	app.Logger.Info("shutting down", "timeout", cfg.ShutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		app.Logger.Warn("graceful shutdown did not complete", "err", err)
		if err := srv.Close(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	}
	app.Logger.Info("server stopped")
	return nil
}

// ServeMCP exposes the research service over MCP on stdio.
func ServeMCP(app *App) error {
	srv := mcp.NewServer(app.Service,
		mcp.WithLogger(app.Logger),
		mcp.WithMaxTopicLength(app.Config.Server.MaxTopicLength),
	)
	app.Logger.Info("MCP server starting", "transport", "stdio")
	return srv.ServeStdio()
}
