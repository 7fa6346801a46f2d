package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/aretw0/concierge"
	httpadapter "github.com/aretw0/concierge/pkg/adapters/http"
	"github.com/aretw0/concierge/pkg/adapters/mcp"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// shutdownTimeout bounds how long outstanding requests may take on exit.
const shutdownTimeout = 5 * time.Second

// NewHTTPHandler builds the REST API of app, with /metrics served from its registry.
func NewHTTPHandler(app *App) (http.Handler, error) {
	return httpadapter.NewHandler(app.Engine,
		httpadapter.WithLogger(app.Logger),
		httpadapter.WithAllowedOrigins(app.Config.AllowedOrigins...),
		httpadapter.WithMetricsHandler(promhttp.HandlerFor(app.Registry, promhttp.HandlerOpts{Registry: app.Registry})),
		httpadapter.WithVersion(concierge.Version),
	)
}

// Serve runs the HTTP API on addr until ctx is done, then shuts down gracefully.
func Serve(ctx context.Context, app *App, addr string) error {
	handler, err := NewHTTPHandler(app)
	if err != nil {
		return err
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	if app.Config.SessionTTL > 0 {
		app.Engine.StartReaper(ctx, app.Config.ReapInterval)
	}

	serverErrors := make(chan error, 1)
	go func() {
		app.Logger.Info("HTTP server listening", "address", addr, "forms", app.Catalog.Len())
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		app.Logger.Info("shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			app.Logger.Warn("graceful shutdown did not complete", "timeout", shutdownTimeout, "err", err)
			return srv.Close()
		}
		app.Logger.Info("HTTP server stopped gracefully")
		return nil
	}
}

// ServeMCP exposes app as an MCP server over stdio, or over SSE when addr is set.
func ServeMCP(ctx context.Context, app *App, addr, baseURL string) error {
	srv := mcp.NewServer(app.Engine, concierge.Version, mcp.WithLogger(app.Logger))
	if app.Config.SessionTTL > 0 {
		app.Engine.StartReaper(ctx, app.Config.ReapInterval)
	}
	if addr == "" {
		app.Logger.Info("starting MCP server (stdio)")
		return srv.ServeStdio()
	}
	if baseURL == "" {
		baseURL = "http://localhost" + addr
	}
	err := srv.ServeSSE(ctx, addr, baseURL)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
