package app

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"
)

const defaultShutdownTimeout = 10 * time.Second

// Start serves HTTP in the background. The returned channel closes once a
// termination signal arrives or the listener fails; check Err afterwards.
func (a *App) Start() <-chan struct{} {
	done := make(chan struct{})
	ctx, stop := signal.NotifyContext(a.ctx, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)

	go func() {
		slog.Info("http server listening", "address", a.httpServer.Addr)
		if err := a.httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			slog.Error("failed to listen and serve http server", "error", err)
			a.serveErr = err
			a.cancel()
		}
	}()

	go func() {
		defer stop()
		<-ctx.Done()
		slog.Info("shutting down", "cause", context.Cause(ctx))
		close(done)
	}()

	return done
}

// Serve runs the HTTP server on l. Used by tests that bind their own port.
func (a *App) Serve(l net.Listener) <-chan error {
	errChan := make(chan error, 1)
	go func() {
		defer close(errChan)
		errChan <- a.httpServer.Serve(l)
	}()
	return errChan
}

// Err reports why Start returned if it was not a signal.
func (a *App) Err() error {
	return a.serveErr
}

// ShutdownTimeout is the budget main gives Stop.
func (a *App) ShutdownTimeout() time.Duration {
	if d := a.config.GetSecond("app.server.http.shutdown_timeout_seconds"); d > 0 {
		return d
	}
	return defaultShutdownTimeout
}

// Stop drains in-flight requests, waits for background tasks and releases
// resources in reverse registration order.
func (a *App) Stop(ctx context.Context) {
	a.cancel()

	if err := a.httpServer.Shutdown(ctx); err != nil {
		slog.ErrorContext(ctx, "failed to close resources", "name", "HTTP Server", "error", err)
	}

	if err := a.goroutine.Wait(); err != nil {
		slog.ErrorContext(ctx, "background tasks finished with errors", "error", err)
	}
	if n := a.goroutine.Dropped(); n > 0 {
		slog.WarnContext(ctx, "background tasks were dropped at capacity", "count", n)
	}

	for _, c := range slices.Backward(a.closers) {
		if err := c.fn(ctx); err != nil {
			slog.ErrorContext(ctx, "failed to close resources", "name", c.name, "error", err)
		}
	}
	slog.InfoContext(ctx, "application stopped")
}
