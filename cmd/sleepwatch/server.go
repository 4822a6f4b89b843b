package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"
)

const readHeaderTimeout = 5 * time.Second

// startHTTPServer blocks serving router until ctx is cancelled or serving
// fails. On cancellation it drains in-flight requests for up to
// shutdownTimeout.
func (app *application) startHTTPServer(ctx context.Context, router http.Handler) error {
	ln, err := net.Listen("tcp", ":"+strconv.Itoa(app.config.Server.Port))
	if err != nil {
		return fmt.Errorf("listen on port %d: %w", app.config.Server.Port, err)
	}

	srv := &http.Server{
		Handler:           router,
		ReadHeaderTimeout: readHeaderTimeout,
		BaseContext:       func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	serveErr := make(chan error, 1)
	go func() { serveErr <- srv.Serve(ln) }()
	app.logger.Info("http server listening", "addr", ln.Addr().String())

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			app.logger.Error("http server stopped unexpectedly", "error", err)
			return err
		}
		return nil
	case <-ctx.Done():
	}

	app.logger.Info("http server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	app.logger.Info("http server stopped")
	return nil
}
