package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/thejerf/suture/v4"

	"library-catalog/logging"
)

// HTTPServer is the part of *http.Server the service drives.
type HTTPServer interface {
	ListenAndServe() error
	Shutdown(ctx context.Context) error
}

// HTTPServerService runs an HTTP server under a suture supervisor.
type HTTPServerService struct {
	server          HTTPServer
	shutdownTimeout time.Duration
}

func NewHTTPServerService(server HTTPServer, shutdownTimeout time.Duration) *HTTPServerService {
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	return &HTTPServerService{server: server, shutdownTimeout: shutdownTimeout}
}

// Serve blocks until ctx is cancelled or the listener fails. A clean
// shutdown returns ctx.Err() so the supervisor does not restart it.
func (h *HTTPServerService) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		if err := h.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), h.shutdownTimeout)
		defer cancel()
		if err := h.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http server shutdown failed: %w", err)
		}
		<-errCh
		return ctx.Err()
	}
}

func (h *HTTPServerService) String() string { return "http-server" }

// NewSupervisor returns a root supervisor that logs its events through
// zerolog.
func NewSupervisor(name string, shutdownTimeout time.Duration) *suture.Supervisor {
	return suture.New(name, suture.Spec{
		EventHook: func(ev suture.Event) {
			logging.Warn().Str("supervisor", name).Fields(ev.Map()).Msg(ev.String())
		},
		FailureThreshold: 5,
		FailureDecay:     30,
		FailureBackoff:   15 * time.Second,
		Timeout:          shutdownTimeout,
	})
}

// ListenAndServe builds the http.Server for addr and runs it under a
// supervisor until ctx is done.
func ListenAndServe(ctx context.Context, addr string, handler http.Handler, readTimeout, writeTimeout, shutdownTimeout time.Duration) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadTimeout:       readTimeout,
		ReadHeaderTimeout: readTimeout,
		WriteTimeout:      writeTimeout,
	}
	sup := NewSupervisor("library", shutdownTimeout)
	sup.Add(NewHTTPServerService(srv, shutdownTimeout))
	logging.Info().Str("addr", addr).Msg("http mirror listening")

	err := sup.Serve(ctx)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	return err
}
