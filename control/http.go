// control/http.go
// Author: momentics <momentics@gmail.com>
//
// HTTP exposition of metrics and debug probes.

package control

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// NewMux routes /metrics and /debug/probes.
func NewMux(m *Metrics, probes *DebugProbes) *http.ServeMux {
	mux := http.NewServeMux()
	if m != nil {
		mux.Handle("/metrics", m.Handler())
	}
	if probes != nil {
		mux.Handle("/debug/probes", probes)
	}
	return mux
}

// ServeMetrics listens on addr and serves NewMux until ctx is done.
// An empty addr disables the endpoint and returns immediately.
func ServeMetrics(ctx context.Context, addr string, m *Metrics, probes *DebugProbes, log *zap.Logger) error {
	if addr == "" {
		return nil
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("metrics listen %s: %w", addr, err)
	}
	return Serve(ctx, ln, m, probes, log)
}

// Serve is ServeMetrics on an existing listener.
func Serve(ctx context.Context, ln net.Listener, m *Metrics, probes *DebugProbes, log *zap.Logger) error {
	if log == nil {
		log = zap.NewNop()
	}
	srv := &http.Server{
		Handler:           NewMux(m, probes),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()
	log.Info("metrics endpoint listening", zap.String("addr", ln.Addr().String()))

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("metrics serve: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("metrics shutdown: %w", err)
		}
		return nil
	}
}
