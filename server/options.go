// File: server/options.go
// Package server defines functional options for the relay Server.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package server

import (
	"github.com/momentics/hioload-relay/control"
	"github.com/momentics/hioload-relay/reactor"
	"go.uber.org/zap"
)

// ServerOption customizes server initialization.
type ServerOption func(*Server)

// WithLogger sets the structured logger. The default discards everything.
func WithLogger(log *zap.Logger) ServerOption {
	return func(s *Server) {
		if log != nil {
			s.log = log
		}
	}
}

// WithMetrics shares a metrics set, e.g. one already served over HTTP.
func WithMetrics(m *control.Metrics) ServerOption {
	return func(s *Server) {
		s.metrics = m
	}
}

// WithDebugProbes registers the server's probes on dp.
func WithDebugProbes(dp *control.DebugProbes) ServerOption {
	return func(s *Server) {
		s.probes = dp
	}
}

// WithReactor replaces the platform reactor.
func WithReactor(r reactor.Reactor) ServerOption {
	return func(s *Server) {
		s.reactor = r
	}
}

// WithMaxClients overrides the connection cap.
func WithMaxClients(n int) ServerOption {
	return func(s *Server) {
		s.cfg.MaxClients = n
	}
}

// WithStrictErrors makes any non end-of-stream read error fatal to the
// whole server instead of closing just the offending connection.
func WithStrictErrors() ServerOption {
	return func(s *Server) {
		s.cfg.IsolateFaults = false
	}
}

// WithCPU pins the goroutine running the event loop to one CPU.
func WithCPU(cpu int) ServerOption {
	return func(s *Server) {
		s.cfg.CPU = cpu
	}
}
