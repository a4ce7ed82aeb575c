// File: server/run.go
// Package server implements the event loop: poll, then dispatch every ready
// token to accept or relay handling, forever.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package server

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/momentics/hioload-relay/affinity"
	"github.com/momentics/hioload-relay/api"
	"github.com/momentics/hioload-relay/reactor"
	"go.uber.org/zap"
)

// Run drives the event loop on the calling goroutine. It returns nil after
// Shutdown or ctx cancellation, and a fatal error otherwise. Either way the
// server is closed when Run returns.
func (s *Server) Run(ctx context.Context) error {
	if s.closed.Load() {
		return api.ErrServerClosed
	}
	if !s.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer s.Close()

	unpin, err := affinity.Pin(s.cfg.CPU)
	if err != nil {
		return err
	}
	defer unpin()

	stop := context.AfterFunc(ctx, s.Shutdown)
	defer stop()

	for {
		if err := s.step(reactor.NoTimeout); err != nil {
			s.log.Debug("event loop stopped", zap.Error(err))
			return err
		}
		if s.stopping.Load() {
			s.log.Info("event loop shut down")
			return nil
		}
	}
}

// step polls once and dispatches the whole batch in kernel order.
func (s *Server) step(timeout time.Duration) error {
	s.setState(LoopIdle)
	if err := s.reactor.Poll(s.batch, timeout); err != nil {
		return api.Fatal(api.ErrPoll, err).WithContext("op", "poll")
	}

	s.setState(LoopDispatching)
	for {
		ev, ok := s.batch.Pop()
		if !ok {
			return nil
		}
		if err := s.dispatch(ev); err != nil {
			s.batch.Reset()
			return err
		}
	}
}

func (s *Server) dispatch(ev api.Event) error {
	switch {
	case ev.Token == s.listenerToken:
		return s.handleAccept()
	case ev.Token == s.wakerToken:
		if err := s.waker.Drain(); err != nil && !errors.Is(err, api.ErrWouldBlock) {
			s.log.Warn("drain waker", zap.Error(err))
		}
		return nil
	case ev.Token >= 0 && int(ev.Token) < s.cfg.MaxClients:
		return s.handleReadable(ev.Token)
	default:
		return api.Fatal(api.ErrUnknownToken, fmt.Errorf("token %d out of range", ev.Token)).
			WithContext("op", "dispatch")
	}
}
