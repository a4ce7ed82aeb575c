// File: server/server.go
// Package server implements a single-threaded, readiness-driven TCP relay:
// bytes read from one client are written to every other client.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package server

import (
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"

	"github.com/momentics/hioload-relay/api"
	"github.com/momentics/hioload-relay/control"
	"github.com/momentics/hioload-relay/internal/transport"
	"github.com/momentics/hioload-relay/pool"
	"github.com/momentics/hioload-relay/reactor"
	"go.uber.org/zap"
)

// ErrAlreadyRunning is returned by Run while another Run is in progress.
var ErrAlreadyRunning = errors.New("server already running")

// Server owns the listener, the reactor and the slot table. Everything but
// Shutdown and the read-only accessors must be used from the goroutine
// that calls Run.
type Server struct {
	cfg      Config
	log      *zap.Logger
	metrics  *control.Metrics
	probes   *control.DebugProbes
	reactor  reactor.Reactor
	waker    *reactor.Waker
	listener *transport.Listener
	slots    *pool.Slab[*slot]
	bufs     *pool.BytePool
	batch    *reactor.Batch

	listenerToken api.Token
	wakerToken    api.Token

	state     atomic.Int32
	active    atomic.Int64
	running   atomic.Bool
	stopping  atomic.Bool
	closed    atomic.Bool
	closeOnce sync.Once
	wakeMu    sync.Mutex // orders Shutdown's eventfd write against Close
}

// NewServer binds the listener and registers it with the reactor.
func NewServer(cfg Config, opts ...ServerOption) (*Server, error) {
	s := &Server{
		cfg:   cfg,
		log:   zap.NewNop(),
		batch: reactor.NewBatch(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.cfg.Validate(); err != nil {
		return nil, err
	}
	if s.metrics == nil {
		s.metrics = control.NewMetrics()
	}

	// Reserved tokens sit just above the client range.
	s.listenerToken = api.Token(s.cfg.MaxClients)
	s.wakerToken = api.Token(s.cfg.MaxClients + 1)

	slots, err := pool.NewSlab[*slot](s.cfg.MaxClients)
	if err != nil {
		return nil, err
	}
	s.slots = slots
	s.bufs = pool.NewBytePool(s.cfg.BufferSize)

	if err := s.open(); err != nil {
		s.release()
		return nil, err
	}

	if s.probes != nil {
		s.registerProbes(s.probes)
	}
	s.log.Info("relay listening",
		zap.Stringer("addr", s.Addr()),
		zap.Int("max_clients", s.cfg.MaxClients),
		zap.Bool("isolate_faults", s.cfg.IsolateFaults))
	return s, nil
}

func (s *Server) open() error {
	if s.reactor == nil {
		r, err := reactor.New(s.cfg.MaxEvents)
		if err != nil {
			return err
		}
		s.reactor = r
	}

	ln, err := transport.Listen(s.cfg.Host, int(s.cfg.Port))
	if err != nil {
		return err
	}
	s.listener = ln
	if err := s.reactor.Register(ln.Fd(), s.listenerToken, api.Readable); err != nil {
		return fmt.Errorf("register listener: %w", err)
	}

	w, err := reactor.NewWaker()
	if err != nil {
		return err
	}
	s.waker = w
	if err := s.reactor.Register(w.Fd(), s.wakerToken, api.Readable); err != nil {
		return fmt.Errorf("register waker: %w", err)
	}
	return nil
}

func (s *Server) registerProbes(dp *control.DebugProbes) {
	dp.RegisterProbe("relay.active", func() any { return s.ActiveConnections() })
	dp.RegisterProbe("relay.capacity", func() any { return s.slots.Cap() })
	dp.RegisterProbe("relay.state", func() any { return s.State().String() })
	dp.RegisterProbe("relay.addr", func() any { return s.Addr().String() })
}

// Addr returns the bound listener address.
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return &net.TCPAddr{}
	}
	return s.listener.Addr()
}

// Config returns the effective configuration.
func (s *Server) Config() Config { return s.cfg }

// Metrics returns the collectors the server updates.
func (s *Server) Metrics() *control.Metrics { return s.metrics }

// ActiveConnections is safe to call from any goroutine.
func (s *Server) ActiveConnections() int { return int(s.active.Load()) }

// State is safe to call from any goroutine.
func (s *Server) State() LoopState { return LoopState(s.state.Load()) }

func (s *Server) setState(st LoopState) { s.state.Store(int32(st)) }

// Shutdown asks Run to return after the batch in progress. It is safe to
// call from any goroutine and more than once.
func (s *Server) Shutdown() {
	s.wakeMu.Lock()
	defer s.wakeMu.Unlock()
	if s.closed.Load() || s.stopping.Swap(true) {
		return
	}
	if s.waker != nil {
		if err := s.waker.Wake(); err != nil {
			s.log.Warn("wake event loop", zap.Error(err))
		}
	}
}

// Close releases every connection, the listener and the reactor. Run calls
// it on return; call it directly only for a server that never ran.
func (s *Server) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.wakeMu.Lock()
		s.stopping.Store(true)
		s.closed.Store(true)
		s.wakeMu.Unlock()

		s.setState(LoopStopped)
		err = s.release()
	})
	return err
}

func (s *Server) release() error {
	var errs []error
	if s.slots != nil {
		var toks []api.Token
		s.slots.Range(func(tok api.Token, sl *slot) bool {
			toks = append(toks, tok)
			return true
		})
		for _, tok := range toks {
			sl, _ := s.slots.Remove(tok)
			if err := sl.conn.Close(); err != nil {
				errs = append(errs, err)
			}
			s.bufs.PutBuffer(sl.buf)
			s.active.Add(-1)
			s.metrics.Active.Dec()
		}
	}
	if s.listener != nil {
		if err := s.listener.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if s.waker != nil {
		if err := s.waker.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if s.reactor != nil {
		if err := s.reactor.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
