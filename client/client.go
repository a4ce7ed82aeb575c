// File: client/client.go
// Package client provides a load generator for the relay: it writes one
// newline-terminated message whole and in randomly sized, randomly delayed
// chunks, and checks that every line relayed back to it is intact.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package client

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"net"
	"strings"
	"sync/atomic"
	"time"

	"github.com/momentics/hioload-relay/api"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DefaultMessage is the line sent when Config.Message is empty.
const DefaultMessage = "Hello World, the relay was here!\n"

// ErrClosed is reported when the relay ends the connection first.
var ErrClosed = errors.New("relay closed the connection")

// Config holds the generator's traffic shape.
type Config struct {
	Addr         string        // relay host:port
	Message      string        // newline-terminated line to send
	WholeCount   int           // unsplit writes per round
	ChunkCount   int           // chunked writes per round
	MaxDelay     time.Duration // upper bound of the pause after each chunk
	Loop         bool          // repeat rounds until the context ends
	DrainTimeout time.Duration // how long to keep reading after the last write
}

// DefaultConfig mirrors the classic relay stress client.
func DefaultConfig() Config {
	return Config{
		Addr:         "127.0.0.1:2138",
		Message:      DefaultMessage,
		WholeCount:   100,
		ChunkCount:   100,
		MaxDelay:     time.Second,
		DrainTimeout: 2 * time.Second,
	}
}

// Validate checks the traffic shape.
func (c Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("addr is empty: %w", api.ErrInvalidArgument)
	case c.Message == "" || !strings.HasSuffix(c.Message, "\n"):
		return fmt.Errorf("message must end with a newline: %w", api.ErrInvalidArgument)
	case strings.Count(c.Message, "\n") != 1:
		return fmt.Errorf("message must be a single line: %w", api.ErrInvalidArgument)
	case c.WholeCount < 0 || c.ChunkCount < 0:
		return fmt.Errorf("negative message count: %w", api.ErrInvalidArgument)
	case c.MaxDelay < 0 || c.DrainTimeout < 0:
		return fmt.Errorf("negative duration: %w", api.ErrInvalidArgument)
	}
	return nil
}

// Stats is a snapshot of the generator's counters.
type Stats struct {
	Sent       uint64 // complete messages written
	Received   uint64 // complete lines read
	Mismatched uint64 // lines that differ from Message
}

// Option customizes a Generator.
type Option func(*Generator)

// WithLogger sets the structured logger. The default discards everything.
func WithLogger(log *zap.Logger) Option {
	return func(g *Generator) {
		if log != nil {
			g.log = log
		}
	}
}

// WithDialer replaces the dialer used to reach the relay.
func WithDialer(d *net.Dialer) Option {
	return func(g *Generator) {
		if d != nil {
			g.dialer = d
		}
	}
}

// WithRand fixes the chunking and delay source, e.g. for reproducible runs.
func WithRand(r *rand.Rand) Option {
	return func(g *Generator) {
		if r != nil {
			g.rng = r
		}
	}
}

// Generator drives one connection. Run may be called once.
type Generator struct {
	cfg    Config
	log    *zap.Logger
	dialer *net.Dialer
	rng    *rand.Rand

	sent       atomic.Uint64
	received   atomic.Uint64
	mismatched atomic.Uint64
}

// NewGenerator validates cfg and applies opts.
func NewGenerator(cfg Config, opts ...Option) (*Generator, error) {
	if cfg.Message == "" {
		cfg.Message = DefaultMessage
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	g := &Generator{
		cfg:    cfg,
		log:    zap.NewNop(),
		dialer: &net.Dialer{Timeout: 5 * time.Second},
		rng:    rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// Stats is safe to call while Run is in progress.
func (g *Generator) Stats() Stats {
	return Stats{
		Sent:       g.sent.Load(),
		Received:   g.received.Load(),
		Mismatched: g.mismatched.Load(),
	}
}

// Run connects, sends the configured rounds and reads relayed lines until
// the writer is done and DrainTimeout has passed, or ctx ends. Ending by
// ctx is not an error.
func (g *Generator) Run(ctx context.Context) error {
	conn, err := g.dialer.DialContext(ctx, "tcp", g.cfg.Addr)
	if err != nil {
		return fmt.Errorf("dial %s: %w", g.cfg.Addr, err)
	}
	defer conn.Close()
	g.log.Info("connected", zap.String("addr", g.cfg.Addr), zap.Stringer("local", conn.LocalAddr()))

	eg, egctx := errgroup.WithContext(ctx)
	written := make(chan struct{})

	eg.Go(func() error {
		defer close(written)
		return g.write(egctx, conn)
	})
	eg.Go(func() error {
		return g.read(conn)
	})
	// Unblocks the reader once there is nothing left to wait for.
	eg.Go(func() error {
		select {
		case <-egctx.Done():
		case <-written:
			t := time.NewTimer(g.cfg.DrainTimeout)
			defer t.Stop()
			select {
			case <-t.C:
			case <-egctx.Done():
			}
		}
		return conn.SetDeadline(time.Now())
	})

	err = eg.Wait()
	st := g.Stats()
	g.log.Info("run finished",
		zap.Uint64("sent", st.Sent),
		zap.Uint64("received", st.Received),
		zap.Uint64("mismatched", st.Mismatched),
		zap.Error(err))
	if ctx.Err() != nil && !errors.Is(err, ErrClosed) {
		return nil
	}
	return err
}

func (g *Generator) write(ctx context.Context, conn net.Conn) error {
	msg := []byte(g.cfg.Message)
	for {
		for i := 0; i < g.cfg.WholeCount; i++ {
			if ctx.Err() != nil {
				return nil
			}
			if _, err := conn.Write(msg); err != nil {
				return writeErr(ctx, err)
			}
			g.sent.Add(1)
		}

		for i := 0; i < g.cfg.ChunkCount; i++ {
			for _, chunk := range Split(msg, g.rng) {
				if ctx.Err() != nil {
					return nil
				}
				if _, err := conn.Write(chunk); err != nil {
					return writeErr(ctx, err)
				}
				if !g.pause(ctx) {
					return nil
				}
			}
			g.sent.Add(1)
		}

		if !g.cfg.Loop || g.cfg.WholeCount+g.cfg.ChunkCount == 0 {
			return nil
		}
	}
}

// pause sleeps a random duration in [0, MaxDelay] and reports whether ctx
// is still live.
func (g *Generator) pause(ctx context.Context) bool {
	if g.cfg.MaxDelay <= 0 {
		return ctx.Err() == nil
	}
	d := time.Duration(g.rng.Int64N(int64(g.cfg.MaxDelay) + 1))
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}

// writeErr hides the error a deadline-forced shutdown produces.
func writeErr(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return nil
	}
	return fmt.Errorf("write: %w", err)
}
