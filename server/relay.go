// File: server/relay.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package server

import (
	"errors"

	"github.com/momentics/hioload-relay/api"
	"go.uber.org/zap"
)

// handleReadable reads whatever is available on tok and relays exactly the
// bytes just read to every other client.
func (s *Server) handleReadable(tok api.Token) error {
	sl, err := s.slots.Get(tok)
	if err != nil {
		return api.Fatal(api.ErrUnknownToken, err).WithContext("op", "read")
	}

	n, err := sl.conn.Read(sl.buf[sl.used:])
	switch {
	case errors.Is(err, api.ErrWouldBlock):
		return nil
	case err != nil:
		if !s.cfg.IsolateFaults {
			return api.Fatal(api.ErrRead, err).
				WithContext("token", int(tok)).
				WithContext("session", sl.session.String())
		}
		s.log.Warn("read failed, closing client",
			zap.Int("token", int(tok)),
			zap.String("session", sl.session.String()),
			zap.Error(err))
		s.closeSlot(tok, sl)
		return nil
	case n == 0:
		s.log.Info("client disconnected",
			zap.Int("token", int(tok)),
			zap.String("session", sl.session.String()),
			zap.Uint64("messages", sl.messages))
		s.closeSlot(tok, sl)
		return nil
	}

	msg := sl.buf[sl.used : sl.used+n]
	sl.messages++
	s.metrics.BytesReceived.Add(float64(n))
	s.log.Debug("relaying chunk",
		zap.Int("token", int(tok)),
		zap.Int("bytes", n),
		zap.Uint64("seq", sl.messages))

	s.broadcast(tok, msg)
	sl.used = 0
	return nil
}

// broadcast writes msg once to every active slot except sender. A failed or
// short write skips that peer for this chunk only.
func (s *Server) broadcast(sender api.Token, msg []byte) {
	fanout := 0
	s.slots.Range(func(tok api.Token, peer *slot) bool {
		if tok == sender {
			return true
		}
		fanout++

		n, err := peer.conn.Write(msg)
		if n > 0 {
			s.metrics.BytesRelayed.Add(float64(n))
		}
		switch {
		case err != nil:
			s.metrics.WriteFailures.Inc()
			s.log.Warn("relay write failed",
				zap.Int("from", int(sender)),
				zap.Int("to", int(tok)),
				zap.String("session", peer.session.String()),
				zap.Error(err))
		case n < len(msg):
			s.metrics.WriteFailures.Inc()
			s.log.Warn("relay write short",
				zap.Int("from", int(sender)),
				zap.Int("to", int(tok)),
				zap.String("session", peer.session.String()),
				zap.Int("written", n),
				zap.Int("len", len(msg)))
		}
		return true
	})
	s.metrics.Fanout.Observe(float64(fanout))
}

// closeSlot deregisters before the slot is removed, so the token cannot be
// handed out again while the reactor still knows it.
func (s *Server) closeSlot(tok api.Token, sl *slot) {
	if err := s.reactor.Deregister(tok); err != nil {
		s.log.Warn("deregister failed", zap.Int("token", int(tok)), zap.Error(err))
	}
	if err := sl.conn.Close(); err != nil {
		s.log.Warn("close failed", zap.Int("token", int(tok)), zap.Error(err))
	}
	if _, err := s.slots.Remove(tok); err != nil {
		s.log.Error("slot already released", zap.Int("token", int(tok)), zap.Error(err))
	}
	s.bufs.PutBuffer(sl.buf)
	s.active.Add(-1)
	s.metrics.Closed.Inc()
	s.metrics.Active.Dec()
}
