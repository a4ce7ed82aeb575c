// File: server/accept.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package server

import (
	"errors"

	"github.com/momentics/hioload-relay/api"
	"github.com/momentics/hioload-relay/internal/transport"
	"go.uber.org/zap"
)

// handleAccept takes at most one pending connection; level-triggered
// readiness brings the loop back for the rest.
func (s *Server) handleAccept() error {
	conn, err := s.listener.Accept()
	if err != nil {
		if errors.Is(err, api.ErrWouldBlock) {
			s.log.Debug("spurious accept wakeup", zap.Error(err))
			return nil
		}
		return api.Fatal(api.ErrAccept, err).WithContext("op", "accept")
	}

	if s.slots.Full() {
		s.reject(conn)
		return nil
	}

	sl := newSlot(conn, s.bufs.GetBuffer())
	tok, err := s.slots.Allocate(sl)
	if err != nil {
		s.bufs.PutBuffer(sl.buf)
		conn.Close()
		return api.Fatal(api.ErrAccept, err).WithContext("op", "allocate")
	}

	if err := s.reactor.Register(conn.Fd(), tok, api.Readable); err != nil {
		_, _ = s.slots.Remove(tok)
		s.bufs.PutBuffer(sl.buf)
		conn.Close()
		return err
	}

	s.active.Add(1)
	s.metrics.Accepted.Inc()
	s.metrics.Active.Inc()
	s.log.Info("client connected",
		zap.Int("token", int(tok)),
		zap.String("session", sl.session.String()),
		zap.String("peer", conn.RemoteAddr()),
		zap.Int("fd", conn.Fd()),
		zap.Int("active", s.slots.Len()))
	return nil
}

// reject tells a connection over capacity why it is being dropped. The
// single non-blocking write is best-effort.
func (s *Server) reject(conn *transport.Conn) {
	defer conn.Close()
	s.metrics.Rejected.Inc()

	msg := []byte(s.cfg.RejectMessage)
	n, err := conn.Write(msg)
	fields := []zap.Field{
		zap.String("peer", conn.RemoteAddr()),
		zap.Int("max_clients", s.cfg.MaxClients),
	}
	switch {
	case err != nil:
		fields = append(fields, zap.Error(err))
	case n < len(msg):
		fields = append(fields, zap.Int("written", n), zap.Int("len", len(msg)))
	}
	s.log.Warn("client rejected: capacity exceeded", fields...)
}
