//go:build !linux
// +build !linux

// File: reactor/reactor_stub.go
// Author: momentics <momentics@gmail.com>
//
// Stub implementation for unsupported platforms.

package reactor

import "github.com/momentics/hioload-relay/api"

// New returns an error for unsupported platforms.
func New(int) (Reactor, error) {
	return nil, api.Unsupported("epoll reactor")
}

// Waker is unavailable without eventfd.
type Waker struct{}

// NewWaker returns an error for unsupported platforms.
func NewWaker() (*Waker, error) {
	return nil, api.Unsupported("eventfd waker")
}

func (w *Waker) Fd() int      { return -1 }
func (w *Waker) Wake() error  { return api.ErrNotSupported }
func (w *Waker) Drain() error { return api.ErrNotSupported }
func (w *Waker) Close() error { return nil }
