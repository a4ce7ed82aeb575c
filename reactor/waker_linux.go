//go:build linux
// +build linux

// File: reactor/waker_linux.go
// Author: momentics <momentics@gmail.com>
//
// eventfd-backed waker used to interrupt a blocked Poll from another goroutine.

package reactor

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/momentics/hioload-relay/api"
	"golang.org/x/sys/unix"
)

// Waker makes its registered token readable on demand. Wake may run on any
// goroutine but must not race Close.
type Waker struct {
	fd int
}

// NewWaker creates a non-blocking eventfd.
func NewWaker() (*Waker, error) {
	fd, err := unix.Eventfd(0, unix.EFD_NONBLOCK|unix.EFD_CLOEXEC)
	if err != nil {
		return nil, fmt.Errorf("eventfd: %w", err)
	}
	return &Waker{fd: fd}, nil
}

// Fd returns the descriptor to register with a Reactor.
func (w *Waker) Fd() int { return w.fd }

// Wake bumps the eventfd counter. After Close it fails with EBADF and
// writes nothing.
func (w *Waker) Wake() error {
	if w.fd < 0 {
		return fmt.Errorf("eventfd write: %w", unix.EBADF)
	}
	var b [8]byte
	binary.NativeEndian.PutUint64(b[:], 1)
	if _, err := unix.Write(w.fd, b[:]); err != nil && !errors.Is(err, unix.EAGAIN) {
		return fmt.Errorf("eventfd write: %w", err)
	}
	return nil
}

// Drain resets the counter so the token stops being readable.
func (w *Waker) Drain() error {
	if w.fd < 0 {
		return fmt.Errorf("eventfd read: %w", unix.EBADF)
	}
	var b [8]byte
	if _, err := unix.Read(w.fd, b[:]); err != nil {
		if errors.Is(err, unix.EAGAIN) {
			return api.ErrWouldBlock
		}
		return fmt.Errorf("eventfd read: %w", err)
	}
	return nil
}

// Close releases the eventfd. Later calls are no-ops.
func (w *Waker) Close() error {
	if w.fd < 0 {
		return nil
	}
	fd := w.fd
	w.fd = -1
	return unix.Close(fd)
}
