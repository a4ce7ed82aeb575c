//go:build linux
// +build linux

// File: reactor/reactor_linux.go
// Author: momentics <momentics@gmail.com>
//
// Linux epoll(7)-based reactor implementation and factory.

package reactor

import (
	"errors"
	"fmt"
	"time"

	"github.com/momentics/hioload-relay/api"
	"golang.org/x/sys/unix"
)

// linuxReactor is a level-triggered epoll reactor.
type linuxReactor struct {
	epfd   int
	regs   map[api.Token]int // token -> fd, for EPOLL_CTL_DEL only
	events []unix.EpollEvent
}

// New constructs the epoll reactor. maxEvents bounds one Poll call.
func New(maxEvents int) (Reactor, error) {
	if maxEvents <= 0 {
		maxEvents = DefaultMaxEvents
	}
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, fmt.Errorf("epoll create: %w", err)
	}
	return &linuxReactor{
		epfd:   epfd,
		regs:   make(map[api.Token]int),
		events: make([]unix.EpollEvent, maxEvents),
	}, nil
}

// Register adds fd to the epoll interest list under tok.
func (r *linuxReactor) Register(fd int, tok api.Token, interest api.Interest) error {
	if _, dup := r.regs[tok]; dup {
		return api.Fatal(api.ErrRegistration, unix.EEXIST).WithContext("token", int(tok))
	}
	var ev unix.EpollEvent
	if interest&api.Readable != 0 {
		ev.Events |= unix.EPOLLIN | unix.EPOLLRDHUP
	}
	if interest&api.Writable != 0 {
		ev.Events |= unix.EPOLLOUT
	}
	ev.Fd = int32(tok)

	if err := unix.EpollCtl(r.epfd, unix.EPOLL_CTL_ADD, fd, &ev); err != nil {
		return api.Fatal(api.ErrRegistration, err).
			WithContext("token", int(tok)).
			WithContext("fd", fd)
	}
	r.regs[tok] = fd
	return nil
}

// Deregister removes the descriptor registered under tok.
func (r *linuxReactor) Deregister(tok api.Token) error {
	fd, ok := r.regs[tok]
	if !ok {
		return fmt.Errorf("deregister token %d: %w", tok, api.ErrUnknownToken)
	}
	delete(r.regs, tok)
	if err := unix.EpollCtl(r.epfd, unix.EPOLL_CTL_DEL, fd, nil); err != nil {
		return fmt.Errorf("epoll ctl del token %d: %w", tok, err)
	}
	return nil
}

// Poll waits for events. timeout < 0 blocks without bound.
func (r *linuxReactor) Poll(batch *Batch, timeout time.Duration) error {
	ms := -1
	if timeout >= 0 {
		ms = int(timeout / time.Millisecond)
		if ms == 0 && timeout > 0 {
			ms = 1
		}
	}

	n, err := unix.EpollWait(r.epfd, r.events, ms)
	if err != nil {
		if errors.Is(err, unix.EINTR) {
			return nil // interrupted by signal; caller polls again
		}
		return fmt.Errorf("epoll wait: %w", err)
	}

	for i := 0; i < n; i++ {
		raw := r.events[i]
		var rd api.Readiness
		if raw.Events&unix.EPOLLIN != 0 {
			rd |= api.ReadReady
		}
		if raw.Events&unix.EPOLLOUT != 0 {
			rd |= api.WriteReady
		}
		if raw.Events&unix.EPOLLERR != 0 {
			rd |= api.ErrorReady
		}
		if raw.Events&(unix.EPOLLHUP|unix.EPOLLRDHUP) != 0 {
			rd |= api.HangupReady
		}
		batch.Push(api.Event{Token: api.Token(raw.Fd), Readiness: rd})
	}
	return nil
}

// Close closes the epoll instance.
func (r *linuxReactor) Close() error {
	r.regs = nil
	return unix.Close(r.epfd)
}
