// Author: momentics <momentics@gmail.com>
// SPDX-License-Identifier: MIT

// Package fake provides test doubles for the relay's reactor.
package fake

import (
	"errors"
	"sync"
	"time"

	"github.com/momentics/hioload-relay/api"
	"github.com/momentics/hioload-relay/reactor"
)

// Reactor records calls and forwards them to Inner. RegisterErr, when set,
// is consulted before every Register and its error is reported the way a
// failing epoll_ctl would be.
type Reactor struct {
	Inner       reactor.Reactor
	RegisterErr func(fd int, tok api.Token) error

	mu           sync.Mutex
	registered   []api.Token
	deregistered []api.Token
	polls        int
}

var _ reactor.Reactor = (*Reactor)(nil)

func (f *Reactor) Register(fd int, tok api.Token, interest api.Interest) error {
	if f.RegisterErr != nil {
		if err := f.RegisterErr(fd, tok); err != nil {
			return api.Fatal(api.ErrRegistration, err).WithContext("token", int(tok))
		}
	}
	if f.Inner != nil {
		if err := f.Inner.Register(fd, tok, interest); err != nil {
			return err
		}
	}
	f.mu.Lock()
	f.registered = append(f.registered, tok)
	f.mu.Unlock()
	return nil
}

func (f *Reactor) Deregister(tok api.Token) error {
	f.mu.Lock()
	f.deregistered = append(f.deregistered, tok)
	f.mu.Unlock()
	if f.Inner != nil {
		return f.Inner.Deregister(tok)
	}
	return nil
}

func (f *Reactor) Poll(batch *reactor.Batch, timeout time.Duration) error {
	f.mu.Lock()
	f.polls++
	f.mu.Unlock()
	if f.Inner == nil {
		return errors.New("fake reactor: no inner reactor to poll")
	}
	return f.Inner.Poll(batch, timeout)
}

func (f *Reactor) Close() error {
	if f.Inner != nil {
		return f.Inner.Close()
	}
	return nil
}

// Registered returns the tokens successfully registered so far.
func (f *Reactor) Registered() []api.Token {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]api.Token(nil), f.registered...)
}

// Deregistered returns the tokens passed to Deregister so far.
func (f *Reactor) Deregistered() []api.Token {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]api.Token(nil), f.deregistered...)
}

// Polls reports how many times Poll was called.
func (f *Reactor) Polls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.polls
}
