// File: pool/slab_pool.go
// Package pool implements a bounded slab of token-addressed entries.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package pool

import (
	"fmt"
	"sort"

	"github.com/momentics/hioload-relay/api"
)

// Slab is a fixed-capacity arena indexed by small integer tokens.
// Vacant tokens are kept on a free-list sorted ascending so Allocate
// always hands out the lowest one. Slab is not safe for concurrent use;
// it belongs to exactly one event loop.
type Slab[T any] struct {
	entries []T
	used    []bool
	free    []api.Token
	n       int
}

// NewSlab creates a slab holding at most capacity entries.
func NewSlab[T any](capacity int) (*Slab[T], error) {
	if capacity < 1 {
		return nil, api.Invalid("slab capacity %d", capacity)
	}
	s := &Slab[T]{
		entries: make([]T, capacity),
		used:    make([]bool, capacity),
		free:    make([]api.Token, capacity),
	}
	for i := range s.free {
		s.free[i] = api.Token(i)
	}
	return s, nil
}

// Allocate stores v under the lowest free token.
func (s *Slab[T]) Allocate(v T) (api.Token, error) {
	if len(s.free) == 0 {
		return -1, api.ErrCapacityExceeded
	}
	tok := s.free[0]
	s.free = s.free[1:]
	s.entries[tok] = v
	s.used[tok] = true
	s.n++
	return tok, nil
}

// Get returns the entry for an active token.
func (s *Slab[T]) Get(tok api.Token) (T, error) {
	if !s.Contains(tok) {
		var zero T
		return zero, fmt.Errorf("token %d: %w", tok, api.ErrUnknownToken)
	}
	return s.entries[tok], nil
}

// Contains reports whether tok is active.
func (s *Slab[T]) Contains(tok api.Token) bool {
	return tok >= 0 && int(tok) < len(s.used) && s.used[tok]
}

// Remove releases tok for a future Allocate.
func (s *Slab[T]) Remove(tok api.Token) (T, error) {
	var zero T
	if !s.Contains(tok) {
		return zero, fmt.Errorf("token %d: %w", tok, api.ErrUnknownToken)
	}
	v := s.entries[tok]
	s.entries[tok] = zero
	s.used[tok] = false
	s.n--

	i := sort.Search(len(s.free), func(i int) bool { return s.free[i] > tok })
	s.free = append(s.free, 0)
	copy(s.free[i+1:], s.free[i:])
	s.free[i] = tok
	return v, nil
}

// Range calls fn for each active entry in ascending token order
// until fn returns false.
func (s *Slab[T]) Range(fn func(api.Token, T) bool) {
	for i, ok := range s.used {
		if !ok {
			continue
		}
		if !fn(api.Token(i), s.entries[i]) {
			return
		}
	}
}

// Len returns the number of active entries.
func (s *Slab[T]) Len() int { return s.n }

// Cap returns the fixed capacity.
func (s *Slab[T]) Cap() int { return len(s.entries) }

// Full reports whether Allocate would fail.
func (s *Slab[T]) Full() bool { return s.n == len(s.entries) }
