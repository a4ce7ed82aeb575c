// File: api/reactor.go
// Author: momentics <momentics@gmail.com>
//
// Token, interest and readiness types shared by the reactor backends
// and the relay event loop.

package api

import "strings"

// Token names one monitored descriptor for the lifetime of its registration.
// Client tokens are small, dense integers; reserved tokens sit above them.
type Token int

// Interest is the readiness set a registration subscribes to.
type Interest uint8

const (
	Readable Interest = 1 << iota
	Writable
)

// Readiness is what the poller reports for one token.
type Readiness uint8

const (
	ReadReady Readiness = 1 << iota
	WriteReady
	ErrorReady
	HangupReady
)

// Readable reports read readiness. Error and hangup conditions count too,
// so the owner discovers them through its next read.
func (r Readiness) Readable() bool {
	return r&(ReadReady|ErrorReady|HangupReady) != 0
}

func (r Readiness) String() string {
	var parts []string
	if r&ReadReady != 0 {
		parts = append(parts, "read")
	}
	if r&WriteReady != 0 {
		parts = append(parts, "write")
	}
	if r&ErrorReady != 0 {
		parts = append(parts, "error")
	}
	if r&HangupReady != 0 {
		parts = append(parts, "hup")
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, "|")
}

// Event encapsulates one OS-level readiness notification.
type Event struct {
	Token     Token
	Readiness Readiness
}
