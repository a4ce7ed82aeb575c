//go:build !linux
// +build !linux

// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Stub transport for platforms without the epoll reactor.

package transport

import "github.com/momentics/hioload-relay/api"

// Listen returns an error for unsupported platforms.
func Listen(string, int) (*Listener, error) {
	return nil, api.Unsupported("raw socket transport")
}

func (l *Listener) Accept() (*Conn, error) { return nil, api.ErrNotSupported }
func (l *Listener) Close() error           { return nil }
func (c *Conn) Read([]byte) (int, error)   { return 0, api.ErrNotSupported }
func (c *Conn) Write([]byte) (int, error)  { return 0, api.ErrNotSupported }
func (c *Conn) Close() error               { return nil }
