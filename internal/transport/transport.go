// Package transport
// Author: momentics <momentics@gmail.com>
//
// Platform-independent socket handle types.

package transport

import (
	"net"
	"sync"
)

// Listener is a non-blocking TCP listening socket.
type Listener struct {
	fd   int
	addr *net.TCPAddr
	once sync.Once
}

// Fd returns the raw descriptor for reactor registration.
func (l *Listener) Fd() int { return l.fd }

// Addr returns the bound address; the port is resolved when 0 was requested.
func (l *Listener) Addr() *net.TCPAddr { return l.addr }

// Conn is one accepted, non-blocking TCP connection.
type Conn struct {
	fd   int
	peer string
	once sync.Once
}

// Fd returns the raw descriptor for reactor registration.
func (c *Conn) Fd() int { return c.fd }

// RemoteAddr returns the peer address in host:port form, or "" if unknown.
func (c *Conn) RemoteAddr() string { return c.peer }
