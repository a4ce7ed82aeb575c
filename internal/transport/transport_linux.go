// internal/transport/transport_linux.go
//go:build linux
// +build linux

//
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Linux non-blocking listener and connection built on raw descriptors.

package transport

import (
	"errors"
	"fmt"
	"net"
	"strconv"

	"github.com/momentics/hioload-relay/api"
	"golang.org/x/sys/unix"
)

// Listen binds a non-blocking TCP socket to host:port with SO_REUSEADDR.
// Port 0 selects an ephemeral port; see Listener.Addr.
func Listen(host string, port int) (*Listener, error) {
	if port < 0 || port > 65535 {
		return nil, fmt.Errorf("port %d: %w", port, api.ErrInvalidArgument)
	}
	ip := net.ParseIP(host)
	if ip == nil {
		return nil, fmt.Errorf("host %q: %w", host, api.ErrInvalidArgument)
	}

	family := unix.AF_INET6
	var sa unix.Sockaddr
	if ip4 := ip.To4(); ip4 != nil {
		family = unix.AF_INET
		sa4 := &unix.SockaddrInet4{Port: port}
		copy(sa4.Addr[:], ip4)
		sa = sa4
	} else {
		sa6 := &unix.SockaddrInet6{Port: port}
		copy(sa6.Addr[:], ip.To16())
		sa = sa6
	}

	fd, err := unix.Socket(family, unix.SOCK_STREAM|unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC, unix.IPPROTO_TCP)
	if err != nil {
		return nil, fmt.Errorf("socket create: %w", err)
	}
	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("setsockopt SO_REUSEADDR: %w", err)
	}
	if err := unix.Bind(fd, sa); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("bind %s: %w", net.JoinHostPort(host, strconv.Itoa(port)), err)
	}
	if err := unix.Listen(fd, unix.SOMAXCONN); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("listen: %w", err)
	}

	bound, err := unix.Getsockname(fd)
	if err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("getsockname: %w", err)
	}
	return &Listener{fd: fd, addr: tcpAddr(bound)}, nil
}

// Accept takes one pending connection. It returns api.ErrWouldBlock when
// the backlog is empty.
func (l *Listener) Accept() (*Conn, error) {
	for {
		nfd, sa, err := unix.Accept4(l.fd, unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC)
		if err == nil {
			c := &Conn{fd: nfd}
			if addr := tcpAddr(sa); addr != nil {
				c.peer = addr.String()
			}
			_ = unix.SetsockoptInt(nfd, unix.IPPROTO_TCP, unix.TCP_NODELAY, 1)
			return c, nil
		}
		switch {
		case errors.Is(err, unix.EINTR):
			continue
		case errors.Is(err, unix.EAGAIN):
			return nil, api.ErrWouldBlock
		case errors.Is(err, unix.ECONNABORTED):
			// peer gave up while queued; nothing to accept
			return nil, fmt.Errorf("accept4: %w: %w", api.ErrWouldBlock, err)
		default:
			return nil, fmt.Errorf("accept4: %w", err)
		}
	}
}

// Close closes the listening socket. Later calls are no-ops.
func (l *Listener) Close() error {
	var err error
	l.once.Do(func() { err = unix.Close(l.fd) })
	return err
}

// Read reads into p. A zero count with a nil error is end-of-stream.
func (c *Conn) Read(p []byte) (int, error) {
	for {
		n, err := unix.Read(c.fd, p)
		if err == nil {
			return n, nil
		}
		switch {
		case errors.Is(err, unix.EINTR):
			continue
		case errors.Is(err, unix.EAGAIN):
			return 0, api.ErrWouldBlock
		default:
			return 0, err
		}
	}
}

// Write issues one non-blocking write. It may be partial; api.ErrWouldBlock
// means the socket send buffer is full.
func (c *Conn) Write(p []byte) (int, error) {
	for {
		n, err := unix.Write(c.fd, p)
		if err == nil {
			return n, nil
		}
		switch {
		case errors.Is(err, unix.EINTR):
			continue
		case errors.Is(err, unix.EAGAIN):
			return 0, api.ErrWouldBlock
		default:
			return 0, err
		}
	}
}

// Close closes the connection. Later calls are no-ops.
func (c *Conn) Close() error {
	var err error
	c.once.Do(func() { err = unix.Close(c.fd) })
	return err
}

func tcpAddr(sa unix.Sockaddr) *net.TCPAddr {
	switch a := sa.(type) {
	case *unix.SockaddrInet4:
		return &net.TCPAddr{IP: net.IP(append([]byte(nil), a.Addr[:]...)), Port: a.Port}
	case *unix.SockaddrInet6:
		return &net.TCPAddr{IP: net.IP(append([]byte(nil), a.Addr[:]...)), Port: a.Port}
	default:
		return nil
	}
}
