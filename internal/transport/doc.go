// File: internal/transport/doc.go
// Package transport
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Raw non-blocking TCP sockets for the relay event loop. Listener and Conn
// wrap bare descriptors so they can be registered with a reactor by token;
// EAGAIN/EWOULDBLOCK surfaces as api.ErrWouldBlock and end-of-stream as a
// zero-byte read.

package transport
