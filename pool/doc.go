// Package pool
// Author: momentics <momentics@gmail.com>
//
// Bounded, token-addressed storage for per-connection state.
// A Slab hands out the lowest free token and never grows past its capacity.
// BytePool recycles the receive buffers those connections own.
package pool
