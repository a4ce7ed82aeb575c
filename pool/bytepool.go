// File: pool/bytepool.go
// Author: momentics <momentics@gmail.com>

package pool

import "sync"

// BytePool recycles fixed-size receive buffers between connections.
type BytePool struct {
	size int
	pool sync.Pool
}

func NewBytePool(size int) *BytePool {
	bp := &BytePool{size: size}
	bp.pool.New = func() any {
		buf := make([]byte, size)
		return &buf
	}
	return bp
}

// Size is the length of every buffer GetBuffer returns.
func (b *BytePool) Size() int { return b.size }

// GetBuffer returns a buffer of exactly Size bytes. Its contents are
// whatever the previous owner left.
func (b *BytePool) GetBuffer() []byte {
	return (*b.pool.Get().(*[]byte))[:b.size]
}

// PutBuffer returns buf to the pool. Buffers of the wrong capacity are
// dropped.
func (b *BytePool) PutBuffer(buf []byte) {
	if cap(buf) != b.size {
		return
	}
	buf = buf[:b.size]
	b.pool.Put(&buf)
}
