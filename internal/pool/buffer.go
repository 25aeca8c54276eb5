package pool

import (
	"io"
	"sync"
)

// CopyBufferSize is the size of the buffers handed out by CopyBuffer (64KB).
const CopyBufferSize = 64 * 1024

var copyBuffers = sync.Pool{
	New: func() interface{} {
		buf := make([]byte, CopyBufferSize)
		return &buf
	},
}

// Copy copies src to dst through a pooled buffer.
func Copy(dst io.Writer, src io.Reader) (int64, error) {
	bufPtr := copyBuffers.Get().(*[]byte)
	defer copyBuffers.Put(bufPtr)
	return io.CopyBuffer(dst, src, *bufPtr)
}
