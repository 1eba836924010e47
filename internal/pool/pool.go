package pool

import (
	"bytes"
	"sync"

	"github.com/klauspost/compress/gzip"
)

// ---------------------------------------------------------------
// Reusable buffers for the ship stage.
//
// Every flushed file is gzipped in memory before upload. A run can produce
// hundreds of hour files, so the output buffer and the gzip.Writer (whose
// internal state is large) are pooled instead of allocated per file.
// ---------------------------------------------------------------

var (
	// BufferPool:
	//   - holds the gzip output of one file
	//   - 256KB initial capacity
	//   - buffers above MaxBufferCap are not returned (see PutBuffer)
	BufferPool = sync.Pool{
		New: func() any {
			return bytes.NewBuffer(make([]byte, 0, 256*1024))
		},
	}

	// GzipPool:
	//   - gzip.Writer at BestSpeed; hour files are re-read by downstream
	//     jobs far more often than they are produced
	GzipPool = sync.Pool{
		New: func() any {
			w, _ := gzip.NewWriterLevel(nil, gzip.BestSpeed)
			return w
		},
	}
)

// MaxBufferCap is the largest buffer PutBuffer keeps.
const MaxBufferCap = 4 * 1024 * 1024 // 4MB

// PutBuffer returns buf to BufferPool unless it grew past MaxBufferCap.
func PutBuffer(buf *bytes.Buffer) {
	if buf.Cap() <= MaxBufferCap {
		buf.Reset()
		BufferPool.Put(buf)
	}
}
