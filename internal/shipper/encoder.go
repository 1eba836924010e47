package shipper

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"metrics-sink/internal/pool"

	"github.com/klauspost/compress/gzip"
)

// Encoder gzips flushed bucket files for upload.
//
//   - gzip.Writer + bytes.Buffer come from internal/pool
//   - the result is copied into a fresh slice owned by the caller
//     (returning the pooled buffer's bytes would alias the next file)
type Encoder struct{}

func NewEncoder() *Encoder {
	return &Encoder{}
}

// EncodeFileGZ reads path and returns its gzip-compressed content.
func (e *Encoder) EncodeFileGZ(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	data, err := e.EncodeGZ(f)
	if err != nil {
		return nil, fmt.Errorf("gzip %s: %w", path, err)
	}
	return data, nil
}

// EncodeGZ compresses everything read from r.
func (e *Encoder) EncodeGZ(r io.Reader) ([]byte, error) {

	// ------------------------------------------------------------
	// 1) pooled output buffer + gzip writer
	// ------------------------------------------------------------
	buf := pool.BufferPool.Get().(*bytes.Buffer)
	buf.Reset()

	gz := pool.GzipPool.Get().(*gzip.Writer)
	gz.Reset(buf)

	// ------------------------------------------------------------
	// 2) stream input through the compressor
	// ------------------------------------------------------------
	if _, err := io.Copy(gz, r); err != nil {
		_ = gz.Close()
		pool.GzipPool.Put(gz)
		pool.PutBuffer(buf)
		return nil, err
	}

	// ------------------------------------------------------------
	// 3) Close writes the gzip footer
	// ------------------------------------------------------------
	if err := gz.Close(); err != nil {
		pool.GzipPool.Put(gz)
		pool.PutBuffer(buf)
		return nil, err
	}
	pool.GzipPool.Put(gz)

	// ------------------------------------------------------------
	// 4) caller-owned copy, then recycle the buffer
	// ------------------------------------------------------------
	raw := buf.Bytes()
	data := make([]byte, len(raw))
	copy(data, raw)

	pool.PutBuffer(buf)

	return data, nil
}
