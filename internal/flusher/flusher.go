// Package flusher materializes a bucket index as one file per hour key.
package flusher

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync/atomic"
	"time"

	"metrics-sink/internal/bucket"
	"metrics-sink/internal/metrics"
	"metrics-sink/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ErrInvalidBucketName is returned for a bucket name that is not a single
// path segment.
var ErrInvalidBucketName = errors.New("invalid bucket name")

// Flusher writes each bucket of an index to
//
//	<root>/<bucket-name>/<key segment>/<uuid>.txt
//
// with the bucket's lines sorted byte-wise and joined by "\n".
//
// Every file is created exclusively: a flush never appends to or replaces an
// existing file, so running twice into the same directory leaves two files.
// Any directory or write failure aborts the flush.
type Flusher struct {
	root    string
	log     zerolog.Logger
	metrics *metrics.Metrics

	newName func() string
}

func New(root string, log zerolog.Logger, m *metrics.Metrics) *Flusher {
	return &Flusher{
		root:    root,
		log:     log,
		metrics: m,
		newName: NewFilename,
	}
}

// NewFilename returns "<random uuid>.txt".
func NewFilename() string {
	return uuid.NewString() + ".txt"
}

// ValidateBucketName rejects names that would escape or flatten the
// <root>/<bucket-name> level of the tree.
func ValidateBucketName(name string) error {
	switch {
	case name == "":
		return fmt.Errorf("%w: empty", ErrInvalidBucketName)
	case name == "." || name == "..":
		return fmt.Errorf("%w: %q", ErrInvalidBucketName, name)
	case strings.ContainsAny(name, `/\`) || strings.ContainsRune(name, 0):
		return fmt.Errorf("%w: %q contains a path separator", ErrInvalidBucketName, name)
	}
	return nil
}

// Flush writes every bucket in ix and returns what was written, in key order.
// On error the files already written stay on disk and are returned alongside
// the error.
func (f *Flusher) Flush(name string, ix *bucket.Index) ([]model.BucketFile, error) {
	if err := ValidateBucketName(name); err != nil {
		return nil, err
	}

	start := time.Now()
	atomic.AddInt64(&f.metrics.BucketsTotal, int64(ix.Len()))

	files := make([]model.BucketFile, 0, ix.Len())
	for key, lines := range ix.All() {
		bf, err := f.flushOne(name, key, lines)
		if err != nil {
			return files, err
		}
		files = append(files, bf)

		f.log.Debug().
			Str("bucket", name).
			Str("key", string(key)).
			Str("path", bf.Path).
			Int("lines", bf.Lines).
			Int64("bytes", bf.Size).
			Msg("bucket flushed")
	}

	f.log.Info().
		Str("bucket", name).
		Int("files", len(files)).
		Int64("duration_ms", time.Since(start).Milliseconds()).
		Msg("flush complete")

	return files, nil
}

func (f *Flusher) flushOne(name string, key bucket.Key, lines []string) (model.BucketFile, error) {
	dir := filepath.Join(f.root, name, key.Segment())

	// MkdirAll treats an existing directory as success and fails when any
	// path component exists as something else.
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return model.BucketFile{}, fmt.Errorf("create bucket directory %s: %w", dir, err)
	}

	sorted := slices.Clone(lines)
	slices.Sort(sorted)
	content := strings.Join(sorted, "\n")

	path := filepath.Join(dir, f.newName())
	if err := writeNew(path, content); err != nil {
		return model.BucketFile{}, err
	}

	size := int64(len(content))
	atomic.AddInt64(&f.metrics.FilesWrittenTotal, 1)
	atomic.AddInt64(&f.metrics.LinesWrittenTotal, int64(len(sorted)))
	atomic.AddInt64(&f.metrics.BytesWrittenTotal, size)

	return model.BucketFile{
		Key:     string(key),
		Segment: key.Segment(),
		Path:    path,
		Lines:   len(sorted),
		Size:    size,
	}, nil
}

// writeNew creates path (which must not exist), writes content and closes it.
// The handle is closed on every path.
func writeNew(path, content string) (err error) {
	fh, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if cerr := fh.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", path, cerr)
		}
	}()

	if _, err := fh.WriteString(content); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
