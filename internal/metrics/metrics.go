package metrics

import (
	"fmt"
	"strings"
	"sync/atomic"
)

// Metrics is the set of counters for one sink run.
//
// The run is single-threaded. Counters are still updated with atomics so the
// type stays safe if a Metrics value is ever shared across goroutines.
type Metrics struct {
	// ======================
	// Read phase
	// ======================

	// LinesReadTotal
	// - Every line pulled off the input stream, blank lines included.
	LinesReadTotal int64

	// RecordsSkippedTotal
	// - Lines that produced no output: empty records at tokenize time and
	//   timestamps that failed to parse or fell out of range at assign time.
	// - LinesReadTotal - RecordsSkippedTotal == RecordsBucketedTotal.
	RecordsSkippedTotal int64

	// RecordsBucketedTotal
	// - Records appended to the bucket index.
	RecordsBucketedTotal int64

	// ======================
	// Flush phase
	// ======================

	// BucketsTotal
	// - Distinct hour keys seen in the index at flush time.
	BucketsTotal int64

	// FilesWrittenTotal
	// - Local files created. Equals BucketsTotal on a successful run.
	FilesWrittenTotal int64

	// LinesWrittenTotal / BytesWrittenTotal
	// - Sum of lines and bytes across all written files.
	LinesWrittenTotal int64
	BytesWrittenTotal int64

	// ======================
	// Ship phase
	// ======================

	// S3ObjectsShippedTotal / S3BytesShippedTotal
	// - Objects uploaded (manifest excluded) and their gzip size.
	S3ObjectsShippedTotal int64
	S3BytesShippedTotal   int64

	// S3PutErrorsTotal
	// - Failed PutObject attempts. One object with 3 failed attempts → +3.
	S3PutErrorsTotal int64

	// ShipFailuresTotal
	// - Files that could not be shipped after all attempts. They stay on
	//   local disk.
	ShipFailuresTotal int64
}

func New() *Metrics {
	return &Metrics{}
}

func (m *Metrics) String() string {
	var sb strings.Builder
	sb.Grow(256)

	fmt.Fprintf(&sb, "lines_read_total=%d\n", atomic.LoadInt64(&m.LinesReadTotal))
	fmt.Fprintf(&sb, "records_skipped_total=%d\n", atomic.LoadInt64(&m.RecordsSkippedTotal))
	fmt.Fprintf(&sb, "records_bucketed_total=%d\n", atomic.LoadInt64(&m.RecordsBucketedTotal))

	fmt.Fprintf(&sb, "buckets_total=%d\n", atomic.LoadInt64(&m.BucketsTotal))
	fmt.Fprintf(&sb, "files_written_total=%d\n", atomic.LoadInt64(&m.FilesWrittenTotal))
	fmt.Fprintf(&sb, "lines_written_total=%d\n", atomic.LoadInt64(&m.LinesWrittenTotal))
	fmt.Fprintf(&sb, "bytes_written_total=%d\n", atomic.LoadInt64(&m.BytesWrittenTotal))

	fmt.Fprintf(&sb, "s3_objects_shipped_total=%d\n", atomic.LoadInt64(&m.S3ObjectsShippedTotal))
	fmt.Fprintf(&sb, "s3_bytes_shipped_total=%d\n", atomic.LoadInt64(&m.S3BytesShippedTotal))
	fmt.Fprintf(&sb, "s3_put_errors_total=%d\n", atomic.LoadInt64(&m.S3PutErrorsTotal))
	fmt.Fprintf(&sb, "ship_failures_total=%d\n", atomic.LoadInt64(&m.ShipFailuresTotal))

	return sb.String()
}
