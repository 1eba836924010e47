// Package sink runs one read → bucket → flush (→ ship) pass over an input
// stream.
package sink

import (
	"context"
	"fmt"
	"io"
	"sync/atomic"

	"metrics-sink/internal/bucket"
	"metrics-sink/internal/config"
	"metrics-sink/internal/flusher"
	"metrics-sink/internal/metrics"
	"metrics-sink/internal/model"
	"metrics-sink/internal/reader"
	"metrics-sink/internal/shipper"

	"github.com/rs/zerolog"
)

// Shipper uploads flushed files. nil disables the ship stage.
type Shipper interface {
	Ship(ctx context.Context, bucketName string, files []model.BucketFile) (shipper.Manifest, error)
}

// Result summarizes a completed run.
type Result struct {
	Files    []model.BucketFile
	Lines    int
	Bucketed int
	Skipped  int
	Manifest *shipper.Manifest
}

// Runner
//
// The run is strictly two-phase:
//  1. read: drain the input, assigning every record to the bucket index
//  2. flush: write one file per bucket
//
// Nothing is written until the input is exhausted. The index is created per
// Run call and dropped when it returns.
//
// Error policy:
//   - empty line: skipped (reader)
//   - bad timestamp: skipped, or fatal when cfg.StrictTimestamps
//   - read / mkdir / write / ship failure: fatal
type Runner struct {
	cfg     config.Config
	log     zerolog.Logger
	metrics *metrics.Metrics
	flusher *flusher.Flusher
	shipper Shipper
}

// New builds a Runner writing under root. ship may be nil.
func New(cfg config.Config, root string, log zerolog.Logger, m *metrics.Metrics, ship Shipper) *Runner {
	return &Runner{
		cfg:     cfg,
		log:     log,
		metrics: m,
		flusher: flusher.New(root, log, m),
		shipper: ship,
	}
}

// Run processes in for bucketName.
func (r *Runner) Run(ctx context.Context, bucketName string, in io.Reader) (Result, error) {
	if err := flusher.ValidateBucketName(bucketName); err != nil {
		return Result{}, err
	}

	log := r.log.With().Str("bucket", bucketName).Logger()

	// ------------------------------------------------------------
	// 1) read phase
	// ------------------------------------------------------------
	ix := bucket.NewIndex()
	rd := reader.New(in, log, r.metrics)

	res := Result{}
	for rec := range rd.Records() {
		if _, err := ix.Assign(rec.Timestamp, rec.Metric); err != nil {
			if r.cfg.StrictTimestamps {
				return res, fmt.Errorf("line %d: %w", rec.Line, err)
			}
			atomic.AddInt64(&r.metrics.RecordsSkippedTotal, 1)
			log.Warn().Int("line", rec.Line).Err(err).Msg("skipping record")
			continue
		}
		atomic.AddInt64(&r.metrics.RecordsBucketedTotal, 1)
	}
	if err := rd.Err(); err != nil {
		return res, err
	}

	res.Lines = rd.Lines()
	res.Bucketed = ix.Count()
	res.Skipped = res.Lines - res.Bucketed

	log.Info().
		Int("lines", res.Lines).
		Int("bucketed", res.Bucketed).
		Int("skipped", res.Skipped).
		Int("buckets", ix.Len()).
		Msg("input drained")

	// ------------------------------------------------------------
	// 2) flush phase
	// ------------------------------------------------------------
	files, err := r.flusher.Flush(bucketName, ix)
	res.Files = files
	if err != nil {
		return res, fmt.Errorf("flush: %w", err)
	}

	// ------------------------------------------------------------
	// 3) ship (optional)
	// ------------------------------------------------------------
	if r.shipper != nil {
		manifest, err := r.shipper.Ship(ctx, bucketName, files)
		res.Manifest = &manifest
		if err != nil {
			return res, fmt.Errorf("ship: %w", err)
		}
	}

	log.Debug().Msg("run metrics\n" + r.metrics.String())

	return res, nil
}
