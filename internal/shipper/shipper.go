// Package shipper compresses flushed bucket files and uploads them to S3.
//
// It runs after the flush phase and only reads local files: a file that
// fails to ship stays where the flusher put it.
package shipper

import (
	"context"
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"sync/atomic"
	"time"

	"metrics-sink/internal/config"
	"metrics-sink/internal/metrics"
	"metrics-sink/internal/model"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	contentTypeGzip = "application/gzip"
	contentTypeJSON = "application/json"
)

// Manifest lists the objects one run uploaded. It is itself uploaded as
// <prefix>/<bucket>/_manifests/<run>.json after the data objects.
type Manifest struct {
	Run       string                `json:"run"`
	Bucket    string                `json:"bucket"`
	Instance  string                `json:"instance"`
	CreatedAt time.Time             `json:"created_at"`
	Objects   []model.ShippedObject `json:"objects"`
	Failed    []string              `json:"failed,omitempty"` // local paths left unshipped
}

// Shipper wires Encoder and Uploader together for a set of flushed files.
type Shipper struct {
	cfg      config.Config
	log      zerolog.Logger
	metrics  *metrics.Metrics
	encoder  *Encoder
	uploader *Uploader

	now   func() time.Time
	runID func() string
}

func New(cfg config.Config, log zerolog.Logger, m *metrics.Metrics, uploader *Uploader) *Shipper {
	return &Shipper{
		cfg:      cfg,
		log:      log,
		metrics:  m,
		encoder:  NewEncoder(),
		uploader: uploader,
		now:      time.Now,
		runID:    uuid.NewString,
	}
}

// BuildS3Key
// ------------------------------------------------------------
//
//	<prefix>/<bucket>/<hour segment>/<filename>
//
// mirrors the local tree under the data root, so a key maps back to the
// file it came from. An empty prefix is dropped.
func BuildS3Key(prefix, bucketName, segment, filename string) string {
	return path.Join(prefix, bucketName, segment, filename)
}

// ManifestKey is the object key of a run manifest.
func ManifestKey(prefix, bucketName, run string) string {
	return path.Join(prefix, bucketName, "_manifests", run+".json")
}

// Ship uploads every file, then the manifest. Per-file failures do not stop
// the loop; they are all returned together.
func (s *Shipper) Ship(ctx context.Context, bucketName string, files []model.BucketFile) (Manifest, error) {
	m := Manifest{
		Run:       s.runID(),
		Bucket:    bucketName,
		Instance:  s.cfg.InstanceID,
		CreatedAt: s.now().UTC(),
		Objects:   make([]model.ShippedObject, 0, len(files)),
	}

	if len(files) == 0 {
		return m, nil
	}

	var errs []error
	for _, f := range files {
		obj, err := s.shipOne(ctx, bucketName, f)
		if err != nil {
			atomic.AddInt64(&s.metrics.ShipFailuresTotal, 1)
			s.log.Error().Err(err).Str("path", f.Path).Msg("ship failed, file kept locally")
			m.Failed = append(m.Failed, f.Path)
			errs = append(errs, err)
			continue
		}
		m.Objects = append(m.Objects, obj)
	}

	body, err := json.Marshal(m)
	if err != nil {
		return m, errors.Join(append(errs, fmt.Errorf("encode manifest: %w", err))...)
	}

	key := ManifestKey(s.cfg.ShipPrefix, bucketName, m.Run)
	if err := s.uploader.UploadBytesWithRetryCtx(ctx, key, contentTypeJSON, body); err != nil {
		errs = append(errs, fmt.Errorf("manifest: %w", err))
	} else {
		s.log.Info().
			Str("manifest", key).
			Int("objects", len(m.Objects)).
			Int("failed", len(m.Failed)).
			Msg("ship complete")
	}

	return m, errors.Join(errs...)
}

func (s *Shipper) shipOne(ctx context.Context, bucketName string, f model.BucketFile) (model.ShippedObject, error) {
	data, err := s.encoder.EncodeFileGZ(f.Path)
	if err != nil {
		return model.ShippedObject{}, err
	}

	key := BuildS3Key(s.cfg.ShipPrefix, bucketName, f.Segment, filepath.Base(f.Path)+".gz")
	if err := s.uploader.UploadBytesWithRetryCtx(ctx, key, contentTypeGzip, data); err != nil {
		return model.ShippedObject{}, err
	}

	atomic.AddInt64(&s.metrics.S3ObjectsShippedTotal, 1)
	atomic.AddInt64(&s.metrics.S3BytesShippedTotal, int64(len(data)))

	s.log.Debug().Str("key", key).Int("gzip_bytes", len(data)).Msg("object shipped")

	return model.ShippedObject{
		Key:        key,
		BucketKey:  f.Key,
		SourcePath: f.Path,
		Lines:      f.Lines,
		RawBytes:   f.Size,
		GzipBytes:  int64(len(data)),
	}, nil
}
