// internal/shipper/s3_uploader.go
package shipper

import (
	"bytes"
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"metrics-sink/internal/config"
	"metrics-sink/internal/metrics"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsCfgLib "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ObjectPutter is the slice of *s3.Client the uploader needs.
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Uploader puts in-memory objects into cfg.ShipBucket.
//
// Retries are application level only (S3AppRetries attempts, exponential
// backoff 200ms → 2s); the SDK's own retryer is switched off so the two never
// stack. Each attempt gets its own S3Timeout.
type Uploader struct {
	cfg     config.Config
	metrics *metrics.Metrics
	client  ObjectPutter

	backoff time.Duration
}

// NewS3Uploader loads the default AWS credential chain for cfg.AWSRegion.
func NewS3Uploader(ctx context.Context, cfg config.Config, m *metrics.Metrics) (*Uploader, error) {
	awsCfg, err := awsCfgLib.LoadDefaultConfig(ctx, awsCfgLib.WithRegion(cfg.AWSRegion))
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.RetryMaxAttempts = 0
	})

	return NewUploader(cfg, m, client), nil
}

// NewUploader wraps an existing client.
func NewUploader(cfg config.Config, m *metrics.Metrics, client ObjectPutter) *Uploader {
	return &Uploader{
		cfg:     cfg,
		metrics: m,
		client:  client,
		backoff: 200 * time.Millisecond,
	}
}

// UploadBytesWithRetryCtx uploads body under key, retrying on failure.
// A fresh reader is built per attempt. ctx cancellation stops both the
// current attempt and the backoff wait.
func (u *Uploader) UploadBytesWithRetryCtx(ctx context.Context, key, contentType string, body []byte) error {
	var lastErr error
	backoff := u.backoff

	attempts := u.cfg.S3AppRetries
	if attempts < 1 {
		attempts = 1
	}

	for attempt := 1; attempt <= attempts; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		err := u.putObject(ctx, key, contentType, bytes.NewReader(body), int64(len(body)))
		if err == nil {
			return nil
		}
		lastErr = err
		atomic.AddInt64(&u.metrics.S3PutErrorsTotal, 1)

		if attempt == attempts {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
			backoff *= 2
			if backoff > 2*time.Second {
				backoff = 2 * time.Second
			}
		}
	}

	return fmt.Errorf("put s3://%s/%s after %d attempt(s): %w", u.cfg.ShipBucket, key, attempts, lastErr)
}

// putObject is a single PutObject call bounded by S3Timeout.
func (u *Uploader) putObject(ctx context.Context, key, contentType string, body *bytes.Reader, size int64) error {
	ctx2, cancel := context.WithTimeout(ctx, u.cfg.S3Timeout)
	defer cancel()

	_, err := u.client.PutObject(ctx2, &s3.PutObjectInput{
		Bucket:        aws.String(u.cfg.ShipBucket),
		Key:           aws.String(key),
		Body:          body,
		ContentLength: aws.Int64(size),
		ContentType:   aws.String(contentType),
	})
	return err
}
