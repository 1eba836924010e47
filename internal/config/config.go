// internal/config/config.go
package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// DataDir is the root of the local output tree, relative to the working
// directory. Files land under <DataDir>/<bucket>/<hour>/<uuid>.txt.
const DataDir = "./data"

// Config
//
// Everything the sink reads from the environment. Load() fills it once at
// startup and nothing mutates it afterwards.
//
// Unlike the ingest server's all-required env set, every key here has a
// default: a bare `sink <bucket> < input` must work with an empty environment.
type Config struct {

	// ---------------------------
	// Identity / logging
	// ---------------------------

	ServiceName string // attached to every log line
	InstanceID  string // hostname, random hex when unavailable

	LogLevel   string // debug|info|warn|error
	LogPretty  bool   // console writer instead of JSON
	LogSampleN uint32 // keep 1/N debug+info lines when > 1

	// ---------------------------
	// Bucketing
	// ---------------------------

	// StrictTimestamps turns a non-numeric or out-of-range timestamp into a
	// fatal error for the whole run instead of a skipped record.
	StrictTimestamps bool

	// ---------------------------
	// Shipping (optional)
	// ---------------------------
	// Shipping is off unless SHIP_BUCKET is set. AWS_REGION becomes required
	// as soon as it is.

	ShipBucket string // destination S3 bucket
	ShipPrefix string // key prefix (e.g. raw)
	AWSRegion  string

	S3Timeout    time.Duration // per PutObject attempt
	S3AppRetries int           // attempts per object, SDK retries stay at 0
}

// ShipEnabled reports whether flushed files should be uploaded after the run.
func (c Config) ShipEnabled() bool {
	return c.ShipBucket != ""
}

// Load builds a Config from the process environment.
func Load() (Config, error) {
	return LoadFrom(os.Getenv)
}

// LoadFrom builds a Config using getenv for lookups.
func LoadFrom(getenv func(string) string) (Config, error) {
	l := loader{getenv: getenv}

	cfg := Config{
		ServiceName: l.str("SERVICE_NAME", "metrics-sink"),
		InstanceID:  fallbackInstanceID(),

		LogLevel:   l.str("LOG_LEVEL", "info"),
		LogPretty:  l.boolean("LOG_PRETTY", false),
		LogSampleN: uint32(l.integer("LOG_SAMPLE_N", 0)),

		StrictTimestamps: l.boolean("STRICT_TIMESTAMPS", false),

		ShipBucket: l.str("SHIP_BUCKET", ""),
		ShipPrefix: strings.Trim(l.str("SHIP_PREFIX", "raw"), "/"),
		AWSRegion:  l.str("AWS_REGION", ""),

		S3Timeout:    l.duration("S3_TIMEOUT", 5*time.Second),
		S3AppRetries: l.integer("S3_APP_RETRIES", 1),
	}

	if l.err != nil {
		return Config{}, l.err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints.
func (c Config) Validate() error {
	if c.LogSampleN > 1<<20 {
		return fmt.Errorf("LOG_SAMPLE_N=%d is too large", c.LogSampleN)
	}
	if !c.ShipEnabled() {
		return nil
	}
	if c.AWSRegion == "" {
		return fmt.Errorf("missing required env: AWS_REGION (needed when SHIP_BUCKET is set)")
	}
	if c.S3AppRetries < 1 {
		return fmt.Errorf("S3_APP_RETRIES must be >= 1, got %d", c.S3AppRetries)
	}
	if c.S3Timeout <= 0 {
		return fmt.Errorf("S3_TIMEOUT must be positive, got %s", c.S3Timeout)
	}
	return nil
}

// loader keeps the first parse error so Load can report it once.
type loader struct {
	getenv func(string) string
	err    error
}

func (l *loader) str(key, def string) string {
	if v := strings.TrimSpace(l.getenv(key)); v != "" {
		return v
	}
	return def
}

func (l *loader) integer(key string, def int) int {
	v := strings.TrimSpace(l.getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		l.fail(fmt.Errorf("invalid int env %s=%q", key, v))
		return def
	}
	return n
}

func (l *loader) boolean(key string, def bool) bool {
	v := strings.TrimSpace(l.getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		l.fail(fmt.Errorf("invalid bool env %s=%q: %w", key, v, err))
		return def
	}
	return b
}

func (l *loader) duration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(l.getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		l.fail(fmt.Errorf("invalid duration env %s=%q: %w", key, v, err))
		return def
	}
	return d
}

func (l *loader) fail(err error) {
	if l.err == nil {
		l.err = err
	}
}

// fallbackInstanceID
//
// Identifies this sink process in logs and manifests.
//   - default: hostname
//   - fallback: 12 random hex characters
func fallbackInstanceID() string {
	if h, err := os.Hostname(); err == nil && h != "" {
		return h
	}
	var b [6]byte
	if _, err := rand.Read(b[:]); err == nil {
		return hex.EncodeToString(b[:])
	}
	return strconv.FormatInt(time.Now().UnixNano(), 10)
}
