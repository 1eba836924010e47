// Package reader turns a line-oriented input stream into records.
package reader

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"iter"
	"strings"
	"sync/atomic"

	"metrics-sink/internal/metrics"
	"metrics-sink/internal/model"

	"github.com/rs/zerolog"
)

// ErrEmptyRecord is reported for a line with no tokens after trimming.
var ErrEmptyRecord = errors.New("empty record")

// Reader
//
// Pulls lines off an io.Reader and tokenizes them:
//   - trim, split on runs of whitespace
//   - first token → timestamp, the rest concatenated → metric payload
//   - a line with zero tokens is logged at warn level and skipped
//
// A single-token line is NOT malformed: it yields an empty payload.
//
// Records() is single-use. A read error other than io.EOF ends the sequence
// and is available from Err().
type Reader struct {
	br      *bufio.Reader
	log     zerolog.Logger
	metrics *metrics.Metrics

	line int
	err  error
	used bool
}

func New(r io.Reader, log zerolog.Logger, m *metrics.Metrics) *Reader {
	return &Reader{
		br:      bufio.NewReaderSize(r, 64*1024),
		log:     log,
		metrics: m,
	}
}

// Records yields one model.Record per well-formed input line.
func (r *Reader) Records() iter.Seq[model.Record] {
	return func(yield func(model.Record) bool) {
		if r.used {
			return
		}
		r.used = true

		for {
			// ReadString has no line-length cap, unlike bufio.Scanner.
			raw, err := r.br.ReadString('\n')
			if raw != "" {
				r.line++
				atomic.AddInt64(&r.metrics.LinesReadTotal, 1)

				rec, perr := Parse(raw)
				if perr != nil {
					atomic.AddInt64(&r.metrics.RecordsSkippedTotal, 1)
					r.log.Warn().Int("line", r.line).Err(perr).Msg("skipping record")
				} else {
					rec.Line = r.line
					if !yield(rec) {
						return
					}
				}
			}

			if err != nil {
				if !errors.Is(err, io.EOF) {
					r.err = fmt.Errorf("read line %d: %w", r.line+1, err)
				}
				return
			}
		}
	}
}

// Err returns the read error that ended the sequence, if any.
func (r *Reader) Err() error {
	return r.err
}

// Lines returns the number of lines consumed so far.
func (r *Reader) Lines() int {
	return r.line
}

// Parse tokenizes a single raw line. Line is left zero.
func Parse(raw string) (model.Record, error) {
	tokens := strings.Fields(raw)
	if len(tokens) == 0 {
		return model.Record{}, ErrEmptyRecord
	}
	return model.Record{
		Timestamp: tokens[0],
		Metric:    strings.Join(tokens[1:], ""),
	}, nil
}
