// Package bucket maps millisecond timestamps to hour keys and accumulates
// formatted lines per key.
package bucket

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrTimestampSyntax: the timestamp token is not a base-10 integer.
	ErrTimestampSyntax = errors.New("timestamp is not an integer")

	// ErrTimestampRange: the timestamp falls outside years 1..9999 UTC.
	ErrTimestampRange = errors.New("timestamp out of range")
)

// keyLayout renders an hour key. Minutes and seconds are always zero.
const keyLayout = "2006-01-02T15:04:05"

// Key is an hour bucket: "YYYY-MM-DDTHH:00:00", naive UTC.
type Key string

// KeyFor parses a Unix millisecond timestamp string and returns its hour key.
func KeyFor(ts string) (Key, error) {
	ms, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrTimestampSyntax, ts)
	}
	t := time.UnixMilli(ms).UTC()
	if y := t.Year(); y < 1 || y > 9999 {
		return "", fmt.Errorf("%w: %q", ErrTimestampRange, ts)
	}
	return KeyForTime(t), nil
}

// KeyForTime truncates t (in UTC) to the hour.
func KeyForTime(t time.Time) Key {
	t = t.UTC()
	h := time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), 0, 0, 0, time.UTC)
	return Key(h.Format(keyLayout))
}

// Time returns the start of the hour the key names.
func (k Key) Time() (time.Time, error) {
	return time.ParseInLocation(keyLayout, string(k), time.UTC)
}

// Segment is the key as a path segment. Colons are not portable in file
// names, so every ':' becomes '-':
//
//	2023-11-14T22:00:00 → 2023-11-14T22-00-00
//
// The date part already uses '-', so only the last two '-' of a segment map
// back to ':' (see ParseSegment).
func (k Key) Segment() string {
	return strings.ReplaceAll(string(k), ":", "-")
}

// ParseSegment reverses Segment.
func ParseSegment(seg string) (Key, error) {
	i := strings.IndexByte(seg, 'T')
	if i < 0 {
		return "", fmt.Errorf("bucket segment %q: missing 'T'", seg)
	}
	k := Key(seg[:i+1] + strings.ReplaceAll(seg[i+1:], "-", ":"))
	t, err := k.Time()
	if err != nil {
		return "", fmt.Errorf("bucket segment %q: %w", seg, err)
	}
	if t.Minute() != 0 || t.Second() != 0 {
		return "", fmt.Errorf("bucket segment %q: not an hour boundary", seg)
	}
	return k, nil
}
