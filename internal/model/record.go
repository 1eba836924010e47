// internal/model/record.go
package model

// Record
// ------------------------------------------------------------
// One tokenized input line. The unit that flows from the reader into the
// bucket index.
//
// Timestamp is kept as the original string: it is both the bucketing input
// and the prefix of the line written to disk, so "007" stays "007".
type Record struct {
	Line      int    // 1-based input line number, for diagnostics
	Timestamp string // first token, Unix milliseconds
	Metric    string // remaining tokens joined with no separator
}

// Format renders the record as it is stored: "<timestamp> <metric>".
// A record with an empty payload keeps the separating space.
func (r Record) Format() string {
	return r.Timestamp + " " + r.Metric
}
