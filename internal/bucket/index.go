package bucket

import (
	"iter"
	"maps"
	"slices"
)

// Index groups formatted lines by hour key.
//
// One Index lives for exactly one run: created empty, filled by Assign while
// input is read, handed to the flusher once, then dropped. It is not safe for
// concurrent use.
type Index struct {
	lines map[Key][]string
	n     int
}

func NewIndex() *Index {
	return &Index{lines: make(map[Key][]string)}
}

// Assign computes the hour key of ts and appends "<ts> <metric>" to it.
// On error the index is unchanged.
func (ix *Index) Assign(ts, metric string) (Key, error) {
	k, err := KeyFor(ts)
	if err != nil {
		return "", err
	}
	ix.lines[k] = append(ix.lines[k], ts+" "+metric)
	ix.n++
	return k, nil
}

// Len is the number of buckets.
func (ix *Index) Len() int {
	return len(ix.lines)
}

// Count is the number of lines across all buckets.
func (ix *Index) Count() int {
	return ix.n
}

// Keys returns the bucket keys in ascending order.
func (ix *Index) Keys() []Key {
	return slices.Sorted(maps.Keys(ix.lines))
}

// Lines returns the lines of k in insertion order. The slice is owned by the
// index.
func (ix *Index) Lines(k Key) []string {
	return ix.lines[k]
}

// All yields every bucket in ascending key order.
func (ix *Index) All() iter.Seq2[Key, []string] {
	return func(yield func(Key, []string) bool) {
		for _, k := range ix.Keys() {
			if !yield(k, ix.lines[k]) {
				return
			}
		}
	}
}
