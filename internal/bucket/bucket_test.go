package bucket

import (
	"math"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyFor(t *testing.T) {
	tests := []struct {
		ts   string
		want Key
	}{
		{"1700000000000", "2023-11-14T22:00:00"},
		{"1700000125000", "2023-11-14T22:00:00"},
		{"1700003700000", "2023-11-14T23:00:00"},
		{"1699999200000", "2023-11-14T22:00:00"}, // exactly on the hour
		{"1700003599999", "2023-11-14T22:00:00"}, // last millisecond of the hour
		{"0", "1970-01-01T00:00:00"},
		{"-1", "1969-12-31T23:00:00"},
		{"+3600000", "1970-01-01T01:00:00"},
		{"007", "1970-01-01T00:00:00"},
	}

	for _, tt := range tests {
		t.Run(tt.ts, func(t *testing.T) {
			got, err := KeyFor(tt.ts)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestKeyForErrors(t *testing.T) {
	tests := []struct {
		ts      string
		wantErr error
	}{
		{"abc", ErrTimestampSyntax},
		{"1700000000.5", ErrTimestampSyntax},
		{"", ErrTimestampSyntax},
		{"99999999999999999999", ErrTimestampSyntax},
		{strconv.FormatInt(math.MaxInt64, 10), ErrTimestampRange},
		{strconv.FormatInt(math.MinInt64, 10), ErrTimestampRange},
	}

	for _, tt := range tests {
		t.Run(tt.ts, func(t *testing.T) {
			_, err := KeyFor(tt.ts)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestSameHourSameKey(t *testing.T) {
	base := time.Date(2024, 2, 29, 13, 0, 0, 0, time.UTC)
	want := KeyForTime(base)

	for off := time.Duration(0); off < time.Hour; off += 7*time.Minute + 13*time.Second {
		ms := base.Add(off).UnixMilli()
		got, err := KeyFor(strconv.FormatInt(ms, 10))
		require.NoError(t, err)
		assert.Equal(t, want, got, "offset %s", off)
	}

	next, err := KeyFor(strconv.FormatInt(base.Add(time.Hour).UnixMilli(), 10))
	require.NoError(t, err)
	assert.NotEqual(t, want, next)
}

func TestKeyForTimeIgnoresZone(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*3600)
	local := time.Date(2023, 11, 15, 7, 45, 0, 0, tokyo)

	assert.Equal(t, Key("2023-11-14T22:00:00"), KeyForTime(local))
}

func TestSegmentRoundTrip(t *testing.T) {
	k := Key("2023-11-14T22:00:00")

	seg := k.Segment()
	assert.Equal(t, "2023-11-14T22-00-00", seg)
	assert.NotContains(t, seg, ":")

	back, err := ParseSegment(seg)
	require.NoError(t, err)
	assert.Equal(t, k, back)

	start, err := back.Time()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2023, 11, 14, 22, 0, 0, 0, time.UTC), start)
}

func TestParseSegmentRejects(t *testing.T) {
	for _, seg := range []string{"", "2023-11-14", "2023-11-14T22-30-00", "not-a-keyTx", "2023-11-14T22:00:00x"} {
		_, err := ParseSegment(seg)
		assert.Error(t, err, seg)
	}
}

func TestIndexAssign(t *testing.T) {
	ix := NewIndex()

	k1, err := ix.Assign("1700000125000", "cpu=20")
	require.NoError(t, err)
	k2, err := ix.Assign("1700000000000", "cpu=10")
	require.NoError(t, err)
	k3, err := ix.Assign("1700003700000", "cpu=5")
	require.NoError(t, err)
	_, err = ix.Assign("1700000000000", "")
	require.NoError(t, err)

	assert.Equal(t, k1, k2)
	assert.NotEqual(t, k1, k3)

	assert.Equal(t, 2, ix.Len())
	assert.Equal(t, 4, ix.Count())
	assert.Equal(t, []Key{"2023-11-14T22:00:00", "2023-11-14T23:00:00"}, ix.Keys())

	// insertion order; sorting is the flusher's job
	assert.Equal(t, []string{"1700000125000 cpu=20", "1700000000000 cpu=10", "1700000000000 "}, ix.Lines(k1))
	assert.Equal(t, []string{"1700003700000 cpu=5"}, ix.Lines(k3))
}

func TestIndexAssignErrorLeavesIndexUnchanged(t *testing.T) {
	ix := NewIndex()

	_, err := ix.Assign("not-a-number", "cpu=1")
	assert.ErrorIs(t, err, ErrTimestampSyntax)
	assert.Equal(t, 0, ix.Len())
	assert.Equal(t, 0, ix.Count())
}

func TestIndexKeepsDuplicates(t *testing.T) {
	ix := NewIndex()
	for i := 0; i < 3; i++ {
		_, err := ix.Assign("1700000000000", "cpu=10")
		require.NoError(t, err)
	}
	assert.Len(t, ix.Lines("2023-11-14T22:00:00"), 3)
}

func TestIndexAllOrderedAndStoppable(t *testing.T) {
	ix := NewIndex()
	for _, ts := range []string{"1700003700000", "1700000000000", "1700007300000"} {
		_, err := ix.Assign(ts, "m")
		require.NoError(t, err)
	}

	var keys []Key
	for k := range ix.All() {
		keys = append(keys, k)
	}
	assert.Equal(t, []Key{"2023-11-14T22:00:00", "2023-11-14T23:00:00", "2023-11-15T00:00:00"}, keys)

	n := 0
	for range ix.All() {
		n++
		break
	}
	assert.Equal(t, 1, n)
}
