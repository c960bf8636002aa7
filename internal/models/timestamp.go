// ABOUTME: Wire form for record timestamps: UTC with exactly three fractional digits
// ABOUTME: Matches the millisecond ISO-8601 strings written by browser extensions

package models

import (
	"bytes"
	"fmt"
	"time"
)

// TimestampLayout is the export format, e.g. 2024-03-01T12:00:00.000Z.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// Timestamp marshals as a millisecond UTC string. Any RFC 3339 offset is
// accepted on input and converted to UTC.
type Timestamp struct {
	time.Time
}

// NewTimestamp converts t to the stored precision.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: CanonicalTime(t)}
}

// CanonicalTime drops the zone and sub-millisecond digits of t.
func CanonicalTime(t time.Time) time.Time {
	if t.IsZero() {
		return time.Time{}
	}
	return t.UTC().Truncate(time.Millisecond)
}

// MarshalJSON implements json.Marshaler.
func (ts Timestamp) MarshalJSON() ([]byte, error) {
	if y := ts.UTC().Year(); y < 0 || y > 9999 {
		return nil, fmt.Errorf("timestamp year %d outside [0,9999]", y)
	}
	b := make([]byte, 0, len(TimestampLayout)+2)
	b = append(b, '"')
	b = ts.UTC().AppendFormat(b, TimestampLayout)
	return append(b, '"'), nil
}

// UnmarshalJSON implements json.Unmarshaler. null leaves the zero time.
func (ts *Timestamp) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		ts.Time = time.Time{}
		return nil
	}
	var t time.Time
	if err := t.UnmarshalJSON(data); err != nil {
		return err
	}
	ts.Time = CanonicalTime(t)
	return nil
}

func timestamps(in []time.Time) []Timestamp {
	out := make([]Timestamp, len(in))
	for i, t := range in {
		out[i] = Timestamp{Time: t}
	}
	return out
}

func times(in []Timestamp) []time.Time {
	out := make([]time.Time, len(in))
	for i, t := range in {
		out[i] = t.Time
	}
	return out
}
