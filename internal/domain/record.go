package domain

import (
	"fmt"
	"math"
	"strconv"
	"time"
)

const (
	recordTimeLayout      = "2006-01-02 15:04:05"
	recordTimeLayoutMicro = "2006-01-02 15:04:05.000000"
)

// Record is one completed invocation of a tracked function.
type Record struct {
	DurationMs float64   `json:"duration_ms"`
	Timestamp  time.Time `json:"timestamp"`
}

func NewRecord(durationMs float64, timestamp time.Time) Record {
	return Record{DurationMs: durationMs, Timestamp: timestamp.UTC()}
}

// String renders the duration rounded to 4 decimals, e.g.
// "12.3457ms @ 2024-01-01 00:00:00.250000 UTC". The fractional seconds are
// omitted when the timestamp has no microseconds.
func (r Record) String() string {
	rounded := math.Round(r.DurationMs*1e4) / 1e4
	ts := r.Timestamp.UTC()
	layout := recordTimeLayout
	if ts.Nanosecond()/int(time.Microsecond) != 0 {
		layout = recordTimeLayoutMicro
	}
	return fmt.Sprintf("%sms @ %s UTC",
		strconv.FormatFloat(rounded, 'f', -1, 64),
		ts.Format(layout))
}
