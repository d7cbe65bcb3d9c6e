package ledger

import (
	"time"

	"perftracker/internal/domain"
)

// selectWindow returns the records a window-aware query should aggregate.
// A non-positive window, or one reaching back past the oldest record,
// selects everything. Otherwise only records stamped at or after
// now-window survive.
func selectWindow(records []domain.Record, window time.Duration, now time.Time) []domain.Record {
	if window <= 0 || len(records) == 0 {
		return records
	}

	oldest, _ := bounds(records)
	if window >= now.Sub(oldest) {
		return records
	}

	cutoff := now.Add(-window)
	recent := make([]domain.Record, 0, len(records))
	for _, r := range records {
		if !r.Timestamp.Before(cutoff) {
			recent = append(recent, r)
		}
	}
	return recent
}

// bounds returns the earliest and latest timestamps. Records are normally in
// timestamp order already; scanning keeps a stepped-back wall clock from
// producing a negative span.
func bounds(records []domain.Record) (first, last time.Time) {
	first, last = records[0].Timestamp, records[0].Timestamp
	for _, r := range records[1:] {
		if r.Timestamp.Before(first) {
			first = r.Timestamp
		}
		if r.Timestamp.After(last) {
			last = r.Timestamp
		}
	}
	return first, last
}

func callsPerMinute(records []domain.Record) float64 {
	if len(records) == 0 {
		return 0
	}
	first, last := bounds(records)
	span := last.Sub(first).Minutes()
	if span <= 0 {
		return 0
	}
	return float64(len(records)) / span
}

func meanDuration(records []domain.Record) float64 {
	if len(records) == 0 {
		return 0
	}
	var total float64
	for _, r := range records {
		total += r.DurationMs
	}
	return total / float64(len(records))
}
