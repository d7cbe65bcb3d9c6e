// Package ledger keeps a bounded execution history per tracked function and
// derives calls-per-minute and average latency from it, either over the whole
// history or over a trailing window.
package ledger

import (
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"perftracker/internal/clock"
	"perftracker/internal/domain"
)

// AllTime selects the full stored history in window-aware queries.
const AllTime time.Duration = 0

var _ domain.Ledger = (*Ledger)(nil)

type Options struct {
	Clock clock.Clock
}

// series is the history of one key. mu guards records; a reader always copies
// under the lock so it never sees a half-applied append or truncation.
type series struct {
	mu      sync.Mutex
	records []domain.Record
}

// Ledger is safe for concurrent use. The zero value is not usable; call New.
type Ledger struct {
	mu      sync.RWMutex
	entries map[string]*series
	clock   clock.Clock
}

func New(opts Options) *Ledger {
	if opts.Clock == nil {
		opts.Clock = clock.Real{}
	}
	return &Ledger{
		entries: make(map[string]*series),
		clock:   opts.Clock,
	}
}

// Add appends a record stamped with the current UTC time. Any key, including
// "", is valid. When maxEntries is positive the key keeps only its
// maxEntries most recent records.
func (l *Ledger) Add(key string, durationMs float64, maxEntries int) error {
	if durationMs < 0 || math.IsNaN(durationMs) || math.IsInf(durationMs, 0) {
		return fmt.Errorf("%w: got %v", ErrInvalidDuration, durationMs)
	}

	s := l.series(key)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = append(s.records, domain.NewRecord(durationMs, l.clock.Now()))
	if maxEntries > 0 && len(s.records) > maxEntries {
		excess := len(s.records) - maxEntries
		copy(s.records, s.records[excess:])
		clear(s.records[maxEntries:])
		s.records = s.records[:maxEntries]
	}
	return nil
}

// Get returns a copy of the records stored for key, oldest first.
func (l *Ledger) Get(key string) ([]domain.Record, bool) {
	records := l.snapshot(key)
	if records == nil {
		return nil, false
	}
	return records, true
}

// Cpm returns calls per minute for key. The rate is the number of selected
// records divided by the time between the oldest and newest of them, so a
// single record, or records sharing one timestamp, yield 0.
func (l *Ledger) Cpm(key string, window time.Duration) float64 {
	records := l.snapshot(key)
	if len(records) == 0 {
		return 0
	}
	return callsPerMinute(selectWindow(records, window, l.clock.Now()))
}

// AvgTime returns the mean duration for key in milliseconds, or in seconds
// when inSeconds is set.
func (l *Ledger) AvgTime(key string, window time.Duration, inSeconds bool) float64 {
	records := l.snapshot(key)
	if len(records) == 0 {
		return 0
	}
	avg := meanDuration(selectWindow(records, window, l.clock.Now()))
	if inSeconds {
		return avg / 1000
	}
	return avg
}

// Summary aggregates the records of key selected by window. The boolean is
// false when the key was never recorded.
func (l *Ledger) Summary(key string, window time.Duration) (domain.Summary, bool) {
	records := l.snapshot(key)
	if records == nil {
		return domain.Summary{}, false
	}

	selected := selectWindow(records, window, l.clock.Now())
	sum := domain.Summary{Key: key, Window: window, Count: len(selected)}
	if len(selected) == 0 {
		return sum, true
	}

	durations := make([]float64, len(selected))
	sum.MinMs = math.Inf(1)
	for i, r := range selected {
		durations[i] = r.DurationMs
		sum.MinMs = math.Min(sum.MinMs, r.DurationMs)
		sum.MaxMs = math.Max(sum.MaxMs, r.DurationMs)
	}
	sum.First, sum.Last = bounds(selected)
	sum.Cpm = callsPerMinute(selected)
	sum.AvgMs = meanDuration(selected)

	pct := CalculateMultiplePercentiles(durations, []float64{50, 95, 99})
	sum.P50Ms, sum.P95Ms, sum.P99Ms = pct[50], pct[95], pct[99]
	return sum, true
}

// Keys returns every tracked key in lexical order.
func (l *Ledger) Keys() []string {
	l.mu.RLock()
	keys := make([]string, 0, len(l.entries))
	for k := range l.entries {
		keys = append(keys, k)
	}
	l.mu.RUnlock()

	sort.Strings(keys)
	return keys
}

func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// Clear drops every key and its history.
func (l *Ledger) Clear() {
	l.mu.Lock()
	l.entries = make(map[string]*series)
	l.mu.Unlock()
}

func (l *Ledger) String() string {
	return fmt.Sprintf("%d functions currently tracked", l.Len())
}

func (l *Ledger) series(key string) *series {
	l.mu.RLock()
	s, ok := l.entries[key]
	l.mu.RUnlock()
	if ok {
		return s
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if s, ok = l.entries[key]; ok {
		return s
	}
	s = &series{}
	l.entries[key] = s
	return s
}

func (l *Ledger) snapshot(key string) []domain.Record {
	l.mu.RLock()
	s, ok := l.entries[key]
	l.mu.RUnlock()
	if !ok {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.records) == 0 {
		return nil
	}
	out := make([]domain.Record, len(s.records))
	copy(out, s.records)
	return out
}
