package domain

import "time"

// Summary is a point-in-time view of one function's history, optionally
// restricted to a trailing window.
type Summary struct {
	Key    string        `json:"key"`
	Window time.Duration `json:"window_ns"`
	Count  int           `json:"count"`
	Cpm    float64       `json:"cpm"`
	AvgMs  float64       `json:"avg_ms"`
	MinMs  float64       `json:"min_ms"`
	MaxMs  float64       `json:"max_ms"`
	P50Ms  float64       `json:"p50_ms"`
	P95Ms  float64       `json:"p95_ms"`
	P99Ms  float64       `json:"p99_ms"`
	First  time.Time     `json:"first"`
	Last   time.Time     `json:"last"`
}

// Ledger stores per-function execution records and answers rate and
// latency queries over them. A non-positive window means the full history.
type Ledger interface {
	Add(key string, durationMs float64, maxEntries int) error
	Get(key string) ([]Record, bool)
	Cpm(key string, window time.Duration) float64
	AvgTime(key string, window time.Duration, inSeconds bool) float64
	Summary(key string, window time.Duration) (Summary, bool)
	Keys() []string
}
