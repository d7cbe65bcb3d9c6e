// Package tracker measures how long a call takes and forwards the elapsed
// milliseconds to a ledger under a caller-chosen key.
//
//	t := tracker.New(ledger.Default(), tracker.Options{})
//	defer t.Start("billing.ChargeCard")()
package tracker

import (
	"fmt"
	"math"
	"reflect"
	"runtime"
	"strings"
	"sync"
	"time"

	"perftracker/internal/ledger"
	"perftracker/internal/util"
)

// DefaultMaxEntries is the per-key retention used when Options.MaxEntries is zero.
const DefaultMaxEntries = 100

// Recorder is the sink a Tracker forwards measurements to.
type Recorder interface {
	Add(key string, durationMs float64, maxEntries int) error
}

type Logger interface {
	LogEvent(v ...interface{}) error
}

type Options struct {
	// MaxEntries caps the history kept per key. Negative means unbounded.
	MaxEntries int
	Logger     Logger
}

type Tracker struct {
	recorder   Recorder
	maxEntries int
	logger     Logger
}

func New(recorder Recorder, opts Options) *Tracker {
	if opts.MaxEntries == 0 {
		opts.MaxEntries = DefaultMaxEntries
	}
	return &Tracker{
		recorder:   recorder,
		maxEntries: opts.MaxEntries,
		logger:     opts.Logger,
	}
}

// Default returns a Tracker over the process-wide ledger.
func Default() *Tracker {
	return New(ledger.Default(), Options{})
}

// Start begins timing key and returns the function that stops it. The stop
// function records exactly once; later calls are no-ops.
func (t *Tracker) Start(key string) func() {
	start := time.Now()
	var once sync.Once
	return func() {
		once.Do(func() { t.Observe(key, time.Since(start)) })
	}
}

// Observe records an externally measured elapsed time for key.
func (t *Tracker) Observe(key string, elapsed time.Duration) {
	ms := float64(elapsed) / float64(time.Millisecond)

	if err := t.recorder.Add(key, ms, t.maxEntries); err != nil {
		t.log(util.LOG_LEVEL_WARN, fmt.Sprintf("dropping measurement for %s: %v", key, err))
		return
	}
	t.log(util.LOG_LEVEL_DEBUG, fmt.Sprintf("%s took %vms to complete.", key, math.Round(ms*1e6)/1e6))
}

// Track runs fn and records its duration. A panicking fn is still recorded
// before the panic propagates.
func (t *Tracker) Track(key string, fn func()) {
	defer t.Start(key)()
	fn()
}

// TrackErr runs fn, records its duration and returns its error.
func (t *Tracker) TrackErr(key string, fn func() error) error {
	defer t.Start(key)()
	return fn()
}

// Wrap returns a func that tracks fn under key each time it is called.
func (t *Tracker) Wrap(key string, fn func()) func() {
	return func() { t.Track(key, fn) }
}

// Timed runs fn under key and passes its results through.
func Timed[T any](t *Tracker, key string, fn func() (T, error)) (T, error) {
	defer t.Start(key)()
	return fn()
}

// FuncKey derives "pkg.Func" from a function value, dropping the module
// path. Method values and closures keep the runtime's suffixes ("-fm",
// ".func1"). It returns "" for anything that is not a func.
func FuncKey(fn any) string {
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func || v.IsNil() {
		return ""
	}
	f := runtime.FuncForPC(v.Pointer())
	if f == nil {
		return ""
	}
	name := f.Name()
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	return name
}

func (t *Tracker) log(level int, msg string) {
	if t.logger == nil {
		return
	}
	_ = t.logger.LogEvent(level, msg)
}
