package tracker_test

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"perftracker/internal/ledger"
	"perftracker/internal/tracker"
	"perftracker/internal/util"
)

type addCall struct {
	key        string
	durationMs float64
	maxEntries int
}

type stubRecorder struct {
	mu    sync.Mutex
	calls []addCall
	err   error
}

func (s *stubRecorder) Add(key string, durationMs float64, maxEntries int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, addCall{key, durationMs, maxEntries})
	return s.err
}

type stubLogger struct {
	mu    sync.Mutex
	lines []string
	level []int
}

func (s *stubLogger) LogEvent(v ...interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.level = append(s.level, v[0].(int))
	s.lines = append(s.lines, v[1].(string))
	return nil
}

func sleepyWork() { time.Sleep(10 * time.Millisecond) }

func TestTracker_Track(t *testing.T) {
	l := ledger.New(ledger.Options{})
	tr := tracker.New(l, tracker.Options{})

	tr.Track("test_perftracker.test_func", sleepyWork)

	records, ok := l.Get("test_perftracker.test_func")
	require.True(t, ok)
	require.Len(t, records, 1)
	assert.GreaterOrEqual(t, records[0].DurationMs, 10.0)
}

func TestTracker_DefaultMaxEntries(t *testing.T) {
	rec := &stubRecorder{}
	tracker.New(rec, tracker.Options{}).Track("k", func() {})
	tracker.New(rec, tracker.Options{MaxEntries: 2}).Track("k", func() {})
	tracker.New(rec, tracker.Options{MaxEntries: -1}).Track("k", func() {})

	require.Len(t, rec.calls, 3)
	assert.Equal(t, tracker.DefaultMaxEntries, rec.calls[0].maxEntries)
	assert.Equal(t, 2, rec.calls[1].maxEntries)
	assert.Equal(t, -1, rec.calls[2].maxEntries)
}

func TestTracker_MaxEntriesEvicts(t *testing.T) {
	l := ledger.New(ledger.Options{})
	tr := tracker.New(l, tracker.Options{MaxEntries: 2})
	fn := tr.Wrap("test_func", func() {})

	fn()
	fn()
	fn()

	records, _ := l.Get("test_func")
	assert.Len(t, records, 2)
}

func TestTracker_TrackErrAndTimed(t *testing.T) {
	l := ledger.New(ledger.Options{})
	tr := tracker.New(l, tracker.Options{})
	boom := errors.New("boom")

	err := tr.TrackErr("fails", func() error { return boom })
	assert.ErrorIs(t, err, boom)

	n, err := tracker.Timed(tr, "answers", func() (int, error) { return 42, nil })
	require.NoError(t, err)
	assert.Equal(t, 42, n)

	for _, k := range []string{"fails", "answers"} {
		records, ok := l.Get(k)
		assert.True(t, ok, k)
		assert.Len(t, records, 1, k)
	}
}

func TestTracker_RecordsPanickingCall(t *testing.T) {
	l := ledger.New(ledger.Options{})
	tr := tracker.New(l, tracker.Options{})

	assert.Panics(t, func() {
		tr.Track("panics", func() { panic("bad") })
	})

	records, ok := l.Get("panics")
	require.True(t, ok)
	assert.Len(t, records, 1)
}

func TestTracker_StartStopsOnce(t *testing.T) {
	rec := &stubRecorder{}
	tr := tracker.New(rec, tracker.Options{})

	stop := tr.Start("scoped")
	stop()
	stop()

	assert.Len(t, rec.calls, 1)
	assert.GreaterOrEqual(t, rec.calls[0].durationMs, 0.0)
}

func TestTracker_Observe(t *testing.T) {
	rec := &stubRecorder{}
	logger := &stubLogger{}
	tr := tracker.New(rec, tracker.Options{Logger: logger})

	tr.Observe("external", 1500*time.Microsecond)

	require.Len(t, rec.calls, 1)
	assert.Equal(t, 1.5, rec.calls[0].durationMs)
	require.Len(t, logger.lines, 1)
	assert.Equal(t, util.LOG_LEVEL_DEBUG, logger.level[0])
	assert.Equal(t, "external took 1.5ms to complete.", logger.lines[0])
}

func TestTracker_LogsRejectedMeasurement(t *testing.T) {
	rec := &stubRecorder{err: ledger.ErrInvalidDuration}
	logger := &stubLogger{}
	tr := tracker.New(rec, tracker.Options{Logger: logger})

	tr.Track("k", func() {})

	require.Len(t, logger.lines, 1)
	assert.Equal(t, util.LOG_LEVEL_WARN, logger.level[0])
	assert.True(t, strings.HasPrefix(logger.lines[0], "dropping measurement for k"))
}

func TestTracker_Concurrent(t *testing.T) {
	l := ledger.New(ledger.Options{})
	tr := tracker.New(l, tracker.Options{MaxEntries: 10})

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				tr.Track("shared", func() {})
			}
		}()
	}
	wg.Wait()

	records, _ := l.Get("shared")
	assert.Len(t, records, 10)
}

func TestDefault(t *testing.T) {
	ledger.Default().Clear()
	tracker.Default().Track("default.key", func() {})

	records, ok := ledger.GetStats().Get("default.key")
	require.True(t, ok)
	assert.Len(t, records, 1)
}

func TestFuncKey(t *testing.T) {
	assert.Equal(t, "strings.ToUpper", tracker.FuncKey(strings.ToUpper))
	assert.Equal(t, "tracker_test.sleepyWork", tracker.FuncKey(sleepyWork))
	assert.Equal(t, "", tracker.FuncKey("not a func"))

	var nilFn func()
	assert.Equal(t, "", tracker.FuncKey(nilFn))
}

func TestTracker_EmptyKeyIsRecorded(t *testing.T) {
	l := ledger.New(ledger.Options{})
	logger := &stubLogger{}
	tr := tracker.New(l, tracker.Options{Logger: logger})

	tr.Observe("", 2*time.Millisecond)

	records, ok := l.Get("")
	require.True(t, ok)
	assert.Len(t, records, 1)
	assert.NotContains(t, logger.level, util.LOG_LEVEL_WARN)
}
