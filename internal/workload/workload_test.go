package workload

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"perftracker/internal/ledger"
	"perftracker/internal/repository"
	"perftracker/internal/tracker"
)

func memDB(t *testing.T) string {
	return fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
}

func TestRun_RecordsEveryStoreCall(t *testing.T) {
	l := ledger.New(ledger.Options{})
	tr := tracker.New(l, tracker.Options{MaxEntries: -1})

	res, err := Run(context.Background(), memDB(t), tr, Options{
		Iterations: 2,
		Span:       time.Minute,
		Step:       10 * time.Second,
		Seed:       1,
	})
	require.NoError(t, err)

	assert.Equal(t, 2, res.Iterations)
	assert.Equal(t, 14, res.Stored)

	records, ok := l.Get(repository.KeyStoreEvent)
	require.True(t, ok)
	assert.Len(t, records, 14)

	for _, key := range []string{KeyIteration, repository.KeyGetEvents, repository.KeyCountEvents} {
		records, ok := l.Get(key)
		require.True(t, ok, key)
		assert.Len(t, records, 2, key)
	}
	records, ok = l.Get(repository.KeyInit)
	require.True(t, ok)
	assert.Len(t, records, 1)
}

func TestRun_Untracked(t *testing.T) {
	res, err := Run(context.Background(), memDB(t), nil, Options{Iterations: 1, Span: 20 * time.Second, Step: 10 * time.Second})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Stored)
}

func TestRun_StartsFromEmptyTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "workload.db")
	opts := Options{Iterations: 2, Span: 20 * time.Second, Step: 10 * time.Second, Seed: 1}

	first, err := Run(context.Background(), path, nil, opts)
	require.NoError(t, err)
	second, err := Run(context.Background(), path, nil, opts)
	require.NoError(t, err)
	assert.Equal(t, first.Stored, second.Stored)

	store := repository.NewSQLiteStore(path, nil)
	require.NoError(t, store.Init())
	defer store.Close()
	n, err := store.CountEvents(context.Background())
	require.NoError(t, err)
	assert.Equal(t, second.Stored, n, "the second run must not build on the first run's rows")
}

func TestRun_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Run(ctx, memDB(t), nil, Options{Iterations: 3})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestReport(t *testing.T) {
	l := ledger.New(ledger.Options{})
	require.NoError(t, l.Add("db.Query", 2, 0))
	require.NoError(t, l.Add("db.Query", 4, 0))
	require.NoError(t, l.Add("cache.Get", 0.5, 0))

	var buf bytes.Buffer
	require.NoError(t, Report(&buf, l, ledger.AllTime))

	out := buf.String()
	assert.Contains(t, out, "db.Query")
	assert.Contains(t, out, "cache.Get")
	assert.Contains(t, out, "3.0000")
}

func TestCompare(t *testing.T) {
	var buf bytes.Buffer
	err := Compare(&buf,
		Result{Iterations: 10, Stored: 100, Elapsed: 100 * time.Millisecond},
		Result{Iterations: 10, Stored: 100, Elapsed: 110 * time.Millisecond},
	)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "+10.00%")
}
