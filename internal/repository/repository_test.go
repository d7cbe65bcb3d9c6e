package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"perftracker/internal/domain"
	"perftracker/internal/ledger"
	"perftracker/internal/tracker"
)

func newTestStore(t *testing.T, tr *tracker.Tracker) *SQLiteStore {
	t.Helper()
	store := NewSQLiteStore(filepath.Join(t.TempDir(), "events.db"), tr)
	require.NoError(t, store.Init())
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSQLiteStore_Init(t *testing.T) {
	store := NewSQLiteStore(filepath.Join(t.TempDir(), "init.db"), nil)
	assert.NoError(t, store.Init(), "Init should not return an error")
	assert.NoError(t, store.Close())
}

func TestSQLiteStore_CloseUnopened(t *testing.T) {
	assert.NoError(t, NewSQLiteStore("unused.db", nil).Close())
}

func TestSQLiteStore_StoreEvent(t *testing.T) {
	store := newTestStore(t, nil)
	ctx := context.Background()

	event := domain.Event{Timestamp: time.Now().Unix(), Name: "signup", Size: 128}
	require.NoError(t, store.StoreEvent(ctx, event))

	got, err := store.GetEvents(ctx, event.Timestamp, event.Timestamp, 0, 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, event, got[0])

	n, err := store.CountEvents(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestSQLiteStore_GetEvents(t *testing.T) {
	store := newTestStore(t, nil)
	ctx := context.Background()
	now := time.Now().Unix()

	stored := []domain.Event{
		{Timestamp: now - 50, Name: "a", Size: 1},
		{Timestamp: now - 40, Name: "b", Size: 2},
		{Timestamp: now - 30, Name: "c", Size: 3},
		{Timestamp: now - 20, Name: "d", Size: 4},
		{Timestamp: now - 10, Name: "e", Size: 5},
		{Timestamp: now, Name: "f", Size: 6},
	}
	for _, e := range stored {
		require.NoError(t, store.StoreEvent(ctx, e))
	}

	// case 1: full range
	got, err := store.GetEvents(ctx, now-100, now+100, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, stored, got)

	// case 2: partial range
	got, err = store.GetEvents(ctx, now-45, now-5, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, stored[1:5], got)

	// case 3: empty range
	got, err = store.GetEvents(ctx, now+10, now+20, 0, 0)
	require.NoError(t, err)
	assert.Empty(t, got)

	// case 4: cancelled context
	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	got, err = store.GetEvents(cancelled, now-100, now+100, 0, 0)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "context canceled")
	assert.Empty(t, got)

	// case 5: limit and offset
	got, err = store.GetEvents(ctx, now-100, now+100, 2, 2)
	require.NoError(t, err)
	assert.Equal(t, stored[2:4], got)

	// case 6: offset past the end
	got, err = store.GetEvents(ctx, now-100, now+100, 2, 10)
	require.NoError(t, err)
	assert.Empty(t, got)

	// case 7: negative offset means 0
	got, err = store.GetEvents(ctx, now-100, now+100, 2, -5)
	require.NoError(t, err)
	assert.Equal(t, stored[0:2], got)
}

func TestSQLiteStore_MethodsAreTracked(t *testing.T) {
	l := ledger.New(ledger.Options{})
	store := newTestStore(t, tracker.New(l, tracker.Options{MaxEntries: 3}))
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, store.StoreEvent(ctx, domain.Event{Timestamp: int64(i), Name: "x", Size: i}))
	}
	_, err := store.GetEvents(ctx, 0, 10, 0, 0)
	require.NoError(t, err)
	_, err = store.CountEvents(ctx)
	require.NoError(t, err)

	assert.Equal(t, []string{KeyCountEvents, KeyGetEvents, KeyInit, KeyStoreEvent}, l.Keys())

	inserts, ok := l.Get(KeyStoreEvent)
	require.True(t, ok)
	assert.Len(t, inserts, 3, "tracker retention applies")
	assert.Greater(t, l.AvgTime(KeyStoreEvent, ledger.AllTime, false), 0.0)
}

func TestSQLiteStore_InMemory(t *testing.T) {
	store := NewSQLiteStore("file:repo_test?mode=memory&cache=shared", nil)
	require.NoError(t, store.Init())
	defer store.Close()

	ctx := context.Background()
	require.NoError(t, store.StoreEvent(ctx, domain.Event{Timestamp: 1, Name: "mem", Size: 1}))
	n, err := store.CountEvents(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestSQLiteStore_DeleteEvents(t *testing.T) {
	store := newTestStore(t, nil)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, store.StoreEvent(ctx, domain.Event{Timestamp: int64(i), Name: "x", Size: i}))
	}

	n, err := store.DeleteEvents(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	count, err := store.CountEvents(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	n, err = store.DeleteEvents(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}
