// Package workload drives the SQLite event store so the ledger has real
// measurements to report on.
package workload

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"perftracker/internal/domain"
	"perftracker/internal/repository"
	"perftracker/internal/tracker"
)

// KeyIteration is the key one full Run iteration is recorded under.
const KeyIteration = "workload.Iteration"

var eventNames = []string{"login", "upload", "download", "logout"}

type Options struct {
	// Iterations is the number of ingest/query rounds. Values below 1 mean 1.
	Iterations int
	// Span and Step shape the synthetic timeline of each round.
	Span time.Duration
	Step time.Duration
	Seed int64
}

func (o *Options) defaults() {
	if o.Iterations < 1 {
		o.Iterations = 1
	}
	if o.Span <= 0 {
		o.Span = 5 * time.Minute
	}
	if o.Step <= 0 {
		o.Step = 10 * time.Second
	}
	if o.Seed == 0 {
		o.Seed = time.Now().UnixNano()
	}
}

type Result struct {
	Iterations int
	Stored     int
	Elapsed    time.Duration
}

// Run opens a store at dbPath and performs the rounds. With a nil tracker
// nothing is recorded, which gives the untracked baseline for Compare.
func Run(ctx context.Context, dbPath string, t *tracker.Tracker, opts Options) (Result, error) {
	opts.defaults()

	store := repository.NewSQLiteStore(dbPath, t)
	if err := store.Init(); err != nil {
		return Result{}, err
	}
	defer store.Close()

	// Every run starts from an empty table so tracked and untracked runs
	// against the same database do equal work.
	if _, err := store.DeleteEvents(ctx); err != nil {
		return Result{}, err
	}

	rng := rand.New(rand.NewSource(opts.Seed))
	res := Result{Iterations: opts.Iterations}
	start := time.Now()

	for i := 0; i < opts.Iterations; i++ {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		stop := func() {}
		if t != nil {
			stop = t.Start(KeyIteration)
		}
		n, err := iterate(ctx, store, rng, opts)
		stop()
		res.Stored += n
		if err != nil {
			return res, fmt.Errorf("iteration %d: %w", i, err)
		}
	}

	res.Elapsed = time.Since(start)
	return res, nil
}

func iterate(ctx context.Context, s domain.EventStore, rng *rand.Rand, opts Options) (int, error) {
	endTime := time.Now()
	startTime := endTime.Add(-opts.Span)

	stored := 0
	for ts := startTime; !ts.After(endTime); ts = ts.Add(opts.Step) {
		event := domain.Event{
			Timestamp: ts.Unix(),
			Name:      eventNames[rng.Intn(len(eventNames))],
			Size:      rng.Intn(500001),
		}
		if err := s.StoreEvent(ctx, event); err != nil {
			return stored, err
		}
		stored++
	}

	if _, err := s.GetEvents(ctx, startTime.Unix(), endTime.Unix(), 10, 0); err != nil {
		return stored, err
	}
	if _, err := s.CountEvents(ctx); err != nil {
		return stored, err
	}
	return stored, nil
}
