package domain

import "context"

// Event is a row produced by the sample workload.
type Event struct {
	Timestamp int64  `json:"timestamp"`
	Name      string `json:"name"`
	Size      int    `json:"size"`
}

type EventStore interface {
	Init() error
	StoreEvent(ctx context.Context, event Event) error
	GetEvents(ctx context.Context, startTime, endTime int64, limit, offset int) ([]Event, error)
	CountEvents(ctx context.Context) (int, error)
	DeleteEvents(ctx context.Context) (int64, error)
	Close() error
}
