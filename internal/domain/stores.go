package domain

import "context"

// EventStore is the durable append-only log backing the registry.
// Append must be atomic: a partially written event is a corrupt log.
// Load returns every event in sequence order.
type EventStore interface {
	Append(ctx context.Context, e *Event) error
	Load(ctx context.Context) ([]Event, error)
}
