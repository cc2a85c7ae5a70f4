package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/scriptorium/claimledger/internal/domain"
)

// MemEventStore keeps the log in memory. Used by tests and by ephemeral
// runs that build a registry from scratch.
type MemEventStore struct {
	mu     sync.Mutex
	events []domain.Event
}

func NewMem() *MemEventStore {
	return &MemEventStore{}
}

func (s *MemEventStore) Load(ctx context.Context) ([]domain.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Event(nil), s.events...), nil
}

func (s *MemEventStore) Append(ctx context.Context, e *domain.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e.Seq != uint64(len(s.events))+1 {
		return fmt.Errorf("append out of sequence: got %d, want %d", e.Seq, len(s.events)+1)
	}
	s.events = append(s.events, *e)
	return nil
}

// Len returns the number of appended events.
func (s *MemEventStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}
