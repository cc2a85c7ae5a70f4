package registry

import (
	"sort"

	"github.com/scriptorium/claimledger/internal/domain"
)

// Snapshot is an immutable, versioned view of the registry. Any number of
// readers may share one snapshot across goroutines; mutations always produce
// a later version and never touch an existing snapshot.
type Snapshot struct {
	version uint64
	claims  map[domain.ClaimID]domain.Claim
	order   []domain.ClaimID
}

// Snapshot pins the current registry state. Claims are value-copied so the
// writer can keep mutating underneath.
func (r *Registry) Snapshot() *Snapshot {
	s := &Snapshot{
		version: r.version,
		claims:  make(map[domain.ClaimID]domain.Claim, len(r.claims)),
		order:   append([]domain.ClaimID(nil), r.order...),
	}
	for id, c := range r.claims {
		s.claims[id] = *c.Clone()
	}
	return s
}

func (s *Snapshot) Version() uint64 { return s.version }

func (s *Snapshot) Len() int { return len(s.claims) }

// Get returns a copy of the claim in this snapshot.
func (s *Snapshot) Get(id domain.ClaimID) (domain.Claim, bool) {
	c, ok := s.claims[id]
	return c, ok
}

// All returns every claim ordered by numeric id.
func (s *Snapshot) All() []domain.Claim {
	out := make([]domain.Claim, 0, len(s.claims))
	for _, c := range s.claims {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.Num() < out[j].ID.Num() })
	return out
}

// ByInsertion returns every claim in ledger insertion order.
func (s *Snapshot) ByInsertion() []domain.Claim {
	out := make([]domain.Claim, 0, len(s.order))
	for _, id := range s.order {
		if c, ok := s.claims[id]; ok {
			out = append(out, c)
		}
	}
	return out
}
