package registry

import (
	"context"
	"errors"
	"testing"

	"github.com/scriptorium/claimledger/internal/domain"
	"github.com/scriptorium/claimledger/internal/store"
	"go.uber.org/zap"
)

func newTestRegistry(t *testing.T) (*Registry, *store.MemEventStore) {
	t.Helper()
	es := store.NewMem()
	reg, err := Open(context.Background(), es, zap.NewNop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return reg, es
}

func mustInsert(t *testing.T, reg *Registry, id string, tier domain.Tier, statement string) domain.ClaimID {
	t.Helper()
	got, err := reg.Insert(context.Background(), &domain.Claim{
		ID:        domain.ClaimID(id),
		Statement: statement,
		Tier:      tier,
	})
	if err != nil {
		t.Fatalf("Insert(%s): %v", id, err)
	}
	return got
}

func TestInsertAndGet(t *testing.T) {
	reg, _ := newTestRegistry(t)
	ctx := context.Background()

	id, err := reg.Insert(ctx, &domain.Claim{
		Statement:  "folio gatherings are misordered",
		Tier:       domain.TierEstablished,
		Scope:      "codicology",
		Provenance: "phase1/gatherings.md",
	})
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if id != "C1" {
		t.Fatalf("assigned id = %s, want C1", id)
	}

	c, ok := reg.Get(id)
	if !ok {
		t.Fatal("Get returned false for inserted claim")
	}
	if c.Status != domain.StatusActive {
		t.Errorf("status = %s, want ACTIVE", c.Status)
	}
	if c.Scope != "codicology" {
		t.Errorf("scope = %q", c.Scope)
	}

	if _, ok := reg.Get("C9999"); ok {
		t.Error("Get(C9999) should return false")
	}
}

func TestInsertRejections(t *testing.T) {
	reg, _ := newTestRegistry(t)
	ctx := context.Background()
	mustInsert(t, reg, "C10", domain.TierFrozen, "a fact")

	t.Run("duplicate id", func(t *testing.T) {
		_, err := reg.Insert(ctx, &domain.Claim{ID: "C10", Statement: "again", Tier: 2})
		if !errors.Is(err, ErrDuplicateID) {
			t.Errorf("err = %v, want ErrDuplicateID", err)
		}
	})

	t.Run("invalid tier", func(t *testing.T) {
		_, err := reg.Insert(ctx, &domain.Claim{Statement: "x", Tier: 5})
		if !errors.Is(err, ErrInvalidTier) {
			t.Errorf("err = %v, want ErrInvalidTier", err)
		}
	})

	t.Run("empty statement", func(t *testing.T) {
		_, err := reg.Insert(ctx, &domain.Claim{Tier: 2})
		if !errors.Is(err, ErrEmptyStatement) {
			t.Errorf("err = %v, want ErrEmptyStatement", err)
		}
	})

	t.Run("unknown supersedes target", func(t *testing.T) {
		_, err := reg.Insert(ctx, &domain.Claim{
			Statement:  "y",
			Tier:       2,
			Supersedes: []domain.ClaimID{"C500"},
		})
		if !errors.Is(err, ErrUnknownClaim) {
			t.Errorf("err = %v, want ErrUnknownClaim", err)
		}
	})

	// A rejected mutation must leave no trace.
	if v := reg.Version(); v != 1 {
		t.Errorf("version = %d after rejected mutations, want 1", v)
	}
}

func TestReviseChains(t *testing.T) {
	reg, _ := newTestRegistry(t)
	ctx := context.Background()
	id := mustInsert(t, reg, "C20", domain.TierEstablished, "about 38 distinct glyphs")

	revA, err := reg.Revise(ctx, id, "exactly 40 distinct glyphs")
	if err != nil {
		t.Fatalf("Revise: %v", err)
	}
	if revA != "C20.a" {
		t.Errorf("first revision id = %s, want C20.a", revA)
	}
	revB, err := reg.Revise(ctx, id, "40 glyphs, 2 rare variants")
	if err != nil {
		t.Fatalf("Revise: %v", err)
	}
	if revB != "C20.b" {
		t.Errorf("second revision id = %s, want C20.b", revB)
	}

	c, _ := reg.Get(id)
	if c.Status != domain.StatusRevised {
		t.Errorf("status = %s, want REVISED", c.Status)
	}
	if c.Statement != "about 38 distinct glyphs" {
		t.Error("original statement was overwritten by revision")
	}
	if got := c.CurrentStatement(); got != "40 glyphs, 2 rare variants" {
		t.Errorf("CurrentStatement() = %q", got)
	}
	if len(c.Revisions) != 2 {
		t.Fatalf("revisions = %d, want 2", len(c.Revisions))
	}
}

func TestImmutableTiers(t *testing.T) {
	reg, _ := newTestRegistry(t)
	ctx := context.Background()
	frozen := mustInsert(t, reg, "C30", domain.TierFrozen, "frozen fact")
	falsified := mustInsert(t, reg, "C31", domain.TierFalsified, "hypothesis is dead")

	for _, id := range []domain.ClaimID{frozen, falsified} {
		if _, err := reg.Revise(ctx, id, "edited"); !errors.Is(err, ErrImmutableTier) {
			t.Errorf("Revise(%s) err = %v, want ErrImmutableTier", id, err)
		}
		if err := reg.Invalidate(ctx, id, "because", nil); !errors.Is(err, ErrImmutableTier) {
			t.Errorf("Invalidate(%s) err = %v, want ErrImmutableTier", id, err)
		}
	}
}

func TestInvalidate(t *testing.T) {
	reg, _ := newTestRegistry(t)
	ctx := context.Background()
	old := mustInsert(t, reg, "C40", domain.TierEstablished, "old value")
	successor := mustInsert(t, reg, "C41", domain.TierEstablished, "corrected value")

	t.Run("requires reason", func(t *testing.T) {
		if err := reg.Invalidate(ctx, old, "", nil); !errors.Is(err, ErrMissingReason) {
			t.Errorf("err = %v, want ErrMissingReason", err)
		}
	})

	t.Run("unknown claim", func(t *testing.T) {
		if err := reg.Invalidate(ctx, "C999", "because", nil); !errors.Is(err, ErrUnknownClaim) {
			t.Errorf("err = %v, want ErrUnknownClaim", err)
		}
	})

	t.Run("sets status and retains statement", func(t *testing.T) {
		if err := reg.Invalidate(ctx, old, "recount showed 41", &successor); err != nil {
			t.Fatalf("Invalidate: %v", err)
		}
		c, _ := reg.Get(old)
		if c.Status != domain.StatusInvalidated {
			t.Errorf("status = %s", c.Status)
		}
		if c.Statement != "old value" {
			t.Error("invalidation must not alter the statement")
		}
		if c.SupersededBy == nil || *c.SupersededBy != successor {
			t.Error("superseded_by not recorded")
		}
	})

	t.Run("double invalidation rejected", func(t *testing.T) {
		if err := reg.Invalidate(ctx, old, "again", nil); !errors.Is(err, ErrAlreadyInvalidated) {
			t.Errorf("err = %v, want ErrAlreadyInvalidated", err)
		}
	})

	t.Run("revise after invalidation rejected", func(t *testing.T) {
		if _, err := reg.Revise(ctx, old, "zombie edit"); !errors.Is(err, ErrAlreadyInvalidated) {
			t.Errorf("err = %v, want ErrAlreadyInvalidated", err)
		}
	})
}

func TestSnapshotIsolation(t *testing.T) {
	reg, _ := newTestRegistry(t)
	ctx := context.Background()
	id := mustInsert(t, reg, "C50", domain.TierEstablished, "v1")

	snap := reg.Snapshot()
	if snap.Version() != 1 {
		t.Fatalf("snapshot version = %d, want 1", snap.Version())
	}

	if _, err := reg.Revise(ctx, id, "v2"); err != nil {
		t.Fatalf("Revise: %v", err)
	}

	// The pinned snapshot must not observe the later write.
	c, _ := snap.Get(id)
	if c.Status != domain.StatusActive || c.CurrentStatement() != "v1" {
		t.Error("snapshot observed a mutation made after it was taken")
	}

	snap2 := reg.Snapshot()
	if snap2.Version() != 2 {
		t.Errorf("new snapshot version = %d, want 2", snap2.Version())
	}
	c2, _ := snap2.Get(id)
	if c2.CurrentStatement() != "v2" {
		t.Error("new snapshot missing the revision")
	}
}

func TestReplayReproducesState(t *testing.T) {
	reg, es := newTestRegistry(t)
	ctx := context.Background()

	a := mustInsert(t, reg, "C60", domain.TierEstablished, "alpha")
	b := mustInsert(t, reg, "C61", domain.TierEstablished, "beta")
	if _, err := reg.Revise(ctx, a, "alpha prime"); err != nil {
		t.Fatal(err)
	}
	if err := reg.Invalidate(ctx, b, "withdrawn", nil); err != nil {
		t.Fatal(err)
	}

	// A fresh registry folded from the same log must match exactly.
	replayed, err := Open(ctx, es, zap.NewNop())
	if err != nil {
		t.Fatalf("replay Open: %v", err)
	}
	if replayed.Version() != reg.Version() {
		t.Fatalf("replayed version = %d, want %d", replayed.Version(), reg.Version())
	}
	for _, id := range []domain.ClaimID{a, b} {
		want, _ := reg.Get(id)
		got, ok := replayed.Get(id)
		if !ok {
			t.Fatalf("replayed registry missing %s", id)
		}
		if got.Status != want.Status || got.CurrentStatement() != want.CurrentStatement() {
			t.Errorf("replayed %s diverges: %+v vs %+v", id, got, want)
		}
	}
}

func TestNextID(t *testing.T) {
	reg, _ := newTestRegistry(t)
	mustInsert(t, reg, "C250", domain.TierEstablished, "explicit id")
	if next := reg.NextID(); next != "C251" {
		t.Errorf("NextID() = %s, want C251", next)
	}
}
