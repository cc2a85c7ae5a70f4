package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/scriptorium/claimledger/internal/domain"
)

func tier(t domain.Tier) *domain.Tier { return &t }

func testEvent(seq uint64) *domain.Event {
	return &domain.Event{
		Seq:       seq,
		Kind:      domain.EventClaimInserted,
		ClaimID:   domain.MakeClaimID(int(seq)),
		At:        time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
		Statement: "statement",
		Tier:      tier(domain.TierEstablished),
	}
}

func TestFileStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger", "registry.log")
	ctx := context.Background()

	s, err := OpenFile(path)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	for seq := uint64(1); seq <= 3; seq++ {
		if err := s.Append(ctx, testEvent(seq)); err != nil {
			t.Fatalf("Append(%d): %v", seq, err)
		}
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	reopened, err := OpenFile(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	events, err := reopened.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("loaded %d events, want 3", len(events))
	}
	if events[2].Seq != 3 || events[2].ClaimID != "C3" {
		t.Errorf("event 3 = %+v", events[2])
	}

	// Appends after a reload continue the sequence.
	if err := reopened.Append(ctx, testEvent(4)); err != nil {
		t.Errorf("Append after reload: %v", err)
	}
}

func TestFileStoreEmptyLog(t *testing.T) {
	s, err := OpenFile(filepath.Join(t.TempDir(), "registry.log"))
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	events, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("Load on fresh log: %v", err)
	}
	if len(events) != 0 {
		t.Errorf("fresh log returned %d events", len(events))
	}
}

func TestFileStoreCorruption(t *testing.T) {
	ctx := context.Background()

	write := func(t *testing.T, content string) *FileEventStore {
		t.Helper()
		path := filepath.Join(t.TempDir(), "registry.log")
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
		s, err := OpenFile(path)
		if err != nil {
			t.Fatal(err)
		}
		t.Cleanup(func() { s.Close() })
		return s
	}

	t.Run("malformed json", func(t *testing.T) {
		s := write(t, `{"seq":1,"kind":"claim.inserted","claim_id":"C1"}`+"\n{not json\n")
		_, err := s.Load(ctx)
		var corrupt *CorruptLogError
		if !errors.As(err, &corrupt) {
			t.Fatalf("Load() err = %v, want CorruptLogError", err)
		}
		if corrupt.Line != 2 {
			t.Errorf("corrupt line = %d, want 2", corrupt.Line)
		}
	})

	t.Run("unknown kind", func(t *testing.T) {
		s := write(t, `{"seq":1,"kind":"claim.teleported","claim_id":"C1"}`+"\n")
		var corrupt *CorruptLogError
		if _, err := s.Load(ctx); !errors.As(err, &corrupt) {
			t.Fatalf("Load() err = %v, want CorruptLogError", err)
		}
	})

	t.Run("sequence gap", func(t *testing.T) {
		s := write(t, `{"seq":1,"kind":"claim.inserted","claim_id":"C1"}`+"\n"+
			`{"seq":3,"kind":"claim.inserted","claim_id":"C3"}`+"\n")
		var corrupt *CorruptLogError
		if _, err := s.Load(ctx); !errors.As(err, &corrupt) {
			t.Fatalf("Load() err = %v, want CorruptLogError", err)
		}
	})
}

func TestFileStoreRejectsOutOfSequenceAppend(t *testing.T) {
	s, err := OpenFile(filepath.Join(t.TempDir(), "registry.log"))
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	ctx := context.Background()

	if err := s.Append(ctx, testEvent(1)); err != nil {
		t.Fatal(err)
	}
	if err := s.Append(ctx, testEvent(3)); err == nil {
		t.Error("gap append accepted")
	}
	if err := s.Append(ctx, testEvent(1)); err == nil {
		t.Error("replayed seq accepted")
	}
}

func TestMemStore(t *testing.T) {
	s := NewMem()
	ctx := context.Background()

	if err := s.Append(ctx, testEvent(1)); err != nil {
		t.Fatal(err)
	}
	if err := s.Append(ctx, testEvent(2)); err != nil {
		t.Fatal(err)
	}
	if err := s.Append(ctx, testEvent(4)); err == nil {
		t.Error("gap append accepted")
	}

	events, err := s.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 2 || s.Len() != 2 {
		t.Errorf("loaded %d events, Len=%d, want 2", len(events), s.Len())
	}

	// Load hands out a copy, not the backing slice.
	events[0].ClaimID = "C999"
	again, _ := s.Load(ctx)
	if again[0].ClaimID != "C1" {
		t.Error("Load exposed the internal event slice")
	}
}
