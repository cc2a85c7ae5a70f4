package contract

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/scriptorium/claimledger/internal/domain"
	"github.com/scriptorium/claimledger/internal/graph"
	"github.com/scriptorium/claimledger/internal/registry"
	"github.com/scriptorium/claimledger/internal/store"
	"go.uber.org/zap"
)

func contractSnapshot(t *testing.T) *registry.Snapshot {
	t.Helper()
	ctx := context.Background()
	reg, err := registry.Open(ctx, store.NewMem(), zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}

	insert := func(id string, tier domain.Tier, stmt string) domain.ClaimID {
		cid, err := reg.Insert(ctx, &domain.Claim{ID: domain.ClaimID(id), Statement: stmt, Tier: tier})
		if err != nil {
			t.Fatalf("Insert(%s): %v", id, err)
		}
		return cid
	}

	insert("C1", domain.TierFrozen, "110 folios survive")
	insert("C2", domain.TierEstablished, "40 distinct glyphs")
	insert("C3", domain.TierSpeculative, "the scribe was left handed")
	dead := insert("C4", domain.TierEstablished, "gathering 7 precedes gathering 5")
	if err := reg.Invalidate(ctx, dead, "collation redone", nil); err != nil {
		t.Fatal(err)
	}

	return reg.Snapshot()
}

func newTestGenerator(t *testing.T) *Generator {
	t.Helper()
	snap := contractSnapshot(t)
	g, err := graph.Build(snap)
	if err != nil {
		t.Fatalf("graph.Build: %v", err)
	}
	return NewGenerator(snap, g, zap.NewNop())
}

func validSpec() *Spec {
	return &Spec{
		Name:    "transcription-v1",
		Version: 1,
		Claims:  []domain.ClaimID{"C2", "C1"},
		Guarantees: []domain.Guarantee{
			{Statement: "glyph inventory is complete", Traces: []domain.ClaimID{"C1", "C2"}},
		},
	}
}

func TestGenerate(t *testing.T) {
	gen := newTestGenerator(t)

	c, err := gen.Generate(validSpec())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if c.Name != "transcription-v1" || c.Version != 1 {
		t.Errorf("header = %s v%d", c.Name, c.Version)
	}
	// Claims come out sorted regardless of spec order.
	if len(c.Claims) != 2 || c.Claims[0] != "C1" || c.Claims[1] != "C2" {
		t.Errorf("claims = %v, want [C1 C2]", c.Claims)
	}
	if len(c.ClaimDigests) != 2 {
		t.Fatalf("digests = %d, want 2", len(c.ClaimDigests))
	}
	if c.Fingerprint == "" || c.Fingerprint[:7] != "sha256:" {
		t.Errorf("fingerprint = %q", c.Fingerprint)
	}
	if c.SnapshotVersion == 0 {
		t.Error("snapshot version not recorded")
	}
}

func TestGenerateRejections(t *testing.T) {
	gen := newTestGenerator(t)

	tests := []struct {
		name string
		spec *Spec
		want error
	}{
		{
			"untraced guarantee",
			&Spec{
				Name:       "x",
				Claims:     []domain.ClaimID{"C1"},
				Guarantees: []domain.Guarantee{{Statement: "floats free"}},
			},
			ErrUntracedGuarantee,
		},
		{
			"unknown claim",
			&Spec{
				Name:       "x",
				Claims:     []domain.ClaimID{"C999"},
				Guarantees: []domain.Guarantee{{Statement: "g", Traces: []domain.ClaimID{"C999"}}},
			},
			ErrUnknownClaimReference,
		},
		{
			"speculative tier without annotation",
			&Spec{
				Name:       "x",
				Claims:     []domain.ClaimID{"C3"},
				Guarantees: []domain.Guarantee{{Statement: "g", Traces: []domain.ClaimID{"C3"}}},
			},
			ErrTierViolation,
		},
		{
			"invalidated without annotation",
			&Spec{
				Name:       "x",
				Claims:     []domain.ClaimID{"C4"},
				Guarantees: []domain.Guarantee{{Statement: "g", Traces: []domain.ClaimID{"C4"}}},
			},
			ErrInvalidatedReference,
		},
		{
			"declared claim no guarantee traces",
			&Spec{
				Name:       "x",
				Claims:     []domain.ClaimID{"C1", "C2"},
				Guarantees: []domain.Guarantee{{Statement: "g", Traces: []domain.ClaimID{"C1"}}},
			},
			ErrIncompleteRoundTrip,
		},
		{
			"trace outside declared set",
			&Spec{
				Name:       "x",
				Claims:     []domain.ClaimID{"C1"},
				Guarantees: []domain.Guarantee{{Statement: "g", Traces: []domain.ClaimID{"C1", "C2"}}},
			},
			ErrIncompleteRoundTrip,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := gen.Generate(tt.spec); !errors.Is(err, tt.want) {
				t.Errorf("Generate() err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestGenerateAnnotations(t *testing.T) {
	gen := newTestGenerator(t)

	t.Run("non_binding admits speculative tiers", func(t *testing.T) {
		spec := validSpec()
		spec.Claims = append(spec.Claims, "C3")
		spec.Guarantees[0].Traces = append(spec.Guarantees[0].Traces, "C3")
		spec.NonBinding = []domain.ClaimID{"C3"}
		c, err := gen.Generate(spec)
		if err != nil {
			t.Fatalf("Generate: %v", err)
		}
		if len(c.NonBinding) != 1 || c.NonBinding[0] != "C3" {
			t.Errorf("non_binding = %v", c.NonBinding)
		}
	})

	t.Run("historical admits invalidated claims", func(t *testing.T) {
		spec := validSpec()
		spec.Claims = append(spec.Claims, "C4")
		spec.Guarantees[0].Traces = append(spec.Guarantees[0].Traces, "C4")
		spec.Historical = []domain.ClaimID{"C4"}
		c, err := gen.Generate(spec)
		if err != nil {
			t.Fatalf("Generate: %v", err)
		}
		if len(c.Historical) != 1 || c.Historical[0] != "C4" {
			t.Errorf("historical = %v", c.Historical)
		}
	})
}

// Identical inputs must yield byte-identical artifacts.
func TestGenerateIdempotent(t *testing.T) {
	gen := newTestGenerator(t)

	first, err := gen.Generate(validSpec())
	if err != nil {
		t.Fatal(err)
	}
	second, err := gen.Generate(validSpec())
	if err != nil {
		t.Fatal(err)
	}

	a, err := Encode(first)
	if err != nil {
		t.Fatal(err)
	}
	b, err := Encode(second)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(a, b) {
		t.Error("repeated generation produced different bytes")
	}
	if first.Fingerprint != second.Fingerprint {
		t.Errorf("fingerprints differ: %s vs %s", first.Fingerprint, second.Fingerprint)
	}
}

func TestWriteAndLoadContract(t *testing.T) {
	gen := newTestGenerator(t)
	c, err := gen.Generate(validSpec())
	if err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(t.TempDir(), "contract.yaml")
	if err := WriteFile(path, c); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	loaded, err := LoadContract(path)
	if err != nil {
		t.Fatalf("LoadContract: %v", err)
	}
	if loaded.Fingerprint != c.Fingerprint {
		t.Errorf("loaded fingerprint = %s, want %s", loaded.Fingerprint, c.Fingerprint)
	}
	if len(loaded.Claims) != len(c.Claims) {
		t.Errorf("loaded claims = %v", loaded.Claims)
	}

	// No stray temp files after the rename.
	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("output dir has %d entries, want only the contract", len(entries))
	}
}

func TestParseSpec(t *testing.T) {
	t.Run("defaults version", func(t *testing.T) {
		s, err := ParseSpec([]byte("name: x\nclaims: [C1]\n"))
		if err != nil {
			t.Fatal(err)
		}
		if s.Version != 1 {
			t.Errorf("version = %d, want 1", s.Version)
		}
	})

	t.Run("requires name", func(t *testing.T) {
		if _, err := ParseSpec([]byte("claims: [C1]\n")); err == nil {
			t.Error("spec without name accepted")
		}
	})

	t.Run("rejects malformed yaml", func(t *testing.T) {
		if _, err := ParseSpec([]byte("name: [unclosed")); err == nil {
			t.Error("malformed yaml accepted")
		}
	})
}
