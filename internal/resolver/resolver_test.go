package resolver

import (
	"context"
	"testing"

	"github.com/scriptorium/claimledger/internal/domain"
	"github.com/scriptorium/claimledger/internal/registry"
	"github.com/scriptorium/claimledger/internal/scanner"
	"github.com/scriptorium/claimledger/internal/store"
	"go.uber.org/zap"
)

// testSnapshot builds a ledger with the shapes the resolver distinguishes:
// an active claim, a revised claim, an invalidated claim, and a speculative
// claim.
func testSnapshot(t *testing.T) *registry.Snapshot {
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

	insert("C100", domain.TierFrozen, "active frozen fact")
	revised := insert("C101", domain.TierEstablished, "established finding")
	if _, err := reg.Revise(ctx, revised, "refined finding"); err != nil {
		t.Fatal(err)
	}
	stale := insert("C250", domain.TierEstablished, "superseded count")
	if err := reg.Invalidate(ctx, stale, "recount", nil); err != nil {
		t.Fatal(err)
	}
	insert("C300", domain.TierSpeculative, "wild guess")

	return reg.Snapshot()
}

func cite(id string, rev string, line, col int, historical bool) domain.Citation {
	return domain.Citation{
		ID:         domain.ClaimID(id),
		Revision:   rev,
		Line:       line,
		Column:     col,
		Historical: historical,
		TierNote:   -1,
	}
}

func TestResolveClassification(t *testing.T) {
	snap := testSnapshot(t)
	r := New(snap)

	tests := []struct {
		name    string
		cit     domain.Citation
		binding bool
		want    domain.DiagnosticKind
	}{
		{"active claim", cite("C100", "", 1, 1, false), false, domain.DiagValid},
		{"revised claim", cite("C101", "", 1, 1, false), false, domain.DiagValid},
		{"existing revision", cite("C101", "a", 1, 1, false), false, domain.DiagValid},
		{"missing revision", cite("C101", "b", 1, 1, false), false, domain.DiagRevisionMismatch},
		{"unknown id", cite("C9999", "", 1, 1, false), false, domain.DiagInvalid},
		{"invalidated without marker", cite("C250", "", 1, 1, false), false, domain.DiagStale},
		{"invalidated with marker", cite("C250", "", 1, 1, true), false, domain.DiagValid},
		{"speculative outside binding", cite("C300", "", 1, 1, false), false, domain.DiagValid},
		{"speculative in binding context", cite("C300", "", 1, 1, false), true, domain.DiagTierViolation},
		{"frozen in binding context", cite("C100", "", 1, 1, false), true, domain.DiagValid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			diags := r.Resolve([]domain.Citation{tt.cit}, Options{Binding: tt.binding})
			if len(diags) != 1 {
				t.Fatalf("got %d diagnostics, want 1", len(diags))
			}
			if diags[0].Kind != tt.want {
				t.Errorf("kind = %s, want %s (detail: %s)", diags[0].Kind, tt.want, diags[0].Detail)
			}
		})
	}
}

func TestResolveOrdering(t *testing.T) {
	snap := testSnapshot(t)
	r := New(snap)

	// Deliberately shuffled input; output must be line-then-column ordered.
	in := []domain.Citation{
		cite("C100", "", 9, 2, false),
		cite("C100", "", 3, 14, false),
		cite("C100", "", 3, 4, false),
		cite("C100", "", 1, 30, false),
	}
	diags := r.Resolve(in, Options{})
	wantOrder := [][2]int{{1, 30}, {3, 4}, {3, 14}, {9, 2}}
	for i, d := range diags {
		if d.Citation.Line != wantOrder[i][0] || d.Citation.Column != wantOrder[i][1] {
			t.Errorf("diag %d at %d:%d, want %d:%d",
				i, d.Citation.Line, d.Citation.Column, wantOrder[i][0], wantOrder[i][1])
		}
	}
}

func TestResolveFailFast(t *testing.T) {
	snap := testSnapshot(t)
	r := New(snap)

	in := []domain.Citation{
		cite("C100", "", 1, 1, false),
		cite("C250", "", 2, 1, false),  // stale: does not stop the run
		cite("C9999", "", 3, 1, false), // invalid: stops here
		cite("C100", "", 4, 1, false),
	}
	diags := r.Resolve(in, Options{FailFast: true})
	if len(diags) != 3 {
		t.Fatalf("got %d diagnostics, want 3 (stop after first invalid)", len(diags))
	}
	if diags[2].Kind != domain.DiagInvalid {
		t.Errorf("last diagnostic = %s, want invalid", diags[2].Kind)
	}
}

// The end-to-end shape from the ledger's own history: a document citing an
// invalidated claim without a marker reports stale at the exact location,
// and an unknown id reports invalid.
func TestResolveEndToEnd(t *testing.T) {
	snap := testSnapshot(t)
	r := New(snap)

	docA := "findings\nthe glyph count per C250 is final\n"
	diags := r.Resolve(scanner.ScanAll("a.md", docA), Options{})
	if len(diags) != 1 {
		t.Fatalf("doc A: %d diagnostics, want 1", len(diags))
	}
	if diags[0].Kind != domain.DiagStale {
		t.Errorf("doc A kind = %s, want stale", diags[0].Kind)
	}
	if diags[0].Citation.Line != 2 || diags[0].Citation.Column != 21 {
		t.Errorf("doc A location = %d:%d, want 2:21", diags[0].Citation.Line, diags[0].Citation.Column)
	}

	docB := "see C9999 for the full derivation"
	diags = r.Resolve(scanner.ScanAll("b.md", docB), Options{})
	if len(diags) != 1 || diags[0].Kind != domain.DiagInvalid {
		t.Fatalf("doc B diagnostics = %+v, want one invalid", diags)
	}
}
