// Package resolver classifies scanned citations against a registry snapshot.
// It never mutates anything: each citation gets exactly one diagnostic and
// processing carries on to the end of the stream unless fail-fast is set.
package resolver

import (
	"fmt"
	"sort"

	"github.com/scriptorium/claimledger/internal/domain"
	"github.com/scriptorium/claimledger/internal/registry"
)

// Options controls a resolution pass.
type Options struct {
	// Binding marks the citing document as a binding context (e.g. a
	// contract source). Tier 3-4 citations become violations there.
	Binding bool

	// FailFast stops at the first Invalid or TierViolation diagnostic.
	// The default is to collect everything.
	FailFast bool
}

type Resolver struct {
	snap *registry.Snapshot
}

func New(snap *registry.Snapshot) *Resolver {
	return &Resolver{snap: snap}
}

// Resolve emits one diagnostic per citation, ordered by line then column so
// output for the same inputs is reproducible byte for byte.
func (r *Resolver) Resolve(citations []domain.Citation, opts Options) []domain.Diagnostic {
	ordered := append([]domain.Citation(nil), citations...)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Line != ordered[j].Line {
			return ordered[i].Line < ordered[j].Line
		}
		return ordered[i].Column < ordered[j].Column
	})

	var out []domain.Diagnostic
	for _, c := range ordered {
		d := r.resolveOne(c, opts.Binding)
		out = append(out, d)
		if opts.FailFast && (d.Kind == domain.DiagInvalid || d.Kind == domain.DiagTierViolation) {
			break
		}
	}
	return out
}

func (r *Resolver) resolveOne(c domain.Citation, binding bool) domain.Diagnostic {
	claim, ok := r.snap.Get(c.ID)
	if !ok {
		return domain.Diagnostic{
			Kind:     domain.DiagInvalid,
			Citation: c,
			Detail:   fmt.Sprintf("%s does not exist in the ledger", c.ID),
		}
	}

	if c.Revision != "" {
		if _, ok := claim.Revision(c.Revision); !ok {
			return domain.Diagnostic{
				Kind:     domain.DiagRevisionMismatch,
				Citation: c,
				Detail:   fmt.Sprintf("%s has no revision %q", c.ID, c.Revision),
			}
		}
	}

	if claim.Status == domain.StatusInvalidated {
		if !c.Historical {
			detail := fmt.Sprintf("%s was invalidated: %s", c.ID, claim.InvalidationReason)
			if claim.SupersededBy != nil {
				detail += fmt.Sprintf(" (superseded by %s)", *claim.SupersededBy)
			}
			return domain.Diagnostic{Kind: domain.DiagStale, Citation: c, Detail: detail}
		}
		return domain.Diagnostic{
			Kind:     domain.DiagValid,
			Citation: c,
			Detail:   "historical reference to invalidated claim",
		}
	}

	if binding && !domain.GetTierBehavior(claim.Tier).Binding {
		return domain.Diagnostic{
			Kind:     domain.DiagTierViolation,
			Citation: c,
			Detail:   fmt.Sprintf("%s is tier %d and cannot be cited in a binding context", c.ID, claim.Tier),
		}
	}

	return domain.Diagnostic{Kind: domain.DiagValid, Citation: c}
}
