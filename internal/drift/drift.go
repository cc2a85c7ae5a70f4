// Package drift compares a previously emitted contract against the current
// registry state. It is strictly read-only: it names what changed and leaves
// regeneration to an explicit curator action.
package drift

import (
	"sort"

	"github.com/scriptorium/claimledger/internal/contract"
	"github.com/scriptorium/claimledger/internal/domain"
	"github.com/scriptorium/claimledger/internal/registry"
)

// Result of one drift check.
type Result struct {
	Fresh bool `json:"fresh"`

	// Changed lists the claims whose tier, status, or statement differ
	// from the contract's recorded digests, plus any that no longer
	// resolve in the snapshot at all.
	Changed []domain.ClaimID `json:"changed,omitempty"`

	RecordedFingerprint string `json:"recorded_fingerprint"`
	CurrentFingerprint  string `json:"current_fingerprint"`
}

// Check recomputes the fingerprint for the contract's claim set against the
// snapshot and reports Fresh on a match, Stale with the exact drifted ids
// otherwise.
func Check(c *domain.Contract, snap *registry.Snapshot) *Result {
	recorded := make(map[domain.ClaimID]string, len(c.ClaimDigests))
	for _, d := range c.ClaimDigests {
		recorded[d.ID] = d.Digest
	}

	current := make([]domain.ClaimDigest, 0, len(c.Claims))
	var changed []domain.ClaimID
	for _, id := range c.Claims {
		claim, ok := snap.Get(id)
		if !ok {
			// Ids are never deleted, so this means the contract was
			// generated against a different ledger.
			changed = append(changed, id)
			continue
		}
		digest := contract.ClaimDigest(&claim)
		current = append(current, domain.ClaimDigest{ID: id, Digest: digest})
		if recorded[id] != digest {
			changed = append(changed, id)
		}
	}
	sort.Slice(changed, func(i, j int) bool { return changed[i].Num() < changed[j].Num() })

	res := &Result{
		Changed:             changed,
		RecordedFingerprint: c.Fingerprint,
		CurrentFingerprint:  contract.Fingerprint(current),
	}
	res.Fresh = len(changed) == 0 && res.CurrentFingerprint == res.RecordedFingerprint
	return res
}
