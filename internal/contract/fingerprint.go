package contract

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"github.com/scriptorium/claimledger/internal/domain"
)

// ClaimDigest hashes the drift-relevant fields of one claim: a change to
// tier, status, or the current statement changes the digest; provenance and
// timestamps do not.
func ClaimDigest(c *domain.Claim) string {
	stmt := sha256.Sum256([]byte(c.CurrentStatement()))
	line := fmt.Sprintf("%s|%d|%s|%s", c.ID, c.Tier, c.Status, hex.EncodeToString(stmt[:]))
	sum := sha256.Sum256([]byte(line))
	return hex.EncodeToString(sum[:])
}

// Fingerprint combines per-claim digests, sorted by id, into the contract's
// content fingerprint.
func Fingerprint(digests []domain.ClaimDigest) string {
	sorted := append([]domain.ClaimDigest(nil), digests...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID.Num() < sorted[j].ID.Num() })
	lines := make([]string, len(sorted))
	for i, d := range sorted {
		lines[i] = string(d.ID) + "=" + d.Digest
	}
	sum := sha256.Sum256([]byte(strings.Join(lines, "\n")))
	return "sha256:" + hex.EncodeToString(sum[:])
}
