package domain

// Guarantee is one statement a contract makes, traceable to ledger claims.
type Guarantee struct {
	Statement string    `yaml:"statement" json:"statement"`
	Traces    []ClaimID `yaml:"traces" json:"traces"`
}

// ClaimDigest pins the content hash of one referenced claim at generation
// time. Kept as a sorted list rather than a map so emitted artifacts are
// byte-stable.
type ClaimDigest struct {
	ID     ClaimID `yaml:"id" json:"id"`
	Digest string  `yaml:"digest" json:"digest"`
}

// Contract is a generated, read-only projection of a claim subset. It is
// only ever produced by the generator; hand-editing one is drift by
// definition and the detector will flag it.
type Contract struct {
	Name            string        `yaml:"name" json:"name"`
	Version         int           `yaml:"version" json:"version"`
	SnapshotVersion uint64        `yaml:"snapshot_version" json:"snapshot_version"`
	Claims          []ClaimID     `yaml:"claims" json:"claims"`
	Guarantees      []Guarantee   `yaml:"guarantees" json:"guarantees"`
	Historical      []ClaimID     `yaml:"historical,omitempty" json:"historical,omitempty"`
	NonBinding      []ClaimID     `yaml:"non_binding,omitempty" json:"non_binding,omitempty"`
	ClaimDigests    []ClaimDigest `yaml:"claim_digests" json:"claim_digests"`
	Fingerprint     string        `yaml:"fingerprint" json:"fingerprint"`
}
