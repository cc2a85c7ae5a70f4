package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ClaimID is a stable claim identifier of the form "C" followed by digits,
// e.g. "C250". IDs are never reused and never deleted.
type ClaimID string

// ClaimSigil is the letter that opens every claim identifier.
const ClaimSigil = 'C'

// ParseClaimID validates and normalizes a claim id string.
func ParseClaimID(s string) (ClaimID, error) {
	if len(s) < 2 || s[0] != ClaimSigil {
		return "", fmt.Errorf("invalid claim id %q", s)
	}
	for i := 1; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return "", fmt.Errorf("invalid claim id %q", s)
		}
	}
	return ClaimID(s), nil
}

// Num returns the numeric part of the id. Returns 0 for malformed ids.
func (id ClaimID) Num() int {
	n, _ := strconv.Atoi(strings.TrimPrefix(string(id), string(ClaimSigil)))
	return n
}

// MakeClaimID builds the canonical id for a number.
func MakeClaimID(n int) ClaimID {
	return ClaimID(fmt.Sprintf("%c%d", ClaimSigil, n))
}

// RevisionID addresses a single revision of a tier-2 claim: the base id
// plus a lowercase suffix, e.g. "C250.a".
type RevisionID string

func MakeRevisionID(base ClaimID, suffix string) RevisionID {
	return RevisionID(string(base) + "." + suffix)
}

// Tier encodes how mutable and how binding a claim is.
type Tier int

const (
	// TierFrozen claims are immutable facts; they may never be edited or reopened.
	TierFrozen Tier = 0
	// TierFalsified claims are immutable negative knowledge; never retried.
	TierFalsified Tier = 1
	// TierEstablished claims may be refined in place via appended revisions.
	TierEstablished Tier = 2
	// TierWorking and TierSpeculative claims are freely mutable and never
	// binding on the validation of other claims.
	TierWorking     Tier = 3
	TierSpeculative Tier = 4
)

func ValidTier(t int) bool {
	return t >= 0 && t <= 4
}

// TierBehavior describes what operations a tier admits.
type TierBehavior struct {
	Tier      Tier
	Label     string
	Revisable bool // statement may be refined via revisions
	Mutable   bool // status may move forward (invalidation allowed)
	Binding   bool // may anchor contracts and binding-context citations
}

var TierBehaviors = map[Tier]TierBehavior{
	TierFrozen: {
		Tier:      TierFrozen,
		Label:     "frozen",
		Revisable: false,
		Mutable:   false,
		Binding:   true,
	},
	TierFalsified: {
		Tier:      TierFalsified,
		Label:     "falsified",
		Revisable: false,
		Mutable:   false,
		Binding:   true,
	},
	TierEstablished: {
		Tier:      TierEstablished,
		Label:     "established",
		Revisable: true,
		Mutable:   true,
		Binding:   true,
	},
	TierWorking: {
		Tier:      TierWorking,
		Label:     "working",
		Revisable: true,
		Mutable:   true,
		Binding:   false,
	},
	TierSpeculative: {
		Tier:      TierSpeculative,
		Label:     "speculative",
		Revisable: true,
		Mutable:   true,
		Binding:   false,
	},
}

func GetTierBehavior(t Tier) TierBehavior {
	if b, ok := TierBehaviors[t]; ok {
		return b
	}
	return TierBehaviors[TierSpeculative]
}

type Status string

const (
	StatusActive      Status = "ACTIVE"
	StatusRevised     Status = "REVISED"
	StatusInvalidated Status = "INVALIDATED"
)

func ValidStatus(s string) bool {
	switch Status(s) {
	case StatusActive, StatusRevised, StatusInvalidated:
		return true
	}
	return false
}

// Revision is an immutable record of a revisable claim's statement changing.
// Revisions are appended, never overwritten; suffixes run "a", "b", ….
type Revision struct {
	ID        RevisionID `json:"id"`
	Suffix    string     `json:"suffix"`
	Statement string     `json:"statement"`
	CreatedAt time.Time  `json:"created_at"`
}

// Claim is the atomic unit of knowledge in the ledger.
type Claim struct {
	ID                 ClaimID    `json:"id"`
	Statement          string     `json:"statement"`
	Tier               Tier       `json:"tier"`
	Scope              string     `json:"scope,omitempty"`
	Status             Status     `json:"status"`
	Supersedes         []ClaimID  `json:"supersedes,omitempty"`
	SupersededBy       *ClaimID   `json:"superseded_by,omitempty"`
	Provenance         string     `json:"provenance,omitempty"`
	InvalidationReason string     `json:"invalidation_reason,omitempty"`
	Revisions          []Revision `json:"revisions,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// CurrentStatement returns the latest revision's statement, or the original
// statement when the claim was never revised.
func (c *Claim) CurrentStatement() string {
	if n := len(c.Revisions); n > 0 {
		return c.Revisions[n-1].Statement
	}
	return c.Statement
}

// Revision returns the revision with the given suffix.
func (c *Claim) Revision(suffix string) (*Revision, bool) {
	for i := range c.Revisions {
		if c.Revisions[i].Suffix == suffix {
			return &c.Revisions[i], true
		}
	}
	return nil, false
}

// NextRevisionSuffix returns the suffix the next appended revision gets.
// Suffixes are single lowercase letters; the chain is capped at "z".
func (c *Claim) NextRevisionSuffix() (string, error) {
	if len(c.Revisions) >= 26 {
		return "", fmt.Errorf("claim %s: revision chain exhausted", c.ID)
	}
	return string(rune('a' + len(c.Revisions))), nil
}

// Clone returns a deep copy so snapshot readers can never observe writes.
func (c *Claim) Clone() *Claim {
	out := *c
	if c.SupersededBy != nil {
		sb := *c.SupersededBy
		out.SupersededBy = &sb
	}
	out.Supersedes = append([]ClaimID(nil), c.Supersedes...)
	out.Revisions = append([]Revision(nil), c.Revisions...)
	return &out
}
