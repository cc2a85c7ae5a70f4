package domain

import "time"

// EventKind identifies a ledger mutation.
type EventKind string

const (
	EventClaimInserted    EventKind = "claim.inserted"
	EventClaimRevised     EventKind = "claim.revised"
	EventClaimInvalidated EventKind = "claim.invalidated"
)

func ValidEventKind(k string) bool {
	switch EventKind(k) {
	case EventClaimInserted, EventClaimRevised, EventClaimInvalidated:
		return true
	}
	return false
}

// Event is one appended entry in the registry log. The materialized registry
// view is a pure fold over the event sequence, so "never delete, never
// overwrite" is structural: correcting a claim always means appending.
type Event struct {
	Seq     uint64    `json:"seq"`
	Kind    EventKind `json:"kind"`
	ClaimID ClaimID   `json:"claim_id"`
	At      time.Time `json:"at"`

	// claim.inserted payload.
	Statement  string    `json:"statement,omitempty"`
	Tier       *Tier     `json:"tier,omitempty"`
	Scope      string    `json:"scope,omitempty"`
	Provenance string    `json:"provenance,omitempty"`
	Supersedes []ClaimID `json:"supersedes,omitempty"`

	// claim.revised payload reuses Statement; the suffix is assigned at
	// append time so replays reproduce it exactly.
	RevisionSuffix string `json:"revision_suffix,omitempty"`

	// claim.invalidated payload.
	Reason       string   `json:"reason,omitempty"`
	SupersededBy *ClaimID `json:"superseded_by,omitempty"`
}
