package domain

// Citation is one occurrence of a claim id inside a document. It carries the
// source location and the literal text matched; the scanner never consults
// the registry, so a Citation says nothing about whether the id exists.
type Citation struct {
	ID       ClaimID `json:"id"`
	Revision string  `json:"revision,omitempty"` // single lowercase letter, or empty
	Literal  string  `json:"literal"`
	Path     string  `json:"path,omitempty"`
	Line     int     `json:"line"`
	Column   int     `json:"column"`

	// Historical is set when the citation carries the explicit
	// "(historical)" marker, which permits citing invalidated claims.
	Historical bool `json:"historical,omitempty"`

	// TierNote is the tier asserted by an "@T<n>" annotation, or -1.
	TierNote int `json:"tier_note,omitempty"`
}

// DiagnosticKind classifies the resolver's verdict on one citation.
type DiagnosticKind string

const (
	DiagValid            DiagnosticKind = "valid"
	DiagInvalid          DiagnosticKind = "invalid"
	DiagStale            DiagnosticKind = "stale"
	DiagTierViolation    DiagnosticKind = "tier_violation"
	DiagRevisionMismatch DiagnosticKind = "revision_mismatch"
)

// Diagnostic is the resolver's verdict on a single citation.
type Diagnostic struct {
	Kind     DiagnosticKind `json:"kind"`
	Citation Citation       `json:"citation"`
	Detail   string         `json:"detail,omitempty"`
}

// Failing reports whether this diagnostic fails a non-strict validation run.
func (d Diagnostic) Failing() bool {
	return d.Kind == DiagInvalid || d.Kind == DiagTierViolation
}
