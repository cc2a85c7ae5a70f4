package validate

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/scriptorium/claimledger/internal/domain"
)

// WriteText renders the report as one line per diagnostic, grep-friendly,
// in path/line/column order. Valid citations are omitted unless verbose.
func (r *Report) WriteText(w io.Writer, verbose bool) error {
	for _, doc := range r.Results {
		for _, d := range doc.Diagnostics {
			if d.Kind == domain.DiagValid && !verbose {
				continue
			}
			detail := d.Detail
			if detail == "" {
				detail = string(d.Citation.ID)
			}
			_, err := fmt.Fprintf(w, "%s:%d:%d: %s: %s\n",
				doc.Path, d.Citation.Line, d.Citation.Column, d.Kind, detail)
			if err != nil {
				return err
			}
		}
	}
	_, err := fmt.Fprintf(w, "%d documents, %d citations: %d invalid, %d stale, %d tier violations, %d revision mismatches\n",
		r.Documents, r.Citations,
		r.Counts[string(domain.DiagInvalid)],
		r.Counts[string(domain.DiagStale)],
		r.Counts[string(domain.DiagTierViolation)],
		r.Counts[string(domain.DiagRevisionMismatch)])
	return err
}

// WriteJSON renders the full report, valid diagnostics included.
func (r *Report) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}
