// Package export renders derived read-only views of the ledger.
package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/scriptorium/claimledger/internal/domain"
	"github.com/scriptorium/claimledger/internal/registry"
)

// summaryLen caps the CONSTRAINT column in the exported table.
const summaryLen = 96

// WriteTable renders the materialized convenience view of the ledger as a
// tab-separated table: NUM, CONSTRAINT, TIER, SCOPE, LOCATION. The table is
// derived output; the event log stays the source of truth.
func WriteTable(w io.Writer, snap *registry.Snapshot) error {
	if _, err := fmt.Fprintln(w, "NUM\tCONSTRAINT\tTIER\tSCOPE\tLOCATION"); err != nil {
		return err
	}
	for _, c := range snap.All() {
		loc := c.Provenance
		if c.Status == domain.StatusInvalidated {
			loc = "INVALIDATED: " + c.InvalidationReason
		} else if len(c.Revisions) > 0 {
			last := c.Revisions[len(c.Revisions)-1]
			loc = fmt.Sprintf("%s (rev %s)", loc, last.Suffix)
		}
		_, err := fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n",
			c.ID, summarize(c.CurrentStatement()), c.Tier, c.Scope, loc)
		if err != nil {
			return err
		}
	}
	return nil
}

func summarize(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if len(s) > summaryLen {
		s = s[:summaryLen-1] + "…"
	}
	return s
}
