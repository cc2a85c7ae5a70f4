package main

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/scriptorium/claimledger/internal/export"
	"github.com/spf13/cobra"
)

var exportTableCmd = &cobra.Command{
	Use:   "export-table [out-file]",
	Short: "Export the materialized claim table (TSV)",
	Long: `Writes the convenience table view of the ledger (NUM, CONSTRAINT, TIER,
SCOPE, LOCATION) to the given file or stdout. The table is derived output;
the event log remains the source of truth.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runExportTable,
}

func runExportTable(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	reg, cleanup, err := openRegistry(ctx)
	if err != nil {
		return &exitError{code: 2, err: err}
	}
	defer cleanup()

	out := io.Writer(os.Stdout)
	if len(args) == 1 {
		f, err := os.Create(args[0])
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}
	return export.WriteTable(out, reg.Snapshot())
}
