package main

import (
	"context"
	"fmt"
	"time"

	"github.com/scriptorium/claimledger/internal/contract"
	"github.com/scriptorium/claimledger/internal/drift"
	"github.com/scriptorium/claimledger/internal/graph"
	"github.com/spf13/cobra"
)

var generateContractCmd = &cobra.Command{
	Use:   "generate-contract <spec-file> <out-file>",
	Short: "Generate a derived contract from a claim subset",
	Long: `Reads a contract spec (name, declared claims, guarantees with traces)
and emits the contract artifact with its content fingerprint.

Generation fails without writing anything if a guarantee is untraced, a
reference is unknown or tier-violating, or the declared set and the
guarantee traces do not round-trip.`,
	Args: cobra.ExactArgs(2),
	RunE: runGenerateContract,
}

var checkDriftCmd = &cobra.Command{
	Use:   "check-drift <contract-file>",
	Short: "Check a generated contract against the current ledger",
	Long: `Recomputes the contract's fingerprint against the current registry and
reports Fresh or Stale with the exact drifted claim ids.

Exit codes: 0 Fresh, 1 Stale, 2 on load failure. The contract is never
regenerated here; that is a separate curator action.`,
	Args: cobra.ExactArgs(1),
	RunE: runCheckDrift,
}

func runGenerateContract(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	spec, err := contract.LoadSpec(args[0])
	if err != nil {
		return err
	}

	reg, cleanup, err := openRegistry(ctx)
	if err != nil {
		return &exitError{code: 2, err: err}
	}
	defer cleanup()

	snap := reg.Snapshot()
	g, err := graph.Build(snap)
	if err != nil {
		// A cycle or fork invalidates the whole snapshot.
		return &exitError{code: 2, err: err}
	}

	c, err := contract.NewGenerator(snap, g, logger).Generate(spec)
	if err != nil {
		return err
	}
	if err := contract.WriteFile(args[1], c); err != nil {
		return err
	}
	fmt.Printf("%s: %d claims, %s\n", c.Name, len(c.Claims), c.Fingerprint)
	return nil
}

func runCheckDrift(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	c, err := contract.LoadContract(args[0])
	if err != nil {
		return &exitError{code: 2, err: err}
	}

	reg, cleanup, err := openRegistry(ctx)
	if err != nil {
		return &exitError{code: 2, err: err}
	}
	defer cleanup()

	res := drift.Check(c, reg.Snapshot())
	if res.Fresh {
		fmt.Printf("%s: fresh (%s)\n", c.Name, c.Fingerprint)
		return nil
	}
	fmt.Printf("%s: stale\n", c.Name)
	for _, id := range res.Changed {
		fmt.Printf("  changed: %s\n", id)
	}
	return &exitError{code: 1}
}
