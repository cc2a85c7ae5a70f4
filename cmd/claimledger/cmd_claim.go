package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/scriptorium/claimledger/internal/domain"
	"github.com/scriptorium/claimledger/internal/graph"
	"github.com/spf13/cobra"
)

var (
	claimID          string
	claimTier        int
	claimScope       string
	claimProvenance  string
	claimSupersedes  []string
	invalidReason    string
	invalidSuccessor string
)

var claimCmd = &cobra.Command{
	Use:   "claim",
	Short: "Curator operations on the claim ledger",
	Long: `Curator operations: add, revise, invalidate, show, and list claims.

All mutations are appended to the event log; nothing is ever deleted or
overwritten. Tier 0 (frozen) and tier 1 (falsified) claims reject revision
and invalidation outright.`,
}

var claimAddCmd = &cobra.Command{
	Use:   "add <statement>",
	Short: "Append a new claim to the ledger",
	Args:  cobra.ExactArgs(1),
	RunE:  runClaimAdd,
}

var claimReviseCmd = &cobra.Command{
	Use:   "revise <id> <statement>",
	Short: "Append a revision to an established claim",
	Args:  cobra.ExactArgs(2),
	RunE:  runClaimRevise,
}

var claimInvalidateCmd = &cobra.Command{
	Use:   "invalidate <id>",
	Short: "Mark a claim invalidated, keeping its history queryable",
	Args:  cobra.ExactArgs(1),
	RunE:  runClaimInvalidate,
}

var claimShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one claim with its revision chain and supersession links",
	Args:  cobra.ExactArgs(1),
	RunE:  runClaimShow,
}

var claimListCmd = &cobra.Command{
	Use:   "list",
	Short: "List claims ordered by id",
	RunE:  runClaimList,
}

func init() {
	claimAddCmd.Flags().StringVar(&claimID, "id", "", "explicit claim id (default: next unassigned)")
	claimAddCmd.Flags().IntVar(&claimTier, "tier", int(domain.TierWorking), "epistemic tier 0-4")
	claimAddCmd.Flags().StringVar(&claimScope, "scope", "", "subsystem scope tag")
	claimAddCmd.Flags().StringVar(&claimProvenance, "provenance", "", "artifact that established the claim")
	claimAddCmd.Flags().StringSliceVar(&claimSupersedes, "supersedes", nil, "claim ids this claim supersedes")

	claimInvalidateCmd.Flags().StringVar(&invalidReason, "reason", "", "why the claim is invalidated (required)")
	claimInvalidateCmd.Flags().StringVar(&invalidSuccessor, "superseded-by", "", "claim carrying the corrected value")
	_ = claimInvalidateCmd.MarkFlagRequired("reason")

	claimCmd.AddCommand(claimAddCmd, claimReviseCmd, claimInvalidateCmd, claimShowCmd, claimListCmd)
}

func runClaimAdd(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	reg, cleanup, err := openRegistry(ctx)
	if err != nil {
		return &exitError{code: 2, err: err}
	}
	defer cleanup()

	c := &domain.Claim{
		ID:         domain.ClaimID(claimID),
		Statement:  args[0],
		Tier:       domain.Tier(claimTier),
		Scope:      claimScope,
		Provenance: claimProvenance,
	}
	for _, s := range claimSupersedes {
		id, err := domain.ParseClaimID(s)
		if err != nil {
			return err
		}
		c.Supersedes = append(c.Supersedes, id)
	}

	id, err := reg.Insert(ctx, c)
	if err != nil {
		return err
	}
	fmt.Printf("%s\n", id)
	return nil
}

func runClaimRevise(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	reg, cleanup, err := openRegistry(ctx)
	if err != nil {
		return &exitError{code: 2, err: err}
	}
	defer cleanup()

	id, err := domain.ParseClaimID(args[0])
	if err != nil {
		return err
	}
	revID, err := reg.Revise(ctx, id, args[1])
	if err != nil {
		return err
	}
	fmt.Printf("%s\n", revID)
	return nil
}

func runClaimInvalidate(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	reg, cleanup, err := openRegistry(ctx)
	if err != nil {
		return &exitError{code: 2, err: err}
	}
	defer cleanup()

	id, err := domain.ParseClaimID(args[0])
	if err != nil {
		return err
	}
	var successor *domain.ClaimID
	if invalidSuccessor != "" {
		sid, err := domain.ParseClaimID(invalidSuccessor)
		if err != nil {
			return err
		}
		successor = &sid
	}
	if err := reg.Invalidate(ctx, id, invalidReason, successor); err != nil {
		return err
	}
	fmt.Printf("%s invalidated\n", id)
	return nil
}

func runClaimShow(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	reg, cleanup, err := openRegistry(ctx)
	if err != nil {
		return &exitError{code: 2, err: err}
	}
	defer cleanup()

	id, err := domain.ParseClaimID(args[0])
	if err != nil {
		return err
	}
	snap := reg.Snapshot()
	c, ok := snap.Get(id)
	if !ok {
		return fmt.Errorf("claim %s not found", id)
	}

	behavior := domain.GetTierBehavior(c.Tier)
	fmt.Printf("%s  [tier %d %s]  %s\n", c.ID, c.Tier, behavior.Label, c.Status)
	fmt.Printf("  %s\n", c.Statement)
	if c.Scope != "" {
		fmt.Printf("  scope: %s\n", c.Scope)
	}
	if c.Provenance != "" {
		fmt.Printf("  provenance: %s\n", c.Provenance)
	}
	for _, rev := range c.Revisions {
		fmt.Printf("  rev %s: %s\n", rev.ID, rev.Statement)
	}
	if c.Status == domain.StatusInvalidated {
		fmt.Printf("  invalidated: %s\n", c.InvalidationReason)
		if c.SupersededBy != nil {
			fmt.Printf("  superseded by: %s\n", *c.SupersededBy)
		}
	}
	if g, err := graph.Build(snap); err == nil {
		if ancestors, err := g.Ancestors(id); err == nil && len(ancestors) > 0 {
			fmt.Printf("  supersedes:")
			for _, a := range ancestors {
				fmt.Printf(" %s", a.ID)
			}
			fmt.Println()
		}
	}
	return nil
}

func runClaimList(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	reg, cleanup, err := openRegistry(ctx)
	if err != nil {
		return &exitError{code: 2, err: err}
	}
	defer cleanup()

	w := os.Stdout
	for _, c := range reg.Snapshot().All() {
		fmt.Fprintf(w, "%-8s T%d %-12s %-16s %s\n",
			c.ID, c.Tier, c.Status, c.Scope, truncate(c.CurrentStatement(), 72))
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "…"
}
