package contract

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/scriptorium/claimledger/internal/domain"
	"github.com/scriptorium/claimledger/internal/graph"
	"github.com/scriptorium/claimledger/internal/registry"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

var (
	ErrUntracedGuarantee     = errors.New("guarantee cites no claim")
	ErrUnknownClaimReference = errors.New("reference to unknown claim")
	ErrTierViolation         = errors.New("tier 3-4 claim referenced without non-binding annotation")
	ErrInvalidatedReference  = errors.New("invalidated claim referenced without historical annotation")
	ErrIncompleteRoundTrip   = errors.New("declared claims and guarantee traces do not round-trip")
)

// Generator projects a claim subset into a contract. Generation is a pure
// function of (snapshot, spec): the emitted bytes contain no wall-clock
// field, so identical inputs produce identical artifacts.
type Generator struct {
	snap   *registry.Snapshot
	graph  *graph.Graph
	logger *zap.Logger
}

func NewGenerator(snap *registry.Snapshot, g *graph.Graph, logger *zap.Logger) *Generator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{snap: snap, graph: g, logger: logger}
}

// Generate verifies the spec against the snapshot and produces the contract,
// or fails without emitting anything.
func (g *Generator) Generate(spec *Spec) (*domain.Contract, error) {
	declared := make(map[domain.ClaimID]bool, len(spec.Claims))
	for _, id := range spec.Claims {
		declared[id] = true
	}

	// Every declared claim must exist and satisfy the reference rules.
	for _, id := range spec.Claims {
		if err := g.checkReference(spec, id); err != nil {
			return nil, err
		}
	}

	// Every guarantee must trace to declared claims; traces outside the
	// declared set are undeclared dependencies.
	traced := make(map[domain.ClaimID]bool)
	for i, guarantee := range spec.Guarantees {
		if len(guarantee.Traces) == 0 {
			return nil, fmt.Errorf("guarantee %d (%q): %w", i+1, guarantee.Statement, ErrUntracedGuarantee)
		}
		for _, id := range guarantee.Traces {
			if err := g.checkReference(spec, id); err != nil {
				return nil, err
			}
			if !declared[id] {
				return nil, fmt.Errorf("guarantee %d traces %s outside the declared set: %w",
					i+1, id, ErrIncompleteRoundTrip)
			}
			traced[id] = true
		}
	}

	// The other direction: a declared claim no guarantee traces to is an
	// orphan inclusion.
	for _, id := range spec.Claims {
		if !traced[id] {
			return nil, fmt.Errorf("declared claim %s is traced by no guarantee: %w",
				id, ErrIncompleteRoundTrip)
		}
	}

	claims := append([]domain.ClaimID(nil), spec.Claims...)
	sort.Slice(claims, func(i, j int) bool { return claims[i].Num() < claims[j].Num() })

	digests := make([]domain.ClaimDigest, 0, len(claims))
	for _, id := range claims {
		c, _ := g.snap.Get(id)
		digests = append(digests, domain.ClaimDigest{ID: id, Digest: ClaimDigest(&c)})
	}

	out := &domain.Contract{
		Name:            spec.Name,
		Version:         spec.Version,
		SnapshotVersion: g.snap.Version(),
		Claims:          claims,
		Guarantees:      spec.Guarantees,
		Historical:      sortIDs(spec.Historical),
		NonBinding:      sortIDs(spec.NonBinding),
		ClaimDigests:    digests,
		Fingerprint:     Fingerprint(digests),
	}
	g.logger.Info("contract generated",
		zap.String("name", out.Name),
		zap.Int("claims", len(out.Claims)),
		zap.Uint64("snapshot_version", out.SnapshotVersion))
	return out, nil
}

// checkReference enforces which claims a contract may touch at all:
// existing, tier 0-2 (or annotated non-binding), not invalidated (or
// annotated historical).
func (g *Generator) checkReference(spec *Spec, id domain.ClaimID) error {
	c, ok := g.snap.Get(id)
	if !ok {
		return fmt.Errorf("%s: %w", id, ErrUnknownClaimReference)
	}
	if !domain.GetTierBehavior(c.Tier).Binding && !spec.isNonBinding(id) {
		return fmt.Errorf("%s (tier %d): %w", id, c.Tier, ErrTierViolation)
	}
	if c.Status == domain.StatusInvalidated && !spec.isHistorical(id) {
		return fmt.Errorf("%s: %w", id, ErrInvalidatedReference)
	}
	return nil
}

func sortIDs(ids []domain.ClaimID) []domain.ClaimID {
	if len(ids) == 0 {
		return nil
	}
	out := append([]domain.ClaimID(nil), ids...)
	sort.Slice(out, func(i, j int) bool { return out[i].Num() < out[j].Num() })
	return out
}

// Encode renders the contract as YAML.
func Encode(c *domain.Contract) ([]byte, error) {
	raw, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("encode contract: %w", err)
	}
	return raw, nil
}

// WriteFile emits the contract atomically: the artifact is written to a
// temp file and renamed, so a partially valid contract never reaches the
// output path.
func WriteFile(path string, c *domain.Contract) error {
	raw, err := Encode(c)
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".contract-*")
	if err != nil {
		return fmt.Errorf("create temp contract: %w", err)
	}
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write contract: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close contract: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("publish contract: %w", err)
	}
	return nil
}

// LoadContract reads a previously emitted artifact.
func LoadContract(path string) (*domain.Contract, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read contract: %w", err)
	}
	var c domain.Contract
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("decode contract: %w", err)
	}
	return &c, nil
}
