// Package registry materializes the append-only claim ledger. Every mutation
// is validated against the current view, appended to the durable event store,
// and only then folded in, so the log is always the source of truth and a
// rejected mutation leaves no trace.
package registry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/scriptorium/claimledger/internal/domain"
	"go.uber.org/zap"
)

var (
	ErrDuplicateID        = errors.New("claim id already exists")
	ErrInvalidTier        = errors.New("tier must be between 0 and 4")
	ErrUnknownClaim       = errors.New("unknown claim")
	ErrImmutableTier      = errors.New("claim tier is immutable")
	ErrAlreadyInvalidated = errors.New("claim is already invalidated")
	ErrMissingReason      = errors.New("invalidation requires a reason")
	ErrEmptyStatement     = errors.New("statement is required")
)

// Registry is the single-writer materialized view over an EventStore.
// Reads go through value-copied snapshots and never lock against writers.
type Registry struct {
	store   domain.EventStore
	logger  *zap.Logger
	claims  map[domain.ClaimID]*domain.Claim
	order   []domain.ClaimID // insertion order, for deterministic listings
	version uint64
	maxNum  int

	now func() time.Time
}

// Open loads and folds the full event log. A log that cannot be read or
// replayed is a structural error; there is no safe partial registry.
func Open(ctx context.Context, store domain.EventStore, logger *zap.Logger) (*Registry, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Registry{
		store:  store,
		logger: logger,
		claims: make(map[domain.ClaimID]*domain.Claim),
		now:    time.Now,
	}

	events, err := store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load event log: %w", err)
	}
	for i := range events {
		if err := r.apply(&events[i]); err != nil {
			return nil, fmt.Errorf("replay event %d (%s %s): %w",
				events[i].Seq, events[i].Kind, events[i].ClaimID, err)
		}
	}
	logger.Info("registry loaded",
		zap.Int("claims", len(r.claims)),
		zap.Uint64("version", r.version))
	return r, nil
}

// Version is the monotonically increasing event counter.
func (r *Registry) Version() uint64 { return r.version }

// NextID returns the next unassigned claim id.
func (r *Registry) NextID() domain.ClaimID {
	return domain.MakeClaimID(r.maxNum + 1)
}

// Get returns a copy of the claim. Unknown ids return false, never an error.
func (r *Registry) Get(id domain.ClaimID) (*domain.Claim, bool) {
	c, ok := r.claims[id]
	if !ok {
		return nil, false
	}
	return c.Clone(), true
}

// Insert appends a claim to the ledger. The claim's id must be unassigned;
// an empty id gets the next one. Supersession links may only point at claims
// that already exist.
func (r *Registry) Insert(ctx context.Context, c *domain.Claim) (domain.ClaimID, error) {
	if c.Statement == "" {
		return "", ErrEmptyStatement
	}
	if !domain.ValidTier(int(c.Tier)) {
		return "", ErrInvalidTier
	}
	id := c.ID
	if id == "" {
		id = r.NextID()
	} else if _, err := domain.ParseClaimID(string(id)); err != nil {
		return "", err
	}
	if _, exists := r.claims[id]; exists {
		return "", fmt.Errorf("%w: %s", ErrDuplicateID, id)
	}
	for _, sup := range c.Supersedes {
		if _, exists := r.claims[sup]; !exists {
			return "", fmt.Errorf("supersedes %s: %w", sup, ErrUnknownClaim)
		}
	}

	tier := c.Tier
	e := &domain.Event{
		Kind:       domain.EventClaimInserted,
		ClaimID:    id,
		Statement:  c.Statement,
		Tier:       &tier,
		Scope:      c.Scope,
		Provenance: c.Provenance,
		Supersedes: append([]domain.ClaimID(nil), c.Supersedes...),
	}
	if err := r.commit(ctx, e); err != nil {
		return "", err
	}
	r.logger.Info("claim inserted",
		zap.String("id", string(id)),
		zap.Int("tier", int(tier)))
	return id, nil
}

// Revise appends a revision to an established claim. Frozen and falsified
// claims are immutable; revising one is exactly the mistake this ledger
// exists to reject.
func (r *Registry) Revise(ctx context.Context, id domain.ClaimID, statement string) (domain.RevisionID, error) {
	if statement == "" {
		return "", ErrEmptyStatement
	}
	c, ok := r.claims[id]
	if !ok {
		return "", fmt.Errorf("%s: %w", id, ErrUnknownClaim)
	}
	if !domain.GetTierBehavior(c.Tier).Revisable {
		return "", fmt.Errorf("%s (tier %d): %w", id, c.Tier, ErrImmutableTier)
	}
	if c.Status == domain.StatusInvalidated {
		return "", fmt.Errorf("%s: %w", id, ErrAlreadyInvalidated)
	}
	suffix, err := c.NextRevisionSuffix()
	if err != nil {
		return "", err
	}

	e := &domain.Event{
		Kind:           domain.EventClaimRevised,
		ClaimID:        id,
		Statement:      statement,
		RevisionSuffix: suffix,
	}
	if err := r.commit(ctx, e); err != nil {
		return "", err
	}
	revID := domain.MakeRevisionID(id, suffix)
	r.logger.Info("claim revised",
		zap.String("id", string(id)),
		zap.String("revision", string(revID)))
	return revID, nil
}

// Invalidate marks a claim INVALIDATED, keeping its statement and history
// queryable forever. Tier-0 and tier-1 claims are terminal and cannot be
// reopened in either direction.
func (r *Registry) Invalidate(ctx context.Context, id domain.ClaimID, reason string, supersededBy *domain.ClaimID) error {
	if reason == "" {
		return ErrMissingReason
	}
	c, ok := r.claims[id]
	if !ok {
		return fmt.Errorf("%s: %w", id, ErrUnknownClaim)
	}
	if !domain.GetTierBehavior(c.Tier).Mutable {
		return fmt.Errorf("%s (tier %d): %w", id, c.Tier, ErrImmutableTier)
	}
	if c.Status == domain.StatusInvalidated {
		return fmt.Errorf("%s: %w", id, ErrAlreadyInvalidated)
	}
	if supersededBy != nil {
		if _, exists := r.claims[*supersededBy]; !exists {
			return fmt.Errorf("superseded by %s: %w", *supersededBy, ErrUnknownClaim)
		}
		if *supersededBy == id {
			return fmt.Errorf("%s cannot supersede itself", id)
		}
	}

	e := &domain.Event{
		Kind:         domain.EventClaimInvalidated,
		ClaimID:      id,
		Reason:       reason,
		SupersededBy: supersededBy,
	}
	if err := r.commit(ctx, e); err != nil {
		return err
	}
	r.logger.Info("claim invalidated",
		zap.String("id", string(id)),
		zap.String("reason", reason))
	return nil
}

// commit durably appends the event, then folds it into the view. The append
// happens first: if it fails the view is untouched, and a fold failure after
// a successful append would mean the validation above was wrong.
func (r *Registry) commit(ctx context.Context, e *domain.Event) error {
	e.Seq = r.version + 1
	e.At = r.now().UTC()
	if err := r.store.Append(ctx, e); err != nil {
		return fmt.Errorf("append event: %w", err)
	}
	return r.apply(e)
}

// apply folds one event into the materialized view. It re-checks the
// mutation rules so that replaying a tampered log fails loudly instead of
// producing a view the rules forbid.
func (r *Registry) apply(e *domain.Event) error {
	if e.Seq != r.version+1 {
		return fmt.Errorf("event seq %d, expected %d", e.Seq, r.version+1)
	}
	switch e.Kind {
	case domain.EventClaimInserted:
		if _, exists := r.claims[e.ClaimID]; exists {
			return fmt.Errorf("%w: %s", ErrDuplicateID, e.ClaimID)
		}
		if e.Tier == nil || !domain.ValidTier(int(*e.Tier)) {
			return ErrInvalidTier
		}
		c := &domain.Claim{
			ID:         e.ClaimID,
			Statement:  e.Statement,
			Tier:       *e.Tier,
			Scope:      e.Scope,
			Status:     domain.StatusActive,
			Provenance: e.Provenance,
			Supersedes: append([]domain.ClaimID(nil), e.Supersedes...),
			CreatedAt:  e.At,
			UpdatedAt:  e.At,
		}
		r.claims[e.ClaimID] = c
		r.order = append(r.order, e.ClaimID)
		if n := e.ClaimID.Num(); n > r.maxNum {
			r.maxNum = n
		}

	case domain.EventClaimRevised:
		c, ok := r.claims[e.ClaimID]
		if !ok {
			return fmt.Errorf("%s: %w", e.ClaimID, ErrUnknownClaim)
		}
		if !domain.GetTierBehavior(c.Tier).Revisable {
			return fmt.Errorf("%s: %w", e.ClaimID, ErrImmutableTier)
		}
		if c.Status == domain.StatusInvalidated {
			return fmt.Errorf("%s: %w", e.ClaimID, ErrAlreadyInvalidated)
		}
		c.Revisions = append(c.Revisions, domain.Revision{
			ID:        domain.MakeRevisionID(e.ClaimID, e.RevisionSuffix),
			Suffix:    e.RevisionSuffix,
			Statement: e.Statement,
			CreatedAt: e.At,
		})
		c.Status = domain.StatusRevised
		c.UpdatedAt = e.At

	case domain.EventClaimInvalidated:
		c, ok := r.claims[e.ClaimID]
		if !ok {
			return fmt.Errorf("%s: %w", e.ClaimID, ErrUnknownClaim)
		}
		if !domain.GetTierBehavior(c.Tier).Mutable {
			return fmt.Errorf("%s: %w", e.ClaimID, ErrImmutableTier)
		}
		if c.Status == domain.StatusInvalidated {
			return fmt.Errorf("%s: %w", e.ClaimID, ErrAlreadyInvalidated)
		}
		c.Status = domain.StatusInvalidated
		c.InvalidationReason = e.Reason
		if e.SupersededBy != nil {
			sb := *e.SupersededBy
			c.SupersededBy = &sb
		}
		c.UpdatedAt = e.At

	default:
		return fmt.Errorf("unknown event kind %q", e.Kind)
	}
	r.version = e.Seq
	return nil
}
