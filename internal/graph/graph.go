// Package graph builds the supersession view over a registry snapshot:
// a directed graph where an edge A -> B means A supersedes B. Cycles and
// forked supersession are structural errors, not per-citation findings.
package graph

import (
	"fmt"
	"sort"
	"strings"

	"github.com/scriptorium/claimledger/internal/domain"
	"github.com/scriptorium/claimledger/internal/registry"
)

// CycleError reports a closed supersession chain with its full path.
type CycleError struct {
	Path []domain.ClaimID
}

func (e *CycleError) Error() string {
	parts := make([]string, len(e.Path))
	for i, id := range e.Path {
		parts[i] = string(id)
	}
	return "supersession cycle: " + strings.Join(parts, " -> ")
}

// SplitError reports a fork: two or more claims claiming to supersede the
// same predecessor. The ledger has no automatic winner; a curator must
// collapse the fork.
type SplitError struct {
	Predecessor domain.ClaimID
	Claimants   []domain.ClaimID
}

func (e *SplitError) Error() string {
	parts := make([]string, len(e.Claimants))
	for i, id := range e.Claimants {
		parts[i] = string(id)
	}
	return fmt.Sprintf("split supersession: %s is superseded by %s",
		e.Predecessor, strings.Join(parts, " and "))
}

type Graph struct {
	snap *registry.Snapshot
	// supersedes[A] = predecessors A supersedes.
	supersedes map[domain.ClaimID][]domain.ClaimID
	// supersededBy[B] = claims that supersede B.
	supersededBy map[domain.ClaimID][]domain.ClaimID
}

// Build constructs and validates the graph for one snapshot. A cycle or a
// fork makes the whole snapshot structurally invalid.
func Build(snap *registry.Snapshot) (*Graph, error) {
	g := &Graph{
		snap:         snap,
		supersedes:   make(map[domain.ClaimID][]domain.ClaimID),
		supersededBy: make(map[domain.ClaimID][]domain.ClaimID),
	}
	for _, c := range snap.All() {
		for _, pred := range c.Supersedes {
			g.addEdge(c.ID, pred)
		}
		if c.SupersededBy != nil {
			g.addEdge(*c.SupersededBy, c.ID)
		}
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return g, nil
}

func (g *Graph) addEdge(successor, predecessor domain.ClaimID) {
	for _, p := range g.supersedes[successor] {
		if p == predecessor {
			return
		}
	}
	g.supersedes[successor] = append(g.supersedes[successor], predecessor)
	g.supersededBy[predecessor] = append(g.supersededBy[predecessor], successor)
}

// IsSuperseded reports whether any claim supersedes id.
func (g *Graph) IsSuperseded(id domain.ClaimID) bool {
	return len(g.supersededBy[id]) > 0
}

// Ancestors walks the supersedes edges backward from id, returning every
// claim it transitively supersedes, nearest first. A cycle aborts the walk.
func (g *Graph) Ancestors(id domain.ClaimID) ([]domain.Claim, error) {
	var out []domain.Claim
	seen := map[domain.ClaimID]bool{id: true}
	frontier := append([]domain.ClaimID(nil), g.supersedes[id]...)
	for len(frontier) > 0 {
		cur := frontier[0]
		frontier = frontier[1:]
		if seen[cur] {
			return nil, &CycleError{Path: []domain.ClaimID{id, cur, id}}
		}
		seen[cur] = true
		if c, ok := g.snap.Get(cur); ok {
			out = append(out, c)
		}
		frontier = append(frontier, g.supersedes[cur]...)
	}
	return out, nil
}

// Validate checks the structural invariants: no claim may transitively
// supersede itself, and no predecessor may have two superseding claims.
func (g *Graph) Validate() error {
	// Fork check first: it is the cheaper scan and the clearer report.
	preds := make([]domain.ClaimID, 0, len(g.supersededBy))
	for pred := range g.supersededBy {
		preds = append(preds, pred)
	}
	sort.Slice(preds, func(i, j int) bool { return preds[i].Num() < preds[j].Num() })
	for _, pred := range preds {
		if claimants := g.supersededBy[pred]; len(claimants) > 1 {
			sorted := append([]domain.ClaimID(nil), claimants...)
			sort.Slice(sorted, func(i, j int) bool { return sorted[i].Num() < sorted[j].Num() })
			return &SplitError{Predecessor: pred, Claimants: sorted}
		}
	}

	// Iterative DFS with an explicit path for cycle reporting.
	const (
		unvisited = 0
		inStack   = 1
		done      = 2
	)
	state := make(map[domain.ClaimID]int)

	starts := make([]domain.ClaimID, 0, len(g.supersedes))
	for id := range g.supersedes {
		starts = append(starts, id)
	}
	sort.Slice(starts, func(i, j int) bool { return starts[i].Num() < starts[j].Num() })

	var path []domain.ClaimID
	var visit func(id domain.ClaimID) error
	visit = func(id domain.ClaimID) error {
		state[id] = inStack
		path = append(path, id)
		for _, next := range g.supersedes[id] {
			switch state[next] {
			case inStack:
				// Close the loop for the report.
				i := 0
				for ; i < len(path); i++ {
					if path[i] == next {
						break
					}
				}
				cycle := append(append([]domain.ClaimID(nil), path[i:]...), next)
				return &CycleError{Path: cycle}
			case unvisited:
				if err := visit(next); err != nil {
					return err
				}
			}
		}
		path = path[:len(path)-1]
		state[id] = done
		return nil
	}
	for _, id := range starts {
		if state[id] == unvisited {
			if err := visit(id); err != nil {
				return err
			}
		}
	}
	return nil
}
