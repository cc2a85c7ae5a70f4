// Package validate runs the scanner and resolver over a document tree.
// Documents are processed concurrently against one pinned snapshot; each
// worker accumulates diagnostics locally and results are merged at the end,
// so a cancelled run corrupts nothing.
package validate

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/scriptorium/claimledger/internal/domain"
	"github.com/scriptorium/claimledger/internal/registry"
	"github.com/scriptorium/claimledger/internal/resolver"
	"github.com/scriptorium/claimledger/internal/scanner"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// maxDocSize skips obviously non-document blobs.
const maxDocSize = 8 << 20

// bindingMarker marks a document as a binding context when it appears on
// the first line. Files with ".contract." in their name are binding too.
const bindingMarker = "<!-- binding -->"

// Options configures a validation run.
type Options struct {
	Workers  int
	FailFast bool
}

// DocResult holds one document's diagnostics, already in line/column order.
type DocResult struct {
	Path        string              `json:"path"`
	Binding     bool                `json:"binding,omitempty"`
	Diagnostics []domain.Diagnostic `json:"diagnostics,omitempty"`
}

// Report aggregates a full run.
type Report struct {
	RunID           string         `json:"run_id"`
	Root            string         `json:"root"`
	SnapshotVersion uint64         `json:"snapshot_version"`
	Documents       int            `json:"documents"`
	Citations       int            `json:"citations"`
	Counts          map[string]int `json:"counts"`
	Results         []DocResult    `json:"results"`
}

// Failed reports whether the run found any Invalid or TierViolation.
func (r *Report) Failed() bool {
	return r.Counts[string(domain.DiagInvalid)] > 0 ||
		r.Counts[string(domain.DiagTierViolation)] > 0
}

// FailedStrict reports whether any diagnostic other than Valid was found.
func (r *Report) FailedStrict() bool {
	for kind, n := range r.Counts {
		if kind != string(domain.DiagValid) && n > 0 {
			return true
		}
	}
	return false
}

type Runner struct {
	snap   *registry.Snapshot
	logger *zap.Logger
}

func NewRunner(snap *registry.Snapshot, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{snap: snap, logger: logger}
}

// Run walks root and validates every regular file under it.
func (r *Runner) Run(ctx context.Context, root string, opts Options) (*Report, error) {
	paths, err := collectPaths(root)
	if err != nil {
		return nil, err
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	var mu sync.Mutex
	var results []DocResult
	res := resolver.New(r.snap)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, path := range paths {
		path := path
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			doc, err := r.processDoc(res, root, path, opts)
			if err != nil {
				return err
			}
			if doc != nil {
				mu.Lock()
				results = append(results, *doc)
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(results, func(i, j int) bool { return results[i].Path < results[j].Path })

	report := &Report{
		RunID:           uuid.NewString(),
		Root:            root,
		SnapshotVersion: r.snap.Version(),
		Documents:       len(results),
		Counts:          make(map[string]int),
		Results:         results,
	}
	for _, doc := range results {
		report.Citations += len(doc.Diagnostics)
		for _, d := range doc.Diagnostics {
			report.Counts[string(d.Kind)]++
		}
	}
	r.logger.Info("validation run complete",
		zap.String("run_id", report.RunID),
		zap.Int("documents", report.Documents),
		zap.Int("citations", report.Citations),
		zap.Bool("failed", report.Failed()))
	return report, nil
}

func (r *Runner) processDoc(res *resolver.Resolver, root, path string, opts Options) (*DocResult, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	rel, err := filepath.Rel(root, path)
	if err != nil {
		rel = path
	}

	src := string(raw)
	binding := isBinding(rel, src)
	citations := scanner.ScanAll(rel, src)
	if len(citations) == 0 {
		return &DocResult{Path: rel, Binding: binding}, nil
	}
	diags := res.Resolve(citations, resolver.Options{
		Binding:  binding,
		FailFast: opts.FailFast,
	})
	return &DocResult{Path: rel, Binding: binding, Diagnostics: diags}, nil
}

func isBinding(path, src string) bool {
	if strings.Contains(filepath.Base(path), ".contract.") {
		return true
	}
	first := src
	if i := strings.IndexByte(first, '\n'); i >= 0 {
		first = first[:i]
	}
	return strings.TrimSpace(first) == bindingMarker
}

func collectPaths(root string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		name := d.Name()
		if d.IsDir() {
			if path != root && strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(name, ".") {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		if !info.Mode().IsRegular() || info.Size() > maxDocSize {
			return nil
		}
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}
	sort.Strings(paths)
	return paths, nil
}
