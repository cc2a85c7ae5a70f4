package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/scriptorium/claimledger/internal/config"
	"github.com/scriptorium/claimledger/internal/validate"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	validateStrict   bool
	validateFailFast bool
	validateFormat   string
	validateWorkers  int
	validateAdvisory bool
	validateWatch    bool
	validateLogFile  string
)

var validateCmd = &cobra.Command{
	Use:   "validate <root-path>",
	Short: "Scan a document tree and validate every claim citation",
	Long: `Walks the tree under root-path, scans each document for claim citations,
and resolves them against the ledger.

Exit codes: 0 when no invalid citations or tier violations were found
(with --strict: no diagnostics of any kind), 1 on findings, 2 when the
registry log cannot be loaded.

--advisory and --watch run in fire-and-forget mode: findings are written to
the log file (or stderr) and the exit code is always 0.`,
	Args: cobra.ExactArgs(1),
	RunE: runValidate,
}

func init() {
	validateCmd.Flags().BoolVar(&validateStrict, "strict", false, "fail on any diagnostic, stale and mismatched revisions included")
	validateCmd.Flags().BoolVar(&validateFailFast, "fail-fast", false, "stop each document at its first invalid or tier-violating citation")
	validateCmd.Flags().StringVar(&validateFormat, "format", "text", "report format: text or json")
	validateCmd.Flags().IntVar(&validateWorkers, "workers", 0, "document workers (0 = one per CPU)")
	validateCmd.Flags().BoolVar(&validateAdvisory, "advisory", false, "report findings but always exit 0")
	validateCmd.Flags().BoolVar(&validateWatch, "watch", false, "re-validate on file changes (implies --advisory)")
	validateCmd.Flags().StringVar(&validateLogFile, "log-file", "", "append reports to this file instead of stdout")
}

func runValidate(cmd *cobra.Command, args []string) error {
	root := args[0]
	if validateFormat != "text" && validateFormat != "json" {
		return fmt.Errorf("unknown format %q", validateFormat)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	reg, cleanup, err := openRegistry(ctx)
	if err != nil {
		return &exitError{code: 2, err: err}
	}
	defer cleanup()

	out := io.Writer(os.Stdout)
	if validateLogFile != "" {
		f, err := os.OpenFile(validateLogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}

	workers := validateWorkers
	if workers == 0 {
		workers = config.ValidateWorkers()
	}

	runOnce := func() (*validate.Report, error) {
		runner := validate.NewRunner(reg.Snapshot(), logger)
		report, err := runner.Run(ctx, root, validate.Options{
			Workers:  workers,
			FailFast: validateFailFast,
		})
		if err != nil {
			return nil, err
		}
		if validateFormat == "json" {
			return report, report.WriteJSON(out)
		}
		return report, report.WriteText(out, verbose)
	}

	if validateWatch {
		return watchLoop(ctx, root, out, runOnce)
	}

	report, err := runOnce()
	if err != nil {
		return err
	}
	if validateAdvisory {
		return nil
	}
	if validateStrict && report.FailedStrict() || report.Failed() {
		return &exitError{code: 1}
	}
	return nil
}

// watchLoop re-validates whenever something under root changes. It is the
// advisory deployment mode: it never blocks the caller and never exits
// non-zero for findings.
func watchLoop(ctx context.Context, root string, out io.Writer, runOnce func() (*validate.Report, error)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	addDirs := func() error {
		return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if path != root && strings.HasPrefix(d.Name(), ".") {
					return filepath.SkipDir
				}
				return watcher.Add(path)
			}
			return nil
		})
	}
	if err := addDirs(); err != nil {
		return err
	}

	if _, err := runOnce(); err != nil {
		logger.Warn("validation run failed", zap.Error(err))
	}

	// Debounce bursts of filesystem events into one run.
	const quiet = 500 * time.Millisecond
	var timer *time.Timer
	pending := make(chan struct{}, 1)

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			if ev.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					_ = watcher.Add(ev.Name)
				}
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(quiet, func() {
				select {
				case pending <- struct{}{}:
				default:
				}
			})
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watcher error", zap.Error(err))
		case <-pending:
			fmt.Fprintln(out, "---")
			if _, err := runOnce(); err != nil {
				logger.Warn("validation run failed", zap.Error(err))
			}
		}
	}
}
