// claimledger maintains an append-only ledger of tiered research claims and
// validates the documents and derived contracts that cite them.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/scriptorium/claimledger/internal/buildconfig"
	"github.com/scriptorium/claimledger/internal/config"
	"github.com/scriptorium/claimledger/internal/domain"
	"github.com/scriptorium/claimledger/internal/registry"
	"github.com/scriptorium/claimledger/internal/store"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// Global flags
	verbose      bool
	registryPath string
	backend      string

	// Logger
	logger *zap.Logger
)

// exitError carries a specific process exit code through cobra.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit %d", e.code)
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error { return e.err }

var rootCmd = &cobra.Command{
	Use:   "claimledger",
	Short: "Append-only claim ledger with citation and contract validation",
	Long: `claimledger maintains a ledger of atomic, tiered claims and keeps the
documents that cite them honest.

The ledger is event-sourced: every insert, revision, and invalidation is an
appended event, so no fact is ever physically deleted or overwritten.
Frozen (tier 0) and falsified (tier 1) claims are immutable; established
claims (tier 2) grow revision chains; speculative claims (tiers 3-4) never
bind anything.

Validation scans a document tree for claim citations and reports stale,
invalid, and tier-violating references. Contracts are generated projections
of a claim subset and can be checked for drift against the current ledger.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := config.Load(); err != nil {
			return err
		}
		cfg := zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(parseLevel(config.LogLevel()))
		if verbose {
			cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = cfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func parseLevel(s string) zapcore.Level {
	switch s {
	case "debug":
		return zapcore.DebugLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// openRegistry opens the configured event-store backend and folds the log.
// Load failures are structural: callers map them to exit code 2.
func openRegistry(ctx context.Context) (*registry.Registry, func(), error) {
	var (
		es      domain.EventStore
		cleanup = func() {}
	)

	b := backend
	if b == "" {
		b = config.RegistryBackend()
	}
	switch b {
	case "file":
		path := registryPath
		if path == "" {
			path = config.RegistryPath()
		}
		fs, err := store.OpenFile(path)
		if err != nil {
			return nil, nil, err
		}
		es = fs
		cleanup = func() { _ = fs.Close() }
	case "postgres":
		url := config.DatabaseURL()
		if url == "" {
			return nil, nil, errors.New("DATABASE_URL is required for the postgres backend")
		}
		pool, err := pgxpool.New(ctx, url)
		if err != nil {
			return nil, nil, fmt.Errorf("connect to database: %w", err)
		}
		ps := store.NewPostgres(pool)
		if err := ps.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}
		es = ps
		cleanup = func() { pool.Close() }
	case "memory":
		es = store.NewMem()
	default:
		return nil, nil, fmt.Errorf("unknown registry backend %q", b)
	}

	reg, err := registry.Open(ctx, es, logger)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return reg, cleanup, nil
}

func main() {
	rootCmd.Version = fmt.Sprintf("%s (%s)", buildconfig.Version(), buildconfig.Commit())
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&registryPath, "registry", "", "path to the event log (file backend)")
	rootCmd.PersistentFlags().StringVar(&backend, "backend", "", "registry backend: file, postgres, memory")

	rootCmd.AddCommand(claimCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(generateContractCmd)
	rootCmd.AddCommand(checkDriftCmd)
	rootCmd.AddCommand(exportTableCmd)
	rootCmd.AddCommand(serveCmd)

	if err := rootCmd.Execute(); err != nil {
		var ee *exitError
		if errors.As(err, &ee) {
			if ee.err != nil {
				fmt.Fprintln(os.Stderr, "error:", ee.err)
			}
			os.Exit(ee.code)
		}
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
