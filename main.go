package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/goccy/go-json"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
)

var (
	configPath string
	envFile    string
)

var rootCmd = &cobra.Command{
	Use:           "pgrelay",
	Short:         "Incremental MySQL to PostgreSQL replicator",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var testCmd = &cobra.Command{
	Use:   "test",
	Short: "Check connectivity to the source and target databases",
	Args:  cobra.NoArgs,
	RunE:  runTest,
}

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Write migration and seed files from the source schema",
	Args:  cobra.NoArgs,
	RunE:  runGenerateCmd,
}

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Run one replication pass and exit",
	Args:  cobra.NoArgs,
	RunE:  runSync,
}

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Generate, migrate, seed, sync, then replicate on a schedule",
	Args:  cobra.NoArgs,
	RunE:  runStart,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print the replication status as JSON",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), "pgrelay "+versionString())
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to TOML config file (optional)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file read before the environment")
	rootCmd.AddCommand(testCmd, generateCmd, syncCmd, startCmd, statusCmd, versionCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// setup loads configuration and builds the logger for a subcommand.
func setup(cmd *cobra.Command, needConnections bool) (*Config, *slog.Logger, error) {
	cfg, err := loadConfig(configPath, envFile)
	if err != nil {
		return nil, nil, err
	}
	if needConnections {
		if err := cfg.requireConnections(); err != nil {
			return nil, nil, err
		}
	}
	return cfg, configureLogger(cfg.Log, cmd.ErrOrStderr()), nil
}

func runTest(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup(cmd, true)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	conns := connectionManagerFromConfig(cfg, log)
	defer conns.disconnect()

	failed := false
	if src, err := conns.connectSource(ctx); err != nil {
		fmt.Fprintf(out, "source (%s): FAILED: %v\n", cfg.Source.Type, err)
		failed = true
	} else {
		fmt.Fprintf(out, "source (%s): ok\n", src.Name())
	}
	if _, err := conns.connectTarget(ctx); err != nil {
		fmt.Fprintf(out, "target (PostgreSQL): FAILED: %v\n", err)
		failed = true
	} else {
		fmt.Fprintln(out, "target (PostgreSQL): ok")
	}
	if failed {
		return errors.New("connectivity check failed")
	}
	return nil
}

func runGenerateCmd(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup(cmd, true)
	if err != nil {
		return err
	}
	return runGenerate(cmd.Context(), cfg, log)
}

func runGenerate(ctx context.Context, cfg *Config, log *slog.Logger) error {
	conns := connectionManagerFromConfig(cfg, log)
	src, err := conns.connectSource(ctx)
	if err != nil {
		return err
	}
	defer conns.disconnect()

	gen := NewGenerator(NewMapper(cfg.Mapping), cfg.Generate, cfg.Target.Schema, log)
	if isTerminal(os.Stderr) {
		gen.progress = os.Stderr
	}
	_, err = gen.Run(ctx, src)
	return err
}

func newReplicatorFromConfig(cfg *Config, log *slog.Logger) (*Replicator, error) {
	return NewReplicator(
		connectionManagerFromConfig(cfg, log),
		NewMapper(cfg.Mapping),
		ReplicatorConfig{
			BatchSize: cfg.Replication.BatchSize,
			StateFile: cfg.Replication.StateFile,
			MaxPages:  cfg.Replication.MaxPages,
		},
		log,
	)
}

func runSync(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup(cmd, true)
	if err != nil {
		return err
	}
	r, err := newReplicatorFromConfig(cfg, log)
	if err != nil {
		return err
	}
	if err := r.Run(cmd.Context()); err != nil {
		return err
	}
	return printStatus(cmd.OutOrStdout(), r.Status())
}

func runStart(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup(cmd, true)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	start := time.Now()
	log.Info("pgrelay starting", slog.String("source", cfg.Source.Type), slog.String("schema", cfg.Target.Schema))

	// 1. Generate migrations and seeds from the live source
	if err := runGenerate(ctx, cfg, log); err != nil {
		return fmt.Errorf("generate: %w", err)
	}

	// 2. Apply migrations
	if err := applyMigrations(cfg.Generate.MigrationsDir, cfg.targetDSN(), log); err != nil {
		return err
	}

	// 3. Seed empty tables
	pool, err := pgxpool.New(ctx, cfg.targetDSN())
	if err != nil {
		return &ConnectionError{Side: "target", Err: err}
	}
	defer pool.Close()
	if err := applySeeds(ctx, pool, cfg.Generate.SeedsDir, cfg.Target.Schema, log); err != nil {
		return fmt.Errorf("seeds: %w", err)
	}

	// 4. Initial sync
	r, err := newReplicatorFromConfig(cfg, log)
	if err != nil {
		return err
	}
	if err := r.Run(ctx); err != nil {
		return fmt.Errorf("initial sync: %w", err)
	}

	// 5. Move id sequences past replicated rows
	mapper := NewMapper(cfg.Mapping)
	if err := resetSequences(ctx, pool, cfg.Target.Schema, mapper.TargetTables(), log); err != nil {
		return fmt.Errorf("sequences: %w", err)
	}
	pool.Close()

	log.Info("bootstrap completed", slog.Duration("elapsed", time.Since(start).Round(time.Millisecond)))

	// 6. Recurring sync until interrupted
	return runScheduled(ctx, r, cfg.Replication.Schedule, log)
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, _, err := setup(cmd, false)
	if err != nil {
		return err
	}
	st, err := readState(cfg.Replication.StateFile)
	if err != nil {
		return err
	}
	return printStatus(cmd.OutOrStdout(), st.Status.clone())
}

func printStatus(w io.Writer, s ReplicationStatus) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("encode status: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
