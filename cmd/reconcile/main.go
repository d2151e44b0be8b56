package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"lp-gap-lab/internal/config"
	"lp-gap-lab/internal/domain"
	"lp-gap-lab/internal/engine"
	"lp-gap-lab/internal/fixtures"
	"lp-gap-lab/internal/storage"
	chstore "lp-gap-lab/internal/storage/clickhouse"
	"lp-gap-lab/internal/storage/memory"
	"lp-gap-lab/internal/storage/migrations"
	pgstore "lp-gap-lab/internal/storage/postgres"
)

func main() {
	root := &cobra.Command{
		Use:          "reconcile",
		Short:        "LP funding-gap reconciliation engine",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run one reconciliation cycle and publish the report",
		RunE:  runCycle,
	}

	runCmd.Flags().String("funding-asset", "BIO", "funding currency symbol")
	runCmd.Flags().Float64("funding-ratio", 0.01, "target liquidity as a fraction of FDV")
	runCmd.Flags().StringSlice("base-assets", nil, "symbols excluded from gap analysis (comma-separated)")
	runCmd.Flags().String("fdv-heuristic", "max-fdv", "FDV resolution heuristic (max-fdv, latest-observed)")
	runCmd.Flags().Duration("position-staleness", 48*time.Hour, "max position snapshot age")
	runCmd.Flags().Duration("metrics-window", 7*24*time.Hour, "pool metrics read window")
	runCmd.Flags().Int("mismatch-tolerance", 0, "allowed address/name join divergence before warning")
	runCmd.Flags().String("postgres-dsn", "", "PostgreSQL connection string")
	runCmd.Flags().String("clickhouse-dsn", "", "ClickHouse connection string")
	runCmd.Flags().Bool("fixtures", false, "run against in-memory demo data instead of databases")
	runCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(runCmd)

	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		RunE:  runMigrate,
	}

	migrateCmd.Flags().String("postgres-dsn", "", "PostgreSQL connection string")
	migrateCmd.Flags().String("clickhouse-dsn", "", "ClickHouse connection string")
	migrateCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(migrateCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func runCycle(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	useFixtures, _ := cmd.Flags().GetBool("fixtures")

	var (
		positionStore storage.PositionSnapshotStore
		metricsStore  storage.PoolMetricsStore
		reportStore   storage.ReportStore
	)

	if useFixtures {
		memPositions := memory.NewPositionSnapshotStore()
		memMetrics := memory.NewPoolMetricsStore()
		if err := fixtures.Seed(ctx, memPositions, memMetrics, time.Now()); err != nil {
			return fmt.Errorf("seed fixtures: %w", err)
		}
		positionStore = memPositions
		metricsStore = memMetrics
		reportStore = memory.NewReportStore()
		logger.Info("running against in-memory fixture data")
	} else {
		if cfg.PostgresDSN == "" || cfg.ClickhouseDSN == "" {
			return fmt.Errorf("postgres-dsn and clickhouse-dsn are required unless --fixtures is set")
		}

		pool, err := pgstore.NewPool(ctx, cfg.PostgresDSN)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer pool.Close()

		conn, err := chstore.NewConn(ctx, cfg.ClickhouseDSN)
		if err != nil {
			return fmt.Errorf("connect clickhouse: %w", err)
		}
		defer conn.Close()

		positionStore = pgstore.NewPositionSnapshotStore(pool)
		metricsStore = chstore.NewPoolMetricsStore(conn)
		reportStore = pgstore.NewReportStore(pool)
	}

	eng := engine.New(engine.Options{
		PositionStore:     positionStore,
		MetricsStore:      metricsStore,
		ReportStore:       reportStore,
		Policy:            cfg.Policy(),
		PositionStaleness: cfg.PositionStaleness,
		MetricsWindow:     cfg.MetricsWindow,
		MismatchTolerance: cfg.MismatchTolerance,
		Logger:            logger,
	})

	result, err := eng.RunCycle(ctx)
	if err != nil {
		return err
	}

	printSummary(result)
	return nil
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.PostgresDSN == "" && cfg.ClickhouseDSN == "" {
		return fmt.Errorf("at least one of postgres-dsn, clickhouse-dsn is required")
	}

	if cfg.PostgresDSN != "" {
		pool, err := pgstore.NewPool(ctx, cfg.PostgresDSN)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer pool.Close()

		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			return err
		}
		logger.Info("postgres migrations applied")
	}

	if cfg.ClickhouseDSN != "" {
		conn, err := chstore.NewConn(ctx, cfg.ClickhouseDSN)
		if err != nil {
			return fmt.Errorf("connect clickhouse: %w", err)
		}
		defer conn.Close()

		if err := migrations.RunClickhouseMigrations(ctx, conn); err != nil {
			return err
		}
		logger.Info("clickhouse migrations applied")
	}

	return nil
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}

func printSummary(result *engine.CycleResult) {
	d := result.Diagnostics
	fmt.Printf("cycle published %d rows (%d synthetic, %d missing metrics, %d stale)\n",
		len(result.Rows), d.SyntheticRows, d.MissingMetrics, d.StalePositions)
	if d.KeyMismatch {
		fmt.Printf("key mismatch: %d address matches vs %d name matches (joined by %s)\n",
			d.Match.AddressMatches, d.Match.NameMatches, d.Match.Strategy)
	}
	for _, network := range domain.AllNetworks {
		s, ok := d.PerNetwork[network]
		if !ok {
			continue
		}
		fmt.Printf("  %-9s rows=%-3d held=$%.2f target=$%.2f gap=$%.2f\n",
			network, s.Rows, s.HeldValueUSD, s.TargetValueUSD, s.GapUSD)
	}
	for _, row := range result.Rows {
		flags := ""
		if row.Synthetic {
			flags += " [synthetic]"
		}
		if row.MissingMetrics {
			flags += " [missing metrics]"
		}
		if row.NoRecentPositions {
			flags += " [no recent positions]"
		}
		fmt.Printf("  %-8s %-9s %-16s %-16s held=$%.2f target=$%.2f gap=$%.2f%s\n",
			row.Token, row.Network, row.PoolDisplayName, row.Status,
			row.HeldValueUSD, row.TargetValueUSD, row.GapUSD, flags)
	}
}
