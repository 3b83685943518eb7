package cmd

import (
	"context"
	"fmt"

	"snapshot-catalog/core/config"
	"snapshot-catalog/core/database"
	"snapshot-catalog/core/logger"
	"snapshot-catalog/core/storage"
	"snapshot-catalog/feature/catalog"
	"snapshot-catalog/feature/catalog/models"
	"snapshot-catalog/feature/scanner"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// scanCmd runs a single reconciliation pass from the CLI.
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Run a single snapshot discovery scan",
	Long: `Runs one manual reconciliation pass against the configured bucket and exits.

Walks the protocol/version prefix hierarchy, catalogs new snapshot
directories, and refreshes manifest metrics on known ones. Per-directory
failures are reported but do not abort the scan.`,
	RunE: runScan,
}

func init() {
	RootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.LoadConfig(".")
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	l, err := logger.New(&cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer l.Sync()

	db, err := database.Connect(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	client, err := storage.NewClient(cfg.Storage)
	if err != nil {
		return fmt.Errorf("failed to connect to storage: %w", err)
	}

	repo := catalog.NewRepository(db)
	if err := repo.Migrate(); err != nil {
		return fmt.Errorf("failed to migrate catalog schema: %w", err)
	}

	gateway := scanner.NewGateway(client, cfg.Storage.Bucket, cfg.Scanner.PrefixCap)
	extractor := scanner.NewExtractor(gateway, l)
	engine := scanner.NewEngine(gateway, extractor, repo, l)

	result, err := engine.RunOnce(ctx, models.ScanTypeManual)
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	l.Info("Scan finished",
		zap.Int("found", result.SnapshotsFound),
		zap.Int("new", result.NewSnapshots),
		zap.Int("updated", result.UpdatedSnapshots),
		zap.Int("chains", result.ChainsScanned),
		zap.Float64("duration_seconds", result.DurationSeconds),
	)
	for _, e := range result.Errors {
		l.Warn("Scan error", zap.String("detail", e))
	}

	return nil
}
