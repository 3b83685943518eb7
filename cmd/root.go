package cmd

import (
	"fmt"
	"os"

	"snapshot-catalog/core/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "snapshot-catalog",
	Short: "Snapshot Catalog Service",
	Long: `Snapshot Catalog indexes blockchain snapshots stored in S3-compatible buckets.
It discovers snapshot directories by their manifest files and keeps a browsable
catalog in sync through periodic and on-demand scans.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	if err := RootCmd.Execute(); err != nil {
		// Use the application's standard logger for error reporting.
		// Console format with "debug" level gives readable ISO8601 timestamps
		// for a CLI tool.
		cfg := &logger.Config{
			Level:  "debug",
			Format: "console",
		}

		l, logErr := logger.New(cfg)
		if logErr == nil {
			l.Error("command failed", zap.Error(err))
			_ = l.Sync()
		} else {
			// Absolute fallback if logger creation fails (rare)
			fmt.Println(err)
		}
		os.Exit(1)
	}
}
