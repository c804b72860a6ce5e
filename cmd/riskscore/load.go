package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gyeh/riskscore/internal/exitcode"
	"github.com/gyeh/riskscore/internal/logging"
	"github.com/gyeh/riskscore/internal/warehouse"
)

var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Load a member Parquet file into the warehouse",
	RunE:  runLoad,
}

func init() {
	f := loadCmd.Flags()
	f.StringVar(&cfg.FilePath, "file", "", "Path to member Parquet file (required)")
	f.BoolVar(&cfg.Force, "force", false, "Re-load even if file SHA already exists")
	_ = loadCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(loadCmd)
}

func runLoad(cmd *cobra.Command, args []string) error {
	log := logging.Setup(cfg.LogFormat, cfg.Verbose)
	ctx := context.Background()

	if err := loadConfigFile(); err != nil {
		log.Error().Err(err).Msg("config file load failed")
		os.Exit(exitcode.UsageError)
	}
	if err := cfg.ValidateFile(); err != nil {
		log.Error().Err(err).Msg("config validation failed")
		os.Exit(exitcode.UsageError)
	}
	if err := cfg.ValidateDSN(); err != nil {
		log.Error().Err(err).Msg("config validation failed")
		os.Exit(exitcode.UsageError)
	}

	pool, err := warehouse.NewPool(ctx, cfg.DSN)
	if err != nil {
		log.Error().Err(err).Msg("database connection failed")
		os.Exit(exitcode.DBConnError)
	}
	defer pool.Close()

	summary, err := warehouse.LoadMemberFile(ctx, pool, log, cfg.FilePath, cfg.Force)
	if err != nil {
		log.Error().Err(err).Msg("member load failed")
		os.Exit(exitcode.RunError)
	}

	fmt.Printf("Load complete: %d rows loaded, %d rejected (%.1fs)\n",
		summary.RowsLoaded, summary.RowsRejected, summary.DurationTotal.Seconds())
	return nil
}
