package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gyeh/riskscore/internal/exitcode"
	"github.com/gyeh/riskscore/internal/logging"
	"github.com/gyeh/riskscore/internal/reftables"
	"github.com/gyeh/riskscore/internal/runner"
	"github.com/gyeh/riskscore/internal/warehouse"
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Run a scoring run over all warehouse members",
	RunE:  runScore,
}

func init() {
	f := scoreCmd.Flags()
	f.IntVar(&cfg.ModelYear, "model-year", 0, "Model year of the reference tables (required)")
	f.IntVar(&cfg.PredictionYear, "prediction-year", 0, "Benefit year override for age calculation")
	f.StringVar(&cfg.RunDescription, "run-description", "", "Free-text description stored on the run")
	f.Int64Var(&cfg.GroupID, "group-id", 0, "Existing run group to attach to (default: allocate)")
	f.IntVar(&cfg.Workers, "workers", 0, "Scoring worker count (default: GOMAXPROCS)")
	rootCmd.AddCommand(scoreCmd)
}

func runScore(cmd *cobra.Command, args []string) error {
	log := logging.Setup(cfg.LogFormat, cfg.Verbose)
	ctx := context.Background()

	if err := loadConfigFile(); err != nil {
		log.Error().Err(err).Msg("config file load failed")
		os.Exit(exitcode.UsageError)
	}
	if err := cfg.ValidateTables(); err != nil {
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

	store := reftables.NewStore(cfg.TablesDir)
	summary, err := runner.Run(ctx, pool, store, log, &runner.Options{
		ModelYear:      cfg.ModelYear,
		PredictionYear: cfg.PredictionYear,
		RunDescription: cfg.RunDescription,
		GroupID:        cfg.GroupID,
		Workers:        cfg.Workers,
	})
	if err != nil {
		var confErr *reftables.ConfigurationError
		if errors.As(err, &confErr) {
			log.Error().Err(err).Msg("reference tables unavailable")
			os.Exit(exitcode.TablesError)
		}
		var pe *runner.PipelineError
		if errors.As(err, &pe) {
			log.Error().Err(pe.Err).Str("phase", pe.Phase).Msg("scoring run failed")
			os.Exit(exitcode.RunError)
		}
		log.Error().Err(err).Msg("scoring run failed")
		os.Exit(exitcode.RunError)
	}

	fmt.Printf("Run %s complete: %d scored, %d failed of %d members (%.1fs)\n",
		summary.RunID, summary.MembersScored, summary.MembersFailed,
		summary.MembersRead, summary.DurationTotal.Seconds())
	return nil
}
