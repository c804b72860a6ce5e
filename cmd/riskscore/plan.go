package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/gyeh/riskscore/internal/exitcode"
	"github.com/gyeh/riskscore/internal/logging"
	"github.com/gyeh/riskscore/internal/model"
	"github.com/gyeh/riskscore/internal/reftables"
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Dry-run reference table inspection (no writes)",
	RunE:  runPlan,
}

func init() {
	planCmd.Flags().IntVar(&cfg.ModelYear, "model-year", 0, "Model year to inspect (required)")
	_ = planCmd.MarkFlagRequired("model-year")
	rootCmd.AddCommand(planCmd)
}

func runPlan(cmd *cobra.Command, args []string) error {
	log := logging.Setup(cfg.LogFormat, cfg.Verbose)

	if err := loadConfigFile(); err != nil {
		log.Error().Err(err).Msg("config file load failed")
		os.Exit(exitcode.UsageError)
	}
	if err := cfg.ValidateTables(); err != nil {
		log.Error().Err(err).Msg("config validation failed")
		os.Exit(exitcode.UsageError)
	}

	store := reftables.NewStore(cfg.TablesDir)
	tables, err := store.Load(cfg.ModelYear)
	if err != nil {
		log.Error().Err(err).Msg("reference table load failed")
		os.Exit(exitcode.TablesError)
	}

	fmt.Println("=== riskscore plan ===")
	fmt.Printf("Tables dir:       %s\n", cfg.TablesDir)
	fmt.Printf("Model year:       %d\n", tables.ModelYear)
	fmt.Printf("ICD→CC entries:   %d\n", len(tables.ICDToCC))
	fmt.Printf("CC hierarchies:   %d\n", len(tables.CCHierarchy))
	fmt.Printf("Coefficients:     %d\n", len(tables.Coefficients))
	fmt.Printf("NDC→RXC entries:  %d\n", len(tables.NDCToRXC))
	fmt.Printf("RXC hierarchies:  %d\n", len(tables.RXCHierarchy))
	fmt.Println()

	models := make([]string, 0, len(tables.HCCGroups))
	for mt := range tables.HCCGroups {
		models = append(models, string(mt))
	}
	sort.Strings(models)
	for _, mt := range models {
		groups := tables.HCCGroups[model.ModelType(mt)]
		fmt.Printf("%s groups: %d, exclusions: %d\n",
			mt, len(groups), len(tables.ModelExclusions[model.ModelType(mt)]))
	}
	fmt.Println("Table load: OK")

	return nil
}
