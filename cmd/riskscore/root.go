package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/gyeh/riskscore/internal/config"
)

var cfg config.Config

var configFile string

var rootCmd = &cobra.Command{
	Use:   "riskscore",
	Short: "ACA HHS-HCC risk-adjustment scoring over a Postgres warehouse",
	Long: "Loads member files, applies the HHS-HCC risk model for a given model year, " +
		"and persists scores with a full component-level audit trail.",
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfg.DSN, "dsn", os.Getenv("RISK_DB_URL"), "Postgres connection string (or set RISK_DB_URL)")
	pf.StringVar(&cfg.TablesDir, "tables-dir", os.Getenv("RISK_TABLES_DIR"), "Directory containing cy{year}_diy_tables sets")
	pf.StringVar(&cfg.LogFormat, "log-format", "text", "Log format: text or json")
	pf.BoolVar(&cfg.Verbose, "verbose", false, "Enable debug logging")
	pf.StringVar(&configFile, "config", "", "Optional YAML config file")
}

// loadConfigFile merges the YAML config file into cfg when one was given.
func loadConfigFile() error {
	if configFile == "" {
		return nil
	}
	return cfg.LoadFromFile(configFile)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
