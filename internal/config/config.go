package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds all runtime configuration for a riskscore run.
type Config struct {
	DSN       string
	TablesDir string `yaml:"tables_dir"` // directory of cy{year}_diy_tables sets
	LogFormat string // "text" or "json"
	Verbose   bool

	FilePath string // member parquet file for load
	Force    bool   // re-load even if file SHA already exists

	ModelYear      int    `yaml:"model_year"`
	PredictionYear int    `yaml:"prediction_year"` // 0 = model year
	RunDescription string `yaml:"run_description"`
	GroupID        int64
	Workers        int `yaml:"workers"`
}

// yamlConfig is the on-disk YAML structure; it carries only the fields that
// make sense to persist across runs.
type yamlConfig struct {
	TablesDir      string `yaml:"tables_dir"`
	ModelYear      int    `yaml:"model_year"`
	PredictionYear int    `yaml:"prediction_year"`
	RunDescription string `yaml:"run_description"`
	Workers        int    `yaml:"workers"`
}

// LoadFromFile reads a YAML config file and merges its values into Config.
// Flag values already set take precedence over the file.
func (c *Config) LoadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	var yc yamlConfig
	if err := yaml.Unmarshal(data, &yc); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	if c.TablesDir == "" {
		c.TablesDir = yc.TablesDir
	}
	if c.ModelYear == 0 {
		c.ModelYear = yc.ModelYear
	}
	if c.PredictionYear == 0 {
		c.PredictionYear = yc.PredictionYear
	}
	if c.RunDescription == "" {
		c.RunDescription = yc.RunDescription
	}
	if c.Workers == 0 {
		c.Workers = yc.Workers
	}
	return nil
}

// ValidateTables checks that a tables directory is configured and readable.
func (c *Config) ValidateTables() error {
	if c.TablesDir == "" {
		return fmt.Errorf("--tables-dir is required")
	}
	if _, err := os.Stat(c.TablesDir); err != nil {
		return fmt.Errorf("tables dir not accessible: %w", err)
	}
	if c.ModelYear == 0 {
		return fmt.Errorf("--model-year is required")
	}
	return nil
}

// ValidateFile checks the member file path for load.
func (c *Config) ValidateFile() error {
	if c.FilePath == "" {
		return fmt.Errorf("--file is required")
	}
	if _, err := os.Stat(c.FilePath); err != nil {
		return fmt.Errorf("file not accessible: %w", err)
	}
	return nil
}

// ValidateDSN checks that a database connection string is configured.
func (c *Config) ValidateDSN() error {
	if c.DSN == "" {
		return fmt.Errorf("--dsn or RISK_DB_URL is required")
	}
	return nil
}
