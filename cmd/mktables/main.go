// mktables writes a small synthetic reference-table set in the CMS DIY
// layout (cy{year}_diy_tables), for local development and regression
// fixtures. Values are representative, not official.
// Usage: go run ./cmd/mktables --out testdata --year 2024
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	goparquet "github.com/parquet-go/parquet-go"
)

type icdRow struct {
	ICD10    string `parquet:"icd10,optional"`
	CC       string `parquet:"cc,optional"`
	SecondCC string `parquet:"second_cc,optional"`
	ThirdCC  string `parquet:"third_cc,optional"`
}

type hierarchyRow struct {
	HCC        string `parquet:"v07_hcc,optional"`
	HCCsToZero string `parquet:"hccs_to_zero,optional"`
	Label      string `parquet:"label,optional"`
}

type coefficientRow struct {
	Model        string  `parquet:"model,optional"`
	Variable     string  `parquet:"variable,optional"`
	Platinum     float64 `parquet:"platinum_level,optional"`
	Gold         float64 `parquet:"gold_level,optional"`
	Silver       float64 `parquet:"silver_level,optional"`
	Bronze       float64 `parquet:"bronze_level,optional"`
	Catastrophic float64 `parquet:"catastrophic_level,optional"`
}

type ndcRow struct {
	NDC string `parquet:"ndc,optional"`
	RXC string `parquet:"rxc,optional"`
}

type rxcHierarchyRow struct {
	RXC        string `parquet:"v07_rxc,optional"`
	RXCsToZero string `parquet:"rxcs_to_zero,optional"`
}

type exclusionRow struct {
	HCC    string `parquet:"v07_hhs-hcc,optional"`
	Adult  string `parquet:"payment_hccs_excluded_from_adult_model,optional"`
	Child  string `parquet:"payment_hccs_excluded_from_child_model,optional"`
	Infant string `parquet:"payment_hccs_excluded_from_infant_model,optional"`
}

type groupEntry struct {
	Model        string             `json:"model"`
	Variable     string             `json:"variable"`
	Definition   string             `json:"definition"`
	Continuation []map[string]string `json:"continuation,omitempty"`
}

func main() {
	out := flag.String("out", "testdata", "output directory")
	year := flag.Int("year", 2024, "model year")
	flag.Parse()

	dir := filepath.Join(*out, fmt.Sprintf("cy%d_diy_tables", *year))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		fatal("mkdir: %v", err)
	}

	writeParquet(filepath.Join(dir, "table_3.parquet"), []icdRow{
		{ICD10: "E1165", CC: "020"},
		{ICD10: "E1100", CC: "021"},
		{ICD10: "E1010", CC: "019"},
		{ICD10: "F329", CC: "088"},
		{ICD10: "A021", CC: "002"},
		{ICD10: "C9100", CC: "008", SecondCC: "009"},
		{ICD10: "J45", CC: "161_1"},
	})

	writeParquet(filepath.Join(dir, "table_4.parquet"), []hierarchyRow{
		{HCC: "019", HCCsToZero: "020, 021", Label: "Diabetes with Acute Complications"},
		{HCC: "020", HCCsToZero: "021", Label: "Diabetes with Chronic Complications"},
		{HCC: "008", HCCsToZero: "009", Label: "Metastatic Cancer"},
	})

	writeParquet(filepath.Join(dir, "table_9.parquet"), coefficientRows())

	writeParquet(filepath.Join(dir, "table_10a.parquet"), []ndcRow{
		{NDC: "00003196401", RXC: "01"},
		{NDC: "00024590110", RXC: "06"},
		{NDC: "00093741006", RXC: "07"},
	})

	writeParquet(filepath.Join(dir, "table_11.parquet"), []rxcHierarchyRow{
		{RXC: "06", RXCsToZero: "07"},
	})

	writeParquet(filepath.Join(dir, "table_12.parquet"), []exclusionRow{
		{HCC: "002", Child: "X"},
		{HCC: "161_1", Adult: "X"},
	})

	writeJSON(filepath.Join(dir, "table_6.json"), []groupEntry{
		{
			Model:    "Adult",
			Variable: "G01",
			Definition: "if HHS_HCC019 = 1 or HHS_HCC020 = 1 or HHS_HCC021 = 1 then do; " +
				"HHS_HCC019 = 0; HHS_HCC020 = 0; HHS_HCC021 = 0; G01 = 1; end;",
		},
		{
			Model:      "Adult",
			Variable:   "SEVERE_V3",
			Definition: "if HHS_HCC008 = 1 then SEVERE_V3 = 1;",
		},
	})
	writeJSON(filepath.Join(dir, "table_7.json"), []groupEntry{
		{
			Model:    "Child",
			Variable: "G01",
			Definition: "if HHS_HCC019 = 1 or HHS_HCC020 = 1 or HHS_HCC021 = 1 then do; " +
				"HHS_HCC019 = 0; HHS_HCC020 = 0; HHS_HCC021 = 0; G01 = 1; end;",
		},
	})

	fmt.Printf("wrote synthetic table set: %s\n", dir)
}

func coefficientRows() []coefficientRow {
	rows := []coefficientRow{
		{Model: "Adult", Variable: "MAGE_LAST_55_59", Platinum: 0.52, Gold: 0.47, Silver: 0.44, Bronze: 0.40, Catastrophic: 0.38},
		{Model: "Adult", Variable: "FAGE_LAST_55_59", Platinum: 0.56, Gold: 0.51, Silver: 0.48, Bronze: 0.43, Catastrophic: 0.41},
		{Model: "Adult", Variable: "MAGE_LAST_21_24", Platinum: 0.22, Gold: 0.19, Silver: 0.17, Bronze: 0.14, Catastrophic: 0.13},
		{Model: "Adult", Variable: "MAGE_LAST_60_GT", Platinum: 0.60, Gold: 0.55, Silver: 0.51, Bronze: 0.46, Catastrophic: 0.44},
		{Model: "Child", Variable: "MAGE_LAST_15_20", Platinum: 0.20, Gold: 0.18, Silver: 0.16, Bronze: 0.13, Catastrophic: 0.12},
		{Model: "Adult", Variable: "HHS_HCC008", Platinum: 12.3, Gold: 11.9, Silver: 11.5, Bronze: 10.8, Catastrophic: 10.6},
		{Model: "Adult", Variable: "HHS_HCC088", Platinum: 0.96, Gold: 0.85, Silver: 0.77, Bronze: 0.62, Catastrophic: 0.60},
		{Model: "Adult", Variable: "G01", Platinum: 2.60, Gold: 2.41, Silver: 2.27, Bronze: 2.02, Catastrophic: 1.97},
		{Model: "Adult", Variable: "RXC_01", Platinum: 1.10, Gold: 1.02, Silver: 0.95, Bronze: 0.84, Catastrophic: 0.82},
		{Model: "Adult", Variable: "RXC_06", Platinum: 0.70, Gold: 0.64, Silver: 0.58, Bronze: 0.49, Catastrophic: 0.47},
	}
	for m := 1; m <= 6; m++ {
		rows = append(rows, coefficientRow{
			Model: "Adult", Variable: fmt.Sprintf("HCC_ED%d", m),
			Platinum: 0.30, Gold: 0.28, Silver: 0.26, Bronze: 0.23, Catastrophic: 0.22,
		})
	}
	return rows
}

func writeParquet[T any](path string, rows []T) {
	f, err := os.Create(path)
	if err != nil {
		fatal("create %s: %v", path, err)
	}
	w := goparquet.NewGenericWriter[T](f)
	if _, err := w.Write(rows); err != nil {
		fatal("write %s: %v", path, err)
	}
	if err := w.Close(); err != nil {
		fatal("close %s: %v", path, err)
	}
	if err := f.Close(); err != nil {
		fatal("close %s: %v", path, err)
	}
}

func writeJSON(path string, v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fatal("marshal %s: %v", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		fatal("write %s: %v", path, err)
	}
}

func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
