package reftables

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	goparquet "github.com/parquet-go/parquet-go"

	"github.com/gyeh/riskscore/internal/model"
)

type icdFixtureRow struct {
	ICD10    string `parquet:"icd10,optional"`
	CC       string `parquet:"cc,optional"`
	SecondCC string `parquet:"second_cc,optional"`
	ThirdCC  string `parquet:"third_cc,optional"`
}

type hierarchyFixtureRow struct {
	HCC        string `parquet:"v07_hcc,optional"`
	HCCsToZero string `parquet:"hccs_to_zero,optional"`
	Label      string `parquet:"label,optional"`
}

// hierarchyV08Row models a later CMS release: version stamp bumped, label
// column renamed.
type hierarchyV08Row struct {
	HCC         string `parquet:"v08_hcc,optional"`
	HCCsToZero  string `parquet:"hccs_to_zero,optional"`
	Description string `parquet:"description,optional"`
}

type coefficientFixtureRow struct {
	Model        string  `parquet:"model,optional"`
	Variable     string  `parquet:"variable,optional"`
	Platinum     float64 `parquet:"platinum_level,optional"`
	Gold         float64 `parquet:"gold_level,optional"`
	Silver       float64 `parquet:"silver_level,optional"`
	Bronze       float64 `parquet:"bronze_level,optional"`
	Catastrophic float64 `parquet:"catastrophic_level,optional"`
}

type ndcFixtureRow struct {
	NDC string `parquet:"ndc,optional"`
	RXC string `parquet:"rxc,optional"`
}

type rxcHierarchyFixtureRow struct {
	RXC        string `parquet:"v07_rxc,optional"`
	RXCsToZero string `parquet:"rxcs_to_zero,optional"`
}

// driftedRow stands in for a table_11 release whose columns are unrecognizable.
type driftedRow struct {
	Alpha string `parquet:"alpha,optional"`
	Beta  string `parquet:"beta,optional"`
}

type exclusionFixtureRow struct {
	HCC    string `parquet:"v07_hhs-hcc,optional"`
	Adult  string `parquet:"payment_hccs_excluded_from_adult_model,optional"`
	Child  string `parquet:"payment_hccs_excluded_from_child_model,optional"`
	Infant string `parquet:"payment_hccs_excluded_from_infant_model,optional"`
}

type groupFixture struct {
	Model        string `json:"model"`
	Variable     string `json:"variable"`
	Definition   string `json:"definition"`
	Continuation []struct {
		Definition string `json:"definition"`
	} `json:"continuation,omitempty"`
}

func writeParquetFixture[T any](t *testing.T, path string, rows []T) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	w := goparquet.NewGenericWriter[T](f)
	if _, err := w.Write(rows); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close %s: %v", path, err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close %s: %v", path, err)
	}
}

func writeJSONFixture(t *testing.T, path string, v any) {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal %s: %v", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// writeFixtureTables lays down a complete synthetic table set for one year.
func writeFixtureTables(t *testing.T, baseDir string, year int) string {
	t.Helper()
	dir := filepath.Join(baseDir, fmt.Sprintf("cy%d_diy_tables", year))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	writeParquetFixture(t, filepath.Join(dir, "table_3.parquet"), []icdFixtureRow{
		{ICD10: "E1165", CC: "020"},
		{ICD10: "F329", CC: "088"},
		{ICD10: "C9100", CC: "008", SecondCC: "009"},
		{ICD10: "Z0000", CC: "21.0"},
		{ICD10: "J45", CC: "161.1"},
		{ICD10: "XXXXX"}, // no CC: dropped
	})

	writeParquetFixture(t, filepath.Join(dir, "table_4.parquet"), []hierarchyFixtureRow{
		{HCC: "019", HCCsToZero: "020, 021", Label: "Diabetes with Acute Complications"},
		{HCC: "008", HCCsToZero: "009", Label: "Metastatic Cancer"},
		{HCC: "088", Label: "Major Depressive Disorder"},
	})

	writeParquetFixture(t, filepath.Join(dir, "table_9.parquet"), []coefficientFixtureRow{
		{Model: "Adult", Variable: "MAGE_LAST_55_59", Platinum: 0.52, Gold: 0.47, Silver: 0.44, Bronze: 0.40, Catastrophic: 0.38},
		{Model: "Adult", Variable: "HHS_HCC088", Platinum: 0.96, Gold: 0.85, Silver: 0.77, Bronze: 0.62, Catastrophic: 0.60},
		{Model: "Child", Variable: "MAGE_LAST_15_20", Silver: 0.16},
	})

	writeParquetFixture(t, filepath.Join(dir, "table_10a.parquet"), []ndcFixtureRow{
		{NDC: "00003196401", RXC: "01"},
		{NDC: "00024590110", RXC: "06"},
		{NDC: "00024590110", RXC: "06"}, // duplicate row: collapsed
	})

	writeParquetFixture(t, filepath.Join(dir, "table_11.parquet"), []rxcHierarchyFixtureRow{
		{RXC: "06", RXCsToZero: "07"},
	})

	writeParquetFixture(t, filepath.Join(dir, "table_12.parquet"), []exclusionFixtureRow{
		{HCC: "002", Child: "X"},
		{HCC: "161.1", Adult: "X"},
	})

	writeJSONFixture(t, filepath.Join(dir, "table_6.json"), []groupFixture{
		{
			Model:    "Adult",
			Variable: "G01",
			Definition: "if HHS_HCC019 = 1 or HHS_HCC020 = 1 or HHS_HCC021 = 1 then do; " +
				"HHS_HCC019 = 0; HHS_HCC020 = 0; HHS_HCC021 = 0; G01 = 1; end;",
		},
		{
			// Interaction flag, not a group: nothing is zeroed.
			Model:      "Adult",
			Variable:   "SEVERE_V3",
			Definition: "if HHS_HCC008 = 1 then SEVERE_V3 = 1;",
		},
		{
			Model:      "Adult",
			Variable:   "G06A",
			Definition: "if HHS_HCC067 = 1 or HHS_HCC068 = 1 then do; HHS_HCC067 = 0; HHS_HCC068 = 0; G06A = 1; end;",
		},
	})
	writeJSONFixture(t, filepath.Join(dir, "table_7.json"), []groupFixture{
		{
			Model:      "Child",
			Variable:   "G01",
			Definition: "if HHS_HCC019 = 1 or HHS_HCC020 = 1 then do; HHS_HCC019 = 0; HHS_HCC020 = 0; G01 = 1; end;",
		},
	})

	return dir
}

func TestStoreLoad_FullTableSet(t *testing.T) {
	base := t.TempDir()
	writeFixtureTables(t, base, 2024)

	tables, err := NewStore(base).Load(2024)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if tables.ModelYear != 2024 {
		t.Errorf("model year = %d, want 2024", tables.ModelYear)
	}

	if got := tables.ICDToCC["E1165"]; !reflect.DeepEqual(got, []string{"020"}) {
		t.Errorf("ICDToCC[E1165] = %v, want [020]", got)
	}
	if got := tables.ICDToCC["C9100"]; !reflect.DeepEqual(got, []string{"008", "009"}) {
		t.Errorf("ICDToCC[C9100] = %v, want [008 009]", got)
	}
	// Decimal CC identifiers are normalized: 21.0 → 21, 161.1 → 161_1.
	if got := tables.ICDToCC["Z0000"]; !reflect.DeepEqual(got, []string{"21"}) {
		t.Errorf("ICDToCC[Z0000] = %v, want [21]", got)
	}
	if got := tables.ICDToCC["J45"]; !reflect.DeepEqual(got, []string{"161_1"}) {
		t.Errorf("ICDToCC[J45] = %v, want [161_1]", got)
	}
	if _, ok := tables.ICDToCC["XXXXX"]; ok {
		t.Error("ICD row without CCs should be dropped")
	}

	if got := tables.CCHierarchy["019"]; !reflect.DeepEqual(got, []string{"020", "021"}) {
		t.Errorf("CCHierarchy[019] = %v, want [020 021]", got)
	}
	if _, ok := tables.CCHierarchy["088"]; ok {
		t.Error("HCC with no supersession list should not be a hierarchy key")
	}
	if got := tables.HCCLabels["088"]; got != "Major Depressive Disorder" {
		t.Errorf("HCCLabels[088] = %q", got)
	}

	if got := tables.Coefficient(model.Adult, "MAGE_LAST_55_59", model.Silver); got != 0.44 {
		t.Errorf("silver coefficient = %f, want 0.44", got)
	}
	if got := tables.Coefficient(model.Adult, "MAGE_LAST_55_59", model.Platinum); got != 0.52 {
		t.Errorf("platinum coefficient = %f, want 0.52", got)
	}
	if got := tables.Coefficient(model.Adult, "NO_SUCH_VARIABLE", model.Silver); got != 0 {
		t.Errorf("missing coefficient = %f, want 0", got)
	}
	if got := tables.Coefficient(model.Child, "MAGE_LAST_15_20", model.Gold); got != 0 {
		t.Errorf("unset gold column = %f, want 0", got)
	}

	if !tables.Excluded(model.Adult, "161_1") {
		t.Error("161_1 should be excluded from the Adult model")
	}
	if tables.Excluded(model.Child, "161_1") {
		t.Error("161_1 should not be excluded from the Child model")
	}
	if !tables.Excluded(model.Child, "002") {
		t.Error("002 should be excluded from the Child model")
	}

	if got := tables.NDCToRXC["00003196401"]; !reflect.DeepEqual(got, []string{"01"}) {
		t.Errorf("NDCToRXC[00003196401] = %v, want [01]", got)
	}
	if got := tables.NDCToRXC["00024590110"]; !reflect.DeepEqual(got, []string{"06"}) {
		t.Errorf("NDCToRXC[00024590110] = %v, want duplicate collapsed to [06]", got)
	}
	if got := tables.RXCHierarchy["06"]; !reflect.DeepEqual(got, []string{"07"}) {
		t.Errorf("RXCHierarchy[06] = %v, want [07]", got)
	}
}

func TestStoreLoad_GroupRuleMining(t *testing.T) {
	base := t.TempDir()
	writeFixtureTables(t, base, 2024)

	tables, err := NewStore(base).Load(2024)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	adult := tables.GroupsFor(model.Adult)
	want := []Group{
		{Variable: "G01", Members: []string{"019", "020", "021"}},
		{Variable: "G06A", Members: []string{"067", "068"}},
	}
	if !reflect.DeepEqual(adult, want) {
		t.Errorf("adult groups = %v, want %v (SEVERE_V3 filtered, declaration order kept)", adult, want)
	}

	child := tables.GroupsFor(model.Child)
	if len(child) != 1 || child[0].Variable != "G01" {
		t.Errorf("child groups = %v, want single G01", child)
	}
	if !reflect.DeepEqual(child[0].Members, []string{"019", "020"}) {
		t.Errorf("child G01 members = %v, want [019 020]", child[0].Members)
	}

	if got := tables.GroupsFor(model.Infant); got != nil {
		t.Errorf("infant groups = %v, want nil", got)
	}
}

func TestStoreLoad_VersionStampedColumns(t *testing.T) {
	base := t.TempDir()
	dir := writeFixtureTables(t, base, 2025)

	// Overwrite table_4 with the v08 column layout.
	writeParquetFixture(t, filepath.Join(dir, "table_4.parquet"), []hierarchyV08Row{
		{HCC: "019", HCCsToZero: "020", Description: "Diabetes with Acute Complications"},
	})

	tables, err := NewStore(base).Load(2025)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := tables.CCHierarchy["019"]; !reflect.DeepEqual(got, []string{"020"}) {
		t.Errorf("CCHierarchy[019] = %v, want [020]", got)
	}
	if got := tables.HCCLabels["019"]; got != "Diabetes with Acute Complications" {
		t.Errorf("label from description column = %q", got)
	}
}

func TestStoreLoad_MissingDrugTables(t *testing.T) {
	base := t.TempDir()
	dir := writeFixtureTables(t, base, 2024)
	for _, name := range []string{"table_10a.parquet", "table_11.parquet"} {
		if err := os.Remove(filepath.Join(dir, name)); err != nil {
			t.Fatalf("remove %s: %v", name, err)
		}
	}

	tables, err := NewStore(base).Load(2024)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(tables.NDCToRXC) != 0 {
		t.Errorf("NDCToRXC = %v, want empty", tables.NDCToRXC)
	}
	if len(tables.RXCHierarchy) != 0 {
		t.Errorf("RXCHierarchy = %v, want empty", tables.RXCHierarchy)
	}
}

func TestStoreLoad_RXCHierarchyColumnDrift(t *testing.T) {
	base := t.TempDir()
	dir := writeFixtureTables(t, base, 2024)
	writeParquetFixture(t, filepath.Join(dir, "table_11.parquet"), []driftedRow{
		{Alpha: "06", Beta: "07"},
	})

	tables, err := NewStore(base).Load(2024)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(tables.RXCHierarchy) != 0 {
		t.Errorf("RXCHierarchy = %v, want empty on unrecognized columns", tables.RXCHierarchy)
	}
}

func TestStoreLoad_CachesPerYear(t *testing.T) {
	base := t.TempDir()
	writeFixtureTables(t, base, 2024)
	store := NewStore(base)

	first, err := store.Load(2024)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	second, err := store.Load(2024)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if first != second {
		t.Error("repeated Load should return the cached Tables pointer")
	}

	store.ClearCache()
	third, err := store.Load(2024)
	if err != nil {
		t.Fatalf("Load after ClearCache: %v", err)
	}
	if third == first {
		t.Error("ClearCache should force a reload")
	}
}

func TestStoreLoad_MissingYear(t *testing.T) {
	store := NewStore(t.TempDir())
	_, err := store.Load(2031)
	if err == nil {
		t.Fatal("expected error for missing table set")
	}
	var cfgErr *ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("error = %v, want ConfigurationError", err)
	}
	if cfgErr.ModelYear != 2031 {
		t.Errorf("ModelYear = %d, want 2031", cfgErr.ModelYear)
	}
}

func TestNormalizeCategory(t *testing.T) {
	cases := []struct{ in, want string }{
		{"21.0", "21"},
		{"35.1", "35_1"},
		{"161_1", "161_1"},
		{" 020 ", "020"},
		{"19", "19"},
	}
	for _, tc := range cases {
		if got := NormalizeCategory(tc.in); got != tc.want {
			t.Errorf("NormalizeCategory(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
