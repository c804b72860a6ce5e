package reftables

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/gyeh/riskscore/internal/model"
)

// ConfigurationError reports that no reference table set exists for a
// requested model year. It is fatal: the caller must supply a different year
// or install tables.
type ConfigurationError struct {
	ModelYear int
	Dir       string
	Err       error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("no reference tables for model year %d (expected %s): %s", e.ModelYear, e.Dir, e.Err)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// Store loads and caches reference tables per model year. Loads are the only
// I/O in the scoring path; repeated Load calls for the same year return the
// same in-memory Tables.
type Store struct {
	baseDir string

	mu    sync.RWMutex
	cache map[int]*Tables
}

// NewStore creates a Store reading table sets from baseDir, which contains
// one cy{year}_diy_tables directory per model year.
func NewStore(baseDir string) *Store {
	return &Store{
		baseDir: baseDir,
		cache:   make(map[int]*Tables),
	}
}

// Load returns the reference tables for the model year, loading and caching
// them on first use. Returns a ConfigurationError when no table set exists
// for the year.
func (s *Store) Load(modelYear int) (*Tables, error) {
	s.mu.RLock()
	t, ok := s.cache[modelYear]
	s.mu.RUnlock()
	if ok {
		return t, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.cache[modelYear]; ok {
		return t, nil
	}

	dir := filepath.Join(s.baseDir, fmt.Sprintf("cy%d_diy_tables", modelYear))
	if _, err := os.Stat(dir); err != nil {
		return nil, &ConfigurationError{ModelYear: modelYear, Dir: dir, Err: err}
	}

	t, err := loadTables(dir, modelYear)
	if err != nil {
		return nil, fmt.Errorf("load tables for model year %d: %w", modelYear, err)
	}

	s.cache[modelYear] = t
	return t, nil
}

// ClearCache drops all cached tables. Used for test isolation only.
func (s *Store) ClearCache() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache = make(map[int]*Tables)
}

// loadTables reads every table family for one model year from dir.
func loadTables(dir string, modelYear int) (*Tables, error) {
	t := &Tables{
		ModelYear:       modelYear,
		HCCGroups:       make(map[model.ModelType][]Group),
		ModelExclusions: make(map[model.ModelType]map[string]bool),
		HCCLabels:       make(map[string]string),
		RXCLabels:       make(map[string]string),
	}

	var err error
	if t.ICDToCC, err = loadICDToCC(filepath.Join(dir, "table_3.parquet")); err != nil {
		return nil, err
	}
	if t.CCHierarchy, t.HCCLabels, err = loadHierarchy(filepath.Join(dir, "table_4.parquet"), "_hcc"); err != nil {
		return nil, err
	}
	if t.Coefficients, err = loadCoefficients(filepath.Join(dir, "table_9.parquet")); err != nil {
		return nil, err
	}
	if t.ModelExclusions, err = loadExclusions(filepath.Join(dir, "table_12.parquet")); err != nil {
		return nil, err
	}

	for mt, file := range map[model.ModelType]string{
		model.Adult: "table_6.json",
		model.Child: "table_7.json",
	} {
		groups, err := loadGroups(filepath.Join(dir, file), mt)
		if err != nil {
			return nil, err
		}
		t.HCCGroups[mt] = groups
	}

	// Drug tables are absent from some year releases; scoring degrades to
	// no RXC contribution rather than failing the whole table set.
	t.NDCToRXC, err = loadNDCToRXC(filepath.Join(dir, "table_10a.parquet"))
	if err != nil {
		return nil, err
	}
	t.RXCHierarchy, t.RXCLabels, err = loadRXCHierarchy(filepath.Join(dir, "table_11.parquet"))
	if err != nil {
		return nil, err
	}

	return t, nil
}

// loadICDToCC reads the ICD-10 → CC map (table_3): one row per ICD code with
// up to three CC columns.
func loadICDToCC(path string) (map[string][]string, error) {
	tf, err := openTable(path)
	if err != nil {
		return nil, fmt.Errorf("icd_to_cc: %w", err)
	}
	defer tf.Close()

	icdCol := tf.column("icd10")
	ccCols := []int{tf.column("cc"), tf.column("second_cc"), tf.column("third_cc")}

	out := make(map[string][]string)
	err = tf.forEachRow(func(row rowView) error {
		icd := row.str(icdCol)
		if icd == "" {
			return nil
		}
		var ccs []string
		for _, col := range ccCols {
			if cc := row.str(col); cc != "" {
				ccs = append(ccs, NormalizeCategory(cc))
			}
		}
		if len(ccs) > 0 {
			out[icd] = ccs
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("icd_to_cc: %w", err)
	}
	return out, nil
}

// loadHierarchy reads a supersession table (table_4 shape): the dominant
// category column is version-stamped (v07_hcc, v08_hcc, ...) and found by
// suffix, the superseded list is a comma-joined string. A label-ish column,
// when present, feeds the audit-trail descriptions.
func loadHierarchy(path, categorySuffix string) (map[string][]string, map[string]string, error) {
	tf, err := openTable(path)
	if err != nil {
		return nil, nil, fmt.Errorf("hierarchy: %w", err)
	}
	defer tf.Close()

	catCol := tf.columnWithSuffix(categorySuffix)
	if catCol < 0 {
		return nil, nil, fmt.Errorf("hierarchy: no column ending in %q in %s", categorySuffix, path)
	}
	zeroCol := tf.columnContaining("zero")
	labelCol := tf.columnContaining("label")
	if labelCol < 0 {
		labelCol = tf.columnContaining("description")
	}

	hier := make(map[string][]string)
	labels := make(map[string]string)
	err = tf.forEachRow(func(row rowView) error {
		cat := NormalizeCategory(row.str(catCol))
		if cat == "" {
			return nil
		}
		if superseded := splitCategoryList(row.str(zeroCol)); len(superseded) > 0 {
			hier[cat] = superseded
		}
		if label := row.str(labelCol); label != "" {
			labels[cat] = label
		}
		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("hierarchy: %w", err)
	}
	return hier, labels, nil
}

// loadRXCHierarchy reads table_11. Column naming drifts across CMS releases,
// so when no RXC or "zero" column can be identified the hierarchy degrades to
// empty rather than failing. A missing file degrades the same way.
func loadRXCHierarchy(path string) (map[string][]string, map[string]string, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return map[string][]string{}, map[string]string{}, nil
	}

	tf, err := openTable(path)
	if err != nil {
		return nil, nil, fmt.Errorf("rxc_hierarchy: %w", err)
	}
	defer tf.Close()

	rxcCol := tf.columnContaining("rxc")
	zeroCol := tf.columnContaining("zero")
	labelCol := tf.columnContaining("label")
	if labelCol < 0 {
		labelCol = tf.columnContaining("description")
	}

	hier := make(map[string][]string)
	labels := make(map[string]string)
	if rxcCol < 0 {
		return hier, labels, nil
	}

	err = tf.forEachRow(func(row rowView) error {
		rxc := NormalizeCategory(row.str(rxcCol))
		if rxc == "" {
			return nil
		}
		if superseded := splitCategoryList(row.str(zeroCol)); len(superseded) > 0 {
			hier[rxc] = superseded
		}
		if label := row.str(labelCol); label != "" {
			labels[rxc] = label
		}
		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("rxc_hierarchy: %w", err)
	}
	return hier, labels, nil
}

// loadCoefficients reads table_9: one row per (model, variable) with one
// coefficient column per metal level.
func loadCoefficients(path string) (map[CoeffKey]MetalCoefficients, error) {
	tf, err := openTable(path)
	if err != nil {
		return nil, fmt.Errorf("coefficients: %w", err)
	}
	defer tf.Close()

	modelCol := tf.column("model")
	varCol := tf.column("variable")
	metalCols := make(map[model.MetalLevel]int, len(model.AllMetalLevels))
	for _, metal := range model.AllMetalLevels {
		metalCols[metal] = tf.column(string(metal) + "_level")
	}

	out := make(map[CoeffKey]MetalCoefficients)
	err = tf.forEachRow(func(row rowView) error {
		mt := row.str(modelCol)
		variable := row.str(varCol)
		if mt == "" || variable == "" {
			return nil
		}
		levels := make(MetalCoefficients, len(metalCols))
		for metal, col := range metalCols {
			levels[metal] = row.float(col)
		}
		out[CoeffKey{Model: model.ModelType(mt), Variable: variable}] = levels
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("coefficients: %w", err)
	}
	return out, nil
}

// loadExclusions reads table_12: the HCC column is version-stamped
// (v07_hhs-hcc, ...) and one flag column per model marks excluded HCCs.
func loadExclusions(path string) (map[model.ModelType]map[string]bool, error) {
	tf, err := openTable(path)
	if err != nil {
		return nil, fmt.Errorf("exclusions: %w", err)
	}
	defer tf.Close()

	hccCol := tf.columnWithSuffix("_hhs-hcc")
	if hccCol < 0 {
		hccCol = tf.columnWithSuffix("_hcc")
	}
	flagCols := map[model.ModelType]int{
		model.Adult:  tf.column("payment_hccs_excluded_from_adult_model"),
		model.Child:  tf.column("payment_hccs_excluded_from_child_model"),
		model.Infant: tf.column("payment_hccs_excluded_from_infant_model"),
	}

	out := map[model.ModelType]map[string]bool{
		model.Adult:  {},
		model.Child:  {},
		model.Infant: {},
	}
	err = tf.forEachRow(func(row rowView) error {
		hcc := NormalizeCategory(row.str(hccCol))
		if hcc == "" {
			return nil
		}
		for mt, col := range flagCols {
			if row.str(col) != "" {
				out[mt][hcc] = true
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("exclusions: %w", err)
	}
	return out, nil
}

// loadNDCToRXC reads table_10a, matching the NDC and RXC columns by
// substring. A missing file degrades to an empty map.
func loadNDCToRXC(path string) (map[string][]string, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return map[string][]string{}, nil
	}

	tf, err := openTable(path)
	if err != nil {
		return nil, fmt.Errorf("ndc_to_rxc: %w", err)
	}
	defer tf.Close()

	ndcCol := tf.columnContaining("ndc")
	rxcCol := tf.columnContaining("rxc")

	out := make(map[string][]string)
	if ndcCol < 0 || rxcCol < 0 {
		return out, nil
	}

	err = tf.forEachRow(func(row rowView) error {
		ndc := row.str(ndcCol)
		rxc := NormalizeCategory(row.str(rxcCol))
		if ndc == "" || rxc == "" {
			return nil
		}
		for _, existing := range out[ndc] {
			if existing == rxc {
				return nil
			}
		}
		out[ndc] = append(out[ndc], rxc)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("ndc_to_rxc: %w", err)
	}
	return out, nil
}
