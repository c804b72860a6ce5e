// Package reftables loads and caches the per-model-year CMS DIY reference
// tables that drive HHS-HCC risk scoring: ICD→CC and NDC→RXC maps,
// hierarchies, coefficient tables, groupings, and model exclusions.
package reftables

import (
	"strings"

	"github.com/gyeh/riskscore/internal/model"
)

// CoeffKey identifies one coefficient-table row.
type CoeffKey struct {
	Model    model.ModelType
	Variable string
}

// MetalCoefficients holds one coefficient per metal level.
type MetalCoefficients map[model.MetalLevel]float64

// Group is one HCC grouping: when any member HCC is present, the group
// variable is scored and all member HCCs are zeroed. Groups are kept in
// source-table declaration order; that order is the tie-break when an HCC
// belongs to more than one group.
type Group struct {
	Variable string
	Members  []string
}

// Tables holds every reference table for one model year. Built once by the
// Store and never mutated after load; all lookups are total (missing keys
// mean "no effect", never an error).
type Tables struct {
	ModelYear int

	ICDToCC      map[string][]string // one ICD may map to up to 3 CCs
	CCHierarchy  map[string][]string // dominant CC → superseded CCs
	RXCHierarchy map[string][]string
	NDCToRXC     map[string][]string

	Coefficients    map[CoeffKey]MetalCoefficients
	HCCGroups       map[model.ModelType][]Group
	ModelExclusions map[model.ModelType]map[string]bool

	HCCLabels map[string]string
	RXCLabels map[string]string
}

// Coefficient looks up the coefficient for (model, variable) at the given
// metal level. Missing entries resolve to 0.0, never an error.
func (t *Tables) Coefficient(mt model.ModelType, variable string, metal model.MetalLevel) float64 {
	levels, ok := t.Coefficients[CoeffKey{Model: mt, Variable: variable}]
	if !ok {
		return 0
	}
	return levels[metal]
}

// GroupsFor returns the ordered group definitions for the model, or nil.
// The Infant model has no groupings (it uses severity levels instead).
func (t *Tables) GroupsFor(mt model.ModelType) []Group {
	if mt == model.Infant {
		return nil
	}
	return t.HCCGroups[mt]
}

// Excluded reports whether the HCC is excluded from the model.
func (t *Tables) Excluded(mt model.ModelType, hcc string) bool {
	return t.ModelExclusions[mt][hcc]
}

// NormalizeCategory converts a CC/HCC/RXC identifier to the canonical form
// used by the hierarchy and coefficient tables: trailing ".0" dropped,
// remaining dots replaced with underscores ("21.0" → "21", "35.1" → "35_1").
func NormalizeCategory(cc string) string {
	cc = strings.TrimSpace(cc)
	cc = strings.TrimSuffix(cc, ".0")
	return strings.ReplaceAll(cc, ".", "_")
}

// splitCategoryList parses a comma-separated supersession list, trimming
// whitespace and dropping empty entries.
func splitCategoryList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, NormalizeCategory(p))
		}
	}
	return out
}
