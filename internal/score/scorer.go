// Package score implements the HHS-HCC scoring pipeline: a fixed nine-step
// transformation from one member's demographics and code lists to a risk
// score with a component-level audit trail. Scoring is a pure function of
// (member, reference tables, prediction year); every table lookup is total,
// so absence means zero contribution, never an error.
package score

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/gyeh/riskscore/internal/codemap"
	"github.com/gyeh/riskscore/internal/grouping"
	"github.com/gyeh/riskscore/internal/hierarchy"
	"github.com/gyeh/riskscore/internal/model"
	"github.com/gyeh/riskscore/internal/reftables"
)

// edfMaxMonths is the upper bound of the CMS enrollment-duration window:
// HCC_ED1..HCC_ED6 exist, 7-12 months earns no EDF by policy.
const edfMaxMonths = 6

// Option configures a Scorer.
type Option func(*Scorer)

// WithPredictionYear overrides the benefit year used for age calculation.
// By default the benefit year is the model year.
func WithPredictionYear(year int) Option {
	return func(s *Scorer) {
		if year > 0 {
			s.predictionYear = year
		}
	}
}

// Scorer scores members against one model year's reference tables.
type Scorer struct {
	tables         *reftables.Tables
	predictionYear int
}

// New creates a Scorer over an already-loaded table set.
func New(t *reftables.Tables, opts ...Option) *Scorer {
	s := &Scorer{tables: t}
	for _, o := range opts {
		o(s)
	}
	return s
}

// benefitYearEnd returns Dec 31 of the benefit year; HHS evaluates age as of
// the last day of the benefit year.
func (s *Scorer) benefitYearEnd() time.Time {
	year := s.tables.ModelYear
	if s.predictionYear > 0 {
		year = s.predictionYear
	}
	return time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC)
}

// Score computes the risk score for a single validated member.
func (s *Scorer) Score(m *model.MemberInput) (*model.ScoreOutput, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	t := s.tables

	// Step 1: model selection from age as of the benefit year end.
	age := m.AgeAsOf(s.benefitYearEnd())
	mt := model.ModelForAge(age)

	// Step 2: demographic factor.
	demoVar := demographicVariable(mt, m.Sex, age)
	demoFactor := t.Coefficient(mt, demoVar, m.MetalLevel)

	components := []model.ScoreComponent{{
		Kind:        model.ComponentDemographic,
		Code:        demoVar,
		Coefficient: demoFactor,
		SourceCodes: []string{fmt.Sprintf("age=%d", age), fmt.Sprintf("sex=%s", m.Sex)},
		TableRefs:   tableRefs(mt, m.MetalLevel, "coefficient", "table_9"),
	}}

	// Steps 3-6: diagnoses → CCs → hierarchy → exclusion → grouping.
	diagnoses := codemap.Diagnoses(m.Diagnoses, t)
	rawCCs := diagnoses.Set()
	afterHierarchy := hierarchy.Apply(rawCCs, t.CCHierarchy)
	afterExclusion := grouping.Exclude(afterHierarchy, t.ModelExclusions[mt])
	remaining, triggeredGroups := grouping.Apply(afterExclusion, t.GroupsFor(mt))
	sort.Strings(triggeredGroups)

	groupedHCCs := make(map[string]bool, len(afterExclusion))
	for h := range afterExclusion {
		if !remaining[h] {
			groupedHCCs[h] = true
		}
	}

	// Step 7: HCC and group coefficients.
	hccScore := 0.0
	hccCoeffs := make(map[string]float64)

	for _, hcc := range sortedKeys(remaining) {
		varName := hccVariable(hcc)
		coef := t.Coefficient(mt, varName, m.MetalLevel)
		if coef == 0 {
			continue
		}
		hccScore += coef
		hccCoeffs[varName] = coef
		components = append(components, model.ScoreComponent{
			Kind:        model.ComponentHCC,
			Code:        varName,
			Label:       t.HCCLabels[hcc],
			Coefficient: coef,
			SourceCodes: diagnoses.Sources[hcc],
			TableRefs: tableRefs(mt, m.MetalLevel,
				"icd_mapping", "table_3",
				"hierarchy", "table_4",
				"coefficient", "table_9"),
		})
	}

	for _, group := range triggeredGroups {
		coef := t.Coefficient(mt, group, m.MetalLevel)
		if coef == 0 {
			continue
		}
		hccScore += coef
		hccCoeffs[group] = coef
		components = append(components, model.ScoreComponent{
			Kind:        model.ComponentHCCGroup,
			Code:        group,
			Coefficient: coef,
			SourceCodes: groupMembers(t.GroupsFor(mt), group, groupedHCCs),
			TableRefs: tableRefs(mt, m.MetalLevel,
				"grouping", groupingTable(mt),
				"coefficient", "table_9"),
		})
	}

	// Step 8: Adult Enrollment Duration Factor. hcc_cnt counts payment HCCs
	// after hierarchy/exclusion/grouping plus triggered group variables.
	hccCnt := len(remaining) + len(triggeredGroups)
	edfVar := ""
	edfFactor := 0.0
	if mt == model.Adult && m.EnrollmentMonths >= 1 && m.EnrollmentMonths <= edfMaxMonths && hccCnt > 0 {
		edfVar = fmt.Sprintf("HCC_ED%d", m.EnrollmentMonths)
		edfFactor = t.Coefficient(mt, edfVar, m.MetalLevel)
		if edfFactor != 0 {
			hccScore += edfFactor
			hccCoeffs[edfVar] = edfFactor
			components = append(components, model.ScoreComponent{
				Kind:        model.ComponentEDF,
				Code:        edfVar,
				Label:       fmt.Sprintf("Enrollment duration %d months, at least one HCC", m.EnrollmentMonths),
				Coefficient: edfFactor,
				SourceCodes: []string{
					fmt.Sprintf("enrollment_months=%d", m.EnrollmentMonths),
					fmt.Sprintf("hcc_cnt=%d", hccCnt),
				},
				TableRefs: tableRefs(mt, m.MetalLevel, "coefficient", "table_9"),
			})
		}
	}

	// Step 9: RXC scoring. No exclusion or grouping step exists for RXCs.
	ndcs := codemap.NDCs(m.NDCCodes, t)
	rawRXCs := ndcs.Set()
	finalRXCs := hierarchy.Apply(rawRXCs, t.RXCHierarchy)

	rxcScore := 0.0
	rxcCoeffs := make(map[string]float64)
	for _, rxc := range sortedKeys(finalRXCs) {
		varName, coef := s.rxcCoefficient(mt, rxc, m.MetalLevel)
		if coef == 0 {
			continue
		}
		rxcScore += coef
		rxcCoeffs[varName] = coef
		components = append(components, model.ScoreComponent{
			Kind:        model.ComponentRXC,
			Code:        varName,
			Label:       t.RXCLabels[rxc],
			Coefficient: coef,
			SourceCodes: ndcs.Sources[rxc],
			TableRefs: tableRefs(mt, m.MetalLevel,
				"ndc_mapping", "table_10a",
				"hierarchy", "table_11",
				"coefficient", "table_9"),
		})
	}

	riskScore := demoFactor + hccScore + rxcScore

	// Final HCC list: sorted individual HCCs, then sorted group variables.
	hccList := append(sortedKeys(remaining), triggeredGroups...)

	return &model.ScoreOutput{
		MemberID:   m.MemberID,
		RiskScore:  riskScore,
		HCCList:    hccList,
		RXCList:    sortedKeys(finalRXCs),
		Components: components,
		Details: model.ScoreDetails{
			Model:               mt,
			ModelYear:           t.ModelYear,
			Age:                 age,
			Sex:                 m.Sex,
			MetalLevel:          m.MetalLevel,
			EnrollmentMonths:    m.EnrollmentMonths,
			DemographicVariable: demoVar,
			DemographicFactor:   demoFactor,
			RawCCs:              sortedKeys(rawCCs),
			HCCsAfterHierarchy:  sortedKeys(afterHierarchy),
			HCCsAfterExclusion:  sortedKeys(afterExclusion),
			RemainingHCCs:       sortedKeys(remaining),
			TriggeredGroups:     triggeredGroups,
			HCCCount:            hccCnt,
			EDFVariable:         edfVar,
			EDFFactor:           edfFactor,
			HCCCoefficients:     hccCoeffs,
			HCCScore:            hccScore,
			RawRXCs:             sortedKeys(rawRXCs),
			RXCsAfterHierarchy:  sortedKeys(finalRXCs),
			RXCCoefficients:     rxcCoeffs,
			RXCScore:            rxcScore,
		},
	}, nil
}

// ScoreBatch scores members independently, strictly preserving input order.
func (s *Scorer) ScoreBatch(members []*model.MemberInput) ([]*model.ScoreOutput, error) {
	outputs := make([]*model.ScoreOutput, 0, len(members))
	for _, m := range members {
		out, err := s.Score(m)
		if err != nil {
			return nil, err
		}
		outputs = append(outputs, out)
	}
	return outputs, nil
}

// rxcCoefficient tries candidate variable names in fixed order — RXC_{2-digit},
// RXC_{3-digit}, RXC_{raw}, then the raw value — taking the first non-zero
// hit. The order is inherited from the source tables and must not change.
func (s *Scorer) rxcCoefficient(mt model.ModelType, rxc string, metal model.MetalLevel) (string, float64) {
	candidates := []string{
		"RXC_" + zfill(rxc, 2),
		"RXC_" + zfill(rxc, 3),
		"RXC_" + rxc,
		rxc,
	}
	for _, candidate := range candidates {
		if coef := s.tables.Coefficient(mt, candidate, metal); coef != 0 {
			return candidate, coef
		}
	}
	return "", 0
}

// hccVariable renders an HCC identifier to its coefficient-table variable
// name, zero-padding the numeric part to 3 digits and preserving _N
// suffixes: "19" → "HHS_HCC019", "35_1" → "HHS_HCC035_1".
func hccVariable(hcc string) string {
	if isDigits(hcc) {
		return "HHS_HCC" + zfill(hcc, 3)
	}
	if head, tail, ok := strings.Cut(hcc, "_"); ok && isDigits(head) && !strings.Contains(tail, "_") {
		return "HHS_HCC" + zfill(head, 3) + "_" + tail
	}
	return "HHS_HCC" + hcc
}

// groupMembers returns the member HCCs of the group that were actually
// collapsed out of the working set, for the audit trail.
func groupMembers(groups []reftables.Group, variable string, grouped map[string]bool) []string {
	for _, g := range groups {
		if g.Variable != variable {
			continue
		}
		var present []string
		for _, m := range g.Members {
			if grouped[m] {
				present = append(present, m)
			}
		}
		return present
	}
	return nil
}

func groupingTable(mt model.ModelType) string {
	if mt == model.Adult {
		return "table_6"
	}
	return "table_7"
}

// tableRefs builds a component's table-provenance map from alternating
// key/value pairs, always including model and metal level.
func tableRefs(mt model.ModelType, metal model.MetalLevel, kv ...string) map[string]string {
	refs := map[string]string{
		"model":       string(mt),
		"metal_level": string(metal),
	}
	for i := 0; i+1 < len(kv); i += 2 {
		refs[kv[i]] = kv[i+1]
	}
	return refs
}

func sortedKeys(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func zfill(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return strings.Repeat("0", width-len(s)) + s
}
