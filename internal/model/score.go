package model

// ComponentKind identifies which part of the model a score component came from.
type ComponentKind string

const (
	ComponentDemographic ComponentKind = "demographic"
	ComponentHCC         ComponentKind = "hcc"
	ComponentHCCGroup    ComponentKind = "hcc_group"
	ComponentEDF         ComponentKind = "edf"
	ComponentRXC         ComponentKind = "rxc"
)

// ScoreComponent is one audit-trail entry: a single contributing factor with
// its coefficient and the source codes that triggered it.
type ScoreComponent struct {
	Kind        ComponentKind     `json:"kind"`
	Code        string            `json:"code"` // coefficient-table variable name
	Label       string            `json:"label,omitempty"`
	Coefficient float64           `json:"coefficient"`
	SourceCodes []string          `json:"source_codes,omitempty"` // ICD/NDC codes, or member HCCs for groups
	TableRefs   map[string]string `json:"table_refs,omitempty"`
}

// ScoreDetails records every intermediate set of the scoring pipeline so a
// score can be decomposed and compared stage by stage.
type ScoreDetails struct {
	Model               ModelType          `json:"model"`
	ModelYear           int                `json:"model_year"`
	Age                 int                `json:"age"`
	Sex                 Sex                `json:"sex"`
	MetalLevel          MetalLevel         `json:"metal_level"`
	EnrollmentMonths    int                `json:"enrollment_months"`
	DemographicVariable string             `json:"demographic_variable"`
	DemographicFactor   float64            `json:"demographic_factor"`
	RawCCs              []string           `json:"raw_ccs"`
	HCCsAfterHierarchy  []string           `json:"hccs_after_hierarchy"`
	HCCsAfterExclusion  []string           `json:"hccs_after_exclusion"`
	RemainingHCCs       []string           `json:"remaining_hccs"`
	TriggeredGroups     []string           `json:"triggered_groups"`
	HCCCount            int                `json:"hcc_cnt"`
	EDFVariable         string             `json:"edf_variable,omitempty"`
	EDFFactor           float64            `json:"edf_factor"`
	HCCCoefficients     map[string]float64 `json:"hcc_coefficients"`
	HCCScore            float64            `json:"hcc_score"`
	RawRXCs             []string           `json:"raw_rxcs"`
	RXCsAfterHierarchy  []string           `json:"rxcs_after_hierarchy"`
	RXCCoefficients     map[string]float64 `json:"rxc_coefficients"`
	RXCScore            float64            `json:"rxc_score"`
}

// ScoreOutput is the result of scoring one member. Constructed fresh per
// scoring call and owned by the caller.
type ScoreOutput struct {
	MemberID   string           `json:"member_id"`
	RiskScore  float64          `json:"risk_score"`
	HCCList    []string         `json:"hcc_list"` // sorted individual HCCs, then sorted group variables
	RXCList    []string         `json:"rxc_list"`
	Components []ScoreComponent `json:"components"`
	Details    ScoreDetails     `json:"details"`
}
