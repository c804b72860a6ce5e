package model

import "github.com/google/uuid"

// MemberFileRow is the raw shape of one row in a member Parquet file, before
// normalization and validation.
type MemberFileRow struct {
	MemberID         string   `parquet:"member_id,optional"`
	DateOfBirth      string   `parquet:"date_of_birth,optional"`
	Sex              string   `parquet:"sex,optional"`
	MetalLevel       string   `parquet:"metal_level,optional"`
	EnrollmentMonths int32    `parquet:"enrollment_months,optional"`
	Diagnoses        []string `parquet:"diagnoses,list,optional"`
	NDCCodes         []string `parquet:"ndc_codes,list,optional"`
}

// MemberRow is the DB-ready representation of one member for COPY into
// risk.members.
type MemberRow struct {
	LoadBatchID      uuid.UUID
	MemberFileID     int64
	SourceRowNumber  int64
	MemberID         string
	DateOfBirth      string // ISO date; parsed again at read time
	Sex              string
	MetalLevel       string
	EnrollmentMonths int32
	Diagnoses        []string
	NDCCodes         []string
}

// MemberColumns returns the ordered column names for COPY into risk.members.
func MemberColumns() []string {
	return []string{
		"load_batch_id",
		"member_file_id",
		"source_row_number",
		"member_id",
		"date_of_birth",
		"sex",
		"metal_level",
		"enrollment_months",
		"diagnoses",
		"ndc_codes",
	}
}

// CopyValues returns the row values in the same order as MemberColumns(),
// suitable for pgx CopyFromSource.
func (r *MemberRow) CopyValues() []any {
	return []any{
		r.LoadBatchID,
		r.MemberFileID,
		r.SourceRowNumber,
		r.MemberID,
		r.DateOfBirth,
		r.Sex,
		r.MetalLevel,
		r.EnrollmentMonths,
		r.Diagnoses,
		r.NDCCodes,
	}
}

// ScoreRow is the DB-ready representation of one ScoreOutput for COPY into
// risk.scores.
type ScoreRow struct {
	RunID             uuid.UUID
	MemberID          string
	Model             string
	Age               int32
	RiskScore         float64
	DemographicFactor float64
	HCCScore          float64
	RXCScore          float64
	HCCList           []string
	RXCList           []string
	ComponentsJSON    []byte
	DetailsJSON       []byte
}

// ScoreColumns returns the ordered column names for COPY into risk.scores.
func ScoreColumns() []string {
	return []string{
		"run_id",
		"member_id",
		"model",
		"age",
		"risk_score",
		"demographic_factor",
		"hcc_score",
		"rxc_score",
		"hcc_list",
		"rxc_list",
		"components",
		"details",
	}
}

// CopyValues returns the row values in the same order as ScoreColumns().
func (r *ScoreRow) CopyValues() []any {
	return []any{
		r.RunID,
		r.MemberID,
		r.Model,
		r.Age,
		r.RiskScore,
		r.DemographicFactor,
		r.HCCScore,
		r.RXCScore,
		r.HCCList,
		r.RXCList,
		r.ComponentsJSON,
		r.DetailsJSON,
	}
}
