package model

import (
	"fmt"
	"time"
)

// ValidationError reports malformed member input. It is fatal for the member
// it names; in batch contexts the caller decides skip-vs-abort, not the
// engine.
type ValidationError struct {
	MemberID string
	Field    string
	Err      error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("member %s: invalid %s: %s", e.MemberID, e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// MemberInput is one member's demographics and code lists for a scoring call.
// It is validated once at the ingestion boundary and never mutated afterward.
type MemberInput struct {
	MemberID         string
	DateOfBirth      time.Time
	Sex              Sex
	MetalLevel       MetalLevel
	Diagnoses        []string // ICD-10-CM codes, unordered, duplicates allowed
	NDCCodes         []string
	EnrollmentMonths int // months enrolled in the benefit year, 1-12
}

// ApplyDefaults fills the silver metal level and full-year enrollment when
// unset, matching upstream ingestion behavior for sparse member rows.
func (m *MemberInput) ApplyDefaults() {
	if m.MetalLevel == "" {
		m.MetalLevel = Silver
	}
	if m.EnrollmentMonths == 0 {
		m.EnrollmentMonths = 12
	}
}

// Validate checks the member invariants. Call after ApplyDefaults.
func (m *MemberInput) Validate() error {
	if m.MemberID == "" {
		return &ValidationError{Field: "member_id", Err: fmt.Errorf("empty")}
	}
	if m.DateOfBirth.IsZero() {
		return &ValidationError{MemberID: m.MemberID, Field: "date_of_birth", Err: fmt.Errorf("missing")}
	}
	if m.Sex != Male && m.Sex != Female {
		return &ValidationError{MemberID: m.MemberID, Field: "sex", Err: fmt.Errorf("%q is not M or F", m.Sex)}
	}
	metal, ok := ParseMetalLevel(string(m.MetalLevel))
	if !ok {
		return &ValidationError{MemberID: m.MemberID, Field: "metal_level", Err: fmt.Errorf("%q is not a metal level", m.MetalLevel)}
	}
	// Coefficient tables are keyed by the lowercase tier name; case variants
	// ("Silver") are accepted and canonicalized so lookups never miss.
	m.MetalLevel = metal
	if m.EnrollmentMonths < 1 || m.EnrollmentMonths > 12 {
		return &ValidationError{MemberID: m.MemberID, Field: "enrollment_months", Err: fmt.Errorf("%d is outside 1-12", m.EnrollmentMonths)}
	}
	return nil
}

// AgeAsOf returns the member's age in completed years as of the given date,
// floored at zero.
func (m *MemberInput) AgeAsOf(asOf time.Time) int {
	age := asOf.Year() - m.DateOfBirth.Year()
	if asOf.Month() < m.DateOfBirth.Month() ||
		(asOf.Month() == m.DateOfBirth.Month() && asOf.Day() < m.DateOfBirth.Day()) {
		age--
	}
	if age < 0 {
		return 0
	}
	return age
}
