package model

import (
	"testing"
	"time"
)

func validMember() *MemberInput {
	return &MemberInput{
		MemberID:         "M001",
		DateOfBirth:      time.Date(1965, 3, 15, 0, 0, 0, 0, time.UTC),
		Sex:              Male,
		MetalLevel:       Silver,
		Diagnoses:        []string{"E1165", "I509"},
		EnrollmentMonths: 12,
	}
}

func TestValidate_Valid(t *testing.T) {
	if err := validMember().Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestValidate_InvalidSex(t *testing.T) {
	m := validMember()
	m.Sex = "X"
	if err := m.Validate(); err == nil {
		t.Fatal("expected error for invalid sex")
	}
}

func TestValidate_InvalidMetalLevel(t *testing.T) {
	m := validMember()
	m.MetalLevel = "copper"
	if err := m.Validate(); err == nil {
		t.Fatal("expected error for invalid metal level")
	}
}

func TestValidate_CanonicalizesMetalLevel(t *testing.T) {
	m := validMember()
	m.MetalLevel = "Silver"
	if err := m.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if m.MetalLevel != Silver {
		t.Errorf("MetalLevel = %q, want canonical %q", m.MetalLevel, Silver)
	}
}

func TestValidate_EnrollmentMonthsOutOfRange(t *testing.T) {
	for _, months := range []int{0, 13, -1} {
		m := validMember()
		m.EnrollmentMonths = months
		if err := m.Validate(); err == nil {
			t.Errorf("expected error for enrollment_months=%d", months)
		}
	}
}

func TestApplyDefaults(t *testing.T) {
	m := &MemberInput{
		MemberID:    "M002",
		DateOfBirth: time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC),
		Sex:         Female,
	}
	m.ApplyDefaults()
	if m.MetalLevel != Silver {
		t.Errorf("default metal level = %q, want silver", m.MetalLevel)
	}
	if m.EnrollmentMonths != 12 {
		t.Errorf("default enrollment months = %d, want 12", m.EnrollmentMonths)
	}
	if err := m.Validate(); err != nil {
		t.Fatalf("Validate after defaults: %v", err)
	}
}

func TestAgeAsOf(t *testing.T) {
	asOf := time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)
	cases := []struct {
		dob  time.Time
		want int
	}{
		{time.Date(1965, 3, 15, 0, 0, 0, 0, time.UTC), 59},
		{time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC), 0},
		{time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC), 1},
		{time.Date(2022, 12, 31, 0, 0, 0, 0, time.UTC), 2},
		{time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), 0}, // future DOB floors at 0
	}
	for _, c := range cases {
		m := &MemberInput{DateOfBirth: c.dob}
		if got := m.AgeAsOf(asOf); got != c.want {
			t.Errorf("AgeAsOf(dob=%s) = %d, want %d", c.dob.Format("2006-01-02"), got, c.want)
		}
	}
}

func TestModelForAge_Boundaries(t *testing.T) {
	cases := []struct {
		age  int
		want ModelType
	}{
		{0, Infant}, {1, Infant}, {2, Child}, {20, Child}, {21, Adult}, {95, Adult},
	}
	for _, c := range cases {
		if got := ModelForAge(c.age); got != c.want {
			t.Errorf("ModelForAge(%d) = %s, want %s", c.age, got, c.want)
		}
	}
}

func TestParseSex(t *testing.T) {
	for in, want := range map[string]Sex{"m": Male, "MALE": Male, " F ": Female, "female": Female} {
		got, ok := ParseSex(in)
		if !ok || got != want {
			t.Errorf("ParseSex(%q) = %q, %v; want %q", in, got, ok, want)
		}
	}
	if _, ok := ParseSex("X"); ok {
		t.Error("ParseSex(X) should fail")
	}
}

func TestParseMetalLevel(t *testing.T) {
	if got, ok := ParseMetalLevel(" Gold "); !ok || got != Gold {
		t.Errorf("ParseMetalLevel(Gold) = %q, %v", got, ok)
	}
	if _, ok := ParseMetalLevel("copper"); ok {
		t.Error("ParseMetalLevel(copper) should fail")
	}
}
