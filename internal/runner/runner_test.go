package runner

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/gyeh/riskscore/internal/model"
	"github.com/gyeh/riskscore/internal/reftables"
	"github.com/gyeh/riskscore/internal/score"
)

func testScorer() *score.Scorer {
	return score.New(&reftables.Tables{
		ModelYear: 2024,
		Coefficients: map[reftables.CoeffKey]reftables.MetalCoefficients{
			{Model: model.Adult, Variable: "MAGE_LAST_55_59"}: {model.Silver: 0.44},
			{Model: model.Adult, Variable: "MAGE_LAST_21_24"}: {model.Silver: 0.17},
		},
	})
}

func member(id string, birthYear int) *model.MemberInput {
	return &model.MemberInput{
		MemberID:         id,
		DateOfBirth:      time.Date(birthYear, time.June, 1, 0, 0, 0, 0, time.UTC),
		Sex:              model.Male,
		MetalLevel:       model.Silver,
		EnrollmentMonths: 12,
	}
}

func TestScoreMembers_PreservesOrder(t *testing.T) {
	members := make([]*model.MemberInput, 100)
	for i := range members {
		members[i] = member(fmt.Sprintf("M%03d", i), 1965)
	}

	outputs, memberErrs := ScoreMembers(testScorer(), members, 8)
	if len(memberErrs) != 0 {
		t.Fatalf("member errors: %v", memberErrs)
	}
	if len(outputs) != len(members) {
		t.Fatalf("outputs = %d, want %d", len(outputs), len(members))
	}
	for i, out := range outputs {
		if out.MemberID != members[i].MemberID {
			t.Fatalf("outputs[%d] = %s, want %s", i, out.MemberID, members[i].MemberID)
		}
	}
}

func TestScoreMembers_SeparatesFailures(t *testing.T) {
	members := []*model.MemberInput{
		member("A", 1965),
		member("B", 1965),
		member("C", 2000),
	}
	members[1].Sex = "X" // fails validation

	outputs, memberErrs := ScoreMembers(testScorer(), members, 4)

	if len(outputs) != 2 {
		t.Fatalf("outputs = %d, want 2", len(outputs))
	}
	if outputs[0].MemberID != "A" || outputs[1].MemberID != "C" {
		t.Errorf("outputs = [%s %s], want [A C] in input order", outputs[0].MemberID, outputs[1].MemberID)
	}

	if len(memberErrs) != 1 {
		t.Fatalf("member errors = %d, want 1", len(memberErrs))
	}
	if memberErrs[0].MemberID != "B" {
		t.Errorf("failed member = %s, want B", memberErrs[0].MemberID)
	}
	var vErr *model.ValidationError
	if !errors.As(memberErrs[0].Err, &vErr) {
		t.Errorf("error = %v, want ValidationError", memberErrs[0].Err)
	}
}

func TestScoreMembers_ZeroWorkersDefaults(t *testing.T) {
	members := []*model.MemberInput{member("A", 1965)}
	outputs, memberErrs := ScoreMembers(testScorer(), members, 0)
	if len(outputs) != 1 || len(memberErrs) != 0 {
		t.Fatalf("outputs=%d errs=%d, want 1/0", len(outputs), len(memberErrs))
	}
}

func TestScoreMembers_Empty(t *testing.T) {
	outputs, memberErrs := ScoreMembers(testScorer(), nil, 4)
	if len(outputs) != 0 || len(memberErrs) != 0 {
		t.Fatalf("outputs=%d errs=%d, want 0/0", len(outputs), len(memberErrs))
	}
}

func TestPipelineError(t *testing.T) {
	inner := errors.New("boom")
	err := &PipelineError{Phase: "persist", Err: inner}
	if err.Error() != "persist: boom" {
		t.Errorf("Error() = %q", err.Error())
	}
	if !errors.Is(err, inner) {
		t.Error("PipelineError should unwrap to the inner error")
	}
}
