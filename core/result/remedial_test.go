package result

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/PatelMeet-1/Student-Management-system-sub000/core"
)

func TestMergeRemedial(t *testing.T) {
	orig := record("orig", ExamUniversity, Regular(), subject("Math", 40, 100), subject("Phy", 20, 100))
	orig.Published = true

	merged, err := MergeRemedial(orig, []SubjectScore{subject("Phy", 60, 100)})
	if err != nil {
		t.Fatalf("MergeRemedial() error = %v", err)
	}

	assert.Equal(t, []SubjectScore{subject("Math", 40, 100), subject("Phy", 60, 100)}, merged.Subjects)
	assert.Equal(t, Remedial("orig"), merged.Variant)
	if merged.Published {
		t.Error("merged record is published, want a draft")
	}
	if merged.StudentID != orig.StudentID || merged.Semester != orig.Semester || merged.ExamType != orig.ExamType {
		t.Errorf("MergeRemedial() = %+v, want the original's student, semester & exam type", merged)
	}
	// history is never overwritten
	assert.Equal(t, []SubjectScore{subject("Math", 40, 100), subject("Phy", 20, 100)}, orig.Subjects)

	if passed, total := PassCount(merged.Subjects); passed != 2 || total != 2 {
		t.Errorf("PassCount() = %d/%d, want 2/2", passed, total)
	}

	res, err := Aggregate([]Record{orig, merged})
	if err != nil {
		t.Fatalf("Aggregate() error = %v", err)
	}
	if res.Status != StatusPass {
		t.Errorf("Status = %v, want %v once Phy clears 33%%", res.Status, StatusPass)
	}
	if math := res.Subjects[0]; math.Name != "Math" || math.Marks != 40 || math.Grade != GradeC {
		t.Errorf("Math = %+v, want untouched", math)
	}
}

func TestMergeRemedialRecomputesPass(t *testing.T) {
	orig := record("orig", ExamUniversity, Regular(),
		subject("Math", 10, 100), subject("Phy", 20, 100), subject("Chem", 80, 100))

	// still failing Phy, new Bio, Math not retaken
	merged, err := MergeRemedial(orig, []SubjectScore{subject("Phy", 30, 100), subject("Bio", 50, 100)})
	if err != nil {
		t.Fatalf("MergeRemedial() error = %v", err)
	}
	assert.Equal(t, []SubjectScore{
		subject("Math", 10, 100), subject("Phy", 30, 100), subject("Chem", 80, 100), subject("Bio", 50, 100),
	}, merged.Subjects)

	if passed, total := PassCount(merged.Subjects); passed != 2 || total != 4 {
		t.Errorf("PassCount() = %d/%d, want 2/4", passed, total)
	}
	res, err := Aggregate([]Record{orig, merged})
	if err != nil {
		t.Fatal(err)
	}
	if res.Status != StatusFail {
		t.Errorf("Status = %v, want %v", res.Status, StatusFail)
	}
}

func TestMergeRemedialErrors(t *testing.T) {
	orig := record("orig", ExamUniversity, Regular(), subject("Math", 10, 100))
	rem := record("rem", ExamUniversity, Remedial("orig"), subject("Math", 50, 100))

	tests := []struct {
		name       string
		orig       Record
		submission []SubjectScore
		wantErr    error
	}{
		{name: "remedial of remedial", orig: rem, submission: []SubjectScore{subject("Math", 60, 100)}, wantErr: ErrNotRegular},
		{name: "empty submission", orig: orig, wantErr: ErrEmptySubmission},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := MergeRemedial(tt.orig, tt.submission)
			vErr, ok := err.(*core.ValidationError)
			if !ok || vErr.Err != tt.wantErr {
				t.Errorf("MergeRemedial() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
