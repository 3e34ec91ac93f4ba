package result

import (
	"math"

	"github.com/pkg/errors"

	"github.com/PatelMeet-1/Student-Management-system-sub000/core"
)

// Grades
const (
	GradeAPlus Grade = "A+"
	GradeA     Grade = "A"
	GradeBPlus Grade = "B+"
	GradeB     Grade = "B"
	GradeCPlus Grade = "C+"
	GradeC     Grade = "C"
	GradeD     Grade = "D"
	GradeF     Grade = "F"
)

// Statuses
const (
	StatusPass Status = "PASS"
	StatusFail Status = "FAIL"
)

// PassPercentage is the lowest percentage a subject passes with.
const PassPercentage = 33.0

var (
	// evaluated high to low, lower bounds inclusive
	gradeThresholds = []struct {
		min   float64
		grade Grade
	}{
		{90, GradeAPlus},
		{80, GradeA},
		{70, GradeBPlus},
		{60, GradeB},
		{50, GradeCPlus},
		{40, GradeC},
		{PassPercentage, GradeD},
	}

	gradePoints = map[Grade]int{
		GradeAPlus: 10,
		GradeA:     9,
		GradeBPlus: 8,
		GradeB:     7,
		GradeCPlus: 6,
		GradeC:     5,
		GradeD:     4,
		GradeF:     0,
	}

	errNotANumber    = errors.New("must be a number")
	errNegativeMarks = errors.New("marks cannot be negative")
	errMaxMarks      = errors.New("max marks must be greater than 0")
	errMarksOverMax  = errors.New("marks cannot exceed max marks")
)

// Percentage returns marks/maxMarks*100, or 0 when maxMarks is not positive.
func Percentage(marks, maxMarks float64) float64 {
	if maxMarks <= 0 {
		return 0
	}
	// multiply first so that exact boundaries (eg. 33/100) stay exact
	return marks * 100 / maxMarks
}

// GradeFor returns the letter grade of a percentage.
func GradeFor(pct float64) Grade {
	for _, th := range gradeThresholds {
		if pct >= th.min {
			return th.grade
		}
	}
	return GradeF
}

// GradeSubject returns the (unrounded) percentage and the letter grade of a subject score.
func GradeSubject(marks, maxMarks float64) (float64, Grade) {
	pct := Percentage(marks, maxMarks)
	return pct, GradeFor(pct)
}

// GradePoint maps a letter grade onto the 0-10 scale SPI is computed with.
func GradePoint(g Grade) int {
	return gradePoints[g]
}

// IsPass reports whether a subject percentage clears the pass threshold.
func IsPass(pct float64) bool {
	return pct >= PassPercentage
}

// ValidateScore checks a single score the way uploads are checked.
func ValidateScore(marks, maxMarks float64) error {
	var flds []core.FieldError
	switch {
	case !isFinite(marks):
		flds = append(flds, core.FieldError{Field: "marks", Error: errNotANumber.Error()})
	case marks < 0:
		flds = append(flds, core.FieldError{Field: "marks", Error: errNegativeMarks.Error()})
	}
	switch {
	case !isFinite(maxMarks):
		flds = append(flds, core.FieldError{Field: "max_marks", Error: errNotANumber.Error()})
	case maxMarks <= 0:
		flds = append(flds, core.FieldError{Field: "max_marks", Error: errMaxMarks.Error()})
	case isFinite(marks) && marks > maxMarks:
		flds = append(flds, core.FieldError{Field: "marks", Error: errMarksOverMax.Error()})
	}
	if len(flds) > 0 {
		return core.NewValidationError(nil, flds...)
	}
	return nil
}

// isFinite rejects NaN & infinities, which strconv.ParseFloat accepts.
func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// PassCount returns how many of the subjects pass, out of how many.
func PassCount(subjects []SubjectScore) (passed, total int) {
	for _, sub := range subjects {
		if IsPass(Percentage(sub.Marks, sub.MaxMarks)) {
			passed++
		}
	}
	return passed, len(subjects)
}
