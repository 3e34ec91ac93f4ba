package result

import (
	"github.com/pkg/errors"

	"github.com/PatelMeet-1/Student-Management-system-sub000/core"
)

var (
	ErrNotRegular      = errors.New("remedial scores can only be merged into a regular record")
	ErrEmptySubmission = errors.New("remedial submission has no subjects")
)

// MergeRemedial merges the subjects of a remedial submission into the regular record they correct
// and returns the resulting final record, as a draft chained to the original.
//
// A submitted subject replaces the original subject of the same name, or is appended when new.
// Subjects missing from the submission are carried over unchanged, failing ones included.
// The original record is left untouched; ID and timestamps are left for the caller to set.
func MergeRemedial(original Record, submission []SubjectScore) (Record, error) {
	if original.IsRemedial() {
		return Record{}, core.NewValidationError(ErrNotRegular)
	}
	if len(submission) == 0 {
		return Record{}, core.NewValidationError(ErrEmptySubmission,
			core.FieldError{Field: "subjects", Error: ErrEmptySubmission.Error()})
	}

	subjects := make([]SubjectScore, len(original.Subjects), len(original.Subjects)+len(submission))
	copy(subjects, original.Subjects)

	index := make(map[string]int, len(subjects))
	for i, sub := range subjects {
		index[sub.Name] = i
	}
	for _, sub := range submission {
		if i, ok := index[sub.Name]; ok {
			subjects[i] = sub
			continue
		}
		index[sub.Name] = len(subjects)
		subjects = append(subjects, sub)
	}

	return Record{
		StudentID:    original.StudentID,
		StudentName:  original.StudentName,
		StudentEmail: original.StudentEmail,
		Course:       original.Course,
		Department:   original.Department,
		Semester:     original.Semester,
		ExamType:     original.ExamType,
		Subjects:     subjects,
		Published:    false,
		Variant:      Remedial(original.ID),
	}, nil
}
