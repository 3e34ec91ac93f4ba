package result

import (
	"sort"

	"github.com/pkg/errors"

	"github.com/PatelMeet-1/Student-Management-system-sub000/core"
)

var ErrMismatchedRecords = errors.New("records must belong to the same student and semester")

type subjectKey struct {
	name     string
	examType ExamType
}

// Aggregate computes the semester result of one student from all of their records for that semester.
//
// Regular records come first, in exam type order, then remedial records in the order supplied.
// A remedial subject replaces the subject with the same name and exam type in place;
// any other remedial subject is appended.
// The semester fails as soon as one subject fails, whatever the overall percentage.
func Aggregate(records []Record) (AggregatedResult, error) {
	if len(records) == 0 {
		return AggregatedResult{}, ErrNotFound
	}
	for _, rec := range records[1:] {
		if rec.StudentID != records[0].StudentID || rec.Semester != records[0].Semester {
			return AggregatedResult{}, core.NewValidationError(ErrMismatchedRecords)
		}
	}

	ordered := make([]Record, len(records))
	copy(ordered, records)
	sort.SliceStable(ordered, func(i, j int) bool {
		ri, rj := ordered[i].IsRemedial(), ordered[j].IsRemedial()
		if ri != rj {
			return !ri
		}
		if ri {
			return false // keep supplied order
		}
		return ordered[i].ExamType.Rank() < ordered[j].ExamType.Rank()
	})

	first := ordered[0]
	res := AggregatedResult{
		StudentID:   first.StudentID,
		StudentName: first.StudentName,
		Course:      first.Course,
		Department:  first.Department,
		Semester:    first.Semester,
		Status:      StatusPass,
	}

	index := make(map[subjectKey]int)
	for _, rec := range ordered {
		for _, sub := range rec.Subjects {
			pct, grade := GradeSubject(sub.Marks, sub.MaxMarks)
			sr := SubjectResult{
				Name:       sub.Name,
				ExamType:   rec.ExamType,
				Marks:      sub.Marks,
				MaxMarks:   sub.MaxMarks,
				Percentage: pct,
				Grade:      grade,
				GradePoint: GradePoint(grade),
				IsPass:     IsPass(pct),
				Remedial:   rec.IsRemedial(),
			}
			key := subjectKey{name: sub.Name, examType: rec.ExamType}
			if i, ok := index[key]; ok && rec.IsRemedial() {
				res.Subjects[i] = sr
				continue
			}
			index[key] = len(res.Subjects)
			res.Subjects = append(res.Subjects, sr)
		}
	}

	var points int
	for _, sr := range res.Subjects {
		res.TotalMarks += sr.Marks
		res.TotalMaxMarks += sr.MaxMarks
		points += sr.GradePoint
		if !sr.IsPass {
			res.Status = StatusFail
		}
	}
	res.Percentage = Percentage(res.TotalMarks, res.TotalMaxMarks)
	if n := len(res.Subjects); n > 0 {
		res.SPI = float64(points) / float64(n)
	}
	return res, nil
}
