package result

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/PatelMeet-1/Student-Management-system-sub000/core"
)

// Exam types
const (
	ExamInternal   ExamType = "internal"
	ExamPractical  ExamType = "practical"
	ExamUniversity ExamType = "university"
)

// Record kinds
const (
	KindRegular  Kind = "regular"
	KindRemedial Kind = "remedial"
)

var (
	// ExamTypes lists the exam types in their canonical display order.
	ExamTypes = []ExamType{ExamInternal, ExamPractical, ExamUniversity}

	examRanks = map[ExamType]int{
		ExamInternal:   0,
		ExamPractical:  1,
		ExamUniversity: 2,
	}
)

type ExamType string

func (et ExamType) Valid() bool {
	_, ok := examRanks[et]
	return ok
}

// Rank is the position of the exam type in the canonical order; unknown types sort last.
func (et ExamType) Rank() int {
	if r, ok := examRanks[et]; ok {
		return r
	}
	return len(examRanks)
}

type Kind string

// Variant tells a regular record apart from a remedial (final) one,
// which always points back at the regular record it corrects.
type Variant struct {
	Kind       Kind   `json:"kind"`
	OriginalID string `json:"original_id,omitempty"`
}

func Regular() Variant { return Variant{Kind: KindRegular} }

func Remedial(originalID string) Variant {
	return Variant{Kind: KindRemedial, OriginalID: originalID}
}

func (v Variant) IsRemedial() bool { return v.Kind == KindRemedial }

// SubjectScore is one graded subject attempt.
type SubjectScore struct {
	Name     string  `json:"name" validate:"notblank"`
	Marks    float64 `json:"marks" validate:"gte=0"`
	MaxMarks float64 `json:"max_marks" validate:"gt=0"`
}

// Record holds the subject scores of one student, for one semester and one exam type.
type Record struct {
	ID           string         `json:"id"`
	StudentID    string         `json:"student_id"`
	StudentName  string         `json:"student_name"`
	StudentEmail string         `json:"student_email,omitempty"`
	Course       string         `json:"course"`
	Department   string         `json:"department"`
	Semester     string         `json:"semester"`
	ExamType     ExamType       `json:"exam_type"`
	Subjects     []SubjectScore `json:"subjects"`
	Published    bool           `json:"published"`
	Variant      Variant        `json:"variant"`
	CreatedAt    time.Time      `json:"created_at"` // UTC
	UpdatedAt    time.Time      `json:"updated_at"` // UTC
}

func (r Record) IsRemedial() bool { return r.Variant.IsRemedial() }

// NewRecord contains the information needed to upload the scores of a student.
type NewRecord struct {
	StudentID    string         `json:"student_id" validate:"notblank"`
	StudentName  string         `json:"student_name"`
	StudentEmail string         `json:"student_email" validate:"omitempty,email"`
	Course       string         `json:"course"`
	Department   string         `json:"department"`
	Semester     string         `json:"semester" validate:"notblank"`
	ExamType     ExamType       `json:"exam_type" validate:"examtype"`
	Subjects     []SubjectScore `json:"subjects" validate:"required,min=1,dive"`
}

func (nr *NewRecord) Clean() {
	nr.StudentID = core.CleanString(nr.StudentID)
	nr.StudentName = core.CleanString(nr.StudentName)
	nr.StudentEmail = core.CleanString(nr.StudentEmail, true /* lower */)
	nr.Course = core.CleanString(nr.Course)
	nr.Department = core.CleanString(nr.Department)
	nr.Semester = core.CleanString(nr.Semester)
	nr.ExamType = ExamType(core.CleanString(string(nr.ExamType), true /* lower */))
	cleanSubjects(nr.Subjects)
}

func (nr *NewRecord) Validate(validate *validator.Validate) error {
	nr.Clean()
	return validate.Struct(nr)
}

// UpdateRecord defines what may be provided to modify an existing Record.
// Subjects are replaced wholesale; empty course & department are left untouched.
type UpdateRecord struct {
	Course     string         `json:"course"`
	Department string         `json:"department"`
	Subjects   []SubjectScore `json:"subjects" validate:"required,min=1,dive"`
}

func (ur *UpdateRecord) Validate(orig Record, validate *validator.Validate) error {
	if course := core.CleanString(ur.Course); course != "" {
		ur.Course = course
	} else {
		ur.Course = orig.Course
	}
	if dept := core.CleanString(ur.Department); dept != "" {
		ur.Department = dept
	} else {
		ur.Department = orig.Department
	}
	cleanSubjects(ur.Subjects)
	return validate.Struct(ur)
}

// RemedialSubmission carries the new scores of a student's remedial exams.
// It applies to the regular record of the same student, semester and exam type.
type RemedialSubmission struct {
	StudentID string         `json:"student_id" validate:"notblank"`
	Semester  string         `json:"semester" validate:"notblank"`
	ExamType  ExamType       `json:"exam_type" validate:"examtype"`
	Subjects  []SubjectScore `json:"subjects" validate:"required,min=1,dive"`
}

func (rs *RemedialSubmission) Validate(validate *validator.Validate) error {
	rs.StudentID = core.CleanString(rs.StudentID)
	rs.Semester = core.CleanString(rs.Semester)
	rs.ExamType = ExamType(core.CleanString(string(rs.ExamType), true /* lower */))
	cleanSubjects(rs.Subjects)
	return validate.Struct(rs)
}

// RemedialResult is the stored final record along with its pass count.
type RemedialResult struct {
	Record Record `json:"record"`
	Passed int    `json:"passed"`
	Total  int    `json:"total"`
}

func cleanSubjects(subjects []SubjectScore) {
	for i := range subjects {
		subjects[i].Name = core.CleanString(subjects[i].Name)
	}
}

// QueryFilter applies AND operation on the fields which are set.
type QueryFilter struct {
	StudentID  string
	Semester   string
	ExamType   ExamType
	Course     string
	Department string
	Published  *bool
	Remedial   *bool
	OriginalID string
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.StudentID == "" && qf.Semester == "" && qf.ExamType == "" && qf.Course == "" &&
		qf.Department == "" && qf.Published == nil && qf.Remedial == nil && qf.OriginalID == ""
}

func (qf *QueryFilter) Clean() {
	qf.StudentID = core.CleanString(qf.StudentID)
	qf.Semester = core.CleanString(qf.Semester)
	qf.ExamType = ExamType(core.CleanString(string(qf.ExamType), true /* lower */))
	qf.Course = core.CleanString(qf.Course)
	qf.Department = core.CleanString(qf.Department)
	qf.OriginalID = core.CleanString(qf.OriginalID)
}

// Match reports whether rec satisfies the filter. Used by stores filtering in memory.
func (qf *QueryFilter) Match(rec Record) bool {
	if qf == nil {
		return true
	}
	return (qf.StudentID == "" || qf.StudentID == rec.StudentID) &&
		(qf.Semester == "" || qf.Semester == rec.Semester) &&
		(qf.ExamType == "" || qf.ExamType == rec.ExamType) &&
		(qf.Course == "" || strings.EqualFold(qf.Course, rec.Course)) &&
		(qf.Department == "" || strings.EqualFold(qf.Department, rec.Department)) &&
		(qf.Published == nil || *qf.Published == rec.Published) &&
		(qf.Remedial == nil || *qf.Remedial == rec.IsRemedial()) &&
		(qf.OriginalID == "" || qf.OriginalID == rec.Variant.OriginalID)
}

type (
	Grade  string
	Status string
)

// SubjectResult is a graded subject of an AggregatedResult.
type SubjectResult struct {
	Name       string
	ExamType   ExamType
	Marks      float64
	MaxMarks   float64
	Percentage float64 // not rounded
	Grade      Grade
	GradePoint int
	IsPass     bool
	Remedial   bool // score comes from a remedial record
}

func (sr SubjectResult) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Name       string   `json:"name"`
		ExamType   ExamType `json:"exam_type"`
		Marks      float64  `json:"marks"`
		MaxMarks   float64  `json:"max_marks"`
		Percentage float64  `json:"percentage"`
		Grade      Grade    `json:"grade"`
		GradePoint int      `json:"grade_point"`
		IsPass     bool     `json:"is_pass"`
		Remedial   bool     `json:"remedial"`
	}{
		Name:       sr.Name,
		ExamType:   sr.ExamType,
		Marks:      sr.Marks,
		MaxMarks:   sr.MaxMarks,
		Percentage: core.Round2(sr.Percentage),
		Grade:      sr.Grade,
		GradePoint: sr.GradePoint,
		IsPass:     sr.IsPass,
		Remedial:   sr.Remedial,
	})
}

// AggregatedResult is the semester result of one student across all exam types.
type AggregatedResult struct {
	StudentID     string
	StudentName   string
	Course        string
	Department    string
	Semester      string
	Subjects      []SubjectResult
	TotalMarks    float64
	TotalMaxMarks float64
	Percentage    float64 // not rounded
	SPI           float64 // not rounded
	Status        Status
}

// ByExamType returns the subjects graded for the given exam type, in result order.
func (ar AggregatedResult) ByExamType(et ExamType) []SubjectResult {
	var subjects []SubjectResult
	for _, sr := range ar.Subjects {
		if sr.ExamType == et {
			subjects = append(subjects, sr)
		}
	}
	return subjects
}

func (ar AggregatedResult) MarshalJSON() ([]byte, error) {
	subjects := ar.Subjects
	if subjects == nil {
		subjects = []SubjectResult{}
	}
	return json.Marshal(struct {
		StudentID     string          `json:"student_id"`
		StudentName   string          `json:"student_name"`
		Course        string          `json:"course"`
		Department    string          `json:"department"`
		Semester      string          `json:"semester"`
		Subjects      []SubjectResult `json:"subjects"`
		TotalMarks    float64         `json:"total_marks"`
		TotalMaxMarks float64         `json:"total_max_marks"`
		Percentage    float64         `json:"percentage"`
		SPI           float64         `json:"spi"`
		Status        Status          `json:"status"`
	}{
		StudentID:     ar.StudentID,
		StudentName:   ar.StudentName,
		Course:        ar.Course,
		Department:    ar.Department,
		Semester:      ar.Semester,
		Subjects:      subjects,
		TotalMarks:    ar.TotalMarks,
		TotalMaxMarks: ar.TotalMaxMarks,
		Percentage:    core.Round2(ar.Percentage),
		SPI:           core.Round2(ar.SPI),
		Status:        ar.Status,
	})
}
