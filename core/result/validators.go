package result

import (
	"reflect"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/PatelMeet-1/Student-Management-system-sub000/core"
)

var (
	examTypeTag  = "examtype"
	examTypeText = "must be one of internal, practical or university"

	finiteTag  = "finite"
	finiteText = errNotANumber.Error()

	marksMaxTag  = "marksmax"
	marksMaxText = errMarksOverMax.Error()

	uniqueSubjectsTag  = "uniquesubjects"
	uniqueSubjectsText = "subject names must be unique"
)

// InitValidators registers the result validations & their translations.
// core.InitValidators must be called first.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(examTypeTag, examTypeValidation)
	core.RegisterCustomTranslation(validate, translator, examTypeTag, examTypeText)

	validate.RegisterStructValidation(subjectScoreStructValidation, SubjectScore{})
	core.RegisterCustomTranslation(validate, translator, finiteTag, finiteText)
	core.RegisterCustomTranslation(validate, translator, marksMaxTag, marksMaxText)

	validate.RegisterStructValidation(subjectsStructValidation, NewRecord{}, UpdateRecord{}, RemedialSubmission{})
	core.RegisterCustomTranslation(validate, translator, uniqueSubjectsTag, uniqueSubjectsText)
}

// Custom Validators

// examTypeValidation checks that the field is one of ExamTypes
func examTypeValidation(fl validator.FieldLevel) bool {
	if fl.Field().Kind() != reflect.String {
		return false
	}
	return ExamType(fl.Field().String()).Valid()
}

// subjectScoreStructValidation rejects non-finite scores and marks above max marks, they are never clamped.
func subjectScoreStructValidation(sl validator.StructLevel) {
	sub, ok := sl.Current().Interface().(SubjectScore)
	if !ok {
		return
	}
	marksOK, maxOK := isFinite(sub.Marks), isFinite(sub.MaxMarks)
	if !marksOK {
		sl.ReportError(sub.Marks, "marks", "Marks", finiteTag, "")
	}
	if !maxOK {
		sl.ReportError(sub.MaxMarks, "max_marks", "MaxMarks", finiteTag, "")
	}
	if marksOK && maxOK && sub.MaxMarks > 0 && sub.Marks > sub.MaxMarks {
		sl.ReportError(sub.Marks, "marks", "Marks", marksMaxTag, "")
	}
}

// subjectsStructValidation checks that a subject appears only once in a submission.
func subjectsStructValidation(sl validator.StructLevel) {
	var subjects []SubjectScore
	switch s := sl.Current().Interface().(type) {
	case NewRecord:
		subjects = s.Subjects
	case UpdateRecord:
		subjects = s.Subjects
	case RemedialSubmission:
		subjects = s.Subjects
	}
	if !uniqueSubjectNames(subjects) {
		sl.ReportError(subjects, "subjects", "Subjects", uniqueSubjectsTag, "")
	}
}

func uniqueSubjectNames(subjects []SubjectScore) bool {
	seen := make(map[string]struct{}, len(subjects))
	for _, sub := range subjects {
		if _, ok := seen[sub.Name]; ok {
			return false
		}
		seen[sub.Name] = struct{}{}
	}
	return true
}
