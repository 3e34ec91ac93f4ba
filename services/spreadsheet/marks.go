// Package spreadsheet reads and writes the xlsx workbooks exchanged with faculty:
// marks imports, marks exports and student marksheets.
package spreadsheet

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"

	"github.com/PatelMeet-1/Student-Management-system-sub000/core"
	"github.com/PatelMeet-1/Student-Management-system-sub000/core/result"
)

const (
	MaxImportRows = 5000
	marksSheet    = "Marks"
)

// marks columns, in export order
const (
	colStudentID    = "student_id"
	colStudentName  = "student_name"
	colStudentEmail = "student_email"
	colCourse       = "course"
	colDepartment   = "department"
	colSemester     = "semester"
	colExamType     = "exam_type"
	colSubject      = "subject"
	colMarks        = "marks"
	colMaxMarks     = "max_marks"
)

var (
	MarksColumns = []string{
		colStudentID, colStudentName, colStudentEmail, colCourse, colDepartment,
		colSemester, colExamType, colSubject, colMarks, colMaxMarks,
	}
	requiredColumns = []string{colStudentID, colSemester, colExamType, colSubject, colMarks, colMaxMarks}

	ErrNoData       = errors.New("the workbook has no data rows (the first row is the header)")
	ErrTooManyRows  = fmt.Errorf("the workbook has more than %d rows", MaxImportRows)
	ErrBadHeader    = errors.New("the header misses required columns")
	errNotANumber   = "must be a number"
	errRequiredCell = "this field is required"
)

type recordKey struct {
	studentID string
	semester  string
	examType  result.ExamType
}

// ParseMarks reads the first sheet of an xlsx workbook holding one subject score per row,
// and groups the rows into one NewRecord per student, semester & exam type, in first-seen order.
// Unreadable cells reject the whole workbook, with one field error per cell keyed "row N: column".
func ParseMarks(r io.Reader) ([]result.NewRecord, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, core.NewValidationError(errors.Wrap(err, "reading workbook"))
	}
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		return nil, errors.Wrap(err, "reading sheet")
	}
	if len(rows) < 2 {
		return nil, core.NewValidationError(ErrNoData)
	}
	if len(rows)-1 > MaxImportRows {
		return nil, core.NewValidationError(ErrTooManyRows)
	}

	colIndex := parseHeaderIndex(rows[0])
	var missing []core.FieldError
	for _, col := range requiredColumns {
		if colIndex[col] < 0 {
			missing = append(missing, core.FieldError{Field: col, Error: "missing column"})
		}
	}
	if len(missing) > 0 {
		return nil, core.NewValidationError(ErrBadHeader, missing...)
	}

	var (
		records []result.NewRecord
		flds    []core.FieldError
	)
	index := make(map[recordKey]int)
	for i, row := range rows[1:] {
		rowNum := i + 2
		cell := func(col string) string {
			if idx := colIndex[col]; idx >= 0 && idx < len(row) {
				return strings.TrimSpace(row[idx])
			}
			return ""
		}
		number := func(col string) float64 {
			val := cell(col)
			if val == "" {
				flds = append(flds, core.FieldError{Field: fmt.Sprintf("row %d: %s", rowNum, col), Error: errRequiredCell})
				return 0
			}
			n, err := strconv.ParseFloat(val, 64)
			if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
				flds = append(flds, core.FieldError{Field: fmt.Sprintf("row %d: %s", rowNum, col), Error: errNotANumber})
				return 0
			}
			return n
		}

		if isBlank(row) {
			continue
		}

		sub := result.SubjectScore{Name: cell(colSubject), Marks: number(colMarks), MaxMarks: number(colMaxMarks)}
		key := recordKey{
			studentID: cell(colStudentID),
			semester:  cell(colSemester),
			examType:  result.ExamType(strings.ToLower(cell(colExamType))),
		}
		if idx, ok := index[key]; ok {
			nr := &records[idx]
			nr.Subjects = append(nr.Subjects, sub)
			fillBlank(&nr.StudentName, cell(colStudentName))
			fillBlank(&nr.StudentEmail, cell(colStudentEmail))
			fillBlank(&nr.Course, cell(colCourse))
			fillBlank(&nr.Department, cell(colDepartment))
			continue
		}
		index[key] = len(records)
		records = append(records, result.NewRecord{
			StudentID:    key.studentID,
			StudentName:  cell(colStudentName),
			StudentEmail: cell(colStudentEmail),
			Course:       cell(colCourse),
			Department:   cell(colDepartment),
			Semester:     key.semester,
			ExamType:     key.examType,
			Subjects:     []result.SubjectScore{sub},
		})
	}

	if len(flds) > 0 {
		return nil, core.NewValidationError(nil, flds...)
	}
	if len(records) == 0 {
		return nil, core.NewValidationError(ErrNoData)
	}
	return records, nil
}

// parseHeaderIndex maps column names onto their index, -1 when missing.
func parseHeaderIndex(header []string) map[string]int {
	idx := make(map[string]int, len(MarksColumns))
	for _, col := range MarksColumns {
		idx[col] = -1
	}
	for i, h := range header {
		name := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(h)), " ", "_")
		if _, ok := idx[name]; ok && idx[name] < 0 {
			idx[name] = i
		}
	}
	return idx
}

func isBlank(row []string) bool {
	for _, val := range row {
		if strings.TrimSpace(val) != "" {
			return false
		}
	}
	return true
}

func fillBlank(dst *string, val string) {
	if *dst == "" {
		*dst = val
	}
}

// WriteMarks writes records in the import format, one subject score per row.
func WriteMarks(w io.Writer, records []result.Record) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(0), marksSheet); err != nil {
		return errors.Wrap(err, "naming sheet")
	}

	header := make([]interface{}, 0, len(MarksColumns))
	for _, col := range MarksColumns {
		header = append(header, col)
	}
	if err := f.SetSheetRow(marksSheet, "A1", &header); err != nil {
		return errors.Wrap(err, "writing header")
	}
	if style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		_ = f.SetRowStyle(marksSheet, 1, 1, style)
	}

	rowNum := 2
	for _, rec := range records {
		for _, sub := range rec.Subjects {
			row := []interface{}{
				rec.StudentID, rec.StudentName, rec.StudentEmail, rec.Course, rec.Department,
				rec.Semester, string(rec.ExamType), sub.Name, sub.Marks, sub.MaxMarks,
			}
			cell, _ := excelize.CoordinatesToCellName(1, rowNum)
			if err := f.SetSheetRow(marksSheet, cell, &row); err != nil {
				return errors.Wrapf(err, "writing row %d", rowNum)
			}
			rowNum++
		}
	}

	return errors.Wrap(f.Write(w), "writing workbook")
}
