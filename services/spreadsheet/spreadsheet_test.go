package spreadsheet

import (
	"bytes"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/xuri/excelize/v2"

	"github.com/PatelMeet-1/Student-Management-system-sub000/core"
	"github.com/PatelMeet-1/Student-Management-system-sub000/core/result"
)

// workbook builds an xlsx file from raw rows.
func workbook(t *testing.T, rows ...[]interface{}) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()
	for i, row := range rows {
		row := row
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow("Sheet1", cell, &row); err != nil {
			t.Fatal(err)
		}
	}
	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		t.Fatal(err)
	}
	return buf
}

func validationError(t *testing.T, err error) *core.ValidationError {
	t.Helper()
	vErr, ok := errors.Cause(err).(*core.ValidationError)
	if !ok {
		t.Fatalf("error = %v, want *core.ValidationError", err)
	}
	return vErr
}

func TestParseMarks(t *testing.T) {
	buf := workbook(t,
		[]interface{}{"Student ID", "Student Name", "Semester", "Exam Type", "Subject", "Marks", "Max Marks", "Course"},
		[]interface{}{"S1", "Jane Doe", "Sem 3", "Internal", "DBMS", 28, 30, "BCA"},
		[]interface{}{"S2", "", "Sem 3", "internal", "DBMS", 12.5, 30},
		[]interface{}{},
		[]interface{}{"S1", "", "Sem 3", "internal", "OS", 21, 30},
		[]interface{}{"S1", "", "Sem 3", "university", "DBMS", 55, 70},
	)

	got, err := ParseMarks(buf)
	if err != nil {
		t.Fatalf("ParseMarks() error = %v", err)
	}
	want := []result.NewRecord{
		{
			StudentID: "S1", StudentName: "Jane Doe", Course: "BCA", Semester: "Sem 3", ExamType: result.ExamInternal,
			Subjects: []result.SubjectScore{{Name: "DBMS", Marks: 28, MaxMarks: 30}, {Name: "OS", Marks: 21, MaxMarks: 30}},
		},
		{
			StudentID: "S2", Semester: "Sem 3", ExamType: result.ExamInternal,
			Subjects: []result.SubjectScore{{Name: "DBMS", Marks: 12.5, MaxMarks: 30}},
		},
		{
			StudentID: "S1", Semester: "Sem 3", ExamType: result.ExamUniversity,
			Subjects: []result.SubjectScore{{Name: "DBMS", Marks: 55, MaxMarks: 70}},
		},
	}
	assert.Equal(t, want, got)
}

func TestParseMarksErrors(t *testing.T) {
	header := []interface{}{"student_id", "semester", "exam_type", "subject", "marks", "max_marks"}

	tests := []struct {
		name       string
		buf        *bytes.Buffer
		wantErr    error
		wantFields []string
	}{
		{name: "not a workbook", buf: bytes.NewBufferString("student_id,marks\nS1,20")},
		{name: "header only", buf: workbook(t, header), wantErr: ErrNoData},
		{name: "blank rows only", buf: workbook(t, header, []interface{}{"", " "}), wantErr: ErrNoData},
		{
			name:       "missing columns",
			buf:        workbook(t, []interface{}{"student_id", "semester", "subject", "marks"}, []interface{}{"S1", "Sem 3", "DBMS", 20}),
			wantErr:    ErrBadHeader,
			wantFields: []string{"exam_type", "max_marks"},
		},
		{
			name: "bad numbers",
			buf: workbook(t, header,
				[]interface{}{"S1", "Sem 3", "internal", "DBMS", "twenty", 30},
				[]interface{}{"S1", "Sem 3", "internal", "OS", 20},
			),
			wantFields: []string{"row 2: marks", "row 3: max_marks"},
		},
		{
			name: "non-finite numbers",
			buf: workbook(t, header,
				[]interface{}{"S1", "Sem 3", "internal", "DBMS", "Inf", "Inf"},
				[]interface{}{"S1", "Sem 3", "internal", "OS", 20, "NaN"},
			),
			wantFields: []string{"row 2: marks", "row 2: max_marks", "row 3: max_marks"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseMarks(tt.buf)
			vErr := validationError(t, err)
			if tt.wantErr != nil && vErr.Err != tt.wantErr {
				t.Errorf("ParseMarks() error = %v, want %v", vErr.Err, tt.wantErr)
			}
			if tt.wantFields != nil {
				flds := vErr.FieldsMap()
				assert.Len(t, flds, len(tt.wantFields))
				for _, fld := range tt.wantFields {
					assert.Contains(t, flds, fld)
				}
			}
		})
	}
}

func TestWriteParseMarks(t *testing.T) {
	records := []result.Record{
		{
			StudentID: "S1", StudentName: "Jane Doe", StudentEmail: "jane@results.test", Course: "BCA",
			Department: "Computer Science", Semester: "Sem 3", ExamType: result.ExamPractical,
			Subjects: []result.SubjectScore{{Name: "DBMS Lab", Marks: 18, MaxMarks: 20}, {Name: "OS Lab", Marks: 9.5, MaxMarks: 20}},
		},
		{
			StudentID: "S2", Semester: "Sem 3", ExamType: result.ExamUniversity,
			Subjects: []result.SubjectScore{{Name: "DBMS", Marks: 55, MaxMarks: 70}},
		},
	}

	buf := new(bytes.Buffer)
	if err := WriteMarks(buf, records); err != nil {
		t.Fatalf("WriteMarks() error = %v", err)
	}
	got, err := ParseMarks(buf)
	if err != nil {
		t.Fatalf("ParseMarks() error = %v", err)
	}
	if assert.Len(t, got, 2) {
		for i, rec := range records {
			assert.Equal(t, rec.StudentID, got[i].StudentID)
			assert.Equal(t, rec.StudentEmail, got[i].StudentEmail)
			assert.Equal(t, rec.Department, got[i].Department)
			assert.Equal(t, rec.ExamType, got[i].ExamType)
			assert.Equal(t, rec.Subjects, got[i].Subjects)
		}
	}
}

func TestWriteMarksheet(t *testing.T) {
	res, err := result.Aggregate([]result.Record{
		{StudentID: "S", StudentName: "Jane Doe", Semester: "Sem 3", ExamType: result.ExamUniversity,
			Subjects: []result.SubjectScore{{Name: "DBMS", Marks: 55, MaxMarks: 70}}},
		{StudentID: "S", Semester: "Sem 3", ExamType: result.ExamInternal,
			Subjects: []result.SubjectScore{{Name: "DBMS", Marks: 28, MaxMarks: 30}}},
		{StudentID: "S", Semester: "Sem 3", ExamType: result.ExamPractical,
			Subjects: []result.SubjectScore{{Name: "DBMS Lab", Marks: 18, MaxMarks: 20}}},
	})
	if err != nil {
		t.Fatal(err)
	}

	buf := new(bytes.Buffer)
	if err = WriteMarksheet(buf, res); err != nil {
		t.Fatalf("WriteMarksheet() error = %v", err)
	}

	f, err := excelize.OpenReader(buf)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = f.Close() }()

	cell := func(name string) string {
		val, err := f.GetCellValue(marksheetSheet, name)
		if err != nil {
			t.Fatal(err)
		}
		return val
	}
	assert.Equal(t, "Sem 3", cell("B2"))
	assert.Equal(t, "Subject", cell("B4"))
	// exam type order
	assert.Equal(t, "internal", cell("A5"))
	assert.Equal(t, "practical", cell("A6"))
	assert.Equal(t, "university", cell("A7"))
	assert.Equal(t, "93.33", cell("E5"))
	assert.Equal(t, "A+", cell("F5"))
	// totals
	assert.Equal(t, "101", cell("C9"))
	assert.Equal(t, "120", cell("D9"))
	assert.Equal(t, "84.17", cell("B10"))
	assert.Equal(t, "PASS", cell("B12"))
}
