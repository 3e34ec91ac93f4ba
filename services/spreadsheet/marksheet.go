package spreadsheet

import (
	"fmt"
	"io"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"

	"github.com/PatelMeet-1/Student-Management-system-sub000/core"
	"github.com/PatelMeet-1/Student-Management-system-sub000/core/result"
)

const marksheetSheet = "Marksheet"

var marksheetHeader = []interface{}{
	"Exam type", "Subject", "Marks", "Max marks", "Percentage", "Grade", "Grade point", "Result",
}

func cellName(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}

// WriteMarksheet writes the marksheet of a semester result: subjects grouped by exam type, then totals.
func WriteMarksheet(w io.Writer, res result.AggregatedResult) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	sheet := marksheetSheet
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return errors.Wrap(err, "naming sheet")
	}
	_ = f.SetColWidth(sheet, "A", "A", 14)
	_ = f.SetColWidth(sheet, "B", "B", 28)
	_ = f.SetColWidth(sheet, "C", "H", 12)

	titleStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return errors.Wrap(err, "creating title style")
	}
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return errors.Wrap(err, "creating header style")
	}
	boldStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return errors.Wrap(err, "creating bold style")
	}

	lastCol := len(marksheetHeader)
	title := res.StudentID
	if res.StudentName != "" {
		title = fmt.Sprintf("%s (%s)", res.StudentName, res.StudentID)
	}
	_ = f.SetCellValue(sheet, "A1", title)
	_ = f.MergeCell(sheet, "A1", cellName(lastCol, 1))
	_ = f.SetCellStyle(sheet, "A1", "A1", titleStyle)

	info := []interface{}{"Semester", res.Semester, "Course", res.Course, "Department", res.Department}
	if err = f.SetSheetRow(sheet, "A2", &info); err != nil {
		return errors.Wrap(err, "writing info")
	}

	row := 4
	if err = f.SetSheetRow(sheet, cellName(1, row), &marksheetHeader); err != nil {
		return errors.Wrap(err, "writing header")
	}
	_ = f.SetCellStyle(sheet, cellName(1, row), cellName(lastCol, row), headerStyle)

	for _, et := range result.ExamTypes {
		for _, sr := range res.ByExamType(et) {
			row++
			status := result.StatusPass
			if !sr.IsPass {
				status = result.StatusFail
			}
			name := sr.Name
			if sr.Remedial {
				name += " (remedial)"
			}
			vals := []interface{}{
				string(sr.ExamType), name, sr.Marks, sr.MaxMarks,
				core.Round2(sr.Percentage), string(sr.Grade), sr.GradePoint, string(status),
			}
			if err = f.SetSheetRow(sheet, cellName(1, row), &vals); err != nil {
				return errors.Wrapf(err, "writing row %d", row)
			}
		}
	}

	row += 2
	totals := [][]interface{}{
		{"Total", "", res.TotalMarks, res.TotalMaxMarks},
		{"Percentage", core.Round2(res.Percentage)},
		{"SPI", core.Round2(res.SPI)},
		{"Result", string(res.Status)},
	}
	for _, vals := range totals {
		vals := vals
		if err = f.SetSheetRow(sheet, cellName(1, row), &vals); err != nil {
			return errors.Wrapf(err, "writing row %d", row)
		}
		_ = f.SetCellStyle(sheet, cellName(1, row), cellName(1, row), boldStyle)
		row++
	}

	return errors.Wrap(f.Write(w), "writing workbook")
}
