package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/PatelMeet-1/Student-Management-system-sub000/core"
	"github.com/PatelMeet-1/Student-Management-system-sub000/core/result"
	"github.com/PatelMeet-1/Student-Management-system-sub000/services/spreadsheet"
)

var (
	errAborted         = errors.New("aborted")
	errConfirmRequired = errors.New("stdin is not a terminal: pass -yes to confirm")
)

// confirm asks a yes/no question, defaulting to no.
func (cli *commandLine) confirm(question string) bool {
	fmt.Fprintf(cli.out, "%s [y/N]: ", question)
	answer, err := bufio.NewReader(cli.in).ReadString('\n')
	if err != nil && answer == "" {
		return false
	}
	switch core.CleanString(answer, true /* lower */) {
	case "y", "yes":
		return true
	default:
		return false
	}
}

func (cli *commandLine) importMarks(path string, publish bool) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrap(err, "opening workbook")
	}
	defer func() { _ = f.Close() }()

	nrs, err := spreadsheet.ParseMarks(f)
	if err != nil {
		return describe(err)
	}
	report, err := cli.svc.Import(context.Background(), nrs, publish)
	if err != nil {
		return describe(err)
	}

	fmt.Fprintf(cli.out, "created: %d, updated: %d, published: %d, failed: %d\n",
		report.Created, report.Updated, report.Published, len(report.Failed))
	for _, failure := range report.Failed {
		fmt.Fprintf(cli.out, "  #%d %s / %s / %s: %s\n", failure.Index+1, failure.StudentID, failure.Semester, failure.ExamType,
			joinFields(failure.Errors))
	}
	return nil
}

func (cli *commandLine) setPublished(id string, published bool) error {
	rec, err := cli.svc.SetPublished(context.Background(), core.CleanString(id), published)
	if err != nil {
		return describe(err)
	}
	state := "draft"
	if rec.Published {
		state = "published"
	}
	fmt.Fprintf(cli.out, "%s (%s / %s / %s): %s\n", rec.ID, rec.StudentID, rec.Semester, rec.ExamType, state)
	return nil
}

func (cli *commandLine) delete(id string) error {
	n, err := cli.svc.Delete(context.Background(), core.CleanString(id))
	if err != nil {
		return describe(err)
	}
	if n == 0 {
		return result.ErrNotFound
	}
	fmt.Fprintf(cli.out, "deleted: %d\n", n)
	return nil
}

func (cli *commandLine) printResult(studentID, semester string, publishedOnly bool) error {
	res, err := cli.svc.SemesterResult(context.Background(), studentID, semester, publishedOnly)
	if err != nil {
		return describe(err)
	}
	enc := json.NewEncoder(cli.out)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}

// describe flattens validation errors into a readable message.
func describe(err error) error {
	vErr, ok := errors.Cause(err).(*core.ValidationError)
	if !ok || len(vErr.Fields) == 0 {
		return err
	}
	msg := joinFields(vErr.FieldsMap())
	if vErr.Err != nil {
		msg = vErr.Err.Error() + " (" + msg + ")"
	}
	return errors.New(msg)
}

func joinFields(flds map[string]string) string {
	keys := make([]string, 0, len(flds))
	for k := range flds {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+flds[k])
	}
	return strings.Join(parts, "; ")
}
