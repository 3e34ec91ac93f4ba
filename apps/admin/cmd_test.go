package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/PatelMeet-1/Student-Management-system-sub000/core"
	"github.com/PatelMeet-1/Student-Management-system-sub000/core/auth"
	"github.com/PatelMeet-1/Student-Management-system-sub000/core/result"
	emailsvc "github.com/PatelMeet-1/Student-Management-system-sub000/services/email"
	"github.com/PatelMeet-1/Student-Management-system-sub000/services/spreadsheet"
	dummydb "github.com/PatelMeet-1/Student-Management-system-sub000/storage/database/dummy"
	testutil "github.com/PatelMeet-1/Student-Management-system-sub000/tests"
)

var start = time.Date(2024, time.January, 15, 9, 30, 0, 0, time.UTC)

type testCLI struct {
	*commandLine
	repo    result.Repository
	mailSvc *emailsvc.ConsoleServiceMock
	out     *bytes.Buffer
}

func setup(t *testing.T) testCLI {
	t.Helper()
	conf := testutil.Config()
	if err := core.ParseEmailTemplates(conf); err != nil {
		t.Fatalf("ParseEmailTemplates() error = %v", err)
	}

	// set up DB & repos
	db, err := dummydb.Open()
	if err != nil {
		t.Fatal(err)
	}
	repo := dummydb.NewRecordRepository(db)

	// set up services
	mailSvc := emailsvc.NewConsoleServiceMock(conf, testutil.Logger(conf))
	out := new(bytes.Buffer)

	// start CLI
	return testCLI{
		commandLine: &commandLine{
			conf:        conf,
			svc:         result.NewTestService(repo, mailSvc),
			migrateFunc: func(string, ...string) error { return nil },
			in:          strings.NewReader(""),
			out:         out,
		},
		repo:    repo,
		mailSvc: mailSvc,
		out:     out,
	}
}

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
	wantOut    string // substring of the output
}

func runCLITests(t *testing.T, cli testCLI, tests []cliTest) {
	t.Helper()
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			cli.out.Reset()
			err := cli.run(args)
			switch {
			case tt.wantErr != nil:
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
				}
			case tt.wantErrStr != "":
				if err == nil || err.Error() != tt.wantErrStr {
					t.Errorf("cli.run() error = %v, wantErrStr %s", err, tt.wantErrStr)
				}
			case err != nil:
				t.Errorf("cli.run() unexpected error = %v", err)
			}
			if tt.wantOut != "" && !strings.Contains(cli.out.String(), tt.wantOut) {
				t.Errorf("output = %q; want it to contain %q", cli.out.String(), tt.wantOut)
			}
		})
	}
}

func Test_commandLine_usage(t *testing.T) {
	cli := setup(t)

	runCLITests(t, cli, []cliTest{
		{name: "no command", wantErr: errHelp, wantOut: "Usage:"},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp, wantOut: "Usage:"},
		{name: "flag help", args: []string{"publish", "-h"}, wantErr: errHelp},
		{name: "missing flag", args: []string{"publish"}, wantErr: errHelp, wantOut: "The record ID."},
		{name: "unknown flag", args: []string{"publish", "-lol"}, wantErrStr: "flag provided but not defined: -lol"},
	})
}

func Test_commandLine_migrate(t *testing.T) {
	cli := setup(t)

	var gotArgs []string
	cli.migrateFunc = func(command string, args ...string) error {
		gotArgs = append([]string{command}, args...)
		switch command {
		case "up", "up-by-one", "down", "fix", "redo", "reset", "status", "version": // pass
		case "up-to", "down-to":
			if len(args) == 0 {
				return fmt.Errorf("%s must be of form: goose [OPTIONS] DRIVER DBSTRING %s VERSION", command, command)
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		default:
			return fmt.Errorf("%q: no such command", command)
		}
		return nil
	}

	runCLITests(t, cli, []cliTest{
		{name: "no subcommand", args: []string{"migrate"}, wantErr: errHelp},
		{name: "unknown subcommand", args: []string{"migrate", "lol"}, wantErrStr: "\"lol\": no such command"},
		{name: "up-to: no args", args: []string{"migrate", "up-to"}, wantErrStr: "up-to must be of form: goose [OPTIONS] DRIVER DBSTRING up-to VERSION"},
		{name: "up-to: non-int arg", args: []string{"migrate", "up-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "down-to: no args", args: []string{"migrate", "down-to"}, wantErrStr: "down-to must be of form: goose [OPTIONS] DRIVER DBSTRING down-to VERSION"},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "up-to", args: []string{"migrate", "up-to", "1"}},
		{name: "down", args: []string{"migrate", "down"}},
		{name: "status", args: []string{"migrate", "status"}},
	})

	assert.Equal(t, []string{"status"}, gotArgs)
}

func Test_commandLine_importMarks(t *testing.T) {
	cli := setup(t)
	sub := testutil.Subject

	path := filepath.Join(t.TempDir(), "marks.xlsx")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	err = spreadsheet.WriteMarks(f, []result.Record{
		{
			StudentID: "S1", StudentName: "Jane Doe", StudentEmail: "jane@results.test",
			Semester: "Sem 3", ExamType: result.ExamInternal, Subjects: []result.SubjectScore{sub("DBMS", 28, 30), sub("OS", 25, 30)},
		},
		{StudentID: "S2", Semester: "Sem 3", ExamType: result.ExamUniversity, Subjects: []result.SubjectScore{sub("DBMS", 55, 70)}},
		{StudentID: "S3", Semester: "Sem 3", ExamType: result.ExamInternal, Subjects: []result.SubjectScore{sub("DBMS", 40, 30)}},
	})
	if cErr := f.Close(); err == nil {
		err = cErr
	}
	if err != nil {
		t.Fatal(err)
	}

	runCLITests(t, cli, []cliTest{
		{name: "no file", args: []string{"import"}, wantErr: errHelp},
		{name: "missing file", args: []string{"import", "-file", filepath.Join(t.TempDir(), "lol.xlsx")}, wantErr: os.ErrNotExist},
		{
			name: "import", args: []string{"import", "-file", path},
			wantOut: "created: 2, updated: 0, published: 0, failed: 1\n  #3 S3 / Sem 3 / internal: subjects[0].marks: marks cannot exceed max marks",
		},
		{name: "import & publish", args: []string{"import", "-file", path, "-publish"}, wantOut: "created: 0, updated: 2, published: 2, failed: 1"},
	})

	// only S1 has an email address
	assert.Len(t, cli.mailSvc.SentMessages(), 1)
}

func Test_commandLine_setPublished(t *testing.T) {
	cli := setup(t)
	rec := testutil.CreateRecord(t, cli.repo, "S1", "Sem 3", result.ExamInternal, false,
		[]result.SubjectScore{testutil.Subject("DBMS", 28, 30)})

	runCLITests(t, cli, []cliTest{
		{name: "publish", args: []string{"publish", "-id", rec.ID}, wantOut: rec.ID + " (S1 / Sem 3 / internal): published"},
		{name: "unpublish", args: []string{"unpublish", "-id", rec.ID}, wantOut: rec.ID + " (S1 / Sem 3 / internal): draft"},
		{name: "not found", args: []string{"publish", "-id", "lol"}, wantErr: result.ErrNotFound},
	})
}

func Test_commandLine_delete(t *testing.T) {
	cli := setup(t)
	sub := testutil.Subject
	isTerminal := isTerminalFunc
	defer func() { isTerminalFunc = isTerminal }()

	orig := testutil.CreateRecord(t, cli.repo, "S1", "Sem 3", result.ExamUniversity, true, []result.SubjectScore{sub("Phy", 20, 100)}, start)
	rem := testutil.CreateRemedialRecord(t, cli.repo, orig, true, []result.SubjectScore{sub("Phy", 40, 100)}, start.Add(time.Hour))

	tests := []struct {
		cliTest
		terminal bool
		input    string
	}{
		{cliTest: cliTest{name: "not a terminal", args: []string{"delete", "-id", rem.ID}, wantErr: errConfirmRequired}},
		{cliTest: cliTest{name: "declined", args: []string{"delete", "-id", rem.ID}, wantErr: errAborted, wantOut: "[y/N]"}, terminal: true, input: "n\n"},
		{cliTest: cliTest{name: "no answer", args: []string{"delete", "-id", rem.ID}, wantErr: errAborted}, terminal: true},
		{
			cliTest: cliTest{name: "has remedials", args: []string{"delete", "-id", orig.ID, "-yes"},
				wantErrStr: result.ErrHasRemedials.Error() + " (" + orig.ID + ": " + result.ErrHasRemedials.Error() + ")"},
		},
		{cliTest: cliTest{name: "confirmed", args: []string{"delete", "-id", rem.ID}, wantOut: "deleted: 1"}, terminal: true, input: "Y\n"},
		{cliTest: cliTest{name: "-yes", args: []string{"delete", "-id", orig.ID, "-yes"}, wantOut: "deleted: 1"}},
		{cliTest: cliTest{name: "not found", args: []string{"delete", "-id", orig.ID, "-yes"}, wantErr: result.ErrNotFound}},
	}
	for _, tt := range tests {
		terminal := tt.terminal
		isTerminalFunc = func(int) bool { return terminal }
		cli.in = strings.NewReader(tt.input)
		runCLITests(t, cli, []cliTest{tt.cliTest})
	}
}

func Test_commandLine_printResult(t *testing.T) {
	cli := setup(t)
	day := 24 * time.Hour
	sub := testutil.Subject

	testutil.CreateRecord(t, cli.repo, "S", "Sem 3", result.ExamUniversity, true, []result.SubjectScore{sub("DBMS", 55, 70)}, start)
	testutil.CreateRecord(t, cli.repo, "S", "Sem 3", result.ExamInternal, false, []result.SubjectScore{sub("DBMS", 28, 30)}, start.Add(day))
	testutil.CreateRecord(t, cli.repo, "S", "Sem 3", result.ExamPractical, true, []result.SubjectScore{sub("DBMS Lab", 18, 20)}, start.Add(2*day))

	type printed struct {
		TotalMarks    float64 `json:"total_marks"`
		TotalMaxMarks float64 `json:"total_max_marks"`
		Percentage    float64 `json:"percentage"`
		Status        string  `json:"status"`
	}
	tests := []struct {
		name string
		args []string
		want printed
	}{
		{name: "all records", args: []string{"result", "-student", "S", "-semester", "Sem 3"}, want: printed{101, 120, 84.17, "PASS"}},
		{name: "published only", args: []string{"result", "-student", "S", "-semester", "Sem 3", "-published"}, want: printed{73, 90, 81.11, "PASS"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cli.out.Reset()
			if err := cli.run(append([]string{"admin"}, tt.args...)); err != nil {
				t.Fatalf("cli.run() error = %v", err)
			}
			var got printed
			if err := json.Unmarshal(cli.out.Bytes(), &got); err != nil {
				t.Fatalf("json.Unmarshal(%s) error = %v", cli.out.String(), err)
			}
			assert.Equal(t, tt.want, got)
		})
	}

	runCLITests(t, cli, []cliTest{
		{name: "no semester", args: []string{"result", "-student", "S"}, wantErr: errHelp},
		{name: "not found", args: []string{"result", "-student", "S", "-semester", "Sem 4"}, wantErr: result.ErrNotFound},
	})
}

func Test_commandLine_printToken(t *testing.T) {
	cli := setup(t)

	runCLITests(t, cli, []cliTest{
		{name: "no role", args: []string{"token", "-subject", "F1"}, wantErr: errHelp},
		{name: "bad role", args: []string{"token", "-role", "lol", "-subject", "F1"}, wantErrStr: "invalid role (role: invalid role)"},
	})

	cli.out.Reset()
	if err := cli.run([]string{"admin", "token", "-role", auth.RoleFaculty, "-subject", "F1"}); err != nil {
		t.Fatalf("cli.run() error = %v", err)
	}
	claims, err := auth.ParseToken(strings.TrimSpace(cli.out.String()), cli.conf.SecretKey)
	if err != nil {
		t.Fatalf("ParseToken() error = %v", err)
	}
	if claims.Subject != "F1" || !claims.IsFaculty() {
		t.Errorf("claims = %+v", claims)
	}
}
