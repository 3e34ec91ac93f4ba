package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"

	"github.com/PatelMeet-1/Student-Management-system-sub000/core"
	"github.com/PatelMeet-1/Student-Management-system-sub000/core/result"
)

var (
	isTerminalFunc = term.IsTerminal // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	conf        *core.Config
	svc         result.Service
	migrateFunc func(command string, args ...string) error
	in          io.Reader
	out         io.Writer
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  migrate COMMAND [ARGS]                         - run a goose migration command (up, down, status...)")
	fmt.Fprintln(cli.out, "  import -file FILE [-publish]                   - import the marks of an xlsx workbook")
	fmt.Fprintln(cli.out, "  publish -id ID                                 - make a record visible to its student")
	fmt.Fprintln(cli.out, "  unpublish -id ID                               - send a record back to draft")
	fmt.Fprintln(cli.out, "  delete -id ID [-yes]                           - delete a record")
	fmt.Fprintln(cli.out, "  result -student ID -semester LABEL [-published] - print a semester result")
	fmt.Fprintln(cli.out, "  token -role ROLE -subject SUBJECT              - print a portal access token")
}

func (cli *commandLine) newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(cli.out)
	return fs
}

// parse parses args and prints the usage of fs when any of required is empty.
func (cli *commandLine) parse(fs *flag.FlagSet, args []string, required ...*string) error {
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return errHelp
		}
		return err
	}
	for _, val := range required {
		if core.CleanString(*val) == "" {
			fs.Usage()
			return errHelp
		}
	}
	return nil
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	importCmd := cli.newFlagSet("import")
	importFile := importCmd.String("file", "", "The xlsx workbook to import, one subject score per row.")
	importPublish := importCmd.Bool("publish", false, "Publish the imported records.")

	publishCmd := cli.newFlagSet("publish")
	publishID := publishCmd.String("id", "", "The record ID.")

	unpublishCmd := cli.newFlagSet("unpublish")
	unpublishID := unpublishCmd.String("id", "", "The record ID.")

	deleteCmd := cli.newFlagSet("delete")
	deleteID := deleteCmd.String("id", "", "The record ID.")
	deleteYes := deleteCmd.Bool("yes", false, "Do not ask for confirmation.")

	resultCmd := cli.newFlagSet("result")
	resultStudent := resultCmd.String("student", "", "The student ID.")
	resultSemester := resultCmd.String("semester", "", "The semester label, eg. \"Sem 3\".")
	resultPublished := resultCmd.Bool("published", false, "Only count the published records, as the student sees them.")

	tokenCmd := cli.newFlagSet("token")
	tokenRole := tokenCmd.String("role", "", "One of admin, faculty or student.")
	tokenSubject := tokenCmd.String("subject", "", "The token bearer. The student ID for students.")

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])

	case "import":
		if err := cli.parse(importCmd, args[2:], importFile); err != nil {
			return err
		}
		return cli.importMarks(*importFile, *importPublish)

	case "publish":
		if err := cli.parse(publishCmd, args[2:], publishID); err != nil {
			return err
		}
		return cli.setPublished(*publishID, true)

	case "unpublish":
		if err := cli.parse(unpublishCmd, args[2:], unpublishID); err != nil {
			return err
		}
		return cli.setPublished(*unpublishID, false)

	case "delete":
		if err := cli.parse(deleteCmd, args[2:], deleteID); err != nil {
			return err
		}
		if !*deleteYes {
			if !isTerminalFunc(int(os.Stdin.Fd())) {
				return errConfirmRequired
			}
			if !cli.confirm(fmt.Sprintf("Delete record %s?", *deleteID)) {
				return errAborted
			}
		}
		return cli.delete(*deleteID)

	case "result":
		if err := cli.parse(resultCmd, args[2:], resultStudent, resultSemester); err != nil {
			return err
		}
		return cli.printResult(*resultStudent, *resultSemester, *resultPublished)

	case "token":
		if err := cli.parse(tokenCmd, args[2:], tokenRole, tokenSubject); err != nil {
			return err
		}
		return cli.printToken(*tokenRole, *tokenSubject)

	default:
		cli.printUsage()
		return errHelp
	}
}
