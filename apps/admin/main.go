package main

import (
	"context"
	"log"
	"os"

	"github.com/PatelMeet-1/Student-Management-system-sub000/apps/shared"
	"github.com/PatelMeet-1/Student-Management-system-sub000/core"
	logsvc "github.com/PatelMeet-1/Student-Management-system-sub000/services/logger"
)

func main() {
	conf := core.NewConfig()
	logger := logsvc.NewRollbarLogger(
		log.New(os.Stderr, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)

	// set up DB
	ctx, cancel := context.WithTimeout(context.Background(), 30*conf.Server.ShutdownTimeout)
	st, err := shared.OpenStorage(ctx, conf)
	cancel()
	if err != nil {
		logger.Fatal("setting up database", err)
	}

	if err = core.ParseEmailTemplates(conf); err != nil {
		logger.Fatal("parsing email templates", err)
	}
	mailSvc := shared.NewEmailService(conf, logger)
	resultSvc, _ := shared.NewResultService(st, mailSvc)

	// start CLI
	cli := commandLine{
		conf:        conf,
		svc:         resultSvc,
		migrateFunc: st.Migrate,
		in:          os.Stdin,
		out:         os.Stdout,
	}
	err = cli.run(os.Args)
	shared.WaitEmails(mailSvc)
	if cErr := st.Close(); cErr != nil {
		logger.Error("closing database", cErr)
	}
	if err != nil {
		if err != errHelp {
			logger.Error(err.Error(), err)
		}
		os.Exit(1)
	}
}
