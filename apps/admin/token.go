package main

import (
	"fmt"

	"github.com/PatelMeet-1/Student-Management-system-sub000/core/auth"
)

func (cli *commandLine) printToken(role, subject string) error {
	claims, err := auth.NewClaims(subject, role, cli.conf)
	if err != nil {
		return describe(err)
	}
	token, err := auth.GenerateToken(claims, cli.conf.SecretKey)
	if err != nil {
		return err
	}
	fmt.Fprintln(cli.out, token)
	return nil
}
