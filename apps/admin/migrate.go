package main

func (cli *commandLine) migrate(args []string) error {
	return cli.migrateFunc(args[0], args[1:]...)
}
