package main

import (
	"os"

	"github.com/roach88/qs/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(cli.GetExitCode(err))
	}
}
