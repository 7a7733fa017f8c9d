// Command suql compiles SuQL scripts to SQL.
//
// Usage:
//
//	suql compile report.suql --schema relations.cue [--query name]... [--dialect mysql] [-o out.sql]
//	suql validate report.suql [--schema relations.cue]
//	suql test testdata/scenarios [--update] [--filter pattern]
//
// Global flags: --format text|json, --verbose.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/suql/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		// stdout carries the command's own report; the summary goes to stderr
		fmt.Fprintln(os.Stderr, "suql:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
