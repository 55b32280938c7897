/*
main.go - Application entry point

PURPOSE:
  Runs the statpay command line: the HTTP service plus offline tools for
  computing holiday pay, checking rule tables and listing holidays.

COMMANDS:
  serve                                   HTTP API and holiday payroll scheduler
  compute -f request.json                 One computation, printed with its audit trail
  rules lint -f table.yaml                Validate a rule table file
  rules resolve --province AB --date D    Show the rule set in force on D
  holidays --province AB --year 2024      Statutory holiday calendar

CONFIGURATION:
  Flags, STATPAY_* environment variables and an optional --config file,
  resolved by the config package.

SEE ALSO:
  - config/config.go: keys and defaults
  - api/server.go: Router configuration
*/
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
