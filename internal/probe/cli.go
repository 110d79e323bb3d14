package probe

import (
	"fmt"
	"io"
	"os"

	"github.com/aaronukgarcia/prixsix/pkg/logger"
)

const logFilePermission = 0o600

// SetupLogging initialises the logger on stdout and, when logFile is set,
// tees output into that file. The returned func closes the file.
func SetupLogging(format, logFile string) (func() error, error) {
	var (
		w       io.Writer = os.Stdout
		closeFn           = func() error { return nil }
	)
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		w = io.MultiWriter(os.Stdout, f)
		closeFn = f.Close
	}
	if err := logger.InitWithOptions(format, w); err != nil {
		_ = closeFn()
		return nil, fmt.Errorf("init logger: %w", err)
	}
	return closeFn, nil
}

// ShowHelp prints usage information.
func ShowHelp(w io.Writer) {
	_, _ = io.WriteString(w, `Prix Six league probe
=====================

Generates synthetic league seeds and checks a running standings service
against the ranking laws.

Usage:
  league-probe generate [options]
  league-probe verify [options]

generate options:
  -out string        Seed file to write (default "league.yaml")
  -teams int         Number of teams (default 200)
  -weekends int      Weekends on the schedule (default 24)
  -completed int     Weekends with official results (default 12)
  -sprint-every int  Every n-th weekend has a sprint, 0 for none (default 4)
  -seed int          Random seed (default 1)

verify options:
  -url string        Base URL of the service (default "http://localhost:8080")
  -workers int       Events verified concurrently (default 4)
  -page int          Standings rows per page (default 10)
  -timeout duration  HTTP request timeout (default 30s)
  -log string        Also write logs to this file
  -verbose           Debug logging

Examples:
  league-probe generate -teams 500 -out /tmp/league.yaml
  PRIXSIX_SEED_PATH=/tmp/league.yaml PRIXSIX_DB_DRIVER=memory prixsix &
  league-probe verify -url http://localhost:8080 -page 25
`)
}
