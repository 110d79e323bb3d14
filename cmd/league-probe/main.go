package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aaronukgarcia/prixsix/internal/probe"
	"github.com/aaronukgarcia/prixsix/pkg/logger"
)

// Default generation constants.
const (
	defaultTeams       = 200
	defaultWeekends    = 24
	defaultCompleted   = 12
	defaultSprintEvery = 4
	defaultRunTimeout  = 10 * time.Minute
)

func main() {
	if len(os.Args) < 2 {
		probe.ShowHelp(os.Stderr)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, defaultRunTimeout)
	defer cancel()

	var err error
	switch os.Args[1] {
	case "generate":
		err = runGenerate(ctx, os.Args[2:])
	case "verify":
		err = runVerify(ctx, os.Args[2:])
	case "help", "-h", "-help", "--help":
		probe.ShowHelp(os.Stdout)
		return
	default:
		probe.ShowHelp(os.Stderr)
		os.Exit(2)
	}
	if err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}
}

func runGenerate(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("generate", flag.ExitOnError)
	var (
		out         = fs.String("out", "league.yaml", "Seed file to write")
		teams       = fs.Int("teams", defaultTeams, "Number of teams")
		weekends    = fs.Int("weekends", defaultWeekends, "Weekends on the schedule")
		completed   = fs.Int("completed", defaultCompleted, "Weekends with official results")
		sprintEvery = fs.Int("sprint-every", defaultSprintEvery, "Every n-th weekend has a sprint")
		seed        = fs.Int64("seed", 1, "Random seed")
	)
	_ = fs.Parse(args)

	if _, err := probe.SetupLogging(logger.FormatText, ""); err != nil {
		return err
	}
	league, err := probe.Generate(ctx, probe.GenerateConfig{
		Teams:       *teams,
		Weekends:    *weekends,
		Completed:   *completed,
		SprintEvery: *sprintEvery,
		Seed:        *seed,
	})
	if err != nil {
		return err
	}
	if err := probe.WriteSeedFile(*out, league); err != nil {
		return err
	}
	logger.Get().Info(ctx, "seed written", logger.String("path", *out))
	return nil
}

func runVerify(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("verify", flag.ExitOnError)
	var (
		baseURL  = fs.String("url", probe.DefaultBaseURL, "Base URL of the service")
		workers  = fs.Int("workers", probe.DefaultWorkers, "Events verified concurrently")
		pageSize = fs.Int("page", probe.DefaultPageSize, "Standings rows per page")
		timeout  = fs.Duration("timeout", probe.DefaultTimeout, "HTTP request timeout")
		logFile  = fs.String("log", "", "Also write logs to this file")
		verbose  = fs.Bool("verbose", false, "Debug logging")
	)
	_ = fs.Parse(args)

	closeLog, err := probe.SetupLogging(logger.FormatText, *logFile)
	if err != nil {
		return err
	}
	defer func() { _ = closeLog() }()
	if *verbose {
		_ = logger.SetLevelString("debug")
	}

	stats, err := probe.Verify(ctx, probe.VerifyConfig{
		BaseURL:  *baseURL,
		Workers:  *workers,
		PageSize: *pageSize,
		Timeout:  *timeout,
		Verbose:  *verbose,
	})
	if err != nil {
		return fmt.Errorf("verify: %w", err)
	}
	if !stats.OK() {
		return fmt.Errorf("verify: %d ranking law violations across %d events", len(stats.Violations), stats.EventsChecked)
	}
	return nil
}
