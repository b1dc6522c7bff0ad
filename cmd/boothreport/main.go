// Listening Booth Dashboard - Event Aggregation and Reporting
// Copyright 2026 Marissa Lerer
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/marissalerer/listening-booth-dashboard

// Command boothreport runs the event pipeline once and prints or writes
// the report.
//
//	boothreport upcoming              console report of upcoming events
//	boothreport past                  console report of past events
//	boothreport summary               console report over every event
//	boothreport json [--out FILE]     events.json
//	boothreport csv  [--out FILE]     events.csv
//	boothreport html [--out FILE]     events.html
//
// Exit status is 0 on success and when no or an unknown subcommand is
// given (usage is printed), 1 on a configuration or upstream failure and 2
// when the output file cannot be written.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/alexflint/go-arg"
	"golang.org/x/term"

	"github.com/marissalerer/listening-booth-dashboard/internal/config"
	"github.com/marissalerer/listening-booth-dashboard/internal/logging"
	"github.com/marissalerer/listening-booth-dashboard/internal/models"
	"github.com/marissalerer/listening-booth-dashboard/internal/presenter"
	"github.com/marissalerer/listening-booth-dashboard/internal/report"
)

const (
	exitOK          = 0
	exitFailure     = 1
	exitWriteFailed = 2
)

type consoleCmd struct{}

type fileCmd struct {
	Out  string `arg:"-o,--out" help:"output file"`
	Mode string `arg:"-m,--mode" help:"upcoming, past or all (default from config)"`
}

type cliArgs struct {
	Config  string `arg:"-c,--config" help:"path to a YAML config file (overrides CONFIG_PATH)"`
	NoColor bool   `arg:"--no-color" help:"disable ANSI colour in console output"`

	Upcoming *consoleCmd `arg:"subcommand:upcoming" help:"print upcoming events"`
	Past     *consoleCmd `arg:"subcommand:past" help:"print past events"`
	Summary  *consoleCmd `arg:"subcommand:summary" help:"print a report over every event"`
	JSON     *fileCmd    `arg:"subcommand:json" help:"write the report as JSON"`
	CSV      *fileCmd    `arg:"subcommand:csv" help:"write the events as CSV"`
	HTML     *fileCmd    `arg:"subcommand:html" help:"write a static HTML report"`
}

func (cliArgs) Description() string {
	return "boothreport fetches events from the event-management API and reports on them.\n"
}

// Runner builds one report. *report.Pipeline satisfies it.
type Runner interface {
	Run(ctx context.Context, mode models.ReportMode, trigger report.Trigger) (*models.Report, error)
}

// env gathers the process dependencies so tests can replace them.
type env struct {
	stdout    io.Writer
	stderr    io.Writer
	load      func() (*config.Config, error)
	newRunner func(cfg *config.Config) (Runner, error)
	terminal  func(w io.Writer) bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], env{
		stdout: os.Stdout,
		stderr: os.Stderr,
		load:   config.Load,
		newRunner: func(cfg *config.Config) (Runner, error) {
			return report.New(cfg)
		},
		terminal: isTerminal,
	})
	stop()
	os.Exit(code)
}

// job is one resolved subcommand.
type job struct {
	mode      models.ReportMode
	presenter presenter.Presenter
	out       string
}

func run(ctx context.Context, argv []string, e env) int {
	var args cliArgs
	p, err := arg.NewParser(arg.Config{Program: "boothreport"}, &args)
	if err != nil {
		fmt.Fprintf(e.stderr, "boothreport: %v\n", err)
		return exitFailure
	}

	switch err := p.Parse(argv); {
	case errors.Is(err, arg.ErrHelp):
		p.WriteHelp(e.stdout)
		return exitOK
	case err != nil:
		fmt.Fprintf(e.stderr, "boothreport: %v\n", err)
		p.WriteUsage(e.stderr)
		return exitOK
	case p.Subcommand() == nil:
		p.WriteHelp(e.stdout)
		return exitOK
	}

	if args.Config != "" {
		if err := os.Setenv("CONFIG_PATH", args.Config); err != nil {
			fmt.Fprintf(e.stderr, "boothreport: %v\n", err)
			return exitFailure
		}
	}

	cfg, err := e.load()
	if err != nil {
		fmt.Fprintf(e.stderr, "boothreport: configuration error: %v\n", err)
		return exitFailure
	}
	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: "console",
		Caller: cfg.Logging.Caller,
		Output: e.stderr,
	})

	j, err := resolve(&args, cfg, !args.NoColor && e.terminal(e.stdout))
	if err != nil {
		fmt.Fprintf(e.stderr, "boothreport: %v\n", err)
		return exitFailure
	}

	runner, err := e.newRunner(cfg)
	if err != nil {
		fmt.Fprintf(e.stderr, "boothreport: configuration error: %v\n", err)
		return exitFailure
	}

	rep, err := runner.Run(ctx, j.mode, report.TriggerCLI)
	if err != nil {
		fmt.Fprintf(e.stderr, "boothreport: %v\n", err)
		return exitFailure
	}

	if j.out == "" {
		if err := j.presenter.Render(e.stdout, rep); err != nil {
			fmt.Fprintf(e.stderr, "boothreport: %v\n", err)
			return exitWriteFailed
		}
		return exitOK
	}

	if err := writeFile(j.out, j.presenter, rep); err != nil {
		fmt.Fprintf(e.stderr, "boothreport: %v\n", err)
		return exitWriteFailed
	}
	fmt.Fprintf(e.stdout, "Wrote %d events to %s\n", len(rep.Events), j.out)
	return exitOK
}

func resolve(args *cliArgs, cfg *config.Config, color bool) (job, error) {
	console := &presenter.Console{Color: color}
	switch {
	case args.Upcoming != nil:
		return job{mode: models.ModeUpcoming, presenter: console}, nil
	case args.Past != nil:
		return job{mode: models.ModePast, presenter: console}, nil
	case args.Summary != nil:
		return job{mode: models.ModeAll, presenter: console}, nil
	case args.JSON != nil:
		return fileJob(args.JSON, cfg, presenter.JSON{}, "events.json")
	case args.CSV != nil:
		return fileJob(args.CSV, cfg, presenter.CSV{}, "events.csv")
	case args.HTML != nil:
		return fileJob(args.HTML, cfg, &presenter.HTML{}, "events.html")
	}
	return job{}, errors.New("no subcommand")
}

func fileJob(cmd *fileCmd, cfg *config.Config, p presenter.Presenter, defaultOut string) (job, error) {
	raw := cmd.Mode
	if raw == "" {
		raw = cfg.Report.Mode
	}
	mode, ok := models.ParseReportMode(raw)
	if !ok {
		return job{}, fmt.Errorf("invalid mode %q (want upcoming, past or all)", raw)
	}
	out := cmd.Out
	if out == "" {
		out = defaultOut
	}
	return job{mode: mode, presenter: p, out: out}, nil
}

// writeFile renders to a temporary file next to path and renames it over
// path, so a failed render never truncates an existing export.
func writeFile(path string, p presenter.Presenter, rep *models.Report) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := p.Render(f, rep); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
