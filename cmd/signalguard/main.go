package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ghalamif/SignalGuard"
)

const (
	exitOK         = 0
	exitFailure    = 1
	exitSinkFailed = 2
	exitSignalFail = 3
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := runCLI(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func runCLI(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) < 1 {
		printUsage(stderr)
		return exitFailure
	}

	cmd := args[0]
	var (
		code int
		err  error
	)

	switch cmd {
	case "run":
		code, err = runCommand(ctx, args[1:], stdout, stderr)
	case "validate":
		err = validateCommand(ctx, args[1:], stdout, stderr)
	case "convert":
		err = convertCommand(ctx, args[1:], stdout, stderr)
	case "fetch":
		err = fetchCommand(ctx, args[1:], stdout, stderr)
	case "report":
		err = reportCommand(ctx, args[1:], stdout, stderr)
	case "help", "-h", "--help":
		printUsage(stdout)
		return exitOK
	default:
		printUsage(stderr)
		err = fmt.Errorf("unknown command %q", cmd)
	}

	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		fmt.Fprintf(stderr, "signalguard %s: %v\n", cmd, err)
		if code == exitOK {
			code = exitFailure
		}
	}
	return code
}

// loadConfig reads path when set, otherwise starts from defaults.
func loadConfig(path string) (*signalguard.Config, error) {
	if path == "" {
		return signalguard.DefaultConfig(), nil
	}
	cfg, err := signalguard.LoadConfig(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func runCommand(ctx context.Context, args []string, stdout, stderr io.Writer) (int, error) {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	fs.SetOutput(stderr)
	cfgPath := fs.String("config", "", "Path to configuration file")
	rulesPath := fs.String("rules", "", "Rule file (.csv or .yaml)")
	logPath := fs.String("log", "", "Sample log (.csv or .cap)")
	selectExpr := fs.String("select", "", "CEL expression choosing which rules to monitor")
	strict := fs.Bool("strict", false, "Exit with status 3 when any signal fails")
	verbose := fs.Bool("verbose", false, "Print failure timestamps and a run summary")
	runID := fs.String("run-id", "", "Run identifier (default: random UUID)")
	if err := fs.Parse(args); err != nil {
		return exitFailure, err
	}

	cfg, err := loadConfig(*cfgPath)
	if err != nil {
		return exitFailure, err
	}
	if *rulesPath != "" {
		cfg.Rules.Path = *rulesPath
	}
	if *logPath != "" {
		cfg.Samples.Path = *logPath
	}
	if *selectExpr != "" {
		cfg.Select = *selectExpr
	}
	cfg.Strict = cfg.Strict || *strict
	cfg.Report.Text.Verbose = cfg.Report.Text.Verbose || *verbose
	if err := cfg.Finalize(); err != nil {
		return exitFailure, err
	}

	rt, err := signalguard.NewRuntime(cfg,
		signalguard.WithOutput(stdout),
		signalguard.WithLogOutput(stderr),
		signalguard.WithRunID(*runID),
	)
	if err != nil {
		return exitFailure, err
	}
	defer rt.Close()

	report, err := rt.Run(ctx)
	if report == nil {
		return exitFailure, err
	}
	if err != nil {
		return exitSinkFailed, err
	}
	if cfg.Strict && !report.Passed() {
		return exitSignalFail, nil
	}
	return exitOK, nil
}

func validateCommand(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("validate", flag.ContinueOnError)
	fs.SetOutput(stderr)
	cfgPath := fs.String("config", "", "Path to configuration file to validate")
	rulesPath := fs.String("rules", "", "Rule file (.csv or .yaml)")
	selectExpr := fs.String("select", "", "CEL expression choosing which rules to monitor")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadConfig(*cfgPath)
	if err != nil {
		return err
	}
	if *rulesPath != "" {
		cfg.Rules.Path = *rulesPath
	}
	if *selectExpr != "" {
		cfg.Select = *selectExpr
	}
	if err := cfg.ValidateRulesOnly(); err != nil {
		return err
	}

	rt, err := signalguard.NewRuntime(cfg, signalguard.WithLogOutput(stderr), signalguard.WithOutput(io.Discard))
	if err != nil {
		return err
	}
	defer rt.Close()

	set, err := rt.LoadRules(ctx)
	if err != nil {
		return err
	}
	for _, r := range set.Rules() {
		fmt.Fprintf(stdout, "%s\t[%g, %g]\tdelay=%d\n", r.Signal, r.Min, r.Max, r.Delay)
	}
	fmt.Fprintf(stdout, "rules %s look good: %d signals\n", cfg.Rules.Path, set.Len())
	return nil
}

func convertCommand(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("convert", flag.ContinueOnError)
	fs.SetOutput(stderr)
	cfgPath := fs.String("config", "", "Path to configuration file (column layout, delimiter)")
	logPath := fs.String("log", "", "Delimited sample log to convert")
	outPath := fs.String("out", "", "Capture file to write")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *outPath == "" {
		return errors.New("-out is required")
	}

	cfg, err := loadConfig(*cfgPath)
	if err != nil {
		return err
	}
	if *logPath != "" {
		cfg.Samples.Path = *logPath
	}
	if cfg.Samples.Path == "" {
		return errors.New("-log is required")
	}
	return export(ctx, cfg, *outPath, stdout, stderr)
}

func fetchCommand(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("fetch", flag.ContinueOnError)
	fs.SetOutput(stderr)
	cfgPath := fs.String("config", "", "Path to configuration file with an opcua section")
	outPath := fs.String("out", "", "Capture file to write")
	lookback := fs.Duration("lookback", 0, "Read this much history up to now (overrides opcua.start/end)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *cfgPath == "" || *outPath == "" {
		return errors.New("-config and -out are required")
	}

	cfg, err := loadConfig(*cfgPath)
	if err != nil {
		return err
	}
	if cfg.OPCUA == nil {
		return fmt.Errorf("%s has no opcua section", *cfgPath)
	}
	if *lookback > 0 {
		cfg.OPCUA.Start, cfg.OPCUA.End = time.Time{}, time.Time{}
		cfg.OPCUA.Lookback = *lookback
	}
	cfg.Samples.Format = signalguard.FormatOPCUA
	return export(ctx, cfg, *outPath, stdout, stderr)
}

func export(ctx context.Context, cfg *signalguard.Config, out string, stdout, stderr io.Writer) error {
	// Export never reads rules.
	cfg.Rules.Path = ""
	rt, err := signalguard.NewRuntime(cfg, signalguard.WithLogOutput(stderr), signalguard.WithOutput(io.Discard))
	if err != nil {
		return err
	}
	defer rt.Close()

	n, err := rt.Export(ctx, out)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "wrote %d samples to %s\n", n, out)
	return nil
}

func reportCommand(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("report", flag.ContinueOnError)
	fs.SetOutput(stderr)
	dbPath := fs.String("db", "", "SQLite report archive (report.sqlite.path)")
	runID := fs.String("run-id", "", "Run to print")
	verbose := fs.Bool("verbose", false, "Print failure timestamps and a run summary")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *dbPath == "" || *runID == "" {
		return errors.New("-db and -run-id are required")
	}

	report, err := signalguard.LoadArchivedReport(ctx, *dbPath, *runID)
	if err != nil {
		return err
	}
	return signalguard.PrintReport(stdout, report, *verbose)
}

func printUsage(w io.Writer) {
	fmt.Fprint(w, `SignalGuard CLI

Usage:
  signalguard <command> [flags]

Commands:
  run        Validate a sample log against signal rules and print PASS/FAIL per signal
  validate   Load the rule file (and config) without reading samples
  convert    Re-encode a delimited sample log as a capture file
  fetch      Read OPC UA history into a capture file
  report     Print a run stored in the SQLite report archive

Exit status (run):
  0 run completed, 1 configuration or load error, 2 a report sink failed,
  3 a signal failed and -strict is set

Examples:
  signalguard run -rules signals.csv -log log.csv
  signalguard run -config ./data/config.yaml -select 'delay > 0' -strict
  signalguard validate -rules signals.yaml
  signalguard convert -log log.csv -out log.cap
  signalguard fetch -config ./data/config.yaml -out history.cap -lookback 30m
  signalguard report -db ./data/reports.db -run-id 6f1c... -verbose
`)
}
