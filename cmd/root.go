// Package cmd implements the CLI command structure for tasklist.
package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/nibzard/tasklist-go/internal/api"
	"github.com/nibzard/tasklist-go/internal/config"
	"github.com/nibzard/tasklist-go/internal/form"
	"github.com/nibzard/tasklist-go/internal/logging"
	"github.com/nibzard/tasklist-go/internal/store"
	"github.com/nibzard/tasklist-go/internal/task"
	"github.com/nibzard/tasklist-go/internal/ui"
)

// Version is set via ldflags at build time.
var Version = "dev"

// Run executes the tasklist CLI.
func Run(ctx context.Context, args []string) error {
	return run(ctx, args, os.Stdout, os.Stderr)
}

// env carries what every subcommand needs.
type env struct {
	cfg    *config.ConfigWithSources
	stdout io.Writer
	stderr io.Writer
	logger *log.Logger
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	// Create a flag set for global options
	fs := flag.NewFlagSet("tasklist", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		printUsage(fs, stderr)
	}
	help := fs.Bool("help", false, "Show help")
	fs.BoolVar(help, "h", false, "Show help")
	showVersion := fs.Bool("version", false, "Show version")
	fs.BoolVar(showVersion, "v", false, "Show version")

	// Global flags
	cws, err := config.LoadWithSources(fs, args)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return fmt.Errorf("loading config: %w", err)
	}
	if *help {
		printUsage(fs, stdout)
		return nil
	}
	if *showVersion {
		return versionCommand(stdout)
	}

	cfg := cws.Config
	e := &env{
		cfg:    cws,
		stdout: stdout,
		stderr: stderr,
		logger: logging.NewLoggerFromConfig(stderr, cfg.LogLevel, cfg.LogFormat, cfg.LogTimestamps, cfg.LogCaller),
	}
	if len(cws.Unknown) > 0 {
		e.logger.Warn("unknown config keys ignored", "keys", strings.Join(cws.Unknown, ","), "file", cws.GetConfigFile())
	}

	// Determine the subcommand; the TUI is the default
	subcommand := "tui"
	remainingArgs := fs.Args()
	if len(remainingArgs) > 0 && !strings.HasPrefix(remainingArgs[0], "-") {
		subcommand = remainingArgs[0]
		remainingArgs = remainingArgs[1:]
	}

	var cmdErr error
	switch subcommand {
	case "tui":
		cmdErr = tuiCommand(ctx, e, remainingArgs)
	case "ls", "list":
		cmdErr = lsCommand(ctx, e, remainingArgs)
	case "add":
		cmdErr = addCommand(ctx, e, remainingArgs)
	case "tail":
		cmdErr = tailCommand(ctx, e, remainingArgs)
	case "config":
		cmdErr = configCommand(e, remainingArgs)
	case "version":
		return versionCommand(stdout)
	case "help":
		printUsage(fs, stdout)
		return nil
	default:
		fmt.Fprintf(stderr, "Unknown command: %s\n", subcommand)
		printUsage(fs, stderr)
		return fmt.Errorf("unknown command: %s", subcommand)
	}
	if errors.Is(cmdErr, flag.ErrHelp) {
		return nil
	}
	return cmdErr
}

// backend builds the API client and, when metrics_addr is set, a metrics
// server for it. The returned stop func is always safe to call.
func (e *env) backend(logger *log.Logger) (*api.Client, func(), error) {
	cfg := e.cfg.Config
	reg := prometheus.NewRegistry()

	client, err := api.New(cfg.BaseURL,
		api.WithTimeout(cfg.RequestTimeout()),
		api.WithStrictResponses(cfg.StrictResponses),
		api.WithLogger(logger),
		api.WithRegisterer(reg),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("creating client: %w", err)
	}

	if cfg.MetricsAddr == "" {
		return client, func() {}, nil
	}
	srv, err := startMetricsServer(cfg.MetricsAddr, reg, logger)
	if err != nil {
		return nil, nil, err
	}
	return client, srv.Stop, nil
}

// tuiCommand launches the interactive UI. Logs go to a per-run file since
// the UI owns the terminal.
func tuiCommand(ctx context.Context, e *env, args []string) error {
	fs := flag.NewFlagSet("tasklist tui", flag.ContinueOnError)
	fs.SetOutput(e.stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("unexpected arguments: %v", fs.Args())
	}

	cfg := e.cfg.Config
	runLog, err := logging.NewRunLogger(cfg.LogDir, cfg.ProjectRoot)
	if err != nil {
		return fmt.Errorf("opening run log: %w", err)
	}
	defer runLog.Close()
	logger := logging.NewLoggerFromConfig(runLog.Writer(), cfg.LogLevel, cfg.LogFormat, true, cfg.LogCaller)
	logger.Info("tui started", "base_url", cfg.BaseURL, "run_id", runLog.RunID)

	client, stop, err := e.backend(logger)
	if err != nil {
		return err
	}
	defer stop()

	list := store.New(client, logger)
	controller := form.New(client, list, logger)
	return ui.Run(ctx, ui.Deps{
		Store:   list,
		Form:    controller,
		Logger:  logger,
		BaseURL: client.BaseURL(),
	})
}

// lsCommand loads the list once and prints it.
func lsCommand(ctx context.Context, e *env, args []string) error {
	fs := flag.NewFlagSet("tasklist ls", flag.ContinueOnError)
	fs.SetOutput(e.stderr)
	asJSON := fs.Bool("json", false, "Print the tasks as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("unexpected arguments: %v", fs.Args())
	}

	client, stop, err := e.backend(e.logger)
	if err != nil {
		return err
	}
	defer stop()

	list := store.New(client, e.logger)
	if err := list.Load(ctx); err != nil {
		return err
	}

	items := list.Items()
	if *asJSON {
		enc := json.NewEncoder(e.stdout)
		enc.SetIndent("", "  ")
		if items == nil {
			items = []task.Task{}
		}
		return enc.Encode(items)
	}
	printTasks(e.stdout, items)
	return nil
}

// printTasks writes one numbered block per task, in list order.
func printTasks(w io.Writer, items []task.Task) {
	if len(items) == 0 {
		fmt.Fprintln(w, "No tasks yet.")
		return
	}
	for i, t := range items {
		fmt.Fprintf(w, "%d. %s\n", i+1, t.Title)
		if t.Description != "" {
			fmt.Fprintf(w, "   %s\n", t.Description)
		}
		if span := ui.DateSpan(t); span != "" {
			fmt.Fprintf(w, "   %s\n", span)
		}
	}
}

// addCommand fills a draft from flags and submits it once.
func addCommand(ctx context.Context, e *env, args []string) error {
	fs := flag.NewFlagSet("tasklist add", flag.ContinueOnError)
	fs.SetOutput(e.stderr)
	title := fs.String("title", "", "Task title")
	description := fs.String("description", "", "Task description")
	start := fs.String("start", "", "Starting date (YYYY-MM-DD)")
	end := fs.String("end", "", "Ending date (YYYY-MM-DD)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("unexpected arguments: %v", fs.Args())
	}

	client, stop, err := e.backend(e.logger)
	if err != nil {
		return err
	}
	defer stop()

	list := store.New(client, e.logger)
	controller := form.New(client, list, e.logger)
	values := []struct {
		field string
		value string
	}{
		{task.FieldTitle, *title},
		{task.FieldDescription, *description},
		{task.FieldStartingDate, *start},
		{task.FieldEndingDate, *end},
	}
	for _, v := range values {
		if err := controller.SetField(v.field, v.value); err != nil {
			return err
		}
	}

	if err := controller.Submit(ctx); err != nil {
		if errors.Is(err, form.ErrFieldsRequired) {
			fmt.Fprintln(e.stderr, controller.ValidationMessage())
			for _, hint := range controller.Draft().Hints() {
				fmt.Fprintf(e.stderr, "  - %s\n", hint)
			}
		}
		return err
	}

	items := list.Items()
	created := items[len(items)-1]
	if id := created.ID(); id != "" {
		fmt.Fprintf(e.stdout, "Created task %s\n", id)
	} else {
		fmt.Fprintln(e.stdout, "Created task")
	}
	printTasks(e.stdout, []task.Task{created})
	return nil
}

// tailCommand shows the latest TUI run log.
func tailCommand(ctx context.Context, e *env, args []string) error {
	fs := flag.NewFlagSet("tasklist tail", flag.ContinueOnError)
	fs.SetOutput(e.stderr)
	follow := fs.Bool("f", false, "Follow the log (like tail -f)")
	fs.BoolVar(follow, "follow", false, "Follow the log (like tail -f)")
	n := fs.Int("n", 0, "Number of lines to show (0 = all)")
	list := fs.Bool("list", false, "List run logs instead of tailing the latest")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg := e.cfg.Config
	logDir, err := logging.FindLogDir(cfg.LogDir, cfg.ProjectRoot)
	if err != nil {
		return fmt.Errorf("finding log directory: %w", err)
	}

	if *list {
		runs, err := logging.FindLogRuns(logDir)
		if err != nil {
			return fmt.Errorf("listing logs: %w", err)
		}
		if len(runs) == 0 {
			fmt.Fprintln(e.stdout, "No log files found.")
			return nil
		}
		for _, r := range runs {
			fmt.Fprintf(e.stdout, "%s  %s  %d bytes\n", r.RunID, r.ModTime.Format("2006-01-02 15:04:05"), r.Size)
		}
		return nil
	}

	logPath, err := logging.FindLatestLog(logDir)
	if err != nil {
		return fmt.Errorf("finding latest log: %w", err)
	}
	if logPath == "" {
		fmt.Fprintln(e.stdout, "No log files found.")
		return nil
	}

	fmt.Fprintf(e.stdout, "Tailing: %s\n", logPath)
	if *follow {
		fmt.Fprintln(e.stdout, "(Ctrl+C to stop)")
	}
	return logging.TailLog(ctx, e.stdout, logPath, *n, *follow)
}

// configCommand prints the effective configuration and where each value
// came from, or an example file.
func configCommand(e *env, args []string) error {
	fs := flag.NewFlagSet("tasklist config", flag.ContinueOnError)
	fs.SetOutput(e.stderr)
	example := fs.Bool("example", false, "Print an example config file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *example {
		fmt.Fprint(e.stdout, config.ExampleConfig())
		return nil
	}

	if len(e.cfg.Files) == 0 {
		fmt.Fprintln(e.stdout, "Config files: none")
	} else {
		fmt.Fprintf(e.stdout, "Config files: %s\n", strings.Join(e.cfg.Files, ", "))
	}
	fmt.Fprintln(e.stdout)
	for _, entry := range e.cfg.Entries() {
		value := entry.Value
		if value == "" {
			value = `""`
		}
		fmt.Fprintf(e.stdout, "%-24s %-32s (%s)\n", entry.Key, value, entry.Source)
	}
	return nil
}

func versionCommand(w io.Writer) error {
	fmt.Fprintf(w, "tasklist version %s\n", Version)
	return nil
}

// printUsage prints the usage message.
func printUsage(fs *flag.FlagSet, w io.Writer) {
	fmt.Fprintln(w, "tasklist - A terminal client for a task list backend")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  tasklist [options] [command]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  tui           Launch the terminal UI (default command)")
	fmt.Fprintln(w, "  ls            Print the task list")
	fmt.Fprintln(w, "  add           Create a task")
	fmt.Fprintln(w, "  tail          Tail the latest UI log file")
	fmt.Fprintln(w, "  config        Show the effective configuration")
	fmt.Fprintln(w, "  version       Show version information")
	fmt.Fprintln(w, "  help          Show this help message")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Global Options:")
	fs.SetOutput(w)
	fs.PrintDefaults()
	fmt.Fprintln(w)
	fmt.Fprintln(w, "ls Options:")
	fmt.Fprintln(w, "  -json")
	fmt.Fprintln(w, "        Print the tasks as JSON")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "add Options (all required):")
	fmt.Fprintln(w, "  -title string")
	fmt.Fprintln(w, "  -description string")
	fmt.Fprintln(w, "  -start YYYY-MM-DD")
	fmt.Fprintln(w, "  -end YYYY-MM-DD")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "tail Options:")
	fmt.Fprintln(w, "  -f, -follow   Follow the log")
	fmt.Fprintln(w, "  -n int        Number of lines to show (0 = all)")
	fmt.Fprintln(w, "  -list         List run logs")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "config Options:")
	fmt.Fprintln(w, "  -example      Print an example config file")
}
