// Package app dispatches parsed CLI commands and owns process exit codes.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/rbright/capsync/internal/cli"
	"github.com/rbright/capsync/internal/config"
	"github.com/rbright/capsync/internal/doctor"
	"github.com/rbright/capsync/internal/indicator"
	"github.com/rbright/capsync/internal/ipc"
	"github.com/rbright/capsync/internal/logging"
	"github.com/rbright/capsync/internal/relayserver"
	"github.com/rbright/capsync/internal/version"
)

// Runner executes one CLI invocation.
type Runner struct {
	Stdout io.Writer
	Stderr io.Writer
	// Logger replaces the file-backed logger when set.
	Logger *slog.Logger
	// Indicator replaces the platform adapter constructor when set.
	Indicator func(config.IndicatorConfig) (indicator.Adapter, error)
}

// Execute runs one invocation with the default runner and returns its exit code.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	r := Runner{Stdout: stdout, Stderr: stderr}
	return r.Execute(ctx, args)
}

// Execute parses args, dispatches the command and returns 0, 1 for a runtime
// failure or 2 for a usage error.
func (r Runner) Execute(ctx context.Context, args []string) int {
	parsed, err := cli.Parse(args)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n\n", err)
		fmt.Fprint(r.Stderr, cli.HelpText("capsync"))
		return 2
	}

	switch parsed.Command {
	case cli.CommandHelp:
		fmt.Fprint(r.Stdout, cli.HelpText("capsync"))
		return 0
	case cli.CommandVersion:
		fmt.Fprintln(r.Stdout, version.String())
		return 0
	case cli.CommandStatus:
		return r.commandStatus(ctx)
	}

	cfgLoaded, err := config.Load(parsed.ConfigPath)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	for _, w := range cfgLoaded.Warnings {
		fmt.Fprintf(r.Stderr, "warning: %s\n", formatWarning(w))
	}

	logRuntime, err := r.setupLogging(parsed, cfgLoaded.Config)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: setup logging: %v\n", err)
		return 1
	}
	defer func() { _ = logRuntime.Close() }()
	logger := logRuntime.Logger

	for _, w := range cfgLoaded.Warnings {
		logger.Warn("config warning", "line", w.Line, "message", w.Message)
	}
	logger.Info("command start",
		"command", parsed.Command,
		"config", cfgLoaded.Path,
		"log", logRuntime.Path,
	)

	switch parsed.Command {
	case cli.CommandRun:
		return r.commandRun(ctx, cfgLoaded, logRuntime)
	case cli.CommandDoctor:
		report := doctor.Run(ctx, cfgLoaded)
		fmt.Fprintln(r.Stdout, report.String())
		if report.OK() {
			return 0
		}
		return 1
	case cli.CommandRelay:
		return r.commandRelay(ctx, parsed.Relay, logger)
	default:
		fmt.Fprintf(r.Stderr, "error: unsupported command %q\n", parsed.Command)
		return 2
	}
}

// setupLogging mirrors records to stderr only for long-running commands.
func (r Runner) setupLogging(parsed cli.Parsed, cfg config.Config) (logging.Runtime, error) {
	level := cfg.Log.Level
	if parsed.Verbose {
		level = "debug"
	}

	opts := logging.Options{Level: level}
	longRunning := parsed.Command == cli.CommandRun || parsed.Command == cli.CommandRelay
	if longRunning && (parsed.Console || cfg.Log.Console) {
		opts.Console = r.Stderr
	}

	rt, err := logging.New(opts)
	if err != nil {
		return logging.Runtime{}, err
	}
	if r.Logger != nil {
		rt.Logger = r.Logger
	}
	return rt, nil
}

func formatWarning(w config.Warning) string {
	if w.Line > 0 {
		return fmt.Sprintf("line %d: %s", w.Line, w.Message)
	}
	return w.Message
}

func (r Runner) commandStatus(ctx context.Context) int {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	resp, handled, err := tryForward(ctx, socketPath, ipc.CommandStatus)
	if !handled {
		fmt.Fprintln(r.Stdout, "not running")
		return 0
	}
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	if resp.Message != "" {
		fmt.Fprintln(r.Stdout, resp.Message)
	} else {
		fmt.Fprintln(r.Stdout, resp.State)
	}
	return 0
}

func (r Runner) commandRelay(ctx context.Context, opts cli.RelayOptions, logger *slog.Logger) int {
	err := relayserver.Run(ctx, relayserver.Options{
		Listen:     opts.Listen,
		GRPCListen: opts.GRPCListen,
		Echo:       !opts.NoEcho,
		Logger:     logger,
		Ready: func(addr string) {
			fmt.Fprintf(r.Stdout, "relay listening on ws://%s/ws\n", addr)
		},
	})
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	return 0
}

// tryForward reports handled=false when no daemon listens on socketPath.
func tryForward(ctx context.Context, socketPath string, command string) (ipc.Response, bool, error) {
	resp, err := ipc.Send(ctx, socketPath, ipc.Request{Command: command}, 500*time.Millisecond)
	if err == nil {
		if resp.OK {
			return resp, true, nil
		}
		return resp, true, errors.New(resp.Error)
	}
	if ipc.IsNotRunning(err) {
		return ipc.Response{}, false, nil
	}
	return ipc.Response{}, true, fmt.Errorf("forward command %q: %w", command, err)
}
