// Package main provides the entry point for the editor's file I/O helper.
// It validates the launch file argument, then serves streaming read and save
// commands to the editor host over stdio or a unix socket until the host
// hangs up or the process is signalled.
package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/isseis/go-wisty-fileio/internal/commands"
	"github.com/isseis/go-wisty-fileio/internal/config"
	"github.com/isseis/go-wisty-fileio/internal/hostipc"
	"github.com/isseis/go-wisty-fileio/internal/launch"
	"github.com/isseis/go-wisty-fileio/internal/logging"
	"github.com/isseis/go-wisty-fileio/internal/sizegate"
	"github.com/isseis/go-wisty-fileio/internal/stream"
	"github.com/isseis/go-wisty-fileio/internal/terminal"
)

const (
	exitOK      = 0
	exitFailure = 1
)

// stdio bundles the process streams so tests can substitute them.
type stdio struct {
	in  io.Reader
	out io.Writer
	err io.Writer
}

// environment holds the collaborators run builds the process from.
type environment struct {
	streams  stdio
	loader   *config.Loader
	detector func(terminal.DetectorOptions) terminal.InteractiveDetector
	runID    string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	env := environment{
		streams:  stdio{in: os.Stdin, out: os.Stdout, err: os.Stderr},
		loader:   config.NewLoader(),
		detector: terminal.NewInteractiveDetector,
		runID:    logging.GenerateRunID(),
	}
	code := run(ctx, os.Args[1:], env)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, env environment) int {
	cfg, cfgPath, err := env.loader.Load()
	if err != nil {
		logging.HandleStartupError(env.streams.err, &logging.StartupError{
			Type:      logging.ErrorTypeConfigLoad,
			Message:   "Failed to load configuration",
			Component: "config",
			RunID:     env.runID,
			Err:       err,
		})
		return exitFailure
	}

	logs, err := logging.Setup(logging.Options{
		Level:   cfg.Logging.Level,
		Dir:     cfg.Logging.Dir,
		RunID:   env.runID,
		Console: env.streams.err,
	})
	if err != nil {
		logging.HandleStartupError(env.streams.err, &logging.StartupError{
			Type:      logging.ErrorTypeLogSetup,
			Message:   "Failed to set up logging",
			Component: "logging",
			RunID:     env.runID,
			Err:       err,
		})
		return exitFailure
	}
	defer func() { _ = logs.Close() }()
	logger := logs.Logger

	logger.Debug("Configuration loaded",
		"config_path", cfgPath,
		"soft_limit", cfg.Limits.SoftLimitBytes,
		"hard_limit", cfg.Limits.HardLimitBytes,
		"listen", cfg.IPC.Listen,
		"log_file", logs.LogPath)

	detector := env.detector(terminal.DetectorOptions{
		ForceInteractive:    cfg.Terminal.ForceInteractive,
		ForceNonInteractive: cfg.Terminal.ForceNonInteractive,
	})
	prompter := &terminal.LinePrompter{In: env.streams.in, Out: env.streams.out}
	gate := sizegate.NewGate(cfg.Limits.SoftLimitBytes, cfg.Limits.HardLimitBytes, detector, prompter)

	pending, err := launch.NewValidator(nil, nil, gate).Validate(args)
	if err != nil {
		logging.HandleStartupError(env.streams.err, &logging.StartupError{
			Type:      logging.ErrorTypeLaunchArgument,
			Message:   "Launch file argument rejected",
			Component: "launch",
			RunID:     env.runID,
			Err:       err,
		})
		return exitFailure
	}
	if pending != nil {
		logger.Info("Launch file accepted", "path", pending.Path, "exists", pending.Exists)
	}

	manager := stream.NewManager(pending.ApprovedPath(), stream.WithLogger(logger))
	defer manager.Shutdown()

	dispatcher := commands.NewDispatcher(launch.NewSlot(pending), manager, logger)
	server := hostipc.NewServer(dispatcher, logger)

	if err := serve(ctx, server, cfg, env.streams, logger); err != nil {
		logging.HandleStartupError(env.streams.err, &logging.StartupError{
			Type:      logging.ErrorTypeHostChannel,
			Message:   "Host channel failed",
			Component: "hostipc",
			RunID:     env.runID,
			Err:       err,
		})
		return exitFailure
	}

	reads, writes := manager.ActiveSessions()
	logger.Info("Shutting down", "open_reads", reads, "open_writes", writes)
	return exitOK
}

// serve runs the host channel until the host disconnects or ctx ends.
// Cancellation is a normal shutdown, not an error.
func serve(ctx context.Context, server *hostipc.Server, cfg *config.Config, streams stdio, logger *slog.Logger) error {
	var err error
	if socket := cfg.IPC.UnixSocketPath(); socket != "" {
		ln, listenErr := hostipc.ListenUnix(socket)
		if listenErr != nil {
			return listenErr
		}
		defer func() { _ = os.Remove(socket) }()
		logger.Info("Serving host commands", "transport", "unix", "socket", socket)
		err = server.ServeListener(ctx, ln)
	} else {
		logger.Debug("Serving host commands", "transport", "stdio")
		err = server.Serve(ctx, streams.in, streams.out)
	}
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
