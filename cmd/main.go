package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/ethereum/go-ethereum/log"
	"github.com/honeycombio/otel-config-go/otelconfig"
	"github.com/urfave/cli/v2"

	"github.com/runwatch/runwatch"
	"github.com/runwatch/runwatch/exitcodes"
	"github.com/runwatch/runwatch/flags"
	"github.com/runwatch/runwatch/service"
)

var (
	Version   = "v0.1.0"
	GitCommit = ""
	GitDate   = ""
)

func main() {
	app := cli.NewApp()
	app.Version = fmt.Sprintf("%s-%s-%s", Version, GitCommit, GitDate)
	app.Name = "runwatch"
	app.Usage = "Test Run Observer"
	app.Description = "runwatch observes a test runner's attempt stream and reduces it to verdicts, statistics and a summary artifact"
	app.Flags = flags.Flags
	app.Action = run
	app.ExitErrHandler = func(c *cli.Context, err error) {
		var exitErr cli.ExitCoder
		if errors.As(err, &exitErr) {
			cli.HandleExitCoder(exitErr)
		} else if err != nil {
			if runwatch.IsRuntimeError(err) {
				cli.HandleExitCoder(cli.Exit(err.Error(), exitcodes.RuntimeErr))
			} else if runwatch.IsTestFailureError(err) {
				cli.HandleExitCoder(cli.Exit(err.Error(), exitcodes.TestFailure))
			} else {
				cli.HandleExitCoder(cli.Exit(err.Error(), exitcodes.TestFailure))
			}
		}
	}

	// Start telemetry
	otelShutdown, err := otelconfig.ConfigureOpenTelemetry(
		otelconfig.WithServiceName(app.Name),
		otelconfig.WithServiceVersion(app.Version),
	)
	if err != nil {
		log.Crit("Failed to setup open telemetry", "message", err)
	}
	defer otelShutdown()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Start healthz and metrics servers
	svc := service.New()
	svc.Start(ctx)
	defer svc.Shutdown()

	if err := app.RunContext(ctx, os.Args); err != nil {
		log.Crit("Application failed", "message", err)
	}
}

func run(cliCtx *cli.Context) error {
	logger, err := newLogger(cliCtx)
	if err != nil {
		return runwatch.NewRuntimeError(err)
	}

	cfg, err := runwatch.NewConfig(cliCtx, logger)
	if err != nil {
		return runwatch.NewRuntimeError(fmt.Errorf("failed to create config: %w", err))
	}
	cfg.Log.Debug("Config", "config", cfg)

	ctx, cancel := context.WithCancelCause(cliCtx.Context)
	defer cancel(nil)

	watcher, err := runwatch.New(ctx, cfg, Version, func(err error) { cancel(err) })
	if err != nil {
		return runwatch.NewRuntimeError(fmt.Errorf("failed to create runwatch: %w", err))
	}

	if err := watcher.Start(ctx); err != nil {
		return err
	}
	if cfg.RunOnce {
		return nil
	}

	// Continuous mode: block until a signal or a shutdown request arrives.
	<-ctx.Done()
	return watcher.Stop(context.Background())
}

func newLogger(cliCtx *cli.Context) (log.Logger, error) {
	lvl, err := parseLogLevel(cliCtx.String(flags.LogLevel.Name))
	if err != nil {
		return nil, err
	}
	handler := log.NewTerminalHandlerWithLevel(os.Stderr, lvl, cliCtx.Bool(flags.LogColor.Name))
	logger := log.NewLogger(handler)
	log.SetDefault(logger)
	return logger, nil
}

// parseLogLevel maps the log.level flag value to a handler level.
func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return log.LevelTrace, nil
	case "debug":
		return log.LevelDebug, nil
	case "info":
		return log.LevelInfo, nil
	case "warn":
		return log.LevelWarn, nil
	case "error":
		return log.LevelError, nil
	case "crit":
		return log.LevelCrit, nil
	default:
		return log.LevelInfo, fmt.Errorf("invalid log level %q", s)
	}
}
