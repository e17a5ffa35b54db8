package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/thermasim/internal/config"
	"github.com/roach88/thermasim/internal/monitor"
	"github.com/roach88/thermasim/internal/sensor"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Seed  int64
	Ticks int

	// TokenGenerator allows overriding the session token generator (for testing).
	// If nil, defaults to UUIDv7Generator.
	TokenGenerator monitor.RunTokenGenerator
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <config.yaml>",
		Short: "Start the sensor monitor loop",
		Long: `Start the virtual sensor and the monitor loop around it.

The monitor simulates one reading per tick, validates it against the
operating range, checks the alert thresholds, detects anomalies against the
recent baseline, and records it into the bounded history. Fault injection
follows the schedule in the configuration file.

Example:
  thermasim run ./config.yaml
  thermasim run ./config.yaml --seed 42 --ticks 200 --verbose`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMonitor(opts, args[0], cmd)
		},
	}

	cmd.Flags().Int64Var(&opts.Seed, "seed", 0, "noise seed (0 = seed from current time)")
	cmd.Flags().IntVar(&opts.Ticks, "ticks", 0, "stop after this many ticks (0 = run until interrupted)")

	return cmd
}

func runMonitor(opts *RunOptions, configPath string, cmd *cobra.Command) error {
	// Configure logging based on verbose flag
	logLevel := slog.LevelInfo
	if opts.Verbose {
		logLevel = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	})
	log := slog.New(handler)
	slog.SetDefault(log)

	slog.Info("loading config", "path", configPath)
	cfg, err := config.Load(configPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load config", err)
	}

	var src sensor.NoiseSource
	if opts.Seed != 0 {
		src = sensor.NewSeededSource(opts.Seed)
	} else {
		src = sensor.NewTimeSource()
	}

	eng := sensor.New(src, sensor.WithLogger(log))
	if err := eng.Initialize(cfg.Name, cfg.Location, cfg.MinValue, cfg.MaxValue); err != nil {
		return WrapExitError(ExitCommandError, "failed to initialize sensor", err)
	}

	monOpts := []monitor.Option{monitor.WithLogger(log)}
	if opts.Ticks > 0 {
		monOpts = append(monOpts, monitor.WithMaxTicks(opts.Ticks))
	}
	if opts.TokenGenerator != nil {
		monOpts = append(monOpts, monitor.WithTokenGenerator(opts.TokenGenerator))
	}
	mon := monitor.New(eng, cfg, monOpts...)

	// Setup signal handling for graceful shutdown
	// Use command's context if available (for testing), otherwise create one
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan) // Prevent signal handler leak

	go func() {
		select {
		case sig := <-sigChan:
			slog.Info("received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
			// Parent context cancelled (e.g., from test)
		}
	}()

	fmt.Fprintln(cmd.OutOrStdout(), "Monitor started. Press Ctrl-C to stop.")

	err = mon.Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		return WrapExitError(ExitFailure, "monitor error", err)
	}

	stats := mon.Stats()
	fmt.Fprintf(cmd.OutOrStdout(), "Session complete: ticks=%d invalid=%d alerts=%d anomalies=%d\n",
		stats.Ticks, stats.Invalid, stats.Alerts, stats.Anomalies)

	slog.Info("monitor stopped gracefully")
	return nil
}
