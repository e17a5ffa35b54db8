package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/thermasim/internal/config"
	"github.com/roach88/thermasim/internal/monitor"
	"github.com/roach88/thermasim/internal/sensor"
)

// SampleOptions holds flags for the sample command.
type SampleOptions struct {
	*RootOptions
	Seed  int64
	Ticks int
}

// SampleResult is the payload emitted by the sample command.
type SampleResult struct {
	Sensor string               `json:"sensor"`
	Ticks  []monitor.TickResult `json:"ticks"`
	Stats  monitor.Stats        `json:"stats"`
}

// NewSampleCommand creates the sample command.
func NewSampleCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SampleOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "sample <config.yaml>",
		Short: "Run a bounded deterministic session and print the readings",
		Long: `Run the monitor for a fixed number of ticks without wall-clock pacing
and print every tick's reading and verdicts.

With --seed the session is fully reproducible, which makes this command
useful for inspecting how a configuration behaves before running it live.

Example:
  thermasim sample ./config.yaml --ticks 20 --seed 42
  thermasim sample ./config.yaml --ticks 20 --seed 42 --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSample(opts, args[0], cmd)
		},
	}

	cmd.Flags().Int64Var(&opts.Seed, "seed", 0, "noise seed (0 = seed from current time)")
	cmd.Flags().IntVar(&opts.Ticks, "ticks", 20, "number of ticks to sample")

	return cmd
}

func runSample(opts *SampleOptions, configPath string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}

	if opts.Ticks <= 0 {
		return NewExitError(ExitCommandError, "--ticks must be positive")
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load config", err)
	}
	formatter.VerboseLog("Loaded config for sensor %q (%s)", cfg.Name, cfg.Location)

	var src sensor.NoiseSource
	if opts.Seed != 0 {
		src = sensor.NewSeededSource(opts.Seed)
	} else {
		src = sensor.NewTimeSource()
	}

	// Per-tick logging is noise here; the command's own output is the result.
	quiet := slog.New(slog.DiscardHandler)

	eng := sensor.New(src, sensor.WithLogger(quiet))
	if err := eng.Initialize(cfg.Name, cfg.Location, cfg.MinValue, cfg.MaxValue); err != nil {
		return WrapExitError(ExitCommandError, "failed to initialize sensor", err)
	}

	result := SampleResult{Sensor: cfg.Name}
	mon := monitor.New(eng, cfg,
		monitor.WithLogger(quiet),
		monitor.WithObserver(func(tr monitor.TickResult) {
			result.Ticks = append(result.Ticks, tr)
		}),
	)

	if err := mon.RunTicks(context.Background(), opts.Ticks); err != nil {
		return WrapExitError(ExitFailure, "sample session failed", err)
	}
	result.Stats = mon.Stats()

	if opts.Format == "json" {
		if err := formatter.Success(result); err != nil {
			return WrapExitError(ExitFailure, "failed to encode output", err)
		}
		return nil
	}

	// Human-readable table
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "sensor %s (%s), range [%.2f, %.2f], thresholds [%.2f, %.2f]\n",
		cfg.Name, cfg.Location, cfg.MinValue, cfg.MaxValue, cfg.MinThreshold, cfg.MaxThreshold)
	fmt.Fprintf(w, "%5s  %8s  %-5s  %-5s  %-7s  %8s\n", "tick", "value", "valid", "alert", "anomaly", "smoothed")
	for _, tr := range result.Ticks {
		fmt.Fprintf(w, "%5d  %8.2f  %-5t  %-5t  %-7t  %8.2f\n",
			tr.Tick, tr.Value, tr.Valid, tr.Alert, tr.Anomaly, tr.Smoothed)
	}
	fmt.Fprintf(w, "ticks=%d invalid=%d alerts=%d anomalies=%d\n",
		result.Stats.Ticks, result.Stats.Invalid, result.Stats.Alerts, result.Stats.Anomalies)

	return nil
}
