package cli

import (
	"bytes"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/roach88/thermasim/internal/config"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid  bool                `json:"valid"`
	Errors []config.FieldError `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <config.yaml>",
		Short: "Validate a configuration file without running",
		Long: `Validate a sensor configuration file without starting the monitor.

Checks YAML syntax (rejecting unknown fields), required identity fields,
range ordering, and threshold ordering. Reports every problem found, not
just the first.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, configPath string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		_ = formatter.Error("E001", fmt.Sprintf("cannot read config: %v", err), nil)
		return NewExitError(ExitCommandError, "cannot read config")
	}

	// Decode directly (not config.Parse) so field checks run even when the
	// file is structurally valid but semantically wrong.
	var cfg config.Config
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		_ = formatter.Error("E002", fmt.Sprintf("malformed YAML: %v", err), nil)
		return NewExitError(ExitFailure, "malformed YAML")
	}

	formatter.VerboseLog("Parsed config for sensor %q", cfg.Name)

	fieldErrors := cfg.Check()
	result := ValidationResult{
		Valid:  len(fieldErrors) == 0,
		Errors: fieldErrors,
	}

	if opts.Format == "json" {
		if err := formatter.Success(result); err != nil {
			return WrapExitError(ExitFailure, "failed to encode output", err)
		}
		if !result.Valid {
			return NewExitError(ExitFailure, "config is invalid")
		}
		return nil
	}

	if result.Valid {
		fmt.Fprintf(cmd.OutOrStdout(), "%s: OK\n", configPath)
		return nil
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s: %d problem(s)\n", configPath, len(fieldErrors))
	for _, fe := range fieldErrors {
		fmt.Fprintf(cmd.OutOrStdout(), "  - %s: %s\n", fe.Field, fe.Message)
	}
	return NewExitError(ExitFailure, "config is invalid")
}
