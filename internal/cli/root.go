package cli

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/gdamore/tcell/v2"
	"github.com/spf13/cobra"

	"github.com/roach88/clickcounter/internal/config"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	ConfigFile string
	Root       string
	Name       string

	// screen overrides the terminal used by run (for testing).
	screen tcell.Screen
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// configFlags maps flag names to config keys. Only flags the user set are
// applied, so unset flags never mask file or env values.
var configFlags = map[string]string{
	"root":         "root",
	"name":         "name",
	"title":        "title",
	"metrics-addr": "metrics_addr",
}

// NewRootCommand creates the root command for the clickcounter CLI.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clickcounter",
		Short: "clickcounter - count taps into an embedded database",
		Long: `Count taps on a screen and keep every tap in an embedded SQLite table.

Each tap is stored as a row (x, y, moment). The screen shows the running
count, a reset button and the list of taps; the history survives restarts.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Validate format flag
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.ConfigFile, "config", "", "config file (YAML); defaults to $"+config.EnvConfigFile)
	cmd.PersistentFlags().StringVar(&opts.Root, "root", "", "directory holding database instances")
	cmd.PersistentFlags().StringVar(&opts.Name, "name", "", "database instance name")

	// Add subcommands
	cmd.AddCommand(NewRunCommand(opts))
	cmd.AddCommand(NewTapCommand(opts))
	cmd.AddCommand(NewHistoryCommand(opts))
	cmd.AddCommand(NewResetCommand(opts))
	cmd.AddCommand(NewReplayCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

// loadConfig layers defaults, file, env and the flags set on cmd.
func loadConfig(cmd *cobra.Command, opts *RootOptions) (*config.Config, error) {
	overrides := make(map[string]any)
	for flag, key := range configFlags {
		if f := cmd.Flags().Lookup(flag); f != nil && f.Changed {
			overrides[key] = f.Value.String()
		}
	}
	if opts.Verbose {
		overrides["log_level"] = "debug"
	}

	cfg, err := config.Load(opts.ConfigFile, overrides)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load config", err)
	}
	return cfg, nil
}

// newLogger builds the text logger at the configured level.
func newLogger(w io.Writer, cfg *config.Config) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: cfg.Level(),
	}))
}

// formatter returns the output formatter for cmd.
func formatter(cmd *cobra.Command, opts *RootOptions) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
}
