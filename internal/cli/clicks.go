package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/clickcounter/internal/clicks"
	"github.com/roach88/clickcounter/internal/engine"
)

// ClickState is the JSON payload of the tap, history and reset commands.
type ClickState struct {
	Name    string         `json:"name"`
	Count   int64          `json:"count"`
	History []clicks.Click `json:"history,omitempty"`
	Click   *clicks.Click  `json:"click,omitempty"`
}

// greeting is the one-line state shown on the screen.
func greeting(name string, count int64) string {
	return fmt.Sprintf("clicks: %d on %s", count, name)
}

// NewTapCommand creates the tap command.
func NewTapCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tap <x> <y>",
		Short: "Record one tap without the screen",
		Long: `Record one tap at device coordinates and print the new count.

Coordinates are truncated toward zero before they are stored.

Example:
  clickcounter tap 12.7 8.2
  clickcounter tap 5 5 --name demo --format json`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			x, err := parseCoordinate("x", args[0])
			if err != nil {
				return err
			}
			y, err := parseCoordinate("y", args[1])
			if err != nil {
				return err
			}
			return runTap(cmd, rootOpts, x, y)
		},
	}
}

func parseCoordinate(axis, s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, WrapExitError(ExitCommandError, fmt.Sprintf("invalid %s coordinate %q", axis, s), err)
	}
	return v, nil
}

func runTap(cmd *cobra.Command, opts *RootOptions, x, y float64) error {
	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		return err
	}
	logger := newLogger(cmd.ErrOrStderr(), cfg)

	s, err := openSession(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer s.Close()

	reply, err := engine.Await(cmd.Context(), s.engine.Tap(x, y))
	if err != nil {
		return WrapExitError(ExitFailure, "tap was not recorded", err)
	}

	out := formatter(cmd, opts)
	if opts.Format == "json" {
		return out.Success(ClickState{Name: cfg.Name, Count: reply.Snapshot.Count, Click: reply.Click})
	}
	out.VerboseLog("recorded %s", reply.Click)
	return out.Success(greeting(cfg.Name, reply.Snapshot.Count))
}

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	CountOnly bool
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Print the recorded taps",
		Long: `Print every recorded tap in moment order, one per line.

Example:
  clickcounter history
  clickcounter history --count
  clickcounter history --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(cmd, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.CountOnly, "count", false, "print only the number of taps")

	return cmd
}

func runHistory(cmd *cobra.Command, opts *HistoryOptions) error {
	cfg, err := loadConfig(cmd, opts.RootOptions)
	if err != nil {
		return err
	}
	logger := newLogger(cmd.ErrOrStderr(), cfg)

	s, err := openSession(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer s.Close()

	snap, err := s.engine.ReadySnapshot()
	if err != nil {
		return WrapExitError(ExitCommandError, "history not available", err)
	}

	out := formatter(cmd, opts.RootOptions)
	if opts.Format == "json" {
		state := ClickState{Name: cfg.Name, Count: snap.Count}
		if !opts.CountOnly {
			state.History = snap.History
		}
		return out.Success(state)
	}

	if opts.CountOnly {
		return out.Success(snap.Count)
	}
	if len(snap.History) == 0 {
		return out.Success("no clicks")
	}
	lines := make([]string, len(snap.History))
	for i, c := range snap.History {
		lines[i] = c.String()
	}
	return out.Success(strings.Join(lines, "\n"))
}

// NewResetCommand creates the reset command.
func NewResetCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Delete every recorded tap",
		Long: `Delete every recorded tap from the click table.

Example:
  clickcounter reset --name demo`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReset(cmd, rootOpts)
		},
	}
}

func runReset(cmd *cobra.Command, opts *RootOptions) error {
	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		return err
	}
	logger := newLogger(cmd.ErrOrStderr(), cfg)

	s, err := openSession(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer s.Close()

	reply, err := engine.Await(cmd.Context(), s.engine.Reset())
	if err != nil {
		return WrapExitError(ExitFailure, "reset failed", err)
	}

	out := formatter(cmd, opts)
	if opts.Format == "json" {
		return out.Success(ClickState{Name: cfg.Name, Count: reply.Snapshot.Count})
	}
	return out.Success(greeting(cfg.Name, reply.Snapshot.Count))
}
