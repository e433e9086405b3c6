package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sync/atomic"
	"syscall"

	"github.com/rivo/tview"
	"github.com/spf13/cobra"

	"github.com/roach88/clickcounter/internal/engine"
	"github.com/roach88/clickcounter/internal/metrics"
	"github.com/roach88/clickcounter/internal/ui"
)

// LogFileName is the log file written under the root by the run command.
const LogFileName = "clickcounter.log"

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Title       string
	MetricsAddr string
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Open the click counter screen",
		Long: `Open the interactive click counter.

The database instance is opened (and its table created on first use), the
history is read back, and the screen shows the count, a reset button and
the list of taps. Click inside the tap area to record a tap. Press q or Esc
to quit.

Logs go to <root>/clickcounter.log so they do not draw over the screen.

Example:
  clickcounter run
  clickcounter run --root /tmp/clicks --name demo --title Demo
  clickcounter run --metrics-addr :9100`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScreen(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Title, "title", "", "application title")
	cmd.Flags().StringVar(&opts.MetricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")

	return cmd
}

func runScreen(cmd *cobra.Command, opts *RunOptions) error {
	cfg, err := loadConfig(cmd, opts.RootOptions)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(cfg.Root, 0o700); err != nil {
		return WrapExitError(ExitCommandError, "failed to create root", err)
	}
	logFile, err := os.OpenFile(filepath.Join(cfg.Root, LogFileName), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open log file", err)
	}
	defer logFile.Close()
	logger := newLogger(logFile, cfg)

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
			logger.Info("received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	recorder := metrics.New(metrics.WithRuntimeCollectors())
	if cfg.MetricsAddr != "" {
		srv, err := metrics.Listen(cfg.MetricsAddr, recorder, logger)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to start metrics server", err)
		}
		go func() {
			if err := srv.Serve(ctx); err != nil {
				logger.Error("metrics server failed", "error", err)
			}
		}()
	}

	// The presenter needs the engine, and the engine's observer needs the
	// presenter; the observer drops snapshots until the presenter exists and
	// the presenter is seeded from the hydrated snapshot below.
	var presenter atomic.Pointer[ui.Presenter]
	observer := func(s engine.Snapshot) {
		if p := presenter.Load(); p != nil {
			p.Observe(s)
		}
	}

	// Startup failures are fatal: the screen is never shown.
	s, err := openSession(ctx, cfg, logger, engine.WithMetrics(recorder), engine.WithObserver(observer))
	if err != nil {
		return err
	}
	defer func() {
		if err := s.Close(); err != nil {
			logger.Error("error closing database", "error", err)
		}
	}()

	app := tview.NewApplication()
	if opts.screen != nil {
		app.SetScreen(opts.screen)
	}

	p := ui.NewPresenter(s.engine, cfg.Name, logger)
	view := ui.NewView(app, p, cfg.Title)
	presenter.Store(p)
	p.Apply(s.engine.Snapshot())

	go func() {
		<-ctx.Done()
		app.Stop()
	}()

	logger.Info("screen starting", "title", cfg.Title)
	if err := view.Run(); err != nil {
		return WrapExitError(ExitFailure, "screen error", err)
	}
	logger.Info("screen closed")

	if err := ctx.Err(); err != nil && !errors.Is(err, context.Canceled) {
		return WrapExitError(ExitFailure, fmt.Sprintf("stopped: %v", err), err)
	}
	return nil
}
