package cli

import (
	"context"
	"errors"
	"log/slog"

	"github.com/roach88/clickcounter/internal/clicks"
	"github.com/roach88/clickcounter/internal/config"
	"github.com/roach88/clickcounter/internal/engine"
	"github.com/roach88/clickcounter/internal/store"
)

// session is an open handle with a hydrated engine running over it.
type session struct {
	cfg    *config.Config
	conn   *store.Conn
	repo   *clicks.Repository
	engine *engine.Engine
	logger *slog.Logger
	runErr chan error
}

// openSession opens the configured instance, creating the click table on
// first use, and waits for hydration. Startup failures are ExitCommandError.
func openSession(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts ...engine.Option) (*session, error) {
	logger.Info("opening database", "root", cfg.Root, "name", cfg.Name)

	home, err := store.StartInstance(cfg.Root)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to start instance", err)
	}

	conn, err := home.Open(ctx, cfg.Name, clicks.Schema()...)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}

	s := &session{
		cfg:    cfg,
		conn:   conn,
		repo:   clicks.NewRepository(conn),
		logger: logger,
		runErr: make(chan error, 1),
	}
	s.engine = engine.New(s.repo, append([]engine.Option{engine.WithLogger(logger)}, opts...)...)

	go func() {
		s.runErr <- s.engine.Run(context.Background())
	}()

	// Reload is queued behind hydration; its reply means the engine is ready.
	if _, err := engine.Await(ctx, s.engine.Reload()); err != nil {
		s.engine.Stop()
		if runErr := <-s.runErr; runErr != nil {
			err = runErr
		}
		_ = conn.Close()
		return nil, WrapExitError(ExitCommandError, "failed to load click history", err)
	}

	logger.Info("database ready", "path", conn.Path(), "count", s.engine.Snapshot().Count)
	return s, nil
}

// Close stops the engine after it drains and closes the handle.
func (s *session) Close() error {
	s.engine.Stop()
	runErr := <-s.runErr
	closeErr := s.conn.Close()
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}
	return closeErr
}
