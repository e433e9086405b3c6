package clicks

import (
	"context"
	"fmt"

	"github.com/roach88/clickcounter/internal/store"
)

// Statements issued against the clickcounter table.
const (
	CreateTableSQL = "create table clickcounter (x int4, y int4, moment timestamp)"
	SelectAllSQL   = "select x,y,moment from clickcounter order by moment"
	InsertSQL      = "insert into clickcounter (x,y,moment) values (:x,:y,:time)"
	DeleteAllSQL   = "delete from clickcounter"
	CountSQL       = "select count(*) from clickcounter"
)

// Executor runs statements. Implemented by *store.Conn.
type Executor interface {
	Execute(ctx context.Context, stmt store.Statement) (*store.Result, error)
}

// Repository reads and writes clicks through an Executor.
type Repository struct {
	exec Executor
}

// NewRepository creates a Repository over exec.
func NewRepository(exec Executor) *Repository {
	return &Repository{exec: exec}
}

// Schema returns the statements that create the table on first use.
func Schema() []string {
	return []string{CreateTableSQL}
}

// Hydrate returns every persisted click ordered by moment ascending.
// Returns an empty slice (not nil) if no clicks exist.
func (r *Repository) Hydrate(ctx context.Context) ([]Click, error) {
	res, err := r.exec.Execute(ctx, store.NewStatement(SelectAllSQL))
	if err != nil {
		return nil, fmt.Errorf("query clicks: %w", err)
	}
	if res.IsAck() {
		return nil, fmt.Errorf("query clicks: statement returned no result set")
	}
	defer res.Rows.Close()

	clicks := []Click{}
	for res.Rows.Next() {
		c, err := scanClick(res.Rows.Row())
		if err != nil {
			return nil, err
		}
		clicks = append(clicks, c)
	}

	if err := res.Rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate clicks: %w", err)
	}

	return clicks, nil
}

// Insert persists one click. The write is complete when Insert returns nil.
func (r *Repository) Insert(ctx context.Context, c Click) error {
	_, err := r.exec.Execute(ctx, store.NewStatement(InsertSQL,
		store.Named("x", c.X),
		store.Named("y", c.Y),
		store.Named("time", c.Moment),
	))
	if err != nil {
		return fmt.Errorf("insert click: %w", err)
	}
	return nil
}

// DeleteAll removes every persisted click and returns how many were removed.
func (r *Repository) DeleteAll(ctx context.Context) (int64, error) {
	res, err := r.exec.Execute(ctx, store.NewStatement(DeleteAllSQL))
	if err != nil {
		return 0, fmt.Errorf("delete clicks: %w", err)
	}
	return res.RowsAffected, nil
}

// Count returns the number of persisted clicks.
func (r *Repository) Count(ctx context.Context) (int64, error) {
	res, err := r.exec.Execute(ctx, store.NewStatement(CountSQL))
	if err != nil {
		return 0, fmt.Errorf("count clicks: %w", err)
	}
	if res.IsAck() {
		return 0, fmt.Errorf("count clicks: statement returned no result set")
	}

	rows, err := res.Rows.All()
	if err != nil {
		return 0, fmt.Errorf("count clicks: %w", err)
	}
	if len(rows) != 1 {
		return 0, fmt.Errorf("count clicks: expected 1 row, got %d", len(rows))
	}
	return rows[0].Int64(0)
}

// scanClick converts a result row (x, y, moment) into a Click.
func scanClick(row store.Row) (Click, error) {
	x, err := row.Int(0)
	if err != nil {
		return Click{}, fmt.Errorf("scan click x: %w", err)
	}
	y, err := row.Int(1)
	if err != nil {
		return Click{}, fmt.Errorf("scan click y: %w", err)
	}
	moment, err := row.Time(2)
	if err != nil {
		return Click{}, fmt.Errorf("scan click moment: %w", err)
	}
	return Click{X: x, Y: y, Moment: moment}, nil
}
