package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"
)

// ResultSet is a lazily consumed sequence of rows from a read statement.
//
// Iterate with Next/Row and check Err afterwards. The set closes itself when
// exhausted or on a scan error; Close is still safe to call.
type ResultSet struct {
	query   string
	rows    *sql.Rows
	columns []string
	current Row
	err     error
	closed  bool
}

func newResultSet(query string, rows *sql.Rows) (*ResultSet, error) {
	columns, err := rows.Columns()
	if err != nil {
		rows.Close()
		return nil, newExecutionError(query, err)
	}
	return &ResultSet{query: query, rows: rows, columns: columns}, nil
}

// Columns returns the result column names.
func (rs *ResultSet) Columns() []string {
	return rs.columns
}

// Next advances to the next row. Returns false when rows are exhausted or an
// error occurred (see Err).
func (rs *ResultSet) Next() bool {
	if rs.closed {
		return false
	}
	if !rs.rows.Next() {
		if err := rs.rows.Err(); err != nil {
			rs.err = newExecutionError(rs.query, err)
		}
		rs.Close()
		return false
	}

	values := make([]any, len(rs.columns))
	dest := make([]any, len(rs.columns))
	for i := range values {
		dest[i] = &values[i]
	}
	if err := rs.rows.Scan(dest...); err != nil {
		rs.err = newExecutionError(rs.query, fmt.Errorf("scan row: %w", err))
		rs.Close()
		return false
	}

	rs.current = Row{columns: rs.columns, values: values}
	return true
}

// Row returns the row at the current position.
func (rs *ResultSet) Row() Row {
	return rs.current
}

// Err returns the error that stopped iteration, if any.
func (rs *ResultSet) Err() error {
	return rs.err
}

// Close releases the underlying rows and the connection they hold.
func (rs *ResultSet) Close() error {
	if rs.closed {
		return nil
	}
	rs.closed = true
	return rs.rows.Close()
}

// All consumes the remaining rows and closes the set.
// Returns an empty slice (not nil) when there are no rows.
func (rs *ResultSet) All() ([]Row, error) {
	defer rs.Close()

	rows := []Row{}
	for rs.Next() {
		rows = append(rows, rs.Row())
	}
	if err := rs.Err(); err != nil {
		return nil, err
	}
	return rows, nil
}

// Row is a single result row with typed access by 0-based column position.
type Row struct {
	columns []string
	values  []any
}

// Len returns the number of columns.
func (r Row) Len() int {
	return len(r.values)
}

// Value returns the raw driver value of column i.
func (r Row) Value(i int) (any, error) {
	if i < 0 || i >= len(r.values) {
		return nil, fmt.Errorf("%w: %d (row has %d columns)", ErrColumnRange, i, len(r.values))
	}
	return r.values[i], nil
}

// IsNull reports whether column i is SQL NULL. Out-of-range columns report false.
func (r Row) IsNull(i int) bool {
	v, err := r.Value(i)
	return err == nil && v == nil
}

// Int64 returns column i as an integer.
func (r Row) Int64(i int) (int64, error) {
	v, err := r.Value(i)
	if err != nil {
		return 0, err
	}
	switch x := v.(type) {
	case int64:
		return x, nil
	default:
		return 0, r.typeError(i, "integer", v)
	}
}

// Int returns column i as an int.
func (r Row) Int(i int) (int, error) {
	v, err := r.Int64(i)
	return int(v), err
}

// Float64 returns column i as a float. Integer columns are widened.
func (r Row) Float64(i int) (float64, error) {
	v, err := r.Value(i)
	if err != nil {
		return 0, err
	}
	switch x := v.(type) {
	case float64:
		return x, nil
	case int64:
		return float64(x), nil
	default:
		return 0, r.typeError(i, "float", v)
	}
}

// String returns column i as text.
func (r Row) String(i int) (string, error) {
	v, err := r.Value(i)
	if err != nil {
		return "", err
	}
	switch x := v.(type) {
	case string:
		return x, nil
	case []byte:
		return string(x), nil
	default:
		return "", r.typeError(i, "text", v)
	}
}

// Bytes returns column i as a blob.
func (r Row) Bytes(i int) ([]byte, error) {
	v, err := r.Value(i)
	if err != nil {
		return nil, err
	}
	switch x := v.(type) {
	case []byte:
		return x, nil
	case string:
		return []byte(x), nil
	default:
		return nil, r.typeError(i, "blob", v)
	}
}

// Time returns column i as a timestamp, in UTC.
//
// Columns declared timestamp/datetime/date arrive from the driver as
// time.Time; text values in one of the driver's timestamp formats are
// parsed as well.
func (r Row) Time(i int) (time.Time, error) {
	v, err := r.Value(i)
	if err != nil {
		return time.Time{}, err
	}
	switch x := v.(type) {
	case time.Time:
		return x.UTC(), nil
	case string:
		for _, layout := range sqlite3.SQLiteTimestampFormats {
			if t, err := time.ParseInLocation(layout, x, time.UTC); err == nil {
				return t.UTC(), nil
			}
		}
		return time.Time{}, r.typeError(i, "timestamp", v)
	default:
		return time.Time{}, r.typeError(i, "timestamp", v)
	}
}

func (r Row) typeError(i int, want string, got any) error {
	name := ""
	if i < len(r.columns) {
		name = r.columns[i]
	}
	return fmt.Errorf("%w: column %d (%s) is %T, want %s", ErrColumnType, i, name, got, want)
}
