package store

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Param is a single bound statement parameter, addressed either by 1-based
// position or by placeholder name.
type Param struct {
	Index int    // 1-based position (positional parameters)
	Name  string // placeholder name without prefix (named parameters)
	Value any
}

// Positional binds value to the ?N placeholder at the given 1-based index.
func Positional(index int, value any) Param {
	return Param{Index: index, Value: value}
}

// Named binds value to the :name (or @name, $name) placeholder.
// A leading prefix character on name is accepted and stripped.
func Named(name string, value any) Param {
	return Param{Name: strings.TrimLeft(name, ":@$"), Value: value}
}

// Statement is SQL text with its bound parameters.
type Statement struct {
	SQL    string
	Params []Param
}

// NewStatement creates a Statement.
func NewStatement(query string, params ...Param) Statement {
	return Statement{SQL: query, Params: params}
}

// Result is the outcome of Execute.
//
// For read statements Rows is non-nil and must be drained or closed.
// For write statements Rows is nil (an Ack) and RowsAffected is populated.
type Result struct {
	Rows         *ResultSet
	RowsAffected int64
}

// IsAck reports whether the result is a write acknowledgment.
func (r *Result) IsAck() bool {
	return r.Rows == nil
}

// Execute runs a statement against the handle.
//
// Write statements mutate persisted state synchronously before returning.
// All failures are returned as *ExecutionError.
func (c *Conn) Execute(ctx context.Context, stmt Statement) (*Result, error) {
	if c.isClosed() {
		return nil, &ExecutionError{Code: CodeClosed, SQL: stmt.SQL, Message: ErrClosed.Error(), Err: ErrClosed}
	}

	args, err := bindArgs(stmt)
	if err != nil {
		return nil, err
	}

	if isReadStatement(stmt.SQL) {
		rows, err := c.db.QueryContext(ctx, stmt.SQL, args...)
		if err != nil {
			return nil, newExecutionError(stmt.SQL, err)
		}
		rs, err := newResultSet(stmt.SQL, rows)
		if err != nil {
			return nil, err
		}
		return &Result{Rows: rs}, nil
	}

	res, err := c.db.ExecContext(ctx, stmt.SQL, args...)
	if err != nil {
		return nil, newExecutionError(stmt.SQL, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, newExecutionError(stmt.SQL, err)
	}
	return &Result{RowsAffected: n}, nil
}

// isReadStatement reports whether query produces rows.
func isReadStatement(query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	keyword := q
	if i := strings.IndexAny(q, " \t\r\n("); i >= 0 {
		keyword = q[:i]
	}
	switch keyword {
	case "select", "with", "values", "explain":
		return true
	case "pragma":
		// PRAGMA name = value is a write; PRAGMA name and PRAGMA name(arg) read.
		return !strings.Contains(q, "=")
	default:
		return false
	}
}

// bindArgs validates parameter types and converts them to database/sql
// arguments: positional parameters first in index order, then named ones.
func bindArgs(stmt Statement) ([]any, error) {
	var positional []Param
	var named []Param
	seen := make(map[string]bool)

	for _, p := range stmt.Params {
		v, err := normalizeValue(p.Value)
		if err != nil {
			return nil, &ExecutionError{
				Code:    CodeTypeMismatch,
				SQL:     stmt.SQL,
				Message: fmt.Sprintf("parameter %s: %v", p.label(), err),
				Err:     err,
			}
		}
		p.Value = v

		if p.Name != "" {
			if seen[p.Name] {
				return nil, bindError(stmt.SQL, "parameter :%s bound twice", p.Name)
			}
			seen[p.Name] = true
			named = append(named, p)
			continue
		}
		positional = append(positional, p)
	}

	sort.SliceStable(positional, func(i, j int) bool { return positional[i].Index < positional[j].Index })
	for i, p := range positional {
		if p.Index != i+1 {
			return nil, bindError(stmt.SQL, "positional parameters must be numbered 1..%d, got %d", len(positional), p.Index)
		}
	}

	args := make([]any, 0, len(stmt.Params))
	for _, p := range positional {
		args = append(args, p.Value)
	}
	for _, p := range named {
		args = append(args, sql.Named(p.Name, p.Value))
	}
	return args, nil
}

// normalizeValue checks that v is a supported parameter type.
// Integers widen to int64 and times are bound in UTC.
func normalizeValue(v any) (any, error) {
	switch x := v.(type) {
	case nil, int64, float64, string, []byte, bool:
		return x, nil
	case int:
		return int64(x), nil
	case int32:
		return int64(x), nil
	case time.Time:
		return x.UTC(), nil
	default:
		return nil, fmt.Errorf("unsupported type %T", v)
	}
}

func (p Param) label() string {
	if p.Name != "" {
		return ":" + p.Name
	}
	return fmt.Sprintf("?%d", p.Index)
}

func bindError(query, format string, args ...any) *ExecutionError {
	msg := fmt.Sprintf(format, args...)
	return &ExecutionError{Code: CodeBind, SQL: query, Message: msg, Err: fmt.Errorf("%s", msg)}
}
