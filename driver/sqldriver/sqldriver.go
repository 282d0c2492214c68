// Package sqldriver implements the seam driver contracts on top of
// database/sql. A Source owns a *sql.DB handle; its Factory checks out a
// dedicated *sql.Conn per seam connection so that session state (open
// transactions, last insert id) stays bound to exactly one borrower.
package sqldriver

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	"github.com/seamdb/seam/driver"
)

// Source wraps an opened database handle and hands out dedicated
// single-session connections from it.
type Source struct {
	db *sql.DB
	// rebind rewrites `?` markers to the backend's native placeholder
	// form at Prepare time. Nil for backends that accept `?` directly.
	rebind func(string) string
}

// Open opens a database handle for the given database/sql driver name and
// DSN. The handle is verified with a ping before being returned.
func Open(driverName, dsn string) (*Source, error) {
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driverName, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s: %w", driverName, err)
	}
	return &Source{db: db}, nil
}

// Factory returns a driver.Factory producing one dedicated session per call.
func (s *Source) Factory() driver.Factory {
	return func() (driver.Connection, error) {
		sc, err := s.db.Conn(context.Background())
		if err != nil {
			return nil, fmt.Errorf("checkout connection: %w", err)
		}
		return &conn{sc: sc, rebind: s.rebind}, nil
	}
}

// Close closes the underlying database handle. Connections produced by the
// Factory must be closed (normally by the pool) before calling this.
func (s *Source) Close() error {
	return s.db.Close()
}

type conn struct {
	sc      *sql.Conn
	rebind  func(string) string
	lastID  uint64
	hasLast bool
}

func (c *conn) Prepare(query string) (driver.Statement, error) {
	if c.rebind != nil {
		query = c.rebind(query)
	}
	st, err := c.sc.PrepareContext(context.Background(), query)
	if err != nil {
		return nil, fmt.Errorf("prepare failed: %w", err)
	}
	return &stmt{st: st, owner: c}, nil
}

func (c *conn) Begin() error    { return c.execRaw("BEGIN") }
func (c *conn) Commit() error   { return c.execRaw("COMMIT") }
func (c *conn) Rollback() error { return c.execRaw("ROLLBACK") }

func (c *conn) execRaw(query string) error {
	if _, err := c.sc.ExecContext(context.Background(), query); err != nil {
		return fmt.Errorf("%s failed: %w", query, err)
	}
	return nil
}

func (c *conn) LastInsertID() (uint64, error) {
	if !c.hasLast {
		return 0, fmt.Errorf("no insert id available on this session")
	}
	return c.lastID, nil
}

func (c *conn) Close() error {
	return c.sc.Close()
}

type stmt struct {
	st    *sql.Stmt
	owner *conn
	args  []any
}

func (s *stmt) Bind(idx int, v driver.Value) error {
	if idx < 1 {
		return fmt.Errorf("bind index %d out of range (1-based)", idx)
	}
	for len(s.args) < idx {
		s.args = append(s.args, nil)
	}
	s.args[idx-1] = v.Arg()
	return nil
}

func (s *stmt) Query() (driver.ResultSet, error) {
	r, err := s.st.Query(s.args...)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	cols, err := r.Columns()
	if err != nil {
		r.Close()
		return nil, fmt.Errorf("columns: %w", err)
	}
	return &rows{rs: r, ncols: len(cols)}, nil
}

func (s *stmt) Exec() (uint64, error) {
	res, err := s.st.Exec(s.args...)
	if err != nil {
		return 0, fmt.Errorf("exec failed: %w", err)
	}
	if id, err := res.LastInsertId(); err == nil && id > 0 {
		s.owner.lastID = uint64(id)
		s.owner.hasLast = true
	}
	n, err := res.RowsAffected()
	if err != nil {
		// Some backends cannot report a count for DDL; treat as zero.
		return 0, nil
	}
	return uint64(n), nil
}

func (s *stmt) Close() error {
	return s.st.Close()
}

type rows struct {
	rs    *sql.Rows
	ncols int
	cur   []any
	err   error
}

func (r *rows) Next() bool {
	if !r.rs.Next() {
		return false
	}
	vals := make([]any, r.ncols)
	ptrs := make([]any, r.ncols)
	for i := range vals {
		ptrs[i] = &vals[i]
	}
	if err := r.rs.Scan(ptrs...); err != nil {
		r.err = err
		return false
	}
	r.cur = vals
	return true
}

func (r *rows) Cols() int { return r.ncols }

func (r *rows) Row() driver.ResultRow { return row{vals: r.cur} }

func (r *rows) Err() error {
	if r.err != nil {
		return r.err
	}
	return r.rs.Err()
}

func (r *rows) Close() error { return r.rs.Close() }

// row adapts the scanned column values of the current row. database/sql
// drivers surface values as int64, float64, bool, string, []byte or nil;
// the text protocols of some backends return numbers as []byte, so numeric
// accessors fall back to parsing.
type row struct {
	vals []any
}

func (r row) IsNull(i int) bool {
	return i < 0 || i >= len(r.vals) || r.vals[i] == nil
}

func (r row) String(i int) (string, error) {
	v, err := r.col(i)
	if err != nil {
		return "", err
	}
	switch t := v.(type) {
	case string:
		return t, nil
	case []byte:
		return string(t), nil
	case int64:
		return strconv.FormatInt(t, 10), nil
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64), nil
	default:
		return "", fmt.Errorf("column %d: cannot read %T as string", i, v)
	}
}

func (r row) Int64(i int) (int64, error) {
	v, err := r.col(i)
	if err != nil {
		return 0, err
	}
	switch t := v.(type) {
	case int64:
		return t, nil
	case []byte:
		return strconv.ParseInt(string(t), 10, 64)
	case string:
		return strconv.ParseInt(t, 10, 64)
	default:
		return 0, fmt.Errorf("column %d: cannot read %T as int64", i, v)
	}
}

func (r row) Float64(i int) (float64, error) {
	v, err := r.col(i)
	if err != nil {
		return 0, err
	}
	switch t := v.(type) {
	case float64:
		return t, nil
	case int64:
		return float64(t), nil
	case []byte:
		return strconv.ParseFloat(string(t), 64)
	case string:
		return strconv.ParseFloat(t, 64)
	default:
		return 0, fmt.Errorf("column %d: cannot read %T as float64", i, v)
	}
}

func (r row) col(i int) (any, error) {
	if i < 0 || i >= len(r.vals) {
		return nil, fmt.Errorf("column %d out of range (0-based, %d cols)", i, len(r.vals))
	}
	if r.vals[i] == nil {
		return nil, fmt.Errorf("column %d is NULL", i)
	}
	return r.vals[i], nil
}
