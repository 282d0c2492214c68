package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/seamdb/seam/driver"
	"github.com/seamdb/seam/logger"
	"github.com/seamdb/seam/pool"
)

// Param is one column/value pair produced by a Mapper.
type Param struct {
	Column string
	Value  driver.Value
}

// Mapper converts between a domain value and its column representation.
// Implementations are supplied by the caller; seam does no reflection.
type Mapper[T any] interface {
	// FromRow decodes the current row into a domain value.
	FromRow(row driver.ResultRow) (T, error)
	// InsertParams lists the columns to insert (excluding generated keys).
	InsertParams(v T) []Param
	// UpdateParams lists the columns to update.
	UpdateParams(v T) []Param
}

// Repository provides CRUD convenience over one table, borrowing a pooled
// connection per call. Reads pass through the registered middleware chain.
type Repository[T any] struct {
	pool   *pool.Pool
	table  string
	mapper Mapper[T]
	mws    []QueryMiddleware
	log    logger.Logger
}

// NewRepository creates a repository for the given table.
func NewRepository[T any](p *pool.Pool, table string, m Mapper[T]) *Repository[T] {
	return &Repository[T]{pool: p, table: table, mapper: m}
}

// Use appends read middlewares, outermost first.
func (r *Repository[T]) Use(mws ...QueryMiddleware) {
	r.mws = append(r.mws, mws...)
}

// SetLogger installs a logger for SQL timing. Nil disables logging.
func (r *Repository[T]) SetLogger(l logger.Logger) {
	r.log = l
}

// Create inserts v and returns the generated key. Backends that cannot
// report insert ids (e.g. PostgreSQL) return 0 with a nil error; the row is
// still inserted.
func (r *Repository[T]) Create(v T) (uint64, error) {
	params := r.mapper.InsertParams(v)
	if len(params) == 0 {
		return 0, fmt.Errorf("repository %s: mapper produced no insert params", r.table)
	}

	cols := make([]string, len(params))
	marks := make([]string, len(params))
	for i, p := range params {
		cols[i] = p.Column
		marks[i] = "?"
	}
	sql := "INSERT INTO " + r.table + " (" + strings.Join(cols, ",") + ") VALUES (" + strings.Join(marks, ",") + ")"

	pc, err := r.pool.Get()
	if err != nil {
		return 0, err
	}
	defer pc.Release()

	st, err := pc.Conn().Prepare(sql)
	if err != nil {
		return 0, err
	}
	defer st.Close()

	for i, p := range params {
		if err := st.Bind(i+1, p.Value); err != nil {
			return 0, err
		}
	}

	start := time.Now()
	_, err = st.Exec()
	r.logSQL(sql, time.Since(start))
	if err != nil {
		return 0, err
	}

	id, err := pc.Conn().LastInsertID()
	if err != nil {
		return 0, nil
	}
	return id, nil
}

// FindByID returns the row with the given id, or nil if absent.
func (r *Repository[T]) FindByID(ctx context.Context, id int64) (*T, error) {
	qb := NewBuilder().
		Raw("SELECT * FROM " + r.table + " WHERE id = ? LIMIT 1").
		Param(driver.Int64(id))
	out, err := r.Find(ctx, qb)
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return &out[0], nil
}

// GetByID is FindByID for callers that demand existence: absence is
// reported as ErrRecordNotFound.
func (r *Repository[T]) GetByID(ctx context.Context, id int64) (*T, error) {
	v, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, fmt.Errorf("%s id %d: %w", r.table, id, ErrRecordNotFound)
	}
	return v, nil
}

// Find executes the built query and decodes every row through the mapper.
func (r *Repository[T]) Find(ctx context.Context, qb *QueryBuilder) ([]T, error) {
	var out []T
	q := &Query{
		SQL:   qb.SQL(),
		Args:  qb.Params(),
		Table: r.table,
		Dest:  &out,
	}
	run := chain(r.mws, r.execQuery)
	if _, err := run(ctx, q); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateByID updates the row with the given id and returns the affected
// row count.
func (r *Repository[T]) UpdateByID(id int64, v T) (uint64, error) {
	params := r.mapper.UpdateParams(v)
	if len(params) == 0 {
		return 0, fmt.Errorf("repository %s: mapper produced no update params", r.table)
	}

	sets := make([]string, len(params))
	for i, p := range params {
		sets[i] = p.Column + "=?"
	}
	sql := "UPDATE " + r.table + " SET " + strings.Join(sets, ",") + " WHERE id=?"

	pc, err := r.pool.Get()
	if err != nil {
		return 0, err
	}
	defer pc.Release()

	st, err := pc.Conn().Prepare(sql)
	if err != nil {
		return 0, err
	}
	defer st.Close()

	for i, p := range params {
		if err := st.Bind(i+1, p.Value); err != nil {
			return 0, err
		}
	}
	if err := st.Bind(len(params)+1, driver.Int64(id)); err != nil {
		return 0, err
	}

	start := time.Now()
	n, err := st.Exec()
	r.logSQL(sql, time.Since(start))
	return n, err
}

// RemoveByID deletes the row with the given id and returns the affected
// row count.
func (r *Repository[T]) RemoveByID(id int64) (uint64, error) {
	sql := "DELETE FROM " + r.table + " WHERE id = ?"

	pc, err := r.pool.Get()
	if err != nil {
		return 0, err
	}
	defer pc.Release()

	st, err := pc.Conn().Prepare(sql)
	if err != nil {
		return 0, err
	}
	defer st.Close()

	if err := st.Bind(1, driver.Int64(id)); err != nil {
		return 0, err
	}

	start := time.Now()
	n, err := st.Exec()
	r.logSQL(sql, time.Since(start))
	return n, err
}

func (r *Repository[T]) execQuery(ctx context.Context, q *Query) (*Result, error) {
	// Acquire can block indefinitely on a saturated pool; honor
	// cancellation before committing to the wait.
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pc, err := r.pool.Get()
	if err != nil {
		return nil, err
	}
	defer pc.Release()

	st, err := pc.Conn().Prepare(q.SQL)
	if err != nil {
		return nil, err
	}
	defer st.Close()

	for i, v := range q.Args {
		if err := st.Bind(i+1, v); err != nil {
			return nil, err
		}
	}

	start := time.Now()
	rs, err := st.Query()
	r.logSQL(q.SQL, time.Since(start))
	if err != nil {
		return nil, err
	}
	defer rs.Close()

	dest, ok := q.Dest.(*[]T)
	if !ok {
		return nil, fmt.Errorf("repository %s: unexpected destination %T", r.table, q.Dest)
	}

	for rs.Next() {
		v, err := r.mapper.FromRow(rs.Row())
		if err != nil {
			return nil, err
		}
		*dest = append(*dest, v)
	}
	if err := rs.Err(); err != nil {
		return nil, err
	}

	return &Result{Rows: len(*dest)}, nil
}

func (r *Repository[T]) logSQL(sql string, d time.Duration) {
	if r.log != nil {
		r.log.SQL(sql, d)
	}
}
