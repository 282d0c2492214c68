// Package driver defines the backend-agnostic database contracts used by the
// rest of seam: a live Connection, a prepared Statement with positional
// binding, and forward-only ResultSet/ResultRow navigation.
//
// Parameter indexes are 1-based (matching common SQL client APIs); column
// indexes are 0-based. None of these types are safe for concurrent use; hold
// one Connection per goroutine, normally via pool.PooledConn.
package driver

// Connection is a live session with a database. Implementations live in
// backend packages (see driver/sqldriver); the pool and the migration runner
// only ever see this interface.
type Connection interface {
	// Prepare compiles a SQL statement for execution.
	Prepare(sql string) (Statement, error)

	// Begin starts a transaction on this connection.
	Begin() error

	// Commit commits the current transaction.
	Commit() error

	// Rollback aborts the current transaction.
	Rollback() error

	// LastInsertID returns the most recent auto-generated id for this
	// session. Backends without support report an error.
	LastInsertID() (uint64, error)

	// Close releases the underlying session. Only the owner of the
	// connection (normally the pool, at teardown) may call this.
	Close() error
}

// Statement is a prepared statement. Bind indexes are 1-based.
type Statement interface {
	Bind(idx int, v Value) error

	// Query executes a statement that produces rows. The caller must close
	// the returned ResultSet.
	Query() (ResultSet, error)

	// Exec executes a statement that does not produce rows and returns the
	// affected row count.
	Exec() (uint64, error)

	Close() error
}

// ResultSet is a forward-only cursor over query results.
type ResultSet interface {
	// Next advances to the next row, returning false at end of stream.
	Next() bool

	// Cols returns the number of columns.
	Cols() int

	// Row returns a view of the current row. The view is valid only until
	// the next call to Next or until the ResultSet is closed.
	Row() ResultRow

	// Err reports any error encountered while iterating.
	Err() error

	Close() error
}

// ResultRow reads columns of the current row by 0-based index. Accessors
// report an error on NULL or on an incompatible column type; use IsNull to
// test for NULL first.
type ResultRow interface {
	IsNull(i int) bool
	String(i int) (string, error)
	Int64(i int) (int64, error)
	Float64(i int) (float64, error)
}

// Factory produces one new Connection per call. It is supplied by the
// application (usually from a backend package) and invoked by the pool when
// it needs to grow.
type Factory func() (Connection, error)
