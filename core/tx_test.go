package core

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/seamdb/seam/driver"
	"github.com/seamdb/seam/driver/sqldriver"
	"github.com/seamdb/seam/pool"
)

func newPool(t *testing.T) *pool.Pool {
	t.Helper()
	src, err := sqldriver.SQLite(filepath.Join(t.TempDir(), "core_test.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { src.Close() })

	p, err := pool.New(src.Factory(), pool.Config{Min: 1, Max: 2})
	if err != nil {
		t.Fatalf("create pool: %v", err)
	}
	t.Cleanup(func() { p.Close() })
	return p
}

func exec(t *testing.T, c driver.Connection, sql string, args ...driver.Value) {
	t.Helper()
	st, err := c.Prepare(sql)
	if err != nil {
		t.Fatalf("prepare %q: %v", sql, err)
	}
	defer st.Close()
	for i, v := range args {
		if err := st.Bind(i+1, v); err != nil {
			t.Fatalf("bind %d: %v", i+1, err)
		}
	}
	if _, err := st.Exec(); err != nil {
		t.Fatalf("exec %q: %v", sql, err)
	}
}

func countRows(t *testing.T, p *pool.Pool, table string) int64 {
	t.Helper()
	pc, err := p.Get()
	if err != nil {
		t.Fatalf("get connection: %v", err)
	}
	defer pc.Release()

	st, err := pc.Conn().Prepare("SELECT COUNT(*) FROM " + table)
	if err != nil {
		t.Fatalf("prepare count: %v", err)
	}
	defer st.Close()
	rs, err := st.Query()
	if err != nil {
		t.Fatalf("query count: %v", err)
	}
	defer rs.Close()
	if !rs.Next() {
		t.Fatal("count returned no rows")
	}
	n, err := rs.Row().Int64(0)
	if err != nil {
		t.Fatalf("read count: %v", err)
	}
	return n
}

func setupTable(t *testing.T, p *pool.Pool) {
	t.Helper()
	pc, err := p.Get()
	if err != nil {
		t.Fatalf("get connection: %v", err)
	}
	defer pc.Release()
	exec(t, pc.Conn(), "CREATE TABLE entries (id INTEGER PRIMARY KEY AUTOINCREMENT, val TEXT)")
}

func TestTxAutoRollbackOnClose(t *testing.T) {
	p := newPool(t)
	setupTable(t, p)

	tx, err := Begin(p)
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	exec(t, tx.Conn(), "INSERT INTO entries (val) VALUES (?)", driver.String("doomed"))
	tx.Close() // no commit

	if n := countRows(t, p, "entries"); n != 0 {
		t.Errorf("entries has %d rows after abandoned tx, want 0", n)
	}
}

func TestTxCommitPersists(t *testing.T) {
	p := newPool(t)
	setupTable(t, p)

	tx, err := Begin(p)
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	defer tx.Close()
	exec(t, tx.Conn(), "INSERT INTO entries (val) VALUES (?)", driver.String("kept"))
	if err := tx.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	if n := countRows(t, p, "entries"); n != 1 {
		t.Errorf("entries has %d rows after commit, want 1", n)
	}
}

func TestTxCommitTwice(t *testing.T) {
	p := newPool(t)
	setupTable(t, p)

	tx, err := Begin(p)
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	defer tx.Close()
	if err := tx.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if err := tx.Commit(); !errors.Is(err, ErrTxClosed) {
		t.Errorf("second Commit got %v, want ErrTxClosed", err)
	}
	if err := tx.Rollback(); err != nil {
		t.Errorf("Rollback after Commit should be a no-op, got %v", err)
	}
}

func TestTxExplicitRollback(t *testing.T) {
	p := newPool(t)
	setupTable(t, p)

	tx, err := Begin(p)
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	defer tx.Close()
	exec(t, tx.Conn(), "INSERT INTO entries (val) VALUES (?)", driver.String("x"))
	if err := tx.Rollback(); err != nil {
		t.Fatalf("Rollback: %v", err)
	}

	if n := countRows(t, p, "entries"); n != 0 {
		t.Errorf("entries has %d rows after rollback, want 0", n)
	}
}

func TestTxCloseReturnsConnection(t *testing.T) {
	p := newPool(t)
	setupTable(t, p)

	// Exhaust the pool, then verify Close returns both connections.
	tx1, err := Begin(p)
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	tx2, err := Begin(p)
	if err != nil {
		t.Fatalf("second Begin: %v", err)
	}
	tx1.Close()
	tx2.Close()

	total, idle := p.Stats()
	if idle != total {
		t.Errorf("total=%d idle=%d after closing all txs; connections leaked", total, idle)
	}
}

func TestUnitOfWork(t *testing.T) {
	p := newPool(t)
	setupTable(t, p)

	u, err := NewUnitOfWork(p)
	if err != nil {
		t.Fatalf("NewUnitOfWork: %v", err)
	}
	exec(t, u.Conn(), "INSERT INTO entries (val) VALUES (?)", driver.String("uow"))
	if err := u.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	u.Close()

	if n := countRows(t, p, "entries"); n != 1 {
		t.Errorf("entries has %d rows, want 1", n)
	}
}

func TestUnitOfWorkAbandonedRollsBack(t *testing.T) {
	p := newPool(t)
	setupTable(t, p)

	u, err := NewUnitOfWork(p)
	if err != nil {
		t.Fatalf("NewUnitOfWork: %v", err)
	}
	exec(t, u.Conn(), "INSERT INTO entries (val) VALUES (?)", driver.String("gone"))
	u.Close()

	if n := countRows(t, p, "entries"); n != 0 {
		t.Errorf("entries has %d rows after abandoned unit, want 0", n)
	}
}
