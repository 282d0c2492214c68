package core

import (
	"fmt"

	"github.com/seamdb/seam/driver"
	"github.com/seamdb/seam/pool"
)

// Tx scopes one pooled connection under a transaction. It is created with
// BEGIN already issued and stays active until Commit or Rollback; Close
// rolls back a still-active transaction (suppressing any rollback error)
// and returns the connection to the pool. Always defer Close:
//
//	tx, err := core.Begin(p)
//	if err != nil { ... }
//	defer tx.Close()
//	// ... statements on tx.Conn() ...
//	if err := tx.Commit(); err != nil { ... }
//
// A Tx is bound to a single goroutine; it is not safe for concurrent use.
type Tx struct {
	pc     *pool.PooledConn
	active bool
}

// Begin acquires a connection from the pool and starts a transaction on it.
// On failure the connection is returned to the pool before the error
// surfaces.
func Begin(p *pool.Pool) (*Tx, error) {
	pc, err := p.Get()
	if err != nil {
		return nil, err
	}
	if err := pc.Conn().Begin(); err != nil {
		pc.Release()
		return nil, fmt.Errorf("%w: begin transaction: %v", ErrConnectionFailed, err)
	}
	return &Tx{pc: pc, active: true}, nil
}

// Conn exposes the transaction's connection for statement execution.
func (t *Tx) Conn() driver.Connection {
	return t.pc.Conn()
}

// Commit commits the transaction. The Tx stays active if the commit itself
// fails, so Close will still attempt a rollback.
func (t *Tx) Commit() error {
	if !t.active {
		return ErrTxClosed
	}
	if err := t.pc.Conn().Commit(); err != nil {
		return fmt.Errorf("commit failed: %w", err)
	}
	t.active = false
	return nil
}

// Rollback aborts the transaction. Calling it on an already-closed Tx is a
// no-op.
func (t *Tx) Rollback() error {
	if !t.active {
		return nil
	}
	if err := t.pc.Conn().Rollback(); err != nil {
		return fmt.Errorf("rollback failed: %w", err)
	}
	t.active = false
	return nil
}

// Close rolls back the transaction if it is still active and releases the
// connection back to the pool. It never fails: rollback errors during
// cleanup are suppressed so Close is safe on every exit path.
func (t *Tx) Close() {
	if t.active {
		_ = t.pc.Conn().Rollback()
		t.active = false
	}
	t.pc.Release()
}
