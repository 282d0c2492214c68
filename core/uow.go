package core

import (
	"github.com/seamdb/seam/driver"
	"github.com/seamdb/seam/pool"
)

// UnitOfWork is the public-facing name for one atomic group of operations
// sharing a single connection. It is a facade over Tx with identical
// semantics.
type UnitOfWork struct {
	tx *Tx
}

// NewUnitOfWork starts a unit of work on a connection from the pool.
func NewUnitOfWork(p *pool.Pool) (*UnitOfWork, error) {
	tx, err := Begin(p)
	if err != nil {
		return nil, err
	}
	return &UnitOfWork{tx: tx}, nil
}

// Conn exposes the unit's connection.
func (u *UnitOfWork) Conn() driver.Connection { return u.tx.Conn() }

// Commit commits the unit of work.
func (u *UnitOfWork) Commit() error { return u.tx.Commit() }

// Rollback aborts the unit of work.
func (u *UnitOfWork) Rollback() error { return u.tx.Rollback() }

// Close rolls back if still active and returns the connection to the pool.
func (u *UnitOfWork) Close() { u.tx.Close() }
