package pool

import "github.com/seamdb/seam/driver"

// PooledConn binds one borrowed connection to the pool it came from.
// Acquire it with Pool.Get and release it with a deferred Release so the
// connection returns to the pool on every exit path:
//
//	pc, err := p.Get()
//	if err != nil { ... }
//	defer pc.Release()
//	st, err := pc.Conn().Prepare("DELETE FROM users WHERE id = ?")
//
// PooledConn must not be copied; Release is idempotent, so the connection
// goes back exactly once.
type PooledConn struct {
	pool *Pool
	conn driver.Connection
}

// Get acquires a connection wrapped in a PooledConn guard.
func (p *Pool) Get() (*PooledConn, error) {
	c, err := p.Acquire()
	if err != nil {
		return nil, err
	}
	return &PooledConn{pool: p, conn: c}, nil
}

// Conn exposes the borrowed connection. It returns nil after Release.
func (pc *PooledConn) Conn() driver.Connection {
	return pc.conn
}

// Release returns the connection to the pool. Further calls are no-ops.
func (pc *PooledConn) Release() {
	if pc.conn == nil {
		return
	}
	c := pc.conn
	pc.conn = nil
	pc.pool.Release(c)
}
