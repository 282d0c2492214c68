// Package pool provides a bounded, lazily-grown pool of database
// connections with blocking acquisition, plus a scope guard (PooledConn)
// that guarantees release.
package pool

import (
	"errors"
	"fmt"
	"sync"

	"github.com/seamdb/seam/driver"
	"github.com/seamdb/seam/logger"
)

// ErrClosed is returned by Acquire after the pool has been closed.
var ErrClosed = errors.New("pool is closed")

// Config bounds the pool. Zero values fall back to the defaults.
type Config struct {
	// Min is the number of connections Warmup creates up front.
	Min int
	// Max is the hard cap on connections ever alive at once.
	Max int
}

const (
	defaultMin = 1
	defaultMax = 8
)

// Pool hands out connections to at most Max concurrent holders. Idle
// connections are reused FIFO before new ones are created; when the pool is
// saturated, Acquire blocks until a holder calls Release. There is no
// acquire timeout: a caller that never sees a release blocks forever.
type Pool struct {
	factory driver.Factory
	cfg     Config
	log     logger.Logger

	mu     sync.Mutex
	cond   *sync.Cond
	idle   []driver.Connection
	total  int
	closed bool
}

// New creates a pool over the given connection factory. No connections are
// created until Warmup or the first Acquire.
func New(factory driver.Factory, cfg Config) (*Pool, error) {
	if factory == nil {
		return nil, errors.New("pool: nil factory")
	}
	if cfg.Min == 0 {
		cfg.Min = defaultMin
	}
	if cfg.Max == 0 {
		cfg.Max = defaultMax
	}
	if cfg.Min < 0 || cfg.Max < 1 || cfg.Min > cfg.Max {
		return nil, fmt.Errorf("pool: invalid config min=%d max=%d", cfg.Min, cfg.Max)
	}
	p := &Pool{factory: factory, cfg: cfg}
	p.cond = sync.NewCond(&p.mu)
	return p, nil
}

// SetLogger installs a logger for pool lifecycle events. Nil disables
// logging (the default).
func (p *Pool) SetLogger(l logger.Logger) {
	p.log = l
}

// Warmup synchronously creates Min connections and parks them in the idle
// queue. It is a one-time setup call, not meant to run concurrently with
// itself.
func (p *Pool) Warmup() error {
	for {
		p.mu.Lock()
		if p.closed {
			p.mu.Unlock()
			return ErrClosed
		}
		if p.total >= p.cfg.Min {
			p.mu.Unlock()
			return nil
		}
		p.total++
		p.mu.Unlock()

		c, err := p.factory()
		if err != nil {
			p.mu.Lock()
			p.total--
			p.mu.Unlock()
			return fmt.Errorf("pool warmup: %w", err)
		}

		p.mu.Lock()
		p.idle = append(p.idle, c)
		p.mu.Unlock()
		p.cond.Signal()
	}
}

// Acquire returns a connection for exclusive use by the caller. It reuses
// the oldest idle connection if one exists, grows the pool if under Max,
// and otherwise blocks until a connection is released.
func (p *Pool) Acquire() (driver.Connection, error) {
	p.mu.Lock()
	for {
		if p.closed {
			p.mu.Unlock()
			return nil, ErrClosed
		}

		if len(p.idle) > 0 {
			c := p.idle[0]
			p.idle = p.idle[1:]
			p.mu.Unlock()
			return c, nil
		}

		if p.total < p.cfg.Max {
			// Reserve a slot, then create outside the lock: the factory
			// does I/O and must not stall other pool operations.
			p.total++
			p.mu.Unlock()

			c, err := p.factory()
			if err != nil {
				// Give the slot back, or the pool would permanently
				// under-report capacity.
				p.mu.Lock()
				p.total--
				p.mu.Unlock()
				p.cond.Signal()
				return nil, fmt.Errorf("pool: create connection: %w", err)
			}
			if p.log != nil {
				total, _ := p.Stats()
				p.log.Info("pool: created connection (%d/%d)", total, p.cfg.Max)
			}
			return c, nil
		}

		p.cond.Wait()
	}
}

// Release returns a connection to the pool and wakes one blocked Acquire.
// A nil connection is ignored. Releasing into a closed pool closes the
// connection instead.
func (p *Pool) Release(c driver.Connection) {
	if c == nil {
		return
	}
	p.mu.Lock()
	if p.closed {
		p.total--
		p.mu.Unlock()
		_ = c.Close()
		return
	}
	p.idle = append(p.idle, c)
	p.mu.Unlock()
	p.cond.Signal()
}

// Close marks the pool closed, wakes all blocked acquirers (they receive
// ErrClosed) and closes every idle connection. Borrowed connections are
// closed as they are released.
func (p *Pool) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	idle := p.idle
	p.idle = nil
	p.total -= len(idle)
	p.mu.Unlock()
	p.cond.Broadcast()

	var first error
	for _, c := range idle {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Stats reports the current total and idle connection counts.
func (p *Pool) Stats() (total, idle int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.total, len(p.idle)
}
