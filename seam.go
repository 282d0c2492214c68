// Package seam is a thin, driver-agnostic relational database access layer:
// a bounded blocking connection pool, a minimal statement/result
// abstraction, transaction and unit-of-work scopes, a repository
// convenience layer, and a file-based SQL migration runner with checksum
// tracking.
package seam

import (
	"fmt"

	"github.com/seamdb/seam/config"
	"github.com/seamdb/seam/core"
	"github.com/seamdb/seam/driver/sqldriver"
	"github.com/seamdb/seam/pool"
)

// Re-exported core types.
type (
	Tx           = core.Tx
	UnitOfWork   = core.UnitOfWork
	QueryBuilder = core.QueryBuilder
	Pool         = pool.Pool
	PoolConfig   = pool.Config
	PooledConn   = pool.PooledConn
)

var (
	Begin         = core.Begin
	NewUnitOfWork = core.NewUnitOfWork
	NewBuilder    = core.NewBuilder
)

// DB ties a backend source to a connection pool, built from configuration.
type DB struct {
	pool *pool.Pool
	src  *sqldriver.Source
}

// Open selects the backend from cfg, opens it, and builds a pool over its
// connection factory. Call Warmup to pre-create the configured minimum.
func Open(cfg *config.Config) (*DB, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var (
		src *sqldriver.Source
		err error
	)
	switch cfg.Engine {
	case config.EngineMySQL:
		src, err = sqldriver.MySQL(sqldriver.MySQLConfig{
			Host:     cfg.MySQL.Host,
			User:     cfg.MySQL.User,
			Password: cfg.MySQL.Password,
			Database: cfg.MySQL.Database,
		})
	case config.EnginePostgres:
		src, err = sqldriver.Postgres(sqldriver.PostgresConfig{
			Host:     cfg.Postgres.Host,
			User:     cfg.Postgres.User,
			Password: cfg.Postgres.Password,
			Database: cfg.Postgres.Database,
			SSLMode:  cfg.Postgres.SSLMode,
		})
	case config.EngineSQLite:
		src, err = sqldriver.SQLite(cfg.SQLite.Path)
	default:
		return nil, fmt.Errorf("unknown engine %q", cfg.Engine)
	}
	if err != nil {
		return nil, err
	}

	p, err := pool.New(src.Factory(), pool.Config{Min: cfg.Pool.Min, Max: cfg.Pool.Max})
	if err != nil {
		src.Close()
		return nil, err
	}
	return &DB{pool: p, src: src}, nil
}

// Pool exposes the connection pool.
func (db *DB) Pool() *pool.Pool { return db.pool }

// Warmup pre-creates the pool's minimum connections.
func (db *DB) Warmup() error { return db.pool.Warmup() }

// Close tears down the pool and the backend source.
func (db *DB) Close() error {
	perr := db.pool.Close()
	serr := db.src.Close()
	if perr != nil {
		return perr
	}
	return serr
}
