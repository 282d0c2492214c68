// Package config loads seam configuration from YAML and applies defaults.
//
// Example file:
//
//	engine: mysql
//	mysql:
//	  host: 127.0.0.1:3306
//	  user: root
//	  password: secret
//	  database: appdb
//	pool:
//	  min: 2
//	  max: 10
//	migrations:
//	  dir: db/migrations
//	  table: schema_migrations
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Engine selects the database backend.
type Engine string

const (
	EngineMySQL    Engine = "mysql"
	EnginePostgres Engine = "postgres"
	EngineSQLite   Engine = "sqlite"
)

// MySQL holds MySQL connection parameters.
type MySQL struct {
	Host     string `yaml:"host"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
}

// Postgres holds PostgreSQL connection parameters.
type Postgres struct {
	Host     string `yaml:"host"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"sslmode"`
}

// SQLite holds SQLite parameters.
type SQLite struct {
	Path string `yaml:"path"`
}

// Pool bounds the connection pool.
type Pool struct {
	Min int `yaml:"min"`
	Max int `yaml:"max"`
}

// Migrations locates the migration scripts and bookkeeping table.
type Migrations struct {
	Dir   string `yaml:"dir"`
	Table string `yaml:"table"`
}

// Config is the full seam configuration.
type Config struct {
	Engine     Engine     `yaml:"engine"`
	MySQL      MySQL      `yaml:"mysql"`
	Postgres   Postgres   `yaml:"postgres"`
	SQLite     SQLite     `yaml:"sqlite"`
	Pool       Pool       `yaml:"pool"`
	Migrations Migrations `yaml:"migrations"`
}

// Default returns the configuration defaults: SQLite engine, pool 1..8,
// migrations in ./migrations tracked in schema_migrations.
func Default() *Config {
	return &Config{
		Engine:     EngineSQLite,
		Pool:       Pool{Min: 1, Max: 8},
		Migrations: Migrations{Dir: "migrations", Table: "schema_migrations"},
	}
}

// Load reads a YAML file over the defaults and validates the result.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks engine selection, backend parameters and pool bounds.
func (c *Config) Validate() error {
	switch c.Engine {
	case EngineMySQL:
		if c.MySQL.Host == "" || c.MySQL.Database == "" {
			return fmt.Errorf("mysql engine requires host and database")
		}
	case EnginePostgres:
		if c.Postgres.Host == "" || c.Postgres.Database == "" {
			return fmt.Errorf("postgres engine requires host and database")
		}
	case EngineSQLite:
		if c.SQLite.Path == "" {
			return fmt.Errorf("sqlite engine requires a path")
		}
	default:
		return fmt.Errorf("unknown engine %q", c.Engine)
	}

	if c.Pool.Min < 0 || c.Pool.Max < 1 || c.Pool.Min > c.Pool.Max {
		return fmt.Errorf("invalid pool bounds min=%d max=%d", c.Pool.Min, c.Pool.Max)
	}
	if c.Migrations.Dir == "" {
		return fmt.Errorf("migrations dir must not be empty")
	}
	if c.Migrations.Table == "" {
		return fmt.Errorf("migrations table must not be empty")
	}
	return nil
}
