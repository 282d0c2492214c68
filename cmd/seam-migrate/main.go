// Command seam-migrate applies, reverses and reports file-based SQL
// migrations against a configured database.
//
//	seam-migrate --engine mysql --host 127.0.0.1:3306 --user root --database appdb migrate
//	seam-migrate --engine sqlite --sqlite-path app.db rollback --steps 1
//	seam-migrate --config seam.yaml status
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v3"

	"github.com/seamdb/seam"
	"github.com/seamdb/seam/config"
	"github.com/seamdb/seam/logger"
	"github.com/seamdb/seam/migrate"
)

func main() {
	if err := newApp().Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "seam-migrate: error: %v\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:  "seam-migrate",
		Usage: "Apply and reverse file-based SQL migrations",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config",
				Usage: "YAML config file (flags override nothing when set)",
			},
			&cli.StringFlag{
				Name:  "engine",
				Usage: "database engine: mysql, postgres or sqlite",
				Value: "sqlite",
			},
			&cli.StringFlag{
				Name:  "host",
				Usage: "database host:port (mysql/postgres)",
			},
			&cli.StringFlag{
				Name:  "user",
				Usage: "database user",
			},
			&cli.StringFlag{
				Name:  "password",
				Usage: "database password",
			},
			&cli.StringFlag{
				Name:  "database",
				Usage: "database name",
			},
			&cli.StringFlag{
				Name:  "sqlite-path",
				Usage: "database file path (sqlite)",
			},
			&cli.StringFlag{
				Name:    "dir",
				Aliases: []string{"d"},
				Usage:   "migrations directory",
				Value:   "migrations",
			},
			&cli.StringFlag{
				Name:  "table",
				Usage: "bookkeeping table name",
				Value: migrate.DefaultTable,
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "log every executed statement",
			},
		},
		Commands: []*cli.Command{
			migrateCmd(),
			rollbackCmd(),
			statusCmd(),
		},
	}
}

func migrateCmd() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Apply all pending migrations",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return withRunner(cmd, func(r *migrate.Runner) error {
				return r.ApplyAll()
			})
		},
	}
}

func rollbackCmd() *cli.Command {
	return &cli.Command{
		Name:  "rollback",
		Usage: "Roll back the most recently applied migrations",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:     "steps",
				Usage:    "number of migrations to roll back",
				Required: true,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			steps := int(cmd.Int("steps"))
			if steps < 1 {
				return errors.New("--steps must be >= 1")
			}
			return withRunner(cmd, func(r *migrate.Runner) error {
				return r.Rollback(steps)
			})
		},
	}
}

func statusCmd() *cli.Command {
	return &cli.Command{
		Name:  "status",
		Usage: "Show applied and pending migrations",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return withRunner(cmd, func(r *migrate.Runner) error {
				states, err := r.Status()
				if err != nil {
					return err
				}
				if len(states) == 0 {
					fmt.Println("no migrations found")
					return nil
				}
				for _, s := range states {
					mark, detail := "pending", ""
					if s.Applied {
						mark, detail = "applied", s.AppliedAt
					}
					if s.MissingFiles {
						detail += " (files missing on disk)"
					}
					fmt.Printf("%-50s %-8s %s\n", s.ID, mark, detail)
				}
				return nil
			})
		},
	}
}

// withRunner opens the configured database, borrows one pooled connection
// and hands a ready migration runner to fn, cleaning up on every path.
func withRunner(cmd *cli.Command, fn func(*migrate.Runner) error) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}

	db, err := seam.Open(cfg)
	if err != nil {
		return errors.Wrap(err, "open database")
	}
	defer db.Close()

	pc, err := db.Pool().Get()
	if err != nil {
		return err
	}
	defer pc.Release()

	r := migrate.NewRunner(pc.Conn(), cfg.Migrations.Dir)
	r.SetTable(cfg.Migrations.Table)

	log := logger.New()
	if !cmd.Bool("verbose") {
		log.SetLevel(logger.LevelWarn)
	}
	r.SetLogger(log)

	return fn(r)
}

func buildConfig(cmd *cli.Command) (*config.Config, error) {
	if path := cmd.String("config"); path != "" {
		return config.Load(path)
	}

	cfg := config.Default()
	cfg.Engine = config.Engine(cmd.String("engine"))
	cfg.MySQL = config.MySQL{
		Host:     cmd.String("host"),
		User:     cmd.String("user"),
		Password: cmd.String("password"),
		Database: cmd.String("database"),
	}
	cfg.Postgres = config.Postgres{
		Host:     cmd.String("host"),
		User:     cmd.String("user"),
		Password: cmd.String("password"),
		Database: cmd.String("database"),
	}
	cfg.SQLite.Path = cmd.String("sqlite-path")
	cfg.Migrations.Dir = cmd.String("dir")
	cfg.Migrations.Table = cmd.String("table")

	// The CLI holds a single connection for the whole run.
	cfg.Pool.Min = 1
	cfg.Pool.Max = 1

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
