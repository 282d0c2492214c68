// Package migrate applies and reverses file-based SQL migrations.
//
// A migrations directory contains files named `<id>.up.sql` and optionally
// `<id>.down.sql`, where ids sort lexicographically in chronological order
// (e.g. 2024_06_01_120000_create_users). Applied migrations are recorded in
// a bookkeeping table together with the sha256 checksum of the up-script,
// so later content drift is detected and refused.
//
// The runner is meant to be invoked once per process (at startup or from
// the CLI). Two runners racing against the same database are unsupported:
// there is no advisory locking on the bookkeeping table.
package migrate

import (
	"os"
	"sort"
	"time"

	"github.com/pkg/errors"

	"github.com/seamdb/seam/driver"
	"github.com/seamdb/seam/logger"
)

// DefaultTable is the bookkeeping table name used unless SetTable is called.
const DefaultTable = "schema_migrations"

// Runner applies migrations over a single borrowed connection. All durable
// state lives in the bookkeeping table; the runner itself only holds the
// directory path and table name.
type Runner struct {
	conn  driver.Connection
	dir   string
	table string
	log   logger.Logger
}

// NewRunner creates a runner executing against the given connection and
// reading scripts from dir.
func NewRunner(conn driver.Connection, dir string) *Runner {
	return &Runner{conn: conn, dir: dir, table: DefaultTable}
}

// SetTable overrides the bookkeeping table name for this runner.
func (r *Runner) SetTable(name string) {
	r.table = name
}

// SetLogger installs a logger for migration progress. Nil disables logging.
func (r *Runner) SetLogger(l logger.Logger) {
	r.log = l
}

// ApplyAll applies every pending migration in id order, each inside its own
// transaction. Already-applied migrations are verified against their
// recorded checksum and skipped; a checksum mismatch is a hard error. The
// first failure halts the run, leaving later migrations unattempted.
func (r *Runner) ApplyAll() error {
	if err := r.ensureTable(); err != nil {
		return err
	}
	pairs, err := scanPairs(r.dir)
	if err != nil {
		return err
	}

	for _, p := range pairs {
		recorded, applied, err := r.appliedChecksum(p.ID)
		if err != nil {
			return err
		}
		if applied {
			if recorded != p.Checksum {
				return errors.Wrapf(ErrChecksumMismatch,
					"migration %s was modified after being applied (db=%s file=%s)",
					p.ID, recorded, p.Checksum)
			}
			continue
		}

		if err := r.inTransaction(p.ID, func() error {
			if err := r.execScript(p.upSQL); err != nil {
				return err
			}
			return r.markApplied(p.ID, p.Checksum)
		}); err != nil {
			return err
		}
		r.info("applied migration %s", p.ID)
	}
	return nil
}

// Rollback reverses the `steps` most recently applied migrations, one
// transaction each, newest first. "Most recently applied" is the
// lexicographically greatest id in the bookkeeping table; this assumes
// migrations were applied in id order and breaks silently otherwise (a
// documented limitation of the design). steps <= 0 is a no-op.
func (r *Runner) Rollback(steps int) error {
	if steps <= 0 {
		return nil
	}
	if err := r.ensureTable(); err != nil {
		return err
	}
	pairs, err := scanPairs(r.dir)
	if err != nil {
		return err
	}
	byID := make(map[string]Pair, len(pairs))
	for _, p := range pairs {
		byID[p.ID] = p
	}

	for i := 0; i < steps; i++ {
		id, err := r.lastAppliedID()
		if err != nil {
			return err
		}
		if id == "" {
			return errors.WithStack(ErrNothingToRollback)
		}

		p, ok := byID[id]
		if !ok {
			return errors.Errorf("cannot rollback %s: migration files not found on disk", id)
		}
		if p.DownPath == "" {
			return errors.Wrap(ErrMissingDownScript, id)
		}
		downSQL, err := os.ReadFile(p.DownPath)
		if err != nil {
			return errors.Wrapf(err, "read down script %s", p.DownPath)
		}

		if err := r.inTransaction(id, func() error {
			if err := r.execScript(string(downSQL)); err != nil {
				return err
			}
			return r.unmarkApplied(id)
		}); err != nil {
			return err
		}
		r.info("rolled back migration %s", id)
	}
	return nil
}

// State describes one migration for status reporting.
type State struct {
	ID        string
	Applied   bool
	AppliedAt string // empty when pending
	HasDown   bool
	// MissingFiles is true for a recorded migration whose scripts are no
	// longer on disk.
	MissingFiles bool
}

// Status reports every known migration, on disk or recorded, in id order.
func (r *Runner) Status() ([]State, error) {
	if err := r.ensureTable(); err != nil {
		return nil, err
	}
	pairs, err := scanPairs(r.dir)
	if err != nil {
		return nil, err
	}
	records, err := r.appliedRecords()
	if err != nil {
		return nil, err
	}

	var out []State
	seen := make(map[string]bool, len(pairs))
	for _, p := range pairs {
		seen[p.ID] = true
		st := State{ID: p.ID, HasDown: p.DownPath != ""}
		if at, ok := records[p.ID]; ok {
			st.Applied = true
			st.AppliedAt = at
		}
		out = append(out, st)
	}
	for id, at := range records {
		if !seen[id] {
			out = append(out, State{ID: id, Applied: true, AppliedAt: at, MissingFiles: true})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// inTransaction runs fn between BEGIN and COMMIT on the runner's
// connection. On failure it attempts a rollback, suppressing the rollback's
// own error so the original failure is what the caller sees.
func (r *Runner) inTransaction(id string, fn func() error) error {
	if err := r.conn.Begin(); err != nil {
		return errors.Wrapf(err, "migration %s: begin", id)
	}
	if err := fn(); err != nil {
		_ = r.conn.Rollback()
		return errors.Wrapf(err, "migration %s", id)
	}
	if err := r.conn.Commit(); err != nil {
		_ = r.conn.Rollback()
		return errors.Wrapf(err, "migration %s: commit", id)
	}
	return nil
}

func (r *Runner) execScript(script string) error {
	for _, stmt := range SplitStatements(script) {
		if err := r.exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) ensureTable() error {
	sql := "CREATE TABLE IF NOT EXISTS " + r.table + " (" +
		" id VARCHAR(255) NOT NULL PRIMARY KEY," +
		" checksum VARCHAR(64) NOT NULL," +
		" applied_at VARCHAR(64) NOT NULL" +
		")"
	if err := r.exec(sql); err != nil {
		return errors.Wrap(err, "ensure bookkeeping table")
	}
	return nil
}

// appliedChecksum reports whether id is recorded, and with which checksum.
func (r *Runner) appliedChecksum(id string) (string, bool, error) {
	st, err := r.conn.Prepare("SELECT checksum FROM " + r.table + " WHERE id = ?")
	if err != nil {
		return "", false, errors.WithStack(err)
	}
	defer st.Close()

	if err := st.Bind(1, driver.String(id)); err != nil {
		return "", false, errors.WithStack(err)
	}
	rs, err := st.Query()
	if err != nil {
		return "", false, errors.WithStack(err)
	}
	defer rs.Close()

	if !rs.Next() {
		return "", false, errors.WithStack(rs.Err())
	}
	sum, err := rs.Row().String(0)
	if err != nil {
		return "", false, errors.WithStack(err)
	}
	return sum, true, nil
}

func (r *Runner) markApplied(id, sum string) error {
	st, err := r.conn.Prepare("INSERT INTO " + r.table + " (id, checksum, applied_at) VALUES (?, ?, ?)")
	if err != nil {
		return errors.WithStack(err)
	}
	defer st.Close()

	if err := st.Bind(1, driver.String(id)); err != nil {
		return err
	}
	if err := st.Bind(2, driver.String(sum)); err != nil {
		return err
	}
	if err := st.Bind(3, driver.String(time.Now().UTC().Format(time.RFC3339))); err != nil {
		return err
	}
	_, err = st.Exec()
	return errors.WithStack(err)
}

func (r *Runner) unmarkApplied(id string) error {
	st, err := r.conn.Prepare("DELETE FROM " + r.table + " WHERE id = ?")
	if err != nil {
		return errors.WithStack(err)
	}
	defer st.Close()

	if err := st.Bind(1, driver.String(id)); err != nil {
		return err
	}
	_, err = st.Exec()
	return errors.WithStack(err)
}

// lastAppliedID returns the lexicographically greatest recorded id, or ""
// when the table is empty.
func (r *Runner) lastAppliedID() (string, error) {
	st, err := r.conn.Prepare("SELECT id FROM " + r.table + " ORDER BY id DESC LIMIT 1")
	if err != nil {
		return "", errors.WithStack(err)
	}
	defer st.Close()

	rs, err := st.Query()
	if err != nil {
		return "", errors.WithStack(err)
	}
	defer rs.Close()

	if !rs.Next() {
		return "", errors.WithStack(rs.Err())
	}
	id, err := rs.Row().String(0)
	if err != nil {
		return "", errors.WithStack(err)
	}
	return id, nil
}

func (r *Runner) appliedRecords() (map[string]string, error) {
	st, err := r.conn.Prepare("SELECT id, applied_at FROM " + r.table)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	defer st.Close()

	rs, err := st.Query()
	if err != nil {
		return nil, errors.WithStack(err)
	}
	defer rs.Close()

	out := make(map[string]string)
	for rs.Next() {
		row := rs.Row()
		id, err := row.String(0)
		if err != nil {
			return nil, errors.WithStack(err)
		}
		at, err := row.String(1)
		if err != nil {
			return nil, errors.WithStack(err)
		}
		out[id] = at
	}
	return out, errors.WithStack(rs.Err())
}

func (r *Runner) exec(sql string) error {
	st, err := r.conn.Prepare(sql)
	if err != nil {
		return err
	}
	defer st.Close()
	start := time.Now()
	_, err = st.Exec()
	if r.log != nil {
		r.log.SQL(sql, time.Since(start))
	}
	return err
}

func (r *Runner) info(format string, args ...any) {
	if r.log != nil {
		r.log.Info(format, args...)
	}
}
