package sqldriver

import (
	"fmt"
	"strconv"
	"strings"

	_ "github.com/lib/pq" // registers the "postgres" driver
)

// PostgresConfig holds the connection parameters for a PostgreSQL backend.
//
// Statements are written with `?` markers like on every other backend; they
// are rewritten to PostgreSQL's $1-style placeholders at Prepare time.
//
// Note: PostgreSQL does not report LastInsertID through the wire protocol;
// callers needing generated keys on this backend should use RETURNING
// clauses.
type PostgresConfig struct {
	Host     string // host:port, e.g. "127.0.0.1:5432"
	User     string
	Password string
	Database string
	SSLMode  string // defaults to "disable"
}

// Postgres opens a Source backed by lib/pq.
func Postgres(cfg PostgresConfig) (*Source, error) {
	if cfg.Host == "" || cfg.Database == "" {
		return nil, fmt.Errorf("postgres: host and database are required")
	}
	sslmode := cfg.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	host, port := cfg.Host, ""
	if i := strings.LastIndexByte(cfg.Host, ':'); i >= 0 {
		host, port = cfg.Host[:i], cfg.Host[i+1:]
	}
	parts := []string{
		"host=" + host,
		"dbname=" + cfg.Database,
		"sslmode=" + sslmode,
	}
	if port != "" {
		parts = append(parts, "port="+port)
	}
	if cfg.User != "" {
		parts = append(parts, "user="+cfg.User)
	}
	if cfg.Password != "" {
		parts = append(parts, "password="+cfg.Password)
	}
	src, err := Open("postgres", strings.Join(parts, " "))
	if err != nil {
		return nil, err
	}
	src.rebind = dollarPlaceholders
	return src, nil
}

// dollarPlaceholders rewrites `?` markers to $1..$n form, leaving `?`
// characters inside single-quoted literals and double-quoted identifiers
// untouched. Escaped quotes and dollar-quoting are not understood, matching
// the statement scanner used by the migration runner.
func dollarPlaceholders(query string) string {
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	inSingle, inDouble := false, false
	for i := 0; i < len(query); i++ {
		c := query[i]
		switch {
		case c == '\'' && !inDouble:
			inSingle = !inSingle
		case c == '"' && !inSingle:
			inDouble = !inDouble
		case c == '?' && !inSingle && !inDouble:
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}
