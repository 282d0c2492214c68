package sqldriver

import (
	"fmt"

	_ "github.com/mattn/go-sqlite3" // registers the "sqlite3" driver
)

// SQLite opens a Source backed by a SQLite database file. Use ":memory:"
// with care: each pooled connection would see its own private database, so
// in-memory SQLite should be paired with a pool of max 1 or a shared-cache
// DSN.
func SQLite(path string) (*Source, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite: path is required")
	}
	return Open("sqlite3", path)
}
