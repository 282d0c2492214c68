package migrate

import "github.com/pkg/errors"

var (
	// ErrDirNotFound indicates the migrations directory does not exist.
	ErrDirNotFound = errors.New("migrations directory not found")
	// ErrChecksumMismatch indicates an applied migration's up-script was
	// modified on disk after it was applied.
	ErrChecksumMismatch = errors.New("migration checksum mismatch")
	// ErrMissingDownScript indicates a rollback was requested for a
	// migration that has no .down.sql on disk.
	ErrMissingDownScript = errors.New("missing down script")
	// ErrNothingToRollback indicates the bookkeeping table has no applied
	// migrations left.
	ErrNothingToRollback = errors.New("no applied migrations to rollback")
)
