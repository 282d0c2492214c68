package core

import (
	"errors"
)

var (
	// ErrRecordNotFound is returned when a caller explicitly demands a
	// record that does not exist. Plain reads report absence with a nil
	// result instead.
	ErrRecordNotFound = errors.New("record not found")
	// ErrTxClosed is returned when Commit or Rollback is called on a
	// transaction that has already been committed or rolled back.
	ErrTxClosed = errors.New("transaction already closed")
	// ErrConnectionFailed is returned when a borrowed connection turns out
	// to be unusable, e.g. the session died before a transaction could
	// start.
	ErrConnectionFailed = errors.New("connection failed")
)
