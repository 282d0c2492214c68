package core

import (
	"context"

	"github.com/seamdb/seam/driver"
)

// Query describes one repository read about to be executed. Middlewares may
// inspect it, short-circuit it (e.g. a cache hit filling Dest), or pass it
// on to next.
type Query struct {
	// SQL is the statement text with `?` placeholders.
	SQL string
	// Args are the positional parameters.
	Args []driver.Value
	// Table is the repository's table name.
	Table string
	// Dest is a pointer to the slice the results are decoded into.
	Dest any
}

// Result reports how a read was satisfied.
type Result struct {
	// Rows is the number of rows placed in Query.Dest.
	Rows int
	// FromCache is true when a middleware answered without hitting the
	// database.
	FromCache bool
}

// QueryFunc is the next step in a middleware chain.
type QueryFunc func(ctx context.Context, q *Query) (*Result, error)

// QueryMiddleware intercepts repository reads. Implementations must call
// next unless they fully satisfy the query themselves.
type QueryMiddleware interface {
	Name() string
	Process(ctx context.Context, q *Query, next QueryFunc) (*Result, error)
}

func chain(mws []QueryMiddleware, final QueryFunc) QueryFunc {
	next := final
	for i := len(mws) - 1; i >= 0; i-- {
		mw := mws[i]
		inner := next
		next = func(ctx context.Context, q *Query) (*Result, error) {
			return mw.Process(ctx, q, inner)
		}
	}
	return next
}
