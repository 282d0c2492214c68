package core

import (
	"strings"

	"github.com/seamdb/seam/driver"
)

// QueryBuilder accumulates a SQL string with `?` placeholders and its
// positional parameters. It does no dialect translation and no validation;
// it is string plumbing for callers composing ad-hoc queries:
//
//	qb := core.NewBuilder().
//		Raw("SELECT * FROM users WHERE age >= ?").Param(driver.Int64(18)).
//		Space().Raw("ORDER BY id")
type QueryBuilder struct {
	sql    strings.Builder
	params []driver.Value
}

// NewBuilder returns an empty builder.
func NewBuilder() *QueryBuilder {
	return &QueryBuilder{}
}

// Raw appends literal SQL text.
func (b *QueryBuilder) Raw(s string) *QueryBuilder {
	b.sql.WriteString(s)
	return b
}

// Space appends a single space.
func (b *QueryBuilder) Space() *QueryBuilder {
	b.sql.WriteByte(' ')
	return b
}

// Param appends one positional parameter.
func (b *QueryBuilder) Param(v driver.Value) *QueryBuilder {
	b.params = append(b.params, v)
	return b
}

// SQL returns the accumulated SQL text.
func (b *QueryBuilder) SQL() string {
	return b.sql.String()
}

// Params returns the accumulated parameters in insertion order.
func (b *QueryBuilder) Params() []driver.Value {
	return b.params
}
