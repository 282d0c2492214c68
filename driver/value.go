package driver

import "fmt"

// Kind identifies the variant held by a Value.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindInt64
	KindFloat64
	KindString
	KindBlob
)

// Value is a closed tagged variant for bind parameters. The set of kinds is
// fixed; backends switch on Kind instead of doing open-ended runtime type
// dispatch.
type Value struct {
	kind Kind
	b    bool
	i    int64
	f    float64
	s    string
	raw  []byte
}

// Null returns the SQL NULL value.
func Null() Value { return Value{kind: KindNull} }

// Bool wraps a boolean.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Int64 wraps a 64-bit integer.
func Int64(i int64) Value { return Value{kind: KindInt64, i: i} }

// Float64 wraps a double-precision float.
func Float64(f float64) Value { return Value{kind: KindFloat64, f: f} }

// String wraps a text value.
func String(s string) Value { return Value{kind: KindString, s: s} }

// Blob wraps a binary value. The byte slice is not copied.
func Blob(p []byte) Value { return Value{kind: KindBlob, raw: p} }

// Kind returns the variant tag.
func (v Value) Kind() Kind { return v.kind }

// Arg converts the value into an argument suitable for database/sql.
func (v Value) Arg() any {
	switch v.kind {
	case KindNull:
		return nil
	case KindBool:
		return v.b
	case KindInt64:
		return v.i
	case KindFloat64:
		return v.f
	case KindString:
		return v.s
	case KindBlob:
		return v.raw
	default:
		// Unreachable for values built through the constructors.
		return nil
	}
}

// GoString implements fmt.GoStringer for readable test failures and logs.
func (v Value) GoString() string {
	switch v.kind {
	case KindNull:
		return "driver.Null()"
	case KindBool:
		return fmt.Sprintf("driver.Bool(%v)", v.b)
	case KindInt64:
		return fmt.Sprintf("driver.Int64(%d)", v.i)
	case KindFloat64:
		return fmt.Sprintf("driver.Float64(%g)", v.f)
	case KindString:
		return fmt.Sprintf("driver.String(%q)", v.s)
	case KindBlob:
		return fmt.Sprintf("driver.Blob(%d bytes)", len(v.raw))
	default:
		return "driver.Value(?)"
	}
}
