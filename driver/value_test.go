package driver

import (
	"reflect"
	"testing"
)

func TestValueKindsAndArgs(t *testing.T) {
	cases := []struct {
		name string
		v    Value
		kind Kind
		arg  any
	}{
		{"null", Null(), KindNull, nil},
		{"bool", Bool(true), KindBool, true},
		{"int64", Int64(-42), KindInt64, int64(-42)},
		{"float64", Float64(2.5), KindFloat64, 2.5},
		{"string", String("hi"), KindString, "hi"},
		{"blob", Blob([]byte{0x00, 0xff}), KindBlob, []byte{0x00, 0xff}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if tc.v.Kind() != tc.kind {
				t.Errorf("Kind() = %v, want %v", tc.v.Kind(), tc.kind)
			}
			if !reflect.DeepEqual(tc.v.Arg(), tc.arg) {
				t.Errorf("Arg() = %#v, want %#v", tc.v.Arg(), tc.arg)
			}
		})
	}
}

func TestValueZeroIsNull(t *testing.T) {
	var v Value
	if v.Kind() != KindNull {
		t.Errorf("zero Value kind = %v, want KindNull", v.Kind())
	}
	if v.Arg() != nil {
		t.Errorf("zero Value arg = %#v, want nil", v.Arg())
	}
}

func TestValueGoString(t *testing.T) {
	if got := String("a'b").GoString(); got != `driver.String("a'b")` {
		t.Errorf("GoString = %s", got)
	}
	if got := Blob(make([]byte, 3)).GoString(); got != "driver.Blob(3 bytes)" {
		t.Errorf("GoString = %s", got)
	}
}
