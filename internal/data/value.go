// Package data holds the row values that test data generation searches over.
package data

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind enumerates value kinds.
type Kind int

// Value kinds.
const (
	KindBoolean Kind = iota
	KindNumeric
	KindString
	KindDate
	KindTime
	KindDateTime
	KindTimestamp
)

func (k Kind) String() string {
	switch k {
	case KindBoolean:
		return "boolean"
	case KindNumeric:
		return "numeric"
	case KindString:
		return "string"
	case KindDate:
		return "date"
	case KindTime:
		return "time"
	case KindDateTime:
		return "datetime"
	case KindTimestamp:
		return "timestamp"
	default:
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Compound reports whether values of this kind are a sequence of elements.
func (k Kind) Compound() bool {
	switch k {
	case KindString, KindDate, KindTime, KindDateTime:
		return true
	default:
		return false
	}
}

// Numeric reports whether values of this kind compare as a single integer.
func (k Kind) Numeric() bool {
	return k == KindNumeric || k == KindTimestamp
}

// Width returns the fixed element count of a compound kind, or 0 when variable.
func (k Kind) Width() int {
	switch k {
	case KindDate, KindTime:
		return 3
	case KindDateTime:
		return 6
	default:
		return 0
	}
}

// Value is an immutable typed cell value. The zero Value is a null boolean.
type Value struct {
	kind  Kind
	valid bool
	num   int64
	elems []int64
}

// Null returns the null value of a kind.
func Null(kind Kind) Value {
	return Value{kind: kind}
}

// Bool returns a boolean value.
func Bool(b bool) Value {
	v := Value{kind: KindBoolean, valid: true}
	if b {
		v.num = 1
	}
	return v
}

// Int returns a numeric value.
func Int(n int64) Value {
	return Value{kind: KindNumeric, valid: true, num: n}
}

// Timestamp returns a timestamp value in epoch seconds.
func Timestamp(sec int64) Value {
	return Value{kind: KindTimestamp, valid: true, num: sec}
}

// Str returns a string value.
func Str(s string) Value {
	runes := []rune(s)
	elems := make([]int64, len(runes))
	for i, r := range runes {
		elems[i] = int64(r)
	}
	return Value{kind: KindString, valid: true, elems: elems}
}

// Date returns a date value.
func Date(year, month, day int) Value {
	return Value{kind: KindDate, valid: true, elems: []int64{int64(year), int64(month), int64(day)}}
}

// Time returns a time-of-day value.
func Time(hour, minute, second int) Value {
	return Value{kind: KindTime, valid: true, elems: []int64{int64(hour), int64(minute), int64(second)}}
}

// DateTime returns a date and time value.
func DateTime(year, month, day, hour, minute, second int) Value {
	return Value{kind: KindDateTime, valid: true, elems: []int64{
		int64(year), int64(month), int64(day), int64(hour), int64(minute), int64(second),
	}}
}

// Kind returns the value kind.
func (v Value) Kind() Kind {
	return v.kind
}

// IsNull reports whether the value is null.
func (v Value) IsNull() bool {
	return !v.valid
}

// Bool returns the boolean payload.
func (v Value) Bool() bool {
	return v.num != 0
}

// Int returns the integer payload of numeric, timestamp and boolean values.
func (v Value) Int() int64 {
	return v.num
}

// Len returns the element count of a compound value.
func (v Value) Len() int {
	return len(v.elems)
}

// Element returns the i-th element of a compound value.
func (v Value) Element(i int) int64 {
	return v.elems[i]
}

// Elements returns a copy of the elements of a compound value.
func (v Value) Elements() []int64 {
	out := make([]int64, len(v.elems))
	copy(out, v.elems)
	return out
}

// WithInt returns a non-null value of the same kind carrying n.
func (v Value) WithInt(n int64) Value {
	if v.kind == KindBoolean {
		if n != 0 {
			n = 1
		}
	}
	return Value{kind: v.kind, valid: true, num: n}
}

// WithElements returns a non-null compound value of the same kind.
func (v Value) WithElements(elems []int64) Value {
	out := make([]int64, len(elems))
	copy(out, elems)
	return Value{kind: v.kind, valid: true, elems: out}
}

// Equal reports structural equality. Nulls of the same kind are equal.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind || v.valid != o.valid {
		return false
	}
	if !v.valid {
		return true
	}
	if !v.kind.Compound() {
		return v.num == o.num
	}
	if len(v.elems) != len(o.elems) {
		return false
	}
	for i := range v.elems {
		if v.elems[i] != o.elems[i] {
			return false
		}
	}
	return true
}

// Text renders a non-null value without quoting.
func (v Value) Text() string {
	switch v.kind {
	case KindBoolean:
		if v.Bool() {
			return "TRUE"
		}
		return "FALSE"
	case KindNumeric, KindTimestamp:
		return strconv.FormatInt(v.num, 10)
	case KindString:
		var b strings.Builder
		for _, e := range v.elems {
			b.WriteRune(rune(e))
		}
		return b.String()
	case KindDate:
		return fmt.Sprintf("%04d-%02d-%02d", v.elems[0], v.elems[1], v.elems[2])
	case KindTime:
		return fmt.Sprintf("%02d:%02d:%02d", v.elems[0], v.elems[1], v.elems[2])
	case KindDateTime:
		return fmt.Sprintf("%04d-%02d-%02d %02d:%02d:%02d",
			v.elems[0], v.elems[1], v.elems[2], v.elems[3], v.elems[4], v.elems[5])
	default:
		return ""
	}
}

func (v Value) String() string {
	if !v.valid {
		return "NULL"
	}
	if v.kind == KindString {
		return strconv.Quote(v.Text())
	}
	return v.Text()
}
