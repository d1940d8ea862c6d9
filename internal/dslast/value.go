// Package dslast defines the semantic tree for the contract pricing DSL:
// the node types listed in the language spec, the runtime Value union they
// evaluate to, and the layered Namespace used to resolve names.
package dslast

import (
	"fmt"
	"time"
)

// Kind is the runtime type tag of a Value.
type Kind int

const (
	KindScalar Kind = iota
	KindDate
	KindTimeDelta
	KindVector
	KindBool
)

func (k Kind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindDate:
		return "date"
	case KindTimeDelta:
		return "timedelta"
	case KindVector:
		return "vector"
	case KindBool:
		return "bool"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Value is a value produced by evaluating a node. Exactly one of its fields
// is meaningful, selected by Kind. The zero Value is the scalar 0.
type Value struct {
	kind Kind
	num  float64
	date time.Time
	days int
	vec  []float64
	b    bool
}

// Kind returns the runtime type tag of v.
func (v Value) Kind() Kind { return v.kind }

// NewScalar returns a scalar Value.
func NewScalar(n float64) Value { return Value{kind: KindScalar, num: n} }

// NewDate returns a date Value. The instant is normalised to UTC midnight,
// matching the "UTC-midnight instant" invariant for dates.
func NewDate(t time.Time) Value {
	u := t.UTC()
	midnight := time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
	return Value{kind: KindDate, date: midnight}
}

// NewTimeDelta returns a timedelta Value of the given whole number of days.
func NewTimeDelta(days int) Value { return Value{kind: KindTimeDelta, days: days} }

// NewVector returns a per-path vector Value.
func NewVector(v []float64) Value {
	cp := make([]float64, len(v))
	copy(cp, v)
	return Value{kind: KindVector, vec: cp}
}

// NewBool returns a boolean Value.
func NewBool(b bool) Value { return Value{kind: KindBool, b: b} }

// Scalar returns v's value as a float64. Only valid for KindScalar; callers
// that accept mixed scalar/vector values should check Kind() first (see
// AsVector, which broadcasts a scalar to a requested length).
func (v Value) Scalar() float64 { return v.num }

// Date returns v's value as a UTC-midnight time.Time. Only valid for KindDate.
func (v Value) Date() time.Time { return v.date }

// Days returns v's value as a whole number of days. Only valid for
// KindTimeDelta.
func (v Value) Days() int { return v.days }

// Vector returns v's per-path values. Only valid for KindVector.
func (v Value) Vector() []float64 { return v.vec }

// Bool returns v coerced to a boolean: for KindBool, the underlying bool;
// for KindScalar, nonzero; for KindVector, true if every path is nonzero;
// for other kinds, true (a Date/TimeDelta is always "truthy").
func (v Value) Bool() bool {
	switch v.kind {
	case KindBool:
		return v.b
	case KindScalar:
		return v.num != 0
	case KindVector:
		for _, x := range v.vec {
			if x == 0 {
				return false
			}
		}
		return len(v.vec) > 0
	default:
		return true
	}
}

// AsVector returns v broadcast to a vector of the given length. Scalars and
// bools are repeated across every path; an existing vector of a different
// length than pathCount is an error (callers only call this once pathCount
// is known to be consistent across the evaluation).
func (v Value) AsVector(pathCount int) ([]float64, error) {
	switch v.kind {
	case KindVector:
		if len(v.vec) != pathCount {
			return nil, fmt.Errorf("vector of length %d does not match path count %d", len(v.vec), pathCount)
		}
		return v.vec, nil
	case KindScalar:
		out := make([]float64, pathCount)
		for i := range out {
			out[i] = v.num
		}
		return out, nil
	case KindBool:
		n := 0.0
		if v.b {
			n = 1.0
		}
		out := make([]float64, pathCount)
		for i := range out {
			out[i] = n
		}
		return out, nil
	default:
		return nil, fmt.Errorf("cannot treat a %s as a vector", v.kind)
	}
}

// IsVector reports whether v is a per-path vector.
func (v Value) IsVector() bool { return v.kind == KindVector }

// Len returns the vector length of v, or 1 for non-vector kinds.
func (v Value) Len() int {
	if v.kind == KindVector {
		return len(v.vec)
	}
	return 1
}

// CanonicalKey returns a string uniquely identifying v's value (not its
// identity) for use as part of a memoisation key: numbers by value, dates
// by instant, timedeltas by day count. Vectors are not valid memoisation
// keys (they are per-path and not hashable in any canonical finite form);
// passing one panics, since the stubber never passes a vector as a
// FunctionDef argument value in canonical position (values destined for
// the memo key are computed before any Market-derived vector enters scope).
func (v Value) CanonicalKey() string {
	switch v.kind {
	case KindScalar:
		return fmt.Sprintf("n:%v", v.num)
	case KindDate:
		return fmt.Sprintf("d:%d", v.date.Unix())
	case KindTimeDelta:
		return fmt.Sprintf("t:%d", v.days)
	case KindBool:
		return fmt.Sprintf("b:%t", v.b)
	default:
		panic("vector value cannot serve as a canonical memoisation key")
	}
}

func (v Value) String() string {
	switch v.kind {
	case KindScalar:
		return fmt.Sprintf("%v", v.num)
	case KindDate:
		return v.date.Format("2006-01-02")
	case KindTimeDelta:
		return fmt.Sprintf("%dd", v.days)
	case KindBool:
		return fmt.Sprintf("%t", v.b)
	case KindVector:
		return fmt.Sprintf("<vector len=%d>", len(v.vec))
	default:
		return fmt.Sprintf("Value(%s)", v.kind)
	}
}
