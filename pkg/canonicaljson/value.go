// Package canonicaljson implements the single-valued byte representation for
// any JSON-shaped value described in the specification's §4.A. It is the
// foundation every other hash in SIGNIA builds on: two logically equal values
// always produce byte-identical output, independent of host, time, or the
// order in which an object's keys were discovered.
//
// This package intentionally does not use encoding/json's generic
// map[string]interface{} as its working representation (the approach
// github.com/gowebpki/jcs and most RFC 8785 libraries take) because that
// representation cannot express two things the specification requires:
// explicit duplicate-key detection, and integer-only numeric semantics. A
// Go map silently collapses duplicate keys and silently accepts float64.
// Value is instead an explicit, ordered algebraic type that a parser or a
// producer builds up, and that Marshal validates before ever touching bytes.
package canonicaljson

import (
	"fmt"
	"math"

	"github.com/signia-project/signia/pkg/errs"
)

// Kind discriminates the variant held by a Value.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindString
	KindArray
	KindObject
)

// Value is a recursive JSON-shaped value: null | bool | integer | string |
// array[Value] | object[string -> Value]. There is deliberately no float
// variant — §4.A mandates rejecting non-integer floats at encode time, so
// FromAny converts an exact-integer float64 into KindInt and rejects the rest
// up front rather than carrying a variant that can never legally reach bytes.
type Value struct {
	kind Kind
	b    bool
	i    int64
	s    string
	arr  []Value
	obj  []Member
}

// Member is a single key/value pair of an object, in the order supplied to
// Object. Marshal re-sorts members by key; Object itself preserves insertion
// order so callers who already have sorted input (schema emission does, per
// §4.D) pay no extra sort cost beyond a single pass.
type Member struct {
	Key   string
	Value Value
}

func Null() Value                { return Value{kind: KindNull} }
func Bool(b bool) Value          { return Value{kind: KindBool, b: b} }
func Int(i int64) Value          { return Value{kind: KindInt, i: i} }
func Str(s string) Value         { return Value{kind: KindString, s: s} }
func Array(vs ...Value) Value    { return Value{kind: KindArray, arr: vs} }
func ArraySlice(vs []Value) Value {
	return Value{kind: KindArray, arr: vs}
}
func Object(members ...Member) Value { return Value{kind: KindObject, obj: members} }

func (v Value) Kind() Kind { return v.kind }
func (v Value) IsNull() bool { return v.kind == KindNull }
func (v Value) Bool() bool    { return v.b }
func (v Value) Int() int64    { return v.i }
func (v Value) String() string { return v.s }
func (v Value) Array() []Value { return v.arr }
func (v Value) Members() []Member { return v.obj }

// Get returns the value for key in an object Value, and whether it was
// present. It does not sort or deduplicate — use Marshal for that — so
// behavior on a Value with duplicate keys is "first match wins".
func (v Value) Get(key string) (Value, bool) {
	for _, m := range v.obj {
		if m.Key == key {
			return m.Value, true
		}
	}
	return Value{}, false
}

// Equal reports deep structural equality. Object member order does not
// matter for equality (two objects with the same keys/values in different
// orders are the same logical value, per §3's value model). Equal does not
// detect duplicate keys: it compares objects through a key map in which a
// later duplicate overwrites an earlier one, so callers should Marshal first
// to detect duplicates rather than relying on Equal to do so.
func Equal(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindNull:
		return true
	case KindBool:
		return a.b == b.b
	case KindInt:
		return a.i == b.i
	case KindString:
		return a.s == b.s
	case KindArray:
		if len(a.arr) != len(b.arr) {
			return false
		}
		for i := range a.arr {
			if !Equal(a.arr[i], b.arr[i]) {
				return false
			}
		}
		return true
	case KindObject:
		if len(a.obj) != len(b.obj) {
			return false
		}
		am := map[string]Value{}
		for _, m := range a.obj {
			am[m.Key] = m.Value
		}
		for _, m := range b.obj {
			av, ok := am[m.Key]
			if !ok || !Equal(av, m.Value) {
				return false
			}
		}
		return true
	}
	return false
}

// FromAny converts a generic Go value (the shape produced by
// encoding/json.Unmarshal into interface{}, or hand-built map/slice literals)
// into a Value. Floats are accepted only when they have an exact integer
// value; any other float is InvalidValue, per §4.A's rationale that IEEE
// floats have no single-valued textual form.
func FromAny(v any) (Value, error) {
	switch t := v.(type) {
	case nil:
		return Null(), nil
	case bool:
		return Bool(t), nil
	case string:
		return Str(t), nil
	case int:
		return Int(int64(t)), nil
	case int32:
		return Int(int64(t)), nil
	case int64:
		return Int(t), nil
	case uint:
		return Int(int64(t)), nil
	case uint64:
		if t > math.MaxInt64 {
			return Value{}, errs.New(errs.KindSerialization, "canonical.number.range", "unsigned integer exceeds int64 range")
		}
		return Int(int64(t)), nil
	case float64:
		if math.Trunc(t) != t || math.IsInf(t, 0) || math.IsNaN(t) {
			return Value{}, errs.New(errs.KindSerialization, "canonical.number.noninteger", fmt.Sprintf("non-integer float %v has no canonical representation", t))
		}
		return Int(int64(t)), nil
	case []any:
		out := make([]Value, len(t))
		for i, e := range t {
			cv, err := FromAny(e)
			if err != nil {
				return Value{}, err
			}
			out[i] = cv
		}
		return ArraySlice(out), nil
	case []Value:
		return ArraySlice(t), nil
	case map[string]any:
		members := make([]Member, 0, len(t))
		for k, e := range t {
			cv, err := FromAny(e)
			if err != nil {
				return Value{}, err
			}
			members = append(members, Member{Key: k, Value: cv})
		}
		return Object(members...), nil
	case Value:
		return t, nil
	default:
		return Value{}, errs.New(errs.KindSerialization, "canonical.value.unsupported", fmt.Sprintf("unsupported type %T", v))
	}
}
