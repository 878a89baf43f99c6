package model

import "strconv"

// Kind identifies the concrete type stored in a Value.
type Kind uint8

const (
	// KindInvalid represents an invalid kind.
	KindInvalid Kind = iota
	// KindNull represents a null value.
	KindNull
	// KindInt represents an integer value.
	KindInt
	// KindFloat represents a float value.
	KindFloat
	// KindString represents a string value.
	KindString
	// KindBool represents a boolean value.
	KindBool
	// KindList represents a list value.
	KindList
)

// Value is a small typed value used for reference property bags.
//
// Reference kinds get closed shapes through their builder defaults; Value
// keeps the open extension data typed without resorting to interface{} bags.
type Value struct {
	Kind Kind    `json:"k" yaml:"k"`
	I64  int64   `json:"i,omitempty" yaml:"i,omitempty"`
	F64  float64 `json:"f,omitempty" yaml:"f,omitempty"`
	S    string  `json:"s,omitempty" yaml:"s,omitempty"`
	B    bool    `json:"b,omitempty" yaml:"b,omitempty"`
	L    []Value `json:"l,omitempty" yaml:"l,omitempty"`
}

// Null returns the null value.
func Null() Value { return Value{Kind: KindNull} }

// Int returns an integer value.
func Int(i int64) Value { return Value{Kind: KindInt, I64: i} }

// Float returns a float value.
func Float(f float64) Value { return Value{Kind: KindFloat, F64: f} }

// String returns a string value.
func String(s string) Value { return Value{Kind: KindString, S: s} }

// Bool returns a boolean value.
func Bool(b bool) Value { return Value{Kind: KindBool, B: b} }

// List returns a list value.
func List(vs ...Value) Value { return Value{Kind: KindList, L: vs} }

// AsInt64 returns the integer value and whether the kind matched.
func (v Value) AsInt64() (int64, bool) {
	if v.Kind == KindInt {
		return v.I64, true
	}
	return 0, false
}

// AsFloat64 returns the numeric value as a float and whether the kind was numeric.
func (v Value) AsFloat64() (float64, bool) {
	switch v.Kind {
	case KindFloat:
		return v.F64, true
	case KindInt:
		return float64(v.I64), true
	default:
		return 0, false
	}
}

// AsString returns the string value and whether the kind matched.
func (v Value) AsString() (string, bool) {
	if v.Kind == KindString {
		return v.S, true
	}
	return "", false
}

// AsBool returns the boolean value and whether the kind matched.
func (v Value) AsBool() (bool, bool) {
	if v.Kind == KindBool {
		return v.B, true
	}
	return false, false
}

// Equal reports deep equality of two values.
func (v Value) Equal(o Value) bool {
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case KindInt:
		return v.I64 == o.I64
	case KindFloat:
		return v.F64 == o.F64
	case KindString:
		return v.S == o.S
	case KindBool:
		return v.B == o.B
	case KindList:
		if len(v.L) != len(o.L) {
			return false
		}
		for i := range v.L {
			if !v.L[i].Equal(o.L[i]) {
				return false
			}
		}
		return true
	default:
		return true
	}
}

// GoString returns a debug representation.
func (v Value) GoString() string {
	switch v.Kind {
	case KindNull:
		return "null"
	case KindInt:
		return strconv.FormatInt(v.I64, 10)
	case KindFloat:
		return strconv.FormatFloat(v.F64, 'g', -1, 64)
	case KindString:
		return strconv.Quote(v.S)
	case KindBool:
		return strconv.FormatBool(v.B)
	case KindList:
		s := "["
		for i, e := range v.L {
			if i > 0 {
				s += ", "
			}
			s += e.GoString()
		}
		return s + "]"
	default:
		return "invalid"
	}
}

// Properties is an open key/value bag for type-specific reference data.
type Properties map[string]Value

// Clone returns a deep copy of the bag. A nil bag clones to nil.
func (p Properties) Clone() Properties {
	if p == nil {
		return nil
	}
	out := make(Properties, len(p))
	for k, v := range p {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v Value) Value {
	if v.Kind == KindList && v.L != nil {
		l := make([]Value, len(v.L))
		for i := range v.L {
			l[i] = cloneValue(v.L[i])
		}
		v.L = l
	}
	return v
}

// Merge returns a copy of p overlaid with other. Keys in other win.
func (p Properties) Merge(other Properties) Properties {
	if p == nil && other == nil {
		return nil
	}
	out := make(Properties, len(p)+len(other))
	for k, v := range p {
		out[k] = cloneValue(v)
	}
	for k, v := range other {
		out[k] = cloneValue(v)
	}
	return out
}
