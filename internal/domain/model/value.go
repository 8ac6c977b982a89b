package model

import (
	"encoding/json"
	"math"
	"strconv"
)

// Kind tags the variant held by a Value.
type Kind uint8

// Value kinds.
const (
	KindNull Kind = iota
	KindString
	KindNumber
)

// Value is a scalar cell: null, string or finite number.
type Value struct {
	kind Kind
	str  string
	num  float64
}

// Null returns the null value.
func Null() Value { return Value{} }

// StringValue wraps s.
func StringValue(s string) Value { return Value{kind: KindString, str: s} }

// NumberValue wraps f. Non-finite numbers become Null.
func NumberValue(f float64) Value {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Null()
	}
	return Value{kind: KindNumber, num: f}
}

// Accessors.
func (v Value) Kind() Kind   { return v.kind }
func (v Value) IsNull() bool { return v.kind == KindNull }
func (v Value) Str() string  { return v.str }
func (v Value) Num() float64 { return v.num }

// Text renders the value as text; null renders as the empty string.
func (v Value) Text() string {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	default:
		return ""
	}
}

// Interface returns the value as nil, string or float64.
func (v Value) Interface() any {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		return v.num
	default:
		return nil
	}
}

// MarshalJSON encodes as null, a JSON string or a JSON number.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindString:
		return json.Marshal(v.str)
	case KindNumber:
		return []byte(strconv.FormatFloat(v.num, 'g', -1, 64)), nil
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON decodes null, strings and numbers; anything else is an error.
func (v *Value) UnmarshalJSON(b []byte) error {
	var raw any
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	switch t := raw.(type) {
	case nil:
		*v = Null()
	case string:
		*v = StringValue(t)
	case float64:
		*v = NumberValue(t)
	default:
		return ErrUnsupportedValue
	}
	return nil
}
