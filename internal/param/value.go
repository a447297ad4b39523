package param

import (
	"errors"
	"fmt"
	"strconv"
)

var ErrType = errors.New("param: value has wrong type")

type Kind int

const (
	KindBool Kind = iota + 1
	KindFloat
)

func (k Kind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindFloat:
		return "double"
	default:
		return "unset"
	}
}

// Value is a bool or a float64.
type Value struct {
	kind Kind
	b    bool
	f    float64
}

func BoolValue(b bool) Value     { return Value{kind: KindBool, b: b} }
func FloatValue(f float64) Value { return Value{kind: KindFloat, f: f} }

func (v Value) Kind() Kind { return v.kind }

func (v Value) Bool() (bool, error) {
	if v.kind != KindBool {
		return false, fmt.Errorf("%w: want bool, got %s", ErrType, v.kind)
	}
	return v.b, nil
}

func (v Value) Float() (float64, error) {
	if v.kind != KindFloat {
		return 0, fmt.Errorf("%w: want double, got %s", ErrType, v.kind)
	}
	return v.f, nil
}

func (v Value) String() string {
	switch v.kind {
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	default:
		return "<unset>"
	}
}

// ParseValue reads s as a value of kind k.
func ParseValue(k Kind, s string) (Value, error) {
	switch k {
	case KindBool:
		b, err := strconv.ParseBool(s)
		if err != nil {
			return Value{}, fmt.Errorf("%w: %q is not a bool", ErrType, s)
		}
		return BoolValue(b), nil
	case KindFloat:
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return Value{}, fmt.Errorf("%w: %q is not a double", ErrType, s)
		}
		return FloatValue(f), nil
	}
	return Value{}, fmt.Errorf("%w: unknown kind %d", ErrType, int(k))
}

// Parameter is a named value as delivered by the host.
type Parameter struct {
	Name  string
	Value Value
}

func Bool(name string, b bool) Parameter     { return Parameter{Name: name, Value: BoolValue(b)} }
func Float(name string, f float64) Parameter { return Parameter{Name: name, Value: FloatValue(f)} }
