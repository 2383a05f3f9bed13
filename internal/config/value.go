package config

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// Value is a node of the configuration tree. The set of implementations is
// closed: String, Int, Float, Bool, Null, Pair, List and Map.
type Value interface {
	isValue()
}

// String is a text scalar such as camera.exposure.
type String string

// Int is an integer scalar.
type Int int64

// Float is a floating point scalar.
type Float float64

// Bool is a boolean scalar.
type Bool bool

// Null is an explicit empty value written as ~ in YAML.
type Null struct{}

// Pair is a pair of integers such as camera.resolution.
type Pair [2]int64

// List is a sequence that is not a Pair.
type List []Value

// Map is a nested section keyed by parameter name.
type Map map[string]Value

func (String) isValue() {}
func (Int) isValue()    {}
func (Float) isValue()  {}
func (Bool) isValue()   {}
func (Null) isValue()   {}
func (Pair) isValue()   {}
func (List) isValue()   {}
func (Map) isValue()    {}

// Clone returns a deep copy of the map.
func (m Map) Clone() Map {
	out := make(Map, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

// Keys returns the map keys in sorted order.
func (m Map) Keys() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func cloneValue(v Value) Value {
	switch t := v.(type) {
	case Map:
		return t.Clone()
	case List:
		if t == nil {
			return List(nil)
		}
		out := make(List, len(t))
		for i, item := range t {
			out[i] = cloneValue(item)
		}
		return out
	default:
		// scalars and Pair are plain values
		return v
	}
}

// Plain converts a Value into the generic shape understood by the YAML and
// JSON encoders: map[string]interface{}, []interface{} and scalars.
func Plain(v Value) interface{} {
	switch t := v.(type) {
	case String:
		return string(t)
	case Int:
		return int64(t)
	case Float:
		return float64(t)
	case Bool:
		return bool(t)
	case Null, nil:
		return nil
	case Pair:
		return []interface{}{t[0], t[1]}
	case List:
		out := make([]interface{}, len(t))
		for i, item := range t {
			out[i] = Plain(item)
		}
		return out
	case Map:
		out := make(map[string]interface{}, len(t))
		for k, item := range t {
			out[k] = Plain(item)
		}
		return out
	default:
		return nil
	}
}

// FromPlain converts decoded YAML (or JSON) data into a Value. A sequence of
// exactly two integers becomes a Pair.
func FromPlain(in interface{}) (Value, error) {
	switch t := in.(type) {
	case nil:
		return Null{}, nil
	case Value:
		return cloneValue(t), nil
	case string:
		return String(t), nil
	case bool:
		return Bool(t), nil
	case int:
		return Int(t), nil
	case int8:
		return Int(t), nil
	case int16:
		return Int(t), nil
	case int32:
		return Int(t), nil
	case int64:
		return Int(t), nil
	case uint:
		return fromUnsigned(uint64(t)), nil
	case uint8:
		return Int(t), nil
	case uint16:
		return Int(t), nil
	case uint32:
		return Int(t), nil
	case uint64:
		return fromUnsigned(t), nil
	case float32:
		return Float(t), nil
	case float64:
		return Float(t), nil
	case []interface{}:
		return fromSequence(t)
	case map[interface{}]interface{}:
		out := make(Map, len(t))
		for k, item := range t {
			v, err := FromPlain(item)
			if err != nil {
				return nil, err
			}
			out[fmt.Sprint(k)] = v
		}
		return out, nil
	case map[string]interface{}:
		out := make(Map, len(t))
		for k, item := range t {
			v, err := FromPlain(item)
			if err != nil {
				return nil, err
			}
			out[k] = v
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported value type %T", in)
	}
}

func fromUnsigned(u uint64) Value {
	if u > math.MaxInt64 {
		return Float(u)
	}
	return Int(u)
}

func fromSequence(items []interface{}) (Value, error) {
	out := make(List, len(items))
	for i, item := range items {
		v, err := FromPlain(item)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	if len(out) == 2 {
		a, aok := out[0].(Int)
		b, bok := out[1].(Int)
		if aok && bok {
			return Pair{int64(a), int64(b)}, nil
		}
	}
	return out, nil
}

// Format renders a Value for humans, the way the CLI prints it.
func Format(v Value) string {
	switch t := v.(type) {
	case String:
		return string(t)
	case Int:
		return fmt.Sprintf("%d", int64(t))
	case Float:
		return formatFloat(float64(t))
	case Bool:
		return fmt.Sprintf("%t", bool(t))
	case Null, nil:
		return "~"
	case Pair:
		return fmt.Sprintf("[%d, %d]", t[0], t[1])
	case List:
		parts := make([]string, len(t))
		for i, item := range t {
			parts[i] = Format(item)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case Map:
		parts := make([]string, 0, len(t))
		for _, k := range t.Keys() {
			parts = append(parts, k+": "+Format(t[k]))
		}
		return "{" + strings.Join(parts, ", ") + "}"
	default:
		return fmt.Sprintf("%v", v)
	}
}
