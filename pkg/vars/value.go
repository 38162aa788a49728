package vars

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"

	"github.com/tgagor/bern/pkg/errs"
)

type Kind int

const (
	KindString Kind = iota
	KindNumber
	KindBool
	KindList
	KindMap
)

func (k Kind) String() string {
	return [...]string{"string", "number", "bool", "list", "map"}[k]
}

// Value is a template value: a string, number, boolean, list or mapping.
// The zero Value is the empty string.
type Value struct {
	kind Kind
	str  string
	num  float64
	b    bool
	list []Value
	m    map[string]Value
}

func String(s string) Value { return Value{kind: KindString, str: s} }
func Number(n float64) Value { return Value{kind: KindNumber, num: n} }
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }
func List(items ...Value) Value {
	return Value{kind: KindList, list: append([]Value(nil), items...)}
}

func Map(m map[string]Value) Value {
	cp := make(map[string]Value, len(m))
	for k, v := range m {
		cp[k] = v
	}
	return Value{kind: KindMap, m: cp}
}

// FromAny converts decoded YAML or JSON data into a Value.
func FromAny(v any) (Value, error) {
	switch t := v.(type) {
	case nil:
		return String(""), nil
	case Value:
		return t, nil
	case string:
		return String(t), nil
	case bool:
		return Bool(t), nil
	case int:
		return Number(float64(t)), nil
	case int64:
		return Number(float64(t)), nil
	case uint64:
		return Number(float64(t)), nil
	case float64:
		return Number(t), nil
	case json.Number:
		n, err := t.Float64()
		if err != nil {
			return Value{}, errs.Config("", "invalid number %q", t.String())
		}
		return Number(n), nil
	case []any:
		items := make([]Value, 0, len(t))
		for i, item := range t {
			iv, err := FromAny(item)
			if err != nil {
				return Value{}, fmt.Errorf("[%d]: %w", i, err)
			}
			items = append(items, iv)
		}
		return Value{kind: KindList, list: items}, nil
	case map[string]any:
		m := make(map[string]Value, len(t))
		for k, item := range t {
			iv, err := FromAny(item)
			if err != nil {
				return Value{}, fmt.Errorf("%s: %w", k, err)
			}
			m[k] = iv
		}
		return Value{kind: KindMap, m: m}, nil
	case map[any]any:
		m := make(map[string]any, len(t))
		for k, item := range t {
			ks, ok := k.(string)
			if !ok {
				return Value{}, errs.Config("", "map key %v is not a string", k)
			}
			m[ks] = item
		}
		return FromAny(m)
	default:
		return Value{}, errs.Config("", "unsupported value type %T", v)
	}
}

func (v Value) Kind() Kind { return v.kind }

func (v Value) coercion(want Kind) error {
	return fmt.Errorf("cannot use %s value as %s", v.kind, want)
}

func (v Value) AsString() (string, error) {
	switch v.kind {
	case KindString:
		return v.str, nil
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64), nil
	case KindBool:
		return strconv.FormatBool(v.b), nil
	}
	return "", v.coercion(KindString)
}

func (v Value) AsNumber() (float64, error) {
	switch v.kind {
	case KindNumber:
		return v.num, nil
	case KindString:
		n, err := strconv.ParseFloat(v.str, 64)
		if err != nil {
			return 0, fmt.Errorf("cannot use string %q as number", v.str)
		}
		return n, nil
	}
	return 0, v.coercion(KindNumber)
}

func (v Value) AsBool() (bool, error) {
	switch v.kind {
	case KindBool:
		return v.b, nil
	case KindString:
		b, err := strconv.ParseBool(v.str)
		if err != nil {
			return false, fmt.Errorf("cannot use string %q as bool", v.str)
		}
		return b, nil
	}
	return false, v.coercion(KindBool)
}

func (v Value) AsList() ([]Value, error) {
	if v.kind != KindList {
		return nil, v.coercion(KindList)
	}
	return append([]Value(nil), v.list...), nil
}

func (v Value) AsMap() (map[string]Value, error) {
	if v.kind != KindMap {
		return nil, v.coercion(KindMap)
	}
	cp := make(map[string]Value, len(v.m))
	for k, item := range v.m {
		cp[k] = item
	}
	return cp, nil
}

// Native converts the value into plain Go data for rendering. Integral
// numbers become int64 so they print without a decimal point.
func (v Value) Native() any {
	switch v.kind {
	case KindNumber:
		if v.num == math.Trunc(v.num) && math.Abs(v.num) < 1<<53 {
			return int64(v.num)
		}
		return v.num
	case KindBool:
		return v.b
	case KindList:
		out := make([]any, len(v.list))
		for i, item := range v.list {
			out[i] = item.Native()
		}
		return out
	case KindMap:
		out := make(map[string]any, len(v.m))
		for k, item := range v.m {
			out[k] = item.Native()
		}
		return out
	default:
		return v.str
	}
}

func (v Value) String() string {
	if s, err := v.AsString(); err == nil {
		return s
	}
	data, _ := json.Marshal(v.Native())
	return string(data)
}

func sortedKeys(m map[string]Value) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
