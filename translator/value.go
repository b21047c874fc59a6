package translator

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Value is a closed sum over the JSON-shaped tree the translator walks:
// strings, numbers, booleans, nulls, lists, and string-keyed maps.
type Value interface {
	isValue()
}

type String string

type Number float64

type Bool bool

type Null struct{}

type List []Value

type Map map[string]Value

func (String) isValue() {}
func (Number) isValue() {}
func (Bool) isValue()   {}
func (Null) isValue()   {}
func (List) isValue()   {}
func (Map) isValue()    {}

// Decode parses JSON into a Value tree.
func Decode(data []byte) (Value, error) {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	return fromAny(raw)
}

// Encode renders a Value tree back to JSON.
func Encode(v Value) ([]byte, error) {
	return json.Marshal(toAny(v))
}

func fromAny(raw any) (Value, error) {
	switch t := raw.(type) {
	case nil:
		return Null{}, nil
	case string:
		return String(t), nil
	case float64:
		return Number(t), nil
	case bool:
		return Bool(t), nil
	case []any:
		out := make(List, len(t))
		for i, item := range t {
			v, err := fromAny(item)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil
	case map[string]any:
		out := make(Map, len(t))
		for k, item := range t {
			v, err := fromAny(item)
			if err != nil {
				return nil, err
			}
			out[k] = v
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported value type %T", raw)
	}
}

func toAny(v Value) any {
	switch t := v.(type) {
	case String:
		return string(t)
	case Number:
		return float64(t)
	case Bool:
		return bool(t)
	case Null:
		return nil
	case List:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = toAny(item)
		}
		return out
	case Map:
		out := make(map[string]any, len(t))
		for k, item := range t {
			out[k] = toAny(item)
		}
		return out
	default:
		return nil
	}
}

// leafStrings collects every distinct string leaf in the tree, in a stable
// order. Map keys are not leaves and are never collected.
func leafStrings(v Value) []string {
	seen := make(map[string]struct{})
	var walk func(Value)
	walk = func(v Value) {
		switch t := v.(type) {
		case String:
			seen[string(t)] = struct{}{}
		case List:
			for _, item := range t {
				walk(item)
			}
		case Map:
			for _, item := range t {
				walk(item)
			}
		}
	}
	walk(v)

	out := make([]string, 0, len(seen))
	for s := range seen {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// substitute rebuilds the tree, replacing every string leaf via the lookup
// table. The shape of the result is identical to the input.
func substitute(v Value, table map[string]string) Value {
	switch t := v.(type) {
	case String:
		if translated, ok := table[string(t)]; ok {
			return String(translated)
		}
		return t
	case List:
		out := make(List, len(t))
		for i, item := range t {
			out[i] = substitute(item, table)
		}
		return out
	case Map:
		out := make(Map, len(t))
		for k, item := range t {
			out[k] = substitute(item, table)
		}
		return out
	default:
		return t
	}
}
