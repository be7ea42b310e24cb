package webhook

import (
	"encoding/json"
	"fmt"
)

// KeyValuer is implemented by values that carry an explicit key and value.
type KeyValuer interface {
	PairKey() string
	PairValue() any
}

// Pair is a single {key, value} entry of a pair-list.
type Pair struct {
	Key   string `json:"key"`
	Value any    `json:"value"`
}

func (p Pair) PairKey() string { return p.Key }
func (p Pair) PairValue() any  { return p.Value }

// Flatten turns a pair-list into a Mapping. It returns nil when items is not a
// list, and an empty Mapping for an empty list.
//
// Elements that are mappings holding both "key" and "value", or that implement
// KeyValuer, contribute that pair. Any other element is used as both key and
// value. Repeated keys keep their first position and take the last value.
func Flatten(items any) *Mapping {
	var list []any
	switch v := items.(type) {
	case []any:
		list = v
	case []Pair:
		list = make([]any, len(v))
		for i := range v {
			list[i] = v[i]
		}
	default:
		return nil
	}

	m := NewMapping()
	for _, item := range list {
		k, v := pairOf(item)
		m.Set(k, v)
	}
	return m
}

func pairOf(item any) (string, any) {
	if kv, ok := item.(KeyValuer); ok {
		return kv.PairKey(), kv.PairValue()
	}
	if k, ok := lookup(item, "key"); ok {
		if v, ok := lookup(item, "value"); ok {
			return text(k), v
		}
	}
	return text(item), item
}

// text renders a tree value the way it appears in query strings, headers and
// fallback keys: strings verbatim, everything else as JSON.
func text(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	case []byte:
		return string(t)
	case fmt.Stringer:
		return t.String()
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}
