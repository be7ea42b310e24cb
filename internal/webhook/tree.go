package webhook

import (
	"encoding/json"
	"errors"
	"iter"
	"sort"

	"github.com/tidwall/gjson"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// ErrInvalidJSON is returned by DecodeTree for input that is not a JSON document.
var ErrInvalidJSON = errors.New("invalid JSON")

// Mapping is an insertion-ordered string-keyed map. Setting an existing key
// replaces its value without moving it.
type Mapping = orderedmap.OrderedMap[string, any]

// NewMapping returns an empty Mapping.
func NewMapping() *Mapping {
	return orderedmap.New[string, any]()
}

// DecodeTree decodes a JSON document into a tree of *Mapping (objects, in
// document order), []any (arrays), string, json.Number, bool and nil.
func DecodeTree(raw []byte) (any, error) {
	if !gjson.ValidBytes(raw) {
		return nil, ErrInvalidJSON
	}
	return treeValue(gjson.ParseBytes(raw)), nil
}

func treeValue(r gjson.Result) any {
	switch r.Type {
	case gjson.Null:
		return nil
	case gjson.False:
		return false
	case gjson.True:
		return true
	case gjson.Number:
		return json.Number(r.Raw)
	case gjson.String:
		return r.Str
	}

	if r.IsArray() {
		items := make([]any, 0)
		r.ForEach(func(_, v gjson.Result) bool {
			items = append(items, treeValue(v))
			return true
		})
		return items
	}

	m := NewMapping()
	r.ForEach(func(k, v gjson.Result) bool {
		m.Set(k.Str, treeValue(v))
		return true
	})
	return m
}

// entries returns an iterator over the key/value pairs of a mapping node and
// reports whether node is a mapping at all. Plain Go maps are visited in
// sorted key order.
func entries(node any) (iter.Seq2[string, any], bool) {
	switch m := node.(type) {
	case *Mapping:
		if m == nil {
			return nil, false
		}
		return func(yield func(string, any) bool) {
			for p := m.Oldest(); p != nil; p = p.Next() {
				if !yield(p.Key, p.Value) {
					return
				}
			}
		}, true
	case map[string]any:
		return func(yield func(string, any) bool) {
			keys := make([]string, 0, len(m))
			for k := range m {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				if !yield(k, m[k]) {
					return
				}
			}
		}, true
	default:
		return nil, false
	}
}

// lookup returns the value stored under key in a mapping node.
func lookup(node any, key string) (any, bool) {
	switch m := node.(type) {
	case *Mapping:
		if m == nil {
			return nil, false
		}
		return m.Get(key)
	case map[string]any:
		v, ok := m[key]
		return v, ok
	default:
		return nil, false
	}
}
