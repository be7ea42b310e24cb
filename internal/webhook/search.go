package webhook

import (
	"iter"
	"slices"
)

// Target selects the keys Search looks for: a single key or a set of keys.
type Target struct {
	keys []string
}

// Key targets a single key.
func Key(k string) Target {
	return Target{keys: []string{k}}
}

// Keys targets any key in the set.
func Keys(ks ...string) Target {
	return Target{keys: ks}
}

func (t Target) matches(key string) bool {
	return slices.Contains(t.keys, key)
}

// Search walks tree in pre-order and yields every (key, value) whose key is
// targeted. A matching key's value is still descended into, so the same key
// may be yielded at several depths. Trees that are not mappings yield nothing.
//
// Values that are mappings are searched recursively; values that are []any are
// searched element by element.
func Search(target Target, tree any) iter.Seq2[string, any] {
	return func(yield func(string, any) bool) {
		walk(target, tree, yield)
	}
}

// First returns the first result of Search.
func First(target Target, tree any) (string, any, bool) {
	for k, v := range Search(target, tree) {
		return k, v, true
	}
	return "", nil, false
}

// walk returns false once yield has asked to stop.
func walk(target Target, node any, yield func(string, any) bool) bool {
	pairs, ok := entries(node)
	if !ok {
		return true
	}
	for key, value := range pairs {
		if target.matches(key) && !yield(key, value) {
			return false
		}
		if _, isMapping := entries(value); isMapping {
			if !walk(target, value, yield) {
				return false
			}
			continue
		}
		if items, isList := value.([]any); isList {
			for _, item := range items {
				if !walk(target, item, yield) {
					return false
				}
			}
		}
	}
	return true
}
