package webhook

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustTree(t *testing.T, raw string) any {
	t.Helper()
	tree, err := DecodeTree([]byte(raw))
	require.NoError(t, err)
	return tree
}

type match struct {
	key   string
	value any
}

func collect(target Target, tree any) []match {
	var out []match
	for k, v := range Search(target, tree) {
		out = append(out, match{k, v})
	}
	return out
}

func TestSearch_Flat(t *testing.T) {
	tree := mustTree(t, `{"test_key": "this is the value", "key_test": "no", "foo": "never", "bar": "negative"}`)

	got := collect(Key("test_key"), tree)
	require.Len(t, got, 1)
	assert.Equal(t, match{"test_key", "this is the value"}, got[0])
}

func TestSearch_FoundNothing(t *testing.T) {
	tree := mustTree(t, `{"testKey": "there is nothing to find", "key_test": "no"}`)
	assert.Empty(t, collect(Key("test_key"), tree))
}

func TestSearch_NonMapping(t *testing.T) {
	assert.Empty(t, collect(Key("test_key"), "test_string"))
	assert.Empty(t, collect(Key("test_key"), nil))
	assert.Empty(t, collect(Key("test_key"), []any{map[string]any{"test_key": 1}}))
}

func TestSearch_KeySet(t *testing.T) {
	tree := mustTree(t, `{"testKey": "this is the value", "key_test": "no", "foo": "never"}`)

	got := collect(Keys("test_key", "testKey"), tree)
	require.Len(t, got, 1)
	assert.Equal(t, match{"testKey", "this is the value"}, got[0])
}

func TestSearch_Nested(t *testing.T) {
	tree := mustTree(t, `{"testKey": "nope", "foo": "never", "bar": {"test_key": "this is the value"}}`)

	k, v, ok := First(Key("test_key"), tree)
	require.True(t, ok)
	assert.Equal(t, "test_key", k)
	assert.Equal(t, "this is the value", v)

	k, _, ok = First(Keys("test_key", "keyTest"), tree)
	require.True(t, ok)
	assert.Equal(t, "test_key", k)
}

func TestSearch_KeyInsideList(t *testing.T) {
	tree := mustTree(t, `{
		"testKey": "nope",
		"bar": {"keyTest": [{"test_key": "this is the value"}, {"other value": "something else"}]}
	}`)

	got := collect(Key("test_key"), tree)
	require.Len(t, got, 1)
	assert.Equal(t, match{"test_key", "this is the value"}, got[0])
}

func TestSearch_TopLevelMatchOnly(t *testing.T) {
	tree := mustTree(t, `{
		"first_option": "This is the one I want",
		"bar": {"keyTest": [{"first": "I do not want this"}, {"other value": "something else"}]}
	}`)

	got := collect(Key("first_option"), tree)
	require.Len(t, got, 1)
	assert.Equal(t, "This is the one I want", got[0].value)
}

func TestSearch_PreOrderAndEveryDepth(t *testing.T) {
	tree := mustTree(t, `{
		"a": {"k": "deep-a", "inner": {"k": "deeper-a"}},
		"k": "top",
		"b": [{"k": "in-list"}, "scalar", [{"k": "nested-list-ignored"}]]
	}`)

	var values []any
	for _, m := range collect(Key("k"), tree) {
		values = append(values, m.value)
	}
	assert.Equal(t, []any{"deep-a", "deeper-a", "top", "in-list"}, values)
}

func TestSearch_MatchedValueIsAlsoDescended(t *testing.T) {
	tree := mustTree(t, `{"data": {"data": "inner"}}`)

	got := collect(Key("data"), tree)
	require.Len(t, got, 2)
	assert.IsType(t, &Mapping{}, got[0].value)
	assert.Equal(t, "inner", got[1].value)
}

func TestSearch_PlainMapsVisitSortedKeys(t *testing.T) {
	tree := map[string]any{
		"zeta":  map[string]any{"k": 2},
		"alpha": map[string]any{"k": 1},
	}

	var values []any
	for _, m := range collect(Key("k"), tree) {
		values = append(values, m.value)
	}
	assert.Equal(t, []any{1, 2}, values)
}

func TestSearch_StopsWhenConsumerStops(t *testing.T) {
	tree := mustTree(t, `{"k": 1, "x": {"k": 2}, "y": [{"k": 3}]}`)

	n := 0
	for range Search(Key("k"), tree) {
		n++
		break
	}
	assert.Equal(t, 1, n)
}
