package mapengine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluatePathRootPrefixes(t *testing.T) {
	root := FromAny(map[string]any{"a": "x"})

	for _, path := range []string{"$.a", "$a", "a"} {
		values, err := EvaluatePath(root, path)
		require.NoError(t, err)
		require.Len(t, values, 1, "path %q", path)
		assert.Equal(t, "x", values[0].Str())
	}
}

func TestEvaluatePathEmptyPathReturnsRoot(t *testing.T) {
	root := FromAny(map[string]any{"a": 1})
	values, err := EvaluatePath(root, "$")
	require.NoError(t, err)
	require.Len(t, values, 1)
	assert.True(t, values[0].IsObject())
}

func TestEvaluatePathDottedSegments(t *testing.T) {
	root := FromAny(map[string]any{
		"a": map[string]any{"b": map[string]any{"c": 42}},
	})
	values, err := EvaluatePath(root, "$.a.b.c")
	require.NoError(t, err)
	require.Len(t, values, 1)
	assert.Equal(t, int64(42), values[0].ToAny())
}

func TestEvaluatePathArrayExpansion(t *testing.T) {
	root := FromAny(map[string]any{
		"items": []any{
			map[string]any{"sku": "A"},
			map[string]any{"sku": "B"},
		},
	})
	values, err := EvaluatePath(root, "$.items[]")
	require.NoError(t, err)
	require.Len(t, values, 2)
	sku0, _ := values[0].Get("sku")
	sku1, _ := values[1].Get("sku")
	assert.Equal(t, "A", sku0.Str())
	assert.Equal(t, "B", sku1.Str())
}

func TestEvaluatePathArrayExpansionThenField(t *testing.T) {
	root := FromAny(map[string]any{
		"items": []any{
			map[string]any{"sku": "A"},
			map[string]any{"sku": "B"},
		},
	})
	values, err := EvaluatePath(root, "$.items[].sku")
	require.NoError(t, err)
	require.Len(t, values, 2)
	assert.Equal(t, "A", values[0].Str())
	assert.Equal(t, "B", values[1].Str())
}

func TestEvaluatePathStarSuffixBehavesLikeEmptyBrackets(t *testing.T) {
	root := FromAny(map[string]any{"items": []any{1, 2, 3}})
	values, err := EvaluatePath(root, "$.items[*]")
	require.NoError(t, err)
	require.Len(t, values, 3)
}

func TestEvaluatePathMissingSegmentYieldsNoMatches(t *testing.T) {
	root := FromAny(map[string]any{"a": 1})
	values, err := EvaluatePath(root, "$.missing.deeper")
	require.NoError(t, err)
	assert.Empty(t, values)
}

func TestEvaluatePathNullValueIsSkipped(t *testing.T) {
	root := NewObject()
	root.Set("a", Null())
	values, err := EvaluatePath(root, "$.a")
	require.NoError(t, err)
	assert.Empty(t, values)
}

func TestEvaluatePathArraySuffixOnNonArraySkips(t *testing.T) {
	root := FromAny(map[string]any{"a": "not-an-array"})
	values, err := EvaluatePath(root, "$.a[]")
	require.NoError(t, err)
	assert.Empty(t, values)
}

func TestEvaluatePathBareArrayRoot(t *testing.T) {
	root := Array(String("x"), String("y"))
	values, err := EvaluatePath(root, "$[]")
	require.NoError(t, err)
	require.Len(t, values, 2)
	assert.Equal(t, "x", values[0].Str())
}
