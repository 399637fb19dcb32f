package mapengine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsLegacySpecAndIsNormativeSpec(t *testing.T) {
	legacy := FromAny(map[string]any{
		"mappings": []any{map[string]any{"target": "sku", "source": "$.id"}},
	})
	assert.True(t, IsLegacySpec(legacy))
	assert.False(t, IsNormativeSpec(legacy))

	normative := FromAny(map[string]any{
		"mappings": map[string]any{"items": map[string]any{"path": "$.items[]", "map": map[string]any{}}},
	})
	assert.False(t, IsLegacySpec(normative))
	assert.True(t, IsNormativeSpec(normative))
}

func TestChooseItemsPath(t *testing.T) {
	assert.Equal(t, "$[]", ChooseItemsPath(Array(String("a"))))
	assert.Equal(t, "$.items[]", ChooseItemsPath(FromAny(map[string]any{"items": []any{1}})))
	assert.Equal(t, "$.data[]", ChooseItemsPath(FromAny(map[string]any{"data": []any{1}})))
	assert.Equal(t, "$.records[]", ChooseItemsPath(FromAny(map[string]any{"records": []any{1}})))
	assert.Equal(t, "$.items[]", ChooseItemsPath(FromAny(map[string]any{"other": "x"})))
}

func TestConvertLegacySpecBasic(t *testing.T) {
	legacy := FromAny(map[string]any{
		"defaults": map[string]any{"currency": "USD"},
		"mappings": []any{
			map[string]any{"target": "sku", "source": "$.id", "transform": "string"},
			map[string]any{"target": "price", "source": "$.cost", "transform": "number", "required": true},
			map[string]any{"target": "", "source": "$.ignored"},
		},
	})
	payload := FromAny(map[string]any{"items": []any{map[string]any{"id": "x"}}})

	spec := ConvertLegacySpec(legacy, payload)

	require.True(t, IsNormativeSpec(spec))
	mappings, _ := spec.Get("mappings")
	items, _ := mappings.Get("items")
	path, _ := items.Get("path")
	assert.Equal(t, "$.items[]", path.Str())

	mapBlock, _ := items.Get("map")
	sku, ok := mapBlock.Get("sku")
	require.True(t, ok)
	skuSource, _ := sku.Get("source")
	assert.Equal(t, "$.id", skuSource.Str())
	skuTransform, _ := sku.Get("transform")
	assert.Equal(t, "to_string", skuTransform.Str())

	price, ok := mapBlock.Get("price")
	require.True(t, ok)
	priceTransform, _ := price.Get("transform")
	assert.Equal(t, "to_float", priceTransform.Str())
	priceRequired, _ := price.Get("required")
	assert.True(t, priceRequired.Bool())

	_, hasIgnored := mapBlock.Get("")
	assert.False(t, hasIgnored)

	defaults, _ := spec.Get("defaults")
	currency, _ := defaults.Get("currency")
	assert.Equal(t, "USD", currency.Str())
}

func TestConvertLegacySpecDefaultEntryMovesToDefaults(t *testing.T) {
	legacy := FromAny(map[string]any{
		"mappings": []any{
			map[string]any{"target": "status", "default": "pending"},
		},
	})
	payload := Array()
	spec := ConvertLegacySpec(legacy, payload)
	defaults, _ := spec.Get("defaults")
	status, ok := defaults.Get("status")
	require.True(t, ok)
	assert.Equal(t, "pending", status.Str())
}

func TestConvertLegacySpecBlankSourceStringBecomesNull(t *testing.T) {
	legacy := FromAny(map[string]any{
		"mappings": []any{
			map[string]any{"target": "sku", "source": "   "},
		},
	})
	spec := ConvertLegacySpec(legacy, Array())
	mappings, _ := spec.Get("mappings")
	items, _ := mappings.Get("items")
	mapBlock, _ := items.Get("map")
	sku, _ := mapBlock.Get("sku")
	source, _ := sku.Get("source")
	assert.True(t, source.IsNull())
}
