package mapengine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractFirstJSONObjectPlainObject(t *testing.T) {
	v, ok := ExtractFirstJSONObject(`{"a": 1}`)
	require.True(t, ok)
	a, _ := v.Get("a")
	assert.Equal(t, int64(1), a.ToAny())
}

func TestExtractFirstJSONObjectWithProseWrapper(t *testing.T) {
	text := "Sure, here is the spec:\n```json\n{\"a\": {\"b\": 1}}\n```\nLet me know if that helps."
	v, ok := ExtractFirstJSONObject(text)
	require.True(t, ok)
	a, _ := v.Get("a")
	b, _ := a.Get("b")
	assert.Equal(t, int64(1), b.ToAny())
}

func TestExtractFirstJSONObjectHandlesBracesInsideStrings(t *testing.T) {
	text := `prefix {"msg": "a { b } c"} suffix`
	v, ok := ExtractFirstJSONObject(text)
	require.True(t, ok)
	msg, _ := v.Get("msg")
	assert.Equal(t, "a { b } c", msg.Str())
}

func TestExtractFirstJSONObjectNoBraceFails(t *testing.T) {
	_, ok := ExtractFirstJSONObject("no json here")
	assert.False(t, ok)
}

func TestExtractFirstJSONObjectUnbalancedFails(t *testing.T) {
	_, ok := ExtractFirstJSONObject(`{"a": 1`)
	assert.False(t, ok)
}

func TestRepairInitializesMissingDefaultsAndBroadcast(t *testing.T) {
	input := SpecValue(FromAny(map[string]any{
		"mappings": map[string]any{
			"items": map[string]any{
				"path": "$.items[]",
				"map":  map[string]any{},
			},
		},
	}))
	spec, repairs := Repair(input, nil)
	require.True(t, spec.IsObject())
	defaults, ok := spec.Get("defaults")
	require.True(t, ok)
	assert.True(t, defaults.IsObject())
	broadcast, ok := spec.Get("broadcast")
	require.True(t, ok)
	assert.True(t, broadcast.IsObject())
	assert.Contains(t, repairs, "Initialized missing defaults to {}")
	assert.Contains(t, repairs, "Initialized missing broadcast to {}")
}

func TestRepairNormalizesBracketedTargetKeys(t *testing.T) {
	input := SpecValue(FromAny(map[string]any{
		"defaults": map[string]any{"items[].currency": "USD"},
	}))
	spec, _ := Repair(input, nil)
	defaults, _ := spec.Get("defaults")
	currency, ok := defaults.Get("items.currency")
	require.True(t, ok)
	assert.Equal(t, "USD", currency.Str())
	_, hadBracketed := defaults.Get("items[].currency")
	assert.False(t, hadBracketed)
}

func TestRepairDropsIllegalAndUnknownTargets(t *testing.T) {
	input := SpecValue(FromAny(map[string]any{
		"mappings": map[string]any{
			"items": map[string]any{
				"path": "$.items[]",
				"map": map[string]any{
					"sku":        map[string]any{"source": "$.id"},
					"$.illegal":  map[string]any{"source": "$.id"},
					"unexpected": map[string]any{"source": "$.id"},
				},
			},
		},
	}))
	spec, repairs := Repair(input, []string{"sku", "price"})

	mappings, _ := spec.Get("mappings")
	items, _ := mappings.Get("items")
	mapBlock, _ := items.Get("map")

	_, hasSKU := mapBlock.Get("sku")
	assert.True(t, hasSKU)
	_, hasIllegal := mapBlock.Get("$.illegal")
	assert.False(t, hasIllegal)
	_, hasUnexpected := mapBlock.Get("unexpected")
	assert.False(t, hasUnexpected)

	price, hasPrice := mapBlock.Get("price")
	require.True(t, hasPrice, "missing allowed target should be backfilled")
	priceSource, _ := price.Get("source")
	assert.True(t, priceSource.IsNull())

	assert.Contains(t, repairs, "Added missing target 'price' with null source")
}

func TestRepairLeafMappingRemovesExpressionSource(t *testing.T) {
	input := SpecValue(FromAny(map[string]any{
		"mappings": map[string]any{
			"items": map[string]any{
				"path": "$.items[]",
				"map": map[string]any{
					"total": map[string]any{"source": "$.qty * $.price"},
				},
			},
		},
	}))
	spec, repairs := Repair(input, nil)
	mappings, _ := spec.Get("mappings")
	items, _ := mappings.Get("items")
	mapBlock, _ := items.Get("map")
	total, _ := mapBlock.Get("total")
	source, _ := total.Get("source")
	assert.True(t, source.IsNull())
	found := false
	for _, r := range repairs {
		if r == "Removed expression source for 'total' (set to null)" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestRepairLeafMappingRelocatesFeedLevelSourceToBroadcast(t *testing.T) {
	input := SpecValue(FromAny(map[string]any{
		"mappings": map[string]any{
			"items": map[string]any{
				"path": "$.items[]",
				"map": map[string]any{
					"warehouse": map[string]any{"source": "$.feed_metadata.warehouse"},
				},
			},
		},
	}))
	spec, _ := Repair(input, nil)

	broadcast, _ := spec.Get("broadcast")
	warehouse, ok := broadcast.Get("warehouse")
	require.True(t, ok)
	source, _ := warehouse.Get("source")
	assert.Equal(t, "$.feed_metadata.warehouse", source.Str())

	mappings, _ := spec.Get("mappings")
	items, _ := mappings.Get("items")
	mapBlock, _ := items.Get("map")
	itemWarehouse, _ := mapBlock.Get("warehouse")
	itemSource, _ := itemWarehouse.Get("source")
	assert.True(t, itemSource.IsNull())
}

func TestRepairLeafMappingMovesConstantToDefaults(t *testing.T) {
	input := SpecValue(FromAny(map[string]any{
		"mappings": map[string]any{
			"items": map[string]any{
				"path": "$.items[]",
				"map": map[string]any{
					"status": map[string]any{"source": "active"},
				},
			},
		},
	}))
	spec, _ := Repair(input, nil)
	defaults, _ := spec.Get("defaults")
	status, ok := defaults.Get("status")
	require.True(t, ok)
	assert.Equal(t, "active", status.Str())

	mappings, _ := spec.Get("mappings")
	items, _ := mappings.Get("items")
	mapBlock, _ := items.Get("map")
	itemStatus, _ := mapBlock.Get("status")
	itemSource, _ := itemStatus.Get("source")
	assert.True(t, itemSource.IsNull())
}

func TestRepairFromTextInput(t *testing.T) {
	text := "```json\n{\"mappings\": {\"items\": {\"path\": \"$.items[]\", \"map\": {}}}}\n```"
	spec, repairs := Repair(SpecText(text), nil)
	require.True(t, spec.IsObject())
	assert.Contains(t, repairs, "Extracted JSON object from mapping text wrapper")
}

func TestRepairUnparseableTextFails(t *testing.T) {
	spec, repairs := Repair(SpecText("not json at all"), nil)
	assert.False(t, spec.IsObject())
	assert.Contains(t, repairs, "Failed to extract JSON object from mapping text")
}

func TestRepairRecursesIntoNestedMapBlocks(t *testing.T) {
	input := SpecValue(FromAny(map[string]any{
		"mappings": map[string]any{
			"items": map[string]any{
				"path": "$.items[]",
				"map": map[string]any{
					"variants": map[string]any{
						"path": "$.variants[]",
						"map": map[string]any{
							"variant_sku": map[string]any{"source": "$.sku * 2"},
						},
					},
				},
			},
		},
	}))
	spec, repairs := Repair(input, nil)
	mappings, _ := spec.Get("mappings")
	items, _ := mappings.Get("items")
	mapBlock, _ := items.Get("map")
	variants, _ := mapBlock.Get("variants")
	nestedMap, _ := variants.Get("map")
	variantSKU, _ := nestedMap.Get("variant_sku")
	source, _ := variantSKU.Get("source")
	assert.True(t, source.IsNull())
	assert.Contains(t, repairs, "Removed expression source for 'variant_sku' (set to null)")
}
