package mapengine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func validSpec() Value {
	return FromAny(map[string]any{
		"mappings": map[string]any{
			"items": map[string]any{
				"path": "$.items[]",
				"map": map[string]any{
					"sku": map[string]any{"source": "$.id"},
				},
			},
		},
	})
}

func TestValidateAcceptsWellFormedSpec(t *testing.T) {
	errs := Validate(validSpec())
	assert.Empty(t, errs)
}

func TestValidateRejectsNonObjectSpec(t *testing.T) {
	errs := Validate(String("not a spec"))
	assert.Equal(t, []string{"mapping_spec must be a JSON object"}, errs)
}

func TestValidateRequiresMappingsObject(t *testing.T) {
	errs := Validate(NewObject())
	assert.Contains(t, errs, "mapping_spec.mappings must be an object")
}

func TestValidateRequiresItemsPathArraySuffix(t *testing.T) {
	spec := FromAny(map[string]any{
		"mappings": map[string]any{
			"items": map[string]any{
				"path": "$.items",
				"map":  map[string]any{},
			},
		},
	})
	errs := Validate(spec)
	assert.Contains(t, errs, "mappings.items.path must be a JSONPath array (e.g., $.items[])")
}

func TestValidateFlagsFeedLevelSourceInsideItemContext(t *testing.T) {
	spec := FromAny(map[string]any{
		"mappings": map[string]any{
			"items": map[string]any{
				"path": "$.items[]",
				"map": map[string]any{
					"warehouse": map[string]any{"source": "$.feed_metadata.warehouse"},
				},
			},
		},
	})
	errs := Validate(spec)
	assert.Contains(t, errs, "mappings.items.map.warehouse.source references feed metadata; use broadcast/defaults")
}

func TestValidateFlagsIllegalTargetTokens(t *testing.T) {
	spec := FromAny(map[string]any{
		"mappings": map[string]any{
			"items": map[string]any{
				"path": "$.items[]",
				"map":  map[string]any{},
			},
		},
		"defaults": map[string]any{"items[].sku": "x"},
	})
	errs := Validate(spec)
	assert.Contains(t, errs, "defaults target 'items[].sku' must not contain '$' or '[]'")
}

func TestValidateRecursesIntoNestedArrayBlocks(t *testing.T) {
	spec := FromAny(map[string]any{
		"mappings": map[string]any{
			"items": map[string]any{
				"path": "$.items[]",
				"map": map[string]any{
					"variants": map[string]any{
						"path": "$.variants",
						"map":  map[string]any{},
					},
				},
			},
		},
	})
	errs := Validate(spec)
	assert.Contains(t, errs, "mappings.items.map.variants.path must be a JSONPath array")
}

func TestValidateRejectsNonStringNonArraySource(t *testing.T) {
	spec := FromAny(map[string]any{
		"mappings": map[string]any{
			"items": map[string]any{
				"path": "$.items[]",
				"map": map[string]any{
					"sku": map[string]any{"source": 5},
				},
			},
		},
	})
	errs := Validate(spec)
	assert.Contains(t, errs, "mappings.items.map.sku.source must be a string or list")
}
