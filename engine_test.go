package mapengine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func targetSchemaFixture() Value {
	return FromAny(map[string]any{
		"items": []any{
			map[string]any{"sku": "string", "price": "number"},
		},
	})
}

func TestPrepareMappingWithNoPartnerSpecAutoMaps(t *testing.T) {
	payload := FromAny(map[string]any{
		"items": []any{map[string]any{"sku": "A1", "price": 9.99}},
	})
	spec, err := NewEngine().PrepareMapping(nil, payload, targetSchemaFixture())
	require.NoError(t, err)
	assert.Empty(t, Validate(spec))
}

func TestPrepareMappingConvertsLegacySpec(t *testing.T) {
	legacy := SpecValue(FromAny(map[string]any{
		"mappings": []any{
			map[string]any{"target": "sku", "source": "$.id"},
			map[string]any{"target": "price", "source": "$.cost", "transform": "number"},
		},
	}))
	payload := FromAny(map[string]any{
		"items": []any{map[string]any{"id": "A1", "cost": "9.99"}},
	})
	spec, err := NewEngine().PrepareMapping(&legacy, payload, targetSchemaFixture())
	require.NoError(t, err)
	assert.Empty(t, Validate(spec))
}

func TestPrepareMappingAcceptsNormativeSpec(t *testing.T) {
	normative := SpecValue(FromAny(map[string]any{
		"mappings": map[string]any{
			"items": map[string]any{
				"path": "$.items[]",
				"map": map[string]any{
					"sku":   map[string]any{"source": "$.id"},
					"price": map[string]any{"source": "$.cost", "transform": "to_float"},
				},
			},
		},
	}))
	payload := FromAny(map[string]any{
		"items": []any{map[string]any{"id": "A1", "cost": "9.99"}},
	})
	spec, err := NewEngine().PrepareMapping(&normative, payload, targetSchemaFixture())
	require.NoError(t, err)
	assert.Empty(t, Validate(spec))
}

func TestPrepareMappingRepairsTextualPartnerSpec(t *testing.T) {
	text := SpecText(`{"mappings": {"items": {"path": "$.items[]", "map": {"sku": {"source": "$.id"}}}}}`)
	payload := FromAny(map[string]any{"items": []any{map[string]any{"id": "A1"}}})
	spec, err := NewEngine().PrepareMapping(&text, payload, targetSchemaFixture())
	require.NoError(t, err)
	assert.Empty(t, Validate(spec))
}

func TestPrepareMappingWithOracleRefines(t *testing.T) {
	payload := FromAny(map[string]any{"items": []any{map[string]any{"id": "A1", "cost": "9.99"}}})
	dirty := SpecValue(FromAny(map[string]any{
		"mappings": map[string]any{
			"items": map[string]any{
				"path": "$.items[]",
				"map": map[string]any{
					"sku":   map[string]any{"source": "$.missing"},
					"price": map[string]any{"source": "$.cost", "transform": "to_float"},
				},
			},
		},
	}))
	fixed := `{"mappings": {"items": {"path": "$.items[]", "map": {` +
		`"sku": {"source": "$.id"}, "price": {"source": "$.cost", "transform": "to_float"}}}}}`
	oracle := OracleFunc(func(prompt string) (string, bool) { return fixed, true })

	engine := NewEngine().WithOracle(oracle).WithMaxIterations(3)
	spec, err := engine.PrepareMapping(&dirty, payload, targetSchemaFixture())
	require.NoError(t, err)
	assert.Empty(t, Validate(spec))

	mappings, _ := spec.Get("mappings")
	items, _ := mappings.Get("items")
	mapBlock, _ := items.Get("map")
	sku, _ := mapBlock.Get("sku")
	source, _ := sku.Get("source")
	assert.Equal(t, "$.id", source.Str())
}

// TestPrepareMappingWithNoPartnerSpecTriesOracleFirst is spec.md §4.H step
// 1: with no partner spec supplied, an attached oracle must be tried before
// falling back to the Auto-Mapper.
func TestPrepareMappingWithNoPartnerSpecTriesOracleFirst(t *testing.T) {
	payload := FromAny(map[string]any{"items": []any{map[string]any{"id": "A1", "cost": "9.99"}}})
	fromOracle := `{"mappings": {"items": {"path": "$.items[]", "map": {` +
		`"sku": {"source": "$.id"}, "price": {"source": "$.cost", "transform": "to_float"}}}}}`
	calls := 0
	oracle := OracleFunc(func(prompt string) (string, bool) {
		calls++
		return fromOracle, true
	})

	engine := NewEngine().WithOracle(oracle)
	spec, err := engine.PrepareMapping(nil, payload, targetSchemaFixture())
	require.NoError(t, err)
	assert.Equal(t, 1, calls)

	mappings, _ := spec.Get("mappings")
	items, _ := mappings.Get("items")
	mapBlock, _ := items.Get("map")
	sku, _ := mapBlock.Get("sku")
	source, _ := sku.Get("source")
	assert.Equal(t, "$.id", source.Str())
}

// TestPrepareMappingWithNoPartnerSpecFallsBackWhenOracleRefuses covers the
// oracle-refusal branch of the same step: an empty/refused completion falls
// back to the Auto-Mapper rather than producing a malformed spec.
func TestPrepareMappingWithNoPartnerSpecFallsBackWhenOracleRefuses(t *testing.T) {
	payload := FromAny(map[string]any{
		"items": []any{map[string]any{"sku": "A1", "price": 9.99}},
	})
	oracle := OracleFunc(func(prompt string) (string, bool) { return "", false })

	engine := NewEngine().WithOracle(oracle)
	spec, err := engine.PrepareMapping(nil, payload, targetSchemaFixture())
	require.NoError(t, err)
	assert.Empty(t, Validate(spec))
}

func TestPrepareMappingReturnsMalformedSpecError(t *testing.T) {
	bogus := SpecValue(FromAny(map[string]any{
		"mappings": map[string]any{
			"items": map[string]any{
				"path": "no-array-suffix",
				"map":  map[string]any{},
			},
		},
	}))
	payload := FromAny(map[string]any{"items": []any{}})
	_, err := NewEngine().PrepareMapping(&bogus, payload, targetSchemaFixture())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformedSpec)
}
