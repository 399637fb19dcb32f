package mapengine

import (
	"sort"
	"strings"
)

// FlattenTargetSchema walks a target-schema template (a nested
// object/array/scalar tree describing the tenant's canonical output shape)
// and flattens it into a leaf path->type map, grounded on
// original_source/backend/mapping_executor.py's flatten_target_schema.
//
// If schema is already flat (any top-level key is a "$"-prefixed path),
// it is returned as-is: FlattenTargetSchema is idempotent on already-flat
// target schemas (original_source/backend/mapping_service.py's
// _extract_target_paths).
func FlattenTargetSchema(schema Value) map[string]string {
	if schema.IsObject() && looksAlreadyFlat(schema) {
		out := make(map[string]string, schema.Len())
		for _, k := range schema.Keys() {
			v, _ := schema.Get(k)
			out[k] = scalarTag(v)
		}
		return out
	}
	out := map[string]string{}
	flattenSchema(schema, "$", out)
	return out
}

func looksAlreadyFlat(schema Value) bool {
	for _, k := range schema.Keys() {
		if strings.HasPrefix(k, "$") {
			return true
		}
	}
	return false
}

func flattenSchema(schema Value, prefix string, out map[string]string) {
	switch schema.Kind() {
	case KindObject:
		if schema.Len() == 0 {
			out[prefix] = "object"
			return
		}
		for _, key := range schema.Keys() {
			val, _ := schema.Get(key)
			newPrefix := key
			if prefix != "" {
				newPrefix = prefix + "." + key
			}
			flattenSchema(val, newPrefix, out)
		}
	case KindArray:
		arrayPrefix := prefix + "[]"
		items := schema.Items()
		if len(items) == 0 {
			out[arrayPrefix] = "array"
			return
		}
		flattenSchema(items[0], arrayPrefix, out)
	default:
		out[prefix] = scalarTag(schema)
	}
}

// scalarTag renders a leaf template value as its declared type string: the
// template typically spells the type directly ("string", "number", ...), but
// tolerates being handed a live scalar value instead.
func scalarTag(v Value) string {
	if v.IsString() {
		return v.Str()
	}
	return describePrimitive(v)
}

// NormalizeCanonicalPath strips the "$"/"$." root prefix and all "[]"/"[*]"
// array markers from a canonical target path, grounded on
// original_source/backend/mapping_service.py's _normalize_target_path.
func NormalizeCanonicalPath(path string) string {
	normalized := stripRootPrefix(path)
	normalized = strings.ReplaceAll(normalized, "[*]", "")
	normalized = strings.ReplaceAll(normalized, "[]", "")
	return normalized
}

// ItemTargetPaths extracts the flattened paths that fall under the item
// array (paths containing ".items[]"), normalized and de-duplicated, in
// sorted order. This is the canonical field list the Executor ensures on
// every output item and Repair filters and backfills item targets against.
func ItemTargetPaths(flattened map[string]string) []string {
	seen := map[string]bool{}
	var out []string
	for path := range flattened {
		if !strings.Contains(path, ".items[]") {
			continue
		}
		normalized := NormalizeCanonicalPath(path)
		if seen[normalized] {
			continue
		}
		seen[normalized] = true
		out = append(out, normalized)
	}
	sort.Strings(out)
	return out
}
