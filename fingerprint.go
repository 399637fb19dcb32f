package mapengine

import "sort"

// FingerprintOptions configures the Schema Fingerprinter (spec.md §4.B).
type FingerprintOptions struct {
	// MaxItemsPerArray bounds how many array elements contribute to the
	// fingerprint. Zero means unlimited.
	MaxItemsPerArray int
}

// Fingerprint produces a deterministic path->type map for an arbitrary JSON
// value, grounded on original_source/backend/schema_fingerprint.py's
// SchemaStructureExtractor. The returned map's keys, when iterated via
// SortedFingerprintKeys, are in sorted order (spec.md §3's determinism
// requirement).
func Fingerprint(v Value, opts FingerprintOptions) map[string]string {
	out := map[string]string{}
	extractSchema(v, "$", opts, out)
	return out
}

// SortedFingerprintKeys returns the fingerprint's paths in sorted order.
func SortedFingerprintKeys(schema map[string]string) []string {
	keys := make([]string, 0, len(schema))
	for k := range schema {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func extractSchema(v Value, prefix string, opts FingerprintOptions, out map[string]string) {
	switch v.Kind() {
	case KindObject:
		if v.Len() == 0 {
			out[prefix] = "object (empty)"
			return
		}
		for _, key := range v.Keys() {
			child, _ := v.Get(key)
			childPrefix := key
			if prefix != "" {
				childPrefix = prefix + "." + key
			}
			extractSchema(child, childPrefix, opts, out)
		}
	case KindArray:
		arrayPrefix := prefix + "[]"
		items := v.Items()
		if len(items) == 0 {
			out[arrayPrefix] = "array (empty)"
			return
		}
		if opts.MaxItemsPerArray > 0 && len(items) > opts.MaxItemsPerArray {
			items = items[:opts.MaxItemsPerArray]
		}

		nonNullSeen := false
		var primitiveType, containerType string
		for _, elem := range items {
			if elem.IsNull() {
				continue
			}
			nonNullSeen = true
			switch elem.Kind() {
			case KindObject:
				if containerType == "" {
					containerType = "object"
				}
				extractSchema(elem, arrayPrefix, opts, out)
			case KindArray:
				if containerType == "" {
					containerType = "array"
				}
				extractSchema(elem, arrayPrefix, opts, out)
			default:
				if primitiveType == "" {
					primitiveType = describePrimitive(elem)
				}
				out[arrayPrefix] = "array<" + primitiveType + ">"
			}
		}

		if !nonNullSeen {
			out[arrayPrefix] = "array<null>"
			return
		}
		if primitiveType == "" {
			inferred := containerType
			if inferred == "" {
				inferred = "unknown"
			}
			out[arrayPrefix] = "array<" + inferred + ">"
		}
	default:
		out[prefix] = describePrimitive(v)
	}
}

// describePrimitive names the fingerprint type tag for a scalar value
// (spec.md §3's type-tag vocabulary), grounded on utils.go's getDataType.
func describePrimitive(v Value) string {
	switch v.Kind() {
	case KindNull:
		return "null"
	case KindBool:
		return "boolean"
	case KindNumber, KindInt:
		return "number"
	case KindString:
		return "string"
	default:
		return "unknown"
	}
}
