package mapengine

import "strings"

// FeedLevelPrefixes are source-path prefixes that indicate feed-level data:
// it does not vary per item and belongs in broadcast, not in an item leaf.
var FeedLevelPrefixes = []string{
	"$.feed_metadata",
	"$.meta",
	"$.source",
	"$.partner",
	"$.schema_version",
	"$.default_operation_type",
}

func hasFeedLevelPrefix(source string) bool {
	for _, prefix := range FeedLevelPrefixes {
		if strings.HasPrefix(source, prefix) {
			return true
		}
	}
	return false
}

// IsLegacySpec reports whether v is shaped as the legacy flat dialect:
// mappings is a list of {target, source, ...} entries rather than the
// nested {items: {path, map}} tree.
func IsLegacySpec(v Value) bool {
	if !v.IsObject() {
		return false
	}
	mappings, ok := v.Get("mappings")
	return ok && mappings.IsArray()
}

// IsNormativeSpec reports whether v is already shaped as the nested dialect
// (mappings is an object, regardless of whether its sub-fields validate).
func IsNormativeSpec(v Value) bool {
	if !v.IsObject() {
		return false
	}
	mappings, ok := v.Get("mappings")
	return ok && mappings.IsObject()
}

// ChooseItemsPath picks the item-sequence path for an arbitrary payload,
// grounded on original_source/backend/mapping_service.py's _choose_items_path.
func ChooseItemsPath(payload Value) string {
	if payload.IsArray() {
		return "$[]"
	}
	if payload.IsObject() {
		for _, key := range []string{"items", "data", "records"} {
			if v, ok := payload.Get(key); ok && v.IsArray() {
				return "$." + key + "[]"
			}
		}
	}
	return "$.items[]"
}

// legacyTransformSynonym maps the legacy flat-dialect transform names onto
// the executor's canonical transform identifiers. "date" maps to to_string
// for backward compatibility (spec.md §9 ambiguous-behavior note 1).
func legacyTransformSynonym(transform string) string {
	switch transform {
	case "string", "date":
		return "to_string"
	case "number":
		return "to_float"
	case "integer":
		return "to_int"
	case "boolean":
		return "to_boolean"
	default:
		return ""
	}
}

// ConvertLegacySpec converts a flat-list dialect spec into the nested
// normative dialect, grounded on
// original_source/backend/mapping_service.py's _build_roaster_mapping_from_list.
func ConvertLegacySpec(legacy Value, payload Value) Value {
	itemsPath := ChooseItemsPath(payload)

	defaults := NewObject()
	if d, ok := legacy.Get("defaults"); ok && d.IsObject() {
		defaults = d.Clone()
	}

	entries, _ := legacy.Get("mappings")
	roasterMap := NewObject()
	for _, entry := range entries.Items() {
		if !entry.IsObject() {
			continue
		}
		targetV, ok := entry.Get("target")
		if !ok || !targetV.IsString() || targetV.Str() == "" {
			continue
		}
		target := targetV.Str()

		leaf := NewObject()
		if source, ok := entry.Get("source"); ok {
			if source.IsArray() {
				var cleaned []Value
				for _, s := range source.Items() {
					if s.IsString() && strings.TrimSpace(s.Str()) != "" {
						cleaned = append(cleaned, s)
					}
				}
				if len(cleaned) > 0 {
					leaf.Set("source", Array(cleaned...))
				} else {
					leaf.Set("source", Null())
				}
			} else if source.IsString() {
				if strings.TrimSpace(source.Str()) == "" {
					leaf.Set("source", Null())
				} else {
					leaf.Set("source", source)
				}
			} else {
				leaf.Set("source", Null())
			}
		} else {
			leaf.Set("source", Null())
		}

		if transformV, ok := entry.Get("transform"); ok && transformV.IsString() {
			if canonical := legacyTransformSynonym(transformV.Str()); canonical != "" {
				leaf.Set("transform", String(canonical))
			}
		}
		if requiredV, ok := entry.Get("required"); ok && requiredV.Kind() == KindBool && requiredV.Bool() {
			leaf.Set("required", Bool(true))
		}
		if matchV, ok := entry.Get("match"); ok && matchV.IsObject() {
			leaf.Set("match", matchV)
		}
		if defaultV, ok := entry.Get("default"); ok && !defaultV.IsNull() {
			defaults.Set(target, defaultV)
		}

		roasterMap.Set(target, leaf)
	}

	mappings := NewObject()
	items := NewObject()
	items.Set("path", String(itemsPath))
	items.Set("map", roasterMap)
	mappings.Set("items", items)

	out := NewObject()
	out.Set("version", String("1.0"))
	out.Set("defaults", defaults)
	out.Set("broadcast", NewObject())
	out.Set("mappings", mappings)
	return out
}
