package mapengine

import (
	"fmt"
	"strings"
)

// Validate returns a list of human-readable error strings describing why
// spec does not satisfy the mapping-spec contracts (spec.md §4.E), grounded
// on original_source/backend/build/backend/roaster_mapping_validator.py's
// validate_mapping_spec. An empty result means spec is valid.
func Validate(spec Value) []string {
	if !spec.IsObject() {
		return []string{"mapping_spec must be a JSON object"}
	}

	var errs []string

	mappings, ok := spec.Get("mappings")
	if !ok || !mappings.IsObject() {
		return append(errs, "mapping_spec.mappings must be an object")
	}

	items, ok := mappings.Get("items")
	if !ok || !items.IsObject() {
		return append(errs, "mapping_spec.mappings.items must be an object")
	}

	itemsPath, _ := items.Get("path")
	if !isArrayPath(itemsPath) {
		errs = append(errs, "mappings.items.path must be a JSONPath array (e.g., $.items[])")
	}

	itemsMap, ok := items.Get("map")
	if !ok || !itemsMap.IsObject() {
		return append(errs, "mapping_spec.mappings.items.map must be an object")
	}

	errs = append(errs, validateMapBlock(itemsMap, "mappings.items.map", true)...)

	for _, section := range []string{"broadcast", "defaults"} {
		sectionV, ok := spec.Get(section)
		if !ok {
			continue
		}
		if !sectionV.IsObject() {
			errs = append(errs, fmt.Sprintf("mapping_spec.%s must be an object", section))
			continue
		}
		for _, target := range sectionV.Keys() {
			if targetHasIllegalTokens(target) {
				errs = append(errs, fmt.Sprintf("%s target '%s' must not contain '$' or '[]'", section, target))
			}
		}
	}

	return errs
}

func validateMapBlock(mapBlock Value, context string, inItemContext bool) []string {
	var errs []string
	for _, target := range mapBlock.Keys() {
		spec, _ := mapBlock.Get(target)
		if targetHasIllegalTokens(target) {
			errs = append(errs, fmt.Sprintf("%s target '%s' must not contain '$' or '[]'", context, target))
		}
		if !spec.IsObject() {
			errs = append(errs, fmt.Sprintf("%s.%s must be an object", context, target))
			continue
		}

		pathV, hasPath := spec.Get("path")
		mapV, hasMap := spec.Get("map")
		if hasPath && hasMap {
			if !isArrayPath(pathV) {
				errs = append(errs, fmt.Sprintf("%s.%s.path must be a JSONPath array", context, target))
			}
			if !mapV.IsObject() {
				errs = append(errs, fmt.Sprintf("%s.%s.map must be an object", context, target))
			} else {
				errs = append(errs, validateMapBlock(mapV, context+"."+target+".map", true)...)
			}
			continue
		}

		sourceV, ok := spec.Get("source")
		if !ok || sourceV.IsNull() {
			continue
		}
		var sources []Value
		switch {
		case sourceV.IsString():
			sources = []Value{sourceV}
		case sourceV.IsArray():
			sources = sourceV.Items()
		default:
			errs = append(errs, fmt.Sprintf("%s.%s.source must be a string or list", context, target))
			continue
		}

		if inItemContext {
			for _, source := range sources {
				if source.IsString() && hasFeedLevelPrefix(source.Str()) {
					errs = append(errs, fmt.Sprintf("%s.%s.source references feed metadata; use broadcast/defaults", context, target))
				}
			}
		}
	}
	return errs
}

func isArrayPath(v Value) bool {
	if !v.IsString() {
		return false
	}
	s := v.Str()
	return strings.HasSuffix(s, "[]") || strings.HasSuffix(s, "[*]")
}

func targetHasIllegalTokens(target string) bool {
	return strings.Contains(target, "$") || strings.Contains(target, "[]")
}
