package mapengine

import "strings"

// AutoMapping produces a best-effort normative spec when the caller supplies
// none, using fingerprint similarity against the flattened target schema
// (spec.md §4.G), grounded on
// original_source/backend/mapping_service.py's _auto_mapping_spec.
func AutoMapping(payload Value, targetSchema Value) Value {
	inputSchema := Fingerprint(payload, FingerprintOptions{MaxItemsPerArray: 10})
	itemsPath := ChooseItemsPath(payload)

	flattened := FlattenTargetSchema(targetSchema)
	itemTargets := map[string]string{}
	for path := range flattened {
		if strings.Contains(path, ".items[]") {
			itemTargets[NormalizeCanonicalPath(path)] = path
		}
	}

	normalizedSources := map[string]string{}
	for path := range inputSchema {
		normalizedSources[NormalizeCanonicalPath(path)] = path
	}

	pickSource := func(targetField string) (string, bool) {
		if original, ok := normalizedSources[targetField]; ok {
			return original, true
		}
		tail := tailSegment(targetField)
		for normalized, original := range normalizedSources {
			if tailSegment(normalized) == tail {
				return original, true
			}
		}
		return "", false
	}

	roasterMap := NewObject()
	for _, normalizedTarget := range sortedMapKeys(itemTargets) {
		leaf := NewObject()
		if source, ok := pickSource(normalizedTarget); ok {
			leaf.Set("source", String(source))
		} else {
			leaf.Set("source", Null())
		}
		roasterMap.Set(normalizedTarget, leaf)
	}

	items := NewObject()
	items.Set("path", String(itemsPath))
	items.Set("map", roasterMap)
	mappings := NewObject()
	mappings.Set("items", items)

	out := NewObject()
	out.Set("version", String("1.0"))
	out.Set("defaults", NewObject())
	out.Set("broadcast", NewObject())
	out.Set("mappings", mappings)
	return out
}

func tailSegment(path string) string {
	idx := strings.LastIndex(path, ".")
	if idx == -1 {
		return path
	}
	return path[idx+1:]
}

func sortedMapKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return sortedStrings(keys)
}
