package mapengine

import "strings"

// RepairInput is either a raw mapping-spec Value or text (possibly wrapped
// in prose/markdown) that Repair must first coerce into a JSON object.
type RepairInput struct {
	Value Value
	Text  string
	IsText bool
}

// SpecValue wraps an already-decoded Value as a RepairInput.
func SpecValue(v Value) RepairInput { return RepairInput{Value: v} }

// SpecText wraps raw text as a RepairInput.
func SpecText(text string) RepairInput { return RepairInput{Text: text, IsText: true} }

// Repair coerces and normalises a spec fragment into the nested dialect
// (spec.md §4.D), grounded on
// original_source/backend/roaster_mapping_repair.py's repair_mapping_spec.
// allowedTargets, when non-nil, both filters unknown top-level item targets
// and backfills missing ones with a null source.
func Repair(input RepairInput, allowedTargets []string) (Value, []string) {
	var repairs []string

	spec, ok := coerceMappingSpec(input, &repairs)
	if !ok {
		return Value{}, repairs
	}

	if defaults, ok := spec.Get("defaults"); !ok || !defaults.IsObject() {
		spec.Set("defaults", NewObject())
		repairs = append(repairs, "Initialized missing defaults to {}")
	}
	if broadcast, ok := spec.Get("broadcast"); !ok || !broadcast.IsObject() {
		spec.Set("broadcast", NewObject())
		repairs = append(repairs, "Initialized missing broadcast to {}")
	}

	defaultsV, _ := spec.Get("defaults")
	normalizedDefaults, changed := normalizeTargetKeyDict(defaultsV)
	repairs = append(repairs, changed...)
	spec.Set("defaults", normalizedDefaults)

	broadcastV, _ := spec.Get("broadcast")
	normalizedBroadcast, changed := normalizeTargetKeyDict(broadcastV)
	repairs = append(repairs, changed...)
	spec.Set("broadcast", normalizedBroadcast)

	mappings, ok := spec.Get("mappings")
	if !ok || !mappings.IsObject() {
		return spec, repairs
	}
	items, ok := mappings.Get("items")
	if !ok || !items.IsObject() {
		return spec, repairs
	}
	itemsMap, ok := items.Get("map")
	if !ok || !itemsMap.IsObject() {
		return spec, repairs
	}

	broadcastRef, _ := spec.Get("broadcast")
	defaultsRef, _ := spec.Get("defaults")

	var allowedSet map[string]bool
	if allowedTargets != nil {
		allowedSet = map[string]bool{}
		for _, t := range allowedTargets {
			allowedSet[t] = true
		}
	}

	repairedMap, changed := repairMapBlock(itemsMap, &broadcastRef, &defaultsRef, allowedSet, true)
	repairs = append(repairs, changed...)
	items.Set("map", repairedMap)
	mappings.Set("items", items)
	spec.Set("mappings", mappings)
	spec.Set("broadcast", broadcastRef)
	spec.Set("defaults", defaultsRef)

	if allowedSet != nil {
		for _, target := range sortedStrings(allowedTargets) {
			if _, ok := repairedMap.Get(target); !ok {
				leaf := NewObject()
				leaf.Set("source", Null())
				repairedMap.Set(target, leaf)
				repairs = append(repairs, "Added missing target '"+target+"' with null source")
			}
		}
		items.Set("map", repairedMap)
		mappings.Set("items", items)
		spec.Set("mappings", mappings)
	}

	return spec, repairs
}

func coerceMappingSpec(input RepairInput, repairs *[]string) (Value, bool) {
	if !input.IsText {
		if input.Value.IsObject() {
			return input.Value.Clone(), true
		}
		return Value{}, false
	}
	extracted, ok := ExtractFirstJSONObject(input.Text)
	if !ok {
		*repairs = append(*repairs, "Failed to extract JSON object from mapping text")
		return Value{}, false
	}
	*repairs = append(*repairs, "Extracted JSON object from mapping text wrapper")
	return extracted, true
}

// ExtractFirstJSONObject scans text for the first balanced JSON object,
// tracking string escapes and brace depth (spec.md §4.D step 1), grounded
// on extract_first_json_object.
func ExtractFirstJSONObject(text string) (Value, bool) {
	stripped := strings.TrimSpace(text)
	if strings.HasPrefix(stripped, "{") && strings.HasSuffix(stripped, "}") {
		if v, err := ParseJSON([]byte(stripped)); err == nil && v.IsObject() {
			return v, true
		}
	}

	start := strings.Index(stripped, "{")
	if start == -1 {
		return Value{}, false
	}

	inString := false
	escape := false
	depth := 0
	for i := start; i < len(stripped); i++ {
		ch := stripped[i]
		if inString {
			switch {
			case escape:
				escape = false
			case ch == '\\':
				escape = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				candidate := stripped[start : i+1]
				v, err := ParseJSON([]byte(candidate))
				if err != nil || !v.IsObject() {
					return Value{}, false
				}
				return v, true
			}
		}
	}
	return Value{}, false
}

func normalizeTargetKey(key string) string {
	return strings.ReplaceAll(key, "[]", "")
}

func normalizeTargetKeyDict(d Value) (Value, []string) {
	var repairs []string
	out := NewObject()
	for _, k := range d.Keys() {
		v, _ := d.Get(k)
		nk := normalizeTargetKey(k)
		if nk != k {
			repairs = append(repairs, "Normalized target key '"+k+"' -> '"+nk+"'")
		}
		out.Set(nk, v)
	}
	return out, repairs
}

func looksLikeJSONPath(s string) bool { return strings.HasPrefix(s, "$") }

func looksLikeExpression(s string) bool {
	if !strings.HasPrefix(s, "$") {
		return false
	}
	for _, token := range []string{" + ", " - ", " * ", " / ", "'", `"`, "(", ")"} {
		if strings.Contains(s, token) {
			return true
		}
	}
	return false
}

// repairLeafMapping rewrites a leaf's source list: drops expressions,
// relocates feed-level sources to broadcast, demotes bare constants to
// defaults (spec.md §4.D step 4 "otherwise").
func repairLeafMapping(target string, spec Value, broadcast, defaults *Value, inItemContext bool, repairs *[]string) Value {
	sourceV, ok := spec.Get("source")
	if !ok {
		return spec
	}
	if sourceV.IsNull() {
		return spec
	}

	var sourceList []Value
	switch {
	case sourceV.IsString():
		sourceList = []Value{sourceV}
	case sourceV.IsArray():
		sourceList = sourceV.Items()
	default:
		return spec
	}

	var cleaned []Value
	for _, s := range sourceList {
		if s.IsString() && looksLikeExpression(s.Str()) {
			*repairs = append(*repairs, "Removed expression source for '"+target+"' (set to null)")
			continue
		}
		cleaned = append(cleaned, s)
	}

	if inItemContext {
		var feedSources, nonFeedSources []Value
		for _, s := range cleaned {
			if s.IsString() && hasFeedLevelPrefix(s.Str()) {
				feedSources = append(feedSources, s)
			} else {
				nonFeedSources = append(nonFeedSources, s)
			}
		}
		if len(feedSources) > 0 {
			if _, exists := broadcast.Get(target); !exists {
				leaf := NewObject()
				leaf.Set("source", feedSources[0])
				broadcast.Set(target, leaf)
				*repairs = append(*repairs, "Moved feed-level source to broadcast for '"+target+"'")
			}
			cleaned = nonFeedSources
		}
	}

	if len(cleaned) > 0 {
		first := cleaned[0]
		if first.IsString() && !looksLikeJSONPath(first.Str()) {
			defaults.Set(target, first)
			*repairs = append(*repairs, "Moved constant source into defaults for '"+target+"'")
			cleaned = nil
		}
	}

	out := spec.Clone()
	if len(cleaned) == 0 {
		out.Set("source", Null())
		return out
	}
	if len(cleaned) == 1 {
		out.Set("source", cleaned[0])
	} else {
		out.Set("source", Array(cleaned...))
	}
	return out
}

func repairMapBlock(mapBlock Value, broadcast, defaults *Value, allowedTargets map[string]bool, inItemContext bool) (Value, []string) {
	var repairs []string
	out := NewObject()

	for _, target := range mapBlock.Keys() {
		spec, _ := mapBlock.Get(target)
		if !spec.IsObject() {
			continue
		}

		normalized := normalizeTargetKey(target)
		if strings.Contains(normalized, "$") {
			repairs = append(repairs, "Dropped illegal target field '"+target+"'")
			continue
		}
		if allowedTargets != nil && !allowedTargets[normalized] {
			repairs = append(repairs, "Dropped unknown target field '"+target+"'")
			continue
		}

		pathV, hasPath := spec.Get("path")
		mapV, hasMap := spec.Get("map")
		if hasPath && hasMap && mapV.IsObject() {
			nestedMap, nestedRepairs := repairMapBlock(mapV, broadcast, defaults, nil, true)
			newSpec := spec.Clone()
			newSpec.Set("path", pathV)
			newSpec.Set("map", nestedMap)
			out.Set(normalized, newSpec)
			repairs = append(repairs, nestedRepairs...)
			continue
		}

		repairedLeaf := repairLeafMapping(normalized, spec, broadcast, defaults, inItemContext, &repairs)
		out.Set(normalized, repairedLeaf)
	}

	return out, repairs
}
