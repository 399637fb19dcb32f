package mapengine

import (
	"strconv"
	"strings"
)

// Executor evaluates a validated normative mapping spec against partner
// payloads (spec.md §4.F), grounded on
// original_source/backend/build/backend/roaster_mapping_executor.py's
// MappingExecutor. It is stateless across Execute calls and safe for
// concurrent use: it never mutates spec, canonicalPaths, or its inputs.
type Executor struct {
	spec           Value
	canonicalPaths []string
}

// NewExecutor binds a validated spec and its normalised canonical target
// paths (relative to the item root; i.e. after stripping a leading
// "items[]." or "items.").
func NewExecutor(spec Value, canonicalPaths []string) *Executor {
	normalized := make([]string, 0, len(canonicalPaths))
	for _, p := range canonicalPaths {
		if p != "" {
			normalized = append(normalized, NormalizeItemPath(p))
		}
	}
	return &Executor{spec: spec, canonicalPaths: normalized}
}

// NormalizeItemPath strips the leading "$"/"$." root, a leading
// "items[]."/"items." segment, and all "[]"/"[*]" tokens from a canonical
// path, grounded on
// _normalize_canonical_path (spec.md §9's open-question resolution).
func NormalizeItemPath(path string) string {
	normalized := stripRootPrefix(path)
	switch {
	case strings.HasPrefix(normalized, "items[]."):
		normalized = normalized[len("items[]."):]
	case strings.HasPrefix(normalized, "items."):
		normalized = normalized[len("items."):]
	}
	normalized = strings.ReplaceAll(normalized, "[*]", "")
	normalized = strings.ReplaceAll(normalized, "[]", "")
	return normalized
}

// Execute runs the bound spec against payload, producing {items: [...]},
// optionally carrying partner_id through. Malformed spec shapes are a fatal
// *EngineError; everything else is recovered locally per spec.md §7.
func (e *Executor) Execute(payload Value) (Value, error) {
	mappings, ok := e.spec.Get("mappings")
	if !ok || !mappings.IsObject() {
		return Value{}, newMalformedSpec("mapping_spec.mappings must be an object")
	}

	broadcastValues, err := e.computeBroadcast(payload)
	if err != nil {
		return Value{}, err
	}

	var defaults Value
	if d, ok := e.spec.Get("defaults"); ok && d.IsObject() {
		defaults = d
	} else {
		defaults = NewObject()
	}

	itemsSpec, ok := mappings.Get("items")
	if !ok || !itemsSpec.IsObject() {
		return Value{}, newMalformedSpec("mapping_spec.mappings.items must be an object")
	}
	itemsPathV, _ := itemsSpec.Get("path")
	if !itemsPathV.IsString() {
		return Value{}, newMalformedPath("mappings.items.path", "path must be a string")
	}
	rootItems, err := EvaluatePath(payload, itemsPathV.Str())
	if err != nil {
		return Value{}, err
	}

	itemsMapBlock, _ := itemsSpec.Get("map")
	if !itemsMapBlock.IsObject() {
		itemsMapBlock = NewObject()
	}

	mappedItems := make([]Value, 0, len(rootItems))
	for _, item := range rootItems {
		mappedItem := NewObject()
		e.applyBroadcast(&mappedItem, broadcastValues)
		if err := e.applyMapBlock(item, itemsMapBlock, &mappedItem); err != nil {
			return Value{}, err
		}
		e.applyDefaults(&mappedItem, defaults)
		e.ensureCanonicalFields(&mappedItem)
		mappedItems = append(mappedItems, mappedItem)
	}

	result := NewObject()
	result.Set("items", Array(mappedItems...))
	if partnerID, ok := e.spec.Get("partner_id"); ok && !partnerID.IsNull() {
		result.Set("partner_id", partnerID)
	}
	return result, nil
}

func (e *Executor) computeBroadcast(payload Value) (Value, error) {
	results := NewObject()
	broadcastSpec, ok := e.spec.Get("broadcast")
	if !ok || !broadcastSpec.IsObject() {
		return results, nil
	}
	for _, target := range broadcastSpec.Keys() {
		leaf, _ := broadcastSpec.Get(target)
		if !leaf.IsObject() {
			continue
		}
		value, err := e.evaluateField(payload, leaf)
		if err != nil {
			return Value{}, err
		}
		if !value.IsNull() {
			assignNested(&results, target, value)
		}
	}
	return results, nil
}

func (e *Executor) applyBroadcast(target *Value, broadcastValues Value) {
	for _, key := range broadcastValues.Keys() {
		v, _ := broadcastValues.Get(key)
		assignNested(target, key, v.Clone())
	}
}

func (e *Executor) applyDefaults(target *Value, defaults Value) {
	for _, key := range defaults.Keys() {
		v, _ := defaults.Get(key)
		if current, ok := getNested(*target, key); !ok || current.IsNull() {
			assignNested(target, key, v.Clone())
		}
	}
}

func (e *Executor) applyMapBlock(source Value, mapBlock Value, target *Value) error {
	for _, field := range mapBlock.Keys() {
		spec, _ := mapBlock.Get(field)
		if !spec.IsObject() {
			continue
		}

		pathV, hasPath := spec.Get("path")
		mapV, hasMap := spec.Get("map")
		if hasPath && hasMap {
			if !pathV.IsString() {
				return newMalformedPath(field, "nested path must be a string")
			}
			elements, err := EvaluatePath(source, pathV.Str())
			if err != nil {
				return err
			}
			nestedResults := make([]Value, 0, len(elements))
			for _, element := range elements {
				nestedItem := NewObject()
				if err := e.applyMapBlock(element, mapV, &nestedItem); err != nil {
					return err
				}
				nestedResults = append(nestedResults, nestedItem)
			}
			assignNested(target, field, Array(nestedResults...))
			continue
		}

		value, err := e.evaluateField(source, spec)
		if err != nil {
			return err
		}
		requiredV, _ := spec.Get("required")
		required := requiredV.Kind() == KindBool && requiredV.Bool()
		if value.IsNull() && !required {
			continue
		}
		assignNested(target, field, value)
	}
	return nil
}

func (e *Executor) evaluateField(source Value, spec Value) (Value, error) {
	sourcesV, ok := spec.Get("source")
	if !ok || sourcesV.IsNull() {
		return Null(), nil
	}

	var sources []Value
	switch {
	case sourcesV.IsString():
		sources = []Value{sourcesV}
	case sourcesV.IsArray():
		sources = sourcesV.Items()
	default:
		return Value{}, newMalformedSpec("source must be a string or list of strings")
	}

	var value Value
	found := false
	for _, pathV := range sources {
		if !pathV.IsString() {
			continue
		}
		values, err := EvaluatePath(source, pathV.Str())
		if err != nil {
			return Value{}, err
		}
		var nonNull []Value
		for _, v := range values {
			if !v.IsNull() {
				nonNull = append(nonNull, v)
			}
		}
		if len(nonNull) == 0 {
			continue
		}
		if len(nonNull) > 1 {
			value = Array(nonNull...)
		} else {
			value = nonNull[0]
		}
		found = true
		break
	}
	if !found {
		return Null(), nil
	}

	if transformV, ok := spec.Get("transform"); ok && transformV.IsString() {
		value = applyTransform(value, transformV.Str())
	}
	if matchV, ok := spec.Get("match"); ok && matchV.IsObject() {
		value = applyMatch(value, matchV)
	}
	return value.Clone(), nil
}

func applyMatch(value Value, matchMap Value) Value {
	defaultV, hasDefault := matchMap.Get("default")
	if !hasDefault {
		defaultV = Null()
	}

	mapOne := func(v Value) Value {
		if v.IsNull() {
			return defaultV
		}
		key := stringifyScalar(v)
		if mapped, ok := matchMap.Get(key); ok {
			return mapped
		}
		return defaultV
	}

	if value.IsArray() {
		items := value.Items()
		out := make([]Value, len(items))
		for i, v := range items {
			out[i] = mapOne(v)
		}
		return Array(out...)
	}
	return mapOne(value)
}

func (e *Executor) ensureCanonicalFields(target *Value) {
	for _, path := range e.canonicalPaths {
		parts := strings.Split(path, ".")
		if pathConflictsWithList(*target, parts) {
			continue
		}
		if current, ok := getNested(*target, path); !ok || current.IsNull() {
			assignNested(target, path, Null())
		}
	}
}

// assignNested writes value into target at dottedPath, creating missing
// intermediate objects and overwriting non-object intermediates (spec.md
// §4.F.3).
func assignNested(target *Value, dottedPath string, value Value) {
	if !target.IsObject() {
		*target = NewObject()
	}
	descendAssign(target, strings.Split(dottedPath, "."), value)
}

func descendAssign(target *Value, parts []string, value Value) {
	if len(parts) == 1 {
		target.Set(parts[0], value)
		return
	}
	head := parts[0]
	child, ok := target.Get(head)
	if !ok || !child.IsObject() {
		child = NewObject()
	}
	descendAssign(&child, parts[1:], value)
	target.Set(head, child)
}

func getNested(data Value, dottedPath string) (Value, bool) {
	parts := strings.Split(dottedPath, ".")
	cursor := data
	for _, part := range parts {
		if !cursor.IsObject() {
			return Value{}, false
		}
		next, ok := cursor.Get(part)
		if !ok {
			return Value{}, false
		}
		cursor = next
	}
	return cursor, true
}

func pathConflictsWithList(target Value, parts []string) bool {
	cursor := target
	for _, part := range parts {
		if cursor.IsArray() {
			return true
		}
		if !cursor.IsObject() {
			return false
		}
		next, ok := cursor.Get(part)
		if !ok {
			return false
		}
		cursor = next
	}
	return cursor.IsArray()
}

func stringifyScalar(v Value) string {
	switch v.Kind() {
	case KindString:
		return v.Str()
	case KindBool:
		if v.Bool() {
			return "True"
		}
		return "False"
	case KindInt:
		return strconv.FormatInt(int64(v.Float()), 10)
	case KindNumber:
		return strconv.FormatFloat(v.Float(), 'g', -1, 64)
	default:
		return ""
	}
}
