package mapengine

import "strings"

// EvaluatePath walks a constrained JSONPath subset against root and returns
// the ordered list of matched values (spec.md §4.A). Object iteration
// follows insertion order; array iteration follows index order, so the
// result is fully deterministic.
func EvaluatePath(root Value, path string) ([]Value, error) {
	trimmed := stripRootPrefix(path)
	if trimmed == "" {
		return []Value{root}, nil
	}

	segments := strings.Split(trimmed, ".")
	current := []Value{root}
	for _, segment := range segments {
		key, isArray := splitArraySuffix(segment)
		var next []Value
		for _, v := range current {
			candidate, ok := lookupSegment(v, key)
			if !ok {
				continue
			}
			if candidate.IsNull() {
				continue
			}
			if isArray {
				if candidate.IsArray() {
					next = append(next, candidate.Items()...)
				}
				continue
			}
			next = append(next, candidate)
		}
		current = next
	}
	return current, nil
}

func stripRootPrefix(path string) string {
	if strings.HasPrefix(path, "$.") {
		return path[2:]
	}
	if strings.HasPrefix(path, "$") {
		return path[1:]
	}
	return path
}

// splitArraySuffix detects a trailing `[]`/`[*]` array marker and returns the
// bare key plus whether the segment was array-terminated. A bare `[]`/`[*]`
// segment (root array expansion) yields an empty key.
func splitArraySuffix(segment string) (key string, isArray bool) {
	switch {
	case strings.HasSuffix(segment, "[]"):
		return segment[:len(segment)-2], true
	case strings.HasSuffix(segment, "[*]"):
		return segment[:len(segment)-3], true
	default:
		return segment, false
	}
}

// lookupSegment resolves key against v: object key lookup, or (for the bare
// array-root case, key == "") the array itself.
func lookupSegment(v Value, key string) (Value, bool) {
	if key == "" {
		if v.IsArray() {
			return v, true
		}
		return Value{}, false
	}
	if v.IsObject() {
		return v.Get(key)
	}
	return Value{}, false
}
