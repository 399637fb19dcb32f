package mapengine

import (
	"strconv"
	"strings"
)

// applyTransform converts value per a leaf spec's transform name, applying
// element-wise over list values where appropriate (spec.md §4.F.1), grounded
// on roaster_mapping_executor.py's _apply_transform.
func applyTransform(value Value, transform string) Value {
	if transform == "ensure_array" {
		if value.IsArray() {
			return value
		}
		if value.IsNull() {
			return Array()
		}
		return Array(value)
	}

	if value.IsArray() {
		items := value.Items()
		out := make([]Value, len(items))
		for i, v := range items {
			out[i] = convertScalar(v, transform)
		}
		return Array(out...)
	}
	return convertScalar(value, transform)
}

func convertScalar(value Value, transform string) Value {
	if value.IsNull() {
		return Null()
	}
	switch transform {
	case "to_float":
		if f, ok := toFloat(value); ok {
			return Number(f)
		}
		return Null()
	case "to_int":
		if f, ok := toFloat(value); ok {
			return Int(int64(f))
		}
		return Null()
	case "to_string":
		return String(toStringValue(value))
	case "to_boolean":
		return toBoolean(value)
	default:
		if canonical := legacyTransformSynonym(transform); canonical != "" {
			return convertScalar(value, canonical)
		}
		return value
	}
}

func toFloat(v Value) (float64, bool) {
	switch v.Kind() {
	case KindNumber, KindInt:
		return v.Float(), true
	case KindBool:
		if v.Bool() {
			return 1, true
		}
		return 0, true
	case KindString:
		return parseFloatLoose(v.Str())
	default:
		return 0, false
	}
}

func parseFloatLoose(s string) (float64, bool) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func toStringValue(v Value) string {
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

// toBoolean parses a value per spec.md §4.F.1's boolean-string vocabulary:
// {true,1,yes,y} -> true; {false,0,no,n} -> false; otherwise null.
func toBoolean(v Value) Value {
	if v.Kind() == KindBool {
		return v
	}
	if v.IsString() {
		lowered := strings.ToLower(strings.TrimSpace(v.Str()))
		switch lowered {
		case "true", "1", "yes", "y":
			return Bool(true)
		case "false", "0", "no", "n":
			return Bool(false)
		default:
			return Null()
		}
	}
	switch v.Kind() {
	case KindNumber, KindInt:
		return Bool(v.Float() != 0)
	default:
		return Null()
	}
}
