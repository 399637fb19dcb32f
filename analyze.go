package mapengine

import (
	"fmt"
	"strings"
)

// PayloadIssue is a single preview-derived observation about a payload's
// sampled rows (spec.md §6's preview issue taxonomy).
type PayloadIssue struct {
	Field   string
	Level   string
	Message string
}

// PayloadAnalysis is AnalyzePayload's result: a schema fingerprint, up to
// three sample rows, and any issues detected across them.
type PayloadAnalysis struct {
	Schema  map[string]string
	Preview []Value
	Issues  []PayloadIssue
}

// AnalyzePayload fingerprints data and reports preview-level data-quality
// issues (spec.md §6), grounded on
// original_source/backend/mapping_service.py's analyze_payload.
func AnalyzePayload(data Value) PayloadAnalysis {
	schema := Fingerprint(data, FingerprintOptions{MaxItemsPerArray: 10})
	preview := extractPreviewRows(data, 3)
	issues := detectIssues(preview)
	return PayloadAnalysis{Schema: schema, Preview: preview, Issues: issues}
}

func extractPreviewRows(data Value, limit int) []Value {
	var rows []Value
	switch {
	case data.IsArray():
		for _, row := range data.Items() {
			if row.IsObject() {
				rows = append(rows, row)
			}
		}
	case data.IsObject():
		if items, ok := data.Get("items"); ok && items.IsArray() {
			for _, row := range items.Items() {
				if row.IsObject() {
					rows = append(rows, row)
				}
			}
		}
	}
	if len(rows) > limit {
		rows = rows[:limit]
	}
	return rows
}

// detectIssues flags mixed value types and missing values across sampled
// rows, grounded on _detect_issues.
func detectIssues(rows []Value) []PayloadIssue {
	var issues []PayloadIssue
	if len(rows) == 0 {
		return issues
	}

	fieldOrder := []string{}
	fieldTypes := map[string]map[string]bool{}
	nullFields := map[string]int{}

	for _, row := range rows {
		for _, key := range row.Keys() {
			value, _ := row.Get(key)
			if _, seen := fieldTypes[key]; !seen {
				fieldTypes[key] = map[string]bool{}
				fieldOrder = append(fieldOrder, key)
			}
			if isMissingValue(value) {
				nullFields[key]++
				continue
			}
			fieldTypes[key][pythonTypeName(value)] = true
		}
	}

	for _, field := range fieldOrder {
		types := fieldTypes[field]
		if len(types) > 1 {
			issues = append(issues, PayloadIssue{
				Field:   field,
				Level:   "warning",
				Message: fmt.Sprintf("Mixed value types detected (%s).", strings.Join(sortedStrings(mapKeys(types)), ", ")),
			})
		}
	}
	for _, field := range fieldOrder {
		if count, ok := nullFields[field]; ok {
			issues = append(issues, PayloadIssue{
				Field:   field,
				Level:   "warning",
				Message: fmt.Sprintf("%d sample rows missing values.", count),
			})
		}
	}

	return issues
}

func isMissingValue(v Value) bool {
	if v.IsNull() {
		return true
	}
	if v.IsString() && v.Str() == "" {
		return true
	}
	return false
}

// pythonTypeName mirrors type(value).__name__ for the scalar Python types the
// source payload can hold, so "Mixed value types detected (int, str)." reads
// the same way it did in the original implementation.
func pythonTypeName(v Value) string {
	switch v.Kind() {
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindNumber:
		return "float"
	case KindString:
		return "str"
	case KindArray:
		return "list"
	case KindObject:
		return "dict"
	default:
		return "NoneType"
	}
}

func mapKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
