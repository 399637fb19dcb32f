package mapengine

import (
	"fmt"
	"strings"
)

const maxIssueEntries = 40

// SparseField reports a canonical path present in fewer than half of the
// output items.
type SparseField struct {
	Field   string
	NonNull int
	Total   int
}

// IssueSummary is the Refinement Loop's per-iteration quality signal
// (spec.md §4.H.1), grounded on test_mapping_agent.py's stop-condition
// expectations.
type IssueSummary struct {
	ValidationErrors       []string
	MissingSourceFields    []string
	ExecutionError         string
	FieldsWithNoValues     []string
	FieldsWithSparseValues []SparseField
}

// HasIssues reports whether any dimension of the summary is non-empty.
func (s IssueSummary) HasIssues() bool {
	return len(s.ValidationErrors) > 0 ||
		len(s.MissingSourceFields) > 0 ||
		s.ExecutionError != "" ||
		len(s.FieldsWithNoValues) > 0 ||
		len(s.FieldsWithSparseValues) > 0
}

// ComputeIssueSummary runs validation and execution against spec/payload and
// derives the quality signal the Refinement Loop uses to decide whether to
// keep iterating.
func ComputeIssueSummary(spec Value, payload Value, canonicalPaths []string) IssueSummary {
	summary := IssueSummary{
		ValidationErrors: capEntries(Validate(spec)),
	}

	if itemsMap := itemsMapBlock(spec); itemsMap.IsObject() {
		summary.MissingSourceFields = capEntries(collectMissingSourceFields(itemsMap, ""))
	}

	result, err := NewExecutor(spec, canonicalPaths).Execute(payload)
	if err != nil {
		summary.ExecutionError = err.Error()
		return summary
	}

	items, _ := result.Get("items")
	if !items.IsArray() || len(items.Items()) == 0 {
		summary.ExecutionError = "Mapping output has no items."
		return summary
	}

	noValues, sparse := scanFieldCoverage(items.Items(), canonicalPaths)
	summary.FieldsWithNoValues = capEntries(noValues)
	if len(sparse) > maxIssueEntries {
		sparse = sparse[:maxIssueEntries]
	}
	summary.FieldsWithSparseValues = sparse
	return summary
}

func itemsMapBlock(spec Value) Value {
	mappings, ok := spec.Get("mappings")
	if !ok || !mappings.IsObject() {
		return Value{}
	}
	items, ok := mappings.Get("items")
	if !ok || !items.IsObject() {
		return Value{}
	}
	m, _ := items.Get("map")
	return m
}

func collectMissingSourceFields(mapBlock Value, prefix string) []string {
	var out []string
	for _, key := range mapBlock.Keys() {
		spec, _ := mapBlock.Get(key)
		if !spec.IsObject() {
			continue
		}
		dotted := key
		if prefix != "" {
			dotted = prefix + "." + key
		}

		_, hasPath := spec.Get("path")
		mapV, hasMap := spec.Get("map")
		if hasPath && hasMap && mapV.IsObject() {
			out = append(out, collectMissingSourceFields(mapV, dotted)...)
			continue
		}

		sourceV, ok := spec.Get("source")
		if !ok || sourceV.IsNull() {
			out = append(out, dotted)
			continue
		}
		if sourceV.IsArray() && len(sourceV.Items()) == 0 {
			out = append(out, dotted)
		}
	}
	return out
}

// scanFieldCoverage reports canonical paths with zero non-missing values,
// and those present in under half of items, across the executed output.
// A canonical path crossing an ancestor list inside an item is treated as
// "not present" (spec.md §9 ambiguous-behavior note 2).
func scanFieldCoverage(items []Value, canonicalPaths []string) ([]string, []SparseField) {
	var noValues []string
	var sparse []SparseField
	total := len(items)

	for _, path := range canonicalPaths {
		nonNull := 0
		for _, item := range items {
			value, ok := lookupCanonicalField(item, path)
			if ok && !isMissingValue2(value) {
				nonNull++
			}
		}
		if nonNull == 0 {
			noValues = append(noValues, path)
			continue
		}
		if total > 0 && nonNull*2 < total {
			sparse = append(sparse, SparseField{Field: path, NonNull: nonNull, Total: total})
		}
	}
	return noValues, sparse
}

func lookupCanonicalField(item Value, dottedPath string) (Value, bool) {
	parts := strings.Split(dottedPath, ".")
	cursor := item
	for _, part := range parts {
		if cursor.IsArray() {
			return Value{}, false
		}
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

// isMissingValue2 extends isMissingValue with the empty-list/empty-object
// cases the issue-summary sparsity scan additionally treats as missing.
func isMissingValue2(v Value) bool {
	if isMissingValue(v) {
		return true
	}
	if v.IsArray() && len(v.Items()) == 0 {
		return true
	}
	if v.IsObject() && v.Len() == 0 {
		return true
	}
	return false
}

func capEntries(entries []string) []string {
	if len(entries) > maxIssueEntries {
		return entries[:maxIssueEntries]
	}
	return entries
}

// RefinementOptions configures the bounded Refinement Loop (spec.md §4.H).
type RefinementOptions struct {
	Enabled       bool
	MaxIterations int // clamped to [1,5]; default 3
}

func (o RefinementOptions) clampedMaxIterations() int {
	n := o.MaxIterations
	if n == 0 {
		n = 3
	}
	if n > 5 {
		n = 5
	}
	if n < 1 {
		n = 1
	}
	return n
}

// RefinementResult carries the loop's final spec plus how many oracle
// invocations it made, useful for tests asserting Scenario 5/6's exact call
// counts.
type RefinementResult struct {
	Spec           Value
	OracleCalls    int
	FinalIssues    IssueSummary
}

// Refine runs the bounded oracle-guided refinement loop (spec.md §4.H),
// grounded on test_mapping_agent.py's stop-condition tests.
func Refine(base Value, payload Value, targetSchema Value, canonicalPaths []string, opts RefinementOptions, oracle Oracle) RefinementResult {
	current := base
	maxIterations := opts.clampedMaxIterations()
	result := RefinementResult{Spec: current}

	for i := 0; i < maxIterations; i++ {
		repaired, _ := Repair(SpecValue(current), canonicalPaths)
		if !repaired.IsObject() {
			repaired = AutoMapping(payload, targetSchema)
		}
		current = repaired

		summary := ComputeIssueSummary(current, payload, canonicalPaths)
		result.Spec = current
		result.FinalIssues = summary

		if !summary.HasIssues() {
			return result
		}
		if oracle == nil {
			return result
		}

		prompt := buildRefinementPrompt(payload, targetSchema, current, summary)
		completion, ok := oracle.Complete(prompt)
		result.OracleCalls++
		if !ok || strings.TrimSpace(completion) == "" {
			return result
		}

		refined, _ := Repair(SpecText(completion), canonicalPaths)
		if !refined.IsObject() {
			return result
		}
		if valuesEqual(refined, current) {
			return result
		}
		current = refined
	}

	return result
}

func buildRefinementPrompt(payload Value, targetSchema Value, currentSpec Value, summary IssueSummary) string {
	inputSchema := Fingerprint(payload, FingerprintOptions{MaxItemsPerArray: 10})
	var b strings.Builder
	fmt.Fprintln(&b, "Refine the mapping spec to resolve the following issues.")
	fmt.Fprintln(&b, "Input schema:")
	for _, k := range SortedFingerprintKeys(inputSchema) {
		fmt.Fprintf(&b, "  %s: %s\n", k, inputSchema[k])
	}
	fmt.Fprintln(&b, "Target schema:")
	for k, v := range FlattenTargetSchema(targetSchema) {
		fmt.Fprintf(&b, "  %s: %s\n", k, v)
	}
	currentJSON, _ := currentSpec.MarshalJSON()
	fmt.Fprintf(&b, "Current spec: %s\n", currentJSON)
	if len(summary.ValidationErrors) > 0 {
		fmt.Fprintf(&b, "Validation errors: %s\n", strings.Join(summary.ValidationErrors, "; "))
	}
	if len(summary.MissingSourceFields) > 0 {
		fmt.Fprintf(&b, "Missing source fields: %s\n", strings.Join(summary.MissingSourceFields, ", "))
	}
	if summary.ExecutionError != "" {
		fmt.Fprintf(&b, "Execution error: %s\n", summary.ExecutionError)
	}
	if len(summary.FieldsWithNoValues) > 0 {
		fmt.Fprintf(&b, "Fields with no values: %s\n", strings.Join(summary.FieldsWithNoValues, ", "))
	}
	for _, sparse := range summary.FieldsWithSparseValues {
		fmt.Fprintf(&b, "Sparse field %s: %d/%d items populated\n", sparse.Field, sparse.NonNull, sparse.Total)
	}
	return b.String()
}

// valuesEqual compares two Values by their canonical JSON encoding.
func valuesEqual(a, b Value) bool {
	aj, errA := a.MarshalJSON()
	bj, errB := b.MarshalJSON()
	if errA != nil || errB != nil {
		return false
	}
	return string(aj) == string(bj)
}
