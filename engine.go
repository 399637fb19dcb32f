package mapengine

import (
	"fmt"
	"strings"
)

// Engine is the mapping core's top-level facade: it binds an optional
// Oracle and refinement bounds and exposes PrepareMapping as the single
// entry point adapters call (spec.md §6), grounded on
// kaptinlin-jsonschema's Compiler/NewCompiler chainable-configuration style.
type Engine struct {
	oracle        Oracle
	maxIterations int
	refineEnabled bool
}

// NewEngine creates an Engine with refinement disabled and default bounds.
func NewEngine() *Engine {
	return &Engine{maxIterations: 3}
}

// WithOracle attaches an LLM oracle and enables the refinement loop.
func (e *Engine) WithOracle(oracle Oracle) *Engine {
	e.oracle = oracle
	e.refineEnabled = true
	return e
}

// WithMaxIterations bounds the refinement loop to n iterations, clamped to
// [1,5] at use time.
func (e *Engine) WithMaxIterations(n int) *Engine {
	e.maxIterations = n
	return e
}

// PrepareMapping produces a validated normative spec for payload against
// targetSchema, starting from an optional partner-supplied spec (object,
// legacy list, or raw text) and refining it via the bound Oracle when one is
// configured (spec.md §4.H step 1 + §6's PrepareMapping operation).
func (e *Engine) PrepareMapping(partnerSpec *RepairInput, payload Value, targetSchema Value) (Value, error) {
	flattened := FlattenTargetSchema(targetSchema)
	canonicalPaths := normalizeItemPaths(ItemTargetPaths(flattened))

	base := e.buildBaseSpec(partnerSpec, payload, targetSchema, canonicalPaths)

	if e.refineEnabled {
		result := Refine(base, payload, targetSchema, canonicalPaths, RefinementOptions{
			Enabled:       true,
			MaxIterations: e.maxIterations,
		}, e.oracle)
		base = result.Spec
	} else {
		repaired, _ := Repair(SpecValue(base), canonicalPaths)
		if repaired.IsObject() {
			base = repaired
		} else {
			base = AutoMapping(payload, targetSchema)
		}
	}

	if errs := Validate(base); len(errs) > 0 {
		return Value{}, newMalformedSpec(errs[0])
	}
	return base, nil
}

// buildBaseSpec produces the starting spec that PrepareMapping then repairs
// or refines. With no partner-supplied spec, spec.md §4.H step 1 requires
// attempting the oracle before falling back to the Auto-Mapper, grounded on
// mapping_service.py's base-spec logic (_generate_mapping_with_bedrock
// before _auto_mapping_spec).
func (e *Engine) buildBaseSpec(partnerSpec *RepairInput, payload Value, targetSchema Value, canonicalPaths []string) Value {
	if partnerSpec == nil {
		if e.oracle != nil {
			prompt := buildInitialMappingPrompt(payload, targetSchema)
			completion, ok := e.oracle.Complete(prompt)
			if ok && strings.TrimSpace(completion) != "" {
				repaired, _ := Repair(SpecText(completion), canonicalPaths)
				if repaired.IsObject() {
					return repaired
				}
			}
		}
		return AutoMapping(payload, targetSchema)
	}
	if partnerSpec.IsText {
		repaired, _ := Repair(*partnerSpec, nil)
		if repaired.IsObject() {
			return repaired
		}
		return AutoMapping(payload, targetSchema)
	}
	if IsLegacySpec(partnerSpec.Value) {
		return ConvertLegacySpec(partnerSpec.Value, payload)
	}
	if IsNormativeSpec(partnerSpec.Value) {
		return partnerSpec.Value
	}
	return AutoMapping(payload, targetSchema)
}

// buildInitialMappingPrompt asks the oracle for a first-draft normative spec
// from scratch, given the payload's fingerprint and the flattened target
// schema. Mirrors buildRefinementPrompt's shape minus the issue summary,
// since there is no prior spec to critique yet.
func buildInitialMappingPrompt(payload Value, targetSchema Value) string {
	inputSchema := Fingerprint(payload, FingerprintOptions{MaxItemsPerArray: 10})
	var b strings.Builder
	fmt.Fprintln(&b, "Produce a mapping spec from the input schema to the target schema.")
	fmt.Fprintln(&b, "Input schema:")
	for _, k := range SortedFingerprintKeys(inputSchema) {
		fmt.Fprintf(&b, "  %s: %s\n", k, inputSchema[k])
	}
	fmt.Fprintln(&b, "Target schema:")
	for k, v := range FlattenTargetSchema(targetSchema) {
		fmt.Fprintf(&b, "  %s: %s\n", k, v)
	}
	return b.String()
}

func normalizeItemPaths(paths []string) []string {
	out := make([]string, len(paths))
	for i, p := range paths {
		out[i] = NormalizeItemPath(p)
	}
	return out
}
