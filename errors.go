package mapengine

import (
	"errors"
	"fmt"
)

// === Fatal error kinds (spec.md §7) ===
//
// ErrMalformedSpec and ErrMalformedPath are the only conditions the Executor
// and PrepareMapping surface as Go errors; TransformFailure, MissingField, and
// CanonicalConflict are recovered locally and never leave the package as an
// error value.
var (
	// ErrMalformedSpec is returned when a mapping spec is not shaped as the
	// nested dialect requires (mappings/items/map missing or of the wrong type).
	ErrMalformedSpec = errors.New("malformed mapping spec")

	// ErrMalformedPath is returned when a structural path is not a string
	// or uses a forbidden token.
	ErrMalformedPath = errors.New("malformed path")

	// ErrUnparseableOracleOutput names the condition in which Repair cannot
	// recover a JSON object from oracle or partner-supplied text. Repair does
	// not return it: it reports the condition as a non-object result plus a
	// repair message. Non-fatal at the refinement-loop level: the loop stops
	// with its current spec.
	ErrUnparseableOracleOutput = errors.New("unparseable oracle output")
)

// EngineError carries the kind, offending target, and message for a fatal
// condition.
type EngineError struct {
	Kind   error
	Target string
	Msg    string
}

func (e *EngineError) Error() string {
	if e.Target != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Kind, e.Msg, e.Target)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *EngineError) Unwrap() error { return e.Kind }

func newMalformedSpec(msg string) *EngineError {
	return &EngineError{Kind: ErrMalformedSpec, Msg: msg}
}

func newMalformedPath(target, msg string) *EngineError {
	return &EngineError{Kind: ErrMalformedPath, Target: target, Msg: msg}
}
