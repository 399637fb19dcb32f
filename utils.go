package mapengine

import "sort"

// sortedStrings returns a sorted copy of in, leaving the input untouched.
// Shared by payload analysis, repair backfill, and auto-mapper, which all
// need deterministic iteration order (spec.md §3's determinism
// requirement).
func sortedStrings(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	sort.Strings(out)
	return out
}
