// Package hierarchy applies supersession rules: when a dominant category is
// present, every category it supersedes is removed. The same operation
// serves both the CC/HCC and RXC hierarchies.
package hierarchy

// Apply removes every category superseded by a dominant category present in
// the input set, returning a new set. Removal-only over an acyclic hierarchy,
// so processing order cannot affect the result and the operation is
// idempotent. The input is not mutated.
func Apply(categories map[string]bool, hier map[string][]string) map[string]bool {
	out := make(map[string]bool, len(categories))
	for c := range categories {
		out[c] = true
	}
	for dominant, superseded := range hier {
		if !categories[dominant] {
			continue
		}
		for _, s := range superseded {
			delete(out, s)
		}
	}
	return out
}
