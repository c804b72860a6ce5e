// Package grouping removes model-excluded HCCs and collapses related HCCs
// into group variables so a condition is never counted both individually and
// through its group.
package grouping

import "github.com/gyeh/riskscore/internal/reftables"

// Exclude returns the set minus the model's excluded HCCs. The input is not
// mutated.
func Exclude(hccs map[string]bool, excluded map[string]bool) map[string]bool {
	out := make(map[string]bool, len(hccs))
	for h := range hccs {
		if !excluded[h] {
			out[h] = true
		}
	}
	return out
}

// Apply collapses grouped HCCs: for each group, in declaration order, if any
// member HCC is in the working set the group variable is triggered and ALL
// member HCCs are removed, not just the one that fired. An HCC belonging to
// several groups goes to whichever group is declared first.
//
// Returns the remaining individual HCCs and the triggered group variables.
// Callers pass nil groups for the Infant model, which uses severity levels
// instead of groupings.
func Apply(hccs map[string]bool, groups []reftables.Group) (remaining map[string]bool, triggered []string) {
	remaining = make(map[string]bool, len(hccs))
	for h := range hccs {
		remaining[h] = true
	}

	for _, g := range groups {
		fired := false
		for _, member := range g.Members {
			if remaining[member] {
				fired = true
				break
			}
		}
		if !fired {
			continue
		}
		triggered = append(triggered, g.Variable)
		for _, member := range g.Members {
			delete(remaining, member)
		}
	}
	return remaining, triggered
}
