package reftables

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/gyeh/riskscore/internal/model"
)

// hccPattern matches HCC references in SAS-style rule text, e.g. HHS_HCC019
// or HHS_HCC035_1.
var hccPattern = regexp.MustCompile(`HHS_HCC(\d+(?:_\d+)?)`)

// groupEntry is the on-disk JSON shape of one grouping rule (table_6/7).
type groupEntry struct {
	Model        string `json:"model"`
	Variable     string `json:"variable"`
	Definition   string `json:"definition"`
	Continuation []struct {
		Definition string `json:"definition"`
	} `json:"continuation"`
}

// loadGroups reads the grouping rules for one model from a table_6/table_7
// JSON file, preserving declaration order.
//
// A rule is a true hierarchical group only when its text zeroes the member
// HCCs ("= 0" assignment). Rules without one are interaction/flag variables
// (SEVERE, TRANSPLANT, ...) that do not replace their HCCs and must not be
// treated as groups.
func loadGroups(path string, mt model.ModelType) ([]Group, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("groups: %w", err)
	}

	var entries []groupEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("groups: parse %s: %w", path, err)
	}

	var groups []Group
	for _, e := range entries {
		if e.Model != string(mt) {
			continue
		}
		variable := strings.TrimSpace(e.Variable)
		if variable == "" {
			continue
		}

		zeroing := strings.Contains(e.Definition, "= 0")
		members := extractHCCs(e.Definition)
		for _, cont := range e.Continuation {
			if strings.Contains(cont.Definition, "= 0") {
				zeroing = true
			}
			members = append(members, extractHCCs(cont.Definition)...)
		}

		if !zeroing || len(members) == 0 {
			continue
		}
		groups = append(groups, Group{Variable: variable, Members: dedup(members)})
	}
	return groups, nil
}

// dedup removes repeated identifiers, keeping first-occurrence order. Rule
// text names each member HCC in both the condition and the zeroing assignment.
func dedup(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := ids[:0]
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

// extractHCCs mines HCC identifiers from rule text, e.g.
// "if HHS_HCC019 = 1 then do; HHS_HCC019 = 0; G01 = 1; end;" → ["019"].
func extractHCCs(definition string) []string {
	matches := hccPattern.FindAllStringSubmatch(definition, -1)
	var hccs []string
	for _, m := range matches {
		hccs = append(hccs, m[1])
	}
	return hccs
}
