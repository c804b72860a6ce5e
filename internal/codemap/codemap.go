// Package codemap resolves raw diagnosis and drug codes to condition
// categories. Upstream code lists are not guaranteed to match table
// formatting (decimal points, leading zeros), so lookups fall back to
// prefixes and zero-padding; a code that matches nothing contributes nothing.
package codemap

import (
	"strings"

	"github.com/gyeh/riskscore/internal/reftables"
)

// icdPrefixLengths are tried in order after an exact-match miss.
var icdPrefixLengths = []int{6, 5, 4, 3}

// Result is a resolved category set with per-category source-code provenance.
type Result struct {
	// Sources maps each resolved category to the input codes that produced
	// it. The key set is the resolved category set.
	Sources map[string][]string
}

// Categories reports whether the result contains the category.
func (r Result) Contains(category string) bool {
	_, ok := r.Sources[category]
	return ok
}

// Set returns the resolved categories as a set.
func (r Result) Set() map[string]bool {
	out := make(map[string]bool, len(r.Sources))
	for c := range r.Sources {
		out[c] = true
	}
	return out
}

// Diagnoses maps ICD-10 codes to CCs: normalize (strip dots, uppercase),
// exact match, then successively shorter prefixes of length 6, 5, 4, 3.
// Unmatched codes are silently ignored.
func Diagnoses(codes []string, t *reftables.Tables) Result {
	res := Result{Sources: make(map[string][]string)}
	for _, raw := range codes {
		dx := NormalizeICD(raw)
		if dx == "" {
			continue
		}
		for _, cc := range lookupICD(dx, t) {
			res.add(reftables.NormalizeCategory(cc), raw)
		}
	}
	return res
}

func lookupICD(dx string, t *reftables.Tables) []string {
	if ccs, ok := t.ICDToCC[dx]; ok {
		return ccs
	}
	for _, n := range icdPrefixLengths {
		if len(dx) < n {
			continue
		}
		if ccs, ok := t.ICDToCC[dx[:n]]; ok {
			return ccs
		}
	}
	return nil
}

// NDCs maps NDC drug codes to RXCs: strip dashes and whitespace, exact
// match, then retry purely numeric codes left-zero-padded to 11 digits
// (DIY tables store 11-digit NDCs; upstream data often drops leading zeros).
func NDCs(codes []string, t *reftables.Tables) Result {
	res := Result{Sources: make(map[string][]string)}
	for _, raw := range codes {
		ndc := NormalizeNDC(raw)
		if ndc == "" {
			continue
		}
		rxcs, ok := t.NDCToRXC[ndc]
		if !ok && isDigits(ndc) && len(ndc) < 11 {
			rxcs = t.NDCToRXC[pad11(ndc)]
		}
		for _, rxc := range rxcs {
			res.add(reftables.NormalizeCategory(rxc), raw)
		}
	}
	return res
}

func (r Result) add(category, source string) {
	for _, s := range r.Sources[category] {
		if s == source {
			return
		}
	}
	r.Sources[category] = append(r.Sources[category], source)
}

// NormalizeICD strips dots and uppercases an ICD-10 code.
func NormalizeICD(code string) string {
	code = strings.TrimSpace(code)
	code = strings.ReplaceAll(code, ".", "")
	return strings.ToUpper(code)
}

// NormalizeNDC strips dashes and whitespace from an NDC code.
func NormalizeNDC(code string) string {
	code = strings.TrimSpace(code)
	code = strings.ReplaceAll(code, "-", "")
	return strings.ReplaceAll(code, " ", "")
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func pad11(s string) string {
	return strings.Repeat("0", 11-len(s)) + s
}
