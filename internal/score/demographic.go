package score

import (
	"fmt"

	"github.com/gyeh/riskscore/internal/model"
)

// adultBands are the Adult model age-band upper bounds and their variable
// suffixes; 60+ is the catch-all.
var adultBands = []struct {
	maxAge int
	suffix string
}{
	{24, "21_24"},
	{29, "25_29"},
	{34, "30_34"},
	{39, "35_39"},
	{44, "40_44"},
	{49, "45_49"},
	{54, "50_54"},
	{59, "55_59"},
}

// childBands are the narrower Child model bands.
var childBands = []struct {
	maxAge int
	suffix string
}{
	{4, "2_4"},
	{9, "5_9"},
	{14, "10_14"},
	{20, "15_20"},
}

// demographicVariable renders the coefficient-table variable name for the
// member's sex/age band, e.g. "MAGE_LAST_55_59".
func demographicVariable(mt model.ModelType, sex model.Sex, age int) string {
	prefix := "F"
	if sex == model.Male {
		prefix = "M"
	}

	switch mt {
	case model.Adult:
		for _, b := range adultBands {
			if age <= b.maxAge {
				return fmt.Sprintf("%sAGE_LAST_%s", prefix, b.suffix)
			}
		}
		return prefix + "AGE_LAST_60_GT"
	case model.Child:
		for _, b := range childBands {
			if age <= b.maxAge {
				return fmt.Sprintf("%sAGE_LAST_%s", prefix, b.suffix)
			}
		}
		return prefix + "AGE_LAST_15_20"
	default:
		return prefix + "AGE_LAST_0_1"
	}
}
