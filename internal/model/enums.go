package model

import "strings"

// Sex is the member's sex as used by the HHS-HCC demographic factors.
type Sex string

const (
	Male   Sex = "M"
	Female Sex = "F"
)

// ParseSex normalizes common representations ("m", "male", "F") to a Sex.
func ParseSex(s string) (Sex, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "M", "MALE":
		return Male, true
	case "F", "FEMALE":
		return Female, true
	}
	return "", false
}

// MetalLevel is an ACA plan cost-sharing tier. Coefficient tables carry one
// column per tier.
type MetalLevel string

const (
	Platinum     MetalLevel = "platinum"
	Gold         MetalLevel = "gold"
	Silver       MetalLevel = "silver"
	Bronze       MetalLevel = "bronze"
	Catastrophic MetalLevel = "catastrophic"
)

// AllMetalLevels lists the supported metal levels in canonical order.
var AllMetalLevels = []MetalLevel{Platinum, Gold, Silver, Bronze, Catastrophic}

// ParseMetalLevel returns the MetalLevel for the given name, or ok=false.
func ParseMetalLevel(s string) (MetalLevel, bool) {
	name := strings.ToLower(strings.TrimSpace(s))
	for _, m := range AllMetalLevels {
		if string(m) == name {
			return m, true
		}
	}
	return "", false
}

// ModelType selects which HHS-HCC model applies to a member.
type ModelType string

const (
	Adult  ModelType = "Adult"
	Child  ModelType = "Child"
	Infant ModelType = "Infant"
)

// ModelForAge determines the model type from age as of the benefit year end:
// 21 and over is Adult, 2-20 is Child, under 2 is Infant.
func ModelForAge(age int) ModelType {
	switch {
	case age >= 21:
		return Adult
	case age >= 2:
		return Child
	default:
		return Infant
	}
}
