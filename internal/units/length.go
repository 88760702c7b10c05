// Package units provides shared constants and conversion for length units
package units

import "strings"

// Unit constants
const (
	MM = "mm"
	CM = "cm"
	M  = "m"
	IN = "in"
)

// ValidLengthUnits contains all valid length unit values
var ValidLengthUnits = []string{MM, CM, M, IN}

// metres per unit
var metresPer = map[string]float64{
	MM: 0.001,
	CM: 0.01,
	M:  1,
	IN: 0.0254,
}

// IsValidLength checks if the given unit is in the list of valid length units
func IsValidLength(unit string) bool {
	_, ok := metresPer[unit]
	return ok
}

// GetValidLengthUnitsString returns a comma-separated string of valid units for error messages
func GetValidLengthUnitsString() string {
	return strings.Join(ValidLengthUnits, ", ")
}

// ConvertLength converts a length between units. Unknown units are treated
// as metres.
func ConvertLength(value float64, fromUnits, toUnits string) float64 {
	if fromUnits == toUnits {
		return value
	}
	return value * factor(fromUnits) / factor(toUnits)
}

func factor(unit string) float64 {
	if f, ok := metresPer[unit]; ok {
		return f
	}
	return 1 // default to metres if unknown unit
}
