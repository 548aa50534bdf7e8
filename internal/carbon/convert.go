package carbon

import "github.com/prad18/fork/constants"

// Mass conversions to kilograms and volume conversions to liters. Count-style
// units are deliberately absent: a count never yields a mass-based factor.
var (
	massToKg = map[constants.Unit]float64{
		constants.UnitKG: 1.0,
		constants.UnitLB: 0.453592,
		constants.UnitOZ: 0.0283495,
		constants.UnitG:  0.001,
	}
	volumeToLiter = map[constants.Unit]float64{
		constants.UnitL:   1.0,
		constants.UnitML:  0.001,
		constants.UnitGal: 3.78541,
	}
)

// Basis says which emission basis a converted quantity is expressed in.
type Basis int

const (
	BasisNone Basis = iota
	BasisKg
	BasisLiter
)

// ToCanonical converts a quantity in the given unit to its canonical basis.
// Returns BasisNone for units with no known conversion; the caller must treat
// such items as unmapped rather than inventing a factor.
func ToCanonical(quantity float64, unit constants.Unit) (float64, Basis) {
	if f, ok := massToKg[unit]; ok {
		return quantity * f, BasisKg
	}
	if f, ok := volumeToLiter[unit]; ok {
		return quantity * f, BasisLiter
	}
	return 0, BasisNone
}
