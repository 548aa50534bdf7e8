package constants

import "strings"

// Unit is a purchase unit as it appears on supplier invoices.
type Unit string

const (
	UnitLB     Unit = "lb"
	UnitKG     Unit = "kg"
	UnitOZ     Unit = "oz"
	UnitG      Unit = "g"
	UnitGal    Unit = "gal"
	UnitL      Unit = "l"
	UnitML     Unit = "ml"
	UnitCount  Unit = "unit"
	UnitCase   Unit = "case"
	UnitBox    Unit = "box"
	UnitBottle Unit = "bottle"
)

// unitAliases maps invoice spellings to canonical units.
var unitAliases = map[string]Unit{
	"lb": UnitLB, "lbs": UnitLB, "pound": UnitLB, "pounds": UnitLB,
	"kg": UnitKG, "kgs": UnitKG, "kilo": UnitKG, "kilos": UnitKG,
	"oz": UnitOZ, "ozs": UnitOZ, "ounce": UnitOZ, "ounces": UnitOZ,
	"g": UnitG, "gr": UnitG, "gram": UnitG, "grams": UnitG,
	"gal": UnitGal, "gallon": UnitGal, "gallons": UnitGal,
	"l": UnitL, "liter": UnitL, "liters": UnitL, "litre": UnitL,
	"ml": UnitML,
	"unit": UnitCount, "units": UnitCount, "each": UnitCount, "ea": UnitCount,
	"case": UnitCase, "cases": UnitCase,
	"box": UnitBox, "boxes": UnitBox, "bb": UnitBox,
	"bottle": UnitBottle, "bottles": UnitBottle, "btl": UnitBottle,
}

// ParseUnit resolves a token to a canonical unit. ok is false for tokens
// outside the vocabulary; callers decide whether that means "count" or "skip".
func ParseUnit(tok string) (Unit, bool) {
	u, ok := unitAliases[strings.ToLower(strings.TrimSpace(tok))]
	return u, ok
}

// IsMass reports whether the unit measures mass.
func (u Unit) IsMass() bool {
	switch u {
	case UnitLB, UnitKG, UnitOZ, UnitG:
		return true
	}
	return false
}

// IsVolume reports whether the unit measures volume.
func (u Unit) IsVolume() bool {
	switch u {
	case UnitGal, UnitL, UnitML:
		return true
	}
	return false
}

// IsCount reports whether the unit is a count-style unit. Count units never
// map onto a mass or volume emission basis.
func (u Unit) IsCount() bool {
	return !u.IsMass() && !u.IsVolume()
}
