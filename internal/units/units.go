// Package units converts between the display units a user works in and the
// integer base units all aggregation arithmetic is done in. Weight is summed
// in milligrams, volume in microliters, and counts stay plain integers, so
// mixed g/kg or ml/l rows can be added without losing precision. Only the
// display layer ever rounds.
package units

import (
	"errors"
	"fmt"
	"math"
)

// Unit is one of the closed set of unit tags a row may be stored in.
type Unit string

const (
	Gram       Unit = "g"
	Kilogram   Unit = "kg"
	Milliliter Unit = "ml"
	Liter      Unit = "l"
	Piece      Unit = "pcs"
)

// Family is the physical dimension a unit measures.
type Family string

const (
	Weight Family = "weight"
	Volume Family = "volume"
	Count  Family = "count"
)

// ErrUnknownUnit is returned for a unit tag outside the closed set. A stored
// tag hitting this is a data-integrity problem and must not be defaulted away.
var ErrUnknownUnit = errors.New("unknown unit")

// displayThreshold is the base amount at or above which weight/volume switch
// to the large display unit (1 kg = 1,000,000 mg; 1 l = 1,000,000 µl).
const displayThreshold = 1_000_000

// scale returns how many base units one native unit holds.
func scale(u Unit) (int64, Family, error) {
	switch u {
	case Gram:
		return 1_000, Weight, nil
	case Kilogram:
		return 1_000_000, Weight, nil
	case Milliliter:
		return 1_000, Volume, nil
	case Liter:
		return 1_000_000, Volume, nil
	case Piece:
		return 1, Count, nil
	default:
		return 0, "", fmt.Errorf("%w: %q", ErrUnknownUnit, u)
	}
}

// ParseUnit validates a unit tag from user input or storage.
func ParseUnit(s string) (Unit, error) {
	u := Unit(s)
	if _, _, err := scale(u); err != nil {
		return "", err
	}
	return u, nil
}

// ParseFamily validates a family tag coming from storage or an API payload.
func ParseFamily(s string) (Family, error) {
	switch f := Family(s); f {
	case Weight, Volume, Count:
		return f, nil
	default:
		return "", fmt.Errorf("unknown unit family %q", s)
	}
}

// FamilyOf reports the family of a unit tag.
func FamilyOf(u Unit) (Family, error) {
	_, f, err := scale(u)
	return f, err
}

// ToBase converts a quantity in its native unit to the family's base unit.
// Stored quantities carry at most three decimals, so the scaled value is an
// exact integer; rounding only absorbs binary float noise.
func ToBase(qty float64, u Unit) (int64, Family, error) {
	sc, f, err := scale(u)
	if err != nil {
		return 0, "", err
	}
	return int64(math.Round(qty * float64(sc))), f, nil
}

// FromBase converts a base amount back to a specific row's native unit.
func FromBase(base int64, u Unit) (float64, error) {
	sc, _, err := scale(u)
	if err != nil {
		return 0, err
	}
	return float64(base) / float64(sc), nil
}

// ToDisplay picks the unit a base total is presented in: kg/l once the total
// reaches one of them, g/ml below, pieces always as-is. Rounding here is
// presentation only; the base amount stays authoritative for arithmetic.
func ToDisplay(base int64, f Family) (float64, Unit) {
	switch f {
	case Weight:
		if base >= displayThreshold {
			return round2(float64(base) / displayThreshold), Kilogram
		}
		return round1(float64(base) / 1_000), Gram
	case Volume:
		if base >= displayThreshold {
			return round2(float64(base) / displayThreshold), Liter
		}
		return round1(float64(base) / 1_000), Milliliter
	default:
		return float64(base), Piece
	}
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }

func round2(v float64) float64 { return math.Round(v*100) / 100 }
