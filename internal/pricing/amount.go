package pricing

import (
	"fmt"
	"math/big"
	"strings"
)

// Unit names a display unit.
type Unit string

const (
	UnitCredits Unit = "credits"
	UnitAR      Unit = "AR"
)

// atomicDivisor converts winc and winston to display units.
var atomicDivisor = new(big.Int).Exp(big.NewInt(10), big.NewInt(12), nil)

// DefaultDecimals is the number of decimals shown by String.
const DefaultDecimals = 4

// Amount is an atomic quantity in a display unit.
type Amount struct {
	Atomic *big.Int
	Unit   Unit
}

// ParseAmount parses a base-10 atomic quantity such as "1500000000000".
func ParseAmount(atomic string, unit Unit) (Amount, error) {
	n, ok := new(big.Int).SetString(strings.TrimSpace(atomic), 10)
	if !ok {
		return Amount{}, fmt.Errorf("invalid atomic amount %q", atomic)
	}
	return Amount{Atomic: n, Unit: unit}, nil
}

// Rat returns the amount in display units.
func (a Amount) Rat() *big.Rat {
	if a.Atomic == nil {
		return new(big.Rat)
	}
	return new(big.Rat).SetFrac(a.Atomic, atomicDivisor)
}

// Format returns the amount in display units with the given number of
// decimals, without the unit.
func (a Amount) Format(decimals int) string {
	return a.Rat().FloatString(decimals)
}

func (a Amount) String() string {
	return a.Format(DefaultDecimals) + " " + string(a.Unit)
}

// Cmp compares two amounts by atomic value.
func (a Amount) Cmp(b Amount) int {
	x, y := a.Atomic, b.Atomic
	if x == nil {
		x = new(big.Int)
	}
	if y == nil {
		y = new(big.Int)
	}
	return x.Cmp(y)
}

// FormatCredits converts a winc string to credits with the given number
// of decimals.
func FormatCredits(winc string, decimals int) (string, error) {
	a, err := ParseAmount(winc, UnitCredits)
	if err != nil {
		return "", err
	}
	return a.Format(decimals), nil
}
