package units

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

var ErrInvalidAmount = errors.New("invalid amount")

// FormatUnits renders an integer amount of the smallest unit as a decimal string.
// Whole amounts keep a single fractional zero, 1e18 with 18 decimals is "1.0".
func FormatUnits(amount *big.Int, decimals uint8) string {
	if amount == nil {
		return "0.0"
	}
	s := decimal.NewFromBigInt(amount, -int32(decimals)).String()
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// ParseUnits converts a decimal string into the smallest unit. Inputs with more
// fractional digits than decimals are rejected instead of being rounded.
func ParseUnits(value string, decimals uint8) (*big.Int, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(value))
	if err != nil {
		return nil, fmt.Errorf("can't parse %q: %w", value, ErrInvalidAmount)
	}
	shifted := d.Shift(int32(decimals))
	if !shifted.IsInteger() {
		return nil, fmt.Errorf("%q has more than %d fractional digits: %w", value, decimals, ErrInvalidAmount)
	}
	return shifted.BigInt(), nil
}

// FormatAmount renders an amount for people: grouped thousands, no trailing zeros, symbol suffix.
func FormatAmount(amount *big.Int, decimals uint8, symbol string) string {
	if amount == nil {
		amount = new(big.Int)
	}
	s := decimal.NewFromBigInt(amount, -int32(decimals)).String()
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	whole, frac, _ := strings.Cut(s, ".")
	var b strings.Builder
	for i, ch := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(ch)
	}
	res := sign + b.String()
	if frac != "" {
		res += "." + frac
	}
	if symbol != "" {
		res += " " + symbol
	}
	return res
}
