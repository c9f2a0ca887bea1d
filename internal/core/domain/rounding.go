package domain

import (
	"fmt"
	"strings"

	"github.com/SscSPs/exchange_rates_service/internal/apperrors"
	"github.com/shopspring/decimal"
)

// RoundingMode selects how a quotient is brought to the configured scale.
type RoundingMode string

const (
	RoundUp       RoundingMode = "UP"        // away from zero
	RoundDown     RoundingMode = "DOWN"      // towards zero
	RoundCeiling  RoundingMode = "CEILING"   // towards +inf
	RoundFloor    RoundingMode = "FLOOR"     // towards -inf
	RoundHalfUp   RoundingMode = "HALF_UP"   // nearest, ties away from zero
	RoundHalfDown RoundingMode = "HALF_DOWN" // nearest, ties towards zero
	RoundHalfEven RoundingMode = "HALF_EVEN" // nearest, ties to even
)

// ParseRoundingMode parses a configured mode name such as "HALF_UP".
func ParseRoundingMode(s string) (RoundingMode, error) {
	mode := RoundingMode(strings.ToUpper(strings.TrimSpace(s)))
	switch mode {
	case RoundUp, RoundDown, RoundCeiling, RoundFloor, RoundHalfUp, RoundHalfDown, RoundHalfEven:
		return mode, nil
	}
	return "", fmt.Errorf("%w: unknown rounding mode %q", apperrors.ErrInvalidConfiguration, s)
}

// RoundingPolicy is the fixed-point precision applied to computed rates.
type RoundingPolicy struct {
	Scale int32
	Mode  RoundingMode
}

// Divide returns num/den rounded once to p.Scale fractional digits.
// The rounding decision is taken on the exact remainder, so no intermediate precision leaks into the result.
func (p RoundingPolicy) Divide(num, den decimal.Decimal) decimal.Decimal {
	// q is truncated towards zero at Scale digits; num = den*q + r
	q, r := num.QuoRem(den, p.Scale)
	if r.IsZero() {
		return q
	}

	sign := num.Sign() * den.Sign()
	unit := decimal.New(1, -p.Scale)

	// compare the discarded fraction against one half unit: 2|r| vs |den|*unit
	half := r.Abs().Mul(decimal.NewFromInt(2)).Cmp(den.Abs().Mul(unit))

	var awayFromZero bool
	switch p.Mode {
	case RoundUp:
		awayFromZero = true
	case RoundDown:
		awayFromZero = false
	case RoundCeiling:
		awayFromZero = sign > 0
	case RoundFloor:
		awayFromZero = sign < 0
	case RoundHalfDown:
		awayFromZero = half > 0
	case RoundHalfEven:
		awayFromZero = half > 0 || (half == 0 && isOddAtScale(q, p.Scale))
	default:
		awayFromZero = half >= 0
	}

	if !awayFromZero {
		return q
	}
	if sign < 0 {
		return q.Sub(unit)
	}
	return q.Add(unit)
}

// Round brings an already computed value to the policy scale.
func (p RoundingPolicy) Round(d decimal.Decimal) decimal.Decimal {
	return p.Divide(d, decimal.NewFromInt(1))
}

func isOddAtScale(q decimal.Decimal, scale int32) bool {
	return q.Shift(scale).Abs().BigInt().Bit(0) == 1
}

// MaxRoundingScale is the number of fractional digits the exchange_rates.rate column keeps.
const MaxRoundingScale = 12

// Validate checks that the policy can be applied.
func (p RoundingPolicy) Validate() error {
	if p.Scale <= 0 {
		return fmt.Errorf("%w: rounding scale must be positive, got %d", apperrors.ErrInvalidConfiguration, p.Scale)
	}
	if p.Scale > MaxRoundingScale {
		return fmt.Errorf("%w: rounding scale %d exceeds the stored precision of %d", apperrors.ErrInvalidConfiguration, p.Scale, MaxRoundingScale)
	}
	if _, err := ParseRoundingMode(string(p.Mode)); err != nil {
		return err
	}
	return nil
}
