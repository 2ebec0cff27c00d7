package amount

import (
	"fmt"
	"math/big"
)

const (
	// BpsDenominator is the basis-point scale: 10000 bps = 100%.
	BpsDenominator = 10000
)

// Parse converts a decimal string into a non-negative big integer amount.
// Amounts are token base units (wei) and may exceed the 64-bit range, so
// they are never handled as native numbers.
func Parse(s string) (*big.Int, error) {
	if s == "" {
		return nil, fmt.Errorf("amount cannot be empty")
	}
	value, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("invalid amount %q: not a base-10 integer", s)
	}
	if value.Sign() < 0 {
		return nil, fmt.Errorf("invalid amount %q: must be non-negative", s)
	}
	return value, nil
}

// MustParse is Parse for constants known to be valid. It panics on bad input.
func MustParse(s string) *big.Int {
	value, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return value
}

// Format renders an amount back to its canonical decimal-string form.
func Format(value *big.Int) string {
	if value == nil {
		return "0"
	}
	return value.String()
}

// ValidateBps checks that a basis-point rate is within [0, 10000].
func ValidateBps(bps int) error {
	if bps < 0 || bps > BpsDenominator {
		return fmt.Errorf("invalid bps rate %d: must be in [0, %d]", bps, BpsDenominator)
	}
	return nil
}

// ApplyBps computes floor(value * bps / 10000) in arbitrary-precision
// integer arithmetic. Floating point must never enter this path.
func ApplyBps(value *big.Int, bps int) *big.Int {
	if value == nil || value.Sign() <= 0 || bps <= 0 {
		return new(big.Int)
	}
	result := new(big.Int).Mul(value, big.NewInt(int64(bps)))
	return result.Div(result, big.NewInt(BpsDenominator))
}

// Sub returns a - b. The result is guaranteed non-negative for the rates
// this codebase applies (rate <= 10000 bps), but a negative result is
// clamped to zero rather than propagated.
func Sub(a, b *big.Int) *big.Int {
	result := new(big.Int).Sub(a, b)
	if result.Sign() < 0 {
		return new(big.Int)
	}
	return result
}
