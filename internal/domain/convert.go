package domain

import (
	"fmt"

	"github.com/JohnCGriffin/overflow"
	"github.com/holiman/uint256"
)

// TargetDecimals is the decimal scale between the human unit of the
// destination currency and its smallest unit as applied by ConvertQuote.
const TargetDecimals int32 = 10

// ConvertQuote computes quoted * 10^(TargetDecimals - exponent) / price.
//
// The power is checked in int64. Multiplication and division run on a 256-bit
// intermediate so a large product still converts when the quotient fits in
// uint64; a zero price, an oversized quotient or an overflowing product fail
// with ErrArithmeticOverflow. A negative quoted amount or a negative price
// fails with ErrNegativeResult.
func ConvertQuote(quoted, price int64, exponent int32) (uint64, error) {
	if quoted < 0 {
		return 0, fmt.Errorf("%w: quoted amount %d", ErrNegativeResult, quoted)
	}
	n, ok := overflow.Sub32(TargetDecimals, exponent)
	if !ok || n < 0 {
		return 0, fmt.Errorf("%w: exponent %d", ErrArithmeticOverflow, exponent)
	}
	scale, err := pow10(n)
	if err != nil {
		return 0, err
	}
	if price == 0 {
		return 0, fmt.Errorf("%w: division by zero price", ErrArithmeticOverflow)
	}

	product, overflowed := new(uint256.Int).MulOverflow(uint256.NewInt(uint64(scale)), uint256.NewInt(uint64(quoted)))
	if overflowed {
		return 0, fmt.Errorf("%w: multiply", ErrArithmeticOverflow)
	}
	quotient := new(uint256.Int).Div(product, uint256.NewInt(absUint64(price)))
	if !quotient.IsUint64() {
		return 0, fmt.Errorf("%w: result exceeds uint64", ErrArithmeticOverflow)
	}
	if price < 0 && !quotient.IsZero() {
		return 0, fmt.Errorf("%w: price %d", ErrNegativeResult, price)
	}
	return quotient.Uint64(), nil
}

func pow10(n int32) (int64, error) {
	out := int64(1)
	for i := int32(0); i < n; i++ {
		next, ok := overflow.Mul64(out, 10)
		if !ok {
			return 0, fmt.Errorf("%w: 10^%d", ErrArithmeticOverflow, n)
		}
		out = next
	}
	return out, nil
}

func absUint64(v int64) uint64 {
	if v < 0 {
		return uint64(-(v + 1)) + 1
	}
	return uint64(v)
}
