package domain

import (
	"fmt"
	"math"

	"github.com/JohnCGriffin/overflow"
	"github.com/shopspring/decimal"
)

// MaxPriceAgeSeconds bounds how old a price snapshot may be when it is used.
const MaxPriceAgeSeconds int64 = 60

// PriceSnapshot is one reading of the external feed. The value of one unit of
// the quote currency is Price * 10^Exponent.
type PriceSnapshot struct {
	Price       int64
	Conf        uint64
	Exponent    int32
	PublishTime int64
}

// Decimal renders Price * 10^Exponent exactly.
func (p PriceSnapshot) Decimal() decimal.Decimal {
	return decimal.New(p.Price, p.Exponent)
}

// CheckFresh fails with ErrStalePrice when the publish time is more than
// MaxPriceAgeSeconds away from now in either direction.
func (p PriceSnapshot) CheckFresh(now int64) error {
	diff, ok := overflow.Sub64(now, p.PublishTime)
	if !ok || diff == math.MinInt64 {
		return fmt.Errorf("%w: age overflows", ErrStalePrice)
	}
	if diff > MaxPriceAgeSeconds {
		return fmt.Errorf("%w: published %ds ago, limit %ds", ErrStalePrice, diff, MaxPriceAgeSeconds)
	}
	if -diff > MaxPriceAgeSeconds {
		return fmt.Errorf("%w: published %ds ahead, limit %ds", ErrStalePrice, -diff, MaxPriceAgeSeconds)
	}
	return nil
}
