package feedrpc

import (
	"context"

	"fxconvert-service/internal/application"
	"fxconvert-service/internal/domain"
	"fxconvert-service/internal/infrastructure/pyth"
)

var _ application.FeedSource = (*Fake)(nil)

// Fake serves a trading price account stamped with the current clock.
type Fake struct {
	price    int64
	exponent int32
	clock    application.Clock
}

func NewFake(price int64, exponent int32, clock application.Clock) *Fake {
	return &Fake{price: price, exponent: exponent, clock: clock}
}

func (f *Fake) Fetch(_ context.Context, _ domain.Identity) ([]byte, error) {
	now := f.clock.Now().Unix()
	acc := pyth.PriceAccount{
		Exponent:      f.exponent,
		Timestamp:     now,
		PrevPrice:     f.price,
		PrevTimestamp: now,
		AggPrice:      f.price,
		AggStatus:     pyth.StatusTrading,
	}
	return acc.Encode(), nil
}
