package application

import (
	"errors"
	"fmt"

	"fxconvert-service/internal/domain"
)

// PriceClient reads the trusted price feed on behalf of the processor.
type PriceClient struct {
	decoder PriceFeedDecoder
	clock   Clock
}

func NewPriceClient(decoder PriceFeedDecoder, clock Clock) PriceClient {
	if clock == nil {
		clock = SystemClock{}
	}
	return PriceClient{decoder: decoder, clock: clock}
}

// Load decodes the feed without any freshness policy.
func (c PriceClient) Load(feed *domain.Account) (domain.PriceSnapshot, error) {
	if c.decoder == nil {
		return domain.PriceSnapshot{}, fmt.Errorf("%w: no decoder configured", domain.ErrMalformedFeed)
	}
	snap, err := c.decoder.Decode(*feed)
	if err != nil {
		if errors.Is(err, domain.ErrMalformedFeed) {
			return domain.PriceSnapshot{}, err
		}
		return domain.PriceSnapshot{}, fmt.Errorf("%w: %v", domain.ErrMalformedFeed, err)
	}
	return snap, nil
}

// CheckTrusted verifies the record is configured and names feed as its source.
func (c PriceClient) CheckTrusted(rec domain.ConfigRecord, feed domain.Identity) error {
	if !rec.Initialized {
		return domain.ErrNotConfigured
	}
	if !rec.TrustedPriceSource.Equals(feed) {
		return fmt.Errorf("%w: got %s, want %s", domain.ErrUntrustedSource, feed, rec.TrustedPriceSource)
	}
	return nil
}

// Fresh returns a snapshot from the trusted feed no older than
// domain.MaxPriceAgeSeconds.
func (c PriceClient) Fresh(rec domain.ConfigRecord, feed *domain.Account) (domain.PriceSnapshot, error) {
	if err := c.CheckTrusted(rec, feed.Key); err != nil {
		return domain.PriceSnapshot{}, err
	}
	snap, err := c.Load(feed)
	if err != nil {
		return domain.PriceSnapshot{}, err
	}
	if err := snap.CheckFresh(c.clock.Now().Unix()); err != nil {
		return domain.PriceSnapshot{}, err
	}
	return snap, nil
}
