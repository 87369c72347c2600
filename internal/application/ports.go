package application

import (
	"context"
	"time"

	"fxconvert-service/internal/domain"
)

// PriceFeedDecoder turns a price feed account into a snapshot.
type PriceFeedDecoder interface {
	Decode(feed domain.Account) (domain.PriceSnapshot, error)
}

type Clock interface {
	Now() time.Time
}

// Ledger moves lamports between two accounts. It fails when the move cannot
// be applied, e.g. the source balance changed underneath the caller.
type Ledger interface {
	Transfer(ctx context.Context, from, to domain.Identity, amount uint64) error
}

// AccountStore is the account substrate. Get returns ErrNotFound for an
// unknown key.
type AccountStore interface {
	Ledger
	Get(ctx context.Context, key domain.Identity) (domain.Account, error)
	Put(ctx context.Context, acc domain.Account) error
	SetData(ctx context.Context, key domain.Identity, data []byte) error
}

// FeedSource fetches the raw bytes of a price feed account from upstream.
type FeedSource interface {
	Fetch(ctx context.Context, key domain.Identity) ([]byte, error)
}

// Recorder receives processing outcomes for metrics.
type Recorder interface {
	InstructionProcessed(kind, outcome string, took time.Duration)
	FeedSynced(outcome string)
}

type NoopRecorder struct{}

func (NoopRecorder) InstructionProcessed(string, string, time.Duration) {}
func (NoopRecorder) FeedSynced(string)                                  {}

// SystemClock reads the wall clock in UTC.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }
