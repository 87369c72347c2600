package application

import (
	"context"
	"errors"
	"testing"

	"fxconvert-service/internal/domain"

	"github.com/stretchr/testify/require"
)

type processorFixture struct {
	authority domain.Identity
	decoder   *fakeDecoder
	ledger    *fakeLedger
	proc      *Processor

	admin  *domain.Account
	config *domain.Account
	feed   *domain.Account
	user   *domain.Account
	dest   *domain.Account
}

func newProcessorFixture() *processorFixture {
	f := &processorFixture{
		authority: newKey(),
		decoder:   &fakeDecoder{snap: freshSnapshot()},
		ledger:    &fakeLedger{},
	}
	f.proc = NewProcessor(f.authority, f.decoder, f.ledger, WithProcessorClock(fakeClock{t: testNow}))
	f.admin = &domain.Account{Key: f.authority, IsSigner: true}
	f.config = &domain.Account{Key: newKey(), Data: make([]byte, 64)}
	f.feed = &domain.Account{Key: newKey(), Data: []byte{1}}
	f.user = &domain.Account{Key: newKey(), IsSigner: true, Lamports: 50_000_000_000}
	f.dest = &domain.Account{Key: newKey()}
	return f
}

func encode(t *testing.T, ix domain.Instruction) []byte {
	t.Helper()
	b, err := ix.Encode()
	require.NoError(t, err)
	return b
}

func (f *processorFixture) configure(t *testing.T, caller *domain.Account) error {
	t.Helper()
	return f.proc.Process(context.Background(), []*domain.Account{caller, f.config, f.feed}, encode(t, domain.NewConfigure()))
}

func (f *processorFixture) convert(t *testing.T, quoted int64, feed *domain.Account) error {
	t.Helper()
	return f.proc.Process(context.Background(), []*domain.Account{f.user, f.config, feed, f.dest}, encode(t, domain.NewConvert(quoted)))
}

func TestProcessor_ConfigureOnce(t *testing.T) {
	t.Parallel()
	f := newProcessorFixture()

	require.NoError(t, f.configure(t, f.admin))
	rec, err := domain.LoadConfigRecord(f.config.Data)
	require.NoError(t, err)
	require.True(t, rec.Initialized)
	require.Equal(t, f.feed.Key, rec.TrustedPriceSource)

	before := append([]byte(nil), f.config.Data...)
	require.ErrorIs(t, f.configure(t, f.admin), domain.ErrAlreadyInitialized)
	require.ErrorIs(t, f.configure(t, f.user), domain.ErrAlreadyInitialized)
	require.Equal(t, before, f.config.Data)
}

func TestProcessor_ConfigureUnauthorized(t *testing.T) {
	t.Parallel()
	f := newProcessorFixture()
	before := append([]byte(nil), f.config.Data...)

	require.ErrorIs(t, f.configure(t, f.user), domain.ErrUnauthorized)

	unsigned := &domain.Account{Key: f.authority}
	require.ErrorIs(t, f.configure(t, unsigned), domain.ErrUnauthorized)

	require.Equal(t, before, f.config.Data)
	rec, err := domain.LoadConfigRecord(f.config.Data)
	require.NoError(t, err)
	require.False(t, rec.Initialized)
}

func TestProcessor_ConfigureRejectsUnreadableFeed(t *testing.T) {
	t.Parallel()
	f := newProcessorFixture()
	f.feed.Data = nil
	before := append([]byte(nil), f.config.Data...)

	require.ErrorIs(t, f.configure(t, f.admin), domain.ErrMalformedFeed)
	require.Equal(t, before, f.config.Data)
}

func TestProcessor_ConfigureKeepsReservedBytes(t *testing.T) {
	t.Parallel()
	f := newProcessorFixture()
	for i := domain.ConfigRecordSize; i < len(f.config.Data); i++ {
		f.config.Data[i] = 0xAB
	}
	require.NoError(t, f.configure(t, f.admin))
	for _, b := range f.config.Data[domain.ConfigRecordSize:] {
		require.Equal(t, byte(0xAB), b)
	}
}

func TestProcessor_ConvertBeforeConfigure(t *testing.T) {
	t.Parallel()
	f := newProcessorFixture()
	require.ErrorIs(t, f.convert(t, 100, f.feed), domain.ErrNotConfigured)
	require.Empty(t, f.ledger.calls)
}

func TestProcessor_ConvertUntrustedFeed(t *testing.T) {
	t.Parallel()
	f := newProcessorFixture()
	require.NoError(t, f.configure(t, f.admin))
	f.decoder.calls = 0

	other := &domain.Account{Key: newKey(), Data: []byte{1}}
	require.ErrorIs(t, f.convert(t, 100, other), domain.ErrUntrustedSource)
	require.Zero(t, f.decoder.calls)
	require.Empty(t, f.ledger.calls)
}

func TestProcessor_ConvertStalePrice(t *testing.T) {
	t.Parallel()
	f := newProcessorFixture()
	require.NoError(t, f.configure(t, f.admin))

	f.decoder.snap.PublishTime = testNow.Unix() - domain.MaxPriceAgeSeconds
	require.NoError(t, f.convert(t, 1, f.feed))

	f.decoder.snap.PublishTime = testNow.Unix() - domain.MaxPriceAgeSeconds - 1
	require.ErrorIs(t, f.convert(t, 1, f.feed), domain.ErrStalePrice)
	require.Len(t, f.ledger.calls, 1)
}

func TestProcessor_ConvertRejectsFuturePrice(t *testing.T) {
	t.Parallel()
	f := newProcessorFixture()
	require.NoError(t, f.configure(t, f.admin))

	f.decoder.snap.PublishTime = testNow.AddDate(975, 0, 0).Unix()
	require.ErrorIs(t, f.convert(t, 1, f.feed), domain.ErrStalePrice)
	require.Empty(t, f.ledger.calls)
}

func TestProcessor_ConvertTransfers(t *testing.T) {
	t.Parallel()
	f := newProcessorFixture()
	require.NoError(t, f.configure(t, f.admin))
	before := append([]byte(nil), f.config.Data...)

	require.NoError(t, f.convert(t, 100, f.feed))
	require.Equal(t, []transferCall{{From: f.user.Key, To: f.dest.Key, Amount: 20_000_000_000}}, f.ledger.calls)
	require.Equal(t, before, f.config.Data)
}

func TestProcessor_ConvertInsufficientFunds(t *testing.T) {
	t.Parallel()
	f := newProcessorFixture()
	require.NoError(t, f.configure(t, f.admin))
	f.user.Lamports = 20_000_000_000 - 1

	require.ErrorIs(t, f.convert(t, 100, f.feed), domain.ErrInsufficientFunds)
	require.Empty(t, f.ledger.calls)

	f.user.Lamports = 20_000_000_000
	require.NoError(t, f.convert(t, 100, f.feed))
}

func TestProcessor_ConvertArithmetic(t *testing.T) {
	t.Parallel()
	f := newProcessorFixture()
	require.NoError(t, f.configure(t, f.admin))

	f.decoder.snap.Exponent = -9
	require.ErrorIs(t, f.convert(t, 100, f.feed), domain.ErrArithmeticOverflow)

	f.decoder.snap = freshSnapshot()
	require.ErrorIs(t, f.convert(t, -100, f.feed), domain.ErrNegativeResult)
	require.Empty(t, f.ledger.calls)
}

func TestProcessor_ConvertLedgerFailure(t *testing.T) {
	t.Parallel()
	f := newProcessorFixture()
	require.NoError(t, f.configure(t, f.admin))
	boom := errors.New("ledger offline")
	f.ledger.err = boom

	err := f.convert(t, 100, f.feed)
	require.ErrorIs(t, err, domain.ErrTransferFailed)
	require.ErrorIs(t, err, boom)
}

func TestProcessor_MissingAccounts(t *testing.T) {
	t.Parallel()
	f := newProcessorFixture()
	ctx := context.Background()

	err := f.proc.Process(ctx, []*domain.Account{f.admin, f.config}, encode(t, domain.NewConfigure()))
	require.ErrorIs(t, err, domain.ErrMissingAccount)

	require.NoError(t, f.configure(t, f.admin))
	err = f.proc.Process(ctx, []*domain.Account{f.user, f.config, f.feed}, encode(t, domain.NewConvert(1)))
	require.ErrorIs(t, err, domain.ErrMissingAccount)
}

func TestProcessor_DecodeError(t *testing.T) {
	t.Parallel()
	f := newProcessorFixture()
	err := f.proc.Process(context.Background(), []*domain.Account{f.admin, f.config, f.feed}, []byte{7})
	require.ErrorIs(t, err, domain.ErrDecode)
}
