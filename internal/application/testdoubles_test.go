package application

import (
	"context"
	"errors"
	"sync"
	"time"

	"fxconvert-service/internal/domain"

	"github.com/gagliardetto/solana-go"
)

var ErrRepo = errors.New("repo error")

var testNow = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

type fakeClock struct{ t time.Time }

func (c fakeClock) Now() time.Time { return c.t }

// fakeDecoder treats any feed account with non-empty data as readable and
// returns snap for it.
type fakeDecoder struct {
	snap  domain.PriceSnapshot
	err   error
	calls int
}

func (f *fakeDecoder) Decode(feed domain.Account) (domain.PriceSnapshot, error) {
	f.calls++
	if f.err != nil {
		return domain.PriceSnapshot{}, f.err
	}
	if len(feed.Data) == 0 {
		return domain.PriceSnapshot{}, errors.New("empty feed account")
	}
	return f.snap, nil
}

type transferCall struct {
	From, To domain.Identity
	Amount   uint64
}

type fakeLedger struct {
	calls []transferCall
	err   error
}

func (f *fakeLedger) Transfer(_ context.Context, from, to domain.Identity, amount uint64) error {
	if f.err != nil {
		return f.err
	}
	f.calls = append(f.calls, transferCall{From: from, To: to, Amount: amount})
	return nil
}

type fakeStore struct {
	mu       sync.Mutex
	accounts map[domain.Identity]domain.Account
	err      error
	gets     []domain.Identity
}

func newFakeStore(accs ...domain.Account) *fakeStore {
	s := &fakeStore{accounts: map[domain.Identity]domain.Account{}}
	for _, a := range accs {
		s.accounts[a.Key] = a.Clone()
	}
	return s
}

func (f *fakeStore) Get(_ context.Context, key domain.Identity) (domain.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gets = append(f.gets, key)
	if f.err != nil {
		return domain.Account{}, f.err
	}
	a, ok := f.accounts[key]
	if !ok {
		return domain.Account{}, ErrNotFound
	}
	return a.Clone(), nil
}

func (f *fakeStore) Put(_ context.Context, acc domain.Account) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.accounts[acc.Key] = acc.Clone()
	return nil
}

func (f *fakeStore) SetData(_ context.Context, key domain.Identity, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a := f.accounts[key]
	a.Key = key
	a.Data = append([]byte(nil), data...)
	f.accounts[key] = a
	return nil
}

func (f *fakeStore) Transfer(_ context.Context, from, to domain.Identity, amount uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	src := f.accounts[from]
	if src.Lamports < amount {
		return errors.New("source balance too low")
	}
	src.Key = from
	src.Lamports -= amount
	f.accounts[from] = src
	dst := f.accounts[to]
	dst.Key = to
	dst.Lamports += amount
	f.accounts[to] = dst
	return nil
}

func (f *fakeStore) lamports(key domain.Identity) uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.accounts[key].Lamports
}

func (f *fakeStore) data(key domain.Identity) []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]byte(nil), f.accounts[key].Data...)
}

type fakeIdem struct{ seen map[string]bool }

func (f *fakeIdem) TryReserve(_ context.Context, k string) (bool, error) {
	if f.seen == nil {
		f.seen = map[string]bool{}
	}
	if f.seen[k] {
		return false, nil
	}
	f.seen[k] = true
	return true, nil
}

type fakeRecorder struct {
	outcomes []string
}

func (f *fakeRecorder) InstructionProcessed(kind, outcome string, _ time.Duration) {
	f.outcomes = append(f.outcomes, kind+":"+outcome)
}

func (f *fakeRecorder) FeedSynced(string) {}

func freshSnapshot() domain.PriceSnapshot {
	return domain.PriceSnapshot{
		Price:       5_000_000_000,
		Conf:        1_000_000,
		Exponent:    -8,
		PublishTime: testNow.Unix() - 5,
	}
}

func newKey() domain.Identity { return solana.NewWallet().PublicKey() }
