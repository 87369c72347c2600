package application

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"sort"
	"time"

	"fxconvert-service/internal/domain"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const signingDomain = "fxconvert/v1"

// SubmissionWindow bounds how far a submission's signed timestamp may be
// from the host clock. Reservations are kept for twice the window so a
// submission cannot outlive its dedupe entry.
const SubmissionWindow = 2 * time.Minute

// Submission is a signed instruction as received from a client. The first
// account is the caller and must have produced Signature. Nonce and
// Timestamp are covered by the signature so that identical instructions
// sign to distinct submissions.
type Submission struct {
	Data      []byte
	Accounts  []domain.Identity
	Nonce     uint64
	Timestamp int64
	Signature solana.Signature
}

// SigningMessage is the byte string a caller signs for a submission:
// domain, program ID, accounts, data, then nonce and unix timestamp as
// little-endian u64.
func SigningMessage(programID domain.Identity, sub Submission) []byte {
	msg := make([]byte, 0, len(signingDomain)+domain.IdentitySize*(len(sub.Accounts)+1)+len(sub.Data)+16)
	msg = append(msg, signingDomain...)
	msg = append(msg, programID[:]...)
	for _, a := range sub.Accounts {
		msg = append(msg, a[:]...)
	}
	msg = append(msg, sub.Data...)
	msg = binary.LittleEndian.AppendUint64(msg, sub.Nonce)
	return binary.LittleEndian.AppendUint64(msg, uint64(sub.Timestamp))
}

// QuotePreview is the outcome of a conversion that was computed but not executed.
type QuotePreview struct {
	QuotedAmount int64
	Lamports     uint64
	Price        decimal.Decimal
	Conf         uint64
	PublishTime  time.Time
	PriceSource  domain.Identity
}

// InstructionService hosts the processor: it authenticates submissions,
// loads accounts from the store and persists the outcome.
type InstructionService struct {
	programID domain.Identity
	configKey domain.Identity
	processor *Processor
	store     AccountStore
	uow       UnitOfWork
	idem      IdempotencyStore
	recorder  Recorder
	clock     Clock
	log       *zap.Logger
}

type Option func(*InstructionService)

func WithUnitOfWork(u UnitOfWork) Option       { return func(s *InstructionService) { s.uow = u } }
func WithIdempotency(i IdempotencyStore) Option { return func(s *InstructionService) { s.idem = i } }
func WithRecorder(r Recorder) Option            { return func(s *InstructionService) { s.recorder = r } }
func WithClock(c Clock) Option                  { return func(s *InstructionService) { s.clock = c } }
func WithLogger(l *zap.Logger) Option           { return func(s *InstructionService) { s.log = l } }

func NewInstructionService(configKey domain.Identity, processor *Processor, store AccountStore, opts ...Option) *InstructionService {
	s := &InstructionService{
		programID: processor.Authority(),
		configKey: configKey,
		processor: processor,
		store:     store,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.uow == nil {
		s.uow = NoopUoW{}
	}
	if s.recorder == nil {
		s.recorder = NoopRecorder{}
	}
	if s.clock == nil {
		s.clock = SystemClock{}
	}
	if s.idem == nil {
		s.idem = NewMemoryIdempotency(2*SubmissionWindow, s.clock)
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	return s
}

func (s *InstructionService) ProgramID() domain.Identity { return s.programID }
func (s *InstructionService) ConfigKey() domain.Identity { return s.configKey }

// Submit verifies and executes one signed instruction.
func (s *InstructionService) Submit(ctx context.Context, sub Submission) error {
	start := s.clock.Now()
	kind := "invalid"
	if ix, err := domain.DecodeInstruction(sub.Data); err == nil {
		kind = ix.Kind.String()
	}
	log := s.log.With(zap.String("instruction", kind), zap.String("signature", sub.Signature.String()))

	err := s.submit(ctx, sub)
	outcome := "ok"
	if err != nil {
		outcome = outcomeOf(err)
		log.Warn("submit.rejected", zap.String("outcome", outcome), zap.Error(err))
	} else {
		log.Info("submit.done")
	}
	s.recorder.InstructionProcessed(kind, outcome, s.clock.Now().Sub(start))
	return err
}

func (s *InstructionService) submit(ctx context.Context, sub Submission) error {
	if len(sub.Accounts) == 0 {
		return fmt.Errorf("%w: submission has no accounts", domain.ErrMissingAccount)
	}
	signer := sub.Accounts[accountCaller]
	if !sub.Signature.Verify(signer, SigningMessage(s.programID, sub)) {
		return ErrBadSignature
	}
	if err := s.checkWindow(sub.Timestamp); err != nil {
		return err
	}
	ok, err := s.idem.TryReserve(ctx, "ix:"+sub.Signature.String())
	if err != nil {
		return fmt.Errorf("reserve submission: %w", err)
	}
	if !ok {
		return ErrDuplicate
	}

	return s.uow.Do(ctx, func(ctx context.Context) error {
		accounts := make([]*domain.Account, len(sub.Accounts))
		before := make([][]byte, len(sub.Accounts))
		// Stores may lock rows on read; key order keeps lock order global.
		for _, i := range keyOrder(sub.Accounts) {
			key := sub.Accounts[i]
			acc, err := s.loadAccount(ctx, key)
			if err != nil {
				return err
			}
			acc.IsSigner = acc.Key.Equals(signer)
			before[i] = append([]byte(nil), acc.Data...)
			accounts[i] = &acc
		}
		if err := s.processor.Process(ctx, accounts, sub.Data); err != nil {
			return err
		}
		for i, acc := range accounts {
			if bytes.Equal(before[i], acc.Data) {
				continue
			}
			if err := s.store.SetData(ctx, acc.Key, acc.Data); err != nil {
				return fmt.Errorf("persist account %s: %w", acc.Key, err)
			}
		}
		return nil
	})
}

func outcomeOf(err error) string {
	switch {
	case errors.Is(err, ErrBadSignature):
		return "bad_signature"
	case errors.Is(err, ErrExpired):
		return "expired"
	case errors.Is(err, ErrDuplicate):
		return "duplicate"
	}
	if code := domain.Code(err); code != "" {
		return code
	}
	return "error"
}

func keyOrder(keys []domain.Identity) []int {
	idx := make([]int, len(keys))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return bytes.Compare(keys[idx[a]][:], keys[idx[b]][:]) < 0
	})
	return idx
}

func (s *InstructionService) checkWindow(ts int64) error {
	now := s.clock.Now()
	signed := time.Unix(ts, 0)
	if signed.Before(now.Add(-SubmissionWindow)) || signed.After(now.Add(SubmissionWindow)) {
		return fmt.Errorf("%w: signed at %s, now %s", ErrExpired, signed.UTC().Format(time.RFC3339), now.UTC().Format(time.RFC3339))
	}
	return nil
}

func (s *InstructionService) loadAccount(ctx context.Context, key domain.Identity) (domain.Account, error) {
	acc, err := s.store.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return domain.Account{Key: key}, nil
	}
	if err != nil {
		return domain.Account{}, fmt.Errorf("load account %s: %w", key, err)
	}
	return acc, nil
}

// Config returns the current configuration record.
func (s *InstructionService) Config(ctx context.Context) (domain.ConfigRecord, error) {
	acc, err := s.store.Get(ctx, s.configKey)
	if err != nil {
		return domain.ConfigRecord{}, err
	}
	return domain.LoadConfigRecord(acc.Data)
}

func (s *InstructionService) Account(ctx context.Context, key domain.Identity) (domain.Account, error) {
	return s.store.Get(ctx, key)
}

// Quote runs the read-only half of Convert against the trusted feed.
func (s *InstructionService) Quote(ctx context.Context, quoted int64) (QuotePreview, error) {
	rec, err := s.Config(ctx)
	if err != nil {
		return QuotePreview{}, err
	}
	if !rec.Initialized {
		return QuotePreview{}, domain.ErrNotConfigured
	}
	feed, err := s.loadAccount(ctx, rec.TrustedPriceSource)
	if err != nil {
		return QuotePreview{}, err
	}
	snap, err := s.processor.Prices().Fresh(rec, &feed)
	if err != nil {
		return QuotePreview{}, err
	}
	lamports, err := domain.ConvertQuote(quoted, snap.Price, snap.Exponent)
	if err != nil {
		return QuotePreview{}, err
	}
	return QuotePreview{
		QuotedAmount: quoted,
		Lamports:     lamports,
		Price:        snap.Decimal(),
		Conf:         snap.Conf,
		PublishTime:  time.Unix(snap.PublishTime, 0).UTC(),
		PriceSource:  rec.TrustedPriceSource,
	}, nil
}

// EnsureConfigAccount creates the config account as zeroed storage of size
// bytes when it does not exist yet.
func (s *InstructionService) EnsureConfigAccount(ctx context.Context, size int) error {
	if size < domain.ConfigRecordSize {
		size = domain.ConfigRecordSize
	}
	_, err := s.store.Get(ctx, s.configKey)
	if err == nil {
		return nil
	}
	if !errors.Is(err, ErrNotFound) {
		return err
	}
	s.log.Info("config_account.create", zap.String("key", s.configKey.String()), zap.Int("size", size))
	return s.store.Put(ctx, domain.Account{Key: s.configKey, Data: make([]byte, size)})
}
