package application

import (
	"context"
	"fmt"

	"fxconvert-service/internal/domain"

	"go.uber.org/zap"
)

// Positional account layout of every invocation.
const (
	accountCaller = iota
	accountConfig
	accountFeed
	accountDestination
)

// Processor executes one decoded instruction against the supplied accounts.
// It never retries and never writes the config account unless the whole
// instruction succeeds.
type Processor struct {
	authority domain.Identity
	prices    PriceClient
	transfers TransferExecutor
	log       *zap.Logger
}

type ProcessorOption func(*processorOptions)

type processorOptions struct {
	clock Clock
	log   *zap.Logger
}

func WithProcessorClock(c Clock) ProcessorOption {
	return func(o *processorOptions) { o.clock = c }
}

func WithProcessorLogger(l *zap.Logger) ProcessorOption {
	return func(o *processorOptions) { o.log = l }
}

func NewProcessor(authority domain.Identity, decoder PriceFeedDecoder, ledger Ledger, opts ...ProcessorOption) *Processor {
	o := processorOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.log == nil {
		o.log = zap.NewNop()
	}
	return &Processor{
		authority: authority,
		prices:    NewPriceClient(decoder, o.clock),
		transfers: NewTransferExecutor(ledger),
		log:       o.log,
	}
}

func (p *Processor) Authority() domain.Identity { return p.authority }

func (p *Processor) Prices() PriceClient { return p.prices }

// Process decodes input and runs it. accounts are positional: caller, config,
// price feed and, for Convert, the destination.
func (p *Processor) Process(ctx context.Context, accounts []*domain.Account, input []byte) error {
	ix, err := domain.DecodeInstruction(input)
	if err != nil {
		return err
	}
	if len(accounts) <= accountFeed {
		return fmt.Errorf("%w: need caller, config and feed accounts, got %d", domain.ErrMissingAccount, len(accounts))
	}
	caller, cfg, feed := accounts[accountCaller], accounts[accountConfig], accounts[accountFeed]

	switch ix.Kind {
	case domain.InstructionConfigure:
		return p.configure(caller, cfg, feed)
	case domain.InstructionConvert:
		if len(accounts) <= accountDestination {
			return fmt.Errorf("%w: convert needs a destination account", domain.ErrMissingAccount)
		}
		return p.convert(ctx, ix.QuotedAmount, caller, cfg, feed, accounts[accountDestination])
	default:
		return fmt.Errorf("%w: unknown instruction %d", domain.ErrDecode, ix.Kind)
	}
}

func (p *Processor) configure(caller, cfg, feed *domain.Account) error {
	rec, err := domain.LoadConfigRecord(cfg.Data)
	if err != nil {
		return err
	}
	if rec.Initialized {
		return domain.ErrAlreadyInitialized
	}
	if err := AuthorizeAdmin(caller, p.authority); err != nil {
		return err
	}
	if _, err := p.prices.Load(feed); err != nil {
		return err
	}

	rec.Initialized = true
	rec.TrustedPriceSource = feed.Key
	if err := rec.Store(cfg.Data); err != nil {
		return err
	}
	p.log.Info("configure.done", zap.String("price_source", feed.Key.String()))
	return nil
}

func (p *Processor) convert(ctx context.Context, quoted int64, caller, cfg, feed, dest *domain.Account) error {
	p.log.Info("convert.quoted_amount", zap.Int64("quoted_amount", quoted))

	rec, err := domain.LoadConfigRecord(cfg.Data)
	if err != nil {
		return err
	}
	snap, err := p.prices.Fresh(rec, feed)
	if err != nil {
		return err
	}
	amount, err := domain.ConvertQuote(quoted, snap.Price, snap.Exponent)
	if err != nil {
		return err
	}
	return p.transfers.Execute(ctx, caller, dest, amount)
}
