package application

import (
	"context"
	"fmt"

	"fxconvert-service/internal/domain"
)

type TransferExecutor struct {
	ledger Ledger
}

func NewTransferExecutor(ledger Ledger) TransferExecutor {
	return TransferExecutor{ledger: ledger}
}

// Execute moves amount from the caller to dest. Nothing is requested from the
// ledger when the caller cannot cover the amount.
func (t TransferExecutor) Execute(ctx context.Context, from, dest *domain.Account, amount uint64) error {
	if from.Lamports < amount {
		return fmt.Errorf("%w: balance %d, need %d", domain.ErrInsufficientFunds, from.Lamports, amount)
	}
	if t.ledger == nil {
		return fmt.Errorf("%w: no ledger configured", domain.ErrTransferFailed)
	}
	if err := t.ledger.Transfer(ctx, from.Key, dest.Key, amount); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrTransferFailed, err)
	}
	return nil
}
