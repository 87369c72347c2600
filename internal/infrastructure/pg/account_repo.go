package pg

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"fxconvert-service/internal/application"
	"fxconvert-service/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// AccountRepo stores accounts in Postgres. Calls join the transaction
// opened by UnitOfWork when one is present in ctx.
type AccountRepo struct{ db *DB }

var _ application.AccountStore = (*AccountRepo)(nil)

func NewAccountRepo(db *DB) *AccountRepo { return &AccountRepo{db: db} }

func (r *AccountRepo) q(ctx context.Context) querier {
	if tx := txFromCtx(ctx); tx != nil {
		return tx
	}
	return r.db.Pool
}

// Get reads one account. Inside a transaction the row stays locked until
// commit, so concurrent submissions touching the same account serialize.
func (r *AccountRepo) Get(ctx context.Context, key domain.Identity) (domain.Account, error) {
	q := `SELECT lamports::text, data FROM accounts WHERE key=$1`
	if txFromCtx(ctx) != nil {
		q += ` FOR UPDATE`
	}
	var (
		lamports string
		data     []byte
	)
	err := r.q(ctx).QueryRow(ctx, q, key[:]).Scan(&lamports, &data)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Account{}, application.ErrNotFound
	}
	if err != nil {
		return domain.Account{}, err
	}
	n, err := strconv.ParseUint(lamports, 10, 64)
	if err != nil {
		return domain.Account{}, fmt.Errorf("account %s lamports: %w", key, err)
	}
	return domain.Account{Key: key, Lamports: n, Data: data}, nil
}

func (r *AccountRepo) Put(ctx context.Context, acc domain.Account) error {
	const up = `
        INSERT INTO accounts(key, lamports, data, updated_at)
        VALUES ($1, $2::text::numeric, $3, now())
        ON CONFLICT (key) DO UPDATE
          SET lamports=EXCLUDED.lamports, data=EXCLUDED.data, updated_at=now()`
	_, err := r.q(ctx).Exec(ctx, up, acc.Key[:], strconv.FormatUint(acc.Lamports, 10), nonNil(acc.Data))
	return err
}

func (r *AccountRepo) SetData(ctx context.Context, key domain.Identity, data []byte) error {
	const up = `
        INSERT INTO accounts(key, data, updated_at)
        VALUES ($1, $2, now())
        ON CONFLICT (key) DO UPDATE
          SET data=EXCLUDED.data, updated_at=now()`
	_, err := r.q(ctx).Exec(ctx, up, key[:], nonNil(data))
	return err
}

// Transfer debits from and credits to in one transaction. Without an
// ambient transaction it opens its own.
func (r *AccountRepo) Transfer(ctx context.Context, from, to domain.Identity, amount uint64) error {
	if txFromCtx(ctx) != nil {
		return r.transfer(ctx, from, to, amount)
	}
	uow := &UnitOfWork{Pool: r.db.Pool}
	return uow.Do(ctx, func(ctx context.Context) error {
		return r.transfer(ctx, from, to, amount)
	})
}

func (r *AccountRepo) transfer(ctx context.Context, from, to domain.Identity, amount uint64) error {
	q := r.q(ctx)
	lamports := strconv.FormatUint(amount, 10)

	tag, err := q.Exec(ctx, `
        UPDATE accounts SET lamports = lamports - $2::text::numeric, updated_at = now()
        WHERE key = $1 AND lamports >= $2::text::numeric`, from[:], lamports)
	if err != nil {
		return fmt.Errorf("debit %s: %w", from, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("account %s cannot cover %d lamports", from, amount)
	}
	if _, err := q.Exec(ctx, `
        INSERT INTO accounts(key, lamports, updated_at)
        VALUES ($1, $2::text::numeric, now())
        ON CONFLICT (key) DO UPDATE
          SET lamports = accounts.lamports + EXCLUDED.lamports, updated_at = now()`, to[:], lamports); err != nil {
		return fmt.Errorf("credit %s: %w", to, err)
	}
	_, err = q.Exec(ctx, `
        INSERT INTO transfers(from_key, to_key, lamports) VALUES ($1, $2, $3::text::numeric)`, from[:], to[:], lamports)
	return err
}

func nonNil(b []byte) []byte {
	if b == nil {
		return []byte{}
	}
	return b
}
