package pg_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"fxconvert-service/internal/application"
	"fxconvert-service/internal/domain"
	"fxconvert-service/internal/infrastructure/pg"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/require"
)

func TestAccountRepo_PutGetSetData(t *testing.T) {
	db := withPostgres(t)
	repo := pg.NewAccountRepo(db)
	ctx := context.Background()
	key := solana.NewWallet().PublicKey()

	_, err := repo.Get(ctx, key)
	require.ErrorIs(t, err, application.ErrNotFound)

	require.NoError(t, repo.Put(ctx, domain.Account{Key: key, Lamports: 1 << 63, Data: []byte{1}}))
	require.NoError(t, repo.SetData(ctx, key, []byte{7, 7}))

	got, err := repo.Get(ctx, key)
	require.NoError(t, err)
	require.Equal(t, uint64(1<<63), got.Lamports)
	require.Equal(t, []byte{7, 7}, got.Data)
}

func TestAccountRepo_Transfer(t *testing.T) {
	db := withPostgres(t)
	repo := pg.NewAccountRepo(db)
	ctx := context.Background()
	from := solana.NewWallet().PublicKey()
	to := solana.NewWallet().PublicKey()
	require.NoError(t, repo.Put(ctx, domain.Account{Key: from, Lamports: 100}))

	require.NoError(t, repo.Transfer(ctx, from, to, 30))
	require.Error(t, repo.Transfer(ctx, from, to, 71))

	src, err := repo.Get(ctx, from)
	require.NoError(t, err)
	dst, err := repo.Get(ctx, to)
	require.NoError(t, err)
	require.Equal(t, uint64(70), src.Lamports)
	require.Equal(t, uint64(30), dst.Lamports)
}

func TestUnitOfWork_RollsBackOnError(t *testing.T) {
	db := withPostgres(t)
	repo := pg.NewAccountRepo(db)
	uow := &pg.UnitOfWork{Pool: db.Pool}
	ctx := context.Background()
	from := solana.NewWallet().PublicKey()
	to := solana.NewWallet().PublicKey()
	require.NoError(t, repo.Put(ctx, domain.Account{Key: from, Lamports: 10}))

	boom := errors.New("boom")
	err := uow.Do(ctx, func(ctx context.Context) error {
		require.NoError(t, repo.Transfer(ctx, from, to, 10))
		require.NoError(t, repo.SetData(ctx, from, []byte{1}))
		return boom
	})
	require.ErrorIs(t, err, boom)

	src, err := repo.Get(ctx, from)
	require.NoError(t, err)
	require.Equal(t, uint64(10), src.Lamports)
	require.Empty(t, src.Data)
	_, err = repo.Get(ctx, to)
	require.ErrorIs(t, err, application.ErrNotFound)
}

func TestAccountRepo_GetLocksRowInsideTransaction(t *testing.T) {
	db := withPostgres(t)
	repo := pg.NewAccountRepo(db)
	uow := &pg.UnitOfWork{Pool: db.Pool}
	ctx := context.Background()
	config := solana.NewWallet().PublicKey()
	require.NoError(t, repo.Put(ctx, domain.Account{Key: config, Data: make([]byte, 33)}))

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		claimed int
	)
	errs := make(chan error, 4)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- uow.Do(ctx, func(ctx context.Context) error {
				acc, err := repo.Get(ctx, config)
				if err != nil {
					return err
				}
				if acc.Data[0] != 0 {
					return nil
				}
				time.Sleep(50 * time.Millisecond)
				acc.Data[0] = 1
				mu.Lock()
				claimed++
				mu.Unlock()
				return repo.SetData(ctx, config, acc.Data)
			})
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}
	require.Equal(t, 1, claimed)

	// Reads outside a transaction take no lock.
	err := uow.Do(ctx, func(txCtx context.Context) error {
		if _, err := repo.Get(txCtx, config); err != nil {
			return err
		}
		readCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		_, err := repo.Get(readCtx, config)
		return err
	})
	require.NoError(t, err)
}
