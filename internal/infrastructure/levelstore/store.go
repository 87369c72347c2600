// Package levelstore keeps accounts in LevelDB, on disk or in memory.
package levelstore

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	"fxconvert-service/internal/application"
	"fxconvert-service/internal/domain"

	bin "github.com/gagliardetto/binary"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/storage"
)

var accountPrefix = []byte("acct:")

// Store serializes writes with a mutex so that a transfer reads and writes
// both balances without interleaving.
type Store struct {
	mu sync.Mutex
	db *leveldb.DB
}

var _ application.AccountStore = (*Store)(nil)

// Open creates or opens a LevelDB database at path.
func Open(path string) (*Store, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("open leveldb %s: %w", path, err)
	}
	return &Store{db: db}, nil
}

// OpenMemory returns a store backed by in-memory LevelDB storage.
func OpenMemory() (*Store, error) {
	db, err := leveldb.Open(storage.NewMemStorage(), nil)
	if err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) Ping(context.Context) error {
	_, err := s.db.GetProperty("leveldb.stats")
	return err
}

func (s *Store) Get(_ context.Context, key domain.Identity) (domain.Account, error) {
	return s.get(key)
}

func (s *Store) Put(_ context.Context, acc domain.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.put(acc)
}

func (s *Store) SetData(_ context.Context, key domain.Identity, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, err := s.get(key)
	if errors.Is(err, application.ErrNotFound) {
		acc = domain.Account{Key: key}
	} else if err != nil {
		return err
	}
	acc.Data = append([]byte(nil), data...)
	return s.put(acc)
}

func (s *Store) Transfer(_ context.Context, from, to domain.Identity, amount uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	src, err := s.get(from)
	if errors.Is(err, application.ErrNotFound) {
		src = domain.Account{Key: from}
	} else if err != nil {
		return err
	}
	if src.Lamports < amount {
		return fmt.Errorf("account %s holds %d lamports, need %d", from, src.Lamports, amount)
	}
	if from.Equals(to) {
		return nil
	}
	dst, err := s.get(to)
	if errors.Is(err, application.ErrNotFound) {
		dst = domain.Account{Key: to}
	} else if err != nil {
		return err
	}
	if dst.Lamports+amount < dst.Lamports {
		return fmt.Errorf("account %s balance would overflow", to)
	}
	src.Lamports -= amount
	dst.Lamports += amount

	batch := new(leveldb.Batch)
	for _, acc := range []domain.Account{src, dst} {
		v, err := encodeAccount(acc)
		if err != nil {
			return err
		}
		batch.Put(dbKey(acc.Key), v)
	}
	return s.db.Write(batch, nil)
}

func (s *Store) get(key domain.Identity) (domain.Account, error) {
	v, err := s.db.Get(dbKey(key), nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return domain.Account{}, application.ErrNotFound
	}
	if err != nil {
		return domain.Account{}, err
	}
	return decodeAccount(key, v)
}

func (s *Store) put(acc domain.Account) error {
	v, err := encodeAccount(acc)
	if err != nil {
		return err
	}
	return s.db.Put(dbKey(acc.Key), v, nil)
}

func dbKey(key domain.Identity) []byte {
	return append(append([]byte(nil), accountPrefix...), key[:]...)
}

func encodeAccount(acc domain.Account) ([]byte, error) {
	buf := new(bytes.Buffer)
	enc := bin.NewBorshEncoder(buf)
	if err := enc.WriteUint64(acc.Lamports, binary.LittleEndian); err != nil {
		return nil, err
	}
	if err := enc.WriteUint32(uint32(len(acc.Data)), binary.LittleEndian); err != nil {
		return nil, err
	}
	if err := enc.WriteBytes(acc.Data, false); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeAccount(key domain.Identity, v []byte) (domain.Account, error) {
	dec := bin.NewBorshDecoder(v)
	lamports, err := dec.ReadUint64(binary.LittleEndian)
	if err != nil {
		return domain.Account{}, fmt.Errorf("decode account %s: %w", key, err)
	}
	n, err := dec.ReadUint32(binary.LittleEndian)
	if err != nil {
		return domain.Account{}, fmt.Errorf("decode account %s: %w", key, err)
	}
	data, err := dec.ReadNBytes(int(n))
	if err != nil {
		return domain.Account{}, fmt.Errorf("decode account %s: %w", key, err)
	}
	return domain.Account{Key: key, Lamports: lamports, Data: data}, nil
}
