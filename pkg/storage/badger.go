package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/dgraph-io/badger/v4"

	"github.com/absmach/fedge/pkg/errors"
)

type badgerStorage struct {
	db *badger.DB
}

// NewBadgerStorage opens a Badger-backed store at dataDir, creating the
// directory when needed.
func NewBadgerStorage(dataDir string) (Storage, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	opts := badger.DefaultOptions(dataDir)
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger database: %w", err)
	}

	return &badgerStorage{db: db}, nil
}

func (s *badgerStorage) Put(_ context.Context, key string, value any) error {
	if key == "" {
		return errors.ErrEmptyKey
	}

	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), data)
	})
}

func (s *badgerStorage) Get(_ context.Context, key string, value any) error {
	if key == "" {
		return errors.ErrEmptyKey
	}

	return s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return errors.ErrNotFound
			}

			return err
		}

		return item.Value(func(data []byte) error {
			return json.Unmarshal(data, value)
		})
	})
}

func (s *badgerStorage) List(_ context.Context, prefix string, offset, limit uint64) ([]string, uint64, error) {
	var keys []string
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			key := string(it.Item().Key())
			if strings.HasPrefix(key, prefix) {
				keys = append(keys, key)
			}
		}

		return nil
	})
	if err != nil {
		return nil, 0, err
	}

	sort.Strings(keys)

	total := uint64(len(keys))
	if offset >= total {
		return nil, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}

	return keys[offset:end], total, nil
}

func (s *badgerStorage) Delete(_ context.Context, key string) error {
	if key == "" {
		return errors.ErrEmptyKey
	}

	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
}

func (s *badgerStorage) Close() error {
	return s.db.Close()
}
