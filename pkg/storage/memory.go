package storage

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"

	"github.com/absmach/fedge/pkg/errors"
)

type memoryStorage struct {
	mu sync.RWMutex

	data map[string][]byte
}

func NewInMemoryStorage() Storage {
	return &memoryStorage{
		data: make(map[string][]byte),
	}
}

func (s *memoryStorage) Put(_ context.Context, key string, value any) error {
	if key == "" {
		return errors.ErrEmptyKey
	}

	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = data

	return nil
}

func (s *memoryStorage) Get(_ context.Context, key string, value any) error {
	if key == "" {
		return errors.ErrEmptyKey
	}

	s.mu.RLock()
	data, ok := s.data[key]
	s.mu.RUnlock()
	if !ok {
		return errors.ErrNotFound
	}

	return json.Unmarshal(data, value)
}

func (s *memoryStorage) List(_ context.Context, prefix string, offset, limit uint64) ([]string, uint64, error) {
	s.mu.RLock()
	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	s.mu.RUnlock()

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

func (s *memoryStorage) Delete(_ context.Context, key string) error {
	if key == "" {
		return errors.ErrEmptyKey
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)

	return nil
}

func (s *memoryStorage) Close() error {
	return nil
}
