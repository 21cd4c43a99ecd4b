package storage

import (
	"context"
	"sync"
)

// MemoryStorage 进程内存储
type MemoryStorage struct {
	mu   sync.RWMutex
	data map[string][]byte
}

var _ Storage = (*MemoryStorage)(nil)

// NewMemoryStorage 创建内存存储
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{data: make(map[string][]byte)}
}

func (s *MemoryStorage) SecurityLevel() SecurityLevel {
	return SecurityLevelInMemory
}

func (s *MemoryStorage) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.data[key]
	if !ok {
		return nil, false, nil
	}
	return copyBytes(v), true, nil
}

func (s *MemoryStorage) Set(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[key] = copyBytes(value)
	return nil
}

func (s *MemoryStorage) Remove(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.data, key)
	return nil
}

func (s *MemoryStorage) RemoveAll(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data = make(map[string][]byte)
	return nil
}

func (s *MemoryStorage) FindKey(ctx context.Context, substring string) ([]string, error) {
	keys, err := s.AllKeys(ctx)
	if err != nil {
		return nil, err
	}
	return filterKeys(keys, substring), nil
}

func (s *MemoryStorage) AllKeys(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	return filterKeys(keys, ""), nil
}
