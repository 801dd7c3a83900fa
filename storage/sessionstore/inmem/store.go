package inmemstore

import (
	"context"
	"sync"

	"github.com/trezcool/niva/core/session"
)

type Store struct {
	mutex sync.RWMutex
	table map[string]string
}

var _ session.Store = (*Store)(nil)

func New() *Store {
	return &Store{table: make(map[string]string)}
}

func (s *Store) Get(_ context.Context, key string) (string, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if val, ok := s.table[key]; ok {
		return val, nil
	}
	return "", session.ErrNotFound
}

func (s *Store) Set(_ context.Context, key, value string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.table[key] = value
	return nil
}

func (s *Store) Delete(_ context.Context, keys ...string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	for _, key := range keys {
		delete(s.table, key)
	}
	return nil
}

// Len returns the number of stored keys.
func (s *Store) Len() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return len(s.table)
}
