package testutil

import (
	"context"
	"errors"
	"maps"
	"slices"
	"sync"

	"riotlink/internal/accounts"
)

// MemoryStore is an accounts.Store that counts writes
type MemoryStore struct {
	mu      sync.Mutex
	data    map[string]accounts.Accounts
	Puts    int
	FailPut bool
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]accounts.Accounts)}
}

func (s *MemoryStore) Seed(userID string, accs ...accounts.LinkedAccount) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[userID] = slices.Clone(accounts.Accounts(accs))
}

func (s *MemoryStore) PutCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Puts
}

func (s *MemoryStore) Load(ctx context.Context) (map[string]accounts.Accounts, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data := make(map[string]accounts.Accounts, len(s.data))
	for userID, accs := range s.data {
		data[userID] = slices.Clone(accs)
	}
	return data, nil
}

func (s *MemoryStore) Save(ctx context.Context, data map[string]accounts.Accounts) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	maps.Copy(s.data, data)
	s.Puts++
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, userID string) (accounts.Accounts, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	accs := slices.Clone(s.data[userID])
	if accs == nil {
		accs = accounts.Accounts{}
	}
	return accs, nil
}

func (s *MemoryStore) Put(ctx context.Context, userID string, accs accounts.Accounts) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailPut {
		return errors.New("disk full")
	}
	s.data[userID] = slices.Clone(accs)
	s.Puts++
	return nil
}

func (s *MemoryStore) Close() error {
	return nil
}
