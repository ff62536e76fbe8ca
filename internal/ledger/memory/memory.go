package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"finledger/internal/core"
)

var ErrNotFound = errors.New("transaction not found")

// Store is an in-memory ledger used as the default backend and as the test
// double for the HTTP and worker layers. It observes the same Append/Snapshot
// contract as the SQLite repository.
type Store struct {
	mu    sync.Mutex
	items []core.Transaction
	now   func() time.Time
}

func New() *Store {
	return &Store{now: time.Now}
}

// NewWithClock pins the created_at clock, for tests.
func NewWithClock(now func() time.Time) *Store {
	return &Store{now: now}
}

// Append validates and stores the transaction, assigning a synthetic ID and
// a created_at stamp. Entries are never mutated afterwards.
func (s *Store) Append(_ context.Context, tx core.Transaction) (string, error) {
	if err := tx.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	tx.ID = fmt.Sprintf("mem:%d", len(s.items)+1)
	tx.CreatedAt = s.now()
	s.items = append(s.items, tx)
	return tx.ID, nil
}

// Snapshot returns a copy of the ledger in insertion order.
func (s *Store) Snapshot(_ context.Context) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Transaction, len(s.items))
	copy(out, s.items)
	return out, nil
}

func (s *Store) Get(_ context.Context, id string) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, tx := range s.items {
		if tx.ID == id {
			return tx, nil
		}
	}
	return core.Transaction{}, ErrNotFound
}
