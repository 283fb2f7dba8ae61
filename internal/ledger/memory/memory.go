// Package memory provides an in-process ledger store. It is the default
// backend for local runs and the test double for everything above the ports.
package memory

import (
	"context"
	"sort"
	"sync"

	"finanzas/internal/core"
)

type Store struct {
	mu     sync.Mutex
	nextID int64
	items  []core.Transaction
}

func New() *Store {
	return &Store{nextID: 1}
}

// Insert assigns a fresh id and stores the transaction.
func (s *Store) Insert(_ context.Context, tx core.Transaction) (core.Transaction, error) {
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	tx.ID = s.nextID
	s.nextID++
	s.items = append(s.items, tx)
	return tx, nil
}

// DeleteByID removes the record if present and reports whether it was found.
func (s *Store) DeleteByID(_ context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, tx := range s.items {
		if tx.ID == id {
			s.items = append(s.items[:i], s.items[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

// ListAll returns every transaction, date descending, id descending on ties.
func (s *Store) ListAll(_ context.Context) ([]core.Transaction, error) {
	s.mu.Lock()
	out := append([]core.Transaction(nil), s.items...)
	s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date.Time) {
			return out[i].Date.After(out[j].Date.Time)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

// ListByPeriod returns transactions whose date falls in the given month.
func (s *Store) ListByPeriod(_ context.Context, year, month int) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Transaction
	for _, tx := range s.items {
		if tx.Date.InPeriod(year, month) {
			out = append(out, tx)
		}
	}
	return out, nil
}

// ListByTypeAndMonth filters by type and calendar month.
func (s *Store) ListByTypeAndMonth(_ context.Context, t core.TransactionType, year, month int) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Transaction
	for _, tx := range s.items {
		if tx.Type == t && tx.Date.InPeriod(year, month) {
			out = append(out, tx)
		}
	}
	return out, nil
}
