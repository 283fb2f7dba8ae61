package backend

import (
	"context"

	"finanzas/internal/amqp"
	"finanzas/internal/config"
	"finanzas/internal/ledger"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// Result contains the selected store, the optional event publisher, and a
// cleanup function to run at shutdown.
type Result struct {
	Store   ledger.Store
	Events  *amqp.Client
	Cleanup CleanupFunc
}

// Factory creates storage backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, cfg *config.Config) (*Result, error)
}

// Type represents the kind of storage backend
type Type string

const (
	SQLiteBackend Type = "sqlite"
	MemoryBackend Type = "memory"
)

// String implements fmt.Stringer
func (t Type) String() string {
	return string(t)
}

// IsValid returns true if the backend type is valid
func (t Type) IsValid() bool {
	switch t {
	case SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
