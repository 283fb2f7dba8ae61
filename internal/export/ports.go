// Package export defines the outbound ports for mirroring ledger records to
// an external sheet. The worker drives these; the ledger itself never
// blocks on them.
package export

import (
	"context"
	"errors"

	"finanzas/internal/core"
)

// ErrRowNotFound is returned by Remove when the external copy has no row
// matching the transaction data.
var ErrRowNotFound = errors.New("sheet row not found")

type (
	// TransactionAppender adds one record to the external copy and returns
	// an opaque reference to where it landed.
	TransactionAppender interface {
		Append(ctx context.Context, tx core.Transaction) (string, error)
	}

	// TransactionRemover deletes the external copy of a record, located by
	// its data (the ledger row is already gone when this runs).
	TransactionRemover interface {
		Remove(ctx context.Context, tx core.Transaction) error
	}

	// Exporter is the full surface the sync worker needs.
	Exporter interface {
		TransactionAppender
		TransactionRemover
	}
)
