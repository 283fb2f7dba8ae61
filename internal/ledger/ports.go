// Package ledger defines the outbound ports of the transaction ledger.
// Storage backends (in-memory, SQLite) implement these; the service and the
// HTTP layer depend only on the interfaces so backends stay swappable.
package ledger

import (
	"context"

	"finanzas/internal/core"
)

type (
	// TransactionWriter persists a new record and assigns its id.
	TransactionWriter interface {
		Insert(ctx context.Context, tx core.Transaction) (core.Transaction, error)
	}

	// TransactionDeleter removes a record by id. The boolean reports whether
	// a record was found; a missing id is not an error.
	TransactionDeleter interface {
		DeleteByID(ctx context.Context, id int64) (bool, error)
	}

	// TransactionLister returns the whole ledger ordered by date descending,
	// with id descending as the deterministic tie-break.
	TransactionLister interface {
		ListAll(ctx context.Context) ([]core.Transaction, error)
	}

	// PeriodReader provides the month-scoped queries used by reporting and
	// the chart feed.
	PeriodReader interface {
		ListByPeriod(ctx context.Context, year, month int) ([]core.Transaction, error)
		ListByTypeAndMonth(ctx context.Context, t core.TransactionType, year, month int) ([]core.Transaction, error)
	}

	// Store is the full ledger surface a backend must provide.
	Store interface {
		TransactionWriter
		TransactionDeleter
		TransactionLister
		PeriodReader
	}
)
