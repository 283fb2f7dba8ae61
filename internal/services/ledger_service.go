// Package services orchestrates ledger operations across the store, the
// report renderer and the event pipeline. Validation failures surface at the
// boundary closest to their cause; the store is never touched with an
// invalid period or record.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"finanzas/internal/amqp"
	"finanzas/internal/core"
	"finanzas/internal/ledger"
	"finanzas/internal/report"
)

// EventPublisher is the slice of the AMQP client the service needs.
type EventPublisher interface {
	PublishTransactionSync(ctx context.Context, id, version int64) error
	PublishTransactionDelete(ctx context.Context, msg *amqp.TransactionDeleteMessage) error
}

// recordGetter is implemented by stores that can fetch a record by id; the
// delete event needs the record's data after the row is gone.
type recordGetter interface {
	GetByID(ctx context.Context, id int64) (core.Transaction, error)
}

type LedgerService struct {
	store         ledger.Store
	events        EventPublisher // nil when the pipeline is disabled
	renderer      *report.Renderer
	allowNegative bool
}

func NewLedgerService(store ledger.Store, events EventPublisher, allowNegative bool) *LedgerService {
	return &LedgerService{
		store:         store,
		events:        events,
		renderer:      report.NewRenderer(),
		allowNegative: allowNegative,
	}
}

// Create validates and persists a transaction, then publishes a sync
// message. Publish failures are logged, not returned: the record is safe in
// the ledger and the reconcile loop will pick it up.
func (s *LedgerService) Create(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	if tx.Amount.Cents < 0 && !s.allowNegative {
		return core.Transaction{}, core.ErrInvalidAmount
	}
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}

	saved, err := s.store.Insert(ctx, tx)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("save transaction: %w", err)
	}

	if s.events == nil {
		return saved, nil
	}
	if err := s.events.PublishTransactionSync(ctx, saved.ID, 1); err != nil {
		slog.ErrorContext(ctx, "Failed to publish sync message",
			"id", saved.ID, "error", err)
	}
	return saved, nil
}

// Delete removes a transaction by id. A missing id reports found=false and
// is not an error; the caller turns it into a user-facing message.
func (s *LedgerService) Delete(ctx context.Context, id int64) (bool, error) {
	// Capture the record before it disappears so the delete event can carry it
	var deleted *amqp.TransactionDeleteMessage
	if getter, ok := s.store.(recordGetter); ok && s.events != nil {
		if tx, err := getter.GetByID(ctx, id); err == nil {
			deleted = &amqp.TransactionDeleteMessage{
				ID:          tx.ID,
				Type:        string(tx.Type),
				Category:    tx.Category,
				AmountCents: tx.Amount.Cents,
				Date:        tx.Date.String(),
			}
		}
	}

	found, err := s.store.DeleteByID(ctx, id)
	if err != nil {
		return false, fmt.Errorf("delete transaction: %w", err)
	}
	if !found {
		return false, nil
	}

	if s.events != nil && deleted != nil {
		if err := s.events.PublishTransactionDelete(ctx, deleted); err != nil {
			slog.ErrorContext(ctx, "Failed to publish delete message",
				"id", id, "error", err)
		}
	}
	return true, nil
}

// ListAll returns the whole ledger, newest first.
func (s *LedgerService) ListAll(ctx context.Context) ([]core.Transaction, error) {
	txs, err := s.store.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return txs, nil
}

// MonthlyReport renders the PDF report for one period. Period validation
// happens before the store is queried.
func (s *LedgerService) MonthlyReport(ctx context.Context, year, month int) (*report.Document, error) {
	if err := core.ValidatePeriod(year, month); err != nil {
		return nil, err
	}

	txs, err := s.store.ListByPeriod(ctx, year, month)
	if err != nil {
		return nil, fmt.Errorf("list period transactions (year=%d, month=%d): %w", year, month, err)
	}

	doc, err := s.renderer.Render(year, month, txs, core.Aggregate(txs))
	if err != nil {
		return nil, fmt.Errorf("render report (year=%d, month=%d): %w", year, month, err)
	}

	slog.InfoContext(ctx, "Report rendered",
		"year", year, "month", month, "transactions", len(txs), "pages", doc.Pages)
	return doc, nil
}

// ChartData returns the income/expense snapshot for the month of the given
// "today". The clock is supplied by the caller so tests stay deterministic.
func (s *LedgerService) ChartData(ctx context.Context, today time.Time) (core.ChartSnapshot, error) {
	year, month := today.Year(), int(today.Month())

	incomes, err := s.store.ListByTypeAndMonth(ctx, core.Income, year, month)
	if err != nil {
		return core.ChartSnapshot{}, fmt.Errorf("list month incomes: %w", err)
	}
	expenses, err := s.store.ListByTypeAndMonth(ctx, core.Expense, year, month)
	if err != nil {
		return core.ChartSnapshot{}, fmt.Errorf("list month expenses: %w", err)
	}

	return core.ChartSnapshot{
		Year:    year,
		Month:   month,
		Income:  core.SumByType(incomes, core.Income),
		Expense: core.SumByType(expenses, core.Expense),
	}, nil
}
