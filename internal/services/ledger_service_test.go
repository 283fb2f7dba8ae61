package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"finanzas/internal/amqp"
	"finanzas/internal/core"
	"finanzas/internal/ledger"
	"finanzas/internal/ledger/memory"
)

type recordingPublisher struct {
	syncs   []int64
	deletes []*amqp.TransactionDeleteMessage
	fail    bool
}

func (p *recordingPublisher) PublishTransactionSync(_ context.Context, id, _ int64) error {
	if p.fail {
		return errors.New("broker down")
	}
	p.syncs = append(p.syncs, id)
	return nil
}

func (p *recordingPublisher) PublishTransactionDelete(_ context.Context, msg *amqp.TransactionDeleteMessage) error {
	if p.fail {
		return errors.New("broker down")
	}
	p.deletes = append(p.deletes, msg)
	return nil
}

// untouchableStore fails the test if any method is reached.
type untouchableStore struct{ t *testing.T }

func (s untouchableStore) Insert(context.Context, core.Transaction) (core.Transaction, error) {
	s.t.Fatal("store touched")
	return core.Transaction{}, nil
}
func (s untouchableStore) DeleteByID(context.Context, int64) (bool, error) {
	s.t.Fatal("store touched")
	return false, nil
}
func (s untouchableStore) ListAll(context.Context) ([]core.Transaction, error) {
	s.t.Fatal("store touched")
	return nil, nil
}
func (s untouchableStore) ListByPeriod(context.Context, int, int) ([]core.Transaction, error) {
	s.t.Fatal("store touched")
	return nil, nil
}
func (s untouchableStore) ListByTypeAndMonth(context.Context, core.TransactionType, int, int) ([]core.Transaction, error) {
	s.t.Fatal("store touched")
	return nil, nil
}

var _ ledger.Store = untouchableStore{}

func tx(t core.TransactionType, cat string, cents int64, y, m, d int) core.Transaction {
	return core.Transaction{
		Type:     t,
		Category: cat,
		Amount:   core.Money{Cents: cents},
		Date:     core.NewDate(y, m, d),
	}
}

func TestCreatePublishesSync(t *testing.T) {
	pub := &recordingPublisher{}
	svc := NewLedgerService(memory.New(), pub, false)

	saved, err := svc.Create(context.Background(), tx(core.Income, "salary", 100000, 2024, 5, 1))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if len(pub.syncs) != 1 || pub.syncs[0] != saved.ID {
		t.Fatalf("expected sync for id %d, got %v", saved.ID, pub.syncs)
	}
}

func TestCreateSurvivesPublishFailure(t *testing.T) {
	svc := NewLedgerService(memory.New(), &recordingPublisher{fail: true}, false)
	if _, err := svc.Create(context.Background(), tx(core.Income, "salary", 100, 2024, 5, 1)); err != nil {
		t.Fatalf("publish failure must not fail the create: %v", err)
	}
}

func TestCreateRejectsInvalidAmountSign(t *testing.T) {
	store := memory.New()
	svc := NewLedgerService(store, nil, false)

	if _, err := svc.Create(context.Background(), tx(core.Expense, "refund", -500, 2024, 5, 1)); !errors.Is(err, core.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
	all, _ := store.ListAll(context.Background())
	if len(all) != 0 {
		t.Fatalf("no record should be created")
	}

	// Negative amounts are a configurable rule
	relaxed := NewLedgerService(store, nil, true)
	if _, err := relaxed.Create(context.Background(), tx(core.Expense, "refund", -500, 2024, 5, 1)); err != nil {
		t.Fatalf("relaxed policy should accept negatives: %v", err)
	}
}

func TestCreateAcceptsZeroAmount(t *testing.T) {
	svc := NewLedgerService(memory.New(), nil, false)
	if _, err := svc.Create(context.Background(), tx(core.Expense, "freebie", 0, 2024, 5, 1)); err != nil {
		t.Fatalf("zero amount is valid: %v", err)
	}
}

func TestDeleteNotFound(t *testing.T) {
	pub := &recordingPublisher{}
	svc := NewLedgerService(memory.New(), pub, false)

	found, err := svc.Delete(context.Background(), 9999)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if found {
		t.Fatalf("expected not found")
	}
	if len(pub.deletes) != 0 {
		t.Fatalf("no delete event for a missing record")
	}
}

func TestMonthlyReportScenario(t *testing.T) {
	svc := NewLedgerService(memory.New(), nil, false)
	ctx := context.Background()
	if _, err := svc.Create(ctx, tx(core.Income, "salary", 100000, 2024, 5, 1)); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Create(ctx, tx(core.Expense, "rent", 40000, 2024, 5, 3)); err != nil {
		t.Fatalf("create: %v", err)
	}

	doc, err := svc.MonthlyReport(ctx, 2024, 5)
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if doc.Filename != "report_5_2024.pdf" || doc.Pages != 1 || len(doc.Bytes) == 0 {
		t.Fatalf("unexpected document: %s pages=%d bytes=%d", doc.Filename, doc.Pages, len(doc.Bytes))
	}
}

func TestMonthlyReportEmptyLedger(t *testing.T) {
	svc := NewLedgerService(memory.New(), nil, false)
	doc, err := svc.MonthlyReport(context.Background(), 2023, 1)
	if err != nil {
		t.Fatalf("empty month is not an error: %v", err)
	}
	if len(doc.Bytes) == 0 {
		t.Fatalf("expected a document with zero itemized lines")
	}
}

func TestMonthlyReportValidatesBeforeStore(t *testing.T) {
	svc := NewLedgerService(untouchableStore{t: t}, nil, false)
	if _, err := svc.MonthlyReport(context.Background(), 2024, 13); !errors.Is(err, core.ErrInvalidMonth) {
		t.Fatalf("expected ErrInvalidMonth, got %v", err)
	}
	if _, err := svc.MonthlyReport(context.Background(), 0, 5); !errors.Is(err, core.ErrInvalidYear) {
		t.Fatalf("expected ErrInvalidYear, got %v", err)
	}
}

func TestChartDataUsesSuppliedToday(t *testing.T) {
	svc := NewLedgerService(memory.New(), nil, false)
	ctx := context.Background()
	if _, err := svc.Create(ctx, tx(core.Income, "salary", 100000, 2024, 5, 1)); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Create(ctx, tx(core.Expense, "rent", 40000, 2024, 5, 3)); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Create(ctx, tx(core.Expense, "old", 999, 2024, 4, 3)); err != nil {
		t.Fatalf("create: %v", err)
	}

	today := time.Date(2024, 5, 15, 10, 0, 0, 0, time.UTC)
	snap, err := svc.ChartData(ctx, today)
	if err != nil {
		t.Fatalf("chart: %v", err)
	}
	if snap.Income.Cents != 100000 || snap.Expense.Cents != 40000 {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}

	elsewhere, err := svc.ChartData(ctx, time.Date(2023, 2, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("chart: %v", err)
	}
	if elsewhere.Income.Cents != 0 || elsewhere.Expense.Cents != 0 {
		t.Fatalf("expected zero snapshot, got %+v", elsewhere)
	}
}
