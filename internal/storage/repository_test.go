package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"finanzas/internal/core"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("open repo: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func tx(t core.TransactionType, cat string, cents int64, y, m, d int) core.Transaction {
	return core.Transaction{
		Type:     t,
		Category: cat,
		Amount:   core.Money{Cents: cents},
		Date:     core.NewDate(y, m, d),
	}
}

func TestInsertAndGet(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	in, err := repo.Insert(ctx, tx(core.Income, "salary", 100000, 2024, 5, 1))
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if in.ID == 0 {
		t.Fatalf("id not assigned")
	}

	got, err := repo.GetByID(ctx, in.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Type != core.Income || got.Category != "salary" ||
		got.Amount.Cents != 100000 || got.Date.String() != "2024-05-01" {
		t.Fatalf("round trip mismatch: %+v", got)
	}
}

func TestInsertRejectsInvalidType(t *testing.T) {
	repo := newTestRepo(t)
	if _, err := repo.Insert(context.Background(), tx("transfer", "x", 1, 2024, 5, 1)); !errors.Is(err, core.ErrInvalidType) {
		t.Fatalf("expected ErrInvalidType, got %v", err)
	}
	all, err := repo.ListAll(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 0 {
		t.Fatalf("no record should be created, got %d", len(all))
	}
}

func TestGetByIDNotFound(t *testing.T) {
	repo := newTestRepo(t)
	if _, err := repo.GetByID(context.Background(), 9999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListAllOrdering(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	for _, d := range [][3]int{{2024, 5, 1}, {2024, 5, 20}, {2024, 4, 30}, {2024, 5, 20}} {
		if _, err := repo.Insert(ctx, tx(core.Expense, "daily", 100, d[0], d[1], d[2])); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	all, err := repo.ListAll(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	want := []string{"2024-05-20", "2024-05-20", "2024-05-01", "2024-04-30"}
	for i, tx := range all {
		if tx.Date.String() != want[i] {
			t.Fatalf("position %d: got %s want %s", i, tx.Date.String(), want[i])
		}
	}
	// Same-date rows tie-break on id descending
	if all[0].ID < all[1].ID {
		t.Fatalf("tie-break not id descending: %d before %d", all[0].ID, all[1].ID)
	}
}

func TestListByPeriod(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	for _, x := range []core.Transaction{
		tx(core.Income, "salary", 100000, 2024, 5, 1),
		tx(core.Expense, "rent", 40000, 2024, 5, 3),
		tx(core.Expense, "rent", 40000, 2024, 6, 3),
		tx(core.Income, "bonus", 5000, 2023, 12, 31),
	} {
		if _, err := repo.Insert(ctx, x); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	got, err := repo.ListByPeriod(ctx, 2024, 5)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(got))
	}
	totals := core.Aggregate(got)
	if totals.IncomeCents != 100000 || totals.ExpenseCents != 40000 || totals.Net().Cents != 60000 {
		t.Fatalf("unexpected totals: %+v", totals)
	}

	// December query must honor the year rollover in the upper bound
	dec, err := repo.ListByPeriod(ctx, 2023, 12)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(dec) != 1 || dec[0].Category != "bonus" {
		t.Fatalf("unexpected december rows: %+v", dec)
	}
}

func TestListByTypeAndMonth(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	for _, x := range []core.Transaction{
		tx(core.Income, "salary", 100000, 2024, 5, 1),
		tx(core.Expense, "rent", 40000, 2024, 5, 3),
		tx(core.Income, "bonus", 5000, 2024, 4, 28),
	} {
		if _, err := repo.Insert(ctx, x); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	incomes, err := repo.ListByTypeAndMonth(ctx, core.Income, 2024, 5)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(incomes) != 1 || incomes[0].Category != "salary" {
		t.Fatalf("unexpected rows: %+v", incomes)
	}
}

func TestDeleteByID(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	in, err := repo.Insert(ctx, tx(core.Expense, "rent", 40000, 2024, 5, 3))
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	found, err := repo.DeleteByID(ctx, in.ID)
	if err != nil || !found {
		t.Fatalf("first delete: found=%v err=%v", found, err)
	}
	found, err = repo.DeleteByID(ctx, in.ID)
	if err != nil || found {
		t.Fatalf("second delete: found=%v err=%v", found, err)
	}
}

func TestSyncBookkeeping(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	a, _ := repo.Insert(ctx, tx(core.Income, "salary", 100, 2024, 5, 1))
	b, _ := repo.Insert(ctx, tx(core.Expense, "rent", 200, 2024, 5, 2))

	pending, err := repo.ListPendingSync(ctx, 10)
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if len(pending) != 2 || pending[0].ID != a.ID {
		t.Fatalf("unexpected pending set: %+v", pending)
	}

	if err := repo.MarkSynced(ctx, a.ID); err != nil {
		t.Fatalf("mark synced: %v", err)
	}
	if err := repo.MarkSyncError(ctx, b.ID); err != nil {
		t.Fatalf("mark sync error: %v", err)
	}

	pending, err = repo.ListPendingSync(ctx, 10)
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	// Errored rows stay pending for retry; synced ones drop out
	if len(pending) != 1 || pending[0].ID != b.ID {
		t.Fatalf("unexpected pending set after marks: %+v", pending)
	}
}
