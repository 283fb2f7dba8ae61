package memory

import (
	"context"
	"testing"

	"finanzas/internal/core"
)

func tx(t core.TransactionType, cat string, cents int64, y, m, d int) core.Transaction {
	return core.Transaction{
		Type:     t,
		Category: cat,
		Amount:   core.Money{Cents: cents},
		Date:     core.NewDate(y, m, d),
	}
}

func TestInsertAssignsUniqueIDs(t *testing.T) {
	s := New()
	ctx := context.Background()
	seen := map[int64]bool{}
	for i := 0; i < 10; i++ {
		got, err := s.Insert(ctx, tx(core.Income, "salary", 100, 2024, 5, 1))
		if err != nil {
			t.Fatalf("insert %d: %v", i, err)
		}
		if got.ID == 0 || seen[got.ID] {
			t.Fatalf("insert %d: id %d not unique and fresh", i, got.ID)
		}
		seen[got.ID] = true
	}
}

func TestInsertRejectsInvalid(t *testing.T) {
	s := New()
	if _, err := s.Insert(context.Background(), tx("transfer", "x", 1, 2024, 5, 1)); err == nil {
		t.Fatalf("expected validation error")
	}
	all, _ := s.ListAll(context.Background())
	if len(all) != 0 {
		t.Fatalf("no record should be created, got %d", len(all))
	}
}

func TestListAllOrdering(t *testing.T) {
	s := New()
	ctx := context.Background()
	dates := [][3]int{{2024, 5, 1}, {2024, 5, 20}, {2024, 4, 30}, {2024, 5, 20}, {2023, 12, 31}}
	for _, d := range dates {
		if _, err := s.Insert(ctx, tx(core.Expense, "daily", 100, d[0], d[1], d[2])); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	all, err := s.ListAll(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != len(dates) {
		t.Fatalf("got %d items", len(all))
	}
	for i := 1; i < len(all); i++ {
		prev, cur := all[i-1], all[i]
		if cur.Date.After(prev.Date.Time) {
			t.Fatalf("dates not descending at %d", i)
		}
		if cur.Date.Equal(prev.Date.Time) && cur.ID > prev.ID {
			t.Fatalf("tie-break not id descending at %d", i)
		}
	}
}

func TestQueryByPeriodRoundTrip(t *testing.T) {
	s := New()
	ctx := context.Background()
	in, err := s.Insert(ctx, tx(core.Income, "salary", 100000, 2024, 5, 1))
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if _, err := s.Insert(ctx, tx(core.Expense, "rent", 40000, 2024, 6, 1)); err != nil {
		t.Fatalf("insert: %v", err)
	}

	got, err := s.ListByPeriod(ctx, 2024, 5)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(got) != 1 || got[0].ID != in.ID {
		t.Fatalf("expected exactly the inserted record, got %+v", got)
	}
}

func TestQueryByPeriodEmpty(t *testing.T) {
	s := New()
	got, err := s.ListByPeriod(context.Background(), 2023, 1)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty set, got %d", len(got))
	}
}

func TestListByTypeAndMonth(t *testing.T) {
	s := New()
	ctx := context.Background()
	for _, x := range []core.Transaction{
		tx(core.Income, "salary", 100000, 2024, 5, 1),
		tx(core.Expense, "rent", 40000, 2024, 5, 3),
		tx(core.Income, "bonus", 5000, 2024, 4, 28),
	} {
		if _, err := s.Insert(ctx, x); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	incomes, err := s.ListByTypeAndMonth(ctx, core.Income, 2024, 5)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(incomes) != 1 || incomes[0].Category != "salary" {
		t.Fatalf("unexpected result: %+v", incomes)
	}
}

func TestDeleteIdempotence(t *testing.T) {
	s := New()
	ctx := context.Background()
	in, err := s.Insert(ctx, tx(core.Expense, "rent", 40000, 2024, 5, 3))
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	found, err := s.DeleteByID(ctx, in.ID)
	if err != nil || !found {
		t.Fatalf("first delete: found=%v err=%v", found, err)
	}
	found, err = s.DeleteByID(ctx, in.ID)
	if err != nil || found {
		t.Fatalf("second delete: found=%v err=%v", found, err)
	}
}

func TestDeleteUnknownIDLeavesLedgerUnchanged(t *testing.T) {
	s := New()
	ctx := context.Background()
	if _, err := s.Insert(ctx, tx(core.Income, "salary", 100, 2024, 5, 1)); err != nil {
		t.Fatalf("insert: %v", err)
	}
	found, err := s.DeleteByID(ctx, 9999)
	if err != nil || found {
		t.Fatalf("expected not found, got found=%v err=%v", found, err)
	}
	all, _ := s.ListAll(ctx)
	if len(all) != 1 {
		t.Fatalf("ledger changed: %d items", len(all))
	}
}
