package core

import "testing"

func TestAggregateEmpty(t *testing.T) {
	totals := Aggregate(nil)
	if totals.IncomeCents != 0 || totals.ExpenseCents != 0 || totals.Net().Cents != 0 {
		t.Fatalf("empty input should yield zero totals, got %+v", totals)
	}
}

func TestAggregate(t *testing.T) {
	txs := []Transaction{
		{Type: Income, Category: "salary", Amount: Money{Cents: 100000}, Date: NewDate(2024, 5, 1)},
		{Type: Expense, Category: "rent", Amount: Money{Cents: 40000}, Date: NewDate(2024, 5, 3)},
	}
	totals := Aggregate(txs)
	if totals.IncomeCents != 100000 {
		t.Fatalf("income = %d", totals.IncomeCents)
	}
	if totals.ExpenseCents != 40000 {
		t.Fatalf("expense = %d", totals.ExpenseCents)
	}
	if totals.Net().Cents != 60000 {
		t.Fatalf("net = %d", totals.Net().Cents)
	}
}

func TestAggregateNetIdentity(t *testing.T) {
	sets := [][]Transaction{
		nil,
		{{Type: Income, Amount: Money{Cents: 1}}},
		{{Type: Expense, Amount: Money{Cents: 999999}}},
		{
			{Type: Income, Amount: Money{Cents: 333}},
			{Type: Expense, Amount: Money{Cents: 111}},
			{Type: Income, Amount: Money{Cents: 5}},
		},
	}
	for i, txs := range sets {
		totals := Aggregate(txs)
		if totals.Net().Cents != totals.IncomeCents-totals.ExpenseCents {
			t.Fatalf("set %d: net identity broken: %+v", i, totals)
		}
	}
}

func TestAggregateExcludesUnknownTypes(t *testing.T) {
	txs := []Transaction{
		{Type: Income, Amount: Money{Cents: 500}},
		{Type: "transfer", Amount: Money{Cents: 700}}, // legacy bad data
		{Type: Expense, Amount: Money{Cents: 200}},
	}
	totals := Aggregate(txs)
	if totals.IncomeCents != 500 || totals.ExpenseCents != 200 {
		t.Fatalf("unknown type leaked into totals: %+v", totals)
	}
}

func TestSumByType(t *testing.T) {
	txs := []Transaction{
		{Type: Income, Amount: Money{Cents: 100}},
		{Type: Income, Amount: Money{Cents: 250}},
		{Type: Expense, Amount: Money{Cents: 75}},
	}
	if got := SumByType(txs, Income).Cents; got != 350 {
		t.Fatalf("income sum = %d", got)
	}
	if got := SumByType(txs, Expense).Cents; got != 75 {
		t.Fatalf("expense sum = %d", got)
	}
	if got := SumByType(nil, Income).Cents; got != 0 {
		t.Fatalf("empty sum = %d", got)
	}
}
