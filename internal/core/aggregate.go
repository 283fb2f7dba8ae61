package core

// Totals is the result of reducing a transaction set: total income, total
// expense and their difference.
type Totals struct {
	IncomeCents  int64
	ExpenseCents int64
}

// Net returns income minus expense. Exact: all arithmetic is in cents.
func (t Totals) Net() Money {
	return Money{Cents: t.IncomeCents - t.ExpenseCents}
}

// Income returns the income total as Money.
func (t Totals) Income() Money {
	return Money{Cents: t.IncomeCents}
}

// Expense returns the expense total as Money.
func (t Totals) Expense() Money {
	return Money{Cents: t.ExpenseCents}
}

// Aggregate reduces a transaction set into totals. Empty input yields zero
// totals. Records with an unknown type are excluded from both sums so a
// report never halts on historical bad data; insert-time validation keeps
// new records clean.
func Aggregate(txs []Transaction) Totals {
	var totals Totals
	for _, tx := range txs {
		switch tx.Type {
		case Income:
			totals.IncomeCents += tx.Amount.Cents
		case Expense:
			totals.ExpenseCents += tx.Amount.Cents
		}
	}
	return totals
}

// SumByType adds up the amounts of entries matching the given type. Used by
// the chart feed, which queries income and expense sets separately.
func SumByType(txs []Transaction, t TransactionType) Money {
	var cents int64
	for _, tx := range txs {
		if tx.Type == t {
			cents += tx.Amount.Cents
		}
	}
	return Money{Cents: cents}
}

// ChartSnapshot is the compact current-month summary consumed by the
// visualization client.
type ChartSnapshot struct {
	Year    int
	Month   int
	Income  Money
	Expense Money
}
