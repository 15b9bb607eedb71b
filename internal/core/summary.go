package core

import (
	"cmp"
	"slices"
)

// Summary aggregates a user's whole transaction set.
type Summary struct {
	TotalIncome        Money
	TotalExpenses      Money
	Balance            Money
	ExpensesByCategory map[string]Money
}

// CategoryAmount is one row of the expenses-by-category breakdown.
type CategoryAmount struct {
	Name   string
	Amount Money
	Share  float64 // percent of total expenses
}

// ComputeSummary reduces transactions to totals in a single pass.
// Records with an unknown type or a negative amount are ignored.
func ComputeSummary(transactions []Transaction) Summary {
	s := Summary{ExpensesByCategory: make(map[string]Money)}
	for _, t := range transactions {
		if t.Amount.Cents < 0 {
			continue
		}
		switch t.Type {
		case Income:
			s.TotalIncome = s.TotalIncome.Add(t.Amount)
		case Expense:
			s.TotalExpenses = s.TotalExpenses.Add(t.Amount)
			key := t.Category
			if key == "" {
				key = UncategorizedKey
			}
			s.ExpensesByCategory[key] = s.ExpensesByCategory[key].Add(t.Amount)
		}
	}
	s.Balance = s.TotalIncome.Sub(s.TotalExpenses)
	return s
}

// SortedCategories returns the breakdown by amount descending, ties by name.
func (s Summary) SortedCategories() []CategoryAmount {
	out := make([]CategoryAmount, 0, len(s.ExpensesByCategory))
	for name, amount := range s.ExpensesByCategory {
		row := CategoryAmount{Name: name, Amount: amount}
		if s.TotalExpenses.Cents > 0 {
			row.Share = float64(amount.Cents) * 100 / float64(s.TotalExpenses.Cents)
		}
		out = append(out, row)
	}
	slices.SortFunc(out, func(a, b CategoryAmount) int {
		if c := cmp.Compare(b.Amount.Cents, a.Amount.Cents); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})
	return out
}

// RecentTransactions returns up to n transactions, most recent first.
// The input slice is left untouched.
func RecentTransactions(transactions []Transaction, n int) []Transaction {
	if n <= 0 {
		return nil
	}
	out := slices.Clone(transactions)
	slices.SortStableFunc(out, func(a, b Transaction) int {
		return b.Date.Compare(a.Date)
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}
