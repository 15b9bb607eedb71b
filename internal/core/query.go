package core

import (
	"cmp"
	"slices"
	"strings"
)

const (
	SortDateDesc   SortOrder = "date-desc"
	SortDateAsc    SortOrder = "date-asc"
	SortAmountDesc SortOrder = "amount-desc"
	SortAmountAsc  SortOrder = "amount-asc"
)

type SortOrder string

// Query narrows and orders a transaction list.
// An empty Type matches both incomes and expenses.
type Query struct {
	Type   TransactionType
	Search string
	Sort   SortOrder
}

// FilterTransactions applies q to a copy of transactions.
// Search is a case-insensitive substring match on title, category and notes.
// Unknown sort orders fall back to date-desc.
func FilterTransactions(transactions []Transaction, q Query) []Transaction {
	term := strings.ToLower(strings.TrimSpace(q.Search))
	out := make([]Transaction, 0, len(transactions))
	for _, t := range transactions {
		if q.Type != "" && t.Type != q.Type {
			continue
		}
		if term != "" && !matches(t, term) {
			continue
		}
		out = append(out, t)
	}

	slices.SortStableFunc(out, func(a, b Transaction) int {
		switch q.Sort {
		case SortDateAsc:
			return a.Date.Compare(b.Date)
		case SortAmountDesc:
			return cmp.Compare(b.Amount.Cents, a.Amount.Cents)
		case SortAmountAsc:
			return cmp.Compare(a.Amount.Cents, b.Amount.Cents)
		default:
			return b.Date.Compare(a.Date)
		}
	})
	return out
}

func matches(t Transaction, term string) bool {
	return strings.Contains(strings.ToLower(t.Title), term) ||
		strings.Contains(strings.ToLower(t.Category), term) ||
		strings.Contains(strings.ToLower(t.Notes), term)
}
