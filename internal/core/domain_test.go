package core

import (
	"errors"
	"testing"
	"time"
)

func TestTransactionValidate(t *testing.T) {
	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	good := Transaction{
		Title:    "Groceries",
		Amount:   Money{Cents: 5000},
		Date:     day,
		Category: "Food",
		Type:     Expense,
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	zero := good
	zero.Amount = Money{}
	if err := zero.Validate(); err != nil {
		t.Fatalf("zero amount should be accepted, got %v", err)
	}

	bads := []struct {
		name string
		tx   Transaction
		want error
	}{
		{"empty title", Transaction{Title: " ", Amount: Money{Cents: 1}, Date: day, Type: Expense}, ErrEmptyTitle},
		{"negative amount", Transaction{Title: "a", Amount: Money{Cents: -1}, Date: day, Type: Expense}, ErrInvalidAmount},
		{"missing date", Transaction{Title: "a", Amount: Money{Cents: 1}, Type: Expense}, ErrMissingDate},
		{"bad type", Transaction{Title: "a", Amount: Money{Cents: 1}, Date: day, Type: "transfer"}, ErrInvalidType},
	}
	for _, tc := range bads {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.tx.Validate(); !errors.Is(err, tc.want) {
				t.Fatalf("Validate() = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestTransactionNormalize(t *testing.T) {
	tx := Transaction{Title: "  Coffee ", Notes: " hot "}
	tx.Normalize()
	if tx.Title != "Coffee" || tx.Notes != "hot" {
		t.Fatalf("fields not trimmed: %+v", tx)
	}
	if tx.Category != DefaultCategory {
		t.Fatalf("Category = %q, want %q", tx.Category, DefaultCategory)
	}
	if tx.Type != Expense {
		t.Fatalf("Type = %q, want expense", tx.Type)
	}
}

func TestBudgetValidate(t *testing.T) {
	b := Budget{Category: "Food", Amount: Money{Cents: 20000}}
	b.Normalize()
	if b.Period != Monthly {
		t.Fatalf("default period = %q, want monthly", b.Period)
	}
	if err := b.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bad := b
	bad.Period = "daily"
	if err := bad.Validate(); !errors.Is(err, ErrInvalidPeriod) {
		t.Fatalf("expected ErrInvalidPeriod, got %v", err)
	}
	bad = b
	bad.Amount = Money{}
	if err := bad.Validate(); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
	bad = b
	bad.Category = ""
	if err := bad.Validate(); !errors.Is(err, ErrEmptyCategory) {
		t.Fatalf("expected ErrEmptyCategory, got %v", err)
	}
}

func TestParseTransactionType(t *testing.T) {
	if got, err := ParseTransactionType(" Income "); err != nil || got != Income {
		t.Fatalf("got %q, %v", got, err)
	}
	if _, err := ParseTransactionType("refund"); !errors.Is(err, ErrInvalidType) {
		t.Fatalf("expected ErrInvalidType, got %v", err)
	}
}

func TestDefaultCategorySet(t *testing.T) {
	set := DefaultCategorySet()
	if len(set) != len(DefaultCategories) {
		t.Fatalf("len = %d, want %d", len(set), len(DefaultCategories))
	}
	types := map[string]TransactionType{}
	for _, c := range set {
		if err := c.Validate(); err != nil {
			t.Fatalf("category %q invalid: %v", c.Name, err)
		}
		types[c.Name] = c.Type
	}
	if types["Salary"] != Income || types["Food"] != Expense {
		t.Fatalf("unexpected types %v", types)
	}
}
