package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

const (
	// DefaultCategory is assigned to transactions saved without a category.
	DefaultCategory = "Other"
	// UncategorizedKey groups expenses with an empty category in summaries.
	UncategorizedKey = "Uncategorized"

	maxTitleLength = 200
)

// DefaultCategories is offered when a user has not defined any category yet.
var DefaultCategories = []string{
	"Food", "Transport", "Entertainment", "Shopping",
	"Bills", "Housing", "Health", "Education",
	"Salary", "Investment", "Gift", "Other",
}

type (
	TransactionType string

	Transaction struct {
		ID        string
		UserID    string
		Title     string
		Amount    Money
		Date      time.Time
		Category  string
		Type      TransactionType
		Notes     string
		CreatedAt time.Time
		UpdatedAt time.Time
	}

	Budget struct {
		ID        string
		UserID    string
		Category  string
		Amount    Money
		Period    Period
		CreatedAt time.Time
		UpdatedAt time.Time
	}

	Category struct {
		ID     string
		UserID string
		Name   string
		Type   TransactionType
	}
)

var (
	ErrEmptyTitle    = errors.New("empty title")
	ErrTitleTooLong  = fmt.Errorf("title too long (max %d characters)", maxTitleLength)
	ErrInvalidType   = errors.New("invalid transaction type")
	ErrMissingDate   = errors.New("missing date")
	ErrEmptyCategory = errors.New("empty category")
	ErrEmptyName     = errors.New("empty category name")
)

// ParseTransactionType accepts "income" or "expense" in any case.
func ParseTransactionType(s string) (TransactionType, error) {
	switch TransactionType(strings.ToLower(strings.TrimSpace(s))) {
	case Income:
		return Income, nil
	case Expense:
		return Expense, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidType, s)
	}
}

func (t TransactionType) Valid() bool {
	return t == Income || t == Expense
}

// Normalize fills defaults the same way for every backend.
func (t *Transaction) Normalize() {
	t.Title = strings.TrimSpace(t.Title)
	t.Category = strings.TrimSpace(t.Category)
	t.Notes = strings.TrimSpace(t.Notes)
	if t.Category == "" {
		t.Category = DefaultCategory
	}
	if t.Type == "" {
		t.Type = Expense
	}
}

func (t Transaction) Validate() error {
	if strings.TrimSpace(t.Title) == "" {
		return ErrEmptyTitle
	}
	if len(t.Title) > maxTitleLength {
		return ErrTitleTooLong
	}
	if t.Amount.Cents < 0 {
		return ErrInvalidAmount
	}
	if t.Date.IsZero() {
		return ErrMissingDate
	}
	if !t.Type.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidType, t.Type)
	}
	return nil
}

// Normalize applies the monthly default used by the budget form.
func (b *Budget) Normalize() {
	b.Category = strings.TrimSpace(b.Category)
	if b.Period == "" {
		b.Period = Monthly
	}
}

func (b Budget) Validate() error {
	if b.Category == "" {
		return ErrEmptyCategory
	}
	if err := b.Amount.Validate(); err != nil {
		return err
	}
	if !b.Period.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidPeriod, b.Period)
	}
	return nil
}

// DefaultCategorySet expands DefaultCategories into typed categories.
func DefaultCategorySet() []Category {
	out := make([]Category, 0, len(DefaultCategories))
	for _, name := range DefaultCategories {
		typ := Expense
		switch name {
		case "Salary", "Investment", "Gift":
			typ = Income
		}
		out = append(out, Category{Name: name, Type: typ})
	}
	return out
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	if !c.Type.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidType, c.Type)
	}
	return nil
}
