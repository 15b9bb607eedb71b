package ports

import (
	"context"
	"errors"

	"fintrack/internal/core"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrDuplicateCategory = errors.New("category already exists")
)

// Ports for outbound persistence adapters. Every call is scoped to one user;
// records owned by somebody else behave as missing.
type (
	TransactionStore interface {
		CreateTransaction(ctx context.Context, userID string, t core.Transaction) (id string, err error)
		UpdateTransaction(ctx context.Context, userID string, t core.Transaction) error
		DeleteTransaction(ctx context.Context, userID, id string) error
		// LoadTransactions returns the user's transactions, most recent first.
		LoadTransactions(ctx context.Context, userID string) ([]core.Transaction, error)
	}

	BudgetStore interface {
		CreateBudget(ctx context.Context, userID string, b core.Budget) (id string, err error)
		UpdateBudget(ctx context.Context, userID string, b core.Budget) error
		DeleteBudget(ctx context.Context, userID, id string) error
		LoadBudgets(ctx context.Context, userID string) ([]core.Budget, error)
	}

	CategoryStore interface {
		CreateCategory(ctx context.Context, userID string, c core.Category) (id string, err error)
		LoadCategories(ctx context.Context, userID string) ([]core.Category, error)
	}

	// Repository is the full persistence collaborator a backend provides.
	Repository interface {
		TransactionStore
		BudgetStore
		CategoryStore
		Close() error
	}
)
