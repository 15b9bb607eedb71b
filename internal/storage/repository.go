package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"fintrack/internal/core"
	"fintrack/internal/ports"

	_ "modernc.org/sqlite"
)

// timeLayout is fixed width and always UTC so that text ordering in SQL
// matches chronological ordering.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

var _ ports.Repository = (*SQLiteRepository)(nil)

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
	now     func() time.Time
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
		now:     time.Now,
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable; used by readiness checks.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLiteRepository) CreateTransaction(ctx context.Context, userID string, t core.Transaction) (string, error) {
	t.Normalize()
	if err := t.Validate(); err != nil {
		return "", err
	}
	now := formatTime(r.now())
	row := transactionRow(t)
	row.ID = uuid.NewString()
	row.UserID = userID
	row.CreatedAt, row.UpdatedAt = now, now

	if err := r.queries.CreateTransaction(ctx, row); err != nil {
		return "", fmt.Errorf("create transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved to SQLite",
		"id", row.ID,
		"type", row.Type,
		"category", row.Category,
		"amount_cents", row.AmountCents)

	return row.ID, nil
}

func (r *SQLiteRepository) UpdateTransaction(ctx context.Context, userID string, t core.Transaction) error {
	t.Normalize()
	if err := t.Validate(); err != nil {
		return err
	}
	row := transactionRow(t)
	row.UserID = userID
	row.UpdatedAt = formatTime(r.now())

	n, err := r.queries.UpdateTransaction(ctx, row)
	if err != nil {
		return fmt.Errorf("update transaction %s: %w", t.ID, err)
	}
	if n == 0 {
		return ports.ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, userID, id string) error {
	n, err := r.queries.DeleteTransaction(ctx, id, userID)
	if err != nil {
		return fmt.Errorf("delete transaction %s: %w", id, err)
	}
	if n == 0 {
		return ports.ErrNotFound
	}
	slog.InfoContext(ctx, "Transaction deleted from SQLite", "id", id)
	return nil
}

func (r *SQLiteRepository) LoadTransactions(ctx context.Context, userID string) ([]core.Transaction, error) {
	rows, err := r.queries.ListTransactions(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	out := make([]core.Transaction, 0, len(rows))
	for _, row := range rows {
		out = append(out, core.Transaction{
			ID:        row.ID,
			UserID:    row.UserID,
			Title:     row.Title,
			Amount:    core.Money{Cents: row.AmountCents},
			Date:      parseTime(row.OccurredAt),
			Category:  row.Category,
			Type:      core.TransactionType(row.Type),
			Notes:     row.Notes,
			CreatedAt: parseTime(row.CreatedAt),
			UpdatedAt: parseTime(row.UpdatedAt),
		})
	}
	return out, nil
}

func (r *SQLiteRepository) CreateBudget(ctx context.Context, userID string, b core.Budget) (string, error) {
	b.Normalize()
	if err := b.Validate(); err != nil {
		return "", err
	}
	now := formatTime(r.now())
	row := Budget{
		ID:          uuid.NewString(),
		UserID:      userID,
		Category:    b.Category,
		AmountCents: b.Amount.Cents,
		Period:      string(b.Period),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := r.queries.CreateBudget(ctx, row); err != nil {
		return "", fmt.Errorf("create budget: %w", err)
	}
	slog.InfoContext(ctx, "Budget saved to SQLite", "id", row.ID, "category", row.Category, "period", row.Period)
	return row.ID, nil
}

func (r *SQLiteRepository) UpdateBudget(ctx context.Context, userID string, b core.Budget) error {
	b.Normalize()
	if err := b.Validate(); err != nil {
		return err
	}
	n, err := r.queries.UpdateBudget(ctx, Budget{
		ID:          b.ID,
		UserID:      userID,
		Category:    b.Category,
		AmountCents: b.Amount.Cents,
		Period:      string(b.Period),
		UpdatedAt:   formatTime(r.now()),
	})
	if err != nil {
		return fmt.Errorf("update budget %s: %w", b.ID, err)
	}
	if n == 0 {
		return ports.ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) DeleteBudget(ctx context.Context, userID, id string) error {
	n, err := r.queries.DeleteBudget(ctx, id, userID)
	if err != nil {
		return fmt.Errorf("delete budget %s: %w", id, err)
	}
	if n == 0 {
		return ports.ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) LoadBudgets(ctx context.Context, userID string) ([]core.Budget, error) {
	rows, err := r.queries.ListBudgets(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	out := make([]core.Budget, 0, len(rows))
	for _, row := range rows {
		out = append(out, core.Budget{
			ID:        row.ID,
			UserID:    row.UserID,
			Category:  row.Category,
			Amount:    core.Money{Cents: row.AmountCents},
			Period:    core.Period(row.Period),
			CreatedAt: parseTime(row.CreatedAt),
			UpdatedAt: parseTime(row.UpdatedAt),
		})
	}
	return out, nil
}

func (r *SQLiteRepository) CreateCategory(ctx context.Context, userID string, c core.Category) (string, error) {
	c.Name = strings.TrimSpace(c.Name)
	if err := c.Validate(); err != nil {
		return "", err
	}
	n, err := r.queries.CountCategoryByName(ctx, userID, c.Name)
	if err != nil {
		return "", fmt.Errorf("check category: %w", err)
	}
	if n > 0 {
		return "", ports.ErrDuplicateCategory
	}
	id := uuid.NewString()
	if err := r.queries.CreateCategory(ctx, Category{ID: id, UserID: userID, Name: c.Name, Type: string(c.Type)}); err != nil {
		if isUniqueViolation(err) {
			return "", ports.ErrDuplicateCategory
		}
		return "", fmt.Errorf("create category: %w", err)
	}
	return id, nil
}

// LoadCategories falls back to the default set for users without categories.
func (r *SQLiteRepository) LoadCategories(ctx context.Context, userID string) ([]core.Category, error) {
	rows, err := r.queries.ListCategories(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	if len(rows) == 0 {
		return core.DefaultCategorySet(), nil
	}
	out := make([]core.Category, 0, len(rows))
	for _, row := range rows {
		out = append(out, core.Category{ID: row.ID, UserID: row.UserID, Name: row.Name, Type: core.TransactionType(row.Type)})
	}
	return out, nil
}

func transactionRow(t core.Transaction) Transaction {
	return Transaction{
		ID:          t.ID,
		Title:       t.Title,
		AmountCents: t.Amount.Cents,
		OccurredAt:  formatTime(t.Date),
		Category:    t.Category,
		Type:        string(t.Type),
		Notes:       t.Notes,
	}
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// parseTime yields the zero time for unreadable values; aggregation skips those.
func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func isUniqueViolation(err error) bool {
	var target interface{ Code() int }
	if errors.As(err, &target) {
		// SQLITE_CONSTRAINT_UNIQUE
		return target.Code() == 2067
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
