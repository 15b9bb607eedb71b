package services

import (
	"context"
	"fmt"
	"log/slog"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/ports"
)

// EventPublisher announces transaction changes to downstream consumers.
type EventPublisher interface {
	PublishTransactionEvent(ctx context.Context, event amqp.TransactionEvent) error
	Close() error
}

// LedgerService orchestrates record changes across the repository and AMQP.
// Publishing is best effort: the repository is the source of truth.
type LedgerService struct {
	repo      ports.Repository
	publisher EventPublisher
}

// NewLedgerService accepts a nil publisher when messaging is disabled.
func NewLedgerService(repo ports.Repository, publisher EventPublisher) *LedgerService {
	return &LedgerService{repo: repo, publisher: publisher}
}

func (s *LedgerService) CreateTransaction(ctx context.Context, userID string, t core.Transaction) (core.Transaction, error) {
	t.Normalize()
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	id, err := s.repo.CreateTransaction(ctx, userID, t)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("save transaction: %w", err)
	}
	t.ID = id
	t.UserID = userID

	slog.InfoContext(ctx, "Transaction created", "id", id, "type", t.Type, "category", t.Category)
	s.publish(ctx, amqp.ActionCreated, userID, t)
	return t, nil
}

func (s *LedgerService) UpdateTransaction(ctx context.Context, userID string, t core.Transaction) (core.Transaction, error) {
	t.Normalize()
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	if err := s.repo.UpdateTransaction(ctx, userID, t); err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction: %w", err)
	}
	t.UserID = userID
	s.publish(ctx, amqp.ActionUpdated, userID, t)
	return t, nil
}

// DeleteTransaction removes the record and announces it with the category
// and type it had, so consumers can still attribute the deletion.
func (s *LedgerService) DeleteTransaction(ctx context.Context, userID, id string) error {
	deleted := core.Transaction{ID: id}
	if s.publisher != nil {
		found, err := s.findTransaction(ctx, userID, id)
		if err != nil {
			return err
		}
		deleted = found
	}
	if err := s.repo.DeleteTransaction(ctx, userID, id); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	s.publish(ctx, amqp.ActionDeleted, userID, deleted)
	return nil
}

func (s *LedgerService) findTransaction(ctx context.Context, userID, id string) (core.Transaction, error) {
	txs, err := s.repo.LoadTransactions(ctx, userID)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("load transactions: %w", err)
	}
	for _, t := range txs {
		if t.ID == id {
			return t, nil
		}
	}
	return core.Transaction{}, fmt.Errorf("delete transaction: %w", ports.ErrNotFound)
}

// ListTransactions loads the user's transactions and applies q.
func (s *LedgerService) ListTransactions(ctx context.Context, userID string, q core.Query) ([]core.Transaction, error) {
	txs, err := s.repo.LoadTransactions(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load transactions: %w", err)
	}
	return core.FilterTransactions(txs, q), nil
}

func (s *LedgerService) CreateBudget(ctx context.Context, userID string, b core.Budget) (core.Budget, error) {
	b.Normalize()
	if err := b.Validate(); err != nil {
		return core.Budget{}, err
	}
	id, err := s.repo.CreateBudget(ctx, userID, b)
	if err != nil {
		return core.Budget{}, fmt.Errorf("save budget: %w", err)
	}
	b.ID = id
	b.UserID = userID
	slog.InfoContext(ctx, "Budget created", "id", id, "category", b.Category, "period", b.Period)
	return b, nil
}

func (s *LedgerService) UpdateBudget(ctx context.Context, userID string, b core.Budget) (core.Budget, error) {
	b.Normalize()
	if err := b.Validate(); err != nil {
		return core.Budget{}, err
	}
	if err := s.repo.UpdateBudget(ctx, userID, b); err != nil {
		return core.Budget{}, fmt.Errorf("update budget: %w", err)
	}
	b.UserID = userID
	return b, nil
}

func (s *LedgerService) DeleteBudget(ctx context.Context, userID, id string) error {
	if err := s.repo.DeleteBudget(ctx, userID, id); err != nil {
		return fmt.Errorf("delete budget: %w", err)
	}
	return nil
}

func (s *LedgerService) CreateCategory(ctx context.Context, userID string, c core.Category) (core.Category, error) {
	if c.Type == "" {
		c.Type = core.Expense
	}
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}
	id, err := s.repo.CreateCategory(ctx, userID, c)
	if err != nil {
		return core.Category{}, fmt.Errorf("save category: %w", err)
	}
	c.ID = id
	c.UserID = userID
	return c, nil
}

func (s *LedgerService) ListCategories(ctx context.Context, userID string) ([]core.Category, error) {
	cats, err := s.repo.LoadCategories(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load categories: %w", err)
	}
	return cats, nil
}

func (s *LedgerService) publish(ctx context.Context, action amqp.Action, userID string, t core.Transaction) {
	if s.publisher == nil {
		slog.DebugContext(ctx, "AMQP publisher not available, skipping transaction event")
		return
	}
	event := amqp.NewTransactionEvent(action, userID, t.ID, t.Category, string(t.Type))
	if err := s.publisher.PublishTransactionEvent(ctx, *event); err != nil {
		slog.ErrorContext(ctx, "Failed to publish transaction event",
			"action", action,
			"id", t.ID,
			"error", err)
	}
}

// Close closes both storage and AMQP connections
func (s *LedgerService) Close() error {
	var errs []error

	if s.repo != nil {
		if err := s.repo.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}

	if s.publisher != nil {
		if err := s.publisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close ledger service: %v", errs)
	}

	return nil
}
