package services

import (
	"context"
	"fmt"
	"math"
	"time"

	"golang.org/x/sync/errgroup"

	"fintrack/internal/core"
	"fintrack/internal/ports"
)

// RecentLimit is the number of transactions shown on the dashboard.
const RecentLimit = 5

// Store is what BudgetService reads from.
type Store interface {
	ports.TransactionStore
	ports.BudgetStore
	ports.CategoryStore
}

// BudgetStatus pairs a budget with its usage. Err is set when the budget
// cannot be evaluated, e.g. a stored period that is no longer valid.
type BudgetStatus struct {
	Usage core.UsageSnapshot
	Err   error
}

type Dashboard struct {
	Summary    core.Summary
	ByCategory []core.CategoryAmount
	Budgets    []BudgetStatus
	Recent     []core.Transaction
	Categories []core.Category
}

// BudgetService derives read models from the user's records.
type BudgetService struct {
	store Store
}

func NewBudgetService(store Store) *BudgetService {
	return &BudgetService{store: store}
}

// Overview loads transactions, budgets and categories concurrently and
// computes the summary plus every budget's usage at now.
func (s *BudgetService) Overview(ctx context.Context, userID string, now time.Time) (Dashboard, error) {
	var (
		txs     []core.Transaction
		budgets []core.Budget
		cats    []core.Category
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		txs, err = s.store.LoadTransactions(gctx, userID)
		if err != nil {
			return fmt.Errorf("load transactions: %w", err)
		}
		return nil
	})
	g.Go(func() (err error) {
		budgets, err = s.store.LoadBudgets(gctx, userID)
		if err != nil {
			return fmt.Errorf("load budgets: %w", err)
		}
		return nil
	})
	g.Go(func() (err error) {
		cats, err = s.store.LoadCategories(gctx, userID)
		if err != nil {
			return fmt.Errorf("load categories: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return Dashboard{}, err
	}

	summary := core.ComputeSummary(txs)
	return Dashboard{
		Summary:    summary,
		ByCategory: summary.SortedCategories(),
		Budgets:    evaluate(txs, budgets, now),
		Recent:     core.RecentTransactions(txs, RecentLimit),
		Categories: cats,
	}, nil
}

// Budgets returns every budget of the user with its usage at now.
func (s *BudgetService) Budgets(ctx context.Context, userID string, now time.Time) ([]BudgetStatus, error) {
	var (
		txs     []core.Transaction
		budgets []core.Budget
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		txs, err = s.store.LoadTransactions(gctx, userID)
		return err
	})
	g.Go(func() (err error) {
		budgets, err = s.store.LoadBudgets(gctx, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("load budget data: %w", err)
	}
	return evaluate(txs, budgets, now), nil
}

// Usage computes one budget's snapshot; unknown ids yield ports.ErrNotFound.
func (s *BudgetService) Usage(ctx context.Context, userID, budgetID string, now time.Time) (core.UsageSnapshot, error) {
	budgets, err := s.store.LoadBudgets(ctx, userID)
	if err != nil {
		return core.UsageSnapshot{}, fmt.Errorf("load budgets: %w", err)
	}
	for _, b := range budgets {
		if b.ID != budgetID {
			continue
		}
		txs, err := s.store.LoadTransactions(ctx, userID)
		if err != nil {
			return core.UsageSnapshot{}, fmt.Errorf("load transactions: %w", err)
		}
		return core.ComputeUsage(txs, b, now)
	}
	return core.UsageSnapshot{}, ports.ErrNotFound
}

func evaluate(txs []core.Transaction, budgets []core.Budget, now time.Time) []BudgetStatus {
	out := make([]BudgetStatus, 0, len(budgets))
	for _, b := range budgets {
		snap, err := core.ComputeUsage(txs, b, now)
		if err != nil {
			snap = core.UsageSnapshot{Budget: b, Percentage: math.NaN()}
		}
		out = append(out, BudgetStatus{Usage: snap, Err: err})
	}
	return out
}
