package core

import (
	"math"
	"time"
)

// UsageSnapshot is the spending of one budget inside its current window at one instant.
type UsageSnapshot struct {
	Budget       Budget
	Window       Window
	Spent        Money
	Remaining    Money
	Percentage   float64 // NaN when the budget amount is not positive
	IsOverBudget bool
}

// HasPercentage reports whether Percentage is defined.
func (u UsageSnapshot) HasPercentage() bool {
	return !math.IsNaN(u.Percentage)
}

// ComputeUsage sums the expenses of the budget's category that fall inside the
// window of budget.Period ending at now.
//
// Transactions are not assumed to be ordered. Records with a zero date or a
// negative amount contribute nothing instead of failing the whole computation.
func ComputeUsage(transactions []Transaction, budget Budget, now time.Time) (UsageSnapshot, error) {
	window, err := WindowFor(budget.Period, now)
	if err != nil {
		return UsageSnapshot{}, err
	}

	var spent Money
	for _, t := range transactions {
		if t.Type != Expense || t.Category != budget.Category {
			continue
		}
		if t.Date.IsZero() || !window.Contains(t.Date) {
			continue
		}
		if t.Amount.Cents > 0 {
			spent = spent.Add(t.Amount)
		}
	}

	u := UsageSnapshot{
		Budget:    budget,
		Window:    window,
		Spent:     spent,
		Remaining: budget.Amount.Sub(spent),
	}
	if budget.Amount.Cents > 0 {
		u.Percentage = float64(spent.Cents) * 100 / float64(budget.Amount.Cents)
		u.IsOverBudget = spent.Cents > budget.Amount.Cents
	} else {
		u.Percentage = math.NaN()
		u.IsOverBudget = spent.Cents > 0
	}
	return u, nil
}
