package worker

import (
	"context"
	"fmt"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/cache"
	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/sheets"
)

// WarnPercentage is the usage at which a budget is reported as nearly exhausted.
const WarnPercentage = 85.0

// Store is what the worker reads to evaluate budgets.
type Store interface {
	LoadTransactions(ctx context.Context, userID string) ([]core.Transaction, error)
	LoadBudgets(ctx context.Context, userID string) ([]core.Budget, error)
}

// Alert is one budget crossing raised by HandleEvent.
type Alert struct {
	UserID   string
	Level    AlertLevel
	Snapshot core.UsageSnapshot
}

type AlertLevel string

const (
	AlertWarning  AlertLevel = "warning"
	AlertExceeded AlertLevel = "exceeded"
)

// AlertWorker evaluates budgets after every transaction change and mirrors
// changes to an optional export sheet.
type AlertWorker struct {
	store    Store
	exporter sheets.TransactionExporter
	seen     *cache.LRUCache[AlertLevel]
	logger   *log.StructuredLogger
	now      func() time.Time
}

// NewAlertWorker builds a worker. exporter may be nil.
func NewAlertWorker(store Store, exporter sheets.TransactionExporter, logger *log.Logger) *AlertWorker {
	if logger == nil {
		logger = log.New(log.DefaultConfig()).WithComponent(log.ComponentWorker)
	}
	return &AlertWorker{
		store:    store,
		exporter: exporter,
		// a window is at most one year long
		seen:   cache.NewLRUCache[AlertLevel](10000, 366*24*time.Hour),
		logger: log.NewStructuredLogger(logger),
		now:    time.Now,
	}
}

// HandleEvent is the AMQP consumer callback. Returning an error requeues the event.
//
// Budgets are checked before the export: the sheet is append-only, so the
// export runs last and only once the rest of the event has been handled.
// Alerts are deduplicated per window, so a redelivery after a failed export
// does not repeat them.
func (w *AlertWorker) HandleEvent(ctx context.Context, event *amqp.TransactionEvent) error {
	if event.Action != amqp.ActionDeleted && event.Type == string(core.Expense) {
		if _, err := w.CheckBudgets(ctx, event.UserID, event.Category); err != nil {
			return err
		}
	}
	if w.exporter == nil {
		return nil
	}
	return w.export(ctx, event)
}

// CheckBudgets evaluates the user's budgets for category and returns the
// alerts raised for the first time in the current window.
func (w *AlertWorker) CheckBudgets(ctx context.Context, userID, category string) ([]Alert, error) {
	budgets, err := w.store.LoadBudgets(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load budgets: %w", err)
	}

	var matching []core.Budget
	for _, b := range budgets {
		if b.Category == category {
			matching = append(matching, b)
		}
	}
	if len(matching) == 0 {
		return nil, nil
	}

	txs, err := w.store.LoadTransactions(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load transactions: %w", err)
	}

	now := w.now()
	var alerts []Alert
	for _, b := range matching {
		u, err := core.ComputeUsage(txs, b, now)
		if err != nil {
			w.logger.LogError(ctx, "Skipping budget with invalid period", err, log.ComponentWorker, log.OpAlert,
				log.NewFields().WithUser(userID))
			continue
		}
		level, ok := alertLevel(u)
		if !ok || !w.firstInWindow(u, level) {
			continue
		}
		msg := "Budget nearly exhausted"
		if level == AlertExceeded {
			msg = "Budget exceeded"
		}
		w.logger.LogBudgetAlert(ctx, msg, userID, b.ID, b.Category, b.Period.String(),
			b.Amount.Cents, u.Spent.Cents, u.Percentage)
		alerts = append(alerts, Alert{UserID: userID, Level: level, Snapshot: u})
	}
	return alerts, nil
}

func alertLevel(u core.UsageSnapshot) (AlertLevel, bool) {
	switch {
	case u.IsOverBudget:
		return AlertExceeded, true
	case u.HasPercentage() && u.Percentage >= WarnPercentage:
		return AlertWarning, true
	default:
		return "", false
	}
}

// firstInWindow reports whether level was not yet raised for this budget
// window. A warning never follows an exceeded alert in the same window.
func (w *AlertWorker) firstInWindow(u core.UsageSnapshot, level AlertLevel) bool {
	key := u.Budget.ID + "|" + u.Window.Start.UTC().Format(time.RFC3339)
	prev, ok := w.seen.Get(key)
	if ok && (prev == level || prev == AlertExceeded) {
		return false
	}
	w.seen.Set(key, level)
	return true
}

func (w *AlertWorker) export(ctx context.Context, event *amqp.TransactionEvent) error {
	t := core.Transaction{
		ID:       event.TransactionID,
		Category: event.Category,
		Type:     core.TransactionType(event.Type),
	}
	if event.Action != amqp.ActionDeleted {
		txs, err := w.store.LoadTransactions(ctx, event.UserID)
		if err != nil {
			return fmt.Errorf("load transactions: %w", err)
		}
		found := false
		for _, candidate := range txs {
			if candidate.ID == event.TransactionID {
				t, found = candidate, true
				break
			}
		}
		if !found {
			// deleted before we got to it; a later delete event follows
			return nil
		}
	}

	if _, err := w.exporter.ExportTransaction(ctx, string(event.Action), t); err != nil {
		return fmt.Errorf("export transaction: %w", err)
	}
	return nil
}
