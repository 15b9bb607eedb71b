package firebase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"fintrack/internal/core"
	"fintrack/internal/ports"
)

// Collection names shared with the web client.
const (
	ExpensesCollection   = "expenses"
	CategoriesCollection = "categories"
	BudgetsCollection    = "budgets"
)

var _ ports.Repository = (*Store)(nil)

// Store implements ports.Repository on Cloud Firestore. Every document
// carries a userId field; documents owned by another user read as missing.
type Store struct {
	client *firestore.Client
}

// NewStore opens a Firestore client from an initialised app.
func NewStore(ctx context.Context, app *firebase.App) (*Store, error) {
	client, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize firestore client: %w", err)
	}
	return &Store{client: client}, nil
}

func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) CreateTransaction(ctx context.Context, userID string, t core.Transaction) (string, error) {
	t.Normalize()
	if err := t.Validate(); err != nil {
		return "", err
	}
	data := transactionFields(t)
	data["userId"] = userID
	data["createdAt"] = firestore.ServerTimestamp
	data["updatedAt"] = firestore.ServerTimestamp

	ref, _, err := s.client.Collection(ExpensesCollection).Add(ctx, data)
	if err != nil {
		return "", fmt.Errorf("add expense document: %w", err)
	}
	slog.InfoContext(ctx, "Transaction saved to Firestore", "id", ref.ID, "category", t.Category)
	return ref.ID, nil
}

func (s *Store) UpdateTransaction(ctx context.Context, userID string, t core.Transaction) error {
	t.Normalize()
	if err := t.Validate(); err != nil {
		return err
	}
	ref := s.client.Collection(ExpensesCollection).Doc(t.ID)
	if err := s.checkOwner(ctx, ref, userID); err != nil {
		return err
	}
	var updates []firestore.Update
	for path, v := range transactionFields(t) {
		updates = append(updates, firestore.Update{Path: path, Value: v})
	}
	updates = append(updates, firestore.Update{Path: "updatedAt", Value: firestore.ServerTimestamp})
	if _, err := ref.Update(ctx, updates); err != nil {
		return fmt.Errorf("update expense %s: %w", t.ID, err)
	}
	return nil
}

func (s *Store) DeleteTransaction(ctx context.Context, userID, id string) error {
	return s.deleteOwned(ctx, s.client.Collection(ExpensesCollection).Doc(id), userID)
}

func (s *Store) LoadTransactions(ctx context.Context, userID string) ([]core.Transaction, error) {
	docs, err := s.client.Collection(ExpensesCollection).
		Where("userId", "==", userID).
		OrderBy("date", firestore.Desc).
		Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("query expenses: %w", err)
	}
	out := make([]core.Transaction, 0, len(docs))
	for _, d := range docs {
		var doc transactionDoc
		if err := d.DataTo(&doc); err != nil {
			slog.WarnContext(ctx, "Skipping unreadable expense document", "id", d.Ref.ID, "error", err)
			continue
		}
		out = append(out, doc.toCore(d.Ref.ID))
	}
	return out, nil
}

func (s *Store) CreateBudget(ctx context.Context, userID string, b core.Budget) (string, error) {
	b.Normalize()
	if err := b.Validate(); err != nil {
		return "", err
	}
	data := budgetFields(b)
	data["userId"] = userID
	data["createdAt"] = firestore.ServerTimestamp
	data["updatedAt"] = firestore.ServerTimestamp
	ref, _, err := s.client.Collection(BudgetsCollection).Add(ctx, data)
	if err != nil {
		return "", fmt.Errorf("add budget document: %w", err)
	}
	return ref.ID, nil
}

func (s *Store) UpdateBudget(ctx context.Context, userID string, b core.Budget) error {
	b.Normalize()
	if err := b.Validate(); err != nil {
		return err
	}
	ref := s.client.Collection(BudgetsCollection).Doc(b.ID)
	if err := s.checkOwner(ctx, ref, userID); err != nil {
		return err
	}
	var updates []firestore.Update
	for path, v := range budgetFields(b) {
		updates = append(updates, firestore.Update{Path: path, Value: v})
	}
	updates = append(updates, firestore.Update{Path: "updatedAt", Value: firestore.ServerTimestamp})
	if _, err := ref.Update(ctx, updates); err != nil {
		return fmt.Errorf("update budget %s: %w", b.ID, err)
	}
	return nil
}

func (s *Store) DeleteBudget(ctx context.Context, userID, id string) error {
	return s.deleteOwned(ctx, s.client.Collection(BudgetsCollection).Doc(id), userID)
}

func (s *Store) LoadBudgets(ctx context.Context, userID string) ([]core.Budget, error) {
	iter := s.client.Collection(BudgetsCollection).Where("userId", "==", userID).Documents(ctx)
	defer iter.Stop()
	var out []core.Budget
	for {
		d, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("query budgets: %w", err)
		}
		var doc budgetDoc
		if err := d.DataTo(&doc); err != nil {
			slog.WarnContext(ctx, "Skipping unreadable budget document", "id", d.Ref.ID, "error", err)
			continue
		}
		out = append(out, doc.toCore(d.Ref.ID))
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) CreateCategory(ctx context.Context, userID string, c core.Category) (string, error) {
	c.Name = strings.TrimSpace(c.Name)
	if err := c.Validate(); err != nil {
		return "", err
	}
	col := s.client.Collection(CategoriesCollection)
	existing, err := col.Where("userId", "==", userID).Where("name", "==", c.Name).Limit(1).Documents(ctx).GetAll()
	if err != nil {
		return "", fmt.Errorf("query categories: %w", err)
	}
	if len(existing) > 0 {
		return "", ports.ErrDuplicateCategory
	}
	ref, _, err := col.Add(ctx, map[string]interface{}{
		"userId":    userID,
		"name":      c.Name,
		"type":      string(c.Type),
		"createdAt": firestore.ServerTimestamp,
	})
	if err != nil {
		return "", fmt.Errorf("add category document: %w", err)
	}
	return ref.ID, nil
}

func (s *Store) LoadCategories(ctx context.Context, userID string) ([]core.Category, error) {
	docs, err := s.client.Collection(CategoriesCollection).Where("userId", "==", userID).Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	out := make([]core.Category, 0, len(docs))
	for _, d := range docs {
		var doc categoryDoc
		if err := d.DataTo(&doc); err != nil {
			continue
		}
		out = append(out, core.Category{ID: d.Ref.ID, UserID: doc.UserID, Name: doc.Name, Type: core.TransactionType(doc.Type)})
	}
	if len(out) == 0 {
		return core.DefaultCategorySet(), nil
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) checkOwner(ctx context.Context, ref *firestore.DocumentRef, userID string) error {
	snap, err := ref.Get(ctx)
	if status.Code(err) == codes.NotFound {
		return ports.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("get %s: %w", ref.Path, err)
	}
	owner, _ := snap.Data()["userId"].(string)
	if owner != userID {
		return ports.ErrNotFound
	}
	return nil
}

func (s *Store) deleteOwned(ctx context.Context, ref *firestore.DocumentRef, userID string) error {
	if err := s.checkOwner(ctx, ref, userID); err != nil {
		return err
	}
	if _, err := ref.Delete(ctx); err != nil {
		return fmt.Errorf("delete %s: %w", ref.Path, err)
	}
	return nil
}

type transactionDoc struct {
	UserID      string    `firestore:"userId"`
	Title       string    `firestore:"title"`
	Amount      float64   `firestore:"amount"`
	AmountCents int64     `firestore:"amountCents"`
	Date        time.Time `firestore:"date"`
	Category    string    `firestore:"category"`
	Type        string    `firestore:"type"`
	Notes       string    `firestore:"notes"`
	CreatedAt   time.Time `firestore:"createdAt"`
	UpdatedAt   time.Time `firestore:"updatedAt"`
}

func (d transactionDoc) toCore(id string) core.Transaction {
	amount := docAmount(d.Amount, d.AmountCents)
	return core.Transaction{
		ID:        id,
		UserID:    d.UserID,
		Title:     d.Title,
		Amount:    amount,
		Date:      d.Date,
		Category:  d.Category,
		Type:      core.TransactionType(d.Type),
		Notes:     d.Notes,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

type budgetDoc struct {
	UserID      string    `firestore:"userId"`
	Category    string    `firestore:"category"`
	Amount      float64   `firestore:"amount"`
	AmountCents int64     `firestore:"amountCents"`
	Period      string    `firestore:"period"`
	CreatedAt   time.Time `firestore:"createdAt"`
	UpdatedAt   time.Time `firestore:"updatedAt"`
}

func (d budgetDoc) toCore(id string) core.Budget {
	amount := docAmount(d.Amount, d.AmountCents)
	return core.Budget{
		ID:        id,
		UserID:    d.UserID,
		Category:  d.Category,
		Amount:    amount,
		Period:    core.Period(d.Period),
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

// docAmount treats the float amount as authoritative: the web client edits
// only that field, leaving amountCents stale. The cent value is used when it
// agrees with the float to within rounding, keeping it exact.
func docAmount(amount float64, cents int64) core.Money {
	fromFloat := core.MoneyFromFloat(amount)
	if diff := fromFloat.Cents - cents; diff >= -1 && diff <= 1 {
		return core.Money{Cents: cents}
	}
	return fromFloat
}

type categoryDoc struct {
	UserID string `firestore:"userId"`
	Name   string `firestore:"name"`
	Type   string `firestore:"type"`
}

func transactionFields(t core.Transaction) map[string]interface{} {
	return map[string]interface{}{
		"title":       t.Title,
		"amount":      t.Amount.Float(),
		"amountCents": t.Amount.Cents,
		"date":        t.Date,
		"category":    t.Category,
		"type":        string(t.Type),
		"notes":       t.Notes,
	}
}

func budgetFields(b core.Budget) map[string]interface{} {
	return map[string]interface{}{
		"category":    b.Category,
		"amount":      b.Amount.Float(),
		"amountCents": b.Amount.Cents,
		"period":      string(b.Period),
	}
}
