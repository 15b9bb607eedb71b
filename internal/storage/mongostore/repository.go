package mongostore

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"fintrack/internal/core"
	"fintrack/internal/ports"
)

var _ ports.Repository = (*Repository)(nil)

type transactionDoc struct {
	ID          primitive.ObjectID `bson:"_id"`
	UserID      string             `bson:"userId"`
	Title       string             `bson:"title"`
	AmountCents int64              `bson:"amountCents"`
	Date        time.Time          `bson:"date"`
	Category    string             `bson:"category"`
	Type        string             `bson:"type"`
	Notes       string             `bson:"notes,omitempty"`
	CreatedAt   time.Time          `bson:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt"`
}

type budgetDoc struct {
	ID          primitive.ObjectID `bson:"_id"`
	UserID      string             `bson:"userId"`
	Category    string             `bson:"category"`
	AmountCents int64              `bson:"amountCents"`
	Period      string             `bson:"period"`
	CreatedAt   time.Time          `bson:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt"`
}

type categoryDoc struct {
	ID     primitive.ObjectID `bson:"_id"`
	UserID string             `bson:"userId"`
	Name   string             `bson:"name"`
	Type   string             `bson:"type"`
}

// Repository implements ports.Repository on MongoDB collections.
type Repository struct {
	provider CollectionProvider
	close    func() error
	now      func() time.Time
}

// NewRepository wraps provider. closeFn, when non-nil, runs on Close.
func NewRepository(provider CollectionProvider, closeFn func() error) *Repository {
	return &Repository{provider: provider, close: closeFn, now: time.Now}
}

func (r *Repository) Close() error {
	if r.close == nil {
		return nil
	}
	return r.close()
}

func ownedBy(userID, id string) (bson.M, bool) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, false
	}
	return bson.M{"_id": oid, "userId": userID}, true
}

func (r *Repository) CreateTransaction(ctx context.Context, userID string, t core.Transaction) (string, error) {
	t.Normalize()
	if err := t.Validate(); err != nil {
		return "", err
	}
	now := r.now().UTC()
	doc := toTransactionDoc(t)
	doc.ID = primitive.NewObjectID()
	doc.UserID = userID
	doc.CreatedAt, doc.UpdatedAt = now, now
	if _, err := r.provider.Collection(TransactionsCollection).InsertOne(ctx, doc); err != nil {
		return "", fmt.Errorf("insert transaction: %w", err)
	}
	return doc.ID.Hex(), nil
}

func (r *Repository) UpdateTransaction(ctx context.Context, userID string, t core.Transaction) error {
	t.Normalize()
	if err := t.Validate(); err != nil {
		return err
	}
	filter, ok := ownedBy(userID, t.ID)
	if !ok {
		return ports.ErrNotFound
	}
	col := r.provider.Collection(TransactionsCollection)
	var existing []transactionDoc
	cur, err := col.Find(ctx, filter, options.Find().SetLimit(1))
	if err != nil {
		return fmt.Errorf("find transaction %s: %w", t.ID, err)
	}
	if err := cur.All(ctx, &existing); err != nil {
		return fmt.Errorf("decode transaction %s: %w", t.ID, err)
	}
	if len(existing) == 0 {
		return ports.ErrNotFound
	}

	doc := toTransactionDoc(t)
	doc.ID = existing[0].ID
	doc.UserID = userID
	doc.CreatedAt = existing[0].CreatedAt
	doc.UpdatedAt = r.now().UTC()
	res, err := col.ReplaceOne(ctx, filter, doc)
	if err != nil {
		return fmt.Errorf("replace transaction %s: %w", t.ID, err)
	}
	if res.MatchedCount == 0 {
		return ports.ErrNotFound
	}
	return nil
}

func (r *Repository) DeleteTransaction(ctx context.Context, userID, id string) error {
	return r.deleteOne(ctx, TransactionsCollection, userID, id)
}

func (r *Repository) LoadTransactions(ctx context.Context, userID string) ([]core.Transaction, error) {
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: -1}, {Key: "_id", Value: 1}})
	cur, err := r.provider.Collection(TransactionsCollection).Find(ctx, bson.M{"userId": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("find transactions: %w", err)
	}
	var docs []transactionDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode transactions: %w", err)
	}
	out := make([]core.Transaction, 0, len(docs))
	for _, d := range docs {
		out = append(out, core.Transaction{
			ID:        d.ID.Hex(),
			UserID:    d.UserID,
			Title:     d.Title,
			Amount:    core.Money{Cents: d.AmountCents},
			Date:      d.Date,
			Category:  d.Category,
			Type:      core.TransactionType(d.Type),
			Notes:     d.Notes,
			CreatedAt: d.CreatedAt,
			UpdatedAt: d.UpdatedAt,
		})
	}
	return out, nil
}

func (r *Repository) CreateBudget(ctx context.Context, userID string, b core.Budget) (string, error) {
	b.Normalize()
	if err := b.Validate(); err != nil {
		return "", err
	}
	now := r.now().UTC()
	doc := budgetDoc{
		ID:          primitive.NewObjectID(),
		UserID:      userID,
		Category:    b.Category,
		AmountCents: b.Amount.Cents,
		Period:      string(b.Period),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if _, err := r.provider.Collection(BudgetsCollection).InsertOne(ctx, doc); err != nil {
		return "", fmt.Errorf("insert budget: %w", err)
	}
	return doc.ID.Hex(), nil
}

// UpdateBudget only touches the mutable fields so CreatedAt survives.
func (r *Repository) UpdateBudget(ctx context.Context, userID string, b core.Budget) error {
	b.Normalize()
	if err := b.Validate(); err != nil {
		return err
	}
	filter, ok := ownedBy(userID, b.ID)
	if !ok {
		return ports.ErrNotFound
	}
	col := r.provider.Collection(BudgetsCollection)
	var existing []budgetDoc
	cur, err := col.Find(ctx, filter, options.Find().SetLimit(1))
	if err != nil {
		return fmt.Errorf("find budget %s: %w", b.ID, err)
	}
	if err := cur.All(ctx, &existing); err != nil {
		return fmt.Errorf("decode budget %s: %w", b.ID, err)
	}
	if len(existing) == 0 {
		return ports.ErrNotFound
	}
	doc := existing[0]
	doc.Category = b.Category
	doc.AmountCents = b.Amount.Cents
	doc.Period = string(b.Period)
	doc.UpdatedAt = r.now().UTC()
	res, err := col.ReplaceOne(ctx, filter, doc)
	if err != nil {
		return fmt.Errorf("replace budget %s: %w", b.ID, err)
	}
	if res.MatchedCount == 0 {
		return ports.ErrNotFound
	}
	return nil
}

func (r *Repository) DeleteBudget(ctx context.Context, userID, id string) error {
	return r.deleteOne(ctx, BudgetsCollection, userID, id)
}

func (r *Repository) LoadBudgets(ctx context.Context, userID string) ([]core.Budget, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := r.provider.Collection(BudgetsCollection).Find(ctx, bson.M{"userId": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("find budgets: %w", err)
	}
	var docs []budgetDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode budgets: %w", err)
	}
	out := make([]core.Budget, 0, len(docs))
	for _, d := range docs {
		out = append(out, core.Budget{
			ID:        d.ID.Hex(),
			UserID:    d.UserID,
			Category:  d.Category,
			Amount:    core.Money{Cents: d.AmountCents},
			Period:    core.Period(d.Period),
			CreatedAt: d.CreatedAt,
			UpdatedAt: d.UpdatedAt,
		})
	}
	return out, nil
}

func (r *Repository) CreateCategory(ctx context.Context, userID string, c core.Category) (string, error) {
	c.Name = strings.TrimSpace(c.Name)
	if err := c.Validate(); err != nil {
		return "", err
	}
	col := r.provider.Collection(CategoriesCollection)
	n, err := col.CountDocuments(ctx, bson.M{"userId": userID, "name": c.Name})
	if err != nil {
		return "", fmt.Errorf("count categories: %w", err)
	}
	if n > 0 {
		return "", ports.ErrDuplicateCategory
	}
	doc := categoryDoc{ID: primitive.NewObjectID(), UserID: userID, Name: c.Name, Type: string(c.Type)}
	if _, err := col.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return "", ports.ErrDuplicateCategory
		}
		return "", fmt.Errorf("insert category: %w", err)
	}
	return doc.ID.Hex(), nil
}

func (r *Repository) LoadCategories(ctx context.Context, userID string) ([]core.Category, error) {
	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})
	cur, err := r.provider.Collection(CategoriesCollection).Find(ctx, bson.M{"userId": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("find categories: %w", err)
	}
	var docs []categoryDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode categories: %w", err)
	}
	if len(docs) == 0 {
		return core.DefaultCategorySet(), nil
	}
	out := make([]core.Category, 0, len(docs))
	for _, d := range docs {
		out = append(out, core.Category{ID: d.ID.Hex(), UserID: d.UserID, Name: d.Name, Type: core.TransactionType(d.Type)})
	}
	return out, nil
}

func (r *Repository) deleteOne(ctx context.Context, collection, userID, id string) error {
	filter, ok := ownedBy(userID, id)
	if !ok {
		return ports.ErrNotFound
	}
	res, err := r.provider.Collection(collection).DeleteOne(ctx, filter)
	if err != nil {
		return fmt.Errorf("delete from %s: %w", collection, err)
	}
	if res.DeletedCount == 0 {
		return ports.ErrNotFound
	}
	return nil
}

func toTransactionDoc(t core.Transaction) transactionDoc {
	return transactionDoc{
		Title:       t.Title,
		AmountCents: t.Amount.Cents,
		Date:        t.Date.UTC(),
		Category:    t.Category,
		Type:        string(t.Type),
		Notes:       t.Notes,
	}
}
