package mongostore

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"fintrack/internal/core"
	"fintrack/internal/ports"
)

type sliceCursor struct {
	docs interface{}
}

func (c sliceCursor) All(_ context.Context, results interface{}) error {
	reflect.ValueOf(results).Elem().Set(reflect.ValueOf(c.docs))
	return nil
}

type mockDataStore struct {
	insertOneFunc      func(ctx context.Context, document interface{}) (*mongo.InsertOneResult, error)
	replaceOneFunc     func(ctx context.Context, filter, replacement interface{}) (*mongo.UpdateResult, error)
	deleteOneFunc      func(ctx context.Context, filter interface{}) (*mongo.DeleteResult, error)
	countDocumentsFunc func(ctx context.Context, filter interface{}) (int64, error)
	findFunc           func(ctx context.Context, filter interface{}) (Cursor, error)
}

func (m *mockDataStore) InsertOne(ctx context.Context, document interface{}, _ ...*options.InsertOneOptions) (*mongo.InsertOneResult, error) {
	if m.insertOneFunc != nil {
		return m.insertOneFunc(ctx, document)
	}
	return &mongo.InsertOneResult{}, nil
}

func (m *mockDataStore) ReplaceOne(ctx context.Context, filter interface{}, replacement interface{}, _ ...*options.ReplaceOptions) (*mongo.UpdateResult, error) {
	if m.replaceOneFunc != nil {
		return m.replaceOneFunc(ctx, filter, replacement)
	}
	return &mongo.UpdateResult{MatchedCount: 1}, nil
}

func (m *mockDataStore) DeleteOne(ctx context.Context, filter interface{}, _ ...*options.DeleteOptions) (*mongo.DeleteResult, error) {
	if m.deleteOneFunc != nil {
		return m.deleteOneFunc(ctx, filter)
	}
	return &mongo.DeleteResult{DeletedCount: 1}, nil
}

func (m *mockDataStore) CountDocuments(ctx context.Context, filter interface{}, _ ...*options.CountOptions) (int64, error) {
	if m.countDocumentsFunc != nil {
		return m.countDocumentsFunc(ctx, filter)
	}
	return 0, nil
}

func (m *mockDataStore) Find(ctx context.Context, filter interface{}, _ ...*options.FindOptions) (Cursor, error) {
	if m.findFunc != nil {
		return m.findFunc(ctx, filter)
	}
	return sliceCursor{docs: []transactionDoc{}}, nil
}

type mockCollectionProvider struct {
	collections map[string]*mockDataStore
}

func (m *mockCollectionProvider) Collection(name string) DataStore {
	if ds, ok := m.collections[name]; ok {
		return ds
	}
	return &mockDataStore{}
}

func TestCreateTransactionStampsOwnerAndDefaults(t *testing.T) {
	var inserted transactionDoc
	provider := &mockCollectionProvider{collections: map[string]*mockDataStore{
		TransactionsCollection: {insertOneFunc: func(_ context.Context, document interface{}) (*mongo.InsertOneResult, error) {
			inserted = document.(transactionDoc)
			return &mongo.InsertOneResult{InsertedID: inserted.ID}, nil
		}},
	}}
	repo := NewRepository(provider, nil)

	id, err := repo.CreateTransaction(context.Background(), "alice", core.Transaction{
		Title: "Taxi", Amount: core.Money{Cents: 1800}, Date: time.Date(2024, 2, 2, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if id != inserted.ID.Hex() {
		t.Fatalf("id = %s, want %s", id, inserted.ID.Hex())
	}
	if inserted.UserID != "alice" || inserted.Category != core.DefaultCategory || inserted.Type != "expense" {
		t.Fatalf("unexpected document %+v", inserted)
	}
	if inserted.CreatedAt.IsZero() {
		t.Fatal("CreatedAt not stamped")
	}
}

func TestLoadTransactionsFiltersByUser(t *testing.T) {
	oid := primitive.NewObjectID()
	provider := &mockCollectionProvider{collections: map[string]*mockDataStore{
		TransactionsCollection: {findFunc: func(_ context.Context, filter interface{}) (Cursor, error) {
			f := filter.(bson.M)
			if f["userId"] != "alice" {
				t.Errorf("filter = %v", f)
			}
			return sliceCursor{docs: []transactionDoc{{ID: oid, UserID: "alice", Title: "Rent", AmountCents: 90000, Type: "expense", Category: "Housing"}}}, nil
		}},
	}}
	txs, err := NewRepository(provider, nil).LoadTransactions(context.Background(), "alice")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(txs) != 1 || txs[0].ID != oid.Hex() || txs[0].Amount.Cents != 90000 {
		t.Fatalf("unexpected %+v", txs)
	}
}

func TestDeleteNotFound(t *testing.T) {
	provider := &mockCollectionProvider{collections: map[string]*mockDataStore{
		BudgetsCollection: {deleteOneFunc: func(context.Context, interface{}) (*mongo.DeleteResult, error) {
			return &mongo.DeleteResult{DeletedCount: 0}, nil
		}},
	}}
	repo := NewRepository(provider, nil)

	tests := []struct {
		name string
		id   string
	}{
		{"malformed id", "not-an-object-id"},
		{"no match", primitive.NewObjectID().Hex()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := repo.DeleteBudget(context.Background(), "alice", tt.id); !errors.Is(err, ports.ErrNotFound) {
				t.Fatalf("expected ErrNotFound, got %v", err)
			}
		})
	}
}

func TestUpdateBudgetKeepsCreatedAt(t *testing.T) {
	oid := primitive.NewObjectID()
	created := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	var replaced budgetDoc
	provider := &mockCollectionProvider{collections: map[string]*mockDataStore{
		BudgetsCollection: {
			findFunc: func(context.Context, interface{}) (Cursor, error) {
				return sliceCursor{docs: []budgetDoc{{ID: oid, UserID: "alice", Category: "Food", AmountCents: 100, Period: "monthly", CreatedAt: created}}}, nil
			},
			replaceOneFunc: func(_ context.Context, _, replacement interface{}) (*mongo.UpdateResult, error) {
				replaced = replacement.(budgetDoc)
				return &mongo.UpdateResult{MatchedCount: 1}, nil
			},
		},
	}}
	err := NewRepository(provider, nil).UpdateBudget(context.Background(), "alice", core.Budget{
		ID: oid.Hex(), Category: "Food", Amount: core.Money{Cents: 500}, Period: core.Yearly,
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if !replaced.CreatedAt.Equal(created) || replaced.AmountCents != 500 || replaced.Period != "yearly" {
		t.Fatalf("unexpected replacement %+v", replaced)
	}
}

func TestCreateCategoryDuplicate(t *testing.T) {
	provider := &mockCollectionProvider{collections: map[string]*mockDataStore{
		CategoriesCollection: {countDocumentsFunc: func(context.Context, interface{}) (int64, error) { return 1, nil }},
	}}
	_, err := NewRepository(provider, nil).CreateCategory(context.Background(), "alice", core.Category{Name: "Food", Type: core.Expense})
	if !errors.Is(err, ports.ErrDuplicateCategory) {
		t.Fatalf("expected ErrDuplicateCategory, got %v", err)
	}
}

func TestLoadCategoriesFallsBackToDefaults(t *testing.T) {
	provider := &mockCollectionProvider{collections: map[string]*mockDataStore{
		CategoriesCollection: {findFunc: func(context.Context, interface{}) (Cursor, error) {
			return sliceCursor{docs: []categoryDoc{}}, nil
		}},
	}}
	cats, err := NewRepository(provider, nil).LoadCategories(context.Background(), "alice")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(cats) != len(core.DefaultCategories) {
		t.Fatalf("expected defaults, got %d", len(cats))
	}
}
