package http

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

func TestTransactionDateSurvivesSQLiteRoundTrip(t *testing.T) {
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "fintrack.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = repo.Close() })

	zones := []*time.Location{
		time.FixedZone("CET", 3600),
		time.FixedZone("AEST", 10*3600),
		time.FixedZone("PST", -8*3600),
		time.UTC,
	}
	for _, loc := range zones {
		t.Run(loc.String(), func(t *testing.T) {
			var req transactionRequest
			body := `{"title":"Groceries","amount":"12.50","date":"2024-03-01","category":"Food","type":"expense"}`
			if err := json.Unmarshal([]byte(body), &req); err != nil {
				t.Fatal(err)
			}
			tx, err := req.toTransaction(loc)
			if err != nil {
				t.Fatal(err)
			}

			user := "user-" + loc.String()
			ctx := context.Background()
			if _, err := repo.CreateTransaction(ctx, user, tx); err != nil {
				t.Fatal(err)
			}
			loaded, err := repo.LoadTransactions(ctx, user)
			if err != nil || len(loaded) != 1 {
				t.Fatalf("load: %v, %d rows", err, len(loaded))
			}

			p := presenter{currency: "EUR", location: func() *time.Location { return loc }}
			if got := p.transaction(tx).Date; got != "2024-03-01" {
				t.Errorf("created date = %s", got)
			}
			if got := p.transaction(loaded[0]).Date; got != "2024-03-01" {
				t.Errorf("reloaded date = %s, want 2024-03-01", got)
			}

			// Still inside the March window evaluated in the same zone.
			budget := core.Budget{Category: "Food", Amount: core.Money{Cents: 10000}, Period: core.Monthly}
			u, err := core.ComputeUsage(loaded, budget, time.Date(2024, 3, 15, 12, 0, 0, 0, loc))
			if err != nil || u.Spent.Cents != 1250 {
				t.Errorf("spent = %d, %v", u.Spent.Cents, err)
			}
		})
	}
}

func TestServerListsDateInItsZone(t *testing.T) {
	ts := newTestServer(t, Options{})
	cet := time.FixedZone("CET", 3600)
	ts.now = func() time.Time { return time.Date(2024, 3, 15, 12, 0, 0, 0, cet) }

	rec := ts.do(t, "POST", "/api/transactions", "alice",
		`{"title":"Rent","amount":"800","date":"2024-03-01","category":"Housing","type":"expense"}`, nil)
	if rec.Code != 201 {
		t.Fatalf("create status = %d: %s", rec.Code, rec.Body.String())
	}

	// Simulate a store that hands dates back in UTC.
	stored, _ := ts.store.LoadTransactions(context.Background(), "alice")
	if len(stored) != 1 {
		t.Fatalf("stored %d transactions", len(stored))
	}
	if got := ts.present.transaction(core.Transaction{Date: stored[0].Date.UTC()}).Date; got != "2024-03-01" {
		t.Errorf("UTC date rendered as %s", got)
	}

	var out struct {
		Transactions []struct {
			Date string `json:"date"`
		} `json:"transactions"`
	}
	ts.do(t, "GET", "/api/transactions", "alice", "", &out)
	if len(out.Transactions) != 1 || out.Transactions[0].Date != "2024-03-01" {
		t.Fatalf("listed %+v", out.Transactions)
	}
}
