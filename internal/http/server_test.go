package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"fintrack/internal/auth"
	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/services"
	"fintrack/internal/storage/memory"
)

type testServer struct {
	*Server
	store *memory.Store
}

func newTestServer(t *testing.T, opts Options) *testServer {
	t.Helper()
	store := memory.New(core.DefaultCategorySet())
	if opts.Logger == nil {
		opts.Logger = log.New(log.Config{Output: io.Discard})
	}
	if opts.CategoryCacheTTL == 0 {
		opts.CategoryCacheTTL = time.Hour
	}
	if opts.RateLimitPerMinute == 0 {
		opts.RateLimitPerMinute = 1000
	}
	srv := NewServer(opts,
		services.NewLedgerService(store, nil),
		services.NewBudgetService(store),
		auth.NewStaticVerifier("alice,bob"),
		auth.NewNotifier())
	srv.now = func() time.Time { return time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC) }
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return &testServer{Server: srv, store: store}
}

// do sends a request as user (no auth when user is empty) and decodes a JSON body into out.
func (ts *testServer) do(t *testing.T, method, target, user, body string, out any) *httptest.ResponseRecorder {
	t.Helper()
	var rdr io.Reader
	if body != "" {
		rdr = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, rdr)
	if user != "" {
		req.Header.Set("Authorization", "Bearer "+user)
	}
	rec := httptest.NewRecorder()
	ts.Handler.ServeHTTP(rec, req)
	if out != nil && rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
			t.Fatalf("decode %s %s: %v (%s)", method, target, err, rec.Body.String())
		}
	}
	return rec
}

func TestHealthReadyAndMetrics(t *testing.T) {
	ts := newTestServer(t, Options{})
	for _, path := range []string{"/healthz", "/readyz", "/metrics"} {
		if rec := ts.do(t, http.MethodGet, path, "", "", nil); rec.Code != http.StatusOK {
			t.Fatalf("%s status=%d", path, rec.Code)
		}
	}

	notReady := newTestServer(t, Options{Ready: func(context.Context) error { return io.ErrUnexpectedEOF }})
	if rec := notReady.do(t, http.MethodGet, "/readyz", "", "", nil); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("readyz status=%d", rec.Code)
	}

	ts.do(t, http.MethodGet, "/api/summary", "alice", "", nil)
	rec := ts.do(t, http.MethodGet, "/metrics", "", "", nil)
	if !strings.Contains(rec.Body.String(), `fintrack_http_requests_total{code="200",method="GET",route="GET /api/summary"}`) {
		t.Fatalf("metrics missing route counter:\n%s", rec.Body.String())
	}
}

func TestAuthenticationRequired(t *testing.T) {
	ts := newTestServer(t, Options{})
	tests := []struct {
		name string
		user string
	}{
		{"no credentials", ""},
		{"unknown user", "mallory"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var body map[string]string
			rec := ts.do(t, http.MethodGet, "/api/transactions", tt.user, "", &body)
			if rec.Code != http.StatusUnauthorized || body["error"] == "" {
				t.Fatalf("status=%d body=%v", rec.Code, body)
			}
		})
	}
}

func TestTransactionEndpoints(t *testing.T) {
	ts := newTestServer(t, Options{Currency: "USD"})

	var created transactionView
	rec := ts.do(t, http.MethodPost, "/api/transactions", "alice",
		`{"title":"Groceries","amount":"42,505","date":"2024-03-10","category":"Food","type":"expense"}`, &created)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status=%d body=%s", rec.Code, rec.Body.String())
	}
	if created.Amount.Value != "42.51" || created.Amount.Display != "$42.51" || created.Date != "2024-03-10" {
		t.Fatalf("unexpected created %+v", created)
	}
	if rec.Header().Get("Location") != "/api/transactions/"+created.ID {
		t.Fatalf("location = %q", rec.Header().Get("Location"))
	}

	var income transactionView
	ts.do(t, http.MethodPost, "/api/transactions", "alice",
		`{"title":"Salary","amount":2500,"date":"2024-03-01","category":"Salary","type":"income"}`, &income)
	if income.Amount.Cents != 250000 {
		t.Fatalf("numeric amount parsed to %d cents", income.Amount.Cents)
	}

	var list struct {
		Transactions []transactionView `json:"transactions"`
	}
	ts.do(t, http.MethodGet, "/api/transactions?type=expense", "alice", "", &list)
	if len(list.Transactions) != 1 || list.Transactions[0].ID != created.ID {
		t.Fatalf("filtered list = %+v", list.Transactions)
	}
	ts.do(t, http.MethodGet, "/api/transactions?sort=amount-desc&limit=1", "alice", "", &list)
	if len(list.Transactions) != 1 || list.Transactions[0].ID != income.ID {
		t.Fatalf("sorted list = %+v", list.Transactions)
	}
	ts.do(t, http.MethodGet, "/api/transactions", "bob", "", &list)
	if len(list.Transactions) != 0 {
		t.Fatalf("bob sees %d transactions", len(list.Transactions))
	}

	var updated transactionView
	rec = ts.do(t, http.MethodPut, "/api/transactions/"+created.ID, "alice",
		`{"title":"Groceries","amount":"50","date":"2024-03-10","category":"Food"}`, &updated)
	if rec.Code != http.StatusOK || updated.Amount.Cents != 5000 || updated.Type != "expense" {
		t.Fatalf("update status=%d body=%+v", rec.Code, updated)
	}
	if rec := ts.do(t, http.MethodPut, "/api/transactions/"+created.ID, "bob",
		`{"title":"Hijack","amount":"1","date":"2024-03-10"}`, nil); rec.Code != http.StatusNotFound {
		t.Fatalf("foreign update status=%d", rec.Code)
	}

	if rec := ts.do(t, http.MethodDelete, "/api/transactions/"+created.ID, "alice", "", nil); rec.Code != http.StatusNoContent {
		t.Fatalf("delete status=%d", rec.Code)
	}
	if rec := ts.do(t, http.MethodDelete, "/api/transactions/"+created.ID, "alice", "", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("second delete status=%d", rec.Code)
	}
}

func TestTransactionValidation(t *testing.T) {
	ts := newTestServer(t, Options{})
	tests := []struct {
		name string
		body string
		want int
	}{
		{"malformed json", `{"title":`, http.StatusBadRequest},
		{"unknown field", `{"title":"x","amount":"1","date":"2024-01-01","colour":"red"}`, http.StatusBadRequest},
		{"empty title", `{"title":"  ","amount":"1","date":"2024-01-01"}`, http.StatusUnprocessableEntity},
		{"negative amount", `{"title":"x","amount":"-1","date":"2024-01-01"}`, http.StatusUnprocessableEntity},
		{"garbage amount", `{"title":"x","amount":"abc","date":"2024-01-01"}`, http.StatusUnprocessableEntity},
		{"missing date", `{"title":"x","amount":"1"}`, http.StatusUnprocessableEntity},
		{"bad date", `{"title":"x","amount":"1","date":"yesterday"}`, http.StatusUnprocessableEntity},
		{"bad type", `{"title":"x","amount":"1","date":"2024-01-01","type":"transfer"}`, http.StatusUnprocessableEntity},
		{"rfc3339 date", `{"title":"x","amount":"0","date":"2024-01-01T10:00:00+02:00"}`, http.StatusCreated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ts.do(t, http.MethodPost, "/api/transactions", "alice", tt.body, nil)
			if rec.Code != tt.want {
				t.Fatalf("status=%d want %d body=%s", rec.Code, tt.want, rec.Body.String())
			}
		})
	}

	if rec := ts.do(t, http.MethodGet, "/api/transactions?type=transfer", "alice", "", nil); rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("bad type filter status=%d", rec.Code)
	}
}

func TestBudgetEndpoints(t *testing.T) {
	ts := newTestServer(t, Options{})
	ts.do(t, http.MethodPost, "/api/transactions", "alice",
		`{"title":"Market","amount":"30","date":"2024-03-05","category":"Food"}`, nil)
	ts.do(t, http.MethodPost, "/api/transactions", "alice",
		`{"title":"Old","amount":"99","date":"2024-02-20","category":"Food"}`, nil)

	var b budgetView
	rec := ts.do(t, http.MethodPost, "/api/budgets", "alice", `{"category":"Food","amount":"120"}`, &b)
	if rec.Code != http.StatusCreated || b.Period != "monthly" {
		t.Fatalf("create budget status=%d body=%+v", rec.Code, b)
	}

	var u usageView
	ts.do(t, http.MethodGet, "/api/budgets/"+b.ID+"/usage", "alice", "", &u)
	if u.Spent.Cents != 3000 || u.Remaining.Cents != 9000 || u.Percentage == nil || *u.Percentage != 25 {
		t.Fatalf("usage = %+v", u)
	}
	if u.WindowStart == nil || !u.WindowStart.Equal(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("window start = %v", u.WindowStart)
	}

	ts.do(t, http.MethodGet, "/api/budgets/"+b.ID+"/usage?at=2024-02-28T12:00:00Z", "alice", "", &u)
	if u.Spent.Cents != 9900 || u.IsOverBudget {
		t.Fatalf("february usage = %+v", u)
	}

	if rec := ts.do(t, http.MethodGet, "/api/budgets/"+b.ID+"/usage?at=tomorrow", "alice", "", nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad at status=%d", rec.Code)
	}
	if rec := ts.do(t, http.MethodGet, "/api/budgets/"+b.ID+"/usage", "bob", "", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("foreign usage status=%d", rec.Code)
	}

	tests := []struct {
		name string
		body string
	}{
		{"zero amount", `{"category":"Food","amount":"0"}`},
		{"bad period", `{"category":"Food","amount":"10","period":"daily"}`},
		{"no category", `{"amount":"10"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if rec := ts.do(t, http.MethodPost, "/api/budgets", "alice", tt.body, nil); rec.Code != http.StatusUnprocessableEntity {
				t.Fatalf("status=%d", rec.Code)
			}
		})
	}

	rec = ts.do(t, http.MethodPut, "/api/budgets/"+b.ID, "alice", `{"category":"Food","amount":"20","period":"weekly"}`, &b)
	if rec.Code != http.StatusOK || b.Period != "weekly" {
		t.Fatalf("update status=%d body=%+v", rec.Code, b)
	}

	var list struct {
		Budgets []usageView `json:"budgets"`
	}
	ts.do(t, http.MethodGet, "/api/budgets", "alice", "", &list)
	// week of Sunday March 10
	if len(list.Budgets) != 1 || list.Budgets[0].Spent.Cents != 0 {
		t.Fatalf("budgets = %+v", list.Budgets)
	}

	if rec := ts.do(t, http.MethodDelete, "/api/budgets/"+b.ID, "alice", "", nil); rec.Code != http.StatusNoContent {
		t.Fatalf("delete status=%d", rec.Code)
	}
}

func TestCategoryCacheAndSessionInvalidation(t *testing.T) {
	ts := newTestServer(t, Options{})

	var list struct {
		Categories []categoryView `json:"categories"`
	}
	ts.do(t, http.MethodGet, "/api/categories", "alice", "", &list)
	if len(list.Categories) != len(core.DefaultCategories) {
		t.Fatalf("got %d categories", len(list.Categories))
	}

	// written behind the server's back: the cached list stays until sign-in
	if _, err := ts.store.CreateCategory(context.Background(), "alice", core.Category{Name: "Pets", Type: core.Expense}); err != nil {
		t.Fatal(err)
	}
	ts.do(t, http.MethodGet, "/api/categories", "alice", "", &list)
	if len(list.Categories) != len(core.DefaultCategories) {
		t.Fatalf("expected cached list, got %d", len(list.Categories))
	}

	rec := ts.do(t, http.MethodPost, "/session", "", `{"id_token":"alice"}`, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("session status=%d", rec.Code)
	}
	ts.do(t, http.MethodGet, "/api/categories", "alice", "", &list)
	if len(list.Categories) != 1 || list.Categories[0].Name != "Pets" {
		t.Fatalf("expected reload after sign-in, got %+v", list.Categories)
	}

	var created categoryView
	rec = ts.do(t, http.MethodPost, "/api/categories", "alice", `{"name":"Freelance","type":"income"}`, &created)
	if rec.Code != http.StatusCreated || created.Type != "income" {
		t.Fatalf("create status=%d body=%+v", rec.Code, created)
	}
	if rec := ts.do(t, http.MethodPost, "/api/categories", "alice", `{"name":"Freelance"}`, nil); rec.Code != http.StatusConflict {
		t.Fatalf("duplicate status=%d", rec.Code)
	}
	ts.do(t, http.MethodGet, "/api/categories", "alice", "", &list)
	if len(list.Categories) != 2 {
		t.Fatalf("create should invalidate the cache, got %+v", list.Categories)
	}
}

func TestSessionCookieLifecycle(t *testing.T) {
	ts := newTestServer(t, Options{SessionTTL: time.Hour})
	var changes []auth.StateChange
	ts.notifier.Subscribe(func(c auth.StateChange) { changes = append(changes, c) })

	if rec := ts.do(t, http.MethodPost, "/session", "", `{"id_token":"mallory"}`, nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad token status=%d", rec.Code)
	}
	if rec := ts.do(t, http.MethodPost, "/session", "", `{}`, nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("missing token status=%d", rec.Code)
	}

	rec := ts.do(t, http.MethodPost, "/session", "", `{"id_token":"bob"}`, nil)
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != sessionCookieName || !cookies[0].HttpOnly || cookies[0].MaxAge != 3600 {
		t.Fatalf("unexpected cookies %+v", cookies)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/summary", nil)
	req.AddCookie(cookies[0])
	got := httptest.NewRecorder()
	ts.Handler.ServeHTTP(got, req)
	if got.Code != http.StatusOK {
		t.Fatalf("cookie auth status=%d", got.Code)
	}

	req = httptest.NewRequest(http.MethodDelete, "/session", nil)
	req.AddCookie(cookies[0])
	got = httptest.NewRecorder()
	ts.Handler.ServeHTTP(got, req)
	if got.Code != http.StatusNoContent || got.Result().Cookies()[0].MaxAge != -1 {
		t.Fatalf("sign-out status=%d cookies=%+v", got.Code, got.Result().Cookies())
	}

	if len(changes) != 2 || !changes[0].SignedIn || changes[1].SignedIn || changes[1].UserID != "bob" {
		t.Fatalf("state changes = %+v", changes)
	}
}

func TestSummaryEndpoint(t *testing.T) {
	ts := newTestServer(t, Options{Currency: "EUR"})
	for _, body := range []string{
		`{"title":"Pay","amount":"1000","date":"2024-03-01","category":"Salary","type":"income"}`,
		`{"title":"Rent","amount":"600","date":"2024-03-02","category":"Housing"}`,
		`{"title":"Food","amount":"150","date":"2024-03-03","category":"Food"}`,
		`{"title":"Cinema","amount":"50","date":"2024-03-04","category":"Entertainment"}`,
		`{"title":"Bus","amount":"20","date":"2024-03-05","category":"Transport"}`,
		`{"title":"Snack","amount":"5","date":"2024-03-06","category":"Food"}`,
	} {
		if rec := ts.do(t, http.MethodPost, "/api/transactions", "alice", body, nil); rec.Code != http.StatusCreated {
			t.Fatalf("seed status=%d %s", rec.Code, rec.Body.String())
		}
	}

	var sum summaryView
	ts.do(t, http.MethodGet, "/api/summary", "alice", "", &sum)
	if sum.TotalIncome.Cents != 100000 || sum.TotalExpenses.Cents != 82500 || sum.Balance.Value != "175.00" {
		t.Fatalf("totals = %+v", sum)
	}
	if len(sum.ByCategory) != 4 || sum.ByCategory[0].Name != "Housing" || sum.ByCategory[1].Amount.Cents != 15500 {
		t.Fatalf("breakdown = %+v", sum.ByCategory)
	}
	if len(sum.Recent) != services.RecentLimit || sum.Recent[0].Title != "Snack" {
		t.Fatalf("recent = %+v", sum.Recent)
	}
	if !strings.Contains(sum.Balance.Display, "175") {
		t.Fatalf("display = %q", sum.Balance.Display)
	}
}

func TestRateLimitOnMutations(t *testing.T) {
	ts := newTestServer(t, Options{RateLimitPerMinute: 1})
	body := `{"title":"x","amount":"1","date":"2024-01-01"}`
	if rec := ts.do(t, http.MethodPost, "/api/transactions", "alice", body, nil); rec.Code != http.StatusCreated {
		t.Fatalf("first status=%d", rec.Code)
	}
	rec := ts.do(t, http.MethodPost, "/api/transactions", "alice", body, nil)
	if rec.Code != http.StatusTooManyRequests || rec.Header().Get("Retry-After") != "60" {
		t.Fatalf("second status=%d", rec.Code)
	}
	if rec := ts.do(t, http.MethodGet, "/api/transactions", "alice", "", nil); rec.Code != http.StatusOK {
		t.Fatalf("reads are not limited, status=%d", rec.Code)
	}
}

func TestSuspiciousRequestRejected(t *testing.T) {
	ts := newTestServer(t, Options{})
	rec := ts.do(t, http.MethodGet, "/.env", "", "", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status=%d", rec.Code)
	}
	if rec := ts.do(t, http.MethodGet, "/healthz", "", "", nil); rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Fatal("security headers missing")
	}
}

func TestJSONResponseBuilder(t *testing.T) {
	rec := httptest.NewRecorder()
	NewJSONResponse().Status(http.StatusAccepted).Header("X-Test", "1").Data(map[string]int{"n": 1}).Write(rec)
	if rec.Code != http.StatusAccepted || rec.Header().Get("X-Test") != "1" ||
		!bytes.Contains(rec.Body.Bytes(), []byte(`"n":1`)) {
		t.Fatalf("unexpected response %d %v %s", rec.Code, rec.Header(), rec.Body.String())
	}

	rec = httptest.NewRecorder()
	NewJSONResponse().Status(http.StatusNoContent).Write(rec)
	if rec.Body.Len() != 0 || rec.Header().Get("Content-Type") != "" {
		t.Fatal("empty response should have no body")
	}
}
