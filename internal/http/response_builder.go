package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/services"
)

// JSONResponseBuilder writes one JSON response.
type JSONResponseBuilder struct {
	statusCode int
	headers    map[string]string
	body       any
}

func NewJSONResponse() *JSONResponseBuilder {
	return &JSONResponseBuilder{statusCode: http.StatusOK, headers: map[string]string{}}
}

func (b *JSONResponseBuilder) Status(code int) *JSONResponseBuilder {
	b.statusCode = code
	return b
}

func (b *JSONResponseBuilder) Header(key, value string) *JSONResponseBuilder {
	b.headers[key] = value
	return b
}

func (b *JSONResponseBuilder) Data(v any) *JSONResponseBuilder {
	b.body = v
	return b
}

func (b *JSONResponseBuilder) Write(w http.ResponseWriter) {
	for k, v := range b.headers {
		w.Header().Set(k, v)
	}
	if b.body == nil {
		w.WriteHeader(b.statusCode)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(b.statusCode)
	if err := json.NewEncoder(w).Encode(b.body); err != nil {
		slog.Error("Failed to encode JSON response", "error", err)
	}
}

// ErrorResponse is a JSON error with the given status.
func ErrorResponse(status int, msg string) *JSONResponseBuilder {
	return NewJSONResponse().Status(status).Data(map[string]string{"error": msg})
}

// amountView carries an exact decimal string plus a display string.
type amountView struct {
	Value   string `json:"value"`
	Cents   int64  `json:"cents"`
	Display string `json:"display"`
}

type transactionView struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Amount    amountView `json:"amount"`
	Date      string     `json:"date"`
	Category  string     `json:"category"`
	Type      string     `json:"type"`
	Notes     string     `json:"notes,omitempty"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
}

type budgetView struct {
	ID       string     `json:"id"`
	Category string     `json:"category"`
	Amount   amountView `json:"amount"`
	Period   string     `json:"period"`
}

type usageView struct {
	Budget       budgetView `json:"budget"`
	WindowStart  *time.Time `json:"window_start,omitempty"`
	WindowEnd    *time.Time `json:"window_end,omitempty"`
	Spent        amountView `json:"spent"`
	Remaining    amountView `json:"remaining"`
	Percentage   *float64   `json:"percentage"`
	IsOverBudget bool       `json:"is_over_budget"`
	Error        string     `json:"error,omitempty"`
}

type categoryView struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
	Type string `json:"type"`
}

type categoryAmountView struct {
	Name   string     `json:"name"`
	Amount amountView `json:"amount"`
	Share  float64    `json:"share"`
}

type summaryView struct {
	TotalIncome   amountView           `json:"total_income"`
	TotalExpenses amountView           `json:"total_expenses"`
	Balance       amountView           `json:"balance"`
	ByCategory    []categoryAmountView `json:"expenses_by_category"`
	Recent        []transactionView    `json:"recent"`
	Budgets       []usageView          `json:"budgets"`
}

// presenter renders domain values in one currency. Calendar dates are shown
// in the zone returned by location, the one request dates are parsed in.
type presenter struct {
	currency string
	location func() *time.Location
}

func (p presenter) date(t time.Time) string {
	loc := time.Local
	if p.location != nil {
		loc = p.location()
	}
	return t.In(loc).Format("2006-01-02")
}

func (p presenter) amount(m core.Money) amountView {
	return amountView{Value: m.Decimal(), Cents: m.Cents, Display: m.Format(p.currency)}
}

func (p presenter) transaction(t core.Transaction) transactionView {
	v := transactionView{
		ID:       t.ID,
		Title:    t.Title,
		Amount:   p.amount(t.Amount),
		Date:     p.date(t.Date),
		Category: t.Category,
		Type:     string(t.Type),
		Notes:    t.Notes,
	}
	if !t.CreatedAt.IsZero() {
		created := t.CreatedAt.UTC()
		v.CreatedAt = &created
	}
	return v
}

func (p presenter) transactions(txs []core.Transaction) []transactionView {
	out := make([]transactionView, 0, len(txs))
	for _, t := range txs {
		out = append(out, p.transaction(t))
	}
	return out
}

func (p presenter) budget(b core.Budget) budgetView {
	return budgetView{ID: b.ID, Category: b.Category, Amount: p.amount(b.Amount), Period: b.Period.String()}
}

func (p presenter) usage(u core.UsageSnapshot, err error) usageView {
	v := usageView{
		Budget:       p.budget(u.Budget),
		Spent:        p.amount(u.Spent),
		Remaining:    p.amount(u.Remaining),
		IsOverBudget: u.IsOverBudget,
	}
	if err != nil {
		v.Error = err.Error()
		return v
	}
	start, end := u.Window.Start, u.Window.End
	v.WindowStart, v.WindowEnd = &start, &end
	if u.HasPercentage() {
		pct := u.Percentage
		v.Percentage = &pct
	}
	return v
}

func (p presenter) statuses(in []services.BudgetStatus) []usageView {
	out := make([]usageView, 0, len(in))
	for _, s := range in {
		out = append(out, p.usage(s.Usage, s.Err))
	}
	return out
}

func (p presenter) categories(cats []core.Category) []categoryView {
	out := make([]categoryView, 0, len(cats))
	for _, c := range cats {
		out = append(out, categoryView{ID: c.ID, Name: c.Name, Type: string(c.Type)})
	}
	return out
}

func (p presenter) dashboard(d services.Dashboard) summaryView {
	v := summaryView{
		TotalIncome:   p.amount(d.Summary.TotalIncome),
		TotalExpenses: p.amount(d.Summary.TotalExpenses),
		Balance:       p.amount(d.Summary.Balance),
		ByCategory:    make([]categoryAmountView, 0, len(d.ByCategory)),
		Recent:        p.transactions(d.Recent),
		Budgets:       p.statuses(d.Budgets),
	}
	for _, c := range d.ByCategory {
		v.ByCategory = append(v.ByCategory, categoryAmountView{Name: c.Name, Amount: p.amount(c.Amount), Share: c.Share})
	}
	return v
}
