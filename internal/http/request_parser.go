package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"fintrack/internal/core"
)

const maxBodyBytes = 1 << 20

// errBadRequest marks payloads that could not be decoded at all.
var errBadRequest = errors.New("malformed request body")

// amountInput accepts a JSON number or string ("12.34", "12,34").
type amountInput string

func (a *amountInput) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*a = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*a = amountInput(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("amount must be a number or a decimal string")
	}
	*a = amountInput(n.String())
	return nil
}

type transactionRequest struct {
	Title    string      `json:"title"`
	Amount   amountInput `json:"amount"`
	Date     string      `json:"date"`
	Category string      `json:"category"`
	Type     string      `json:"type"`
	Notes    string      `json:"notes"`
}

type budgetRequest struct {
	Category string      `json:"category"`
	Amount   amountInput `json:"amount"`
	Period   string      `json:"period"`
}

type categoryRequest struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

type sessionRequest struct {
	IDToken string `json:"id_token"`
}

// decodeJSON reads one JSON object from the body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: trailing data", errBadRequest)
	}
	return nil
}

func (req transactionRequest) toTransaction(loc *time.Location) (core.Transaction, error) {
	amount, err := core.ParseAmount(string(req.Amount))
	if err != nil {
		return core.Transaction{}, err
	}
	t := core.Transaction{
		Title:    sanitizeInput(req.Title),
		Amount:   amount,
		Category: sanitizeInput(req.Category),
		Notes:    sanitizeInput(req.Notes),
	}
	if strings.TrimSpace(req.Type) != "" {
		if t.Type, err = core.ParseTransactionType(req.Type); err != nil {
			return core.Transaction{}, err
		}
	}
	if strings.TrimSpace(req.Date) == "" {
		return core.Transaction{}, core.ErrMissingDate
	}
	if t.Date, err = parseDate(req.Date, loc); err != nil {
		return core.Transaction{}, fmt.Errorf("%w: %q", core.ErrMissingDate, req.Date)
	}
	return t, nil
}

func (req budgetRequest) toBudget() (core.Budget, error) {
	amount, err := core.ParsePositiveAmount(string(req.Amount))
	if err != nil {
		return core.Budget{}, err
	}
	b := core.Budget{Category: sanitizeInput(req.Category), Amount: amount}
	if strings.TrimSpace(req.Period) != "" {
		if b.Period, err = core.ParsePeriod(req.Period); err != nil {
			return core.Budget{}, err
		}
	}
	return b, nil
}

func (req categoryRequest) toCategory() (core.Category, error) {
	c := core.Category{Name: sanitizeInput(req.Name)}
	if strings.TrimSpace(req.Type) != "" {
		var err error
		if c.Type, err = core.ParseTransactionType(req.Type); err != nil {
			return core.Category{}, err
		}
	}
	return c, nil
}

// parseQuery builds a transaction query from ?type, ?q and ?sort.
func parseQuery(r *http.Request) (core.Query, error) {
	v := r.URL.Query()
	q := core.Query{
		Search: strings.TrimSpace(v.Get("q")),
		Sort:   core.SortOrder(strings.TrimSpace(v.Get("sort"))),
	}
	if t := strings.TrimSpace(v.Get("type")); t != "" && t != "all" {
		typ, err := core.ParseTransactionType(t)
		if err != nil {
			return core.Query{}, err
		}
		q.Type = typ
	}
	return q, nil
}

// parseLimit reads a positive ?limit, returning def when absent.
func parseLimit(r *http.Request, def int) int {
	if n, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && n > 0 {
		return n
	}
	return def
}
