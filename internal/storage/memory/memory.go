package memory

import (
	"bufio"
	"cmp"
	"context"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"fintrack/internal/core"
	"fintrack/internal/ports"
)

var _ ports.Repository = (*Store)(nil)

// Store keeps every record in process memory. It is safe for concurrent use.
type Store struct {
	mu           sync.Mutex
	transactions map[string]core.Transaction
	budgets      map[string]core.Budget
	categories   map[string]core.Category
	seed         []core.Category
	now          func() time.Time
}

// New returns an empty store. seed categories are offered to users
// who have not created any category of their own.
func New(seed []core.Category) *Store {
	return &Store{
		transactions: make(map[string]core.Transaction),
		budgets:      make(map[string]core.Budget),
		categories:   make(map[string]core.Category),
		seed:         dedupe(seed),
		now:          time.Now,
	}
}

// NewFromFiles seeds categories from base/seed_categories.txt.
// Each line is "Name" (an expense category) or "Name,income".
func NewFromFiles(base string) *Store {
	var seed []core.Category
	for _, line := range readLines(filepath.Join(base, "seed_categories.txt")) {
		name, kind, _ := strings.Cut(line, ",")
		typ, err := core.ParseTransactionType(kind)
		if err != nil {
			typ = core.Expense
		}
		seed = append(seed, core.Category{Name: strings.TrimSpace(name), Type: typ})
	}
	if len(seed) == 0 {
		seed = core.DefaultCategorySet()
	}
	return New(seed)
}

func (s *Store) CreateTransaction(_ context.Context, userID string, t core.Transaction) (string, error) {
	t.Normalize()
	if err := t.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	t.ID = uuid.NewString()
	t.UserID = userID
	t.CreatedAt, t.UpdatedAt = now, now
	s.transactions[t.ID] = t
	return t.ID, nil
}

func (s *Store) UpdateTransaction(_ context.Context, userID string, t core.Transaction) error {
	t.Normalize()
	if err := t.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.transactions[t.ID]
	if !ok || old.UserID != userID {
		return ports.ErrNotFound
	}
	t.UserID = userID
	t.CreatedAt = old.CreatedAt
	t.UpdatedAt = s.now()
	s.transactions[t.ID] = t
	return nil
}

func (s *Store) DeleteTransaction(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.transactions[id]
	if !ok || old.UserID != userID {
		return ports.ErrNotFound
	}
	delete(s.transactions, id)
	return nil
}

func (s *Store) LoadTransactions(_ context.Context, userID string) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Transaction, 0)
	for _, t := range s.transactions {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	slices.SortFunc(out, func(a, b core.Transaction) int {
		if c := b.Date.Compare(a.Date); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out, nil
}

func (s *Store) CreateBudget(_ context.Context, userID string, b core.Budget) (string, error) {
	b.Normalize()
	if err := b.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	b.ID = uuid.NewString()
	b.UserID = userID
	b.CreatedAt, b.UpdatedAt = now, now
	s.budgets[b.ID] = b
	return b.ID, nil
}

func (s *Store) UpdateBudget(_ context.Context, userID string, b core.Budget) error {
	b.Normalize()
	if err := b.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.budgets[b.ID]
	if !ok || old.UserID != userID {
		return ports.ErrNotFound
	}
	b.UserID = userID
	b.CreatedAt = old.CreatedAt
	b.UpdatedAt = s.now()
	s.budgets[b.ID] = b
	return nil
}

func (s *Store) DeleteBudget(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.budgets[id]
	if !ok || old.UserID != userID {
		return ports.ErrNotFound
	}
	delete(s.budgets, id)
	return nil
}

func (s *Store) LoadBudgets(_ context.Context, userID string) ([]core.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Budget, 0)
	for _, b := range s.budgets {
		if b.UserID == userID {
			out = append(out, b)
		}
	}
	slices.SortFunc(out, func(a, b core.Budget) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out, nil
}

func (s *Store) CreateCategory(_ context.Context, userID string, c core.Category) (string, error) {
	c.Name = strings.TrimSpace(c.Name)
	if err := c.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.categories {
		if existing.UserID == userID && existing.Name == c.Name {
			return "", ports.ErrDuplicateCategory
		}
	}
	c.ID = uuid.NewString()
	c.UserID = userID
	s.categories[c.ID] = c
	return c.ID, nil
}

func (s *Store) LoadCategories(_ context.Context, userID string) ([]core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Category, 0)
	for _, c := range s.categories {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	if len(out) == 0 {
		return slices.Clone(s.seed), nil
	}
	slices.SortFunc(out, func(a, b core.Category) int { return cmp.Compare(a.Name, b.Name) })
	return out, nil
}

func (s *Store) Close() error { return nil }

func readLines(path string) []string {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()
	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	return out
}

// dedupe drops blank and repeated names, preserving input order.
func dedupe(in []core.Category) []core.Category {
	seen := map[string]struct{}{}
	out := make([]core.Category, 0, len(in))
	for _, c := range in {
		c.Name = strings.TrimSpace(c.Name)
		if c.Name == "" {
			continue
		}
		if _, ok := seen[c.Name]; ok {
			continue
		}
		seen[c.Name] = struct{}{}
		out = append(out, c)
	}
	return out
}
