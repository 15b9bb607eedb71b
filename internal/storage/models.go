package storage

type Transaction struct {
	ID          string
	UserID      string
	Title       string
	AmountCents int64
	OccurredAt  string
	Category    string
	Type        string
	Notes       string
	CreatedAt   string
	UpdatedAt   string
}

type Budget struct {
	ID          string
	UserID      string
	Category    string
	AmountCents int64
	Period      string
	CreatedAt   string
	UpdatedAt   string
}

type Category struct {
	ID     string
	UserID string
	Name   string
	Type   string
}
