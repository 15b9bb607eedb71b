package storage

import (
	"context"
)

const createTransaction = `
INSERT INTO transactions (id, user_id, title, amount_cents, occurred_at, category, type, notes, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

func (q *Queries) CreateTransaction(ctx context.Context, arg Transaction) error {
	_, err := q.db.ExecContext(ctx, createTransaction,
		arg.ID,
		arg.UserID,
		arg.Title,
		arg.AmountCents,
		arg.OccurredAt,
		arg.Category,
		arg.Type,
		arg.Notes,
		arg.CreatedAt,
		arg.UpdatedAt,
	)
	return err
}

const updateTransaction = `
UPDATE transactions
SET title = ?, amount_cents = ?, occurred_at = ?, category = ?, type = ?, notes = ?, updated_at = ?
WHERE id = ? AND user_id = ?
`

func (q *Queries) UpdateTransaction(ctx context.Context, arg Transaction) (int64, error) {
	res, err := q.db.ExecContext(ctx, updateTransaction,
		arg.Title,
		arg.AmountCents,
		arg.OccurredAt,
		arg.Category,
		arg.Type,
		arg.Notes,
		arg.UpdatedAt,
		arg.ID,
		arg.UserID,
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const deleteTransaction = `DELETE FROM transactions WHERE id = ? AND user_id = ?`

func (q *Queries) DeleteTransaction(ctx context.Context, id, userID string) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteTransaction, id, userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const listTransactions = `
SELECT id, user_id, title, amount_cents, occurred_at, category, type, notes, created_at, updated_at
FROM transactions
WHERE user_id = ?
ORDER BY occurred_at DESC, id ASC
`

func (q *Queries) ListTransactions(ctx context.Context, userID string) ([]Transaction, error) {
	rows, err := q.db.QueryContext(ctx, listTransactions, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Transaction
	for rows.Next() {
		var i Transaction
		if err := rows.Scan(
			&i.ID,
			&i.UserID,
			&i.Title,
			&i.AmountCents,
			&i.OccurredAt,
			&i.Category,
			&i.Type,
			&i.Notes,
			&i.CreatedAt,
			&i.UpdatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const createBudget = `
INSERT INTO budgets (id, user_id, category, amount_cents, period, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
`

func (q *Queries) CreateBudget(ctx context.Context, arg Budget) error {
	_, err := q.db.ExecContext(ctx, createBudget,
		arg.ID,
		arg.UserID,
		arg.Category,
		arg.AmountCents,
		arg.Period,
		arg.CreatedAt,
		arg.UpdatedAt,
	)
	return err
}

const updateBudget = `
UPDATE budgets
SET category = ?, amount_cents = ?, period = ?, updated_at = ?
WHERE id = ? AND user_id = ?
`

func (q *Queries) UpdateBudget(ctx context.Context, arg Budget) (int64, error) {
	res, err := q.db.ExecContext(ctx, updateBudget,
		arg.Category,
		arg.AmountCents,
		arg.Period,
		arg.UpdatedAt,
		arg.ID,
		arg.UserID,
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const deleteBudget = `DELETE FROM budgets WHERE id = ? AND user_id = ?`

func (q *Queries) DeleteBudget(ctx context.Context, id, userID string) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteBudget, id, userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const listBudgets = `
SELECT id, user_id, category, amount_cents, period, created_at, updated_at
FROM budgets
WHERE user_id = ?
ORDER BY created_at ASC, id ASC
`

func (q *Queries) ListBudgets(ctx context.Context, userID string) ([]Budget, error) {
	rows, err := q.db.QueryContext(ctx, listBudgets, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Budget
	for rows.Next() {
		var i Budget
		if err := rows.Scan(
			&i.ID,
			&i.UserID,
			&i.Category,
			&i.AmountCents,
			&i.Period,
			&i.CreatedAt,
			&i.UpdatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const createCategory = `INSERT INTO categories (id, user_id, name, type) VALUES (?, ?, ?, ?)`

func (q *Queries) CreateCategory(ctx context.Context, arg Category) error {
	_, err := q.db.ExecContext(ctx, createCategory, arg.ID, arg.UserID, arg.Name, arg.Type)
	return err
}

const countCategoryByName = `SELECT COUNT(*) FROM categories WHERE user_id = ? AND name = ?`

func (q *Queries) CountCategoryByName(ctx context.Context, userID, name string) (int64, error) {
	row := q.db.QueryRowContext(ctx, countCategoryByName, userID, name)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const listCategories = `
SELECT id, user_id, name, type
FROM categories
WHERE user_id = ?
ORDER BY name ASC
`

func (q *Queries) ListCategories(ctx context.Context, userID string) ([]Category, error) {
	rows, err := q.db.QueryContext(ctx, listCategories, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Category
	for rows.Next() {
		var i Category
		if err := rows.Scan(&i.ID, &i.UserID, &i.Name, &i.Type); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
