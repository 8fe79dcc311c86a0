package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"cashly/internal/core"
)

type expenseRepo struct {
	*repos
}

// The category join repeats the owner check so a stale foreign reference can
// never surface another user's category.
const selectExpense = `
SELECT e.id, e.user_id, CAST(e.amount AS TEXT), CAST(e.realised_date AS TEXT),
       c.id, c.name, c.color
FROM expenses e
LEFT JOIN expense_categories c ON c.id = e.category_id AND c.user_id = e.user_id`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanExpense(row rowScanner) (core.Expense, error) {
	var (
		e          core.Expense
		amount     string
		date       string
		categoryID uuid.NullUUID
		name       sql.NullString
		color      sql.NullString
	)
	if err := row.Scan(&e.ID, &e.UserID, &amount, &date, &categoryID, &name, &color); err != nil {
		return core.Expense{}, err
	}

	parsedAmount, err := core.ParseAmount(amount)
	if err != nil {
		return core.Expense{}, fmt.Errorf("stored amount %q: %w", amount, err)
	}
	e.Amount = parsedAmount

	parsedDate, err := core.ParseDate(date)
	if err != nil {
		return core.Expense{}, fmt.Errorf("stored date: %w", err)
	}
	e.RealisedDate = parsedDate

	if categoryID.Valid {
		e.Category = &core.ExpenseCategory{
			ID:     categoryID.UUID,
			UserID: e.UserID,
			Name:   name.String,
			Color:  color.String,
		}
	}
	return e, nil
}

func (r *expenseRepo) GetByIDAndUserID(ctx context.Context, id, userID uuid.UUID) (*core.Expense, error) {
	row := r.queryRow(ctx, selectExpense+` WHERE e.id = ? AND e.user_id = ?`, id, userID)
	e, err := scanExpense(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get expense: %w", err)
	}
	return &e, nil
}

func (r *expenseRepo) GetAllByUserID(ctx context.Context, userID uuid.UUID) ([]core.Expense, error) {
	rows, err := r.query(ctx, selectExpense+` WHERE e.user_id = ? ORDER BY e.realised_date DESC, e.id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	out := make([]core.Expense, 0)
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate expenses: %w", err)
	}
	return out, nil
}

func (r *expenseRepo) Add(ctx context.Context, e *core.Expense) error {
	_, err := r.exec(ctx,
		`INSERT INTO expenses (id, user_id, amount, realised_date, category_id) VALUES (?, ?, ?, ?, ?)`,
		e.ID, e.UserID, e.Amount.StringFixed(2), e.RealisedDate.String(), nullableID(e.CategoryID()))
	if err != nil {
		return fmt.Errorf("insert expense: %w", err)
	}
	return nil
}

func (r *expenseRepo) Save(ctx context.Context, e *core.Expense) error {
	res, err := r.exec(ctx,
		`UPDATE expenses SET amount = ?, realised_date = ?, category_id = ? WHERE id = ? AND user_id = ?`,
		e.Amount.StringFixed(2), e.RealisedDate.String(), nullableID(e.CategoryID()), e.ID, e.UserID)
	if err != nil {
		return fmt.Errorf("update expense: %w", err)
	}
	n, err := affected(res)
	if err != nil {
		return err
	}
	if n == 0 {
		return core.ErrExpenseNotFound
	}
	return nil
}

func (r *expenseRepo) Delete(ctx context.Context, e *core.Expense) error {
	if _, err := r.exec(ctx, `DELETE FROM expenses WHERE id = ? AND user_id = ?`, e.ID, e.UserID); err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	return nil
}

func nullableID(id *uuid.UUID) uuid.NullUUID {
	if id == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: *id, Valid: true}
}
