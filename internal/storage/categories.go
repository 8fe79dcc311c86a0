package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"cashly/internal/core"
)

type categoryRepo struct {
	*repos
}

const selectCategory = `SELECT id, user_id, name, color FROM expense_categories`

func scanCategory(row rowScanner) (core.ExpenseCategory, error) {
	var c core.ExpenseCategory
	err := row.Scan(&c.ID, &c.UserID, &c.Name, &c.Color)
	return c, err
}

func (r *categoryRepo) getOne(ctx context.Context, where string, args ...any) (*core.ExpenseCategory, error) {
	c, err := scanCategory(r.queryRow(ctx, selectCategory+" WHERE "+where, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get expense category: %w", err)
	}
	return &c, nil
}

func (r *categoryRepo) GetByIDAndUserID(ctx context.Context, id, userID uuid.UUID) (*core.ExpenseCategory, error) {
	return r.getOne(ctx, "id = ? AND user_id = ?", id, userID)
}

func (r *categoryRepo) GetByNameAndUserID(ctx context.Context, name string, userID uuid.UUID) (*core.ExpenseCategory, error) {
	return r.getOne(ctx, "name = ? AND user_id = ?", strings.TrimSpace(name), userID)
}

func (r *categoryRepo) GetAllByUserID(ctx context.Context, userID uuid.UUID) ([]core.ExpenseCategory, error) {
	rows, err := r.query(ctx, selectCategory+` WHERE user_id = ? ORDER BY name, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list expense categories: %w", err)
	}
	defer rows.Close()

	out := make([]core.ExpenseCategory, 0)
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan expense category: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate expense categories: %w", err)
	}
	return out, nil
}

func (r *categoryRepo) Add(ctx context.Context, c *core.ExpenseCategory) error {
	_, err := r.exec(ctx,
		`INSERT INTO expense_categories (id, user_id, name, color) VALUES (?, ?, ?, ?)`,
		c.ID, c.UserID, c.Name, c.Color)
	if isUniqueViolation(err) {
		return core.ErrExpenseCategoryNameAlreadyUsed
	}
	if err != nil {
		return fmt.Errorf("insert expense category: %w", err)
	}
	return nil
}

func (r *categoryRepo) Save(ctx context.Context, c *core.ExpenseCategory) error {
	res, err := r.exec(ctx,
		`UPDATE expense_categories SET name = ?, color = ? WHERE id = ? AND user_id = ?`,
		c.Name, c.Color, c.ID, c.UserID)
	if isUniqueViolation(err) {
		return core.ErrExpenseCategoryNameAlreadyUsed
	}
	if err != nil {
		return fmt.Errorf("update expense category: %w", err)
	}
	n, err := affected(res)
	if err != nil {
		return err
	}
	if n == 0 {
		return core.ErrExpenseCategoryNotFound
	}
	return nil
}

// Delete detaches referencing expenses before removing the row, so the
// outcome does not depend on the foreign key action being enforced.
func (r *categoryRepo) Delete(ctx context.Context, c *core.ExpenseCategory) error {
	if _, err := r.exec(ctx, `UPDATE expenses SET category_id = NULL WHERE category_id = ?`, c.ID); err != nil {
		return fmt.Errorf("detach expenses: %w", err)
	}
	if _, err := r.exec(ctx, `DELETE FROM expense_categories WHERE id = ? AND user_id = ?`, c.ID, c.UserID); err != nil {
		return fmt.Errorf("delete expense category: %w", err)
	}
	return nil
}
