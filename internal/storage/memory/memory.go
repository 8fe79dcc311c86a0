// Package memory is an in-process store used for local runs and tests.
// Transactions work on a copy of the data which replaces the live state on
// commit, so a failed use case leaves nothing behind.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"cashly/internal/core"
)

type expenseRow struct {
	expense    core.Expense
	categoryID *uuid.UUID
}

type state struct {
	users      map[uuid.UUID]core.User
	categories map[uuid.UUID]core.ExpenseCategory
	expenses   map[uuid.UUID]expenseRow
}

func (s *state) clone() *state {
	c := &state{
		users:      make(map[uuid.UUID]core.User, len(s.users)),
		categories: make(map[uuid.UUID]core.ExpenseCategory, len(s.categories)),
		expenses:   make(map[uuid.UUID]expenseRow, len(s.expenses)),
	}
	for k, v := range s.users {
		c.users[k] = v
	}
	for k, v := range s.categories {
		c.categories[k] = v
	}
	for k, v := range s.expenses {
		c.expenses[k] = v
	}
	return c
}

type Store struct {
	mu   sync.Mutex
	data *state
}

var _ core.Store = (*Store)(nil)

func New() *Store {
	return &Store{data: &state{
		users:      map[uuid.UUID]core.User{},
		categories: map[uuid.UUID]core.ExpenseCategory{},
		expenses:   map[uuid.UUID]expenseRow{},
	}}
}

// WithinTx serialises transactions; the working copy is published only when fn succeeds.
func (s *Store) WithinTx(ctx context.Context, fn func(core.Repositories) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.data.clone()
	if err := fn(&repos{st: work}); err != nil {
		return err
	}
	s.data = work
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (s *Store) Close() error {
	return nil
}

type repos struct {
	st *state
}

func (r *repos) Expenses() core.ExpenseRepository           { return expenseRepo{r.st} }
func (r *repos) Categories() core.ExpenseCategoryRepository { return categoryRepo{r.st} }
func (r *repos) Users() core.UserRepository                 { return userRepo{r.st} }

type expenseRepo struct{ st *state }

func (r expenseRepo) hydrate(row expenseRow) core.Expense {
	e := row.expense
	e.Category = nil
	if row.categoryID != nil {
		if c, ok := r.st.categories[*row.categoryID]; ok {
			e.Category = &c
		}
	}
	return e
}

func (r expenseRepo) GetByIDAndUserID(_ context.Context, id, userID uuid.UUID) (*core.Expense, error) {
	row, ok := r.st.expenses[id]
	if !ok || row.expense.UserID != userID {
		return nil, nil
	}
	e := r.hydrate(row)
	return &e, nil
}

func (r expenseRepo) GetAllByUserID(_ context.Context, userID uuid.UUID) ([]core.Expense, error) {
	out := make([]core.Expense, 0)
	for _, row := range r.st.expenses {
		if row.expense.UserID == userID {
			out = append(out, r.hydrate(row))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].RealisedDate.Equal(out[j].RealisedDate.Time) {
			return out[i].RealisedDate.After(out[j].RealisedDate.Time)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

func (r expenseRepo) Add(_ context.Context, e *core.Expense) error {
	r.st.expenses[e.ID] = expenseRow{expense: *e, categoryID: e.CategoryID()}
	return nil
}

func (r expenseRepo) Save(ctx context.Context, e *core.Expense) error {
	if _, ok := r.st.expenses[e.ID]; !ok {
		return core.ErrExpenseNotFound
	}
	return r.Add(ctx, e)
}

func (r expenseRepo) Delete(_ context.Context, e *core.Expense) error {
	delete(r.st.expenses, e.ID)
	return nil
}

type categoryRepo struct{ st *state }

func (r categoryRepo) GetByIDAndUserID(_ context.Context, id, userID uuid.UUID) (*core.ExpenseCategory, error) {
	c, ok := r.st.categories[id]
	if !ok || c.UserID != userID {
		return nil, nil
	}
	return &c, nil
}

func (r categoryRepo) GetByNameAndUserID(ctx context.Context, name string, userID uuid.UUID) (*core.ExpenseCategory, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	for _, c := range r.st.categories {
		if c.UserID == userID && c.Name == name {
			return &c, nil
		}
	}
	return nil, nil
}

func (r categoryRepo) GetAllByUserID(_ context.Context, userID uuid.UUID) ([]core.ExpenseCategory, error) {
	out := make([]core.ExpenseCategory, 0)
	for _, c := range r.st.categories {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

func (r categoryRepo) Add(ctx context.Context, c *core.ExpenseCategory) error {
	existing, err := r.GetByNameAndUserID(ctx, c.Name, c.UserID)
	if err != nil {
		return err
	}
	if existing != nil && existing.ID != c.ID {
		return core.ErrExpenseCategoryNameAlreadyUsed
	}
	r.st.categories[c.ID] = *c
	return nil
}

func (r categoryRepo) Save(ctx context.Context, c *core.ExpenseCategory) error {
	if _, ok := r.st.categories[c.ID]; !ok {
		return core.ErrExpenseCategoryNotFound
	}
	return r.Add(ctx, c)
}

// Delete detaches the category from every expense that referenced it.
func (r categoryRepo) Delete(_ context.Context, c *core.ExpenseCategory) error {
	delete(r.st.categories, c.ID)
	for id, row := range r.st.expenses {
		if row.categoryID != nil && *row.categoryID == c.ID {
			row.categoryID = nil
			r.st.expenses[id] = row
		}
	}
	return nil
}

type userRepo struct{ st *state }

func (r userRepo) GetByEmail(ctx context.Context, email string) (*core.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for _, u := range r.st.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, nil
}

func (r userRepo) Add(ctx context.Context, u *core.User) error {
	existing, err := r.GetByEmail(ctx, u.Email)
	if err != nil {
		return err
	}
	if existing != nil {
		return core.ErrUserAlreadyExists
	}
	r.st.users[u.ID] = *u
	return nil
}
