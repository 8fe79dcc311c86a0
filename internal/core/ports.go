package core

import (
	"context"

	"github.com/google/uuid"
)

// Ports for persistence adapters. Every lookup is scoped by the owning user;
// a missing record is reported as (nil, nil).
type (
	ExpenseRepository interface {
		GetByIDAndUserID(ctx context.Context, id, userID uuid.UUID) (*Expense, error)
		GetAllByUserID(ctx context.Context, userID uuid.UUID) ([]Expense, error)
		Add(ctx context.Context, e *Expense) error
		Save(ctx context.Context, e *Expense) error
		Delete(ctx context.Context, e *Expense) error
	}

	ExpenseCategoryRepository interface {
		GetByIDAndUserID(ctx context.Context, id, userID uuid.UUID) (*ExpenseCategory, error)
		GetByNameAndUserID(ctx context.Context, name string, userID uuid.UUID) (*ExpenseCategory, error)
		GetAllByUserID(ctx context.Context, userID uuid.UUID) ([]ExpenseCategory, error)
		Add(ctx context.Context, c *ExpenseCategory) error
		Save(ctx context.Context, c *ExpenseCategory) error
		Delete(ctx context.Context, c *ExpenseCategory) error
	}

	UserRepository interface {
		GetByEmail(ctx context.Context, email string) (*User, error)
		Add(ctx context.Context, u *User) error
	}

	// Repositories is the set of repositories bound to one transaction.
	Repositories interface {
		Expenses() ExpenseRepository
		Categories() ExpenseCategoryRepository
		Users() UserRepository
	}

	// Store runs fn inside a single storage transaction. The transaction is
	// committed when fn returns nil and rolled back otherwise.
	Store interface {
		WithinTx(ctx context.Context, fn func(Repositories) error) error
		Ping(ctx context.Context) error
		Close() error
	}
)
