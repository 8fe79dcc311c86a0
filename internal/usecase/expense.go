package usecase

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"cashly/internal/core"
)

type GetAllExpensesInput struct {
	User core.User
}

type GetAllExpensesOutput struct {
	Expenses []core.Expense
}

type GetAllExpenses struct {
	store core.Store
}

func NewGetAllExpenses(store core.Store) *GetAllExpenses {
	return &GetAllExpenses{store: store}
}

func (uc *GetAllExpenses) Execute(ctx context.Context, in GetAllExpensesInput) (GetAllExpensesOutput, error) {
	var out GetAllExpensesOutput
	err := uc.store.WithinTx(ctx, func(repos core.Repositories) error {
		expenses, err := repos.Expenses().GetAllByUserID(ctx, in.User.ID)
		if err != nil {
			return err
		}
		out.Expenses = expenses
		return nil
	})
	return out, err
}

type GetExpenseInput struct {
	ExpenseID uuid.UUID
	User      core.User
}

type GetExpenseOutput struct {
	Expense core.Expense
}

type GetExpense struct {
	store core.Store
}

func NewGetExpense(store core.Store) *GetExpense {
	return &GetExpense{store: store}
}

func (uc *GetExpense) Execute(ctx context.Context, in GetExpenseInput) (GetExpenseOutput, error) {
	var out GetExpenseOutput
	err := uc.store.WithinTx(ctx, func(repos core.Repositories) error {
		existing, err := repos.Expenses().GetByIDAndUserID(ctx, in.ExpenseID, in.User.ID)
		if err != nil {
			return err
		}
		if existing == nil {
			return core.ErrExpenseNotFound
		}
		out.Expense = *existing
		return nil
	})
	return out, err
}

type CreateExpenseInput struct {
	User              core.User
	Amount            decimal.Decimal
	RealisedDate      core.Date
	ExpenseCategoryID *uuid.UUID
}

type CreateExpenseOutput struct {
	Expense core.Expense
}

type CreateExpense struct {
	store  core.Store
	events EventPublisher
}

func NewCreateExpense(store core.Store, events EventPublisher) *CreateExpense {
	return &CreateExpense{store: store, events: events}
}

func (uc *CreateExpense) Execute(ctx context.Context, in CreateExpenseInput) (CreateExpenseOutput, error) {
	var out CreateExpenseOutput
	err := uc.store.WithinTx(ctx, func(repos core.Repositories) error {
		category, err := lookupCategory(ctx, repos, in.ExpenseCategoryID, in.User.ID)
		if err != nil {
			return err
		}

		expense := core.NewExpense(in.User.ID, core.RoundAmount(in.Amount), in.RealisedDate, category)
		if err := expense.Validate(); err != nil {
			return err
		}
		if err := repos.Expenses().Add(ctx, expense); err != nil {
			return err
		}
		out.Expense = *expense
		return nil
	})
	if err != nil {
		return CreateExpenseOutput{}, err
	}

	publish(ctx, uc.events, core.EntityExpense, core.ActionCreated, out.Expense.ID, in.User.ID)
	return out, nil
}

type UpdateExpenseInput struct {
	ExpenseID         uuid.UUID
	User              core.User
	Amount            decimal.Decimal
	RealisedDate      core.Date
	ExpenseCategoryID *uuid.UUID
}

type UpdateExpenseOutput struct {
	Expense core.Expense
}

type UpdateExpense struct {
	store  core.Store
	events EventPublisher
}

func NewUpdateExpense(store core.Store, events EventPublisher) *UpdateExpense {
	return &UpdateExpense{store: store, events: events}
}

func (uc *UpdateExpense) Execute(ctx context.Context, in UpdateExpenseInput) (UpdateExpenseOutput, error) {
	var out UpdateExpenseOutput
	err := uc.store.WithinTx(ctx, func(repos core.Repositories) error {
		existing, err := repos.Expenses().GetByIDAndUserID(ctx, in.ExpenseID, in.User.ID)
		if err != nil {
			return err
		}
		if existing == nil {
			return core.ErrExpenseNotFound
		}

		category, err := lookupCategory(ctx, repos, in.ExpenseCategoryID, in.User.ID)
		if err != nil {
			return err
		}

		existing.Amount = core.RoundAmount(in.Amount)
		existing.RealisedDate = in.RealisedDate
		existing.Category = category
		if err := existing.Validate(); err != nil {
			return err
		}
		if err := repos.Expenses().Save(ctx, existing); err != nil {
			return err
		}
		out.Expense = *existing
		return nil
	})
	if err != nil {
		return UpdateExpenseOutput{}, err
	}

	publish(ctx, uc.events, core.EntityExpense, core.ActionUpdated, out.Expense.ID, in.User.ID)
	return out, nil
}

type DeleteExpenseInput struct {
	ExpenseID uuid.UUID
	User      core.User
}

type DeleteExpense struct {
	store  core.Store
	events EventPublisher
}

func NewDeleteExpense(store core.Store, events EventPublisher) *DeleteExpense {
	return &DeleteExpense{store: store, events: events}
}

func (uc *DeleteExpense) Execute(ctx context.Context, in DeleteExpenseInput) error {
	err := uc.store.WithinTx(ctx, func(repos core.Repositories) error {
		existing, err := repos.Expenses().GetByIDAndUserID(ctx, in.ExpenseID, in.User.ID)
		if err != nil {
			return err
		}
		if existing == nil {
			return core.ErrExpenseNotFound
		}
		return repos.Expenses().Delete(ctx, existing)
	})
	if err != nil {
		return err
	}

	publish(ctx, uc.events, core.EntityExpense, core.ActionDeleted, in.ExpenseID, in.User.ID)
	return nil
}

// lookupCategory resolves an optional category reference scoped to the user.
func lookupCategory(ctx context.Context, repos core.Repositories, id *uuid.UUID, userID uuid.UUID) (*core.ExpenseCategory, error) {
	if id == nil {
		return nil, nil
	}
	category, err := repos.Categories().GetByIDAndUserID(ctx, *id, userID)
	if err != nil {
		return nil, err
	}
	if category == nil {
		return nil, core.ErrExpenseCategoryNotFound
	}
	return category, nil
}
