package usecase

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"cashly/internal/core"
)

type GetAllExpenseCategoriesInput struct {
	User core.User
}

type GetAllExpenseCategoriesOutput struct {
	ExpenseCategories []core.ExpenseCategory
}

type GetAllExpenseCategories struct {
	store core.Store
}

func NewGetAllExpenseCategories(store core.Store) *GetAllExpenseCategories {
	return &GetAllExpenseCategories{store: store}
}

func (uc *GetAllExpenseCategories) Execute(ctx context.Context, in GetAllExpenseCategoriesInput) (GetAllExpenseCategoriesOutput, error) {
	var out GetAllExpenseCategoriesOutput
	err := uc.store.WithinTx(ctx, func(repos core.Repositories) error {
		categories, err := repos.Categories().GetAllByUserID(ctx, in.User.ID)
		if err != nil {
			return err
		}
		out.ExpenseCategories = categories
		return nil
	})
	return out, err
}

type GetExpenseCategoryInput struct {
	ExpenseCategoryID uuid.UUID
	User              core.User
}

type GetExpenseCategoryOutput struct {
	ExpenseCategory core.ExpenseCategory
}

type GetExpenseCategory struct {
	store core.Store
}

func NewGetExpenseCategory(store core.Store) *GetExpenseCategory {
	return &GetExpenseCategory{store: store}
}

func (uc *GetExpenseCategory) Execute(ctx context.Context, in GetExpenseCategoryInput) (GetExpenseCategoryOutput, error) {
	var out GetExpenseCategoryOutput
	err := uc.store.WithinTx(ctx, func(repos core.Repositories) error {
		existing, err := repos.Categories().GetByIDAndUserID(ctx, in.ExpenseCategoryID, in.User.ID)
		if err != nil {
			return err
		}
		if existing == nil {
			return core.ErrExpenseCategoryNotFound
		}
		out.ExpenseCategory = *existing
		return nil
	})
	return out, err
}

type CreateExpenseCategoryInput struct {
	User  core.User
	Name  string
	Color string
}

type CreateExpenseCategoryOutput struct {
	ExpenseCategory core.ExpenseCategory
}

type CreateExpenseCategory struct {
	store  core.Store
	events EventPublisher
}

func NewCreateExpenseCategory(store core.Store, events EventPublisher) *CreateExpenseCategory {
	return &CreateExpenseCategory{store: store, events: events}
}

func (uc *CreateExpenseCategory) Execute(ctx context.Context, in CreateExpenseCategoryInput) (CreateExpenseCategoryOutput, error) {
	var out CreateExpenseCategoryOutput
	err := uc.store.WithinTx(ctx, func(repos core.Repositories) error {
		category := core.NewExpenseCategory(in.User.ID, in.Name, in.Color)
		if err := category.Validate(); err != nil {
			return err
		}

		existing, err := repos.Categories().GetByNameAndUserID(ctx, category.Name, in.User.ID)
		if err != nil {
			return err
		}
		if existing != nil {
			return core.ErrExpenseCategoryNameAlreadyUsed
		}

		if err := repos.Categories().Add(ctx, category); err != nil {
			return err
		}
		out.ExpenseCategory = *category
		return nil
	})
	if err != nil {
		return CreateExpenseCategoryOutput{}, err
	}

	publish(ctx, uc.events, core.EntityExpenseCategory, core.ActionCreated, out.ExpenseCategory.ID, in.User.ID)
	return out, nil
}

type UpdateExpenseCategoryInput struct {
	ExpenseCategoryID uuid.UUID
	User              core.User
	Name              string
	Color             string
}

type UpdateExpenseCategoryOutput struct {
	ExpenseCategory core.ExpenseCategory
}

type UpdateExpenseCategory struct {
	store  core.Store
	events EventPublisher
}

func NewUpdateExpenseCategory(store core.Store, events EventPublisher) *UpdateExpenseCategory {
	return &UpdateExpenseCategory{store: store, events: events}
}

func (uc *UpdateExpenseCategory) Execute(ctx context.Context, in UpdateExpenseCategoryInput) (UpdateExpenseCategoryOutput, error) {
	var out UpdateExpenseCategoryOutput
	err := uc.store.WithinTx(ctx, func(repos core.Repositories) error {
		existing, err := repos.Categories().GetByIDAndUserID(ctx, in.ExpenseCategoryID, in.User.ID)
		if err != nil {
			return err
		}
		if existing == nil {
			return core.ErrExpenseCategoryNotFound
		}

		existing.Name = strings.TrimSpace(in.Name)
		existing.Color = strings.TrimSpace(in.Color)
		if err := existing.Validate(); err != nil {
			return err
		}

		// Renaming onto another category's name would break per-user uniqueness.
		clash, err := repos.Categories().GetByNameAndUserID(ctx, existing.Name, in.User.ID)
		if err != nil {
			return err
		}
		if clash != nil && clash.ID != existing.ID {
			return core.ErrExpenseCategoryNameAlreadyUsed
		}

		if err := repos.Categories().Save(ctx, existing); err != nil {
			return err
		}
		out.ExpenseCategory = *existing
		return nil
	})
	if err != nil {
		return UpdateExpenseCategoryOutput{}, err
	}

	publish(ctx, uc.events, core.EntityExpenseCategory, core.ActionUpdated, out.ExpenseCategory.ID, in.User.ID)
	return out, nil
}

type DeleteExpenseCategoryInput struct {
	ExpenseCategoryID uuid.UUID
	User              core.User
}

type DeleteExpenseCategoryOutput struct {
	ExpenseCategory core.ExpenseCategory
}

type DeleteExpenseCategory struct {
	store  core.Store
	events EventPublisher
}

func NewDeleteExpenseCategory(store core.Store, events EventPublisher) *DeleteExpenseCategory {
	return &DeleteExpenseCategory{store: store, events: events}
}

func (uc *DeleteExpenseCategory) Execute(ctx context.Context, in DeleteExpenseCategoryInput) (DeleteExpenseCategoryOutput, error) {
	var out DeleteExpenseCategoryOutput
	err := uc.store.WithinTx(ctx, func(repos core.Repositories) error {
		existing, err := repos.Categories().GetByIDAndUserID(ctx, in.ExpenseCategoryID, in.User.ID)
		if err != nil {
			return err
		}
		if existing == nil {
			return core.ErrExpenseCategoryNotFound
		}
		if err := repos.Categories().Delete(ctx, existing); err != nil {
			return err
		}
		out.ExpenseCategory = *existing
		return nil
	})
	if err != nil {
		return DeleteExpenseCategoryOutput{}, err
	}

	publish(ctx, uc.events, core.EntityExpenseCategory, core.ActionDeleted, out.ExpenseCategory.ID, in.User.ID)
	return out, nil
}
