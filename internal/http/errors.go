package http

import (
	"errors"
	"net/http"

	"cashly/internal/core"
	"cashly/internal/log"
)

// StatusDomainError is the status of every domain error response.
const StatusDomainError = 419

type operation string

const (
	opCreateCategory operation = "create_expense_category"
	opGetCategory    operation = "get_expense_category"
	opListCategories operation = "list_expense_categories"
	opUpdateCategory operation = "update_expense_category"
	opDeleteCategory operation = "delete_expense_category"
	opCreateExpense  operation = "create_expense"
	opGetExpense     operation = "get_expense"
	opListExpenses   operation = "list_expenses"
	opUpdateExpense  operation = "update_expense"
	opDeleteExpense  operation = "delete_expense"
)

// domainMessages maps each operation's domain errors to the message sent to
// clients.
var domainMessages = map[operation]map[error]string{
	opCreateCategory: {
		core.ErrExpenseCategoryNameAlreadyUsed: "You have tried create expense category name but name is already used",
	},
	opGetCategory: {
		core.ErrExpenseCategoryNotFound: "You have tried get expense category but is not found",
	},
	opUpdateCategory: {
		core.ErrExpenseCategoryNotFound:        "Próbujesz edytować kategorię wydatku, która nie istnieje",
		core.ErrExpenseCategoryNameAlreadyUsed: "You have tried update expense category name but name is already used",
	},
	opDeleteCategory: {
		core.ErrExpenseCategoryNotFound: "You have tried delete expense category but is not found",
	},
	opCreateExpense: {
		core.ErrExpenseCategoryNotFound: "You have tried create expense but expense category id is not found",
	},
	opGetExpense: {
		core.ErrExpenseNotFound: "You have tried get expense but is not found",
	},
	opUpdateExpense: {
		core.ErrExpenseNotFound:         "Próbujesz edytować wydatek, który nie istnieje",
		core.ErrExpenseCategoryNotFound: "Kategoria wydatku nie istnieje",
	},
	opDeleteExpense: {
		core.ErrExpenseNotFound: "You have tried delete expense but is not found",
	},
}

var domainErrors = []error{
	core.ErrExpenseNotFound,
	core.ErrExpenseCategoryNotFound,
	core.ErrExpenseCategoryNameAlreadyUsed,
}

// domainMessage returns the client message for a domain error, or false if
// err is not one.
func domainMessage(op operation, err error) (string, bool) {
	for _, target := range domainErrors {
		if !errors.Is(err, target) {
			continue
		}
		if msg, ok := domainMessages[op][target]; ok {
			return msg, true
		}
		return target.Error(), true
	}
	return "", false
}

// writeError translates a use case error into the response envelope.
func writeError(w http.ResponseWriter, r *http.Request, op operation, err error) {
	logger := log.FromContext(r.Context()).WithComponent(log.ComponentHTTP)
	fields := log.NewFields().WithOperation(string(op))

	if msg, ok := domainMessage(op, err); ok {
		errType := log.ErrorTypeNotFound
		if errors.Is(err, core.ErrExpenseCategoryNameAlreadyUsed) {
			errType = log.ErrorTypeConflict
		}
		logger.InfoContext(r.Context(), "Domain error", fields.WithError(err, errType).ToSlice()...)
		writeMessage(w, StatusDomainError, msg)
		return
	}

	switch {
	case errors.Is(err, errBadJSON):
		logger.InfoContext(r.Context(), "Bad request body", fields.WithError(err, log.ErrorTypeDecode).ToSlice()...)
		writeMessage(w, http.StatusBadRequest, err.Error())
	case core.IsValidation(err):
		logger.InfoContext(r.Context(), "Validation failed", fields.WithError(err, log.ErrorTypeValidation).ToSlice()...)
		writeMessage(w, http.StatusUnprocessableEntity, err.Error())
	default:
		logger.ErrorContext(r.Context(), "Request failed", fields.WithError(err, log.ErrorTypeInternal).ToSlice()...)
		writeMessage(w, http.StatusInternalServerError, "internal server error")
	}
}
