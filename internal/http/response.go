package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"cashly/internal/core"
)

const maxBodyBytes = 1 << 20

type messageResponse struct {
	Message string `json:"message"`
}

type categoryResponse struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Color string    `json:"color"`
}

type expenseResponse struct {
	ID              uuid.UUID         `json:"id"`
	Amount          json.Number       `json:"amount"`
	RealisedDate    core.Date         `json:"realised_date"`
	ExpenseCategory *categoryResponse `json:"expense_category"`
}

type categoryRequest struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

type expenseRequest struct {
	Amount            json.Number `json:"amount"`
	RealisedDate      string      `json:"realised_date"`
	ExpenseCategoryID *string     `json:"expense_category_id"`
}

func newCategoryResponse(c core.ExpenseCategory) categoryResponse {
	return categoryResponse{ID: c.ID, Name: c.Name, Color: c.Color}
}

func newExpenseResponse(e core.Expense) expenseResponse {
	resp := expenseResponse{
		ID:           e.ID,
		Amount:       json.Number(e.Amount.StringFixed(2)),
		RealisedDate: e.RealisedDate,
	}
	if e.Category != nil {
		c := newCategoryResponse(*e.Category)
		resp.ExpenseCategory = &c
	}
	return resp
}

// errBadJSON marks request bodies that cannot be decoded.
var errBadJSON = errors.New("invalid JSON body")

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: empty body", errBadJSON)
		}
		return fmt.Errorf("%w: %v", errBadJSON, err)
	}
	if dec.More() {
		return fmt.Errorf("%w: trailing data", errBadJSON)
	}
	return nil
}

// parsedExpense holds the validated fields of an expense request.
type parsedExpense struct {
	amount     decimal.Decimal
	date       core.Date
	categoryID *uuid.UUID
}

func (req expenseRequest) parse() (parsedExpense, error) {
	var out parsedExpense

	amount, err := core.ParseAmount(req.Amount.String())
	if err != nil {
		return out, core.NewValidationError("amount", err)
	}
	date, err := core.ParseDate(req.RealisedDate)
	if err != nil {
		return out, core.NewValidationError("realised_date", core.ErrInvalidDate)
	}
	out.amount = amount
	out.date = date

	if req.ExpenseCategoryID != nil && strings.TrimSpace(*req.ExpenseCategoryID) != "" {
		id := parseID(*req.ExpenseCategoryID)
		out.categoryID = &id
	}
	return out, nil
}

// parseID maps malformed identifiers to uuid.Nil, which never matches a
// stored record.
func parseID(s string) uuid.UUID {
	id, err := uuid.Parse(strings.TrimSpace(s))
	if err != nil {
		return uuid.Nil
	}
	return id
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, messageResponse{Message: msg})
}
