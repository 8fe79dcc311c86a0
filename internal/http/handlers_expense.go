package http

import (
	"net/http"

	"cashly/internal/core"
	"cashly/internal/log"
	"cashly/internal/usecase"
)

func logExpense(r *http.Request, msg, op string, e core.Expense) {
	log.FromContext(r.Context()).WithComponent(log.ComponentExpense).InfoContext(r.Context(), msg,
		log.NewFields().
			WithOperation(op).
			WithRecord(string(core.EntityExpense), e.ID.String()).
			ToSlice()...)
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	user, _ := userFromContext(r.Context())

	var req expenseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, opCreateExpense, err)
		return
	}
	in, err := req.parse()
	if err != nil {
		writeError(w, r, opCreateExpense, err)
		return
	}

	out, err := s.createExpense.Execute(r.Context(), usecase.CreateExpenseInput{
		User:              user,
		Amount:            in.amount,
		RealisedDate:      in.date,
		ExpenseCategoryID: in.categoryID,
	})
	if err != nil {
		writeError(w, r, opCreateExpense, err)
		return
	}

	logExpense(r, "Expense created", log.OpCreate, out.Expense)
	writeJSON(w, http.StatusCreated, newExpenseResponse(out.Expense))
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	user, _ := userFromContext(r.Context())

	out, err := s.listExpenses.Execute(r.Context(), usecase.GetAllExpensesInput{User: user})
	if err != nil {
		writeError(w, r, opListExpenses, err)
		return
	}

	resp := make([]expenseResponse, 0, len(out.Expenses))
	for _, e := range out.Expenses {
		resp = append(resp, newExpenseResponse(e))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetExpense(w http.ResponseWriter, r *http.Request) {
	user, _ := userFromContext(r.Context())

	out, err := s.getExpense.Execute(r.Context(), usecase.GetExpenseInput{
		ExpenseID: parseID(r.PathValue("id")),
		User:      user,
	})
	if err != nil {
		writeError(w, r, opGetExpense, err)
		return
	}
	writeJSON(w, http.StatusOK, newExpenseResponse(out.Expense))
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	user, _ := userFromContext(r.Context())

	var req expenseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, opUpdateExpense, err)
		return
	}
	in, err := req.parse()
	if err != nil {
		writeError(w, r, opUpdateExpense, err)
		return
	}

	out, err := s.updateExpense.Execute(r.Context(), usecase.UpdateExpenseInput{
		ExpenseID:         parseID(r.PathValue("id")),
		User:              user,
		Amount:            in.amount,
		RealisedDate:      in.date,
		ExpenseCategoryID: in.categoryID,
	})
	if err != nil {
		writeError(w, r, opUpdateExpense, err)
		return
	}

	logExpense(r, "Expense updated", log.OpUpdate, out.Expense)
	writeJSON(w, http.StatusOK, newExpenseResponse(out.Expense))
}

// handleDeleteExpense answers with the record as it was before deletion.
func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	user, _ := userFromContext(r.Context())
	id := parseID(r.PathValue("id"))

	existing, err := s.getExpense.Execute(r.Context(), usecase.GetExpenseInput{ExpenseID: id, User: user})
	if err != nil {
		writeError(w, r, opDeleteExpense, err)
		return
	}

	if err := s.deleteExpense.Execute(r.Context(), usecase.DeleteExpenseInput{ExpenseID: id, User: user}); err != nil {
		writeError(w, r, opDeleteExpense, err)
		return
	}

	logExpense(r, "Expense deleted", log.OpDelete, existing.Expense)
	writeJSON(w, http.StatusOK, newExpenseResponse(existing.Expense))
}
