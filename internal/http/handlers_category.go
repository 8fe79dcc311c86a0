package http

import (
	"net/http"

	"cashly/internal/core"
	"cashly/internal/log"
	"cashly/internal/usecase"
)

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	user, _ := userFromContext(r.Context())

	var req categoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, opCreateCategory, err)
		return
	}

	out, err := s.createCategory.Execute(r.Context(), usecase.CreateExpenseCategoryInput{
		User:  user,
		Name:  req.Name,
		Color: req.Color,
	})
	if err != nil {
		writeError(w, r, opCreateCategory, err)
		return
	}

	log.FromContext(r.Context()).WithComponent(log.ComponentCategory).InfoContext(r.Context(), "Expense category created",
		log.NewFields().
			WithOperation(log.OpCreate).
			WithRecord(string(core.EntityExpenseCategory), out.ExpenseCategory.ID.String()).
			ToSlice()...)
	writeJSON(w, http.StatusCreated, newCategoryResponse(out.ExpenseCategory))
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	user, _ := userFromContext(r.Context())

	out, err := s.listCategories.Execute(r.Context(), usecase.GetAllExpenseCategoriesInput{User: user})
	if err != nil {
		writeError(w, r, opListCategories, err)
		return
	}

	resp := make([]categoryResponse, 0, len(out.ExpenseCategories))
	for _, c := range out.ExpenseCategories {
		resp = append(resp, newCategoryResponse(c))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetCategory(w http.ResponseWriter, r *http.Request) {
	user, _ := userFromContext(r.Context())

	out, err := s.getCategory.Execute(r.Context(), usecase.GetExpenseCategoryInput{
		ExpenseCategoryID: parseID(r.PathValue("id")),
		User:              user,
	})
	if err != nil {
		writeError(w, r, opGetCategory, err)
		return
	}
	writeJSON(w, http.StatusOK, newCategoryResponse(out.ExpenseCategory))
}

func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	user, _ := userFromContext(r.Context())

	var req categoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, opUpdateCategory, err)
		return
	}

	out, err := s.updateCategory.Execute(r.Context(), usecase.UpdateExpenseCategoryInput{
		ExpenseCategoryID: parseID(r.PathValue("id")),
		User:              user,
		Name:              req.Name,
		Color:             req.Color,
	})
	if err != nil {
		writeError(w, r, opUpdateCategory, err)
		return
	}

	log.FromContext(r.Context()).WithComponent(log.ComponentCategory).InfoContext(r.Context(), "Expense category updated",
		log.NewFields().
			WithOperation(log.OpUpdate).
			WithRecord(string(core.EntityExpenseCategory), out.ExpenseCategory.ID.String()).
			ToSlice()...)
	writeJSON(w, http.StatusOK, newCategoryResponse(out.ExpenseCategory))
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	user, _ := userFromContext(r.Context())

	out, err := s.deleteCategory.Execute(r.Context(), usecase.DeleteExpenseCategoryInput{
		ExpenseCategoryID: parseID(r.PathValue("id")),
		User:              user,
	})
	if err != nil {
		writeError(w, r, opDeleteCategory, err)
		return
	}

	log.FromContext(r.Context()).WithComponent(log.ComponentCategory).InfoContext(r.Context(), "Expense category deleted",
		log.NewFields().
			WithOperation(log.OpDelete).
			WithRecord(string(core.EntityExpenseCategory), out.ExpenseCategory.ID.String()).
			ToSlice()...)
	writeJSON(w, http.StatusOK, newCategoryResponse(out.ExpenseCategory))
}
