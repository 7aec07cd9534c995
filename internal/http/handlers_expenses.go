package http

import (
	"encoding/json"
	"net/http"

	"spendtrack/internal/core"
	"spendtrack/internal/storage"
)

type createExpenseRequest struct {
	Name        string      `json:"name"`
	Amount      json.Number `json:"amount"`
	CategoryID  int64       `json:"category_id"`
	UserID      int64       `json:"user_id"`
	SpentAt     string      `json:"spent_at"`
	Description string      `json:"description"`
}

type updateExpenseRequest struct {
	Name        *string      `json:"name"`
	Amount      *json.Number `json:"amount"`
	CategoryID  *int64       `json:"category_id"`
	SpentAt     *string      `json:"spent_at"`
	Description *string      `json:"description"`
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	var req createExpenseRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	cents, err := parseAmount(req.Amount)
	if err != nil {
		writeError(w, r, err)
		return
	}
	spentAt, err := parseSpentAt(req.SpentAt)
	if err != nil {
		writeError(w, r, err)
		return
	}

	exp := core.Expense{
		Name:        sanitizeInput(req.Name),
		Amount:      core.Money{Cents: cents},
		CategoryID:  req.CategoryID,
		UserID:      req.UserID,
		Description: sanitizeInput(req.Description),
	}
	if spentAt != nil {
		exp.SpentAt = *spentAt
	}

	created, err := s.ledger.CreateExpense(r.Context(), exp)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, toExpenseDTO(created))
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	params, err := parseFilterParams(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	exps, err := s.ledger.ListExpenses(r.Context(), params)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, toExpenseDTOs(exps))
}

func (s *Server) handleGetExpense(w http.ResponseWriter, r *http.Request) {
	id, err := parsePathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	exp, err := s.ledger.GetExpense(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, toExpenseDTO(exp))
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	id, err := parsePathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req updateExpenseRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	update := storage.ExpenseUpdate{CategoryID: req.CategoryID}
	if req.Name != nil {
		name := sanitizeInput(*req.Name)
		update.Name = &name
	}
	if req.Description != nil {
		desc := sanitizeInput(*req.Description)
		update.Description = &desc
	}
	if req.Amount != nil {
		cents, err := parseAmount(*req.Amount)
		if err != nil {
			writeError(w, r, err)
			return
		}
		update.AmountCents = &cents
	}
	if req.SpentAt != nil {
		spentAt, err := parseSpentAt(*req.SpentAt)
		if err != nil {
			writeError(w, r, err)
			return
		}
		update.SpentAt = spentAt
	}

	exp, err := s.ledger.UpdateExpense(r.Context(), id, update)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, toExpenseDTO(exp))
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	id, err := parsePathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := s.ledger.DeleteExpense(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, apiResponse{Success: true, Message: "expense deleted"})
}
