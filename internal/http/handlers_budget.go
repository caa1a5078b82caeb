package http

import (
	"net/http"

	"ledgerly/internal/core"
	"ledgerly/internal/services"
)

type allocationResponse struct {
	ID        int64          `json:"id"`
	YearMonth core.YearMonth `json:"yearMonth"`
	Category  core.Category  `json:"category,omitempty"`
	Name      string         `json:"name,omitempty"`
	Amount    core.Money     `json:"budgetAmount"`
}

func toAllocationResponse(a core.BudgetAllocation) allocationResponse {
	return allocationResponse{
		ID:        a.ID,
		YearMonth: a.YearMonth,
		Category:  a.Category,
		Name:      a.Name,
		Amount:    a.Amount,
	}
}

func (s *Server) handleBudgetOverview(w http.ResponseWriter, r *http.Request) {
	uid, ok := requireUser(w, r)
	if !ok {
		return
	}
	ledgerID, err := pathInt64(r, "ledgerID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	ov, err := s.budgets.Overview(r.Context(), uid, ledgerID, r.URL.Query().Get("yearMonth"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ov)
}

func (s *Server) handleCreateAllocation(w http.ResponseWriter, r *http.Request) {
	uid, ok := requireUser(w, r)
	if !ok {
		return
	}
	ledgerID, err := pathInt64(r, "ledgerID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var body struct {
		YearMonth string `json:"yearMonth"`
		Category  string `json:"category"`
		Name      string `json:"name"`
		Amount    string `json:"budgetAmount"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	created, err := s.budgets.CreateAllocation(r.Context(), uid, ledgerID, services.AllocationInput{
		YearMonth: body.YearMonth,
		Category:  body.Category,
		Name:      body.Name,
		Amount:    body.Amount,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toAllocationResponse(created))
}

func (s *Server) handleUpdateAllocation(w http.ResponseWriter, r *http.Request) {
	uid, ok := requireUser(w, r)
	if !ok {
		return
	}
	ledgerID, err := pathInt64(r, "ledgerID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	allocationID, err := pathInt64(r, "allocationID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var body struct {
		Amount string `json:"budgetAmount"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	updated, err := s.budgets.UpdateAllocation(r.Context(), uid, ledgerID, allocationID, body.Amount)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toAllocationResponse(updated))
}

func (s *Server) handleDeleteAllocation(w http.ResponseWriter, r *http.Request) {
	uid, ok := requireUser(w, r)
	if !ok {
		return
	}
	ledgerID, err := pathInt64(r, "ledgerID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	allocationID, err := pathInt64(r, "allocationID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.budgets.DeleteAllocation(r.Context(), uid, ledgerID, allocationID); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteBudgetMonth(w http.ResponseWriter, r *http.Request) {
	uid, ok := requireUser(w, r)
	if !ok {
		return
	}
	ledgerID, err := pathInt64(r, "ledgerID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	deleted, err := s.budgets.DeleteMonth(r.Context(), uid, ledgerID, r.URL.Query().Get("yearMonth"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"deleted": deleted})
}

func (s *Server) handleCopyBudgetMonth(w http.ResponseWriter, r *http.Request) {
	uid, ok := requireUser(w, r)
	if !ok {
		return
	}
	ledgerID, err := pathInt64(r, "ledgerID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var body struct {
		From string `json:"from"`
		To   string `json:"to"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	copied, err := s.budgets.CopyMonth(r.Context(), uid, ledgerID, body.From, body.To)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"copied": copied})
}
