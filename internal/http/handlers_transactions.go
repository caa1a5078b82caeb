package http

import (
	"net/http"
	"time"

	"ledgerly/internal/core"
	"ledgerly/internal/services"
)

type transactionResponse struct {
	ID          int64          `json:"id"`
	Direction   core.Direction `json:"direction"`
	Category    core.Category  `json:"category"`
	Amount      core.Money     `json:"amount"`
	OccurredAt  time.Time      `json:"occurredAt"`
	Description string         `json:"description,omitempty"`
}

func toTransactionResponse(tx core.Transaction) transactionResponse {
	return transactionResponse{
		ID:          tx.ID,
		Direction:   tx.Direction,
		Category:    tx.Category,
		Amount:      tx.Amount,
		OccurredAt:  tx.OccurredAt,
		Description: tx.Description,
	}
}

type transactionBody struct {
	Direction   string `json:"direction"`
	Category    string `json:"category"`
	Amount      string `json:"amount"`
	OccurredAt  string `json:"occurredAt"`
	Description string `json:"description"`
}

func (b transactionBody) toInput() services.TransactionInput {
	return services.TransactionInput{
		Direction:   b.Direction,
		Category:    b.Category,
		Amount:      b.Amount,
		OccurredAt:  b.OccurredAt,
		Description: b.Description,
	}
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	uid, ok := requireUser(w, r)
	if !ok {
		return
	}
	ledgerID, err := pathInt64(r, "ledgerID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var body transactionBody
	if err := decodeBody(r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	created, err := s.txs.Create(r.Context(), uid, ledgerID, body.toInput())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toTransactionResponse(created))
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	uid, ok := requireUser(w, r)
	if !ok {
		return
	}
	ledgerID, err := pathInt64(r, "ledgerID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	id, err := pathInt64(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var body transactionBody
	if err := decodeBody(r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	updated, err := s.txs.Update(r.Context(), uid, ledgerID, id, body.toInput())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionResponse(updated))
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	uid, ok := requireUser(w, r)
	if !ok {
		return
	}
	ledgerID, err := pathInt64(r, "ledgerID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	id, err := pathInt64(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.txs.Delete(r.Context(), uid, ledgerID, id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	uid, ok := requireUser(w, r)
	if !ok {
		return
	}
	ledgerID, err := pathInt64(r, "ledgerID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	dr, err := resolveRange(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	txs, err := s.txs.List(r.Context(), uid, ledgerID, dr)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]transactionResponse, len(txs))
	for i, tx := range txs {
		out[i] = toTransactionResponse(tx)
	}
	writeJSON(w, http.StatusOK, out)
}
