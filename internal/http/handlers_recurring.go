package http

import (
	"net/http"
	"time"

	"ledgerly/internal/core"
	"ledgerly/internal/services"
)

type versionResponse struct {
	ID        int64      `json:"id"`
	Amount    core.Money `json:"amount"`
	ValidFrom time.Time  `json:"validFrom"`
	ValidTo   *time.Time `json:"validTo,omitempty"`
}

type recurringItemResponse struct {
	ID        int64             `json:"id"`
	Name      string            `json:"name"`
	Direction core.Direction    `json:"direction"`
	IsActive  bool              `json:"isActive"`
	Versions  []versionResponse `json:"versions"`
}

func toRecurringItemResponse(it core.RecurringItem) recurringItemResponse {
	versions := make([]versionResponse, len(it.Versions))
	for i, v := range it.Versions {
		versions[i] = versionResponse{
			ID:        v.ID,
			Amount:    v.Amount,
			ValidFrom: v.ValidFrom,
			ValidTo:   v.ValidTo,
		}
	}
	return recurringItemResponse{
		ID:        it.ID,
		Name:      it.Name,
		Direction: it.Direction,
		IsActive:  it.IsActive,
		Versions:  versions,
	}
}

func (s *Server) handleListRecurringItems(w http.ResponseWriter, r *http.Request) {
	uid, ok := requireUser(w, r)
	if !ok {
		return
	}
	ledgerID, err := pathInt64(r, "ledgerID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	q := r.URL.Query()
	items, err := s.recurring.List(r.Context(), uid, ledgerID,
		q.Get("direction"), q.Get("activeOnly") == "true")
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]recurringItemResponse, len(items))
	for i, it := range items {
		out[i] = toRecurringItemResponse(it)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateRecurringItem(w http.ResponseWriter, r *http.Request) {
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
		Name      string `json:"name"`
		Direction string `json:"direction"`
		Amount    string `json:"amount"`
		ValidFrom string `json:"validFrom"`
		ValidTo   string `json:"validTo"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	created, err := s.recurring.CreateItem(r.Context(), uid, ledgerID, services.RecurringItemInput{
		Name:      body.Name,
		Direction: body.Direction,
		Amount:    body.Amount,
		ValidFrom: body.ValidFrom,
		ValidTo:   body.ValidTo,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toRecurringItemResponse(created))
}

func (s *Server) handleAddRecurringVersion(w http.ResponseWriter, r *http.Request) {
	uid, ok := requireUser(w, r)
	if !ok {
		return
	}
	ledgerID, err := pathInt64(r, "ledgerID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	itemID, err := pathInt64(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var body struct {
		Amount    string `json:"amount"`
		ValidFrom string `json:"validFrom"`
		ValidTo   string `json:"validTo"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	created, err := s.recurring.AddVersion(r.Context(), uid, ledgerID, itemID, services.VersionInput{
		Amount:    body.Amount,
		ValidFrom: body.ValidFrom,
		ValidTo:   body.ValidTo,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, versionResponse{
		ID:        created.ID,
		Amount:    created.Amount,
		ValidFrom: created.ValidFrom,
		ValidTo:   created.ValidTo,
	})
}

func (s *Server) handleSetRecurringActive(w http.ResponseWriter, r *http.Request) {
	uid, ok := requireUser(w, r)
	if !ok {
		return
	}
	ledgerID, err := pathInt64(r, "ledgerID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	itemID, err := pathInt64(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var body struct {
		IsActive *bool `json:"isActive"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	if body.IsActive == nil {
		writeError(w, r, core.BadRequest("isActive is required"))
		return
	}
	if err := s.recurring.SetActive(r.Context(), uid, ledgerID, itemID, *body.IsActive); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"isActive": *body.IsActive})
}
