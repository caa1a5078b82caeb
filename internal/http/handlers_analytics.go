package http

import (
	"net/http"
	"time"

	"ledgerly/internal/core"
)

// resolveRange builds the request's date range from the from/to query
// parameters. Both are optional; the resolved range is reused by every
// sub-aggregate of the request.
func resolveRange(r *http.Request) (core.DateRange, error) {
	q := r.URL.Query()
	return core.ResolveDateRange(q.Get("from"), q.Get("to"), time.Now().UTC())
}

func (s *Server) handleExpensesSummary(w http.ResponseWriter, r *http.Request) {
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
	sum, err := s.analytics.ExpensesSummary(r.Context(), uid, ledgerID, dr)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

func (s *Server) handleIncomeSummary(w http.ResponseWriter, r *http.Request) {
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
	sum, err := s.analytics.IncomeSummary(r.Context(), uid, ledgerID, dr)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

func (s *Server) handleNetBalanceSummary(w http.ResponseWriter, r *http.Request) {
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
	sum, err := s.analytics.NetBalanceSummary(r.Context(), uid, ledgerID, dr)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

func (s *Server) handleCombinedSummary(w http.ResponseWriter, r *http.Request) {
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
	sum, err := s.analytics.CombinedSummary(r.Context(), uid, ledgerID, dr)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

func (s *Server) handleMonthlyAverages(w http.ResponseWriter, r *http.Request) {
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
	sum, err := s.analytics.MonthlyAverages(r.Context(), uid, ledgerID, dr)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}
