package http

import (
	"crypto/subtle"
	"net/http"

	"ledgerly/internal/amqp"
	"ledgerly/internal/core"
	applog "ledgerly/internal/log"
)

// handleIntegrationIngest accepts transactions from external systems
// authenticated by API key and publishes them for async persistence.
// Amounts arrive as integer cents, the legacy integration encoding.
func (s *Server) handleIntegrationIngest(w http.ResponseWriter, r *http.Request) {
	if s.publisher == nil || s.apiKey == "" {
		writeErrorMessage(w, http.StatusServiceUnavailable, "integration ingest is not configured")
		return
	}

	key := r.Header.Get("X-API-Key")
	if subtle.ConstantTimeCompare([]byte(key), []byte(s.apiKey)) != 1 {
		writeErrorMessage(w, http.StatusUnauthorized, "invalid API key")
		return
	}

	var body struct {
		LedgerID    int64  `json:"ledgerId"`
		Direction   string `json:"direction"`
		Category    string `json:"category"`
		AmountCents int64  `json:"amountCents"`
		OccurredAt  string `json:"occurredAt"`
		Description string `json:"description"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	if body.LedgerID <= 0 {
		writeError(w, r, core.BadRequest("ledgerId is required"))
		return
	}
	if body.AmountCents <= 0 {
		writeError(w, r, core.BadRequest("amountCents must be greater than zero"))
		return
	}
	occurredAt, err := core.ParseInstant(body.OccurredAt)
	if err != nil {
		writeError(w, r, err)
		return
	}

	msg := amqp.NewTransactionMessage(body.LedgerID, body.Direction, body.Category,
		body.AmountCents, occurredAt, body.Description)
	if err := s.publisher.PublishTransaction(r.Context(), msg); err != nil {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Failed to publish ingest message",
			applog.FieldError, err,
			applog.FieldLedgerID, body.LedgerID)
		writeErrorMessage(w, http.StatusServiceUnavailable, "ingest queue unavailable")
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{"messageId": msg.MessageID})
}
