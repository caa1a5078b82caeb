package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"ledgerly/internal/core"
	applog "ledgerly/internal/log"
)

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErrorMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}

// writeError maps a domain error kind to an HTTP status. Unknown errors
// become an opaque 500; their details stay in the logs.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var status int
	switch core.KindOf(err) {
	case core.KindForbidden:
		status = http.StatusForbidden
	case core.KindBadRequest, core.KindInvalidRange, core.KindInvalidDate:
		status = http.StatusBadRequest
	case core.KindConflict:
		status = http.StatusConflict
	case core.KindNotFound:
		status = http.StatusNotFound
	default:
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Request failed",
			applog.FieldError, err,
			applog.FieldMethod, r.Method,
			applog.FieldPath, r.URL.Path)
		writeErrorMessage(w, http.StatusInternalServerError, "internal error")
		return
	}

	var de *core.Error
	if errors.As(err, &de) {
		writeJSON(w, status, errorBody{Error: de.Message, Code: de.Code})
		return
	}
	writeErrorMessage(w, status, err.Error())
}

// userID extracts the caller identity from the X-User-ID header. The
// header is set by the authenticating proxy in front of this service.
func userID(r *http.Request) (int64, bool) {
	raw := r.Header.Get("X-User-ID")
	if raw == "" {
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func requireUser(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, ok := userID(r)
	if !ok {
		writeErrorMessage(w, http.StatusUnauthorized, "missing or invalid X-User-ID header")
	}
	return id, ok
}

func pathInt64(r *http.Request, name string) (int64, error) {
	raw := r.PathValue(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, core.BadRequestf("invalid %s %q", name, raw)
	}
	return id, nil
}

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return core.BadRequestf("invalid request body: %v", err)
	}
	return nil
}
