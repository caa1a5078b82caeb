// Package http exposes the JSON API: analytics summaries, budget
// management, ledger write paths and the API-key integration endpoint.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"ledgerly/internal/amqp"
	applog "ledgerly/internal/log"
	"ledgerly/internal/services"
)

// Publisher hands ingest messages to the broker. The integration
// endpoint never writes to the database directly.
type Publisher interface {
	PublishTransaction(ctx context.Context, msg *amqp.TransactionMessage) error
}

// Pinger reports storage reachability for the readiness probe.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Server struct {
	http.Server

	analytics *services.AnalyticsService
	budgets   *services.BudgetService
	txs       *services.TransactionService
	recurring *services.RecurringService

	publisher Publisher
	apiKey    string
	storage   Pinger

	logger       *applog.Logger
	rateLimiter  *rateLimiter
	shutdownOnce sync.Once
}

// Deps bundles the server's collaborators.
type Deps struct {
	Analytics *services.AnalyticsService
	Budgets   *services.BudgetService
	Txs       *services.TransactionService
	Recurring *services.RecurringService

	// Publisher and APIKey enable the integration endpoint; both must be
	// set or the route responds 503.
	Publisher Publisher
	APIKey    string

	Storage Pinger
	Logger  *applog.Logger
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, deps Deps) *Server {
	mux := http.NewServeMux()

	logger := deps.Logger
	if logger == nil {
		logger = applog.New(applog.DefaultConfig()).WithComponent(applog.ComponentHTTP)
	}

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		analytics:   deps.Analytics,
		budgets:     deps.Budgets,
		txs:         deps.Txs,
		recurring:   deps.Recurring,
		publisher:   deps.Publisher,
		apiKey:      deps.APIKey,
		storage:     deps.Storage,
		logger:      logger,
		rateLimiter: newRateLimiter(),
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	routes := map[string]http.HandlerFunc{
		"GET /api/ledgers/{ledgerID}/analytics/expenses":         s.handleExpensesSummary,
		"GET /api/ledgers/{ledgerID}/analytics/income":           s.handleIncomeSummary,
		"GET /api/ledgers/{ledgerID}/analytics/net-balance":      s.handleNetBalanceSummary,
		"GET /api/ledgers/{ledgerID}/analytics/summary":          s.handleCombinedSummary,
		"GET /api/ledgers/{ledgerID}/analytics/monthly-averages": s.handleMonthlyAverages,

		"GET /api/ledgers/{ledgerID}/budgets":                     s.handleBudgetOverview,
		"POST /api/ledgers/{ledgerID}/budgets":                    s.handleCreateAllocation,
		"PUT /api/ledgers/{ledgerID}/budgets/{allocationID}":      s.handleUpdateAllocation,
		"DELETE /api/ledgers/{ledgerID}/budgets/{allocationID}":   s.handleDeleteAllocation,
		"DELETE /api/ledgers/{ledgerID}/budgets":                  s.handleDeleteBudgetMonth,
		"POST /api/ledgers/{ledgerID}/budgets/copy":               s.handleCopyBudgetMonth,

		"GET /api/ledgers/{ledgerID}/transactions":         s.handleListTransactions,
		"POST /api/ledgers/{ledgerID}/transactions":        s.handleCreateTransaction,
		"PUT /api/ledgers/{ledgerID}/transactions/{id}":    s.handleUpdateTransaction,
		"DELETE /api/ledgers/{ledgerID}/transactions/{id}": s.handleDeleteTransaction,

		"GET /api/ledgers/{ledgerID}/recurring-items":                s.handleListRecurringItems,
		"POST /api/ledgers/{ledgerID}/recurring-items":               s.handleCreateRecurringItem,
		"POST /api/ledgers/{ledgerID}/recurring-items/{id}/versions": s.handleAddRecurringVersion,
		"PATCH /api/ledgers/{ledgerID}/recurring-items/{id}":         s.handleSetRecurringActive,

		"POST /api/integration/transactions": s.handleIntegrationIngest,
	}
	for pattern, handler := range routes {
		mux.HandleFunc(pattern, s.withMiddleware(handler))
	}

	return s
}

// Shutdown stops the rate limiter cleanup goroutine and then the HTTP
// server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// withMiddleware adds security headers, rate limiting and request
// logging around a handler.
func (s *Server) withMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		clientIP := r.Header.Get("X-Forwarded-For")
		if clientIP == "" {
			clientIP = r.Header.Get("X-Real-IP")
		}
		if clientIP == "" {
			clientIP = r.RemoteAddr
		}

		requestID := uuid.NewString()
		ctx := context.WithValue(r.Context(), applog.LoggerContextKey,
			s.logger.With(applog.FieldRequestID, requestID))
		r = r.WithContext(ctx)

		if isWrite(r.Method) && !s.rateLimiter.allow(clientIP) {
			s.logger.WarnContext(ctx, "Rate limit exceeded",
				applog.FieldClientIP, clientIP,
				applog.FieldMethod, r.Method,
				applog.FieldPath, r.URL.Path)
			w.Header().Set("Retry-After", "60")
			writeErrorMessage(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		s.logger.InfoContext(ctx, "Request completed",
			applog.FieldRequestID, requestID,
			applog.FieldMethod, r.Method,
			applog.FieldPath, r.URL.Path,
			applog.FieldStatusCode, rw.statusCode,
			applog.FieldDuration, time.Since(start).Milliseconds(),
			applog.FieldClientIP, clientIP)
	}
}

func isWrite(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.storage != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.storage.Ping(ctx); err != nil {
			s.logger.ErrorContext(r.Context(), "Readiness check failed", applog.FieldError, err)
			writeErrorMessage(w, http.StatusServiceUnavailable, "storage unavailable")
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
