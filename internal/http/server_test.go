package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"ledgerly/internal/amqp"
	"ledgerly/internal/services"
	"ledgerly/internal/storage"
)

type capturingPublisher struct {
	published []*amqp.TransactionMessage
}

func (p *capturingPublisher) PublishTransaction(ctx context.Context, msg *amqp.TransactionMessage) error {
	p.published = append(p.published, msg)
	return nil
}

type testEnv struct {
	server    *Server
	repo      *storage.SQLiteRepository
	ledgerID  int64
	publisher *capturingPublisher
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "ledgerly.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	ledgerID, err := repo.CreateLedger(context.Background(), 1, "household")
	if err != nil {
		t.Fatalf("create ledger: %v", err)
	}

	publisher := &capturingPublisher{}
	srv := NewServer(":0", Deps{
		Analytics: services.NewAnalyticsService(repo, repo, repo),
		Budgets:   services.NewBudgetService(repo, repo, repo),
		Txs:       services.NewTransactionService(repo, repo),
		Recurring: services.NewRecurringService(repo, repo),
		Publisher: publisher,
		APIKey:    "test-key",
		Storage:   repo,
	})
	t.Cleanup(func() { srv.Shutdown(context.Background()) })

	return &testEnv{server: srv, repo: repo, ledgerID: ledgerID, publisher: publisher}
}

func (e *testEnv) path(suffix string) string {
	return "/api/ledgers/" + itoa(e.ledgerID) + suffix
}

func (e *testEnv) do(t *testing.T, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	req.Header.Set("X-User-ID", "1")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	e.server.Server.Handler.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
}

func TestHealthEndpoints(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/healthz", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("healthz expected 200, got %d", rec.Code)
	}
	rec = env.do(t, http.MethodGet, "/readyz", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("readyz expected 200, got %d", rec.Code)
	}
}

func TestIdentityHeaderRequired(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/api/ledgers/1/analytics/expenses", nil)
	rec := httptest.NewRecorder()
	env.server.Server.Handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without X-User-ID, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/ledgers/1/analytics/expenses", nil)
	req.Header.Set("X-User-ID", "not-a-number")
	rec = httptest.NewRecorder()
	env.server.Server.Handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for invalid X-User-ID, got %d", rec.Code)
	}
}

func TestTransactionLifecycle(t *testing.T) {
	env := newTestEnv(t)
	base := env.path("/transactions")

	rec := env.do(t, http.MethodPost, base,
		`{"direction":"expense","category":"groceries","amount":"12.34","occurredAt":"2025-03-10"}`, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var created struct {
		ID     int64  `json:"id"`
		Amount string `json:"amount"`
	}
	decode(t, rec, &created)
	if created.Amount != "12.34" {
		t.Fatalf("amount expected \"12.34\", got %q", created.Amount)
	}

	rec = env.do(t, http.MethodGet, base+"?from=2025-03-01&to=2025-03-31", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list expected 200, got %d", rec.Code)
	}
	var listed []struct {
		ID int64 `json:"id"`
	}
	decode(t, rec, &listed)
	if len(listed) != 1 || listed[0].ID != created.ID {
		t.Fatalf("expected the created transaction, got %+v", listed)
	}

	rec = env.do(t, http.MethodDelete, base+"/99999", "", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("delete missing expected 404, got %d", rec.Code)
	}
}

func TestTransactionValidation(t *testing.T) {
	env := newTestEnv(t)
	base := env.path("/transactions")

	cases := []struct {
		name string
		body string
	}{
		{"zero amount", `{"direction":"expense","category":"groceries","amount":"0","occurredAt":"2025-03-10"}`},
		{"unknown category", `{"direction":"expense","category":"yachts","amount":"5.00","occurredAt":"2025-03-10"}`},
		{"unknown direction", `{"direction":"sideways","category":"groceries","amount":"5.00","occurredAt":"2025-03-10"}`},
		{"bad date", `{"direction":"expense","category":"groceries","amount":"5.00","occurredAt":"tomorrow"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, base, tc.body, nil)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
			}
		})
	}
}

func TestAnalyticsSummaryFlow(t *testing.T) {
	env := newTestEnv(t)

	for _, body := range []string{
		`{"direction":"expense","category":"groceries","amount":"10.00","occurredAt":"2025-03-05"}`,
		`{"direction":"expense","category":"groceries","amount":"5.00","occurredAt":"2025-03-12"}`,
		`{"direction":"expense","category":"transport","amount":"3.00","occurredAt":"2025-03-20"}`,
	} {
		rec := env.do(t, http.MethodPost, env.path("/transactions"), body, nil)
		if rec.Code != http.StatusCreated {
			t.Fatalf("seed transaction: %d %s", rec.Code, rec.Body.String())
		}
	}
	rec := env.do(t, http.MethodPost, env.path("/recurring-items"),
		`{"name":"rent","direction":"expense","amount":"800.00","validFrom":"2025-01-01"}`, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("seed recurring item: %d %s", rec.Code, rec.Body.String())
	}
	rec = env.do(t, http.MethodPost, env.path("/recurring-items"),
		`{"name":"salary","direction":"income","amount":"2000.00","validFrom":"2025-01-01"}`, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("seed salary: %d %s", rec.Code, rec.Body.String())
	}

	rec = env.do(t, http.MethodGet, env.path("/analytics/expenses?from=2025-03-01&to=2025-03-31"), "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expenses expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var expenses struct {
		TotalExpenses         string `json:"totalExpenses"`
		TotalVariableExpenses string `json:"totalVariableExpenses"`
		PerCategory           []struct {
			Category string `json:"category"`
			Total    string `json:"total"`
		} `json:"perCategory"`
	}
	decode(t, rec, &expenses)
	if expenses.TotalVariableExpenses != "18.00" {
		t.Fatalf("variable expected 18.00, got %s", expenses.TotalVariableExpenses)
	}
	if expenses.TotalExpenses != "818.00" {
		t.Fatalf("total expected 818.00, got %s", expenses.TotalExpenses)
	}
	if len(expenses.PerCategory) != 2 || expenses.PerCategory[0].Category != "groceries" {
		t.Fatalf("unexpected per-category breakdown: %+v", expenses.PerCategory)
	}

	rec = env.do(t, http.MethodGet, env.path("/analytics/net-balance?from=2025-03-01&to=2025-03-31"), "", nil)
	var net struct {
		NetBalance string `json:"netBalance"`
	}
	decode(t, rec, &net)
	if net.NetBalance != "1182.00" {
		t.Fatalf("net balance expected 1182.00, got %s", net.NetBalance)
	}

	rec = env.do(t, http.MethodGet, env.path("/analytics/summary?from=2025-03-01&to=2025-03-31"), "", nil)
	var combined struct {
		Expenses struct {
			TotalExpenses string `json:"totalExpenses"`
		} `json:"expenses"`
		Income struct {
			TotalIncome string `json:"totalIncome"`
		} `json:"income"`
	}
	decode(t, rec, &combined)
	if combined.Expenses.TotalExpenses != "818.00" || combined.Income.TotalIncome != "2000.00" {
		t.Fatalf("combined diverges: %s", rec.Body.String())
	}
}

func TestAnalyticsForbiddenForNonMember(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, env.path("/analytics/expenses"), "",
		map[string]string{"X-User-ID": "42"})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-member, got %d", rec.Code)
	}
}

func TestAnalyticsRejectsInvertedRange(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet,
		env.path("/analytics/expenses?from=2025-03-31&to=2025-03-01"), "", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for inverted range, got %d", rec.Code)
	}
}

func TestBudgetEndpoints(t *testing.T) {
	env := newTestEnv(t)
	base := env.path("/budgets")

	rec := env.do(t, http.MethodPost, base,
		`{"yearMonth":"2025-06","category":"groceries","budgetAmount":"400.00"}`, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var created struct {
		ID int64 `json:"id"`
	}
	decode(t, rec, &created)

	// Duplicate category in the same month conflicts.
	rec = env.do(t, http.MethodPost, base,
		`{"yearMonth":"2025-06","category":"groceries","budgetAmount":"1.00"}`, nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("duplicate expected 409, got %d", rec.Code)
	}

	rec = env.do(t, http.MethodGet, base+"?yearMonth=2025-06", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("overview expected 200, got %d", rec.Code)
	}
	var overview struct {
		YearMonth       string `json:"yearMonth"`
		AllocatedBudget string `json:"allocatedBudget"`
	}
	decode(t, rec, &overview)
	if overview.YearMonth != "2025-06" || overview.AllocatedBudget != "400.00" {
		t.Fatalf("unexpected overview: %s", rec.Body.String())
	}

	rec = env.do(t, http.MethodPost, base+"/copy", `{"from":"2025-06","to":"2025-07"}`, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("copy expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = env.do(t, http.MethodPost, base+"/copy", `{"from":"2025-06","to":"2025-06"}`, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("self copy expected 400, got %d", rec.Code)
	}

	rec = env.do(t, http.MethodDelete, base+"/"+itoa(created.ID), "", nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete expected 204, got %d", rec.Code)
	}

	rec = env.do(t, http.MethodDelete, base+"?yearMonth=2025-07", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("bulk delete expected 200, got %d", rec.Code)
	}
	var bulk struct {
		Deleted int64 `json:"deleted"`
	}
	decode(t, rec, &bulk)
	if bulk.Deleted != 1 {
		t.Fatalf("expected 1 deleted, got %d", bulk.Deleted)
	}
}

func TestRecurringItemEndpoints(t *testing.T) {
	env := newTestEnv(t)
	base := env.path("/recurring-items")

	rec := env.do(t, http.MethodPost, base,
		`{"name":"internet","direction":"expense","amount":"25.00","validFrom":"2024-01-01","validTo":"2025-01-31"}`, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var created struct {
		ID int64 `json:"id"`
	}
	decode(t, rec, &created)

	rec = env.do(t, http.MethodPost, base+"/"+itoa(created.ID)+"/versions",
		`{"amount":"30.00","validFrom":"2025-02-01"}`, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("add version expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = env.do(t, http.MethodPatch, base+"/"+itoa(created.ID), `{"isActive":false}`, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("deactivate expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = env.do(t, http.MethodGet, base+"?activeOnly=true", "", nil)
	var active []recurringItemResponse
	decode(t, rec, &active)
	if len(active) != 0 {
		t.Fatalf("deactivated item still active: %+v", active)
	}

	rec = env.do(t, http.MethodGet, base, "", nil)
	var all []recurringItemResponse
	decode(t, rec, &all)
	if len(all) != 1 || len(all[0].Versions) != 2 {
		t.Fatalf("expected 1 item with 2 versions, got %+v", all)
	}
}

func TestIntegrationIngest(t *testing.T) {
	env := newTestEnv(t)
	path := "/api/integration/transactions"
	body := `{"ledgerId":10,"direction":"expense","category":"groceries","amountCents":1234,"occurredAt":"2025-03-10"}`

	rec := env.do(t, http.MethodPost, path, body, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("missing API key expected 401, got %d", rec.Code)
	}

	rec = env.do(t, http.MethodPost, path, body, map[string]string{"X-API-Key": "wrong"})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("wrong API key expected 401, got %d", rec.Code)
	}

	rec = env.do(t, http.MethodPost, path, body, map[string]string{"X-API-Key": "test-key"})
	if rec.Code != http.StatusAccepted {
		t.Fatalf("ingest expected 202, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(env.publisher.published) != 1 {
		t.Fatalf("expected 1 published message, got %d", len(env.publisher.published))
	}
	msg := env.publisher.published[0]
	if msg.LedgerID != 10 || msg.AmountCents != 1234 || msg.MessageID == "" {
		t.Fatalf("unexpected message: %+v", msg)
	}

	rec = env.do(t, http.MethodPost, path,
		`{"ledgerId":10,"direction":"expense","amountCents":0,"occurredAt":"2025-03-10"}`,
		map[string]string{"X-API-Key": "test-key"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("zero cents expected 400, got %d", rec.Code)
	}
}

func itoa(n int64) string {
	return strconv.FormatInt(n, 10)
}
