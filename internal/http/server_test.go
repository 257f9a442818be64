package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"centsplit/internal/provider"
	"centsplit/internal/report"
	"centsplit/internal/services"
	"centsplit/internal/storage"
)

type testEnv struct {
	server    *Server
	repo      *storage.SQLiteRepository
	txService *services.TransactionService
	processor *services.CategorizeProcessor
	writer    *report.MemoryWriter
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("create repository: %v", err)
	}

	txService := services.NewTransactionService(repo, nil)
	writer := report.NewMemoryWriter()
	budget := services.NewBudgetService(repo, writer)
	server := NewServer(":0", repo, txService, budget)

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = server.Shutdown(ctx)
		repo.Close()
	})

	return &testEnv{
		server:    server,
		repo:      repo,
		txService: txService,
		processor: services.NewCategorizeProcessor(repo),
		writer:    writer,
	}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e.server.Handler().ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) seedCategorized(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	march := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	txs := []provider.Transaction{
		{ID: "g1", Description: "Woolworths", AmountCents: -10000, CreatedAt: march},
		{ID: "n1", Description: "Netflix.com", AmountCents: -1599, CreatedAt: march.Add(time.Hour)},
	}
	for _, tx := range txs {
		if err := e.txService.IngestTransaction(ctx, tx); err != nil {
			t.Fatalf("ingest %s: %v", tx.ID, err)
		}
	}
	if _, err := e.processor.CategorizePending(ctx, 10); err != nil {
		t.Fatalf("categorize: %v", err)
	}
}

func TestHealthAndReady(t *testing.T) {
	env := newTestEnv(t)

	if rec := env.do(t, http.MethodGet, "/healthz", nil); rec.Code != http.StatusOK {
		t.Errorf("/healthz status = %d, want 200", rec.Code)
	}
	if rec := env.do(t, http.MethodGet, "/readyz", nil); rec.Code != http.StatusOK {
		t.Errorf("/readyz status = %d, want 200", rec.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/metrics", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("/metrics status = %d, want 200", rec.Code)
	}
	if rec.Body.Len() == 0 {
		t.Error("expected metrics payload")
	}
}

func TestSecurityHeadersApplied(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/healthz", nil)
	if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q, want nosniff", got)
	}
	if got := rec.Header().Get("Content-Security-Policy"); got == "" {
		t.Error("expected Content-Security-Policy header")
	}
}

func TestGetTransaction(t *testing.T) {
	env := newTestEnv(t)
	env.seedCategorized(t)

	rec := env.do(t, http.MethodGet, "/transactions/g1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp["category_name"] != "Groceries" {
		t.Errorf("category_name = %v, want Groceries", resp["category_name"])
	}

	if rec := env.do(t, http.MethodGet, "/transactions/missing", nil); rec.Code != http.StatusNotFound {
		t.Errorf("missing transaction status = %d, want 404", rec.Code)
	}
}

func TestBudgetSummaryEndToEnd(t *testing.T) {
	env := newTestEnv(t)
	env.seedCategorized(t)

	rec := env.do(t, http.MethodPut, "/shares/categories", map[string]any{
		"category_name": "Groceries",
		"shared":        true,
		"percentage":    60,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("set share status = %d, body %s", rec.Code, rec.Body.String())
	}

	rec = env.do(t, http.MethodGet, "/budget/summary?year=2026&month=3", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("summary status = %d, body %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		TotalShared   int64 `json:"total_shared_cents"`
		TotalPersonal int64 `json:"total_personal_cents"`
		UserShare     int64 `json:"user_share_cents"`
		PartnerShare  int64 `json:"partner_share_cents"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.TotalShared != 10000 || resp.TotalPersonal != 1599 {
		t.Errorf("unexpected totals: %+v", resp)
	}
	if resp.UserShare != 6000 || resp.PartnerShare != 4000 {
		t.Errorf("unexpected shares: %+v", resp)
	}
}

func TestBudgetSummaryCacheInvalidation(t *testing.T) {
	env := newTestEnv(t)
	env.seedCategorized(t)

	// Prime the cache with everything personal.
	rec := env.do(t, http.MethodGet, "/budget/summary?year=2026&month=3", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("summary status = %d", rec.Code)
	}
	var before struct {
		TotalShared int64 `json:"total_shared_cents"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &before); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if before.TotalShared != 0 {
		t.Fatalf("expected 0 shared before rule, got %d", before.TotalShared)
	}

	// A share change must purge the cached summary.
	rec = env.do(t, http.MethodPut, "/shares/categories", map[string]any{
		"category_name": "Groceries",
		"shared":        true,
		"percentage":    50,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("set share status = %d", rec.Code)
	}

	rec = env.do(t, http.MethodGet, "/budget/summary?year=2026&month=3", nil)
	var after struct {
		TotalShared int64 `json:"total_shared_cents"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &after); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if after.TotalShared != 10000 {
		t.Errorf("expected fresh summary after share change, got %d", after.TotalShared)
	}
}

func TestInvalidQueryParameters(t *testing.T) {
	env := newTestEnv(t)

	cases := []string{
		"/budget/summary?month=13",
		"/budget/summary?year=abc",
		"/budget/category?year=2026&month=3",
		"/budget/category?name=X&view=theirs",
		"/budget/split?user_income=abc",
		"/budget/split?user_income=-5.00",
	}
	for _, path := range cases {
		if rec := env.do(t, http.MethodGet, path, nil); rec.Code != http.StatusBadRequest {
			t.Errorf("%s status = %d, want 400", path, rec.Code)
		}
	}
}

func TestBudgetSplitEndpoint(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/budget/split?user_income=6000.00&partner_income=4000.00", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp map[string]int64
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp["user_percentage"] != 60 || resp["partner_percentage"] != 40 {
		t.Errorf("unexpected split: %v", resp)
	}

	// No incomes provided defaults to an even split.
	rec = env.do(t, http.MethodGet, "/budget/split", nil)
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp["user_percentage"] != 50 {
		t.Errorf("default split = %v, want 50", resp["user_percentage"])
	}
}

func TestExportReportEndpoint(t *testing.T) {
	env := newTestEnv(t)
	env.seedCategorized(t)

	rec := env.do(t, http.MethodPost, "/reports/export", map[string]int{"year": 2026, "month": 3})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp["ref"] == "" {
		t.Error("expected a report ref")
	}
	if got := len(env.writer.Reports); got != 1 {
		t.Fatalf("reports written = %d, want 1", got)
	}
	if env.writer.Reports[0].Year != 2026 || env.writer.Reports[0].Month != 3 {
		t.Errorf("unexpected report period: %+v", env.writer.Reports[0])
	}

	rec = env.do(t, http.MethodPost, "/reports/export", map[string]int{"year": 2026, "month": 13})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("invalid month status = %d, want 422", rec.Code)
	}
}

func TestRateLimitOnWrites(t *testing.T) {
	env := newTestEnv(t)

	limited := false
	for i := 0; i < 70; i++ {
		rec := env.do(t, http.MethodPost, "/rules", map[string]any{
			"description": fmt.Sprintf("Merchant %d", i),
			"category_id": "groceries",
		})
		if rec.Code == http.StatusTooManyRequests {
			limited = true
			break
		}
	}
	if !limited {
		t.Error("expected rate limiting to kick in on write burst")
	}
}
