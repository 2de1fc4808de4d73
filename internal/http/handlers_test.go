package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"fintrack/internal/auth"
	"fintrack/internal/log"
	"fintrack/internal/services"
	"fintrack/internal/store"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	localStore, err := store.NewLocalFileStore(filepath.Join(t.TempDir(), "local.json"))
	if err != nil {
		t.Fatalf("local store: %v", err)
	}

	authSvc := services.NewTransactionService(store.NewMemoryStore(), nil)
	localSvc := services.NewTransactionService(localStore, nil)
	sessions := auth.NewManager(0)
	logger := log.New(log.DefaultConfig())

	s := NewServer(":0", sessions, authSvc, localSvc, logger)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = s.Shutdown(ctx)
	})
	return s
}

func doRequest(s *Server, method, path string, form url.Values, cookie *http.Cookie) *httptest.ResponseRecorder {
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, path, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec, req)
	return rec
}

func transactionForm(source, amount, txType string) url.Values {
	return url.Values{
		"source":      {source},
		"amount":      {amount},
		"type":        {txType},
		"date":        {time.Now().UTC().Format("2006-01-02")},
		"description": {"test entry"},
	}
}

// triggerID extracts the transaction id from the HX-Trigger header.
func triggerID(t *testing.T, rec *httptest.ResponseRecorder, event string) string {
	t.Helper()
	header := rec.Header().Get("HX-Trigger")
	if header == "" {
		t.Fatal("missing HX-Trigger header")
	}
	var triggers map[string]map[string]string
	if err := json.Unmarshal([]byte(header), &triggers); err != nil {
		t.Fatalf("parse HX-Trigger %q: %v", header, err)
	}
	data, ok := triggers[event]
	if !ok {
		t.Fatalf("HX-Trigger %q missing event %s", header, event)
	}
	return data["id"]
}

func TestCreateTransaction(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(s, http.MethodPost, "/transactions", transactionForm("Groceries", "42,50", "expense"), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if id := triggerID(t, rec, "transaction:created"); id == "" {
		t.Fatal("created trigger should carry the record id")
	}
	if !strings.Contains(rec.Body.String(), "Groceries") {
		t.Fatalf("success body should echo the source: %s", rec.Body.String())
	}

	history := doRequest(s, http.MethodGet, "/transactions", nil, nil)
	if history.Code != http.StatusOK {
		t.Fatalf("history: expected 200, got %d", history.Code)
	}
	if !strings.Contains(history.Body.String(), "Groceries") {
		t.Fatal("created record should appear in the history")
	}
}

func TestCreateRejectsBadInput(t *testing.T) {
	s := newTestServer(t)

	cases := []struct {
		name string
		form url.Values
	}{
		{"bad amount", transactionForm("Rent", "abc", "expense")},
		{"zero amount", transactionForm("Rent", "0", "expense")},
		{"bad type", transactionForm("Rent", "10", "transfer")},
		{"empty source", transactionForm("   ", "10", "expense")},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := doRequest(s, http.MethodPost, "/transactions", tc.form, nil)
			if rec.Code != http.StatusUnprocessableEntity {
				t.Fatalf("expected 422, got %d: %s", rec.Code, rec.Body.String())
			}
			if !strings.Contains(rec.Body.String(), `class="error"`) {
				t.Fatalf("expected error div, got %s", rec.Body.String())
			}
		})
	}
}

func TestCreateRejectsBadDate(t *testing.T) {
	s := newTestServer(t)

	form := transactionForm("Rent", "10", "expense")
	form.Set("date", "not-a-date")
	rec := doRequest(s, http.MethodPost, "/transactions", form, nil)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
}

func TestDeleteTransaction(t *testing.T) {
	s := newTestServer(t)

	created := doRequest(s, http.MethodPost, "/transactions", transactionForm("Coffee", "3,20", "expense"), nil)
	id := triggerID(t, created, "transaction:created")

	rec := doRequest(s, http.MethodDelete, "/transactions?id="+id, nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if got := triggerID(t, rec, "transaction:deleted"); got != id {
		t.Fatalf("deleted trigger id = %s, want %s", got, id)
	}

	history := doRequest(s, http.MethodGet, "/transactions", nil, nil)
	if strings.Contains(history.Body.String(), "Coffee") {
		t.Fatal("deleted record should not appear in the history")
	}
}

func TestDeleteNotFound(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(s, http.MethodDelete, "/transactions?id=999", nil, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestDeleteMissingID(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(s, http.MethodDelete, "/transactions", nil, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestTransactionsMethodNotAllowed(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(s, http.MethodPut, "/transactions", nil, nil)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
}

func TestAuthenticatedScopeIsSeparate(t *testing.T) {
	s := newTestServer(t)

	login := doRequest(s, http.MethodPost, "/login", url.Values{"email": {"alice@example.com"}}, nil)
	if login.Code != http.StatusSeeOther {
		t.Fatalf("login: expected 303, got %d: %s", login.Code, login.Body.String())
	}
	var session *http.Cookie
	for _, c := range login.Result().Cookies() {
		if c.Name == auth.SessionCookie {
			session = c
		}
	}
	if session == nil || session.Value == "" {
		t.Fatal("login should set the session cookie")
	}

	created := doRequest(s, http.MethodPost, "/transactions", transactionForm("Salary", "2500", "income"), session)
	if created.Code != http.StatusOK {
		t.Fatalf("authenticated create: expected 200, got %d", created.Code)
	}

	anon := doRequest(s, http.MethodGet, "/transactions", nil, nil)
	if strings.Contains(anon.Body.String(), "Salary") {
		t.Fatal("anonymous history should not see authenticated records")
	}

	owned := doRequest(s, http.MethodGet, "/transactions", nil, session)
	if !strings.Contains(owned.Body.String(), "Salary") {
		t.Fatal("authenticated history should see the record")
	}
}

func TestLoginRejectsBadEmail(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(s, http.MethodPost, "/login", url.Values{"email": {"not-an-email"}}, nil)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
}

func TestChartSummary(t *testing.T) {
	s := newTestServer(t)

	doRequest(s, http.MethodPost, "/transactions", transactionForm("Salary", "100", "income"), nil)
	doRequest(s, http.MethodPost, "/transactions", transactionForm("Groceries", "40", "expense"), nil)

	rec := doRequest(s, http.MethodGet, "/api/chart/summary", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp struct {
		Success bool               `json:"success"`
		Data    map[string]float64 `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.Success {
		t.Fatal("expected success envelope")
	}
	if resp.Data["income"] != 100 || resp.Data["expense"] != 40 || resp.Data["balance"] != 60 {
		t.Fatalf("unexpected summary: %+v", resp.Data)
	}
}

func TestChartOverviewMonthParam(t *testing.T) {
	s := newTestServer(t)

	year := doRequest(s, http.MethodGet, "/api/chart/overview", nil, nil)
	if year.Code != http.StatusOK {
		t.Fatalf("year view: expected 200, got %d", year.Code)
	}
	var resp struct {
		Success bool `json:"success"`
		Data    struct {
			Labels []string `json:"labels"`
		} `json:"data"`
	}
	if err := json.Unmarshal(year.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Data.Labels) != 12 {
		t.Fatalf("year view should have 12 buckets, got %d", len(resp.Data.Labels))
	}

	for _, bad := range []string{"12", "-2", "jan"} {
		rec := doRequest(s, http.MethodGet, "/api/chart/overview?month="+bad, nil, nil)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("month=%s: expected 400, got %d", bad, rec.Code)
		}
		var errResp struct {
			Success bool   `json:"success"`
			Error   string `json:"error"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &errResp); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if errResp.Success || errResp.Error == "" {
			t.Fatalf("expected error envelope, got %s", rec.Body.String())
		}
	}
}

func TestChartIncomeTrend(t *testing.T) {
	s := newTestServer(t)

	doRequest(s, http.MethodPost, "/transactions", transactionForm("Salary", "100", "income"), nil)
	doRequest(s, http.MethodPost, "/transactions", transactionForm("Salary", "110", "income"), nil)

	rec := doRequest(s, http.MethodGet, "/api/chart/income-trend", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp struct {
		Success bool `json:"success"`
		Data    []struct {
			Trend string `json:"trend"`
			Up    bool   `json:"up"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Data) != 2 {
		t.Fatalf("expected 2 points, got %d", len(resp.Data))
	}
	if resp.Data[0].Trend != "New Entry" {
		t.Fatalf("first point should be new, got %s", resp.Data[0].Trend)
	}
	if !resp.Data[1].Up {
		t.Fatalf("second point should trend up, got %+v", resp.Data[1])
	}
}

func TestIndexPage(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(s, http.MethodGet, "/", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "fintrack") {
		t.Fatal("index page should render")
	}

	missing := doRequest(s, http.MethodGet, "/no-such-page", nil, nil)
	if missing.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", missing.Code)
	}
}

func TestHealthEndpoints(t *testing.T) {
	s := newTestServer(t)

	if rec := doRequest(s, http.MethodGet, "/healthz", nil, nil); rec.Code != http.StatusOK {
		t.Fatalf("healthz: expected 200, got %d", rec.Code)
	}
	if rec := doRequest(s, http.MethodGet, "/readyz", nil, nil); rec.Code != http.StatusOK {
		t.Fatalf("readyz: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	doRequest(s, http.MethodPost, "/transactions", transactionForm("Coffee", "3", "expense"), nil)
	metrics := doRequest(s, http.MethodGet, "/metrics", nil, nil)
	if metrics.Code != http.StatusOK {
		t.Fatalf("metrics: expected 200, got %d", metrics.Code)
	}
	if !strings.Contains(metrics.Body.String(), "transactions_total 1") {
		t.Fatalf("metrics should count the created transaction: %s", metrics.Body.String())
	}
}

func TestWriteCacheInvalidation(t *testing.T) {
	s := newTestServer(t)

	doRequest(s, http.MethodPost, "/transactions", transactionForm("First", "10", "expense"), nil)
	first := doRequest(s, http.MethodGet, "/transactions", nil, nil)
	if !strings.Contains(first.Body.String(), "First") {
		t.Fatal("first record should be listed")
	}

	// Second write must drop the cached snapshot.
	doRequest(s, http.MethodPost, "/transactions", transactionForm("Second", "20", "expense"), nil)
	second := doRequest(s, http.MethodGet, "/transactions", nil, nil)
	if !strings.Contains(second.Body.String(), "Second") {
		t.Fatal("history should reflect the write immediately")
	}
}
