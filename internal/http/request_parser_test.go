package http

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestParserFormBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/transactions",
		strings.NewReader("source=Salary&amount=12%2C34&type=income"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	p := NewRequestBodyParser(req)
	if err := p.Parse(); err != nil {
		t.Fatalf("parse: %v", err)
	}
	if p.IsJSON() {
		t.Fatal("form body should not be detected as JSON")
	}
	if got := p.Get("source"); got != "Salary" {
		t.Fatalf("source = %q", got)
	}
	if got := p.Get("amount"); got != "12,34" {
		t.Fatalf("amount = %q", got)
	}
}

func TestParserJSONBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/transactions",
		strings.NewReader(`{"source": "Salary", "amount": 12.34, "type": "income"}`))
	req.Header.Set("Content-Type", "application/json")

	p := NewRequestBodyParser(req)
	if err := p.Parse(); err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !p.IsJSON() {
		t.Fatal("JSON body should be detected as JSON")
	}
	if got := p.Get("source"); got != "Salary" {
		t.Fatalf("source = %q", got)
	}
	// Numeric JSON values come back as strings.
	if got := p.Get("amount"); got != "12.34" {
		t.Fatalf("amount = %q", got)
	}
}

func TestParserInvalidJSON(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/transactions",
		strings.NewReader(`{"source": `))

	p := NewRequestBodyParser(req)
	if err := p.Parse(); err == nil {
		t.Fatal("truncated JSON should fail")
	}
}

func TestParserEmptyBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/transactions", strings.NewReader(""))

	p := NewRequestBodyParser(req)
	if err := p.Parse(); err != nil {
		t.Fatalf("empty body should parse: %v", err)
	}
	if got := p.Get("anything"); got != "" {
		t.Fatalf("expected empty value, got %q", got)
	}
}

func TestParserSanitizesValues(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/transactions",
		strings.NewReader("source=%00evil%01+%20name"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	p := NewRequestBodyParser(req)
	if err := p.Parse(); err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got := p.Get("source"); got != "evil  name" && got != "evil name" {
		t.Fatalf("control characters should be stripped, got %q", got)
	}
}

func TestRequireMethod(t *testing.T) {
	post := httptest.NewRequest(http.MethodPost, "/transactions", nil)
	if resp := RequirePOST(post); resp != nil {
		t.Fatal("POST should pass RequirePOST")
	}

	get := httptest.NewRequest(http.MethodGet, "/transactions", nil)
	resp := RequirePOST(get)
	if resp == nil {
		t.Fatal("GET should fail RequirePOST")
	}
	rec := httptest.NewRecorder()
	resp.Write(rec)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}

	del := httptest.NewRequest(http.MethodDelete, "/transactions", nil)
	if resp := RequireDeleteOrPOST(del); resp != nil {
		t.Fatal("DELETE should pass RequireDeleteOrPOST")
	}
}
