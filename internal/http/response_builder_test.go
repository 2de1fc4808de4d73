package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestBuilderDefaults(t *testing.T) {
	rec := httptest.NewRecorder()
	NewHTMXResponse().Write(rec)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected default 200, got %d", rec.Code)
	}
	if rec.Header().Get("HX-Trigger") != "" {
		t.Fatal("no triggers should produce no HX-Trigger header")
	}
}

func TestBuilderTriggers(t *testing.T) {
	rec := httptest.NewRecorder()
	NewHTMXResponse().
		TriggerTransactionCreated("42", "income").
		TriggerFormReset().
		Write(rec)

	header := rec.Header().Get("HX-Trigger")
	var triggers map[string]interface{}
	if err := json.Unmarshal([]byte(header), &triggers); err != nil {
		t.Fatalf("HX-Trigger should be JSON: %v", err)
	}
	created, ok := triggers["transaction:created"].(map[string]interface{})
	if !ok {
		t.Fatalf("missing transaction:created trigger: %s", header)
	}
	if created["id"] != "42" || created["type"] != "income" {
		t.Fatalf("unexpected trigger payload: %v", created)
	}
	if _, ok := triggers["form:reset"]; !ok {
		t.Fatalf("missing form:reset trigger: %s", header)
	}
}

func TestBuilderStatusAndBody(t *testing.T) {
	rec := httptest.NewRecorder()
	NewHTMXResponse().
		Status(http.StatusCreated).
		BodyHTML(`<div class="success">done</div>`).
		Write(rec)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Fatalf("expected HTML content type, got %s", ct)
	}
	if !strings.Contains(rec.Body.String(), "done") {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}

func TestErrorResponseEscapesMessage(t *testing.T) {
	rec := httptest.NewRecorder()
	UnprocessableEntityError(`<script>alert(1)</script>`).Write(rec)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "<script>") {
		t.Fatalf("message should be escaped: %s", rec.Body.String())
	}
}

func TestMethodNotAllowedSetsAllowHeader(t *testing.T) {
	rec := httptest.NewRecorder()
	MethodNotAllowedError("GET, POST").Write(rec)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
	if allow := rec.Header().Get("Allow"); allow != "GET, POST" {
		t.Fatalf("expected Allow header, got %q", allow)
	}
}
