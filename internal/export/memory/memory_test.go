package memory

import (
	"context"
	"testing"

	"fintrack/internal/core"
)

func TestAppend(t *testing.T) {
	l := New()
	tx := core.Transaction{
		Owner:  "alice@example.com",
		Source: "Salary",
		Amount: core.Money{Cents: 100000},
		Type:   core.Income,
		Date:   core.NewDate(2024, 1, 15),
	}
	ref, err := l.Append(context.Background(), tx)
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if ref != "mem:1" {
		t.Fatalf("expected mem:1, got %s", ref)
	}
	if items := l.Items(); len(items) != 1 || items[0].Source != "Salary" {
		t.Fatalf("unexpected items: %+v", items)
	}
}

func TestAppendRejectsInvalid(t *testing.T) {
	l := New()
	if _, err := l.Append(context.Background(), core.Transaction{}); err == nil {
		t.Fatal("expected validation error")
	}
	if len(l.Items()) != 0 {
		t.Fatal("invalid transaction should not be stored")
	}
}
