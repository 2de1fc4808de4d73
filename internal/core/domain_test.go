package core

import (
	"strings"
	"testing"
)

func validTransaction() Transaction {
	return Transaction{
		Source: "Salary",
		Amount: Money{Cents: 100000},
		Type:   Income,
		Date:   NewDate(2024, 1, 15),
	}
}

func TestTransactionValidate(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*Transaction)
		wantErr error
	}{
		{"valid", func(tx *Transaction) {}, nil},
		{"empty source", func(tx *Transaction) { tx.Source = "  " }, ErrEmptySource},
		{"source too long", func(tx *Transaction) { tx.Source = strings.Repeat("x", 101) }, ErrSourceTooLong},
		{"zero amount", func(tx *Transaction) { tx.Amount = Money{} }, ErrInvalidAmount},
		{"negative amount", func(tx *Transaction) { tx.Amount = Money{Cents: -500} }, ErrInvalidAmount},
		{"missing type", func(tx *Transaction) { tx.Type = "" }, ErrInvalidType},
		{"unknown type", func(tx *Transaction) { tx.Type = "transfer" }, ErrInvalidType},
		{"zero date", func(tx *Transaction) { tx.Date = Date{} }, ErrInvalidDate},
		{"description too long", func(tx *Transaction) { tx.Description = strings.Repeat("d", 201) }, ErrDescriptionLong},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tx := validTransaction()
			tc.mutate(&tx)
			if err := tx.Validate(); err != tc.wantErr {
				t.Fatalf("expected %v, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestIsReportable(t *testing.T) {
	tx := validTransaction()
	if !tx.IsReportable() {
		t.Fatal("valid transaction should be reportable")
	}
	zeroAmount := tx
	zeroAmount.Amount = Money{}
	if zeroAmount.IsReportable() {
		t.Fatal("zero amount should not be reportable")
	}
	negAmount := tx
	negAmount.Amount = Money{Cents: -100}
	if negAmount.IsReportable() {
		t.Fatal("negative amount should not be reportable")
	}
	noDate := tx
	noDate.Date = Date{}
	if noDate.IsReportable() {
		t.Fatal("zero date should not be reportable")
	}
	noType := tx
	noType.Type = ""
	if noType.IsReportable() {
		t.Fatal("missing type should not be reportable")
	}
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-02-29")
	if err != nil {
		t.Fatalf("leap day should parse: %v", err)
	}
	if d.Year() != 2024 || d.Month() != 2 || d.Day() != 29 {
		t.Fatalf("unexpected date parts: %v", d)
	}
	if _, err := ParseDate("2023-02-29"); err == nil {
		t.Fatal("non-leap Feb 29 should fail")
	}
	if _, err := ParseDate("not-a-date"); err == nil {
		t.Fatal("garbage should fail")
	}
	if d.String() != "2024-02-29" {
		t.Fatalf("round trip mismatch: %s", d.String())
	}
	if _, err := ParseDate(" 2024-01-02 "); err != nil {
		t.Fatalf("surrounding whitespace should be tolerated: %v", err)
	}
}
