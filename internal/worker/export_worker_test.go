package worker

import (
	"context"
	"errors"
	"testing"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/export/memory"
	"fintrack/internal/store"
)

type fakeExportStore struct {
	records  map[string]core.Transaction
	pending  []string
	exported map[string]bool
	errored  map[string]bool
}

func newFakeExportStore() *fakeExportStore {
	return &fakeExportStore{
		records:  make(map[string]core.Transaction),
		exported: make(map[string]bool),
		errored:  make(map[string]bool),
	}
}

func (f *fakeExportStore) add(tx core.Transaction) {
	f.records[tx.ID] = tx
	f.pending = append(f.pending, tx.ID)
}

func (f *fakeExportStore) Get(_ context.Context, id string) (core.Transaction, error) {
	tx, ok := f.records[id]
	if !ok {
		return core.Transaction{}, store.ErrNotFound
	}
	return tx, nil
}

func (f *fakeExportStore) GetPendingExport(_ context.Context, limit int) ([]core.Transaction, error) {
	var out []core.Transaction
	for _, id := range f.pending {
		if f.exported[id] || f.errored[id] {
			continue
		}
		out = append(out, f.records[id])
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakeExportStore) MarkExported(_ context.Context, id string) error {
	f.exported[id] = true
	return nil
}

func (f *fakeExportStore) MarkExportError(_ context.Context, id string) error {
	f.errored[id] = true
	return nil
}

type failingLedger struct {
	failFor map[string]bool
	wrapped *memory.Ledger
}

func (f *failingLedger) Append(ctx context.Context, tx core.Transaction) (string, error) {
	if f.failFor[tx.ID] {
		return "", errors.New("ledger unavailable")
	}
	return f.wrapped.Append(ctx, tx)
}

func record(id string, cents int64) core.Transaction {
	return core.Transaction{
		ID:     id,
		Owner:  "alice@example.com",
		Source: "Salary",
		Amount: core.Money{Cents: cents},
		Type:   core.Income,
		Date:   core.NewDate(2024, 5, 10),
	}
}

func TestHandleExportMessage(t *testing.T) {
	fs := newFakeExportStore()
	fs.add(record("1", 5000))
	ledger := memory.New()
	w := NewExportWorker(fs, ledger, 10)

	err := w.HandleMessage(context.Background(), amqp.NewTransactionExportMessage("1"))
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if !fs.exported["1"] {
		t.Fatal("record should be marked exported")
	}
	if len(ledger.Items()) != 1 {
		t.Fatalf("expected 1 ledger row, got %d", len(ledger.Items()))
	}
}

func TestHandleMessageUnknownRecord(t *testing.T) {
	w := NewExportWorker(newFakeExportStore(), memory.New(), 10)
	err := w.HandleMessage(context.Background(), amqp.NewTransactionExportMessage("404"))
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestHandleDeleteMessageIsNoop(t *testing.T) {
	ledger := memory.New()
	w := NewExportWorker(newFakeExportStore(), ledger, 10)
	if err := w.HandleMessage(context.Background(), amqp.NewTransactionDeleteMessage("1")); err != nil {
		t.Fatalf("delete message should not fail: %v", err)
	}
	if len(ledger.Items()) != 0 {
		t.Fatal("delete message should not touch the ledger")
	}
}

func TestHandleMessageUnknownKind(t *testing.T) {
	w := NewExportWorker(newFakeExportStore(), memory.New(), 10)
	msg := &amqp.TransactionExportMessage{ID: "1", Kind: "compact"}
	if err := w.HandleMessage(context.Background(), msg); err == nil {
		t.Fatal("unknown kind should fail")
	}
}

func TestProcessPending(t *testing.T) {
	fs := newFakeExportStore()
	fs.add(record("1", 1000))
	fs.add(record("2", 2000))
	fs.add(record("3", 3000))
	ledger := memory.New()
	w := NewExportWorker(fs, ledger, 10)

	n, err := w.ProcessPending(context.Background())
	if err != nil {
		t.Fatalf("process pending: %v", err)
	}
	if n != 3 {
		t.Fatalf("expected 3 exports, got %d", n)
	}

	// Nothing left on a second pass.
	n, err = w.ProcessPending(context.Background())
	if err != nil || n != 0 {
		t.Fatalf("expected empty second pass, got n=%d err=%v", n, err)
	}
}

func TestProcessPendingMarksFailures(t *testing.T) {
	fs := newFakeExportStore()
	fs.add(record("1", 1000))
	fs.add(record("2", 2000))
	ledger := &failingLedger{failFor: map[string]bool{"1": true}, wrapped: memory.New()}
	w := NewExportWorker(fs, ledger, 10)

	n, err := w.ProcessPending(context.Background())
	if err != nil {
		t.Fatalf("process pending: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 export, got %d", n)
	}
	if !fs.errored["1"] {
		t.Fatal("failed record should be marked with export error")
	}
	if !fs.exported["2"] {
		t.Fatal("healthy record should still export")
	}
}

func TestProcessPendingRespectsBatchSize(t *testing.T) {
	fs := newFakeExportStore()
	for i := 0; i < 5; i++ {
		fs.add(record(string(rune('a'+i)), int64(1000*(i+1))))
	}
	w := NewExportWorker(fs, memory.New(), 2)

	n, err := w.ProcessPending(context.Background())
	if err != nil {
		t.Fatalf("process pending: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected batch of 2, got %d", n)
	}
}
