// Package memory provides an in-process ledger used by tests and local
// development.
package memory

import (
	"context"
	"fmt"
	"sync"

	"fintrack/internal/core"
)

type Ledger struct {
	mu    sync.Mutex
	items []core.Transaction
}

func New() *Ledger {
	return &Ledger{}
}

// Append stores the transaction and returns a synthetic row reference.
func (l *Ledger) Append(_ context.Context, tx core.Transaction) (string, error) {
	if err := tx.Validate(); err != nil {
		return "", err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.items = append(l.items, tx)
	return fmt.Sprintf("mem:%d", len(l.items)), nil
}

// Items returns a copy of everything appended so far.
func (l *Ledger) Items() []core.Transaction {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]core.Transaction(nil), l.items...)
}
