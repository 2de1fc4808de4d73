// Package store persists transaction records keyed by owner identity.
//
// Two interchangeable implementations back the application: a SQLite
// repository for authenticated owners and a single-file JSON store for the
// anonymous local scope. Both enforce the same contract so the HTTP layer
// has exactly one code path parameterized by store choice.
package store

import (
	"context"
	"errors"

	"fintrack/internal/core"
)

var (
	// ErrNotFound is returned by Delete when no record matches both the id
	// and the owner. A wrong id and a foreign record are indistinguishable
	// to the caller.
	ErrNotFound = errors.New("transaction not found")

	// ErrNoOwner is returned by List when no owner identity is resolvable.
	ErrNoOwner = errors.New("no owner identity")
)

// RecordStore is the persistence contract for transaction records.
//
// Create validates the record via core.Transaction.Validate before any
// write, assigns the identifier and creation time, and returns the stored
// record. List returns every record for the owner sorted by date descending,
// tie-broken by creation time descending. Delete removes a record only when
// both id and owner match. No operation retries; every failure is terminal
// for that call.
type RecordStore interface {
	Create(ctx context.Context, tx core.Transaction) (core.Transaction, error)
	List(ctx context.Context, owner string) ([]core.Transaction, error)
	Delete(ctx context.Context, id, owner string) error
}
