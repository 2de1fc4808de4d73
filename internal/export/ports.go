// Package export defines the outbound port for the spreadsheet ledger
// mirror.
package export

import (
	"context"

	"fintrack/internal/core"
)

// LedgerWriter appends one transaction row to the external ledger and
// returns an opaque row reference.
type LedgerWriter interface {
	Append(ctx context.Context, tx core.Transaction) (rowRef string, err error)
}
