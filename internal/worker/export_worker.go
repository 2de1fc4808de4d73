// Package worker mirrors stored transactions to the spreadsheet ledger.
//
// Two paths feed the worker: AMQP messages published on each write, and a
// periodic scan over records still marked pending. The scan catches up after
// broker outages or worker downtime, so a lost message is never a lost
// export.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/export"
)

// ExportStore is the slice of the SQLite store the worker needs.
type ExportStore interface {
	Get(ctx context.Context, id string) (core.Transaction, error)
	GetPendingExport(ctx context.Context, limit int) ([]core.Transaction, error)
	MarkExported(ctx context.Context, id string) error
	MarkExportError(ctx context.Context, id string) error
}

// Consumer delivers export messages until its context is cancelled.
type Consumer interface {
	ConsumeTransactionExport(ctx context.Context, handler func(*amqp.TransactionExportMessage) error) error
}

type ExportWorker struct {
	store     ExportStore
	ledger    export.LedgerWriter
	batchSize int
}

func NewExportWorker(store ExportStore, ledger export.LedgerWriter, batchSize int) *ExportWorker {
	if batchSize < 1 {
		batchSize = 10
	}
	return &ExportWorker{
		store:     store,
		ledger:    ledger,
		batchSize: batchSize,
	}
}

// HandleMessage processes one export message from AMQP. Errors propagate to
// the consumer, which requeues the delivery.
func (w *ExportWorker) HandleMessage(ctx context.Context, msg *amqp.TransactionExportMessage) error {
	switch msg.Kind {
	case amqp.KindExport:
		return w.exportOne(ctx, msg.ID)
	case amqp.KindDelete:
		// The ledger is append-only. Deletions stay local; the row remains
		// as a historical entry.
		slog.InfoContext(ctx, "Skipping ledger removal for deleted transaction", "id", msg.ID)
		return nil
	default:
		return fmt.Errorf("unknown message kind: %s", msg.Kind)
	}
}

func (w *ExportWorker) exportOne(ctx context.Context, id string) error {
	tx, err := w.store.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("get transaction %s: %w", id, err)
	}

	ref, err := w.ledger.Append(ctx, tx)
	if err != nil {
		return fmt.Errorf("append to ledger: %w", err)
	}

	if err := w.store.MarkExported(ctx, id); err != nil {
		// The export itself succeeded, leave the message acked.
		slog.WarnContext(ctx, "Failed to mark transaction as exported",
			"id", id, "error", err)
	}

	slog.InfoContext(ctx, "Exported transaction to ledger",
		"id", id,
		"sheets_ref", ref)

	return nil
}

// ProcessPending exports one batch of pending records. Failed records are
// marked with an export error instead of blocking the batch. Returns the
// number of successfully exported records.
func (w *ExportWorker) ProcessPending(ctx context.Context) (int, error) {
	pending, err := w.store.GetPendingExport(ctx, w.batchSize)
	if err != nil {
		return 0, fmt.Errorf("get pending exports: %w", err)
	}
	if len(pending) == 0 {
		return 0, nil
	}

	slog.InfoContext(ctx, "Processing pending exports", "count", len(pending))

	exported := 0
	for _, tx := range pending {
		if err := ctx.Err(); err != nil {
			return exported, err
		}
		if _, err := w.ledger.Append(ctx, tx); err != nil {
			slog.ErrorContext(ctx, "Failed to export pending transaction",
				"id", tx.ID, "error", err)
			if markErr := w.store.MarkExportError(ctx, tx.ID); markErr != nil {
				slog.ErrorContext(ctx, "Failed to mark export error",
					"id", tx.ID, "error", markErr)
			}
			continue
		}
		if err := w.store.MarkExported(ctx, tx.ID); err != nil {
			slog.WarnContext(ctx, "Failed to mark transaction as exported",
				"id", tx.ID, "error", err)
		}
		exported++
	}
	return exported, nil
}

// Run consumes AMQP messages and scans for pending records until ctx is
// cancelled. Both loops stop together; the first hard failure brings the
// worker down.
func (w *ExportWorker) Run(ctx context.Context, consumer Consumer, scanInterval time.Duration) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return consumer.ConsumeTransactionExport(ctx, func(msg *amqp.TransactionExportMessage) error {
			return w.HandleMessage(ctx, msg)
		})
	})

	g.Go(func() error {
		// Catch up on anything missed while the worker was down.
		if _, err := w.ProcessPending(ctx); err != nil && ctx.Err() == nil {
			slog.ErrorContext(ctx, "Startup pending scan failed", "error", err)
		}

		ticker := time.NewTicker(scanInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
				if _, err := w.ProcessPending(ctx); err != nil && ctx.Err() == nil {
					slog.ErrorContext(ctx, "Pending scan failed", "error", err)
				}
			}
		}
	})

	return g.Wait()
}
