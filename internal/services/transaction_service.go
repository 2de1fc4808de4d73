// Package services orchestrates transaction writes across the store and the
// export queue.
package services

import (
	"context"
	"fmt"
	"log/slog"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/store"
)

// ExportPublisher is the slice of the AMQP client the service needs.
type ExportPublisher interface {
	PublishTransactionExport(ctx context.Context, msg *amqp.TransactionExportMessage) error
}

// TransactionService saves transactions and notifies the export worker. The
// store write is authoritative; a failed publish never fails the request,
// the worker's pending scan picks the record up later.
type TransactionService struct {
	store     store.RecordStore
	publisher ExportPublisher
}

func NewTransactionService(recordStore store.RecordStore, publisher ExportPublisher) *TransactionService {
	return &TransactionService{
		store:     recordStore,
		publisher: publisher,
	}
}

// Create saves a transaction and publishes an export message for it.
func (s *TransactionService) Create(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	stored, err := s.store.Create(ctx, tx)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("save transaction: %w", err)
	}

	if err := s.publishExport(ctx, amqp.NewTransactionExportMessage(stored.ID)); err != nil {
		slog.ErrorContext(ctx, "Failed to publish export message",
			"id", stored.ID, "error", err)
	}

	return stored, nil
}

// Delete removes a transaction and publishes a delete notification.
func (s *TransactionService) Delete(ctx context.Context, id, owner string) error {
	if err := s.store.Delete(ctx, id, owner); err != nil {
		return err
	}

	if err := s.publishExport(ctx, amqp.NewTransactionDeleteMessage(id)); err != nil {
		slog.ErrorContext(ctx, "Failed to publish delete message",
			"id", id, "error", err)
	}

	return nil
}

// List passes through to the store.
func (s *TransactionService) List(ctx context.Context, owner string) ([]core.Transaction, error) {
	return s.store.List(ctx, owner)
}

func (s *TransactionService) publishExport(ctx context.Context, msg *amqp.TransactionExportMessage) error {
	if s.publisher == nil {
		slog.DebugContext(ctx, "Export publisher not configured, skipping message", "id", msg.ID)
		return nil
	}
	return s.publisher.PublishTransactionExport(ctx, msg)
}
