package amqp

import (
	"encoding/json"
	"time"
)

// Export message kinds.
const (
	KindExport = "export"
	KindDelete = "delete"
)

// TransactionExportMessage asks the worker to mirror one transaction to the
// spreadsheet ledger. It carries only the ID; the worker fetches the full
// record from the database.
type TransactionExportMessage struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	Timestamp time.Time `json:"timestamp"`
}

// NewTransactionExportMessage creates an export message for a stored record.
func NewTransactionExportMessage(id string) *TransactionExportMessage {
	return &TransactionExportMessage{
		ID:        id,
		Kind:      KindExport,
		Timestamp: time.Now(),
	}
}

// NewTransactionDeleteMessage creates a delete notification for the worker.
func NewTransactionDeleteMessage(id string) *TransactionExportMessage {
	return &TransactionExportMessage{
		ID:        id,
		Kind:      KindDelete,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *TransactionExportMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// TransactionExportMessageFromJSON creates a message from JSON bytes
func TransactionExportMessageFromJSON(data []byte) (*TransactionExportMessage, error) {
	var msg TransactionExportMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
