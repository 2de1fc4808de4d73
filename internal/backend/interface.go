// Package backend assembles the stores and services the web process runs on.
package backend

import (
	"context"

	"fintrack/internal/services"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult contains the assembled services and optional cleanup function.
// AuthService serves authenticated owners, LocalService the anonymous file
// scope.
type BackendResult struct {
	AuthService  *services.TransactionService
	LocalService *services.TransactionService
	Cleanup      CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	// CreateBackend creates a backend instance based on the provided config
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	// Backend type for the authenticated store
	Type BackendType

	// SQLite specific
	SQLiteDBPath string

	// Anonymous scope
	LocalStorePath string

	// AMQP export queue (optional)
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}

// BackendType represents the type of backend
type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
