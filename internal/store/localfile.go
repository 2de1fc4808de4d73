package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync"
	"time"

	"fintrack/internal/core"
)

// LocalFileStore keeps the anonymous scope's records in a single JSON file.
// The whole file is read, modified and rewritten on every mutation; the scope
// belongs to one browser session, so contention is not a concern.
type LocalFileStore struct {
	mu   sync.Mutex
	path string
}

type localRecord struct {
	ID          string `json:"id"`
	Source      string `json:"source"`
	AmountCents int64  `json:"amountCents"`
	Type        string `json:"type"`
	Date        string `json:"date"`
	Description string `json:"description,omitempty"`
	CreatedAt   string `json:"createdAt"`
}

func NewLocalFileStore(path string) (*LocalFileStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	return &LocalFileStore{path: path}, nil
}

// Create implements RecordStore. The owner on the record is ignored; the file
// itself is the scope.
func (s *LocalFileStore) Create(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load()
	if err != nil {
		return core.Transaction{}, err
	}

	now := time.Now().UTC()
	stored := tx
	stored.ID = strconv.FormatInt(now.UnixNano(), 10)
	stored.CreatedAt = now

	records = append(records, toLocalRecord(stored))
	if err := s.save(records); err != nil {
		return core.Transaction{}, err
	}

	slog.InfoContext(ctx, "Transaction saved to local file",
		"id", stored.ID,
		"type", stored.Type,
		"amount_cents", stored.Amount.Cents)

	return stored, nil
}

// List implements RecordStore. The owner argument is accepted for interface
// symmetry and ignored. Records come back newest first.
func (s *LocalFileStore) List(ctx context.Context, owner string) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load()
	if err != nil {
		return nil, err
	}

	out := make([]core.Transaction, 0, len(records))
	for _, r := range records {
		out = append(out, fromLocalRecord(r, owner))
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.Time.Equal(out[j].Date.Time) {
			return out[i].Date.Time.After(out[j].Date.Time)
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// Delete implements RecordStore.
func (s *LocalFileStore) Delete(ctx context.Context, id, owner string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load()
	if err != nil {
		return err
	}

	kept := records[:0]
	found := false
	for _, r := range records {
		if r.ID == id {
			found = true
			continue
		}
		kept = append(kept, r)
	}
	if !found {
		return ErrNotFound
	}
	if err := s.save(kept); err != nil {
		return err
	}

	slog.InfoContext(ctx, "Transaction deleted from local file", "id", id)
	return nil
}

func (s *LocalFileStore) load() ([]localRecord, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read local store: %w", err)
	}
	if len(data) == 0 {
		return nil, nil
	}
	var records []localRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode local store: %w", err)
	}
	return records, nil
}

func (s *LocalFileStore) save(records []localRecord) error {
	if records == nil {
		records = []localRecord{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encode local store: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write local store: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace local store: %w", err)
	}
	return nil
}

func toLocalRecord(tx core.Transaction) localRecord {
	return localRecord{
		ID:          tx.ID,
		Source:      tx.Source,
		AmountCents: tx.Amount.Cents,
		Type:        string(tx.Type),
		Date:        tx.Date.String(),
		Description: tx.Description,
		CreatedAt:   tx.CreatedAt.Format(time.RFC3339Nano),
	}
}

func fromLocalRecord(r localRecord, owner string) core.Transaction {
	tx := core.Transaction{
		ID:          r.ID,
		Owner:       owner,
		Source:      r.Source,
		Amount:      core.Money{Cents: r.AmountCents},
		Type:        core.TransactionType(r.Type),
		Description: r.Description,
	}
	if d, err := core.ParseDate(r.Date); err == nil {
		tx.Date = d
	}
	if t, err := time.Parse(time.RFC3339Nano, r.CreatedAt); err == nil {
		tx.CreatedAt = t
	}
	return tx
}
