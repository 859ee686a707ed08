package storage

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/emiliopalmerini/ccptracker/internal/csvcodec"
	"github.com/emiliopalmerini/ccptracker/internal/domain"
)

// LedgerStore keeps conversation records in a CSV file. Every mutation
// loads the whole table, changes it in memory, and writes it back under the
// file lock; only the last row is ever modified.
type LedgerStore struct {
	path    string
	columns []string
	lock    *FileLock
	write   writeFunc
}

// NewLedgerStore creates a store for the ledger at path. The scope decides
// the column set written to the header.
func NewLedgerStore(path string, scope domain.Scope, lockTimeout time.Duration) *LedgerStore {
	return &LedgerStore{
		path:    path,
		columns: scope.Columns(),
		lock:    NewFileLock(path, lockTimeout),
		write:   WriteFileAtomic,
	}
}

// Path returns the ledger file path.
func (s *LedgerStore) Path() string {
	return s.path
}

// Columns returns the ledger header.
func (s *LedgerStore) Columns() []string {
	return s.columns
}

// Append adds rec as the last row, creating the file with its header if
// needed.
func (s *LedgerStore) Append(ctx context.Context, rec domain.ConversationRecord) error {
	release, err := s.lock.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("append row: %w", err)
	}
	defer release()

	rows := s.load()
	rows = append(rows, csvcodec.Record(rec.Fields()))

	if err := s.save(ctx, rows); err != nil {
		return fmt.Errorf("append row: %w", err)
	}
	return nil
}

// MutateLast applies patch to the last row. It reports whether the file
// changed: an empty ledger is left untouched, as is one where the patch
// matches the current values.
func (s *LedgerStore) MutateLast(ctx context.Context, patch domain.Patch) (bool, error) {
	release, err := s.lock.Acquire(ctx)
	if err != nil {
		return false, fmt.Errorf("update last row: %w", err)
	}
	defer release()

	rows := s.load()
	if len(rows) == 0 {
		return false, nil
	}

	last := rows[len(rows)-1]
	changed := false
	for field, value := range patch {
		if last[field] != value {
			last[field] = value
			changed = true
		}
	}
	if !changed {
		return false, nil
	}

	if err := s.save(ctx, rows); err != nil {
		return false, fmt.Errorf("update last row: %w", err)
	}
	return true, nil
}

// ReadLast returns the most recently appended record, or nil for an empty
// ledger.
func (s *LedgerStore) ReadLast(ctx context.Context) (*domain.ConversationRecord, error) {
	rows := s.load()
	if len(rows) == 0 {
		return nil, nil
	}
	rec := domain.RecordFromFields(rows[len(rows)-1])
	return &rec, nil
}

// ReadAll returns every record in file order.
func (s *LedgerStore) ReadAll(ctx context.Context) ([]domain.ConversationRecord, error) {
	rows := s.load()
	records := make([]domain.ConversationRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, domain.RecordFromFields(row))
	}
	return records, nil
}

// load reads the table. A missing or unreadable file reads as empty.
func (s *LedgerStore) load() []csvcodec.Record {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return []csvcodec.Record{}
	}
	return csvcodec.Parse(string(data))
}

func (s *LedgerStore) save(ctx context.Context, rows []csvcodec.Record) error {
	data := []byte(csvcodec.Serialize(rows, s.columns))
	return retryIO(ctx, func() error {
		return s.write(s.path, data, 0o644)
	})
}
