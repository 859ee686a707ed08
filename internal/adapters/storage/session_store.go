package storage

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/emiliopalmerini/ccptracker/internal/domain"
	"github.com/emiliopalmerini/ccptracker/internal/errors"
)

// SessionStore persists the single pending SessionState as a JSON file.
type SessionStore struct {
	path  string
	lock  *FileLock
	write writeFunc
}

// NewSessionStore creates a store for the session file at path.
func NewSessionStore(path string, lockTimeout time.Duration) *SessionStore {
	return &SessionStore{
		path:  path,
		lock:  NewFileLock(path, lockTimeout),
		write: WriteFileAtomic,
	}
}

// Path returns the session file path.
func (s *SessionStore) Path() string {
	return s.path
}

// Load returns the pending session, or nil when there is none. A file that
// cannot be parsed counts as no session. Read failures are retried.
func (s *SessionStore) Load(ctx context.Context) (*domain.SessionState, error) {
	var data []byte
	err := retryIO(ctx, func() error {
		var err error
		data, err = os.ReadFile(s.path)
		if err != nil && !stderrors.Is(err, fs.ErrNotExist) {
			return errors.NewStorageIO(s.path, err)
		}
		return err
	})
	if stderrors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var state domain.SessionState
	if err := json.Unmarshal(data, &state); err != nil || state.SessionID == "" {
		return nil, nil
	}
	return &state, nil
}

// Update runs fn with the current session under the file lock and stores
// what it returns: nil clears the session, the unchanged current pointer
// leaves the file alone, anything else is written. An error from fn aborts
// without writing.
func (s *SessionStore) Update(ctx context.Context, fn func(current *domain.SessionState) (*domain.SessionState, error)) error {
	release, err := s.lock.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	defer release()

	current, err := s.Load(ctx)
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}

	next, err := fn(current)
	if err != nil {
		return err
	}

	switch {
	case next == nil:
		return retryIO(ctx, s.remove)
	case next == current:
		return nil
	default:
		return s.save(ctx, next)
	}
}

func (s *SessionStore) save(ctx context.Context, state *domain.SessionState) error {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	return retryIO(ctx, func() error {
		return s.write(s.path, data, 0o644)
	})
}

func (s *SessionStore) remove() error {
	if err := os.Remove(s.path); err != nil && !stderrors.Is(err, fs.ErrNotExist) {
		return errors.NewStorageIO(s.path, err)
	}
	return nil
}
