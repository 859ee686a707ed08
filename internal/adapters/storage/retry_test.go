package storage

import (
	"context"
	stderrors "errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emiliopalmerini/ccptracker/internal/domain"
	"github.com/emiliopalmerini/ccptracker/internal/errors"
)

// flakyWriter fails the first failures calls with err, then writes for real.
type flakyWriter struct {
	failures int
	err      error
	calls    int
}

func (w *flakyWriter) write(path string, data []byte, perm os.FileMode) error {
	w.calls++
	if w.calls <= w.failures {
		return w.err
	}
	return WriteFileAtomic(path, data, perm)
}

func TestLedgerStore_RetriesTransientWrite(t *testing.T) {
	store := newTestLedger(t, domain.ScopeProject)
	w := &flakyWriter{failures: 2, err: errors.NewStorageIO(store.Path(), stderrors.New("device busy"))}
	store.write = w.write

	require.NoError(t, store.Append(context.Background(), domain.ConversationRecord{ID: "1", Request: "hello"}))
	assert.Equal(t, 3, w.calls)

	last, err := store.ReadLast(context.Background())
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.Equal(t, "hello", last.Request)
}

func TestLedgerStore_GivesUpAfterBoundedRetries(t *testing.T) {
	store := newTestLedger(t, domain.ScopeProject)
	w := &flakyWriter{failures: 100, err: errors.NewStorageIO(store.Path(), stderrors.New("device busy"))}
	store.write = w.write

	err := store.Append(context.Background(), domain.ConversationRecord{ID: "1"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrStorageIO), "expected storage error, got %v", err)
	assert.Equal(t, ioRetries+1, w.calls)
}

func TestLedgerStore_DoesNotRetryUnwritable(t *testing.T) {
	store := newTestLedger(t, domain.ScopeProject)
	w := &flakyWriter{failures: 100, err: errors.NewUnwritable(store.Path(), os.ErrPermission)}
	store.write = w.write

	err := store.Append(context.Background(), domain.ConversationRecord{ID: "1"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrUnwritable), "expected unwritable error, got %v", err)
	assert.Equal(t, 1, w.calls)
}

func TestSessionStore_RetriesTransientWrite(t *testing.T) {
	store := newTestSessionStore(t)
	w := &flakyWriter{failures: 1, err: errors.NewStorageIO(store.Path(), stderrors.New("device busy"))}
	store.write = w.write
	ctx := context.Background()

	err := store.Update(ctx, func(*domain.SessionState) (*domain.SessionState, error) {
		return &domain.SessionState{SessionID: "s1"}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, w.calls)

	state, err := store.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, state)
	assert.Equal(t, "s1", state.SessionID)
}
