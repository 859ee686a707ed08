package errors

import (
	stderrors "errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIs_MatchesWrappedErrors(t *testing.T) {
	cause := stderrors.New("disk full")
	err := fmt.Errorf("append row: %w", NewStorageIO("/tmp/ledger.csv", cause))

	assert.True(t, Is(err, ErrStorageIO))
	assert.False(t, Is(err, ErrUnwritable))
	assert.ErrorIs(t, err, cause)
}

func TestIs_PlainError(t *testing.T) {
	assert.False(t, Is(stderrors.New("boom"), ErrStorageIO))
	assert.False(t, Is(nil, ErrStorageIO))
}

func TestTransient(t *testing.T) {
	tests := []struct {
		name string
		err  *TrackerError
		want bool
	}{
		{"lock timeout", NewLockTimeout("/tmp/x.lock", 5*time.Second), true},
		{"storage io", NewStorageIO("/tmp/x", nil), true},
		{"unwritable", NewUnwritable("/root", nil), false},
		{"invalid input", NewInvalidInput("bad json", nil), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Transient())
			assert.Equal(t, tt.want, IsTransient(fmt.Errorf("wrapped: %w", tt.err)))
		})
	}
}

func TestError_Message(t *testing.T) {
	err := NewLockTimeout("/data/ledger.csv.lock", 2*time.Second)
	assert.Equal(t, "LOCK_TIMEOUT: timed out after 2s waiting for lock on /data/ledger.csv.lock", err.Error())

	err = NewUnwritable("/data", stderrors.New("permission denied"))
	assert.Equal(t, "UNWRITABLE: cannot write to /data: permission denied", err.Error())
}
