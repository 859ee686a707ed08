package ports

import (
	"context"

	"github.com/emiliopalmerini/ccptracker/internal/domain"
)

// LedgerStore persists conversation records. Only the last record is ever
// modified after it has been appended.
type LedgerStore interface {
	Append(ctx context.Context, rec domain.ConversationRecord) error
	MutateLast(ctx context.Context, patch domain.Patch) (bool, error)
	ReadLast(ctx context.Context) (*domain.ConversationRecord, error)
	ReadAll(ctx context.Context) ([]domain.ConversationRecord, error)
}

// SessionStore holds the single pending session. Update runs its callback
// while holding the store's lock; returning nil clears the session.
type SessionStore interface {
	Load(ctx context.Context) (*domain.SessionState, error)
	Update(ctx context.Context, fn func(current *domain.SessionState) (*domain.SessionState, error)) error
}

// TranscriptExtractor reads the latest assistant turn for a project.
type TranscriptExtractor interface {
	Extract(transcriptPath, projectPath string) (*domain.TranscriptTurn, error)
}

// ConversationArchive mirrors ledger rows into a queryable store.
type ConversationArchive interface {
	UpsertConversation(ctx context.Context, rec domain.ConversationRecord) error
	CountConversations(ctx context.Context) (int64, error)
	Close() error
}

// Logger defines the interface for logging
type Logger interface {
	Debug(message string)
	Error(message string)
}
