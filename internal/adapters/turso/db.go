package turso

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/tursodatabase/go-libsql"

	"github.com/emiliopalmerini/ccptracker/internal/migrate"
)

// NewDB opens the archive database. Remote URLs get the auth token
// appended; local "file:" URLs are opened as is.
func NewDB(databaseURL, authToken string, ping bool) (*sql.DB, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("archive database URL is required")
	}

	connStr := databaseURL
	if authToken != "" && !strings.HasPrefix(databaseURL, "file:") {
		connStr = databaseURL + "?authToken=" + authToken
	}
	db, err := sql.Open("libsql", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool for Turso's Hrana protocol.
	// Use minimal idle connections since Turso aggressively closes
	// idle streams, causing "stream not found" errors on stale connections.
	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(0)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(0)

	if ping {
		if err := db.Ping(); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to ping database: %w", err)
		}
	}

	return db, nil
}

// OpenArchive connects to the archive and migrates its schema.
func OpenArchive(ctx context.Context, databaseURL, authToken string) (*ConversationRepository, error) {
	db, err := NewDB(databaseURL, authToken, false)
	if err != nil {
		return nil, err
	}
	if err := migrate.RunAll(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to migrate archive: %w", err)
	}
	return NewConversationRepository(db), nil
}

// IsStreamError checks if an error is a Turso "stream not found" error.
func IsStreamError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "stream not found")
}

// WithRetry executes a function with retry logic for Turso stream errors.
// It retries up to maxRetries times when encountering "stream not found" errors.
func WithRetry[T any](ctx context.Context, maxRetries int, fn func() (T, error)) (T, error) {
	var result T
	var err error

	for attempt := 0; attempt <= maxRetries; attempt++ {
		result, err = fn()
		if err == nil {
			return result, nil
		}

		if !IsStreamError(err) || attempt == maxRetries {
			return result, err
		}

		// Brief pause before retry to allow connection pool to refresh
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		case <-time.After(10 * time.Millisecond):
		}
	}

	return result, err
}
