package turso_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emiliopalmerini/ccptracker/internal/adapters/turso"
	"github.com/emiliopalmerini/ccptracker/internal/domain"
)

func testArchive(t *testing.T) *turso.ConversationRepository {
	t.Helper()

	repo, err := turso.OpenArchive(context.Background(), "file:"+filepath.Join(t.TempDir(), "archive.db"), "")
	if err != nil {
		t.Fatalf("Failed to open archive: %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func TestConversationRepository_UpsertReplacesByID(t *testing.T) {
	repo := testArchive(t)
	ctx := context.Background()

	rec := domain.ConversationRecord{
		ID:               "20250117100000",
		ProjectName:      "demo",
		Request:          "Refactor the parser",
		RequestDtm:       "2025-01-17 10:00:00",
		RequestTokensEst: "6",
	}
	require.NoError(t, repo.UpsertConversation(ctx, rec))

	rec.Response = "Done."
	rec.Duration = "30"
	rec.Model = "claude-sonnet-4-5"
	rec.EstimatedCost = "0.002250"
	rec.CostCurrency = "USD"
	rec.Star = "4"
	require.NoError(t, repo.UpsertConversation(ctx, rec))

	count, err := repo.CountConversations(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	rows, err := repo.ListRecent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, rec, rows[0])
}

func TestConversationRepository_ListRecentOrder(t *testing.T) {
	repo := testArchive(t)
	ctx := context.Background()

	for _, id := range []string{"20250101000000", "20250103000000", "20250102000000"} {
		require.NoError(t, repo.UpsertConversation(ctx, domain.ConversationRecord{ID: id}))
	}

	rows, err := repo.ListRecent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "20250103000000", rows[0].ID)
	assert.Equal(t, "20250102000000", rows[1].ID)
	assert.Equal(t, "", rows[0].Star, "empty numeric cells stay empty")
}

func TestNewDB_RequiresURL(t *testing.T) {
	_, err := turso.NewDB("", "", false)
	assert.Error(t, err)
}

func TestWithRetry_RetriesStreamErrors(t *testing.T) {
	attempts := 0
	got, err := turso.WithRetry(context.Background(), 2, func() (int, error) {
		attempts++
		if attempts < 2 {
			return 0, errors.New("hrana: stream not found")
		}
		return 42, nil
	})

	require.NoError(t, err)
	assert.Equal(t, 42, got)
	assert.Equal(t, 2, attempts)
}

func TestWithRetry_OtherErrorsFailFast(t *testing.T) {
	attempts := 0
	_, err := turso.WithRetry(context.Background(), 3, func() (int, error) {
		attempts++
		return 0, errors.New("syntax error")
	})

	assert.Error(t, err)
	assert.Equal(t, 1, attempts)
	assert.False(t, turso.IsStreamError(nil))
}
