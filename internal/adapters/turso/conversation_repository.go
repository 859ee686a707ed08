package turso

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"github.com/emiliopalmerini/ccptracker/internal/domain"
)

const upsertConversation = `
INSERT INTO conversations (
	id, project_name, project_path, request, response, star, star_desc,
	request_dtm, response_dtm, star_dtm, duration_seconds, tools_used, tools_count,
	model, request_tokens_est, response_tokens_est, total_tokens_est,
	actual_input_tokens, actual_output_tokens, cache_creation_tokens, cache_read_tokens,
	estimated_cost, cost_currency, archived_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	project_name = excluded.project_name,
	project_path = excluded.project_path,
	request = excluded.request,
	response = excluded.response,
	star = excluded.star,
	star_desc = excluded.star_desc,
	request_dtm = excluded.request_dtm,
	response_dtm = excluded.response_dtm,
	star_dtm = excluded.star_dtm,
	duration_seconds = excluded.duration_seconds,
	tools_used = excluded.tools_used,
	tools_count = excluded.tools_count,
	model = excluded.model,
	request_tokens_est = excluded.request_tokens_est,
	response_tokens_est = excluded.response_tokens_est,
	total_tokens_est = excluded.total_tokens_est,
	actual_input_tokens = excluded.actual_input_tokens,
	actual_output_tokens = excluded.actual_output_tokens,
	cache_creation_tokens = excluded.cache_creation_tokens,
	cache_read_tokens = excluded.cache_read_tokens,
	estimated_cost = excluded.estimated_cost,
	cost_currency = excluded.cost_currency,
	archived_at = excluded.archived_at`

const selectConversations = `
SELECT id, project_name, project_path, request, response, star, star_desc,
	request_dtm, response_dtm, star_dtm, duration_seconds, tools_used, tools_count,
	model, request_tokens_est, response_tokens_est, total_tokens_est,
	actual_input_tokens, actual_output_tokens, cache_creation_tokens, cache_read_tokens,
	estimated_cost, cost_currency
FROM conversations
ORDER BY id DESC
LIMIT ?`

// ConversationRepository archives ledger rows keyed by row id.
type ConversationRepository struct {
	db *sql.DB
}

func NewConversationRepository(db *sql.DB) *ConversationRepository {
	return &ConversationRepository{db: db}
}

// UpsertConversation inserts rec or replaces the archived row with the same id.
func (r *ConversationRepository) UpsertConversation(ctx context.Context, rec domain.ConversationRecord) error {
	_, err := WithRetry(ctx, 2, func() (sql.Result, error) {
		return r.db.ExecContext(ctx, upsertConversation,
			rec.ID, rec.ProjectName, rec.ProjectPath, rec.Request, rec.Response,
			nullInt(rec.Star), rec.StarDesc,
			rec.RequestDtm, rec.ResponseDtm, rec.StarDtm,
			nullInt(rec.Duration), rec.ToolsUsed, nullInt(rec.ToolsCount),
			rec.Model, nullInt(rec.RequestTokensEst), nullInt(rec.ResponseTokensEst), nullInt(rec.TotalTokensEst),
			nullInt(rec.ActualInputTokens), nullInt(rec.ActualOutputTokens),
			nullInt(rec.CacheCreationTokens), nullInt(rec.CacheReadTokens),
			nullFloat(rec.EstimatedCost), rec.CostCurrency,
			time.Now().UTC().Format(time.RFC3339),
		)
	})
	if err != nil {
		return fmt.Errorf("failed to upsert conversation %s: %w", rec.ID, err)
	}
	return nil
}

func (r *ConversationRepository) CountConversations(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM conversations`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count conversations: %w", err)
	}
	return count, nil
}

// ListRecent returns up to limit archived conversations, newest first.
func (r *ConversationRepository) ListRecent(ctx context.Context, limit int) ([]domain.ConversationRecord, error) {
	rows, err := r.db.QueryContext(ctx, selectConversations, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	defer rows.Close()

	var result []domain.ConversationRecord
	for rows.Next() {
		var (
			rec                                 domain.ConversationRecord
			star, duration, toolsCount          sql.NullInt64
			reqEst, respEst, totalEst           sql.NullInt64
			actualIn, actualOut, cacheW, cacheR sql.NullInt64
			cost                                sql.NullFloat64
		)
		if err := rows.Scan(
			&rec.ID, &rec.ProjectName, &rec.ProjectPath, &rec.Request, &rec.Response, &star, &rec.StarDesc,
			&rec.RequestDtm, &rec.ResponseDtm, &rec.StarDtm, &duration, &rec.ToolsUsed, &toolsCount,
			&rec.Model, &reqEst, &respEst, &totalEst,
			&actualIn, &actualOut, &cacheW, &cacheR,
			&cost, &rec.CostCurrency,
		); err != nil {
			return nil, fmt.Errorf("failed to scan conversation: %w", err)
		}
		rec.Star = intString(star)
		rec.Duration = intString(duration)
		rec.ToolsCount = intString(toolsCount)
		rec.RequestTokensEst = intString(reqEst)
		rec.ResponseTokensEst = intString(respEst)
		rec.TotalTokensEst = intString(totalEst)
		rec.ActualInputTokens = intString(actualIn)
		rec.ActualOutputTokens = intString(actualOut)
		rec.CacheCreationTokens = intString(cacheW)
		rec.CacheReadTokens = intString(cacheR)
		if cost.Valid {
			rec.EstimatedCost = domain.FormatCost(cost.Float64)
		}
		result = append(result, rec)
	}
	return result, rows.Err()
}

// Close closes the underlying database.
func (r *ConversationRepository) Close() error {
	return r.db.Close()
}

func nullInt(s string) sql.NullInt64 {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: n, Valid: true}
}

func nullFloat(s string) sql.NullFloat64 {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: f, Valid: true}
}

func intString(n sql.NullInt64) string {
	if !n.Valid {
		return ""
	}
	return strconv.FormatInt(n.Int64, 10)
}
