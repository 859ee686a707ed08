package domain

import (
	"fmt"
	"strconv"
)

// Scope selects the deployment mode of the ledger. It decides where files
// live and which columns the ledger carries.
type Scope string

const (
	ScopeProject Scope = "project"
	ScopeGlobal  Scope = "global"
)

// ParseScope validates a scope name.
func ParseScope(s string) (Scope, error) {
	switch Scope(s) {
	case ScopeProject, ScopeGlobal:
		return Scope(s), nil
	default:
		return "", fmt.Errorf("invalid scope %q: use %q or %q", s, ScopeProject, ScopeGlobal)
	}
}

// Ledger column names.
const (
	ColID                  = "id"
	ColProjectName         = "project_name"
	ColProjectPath         = "project_path"
	ColRequest             = "request"
	ColResponse            = "response"
	ColStar                = "star"
	ColStarDesc            = "star_desc"
	ColRequestDtm          = "request_dtm"
	ColResponseDtm         = "response_dtm"
	ColStarDtm             = "star_dtm"
	ColDuration            = "duration"
	ColToolsUsed           = "tools_used"
	ColToolsCount          = "tools_count"
	ColModel               = "model"
	ColRequestTokensEst    = "request_tokens_est"
	ColResponseTokensEst   = "response_tokens_est"
	ColTotalTokensEst      = "total_tokens_est"
	ColActualInputTokens   = "actual_input_tokens"
	ColActualOutputTokens  = "actual_output_tokens"
	ColCacheCreationTokens = "cache_creation_tokens"
	ColCacheReadTokens     = "cache_read_tokens"
	ColEstimatedCost       = "estimated_cost"
	ColCostCurrency        = "cost_currency"
)

var conversationColumns = []string{
	ColRequest, ColResponse, ColStar, ColStarDesc,
	ColRequestDtm, ColResponseDtm, ColStarDtm, ColDuration,
	ColToolsUsed, ColToolsCount, ColModel,
	ColRequestTokensEst, ColResponseTokensEst, ColTotalTokensEst,
	ColActualInputTokens, ColActualOutputTokens, ColCacheCreationTokens, ColCacheReadTokens,
	ColEstimatedCost, ColCostCurrency,
}

// Columns returns the ledger header for the scope, in file order. Global
// ledgers collect several projects and carry the project columns.
func (s Scope) Columns() []string {
	cols := []string{ColID}
	if s == ScopeGlobal {
		cols = append(cols, ColProjectName, ColProjectPath)
	}
	return append(cols, conversationColumns...)
}

// Patch sets ledger fields by column name.
type Patch map[string]string

// ConversationRecord is one ledger row: a prompt, its response, and its rating.
type ConversationRecord struct {
	ID          string
	ProjectPath string
	ProjectName string

	Request  string
	Response string

	ToolsUsed  string
	ToolsCount string

	RequestDtm  string
	ResponseDtm string
	StarDtm     string
	Duration    string

	Star     string
	StarDesc string

	Model               string
	RequestTokensEst    string
	ResponseTokensEst   string
	TotalTokensEst      string
	ActualInputTokens   string
	ActualOutputTokens  string
	CacheCreationTokens string
	CacheReadTokens     string
	EstimatedCost       string
	CostCurrency        string
}

// Fields returns the record keyed by column name.
func (r ConversationRecord) Fields() map[string]string {
	return map[string]string{
		ColID:                  r.ID,
		ColProjectName:         r.ProjectName,
		ColProjectPath:         r.ProjectPath,
		ColRequest:             r.Request,
		ColResponse:            r.Response,
		ColStar:                r.Star,
		ColStarDesc:            r.StarDesc,
		ColRequestDtm:          r.RequestDtm,
		ColResponseDtm:         r.ResponseDtm,
		ColStarDtm:             r.StarDtm,
		ColDuration:            r.Duration,
		ColToolsUsed:           r.ToolsUsed,
		ColToolsCount:          r.ToolsCount,
		ColModel:               r.Model,
		ColRequestTokensEst:    r.RequestTokensEst,
		ColResponseTokensEst:   r.ResponseTokensEst,
		ColTotalTokensEst:      r.TotalTokensEst,
		ColActualInputTokens:   r.ActualInputTokens,
		ColActualOutputTokens:  r.ActualOutputTokens,
		ColCacheCreationTokens: r.CacheCreationTokens,
		ColCacheReadTokens:     r.CacheReadTokens,
		ColEstimatedCost:       r.EstimatedCost,
		ColCostCurrency:        r.CostCurrency,
	}
}

// RecordFromFields builds a record from column-keyed values. Unknown columns
// are ignored.
func RecordFromFields(f map[string]string) ConversationRecord {
	return ConversationRecord{
		ID:                  f[ColID],
		ProjectName:         f[ColProjectName],
		ProjectPath:         f[ColProjectPath],
		Request:             f[ColRequest],
		Response:            f[ColResponse],
		Star:                f[ColStar],
		StarDesc:            f[ColStarDesc],
		RequestDtm:          f[ColRequestDtm],
		ResponseDtm:         f[ColResponseDtm],
		StarDtm:             f[ColStarDtm],
		Duration:            f[ColDuration],
		ToolsUsed:           f[ColToolsUsed],
		ToolsCount:          f[ColToolsCount],
		Model:               f[ColModel],
		RequestTokensEst:    f[ColRequestTokensEst],
		ResponseTokensEst:   f[ColResponseTokensEst],
		TotalTokensEst:      f[ColTotalTokensEst],
		ActualInputTokens:   f[ColActualInputTokens],
		ActualOutputTokens:  f[ColActualOutputTokens],
		CacheCreationTokens: f[ColCacheCreationTokens],
		CacheReadTokens:     f[ColCacheReadTokens],
		EstimatedCost:       f[ColEstimatedCost],
		CostCurrency:        f[ColCostCurrency],
	}
}

// AwaitingResponse reports whether the response fields are still unset.
func (r ConversationRecord) AwaitingResponse() bool {
	return r.ResponseDtm == ""
}

// Rated reports whether a star rating has been recorded.
func (r ConversationRecord) Rated() bool {
	return r.Star != ""
}

// StarValue returns the rating as an integer, or 0 when unrated or invalid.
func (r ConversationRecord) StarValue() int {
	n, err := strconv.Atoi(r.Star)
	if err != nil || n < MinRating || n > MaxRating {
		return 0
	}
	return n
}
