package ports

import (
	"context"
)

// MetricsExporter exports conversation metrics to an external observability system.
type MetricsExporter interface {
	// ExportConversation records a conversation whose response was captured.
	ExportConversation(ctx context.Context, m *ConversationMetrics) error
	// ExportRating records a satisfaction rating.
	ExportRating(ctx context.Context, projectName string, star int) error
	// Close shuts down the exporter and flushes any pending metrics.
	Close(ctx context.Context) error
}

// ConversationMetrics contains the counters of one answered conversation.
type ConversationMetrics struct {
	ProjectName string
	Model       string

	TokenInput      int64
	TokenOutput     int64
	TokenCacheRead  int64
	TokenCacheWrite int64
	CostEstimateUSD float64

	DurationSeconds int64
	ToolsCount      int64
}
