package otel

import (
	"context"

	"github.com/emiliopalmerini/ccptracker/internal/ports"
)

// NoOpExporter is a metrics exporter that does nothing.
type NoOpExporter struct{}

// NewNoOpExporter creates a new no-op exporter for graceful degradation.
func NewNoOpExporter() *NoOpExporter {
	return &NoOpExporter{}
}

func (e *NoOpExporter) ExportConversation(ctx context.Context, m *ports.ConversationMetrics) error {
	return nil
}

func (e *NoOpExporter) ExportRating(ctx context.Context, projectName string, star int) error {
	return nil
}

func (e *NoOpExporter) Close(ctx context.Context) error {
	return nil
}
