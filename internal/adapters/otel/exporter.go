package otel

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/emiliopalmerini/ccptracker/internal/ports"
)

const (
	serviceName    = "ccptracker"
	serviceVersion = "1.0.0"
)

// Exporter exports conversation metrics to an OTEL Collector.
type Exporter struct {
	provider           *sdkmetric.MeterProvider
	meter              metric.Meter
	tokensTotal        metric.Int64Counter
	costTotal          metric.Float64Counter
	durationHist       metric.Float64Histogram
	toolsHist          metric.Int64Histogram
	conversationsTotal metric.Int64Counter
	ratingsHist        metric.Int64Histogram
}

// NewExporter creates a new OTEL metrics exporter.
func NewExporter(ctx context.Context, cfg Config) (*Exporter, error) {
	if !cfg.Active() {
		return nil, fmt.Errorf("OTEL exporter is disabled or endpoint not configured")
	}

	opts := []otlpmetricgrpc.Option{
		otlpmetricgrpc.WithEndpoint(cfg.Endpoint),
	}
	if cfg.Insecure {
		opts = append(opts, otlpmetricgrpc.WithDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())))
		opts = append(opts, otlpmetricgrpc.WithInsecure())
	}

	exp, err := otlpmetricgrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating OTLP exporter: %w", err)
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(serviceVersion),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exp)),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(provider)

	return newExporter(provider)
}

// newExporter registers the instruments on provider.
func newExporter(provider *sdkmetric.MeterProvider) (*Exporter, error) {
	meter := provider.Meter(serviceName)

	tokensTotal, err := meter.Int64Counter(
		"ccptracker_conversation_tokens_total",
		metric.WithDescription("Total tokens used in conversations"),
		metric.WithUnit("{token}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating tokens counter: %w", err)
	}

	costTotal, err := meter.Float64Counter(
		"ccptracker_conversation_cost_usd",
		metric.WithDescription("Total estimated cost in USD"),
		metric.WithUnit("USD"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating cost counter: %w", err)
	}

	durationHist, err := meter.Float64Histogram(
		"ccptracker_response_duration_seconds",
		metric.WithDescription("Time from prompt to finished response"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating duration histogram: %w", err)
	}

	toolsHist, err := meter.Int64Histogram(
		"ccptracker_conversation_tools",
		metric.WithDescription("Distinct tools used per conversation"),
		metric.WithUnit("{tool}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating tools histogram: %w", err)
	}

	conversationsTotal, err := meter.Int64Counter(
		"ccptracker_conversations_total",
		metric.WithDescription("Total number of answered conversations"),
		metric.WithUnit("{conversation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating conversations counter: %w", err)
	}

	ratingsHist, err := meter.Int64Histogram(
		"ccptracker_rating_stars",
		metric.WithDescription("Satisfaction ratings"),
		metric.WithUnit("{star}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating ratings histogram: %w", err)
	}

	return &Exporter{
		provider:           provider,
		meter:              meter,
		tokensTotal:        tokensTotal,
		costTotal:          costTotal,
		durationHist:       durationHist,
		toolsHist:          toolsHist,
		conversationsTotal: conversationsTotal,
		ratingsHist:        ratingsHist,
	}, nil
}

// ExportConversation records the counters of one answered conversation.
func (e *Exporter) ExportConversation(ctx context.Context, m *ports.ConversationMetrics) error {
	opt := metric.WithAttributes(
		attribute.String("project_name", m.ProjectName),
		attribute.String("model", m.Model),
	)

	e.tokensTotal.Add(ctx, m.TokenInput+m.TokenOutput, opt)
	e.costTotal.Add(ctx, m.CostEstimateUSD, opt)
	e.durationHist.Record(ctx, float64(m.DurationSeconds), opt)
	e.toolsHist.Record(ctx, m.ToolsCount, opt)
	e.conversationsTotal.Add(ctx, 1, opt)

	return nil
}

// ExportRating records a satisfaction rating.
func (e *Exporter) ExportRating(ctx context.Context, projectName string, star int) error {
	e.ratingsHist.Record(ctx, int64(star), metric.WithAttributes(
		attribute.String("project_name", projectName),
	))
	return nil
}

// Close shuts down the exporter and flushes any pending metrics.
func (e *Exporter) Close(ctx context.Context) error {
	return e.provider.Shutdown(ctx)
}
