package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "saakshi"

// Metrics holds all OTEL metric instruments for saakshi.
// All counters are cumulative (monotonic) and safe for concurrent use.
type Metrics struct {
	// LLM token counters (partitioned by provider + model via attributes)
	InputTokens  metric.Int64Counter
	OutputTokens metric.Int64Counter

	// Credential pool counters
	KeyRotations    metric.Int64Counter
	KeyRetirements  metric.Int64Counter
	FamilyFallbacks metric.Int64Counter

	// Analysis counters (partitioned by kind: evidence, thematic, story)
	Analyses          metric.Int64Counter
	ExtractionRetries metric.Int64Counter
}

// NewMetrics creates all metric instruments. Returns no-op instruments
// when no MeterProvider is registered (safe to call unconditionally).
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)
	m := &Metrics{}
	var err error

	// --- LLM token counters ---

	m.InputTokens, err = meter.Int64Counter("llm.tokens.input",
		metric.WithDescription("Total LLM input tokens consumed"),
		metric.WithUnit("{token}"))
	if err != nil {
		return nil, err
	}

	m.OutputTokens, err = meter.Int64Counter("llm.tokens.output",
		metric.WithDescription("Total LLM output tokens consumed"),
		metric.WithUnit("{token}"))
	if err != nil {
		return nil, err
	}

	// --- Credential pool counters ---

	m.KeyRotations, err = meter.Int64Counter("keypool.rotations",
		metric.WithDescription("Number of credential rotations after retryable provider failures"))
	if err != nil {
		return nil, err
	}

	m.KeyRetirements, err = meter.Int64Counter("keypool.retirements",
		metric.WithDescription("Number of credentials retired (quota exhausted or auth rejected)"))
	if err != nil {
		return nil, err
	}

	m.FamilyFallbacks, err = meter.Int64Counter("provider.family_fallbacks",
		metric.WithDescription("Number of fallbacks to a lower-priority provider family"))
	if err != nil {
		return nil, err
	}

	// --- Analysis counters ---

	m.Analyses, err = meter.Int64Counter("analyses.total",
		metric.WithDescription("Total analyses partitioned by kind (evidence, thematic, story) and outcome"))
	if err != nil {
		return nil, err
	}

	m.ExtractionRetries, err = meter.Int64Counter("extraction.retries",
		metric.WithDescription("Number of strict-format re-prompts after unparsable or mismatched replies"))
	if err != nil {
		return nil, err
	}

	return m, nil
}

// RecordTokens records LLM token usage on the metric counters.
func (m *Metrics) RecordTokens(ctx context.Context, provider, model string, input, output int64) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("llm.provider", provider),
		attribute.String("llm.model", model),
	)
	m.InputTokens.Add(ctx, input, attrs)
	m.OutputTokens.Add(ctx, output, attrs)
}

// RecordRotation records a credential rotation within a family.
func (m *Metrics) RecordRotation(ctx context.Context, family string) {
	if m == nil {
		return
	}
	m.KeyRotations.Add(ctx, 1, metric.WithAttributes(
		attribute.String("llm.provider", family),
	))
}

// RecordRetirement records a credential leaving the active set.
func (m *Metrics) RecordRetirement(ctx context.Context, family, reason string) {
	if m == nil {
		return
	}
	m.KeyRetirements.Add(ctx, 1, metric.WithAttributes(
		attribute.String("llm.provider", family),
		attribute.String("retirement.reason", reason),
	))
}

// RecordFallback records a fallback to the next provider family.
func (m *Metrics) RecordFallback(ctx context.Context, from, to string) {
	if m == nil {
		return
	}
	m.FamilyFallbacks.Add(ctx, 1, metric.WithAttributes(
		attribute.String("fallback.from", from),
		attribute.String("fallback.to", to),
	))
}

// RecordAnalysis records a completed analysis with the given kind and outcome.
func (m *Metrics) RecordAnalysis(ctx context.Context, kind, outcome string) {
	if m == nil {
		return
	}
	m.Analyses.Add(ctx, 1, metric.WithAttributes(
		attribute.String("analysis.kind", kind),
		attribute.String("analysis.outcome", outcome),
	))
}

// RecordExtractionRetry records one strict-format re-prompt.
func (m *Metrics) RecordExtractionRetry(ctx context.Context, kind string) {
	if m == nil {
		return
	}
	m.ExtractionRetries.Add(ctx, 1, metric.WithAttributes(
		attribute.String("analysis.kind", kind),
	))
}
