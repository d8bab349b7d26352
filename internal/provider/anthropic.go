package provider

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/prerak-labs/saakshi/internal/keypool"
)

// Anthropic is the text-only family, backed by the Messages API. It fails
// fast with ErrUnsupportedPayload when handed a binary attachment; the
// engine then falls through to a multimodal family instead of wasting a
// credential on a call that cannot succeed.
type Anthropic struct {
	model     string
	maxTokens int64
	baseURL   string
}

// AnthropicConfig holds configuration for the Anthropic adapter.
type AnthropicConfig struct {
	// Model is the model name (e.g., "claude-3-5-haiku-latest").
	Model string
	// MaxTokens is the maximum number of output tokens.
	MaxTokens int64
	// BaseURL overrides the API endpoint. Empty uses the SDK default.
	BaseURL string
}

// NewAnthropic creates an Anthropic adapter.
func NewAnthropic(cfg AnthropicConfig) *Anthropic {
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 4096
	}
	return &Anthropic{model: cfg.Model, maxTokens: maxTokens, baseURL: cfg.BaseURL}
}

// Family returns "anthropic".
func (a *Anthropic) Family() string { return FamilyAnthropic }

// Model returns the model name.
func (a *Anthropic) Model() string { return a.model }

// Invoke sends the prompt to the Anthropic Messages API.
func (a *Anthropic) Invoke(ctx context.Context, cred keypool.Credential, req Request) (*Response, error) {
	if len(req.Attachment) > 0 {
		return nil, fmt.Errorf("%w: anthropic adapter is text-only", ErrUnsupportedPayload)
	}

	ctx, span := tracer.Start(ctx, "chat "+a.model,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("gen_ai.operation.name", "chat"),
			attribute.String("gen_ai.provider.name", "anthropic"),
			attribute.String("gen_ai.request.model", a.model),
			attribute.Int64("gen_ai.request.max_tokens", a.maxTokens),
			attribute.String("credential.id", cred.ID),
		),
	)
	defer span.End()

	opts := []option.RequestOption{option.WithAPIKey(cred.Key)}
	if a.baseURL != "" {
		opts = append(opts, option.WithBaseURL(a.baseURL))
	}
	client := anthropic.NewClient(opts...)

	start := time.Now()
	resp, err := client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(a.model),
		MaxTokens:   a.maxTokens,
		Temperature: anthropic.Float(0),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
		},
	})
	if err != nil {
		span.SetAttributes(attribute.String("error.type", "api_error"))
		if cerr, ok := classifyCtx(ctx, err); ok {
			return nil, cerr
		}
		var apiErr *anthropic.Error
		if errors.As(err, &apiErr) {
			return nil, classifyStatus(apiErr.StatusCode, err)
		}
		return nil, classifyStatus(0, err)
	}

	if len(resp.Content) == 0 {
		span.SetAttributes(attribute.String("error.type", "empty_response"))
		return nil, fmt.Errorf("%w: anthropic returned empty response", ErrProviderUnavailable)
	}

	out := &Response{
		Text:         resp.Content[0].Text,
		Family:       FamilyAnthropic,
		Model:        a.model,
		Latency:      time.Since(start),
		InputTokens:  resp.Usage.InputTokens,
		OutputTokens: resp.Usage.OutputTokens,
	}
	span.SetAttributes(
		attribute.Int64("gen_ai.usage.input_tokens", out.InputTokens),
		attribute.Int64("gen_ai.usage.output_tokens", out.OutputTokens),
	)
	return out, nil
}
