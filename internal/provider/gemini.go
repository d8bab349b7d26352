package provider

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/genai"

	"github.com/prerak-labs/saakshi/internal/keypool"
)

var tracer = otel.Tracer("saakshi/provider")

// Gemini is the multimodal primary family, backed by the Gemini API.
// Responses are requested as application/json at temperature 0 so the
// extractor usually gets clean JSON on the first stage.
type Gemini struct {
	model     string
	maxTokens int32
}

// GeminiConfig holds configuration for the Gemini adapter.
type GeminiConfig struct {
	// Model is the model name (e.g., "gemini-2.0-flash").
	Model string
	// MaxTokens is the maximum number of output tokens.
	MaxTokens int32
}

// NewGemini creates a Gemini adapter.
func NewGemini(cfg GeminiConfig) *Gemini {
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 4096
	}
	return &Gemini{model: cfg.Model, maxTokens: maxTokens}
}

// Family returns "gemini".
func (g *Gemini) Family() string { return FamilyGemini }

// Model returns the model name.
func (g *Gemini) Model() string { return g.model }

// Invoke sends the prompt (and attachment, when present) to the Gemini API.
func (g *Gemini) Invoke(ctx context.Context, cred keypool.Credential, req Request) (*Response, error) {
	ctx, span := tracer.Start(ctx, "chat "+g.model,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("gen_ai.operation.name", "chat"),
			attribute.String("gen_ai.provider.name", "gemini"),
			attribute.String("gen_ai.request.model", g.model),
			attribute.String("credential.id", cred.ID),
		),
	)
	defer span.End()

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cred.Key,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		span.SetAttributes(attribute.String("error.type", "client_init"))
		return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}

	var parts []*genai.Part
	if len(req.Attachment) > 0 {
		mime := req.AttachmentMIME
		if mime == "" {
			mime = "image/jpeg"
		}
		parts = append(parts, genai.NewPartFromBytes(req.Attachment, mime))
	}
	parts = append(parts, genai.NewPartFromText(req.Prompt))
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	start := time.Now()
	resp, err := client.Models.GenerateContent(ctx, g.model, contents, &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		Temperature:      genai.Ptr[float32](0),
		MaxOutputTokens:  g.maxTokens,
	})
	if err != nil {
		span.SetAttributes(attribute.String("error.type", "api_error"))
		if cerr, ok := classifyCtx(ctx, err); ok {
			return nil, cerr
		}
		var apiErr genai.APIError
		if errors.As(err, &apiErr) {
			return nil, classifyStatus(apiErr.Code, err)
		}
		return nil, classifyStatus(0, err)
	}

	text := resp.Text()
	if text == "" {
		span.SetAttributes(attribute.String("error.type", "empty_response"))
		return nil, fmt.Errorf("%w: gemini returned no text", ErrProviderUnavailable)
	}

	out := &Response{
		Text:    text,
		Family:  FamilyGemini,
		Model:   g.model,
		Latency: time.Since(start),
	}
	if resp.UsageMetadata != nil {
		out.InputTokens = int64(resp.UsageMetadata.PromptTokenCount)
		out.OutputTokens = int64(resp.UsageMetadata.CandidatesTokenCount)
	}
	span.SetAttributes(
		attribute.Int64("gen_ai.usage.input_tokens", out.InputTokens),
		attribute.Int64("gen_ai.usage.output_tokens", out.OutputTokens),
	)
	return out, nil
}
