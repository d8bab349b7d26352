package provider

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/prerak-labs/saakshi/internal/keypool"
)

// OpenAICompat is the fallback family: any OpenAI-compatible Chat
// Completions endpoint, selected by base URL. The original deployment
// pointed this at api.sambanova.ai; it works unchanged against OpenAI
// itself. Attachments are embedded as base64 data URLs.
type OpenAICompat struct {
	model     string
	maxTokens int64
	baseURL   string
}

// OpenAIConfig holds configuration for the OpenAI-compatible adapter.
type OpenAIConfig struct {
	// Model is the model name (e.g., "Llama-4-Maverick-17B-128E-Instruct").
	Model string
	// MaxTokens is the maximum number of completion tokens.
	MaxTokens int64
	// BaseURL is the endpoint. Empty uses the OpenAI default.
	BaseURL string
}

// NewOpenAICompat creates an OpenAI-compatible adapter.
func NewOpenAICompat(cfg OpenAIConfig) *OpenAICompat {
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 4096
	}
	return &OpenAICompat{model: cfg.Model, maxTokens: maxTokens, baseURL: cfg.BaseURL}
}

// Family returns "openai".
func (o *OpenAICompat) Family() string { return FamilyOpenAI }

// Model returns the model name.
func (o *OpenAICompat) Model() string { return o.model }

// Invoke sends the prompt (and attachment, when present) to the endpoint.
func (o *OpenAICompat) Invoke(ctx context.Context, cred keypool.Credential, req Request) (*Response, error) {
	ctx, span := tracer.Start(ctx, "chat "+o.model,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("gen_ai.operation.name", "chat"),
			attribute.String("gen_ai.provider.name", "openai"),
			attribute.String("gen_ai.request.model", o.model),
			attribute.Int64("gen_ai.request.max_tokens", o.maxTokens),
			attribute.String("credential.id", cred.ID),
		),
	)
	defer span.End()

	opts := []option.RequestOption{option.WithAPIKey(cred.Key)}
	if o.baseURL != "" {
		opts = append(opts, option.WithBaseURL(o.baseURL))
	}
	client := openai.NewClient(opts...)

	var message openai.ChatCompletionMessageParamUnion
	if len(req.Attachment) > 0 {
		mime := req.AttachmentMIME
		if mime == "" {
			mime = "image/jpeg"
		}
		dataURL := fmt.Sprintf("data:%s;base64,%s",
			mime, base64.StdEncoding.EncodeToString(req.Attachment))
		message = openai.UserMessage([]openai.ChatCompletionContentPartUnionParam{
			openai.TextContentPart(req.Prompt),
			openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
				URL: dataURL,
			}),
		})
	} else {
		message = openai.UserMessage(req.Prompt)
	}

	start := time.Now()
	resp, err := client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:               o.model,
		Messages:            []openai.ChatCompletionMessageParamUnion{message},
		MaxCompletionTokens: openai.Int(o.maxTokens),
		Temperature:         openai.Float(0),
	})
	if err != nil {
		span.SetAttributes(attribute.String("error.type", "api_error"))
		if cerr, ok := classifyCtx(ctx, err); ok {
			return nil, cerr
		}
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return nil, classifyStatus(apiErr.StatusCode, err)
		}
		return nil, classifyStatus(0, err)
	}

	if len(resp.Choices) == 0 {
		span.SetAttributes(attribute.String("error.type", "empty_response"))
		return nil, fmt.Errorf("%w: endpoint returned no choices", ErrProviderUnavailable)
	}

	out := &Response{
		Text:         resp.Choices[0].Message.Content,
		Family:       FamilyOpenAI,
		Model:        o.model,
		Latency:      time.Since(start),
		InputTokens:  resp.Usage.PromptTokens,
		OutputTokens: resp.Usage.CompletionTokens,
	}
	span.SetAttributes(
		attribute.Int64("gen_ai.usage.input_tokens", out.InputTokens),
		attribute.Int64("gen_ai.usage.output_tokens", out.OutputTokens),
	)
	return out, nil
}
