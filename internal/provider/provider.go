// Package provider normalizes LLM backends behind a single Adapter
// interface. Each adapter variant encodes one provider family's transport:
// Gemini (multimodal, primary), Anthropic (text-only), and any
// OpenAI-compatible endpoint (multimodal fallback).
//
// Adapters hold no credential state. The engine acquires a credential from
// the key pool and passes it to Invoke, so rotation stays possible for
// concurrent requests while a call is in flight.
package provider

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prerak-labs/saakshi/internal/keypool"
)

// Provider family names, in the order the original system prioritized them.
const (
	FamilyGemini    = "gemini"
	FamilyAnthropic = "anthropic"
	FamilyOpenAI    = "openai"
)

// Error taxonomy for provider calls. The engine uses these to decide
// between credential rotation, family fallback, and terminal failure.
var (
	// ErrAuthRejected means the credential was refused (401/403).
	ErrAuthRejected = errors.New("provider: credential rejected")
	// ErrRateLimited means quota or rate limits were hit (429).
	ErrRateLimited = errors.New("provider: rate limited")
	// ErrProviderTimeout means the call exceeded its deadline.
	ErrProviderTimeout = errors.New("provider: call timed out")
	// ErrProviderUnavailable means a network failure or 5xx response.
	ErrProviderUnavailable = errors.New("provider: unavailable")
	// ErrUnsupportedPayload means the request attachment does not match
	// the adapter's capability (e.g., image sent to a text-only family).
	ErrUnsupportedPayload = errors.New("provider: unsupported payload")
)

// Retryable reports whether the engine should rotate the credential and
// try again. Auth rejections and payload mismatches are not retryable with
// the same credential or family.
func Retryable(err error) bool {
	return errors.Is(err, ErrRateLimited) ||
		errors.Is(err, ErrProviderTimeout) ||
		errors.Is(err, ErrProviderUnavailable)
}

// FailureKind maps a provider error to the pool transition it should
// trigger. Timeouts count as quota-like so the credential rotates rather
// than deadlocking the processor on a slow backend.
func FailureKind(err error) keypool.FailureKind {
	if errors.Is(err, ErrAuthRejected) {
		return keypool.FailureAuth
	}
	return keypool.FailureQuota
}

// Request is a single normalized inference call. Immutable once built.
type Request struct {
	// Prompt is the full prompt text.
	Prompt string
	// Attachment is an optional binary payload (image bytes).
	Attachment []byte
	// AttachmentMIME is the media type of Attachment (e.g., "image/jpeg").
	AttachmentMIME string
}

// Response is the raw outcome of one provider call.
type Response struct {
	// Text is the raw model reply, unparsed.
	Text string
	// Family and Model identify the backend that answered.
	Family string
	Model  string
	// Latency is the wall-clock duration of the call.
	Latency time.Duration
	// InputTokens and OutputTokens are usage counts when reported.
	InputTokens  int64
	OutputTokens int64
}

// Adapter performs one inference call against a provider family.
type Adapter interface {
	// Invoke sends the request using the given credential. Errors wrap
	// one of the package sentinels.
	Invoke(ctx context.Context, cred keypool.Credential, req Request) (*Response, error)

	// Family returns the provider family name.
	Family() string

	// Model returns the model name used for calls.
	Model() string
}

// classifyStatus wraps an SDK error with the sentinel matching its HTTP
// status. Status 0 means the failure happened before a response arrived.
func classifyStatus(status int, err error) error {
	switch {
	case status == 401 || status == 403:
		return fmt.Errorf("%w: %v", ErrAuthRejected, err)
	case status == 429:
		return fmt.Errorf("%w: %v", ErrRateLimited, err)
	case status == 408 || status == 504:
		return fmt.Errorf("%w: %v", ErrProviderTimeout, err)
	default:
		return fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
}

// classifyCtx handles deadline and cancellation before status mapping.
func classifyCtx(ctx context.Context, err error) (error, bool) {
	if errors.Is(err, context.DeadlineExceeded) || ctx.Err() == context.DeadlineExceeded {
		return fmt.Errorf("%w: %v", ErrProviderTimeout, err), true
	}
	if errors.Is(err, context.Canceled) {
		return err, true
	}
	return nil, false
}
