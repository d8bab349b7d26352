package provider

import (
	"context"
	"errors"
	"testing"

	"github.com/prerak-labs/saakshi/internal/keypool"
)

func TestClassifyStatus(t *testing.T) {
	base := errors.New("boom")
	tests := []struct {
		status int
		want   error
	}{
		{401, ErrAuthRejected},
		{403, ErrAuthRejected},
		{429, ErrRateLimited},
		{408, ErrProviderTimeout},
		{504, ErrProviderTimeout},
		{500, ErrProviderUnavailable},
		{502, ErrProviderUnavailable},
		{0, ErrProviderUnavailable},
	}
	for _, tt := range tests {
		got := classifyStatus(tt.status, base)
		if !errors.Is(got, tt.want) {
			t.Errorf("classifyStatus(%d) = %v, want %v", tt.status, got, tt.want)
		}
	}
}

func TestRetryable(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{ErrRateLimited, true},
		{ErrProviderTimeout, true},
		{ErrProviderUnavailable, true},
		{ErrAuthRejected, false},
		{ErrUnsupportedPayload, false},
		{errors.New("other"), false},
	}
	for _, tt := range tests {
		if got := Retryable(tt.err); got != tt.want {
			t.Errorf("Retryable(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}

func TestFailureKind(t *testing.T) {
	if FailureKind(ErrAuthRejected) != keypool.FailureAuth {
		t.Error("auth rejection must map to FailureAuth")
	}
	for _, err := range []error{ErrRateLimited, ErrProviderTimeout, ErrProviderUnavailable} {
		if FailureKind(err) != keypool.FailureQuota {
			t.Errorf("FailureKind(%v) != FailureQuota", err)
		}
	}
}

func TestAnthropic_RejectsAttachment(t *testing.T) {
	a := NewAnthropic(AnthropicConfig{Model: "claude-3-5-haiku-latest"})
	_, err := a.Invoke(context.Background(), keypool.Credential{}, Request{
		Prompt:         "describe this",
		Attachment:     []byte{0xff, 0xd8},
		AttachmentMIME: "image/jpeg",
	})
	if !errors.Is(err, ErrUnsupportedPayload) {
		t.Errorf("got %v, want ErrUnsupportedPayload", err)
	}
}

func TestClassifyCtx_DeadlineBecomesTimeout(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	// A plain cancellation propagates unchanged.
	if got, ok := classifyCtx(ctx, context.Canceled); !ok || !errors.Is(got, context.Canceled) {
		t.Errorf("canceled: got %v, %v", got, ok)
	}

	got, ok := classifyCtx(context.Background(), context.DeadlineExceeded)
	if !ok || !errors.Is(got, ErrProviderTimeout) {
		t.Errorf("deadline: got %v, want ErrProviderTimeout", got)
	}
}
