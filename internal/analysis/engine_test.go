package analysis

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/prerak-labs/saakshi/internal/config"
	"github.com/prerak-labs/saakshi/internal/extract"
	"github.com/prerak-labs/saakshi/internal/keypool"
	"github.com/prerak-labs/saakshi/internal/provider"
)

// fakeAdapter replays a scripted sequence of outcomes, one per Invoke.
// When the script runs out the last step repeats.
type fakeAdapter struct {
	family string
	script []fakeStep
	calls  []fakeCall
}

type fakeStep struct {
	text string
	err  error
}

type fakeCall struct {
	credID string
	prompt string
}

func (f *fakeAdapter) Invoke(ctx context.Context, cred keypool.Credential, req provider.Request) (*provider.Response, error) {
	i := len(f.calls)
	f.calls = append(f.calls, fakeCall{credID: cred.ID, prompt: req.Prompt})
	if i >= len(f.script) {
		i = len(f.script) - 1
	}
	step := f.script[i]
	if step.err != nil {
		return nil, step.err
	}
	return &provider.Response{Text: step.text, Family: f.family, Model: f.Model()}, nil
}

func (f *fakeAdapter) Family() string { return f.family }
func (f *fakeAdapter) Model() string  { return "fake-" + f.family }

// fakeDocs serves fixed bytes for any URL.
type fakeDocs struct {
	text  string
	image []byte
	mime  string
	err   error
}

func (f *fakeDocs) ExtractText(ctx context.Context, url string) (string, error) {
	return f.text, f.err
}

func (f *fakeDocs) FetchImage(ctx context.Context, url string) ([]byte, string, error) {
	return f.image, f.mime, f.err
}

func newTestAnalyzer(t *testing.T, pool *keypool.Pool, docs documentSource, adapters ...provider.Adapter) *Analyzer {
	t.Helper()
	byFamily := make(map[string]provider.Adapter)
	var priority []string
	for _, a := range adapters {
		byFamily[a.Family()] = a
		priority = append(priority, a.Family())
	}
	scanner, err := NewPIIScanner(nil)
	if err != nil {
		t.Fatalf("NewPIIScanner: %v", err)
	}
	return &Analyzer{
		pool:        pool,
		adapters:    byFamily,
		priority:    priority,
		docs:        docs,
		pii:         scanner,
		timeout:     5 * time.Second,
		maxAttempts: 6,
	}
}

var testSchema = extract.Schema{
	Name: "test",
	Fields: []extract.Field{
		{Name: "value", Type: extract.TypeString, Required: true},
	},
}

func TestInvokeRotatesOnRetryableFailure(t *testing.T) {
	pool := keypool.New()
	pool.Add(provider.FamilyGemini, "k1", "k2", "k3")
	adapter := &fakeAdapter{family: provider.FamilyGemini, script: []fakeStep{
		{err: fmt.Errorf("wrapped: %w", provider.ErrRateLimited)},
		{err: fmt.Errorf("wrapped: %w", provider.ErrRateLimited)},
		{text: `{"value": "ok"}`},
	}}
	a := newTestAnalyzer(t, pool, &fakeDocs{}, adapter)

	res, _, err := a.complete(context.Background(), provider.Request{Prompt: "p"}, testSchema, nil)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if got := res.String("value"); got != "ok" {
		t.Errorf("value = %q, want ok", got)
	}
	if len(adapter.calls) != 3 {
		t.Fatalf("calls = %d, want 3", len(adapter.calls))
	}
	if adapter.calls[0].credID == adapter.calls[1].credID {
		t.Error("same credential reused after rate limit")
	}
	if pool.ActiveCount(provider.FamilyGemini) != 1 {
		t.Errorf("active = %d, want 1", pool.ActiveCount(provider.FamilyGemini))
	}
}

func TestInvokeFallsBackToNextFamily(t *testing.T) {
	pool := keypool.New()
	pool.Add(provider.FamilyGemini, "g1")
	pool.Add(provider.FamilyAnthropic, "a1")
	gemini := &fakeAdapter{family: provider.FamilyGemini, script: []fakeStep{
		{err: provider.ErrProviderUnavailable},
	}}
	anthropic := &fakeAdapter{family: provider.FamilyAnthropic, script: []fakeStep{
		{text: `{"value": "fallback"}`},
	}}
	a := newTestAnalyzer(t, pool, &fakeDocs{}, gemini, anthropic)

	res, resp, err := a.complete(context.Background(), provider.Request{Prompt: "p"}, testSchema, nil)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if got := res.String("value"); got != "fallback" {
		t.Errorf("value = %q, want fallback", got)
	}
	if resp.Family != provider.FamilyAnthropic {
		t.Errorf("family = %q, want anthropic", resp.Family)
	}
}

func TestInvokeExhaustedPoolIsTerminal(t *testing.T) {
	pool := keypool.New()
	pool.Add(provider.FamilyGemini, "g1", "g2")
	adapter := &fakeAdapter{family: provider.FamilyGemini, script: []fakeStep{
		{err: provider.ErrRateLimited},
	}}
	a := newTestAnalyzer(t, pool, &fakeDocs{}, adapter)

	_, _, err := a.complete(context.Background(), provider.Request{Prompt: "p"}, testSchema, nil)
	if !errors.Is(err, ErrAnalysisFailed) {
		t.Fatalf("err = %v, want ErrAnalysisFailed", err)
	}
	if pool.ActiveCount(provider.FamilyGemini) != 0 {
		t.Errorf("active = %d, want 0", pool.ActiveCount(provider.FamilyGemini))
	}
}

func TestInvokeUnsupportedPayloadSkipsFamily(t *testing.T) {
	pool := keypool.New()
	pool.Add(provider.FamilyAnthropic, "a1", "a2")
	pool.Add(provider.FamilyOpenAI, "o1")
	anthropic := &fakeAdapter{family: provider.FamilyAnthropic, script: []fakeStep{
		{err: provider.ErrUnsupportedPayload},
	}}
	openai := &fakeAdapter{family: provider.FamilyOpenAI, script: []fakeStep{
		{text: `{"value": "multimodal"}`},
	}}
	a := newTestAnalyzer(t, pool, &fakeDocs{}, anthropic, openai)

	_, resp, err := a.complete(context.Background(), provider.Request{Prompt: "p", Attachment: []byte{1}}, testSchema, nil)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if resp.Family != provider.FamilyOpenAI {
		t.Errorf("family = %q, want openai", resp.Family)
	}
	if len(anthropic.calls) != 1 {
		t.Errorf("anthropic calls = %d, want 1 (no rotation on capability mismatch)", len(anthropic.calls))
	}
	if pool.ActiveCount(provider.FamilyAnthropic) != 2 {
		t.Errorf("anthropic active = %d, want 2 (credentials untouched)", pool.ActiveCount(provider.FamilyAnthropic))
	}
}

func TestInvokeAuthRejectionRetiresCredential(t *testing.T) {
	pool := keypool.New()
	pool.Add(provider.FamilyGemini, "g1", "g2")
	adapter := &fakeAdapter{family: provider.FamilyGemini, script: []fakeStep{
		{err: provider.ErrAuthRejected},
		{text: `{"value": "ok"}`},
	}}
	a := newTestAnalyzer(t, pool, &fakeDocs{}, adapter)

	_, _, err := a.complete(context.Background(), provider.Request{Prompt: "p"}, testSchema, nil)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	snap := pool.Snapshot(provider.FamilyGemini)
	if snap["gemini/1"] != keypool.StateInvalid {
		t.Errorf("first credential state = %v, want invalid", snap["gemini/1"])
	}
}

func TestInvokeRespectsAttemptBudget(t *testing.T) {
	pool := keypool.New()
	pool.Add(provider.FamilyGemini, "g1", "g2", "g3", "g4", "g5", "g6", "g7", "g8")
	adapter := &fakeAdapter{family: provider.FamilyGemini, script: []fakeStep{
		{err: provider.ErrRateLimited},
	}}
	a := newTestAnalyzer(t, pool, &fakeDocs{}, adapter)
	a.maxAttempts = 3

	_, err := a.invoke(context.Background(), provider.Request{Prompt: "p"})
	if !errors.Is(err, ErrAnalysisFailed) {
		t.Fatalf("err = %v, want ErrAnalysisFailed", err)
	}
	if len(adapter.calls) != 3 {
		t.Errorf("calls = %d, want 3", len(adapter.calls))
	}
}

func TestInvokeCallerCancelAborts(t *testing.T) {
	pool := keypool.New()
	pool.Add(provider.FamilyGemini, "g1", "g2")
	ctx, cancel := context.WithCancel(context.Background())
	adapter := &fakeAdapter{family: provider.FamilyGemini, script: []fakeStep{
		{err: provider.ErrProviderTimeout},
	}}
	a := newTestAnalyzer(t, pool, &fakeDocs{}, adapter)
	cancel()

	_, err := a.invoke(ctx, provider.Request{Prompt: "p"})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if len(adapter.calls) != 1 {
		t.Errorf("calls = %d, want 1 (no rotation after cancel)", len(adapter.calls))
	}
}

func TestCompleteRepromptsOnUnparsableReply(t *testing.T) {
	pool := keypool.New()
	pool.Add(provider.FamilyGemini, "g1")
	adapter := &fakeAdapter{family: provider.FamilyGemini, script: []fakeStep{
		{text: "I think the answer might be complicated."},
		{text: `{"value": "strict"}`},
	}}
	a := newTestAnalyzer(t, pool, &fakeDocs{}, adapter)

	res, _, err := a.complete(context.Background(), provider.Request{Prompt: "base"}, testSchema, nil)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if got := res.String("value"); got != "strict" {
		t.Errorf("value = %q, want strict", got)
	}
	if len(adapter.calls) != 2 {
		t.Fatalf("calls = %d, want 2", len(adapter.calls))
	}
	second := adapter.calls[1].prompt
	if second == adapter.calls[0].prompt {
		t.Error("re-prompt did not change the prompt")
	}
	if len(second) <= len("base") {
		t.Error("re-prompt lost the original prompt")
	}
}

func TestCompleteTwoBadRepliesIsTerminal(t *testing.T) {
	pool := keypool.New()
	pool.Add(provider.FamilyGemini, "g1")
	adapter := &fakeAdapter{family: provider.FamilyGemini, script: []fakeStep{
		{text: "not json"},
		{text: "still not json"},
	}}
	a := newTestAnalyzer(t, pool, &fakeDocs{}, adapter)

	_, _, err := a.complete(context.Background(), provider.Request{Prompt: "p"}, testSchema, nil)
	if !errors.Is(err, ErrAnalysisFailed) {
		t.Fatalf("err = %v, want ErrAnalysisFailed", err)
	}
}

func TestCompleteDomainCheckTriggersReprompt(t *testing.T) {
	pool := keypool.New()
	pool.Add(provider.FamilyGemini, "g1")
	adapter := &fakeAdapter{family: provider.FamilyGemini, script: []fakeStep{
		{text: `{"value": "bad"}`},
		{text: `{"value": "good"}`},
	}}
	a := newTestAnalyzer(t, pool, &fakeDocs{}, adapter)
	check := func(res extract.Result) error {
		if res.String("value") != "good" {
			return errors.New("value must be good")
		}
		return nil
	}

	res, _, err := a.complete(context.Background(), provider.Request{Prompt: "p"}, testSchema, check)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if got := res.String("value"); got != "good" {
		t.Errorf("value = %q, want good", got)
	}
}

func TestNewMatchesAdaptersToPriority(t *testing.T) {
	cfg := config.Defaults()
	cfg.RequestTimeoutDuration = 10 * time.Second
	pool := keypool.New()
	a, err := New(cfg, pool, nil, &fakeAdapter{family: provider.FamilyGemini})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, ok := a.adapters[provider.FamilyGemini]; !ok {
		t.Error("gemini adapter not registered")
	}
	if a.maxAttempts != cfg.MaxAttempts {
		t.Errorf("maxAttempts = %d, want %d", a.maxAttempts, cfg.MaxAttempts)
	}
}
