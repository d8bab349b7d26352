// Package analysis hosts the domain processors: evidence Q&A, thematic
// classification, and story rating. Each builds a prompt from domain
// input, drives the provider call loop through the credential pool, and
// validates the extracted record before returning a typed result.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/prerak-labs/saakshi/internal/config"
	"github.com/prerak-labs/saakshi/internal/extract"
	"github.com/prerak-labs/saakshi/internal/ingest"
	"github.com/prerak-labs/saakshi/internal/keypool"
	"github.com/prerak-labs/saakshi/internal/model"
	"github.com/prerak-labs/saakshi/internal/otel"
	"github.com/prerak-labs/saakshi/internal/provider"
)

// ErrAnalysisFailed is the single terminal error a processor surfaces
// after all retry and fallback options are spent. It always carries the
// last diagnostic in its message.
var ErrAnalysisFailed = errors.New("analysis failed")

// Documents are fetched through this interface so tests can stub the
// network; *ingest.Ingestor satisfies it.
type documentSource interface {
	ExtractText(ctx context.Context, url string) (string, error)
	FetchImage(ctx context.Context, url string) ([]byte, string, error)
}

// Analyzer runs domain analyses against the configured provider families.
// It is safe for concurrent use; the only shared mutable state is the
// credential pool, which handles its own locking.
type Analyzer struct {
	pool     *keypool.Pool
	adapters map[string]provider.Adapter
	priority []string
	docs     documentSource
	pii      *PIIScanner
	metrics  *otel.Metrics

	timeout     time.Duration
	maxAttempts int
}

// WithMetrics attaches metric instruments to the analyzer. All recording
// paths tolerate a nil receiver, so this is optional.
func (a *Analyzer) WithMetrics(m *otel.Metrics) *Analyzer {
	a.metrics = m
	return a
}

// New creates an Analyzer. Adapters are matched to families in cfg's
// priority order; families without an adapter are skipped.
func New(cfg *config.Config, pool *keypool.Pool, docs *ingest.Ingestor, adapters ...provider.Adapter) (*Analyzer, error) {
	byFamily := make(map[string]provider.Adapter, len(adapters))
	for _, a := range adapters {
		byFamily[a.Family()] = a
	}
	scanner, err := NewPIIScanner(cfg.PIIPatterns)
	if err != nil {
		return nil, err
	}
	return &Analyzer{
		pool:        pool,
		adapters:    byFamily,
		priority:    cfg.EnabledPriority(),
		docs:        docs,
		pii:         scanner,
		timeout:     cfg.RequestTimeoutDuration,
		maxAttempts: cfg.MaxAttempts,
	}, nil
}

// complete runs the full call loop for one analysis: invoke with rotation
// and family fallback, extract, and when the first reply fails extraction
// or the domain check, one strict-format re-prompt. check may be nil.
// Returns the valid result and the response that produced it.
func (a *Analyzer) complete(ctx context.Context, req provider.Request, schema extract.Schema, check func(extract.Result) error) (extract.Result, *provider.Response, error) {
	resp, err := a.invoke(ctx, req)
	if err != nil {
		return extract.Result{}, nil, err
	}

	res := a.validate(resp, schema, check)
	if res.Valid {
		a.metrics.RecordAnalysis(ctx, schema.Name, "ok")
		return res, resp, nil
	}

	zap.L().Warn("model output invalid, re-prompting for strict format",
		zap.String("schema", schema.Name),
		zap.String("reason", res.Reason),
		zap.String("detail", res.Detail),
	)
	a.metrics.RecordExtractionRetry(ctx, schema.Name)

	strict := req
	strict.Prompt = req.Prompt + "\n\n" + strictFormatAddendum
	resp2, err2 := a.invoke(ctx, strict)
	if err2 != nil {
		return extract.Result{}, nil, err2
	}
	res2 := a.validate(resp2, schema, check)
	if res2.Valid {
		a.metrics.RecordAnalysis(ctx, schema.Name, "ok")
		return res2, resp2, nil
	}
	a.metrics.RecordAnalysis(ctx, schema.Name, "failed")
	return extract.Result{}, nil, fmt.Errorf("%w: %s: %s", ErrAnalysisFailed, res2.Reason, res2.Detail)
}

// validate extracts the structured record and applies the domain check.
// A failed check is reported as a schema mismatch so the re-prompt and
// the terminal diagnostic describe what was wrong.
func (a *Analyzer) validate(resp *provider.Response, schema extract.Schema, check func(extract.Result) error) extract.Result {
	res := extract.Extract(resp.Text, schema)
	if !res.Valid || check == nil {
		return res
	}
	if err := check(res); err != nil {
		return extract.Result{
			Valid:  false,
			Reason: extract.ReasonSchemaMismatch,
			Detail: schema.Name + ": " + err.Error(),
		}
	}
	return res
}

// invoke walks the provider families in priority order. Within a family
// it rotates credentials on retryable failures until the pool is spent,
// then falls through to the next family. The total number of provider
// calls is bounded by maxAttempts.
func (a *Analyzer) invoke(ctx context.Context, req provider.Request) (*provider.Response, error) {
	attempts := 0
	var lastErr error
	triedFamily := ""

	for _, family := range a.priority {
		adapter, ok := a.adapters[family]
		if !ok {
			continue
		}
		if triedFamily != "" {
			a.metrics.RecordFallback(ctx, triedFamily, family)
		}

		authRetried := false
	family:
		for {
			if attempts >= a.maxAttempts {
				return nil, fmt.Errorf("%w: attempt budget (%d) spent: %v",
					ErrAnalysisFailed, a.maxAttempts, lastErr)
			}

			cred, err := a.pool.Acquire(family)
			if err != nil {
				lastErr = err
				break family // pool spent, next family
			}

			attempts++
			triedFamily = family
			callCtx, cancel := context.WithTimeout(ctx, a.timeout)
			resp, err := adapter.Invoke(callCtx, cred, req)
			cancel()
			if err == nil {
				a.metrics.RecordTokens(ctx, family, adapter.Model(), resp.InputTokens, resp.OutputTokens)
				return resp, nil
			}
			lastErr = err

			if ctx.Err() != nil {
				// Caller abandoned the request; don't burn credentials.
				return nil, ctx.Err()
			}

			switch {
			case provider.Retryable(err):
				a.pool.ReportFailure(cred, provider.FailureKind(err))
				a.metrics.RecordRotation(ctx, family)
				a.metrics.RecordRetirement(ctx, family, "quota")
				zap.L().Warn("provider call failed, rotating credential",
					zap.String("family", family),
					zap.String("credential", cred.ID),
					zap.Int("attempt", attempts),
					zap.Error(err),
				)
			case errors.Is(err, provider.ErrAuthRejected):
				a.pool.ReportFailure(cred, keypool.FailureAuth)
				a.metrics.RecordRetirement(ctx, family, "auth")
				if authRetried {
					break family
				}
				authRetried = true
			case errors.Is(err, provider.ErrUnsupportedPayload):
				// Capability mismatch is family-wide, not a credential
				// fault. Skip to a family that can carry the payload.
				break family
			default:
				return nil, err
			}
		}
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("no provider families configured")
	}
	return nil, fmt.Errorf("%w: %v", ErrAnalysisFailed, lastErr)
}

// provenance records which provider produced a result and how long the
// whole analysis took, wall-clock from the processor's entry point.
func provenance(resp *provider.Response, started time.Time) model.Provenance {
	return model.Provenance{
		Provider:   resp.Family,
		Model:      resp.Model,
		AnalyzedAt: started.UTC(),
		DurationMs: time.Since(started).Milliseconds(),
	}
}
