package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/prerak-labs/saakshi/internal/analysis"
	"github.com/prerak-labs/saakshi/internal/config"
	"github.com/prerak-labs/saakshi/internal/ingest"
	"github.com/prerak-labs/saakshi/internal/journal"
	"github.com/prerak-labs/saakshi/internal/keypool"
	"github.com/prerak-labs/saakshi/internal/model"
	saakshiotel "github.com/prerak-labs/saakshi/internal/otel"
	"github.com/prerak-labs/saakshi/internal/provider"
)

// Version is injected at build time via -ldflags.
var Version = "dev"

var (
	// Global flags.
	flagConfig string
	flagJSON   bool
)

var rootCmd = &cobra.Command{
	Use:   "saakshi",
	Short: "AI analysis of classroom evidence, challenge statements, and impact stories",
	Long: `saakshi analyzes field data from Project-Based Learning classrooms.

It runs three kinds of analysis through configured LLM providers:

  evidence  answer yes/no questions about a classroom evidence image
  thematic  classify challenge statements into education-barrier themes
  story     rate an impact story PDF against three scoring criteria

Providers are tried in priority order with automatic API key rotation;
when one provider's key pool is spent the next provider takes over.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "config file path (default: .saakshi.yaml, ~/.config/saakshi/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "emit results as JSON instead of styled text")
}

// runtime bundles everything a command needs to run an analysis.
type runtime struct {
	cfg       *config.Config
	analyzer  *analysis.Analyzer
	telemetry *saakshiotel.Telemetry
	journal   *journal.Journal
}

// record appends the run to the local history. History is best effort:
// a journal failure is logged, never surfaced as a command error.
func (r *runtime) record(kind, input string, prov model.Provenance, result any) {
	if r.journal == nil {
		return
	}
	if err := r.journal.Append(kind, input, prov, result); err != nil {
		zap.L().Warn("failed to record analysis history", zap.Error(err))
	}
}

// setup loads config, installs the global logger, initializes telemetry,
// and wires the credential pool and provider adapters into an analyzer.
func setup(ctx context.Context) (*runtime, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	zap.ReplaceGlobals(logger)

	saakshiotel.Version = Version
	telemetry, err := saakshiotel.Init(ctx, saakshiotel.OTELConfig{
		Endpoint: cfg.OTELEndpoint,
		Headers:  cfg.OTELHeaders,
	})
	if err != nil {
		return nil, err
	}

	pool := keypool.New()
	var adapters []provider.Adapter
	for _, family := range cfg.EnabledPriority() {
		p := cfg.Provider(family)
		pool.Add(family, p.APIKeys...)
		adapters = append(adapters, newAdapter(family, p))
	}
	if len(adapters) == 0 {
		return nil, fmt.Errorf("no providers configured: set GEMINI_API_KEYS, ANTHROPIC_API_KEY, or OPENAI_API_KEY, or add api_keys to the config file")
	}

	ingestor := ingest.New(cfg.RequestTimeoutDuration)
	analyzer, err := analysis.New(cfg, pool, ingestor, adapters...)
	if err != nil {
		return nil, err
	}
	analyzer.WithMetrics(telemetry.Metrics)

	jnl, err := journal.OpenDefault()
	if err != nil {
		zap.L().Warn("analysis history disabled", zap.Error(err))
		jnl = nil
	}

	return &runtime{cfg: cfg, analyzer: analyzer, telemetry: telemetry, journal: jnl}, nil
}

// shutdown flushes telemetry; give exporters a moment even when the
// command context is already done.
func (r *runtime) shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	r.telemetry.Shutdown(ctx)
	_ = zap.L().Sync()
}

func newAdapter(family string, p *config.ProviderConfig) provider.Adapter {
	switch family {
	case provider.FamilyAnthropic:
		return provider.NewAnthropic(provider.AnthropicConfig{
			Model:     p.Model,
			BaseURL:   p.BaseURL,
			MaxTokens: p.MaxTokens,
		})
	case provider.FamilyOpenAI:
		return provider.NewOpenAICompat(provider.OpenAIConfig{
			Model:     p.Model,
			BaseURL:   p.BaseURL,
			MaxTokens: p.MaxTokens,
		})
	default:
		return provider.NewGemini(provider.GeminiConfig{
			Model:     p.Model,
			MaxTokens: int32(p.MaxTokens),
		})
	}
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	zcfg := zap.NewProductionConfig()
	zcfg.Level = lvl
	// Logs go to stderr so stdout stays clean for results.
	zcfg.OutputPaths = []string{"stderr"}
	return zcfg.Build()
}
