package cmd

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/care-matcher/internal/ai"
	"github.com/spigell/care-matcher/internal/ai/claude"
	"github.com/spigell/care-matcher/internal/ai/gemini"
	"github.com/spigell/care-matcher/internal/secrets"
)

const (
	providerGemini = "gemini"
	providerClaude = "claude"
)

// newCompleter builds the text-completion client behind the primary scorer.
// Any configuration problem yields ai.Unavailable so ranking falls back to the heuristic scorer.
func newCompleter(ctx context.Context, cfg *AIConfig, logger *zap.Logger) ai.Completer {
	if cfg == nil || !cfg.Enabled {
		logger.Info("ai scoring is disabled, using fallback scorer only")
		return ai.Unavailable("ai scoring is disabled")
	}

	completer, err := buildCompleter(ctx, cfg, logger)
	if err != nil {
		logger.Warn("ai provider is not available, using fallback scorer only",
			zap.String("provider", cfg.Provider),
			zap.Error(err),
		)
		return ai.Unavailable(err.Error())
	}

	return completer
}

func buildCompleter(ctx context.Context, cfg *AIConfig, logger *zap.Logger) (ai.Completer, error) {
	provider := strings.TrimSpace(strings.ToLower(cfg.Provider))
	switch provider {
	case "", providerGemini:
		g := cfg.Gemini
		if g == nil {
			g = &GeminiConfig{}
		}

		apiKey, err := secrets.Load(secrets.Source{
			Name:  "gemini api key",
			Value: g.APIKey,
			Env:   "GEMINI_API_KEY",
			File:  g.APIKeyFile,
		})
		if err != nil {
			return nil, fmt.Errorf("%w (set ai.gemini.api-key-file or GEMINI_API_KEY)", err)
		}

		generator, err := gemini.NewGenerator(ctx, apiKey, g.Model, g.MaxRetries, logger)
		if err != nil {
			return nil, err
		}
		return generator, nil
	case providerClaude, "anthropic":
		c := cfg.Claude
		if c == nil {
			c = &ClaudeConfig{}
		}

		apiKey, err := secrets.Load(secrets.Source{
			Name:  "anthropic api key",
			Value: c.APIKey,
			Env:   "ANTHROPIC_API_KEY",
			File:  c.APIKeyFile,
		})
		if err != nil {
			return nil, fmt.Errorf("%w (set ai.claude.api-key-file or ANTHROPIC_API_KEY)", err)
		}

		generator, err := claude.NewGenerator(apiKey, c.Model, 0, logger)
		if err != nil {
			return nil, err
		}
		return generator, nil
	default:
		return nil, fmt.Errorf("unsupported ai provider: %s", cfg.Provider)
	}
}

// describe returns provider and model names for log fields.
func describe(c ai.Completer) (string, string) {
	if d, ok := c.(ai.Describer); ok {
		return d.Provider(), d.Model()
	}
	return "", ""
}
