package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/unimatch/internal/ai"
	"github.com/spigell/unimatch/internal/ai/gemini"
	"github.com/spigell/unimatch/internal/backend"
	"github.com/spigell/unimatch/internal/filtering"
	applog "github.com/spigell/unimatch/internal/logger"
	"github.com/spigell/unimatch/internal/secrets"
)

const (
	providerGemini = "gemini"
	providerEdge   = "edge"
)

// prepareFilters builds the filter steps, their config and the matcher used by ai_fit.
func prepareFilters(ctx context.Context, cmd *cobra.Command, config *Config, logger *zap.Logger) ([]filtering.Filter, *filtering.Config, ai.Matcher) {
	includeApplied := false
	if cmd != nil {
		flag := cmd.Flag("include-applied")
		if flag != nil && strings.EqualFold(flag.Value.String(), "true") {
			includeApplied = true
		}
	}

	steps := filtering.Default(includeApplied)
	filterConfig := &filtering.Config{}

	if !config.Filters.DegreeLevel {
		filtering.DisableByName(steps, filtering.DegreeLevelName, "disabled in config")
	}
	if !config.Filters.OpenDeadline {
		filtering.DisableByName(steps, filtering.OpenDeadlineName, "not enabled in config")
	}

	if config.AI == nil || !config.AI.Enabled {
		filtering.DisableByName(steps, filtering.AIFitName, "ai is disabled in config")
		return steps, filterConfig, nil
	}

	matcher, model, err := newAIMatcher(ctx, config, logger)
	if err != nil {
		logger.Warn("skipping AI filter", zap.Error(err))
		filtering.DisableByName(steps, filtering.AIFitName, err.Error())
		return steps, filterConfig, nil
	}

	filterConfig.AI = &filtering.AIConfig{
		Enabled:         true,
		Provider:        provider(config.AI),
		Model:           model,
		MinimumFitScore: config.AI.MinimumFitScore,
	}
	if config.AI.Gemini != nil {
		filterConfig.AI.MaxRetries = config.AI.Gemini.MaxRetries
	}

	return steps, filterConfig, matcher
}

func provider(cfg *AIConfig) string {
	p := strings.TrimSpace(strings.ToLower(cfg.Provider))
	if p == "" {
		return providerGemini
	}
	return p
}

// newAIMatcher wires the configured text generator into a prompt matcher and
// reports the model it talks to.
func newAIMatcher(ctx context.Context, config *Config, logger *zap.Logger) (ai.Matcher, string, error) {
	cfg := config.AI

	var (
		generator ai.Generator
		model     string
	)

	switch name := provider(cfg); name {
	case providerGemini:
		gcfg := cfg.Gemini
		if gcfg == nil {
			gcfg = &GeminiConfig{}
		}

		apiKey, err := secrets.Load(secrets.Source{
			Name: "gemini api key",
			File: gcfg.APIKeyFile,
			Env:  "GEMINI_API_KEY",
		})
		if err != nil {
			return nil, "", fmt.Errorf("%w (set ai.gemini.api-key-file or GEMINI_API_KEY_FILE)", err)
		}

		genLogger := applog.WithAIFields(logger, name, gcfg.Model).With(
			zap.Int("ai_retry_attempts", gcfg.MaxRetries),
		)

		g, err := gemini.NewGenerator(ctx, apiKey, gcfg.Model, gcfg.MaxRetries, genLogger)
		if err != nil {
			return nil, "", err
		}
		generator, model = g, g.Model()

	case providerEdge:
		client, err := newBackend(config, logger)
		if err != nil {
			return nil, "", fmt.Errorf("edge provider: %w", err)
		}

		function := backend.DefaultFunction
		if cfg.Edge != nil && strings.TrimSpace(cfg.Edge.Function) != "" {
			function = cfg.Edge.Function
		}

		f := client.Function(function)
		generator, model = f, f.Name()

	default:
		return nil, "", fmt.Errorf("unsupported ai provider: %s", cfg.Provider)
	}

	minScore := cfg.MinimumFitScore
	if minScore < 0 {
		minScore = 0
	}

	matcherLogger := applog.WithAIFields(logger, provider(cfg), model).With(
		zap.Float64("minimum_fit_score", minScore),
	)

	matcher := ai.NewMatcher(generator, minScore, cfg.MaxLogLength, matcherLogger)
	matcher.SetPromptOverrides(cfg.Prompt)

	return matcher, model, nil
}
