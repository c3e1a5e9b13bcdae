package filtering

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/unimatch/internal/catalog"
	"github.com/spigell/unimatch/internal/logger"
)

type aiFitFilter struct {
	toggle
	config *AIConfig
}

// NewAIFit creates the AI-based filtering step.
func NewAIFit() Filter {
	return &aiFitFilter{}
}

func (f *aiFitFilter) Name() string { return AIFitName }

func (f *aiFitFilter) Validate(cfg *Config) error {
	f.config = nil
	if cfg != nil {
		f.config = cfg.AI
	}
	if !f.IsEnabled() {
		return nil
	}
	if f.config == nil {
		return fmt.Errorf("ai configuration is required when ai filter is enabled")
	}
	if strings.TrimSpace(f.config.Provider) == "" {
		return fmt.Errorf("ai provider is required when ai filter is enabled")
	}
	return nil
}

func (f *aiFitFilter) Apply(ctx context.Context, deps Deps, p *catalog.Programs) (*catalog.Programs, Step, error) {
	initial := p.Len()
	log := deps.logger()
	if f.config != nil {
		log = logger.WithAIFields(log, f.config.Provider, f.config.Model)
	}

	if deps.Matcher == nil {
		log.Info("ai matcher is not configured; skipping ai_fit filter")
		return p, Step{Initial: initial, Dropped: 0, Left: p.Len()}, nil
	}
	if deps.Student == nil {
		return p, Step{}, fmt.Errorf("student is required for AI evaluation")
	}

	approved := make([]*catalog.Program, 0, initial)

	for _, program := range p.Items {
		if err := ctx.Err(); err != nil {
			return p, Step{}, err
		}

		plog := log.With(logger.ProgramFields(program)...)

		assessment, err := deps.Matcher.Evaluate(ctx, deps.Student, program)
		if err != nil {
			plog.Warn("AI evaluation failed", zap.Error(err))
			program.AI = &catalog.AIAssessment{Error: err.Error()}
			approved = append(approved, program)
			continue
		}

		if !assessment.Fit {
			plog.Info("program rejected by AI provider",
				zap.Float64("ai_score", assessment.Score),
				zap.String("reason", assessment.Reason),
			)
			continue
		}

		plog.Info("program approved by AI", zap.Float64("ai_score", assessment.Score))

		program.AI = assessment.ToCatalog()
		approved = append(approved, program)
	}

	p.Items = approved

	left := p.Len()
	return p, Step{Initial: initial, Dropped: initial - left, Left: left}, nil
}

func (f *aiFitFilter) Status() Status {
	details := map[string]string{}
	if f.config != nil {
		details["provider"] = f.config.Provider
		details["minimum_fit_score"] = fmt.Sprintf("%.2f", f.config.MinimumFitScore)
		if f.config.Model != "" {
			details["model"] = f.config.Model
		}
		if f.config.MaxRetries > 0 {
			details["max_retries"] = strconv.Itoa(f.config.MaxRetries)
		}
	}
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: f.reason, Details: details}
}
