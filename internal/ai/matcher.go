package ai

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/spigell/unimatch/internal/catalog"
	"github.com/spigell/unimatch/internal/utils"
)

//go:embed system.md
var systemInstruction string

//go:embed prompt.md
var promptTemplate string

const (
	defaultMaxLogLength     = 200
	maxUserInstructionRunes = 500
	defaultTone             = "Friendly"
	none                    = "none"
)

// PromptOverrides are user supplied preferences rendered into the prompt.
type PromptOverrides struct {
	AdditionalCriteria string `mapstructure:"additional-criteria"`
	Tone               string `mapstructure:"tone"`
	UserInstructions   string `mapstructure:"user-instructions"`
}

type PromptMatcher struct {
	generator Generator
	minScore  float64
	logger    *zap.Logger
	maxLogLen int
	overrides PromptOverrides
}

var _ Matcher = (*PromptMatcher)(nil)

func NewMatcher(generator Generator, minScore float64, maxLogLength int, logger *zap.Logger) *PromptMatcher {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &PromptMatcher{
		generator: generator,
		minScore:  minScore,
		logger:    logger,
		maxLogLen: maxLogLength,
	}
}

func (m *PromptMatcher) SetPromptOverrides(overrides PromptOverrides) {
	m.overrides = overrides
}

func (m *PromptMatcher) Evaluate(ctx context.Context, student *catalog.Student, program *catalog.Program) (*FitAssessment, error) {
	if m.generator == nil {
		return nil, errors.New("generator is not configured")
	}
	if student == nil {
		return nil, fmt.Errorf("student is required")
	}
	if program == nil {
		return nil, fmt.Errorf("program is required")
	}

	studentJSON, err := json.MarshalIndent(student, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal student payload: %w", err)
	}

	// The verdict of a previous run must not leak into the prompt.
	subject := *program
	subject.AI = nil
	programJSON, err := json.MarshalIndent(subject, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal program payload: %w", err)
	}

	prompt := m.buildPrompt(string(studentJSON), string(programJSON))

	m.logger.Debug("generate content request",
		zap.String("program_id", program.ID),
		zap.String("student_id", student.ID),
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", utils.TruncateForLog(prompt, m.maxLogLen)),
	)

	raw, err := m.generator.GenerateContent(ctx, strings.TrimSpace(systemInstruction), prompt)
	if err != nil {
		return nil, err
	}

	m.logger.Debug("generate content response",
		zap.String("program_id", program.ID),
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", utils.TruncateForLog(raw, m.maxLogLen)),
	)

	assessment, err := parseResponse(raw)
	if err != nil {
		return nil, err
	}

	if m.minScore > 0 && assessment.Score < m.minScore {
		m.logger.Debug("set fit to false by score threshold",
			zap.String("program_id", program.ID),
			zap.Float64("score", assessment.Score),
			zap.Float64("threshold", m.minScore),
		)
		assessment.Fit = false
	}

	assessment.Raw = raw
	return assessment, nil
}

func (m *PromptMatcher) buildPrompt(studentJSON, programJSON string) string {
	criteria := sanitizeLine(m.overrides.AdditionalCriteria)
	if criteria == "" {
		criteria = none
	}
	tone := sanitizeLine(m.overrides.Tone)
	if tone == "" {
		tone = defaultTone
	}

	replacer := strings.NewReplacer(
		"{{ADDITIONAL_CRITERIA}}", criteria,
		"{{TONE}}", tone,
		"{{USER_INSTRUCTIONS}}", sanitizeInstructions(m.overrides.UserInstructions),
		"{{STUDENT_JSON}}", studentJSON,
		"{{PROGRAM_JSON}}", programJSON,
	)
	return replacer.Replace(promptTemplate)
}

// Square brackets delimit prompt sections and are not allowed in user text.
var bracketReplacer = strings.NewReplacer("[", "(", "]", ")")

func sanitizeLine(s string) string {
	return bracketReplacer.Replace(strings.Join(strings.Fields(s), " "))
}

func sanitizeInstructions(s string) string {
	runes := []rune(strings.TrimSpace(s))
	if len(runes) > maxUserInstructionRunes {
		runes = runes[:maxUserInstructionRunes]
	}

	var lines []string
	for _, line := range strings.Split(string(runes), "\n") {
		if line = sanitizeLine(line); line != "" {
			lines = append(lines, "  - "+line)
		}
	}
	if len(lines) == 0 {
		return "  - " + none
	}
	return strings.Join(lines, "\n")
}

func parseResponse(raw string) (*FitAssessment, error) {
	cleaned := extractJSON(raw)

	var data map[string]any
	if err := json.Unmarshal([]byte(cleaned), &data); err != nil {
		return nil, fmt.Errorf("parse model response: %w", err)
	}

	score := coerceFloat(data["score"])
	if math.IsNaN(score) {
		score = 0
	}

	return &FitAssessment{
		Fit:     coerceBool(data["fit"]),
		Score:   score,
		Reason:  coerceString(data["reason"]),
		Message: coerceString(data["message"]),
	}, nil
}

func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.Trim(raw, "`")
	return strings.TrimSpace(raw)
}

func coerceBool(v any) bool {
	switch val := v.(type) {
	case bool:
		return val
	case string:
		lower := strings.ToLower(strings.TrimSpace(val))
		return lower == "true" || lower == "yes"
	case float64:
		return val != 0
	default:
		return false
	}
}

func coerceFloat(v any) float64 {
	switch val := v.(type) {
	case float64:
		return val
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return math.NaN()
		}
		return f
	default:
		return math.NaN()
	}
}

func coerceString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(val)
	default:
		bytes, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(bytes)
	}
}
