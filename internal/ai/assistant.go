package ai

import (
	"context"

	"github.com/spigell/unimatch/internal/catalog"
)

// FitAssessment is the verdict of a language model on a (student, program) pair.
type FitAssessment struct {
	Fit     bool
	Score   float64
	Reason  string
	Message string
	Raw     string
}

type Matcher interface {
	Evaluate(ctx context.Context, student *catalog.Student, program *catalog.Program) (*FitAssessment, error)
}

// Generator produces a completion for a system instruction and a user message.
type Generator interface {
	GenerateContent(ctx context.Context, system, message string) (string, error)
}

// ToCatalog converts the assessment into the form attached to programs.
func (a *FitAssessment) ToCatalog() *catalog.AIAssessment {
	if a == nil {
		return nil
	}
	return &catalog.AIAssessment{
		Fit:     a.Fit,
		Score:   a.Score,
		Reason:  a.Reason,
		Message: a.Message,
		Raw:     a.Raw,
	}
}
