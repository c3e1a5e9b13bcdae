package recommend

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/unimatch/internal/cache"
	"github.com/spigell/unimatch/internal/catalog"
	"github.com/spigell/unimatch/internal/filtering"
	"github.com/spigell/unimatch/internal/scoring"
)

// ResultCache memoizes scoring results. Implementations swallow their own failures.
type ResultCache interface {
	Get(ctx context.Context, key string) ([]scoring.Result, bool)
	Put(ctx context.Context, key string, results []scoring.Result)
}

// Recorder receives run metrics.
type Recorder interface {
	Filtered(filter string, dropped int)
	Scored(results []scoring.Result, completeness scoring.Completeness)
}

// Service runs one recommendation pass for a student: load, filter, score.
type Service struct {
	Source  catalog.Source
	Filters []filtering.Filter
	Config  *filtering.Config
	Deps    filtering.Deps
	Cache   ResultCache
	Metrics Recorder
	Logger  *zap.Logger
}

// Report is the outcome of a run.
type Report struct {
	Student      *catalog.Student     `json:"student"`
	Completeness scoring.Completeness `json:"completeness"`
	Results      []scoring.Result     `json:"results"`
	Steps        []filtering.Step     `json:"steps"`
	Cached       bool                 `json:"cached"`
}

func (r *Report) ByTier() []scoring.Bucket {
	return scoring.GroupByTier(r.Results)
}

// Programs returns the scored programs in result order.
func (r *Report) Programs() *catalog.Programs {
	programs := &catalog.Programs{Items: make([]*catalog.Program, 0, len(r.Results))}
	for _, result := range r.Results {
		if result.Program != nil {
			programs.Items = append(programs.Items, result.Program)
		}
	}
	return programs
}

func (s *Service) logger() *zap.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return zap.NewNop()
}

// LoadStudent fetches profile and documents. A missing profile is not an error:
// scoring treats it as an empty one.
func (s *Service) LoadStudent(ctx context.Context, studentID string) (*catalog.Student, error) {
	studentID = strings.TrimSpace(studentID)
	if studentID == "" {
		return nil, errors.New("student id is required")
	}
	if s.Source == nil {
		return nil, errors.New("source is not configured")
	}

	profile, err := s.Source.Profile(ctx, studentID)
	switch {
	case errors.Is(err, catalog.ErrNotFound):
		s.logger().Warn("student has no profile; scoring with empty profile", zap.String("student_id", studentID))
		profile = nil
	case err != nil:
		return nil, fmt.Errorf("get profile: %w", err)
	}

	documents, err := s.Source.Documents(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("get documents: %w", err)
	}

	return &catalog.Student{ID: studentID, Profile: profile, Documents: documents}, nil
}

// Run scores the student's eligible programs, best first.
func (s *Service) Run(ctx context.Context, studentID string) (*Report, error) {
	student, err := s.LoadStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}

	programs, err := s.Source.Programs(ctx)
	if err != nil {
		return nil, fmt.Errorf("get programs: %w", err)
	}

	s.logger().Info("programs loaded", zap.Int("count", programs.Len()))

	deps := s.Deps
	deps.Source = s.Source
	deps.Student = student
	if deps.Logger == nil {
		deps.Logger = s.Logger
	}

	eligible, steps, err := filtering.Run(ctx, s.Config, deps, s.Filters, programs.Clone())
	if err != nil {
		return nil, fmt.Errorf("filtering: %w", err)
	}

	report := &Report{
		Student:      student,
		Completeness: scoring.AnalyzeDocuments(student.Documents),
		Steps:        steps,
	}

	report.Results, report.Cached = s.score(ctx, student, eligible)
	scoring.SortByScore(report.Results)

	if s.Metrics != nil {
		for _, step := range steps {
			s.Metrics.Filtered(step.Name, step.Dropped)
		}
		s.Metrics.Scored(report.Results, report.Completeness)
	}

	s.logger().Info("programs scored",
		zap.String("student_id", student.ID),
		zap.Int("results", len(report.Results)),
		zap.Int("document_completeness", report.Completeness.Percentage),
		zap.Bool("cached", report.Cached),
	)

	return report, nil
}

func (s *Service) score(ctx context.Context, student *catalog.Student, programs *catalog.Programs) ([]scoring.Result, bool) {
	if s.Cache == nil {
		return scoring.ScorePrograms(student.Profile, student.Documents, programs.Items), false
	}

	key, err := cache.Key(student.Profile, student.Documents, programs.Items)
	if err != nil {
		s.logger().Warn("cannot build cache key", zap.Error(err))
		return scoring.ScorePrograms(student.Profile, student.Documents, programs.Items), false
	}

	if cached, ok := s.Cache.Get(ctx, key); ok && relink(cached, programs) {
		return cached, true
	}

	results := scoring.ScorePrograms(student.Profile, student.Documents, programs.Items)
	s.Cache.Put(ctx, key, results)
	return results, false
}

// relink attaches current program records to cached results. It reports false
// when the cached entry does not describe exactly this program set.
func relink(results []scoring.Result, programs *catalog.Programs) bool {
	if len(results) != programs.Len() {
		return false
	}
	for i := range results {
		program := programs.FindByID(results[i].ProgramID)
		if program == nil {
			return false
		}
		results[i].Program = program
	}
	return true
}
