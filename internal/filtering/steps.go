package filtering

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/unimatch/internal/catalog"
	"github.com/spigell/unimatch/internal/scoring"
)

const (
	DegreeLevelName    = "degree_level"
	AppliedHistoryName = "applied_history"
	OpenDeadlineName   = "open_deadline"
	AIFitName          = "ai_fit"
)

const includeAppliedMsg = "include-applied flag is set"

type degreeLevelFilter struct {
	toggle
	desired string
}

// NewDegreeLevel creates a filter that keeps programs offered at the desired degree level.
func NewDegreeLevel() Filter {
	return &degreeLevelFilter{}
}

func (f *degreeLevelFilter) Name() string { return DegreeLevelName }

func (f *degreeLevelFilter) Validate(*Config) error { return nil }

func (f *degreeLevelFilter) Apply(_ context.Context, deps Deps, p *catalog.Programs) (*catalog.Programs, Step, error) {
	initial := p.Len()

	f.desired = ""
	if deps.Student != nil && deps.Student.Profile != nil {
		f.desired = strings.TrimSpace(deps.Student.Profile.DesiredDegreeLevel)
	}

	kept := make(map[*catalog.Program]bool, initial)
	for _, program := range scoring.FilterByDegree(p.Items, f.desired) {
		kept[program] = true
	}

	excluded := p.Keep(func(program *catalog.Program) bool { return kept[program] })
	if len(excluded) > 0 {
		deps.logger().Info("excluding programs by desired degree level",
			zap.String("desired_degree_level", f.desired),
			zap.Strings("excluded_programs", excluded),
			zap.Int("programs_left", p.Len()),
		)
	}

	return p, Step{Initial: initial, Dropped: len(excluded), Left: p.Len()}, nil
}

func (f *degreeLevelFilter) Status() Status {
	details := map[string]string{}
	if f.desired != "" {
		details["desired_degree_level"] = f.desired
	}
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: f.reason, Details: details}
}

type appliedHistoryFilter struct {
	toggle
	ignore bool
}

// NewAppliedHistory creates a filter that removes programs the student already applied to.
func NewAppliedHistory(ignore bool) Filter {
	return &appliedHistoryFilter{ignore: ignore}
}

func (f *appliedHistoryFilter) Name() string { return AppliedHistoryName }

func (f *appliedHistoryFilter) Validate(*Config) error { return nil }

func (f *appliedHistoryFilter) Apply(ctx context.Context, deps Deps, p *catalog.Programs) (*catalog.Programs, Step, error) {
	initial := p.Len()
	if f.ignore {
		deps.logger().Info("keeping already applied programs", zap.String("reason", includeAppliedMsg))
		return p, Step{Initial: initial, Dropped: 0, Left: p.Len()}, nil
	}

	if deps.Source == nil {
		return p, Step{}, fmt.Errorf("source is required")
	}
	if deps.Student == nil {
		return p, Step{}, fmt.Errorf("student is required")
	}

	applications, err := deps.Source.Applications(ctx, deps.Student.ID)
	if err != nil {
		return p, Step{}, fmt.Errorf("get applications: %w", err)
	}

	excluded := p.Exclude(catalog.ProgramIDs(applications))
	if len(excluded) > 0 {
		deps.logger().Info("excluding programs based on my applications",
			zap.Strings("excluded_programs", excluded),
			zap.Int("programs_left", p.Len()),
		)
	}

	return p, Step{Initial: initial, Dropped: len(excluded), Left: p.Len()}, nil
}

func (f *appliedHistoryFilter) Status() Status {
	reason := f.reason
	if f.ignore && reason == "" {
		reason = "skip requested via flag"
	}
	return Status{
		Name:    f.Name(),
		Enabled: f.IsEnabled(),
		Reason:  reason,
		Details: map[string]string{"exclude_applied": strconv.FormatBool(!f.ignore)},
	}
}

type openDeadlineFilter struct {
	toggle
}

// NewOpenDeadline creates a filter that removes programs whose application deadline has passed.
func NewOpenDeadline() Filter {
	return &openDeadlineFilter{}
}

func (f *openDeadlineFilter) Name() string { return OpenDeadlineName }

func (f *openDeadlineFilter) Validate(*Config) error { return nil }

func (f *openDeadlineFilter) Apply(_ context.Context, deps Deps, p *catalog.Programs) (*catalog.Programs, Step, error) {
	initial := p.Len()
	now := deps.now()

	excluded := p.Keep(func(program *catalog.Program) bool { return !program.DeadlinePassed(now) })
	if len(excluded) > 0 {
		deps.logger().Info("excluding programs with a passed deadline",
			zap.Strings("excluded_programs", excluded),
			zap.Int("programs_left", p.Len()),
		)
	}

	return p, Step{Initial: initial, Dropped: len(excluded), Left: p.Len()}, nil
}

func (f *openDeadlineFilter) Status() Status {
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: f.reason}
}
