package recommend

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spigell/unimatch/internal/cache"
	"github.com/spigell/unimatch/internal/catalog"
	"github.com/spigell/unimatch/internal/filtering"
	"github.com/spigell/unimatch/internal/metrics"
	"github.com/spigell/unimatch/internal/scoring"
)

type memorySource struct {
	profile      *catalog.StudentProfile
	profileErr   error
	documents    []catalog.DocumentRecord
	programs     []*catalog.Program
	programsErr  error
	applications []catalog.Application
	applied      []*catalog.Application
}

func (m *memorySource) Profile(context.Context, string) (*catalog.StudentProfile, error) {
	if m.profileErr != nil {
		return nil, m.profileErr
	}
	if m.profile == nil {
		return nil, catalog.ErrNotFound
	}
	p := *m.profile
	return &p, nil
}

func (m *memorySource) Documents(context.Context, string) ([]catalog.DocumentRecord, error) {
	return m.documents, nil
}

func (m *memorySource) Programs(context.Context) (*catalog.Programs, error) {
	if m.programsErr != nil {
		return nil, m.programsErr
	}
	items := make([]*catalog.Program, 0, len(m.programs))
	for _, p := range m.programs {
		copied := *p
		items = append(items, &copied)
	}
	return &catalog.Programs{Items: items}, nil
}

func (m *memorySource) Applications(context.Context, string) ([]catalog.Application, error) {
	return m.applications, nil
}

func (m *memorySource) Apply(_ context.Context, a *catalog.Application) error {
	m.applied = append(m.applied, a)
	return nil
}

func uploaded(docType string) catalog.DocumentRecord {
	return catalog.DocumentRecord{DocumentType: docType, Status: catalog.DocumentStatusUploaded}
}

func newSource() *memorySource {
	return &memorySource{
		profile: &catalog.StudentProfile{Specialization: "Computer Science", GPA: "3.8", DesiredDegreeLevel: "masters"},
		documents: []catalog.DocumentRecord{
			uploaded("transcript"), uploaded("personal statement"), uploaded("ielts"),
		},
		programs: []*catalog.Program{
			{ID: "weak", Title: "Master of Fine Arts", DegreeLevel: "Master's"},
			{ID: "strong", Title: "MSc Computer Science", DegreeLevel: "Master's", HasScholarship: true},
			{ID: "bachelor", Title: "BSc Physics", DegreeLevel: "Bachelor"},
			{ID: "applied", Title: "MSc Data Science", DegreeLevel: "Master's"},
		},
		applications: []catalog.Application{{ProgramID: "applied"}},
	}
}

func newService(source catalog.Source) *Service {
	steps := filtering.Default(false)
	filtering.DisableByName(steps, filtering.AIFitName, "ai is disabled in config")

	return &Service{
		Source:  source,
		Filters: steps,
		Config:  &filtering.Config{},
		Deps:    filtering.Deps{Now: func() time.Time { return time.Date(2026, 10, 17, 0, 0, 0, 0, time.UTC) }},
	}
}

func resultIDs(results []scoring.Result) []string {
	ids := make([]string, 0, len(results))
	for _, r := range results {
		ids = append(ids, r.ProgramID)
	}
	return ids
}

func TestRun(t *testing.T) {
	service := newService(newSource())
	recorder := metrics.New()
	service.Metrics = recorder

	report, err := service.Run(context.Background(), "s1")
	require.NoError(t, err)

	assert.Equal(t, []string{"strong", "weak"}, resultIDs(report.Results))
	assert.GreaterOrEqual(t, report.Results[0].Score, report.Results[1].Score)
	assert.Same(t, report.Results[0].Program, report.Programs().Items[0])

	assert.Equal(t, 75, report.Completeness.Percentage)
	assert.True(t, report.Completeness.HasEssentialDocs)
	assert.Equal(t, "s1", report.Student.ID)
	assert.False(t, report.Cached)

	require.Len(t, report.Steps, 3)
	assert.Equal(t, filtering.Step{Name: filtering.DegreeLevelName, Initial: 4, Dropped: 1, Left: 3}, report.Steps[0])
	assert.Equal(t, filtering.Step{Name: filtering.AppliedHistoryName, Initial: 3, Dropped: 1, Left: 2}, report.Steps[1])

	assert.Equal(t, float64(2), testutil.ToFloat64(recorder.ProgramsScored))
	assert.Equal(t, float64(1), testutil.ToFloat64(recorder.ProgramsFiltered.WithLabelValues(filtering.DegreeLevelName)))
	assert.Equal(t, float64(75), testutil.ToFloat64(recorder.Completeness))
}

func TestRunByTier(t *testing.T) {
	report, err := newService(newSource()).Run(context.Background(), "s1")
	require.NoError(t, err)

	buckets := report.ByTier()
	require.NotEmpty(t, buckets)

	total := 0
	for i, bucket := range buckets {
		total += len(bucket.Results)
		for _, r := range bucket.Results {
			assert.Equal(t, bucket.Tier, r.Tier)
		}
		if i > 0 {
			assert.NotEqual(t, buckets[i-1].Tier, bucket.Tier)
		}
	}
	assert.Equal(t, len(report.Results), total)
}

func TestRunWithoutProfile(t *testing.T) {
	source := newSource()
	source.profile = nil
	source.documents = nil

	report, err := newService(source).Run(context.Background(), "s1")
	require.NoError(t, err)

	assert.Nil(t, report.Student.Profile)
	// Every published program that was not applied to survives the degree filter.
	assert.Len(t, report.Results, 3)
	for _, r := range report.Results {
		assert.Contains(t, r.ImprovementAreas, "Set a desired degree level to sharpen your matches")
	}
}

func TestRunErrors(t *testing.T) {
	ctx := context.Background()

	_, err := newService(newSource()).Run(ctx, "  ")
	assert.Error(t, err)

	broken := newSource()
	broken.profileErr = errors.New("connection refused")
	_, err = newService(broken).Run(ctx, "s1")
	assert.ErrorContains(t, err, "get profile: connection refused")

	broken = newSource()
	broken.programsErr = errors.New("timeout")
	_, err = newService(broken).Run(ctx, "s1")
	assert.ErrorContains(t, err, "get programs: timeout")

	_, err = (&Service{}).Run(ctx, "s1")
	assert.Error(t, err)
}

func TestRunUsesCache(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	source := newSource()
	service := newService(source)
	service.Cache = cache.New(redis.NewClient(&redis.Options{Addr: mr.Addr()}), time.Minute, nil)

	first, err := service.Run(context.Background(), "s1")
	require.NoError(t, err)
	assert.False(t, first.Cached)
	assert.Len(t, mr.Keys(), 1)

	second, err := service.Run(context.Background(), "s1")
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, resultIDs(first.Results), resultIDs(second.Results))
	for _, r := range second.Results {
		require.NotNil(t, r.Program)
		assert.Equal(t, r.ProgramID, r.Program.ID)
	}

	source.profile.GPA = "2.0"
	third, err := service.Run(context.Background(), "s1")
	require.NoError(t, err)
	assert.False(t, third.Cached)
	assert.Len(t, mr.Keys(), 2)
}

func TestRunFallsBackWhenCacheIsDown(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	service := newService(newSource())
	service.Cache = cache.New(redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1}), time.Minute, nil)
	mr.Close()

	report, err := service.Run(context.Background(), "s1")
	require.NoError(t, err)
	assert.Len(t, report.Results, 2)
	assert.False(t, report.Cached)
}

func TestRelinkRejectsMismatchedSet(t *testing.T) {
	programs := &catalog.Programs{Items: []*catalog.Program{{ID: "a"}}}

	assert.False(t, relink([]scoring.Result{{ProgramID: "b"}}, programs))
	assert.False(t, relink(nil, programs))
	assert.True(t, relink([]scoring.Result{{ProgramID: "a"}}, programs))
}
