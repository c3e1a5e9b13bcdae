package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/spigell/unimatch/internal/scoring"
)

func TestRecorder(t *testing.T) {
	t.Parallel()

	r := New()
	r.Filtered("degree_level", 2)
	r.Filtered("applied_history", 0)
	r.Scored([]scoring.Result{
		{ProgramID: "a", Score: 90, Tier: scoring.TierExcellentFit},
		{ProgramID: "b", Score: 88, Tier: scoring.TierExcellentFit},
		{ProgramID: "c", Score: 30, Tier: scoring.TierGrowthOpportunity},
	}, scoring.Completeness{Percentage: 55})

	if got := testutil.ToFloat64(r.ProgramsScored); got != 3 {
		t.Fatalf("expected 3 scored programs, got %v", got)
	}
	if got := testutil.ToFloat64(r.ProgramsFiltered.WithLabelValues("degree_level")); got != 2 {
		t.Fatalf("expected 2 filtered programs, got %v", got)
	}
	if got := testutil.CollectAndCount(r.ProgramsFiltered); got != 1 {
		t.Fatalf("expected zero drops to create no series, got %d", got)
	}
	if got := testutil.ToFloat64(r.Tiers.WithLabelValues(string(scoring.TierExcellentFit))); got != 2 {
		t.Fatalf("expected 2 excellent programs, got %v", got)
	}
	if got := testutil.ToFloat64(r.Completeness); got != 55 {
		t.Fatalf("expected completeness 55, got %v", got)
	}
	if got := testutil.CollectAndCount(r.Scores); got != 1 {
		t.Fatalf("expected one histogram, got %d", got)
	}
}

func TestWriteToTextfile(t *testing.T) {
	t.Parallel()

	r := New()
	r.Scored([]scoring.Result{{ProgramID: "a", Score: 60, Tier: scoring.TierAverageFit}}, scoring.Completeness{})

	path := filepath.Join(t.TempDir(), "unimatch.prom")
	if err := r.WriteToTextfile(path); err != nil {
		t.Fatalf("WriteToTextfile returned error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read textfile: %v", err)
	}

	for _, want := range []string{
		"unimatch_programs_scored_total 1",
		`unimatch_tier_total{tier="Average Fit"} 1`,
		"unimatch_suitability_score_count 1",
	} {
		if !strings.Contains(string(data), want) {
			t.Fatalf("expected %q in textfile:\n%s", want, data)
		}
	}

	if err := r.WriteToTextfile(filepath.Join(t.TempDir(), "missing", "x.prom")); err == nil {
		t.Fatalf("expected error for missing directory")
	}
}

func TestScoreBucketsFollowTiers(t *testing.T) {
	t.Parallel()

	r := New()
	r.Scored([]scoring.Result{
		{ProgramID: "a", Score: scoring.ChallengingMin, Tier: scoring.TierChallenging},
		{ProgramID: "b", Score: scoring.ExcellentFitMin, Tier: scoring.TierExcellentFit},
		{ProgramID: "c", Score: scoring.ExcellentFitMin - 1, Tier: scoring.TierGoodFit},
	}, scoring.Completeness{})

	path := filepath.Join(t.TempDir(), "unimatch.prom")
	if err := r.WriteToTextfile(path); err != nil {
		t.Fatalf("WriteToTextfile returned error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read textfile: %v", err)
	}

	for _, want := range []string{
		`unimatch_suitability_score_bucket{le="39"} 0`,
		`unimatch_suitability_score_bucket{le="54"} 1`,
		`unimatch_suitability_score_bucket{le="84"} 2`,
		`unimatch_suitability_score_bucket{le="100"} 3`,
	} {
		if !strings.Contains(string(data), want) {
			t.Fatalf("expected %q in textfile:\n%s", want, data)
		}
	}
}
