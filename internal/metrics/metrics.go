package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/spigell/unimatch/internal/scoring"
)

// Recorder holds scoring metrics on a private registry so a CLI run can dump
// them to a node-exporter textfile without a listening endpoint.
type Recorder struct {
	registry *prometheus.Registry

	ProgramsScored   prometheus.Counter
	ProgramsFiltered *prometheus.CounterVec
	Tiers            *prometheus.CounterVec
	Scores           prometheus.Histogram
	Completeness     prometheus.Gauge
}

func New() *Recorder {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Recorder{
		registry: registry,
		ProgramsScored: factory.NewCounter(prometheus.CounterOpts{
			Name: "unimatch_programs_scored_total",
			Help: "Total number of programs scored",
		}),
		ProgramsFiltered: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "unimatch_programs_filtered_total",
				Help: "Total number of programs dropped by a filter",
			},
			[]string{"filter"},
		),
		Tiers: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "unimatch_tier_total",
				Help: "Total number of scored programs per tier",
			},
			[]string{"tier"},
		),
		Scores: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "unimatch_suitability_score",
			Help:    "Distribution of suitability scores",
			// Upper bounds are inclusive, so each bucket ends just below the next tier.
			Buckets: []float64{
				scoring.ChallengingMin - 1,
				scoring.AverageFitMin - 1,
				scoring.GoodFitMin - 1,
				scoring.ExcellentFitMin - 1,
				100,
			},
		}),
		Completeness: factory.NewGauge(prometheus.GaugeOpts{
			Name: "unimatch_document_completeness",
			Help: "Document completeness percentage of the last scored student",
		}),
	}
}

func (r *Recorder) Filtered(filter string, dropped int) {
	if dropped > 0 {
		r.ProgramsFiltered.WithLabelValues(filter).Add(float64(dropped))
	}
}

func (r *Recorder) Scored(results []scoring.Result, completeness scoring.Completeness) {
	r.Completeness.Set(float64(completeness.Percentage))
	for _, result := range results {
		r.ProgramsScored.Inc()
		r.Tiers.WithLabelValues(string(result.Tier)).Inc()
		r.Scores.Observe(float64(result.Score))
	}
}

func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// WriteToTextfile writes all metrics in the text exposition format, atomically.
func (r *Recorder) WriteToTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("write metrics to %q: %w", path, err)
	}
	return nil
}
