package processing

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/RMahshie/shmoo/internal/shmoo"
)

// Pipeline stage names used as metric labels and in diagnostics
const (
	StageExtract     = "extract"
	StageReconstruct = "reconstruct"
	StageRanges      = "ranges"
	StageAggregate   = "aggregate"
	StageMargins     = "margins"
	StageDiff        = "diff"
)

// Metrics records pipeline activity with Prometheus
type Metrics struct {
	filesProcessed *prometheus.CounterVec
	filesFailed    *prometheus.CounterVec
	stageDuration  *prometheus.HistogramVec
	runsTotal      *prometheus.CounterVec
}

// NewMetrics registers the pipeline collectors with reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		filesProcessed: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shmoo_files_processed_total",
				Help: "Files successfully processed per stage",
			},
			[]string{"stage"},
		),
		filesFailed: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shmoo_files_failed_total",
				Help: "Files skipped per stage and error kind",
			},
			[]string{"stage", "kind"},
		),
		stageDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "shmoo_stage_duration_seconds",
				Help:    "Duration of one stage over one test directory",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"stage"},
		),
		runsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shmoo_runs_total",
				Help: "Completed dump runs by outcome",
			},
			[]string{"status"},
		),
	}
}

// FileProcessed counts one file that went through stage
func (m *Metrics) FileProcessed(stage string) {
	if m == nil {
		return
	}
	m.filesProcessed.WithLabelValues(stage).Inc()
}

// FileFailed counts one file skipped by stage because of err
func (m *Metrics) FileFailed(stage string, err error) {
	if m == nil {
		return
	}
	m.filesFailed.WithLabelValues(stage, shmoo.Kind(err)).Inc()
}

// ObserveStage records how long stage took since start
func (m *Metrics) ObserveStage(stage string, start time.Time) {
	if m == nil {
		return
	}
	m.stageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}

// RunFinished counts a finished run by status
func (m *Metrics) RunFinished(status string) {
	if m == nil {
		return
	}
	m.runsTotal.WithLabelValues(status).Inc()
}
