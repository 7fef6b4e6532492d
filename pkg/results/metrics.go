package results

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/verityhq/verdict/pkg/contracts"
)

var (
	resultsProcessedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "verdict_results_processed_total",
		Help: "Total verification results aggregated.",
	})
	resultsRiskTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "verdict_results_risk_total",
		Help: "Verification results by final risk level.",
	}, []string{"level"})
	resultsIssuesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "verdict_results_issues_total",
		Help: "Aggregated issues by type.",
	}, []string{"type"})
	resultsConfidence = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "verdict_results_confidence",
		Help:    "Final weighted confidence per result.",
		Buckets: prometheus.LinearBuckets(0, 10, 11),
	})
	resultsProcessingSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "verdict_results_processing_seconds",
		Help:    "End-to-end verification processing time.",
		Buckets: prometheus.DefBuckets,
	})
)

// Metrics keeps running aggregates over processed results. Averages use the
// incremental-mean formula so no history is retained.
type Metrics struct {
	mu                    sync.Mutex
	totalProcessed        int64
	averageConfidence     float64
	averageProcessing     float64 // nanoseconds
	riskDistribution      map[contracts.RiskLevel]int64
	issueTypeDistribution map[contracts.IssueType]int64
}

// NewMetrics creates an empty metrics recorder.
func NewMetrics() *Metrics {
	return &Metrics{
		riskDistribution:      make(map[contracts.RiskLevel]int64),
		issueTypeDistribution: make(map[contracts.IssueType]int64),
	}
}

// Observe folds one aggregated result into the running metrics and mirrors
// it to the process-wide Prometheus collectors.
func (m *Metrics) Observe(result *contracts.VerificationResult) {
	m.mu.Lock()
	m.totalProcessed++
	n := float64(m.totalProcessed)
	m.averageConfidence = (m.averageConfidence*(n-1) + float64(result.OverallConfidence)) / n
	m.averageProcessing = (m.averageProcessing*(n-1) + float64(result.ProcessingTime)) / n
	m.riskDistribution[result.RiskLevel]++
	for _, issue := range result.Issues {
		m.issueTypeDistribution[issue.Type]++
	}
	m.mu.Unlock()

	resultsProcessedTotal.Inc()
	resultsRiskTotal.WithLabelValues(string(result.RiskLevel)).Inc()
	for _, issue := range result.Issues {
		resultsIssuesTotal.WithLabelValues(string(issue.Type)).Inc()
	}
	resultsConfidence.Observe(float64(result.OverallConfidence))
	resultsProcessingSeconds.Observe(result.ProcessingTime.Seconds())
}

// Snapshot is a point-in-time copy of the running metrics.
type Snapshot struct {
	TotalProcessed        int64                         `json:"total_processed"`
	AverageConfidence     float64                       `json:"average_confidence"`
	AverageProcessingTime time.Duration                 `json:"average_processing_time"`
	RiskDistribution      map[contracts.RiskLevel]int64 `json:"risk_distribution"`
	IssueTypeDistribution map[contracts.IssueType]int64 `json:"issue_type_distribution"`
}

// Snapshot returns a copy of the current aggregates.
func (m *Metrics) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := Snapshot{
		TotalProcessed:        m.totalProcessed,
		AverageConfidence:     m.averageConfidence,
		AverageProcessingTime: time.Duration(m.averageProcessing),
		RiskDistribution:      make(map[contracts.RiskLevel]int64, len(m.riskDistribution)),
		IssueTypeDistribution: make(map[contracts.IssueType]int64, len(m.issueTypeDistribution)),
	}
	for k, v := range m.riskDistribution {
		snap.RiskDistribution[k] = v
	}
	for k, v := range m.issueTypeDistribution {
		snap.IssueTypeDistribution[k] = v
	}
	return snap
}
