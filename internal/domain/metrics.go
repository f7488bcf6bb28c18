package domain

import (
	"time"

	"github.com/google/uuid"
)

// DefaultQualitativeValue is used for every qualitative metric the LLM did not supply
const DefaultQualitativeValue = 3

// StaticMetrics are derived from source text and execution results, no LLM involved
type StaticMetrics struct {
	SyntaxErrors         int     `json:"syntax_errors"`
	TestPassRate         float64 `json:"test_pass_rate"`
	ExecutionTimeMs      float64 `json:"execution_time_ms"`
	MemoryKB             float64 `json:"memory_kb"`
	MaintainabilityIndex float64 `json:"maintainability_index"`
	StyleViolationCount  int     `json:"style_violation_count"`
}

// QualitativeMetrics are 1-5 judgments supplied by an external LLM
type QualitativeMetrics struct {
	AlgorithmEfficiency  int `json:"algorithm_efficiency"`
	CodeReadability      int `json:"code_readability"`
	EdgeCaseHandling     int `json:"edge_case_handling"`
	CodeConciseness      int `json:"code_conciseness"`
	TestCoverageEstimate int `json:"test_coverage_estimate"`
	SecurityAwareness    int `json:"security_awareness"`
}

// DefaultQualitativeMetrics returns the fallback used whenever evaluation is unavailable
func DefaultQualitativeMetrics() QualitativeMetrics {
	return QualitativeMetrics{
		AlgorithmEfficiency:  DefaultQualitativeValue,
		CodeReadability:      DefaultQualitativeValue,
		EdgeCaseHandling:     DefaultQualitativeValue,
		CodeConciseness:      DefaultQualitativeValue,
		TestCoverageEstimate: DefaultQualitativeValue,
		SecurityAwareness:    DefaultQualitativeValue,
	}
}

// Values returns the six metrics in declaration order
func (q QualitativeMetrics) Values() [6]int {
	return [6]int{
		q.AlgorithmEfficiency,
		q.CodeReadability,
		q.EdgeCaseHandling,
		q.CodeConciseness,
		q.TestCoverageEstimate,
		q.SecurityAwareness,
	}
}

// Metrics bundles both halves of the twelve-metric profile
type Metrics struct {
	Static      StaticMetrics      `json:"static"`
	Qualitative QualitativeMetrics `json:"qualitative"`
}

// SnapshotKind tells whether a snapshot came from a submission or a hint request
type SnapshotKind string

const (
	SnapshotSubmission SnapshotKind = "submission"
	SnapshotHint       SnapshotKind = "hint"
)

// MetricsSnapshot is the persisted twelve-metric profile of one submission or hint request
type MetricsSnapshot struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	ProblemID string
	Kind      SnapshotKind
	Metrics   Metrics
	Score     float64
	CreatedAt time.Time
}

// MetricName identifies one of the twelve metrics, used by badge thresholds
type MetricName string

const (
	MetricSyntaxErrors         MetricName = "syntax_errors"
	MetricTestPassRate         MetricName = "test_pass_rate"
	MetricExecutionTimeMs      MetricName = "execution_time_ms"
	MetricMemoryKB             MetricName = "memory_kb"
	MetricMaintainabilityIndex MetricName = "maintainability_index"
	MetricStyleViolationCount  MetricName = "style_violation_count"
	MetricAlgorithmEfficiency  MetricName = "algorithm_efficiency"
	MetricCodeReadability      MetricName = "code_readability"
	MetricEdgeCaseHandling     MetricName = "edge_case_handling"
	MetricCodeConciseness      MetricName = "code_conciseness"
	MetricTestCoverageEstimate MetricName = "test_coverage_estimate"
	MetricSecurityAwareness    MetricName = "security_awareness"
)

// Value looks up a metric by name. ok is false for unknown names.
func (m Metrics) Value(name MetricName) (float64, bool) {
	switch name {
	case MetricSyntaxErrors:
		return float64(m.Static.SyntaxErrors), true
	case MetricTestPassRate:
		return m.Static.TestPassRate, true
	case MetricExecutionTimeMs:
		return m.Static.ExecutionTimeMs, true
	case MetricMemoryKB:
		return m.Static.MemoryKB, true
	case MetricMaintainabilityIndex:
		return m.Static.MaintainabilityIndex, true
	case MetricStyleViolationCount:
		return float64(m.Static.StyleViolationCount), true
	case MetricAlgorithmEfficiency:
		return float64(m.Qualitative.AlgorithmEfficiency), true
	case MetricCodeReadability:
		return float64(m.Qualitative.CodeReadability), true
	case MetricEdgeCaseHandling:
		return float64(m.Qualitative.EdgeCaseHandling), true
	case MetricCodeConciseness:
		return float64(m.Qualitative.CodeConciseness), true
	case MetricTestCoverageEstimate:
		return float64(m.Qualitative.TestCoverageEstimate), true
	case MetricSecurityAwareness:
		return float64(m.Qualitative.SecurityAwareness), true
	}
	return 0, false
}
