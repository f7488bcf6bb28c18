package domain

import "math"

// Static sub-score weights. They sum to 100.
const (
	syntaxPoints          = 20.0
	passRatePoints        = 25.0
	executionTimePoints   = 15.0
	memoryPoints          = 10.0
	maintainabilityPoints = 20.0
	stylePoints           = 10.0
)

// StaticSubscore converts the six static metrics into a 0-100 value
func StaticSubscore(s StaticMetrics) float64 {
	score := 0.0
	if s.SyntaxErrors == 0 {
		score += syntaxPoints
	}
	score += s.TestPassRate / 100 * passRatePoints
	score += linearDecay(s.ExecutionTimeMs, 100, 1000, executionTimePoints)
	score += linearDecay(s.MemoryKB, 1000, 10000, memoryPoints)
	score += s.MaintainabilityIndex / 100 * maintainabilityPoints
	score += linearDecay(float64(s.StyleViolationCount), 0, 10, stylePoints)
	return score
}

// QualitativeSubscore rescales the average of the six 1-5 judgments to 0-100
func QualitativeSubscore(q QualitativeMetrics) float64 {
	values := q.Values()
	sum := 0
	for _, v := range values {
		sum += v
	}
	avg := float64(sum) / float64(len(values))
	return (avg - 1) / 4 * 100
}

// Score combines static and qualitative metrics into the 0-100 total, rounded to 2 decimals.
func Score(s StaticMetrics, q QualitativeMetrics) float64 {
	total := 0.5*StaticSubscore(s) + 0.5*QualitativeSubscore(q)
	return math.Round(total*100) / 100
}

// linearDecay awards max at or below full, nothing at or above zero, and interpolates between.
func linearDecay(value, full, zero, max float64) float64 {
	switch {
	case value <= full:
		return max
	case value >= zero:
		return 0
	default:
		return max * (zero - value) / (zero - full)
	}
}
