package qualitative

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/yangjiwoo8465/proj-hint-system/internal/domain"
)

const systemPrompt = `You are a strict reviewer of beginner Python solutions.
Rate the code on each criterion with an integer from 1 (poor) to 5 (excellent).
Answer with one JSON object and nothing else.`

const (
	minRating = 1
	maxRating = 5
)

func buildPrompt(code, description string, static domain.StaticMetrics) string {
	var sb strings.Builder

	sb.WriteString("## Problem\n")
	if description == "" {
		sb.WriteString("(no description)\n")
	} else {
		sb.WriteString(description)
		sb.WriteString("\n")
	}

	sb.WriteString("\n## Measured\n")
	fmt.Fprintf(&sb, "- tests passed: %.0f%%\n", static.TestPassRate)
	fmt.Fprintf(&sb, "- syntax errors: %d\n", static.SyntaxErrors)
	fmt.Fprintf(&sb, "- maintainability index: %.1f\n", static.MaintainabilityIndex)
	fmt.Fprintf(&sb, "- style violations: %d\n", static.StyleViolationCount)

	sb.WriteString("\n## Code\n```python\n")
	sb.WriteString(code)
	if !strings.HasSuffix(code, "\n") {
		sb.WriteString("\n")
	}
	sb.WriteString("```\n")

	sb.WriteString("\nReturn exactly these keys: ")
	sb.WriteString(strings.Join(ratingKeys, ", "))
	sb.WriteString(".\n")
	return sb.String()
}

var ratingKeys = []string{
	string(domain.MetricAlgorithmEfficiency),
	string(domain.MetricCodeReadability),
	string(domain.MetricEdgeCaseHandling),
	string(domain.MetricCodeConciseness),
	string(domain.MetricTestCoverageEstimate),
	string(domain.MetricSecurityAwareness),
}

// parseRatings extracts the six ratings from a model answer. It reports false
// only when no JSON object can be read; missing or unreadable fields get the default.
func parseRatings(content string) (domain.QualitativeMetrics, bool) {
	raw := extractObject(content)
	if raw == "" {
		return domain.QualitativeMetrics{}, false
	}

	var fields map[string]any
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		return domain.QualitativeMetrics{}, false
	}

	r := func(key domain.MetricName) int {
		return rating(fields[string(key)])
	}
	return domain.QualitativeMetrics{
		AlgorithmEfficiency:  r(domain.MetricAlgorithmEfficiency),
		CodeReadability:      r(domain.MetricCodeReadability),
		EdgeCaseHandling:     r(domain.MetricEdgeCaseHandling),
		CodeConciseness:      r(domain.MetricCodeConciseness),
		TestCoverageEstimate: r(domain.MetricTestCoverageEstimate),
		SecurityAwareness:    r(domain.MetricSecurityAwareness),
	}, true
}

// extractObject strips markdown fences and surrounding prose
func extractObject(content string) string {
	s := strings.TrimSpace(content)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")

	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end < start {
		return ""
	}
	return s[start : end+1]
}

func rating(v any) int {
	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return domain.DefaultQualitativeValue
		}
		f = parsed
	default:
		return domain.DefaultQualitativeValue
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return domain.DefaultQualitativeValue
	}
	// Clamp before converting: int of a huge float is platform dependent.
	f = math.Min(math.Max(f, minRating), maxRating)
	return int(math.Round(f))
}
