// Package analyzer derives the static quality metrics of a submission.
package analyzer

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/yangjiwoo8465/proj-hint-system/internal/domain"
)

// Analyzer computes domain.StaticMetrics from source and harness results
type Analyzer struct {
	style  StyleChecker
	syntax SyntaxChecker
}

// New creates an analyzer. A nil style checker disables style counting and
// a nil syntax checker leaves syntax decisions to tree-sitter.
func New(style StyleChecker, syntax SyntaxChecker) *Analyzer {
	return &Analyzer{style: style, syntax: syntax}
}

// Analyze never fails: every metric that cannot be measured falls back to its documented default.
func (a *Analyzer) Analyze(ctx context.Context, code string, cases []domain.CaseResult) domain.StaticMetrics {
	parses := Parses(ctx, a.syntax, code)
	syntaxErrors := 0
	if !parses {
		syntaxErrors = 1
	}

	m := domain.StaticMetrics{
		SyntaxErrors:         syntaxErrors,
		TestPassRate:         passRate(cases),
		ExecutionTimeMs:      meanPositive(cases, func(c domain.CaseResult) float64 { return float64(c.WallTime) / float64(time.Millisecond) }),
		MemoryKB:             meanPositive(cases, func(c domain.CaseResult) float64 { return float64(c.PeakMemoryKB) }),
		MaintainabilityIndex: MaintainabilityIndex(ctx, code, parses),
	}

	if strings.TrimSpace(code) != "" && a.style != nil {
		count, err := a.style.Violations(ctx, code)
		if err != nil {
			slog.Warn("style check failed", "error", err)
		} else {
			m.StyleViolationCount = count
		}
	}

	return m
}

func passRate(cases []domain.CaseResult) float64 {
	if len(cases) == 0 {
		return 0
	}
	passed := 0
	for _, c := range cases {
		if c.Matched {
			passed++
		}
	}
	return float64(passed) / float64(len(cases)) * 100
}

// meanPositive averages only samples greater than zero; no samples gives 0
func meanPositive(cases []domain.CaseResult, sample func(domain.CaseResult) float64) float64 {
	var sum float64
	n := 0
	for _, c := range cases {
		if v := sample(c); v > 0 {
			sum += v
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}
