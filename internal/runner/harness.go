package runner

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/yangjiwoo8465/proj-hint-system/internal/domain"
)

// Harness runs a program against every test case and reports each outcome.
// A failing case never stops the remaining ones from running.
type Harness struct {
	sandbox     Sandbox
	limits      Limits
	parallelism int
}

// NewHarness creates a harness. parallelism <= 1 runs cases one at a time.
func NewHarness(sandbox Sandbox, limits Limits, parallelism int) *Harness {
	if parallelism < 1 {
		parallelism = 1
	}
	return &Harness{sandbox: sandbox, limits: limits, parallelism: parallelism}
}

// Run executes code once per case and returns results in case order
func (h *Harness) Run(ctx context.Context, code string, cases []domain.TestCase) domain.HarnessReport {
	results := make([]domain.CaseResult, len(cases))

	runCase := func(i int) {
		res := h.sandbox.Execute(ctx, code, cases[i].Input, h.limits)
		results[i] = domain.CaseResult{
			ExecutionResult: res,
			Matched:         res.Success && domain.OutputMatches(res.Stdout, cases[i].ExpectedOutput),
		}
	}

	if h.parallelism == 1 || len(cases) < 2 {
		for i := range cases {
			runCase(i)
		}
	} else {
		// Sandbox failures are reported per case, so the group never errors.
		var g errgroup.Group
		g.SetLimit(h.parallelism)
		for i := range cases {
			g.Go(func() error {
				runCase(i)
				return nil
			})
		}
		_ = g.Wait()
	}

	report := domain.HarnessReport{Total: len(cases), Cases: results}
	for _, r := range results {
		if r.Matched {
			report.Passed++
		}
	}
	return report
}
