package domain

import (
	"strings"
	"time"
)

// TimeoutExitCode is reported when a program is killed for exceeding its wall-clock limit.
const TimeoutExitCode = -1

// TimeoutMessage is the stderr reported for a timed out execution.
const TimeoutMessage = "execution timed out"

// TruncatedMarker is appended to output that exceeded the output limit.
const TruncatedMarker = "\n(output too long)"

// TestCase is a single hidden test owned by the problem catalog
type TestCase struct {
	Input          string `json:"input" yaml:"input"`
	ExpectedOutput string `json:"expected_output" yaml:"expected_output"`
}

// ExecutionResult is the outcome of running one program against one input.
// It is created once per execution and never mutated.
type ExecutionResult struct {
	Success      bool          `json:"success"`
	Stdout       string        `json:"stdout"`
	Stderr       string        `json:"stderr"`
	ExitCode     int           `json:"exit_code"`
	WallTime     time.Duration `json:"wall_time"`
	PeakMemoryKB int64         `json:"peak_memory_kb"`
	TimedOut     bool          `json:"timed_out"`
	Truncated    bool          `json:"truncated"`
}

// CaseResult pairs an execution with whether its output matched the expectation
type CaseResult struct {
	ExecutionResult
	Matched bool `json:"matched"`
}

// HarnessReport aggregates the results of running every test case of a submission
type HarnessReport struct {
	Passed int          `json:"passed"`
	Total  int          `json:"total"`
	Cases  []CaseResult `json:"cases"`
}

// OutputMatches compares program output with the expected output,
// ignoring leading and trailing whitespace only.
func OutputMatches(stdout, expected string) bool {
	return strings.TrimSpace(stdout) == strings.TrimSpace(expected)
}

// PassRate returns the percentage of passed cases, 0 when there are none.
func (r HarnessReport) PassRate() float64 {
	if r.Total == 0 {
		return 0
	}
	return float64(r.Passed) / float64(r.Total) * 100
}

// AllPassed reports whether every case passed. A report with no cases never passes.
func (r HarnessReport) AllPassed() bool {
	return r.Total > 0 && r.Passed == r.Total
}
