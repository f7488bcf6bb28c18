package analyzer

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// StyleChecker counts style violations in Python source
type StyleChecker interface {
	Violations(ctx context.Context, code string) (int, error)
}

// PycodestyleChecker shells out to pycodestyle, reading the source from stdin
type PycodestyleChecker struct {
	python  string
	timeout time.Duration
	args    []string
}

// NewPycodestyleChecker creates a checker using the given interpreter (default python3)
func NewPycodestyleChecker(python string) *PycodestyleChecker {
	if python == "" {
		python = "python3"
	}
	return &PycodestyleChecker{
		python:  python,
		timeout: 10 * time.Second,
		args:    []string{"-m", "pycodestyle", "--max-line-length=100", "-"},
	}
}

func (c *PycodestyleChecker) Violations(ctx context.Context, code string) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, c.python, c.args...)
	cmd.Stdin = strings.NewReader(code)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err != nil {
		// pycodestyle exits 1 when it reports violations.
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) || exitErr.ExitCode() != 1 || stdout.Len() == 0 {
			return 0, fmt.Errorf("pycodestyle: %w: %s", err, strings.TrimSpace(stderr.String()))
		}
	}

	return countViolations(stdout.Bytes()), nil
}

// countViolations counts "path:line:col: CODE message" lines
func countViolations(out []byte) int {
	n := 0
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.Count(line, ":") >= 3 {
			n++
		}
	}
	return n
}
