package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/yangjiwoo8465/proj-hint-system/internal/domain"
)

// SourceFileName is the name the submitted program is stored under
const SourceFileName = "main.py"

// Limits bounds a single execution
type Limits struct {
	Timeout        time.Duration
	MaxOutputBytes int
}

// DefaultLimits returns the limits used when none are configured
func DefaultLimits() Limits {
	return Limits{
		Timeout:        5 * time.Second,
		MaxOutputBytes: 64 * 1024,
	}
}

// Sandbox runs one untrusted program to completion or timeout.
// Implementations must be safe for concurrent use and must never return an error for
// conditions caused by the program itself: those are reported in the result.
type Sandbox interface {
	Execute(ctx context.Context, code, stdin string, limits Limits) domain.ExecutionResult
}

// LocalSandbox runs programs as local child processes (for development and single-host setups)
type LocalSandbox struct {
	interpreter []string
}

// NewLocalSandbox creates a new local sandbox. interpreter defaults to python3.
func NewLocalSandbox(interpreter ...string) *LocalSandbox {
	if len(interpreter) == 0 {
		interpreter = []string{"python3"}
	}
	return &LocalSandbox{interpreter: interpreter}
}

func (s *LocalSandbox) Execute(ctx context.Context, code, stdin string, limits Limits) domain.ExecutionResult {
	limits = normalizeLimits(limits)

	tmpDir, err := createTempCodeDir(map[string]string{SourceFileName: code})
	if err != nil {
		slog.Error("sandbox setup failed", "error", err)
		return failedResult(fmt.Sprintf("sandbox setup failed: %v", err))
	}
	defer removeTempDir(tmpDir)

	runCtx, cancel := context.WithTimeout(ctx, limits.Timeout)
	defer cancel()

	args := append(append([]string{}, s.interpreter[1:]...), SourceFileName)
	cmd := exec.CommandContext(runCtx, s.interpreter[0], args...)
	cmd.Dir = tmpDir
	cmd.Stdin = strings.NewReader(stdin)
	cmd.Env = []string{"PATH=" + os.Getenv("PATH"), "PYTHONDONTWRITEBYTECODE=1", "PYTHONIOENCODING=utf-8"}
	cmd.WaitDelay = time.Second

	out := newCappedOutput(limits.MaxOutputBytes)
	cmd.Stdout = out.Stdout()
	cmd.Stderr = out.Stderr()
	configureSandboxProcess(cmd)

	start := time.Now()
	runErr := cmd.Run()
	wall := time.Since(start)

	if errors.Is(runCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
		return timeoutResult(wall, peakMemoryKB(cmd.ProcessState))
	}
	if ctx.Err() != nil {
		r := failedResult("execution cancelled")
		r.WallTime = wall
		return r
	}

	var exitErr *exec.ExitError
	if runErr != nil && !errors.As(runErr, &exitErr) {
		// The interpreter never ran, e.g. it is not installed.
		slog.Error("sandbox start failed", "error", runErr)
		r := failedResult(fmt.Sprintf("execution failed: %v", runErr))
		r.WallTime = wall
		return r
	}

	stdout, stderr := out.Result()
	return buildResult(cmd.ProcessState.ExitCode(), stdout, stderr, out.Truncated(), wall, peakMemoryKB(cmd.ProcessState))
}

// buildResult applies the reporting rules shared by every sandbox:
// success means exit code 0, and stdout of a failed program is not surfaced.
func buildResult(exitCode int, stdout, stderr string, truncated bool, wall time.Duration, peakKB int64) domain.ExecutionResult {
	result := domain.ExecutionResult{
		Success:      exitCode == 0,
		Stdout:       stdout,
		Stderr:       stderr,
		ExitCode:     exitCode,
		WallTime:     wall,
		PeakMemoryKB: peakKB,
		Truncated:    truncated,
	}
	if !result.Success {
		result.Stdout = ""
	}
	return result
}

func timeoutResult(wall time.Duration, peakKB int64) domain.ExecutionResult {
	return domain.ExecutionResult{
		Success:      false,
		Stderr:       domain.TimeoutMessage,
		ExitCode:     domain.TimeoutExitCode,
		WallTime:     wall,
		PeakMemoryKB: peakKB,
		TimedOut:     true,
	}
}

func failedResult(stderr string) domain.ExecutionResult {
	return domain.ExecutionResult{
		Success:  false,
		Stderr:   stderr,
		ExitCode: domain.TimeoutExitCode,
	}
}

func normalizeLimits(l Limits) Limits {
	d := DefaultLimits()
	if l.Timeout <= 0 {
		l.Timeout = d.Timeout
	}
	if l.MaxOutputBytes <= 0 {
		l.MaxOutputBytes = d.MaxOutputBytes
	}
	return l
}

// Helper functions
func createTempCodeDir(code map[string]string) (string, error) {
	tmpDir, err := os.MkdirTemp("", "hintsys-run-*")
	if err != nil {
		return "", err
	}

	for filename, content := range code {
		filePath := filepath.Join(tmpDir, filename)
		if err := os.WriteFile(filePath, []byte(content), 0644); err != nil {
			removeTempDir(tmpDir)
			return "", err
		}
	}

	return tmpDir, nil
}

func removeTempDir(dir string) {
	os.RemoveAll(dir)
}

var _ Sandbox = (*LocalSandbox)(nil)
