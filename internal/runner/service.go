package runner

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yangjiwoo8465/proj-hint-system/internal/domain"
)

// ErrCancelled is returned by Execute when the run was stopped through Cancel
var ErrCancelled = errors.New("run cancelled")

// ErrNotRunning is returned by Cancel for an unknown or finished submission
var ErrNotRunning = errors.New("submission not running")

// Config holds runner configuration
type Config struct {
	Parallelism    int           `yaml:"parallelism"`
	Timeout        time.Duration `yaml:"timeout"`
	MaxOutputBytes int           `yaml:"max_output_bytes"`
	MemoryMB       int           `yaml:"memory_mb"`
	CPULimit       float64       `yaml:"cpu_limit"`
	BaseImage      string        `yaml:"base_image"`
	Executor       string        `yaml:"executor"` // "local" or "docker"
}

// DefaultConfig returns default runner configuration
func DefaultConfig() Config {
	return Config{
		Parallelism:    1,
		Timeout:        5 * time.Second,
		MaxOutputBytes: 64 * 1024,
		MemoryMB:       256,
		CPULimit:       0.5,
		BaseImage:      "python:3.12-alpine",
		Executor:       "local",
	}
}

// Limits returns the per-execution limits for this configuration
func (c Config) Limits() Limits {
	return Limits{Timeout: c.Timeout, MaxOutputBytes: c.MaxOutputBytes}
}

// Service runs submissions through the harness and tracks in-flight runs
type Service struct {
	config  Config
	harness *Harness

	mu      sync.Mutex
	running map[uuid.UUID]*runState
}

type runState struct {
	userID    uuid.UUID
	problemID string
	cancel    context.CancelFunc
	cancelled bool
	doneCh    chan struct{}
}

// NewService creates a new runner service
func NewService(cfg Config, sandbox Sandbox) *Service {
	return &Service{
		config:  cfg,
		harness: NewHarness(sandbox, cfg.Limits(), cfg.Parallelism),
		running: make(map[uuid.UUID]*runState),
	}
}

// ExecuteRequest contains data for executing a submission
type ExecuteRequest struct {
	SubmissionID uuid.UUID
	UserID       uuid.UUID
	ProblemID    string
	Code         string
	Cases        []domain.TestCase
}

// Execute runs the submission against all of its cases. A run stopped through
// Cancel returns its partial report together with ErrCancelled.
func (s *Service) Execute(ctx context.Context, req ExecuteRequest) (domain.HarnessReport, error) {
	if req.SubmissionID == uuid.Nil {
		req.SubmissionID = uuid.New()
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	state := &runState{
		userID:    req.UserID,
		problemID: req.ProblemID,
		cancel:    cancel,
		doneCh:    make(chan struct{}),
	}

	s.mu.Lock()
	if _, dup := s.running[req.SubmissionID]; dup {
		s.mu.Unlock()
		return domain.HarnessReport{}, fmt.Errorf("submission already running: %s", req.SubmissionID)
	}
	s.running[req.SubmissionID] = state
	s.mu.Unlock()

	defer close(state.doneCh)

	report := s.harness.Run(ctx, req.Code, req.Cases)

	s.mu.Lock()
	delete(s.running, req.SubmissionID)
	cancelled := state.cancelled
	s.mu.Unlock()

	if cancelled {
		return report, ErrCancelled
	}
	return report, nil
}

// Cancel cancels a running submission
func (s *Service) Cancel(submissionID uuid.UUID) error {
	s.mu.Lock()
	state, ok := s.running[submissionID]
	if ok {
		state.cancelled = true
	}
	s.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrNotRunning, submissionID)
	}

	state.cancel()
	return nil
}

// IsRunning checks if a submission is currently executing
func (s *Service) IsRunning(submissionID uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.running[submissionID]
	return ok
}

// Wait waits for a submission to complete
func (s *Service) Wait(ctx context.Context, submissionID uuid.UUID) error {
	s.mu.Lock()
	state, ok := s.running[submissionID]
	s.mu.Unlock()

	if !ok {
		return nil // Already completed
	}

	select {
	case <-state.doneCh:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
