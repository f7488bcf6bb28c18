// Package mcp exposes the grading core as Model Context Protocol tools.
package mcp

import (
	"context"
	"fmt"
	"strings"

	mcp "github.com/felixgeelhaar/mcp-go"
	"github.com/felixgeelhaar/mcp-go/server"
	"github.com/google/uuid"

	"github.com/yangjiwoo8465/proj-hint-system/internal/badge"
	"github.com/yangjiwoo8465/proj-hint-system/internal/domain"
	"github.com/yangjiwoo8465/proj-hint-system/internal/grading"
)

// Grader is the grading surface the tools call
type Grader interface {
	Submit(ctx context.Context, req grading.SubmitRequest) (*grading.Outcome, error)
	RequestHint(ctx context.Context, req grading.HintRequest) (*grading.HintOutcome, error)
	Mastery(ctx context.Context, userID uuid.UUID, problemID string) (*domain.MasteryState, error)
}

// BadgeLister lists a user's earned badges
type BadgeLister interface {
	Earned(ctx context.Context, userID uuid.UUID) ([]badge.Earned, error)
}

// Server wraps the MCP server with grading tools
type Server struct {
	mcpServer *server.Server
	grader    Grader
	badges    BadgeLister
}

// Config contains configuration for the MCP server
type Config struct {
	Grader  Grader
	Badges  BadgeLister
	Version string
}

// NewServer creates a new MCP server for the hint system
func NewServer(cfg Config) *Server {
	s := &Server{
		grader: cfg.Grader,
		badges: cfg.Badges,
	}

	version := cfg.Version
	if version == "" {
		version = "dev"
	}

	s.mcpServer = server.New(server.Info{
		Name:    "hintsys",
		Version: version,
	}, server.WithInstructions(`
hintsys grades Python solutions against hidden tests and picks a tutoring strategy.

Available tools:
- hintsys_grade: Grade a submission (tests, 12 metrics, score, stars, hint branch)
- hintsys_hint: Select the hint branch for the current code without changing mastery
- hintsys_mastery: Show stars, best score and status for a problem
- hintsys_badges: List earned badges

Hint branches:
- A: syntax error
- B/C: completion (failing / passing)
- D/E1/E2: optimization (failing / next star reached / not yet)
- F: already optimal
`))

	s.registerTools()

	return s
}

// registerTools registers all MCP tools
func (s *Server) registerTools() {
	s.mcpServer.Tool("hintsys_grade").
		Description("Grade a submission against the problem's hidden tests and update mastery.").
		Handler(s.handleGrade)

	s.mcpServer.Tool("hintsys_hint").
		Description("Select the hint branch for the current code. Does not change mastery.").
		Handler(s.handleHint)

	s.mcpServer.Tool("hintsys_mastery").
		Description("Get the mastery state for a user and problem.").
		Handler(s.handleMastery)

	s.mcpServer.Tool("hintsys_badges").
		Description("List the badges a user has earned.").
		Handler(s.handleBadges)
}

// Input/Output types for tools

type GradeInput struct {
	UserID    string `json:"user_id" jsonschema:"description=User UUID"`
	ProblemID string `json:"problem_id" jsonschema:"description=Problem identifier"`
	Code      string `json:"code" jsonschema:"description=Python source code"`
	Purpose   string `json:"purpose,omitempty" jsonschema:"description=Hint purpose (derived from stars when empty),enum=completion,enum=optimization,enum=optimal"`
}

type GradeOutput struct {
	AllPassed   bool           `json:"all_passed"`
	PassedCount int            `json:"passed_count"`
	TotalCount  int            `json:"total_count"`
	TotalScore  float64        `json:"total_score"`
	StarCount   int            `json:"star_count"`
	Status      string         `json:"status"`
	HintBranch  string         `json:"hint_branch"`
	Metrics     domain.Metrics `json:"metrics"`
	NewBadges   []string       `json:"new_badges,omitempty"`
	Summary     string         `json:"summary"`
}

type HintOutput struct {
	HintBranch  string `json:"hint_branch"`
	Purpose     string `json:"purpose"`
	Strategy    string `json:"strategy"`
	PriorHints  int    `json:"prior_hints"`
	TestsPassed string `json:"tests_passed"`
}

type MasteryInput struct {
	UserID    string `json:"user_id" jsonschema:"description=User UUID"`
	ProblemID string `json:"problem_id" jsonschema:"description=Problem identifier"`
}

type MasteryOutput struct {
	ProblemID string  `json:"problem_id"`
	StarCount int     `json:"star_count"`
	BestScore float64 `json:"best_score"`
	Status    string  `json:"status"`
}

type BadgesInput struct {
	UserID string `json:"user_id" jsonschema:"description=User UUID"`
}

type BadgesOutput struct {
	Badges []badge.Earned `json:"badges"`
}

// Tool handlers

func (s *Server) handleGrade(ctx context.Context, input GradeInput) (GradeOutput, error) {
	userID, err := parseUserID(input.UserID)
	if err != nil {
		return GradeOutput{}, err
	}

	out, err := s.grader.Submit(ctx, grading.SubmitRequest{
		UserID:    userID,
		ProblemID: input.ProblemID,
		Code:      input.Code,
		Purpose:   domain.HintPurpose(input.Purpose),
	})
	if err != nil {
		return GradeOutput{}, fmt.Errorf("grading failed: %w", err)
	}

	return GradeOutput{
		AllPassed:   out.AllPassed,
		PassedCount: out.PassedCount,
		TotalCount:  out.TotalCount,
		TotalScore:  out.TotalScore,
		StarCount:   out.StarCount,
		Status:      string(out.Status),
		HintBranch:  string(out.HintBranch),
		Metrics:     out.Metrics,
		NewBadges:   out.NewBadges,
		Summary:     summarize(out),
	}, nil
}

func (s *Server) handleHint(ctx context.Context, input GradeInput) (HintOutput, error) {
	userID, err := parseUserID(input.UserID)
	if err != nil {
		return HintOutput{}, err
	}

	out, err := s.grader.RequestHint(ctx, grading.HintRequest{
		UserID:    userID,
		ProblemID: input.ProblemID,
		Code:      input.Code,
		Purpose:   domain.HintPurpose(input.Purpose),
	})
	if err != nil {
		return HintOutput{}, fmt.Errorf("hint selection failed: %w", err)
	}

	return HintOutput{
		HintBranch:  string(out.HintBranch),
		Purpose:     string(out.Purpose),
		Strategy:    out.Strategy,
		PriorHints:  out.PriorHints,
		TestsPassed: fmt.Sprintf("%d/%d", out.PassedCount, out.TotalCount),
	}, nil
}

func (s *Server) handleMastery(ctx context.Context, input MasteryInput) (MasteryOutput, error) {
	userID, err := parseUserID(input.UserID)
	if err != nil {
		return MasteryOutput{}, err
	}

	state, err := s.grader.Mastery(ctx, userID, input.ProblemID)
	if err != nil {
		return MasteryOutput{}, fmt.Errorf("failed to load mastery: %w", err)
	}

	return MasteryOutput{
		ProblemID: state.ProblemID,
		StarCount: state.StarCount,
		BestScore: state.BestScore,
		Status:    string(state.Status),
	}, nil
}

func (s *Server) handleBadges(ctx context.Context, input BadgesInput) (BadgesOutput, error) {
	userID, err := parseUserID(input.UserID)
	if err != nil {
		return BadgesOutput{}, err
	}
	if s.badges == nil {
		return BadgesOutput{Badges: []badge.Earned{}}, nil
	}

	earned, err := s.badges.Earned(ctx, userID)
	if err != nil {
		return BadgesOutput{}, fmt.Errorf("failed to list badges: %w", err)
	}
	return BadgesOutput{Badges: earned}, nil
}

func parseUserID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: user_id %q is not a UUID", domain.ErrInvalidInput, raw)
	}
	return id, nil
}

// summarize renders a one-line result, e.g. "Tests: 5/5 ✓ | Score: 91.50 | ★★★ | solved | Branch: F"
func summarize(out *grading.Outcome) string {
	tests := fmt.Sprintf("Tests: %d/%d", out.PassedCount, out.TotalCount)
	if out.AllPassed {
		tests += " ✓"
	} else {
		tests += " ✗"
	}

	parts := []string{
		tests,
		fmt.Sprintf("Score: %.2f", out.TotalScore),
		strings.Repeat("★", out.StarCount) + strings.Repeat("☆", domain.MaxStars-out.StarCount),
		string(out.Status),
		"Branch: " + string(out.HintBranch),
	}
	if len(out.NewBadges) > 0 {
		parts = append(parts, "New badges: "+strings.Join(out.NewBadges, ", "))
	}
	return strings.Join(parts, " | ")
}

// ServeStdio starts the MCP server on stdio
func (s *Server) ServeStdio(ctx context.Context) error {
	return mcp.ServeStdio(ctx, s.mcpServer)
}

// ServeHTTP starts the MCP server on HTTP (alternative transport)
func (s *Server) ServeHTTP(ctx context.Context, addr string) error {
	return mcp.ServeHTTP(ctx, s.mcpServer, addr)
}

// GetMCPServer returns the underlying MCP server (for testing)
func (s *Server) GetMCPServer() *server.Server {
	return s.mcpServer
}
