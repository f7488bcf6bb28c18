// Package grading runs a submission through the whole grading pipeline:
// hidden tests, static and qualitative metrics, scoring, mastery, hint
// branch selection, persistence and badges.
package grading

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/yangjiwoo8465/proj-hint-system/internal/catalog"
	"github.com/yangjiwoo8465/proj-hint-system/internal/domain"
	"github.com/yangjiwoo8465/proj-hint-system/internal/runner"
	"github.com/yangjiwoo8465/proj-hint-system/internal/storage"
)

// DefaultMasteryRetries bounds the compare-and-swap loop on the mastery row
const DefaultMasteryRetries = 5

// Executor runs code against test cases
type Executor interface {
	Execute(ctx context.Context, req runner.ExecuteRequest) (domain.HarnessReport, error)
}

// StaticAnalyzer derives the static metrics
type StaticAnalyzer interface {
	Analyze(ctx context.Context, code string, cases []domain.CaseResult) domain.StaticMetrics
}

// QualitativeEvaluator supplies the LLM-rated metrics. It never fails.
type QualitativeEvaluator interface {
	Evaluate(ctx context.Context, code, description string, static domain.StaticMetrics) domain.QualitativeMetrics
}

// BadgeEvaluator awards badges and returns the new ones
type BadgeEvaluator interface {
	Evaluate(ctx context.Context, userID uuid.UUID) ([]string, error)
}

// Service grades submissions and hint requests
type Service struct {
	catalog     catalog.Catalog
	executor    Executor
	analyzer    StaticAnalyzer
	qualitative QualitativeEvaluator
	store       storage.Store
	badges      BadgeEvaluator // Optional: nil disables badge awarding
	retries     int
	now         func() time.Time
}

// NewService creates a new grading service
func NewService(cat catalog.Catalog, executor Executor, analyzer StaticAnalyzer, qualitative QualitativeEvaluator, store storage.Store) *Service {
	return &Service{
		catalog:     cat,
		executor:    executor,
		analyzer:    analyzer,
		qualitative: qualitative,
		store:       store,
		retries:     DefaultMasteryRetries,
		now:         time.Now,
	}
}

// SetBadgeEngine enables badge evaluation after every graded request
func (s *Service) SetBadgeEngine(b BadgeEvaluator) {
	s.badges = b
}

// SetMasteryRetries overrides the compare-and-swap retry bound
func (s *Service) SetMasteryRetries(n int) {
	if n > 0 {
		s.retries = n
	}
}

// SubmitRequest is a graded submission
type SubmitRequest struct {
	SubmissionID uuid.UUID
	UserID       uuid.UUID
	ProblemID    string
	Code         string
	// Purpose steers the hint branch; empty derives it from the current stars
	Purpose domain.HintPurpose
}

// Outcome is what the grading core reports for one request
type Outcome struct {
	SubmissionID uuid.UUID            `json:"submission_id"`
	AllPassed    bool                 `json:"all_passed"`
	PassedCount  int                  `json:"passed_count"`
	TotalCount   int                  `json:"total_count"`
	TotalScore   float64              `json:"total_score"`
	StarCount    int                  `json:"star_count"`
	BestScore    float64              `json:"best_score"`
	Status       domain.MasteryStatus `json:"status"`
	HintBranch   domain.HintBranch    `json:"hint_branch"`
	Purpose      domain.HintPurpose   `json:"purpose"`
	Metrics      domain.Metrics       `json:"metrics"`
	NewBadges    []string             `json:"new_badges"`
	Cases        []domain.CaseResult  `json:"cases,omitempty"`
}

// evaluation is the mastery-independent part of grading
type evaluation struct {
	problem *domain.Problem
	report  domain.HarnessReport
	metrics domain.Metrics
	score   float64
}

func validate(userID uuid.UUID, problemID string, purpose domain.HintPurpose) error {
	if userID == uuid.Nil {
		return fmt.Errorf("%w: user id required", domain.ErrInvalidInput)
	}
	if problemID == "" {
		return fmt.Errorf("%w: problem id required", domain.ErrInvalidInput)
	}
	if purpose != "" && !purpose.IsValid() {
		return fmt.Errorf("%w: %q", domain.ErrInvalidPurpose, purpose)
	}
	return nil
}

func (s *Service) evaluate(ctx context.Context, submissionID, userID uuid.UUID, problemID, code string) (*evaluation, error) {
	problem, err := s.catalog.Get(ctx, problemID)
	if err != nil {
		return nil, err
	}

	report, err := s.executor.Execute(ctx, runner.ExecuteRequest{
		SubmissionID: submissionID,
		UserID:       userID,
		ProblemID:    problemID,
		Code:         code,
		Cases:        problem.HiddenTests,
	})
	if err != nil {
		return nil, err
	}

	static := s.analyzer.Analyze(ctx, code, report.Cases)
	qualitative := s.qualitative.Evaluate(ctx, code, problem.Description, static)

	return &evaluation{
		problem: problem,
		report:  report,
		metrics: domain.Metrics{Static: static, Qualitative: qualitative},
		score:   domain.Score(static, qualitative),
	}, nil
}

// Submit grades a submission, advances mastery and awards badges.
// Only an unknown problem, invalid input or a cancelled run is an error;
// storage failures are logged and the outcome is still returned.
func (s *Service) Submit(ctx context.Context, req SubmitRequest) (*Outcome, error) {
	start := time.Now()
	defer func() { gradingDuration.WithLabelValues("submit").Observe(time.Since(start).Seconds()) }()

	if err := validate(req.UserID, req.ProblemID, req.Purpose); err != nil {
		return nil, err
	}
	if req.SubmissionID == uuid.Nil {
		req.SubmissionID = uuid.New()
	}

	eval, err := s.evaluate(ctx, req.SubmissionID, req.UserID, req.ProblemID, req.Code)
	if err != nil {
		return nil, err
	}

	allPassed := eval.report.AllPassed()
	prev, next := s.advanceMastery(ctx, req.UserID, req.ProblemID, domain.SubmissionOutcome{
		AllPassed:            allPassed,
		Score:                eval.score,
		MaintainabilityIndex: eval.metrics.Static.MaintainabilityIndex,
	})

	purpose := req.Purpose
	if purpose == "" {
		purpose = domain.PurposeForStars(prev.StarCount)
	}
	branch := selectBranch(eval.metrics.Static, purpose, prev.StarCount)

	now := s.now()
	s.persist(ctx, "snapshot", func(ctx context.Context) error {
		return s.store.Snapshots.Append(ctx, &domain.MetricsSnapshot{
			UserID:    req.UserID,
			ProblemID: req.ProblemID,
			Kind:      domain.SnapshotSubmission,
			Metrics:   eval.metrics,
			Score:     eval.score,
			CreatedAt: now,
		})
	})
	s.persist(ctx, "submission", func(ctx context.Context) error {
		return s.store.Submissions.Record(ctx, &domain.SubmissionRecord{
			ID:         req.SubmissionID,
			UserID:     req.UserID,
			ProblemID:  req.ProblemID,
			AllPassed:  allPassed,
			Passed:     eval.report.Passed,
			Total:      eval.report.Total,
			Score:      eval.score,
			StarCount:  next.StarCount,
			HintBranch: branch,
			CreatedAt:  now,
		})
	})

	result := "failed"
	if allPassed {
		result = "passed"
	}
	gradedTotal.WithLabelValues("submit", result).Inc()

	slog.Info("submission graded",
		"submission_id", req.SubmissionID,
		"user_id", req.UserID,
		"problem_id", req.ProblemID,
		"passed", eval.report.Passed,
		"total", eval.report.Total,
		"score", eval.score,
		"stars", next.StarCount,
		"status", next.Status,
		"branch", branch)

	return &Outcome{
		SubmissionID: req.SubmissionID,
		AllPassed:    allPassed,
		PassedCount:  eval.report.Passed,
		TotalCount:   eval.report.Total,
		TotalScore:   eval.score,
		StarCount:    next.StarCount,
		BestScore:    next.BestScore,
		Status:       next.Status,
		HintBranch:   branch,
		Purpose:      purpose,
		Metrics:      eval.metrics,
		NewBadges:    s.awardBadges(ctx, req.UserID),
		Cases:        eval.report.Cases,
	}, nil
}

// HintRequest asks which hint strategy applies to the current code
type HintRequest struct {
	// RunID identifies the execution for cancellation; zero generates one
	RunID     uuid.UUID
	UserID    uuid.UUID
	ProblemID string
	Code      string
	// Purpose is derived from the current stars when empty
	Purpose domain.HintPurpose
}

// HintOutcome is the grading outcome of a hint request plus its chain position
type HintOutcome struct {
	Outcome
	HintID     uuid.UUID `json:"hint_id"`
	Strategy   string    `json:"strategy"`
	PriorHints int       `json:"prior_hints"`
}

// RequestHint grades the current code without touching mastery, selects the
// hint branch and appends the request to the user's chain of hints.
func (s *Service) RequestHint(ctx context.Context, req HintRequest) (*HintOutcome, error) {
	start := time.Now()
	defer func() { gradingDuration.WithLabelValues("hint").Observe(time.Since(start).Seconds()) }()

	if err := validate(req.UserID, req.ProblemID, req.Purpose); err != nil {
		return nil, err
	}

	if req.RunID == uuid.Nil {
		req.RunID = uuid.New()
	}
	eval, err := s.evaluate(ctx, req.RunID, req.UserID, req.ProblemID, req.Code)
	if err != nil {
		return nil, err
	}

	state, err := s.store.Mastery.GetOrCreate(ctx, req.UserID, req.ProblemID)
	if err != nil {
		s.logPersistence("mastery_read", err)
		state = domain.NewMasteryState(req.UserID, req.ProblemID)
	}

	purpose := req.Purpose
	if purpose == "" {
		purpose = domain.PurposeForStars(state.StarCount)
	}
	branch := selectBranch(eval.metrics.Static, purpose, state.StarCount)

	var prior int
	s.persist(ctx, "hint_history", func(ctx context.Context) error {
		chain, err := s.store.Hints.ListByUserProblem(ctx, req.UserID, req.ProblemID)
		prior = len(chain)
		return err
	})

	now := s.now()
	snap := &domain.MetricsSnapshot{
		ID:        uuid.New(),
		UserID:    req.UserID,
		ProblemID: req.ProblemID,
		Kind:      domain.SnapshotHint,
		Metrics:   eval.metrics,
		Score:     eval.score,
		CreatedAt: now,
	}
	if !s.persist(ctx, "snapshot", func(ctx context.Context) error { return s.store.Snapshots.Append(ctx, snap) }) {
		snap.ID = uuid.Nil
	}

	hint := &domain.HintRecord{
		ID:         uuid.New(),
		UserID:     req.UserID,
		ProblemID:  req.ProblemID,
		Branch:     branch,
		SnapshotID: snap.ID,
		Text:       branch.Strategy(),
		CreatedAt:  now,
	}
	s.persist(ctx, "hint", func(ctx context.Context) error { return s.store.Hints.Append(ctx, hint) })

	gradedTotal.WithLabelValues("hint", "selected").Inc()
	slog.Info("hint branch selected",
		"user_id", req.UserID,
		"problem_id", req.ProblemID,
		"purpose", purpose,
		"branch", branch,
		"prior_hints", prior)

	return &HintOutcome{
		Outcome: Outcome{
			AllPassed:   eval.report.AllPassed(),
			PassedCount: eval.report.Passed,
			TotalCount:  eval.report.Total,
			TotalScore:  eval.score,
			StarCount:   state.StarCount,
			BestScore:   state.BestScore,
			Status:      state.Status,
			HintBranch:  branch,
			Purpose:     purpose,
			Metrics:     eval.metrics,
			NewBadges:   s.awardBadges(ctx, req.UserID),
			Cases:       eval.report.Cases,
		},
		HintID:     hint.ID,
		Strategy:   branch.Strategy(),
		PriorHints: prior,
	}, nil
}

// Mastery returns the user's stored state for a problem
func (s *Service) Mastery(ctx context.Context, userID uuid.UUID, problemID string) (*domain.MasteryState, error) {
	if err := validate(userID, problemID, ""); err != nil {
		return nil, err
	}
	return s.store.Mastery.GetOrCreate(ctx, userID, problemID)
}

func selectBranch(static domain.StaticMetrics, purpose domain.HintPurpose, stars int) domain.HintBranch {
	branch := domain.SelectBranch(domain.BranchInput{
		SyntaxErrors:         static.SyntaxErrors,
		Purpose:              purpose,
		TestPassRate:         static.TestPassRate,
		StarCount:            stars,
		MaintainabilityIndex: static.MaintainabilityIndex,
	})
	branchTotal.WithLabelValues(string(branch)).Inc()
	return branch
}

// advanceMastery applies the outcome with compare-and-swap, re-reading and
// re-applying on conflict. It returns the state before and after. On storage
// failure the computed state is still returned so the caller gets a result.
func (s *Service) advanceMastery(ctx context.Context, userID uuid.UUID, problemID string, o domain.SubmissionOutcome) (prev, next domain.MasteryState) {
	for attempt := 0; attempt < s.retries; attempt++ {
		cur, err := s.store.Mastery.GetOrCreate(ctx, userID, problemID)
		if err != nil {
			s.logPersistence("mastery_read", err)
			fresh := domain.NewMasteryState(userID, problemID)
			next, _ = fresh.Apply(o)
			return *fresh, next
		}

		next, changed := cur.Apply(o)
		if !changed {
			return *cur, *cur
		}

		swapped, err := s.store.Mastery.CompareAndSwap(ctx, &next)
		if err != nil {
			s.logPersistence("mastery_write", err)
			return *cur, next
		}
		if swapped {
			return *cur, next
		}
		masteryConflicts.Inc()
		prev = *cur
	}

	s.logPersistence("mastery_write", fmt.Errorf("%w after %d attempts", domain.ErrVersionConflict, s.retries))
	next, _ = prev.Apply(o)
	return prev, next
}

func (s *Service) awardBadges(ctx context.Context, userID uuid.UUID) []string {
	if s.badges == nil {
		return nil
	}
	awarded, err := s.badges.Evaluate(ctx, userID)
	if err != nil {
		s.logPersistence("badges", err)
		return nil
	}
	for _, id := range awarded {
		badgesAwarded.WithLabelValues(id).Inc()
	}
	return awarded
}

// persist runs a storage write, logging and swallowing its error
func (s *Service) persist(ctx context.Context, operation string, fn func(context.Context) error) bool {
	if err := fn(ctx); err != nil {
		s.logPersistence(operation, err)
		return false
	}
	return true
}

func (s *Service) logPersistence(operation string, err error) {
	if errors.Is(err, context.Canceled) {
		slog.Debug("persistence skipped, request cancelled", "operation", operation)
		return
	}
	persistenceErrors.WithLabelValues(operation).Inc()
	slog.Warn("persistence failed", "operation", operation, "error", err)
}
