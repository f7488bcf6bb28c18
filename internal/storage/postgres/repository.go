package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yangjiwoo8465/proj-hint-system/internal/domain"
	"github.com/yangjiwoo8465/proj-hint-system/internal/storage"
)

// MasteryRepository implements storage.MasteryRepository using PostgreSQL
type MasteryRepository struct {
	pool *pgxpool.Pool
}

// NewMasteryRepository creates a new PostgreSQL mastery repository
func NewMasteryRepository(pool *pgxpool.Pool) *MasteryRepository {
	return &MasteryRepository{pool: pool}
}

// GetOrCreate inserts the initial state if absent and returns the stored row
func (r *MasteryRepository) GetOrCreate(ctx context.Context, userID uuid.UUID, problemID string) (*domain.MasteryState, error) {
	insert := `
		INSERT INTO mastery_states (user_id, problem_id, status)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, problem_id) DO NOTHING
	`
	if _, err := r.pool.Exec(ctx, insert, userID, problemID, domain.StatusNone); err != nil {
		return nil, fmt.Errorf("insert mastery state: %w", err)
	}

	query := `
		SELECT star_count, best_score, status, version, updated_at
		FROM mastery_states WHERE user_id = $1 AND problem_id = $2
	`
	m := &domain.MasteryState{UserID: userID, ProblemID: problemID}
	err := r.pool.QueryRow(ctx, query, userID, problemID).Scan(
		&m.StarCount, &m.BestScore, &m.Status, &m.Version, &m.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("get mastery state: %w", err)
	}
	return m, nil
}

// CompareAndSwap updates the row only if its version is unchanged
func (r *MasteryRepository) CompareAndSwap(ctx context.Context, next *domain.MasteryState) (bool, error) {
	query := `
		UPDATE mastery_states
		SET star_count = $1, best_score = $2, status = $3, version = version + 1, updated_at = NOW()
		WHERE user_id = $4 AND problem_id = $5 AND version = $6
		RETURNING version, updated_at
	`
	err := r.pool.QueryRow(ctx, query,
		next.StarCount, next.BestScore, next.Status, next.UserID, next.ProblemID, next.Version,
	).Scan(&next.Version, &next.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("update mastery state: %w", err)
	}
	return true, nil
}

// ListByUser returns every mastery state of a user
func (r *MasteryRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.MasteryState, error) {
	query := `
		SELECT problem_id, star_count, best_score, status, version, updated_at
		FROM mastery_states WHERE user_id = $1 ORDER BY problem_id
	`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list mastery states: %w", err)
	}
	defer rows.Close()

	var out []domain.MasteryState
	for rows.Next() {
		m := domain.MasteryState{UserID: userID}
		if err := rows.Scan(&m.ProblemID, &m.StarCount, &m.BestScore, &m.Status, &m.Version, &m.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// SnapshotRepository implements storage.SnapshotRepository using PostgreSQL
type SnapshotRepository struct {
	pool *pgxpool.Pool
}

// NewSnapshotRepository creates a new PostgreSQL snapshot repository
func NewSnapshotRepository(pool *pgxpool.Pool) *SnapshotRepository {
	return &SnapshotRepository{pool: pool}
}

const snapshotColumns = `id, user_id, problem_id, kind,
	syntax_errors, test_pass_rate, execution_time_ms, memory_kb, maintainability_index, style_violation_count,
	algorithm_efficiency, code_readability, edge_case_handling, code_conciseness, test_coverage_estimate, security_awareness,
	score, created_at`

// Append inserts a snapshot
func (r *SnapshotRepository) Append(ctx context.Context, snap *domain.MetricsSnapshot) error {
	if snap.ID == uuid.Nil {
		snap.ID = uuid.New()
	}
	if snap.CreatedAt.IsZero() {
		snap.CreatedAt = time.Now()
	}
	st, q := snap.Metrics.Static, snap.Metrics.Qualitative

	query := `INSERT INTO metrics_snapshots (` + snapshotColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`
	_, err := r.pool.Exec(ctx, query,
		snap.ID, snap.UserID, snap.ProblemID, snap.Kind,
		st.SyntaxErrors, st.TestPassRate, st.ExecutionTimeMs, st.MemoryKB, st.MaintainabilityIndex, st.StyleViolationCount,
		q.AlgorithmEfficiency, q.CodeReadability, q.EdgeCaseHandling, q.CodeConciseness, q.TestCoverageEstimate, q.SecurityAwareness,
		snap.Score, snap.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}
	return nil
}

// LatestPerProblem returns the newest snapshot of each problem
func (r *SnapshotRepository) LatestPerProblem(ctx context.Context, userID uuid.UUID) ([]domain.MetricsSnapshot, error) {
	query := `
		SELECT DISTINCT ON (problem_id) ` + snapshotColumns + `
		FROM metrics_snapshots WHERE user_id = $1
		ORDER BY problem_id, created_at DESC, seq DESC
	`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("query latest snapshots: %w", err)
	}
	defer rows.Close()

	var out []domain.MetricsSnapshot
	for rows.Next() {
		var snap domain.MetricsSnapshot
		st, q := &snap.Metrics.Static, &snap.Metrics.Qualitative
		err := rows.Scan(&snap.ID, &snap.UserID, &snap.ProblemID, &snap.Kind,
			&st.SyntaxErrors, &st.TestPassRate, &st.ExecutionTimeMs, &st.MemoryKB, &st.MaintainabilityIndex, &st.StyleViolationCount,
			&q.AlgorithmEfficiency, &q.CodeReadability, &q.EdgeCaseHandling, &q.CodeConciseness, &q.TestCoverageEstimate, &q.SecurityAwareness,
			&snap.Score, &snap.CreatedAt)
		if err != nil {
			return nil, err
		}
		out = append(out, snap)
	}
	return out, rows.Err()
}

// SubmissionRepository implements storage.SubmissionRepository using PostgreSQL
type SubmissionRepository struct {
	pool *pgxpool.Pool
}

// NewSubmissionRepository creates a new PostgreSQL submission repository
func NewSubmissionRepository(pool *pgxpool.Pool) *SubmissionRepository {
	return &SubmissionRepository{pool: pool}
}

// Record inserts a graded submission
func (r *SubmissionRepository) Record(ctx context.Context, sub *domain.SubmissionRecord) error {
	if sub.ID == uuid.Nil {
		sub.ID = uuid.New()
	}
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = time.Now()
	}
	query := `
		INSERT INTO submissions (id, user_id, problem_id, all_passed, passed, total, score, star_count, hint_branch, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := r.pool.Exec(ctx, query,
		sub.ID, sub.UserID, sub.ProblemID, sub.AllPassed, sub.Passed, sub.Total,
		sub.Score, sub.StarCount, sub.HintBranch, sub.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert submission: %w", err)
	}
	return nil
}

// ListByUser returns a user's submissions oldest first
func (r *SubmissionRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.SubmissionRecord, error) {
	query := `
		SELECT id, problem_id, all_passed, passed, total, score, star_count, hint_branch, created_at
		FROM submissions WHERE user_id = $1 ORDER BY created_at, seq
	`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	defer rows.Close()

	var out []domain.SubmissionRecord
	for rows.Next() {
		sub := domain.SubmissionRecord{UserID: userID}
		err := rows.Scan(&sub.ID, &sub.ProblemID, &sub.AllPassed, &sub.Passed, &sub.Total,
			&sub.Score, &sub.StarCount, &sub.HintBranch, &sub.CreatedAt)
		if err != nil {
			return nil, err
		}
		out = append(out, sub)
	}
	return out, rows.Err()
}

// BadgeRepository implements storage.BadgeRepository using PostgreSQL
type BadgeRepository struct {
	pool *pgxpool.Pool
}

// NewBadgeRepository creates a new PostgreSQL badge repository
func NewBadgeRepository(pool *pgxpool.Pool) *BadgeRepository {
	return &BadgeRepository{pool: pool}
}

// GetOrCreate awards a badge at most once
func (r *BadgeRepository) GetOrCreate(ctx context.Context, userID uuid.UUID, badgeID string, at time.Time) (bool, error) {
	query := `
		INSERT INTO awarded_badges (user_id, badge_id, awarded_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, badge_id) DO NOTHING
	`
	tag, err := r.pool.Exec(ctx, query, userID, badgeID, at)
	if err != nil {
		return false, fmt.Errorf("insert badge: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// ListByUser returns a user's badges in award order
func (r *BadgeRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.AwardedBadge, error) {
	query := `
		SELECT badge_id, awarded_at FROM awarded_badges
		WHERE user_id = $1 ORDER BY awarded_at, badge_id
	`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list badges: %w", err)
	}
	defer rows.Close()

	var out []domain.AwardedBadge
	for rows.Next() {
		b := domain.AwardedBadge{UserID: userID}
		if err := rows.Scan(&b.BadgeID, &b.AwardedAt); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// HintRepository implements storage.HintRepository using PostgreSQL
type HintRepository struct {
	pool *pgxpool.Pool
}

// NewHintRepository creates a new PostgreSQL hint repository
func NewHintRepository(pool *pgxpool.Pool) *HintRepository {
	return &HintRepository{pool: pool}
}

// Append inserts a hint record
func (r *HintRepository) Append(ctx context.Context, h *domain.HintRecord) error {
	if h.ID == uuid.Nil {
		h.ID = uuid.New()
	}
	if h.CreatedAt.IsZero() {
		h.CreatedAt = time.Now()
	}
	query := `
		INSERT INTO hint_requests (id, user_id, problem_id, branch, snapshot_id, text, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	snapshot := uuid.NullUUID{UUID: h.SnapshotID, Valid: h.SnapshotID != uuid.Nil}
	_, err := r.pool.Exec(ctx, query, h.ID, h.UserID, h.ProblemID, h.Branch, snapshot, h.Text, h.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert hint: %w", err)
	}
	return nil
}

// ListByUserProblem returns the hint chain of one problem, oldest first
func (r *HintRepository) ListByUserProblem(ctx context.Context, userID uuid.UUID, problemID string) ([]domain.HintRecord, error) {
	return r.list(ctx, `WHERE user_id = $1 AND problem_id = $2`, userID, problemID)
}

// ListByUser returns every hint given to a user, oldest first
func (r *HintRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.HintRecord, error) {
	return r.list(ctx, `WHERE user_id = $1`, userID)
}

func (r *HintRepository) list(ctx context.Context, where string, args ...any) ([]domain.HintRecord, error) {
	query := `
		SELECT id, user_id, problem_id, branch, snapshot_id, text, created_at
		FROM hint_requests ` + where + ` ORDER BY created_at, seq`
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list hints: %w", err)
	}
	defer rows.Close()

	var out []domain.HintRecord
	for rows.Next() {
		var h domain.HintRecord
		var snapshot uuid.NullUUID
		if err := rows.Scan(&h.ID, &h.UserID, &h.ProblemID, &h.Branch, &snapshot, &h.Text, &h.CreatedAt); err != nil {
			return nil, err
		}
		h.SnapshotID = snapshot.UUID
		out = append(out, h)
	}
	return out, rows.Err()
}

var (
	_ storage.MasteryRepository    = (*MasteryRepository)(nil)
	_ storage.SnapshotRepository   = (*SnapshotRepository)(nil)
	_ storage.SubmissionRepository = (*SubmissionRepository)(nil)
	_ storage.BadgeRepository      = (*BadgeRepository)(nil)
	_ storage.HintRepository       = (*HintRepository)(nil)
)
