package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/yangjiwoo8465/proj-hint-system/internal/domain"
)

// SnapshotStore implements storage.SnapshotRepository backed by SQLite.
type SnapshotStore struct {
	db *DB
}

// NewSnapshotStore creates a new SQLite-backed snapshot store.
func NewSnapshotStore(db *DB) *SnapshotStore {
	return &SnapshotStore{db: db}
}

const snapshotColumns = `id, user_id, problem_id, kind,
	syntax_errors, test_pass_rate, execution_time_ms, memory_kb, maintainability_index, style_violation_count,
	algorithm_efficiency, code_readability, edge_case_handling, code_conciseness, test_coverage_estimate, security_awareness,
	score, created_at`

func (s *SnapshotStore) Append(ctx context.Context, snap *domain.MetricsSnapshot) error {
	if snap.ID == uuid.Nil {
		snap.ID = uuid.New()
	}
	if snap.CreatedAt.IsZero() {
		snap.CreatedAt = time.Now()
	}
	st, q := snap.Metrics.Static, snap.Metrics.Qualitative

	_, err := s.db.ExecContext(ctx, `INSERT INTO metrics_snapshots (`+snapshotColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		snap.ID, snap.UserID, snap.ProblemID, snap.Kind,
		st.SyntaxErrors, st.TestPassRate, st.ExecutionTimeMs, st.MemoryKB, st.MaintainabilityIndex, st.StyleViolationCount,
		q.AlgorithmEfficiency, q.CodeReadability, q.EdgeCaseHandling, q.CodeConciseness, q.TestCoverageEstimate, q.SecurityAwareness,
		snap.Score, snap.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}
	return nil
}

func (s *SnapshotStore) LatestPerProblem(ctx context.Context, userID uuid.UUID) ([]domain.MetricsSnapshot, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+snapshotColumns+` FROM metrics_snapshots s
		WHERE s.user_id = ? AND s.rowid = (
			SELECT l.rowid FROM metrics_snapshots l
			WHERE l.user_id = s.user_id AND l.problem_id = s.problem_id
			ORDER BY l.created_at DESC, l.rowid DESC LIMIT 1)
		ORDER BY s.problem_id`, userID)
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
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		out = append(out, snap)
	}
	return out, rows.Err()
}
