package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/yangjiwoo8465/proj-hint-system/internal/domain"
)

// SubmissionStore implements storage.SubmissionRepository backed by SQLite.
type SubmissionStore struct {
	db *DB
}

// NewSubmissionStore creates a new SQLite-backed submission store.
func NewSubmissionStore(db *DB) *SubmissionStore {
	return &SubmissionStore{db: db}
}

func (s *SubmissionStore) Record(ctx context.Context, sub *domain.SubmissionRecord) error {
	if sub.ID == uuid.Nil {
		sub.ID = uuid.New()
	}
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO submissions (id, user_id, problem_id, all_passed, passed, total, score, star_count, hint_branch, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sub.ID, sub.UserID, sub.ProblemID, sub.AllPassed, sub.Passed, sub.Total,
		sub.Score, sub.StarCount, sub.HintBranch, sub.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert submission: %w", err)
	}
	return nil
}

func (s *SubmissionStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.SubmissionRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, problem_id, all_passed, passed, total, score, star_count, hint_branch, created_at
		FROM submissions WHERE user_id = ? ORDER BY created_at, rowid`, userID)
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
			return nil, fmt.Errorf("scan submission: %w", err)
		}
		out = append(out, sub)
	}
	return out, rows.Err()
}
