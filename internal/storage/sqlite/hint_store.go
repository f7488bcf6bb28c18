package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/yangjiwoo8465/proj-hint-system/internal/domain"
)

// HintStore implements storage.HintRepository backed by SQLite.
type HintStore struct {
	db *DB
}

// NewHintStore creates a new SQLite-backed hint store.
func NewHintStore(db *DB) *HintStore {
	return &HintStore{db: db}
}

func (s *HintStore) Append(ctx context.Context, h *domain.HintRecord) error {
	if h.ID == uuid.Nil {
		h.ID = uuid.New()
	}
	if h.CreatedAt.IsZero() {
		h.CreatedAt = time.Now()
	}
	snapshot := uuid.NullUUID{UUID: h.SnapshotID, Valid: h.SnapshotID != uuid.Nil}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO hint_requests (id, user_id, problem_id, branch, snapshot_id, text, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		h.ID, h.UserID, h.ProblemID, h.Branch, snapshot, h.Text, h.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert hint: %w", err)
	}
	return nil
}

func (s *HintStore) ListByUserProblem(ctx context.Context, userID uuid.UUID, problemID string) ([]domain.HintRecord, error) {
	return s.list(ctx, `WHERE user_id = ? AND problem_id = ?`, userID, problemID)
}

func (s *HintStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.HintRecord, error) {
	return s.list(ctx, `WHERE user_id = ?`, userID)
}

func (s *HintStore) list(ctx context.Context, where string, args ...any) ([]domain.HintRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, problem_id, branch, snapshot_id, text, created_at
		FROM hint_requests `+where+` ORDER BY created_at, rowid`, args...)
	if err != nil {
		return nil, fmt.Errorf("list hints: %w", err)
	}
	defer rows.Close()

	var out []domain.HintRecord
	for rows.Next() {
		var h domain.HintRecord
		var snapshot uuid.NullUUID
		if err := rows.Scan(&h.ID, &h.UserID, &h.ProblemID, &h.Branch, &snapshot, &h.Text, &h.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan hint: %w", err)
		}
		h.SnapshotID = snapshot.UUID
		out = append(out, h)
	}
	return out, rows.Err()
}
