package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/yangjiwoo8465/proj-hint-system/internal/domain"
)

// MasteryStore implements storage.MasteryRepository backed by SQLite.
type MasteryStore struct {
	db *DB
}

// NewMasteryStore creates a new SQLite-backed mastery store.
func NewMasteryStore(db *DB) *MasteryStore {
	return &MasteryStore{db: db}
}

func (s *MasteryStore) GetOrCreate(ctx context.Context, userID uuid.UUID, problemID string) (*domain.MasteryState, error) {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO mastery_states (user_id, problem_id, star_count, best_score, status, version, updated_at)
		VALUES (?, ?, 0, 0, ?, 0, ?)`,
		userID, problemID, domain.StatusNone, time.Now().UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("insert mastery state: %w", err)
	}

	m := domain.MasteryState{UserID: userID, ProblemID: problemID}
	err = s.db.QueryRowContext(ctx, `
		SELECT star_count, best_score, status, version, updated_at
		FROM mastery_states WHERE user_id = ? AND problem_id = ?`,
		userID, problemID,
	).Scan(&m.StarCount, &m.BestScore, &m.Status, &m.Version, &m.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("get mastery state: %w", err)
	}
	return &m, nil
}

func (s *MasteryStore) CompareAndSwap(ctx context.Context, next *domain.MasteryState) (bool, error) {
	now := time.Now().UTC()
	result, err := s.db.ExecContext(ctx, `
		UPDATE mastery_states
		SET star_count = ?, best_score = ?, status = ?, version = version + 1, updated_at = ?
		WHERE user_id = ? AND problem_id = ? AND version = ?`,
		next.StarCount, next.BestScore, next.Status, now,
		next.UserID, next.ProblemID, next.Version,
	)
	if err != nil {
		return false, fmt.Errorf("update mastery state: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update mastery state: %w", err)
	}
	if n == 0 {
		return false, nil
	}
	next.Version++
	next.UpdatedAt = now
	return true, nil
}

func (s *MasteryStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.MasteryState, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT problem_id, star_count, best_score, status, version, updated_at
		FROM mastery_states WHERE user_id = ? ORDER BY problem_id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list mastery states: %w", err)
	}
	defer rows.Close()

	var out []domain.MasteryState
	for rows.Next() {
		m := domain.MasteryState{UserID: userID}
		if err := rows.Scan(&m.ProblemID, &m.StarCount, &m.BestScore, &m.Status, &m.Version, &m.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan mastery state: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
