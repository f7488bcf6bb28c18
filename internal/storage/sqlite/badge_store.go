package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/yangjiwoo8465/proj-hint-system/internal/domain"
)

// BadgeStore implements storage.BadgeRepository backed by SQLite.
type BadgeStore struct {
	db *DB
}

// NewBadgeStore creates a new SQLite-backed badge store.
func NewBadgeStore(db *DB) *BadgeStore {
	return &BadgeStore{db: db}
}

func (s *BadgeStore) GetOrCreate(ctx context.Context, userID uuid.UUID, badgeID string, at time.Time) (bool, error) {
	result, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO awarded_badges (user_id, badge_id, awarded_at) VALUES (?, ?, ?)`,
		userID, badgeID, at.UTC(),
	)
	if err != nil {
		return false, fmt.Errorf("insert badge: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert badge: %w", err)
	}
	return n == 1, nil
}

func (s *BadgeStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.AwardedBadge, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT badge_id, awarded_at FROM awarded_badges
		WHERE user_id = ? ORDER BY awarded_at, badge_id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list badges: %w", err)
	}
	defer rows.Close()

	var out []domain.AwardedBadge
	for rows.Next() {
		b := domain.AwardedBadge{UserID: userID}
		if err := rows.Scan(&b.BadgeID, &b.AwardedAt); err != nil {
			return nil, fmt.Errorf("scan badge: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}
