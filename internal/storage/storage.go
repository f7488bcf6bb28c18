// Package storage declares the persistence contracts of the grading core.
// Implementations live in the sqlite, postgres and memory subpackages.
package storage

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/yangjiwoo8465/proj-hint-system/internal/domain"
)

// MasteryRepository persists one mastery state per user and problem
type MasteryRepository interface {
	// GetOrCreate returns the stored state, creating the initial one if absent
	GetOrCreate(ctx context.Context, userID uuid.UUID, problemID string) (*domain.MasteryState, error)
	// CompareAndSwap stores next only if the stored version still equals next.Version.
	// On success next.Version is incremented; false means another writer won.
	CompareAndSwap(ctx context.Context, next *domain.MasteryState) (bool, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.MasteryState, error)
}

// SnapshotRepository stores metric snapshots
type SnapshotRepository interface {
	Append(ctx context.Context, s *domain.MetricsSnapshot) error
	// LatestPerProblem returns the newest snapshot of every problem the user has one for
	LatestPerProblem(ctx context.Context, userID uuid.UUID) ([]domain.MetricsSnapshot, error)
}

// SubmissionRepository stores graded submissions
type SubmissionRepository interface {
	Record(ctx context.Context, s *domain.SubmissionRecord) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.SubmissionRecord, error)
}

// BadgeRepository stores awarded badges
type BadgeRepository interface {
	// GetOrCreate awards badgeID once; created is false if it was already held
	GetOrCreate(ctx context.Context, userID uuid.UUID, badgeID string, at time.Time) (created bool, err error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.AwardedBadge, error)
}

// HintRepository stores the chain of hints given to a user
type HintRepository interface {
	Append(ctx context.Context, h *domain.HintRecord) error
	ListByUserProblem(ctx context.Context, userID uuid.UUID, problemID string) ([]domain.HintRecord, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.HintRecord, error)
}

// Store bundles every repository
type Store struct {
	Mastery     MasteryRepository
	Snapshots   SnapshotRepository
	Submissions SubmissionRepository
	Badges      BadgeRepository
	Hints       HintRepository
}
