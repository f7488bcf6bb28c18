// Package memory is an in-process implementation of the storage repositories,
// used by tests and by one-shot CLI runs that need no database.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yangjiwoo8465/proj-hint-system/internal/domain"
	"github.com/yangjiwoo8465/proj-hint-system/internal/storage"
)

type masteryKey struct {
	user    uuid.UUID
	problem string
}

type badgeKey struct {
	user  uuid.UUID
	badge string
}

// Store keeps every repository in maps guarded by one mutex
type Store struct {
	mu          sync.RWMutex
	mastery     map[masteryKey]domain.MasteryState
	snapshots   []domain.MetricsSnapshot
	submissions []domain.SubmissionRecord
	badges      map[badgeKey]domain.AwardedBadge
	hints       []domain.HintRecord
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{
		mastery: make(map[masteryKey]domain.MasteryState),
		badges:  make(map[badgeKey]domain.AwardedBadge),
	}
}

// Repositories exposes the store through the storage contracts
func (s *Store) Repositories() storage.Store {
	return storage.Store{
		Mastery:     masteryRepo{s},
		Snapshots:   snapshotRepo{s},
		Submissions: submissionRepo{s},
		Badges:      badgeRepo{s},
		Hints:       hintRepo{s},
	}
}

type masteryRepo struct{ s *Store }

func (r masteryRepo) GetOrCreate(ctx context.Context, userID uuid.UUID, problemID string) (*domain.MasteryState, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	k := masteryKey{userID, problemID}
	if m, ok := r.s.mastery[k]; ok {
		return &m, nil
	}
	m := domain.NewMasteryState(userID, problemID)
	r.s.mastery[k] = *m
	return m, nil
}

func (r masteryRepo) CompareAndSwap(ctx context.Context, next *domain.MasteryState) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	k := masteryKey{next.UserID, next.ProblemID}
	cur, ok := r.s.mastery[k]
	if !ok || cur.Version != next.Version {
		return false, nil
	}
	next.Version++
	next.UpdatedAt = time.Now()
	r.s.mastery[k] = *next
	return true, nil
}

func (r masteryRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.MasteryState, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var out []domain.MasteryState
	for k, m := range r.s.mastery {
		if k.user == userID {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProblemID < out[j].ProblemID })
	return out, nil
}

type snapshotRepo struct{ s *Store }

func (r snapshotRepo) Append(ctx context.Context, snap *domain.MetricsSnapshot) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if snap.ID == uuid.Nil {
		snap.ID = uuid.New()
	}
	if snap.CreatedAt.IsZero() {
		snap.CreatedAt = time.Now()
	}
	r.s.snapshots = append(r.s.snapshots, *snap)
	return nil
}

func (r snapshotRepo) LatestPerProblem(ctx context.Context, userID uuid.UUID) ([]domain.MetricsSnapshot, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	// Later appends win ties on CreatedAt.
	latest := make(map[string]domain.MetricsSnapshot)
	for _, snap := range r.s.snapshots {
		if snap.UserID != userID {
			continue
		}
		if cur, ok := latest[snap.ProblemID]; !ok || !snap.CreatedAt.Before(cur.CreatedAt) {
			latest[snap.ProblemID] = snap
		}
	}

	out := make([]domain.MetricsSnapshot, 0, len(latest))
	for _, snap := range latest {
		out = append(out, snap)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProblemID < out[j].ProblemID })
	return out, nil
}

type submissionRepo struct{ s *Store }

func (r submissionRepo) Record(ctx context.Context, sub *domain.SubmissionRecord) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if sub.ID == uuid.Nil {
		sub.ID = uuid.New()
	}
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = time.Now()
	}
	r.s.submissions = append(r.s.submissions, *sub)
	return nil
}

func (r submissionRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.SubmissionRecord, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var out []domain.SubmissionRecord
	for _, sub := range r.s.submissions {
		if sub.UserID == userID {
			out = append(out, sub)
		}
	}
	return out, nil
}

type badgeRepo struct{ s *Store }

func (r badgeRepo) GetOrCreate(ctx context.Context, userID uuid.UUID, badgeID string, at time.Time) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	k := badgeKey{userID, badgeID}
	if _, ok := r.s.badges[k]; ok {
		return false, nil
	}
	r.s.badges[k] = domain.AwardedBadge{UserID: userID, BadgeID: badgeID, AwardedAt: at}
	return true, nil
}

func (r badgeRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.AwardedBadge, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var out []domain.AwardedBadge
	for k, b := range r.s.badges {
		if k.user == userID {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].AwardedAt.Equal(out[j].AwardedAt) {
			return out[i].AwardedAt.Before(out[j].AwardedAt)
		}
		return out[i].BadgeID < out[j].BadgeID
	})
	return out, nil
}

type hintRepo struct{ s *Store }

func (r hintRepo) Append(ctx context.Context, h *domain.HintRecord) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if h.ID == uuid.Nil {
		h.ID = uuid.New()
	}
	if h.CreatedAt.IsZero() {
		h.CreatedAt = time.Now()
	}
	r.s.hints = append(r.s.hints, *h)
	return nil
}

func (r hintRepo) ListByUserProblem(ctx context.Context, userID uuid.UUID, problemID string) ([]domain.HintRecord, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var out []domain.HintRecord
	for _, h := range r.s.hints {
		if h.UserID == userID && h.ProblemID == problemID {
			out = append(out, h)
		}
	}
	return out, nil
}

func (r hintRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.HintRecord, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var out []domain.HintRecord
	for _, h := range r.s.hints {
		if h.UserID == userID {
			out = append(out, h)
		}
	}
	return out, nil
}

var (
	_ storage.MasteryRepository    = masteryRepo{}
	_ storage.SnapshotRepository   = snapshotRepo{}
	_ storage.SubmissionRepository = submissionRepo{}
	_ storage.BadgeRepository      = badgeRepo{}
	_ storage.HintRepository       = hintRepo{}
)
