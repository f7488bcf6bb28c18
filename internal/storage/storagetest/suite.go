// Package storagetest holds the behaviour every storage implementation must share.
package storagetest

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yangjiwoo8465/proj-hint-system/internal/domain"
	"github.com/yangjiwoo8465/proj-hint-system/internal/storage"
)

// Run exercises every repository of the store returned by newStore.
// newStore is called once per subtest and must return an empty store.
func Run(t *testing.T, newStore func(t *testing.T) storage.Store) {
	t.Run("MasteryGetOrCreate", func(t *testing.T) { testMasteryGetOrCreate(t, newStore(t)) })
	t.Run("MasteryCompareAndSwap", func(t *testing.T) { testMasteryCAS(t, newStore(t)) })
	t.Run("MasteryConcurrentCAS", func(t *testing.T) { testMasteryConcurrentCAS(t, newStore(t)) })
	t.Run("SnapshotsLatestPerProblem", func(t *testing.T) { testSnapshots(t, newStore(t)) })
	t.Run("Submissions", func(t *testing.T) { testSubmissions(t, newStore(t)) })
	t.Run("BadgesGetOrCreate", func(t *testing.T) { testBadges(t, newStore(t)) })
	t.Run("Hints", func(t *testing.T) { testHints(t, newStore(t)) })
}

func testMasteryGetOrCreate(t *testing.T, s storage.Store) {
	ctx := context.Background()
	user := uuid.New()

	m, err := s.Mastery.GetOrCreate(ctx, user, "sum")
	if err != nil {
		t.Fatalf("GetOrCreate() error = %v", err)
	}
	if m.Status != domain.StatusNone || m.StarCount != 0 || m.BestScore != 0 {
		t.Errorf("initial state = %+v; want none/0/0", m)
	}

	again, err := s.Mastery.GetOrCreate(ctx, user, "sum")
	if err != nil {
		t.Fatalf("GetOrCreate() second call error = %v", err)
	}
	if again.Version != m.Version {
		t.Errorf("Version = %d; want %d", again.Version, m.Version)
	}

	list, err := s.Mastery.ListByUser(ctx, user)
	if err != nil {
		t.Fatalf("ListByUser() error = %v", err)
	}
	if len(list) != 1 {
		t.Errorf("len(ListByUser) = %d; want 1", len(list))
	}
}

func testMasteryCAS(t *testing.T, s storage.Store) {
	ctx := context.Background()
	user := uuid.New()

	m, err := s.Mastery.GetOrCreate(ctx, user, "sum")
	if err != nil {
		t.Fatalf("GetOrCreate() error = %v", err)
	}
	stale := *m

	next, _ := m.Apply(domain.SubmissionOutcome{AllPassed: true, Score: 90, MaintainabilityIndex: 75})
	ok, err := s.Mastery.CompareAndSwap(ctx, &next)
	if err != nil || !ok {
		t.Fatalf("CompareAndSwap() = %v, %v; want true, nil", ok, err)
	}
	if next.Version != m.Version+1 {
		t.Errorf("Version = %d; want %d", next.Version, m.Version+1)
	}

	staleNext, _ := stale.Apply(domain.SubmissionOutcome{AllPassed: true, Score: 50, MaintainabilityIndex: 50})
	ok, err = s.Mastery.CompareAndSwap(ctx, &staleNext)
	if err != nil {
		t.Fatalf("CompareAndSwap() stale error = %v", err)
	}
	if ok {
		t.Error("CompareAndSwap() with stale version succeeded")
	}

	stored, err := s.Mastery.GetOrCreate(ctx, user, "sum")
	if err != nil {
		t.Fatalf("GetOrCreate() error = %v", err)
	}
	if stored.StarCount != 2 || stored.BestScore != 90 || stored.Status != domain.StatusSolved {
		t.Errorf("stored = %+v; want 2 stars, 90, solved", stored)
	}
}

func testMasteryConcurrentCAS(t *testing.T, s storage.Store) {
	ctx := context.Background()
	user := uuid.New()
	if _, err := s.Mastery.GetOrCreate(ctx, user, "sum"); err != nil {
		t.Fatalf("GetOrCreate() error = %v", err)
	}

	scores := []float64{40, 95, 60, 80, 70, 88}
	var wg sync.WaitGroup
	for _, score := range scores {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for attempt := 0; attempt < 50; attempt++ {
				cur, err := s.Mastery.GetOrCreate(ctx, user, "sum")
				if err != nil {
					t.Errorf("GetOrCreate() error = %v", err)
					return
				}
				next, changed := cur.Apply(domain.SubmissionOutcome{AllPassed: true, Score: score, MaintainabilityIndex: score})
				if !changed {
					return
				}
				ok, err := s.Mastery.CompareAndSwap(ctx, &next)
				if err != nil {
					t.Errorf("CompareAndSwap() error = %v", err)
					return
				}
				if ok {
					return
				}
			}
			t.Errorf("score %v never written", score)
		}()
	}
	wg.Wait()

	final, err := s.Mastery.GetOrCreate(ctx, user, "sum")
	if err != nil {
		t.Fatalf("GetOrCreate() error = %v", err)
	}
	if final.BestScore != 95 || final.StarCount != 3 || final.Status != domain.StatusSolved {
		t.Errorf("final = %+v; want best 95, 3 stars, solved", final)
	}
}

func testSnapshots(t *testing.T, s storage.Store) {
	ctx := context.Background()
	user, other := uuid.New(), uuid.New()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	add := func(u uuid.UUID, problem string, mi float64, at time.Time) {
		t.Helper()
		snap := &domain.MetricsSnapshot{
			UserID:    u,
			ProblemID: problem,
			Kind:      domain.SnapshotSubmission,
			Metrics: domain.Metrics{
				Static:      domain.StaticMetrics{MaintainabilityIndex: mi, TestPassRate: 100},
				Qualitative: domain.DefaultQualitativeMetrics(),
			},
			Score:     mi / 2,
			CreatedAt: at,
		}
		if err := s.Snapshots.Append(ctx, snap); err != nil {
			t.Fatalf("Append() error = %v", err)
		}
		if snap.ID == uuid.Nil {
			t.Error("Append() left ID unset")
		}
	}

	add(user, "a", 50, base)
	add(user, "a", 80, base.Add(time.Hour))
	add(user, "b", 60, base.Add(time.Minute))
	add(other, "a", 99, base.Add(2*time.Hour))

	latest, err := s.Snapshots.LatestPerProblem(ctx, user)
	if err != nil {
		t.Fatalf("LatestPerProblem() error = %v", err)
	}
	if len(latest) != 2 {
		t.Fatalf("len(LatestPerProblem) = %d; want 2", len(latest))
	}
	byProblem := map[string]domain.MetricsSnapshot{}
	for _, snap := range latest {
		byProblem[snap.ProblemID] = snap
	}
	if got := byProblem["a"].Metrics.Static.MaintainabilityIndex; got != 80 {
		t.Errorf("latest a MI = %v; want 80", got)
	}
	if got := byProblem["b"].Metrics.Qualitative; got != domain.DefaultQualitativeMetrics() {
		t.Errorf("latest b qualitative = %+v; want defaults round-tripped", got)
	}
}

func testSubmissions(t *testing.T, s storage.Store) {
	ctx := context.Background()
	user := uuid.New()

	for i, passed := range []bool{false, true} {
		rec := &domain.SubmissionRecord{
			UserID:     user,
			ProblemID:  "sum",
			AllPassed:  passed,
			Passed:     i + 1,
			Total:      2,
			Score:      float64(40 + i*40),
			StarCount:  i,
			HintBranch: domain.BranchC,
			CreatedAt:  time.Date(2026, 3, 1+i, 9, 0, 0, 0, time.UTC),
		}
		if err := s.Submissions.Record(ctx, rec); err != nil {
			t.Fatalf("Record() error = %v", err)
		}
	}

	list, err := s.Submissions.ListByUser(ctx, user)
	if err != nil {
		t.Fatalf("ListByUser() error = %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("len(ListByUser) = %d; want 2", len(list))
	}
	if !list[1].AllPassed || list[1].Score != 80 || list[1].HintBranch != domain.BranchC {
		t.Errorf("second submission = %+v", list[1])
	}
	if !list[0].CreatedAt.Before(list[1].CreatedAt) {
		t.Error("submissions not in chronological order")
	}
}

func testBadges(t *testing.T, s storage.Store) {
	ctx := context.Background()
	user := uuid.New()
	now := time.Now().UTC().Truncate(time.Second)

	created, err := s.Badges.GetOrCreate(ctx, user, "first_solve", now)
	if err != nil || !created {
		t.Fatalf("GetOrCreate() = %v, %v; want true, nil", created, err)
	}
	created, err = s.Badges.GetOrCreate(ctx, user, "first_solve", now.Add(time.Hour))
	if err != nil || created {
		t.Fatalf("GetOrCreate() repeat = %v, %v; want false, nil", created, err)
	}

	list, err := s.Badges.ListByUser(ctx, user)
	if err != nil {
		t.Fatalf("ListByUser() error = %v", err)
	}
	if len(list) != 1 || list[0].BadgeID != "first_solve" {
		t.Errorf("ListByUser() = %+v; want one first_solve", list)
	}
	if !list[0].AwardedAt.Equal(now) {
		t.Errorf("AwardedAt = %v; want first award time %v", list[0].AwardedAt, now)
	}
}

func testHints(t *testing.T, s storage.Store) {
	ctx := context.Background()
	user := uuid.New()

	for i, problem := range []string{"sum", "sum", "max"} {
		h := &domain.HintRecord{
			UserID:    user,
			ProblemID: problem,
			Branch:    domain.AllBranches()[i],
			Text:      "look at the loop bound",
			CreatedAt: time.Date(2026, 3, 1, 10, i, 0, 0, time.UTC),
		}
		if err := s.Hints.Append(ctx, h); err != nil {
			t.Fatalf("Append() error = %v", err)
		}
	}

	sum, err := s.Hints.ListByUserProblem(ctx, user, "sum")
	if err != nil {
		t.Fatalf("ListByUserProblem() error = %v", err)
	}
	if len(sum) != 2 || sum[0].Branch != domain.AllBranches()[0] {
		t.Errorf("ListByUserProblem() = %+v", sum)
	}

	all, err := s.Hints.ListByUser(ctx, user)
	if err != nil {
		t.Fatalf("ListByUser() error = %v", err)
	}
	if len(all) != 3 {
		t.Errorf("len(ListByUser) = %d; want 3", len(all))
	}
}
