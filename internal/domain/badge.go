package domain

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// ConditionKind is the shape of a badge rule
type ConditionKind string

const (
	ConditionCount           ConditionKind = "count"
	ConditionStreak          ConditionKind = "streak"
	ConditionMetricThreshold ConditionKind = "metric_threshold"
	ConditionSpecial         ConditionKind = "special"
)

// BadgeRule is a declarative achievement rule. The set of implementations is closed:
// CountRule, StreakRule, MetricThresholdRule and SpecialRule.
type BadgeRule interface {
	BadgeID() string
	Description() string
	Kind() ConditionKind
	badgeRule()
}

// CountSubject is what a CountRule counts
type CountSubject string

const (
	CountSolvedProblems    CountSubject = "solved_problems"
	CountThreeStarProblems CountSubject = "three_star_problems"
	CountSubmissions       CountSubject = "submissions"
	CountHintRequests      CountSubject = "hint_requests"
)

// CountRule is earned once a counted quantity reaches Target
type CountRule struct {
	ID      string
	Desc    string
	Subject CountSubject
	Target  int
}

// StreakRule is earned after submitting on Days consecutive days
type StreakRule struct {
	ID   string
	Desc string
	Days int
}

// ThresholdOp compares a metric average with a target
type ThresholdOp string

const (
	AtLeast ThresholdOp = ">="
	AtMost  ThresholdOp = "<="
)

// MetricThresholdRule is earned when the average of a metric over the latest snapshot of
// each attempted problem crosses Target. MinProblems guards against a single lucky attempt.
type MetricThresholdRule struct {
	ID          string
	Desc        string
	Metric      MetricName
	Op          ThresholdOp
	Target      float64
	MinProblems int
}

// SpecialKind names a one-off achievement
type SpecialKind string

const (
	SpecialPerfectScore  SpecialKind = "perfect_score"
	SpecialFirstTry      SpecialKind = "first_try"
	SpecialHintFreeSolve SpecialKind = "hint_free_solve"
)

// SpecialRule is earned by a specific event in the history
type SpecialRule struct {
	ID      string
	Desc    string
	Special SpecialKind
}

func (r CountRule) BadgeID() string     { return r.ID }
func (r CountRule) Description() string { return r.Desc }
func (r CountRule) Kind() ConditionKind { return ConditionCount }
func (CountRule) badgeRule()            {}

func (r StreakRule) BadgeID() string     { return r.ID }
func (r StreakRule) Description() string { return r.Desc }
func (r StreakRule) Kind() ConditionKind { return ConditionStreak }
func (StreakRule) badgeRule()            {}

func (r MetricThresholdRule) BadgeID() string     { return r.ID }
func (r MetricThresholdRule) Description() string { return r.Desc }
func (r MetricThresholdRule) Kind() ConditionKind { return ConditionMetricThreshold }
func (MetricThresholdRule) badgeRule()            {}

func (r SpecialRule) BadgeID() string     { return r.ID }
func (r SpecialRule) Description() string { return r.Desc }
func (r SpecialRule) Kind() ConditionKind { return ConditionSpecial }
func (SpecialRule) badgeRule()            {}

// DefaultBadgeRules returns the static badge table
func DefaultBadgeRules() []BadgeRule {
	return []BadgeRule{
		CountRule{ID: "first_solve", Desc: "Pass every hidden test of a problem", Subject: CountSolvedProblems, Target: 1},
		CountRule{ID: "solve_5", Desc: "Solve 5 different problems", Subject: CountSolvedProblems, Target: 5},
		CountRule{ID: "solve_10", Desc: "Solve 10 different problems", Subject: CountSolvedProblems, Target: 10},
		CountRule{ID: "solve_25", Desc: "Solve 25 different problems", Subject: CountSolvedProblems, Target: 25},
		CountRule{ID: "three_star_5", Desc: "Earn three stars on 5 problems", Subject: CountThreeStarProblems, Target: 5},
		CountRule{ID: "curious_mind", Desc: "Ask for 10 hints", Subject: CountHintRequests, Target: 10},
		StreakRule{ID: "streak_3", Desc: "Submit code 3 days in a row", Days: 3},
		StreakRule{ID: "streak_7", Desc: "Submit code 7 days in a row", Days: 7},
		MetricThresholdRule{ID: "clean_coder", Desc: "Average maintainability of 85 or more over 3 problems",
			Metric: MetricMaintainabilityIndex, Op: AtLeast, Target: 85, MinProblems: 3},
		MetricThresholdRule{ID: "fast_runner", Desc: "Average execution time of 100ms or less over 3 problems",
			Metric: MetricExecutionTimeMs, Op: AtMost, Target: 100, MinProblems: 3},
		MetricThresholdRule{ID: "style_keeper", Desc: "Average of at most one style violation over 3 problems",
			Metric: MetricStyleViolationCount, Op: AtMost, Target: 1, MinProblems: 3},
		MetricThresholdRule{ID: "secure_mind", Desc: "Average security awareness of 4 or more over 3 problems",
			Metric: MetricSecurityAwareness, Op: AtLeast, Target: 4, MinProblems: 3},
		SpecialRule{ID: "perfect_score", Desc: "Score 100 on a submission", Special: SpecialPerfectScore},
		SpecialRule{ID: "first_try", Desc: "Pass every test on the first submission", Special: SpecialFirstTry},
		SpecialRule{ID: "hint_free_solve", Desc: "Solve a problem without asking for a hint", Special: SpecialHintFreeSolve},
	}
}

// AwardedBadge records that a user earned a badge. It exists at most once per user and badge.
type AwardedBadge struct {
	UserID    uuid.UUID
	BadgeID   string
	AwardedAt time.Time
}

// SubmissionRecord is one graded submission in a user's history
type SubmissionRecord struct {
	ID         uuid.UUID
	UserID     uuid.UUID
	ProblemID  string
	AllPassed  bool
	Passed     int
	Total      int
	Score      float64
	StarCount  int
	HintBranch HintBranch
	CreatedAt  time.Time
}

// UserHistory is the raw material badge rules are evaluated against
type UserHistory struct {
	Submissions []SubmissionRecord
	Hints       []HintRecord
	// LatestSnapshots holds the most recent snapshot of every problem the user attempted.
	LatestSnapshots []MetricsSnapshot
	Mastery         []MasteryState
}

// BadgeStats are the aggregated quantities badge rules compare against
type BadgeStats struct {
	SolvedProblems    int
	ThreeStarProblems int
	Submissions       int
	HintRequests      int
	LongestStreakDays int
	SnapshotProblems  int
	MetricAverages    map[MetricName]float64
	PerfectScore      bool
	FirstTrySolve     bool
	HintFreeSolve     bool
}

// ComputeBadgeStats aggregates a user's history
func ComputeBadgeStats(h UserHistory) BadgeStats {
	stats := BadgeStats{
		Submissions:    len(h.Submissions),
		HintRequests:   len(h.Hints),
		MetricAverages: make(map[MetricName]float64),
	}

	subs := make([]SubmissionRecord, len(h.Submissions))
	copy(subs, h.Submissions)
	sort.SliceStable(subs, func(i, j int) bool { return subs[i].CreatedAt.Before(subs[j].CreatedAt) })

	firstHint := make(map[string]time.Time)
	for _, hint := range h.Hints {
		if t, ok := firstHint[hint.ProblemID]; !ok || hint.CreatedAt.Before(t) {
			firstHint[hint.ProblemID] = hint.CreatedAt
		}
	}

	solved := make(map[string]bool)
	attempted := make(map[string]bool)
	days := make([]time.Time, 0, len(subs))
	for _, s := range subs {
		firstAttempt := !attempted[s.ProblemID]
		attempted[s.ProblemID] = true
		days = append(days, s.CreatedAt)

		if s.Score >= 100 {
			stats.PerfectScore = true
		}
		if !s.AllPassed {
			continue
		}
		if firstAttempt {
			stats.FirstTrySolve = true
		}
		if !solved[s.ProblemID] {
			solved[s.ProblemID] = true
			if t, ok := firstHint[s.ProblemID]; !ok || t.After(s.CreatedAt) {
				stats.HintFreeSolve = true
			}
		}
	}
	stats.SolvedProblems = len(solved)
	stats.LongestStreakDays = LongestDailyStreak(days)

	for _, m := range h.Mastery {
		if m.StarCount >= MaxStars {
			stats.ThreeStarProblems++
		}
	}

	stats.SnapshotProblems = len(h.LatestSnapshots)
	if n := len(h.LatestSnapshots); n > 0 {
		for _, name := range metricNames {
			sum := 0.0
			for _, snap := range h.LatestSnapshots {
				v, _ := snap.Metrics.Value(name)
				sum += v
			}
			stats.MetricAverages[name] = sum / float64(n)
		}
	}

	return stats
}

var metricNames = []MetricName{
	MetricSyntaxErrors, MetricTestPassRate, MetricExecutionTimeMs, MetricMemoryKB,
	MetricMaintainabilityIndex, MetricStyleViolationCount, MetricAlgorithmEfficiency,
	MetricCodeReadability, MetricEdgeCaseHandling, MetricCodeConciseness,
	MetricTestCoverageEstimate, MetricSecurityAwareness,
}

// LongestDailyStreak returns the longest run of consecutive UTC calendar days with activity
func LongestDailyStreak(times []time.Time) int {
	if len(times) == 0 {
		return 0
	}

	seen := make(map[time.Time]bool)
	dates := make([]time.Time, 0, len(times))
	for _, t := range times {
		u := t.UTC()
		d := time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
		if !seen[d] {
			seen[d] = true
			dates = append(dates, d)
		}
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	longest, current := 1, 1
	for i := 1; i < len(dates); i++ {
		if dates[i].Sub(dates[i-1]) == 24*time.Hour {
			current++
		} else {
			current = 1
		}
		if current > longest {
			longest = current
		}
	}
	return longest
}

// Satisfies evaluates a single rule against the aggregated stats
func (s BadgeStats) Satisfies(rule BadgeRule) bool {
	switch r := rule.(type) {
	case CountRule:
		return s.count(r.Subject) >= r.Target
	case StreakRule:
		return s.LongestStreakDays >= r.Days
	case MetricThresholdRule:
		if s.SnapshotProblems == 0 || s.SnapshotProblems < r.MinProblems {
			return false
		}
		avg, ok := s.MetricAverages[r.Metric]
		if !ok {
			return false
		}
		switch r.Op {
		case AtLeast:
			return avg >= r.Target
		case AtMost:
			return avg <= r.Target
		}
		return false
	case SpecialRule:
		switch r.Special {
		case SpecialPerfectScore:
			return s.PerfectScore
		case SpecialFirstTry:
			return s.FirstTrySolve
		case SpecialHintFreeSolve:
			return s.HintFreeSolve
		}
		return false
	}
	return false
}

func (s BadgeStats) count(subject CountSubject) int {
	switch subject {
	case CountSolvedProblems:
		return s.SolvedProblems
	case CountThreeStarProblems:
		return s.ThreeStarProblems
	case CountSubmissions:
		return s.Submissions
	case CountHintRequests:
		return s.HintRequests
	}
	return 0
}
