package domain

import (
	"time"

	"github.com/google/uuid"
)

// MasteryStatus is the progress status of a user on a problem
type MasteryStatus string

const (
	StatusNone      MasteryStatus = "none"
	StatusUpgrading MasteryStatus = "upgrading"
	StatusSolved    MasteryStatus = "solved"
)

// SolvedScoreThreshold is the total score a fully passing submission needs to mark a problem solved
const SolvedScoreThreshold = 85.0

// MaxStars is the highest star rating
const MaxStars = 3

// IsValid checks if the status is known
func (s MasteryStatus) IsValid() bool {
	switch s {
	case StatusNone, StatusUpgrading, StatusSolved:
		return true
	default:
		return false
	}
}

// Advance applies a target status. Solved is absorbing; upgrading only moves to solved.
func (s MasteryStatus) Advance(target MasteryStatus) MasteryStatus {
	switch s {
	case StatusSolved:
		return StatusSolved
	case StatusUpgrading:
		if target == StatusSolved {
			return StatusSolved
		}
		return StatusUpgrading
	default:
		return target
	}
}

// MasteryState is the persisted per user x problem progress.
// StarCount and BestScore never decrease and Status never leaves solved.
type MasteryState struct {
	UserID    uuid.UUID
	ProblemID string
	StarCount int
	BestScore float64
	Status    MasteryStatus
	// Version increments on every successful write, used for compare-and-set.
	Version   int64
	UpdatedAt time.Time
}

// NewMasteryState returns the initial state for a user and problem
func NewMasteryState(userID uuid.UUID, problemID string) *MasteryState {
	return &MasteryState{
		UserID:    userID,
		ProblemID: problemID,
		Status:    StatusNone,
		UpdatedAt: time.Now(),
	}
}

// SubmissionOutcome is what the state machine needs to know about a graded submission
type SubmissionOutcome struct {
	AllPassed            bool
	Score                float64
	MaintainabilityIndex float64
}

// StarsForQuality maps a maintainability index to a star rating
func StarsForQuality(maintainability float64) int {
	switch {
	case maintainability >= 90:
		return 3
	case maintainability >= 70:
		return 2
	default:
		return 1
	}
}

// TargetStatus is the status a fully passing submission with the given score aims for
func TargetStatus(score float64) MasteryStatus {
	if score >= SolvedScoreThreshold {
		return StatusSolved
	}
	return StatusUpgrading
}

// Apply returns the state after a graded submission and whether anything changed.
// Failing submissions never change the state. The receiver is not modified.
func (m MasteryState) Apply(o SubmissionOutcome) (MasteryState, bool) {
	if !o.AllPassed {
		return m, false
	}

	next := m
	if stars := StarsForQuality(o.MaintainabilityIndex); stars > next.StarCount {
		next.StarCount = stars
	}
	if o.Score > next.BestScore {
		next.BestScore = o.Score
	}
	next.Status = m.Status.Advance(TargetStatus(o.Score))

	changed := next.StarCount != m.StarCount ||
		next.BestScore != m.BestScore ||
		next.Status != m.Status
	return next, changed
}

// IsSolved returns true once the problem has been mastered
func (m MasteryState) IsSolved() bool {
	return m.Status == StatusSolved
}
