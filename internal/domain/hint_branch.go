package domain

import "fmt"

// HintPurpose is what the learner wants from the next hint
type HintPurpose string

const (
	PurposeCompletion   HintPurpose = "completion"
	PurposeOptimization HintPurpose = "optimization"
	PurposeOptimal      HintPurpose = "optimal"
)

// IsValid checks if the purpose is known
func (p HintPurpose) IsValid() bool {
	switch p {
	case PurposeCompletion, PurposeOptimization, PurposeOptimal:
		return true
	default:
		return false
	}
}

// ParseHintPurpose converts a string to a HintPurpose
func ParseHintPurpose(s string) (HintPurpose, error) {
	p := HintPurpose(s)
	if !p.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidPurpose, s)
	}
	return p, nil
}

// PurposeForStars picks a purpose when the caller did not state one
func PurposeForStars(stars int) HintPurpose {
	switch {
	case stars >= MaxStars:
		return PurposeOptimal
	case stars >= 1:
		return PurposeOptimization
	default:
		return PurposeCompletion
	}
}

// HintBranch names the tutoring strategy used for the next piece of feedback
type HintBranch string

const (
	// BranchA: the code does not parse.
	BranchA HintBranch = "A"
	// BranchB: completion wanted, some tests fail.
	BranchB HintBranch = "B"
	// BranchC: completion wanted, all tests pass.
	BranchC HintBranch = "C"
	// BranchD: optimization wanted, some tests fail.
	BranchD HintBranch = "D"
	// BranchE1: optimization wanted, the code already earns the next star.
	BranchE1 HintBranch = "E1"
	// BranchE2: optimization wanted, the next star is not reached yet.
	BranchE2 HintBranch = "E2"
	// BranchF: three stars, only polish remains.
	BranchF HintBranch = "F"
)

// AllBranches lists every branch in decision order
func AllBranches() []HintBranch {
	return []HintBranch{BranchA, BranchB, BranchC, BranchD, BranchE1, BranchE2, BranchF}
}

// IsValid checks if the branch is known
func (b HintBranch) IsValid() bool {
	switch b {
	case BranchA, BranchB, BranchC, BranchD, BranchE1, BranchE2, BranchF:
		return true
	default:
		return false
	}
}

// Strategy returns a short description of the tutoring strategy for the branch
func (b HintBranch) Strategy() string {
	switch b {
	case BranchA:
		return "fix the syntax error before anything else"
	case BranchB:
		return "guide toward a solution that passes every test"
	case BranchC:
		return "confirm the working solution and suggest a first improvement"
	case BranchD:
		return "restore correctness before optimizing"
	case BranchE1:
		return "celebrate the next star and point at the following one"
	case BranchE2:
		return "suggest refactoring that reaches the next star"
	case BranchF:
		return "discuss idiomatic alternatives for an optimal solution"
	default:
		return ""
	}
}

// BranchInput is everything the branch selector looks at
type BranchInput struct {
	SyntaxErrors         int
	Purpose              HintPurpose
	TestPassRate         float64
	StarCount            int
	MaintainabilityIndex float64
}

// NextStarAchieved reports whether the quality earns the star above the current one
func NextStarAchieved(stars int, quality float64) bool {
	switch stars {
	case 1:
		return quality >= 70
	case 2:
		return quality >= 90
	default:
		return false
	}
}

// SelectBranch maps the learner's current situation to a hint branch.
// It is a pure function: identical inputs always give the identical branch.
func SelectBranch(in BranchInput) HintBranch {
	if in.SyntaxErrors > 0 {
		return BranchA
	}

	switch in.Purpose {
	case PurposeCompletion:
		if in.TestPassRate < 100 {
			return BranchB
		}
		return BranchC
	case PurposeOptimization:
		if in.TestPassRate < 100 {
			return BranchD
		}
		if NextStarAchieved(in.StarCount, in.MaintainabilityIndex) {
			return BranchE1
		}
		return BranchE2
	case PurposeOptimal:
		return BranchF
	}
	return BranchF
}
