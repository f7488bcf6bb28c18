package domain

import (
	"errors"
	"testing"
)

func TestSelectBranch(t *testing.T) {
	tests := []struct {
		name string
		in   BranchInput
		want HintBranch
	}{
		{
			name: "syntax error overrides completion",
			in:   BranchInput{SyntaxErrors: 1, Purpose: PurposeCompletion, TestPassRate: 100},
			want: BranchA,
		},
		{
			name: "syntax error overrides optimization",
			in:   BranchInput{SyntaxErrors: 1, Purpose: PurposeOptimization, StarCount: 2, MaintainabilityIndex: 95},
			want: BranchA,
		},
		{
			name: "syntax error overrides optimal",
			in:   BranchInput{SyntaxErrors: 1, Purpose: PurposeOptimal, StarCount: 3},
			want: BranchA,
		},
		{
			name: "completion with failing tests",
			in:   BranchInput{Purpose: PurposeCompletion, TestPassRate: 40},
			want: BranchB,
		},
		{
			name: "completion with passing tests",
			in:   BranchInput{Purpose: PurposeCompletion, TestPassRate: 100},
			want: BranchC,
		},
		{
			name: "optimization with failing tests",
			in:   BranchInput{Purpose: PurposeOptimization, TestPassRate: 99.9, StarCount: 1, MaintainabilityIndex: 95},
			want: BranchD,
		},
		{
			name: "optimization from one star reaching 70",
			in:   BranchInput{Purpose: PurposeOptimization, TestPassRate: 100, StarCount: 1, MaintainabilityIndex: 70},
			want: BranchE1,
		},
		{
			name: "optimization from one star below 70",
			in:   BranchInput{Purpose: PurposeOptimization, TestPassRate: 100, StarCount: 1, MaintainabilityIndex: 69},
			want: BranchE2,
		},
		{
			name: "optimization from two stars reaching 90",
			in:   BranchInput{Purpose: PurposeOptimization, TestPassRate: 100, StarCount: 2, MaintainabilityIndex: 90},
			want: BranchE1,
		},
		{
			name: "optimization from two stars below 90",
			in:   BranchInput{Purpose: PurposeOptimization, TestPassRate: 100, StarCount: 2, MaintainabilityIndex: 85},
			want: BranchE2,
		},
		{
			name: "optimization with zero stars never achieves next star",
			in:   BranchInput{Purpose: PurposeOptimization, TestPassRate: 100, StarCount: 0, MaintainabilityIndex: 100},
			want: BranchE2,
		},
		{
			name: "optimal",
			in:   BranchInput{Purpose: PurposeOptimal, TestPassRate: 0, StarCount: 3},
			want: BranchF,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SelectBranch(tt.in)
			if got != tt.want {
				t.Errorf("SelectBranch(%+v) = %v, want %v", tt.in, got, tt.want)
			}
			if again := SelectBranch(tt.in); again != got {
				t.Errorf("SelectBranch not deterministic: %v then %v", got, again)
			}
		})
	}
}

func TestParseHintPurpose(t *testing.T) {
	for _, p := range []HintPurpose{PurposeCompletion, PurposeOptimization, PurposeOptimal} {
		got, err := ParseHintPurpose(string(p))
		if err != nil {
			t.Fatalf("ParseHintPurpose(%q) error = %v", p, err)
		}
		if got != p {
			t.Errorf("ParseHintPurpose(%q) = %v", p, got)
		}
	}

	_, err := ParseHintPurpose("speed")
	if !errors.Is(err, ErrInvalidPurpose) {
		t.Errorf("ParseHintPurpose(speed) error = %v, want ErrInvalidPurpose", err)
	}
}

func TestPurposeForStars(t *testing.T) {
	tests := []struct {
		stars int
		want  HintPurpose
	}{
		{0, PurposeCompletion},
		{1, PurposeOptimization},
		{2, PurposeOptimization},
		{3, PurposeOptimal},
	}
	for _, tt := range tests {
		if got := PurposeForStars(tt.stars); got != tt.want {
			t.Errorf("PurposeForStars(%d) = %v, want %v", tt.stars, got, tt.want)
		}
	}
}

func TestHintBranch_Strategy(t *testing.T) {
	for _, b := range AllBranches() {
		if !b.IsValid() {
			t.Errorf("%v.IsValid() = false", b)
		}
		if b.Strategy() == "" {
			t.Errorf("%v.Strategy() is empty", b)
		}
	}
	if HintBranch("Z").IsValid() {
		t.Error("Z.IsValid() = true")
	}
}
