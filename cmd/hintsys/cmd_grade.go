package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"

	"github.com/yangjiwoo8465/proj-hint-system/internal/catalog"
	"github.com/yangjiwoo8465/proj-hint-system/internal/domain"
	"github.com/yangjiwoo8465/proj-hint-system/internal/grading"
)

// submissionArgs are the shared arguments of grade, hint and enqueue
type submissionArgs struct {
	userID    uuid.UUID
	problemID string
	code      string
	purpose   domain.HintPurpose
	json      bool
}

// parseSubmissionArgs parses args with fs, which callers may extend with their own flags
func parseSubmissionArgs(fs *flag.FlagSet, args []string) (*submissionArgs, error) {
	purpose := fs.String("purpose", "", "completion, optimization or optimal")
	asJSON := fs.Bool("json", false, "print JSON")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() != 3 {
		return nil, fmt.Errorf("usage: hintsys %s [-purpose P] [-json] <user-id> <problem-id> <file.py>", fs.Name())
	}

	userID, err := uuid.Parse(fs.Arg(0))
	if err != nil {
		return nil, fmt.Errorf("invalid user id %q: %w", fs.Arg(0), err)
	}
	code, err := readCode(fs.Arg(2))
	if err != nil {
		return nil, err
	}

	return &submissionArgs{
		userID:    userID,
		problemID: fs.Arg(1),
		code:      code,
		purpose:   domain.HintPurpose(*purpose),
		json:      *asJSON,
	}, nil
}

// readCode reads a source file, "-" meaning stdin
func readCode(path string) (string, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("read code: %w", err)
	}
	return string(data), nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

// cmdGrade grades a submission and updates mastery
func cmdGrade(args []string) error {
	a, err := parseSubmissionArgs(flag.NewFlagSet("grade", flag.ContinueOnError), args)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	app, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	out, err := app.Grading.Submit(ctx, grading.SubmitRequest{
		UserID:    a.userID,
		ProblemID: a.problemID,
		Code:      a.code,
		Purpose:   a.purpose,
	})
	if err != nil {
		return err
	}

	if a.json {
		return printJSON(out)
	}
	printOutcome(out)
	return nil
}

// cmdHint selects the hint branch for the current code
func cmdHint(args []string) error {
	a, err := parseSubmissionArgs(flag.NewFlagSet("hint", flag.ContinueOnError), args)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	app, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	out, err := app.Grading.RequestHint(ctx, grading.HintRequest{
		UserID:    a.userID,
		ProblemID: a.problemID,
		Code:      a.code,
		Purpose:   a.purpose,
	})
	if err != nil {
		return err
	}

	if a.json {
		return printJSON(out)
	}
	fmt.Printf("Hint Branch:  %s (%s)\n", out.HintBranch, out.Purpose)
	fmt.Printf("Tests:        %d/%d\n", out.PassedCount, out.TotalCount)
	fmt.Printf("Prior Hints:  %d\n", out.PriorHints)
	fmt.Printf("\n%s\n", out.Strategy)
	return nil
}

// cmdMastery shows the stored mastery state
func cmdMastery(args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: hintsys mastery <user-id> <problem-id>")
	}
	userID, err := uuid.Parse(args[0])
	if err != nil {
		return fmt.Errorf("invalid user id %q: %w", args[0], err)
	}

	ctx, cancel := signalContext()
	defer cancel()

	app, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	state, err := app.Grading.Mastery(ctx, userID, args[1])
	if err != nil {
		return err
	}

	fmt.Printf("Problem:     %s\n", state.ProblemID)
	fmt.Printf("Stars:       %s\n", stars(state.StarCount))
	fmt.Printf("Best Score:  %s %.2f\n", renderProgressBar(state.BestScore, 20), state.BestScore)
	fmt.Printf("Status:      %s\n", state.Status)
	return nil
}

// cmdBadges lists earned badges
func cmdBadges(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: hintsys badges <user-id>")
	}
	userID, err := uuid.Parse(args[0])
	if err != nil {
		return fmt.Errorf("invalid user id %q: %w", args[0], err)
	}

	ctx, cancel := signalContext()
	defer cancel()

	app, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	earned, err := app.Badges.Earned(ctx, userID)
	if err != nil {
		return err
	}
	if len(earned) == 0 {
		fmt.Println("No badges yet.")
		return nil
	}

	fmt.Println("Badges")
	fmt.Println("======")
	for _, b := range earned {
		fmt.Printf("%-16s %-60s %s\n", b.ID, b.Description, b.AwardedAt.Format("2006-01-02"))
	}
	return nil
}

// cmdProblems lists the problem catalog
func cmdProblems() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ids, err := catalog.NewLoader(cfg.Catalog.Path).List()
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		fmt.Printf("No problems in %s\n", cfg.Catalog.Path)
		return nil
	}
	for _, id := range ids {
		fmt.Println(id)
	}
	return nil
}

func printOutcome(out *grading.Outcome) {
	mark := "✗"
	if out.AllPassed {
		mark = "✓"
	}

	fmt.Printf("Tests:       %d/%d %s\n", out.PassedCount, out.TotalCount, mark)
	fmt.Printf("Score:       %s %.2f\n", renderProgressBar(out.TotalScore, 20), out.TotalScore)
	fmt.Printf("Stars:       %s (best %.2f)\n", stars(out.StarCount), out.BestScore)
	fmt.Printf("Status:      %s\n", out.Status)
	fmt.Printf("Hint Branch: %s (%s)\n", out.HintBranch, out.Purpose)

	fmt.Println("\nMetrics")
	fmt.Println("-------")
	s, q := out.Metrics.Static, out.Metrics.Qualitative
	fmt.Printf("  syntax_errors          %d\n", s.SyntaxErrors)
	fmt.Printf("  test_pass_rate         %.1f\n", s.TestPassRate)
	fmt.Printf("  execution_time_ms      %.1f\n", s.ExecutionTimeMs)
	fmt.Printf("  memory_kb              %.0f\n", s.MemoryKB)
	fmt.Printf("  maintainability_index  %.1f\n", s.MaintainabilityIndex)
	fmt.Printf("  style_violations       %d\n", s.StyleViolationCount)
	fmt.Printf("  algorithm_efficiency   %d\n", q.AlgorithmEfficiency)
	fmt.Printf("  code_readability       %d\n", q.CodeReadability)
	fmt.Printf("  edge_case_handling     %d\n", q.EdgeCaseHandling)
	fmt.Printf("  code_conciseness       %d\n", q.CodeConciseness)
	fmt.Printf("  test_coverage_estimate %d\n", q.TestCoverageEstimate)
	fmt.Printf("  security_awareness     %d\n", q.SecurityAwareness)

	if len(out.NewBadges) > 0 {
		fmt.Printf("\nNew badges: %s\n", strings.Join(out.NewBadges, ", "))
	}
}

func stars(n int) string {
	return strings.Repeat("★", n) + strings.Repeat("☆", domain.MaxStars-n)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
