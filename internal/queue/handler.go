package queue

import (
	"context"
	"fmt"

	"github.com/yangjiwoo8465/proj-hint-system/internal/grading"
)

// Grader is the grading surface a worker drives
type Grader interface {
	Submit(ctx context.Context, req grading.SubmitRequest) (*grading.Outcome, error)
	RequestHint(ctx context.Context, req grading.HintRequest) (*grading.HintOutcome, error)
}

// NewGradingHandler returns a JobHandler that runs jobs through g
func NewGradingHandler(g Grader) JobHandler {
	return func(ctx context.Context, job *GradingJob) (*GradingResult, error) {
		switch job.Kind {
		case JobSubmit, "":
			out, err := g.Submit(ctx, grading.SubmitRequest{
				SubmissionID: job.ID,
				UserID:       job.UserID,
				ProblemID:    job.ProblemID,
				Code:         job.Code,
				Purpose:      job.Purpose,
			})
			if err != nil {
				return nil, err
			}
			return &GradingResult{Status: StatusCompleted, Outcome: out}, nil

		case JobHint:
			out, err := g.RequestHint(ctx, grading.HintRequest{
				RunID:     job.ID,
				UserID:    job.UserID,
				ProblemID: job.ProblemID,
				Code:      job.Code,
				Purpose:   job.Purpose,
			})
			if err != nil {
				return nil, err
			}
			return &GradingResult{Status: StatusCompleted, Hint: out}, nil

		default:
			return nil, fmt.Errorf("unknown job kind: %q", job.Kind)
		}
	}
}
