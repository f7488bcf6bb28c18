package queue

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/yangjiwoo8465/proj-hint-system/internal/domain"
)

// Producer publishes grading jobs and results
type Producer struct {
	conn *Connection
}

// NewProducer creates a new queue producer
func NewProducer(conn *Connection) *Producer {
	return &Producer{conn: conn}
}

// PublishJob publishes a grading job to the queue
func (p *Producer) PublishJob(ctx context.Context, job *GradingJob) error {
	if job.ID == uuid.Nil {
		job.ID = uuid.New()
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now()
	}

	if err := p.conn.PublishJSON(ctx, GradingQueueName, job); err != nil {
		return fmt.Errorf("failed to publish grading job: %w", err)
	}

	slog.Info("published grading job",
		"job_id", job.ID,
		"kind", job.Kind,
		"user_id", job.UserID,
		"problem_id", job.ProblemID,
	)

	return nil
}

// PublishResult publishes a grading result to the results queue
func (p *Producer) PublishResult(ctx context.Context, result *GradingResult) error {
	if result.CompletedAt.IsZero() {
		result.CompletedAt = time.Now()
	}

	if err := p.conn.PublishJSON(ctx, ResultQueueName, result); err != nil {
		return fmt.Errorf("failed to publish grading result: %w", err)
	}

	slog.Info("published grading result",
		"job_id", result.JobID,
		"status", result.Status,
		"duration", result.Duration,
	)

	return nil
}

// NewSubmitJob creates a job that grades a submission
func NewSubmitJob(userID uuid.UUID, problemID, code string) *GradingJob {
	return &GradingJob{
		ID:        uuid.New(),
		Kind:      JobSubmit,
		UserID:    userID,
		ProblemID: problemID,
		Code:      code,
		CreatedAt: time.Now(),
	}
}

// NewHintJob creates a job that selects a hint branch
func NewHintJob(userID uuid.UUID, problemID, code string, purpose domain.HintPurpose) *GradingJob {
	job := NewSubmitJob(userID, problemID, code)
	job.Kind = JobHint
	job.Purpose = purpose
	return job
}
