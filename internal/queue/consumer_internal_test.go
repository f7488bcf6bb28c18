package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/yangjiwoo8465/proj-hint-system/internal/domain"
	"github.com/yangjiwoo8465/proj-hint-system/internal/grading"
	"github.com/yangjiwoo8465/proj-hint-system/internal/runner"
)

type fakeAcknowledger struct {
	mu       sync.Mutex
	acked    int
	rejected int
}

func (a *fakeAcknowledger) Ack(tag uint64, multiple bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.acked++
	return nil
}

func (a *fakeAcknowledger) Nack(tag uint64, multiple, requeue bool) error { return nil }

func (a *fakeAcknowledger) Reject(tag uint64, requeue bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.rejected++
	return nil
}

type fakePublisher struct {
	mu      sync.Mutex
	results []*GradingResult
}

func (p *fakePublisher) PublishResult(ctx context.Context, r *GradingResult) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.results = append(p.results, r)
	return nil
}

func delivery(t *testing.T, ack *fakeAcknowledger, v any) amqp.Delivery {
	t.Helper()
	body, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return amqp.Delivery{Acknowledger: ack, Body: body}
}

func TestConsumer_ProcessMessage(t *testing.T) {
	tests := []struct {
		name       string
		handler    JobHandler
		wantStatus string
		wantError  string
	}{
		{
			name: "completed",
			handler: func(ctx context.Context, job *GradingJob) (*GradingResult, error) {
				return &GradingResult{Outcome: &grading.Outcome{AllPassed: true}}, nil
			},
			wantStatus: StatusCompleted,
		},
		{
			name: "handler error",
			handler: func(ctx context.Context, job *GradingJob) (*GradingResult, error) {
				return nil, domain.ErrProblemNotFound
			},
			wantStatus: StatusFailed,
			wantError:  "problem not found",
		},
		{
			name: "deadline exceeded",
			handler: func(ctx context.Context, job *GradingJob) (*GradingResult, error) {
				<-ctx.Done()
				return nil, ctx.Err()
			},
			wantStatus: StatusTimeout,
			wantError:  "grading timed out",
		},
		{
			name: "run cancelled",
			handler: func(ctx context.Context, job *GradingJob) (*GradingResult, error) {
				return nil, fmt.Errorf("grade %s: %w", job.ID, runner.ErrCancelled)
			},
			wantStatus: StatusCancelled,
			wantError:  "grading cancelled",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pub := &fakePublisher{}
			ack := &fakeAcknowledger{}
			c := &Consumer{handler: tt.handler, publisher: pub}

			job := NewSubmitJob(uuid.New(), "p1", "print(1)")
			job.Timeout = 1
			c.processMessage(context.Background(), 0, delivery(t, ack, job))

			if ack.acked != 1 {
				t.Errorf("acked = %d; want 1", ack.acked)
			}
			if len(pub.results) != 1 {
				t.Fatalf("published %d results; want 1", len(pub.results))
			}
			got := pub.results[0]
			if got.JobID != job.ID {
				t.Errorf("JobID = %s; want %s", got.JobID, job.ID)
			}
			if got.Kind != JobSubmit {
				t.Errorf("Kind = %q; want submit", got.Kind)
			}
			if got.Status != tt.wantStatus {
				t.Errorf("Status = %q; want %q", got.Status, tt.wantStatus)
			}
			if got.Error != tt.wantError {
				t.Errorf("Error = %q; want %q", got.Error, tt.wantError)
			}
			if got.CompletedAt.IsZero() {
				t.Error("CompletedAt should be set")
			}
		})
	}
}

func TestConsumer_ProcessMessage_Malformed(t *testing.T) {
	pub := &fakePublisher{}
	ack := &fakeAcknowledger{}
	c := &Consumer{
		handler: func(ctx context.Context, job *GradingJob) (*GradingResult, error) {
			t.Error("handler should not run for malformed messages")
			return nil, nil
		},
		publisher: pub,
	}

	c.processMessage(context.Background(), 0, amqp.Delivery{Acknowledger: ack, Body: []byte("{not json")})

	if ack.rejected != 1 || ack.acked != 0 {
		t.Errorf("rejected/acked = %d/%d; want 1/0", ack.rejected, ack.acked)
	}
	if len(pub.results) != 0 {
		t.Errorf("published %d results; want 0", len(pub.results))
	}
}

func TestResultConsumer_SubscribeUnsubscribe(t *testing.T) {
	rc := &ResultConsumer{
		handlers: make(map[string]ResultHandler),
	}

	jobID := uuid.New().String()
	rc.Subscribe(jobID, func(result *GradingResult) {})

	rc.handlersMu.RLock()
	_, exists := rc.handlers[jobID]
	rc.handlersMu.RUnlock()
	if !exists {
		t.Error("Handler should be registered after Subscribe")
	}

	rc.Unsubscribe(jobID)

	rc.handlersMu.RLock()
	_, exists = rc.handlers[jobID]
	rc.handlersMu.RUnlock()
	if exists {
		t.Error("Handler should be removed after Unsubscribe")
	}
}

func TestResultConsumer_Subscribe_ConcurrentSafe(t *testing.T) {
	rc := NewResultConsumer(nil)

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			jobID := uuid.New().String()
			rc.Subscribe(jobID, func(result *GradingResult) {})
			time.Sleep(time.Microsecond)
			rc.Unsubscribe(jobID)
		}()
	}
	wg.Wait()

	if len(rc.handlers) != 0 {
		t.Errorf("handlers length = %d; want 0", len(rc.handlers))
	}
}

func TestResultConsumer_Dispatch(t *testing.T) {
	rc := NewResultConsumer(nil)
	jobID := uuid.New()

	var got *GradingResult
	rc.Subscribe(jobID.String(), func(result *GradingResult) { got = result })

	other, _ := json.Marshal(GradingResult{JobID: uuid.New(), Status: StatusCompleted})
	rc.dispatch(other)
	if got != nil {
		t.Fatal("handler called for another job")
	}

	rc.dispatch([]byte("garbage"))

	mine, _ := json.Marshal(GradingResult{JobID: jobID, Status: StatusTimeout})
	rc.dispatch(mine)
	if got == nil || got.Status != StatusTimeout {
		t.Errorf("dispatched result = %+v; want timeout for %s", got, jobID)
	}
}

func TestStop_NilCancelFunc(t *testing.T) {
	// Should not panic
	(&ResultConsumer{}).Stop()
	(&Consumer{}).Stop()
}

type fakeGrader struct {
	submits []grading.SubmitRequest
	hints   []grading.HintRequest
	err     error
}

func (g *fakeGrader) Submit(ctx context.Context, req grading.SubmitRequest) (*grading.Outcome, error) {
	g.submits = append(g.submits, req)
	if g.err != nil {
		return nil, g.err
	}
	return &grading.Outcome{SubmissionID: req.SubmissionID, AllPassed: true}, nil
}

func (g *fakeGrader) RequestHint(ctx context.Context, req grading.HintRequest) (*grading.HintOutcome, error) {
	g.hints = append(g.hints, req)
	if g.err != nil {
		return nil, g.err
	}
	return &grading.HintOutcome{Outcome: grading.Outcome{HintBranch: domain.BranchB}}, nil
}

func TestGradingHandler(t *testing.T) {
	g := &fakeGrader{}
	handle := NewGradingHandler(g)
	ctx := context.Background()

	submit := NewSubmitJob(uuid.New(), "p1", "print(1)")
	res, err := handle(ctx, submit)
	if err != nil {
		t.Fatalf("submit job error = %v", err)
	}
	if res.Outcome == nil || res.Outcome.SubmissionID != submit.ID {
		t.Errorf("Outcome = %+v; want submission id %s", res.Outcome, submit.ID)
	}

	hint := NewHintJob(uuid.New(), "p1", "", domain.PurposeCompletion)
	res, err = handle(ctx, hint)
	if err != nil {
		t.Fatalf("hint job error = %v", err)
	}
	if res.Hint == nil || res.Hint.HintBranch != domain.BranchB {
		t.Errorf("Hint = %+v; want branch B", res.Hint)
	}
	if len(g.hints) != 1 || g.hints[0].Purpose != domain.PurposeCompletion || g.hints[0].RunID != hint.ID {
		t.Errorf("hint requests = %+v; want completion run %s", g.hints, hint.ID)
	}

	if _, err := handle(ctx, &GradingJob{Kind: "reindex"}); err == nil {
		t.Error("unknown kind should fail")
	}

	g.err = domain.ErrProblemNotFound
	if _, err := handle(ctx, submit); !errors.Is(err, domain.ErrProblemNotFound) {
		t.Errorf("error = %v; want ErrProblemNotFound", err)
	}
}
