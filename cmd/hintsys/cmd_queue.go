package main

import (
	"flag"
	"fmt"
	"time"

	"github.com/yangjiwoo8465/proj-hint-system/internal/queue"
)

// cmdEnqueue publishes a submission to the worker queue and waits for its result
func cmdEnqueue(args []string) error {
	fs := flag.NewFlagSet("enqueue", flag.ContinueOnError)
	wait := fs.Duration("wait", 2*time.Minute, "how long to wait for the result")
	a, err := parseSubmissionArgs(fs, args)
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	conn, err := queue.NewConnection(cfg.Queue.URL)
	if err != nil {
		return err
	}
	defer conn.Close()

	ctx, cancel := signalContext()
	defer cancel()

	results := queue.NewResultConsumer(conn)
	if err := results.Start(ctx); err != nil {
		return err
	}
	defer results.Stop()

	job := queue.NewSubmitJob(a.userID, a.problemID, a.code)
	job.Purpose = a.purpose

	done := make(chan *queue.GradingResult, 1)
	results.Subscribe(job.ID.String(), func(r *queue.GradingResult) {
		select {
		case done <- r:
		default:
		}
	})
	defer results.Unsubscribe(job.ID.String())

	if err := queue.NewProducer(conn).PublishJob(ctx, job); err != nil {
		return err
	}
	fmt.Printf("Queued job %s, waiting for a worker...\n", job.ID)

	select {
	case r := <-done:
		if r.Status != queue.StatusCompleted {
			return fmt.Errorf("job %s: %s", r.Status, r.Error)
		}
		if a.json {
			return printJSON(r.Outcome)
		}
		printOutcome(r.Outcome)
		fmt.Printf("\nGraded in %s\n", r.Duration)
		return nil
	case <-time.After(*wait):
		return fmt.Errorf("no result for job %s within %s", job.ID, *wait)
	case <-ctx.Done():
		return ctx.Err()
	}
}
