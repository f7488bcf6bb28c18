package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yangjiwoo8465/proj-hint-system/internal/domain"
	"github.com/yangjiwoo8465/proj-hint-system/internal/runner"
)

func TestOpsHandler_Healthz(t *testing.T) {
	tests := []struct {
		name       string
		ready      ReadyFunc
		wantCode   int
		wantStatus string
	}{
		{"nil ready", nil, http.StatusOK, "ok"},
		{"ready", func() bool { return true }, http.StatusOK, "ok"},
		{"not ready", func() bool { return false }, http.StatusServiceUnavailable, "unavailable"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			OpsHandler(tt.ready, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

			if rec.Code != tt.wantCode {
				t.Errorf("Status code = %d, want %d", rec.Code, tt.wantCode)
			}
			var body map[string]string
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			if body["status"] != tt.wantStatus {
				t.Errorf("status = %q, want %q", body["status"], tt.wantStatus)
			}
			if rec.Header().Get(RequestIDHeader) == "" {
				t.Error("expected a request id header")
			}
		})
	}
}

func TestOpsHandler_Metrics(t *testing.T) {
	rec := httptest.NewRecorder()
	OpsHandler(nil, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("Status code = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "go_goroutines") {
		t.Error("expected default go collector output")
	}
}

func TestOpsHandler_UnknownPath(t *testing.T) {
	rec := httptest.NewRecorder()
	OpsHandler(nil, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/grade", nil))

	if rec.Code != http.StatusNotFound {
		t.Errorf("Status code = %d, want 404", rec.Code)
	}
}

type fakeRuns struct {
	running   map[uuid.UUID]bool
	waitErr   error
	cancelled []uuid.UUID
}

func (f *fakeRuns) IsRunning(id uuid.UUID) bool { return f.running[id] }

func (f *fakeRuns) Cancel(id uuid.UUID) error {
	if !f.running[id] {
		return fmt.Errorf("%w: %s", runner.ErrNotRunning, id)
	}
	f.cancelled = append(f.cancelled, id)
	return nil
}

func (f *fakeRuns) Wait(ctx context.Context, id uuid.UUID) error { return f.waitErr }

func TestOpsHandler_Runs(t *testing.T) {
	active := uuid.New()

	tests := []struct {
		name       string
		method     string
		path       string
		waitErr    error
		wantCode   int
		wantField  string
		wantValue  any
		wantCancel bool
	}{
		{"running", http.MethodGet, "/runs/" + active.String(), nil, http.StatusOK, "running", true, false},
		{"finished", http.MethodGet, "/runs/" + uuid.NewString(), nil, http.StatusOK, "running", false, false},
		{"bad id", http.MethodGet, "/runs/abc", nil, http.StatusBadRequest, "error", "invalid run id", false},
		{"cancel", http.MethodPost, "/runs/" + active.String() + "/cancel", nil, http.StatusOK, "status", "cancelled", true},
		{"cancel still stopping", http.MethodPost, "/runs/" + active.String() + "/cancel", context.Canceled, http.StatusAccepted, "status", "cancelling", true},
		{"cancel unknown", http.MethodPost, "/runs/" + uuid.NewString() + "/cancel", nil, http.StatusNotFound, "", nil, false},
		{"cancel bad id", http.MethodPost, "/runs/abc/cancel", nil, http.StatusBadRequest, "error", "invalid run id", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runs := &fakeRuns{running: map[uuid.UUID]bool{active: true}, waitErr: tt.waitErr}
			rec := httptest.NewRecorder()
			OpsHandler(nil, runs).ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))

			if rec.Code != tt.wantCode {
				t.Fatalf("Status code = %d, want %d", rec.Code, tt.wantCode)
			}
			var body map[string]any
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			if tt.wantField != "" && body[tt.wantField] != tt.wantValue {
				t.Errorf("%s = %v, want %v", tt.wantField, body[tt.wantField], tt.wantValue)
			}
			if got := len(runs.cancelled) == 1; got != tt.wantCancel {
				t.Errorf("cancelled = %v, want cancel %v", runs.cancelled, tt.wantCancel)
			}
		})
	}
}

func TestOpsHandler_RunsDisabled(t *testing.T) {
	rec := httptest.NewRecorder()
	OpsHandler(nil, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/runs/"+uuid.NewString(), nil))

	if rec.Code != http.StatusNotFound {
		t.Errorf("Status code = %d, want 404", rec.Code)
	}
}

// blockingSandbox holds every execution until its context ends
type blockingSandbox struct{}

func (blockingSandbox) Execute(ctx context.Context, code, stdin string, limits runner.Limits) domain.ExecutionResult {
	<-ctx.Done()
	return domain.ExecutionResult{Stderr: "execution cancelled", ExitCode: -1}
}

func TestOpsHandler_CancelsRunnerService(t *testing.T) {
	svc := runner.NewService(runner.Config{Parallelism: 1, Timeout: time.Minute}, blockingSandbox{})
	handler := OpsHandler(nil, svc)
	id := uuid.New()

	done := make(chan error, 1)
	go func() {
		_, err := svc.Execute(context.Background(), runner.ExecuteRequest{
			SubmissionID: id,
			Cases:        []domain.TestCase{{Input: "1", ExpectedOutput: "1"}},
		})
		done <- err
	}()

	deadline := time.Now().Add(time.Second)
	for !svc.IsRunning(id) {
		if time.Now().After(deadline) {
			t.Fatal("run never started")
		}
		time.Sleep(5 * time.Millisecond)
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/runs/"+id.String()+"/cancel", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("cancel status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	if err := <-done; !errors.Is(err, runner.ErrCancelled) {
		t.Errorf("Execute() error = %v, want %v", err, runner.ErrCancelled)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/runs/"+id.String(), nil))
	if !strings.Contains(rec.Body.String(), `"running":false`) {
		t.Errorf("status body = %s, want running false", rec.Body.String())
	}
}
