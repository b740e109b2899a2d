package worker

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/MJbae/novel-craft/internal/domain"
	"github.com/MJbae/novel-craft/internal/queue"
	"github.com/MJbae/novel-craft/internal/queue/queuetest"
)

const projectID = "0b7c6a1e-5f3d-4c2b-9a8e-7d6c5b4a3f21"

func seed(repo *queuetest.Repository, id string, jobType domain.JobType) {
	repo.Put(domain.Job{
		ID:         id,
		ProjectID:  projectID,
		Type:       jobType,
		Status:     domain.JobStatusQueued,
		Input:      []byte(`{}`),
		MaxRetries: domain.DefaultMaxRetries,
	})
}

func newWorker(repo *queuetest.Repository, handlers Registry) (*Worker, *queue.Queue) {
	q := queue.New(repo, queue.Options{})
	return New(q, handlers, Options{}), q
}

func TestPollCompletesJob(t *testing.T) {
	repo := queuetest.NewRepository()
	id := "11111111-1111-4111-8111-111111111111"
	seed(repo, id, domain.JobTypeSummary)

	w, _ := newWorker(repo, Registry{
		domain.JobTypeSummary: HandlerFunc(func(ctx context.Context, job *domain.Job) (string, error) {
			if job.ID != id {
				t.Errorf("handler got job %s", job.ID)
			}
			return `{"summary":"끝"}`, nil
		}),
	})
	if !w.Poll(context.Background()) {
		t.Fatalf("expected a job to be processed")
	}
	got := repo.Get(id)
	if got.Status != domain.JobStatusCompleted || got.Progress != 100 {
		t.Fatalf("status/progress = %s/%d", got.Status, got.Progress)
	}
	if got.Output == nil || *got.Output != `{"summary":"끝"}` {
		t.Fatalf("output = %v", got.Output)
	}
	if got.StartedAt == nil || got.CompletedAt == nil {
		t.Fatalf("timestamps not stamped")
	}
	if w.Poll(context.Background()) {
		t.Fatalf("empty queue should not process anything")
	}
}

func failingHandler(q *queue.Queue) Handler {
	return HandlerFunc(func(ctx context.Context, job *domain.Job) (string, error) {
		if err := q.Report(ctx, job.ID, domain.StepPtr(domain.StepValidating), 40); err != nil {
			return "", err
		}
		return "", errors.New("boom")
	})
}

func TestPollRequeuesThenFails(t *testing.T) {
	repo := queuetest.NewRepository()
	id := "22222222-2222-4222-8222-222222222222"
	seed(repo, id, domain.JobTypeOutline)
	w, q := newWorker(repo, nil)
	w.handlers = Registry{domain.JobTypeOutline: failingHandler(q)}

	w.Poll(context.Background())
	got := repo.Get(id)
	if got.Status != domain.JobStatusQueued {
		t.Fatalf("status after first failure = %s, want queued", got.Status)
	}
	if got.Step != nil || got.Progress != 0 || got.RetryCount != 1 {
		t.Fatalf("requeued job step/progress/retries = %v/%d/%d", got.Step, got.Progress, got.RetryCount)
	}
	if got.Error == nil || *got.Error != "Retry 1/2 (step: validating): boom" {
		t.Fatalf("error = %v", got.Error)
	}

	w.Poll(context.Background())
	got = repo.Get(id)
	if got.Status != domain.JobStatusFailed || got.RetryCount != 2 {
		t.Fatalf("status/retries after second failure = %s/%d", got.Status, got.RetryCount)
	}
	if *got.Error != "[step: validating] boom" {
		t.Fatalf("error = %q", *got.Error)
	}
	if w.Poll(context.Background()) {
		t.Fatalf("failed job must not be picked again")
	}
}

func TestPollWithoutHandlerFailsImmediately(t *testing.T) {
	repo := queuetest.NewRepository()
	id := "33333333-3333-4333-8333-333333333333"
	seed(repo, id, domain.JobTypeEventExtract)
	w, _ := newWorker(repo, Registry{})

	w.Poll(context.Background())
	got := repo.Get(id)
	if got.Status != domain.JobStatusFailed || got.RetryCount != 0 {
		t.Fatalf("status/retries = %s/%d", got.Status, got.RetryCount)
	}
	if *got.Error != "No handler registered for job type: event_extract" {
		t.Fatalf("error = %q", *got.Error)
	}
}

func TestPollRespectsConcurrencyCap(t *testing.T) {
	repo := queuetest.NewRepository()
	repo.Put(domain.Job{ID: "r1", ProjectID: projectID, Type: domain.JobTypeSummary, Status: domain.JobStatusRunning})
	repo.Put(domain.Job{ID: "r2", ProjectID: projectID, Type: domain.JobTypeSummary, Status: domain.JobStatusRunning})
	id := "44444444-4444-4444-8444-444444444444"
	seed(repo, id, domain.JobTypeSummary)

	called := false
	w, _ := newWorker(repo, Registry{domain.JobTypeSummary: HandlerFunc(func(context.Context, *domain.Job) (string, error) {
		called = true
		return "{}", nil
	})})
	if w.Poll(context.Background()) || called {
		t.Fatalf("worker dequeued past the concurrency cap")
	}
	if repo.Get(id).Status != domain.JobStatusQueued {
		t.Fatalf("job should stay queued")
	}
}

func TestPollIsExclusive(t *testing.T) {
	repo := queuetest.NewRepository()
	seed(repo, "55555555-5555-4555-8555-555555555555", domain.JobTypeSummary)
	seed(repo, "66666666-6666-4666-8666-666666666666", domain.JobTypeSummary)

	entered := make(chan struct{})
	release := make(chan struct{})
	w, _ := newWorker(repo, Registry{domain.JobTypeSummary: HandlerFunc(func(context.Context, *domain.Job) (string, error) {
		entered <- struct{}{}
		<-release
		return "{}", nil
	})})

	done := make(chan bool)
	go func() { done <- w.Poll(context.Background()) }()
	<-entered
	if w.Poll(context.Background()) {
		t.Fatalf("overlapping poll must not dequeue")
	}
	close(release)
	if !<-done {
		t.Fatalf("first poll should report a processed job")
	}
}

func TestCancelledJobResultIsDropped(t *testing.T) {
	repo := queuetest.NewRepository()
	id := "77777777-7777-4777-8777-777777777777"
	seed(repo, id, domain.JobTypeRevise)
	w, q := newWorker(repo, nil)
	w.handlers = Registry{domain.JobTypeRevise: HandlerFunc(func(ctx context.Context, job *domain.Job) (string, error) {
		if err := q.Cancel(ctx, job.ID); err != nil {
			t.Errorf("Cancel: %v", err)
		}
		return `{"content":"late"}`, nil
	})}

	w.Poll(context.Background())
	got := repo.Get(id)
	if got.Status != domain.JobStatusFailed || *got.Error != domain.CancelledMessage {
		t.Fatalf("status/error = %s/%v", got.Status, got.Error)
	}
	if got.Output != nil {
		t.Fatalf("output of a cancelled job must not be stored")
	}
}

func TestHandlerPanicBecomesFailure(t *testing.T) {
	repo := queuetest.NewRepository()
	id := "88888888-8888-4888-8888-888888888888"
	seed(repo, id, domain.JobTypeSummary)
	w, _ := newWorker(repo, Registry{domain.JobTypeSummary: HandlerFunc(func(context.Context, *domain.Job) (string, error) {
		panic("nil map")
	})})

	w.Poll(context.Background())
	got := repo.Get(id)
	if got.Status != domain.JobStatusQueued || !strings.Contains(*got.Error, "handler panic: nil map") {
		t.Fatalf("status/error = %s/%v", got.Status, got.Error)
	}
	if !strings.Contains(*got.Error, "(step: unknown)") {
		t.Fatalf("error should name the unknown step: %q", *got.Error)
	}
}

func TestRunRepollsAfterJob(t *testing.T) {
	repo := queuetest.NewRepository()
	seed(repo, "99999999-9999-4999-8999-999999999991", domain.JobTypeSummary)
	seed(repo, "99999999-9999-4999-8999-999999999992", domain.JobTypeSummary)

	processed := make(chan string, 2)
	q := queue.New(repo, queue.Options{})
	w := New(q, Registry{domain.JobTypeSummary: HandlerFunc(func(_ context.Context, job *domain.Job) (string, error) {
		processed <- job.ID
		return "{}", nil
	})}, Options{PollInterval: time.Hour, RepollDelay: 10 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- w.Run(ctx) }()

	for i := 0; i < 2; i++ {
		select {
		case <-processed:
		case <-time.After(2 * time.Second):
			t.Fatalf("job %d not processed; re-poll did not fire", i+1)
		}
	}
	cancel()
	if err := <-errc; !errors.Is(err, context.Canceled) {
		t.Fatalf("Run returned %v, want context.Canceled", err)
	}
}
