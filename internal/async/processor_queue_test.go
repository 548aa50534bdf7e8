package async

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
)

type countingRunner struct {
	mu   sync.Mutex
	ids  []uuid.UUID
	err  error
	slow time.Duration
}

func (r *countingRunner) Process(_ context.Context, id uuid.UUID) error {
	if r.slow > 0 {
		time.Sleep(r.slow)
	}
	r.mu.Lock()
	r.ids = append(r.ids, id)
	r.mu.Unlock()
	return r.err
}

func (r *countingRunner) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.ids)
}

func TestQueueProcessesAllJobs(t *testing.T) {
	runner := &countingRunner{}
	q := NewProcessorQueue(runner, nil, WithWorkers(2), WithQueueSize(8))

	const n = 5
	for i := 0; i < n; i++ {
		if err := q.Enqueue(context.Background(), Job{InvoiceID: uuid.New(), SubmittedAt: time.Now()}); err != nil {
			t.Fatalf("Enqueue: %v", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	q.Shutdown(ctx)

	if got := runner.count(); got != n {
		t.Errorf("processed %d jobs, want %d", got, n)
	}
}

func TestQueueShutdownDrainsBacklog(t *testing.T) {
	runner := &countingRunner{slow: 10 * time.Millisecond}
	q := NewProcessorQueue(runner, nil, WithWorkers(1), WithQueueSize(16))

	for i := 0; i < 10; i++ {
		_ = q.Enqueue(context.Background(), Job{InvoiceID: uuid.New()})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	q.Shutdown(ctx)

	if got := runner.count(); got != 10 {
		t.Errorf("drained %d jobs, want 10", got)
	}
}

func TestQueueRejectsNothingButIgnoresAfterShutdown(t *testing.T) {
	runner := &countingRunner{}
	q := NewProcessorQueue(runner, nil, WithWorkers(1))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	q.Shutdown(ctx)

	// enqueue after close must not panic or block
	if err := q.Enqueue(context.Background(), Job{InvoiceID: uuid.New()}); err != nil {
		t.Fatalf("Enqueue after shutdown: %v", err)
	}
	if got := runner.count(); got != 0 {
		t.Errorf("processed %d jobs after shutdown, want 0", got)
	}
}

func TestQueueKeepsWorkingAfterRunnerError(t *testing.T) {
	runner := &countingRunner{err: errors.New("boom")}
	q := NewProcessorQueue(runner, nil, WithWorkers(1), WithQueueSize(4))

	for i := 0; i < 3; i++ {
		_ = q.Enqueue(context.Background(), Job{InvoiceID: uuid.New()})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	q.Shutdown(ctx)

	if got := runner.count(); got != 3 {
		t.Errorf("processed %d jobs, want 3 despite errors", got)
	}
}
