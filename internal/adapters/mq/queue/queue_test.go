package queue

import (
	"context"
	"testing"
	"time"

	"github.com/okian/gridlake/internal/domain/model"
)

func TestInMemoryQueue_BasicOperations(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx := context.Background()

	if l := q.Len(ctx); l != 0 {
		t.Errorf("expected length 0, got %d", l)
	}

	if !q.Enqueue(ctx, model.LoadJob{RunID: "run-1", SinkURI: "s3://b/1.parquet"}) {
		t.Error("expected enqueue to succeed")
	}
	if l := q.Len(ctx); l != 1 {
		t.Errorf("expected length 1, got %d", l)
	}

	job := <-q.Dequeue(ctx)
	if job.SinkURI != "s3://b/1.parquet" {
		t.Errorf("unexpected job %v", job.SinkURI)
	}
	if job.EnqueuedAt.IsZero() {
		t.Error("expected enqueue time to be stamped")
	}
}

func TestInMemoryQueue_Capacity(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if !q.Enqueue(ctx, model.LoadJob{RunID: "run"}) {
			t.Fatalf("expected enqueue %d to succeed", i)
		}
	}
	if q.Enqueue(ctx, model.LoadJob{RunID: "overflow"}) {
		t.Error("expected enqueue to fail when full")
	}
}

func TestInMemoryQueue_Close(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(4))
	ctx := context.Background()

	q.Enqueue(ctx, model.LoadJob{RunID: "before-close"})
	if err := q.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}
	if err := q.Close(); err != nil {
		t.Fatalf("second close failed: %v", err)
	}
	if !q.IsClosed() {
		t.Error("expected queue to report closed")
	}
	if q.Enqueue(ctx, model.LoadJob{RunID: "after-close"}) {
		t.Error("expected enqueue after close to fail")
	}

	var got []string
	timeout := time.After(time.Second)
	ch := q.Dequeue(ctx)
	for {
		select {
		case j, ok := <-ch:
			if !ok {
				if len(got) != 1 || got[0] != "before-close" {
					t.Errorf("expected buffered job to drain, got %v", got)
				}
				return
			}
			got = append(got, j.RunID)
		case <-timeout:
			t.Fatal("dequeue channel was not closed")
		}
	}
}

func TestInMemoryQueue_CancelledContext(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(1))
	q.Enqueue(context.Background(), model.LoadJob{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if q.Enqueue(ctx, model.LoadJob{}) {
		t.Error("expected enqueue to fail on a full queue with cancelled context")
	}
}
