package runloop

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestPostRunsTask(t *testing.T) {
	l := New()
	defer l.Close()

	var ran atomic.Bool
	if err := l.Post(context.Background(), func() { ran.Store(true) }); err != nil {
		t.Fatalf("Post() error = %v", err)
	}
	if !ran.Load() {
		t.Fatal("Post() returned before task ran")
	}
}

func TestPostSerializesTasks(t *testing.T) {
	l := New()
	defer l.Close()

	var order []int
	for i := 0; i < 10; i++ {
		i := i
		if err := l.Post(context.Background(), func() { order = append(order, i) }); err != nil {
			t.Fatalf("Post(%d) error = %v", i, err)
		}
	}
	for i, got := range order {
		if got != i {
			t.Fatalf("order[%d] = %d, want %d", i, got, i)
		}
	}
}

func TestPostCanceledWhileQueued(t *testing.T) {
	l := New()
	defer l.Close()

	// Occupy the loop so the next task stays queued.
	release := make(chan struct{})
	blocked := make(chan struct{})
	go func() {
		_ = l.Post(context.Background(), func() {
			close(blocked)
			<-release
		})
	}()
	<-blocked

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var ran atomic.Bool
	err := l.Post(ctx, func() { ran.Store(true) })
	close(release)
	if !errors.Is(err, ErrCanceled) {
		t.Fatalf("Post() error = %v, want ErrCanceled", err)
	}
	time.Sleep(10 * time.Millisecond)
	if ran.Load() {
		t.Fatal("canceled task ran")
	}
}

func TestCloseCancelsQueuedTasks(t *testing.T) {
	l := New()

	release := make(chan struct{})
	blocked := make(chan struct{})
	go func() {
		_ = l.Post(context.Background(), func() {
			close(blocked)
			<-release
		})
	}()
	<-blocked

	errs := make(chan error, 1)
	go func() {
		errs <- l.Post(context.Background(), func() {})
	}()
	// Give the queued Post a moment to enqueue before closing.
	time.Sleep(10 * time.Millisecond)

	close(release)
	l.Close()

	if err := <-errs; err != nil && !errors.Is(err, ErrCanceled) {
		t.Fatalf("queued Post() error = %v, want nil or ErrCanceled", err)
	}
}

func TestPostAfterClose(t *testing.T) {
	l := New()
	l.Close()
	l.Close() // idempotent

	if err := l.Post(context.Background(), func() {}); !errors.Is(err, ErrClosed) {
		t.Fatalf("Post() after Close error = %v, want ErrClosed", err)
	}
}
