// Package runloop serializes work onto a single goroutine, standing in
// for the host application's main context. Object graph mutations are
// only legal on this goroutine, so everything the bridge applies gets
// funneled through Post.
package runloop

import (
	"context"
	"errors"
	"sync"
)

// ErrCanceled is returned by Post when the task's context is canceled
// before the task has been dequeued, or when the loop closes with the
// task still queued.
var ErrCanceled = errors.New("runloop: task canceled before dispatch")

// ErrClosed is returned by Post after Close.
var ErrClosed = errors.New("runloop: closed")

type task struct {
	ctx  context.Context
	fn   func()
	done chan error
}

// Loop runs queued tasks one at a time on a dedicated goroutine.
type Loop struct {
	tasks chan task

	mu     sync.Mutex
	closed bool
	stop   chan struct{}
	parked sync.WaitGroup
}

// New starts the loop goroutine.
func New() *Loop {
	l := &Loop{
		tasks: make(chan task, 64),
		stop:  make(chan struct{}),
	}
	l.parked.Add(1)
	go l.run()
	return l
}

func (l *Loop) run() {
	defer l.parked.Done()
	for {
		select {
		case t := <-l.tasks:
			l.dispatch(t)
		case <-l.stop:
			// Drain what is already queued as canceled so no Post
			// caller hangs.
			for {
				select {
				case t := <-l.tasks:
					t.done <- ErrCanceled
				default:
					return
				}
			}
		}
	}
}

func (l *Loop) dispatch(t task) {
	// A task abandoned while queued never runs. Once it is dequeued
	// with a live context it runs to completion even if the context
	// is canceled mid-task.
	select {
	case <-t.ctx.Done():
		t.done <- ErrCanceled
		return
	default:
	}
	t.fn()
	t.done <- nil
}

// Post queues fn and blocks until it has run or been abandoned. It
// returns ErrCanceled when ctx is canceled while fn is still queued and
// ErrClosed when the loop has been closed.
func (l *Loop) Post(ctx context.Context, fn func()) error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return ErrClosed
	}
	l.mu.Unlock()

	t := task{ctx: ctx, fn: fn, done: make(chan error, 1)}
	select {
	case l.tasks <- t:
	case <-ctx.Done():
		return ErrCanceled
	case <-l.stop:
		return ErrClosed
	}

	select {
	case err := <-t.done:
		return err
	case <-l.stop:
		// The loop may still have dequeued the task; prefer its answer.
		select {
		case err := <-t.done:
			return err
		default:
			return ErrCanceled
		}
	}
}

// Close stops the loop. Tasks still queued are reported to their
// posters as ErrCanceled. Close is idempotent.
func (l *Loop) Close() {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.closed = true
	close(l.stop)
	l.mu.Unlock()
	l.parked.Wait()
}
