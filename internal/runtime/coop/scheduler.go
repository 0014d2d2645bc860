// Package coop implements a cooperative task scheduler.
//
// A Scheduler hosts many logical tasks but lets only one of them run at a
// time: a task holds the scheduler's run token while it executes and gives it
// up only when it waits (Sleep) or performs blocking work (Block). Code that
// runs outside a task sees NoTask from TaskID and blocks the calling goroutine
// as usual.
package coop

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// NoTask is the task id reported outside of any scheduler task.
const NoTask int64 = -1

type taskKey struct{}

// task is only touched by the goroutine running it.
type task struct {
	id    int64
	sched *Scheduler
	held  bool
}

// Scheduler runs tasks one at a time on a shared run token.
type Scheduler struct {
	token  chan struct{}
	nextID atomic.Int64
	wg     sync.WaitGroup
}

// NewScheduler creates an idle scheduler.
func NewScheduler() *Scheduler {
	return &Scheduler{token: make(chan struct{}, 1)}
}

// Go schedules fn as a new task and returns its id.
// fn receives a context that identifies the task.
func (s *Scheduler) Go(ctx context.Context, fn func(ctx context.Context)) int64 {
	id := s.nextID.Add(1)
	t := &task{id: id, sched: s}
	taskCtx := context.WithValue(ctx, taskKey{}, t)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.acquire()
		t.held = true
		defer func() {
			t.held = false
			s.release()
		}()
		fn(taskCtx)
	}()

	return id
}

// Wait blocks until every task scheduled so far has returned.
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

func (s *Scheduler) acquire() {
	s.token <- struct{}{}
}

func (s *Scheduler) release() {
	<-s.token
}

func fromContext(ctx context.Context) *task {
	if ctx == nil {
		return nil
	}
	t, _ := ctx.Value(taskKey{}).(*task)
	return t
}

// TaskID returns the id of the task ctx belongs to, or NoTask.
func TaskID(ctx context.Context) int64 {
	if t := fromContext(ctx); t != nil {
		return t.id
	}
	return NoTask
}

// FromContext returns the scheduler hosting the task ctx belongs to.
func FromContext(ctx context.Context) (*Scheduler, bool) {
	if t := fromContext(ctx); t != nil {
		return t.sched, true
	}
	return nil, false
}

// Block runs fn. Inside a task the run token is released while fn executes
// so other tasks can make progress. Nested calls release the token once.
//
// A task's context must only be used from the goroutine running that task.
func Block(ctx context.Context, fn func()) {
	t := fromContext(ctx)
	if t == nil || !t.held {
		fn()
		return
	}
	t.held = false
	t.sched.release()
	defer func() {
		t.sched.acquire()
		t.held = true
	}()
	fn()
}

// Sleep pauses for d or until ctx is done. Inside a task it yields the run
// token for the duration of the pause.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	var err error
	Block(ctx, func() {
		timer := time.NewTimer(d)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			err = ctx.Err()
		case <-timer.C:
		}
	})
	return err
}
