package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"clipthread/internal/metrics"
	"clipthread/pkg/logger"
)

var (
	ErrQueueFull   = errors.New("task queue is full")
	ErrQueueClosed = errors.New("task queue is closed")
)

// TaskFunc is the body of a background task.
type TaskFunc func(ctx context.Context) error

// Task is one unit of background work.
type Task struct {
	ID   string
	Name string
	Run  TaskFunc
}

// Queue runs submitted tasks on a fixed set of workers. With one worker,
// tasks run strictly in submission order.
type Queue struct {
	mu      sync.Mutex
	tasks   chan Task
	workers int
	closed  bool

	group  *errgroup.Group
	cancel context.CancelFunc
}

// New creates a queue with the given worker count and buffer size.
func New(workers, size int) *Queue {
	if workers < 1 {
		workers = 1
	}
	if size < 1 {
		size = 1
	}
	return &Queue{
		tasks:   make(chan Task, size),
		workers: workers,
	}
}

// Start launches the workers. They stop when ctx is cancelled or after Stop
// has drained the queue.
func (q *Queue) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < q.workers; i++ {
		worker := i
		g.Go(func() error {
			q.work(gctx, worker)
			return nil
		})
	}

	q.mu.Lock()
	q.group = g
	q.cancel = cancel
	q.mu.Unlock()

	logger.Info("Task queue started", "workers", q.workers, "capacity", cap(q.tasks))
}

// Submit enqueues fn and returns the task ID.
func (q *Queue) Submit(name string, fn TaskFunc) (string, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return "", ErrQueueClosed
	}

	task := Task{ID: uuid.NewString(), Name: name, Run: fn}
	metrics.QueueDepth.Inc()
	select {
	case q.tasks <- task:
		logger.Debug("Task queued", "task_id", task.ID, "name", name, "depth", len(q.tasks))
		return task.ID, nil
	default:
		metrics.QueueDepth.Dec()
		return "", ErrQueueFull
	}
}

// Len is the number of tasks waiting for a worker.
func (q *Queue) Len() int {
	return len(q.tasks)
}

// Stop refuses new tasks, lets the workers finish what is queued and waits
// for them. If ctx ends first the workers are cancelled.
func (q *Queue) Stop(ctx context.Context) error {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		close(q.tasks)
	}
	g, cancel := q.group, q.cancel
	q.mu.Unlock()

	if g == nil {
		return nil
	}

	done := make(chan error, 1)
	go func() { done <- g.Wait() }()

	select {
	case err := <-done:
		cancel()
		return err
	case <-ctx.Done():
		cancel()
		<-done
		return ctx.Err()
	}
}

func (q *Queue) work(ctx context.Context, worker int) {
	for {
		select {
		case <-ctx.Done():
			return
		case task, ok := <-q.tasks:
			if !ok {
				return
			}
			metrics.QueueDepth.Dec()
			q.run(ctx, worker, task)
		}
	}
}

func (q *Queue) run(ctx context.Context, worker int, task Task) {
	start := time.Now()
	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("task panic: %v", r)
			}
		}()
		return task.Run(ctx)
	}()

	if err != nil {
		logger.Error("Task failed",
			"task_id", task.ID, "name", task.Name, "worker", worker,
			"duration", time.Since(start), "error", err)
		return
	}
	logger.Debug("Task finished",
		"task_id", task.ID, "name", task.Name, "worker", worker, "duration", time.Since(start))
}
