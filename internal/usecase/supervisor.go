package usecase

import (
	"context"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/user/staffstream/internal/adapter/metrics"
)

// Task is a long-running unit of work owned by the supervisor. Run must
// return promptly once ctx is cancelled; any other return, or a panic, is
// treated as a crash and the task is restarted.
type Task interface {
	Name() string
	Run(ctx context.Context)
}

// Supervisor runs each task in its own goroutine, restarting crashed tasks
// after a fixed backoff. Streams are isolated failure domains: one task's
// crash never touches its siblings.
type Supervisor struct {
	logger         *slog.Logger
	metrics        *metrics.PipelineMetrics
	restartBackoff time.Duration

	wg    sync.WaitGroup
	tasks []Task
}

// NewSupervisor creates a supervisor for the given tasks.
func NewSupervisor(tasks []Task, logger *slog.Logger, m *metrics.PipelineMetrics, restartBackoff time.Duration) *Supervisor {
	return &Supervisor{
		logger:         logger.With("component", "supervisor"),
		metrics:        m,
		restartBackoff: restartBackoff,
		tasks:          tasks,
	}
}

// Start launches every task. It does not block; call Wait to block until
// all tasks have stopped after ctx is cancelled.
func (s *Supervisor) Start(ctx context.Context) {
	for _, task := range s.tasks {
		s.wg.Add(1)
		go func(t Task) {
			defer s.wg.Done()
			s.runSupervised(ctx, t)
		}(task)
	}
	s.logger.Info("supervisor started", "tasks", len(s.tasks))
}

// Wait blocks until every task goroutine has returned.
func (s *Supervisor) Wait() {
	s.wg.Wait()
}

func (s *Supervisor) runSupervised(ctx context.Context, t Task) {
	for {
		s.runOnce(ctx, t)

		if ctx.Err() != nil {
			return
		}

		// Run returned while the context is still live: the task
		// crashed or exited unexpectedly. Restart it after a pause.
		s.metrics.ConsumerRestarts.WithLabelValues(t.Name()).Inc()
		s.logger.Warn("task exited unexpectedly, restarting", "task", t.Name(), "backoff", s.restartBackoff)

		select {
		case <-time.After(s.restartBackoff):
		case <-ctx.Done():
			return
		}
	}
}

func (s *Supervisor) runOnce(ctx context.Context, t Task) {
	defer func() {
		if rec := recover(); rec != nil {
			s.logger.Error("task panicked", "task", t.Name(), "panic", rec, "stack", string(debug.Stack()))
		}
	}()
	t.Run(ctx)
}
