// Package scheduler runs periodic background tasks, such as dropping idle carts,
// alongside the HTTP server.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Task is a unit of periodic work
type Task interface {
	Name() string
	Run(ctx context.Context) error
}

type funcTask struct {
	name string
	fn   func(ctx context.Context) error
}

func (t funcTask) Name() string                  { return t.name }
func (t funcTask) Run(ctx context.Context) error { return t.fn(ctx) }

// NewTask wraps fn as a Task
func NewTask(name string, fn func(ctx context.Context) error) Task {
	return funcTask{name: name, fn: fn}
}

// Config holds scheduler configuration
type Config struct {
	Enabled bool
	// Interval between two runs of every task
	Interval time.Duration
	// TaskTimeout bounds a single run; 0 means Interval
	TaskTimeout time.Duration
}

// DefaultConfig returns default scheduler configuration
func DefaultConfig() Config {
	return Config{
		Enabled:  true,
		Interval: time.Minute,
	}
}

func (c Config) validate() error {
	if c.Interval <= 0 {
		return fmt.Errorf("%w: interval must be positive", ErrInvalidConfig)
	}
	if c.TaskTimeout < 0 {
		return fmt.Errorf("%w: task timeout cannot be negative", ErrInvalidConfig)
	}
	return nil
}

// Scheduler runs every registered task once per interval, each on its own goroutine.
// A run that fails is logged and retried at the next tick.
type Scheduler struct {
	config Config
	logger *zap.Logger
	tasks  []Task

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
}

// NewScheduler creates a new scheduler instance
func NewScheduler(config Config, logger *zap.Logger) (*Scheduler, error) {
	if err := config.validate(); err != nil {
		return nil, err
	}
	if config.TaskTimeout == 0 {
		config.TaskTimeout = config.Interval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{config: config, logger: logger}, nil
}

// Register adds a task. Tasks can only be added before Start.
func (s *Scheduler) Register(task Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isRunning {
		return ErrSchedulerRunning
	}
	for _, t := range s.tasks {
		if t.Name() == task.Name() {
			return fmt.Errorf("%w: %s", ErrDuplicateTask, task.Name())
		}
	}
	s.tasks = append(s.tasks, task)
	return nil
}

// Start starts one loop per task. It is a no-op when disabled or already running.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isRunning || !s.config.Enabled {
		return
	}
	s.isRunning = true

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	for _, task := range s.tasks {
		s.wg.Add(1)
		go s.loop(ctx, task)
	}

	s.logger.Info("Scheduler started",
		zap.Int("tasks", len(s.tasks)),
		zap.Duration("interval", s.config.Interval),
	)
}

// Stop cancels running tasks and waits for them until ctx expires
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.mu.Unlock()

	s.cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Scheduler stopped gracefully")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Scheduler stop timed out")
		return ctx.Err()
	}
}

// IsRunning reports whether the task loops are active
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isRunning
}

func (s *Scheduler) loop(ctx context.Context, task Task) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Debug("Task loop stopping", zap.String("task", task.Name()))
			return
		case <-ticker.C:
			s.run(ctx, task)
		}
	}
}

func (s *Scheduler) run(ctx context.Context, task Task) {
	runCtx, cancel := context.WithTimeout(ctx, s.config.TaskTimeout)
	defer cancel()

	start := time.Now()
	if err := task.Run(runCtx); err != nil {
		s.logger.Error("Task failed",
			zap.String("task", task.Name()),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err),
		)
		return
	}
	s.logger.Debug("Task completed",
		zap.String("task", task.Name()),
		zap.Duration("duration", time.Since(start)),
	)
}
