package services

import (
	"context"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/custodia-labs/notesync/internal/core/domain"
	"github.com/custodia-labs/notesync/internal/core/ports/driven"
	"github.com/custodia-labs/notesync/internal/core/ports/driving"
	"github.com/custodia-labs/notesync/internal/logger"
)

// historyRetention is how many results are kept per task.
const historyRetention = 100

// Ensure Scheduler implements the interface.
var _ driving.Scheduler = (*Scheduler)(nil)

// Scheduler manages background task execution.
// It is a pure core service with no external control API.
type Scheduler struct {
	config      domain.SchedulerConfig
	store       driven.SchedulerStore
	coordinator driving.SyncCoordinator
	tick        time.Duration

	mu       sync.Mutex
	running  bool
	stopCh   chan struct{}
	wg       sync.WaitGroup
	inFlight map[string]bool
	retries  map[string]*backoff.ExponentialBackOff
}

// SchedulerOption configures a Scheduler.
type SchedulerOption func(*Scheduler)

// WithTickInterval sets how often due tasks are checked.
func WithTickInterval(d time.Duration) SchedulerOption {
	return func(s *Scheduler) {
		if d > 0 {
			s.tick = d
		}
	}
}

// NewScheduler creates a scheduler with configuration.
func NewScheduler(
	config domain.SchedulerConfig,
	store driven.SchedulerStore,
	coordinator driving.SyncCoordinator,
	opts ...SchedulerOption,
) *Scheduler {
	s := &Scheduler{
		config:      config,
		store:       store,
		coordinator: coordinator,
		tick:        time.Minute,
		inFlight:    make(map[string]bool),
		retries:     make(map[string]*backoff.ExponentialBackOff),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start begins the scheduler loop. This method blocks until Stop is called.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil // Already running
	}
	s.running = true
	s.stopCh = make(chan struct{})
	stopCh := s.stopCh
	s.mu.Unlock()

	if err := s.initialiseTasks(ctx); err != nil {
		logger.Warn("scheduler: failed to initialise tasks: %v", err)
	}

	return s.run(ctx, stopCh)
}

// Stop gracefully shuts down the scheduler.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	close(s.stopCh)
	s.mu.Unlock()

	// Wait for running tasks to complete
	s.wg.Wait()

	return nil
}

// initialiseTasks ensures all configured tasks exist in the store.
func (s *Scheduler) initialiseTasks(ctx context.Context) error {
	if !s.config.Enabled {
		return nil
	}

	if taskCfg := s.config.GetTaskConfig(domain.TaskIDNoteSync); taskCfg.Enabled {
		if err := s.ensureTask(ctx, domain.TaskIDNoteSync, "Note Sync", taskCfg); err != nil {
			return err
		}
	}

	return nil
}

// ensureTask creates or updates a task in the store.
func (s *Scheduler) ensureTask(ctx context.Context, id, name string, cfg domain.TaskConfig) error {
	task, err := s.store.GetTask(ctx, id)
	if err != nil {
		return err
	}

	if task == nil {
		task = &domain.ScheduledTask{
			ID:       id,
			Name:     name,
			Interval: cfg.Interval,
			Enabled:  cfg.Enabled,
			NextRun:  time.Now().Add(cfg.Interval),
		}
	} else {
		if task.Interval != cfg.Interval {
			task.Interval = cfg.Interval
			// Recalculate next run from now
			task.NextRun = time.Now().Add(cfg.Interval)
		}
		task.Enabled = cfg.Enabled
	}

	return s.store.SaveTask(ctx, task)
}

// run is the main scheduler loop.
func (s *Scheduler) run(ctx context.Context, stopCh <-chan struct{}) error {
	s.checkAndRunDueTasks(ctx, stopCh)

	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stopCh:
			return nil
		case <-ticker.C:
			s.checkAndRunDueTasks(ctx, stopCh)
		}
	}
}

// checkAndRunDueTasks finds and executes tasks that are due.
func (s *Scheduler) checkAndRunDueTasks(ctx context.Context, stopCh <-chan struct{}) {
	tasks, err := s.store.ListTasks(ctx)
	if err != nil {
		logger.Warn("scheduler: failed to list tasks: %v", err)
		return
	}

	now := time.Now()
	for i := range tasks {
		task := &tasks[i]
		if task.IsDue(now) {
			s.runTask(ctx, task, stopCh)
		}
	}
}

// runTask executes a single task unless it is already in flight.
func (s *Scheduler) runTask(ctx context.Context, task *domain.ScheduledTask, stopCh <-chan struct{}) {
	s.mu.Lock()
	if s.inFlight[task.ID] {
		s.mu.Unlock()
		return
	}
	s.inFlight[task.ID] = true
	s.wg.Add(1)
	s.mu.Unlock()

	go func() {
		defer func() {
			s.mu.Lock()
			delete(s.inFlight, task.ID)
			s.mu.Unlock()
			s.wg.Done()
		}()

		result := &domain.TaskResult{
			TaskID:    task.ID,
			StartedAt: time.Now(),
		}

		var run domain.SyncRun
		var ok bool
		switch task.ID {
		case domain.TaskIDNoteSync:
			run, ok = s.runNoteSync(ctx, stopCh)
		default:
			logger.Warn("scheduler: unknown task ID: %s", task.ID)
			return
		}
		if !ok {
			// Interrupted by shutdown; the task stays due.
			return
		}

		result.EndedAt = time.Now()
		result.RunID = run.ID
		result.Success = run.Succeeded()
		result.Error = run.Message

		task.LastRun = result.StartedAt
		task.NextRun = result.EndedAt.Add(s.nextDelay(task, run))
		if result.Success {
			task.LastError = ""
			task.LastSuccess = result.EndedAt
		} else {
			task.LastError = run.Message
		}

		if saveErr := s.store.SaveTask(ctx, task); saveErr != nil {
			logger.Warn("scheduler: failed to save task %s: %v", task.ID, saveErr)
		}

		if recordErr := s.store.RecordResult(ctx, result); recordErr != nil {
			logger.Warn("scheduler: failed to record result for %s: %v", task.ID, recordErr)
		}

		if pruneErr := s.store.PruneHistory(ctx, historyRetention); pruneErr != nil {
			logger.Warn("scheduler: failed to prune history: %v", pruneErr)
		}
	}()
}

// runNoteSync starts a sync (or joins the one already running) and waits
// for it to finish. It returns false if the wait was interrupted.
func (s *Scheduler) runNoteSync(ctx context.Context, stopCh <-chan struct{}) (domain.SyncRun, bool) {
	if s.coordinator == nil {
		return domain.SyncRun{Outcome: domain.OutcomeSucceeded}, true
	}

	if !s.coordinator.Start() {
		logger.Debug("scheduler: sync already running, waiting for it")
	}

	select {
	case <-s.coordinator.Done():
	case <-ctx.Done():
		return domain.SyncRun{}, false
	case <-stopCh:
		return domain.SyncRun{}, false
	}

	return s.coordinator.LastRun()
}

// nextDelay returns the wait before the task runs again. Failed runs are
// retried on an exponential backoff capped at the task interval.
func (s *Scheduler) nextDelay(task *domain.ScheduledTask, run domain.SyncRun) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()

	if run.Outcome != domain.OutcomeFailed {
		if b, ok := s.retries[task.ID]; ok {
			b.Reset()
		}
		return task.Interval
	}

	b, ok := s.retries[task.ID]
	if !ok {
		b = s.newRetryBackOff(task)
		s.retries[task.ID] = b
	}

	d := b.NextBackOff()
	if d <= 0 || d > task.Interval {
		return task.Interval
	}
	return d
}

func (s *Scheduler) newRetryBackOff(task *domain.ScheduledTask) *backoff.ExponentialBackOff {
	cfg := s.config.GetTaskConfig(task.ID)

	b := backoff.NewExponentialBackOff()
	if cfg.RetryInitial > 0 {
		b.InitialInterval = cfg.RetryInitial
	}
	b.MaxInterval = task.Interval
	if cfg.RetryMax > 0 && cfg.RetryMax < task.Interval {
		b.MaxInterval = cfg.RetryMax
	}
	b.Reset()
	return b
}
