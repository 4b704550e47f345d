package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/notesync/internal/core/domain"
	"github.com/custodia-labs/notesync/internal/core/ports/driven"
	"github.com/custodia-labs/notesync/internal/core/ports/driving"
	"github.com/custodia-labs/notesync/internal/logger"
	"github.com/custodia-labs/notesync/internal/telemetry"
)

// CancelledMessage is the terminal progress message of a cancelled run.
const CancelledMessage = "Sync cancelled"

// Ensure SyncCoordinator implements the interface.
var _ driving.SyncCoordinator = (*SyncCoordinator)(nil)

// syncTask is the handle of the one in-flight run.
type syncTask struct {
	id        string
	startedAt time.Time
	cancelled atomic.Bool
	done      chan struct{}
	once      sync.Once

	// mu orders late progress reports against completion.
	mu       sync.Mutex
	finished bool
}

func newSyncTask(now time.Time) *syncTask {
	return &syncTask{
		id:        uuid.NewString(),
		startedAt: now,
		done:      make(chan struct{}),
	}
}

// IsCancelled implements driven.CancellationToken.
func (t *syncTask) IsCancelled() bool {
	return t.cancelled.Load()
}

func (t *syncTask) closeDone() {
	t.once.Do(func() { close(t.done) })
}

// closedChan is returned by Done when no run is in flight.
var closedChan = func() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}()

// SyncCoordinator runs at most one sync at a time on its own goroutine.
type SyncCoordinator struct {
	engine   driven.SyncEngine
	resolver driven.AccountResolver
	progress driving.ProgressChannel

	host     driven.HostLifecycle
	recorder driven.RunRecorder
	metrics  *telemetry.SyncMetrics

	ctx    context.Context
	cancel context.CancelFunc
	now    func() time.Time

	// transitionMu pairs each handle change with its progress publish so
	// a new run's (true, "") never lands before the previous (false, "").
	transitionMu sync.Mutex

	mu      sync.Mutex
	task    *syncTask
	lastRun *domain.SyncRun
	closed  bool

	wg sync.WaitGroup
}

// CoordinatorOption configures a SyncCoordinator.
type CoordinatorOption func(*SyncCoordinator)

// WithHostLifecycle sets the collaborator notified after every run.
func WithHostLifecycle(host driven.HostLifecycle) CoordinatorOption {
	return func(c *SyncCoordinator) {
		c.host = host
	}
}

// WithRunRecorder sets where finished runs are stored.
func WithRunRecorder(recorder driven.RunRecorder) CoordinatorOption {
	return func(c *SyncCoordinator) {
		c.recorder = recorder
	}
}

// WithSyncMetrics sets the sync metrics for the coordinator.
func WithSyncMetrics(metrics *telemetry.SyncMetrics) CoordinatorOption {
	return func(c *SyncCoordinator) {
		c.metrics = metrics
	}
}

// WithContext sets the parent context handed to the engine.
// Cancelling it aborts a run at the engine's next network call.
func WithContext(ctx context.Context) CoordinatorOption {
	return func(c *SyncCoordinator) {
		c.ctx = ctx
	}
}

// NewSyncCoordinator creates an idle coordinator.
func NewSyncCoordinator(
	engine driven.SyncEngine,
	resolver driven.AccountResolver,
	progress driving.ProgressChannel,
	opts ...CoordinatorOption,
) *SyncCoordinator {
	c := &SyncCoordinator{
		engine:   engine,
		resolver: resolver,
		progress: progress,
		ctx:      context.Background(),
		now:      time.Now,
	}

	for _, opt := range opts {
		opt(c)
	}

	c.ctx, c.cancel = context.WithCancel(c.ctx)
	return c
}

// Start begins a sync run unless one is already in flight.
func (c *SyncCoordinator) Start() bool {
	c.transitionMu.Lock()
	defer c.transitionMu.Unlock()

	c.mu.Lock()
	if c.task != nil || c.closed {
		c.mu.Unlock()
		logger.Debug("sync already running, start ignored")
		return false
	}
	t := newSyncTask(c.now())
	c.task = t
	c.wg.Add(1)
	c.mu.Unlock()

	c.progress.Publish(true, "")
	logger.Debug("sync %s started", t.id)

	go c.run(t)
	return true
}

// Cancel asks the running engine to stop at its next safe point.
func (c *SyncCoordinator) Cancel() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.task == nil {
		return false
	}
	if c.task.cancelled.CompareAndSwap(false, true) {
		logger.Debug("sync %s cancellation requested", c.task.id)
	}
	return true
}

// IsSyncing reports whether a run is in flight.
func (c *SyncCoordinator) IsSyncing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.task != nil
}

// CurrentProgress returns the last published progress message.
func (c *SyncCoordinator) CurrentProgress() string {
	return c.progress.Current().Message
}

// Done returns the completion channel of the current run.
func (c *SyncCoordinator) Done() <-chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.task == nil {
		return closedChan
	}
	return c.task.done
}

// LastRun returns the most recent finished run.
func (c *SyncCoordinator) LastRun() (domain.SyncRun, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.lastRun == nil {
		return domain.SyncRun{}, false
	}
	return *c.lastRun, true
}

// Shutdown refuses new runs, cancels the current one and waits for it.
// If ctx expires first the engine context is cancelled as well.
func (c *SyncCoordinator) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()

	c.Cancel()

	waitCh := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(waitCh)
	}()

	select {
	case <-waitCh:
		c.cancel()
		return nil
	case <-ctx.Done():
		c.cancel()
		return ctx.Err()
	}
}

func (c *SyncCoordinator) run(t *syncTask) {
	defer c.wg.Done()

	run := domain.SyncRun{
		ID:        t.id,
		StartedAt: t.startedAt,
	}

	err := c.execute(t, &run)

	run.EndedAt = c.now()
	run.Outcome = domain.OutcomeFor(err)
	switch run.Outcome {
	case domain.OutcomeCancelled:
		run.Message = CancelledMessage
	case domain.OutcomeFailed:
		run.Message = err.Error()
	}

	c.finish(t, run)
}

// execute resolves the account and runs the engine, converting a panic
// into an error.
func (c *SyncCoordinator) execute(t *syncTask, run *domain.SyncRun) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("sync engine panicked: %v", r)
		}
	}()

	var account *domain.Account
	if c.resolver != nil {
		account, err = c.resolver.Resolve(c.ctx)
		if err != nil {
			return fmt.Errorf("resolve account: %w", err)
		}
		run.AccountID = account.ID
	}

	err = c.engine.Run(c.ctx, account, t, func(message string) {
		c.report(t, message)
	})
	if err != nil && errors.Is(err, context.Canceled) && c.ctx.Err() != nil {
		return fmt.Errorf("%w: %w", domain.ErrSyncCancelled, err)
	}
	return err
}

// report publishes engine progress unless the run already finished.
func (c *SyncCoordinator) report(t *syncTask, message string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.finished {
		return
	}
	c.progress.Publish(true, message)
}

// finish is the completion hook. It runs exactly once per run.
func (c *SyncCoordinator) finish(t *syncTask, run domain.SyncRun) {
	t.mu.Lock()
	t.finished = true
	t.mu.Unlock()

	if run.Outcome != domain.OutcomeSucceeded {
		c.progress.Publish(true, run.Message)
	}

	c.transitionMu.Lock()
	c.mu.Lock()
	c.task = nil
	c.lastRun = &run
	c.mu.Unlock()
	c.progress.Publish(false, "")
	c.transitionMu.Unlock()

	log := logger.With("run", run.ID)
	switch run.Outcome {
	case domain.OutcomeFailed:
		log.Warn("sync failed", "duration", run.Duration(), "err", run.Message)
	default:
		log.Info("sync finished", "outcome", run.Outcome, "duration", run.Duration())
	}

	ctx := context.WithoutCancel(c.ctx)
	c.metrics.RecordRun(ctx, run.Outcome, run.Duration())
	if c.recorder != nil {
		if err := c.recorder.RecordRun(ctx, run); err != nil {
			logger.Warn("failed to record sync run %s: %v", run.ID, err)
		}
	}
	if c.host != nil {
		c.host.SyncFinished(run)
	}

	t.closeDone()
}
