package progress

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

type State string

const (
	StateIdle         State = "idle"
	StateUploading    State = "uploading"
	StatePolling      State = "polling"
	StatePaused       State = "paused"
	StateCompleted    State = "completed"
	StateFailed       State = "failed"
	StateCancelled    State = "cancelled"
	StateDisconnected State = "disconnected"
	StateNotFound     State = "not_found"
)

func (s State) Terminal() bool {
	switch s {
	case StateCompleted, StateFailed, StateCancelled, StateDisconnected, StateNotFound:
		return true
	default:
		return false
	}
}

func (s State) active() bool {
	return s == StateUploading || s == StatePolling || s == StatePaused
}

// View is what a front end renders. Elapsed excludes time spent paused.
type View struct {
	State               State
	Entity              string
	TaskID              string
	Async               bool
	TaskStatus          TaskStatus
	Total               int
	Processed           int
	Percentage          float64
	SuccessCount        int
	FailedCount         int
	Failures            []RowFailure
	ErrorMessage        string
	Err                 error
	ConsecutiveFailures int
	Elapsed             time.Duration
	Paused              time.Duration
}

type uploadAPI interface {
	Upload(ctx context.Context, req UploadRequest) (UploadResult, error)
	Progress(ctx context.Context, entity, taskID string) (Snapshot, error)
}

type Config struct {
	PollInterval           time.Duration
	RetryDelay             time.Duration
	MaxConsecutiveFailures int
	MaxFileBytes           int64
	Now                    func() time.Time
}

const (
	defaultPollInterval           = 500 * time.Millisecond
	defaultRetryDelay             = time.Second
	defaultMaxConsecutiveFailures = 5
	defaultMaxFileBytes           = 50 << 20
)

var allowedExtensions = map[string]struct{}{
	".xlsx": {},
	".xlsm": {},
	".xls":  {},
}

// Controller drives one upload at a time: it posts the file, then polls the
// progress endpoint until the task reaches a terminal status. Pause and
// Cancel only affect this client; the server keeps importing either way.
type Controller struct {
	api    uploadAPI
	cfg    Config
	logger *zap.Logger

	mu        sync.Mutex
	view      View
	gen       uint64
	inFlight  bool
	timer     *time.Timer
	runCtx    context.Context
	stopRun   context.CancelFunc
	done      chan struct{}
	startedAt time.Time
	pausedAt  time.Time
	pausedFor time.Duration
	endedAt   time.Time
	listeners []func(View)
}

func NewController(api uploadAPI, cfg Config, logger *zap.Logger) *Controller {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultPollInterval
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = defaultRetryDelay
	}
	if cfg.MaxConsecutiveFailures <= 0 {
		cfg.MaxConsecutiveFailures = defaultMaxConsecutiveFailures
	}
	if cfg.MaxFileBytes <= 0 {
		cfg.MaxFileBytes = defaultMaxFileBytes
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	done := make(chan struct{})
	close(done)

	return &Controller{
		api:    api,
		cfg:    cfg,
		logger: logger,
		view:   View{State: StateIdle},
		done:   done,
	}
}

// OnChange registers fn to be called with a fresh View after every transition
// and every recorded poll.
func (c *Controller) OnChange(fn func(View)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, fn)
}

func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewLocked()
}

// ValidateFile rejects files the server would refuse, without any network call.
func (c *Controller) ValidateFile(req UploadRequest) error {
	ext := strings.ToLower(filepath.Ext(req.FileName))
	if _, ok := allowedExtensions[ext]; !ok {
		return fmt.Errorf("%w: %q is not an Excel file (.xlsx or .xls)", ErrInvalidFile, req.FileName)
	}
	if req.Content == nil {
		return fmt.Errorf("%w: %q has no content", ErrInvalidFile, req.FileName)
	}
	if req.Size > c.cfg.MaxFileBytes {
		return fmt.Errorf("%w: %d bytes exceeds the %d byte limit", ErrFileTooLarge, req.Size, c.cfg.MaxFileBytes)
	}
	return nil
}

// Submit uploads the file and blocks until the server answers. A synchronous
// answer ends the run at once; an asynchronous one starts polling in the
// background and Submit returns while the controller is polling.
func (c *Controller) Submit(ctx context.Context, req UploadRequest) (View, error) {
	if err := c.ValidateFile(req); err != nil {
		return c.View(), err
	}

	c.mu.Lock()
	if c.view.State.active() {
		v := c.viewLocked()
		c.mu.Unlock()
		return v, ErrBusy
	}
	gen := c.beginLocked(ctx, View{State: StateUploading, Entity: req.Entity, Async: req.Async})
	runCtx := c.runCtx
	c.mu.Unlock()
	c.notify()

	result, err := c.api.Upload(runCtx, req)

	c.mu.Lock()
	if gen != c.gen || c.view.State != StateUploading {
		v := c.viewLocked()
		c.mu.Unlock()
		return v, ErrCancelled
	}

	switch {
	case err != nil && runCtx.Err() != nil:
		err = ErrCancelled
		c.view.Err = err
		c.finishLocked(StateCancelled)
	case err != nil:
		c.view.Err = err
		c.finishLocked(StateFailed)
	case !result.Async:
		c.view.Async = false
		c.view.TaskStatus = TaskCompleted
		c.view.SuccessCount = result.SuccessCount
		c.view.FailedCount = result.FailedCount
		c.view.Processed = result.SuccessCount + result.FailedCount
		c.view.Total = c.view.Processed
		c.view.Percentage = 100
		c.view.Failures = result.FailedRecords
		c.finishLocked(StateCompleted)
	default:
		c.view.Async = true
		c.view.TaskID = result.TaskID
		c.view.Total = result.Total
		c.view.TaskStatus = TaskQueued
		c.view.State = StatePolling
		c.scheduleLocked(gen, 0)
	}

	v := c.viewLocked()
	c.mu.Unlock()
	c.notify()
	return v, err
}

// Attach starts polling a task that was submitted elsewhere.
func (c *Controller) Attach(ctx context.Context, entity, taskID string) error {
	c.mu.Lock()
	if c.view.State.active() {
		c.mu.Unlock()
		return ErrBusy
	}
	gen := c.beginLocked(ctx, View{State: StatePolling, Entity: entity, TaskID: taskID, Async: true})
	c.scheduleLocked(gen, 0)
	c.mu.Unlock()

	c.notify()
	return nil
}

// Pause stops scheduling polls. A poll already in flight still lands.
func (c *Controller) Pause() error {
	c.mu.Lock()
	if c.view.State != StatePolling {
		c.mu.Unlock()
		return ErrInvalidState
	}
	c.view.State = StatePaused
	c.pausedAt = c.cfg.Now()
	c.stopTimerLocked()
	c.mu.Unlock()

	c.notify()
	return nil
}

// Resume restarts polling with one immediate poll.
func (c *Controller) Resume() error {
	c.mu.Lock()
	if c.view.State != StatePaused {
		c.mu.Unlock()
		return ErrInvalidState
	}
	c.settlePauseLocked(c.cfg.Now())
	c.view.State = StatePolling
	c.scheduleLocked(c.gen, 0)
	c.mu.Unlock()

	c.notify()
	return nil
}

// Cancel aborts an upload still being posted, stops polling and drops the
// local counters. It is a no-op once the run has ended.
func (c *Controller) Cancel() {
	c.mu.Lock()
	if !c.view.State.active() {
		c.mu.Unlock()
		return
	}
	c.gen++
	entity, taskID, async := c.view.Entity, c.view.TaskID, c.view.Async
	c.finishLocked(StateCancelled)
	c.view = View{State: StateCancelled, Entity: entity, TaskID: taskID, Async: async, Err: ErrCancelled}
	c.inFlight = false
	c.mu.Unlock()

	c.notify()
}

// Wait blocks until the current run ends or ctx is done.
func (c *Controller) Wait(ctx context.Context) (View, error) {
	c.mu.Lock()
	done := c.done
	c.mu.Unlock()

	select {
	case <-done:
		v := c.View()
		return v, v.Err
	case <-ctx.Done():
		return c.View(), ctx.Err()
	}
}

func (c *Controller) poll(gen uint64) {
	c.mu.Lock()
	if gen != c.gen || c.view.State != StatePolling || c.inFlight {
		c.mu.Unlock()
		return
	}
	c.inFlight = true
	ctx, entity, taskID := c.runCtx, c.view.Entity, c.view.TaskID
	c.mu.Unlock()

	snapshot, err := c.api.Progress(ctx, entity, taskID)

	c.mu.Lock()
	if gen != c.gen || c.view.State.Terminal() {
		c.mu.Unlock()
		return
	}
	c.inFlight = false
	c.recordLocked(gen, snapshot, err)
	c.mu.Unlock()

	c.notify()
}

func (c *Controller) recordLocked(gen uint64, snapshot Snapshot, err error) {
	log := c.logger.With(zap.String("task_id", c.view.TaskID), zap.String("entity", c.view.Entity))

	switch {
	case err == nil:
		c.view.ConsecutiveFailures = 0
		c.applyLocked(snapshot)
		if snapshot.Status.Terminal() {
			state := StateCompleted
			if snapshot.Status == TaskFailed {
				state = StateFailed
			}
			log.Info("upload finished", zap.String("status", string(snapshot.Status)), zap.Int("processed", snapshot.Processed))
			c.finishLocked(state)
			return
		}
		if c.view.State == StatePolling {
			c.scheduleLocked(gen, c.cfg.PollInterval)
		}
	case errors.Is(err, ErrTaskNotFound):
		c.view.Err = err
		c.finishLocked(StateNotFound)
	case c.runCtx.Err() != nil:
		c.view.Err = ErrCancelled
		c.finishLocked(StateCancelled)
	default:
		c.view.ConsecutiveFailures++
		log.Warn("progress poll failed", zap.Int("consecutive_failures", c.view.ConsecutiveFailures), zap.Error(err))
		if c.view.ConsecutiveFailures >= c.cfg.MaxConsecutiveFailures {
			c.view.Err = fmt.Errorf("%w: %v", ErrConnectivity, err)
			c.finishLocked(StateDisconnected)
			return
		}
		if c.view.State == StatePolling {
			c.scheduleLocked(gen, c.cfg.RetryDelay)
		}
	}
}

func (c *Controller) applyLocked(snapshot Snapshot) {
	c.view.TaskStatus = snapshot.Status
	c.view.Total = snapshot.Total
	c.view.Processed = snapshot.Processed
	c.view.Percentage = snapshot.ProgressPercentage
	c.view.SuccessCount = snapshot.SuccessCount
	c.view.FailedCount = snapshot.FailedCount
	c.view.Failures = snapshot.Errors
	c.view.ErrorMessage = snapshot.ErrorMessage
}

func (c *Controller) beginLocked(parent context.Context, view View) uint64 {
	c.gen++
	c.stopTimerLocked()
	if c.stopRun != nil {
		c.stopRun()
	}
	c.runCtx, c.stopRun = context.WithCancel(parent)
	c.view = view
	c.inFlight = false
	c.startedAt = c.cfg.Now()
	c.pausedAt = time.Time{}
	c.pausedFor = 0
	c.endedAt = time.Time{}
	c.done = make(chan struct{})
	return c.gen
}

func (c *Controller) finishLocked(state State) {
	now := c.cfg.Now()
	c.settlePauseLocked(now)
	c.view.State = state
	c.endedAt = now
	c.stopTimerLocked()
	if c.stopRun != nil {
		c.stopRun()
		c.stopRun = nil
	}
	close(c.done)
}

func (c *Controller) settlePauseLocked(now time.Time) {
	if c.view.State != StatePaused {
		return
	}
	c.pausedFor += now.Sub(c.pausedAt)
	c.pausedAt = time.Time{}
}

func (c *Controller) scheduleLocked(gen uint64, delay time.Duration) {
	c.stopTimerLocked()
	c.timer = time.AfterFunc(delay, func() { c.poll(gen) })
}

func (c *Controller) stopTimerLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

func (c *Controller) viewLocked() View {
	v := c.view
	v.Failures = append([]RowFailure(nil), c.view.Failures...)
	if c.startedAt.IsZero() {
		return v
	}

	end := c.endedAt
	if end.IsZero() {
		end = c.cfg.Now()
	}
	paused := c.pausedFor
	if c.view.State == StatePaused {
		paused += end.Sub(c.pausedAt)
	}
	v.Paused = paused
	v.Elapsed = end.Sub(c.startedAt) - paused
	return v
}

func (c *Controller) notify() {
	c.mu.Lock()
	v := c.viewLocked()
	listeners := append([]func(View){}, c.listeners...)
	c.mu.Unlock()

	for _, fn := range listeners {
		fn(v)
	}
}
