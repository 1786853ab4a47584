package autosave

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// DefaultDelay is the quiescence period before a staged edit is committed.
const DefaultDelay = 30 * time.Second

// CommitFunc persists a staged edit.
type CommitFunc func() error

// Timer is the part of *time.Timer the coordinator relies on.
type Timer interface {
	Stop() bool
}

// AfterFunc schedules f after d, like time.AfterFunc.
type AfterFunc func(d time.Duration, f func()) Timer

func realAfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Coordinator debounces commits: only the last commit armed within the
// delay runs. At most one commit is pending at any time.
type Coordinator struct {
	mu         sync.Mutex
	delay      time.Duration
	afterFunc  AfterFunc
	timer      Timer
	pending    CommitFunc
	generation uint64
	onError    func(error)
	logger     *zap.Logger
}

// Option customises a Coordinator.
type Option func(*Coordinator)

// WithAfterFunc replaces the timer source.
func WithAfterFunc(fn AfterFunc) Option {
	return func(c *Coordinator) { c.afterFunc = fn }
}

// WithErrorHandler receives errors returned by timer-driven commits.
func WithErrorHandler(fn func(error)) Option {
	return func(c *Coordinator) { c.onError = fn }
}

// NewCoordinator builds a coordinator; a non-positive delay uses DefaultDelay.
func NewCoordinator(delay time.Duration, logger *zap.Logger, opts ...Option) *Coordinator {
	if delay <= 0 {
		delay = DefaultDelay
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Coordinator{delay: delay, afterFunc: realAfterFunc, logger: logger}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Arm schedules commit after the delay, replacing any pending commit.
func (c *Coordinator) Arm(commit CommitFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stopLocked()
	c.generation++
	gen := c.generation
	c.pending = commit
	c.timer = c.afterFunc(c.delay, func() { c.fire(gen) })
}

// Cancel drops the pending commit. Cancelling after the commit fired is a no-op.
func (c *Coordinator) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopLocked()
	c.generation++
}

// Flush cancels the timer and runs the pending commit synchronously.
// It reports whether a commit was pending.
func (c *Coordinator) Flush() (bool, error) {
	c.mu.Lock()
	commit := c.pending
	c.stopLocked()
	c.generation++
	c.mu.Unlock()

	if commit == nil {
		return false, nil
	}
	return true, commit()
}

// Pending reports whether a commit is scheduled.
func (c *Coordinator) Pending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending != nil
}

func (c *Coordinator) fire(gen uint64) {
	c.mu.Lock()
	if gen != c.generation || c.pending == nil {
		c.mu.Unlock()
		return
	}
	commit := c.pending
	c.pending = nil
	c.timer = nil
	c.generation++
	c.mu.Unlock()

	if err := commit(); err != nil {
		c.logger.Warn("autosave commit failed", zap.Error(err))
		if c.onError != nil {
			c.onError(err)
		}
	}
}

func (c *Coordinator) stopLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.pending = nil
}
