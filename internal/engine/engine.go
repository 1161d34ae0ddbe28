// Package engine abstracts the scheduler that drives an observer's sampling
// work. The observers only need a way to run N tasks; what a task samples is
// supplied by the caller.
package engine

import "context"

// Engine runs sampling tasks on behalf of an observer. Implementations decide
// how tasks are scheduled; the observer core treats the engine as opaque.
//
// Engines may be shared between observers. A shared instance is deliberate
// aliasing: tuning it through one observer tunes it for every observer holding
// the same instance.
type Engine interface {
	// Run executes fn for task indices [0, tasks). It stops at the first
	// task error or when ctx is cancelled.
	Run(ctx context.Context, tasks int, fn func(task int) error) error
}

// Serial runs tasks sequentially on the calling goroutine.
type Serial struct {
	// TasksPerUpdate controls how often long runs yield to ctx checks.
	// Zero means check before every task.
	TasksPerUpdate int
}

// NewSerial returns a sequential engine.
func NewSerial() *Serial {
	return &Serial{}
}

// SetTasksPerUpdate tunes the cancellation check interval. Observers sharing
// this engine instance all see the change.
func (e *Serial) SetTasksPerUpdate(n int) {
	e.TasksPerUpdate = n
}

// Run implements Engine.
func (e *Serial) Run(ctx context.Context, tasks int, fn func(task int) error) error {
	stride := e.TasksPerUpdate
	if stride < 1 {
		stride = 1
	}
	for i := 0; i < tasks; i++ {
		if i%stride == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		if err := fn(i); err != nil {
			return err
		}
	}
	return nil
}
