package framework

import (
	"context"
	"time"
)

// Named is an abstraction for things with a name.
type Named interface {
	Name() string
}

// Runnable defines a generic interface for background runners.
type Runnable interface {
	Run(context.Context) error
}

// RunFunc is the func form of Runnable.
type RunFunc func(context.Context) error

// Run implements Runnable.
func (f RunFunc) Run(ctx context.Context) error {
	return f(ctx)
}

// Controller defines one step of cooperative processing
// executed once per loop iteration.
type Controller interface {
	Control(ControlContext) error
}

// ControlFunc defines the func form of Controller.
type ControlFunc func(ControlContext) error

// Control implements Controller.
func (f ControlFunc) Control(ctx ControlContext) error {
	return f(ctx)
}

// ControlContext provides the context of current control
// iteration.
type ControlContext interface {
	// Context retrieves context.Context.
	Context() context.Context
	// Time is the wall time when the iteration started.
	Time() time.Time
	// Iteration is the sequence number of the iteration, starting from 1.
	Iteration() uint64
	// PriorityLevel gets the current priority level.
	PriorityLevel() int

	LoopControl
}

// LoopControl exposes access to the controlling loop.
type LoopControl interface {
	// TriggerNext schedules the next iteration to be executed
	// immediately after the current iteration.
	TriggerNext()
}

// PriorityLevels is the total levels of priorities.
const PriorityLevels int = 4

// Predefined priority levels, executed in ascending order.
const (
	// PrLvTick runs timebase services before anything else.
	PrLvTick int = 0
	// PrLvProtocol runs bus protocol processing.
	PrLvProtocol int = 1
	// PrLvApplication runs application processing.
	PrLvApplication int = 2
	// PrLvIdle runs house keeping.
	PrLvIdle int = PriorityLevels - 1
)
