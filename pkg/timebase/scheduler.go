package timebase

import (
	"errors"
	"fmt"

	"github.com/golang/glog"

	fx "github.com/robotalks/swali.go/pkg/framework"
)

// MaxCallbacks is the capacity of the callback table.
const MaxCallbacks = 5

// ErrTableFull indicates no free slot is left in the callback table.
var ErrTableFull = errors.New("callback table full")

// Callback is invoked once per tick.
type Callback func()

// Scheduler is a fixed-capacity periodic callback table. Service runs
// all registered callbacks once, in registration order.
type Scheduler struct {
	Clock Clock

	callbacks [MaxCallbacks]Callback
	count     int
	last      Millis
	started   bool
}

// NewScheduler creates a Scheduler ticking by clock.
func NewScheduler(clock Clock) *Scheduler {
	return &Scheduler{Clock: clock}
}

// Register adds a callback.
func (s *Scheduler) Register(cb Callback) error {
	if s.count >= MaxCallbacks {
		return ErrTableFull
	}
	s.callbacks[s.count] = cb
	s.count++
	return nil
}

// MustRegister adds a callback and panics when the table is full.
// Running out of slots is a build-time configuration error.
func (s *Scheduler) MustRegister(cb Callback) {
	if err := s.Register(cb); err != nil {
		panic(fmt.Sprintf("timebase: register callback %d: %v", s.count+1, err))
	}
}

// Len returns the number of registered callbacks.
func (s *Scheduler) Len() int {
	return s.count
}

// Service executes one tick.
func (s *Scheduler) Service() {
	for _, cb := range s.callbacks[:s.count] {
		cb()
	}
}

// Control implements framework.Controller. It runs one tick for every
// millisecond elapsed since the previous iteration.
func (s *Scheduler) Control(fx.ControlContext) error {
	now := s.Clock.Now()
	if !s.started {
		s.started, s.last = true, now
		s.Service()
		return nil
	}
	elapsed := Since(now, s.last)
	if elapsed > 100 {
		glog.V(3).Infof("timebase: %d ticks behind, coalescing", elapsed)
		elapsed = 100
	}
	for ; elapsed > 0; elapsed-- {
		s.Service()
	}
	s.last = now
	return nil
}

// AddToLoop implements framework.LoopAdder.
func (s *Scheduler) AddToLoop(l *fx.Loop) {
	l.AddController(fx.PrLvTick, s)
}
