package framework

import (
	"context"
	"sync"
	"time"

	"github.com/golang/glog"
)

// DefaultInterval is the loop interval when none is specified.
const DefaultInterval = time.Millisecond

// Loop runs controllers cooperatively, one pass per iteration, in the
// order of priority levels. Nothing is queued between controllers:
// each iteration simply calls every controller once.
type Loop struct {
	Interval time.Duration

	controllers [PriorityLevels][]Controller
	runners     []Runnable

	lock      sync.Mutex
	iteration uint64
	wakeUpCh  chan struct{}
}

// LoopAdder provides specific logic to add components to loop.
type LoopAdder interface {
	AddToLoop(*Loop)
}

type loopIteration struct {
	loop          *Loop
	ctx           context.Context
	time          time.Time
	seq           uint64
	priorityLevel int
}

// NewLoop creates a Loop.
func NewLoop() *Loop {
	return &Loop{Interval: DefaultInterval}
}

// Add adds LoopAdders.
func (l *Loop) Add(adders ...LoopAdder) *Loop {
	for _, adder := range adders {
		adder.AddToLoop(l)
	}
	return l
}

// AddController registers controllers at the priority level.
// Controllers implementing Runnable are also started with the loop.
func (l *Loop) AddController(priorityLevel int, ctls ...Controller) *Loop {
	l.lock.Lock()
	defer l.lock.Unlock()
	l.controllers[priorityLevel] = append(l.controllers[priorityLevel], ctls...)
	for _, ctl := range ctls {
		if runner, ok := ctl.(Runnable); ok {
			l.runners = append(l.runners, runner)
		}
	}
	return l
}

// AddRunnable adds Runnable implementions.
func (l *Loop) AddRunnable(runnables ...Runnable) *Loop {
	l.lock.Lock()
	l.runners = append(l.runners, runnables...)
	l.lock.Unlock()
	return l
}

// Run implements Runnable.
func (l *Loop) Run(ctx context.Context) error {
	l.lock.Lock()
	if l.wakeUpCh == nil {
		l.wakeUpCh = make(chan struct{}, 1)
	}
	runners := append([]Runnable(nil), l.runners...)
	l.lock.Unlock()

	runCtx, cancel := context.WithCancel(ctx)
	runner := NewRunnerWith(runCtx).Go(runners...)
	defer func() {
		cancel()
		if err := runner.Wait(); err != nil {
			glog.Errorf("loop runners: %v", err)
		}
	}()

	interval := l.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			l.RunOnce(ctx)
		case <-l.wakeUpCh:
			l.RunOnce(ctx)
		}
	}
}

// RunOnce executes a single iteration synchronously.
func (l *Loop) RunOnce(ctx context.Context) {
	l.lock.Lock()
	l.iteration++
	iter := &loopIteration{loop: l, ctx: ctx, time: time.Now(), seq: l.iteration}
	var levels [PriorityLevels][]Controller
	for n, ctls := range l.controllers {
		levels[n] = ctls
	}
	l.lock.Unlock()
	for n, ctls := range levels {
		iter.priorityLevel = n
		for _, ctl := range ctls {
			if err := ctl.Control(iter); err != nil {
				glog.Errorf("controller error: %v", err)
			}
		}
	}
}

// TriggerNext implements LoopControl.
func (l *Loop) TriggerNext() {
	l.lock.Lock()
	ch := l.wakeUpCh
	l.lock.Unlock()
	if ch == nil {
		return
	}
	select {
	case ch <- struct{}{}:
	default:
	}
}

func (t *loopIteration) Context() context.Context { return t.ctx }
func (t *loopIteration) Time() time.Time          { return t.time }
func (t *loopIteration) Iteration() uint64        { return t.seq }
func (t *loopIteration) PriorityLevel() int       { return t.priorityLevel }
func (t *loopIteration) TriggerNext()             { t.loop.TriggerNext() }
