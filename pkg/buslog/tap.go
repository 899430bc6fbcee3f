package buslog

import (
	"time"

	"github.com/robotalks/swali.go/pkg/can"
)

// Tap is a bus which logs every frame sent or received through it.
type Tap struct {
	can.Bus
	Logger Logger
	Now    func() time.Time
}

// NewTap wraps bus.
func NewTap(bus can.Bus, logger Logger) *Tap {
	return &Tap{Bus: bus, Logger: logger, Now: time.Now}
}

// Send implements can.Bus. Only frames accepted by the bus are logged.
func (t *Tap) Send(f can.Frame) error {
	err := t.Bus.Send(f)
	if err == nil {
		t.Logger.Log(NewRecord(t.Now(), DirectionOut, f))
	}
	return err
}

// Receive implements can.Bus.
func (t *Tap) Receive() (can.Frame, bool) {
	f, ok := t.Bus.Receive()
	if ok {
		t.Logger.Log(NewRecord(t.Now(), DirectionIn, f))
	}
	return f, ok
}

// Notify forwards the receive notification of the wrapped bus. It
// returns nil when the bus has none.
func (t *Tap) Notify() <-chan struct{} {
	if n, ok := t.Bus.(interface{ Notify() <-chan struct{} }); ok {
		return n.Notify()
	}
	return nil
}
