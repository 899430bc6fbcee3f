package led

import "github.com/robotalks/swali.go/pkg/gpio"

// Blink half periods, in ticks.
const (
	FastRate = 100
	SlowRate = 500
)

// State is the LED pattern.
type State uint8

// LED patterns.
const (
	Off State = iota
	On
	BlinkFast
	BlinkSlow
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case Off:
		return "off"
	case On:
		return "on"
	case BlinkFast:
		return "blink-fast"
	case BlinkSlow:
		return "blink-slow"
	}
	return "unknown"
}

// LED drives a status LED on a discrete output. Service is expected to be
// called once per millisecond tick.
type LED struct {
	io      gpio.Discrete
	id      uint8
	state   State
	counter int
	lit     bool
}

// New creates an LED which is off.
func New(io gpio.Discrete, id uint8) *LED {
	return &LED{io: io, id: id}
}

// Set selects the pattern.
func (l *LED) Set(state State) {
	l.state = state
}

// State returns the selected pattern.
func (l *LED) State() State {
	return l.state
}

// Service advances the pattern and updates the output.
func (l *LED) Service() {
	switch l.state {
	case Off:
		l.lit = false
	case On:
		l.lit = true
	case BlinkFast:
		l.blink(FastRate)
	case BlinkSlow:
		l.blink(SlowRate)
	}
	l.io.Write(l.id, l.lit)
}

func (l *LED) blink(rate int) {
	l.counter++
	if l.counter > rate {
		l.counter = 0
		l.lit = !l.lit
	}
}
