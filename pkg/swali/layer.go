package swali

import (
	"errors"
	"fmt"

	"github.com/golang/glog"

	"github.com/robotalks/swali.go/pkg/gpio"
	"github.com/robotalks/swali.go/pkg/timebase"
	"github.com/robotalks/swali.go/pkg/vscp"
)

// ErrReentrantSend is returned when Send is called from an event handler
// running in the feedback dispatch.
var ErrReentrantSend = errors.New("send from event handler")

// Sender transmits events on the bus.
type Sender interface {
	Send(ev vscp.Event) error
}

// Layer maps discrete inputs and outputs to channels. Events sent by a
// channel go to the bus and are fed back to every local channel, so
// channels on the same node see each other without a bus round trip.
//
// The layer is driven from a single goroutine.
type Layer struct {
	layout Layout
	io     gpio.Discrete
	sender Sender
	clock  timebase.Clock

	channels    []channel
	inputs      []*input
	counter     uint8
	dispatching bool
}

// New creates the layer on top of the config region blob. Channel config
// stays in blob and is modified in place by register writes.
func New(layout Layout, blob []byte, io gpio.Discrete, sender Sender, clock timebase.Clock) (*Layer, error) {
	if err := layout.Validate(); err != nil {
		return nil, err
	}
	if size := layout.ConfigSize(); size > len(blob) {
		return nil, fmt.Errorf("%w: %d > %d bytes", ErrConfigTooLarge, size, len(blob))
	}
	l := &Layer{
		layout:   layout,
		io:       io,
		sender:   sender,
		clock:    clock,
		channels: make([]channel, layout.Channels()),
	}
	off := 0
	for ch := range l.channels {
		switch layout.KindOf(ch) {
		case KindInput:
			in := newInput(l, uint8(ch), config(blob[off:off+InputConfigSize]))
			off += InputConfigSize
			l.inputs = append(l.inputs, in)
			l.channels[ch] = in
		case KindOutput:
			l.channels[ch] = newOutput(l, uint8(ch), config(blob[off:off+OutputConfigSize]))
			off += OutputConfigSize
		}
	}
	glog.V(1).Infof("swali: %s", layout)
	return l, nil
}

// Layout returns the channel layout.
func (l *Layer) Layout() Layout {
	return l.layout
}

// Pages returns the number of register pages, one per channel.
func (l *Layer) Pages() int {
	return len(l.channels)
}

// Send transmits ev and feeds it back to all channels.
func (l *Layer) Send(ev vscp.Event) error {
	if l.dispatching {
		return ErrReentrantSend
	}
	err := l.sender.Send(ev)
	l.dispatch(ev)
	return err
}

func (l *Layer) send(ev vscp.Event) {
	if err := l.Send(ev); err != nil {
		glog.Warningf("swali: send %s: %v", ev, err)
	}
}

// HandleEvent implements vscp.EventHandler.
func (l *Layer) HandleEvent(ev vscp.Event) {
	l.dispatch(ev)
}

func (l *Layer) dispatch(ev vscp.Event) {
	l.dispatching = true
	defer func() { l.dispatching = false }()
	for _, ch := range l.channels {
		ch.handleEvent(ev)
	}
}

// Process runs all channel state machines once.
func (l *Layer) Process() {
	for _, ch := range l.channels {
		ch.process()
	}
}

// ServiceTick samples inputs, one tick per millisecond.
func (l *Layer) ServiceTick() {
	for _, in := range l.inputs {
		in.sample(l.counter)
	}
	l.counter++
}

// ReadRegister reads a channel register. Pages beyond the last channel
// read as 0.
func (l *Layer) ReadRegister(page uint16, reg uint8) uint8 {
	if int(page) >= len(l.channels) {
		return 0
	}
	return l.channels[page].readRegister(reg)
}

// WriteRegister writes a channel register. Writes to pages beyond the
// last channel are ignored.
func (l *Layer) WriteRegister(page uint16, reg, value uint8) {
	if int(page) >= len(l.channels) {
		return
	}
	l.channels[page].writeRegister(reg, value)
}

// ChannelInfo returns a snapshot of channel ch.
func (l *Layer) ChannelInfo(ch int) (ChannelInfo, bool) {
	if ch < 0 || ch >= len(l.channels) {
		return ChannelInfo{}, false
	}
	return l.channels[ch].info(), true
}
