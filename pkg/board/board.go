package board

import (
	"context"

	"github.com/golang/glog"

	"github.com/robotalks/swali.go/pkg/can"
	fx "github.com/robotalks/swali.go/pkg/framework"
	"github.com/robotalks/swali.go/pkg/gpio"
	"github.com/robotalks/swali.go/pkg/led"
	"github.com/robotalks/swali.go/pkg/store"
	"github.com/robotalks/swali.go/pkg/swali"
	"github.com/robotalks/swali.go/pkg/timebase"
	"github.com/robotalks/swali.go/pkg/vscp"
)

// LongPress is how long the init button must be held to restart nickname
// discovery.
const LongPress timebase.Millis = 2000

// Board is a Swali node: the VSCP node, the channel layer and the
// supporting services sharing one persistent blob.
type Board struct {
	// Reboot is invoked after a boot loader request has been persisted.
	Reboot func()

	config    Config
	io        gpio.Discrete
	clock     timebase.Clock
	store     *store.Store
	blob      []byte
	led       *led.LED
	node      *vscp.Node
	layer     *swali.Layer
	scheduler *timebase.Scheduler
	button    button
	alarm     uint8
}

// New assembles a board.
func New(config Config, bus can.Bus, medium store.Medium, io gpio.Discrete, clock timebase.Clock) (*Board, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	st, err := store.Open(medium, BlobSize)
	if err != nil {
		return nil, err
	}
	b := &Board{
		config:    config,
		io:        io,
		clock:     clock,
		store:     st,
		blob:      st.Bytes(),
		led:       led.New(io, gpio.StatusLED),
		scheduler: timebase.NewScheduler(clock),
		button:    button{clock: clock, released: true},
	}
	if err = b.initBlob(); err != nil {
		return nil, err
	}
	b.node = vscp.NewNode(bus, clock, b, b)
	if b.layer, err = swali.New(config.Layout, b.blob[OffSwali:], io, b.node, clock); err != nil {
		return nil, err
	}
	b.scheduler.MustRegister(st.Update)
	b.scheduler.MustRegister(b.led.Service)
	b.scheduler.MustRegister(b.layer.ServiceTick)
	return b, nil
}

// initBlob clears the blob when the boot marker is missing.
func (b *Board) initBlob() error {
	if b.blob[OffBoot] == BootValid {
		return nil
	}
	glog.Info("board: config invalid, clearing")
	for i := range b.blob {
		b.blob[i] = 0
	}
	b.blob[OffNickname] = vscp.NicknameFree
	copy(b.blob[OffGUID:OffGUID+GUIDStored], b.config.GUID[vscp.GUIDSize-GUIDStored:])
	b.blob[OffBoot] = BootValid
	return b.store.WaitWritten()
}

// Node returns the VSCP node.
func (b *Board) Node() *vscp.Node {
	return b.node
}

// Layer returns the channel layer.
func (b *Board) Layer() *swali.Layer {
	return b.layer
}

// LED returns the status LED.
func (b *Board) LED() *led.LED {
	return b.led
}

// Store returns the persistent store.
func (b *Board) Store() *store.Store {
	return b.store
}

// GUID returns the full GUID.
func (b *Board) GUID() (guid [vscp.GUIDSize]byte) {
	guid = b.config.GUID
	copy(guid[vscp.GUIDSize-GUIDStored:], b.blob[OffGUID:OffGUID+GUIDStored])
	return
}

// HandleEvent implements vscp.EventHandler.
func (b *Board) HandleEvent(ev vscp.Event) {
	b.layer.HandleEvent(ev)
}

// AddToLoop implements framework.LoopAdder.
func (b *Board) AddToLoop(l *fx.Loop) {
	b.scheduler.AddToLoop(l)
	l.AddController(fx.PrLvProtocol, fx.ControlFunc(b.controlNode))
	l.AddController(fx.PrLvApplication, fx.ControlFunc(b.controlChannels))
}

func (b *Board) controlNode(fx.ControlContext) error {
	b.node.Process(b.button.longPress(b.io.Read(gpio.InitButton)))
	return nil
}

func (b *Board) controlChannels(fx.ControlContext) error {
	b.layer.Process()
	return nil
}

// Run runs the board in a loop until ctx is done.
func (b *Board) Run(ctx context.Context) error {
	return fx.NewLoop().Add(b).Run(ctx)
}

// button detects a long press on an active low button.
type button struct {
	clock    timebase.Clock
	start    timebase.Millis
	released bool
	fired    bool
}

// longPress reports true once when the button has been held longer than
// LongPress. It re-arms on release.
func (p *button) longPress(level bool) bool {
	if p.fired {
		if level {
			p.fired = false
			p.released = true
		}
		return false
	}
	pressed := !level
	if !pressed {
		p.released = true
		return false
	}
	now := p.clock.Now()
	if p.released {
		p.released = false
		p.start = now
	}
	if timebase.Since(now, p.start) > LongPress {
		p.fired = true
		return true
	}
	return false
}
