package vscp

import (
	"errors"
	"runtime"

	"github.com/golang/glog"

	"github.com/robotalks/swali.go/pkg/can"
	"github.com/robotalks/swali.go/pkg/timebase"
)

// Timing constants in milliseconds.
const (
	ProbeTimeout    timebase.Millis = 500
	MasterTimeout   timebase.Millis = 5000
	HeartbeatPeriod timebase.Millis = 60000
	SendTimeout     timebase.Millis = 1000
	ProbeRetries                    = 3
)

var (
	// ErrNotActive indicates the node has no nickname to send with.
	ErrNotActive = errors.New("node not active")
	// ErrProtocolClass indicates the application tried to send a protocol event.
	ErrProtocolClass = errors.New("protocol events are reserved")
	// ErrSendFailed indicates the transmit window expired.
	ErrSendFailed = errors.New("send failed")
)

// State is the node life cycle state.
type State uint8

// States.
const (
	StateStartup State = 0
	StateInit    State = 1
	StateActive  State = 2
	StateError   State = 3
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case StateStartup:
		return "startup"
	case StateInit:
		return "init"
	case StateActive:
		return "active"
	case StateError:
		return "error"
	}
	return "unknown"
}

// CounterOutcome is the result of counting an error.
type CounterOutcome int

// Counter outcomes.
const (
	CounterCounted CounterOutcome = iota
	CounterSaturated
)

// ErrorCounter is a saturating 8-bit counter.
type ErrorCounter struct {
	value uint8
}

// Inc counts one error. It never wraps.
func (c *ErrorCounter) Inc() CounterOutcome {
	if c.value == 0xff {
		return CounterSaturated
	}
	c.value++
	if c.value == 0xff {
		return CounterSaturated
	}
	return CounterCounted
}

// Value returns the count.
func (c *ErrorCounter) Value() uint8 { return c.value }

// Reset clears the counter.
func (c *ErrorCounter) Reset() { c.value = 0 }

// Node is a VSCP level 1 node. It's driven by calling Process from a
// single goroutine and is not safe for concurrent use.
type Node struct {
	bus    can.Bus
	clock  timebase.Clock
	msgs   MessageHandler
	events EventHandler

	state         State
	nickname      uint8
	probe         probeSession
	lastHeartbeat timebase.Millis
	page          uint16
	errors        ErrorCounter
}

// NewNode creates a node in Startup state. events may be nil.
func NewNode(bus can.Bus, clock timebase.Clock, msgs MessageHandler, events EventHandler) *Node {
	n := &Node{
		bus:      bus,
		clock:    clock,
		msgs:     msgs,
		events:   events,
		nickname: NicknameFree,
	}
	n.setState(StateStartup)
	return n
}

// State returns the current state.
func (n *Node) State() State { return n.state }

// Nickname returns the current nickname, NicknameFree if none.
func (n *Node) Nickname() uint8 { return n.nickname }

// Page returns the selected register page.
func (n *Node) Page() uint16 { return n.page }

// ErrorCount returns the transmit error counter.
func (n *Node) ErrorCount() uint8 { return n.errors.Value() }

// Process advances the state machine by one step, handling at most one
// received frame. forceInit restarts nickname discovery.
func (n *Node) Process(forceInit bool) {
	if forceInit && n.state != StateInit {
		glog.Info("vscp: re-initialization requested")
		n.setState(StateInit)
	}
	switch n.state {
	case StateStartup:
		n.handleStartup()
	case StateInit:
		n.handleInit()
	case StateActive:
		n.handleActive()
	case StateError:
		// Only a reset leaves the error state.
	}
}

// Send transmits an application event. Protocol events are reserved and
// nothing is sent unless the node is active.
func (n *Node) Send(ev Event) error {
	if ev.Class == ClassProtocol {
		return ErrProtocolClass
	}
	if n.state != StateActive {
		return ErrNotActive
	}
	return n.sendEvent(ev)
}

func (n *Node) setState(state State) {
	switch state {
	case StateInit:
		n.prepareInit()
	case StateActive:
		n.prepareActive()
	}
	glog.Infof("vscp: state %s", state)
	n.state = state
	n.setMsgValue(MsgState, 0, uint8(state))
}

func (n *Node) handleStartup() {
	if nick, ok := n.getMsgValue(MsgNickname, 0); ok && nick != NicknameFree {
		n.nickname = nick
		n.setState(StateActive)
		return
	}
	n.setState(StateInit)
}

func (n *Node) prepareActive() {
	n.sendProtocol(ProtocolNewNodeOnline, n.nickname)
	n.lastHeartbeat = n.clock.Now()
	n.page = 0
}

func (n *Node) handleActive() {
	if timebase.Since(n.clock.Now(), n.lastHeartbeat) > HeartbeatPeriod {
		n.sendEvent(NewEvent(PriorityLow, ClassInformation, InformationNodeHeartbeat, 0, 0, 0))
		n.lastHeartbeat = n.clock.Now()
	}
	ev, ok := n.receive()
	if !ok {
		return
	}
	if ev.Class == ClassProtocol {
		n.handleProtocol(ev)
		return
	}
	if n.events != nil {
		n.events.HandleEvent(ev)
	}
}

// adopt takes a nickname and persists it through the application.
func (n *Node) adopt(nick uint8) {
	n.nickname = nick
	n.setMsgValue(MsgNickname, 0, nick)
	glog.Infof("vscp: nickname %02x", nick)
}

func (n *Node) receive() (Event, bool) {
	f, ok := n.bus.Receive()
	if !ok {
		return Event{}, false
	}
	ev, err := EventFromFrame(f)
	if err != nil {
		glog.V(3).Infof("vscp: discard %s: %v", f, err)
		return Event{}, false
	}
	glog.V(2).Infof("vscp: RCV %s", ev)
	return ev, true
}

func (n *Node) sendProtocol(typ uint8, data ...byte) {
	n.sendEvent(NewEvent(PriorityHigh, ClassProtocol, typ, data...))
}

// sendEvent stamps the nickname and retries the transmit path for up to
// SendTimeout. A failure is counted and the event dropped.
func (n *Node) sendEvent(ev Event) error {
	ev.Nickname = n.nickname
	f, err := ev.Frame()
	if err != nil {
		glog.Warningf("vscp: drop %s: %v", ev, err)
		return err
	}
	start := n.clock.Now()
	for {
		if err = n.bus.Send(f); err == nil {
			glog.V(2).Infof("vscp: SND %s", ev)
			return nil
		}
		if timebase.Since(n.clock.Now(), start) >= SendTimeout {
			break
		}
		runtime.Gosched()
	}
	if n.errors.Inc() == CounterSaturated {
		glog.Warningf("vscp: error counter saturated")
	}
	glog.Warningf("vscp: drop %s: %v", ev, err)
	return ErrSendFailed
}
