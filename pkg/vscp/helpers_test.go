package vscp

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/swali.go/pkg/can"
	"github.com/robotalks/swali.go/pkg/timebase"
)

// fakeApp is a minimal application answering node messages.
type fakeApp struct {
	nickname  byte
	states    []State
	guid      [GUIDSize]byte
	mdf       string
	bootAlg   int
	userID    [UserIDSize]byte
	alarm     byte
	enterBoot int
	regs      map[uint32]byte
	events    []Event
}

func newFakeApp() *fakeApp {
	a := &fakeApp{nickname: NicknameFree, bootAlg: -1, regs: make(map[uint32]byte)}
	for i := range a.guid {
		a.guid[i] = byte(0xa0 + i)
	}
	a.mdf = "http://swali.example/mdf.xml"
	return a
}

func regKey(reg uint8, page uint16) uint32 {
	return uint32(page)<<8 | uint32(reg)
}

func (a *fakeApp) HandleMessage(m *Message) {
	idx := m.Index()
	switch m.ID() {
	case MsgState:
		if !m.IsGet() {
			a.states = append(a.states, State(m.SetValue()))
		}
	case MsgNickname:
		if m.IsGet() {
			m.Reply(a.nickname)
		} else {
			a.nickname = m.SetValue()
		}
	case MsgRegValue:
		reg, page := m.Register()
		if m.IsGet() {
			if v, ok := a.regs[regKey(reg, page)]; ok {
				m.ReplyRegister(v)
			}
		} else {
			a.regs[regKey(reg, page)] = m.RegisterValue()
		}
	case MsgGUID:
		if m.IsGet() && int(idx) < GUIDSize {
			m.Reply(a.guid[idx])
		}
	case MsgMDF:
		if m.IsGet() {
			if int(idx) < len(a.mdf) {
				m.Reply(a.mdf[idx])
			} else {
				m.Reply(0)
			}
		}
	case MsgBootAlg:
		if m.IsGet() && a.bootAlg >= 0 {
			m.Reply(byte(a.bootAlg))
		}
	case MsgEnterBoot:
		a.enterBoot++
	case MsgUserID:
		if int(idx) >= UserIDSize {
			return
		}
		if m.IsGet() {
			m.Reply(a.userID[idx])
		} else {
			a.userID[idx] = m.SetValue()
		}
	case MsgAlarmStatus:
		if m.IsGet() {
			m.Reply(a.alarm)
		} else {
			a.alarm = m.SetValue()
		}
	case MsgDMInfo:
		if m.IsGet() && idx < DMInfoSize {
			m.Reply(idx + 1)
		}
	case MsgMfgID:
		if m.IsGet() && idx < MfgIDSize {
			m.Reply(0x10 + idx)
		}
	case MsgPagesUsed:
		if m.IsGet() {
			m.Reply(3)
		}
	}
}

func (a *fakeApp) HandleEvent(ev Event) {
	a.events = append(a.events, ev)
}

type harness struct {
	t     *testing.T
	clock *timebase.Manual
	port  *can.LoopbackPort
	peer  *can.LoopbackPort
	app   *fakeApp
	node  *Node
}

func newHarness(t *testing.T, app *fakeApp) *harness {
	bus := can.NewLoopback(t.Name())
	h := &harness{
		t:     t,
		clock: &timebase.Manual{},
		port:  bus.Attach(),
		peer:  bus.Attach(),
		app:   app,
	}
	h.node = NewNode(h.port, h.clock, app, app)
	return h
}

// activeHarness creates a node which starts with a stored nickname and
// discards the announcement.
func activeHarness(t *testing.T, nick uint8) *harness {
	app := newFakeApp()
	app.nickname = nick
	h := newHarness(t, app)
	h.node.Process(false)
	require.Equal(t, StateActive, h.node.State())
	h.sent()
	return h
}

// inject puts an event on the bus as if sent by another node.
func (h *harness) inject(from uint8, ev Event) {
	ev.Nickname = from
	f, err := ev.Frame()
	require.NoError(h.t, err)
	require.NoError(h.t, h.peer.Send(f))
}

// request injects a protocol event from the master and processes it.
func (h *harness) request(typ uint8, data ...byte) []Event {
	h.inject(NicknameMaster, NewEvent(PriorityHigh, ClassProtocol, typ, data...))
	h.node.Process(false)
	return h.sent()
}

// sent drains the frames the node put on the bus.
func (h *harness) sent() []Event {
	var events []Event
	for {
		f, ok := h.peer.Receive()
		if !ok {
			return events
		}
		ev, err := EventFromFrame(f)
		require.NoError(h.t, err)
		events = append(events, ev)
	}
}

func protocolEvent(nick, typ uint8, data ...byte) Event {
	ev := NewEvent(PriorityHigh, ClassProtocol, typ, data...)
	ev.Nickname = nick
	return ev
}
