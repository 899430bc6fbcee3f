package vscp

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/swali.go/pkg/can"
	"github.com/robotalks/swali.go/pkg/timebase"
)

func TestStartupWithStoredNickname(t *testing.T) {
	app := newFakeApp()
	app.nickname = 0x12
	h := newHarness(t, app)
	require.Equal(t, StateStartup, h.node.State())

	h.node.Process(false)
	require.Equal(t, StateActive, h.node.State())
	require.Equal(t, uint8(0x12), h.node.Nickname())
	require.Equal(t, []State{StateStartup, StateActive}, app.states)
	require.Equal(t, []Event{protocolEvent(0x12, ProtocolNewNodeOnline, 0x12)}, h.sent())
}

func TestStartupWithoutNickname(t *testing.T) {
	h := newHarness(t, newFakeApp())
	h.node.Process(false)
	require.Equal(t, StateInit, h.node.State())
	require.Equal(t, NicknameFree, h.node.Nickname())
	require.Empty(t, h.sent())

	h.node.Process(false)
	require.Equal(t, []Event{protocolEvent(NicknameFree, ProtocolNewNodeOnline, NicknameMaster)}, h.sent())
}

// runInit processes the node in 100ms steps, calling respond for every
// frame the node sends, until it leaves Init.
func runInit(t *testing.T, h *harness, respond func(Event)) []Event {
	var all []Event
	for step := 0; step < 100000 && h.node.State() != StateActive && h.node.State() != StateError; step++ {
		h.node.Process(false)
		for _, ev := range h.sent() {
			all = append(all, ev)
			if respond != nil {
				respond(ev)
			}
		}
		h.clock.Advance(100)
	}
	require.NotEqual(t, StateInit, h.node.State(), "stuck in init")
	return all
}

func probesFor(events []Event, candidate uint8) int {
	var count int
	for _, ev := range events {
		if ev.Is(ClassProtocol, ProtocolNewNodeOnline) && ev.Nickname == NicknameFree && ev.Data[0] == candidate {
			count++
		}
	}
	return count
}

func TestProbeClaimsFirstFreeNickname(t *testing.T) {
	h := newHarness(t, newFakeApp())
	events := runInit(t, h, nil)

	require.Equal(t, StateActive, h.node.State())
	require.Equal(t, uint8(1), h.node.Nickname())
	require.Equal(t, uint8(1), h.app.nickname, "nickname persisted")
	require.Equal(t, ProbeRetries, probesFor(events, NicknameMaster))
	require.Equal(t, ProbeRetries, probesFor(events, 1))
	require.Equal(t, protocolEvent(1, ProtocolNewNodeOnline, 1), events[len(events)-1])
}

func TestProbeSkipsTakenNickname(t *testing.T) {
	h := newHarness(t, newFakeApp())
	events := runInit(t, h, func(ev Event) {
		if ev.Is(ClassProtocol, ProtocolNewNodeOnline) && ev.Nickname == NicknameFree {
			if c := ev.Data[0]; c == 1 || c == 2 {
				h.inject(c, NewEvent(PriorityHigh, ClassProtocol, ProtocolProbeAck))
			}
		}
	})
	require.Equal(t, uint8(3), h.node.Nickname())
	require.Equal(t, 1, probesFor(events, 1))
	require.Equal(t, 1, probesFor(events, 2))
	require.Equal(t, ProbeRetries, probesFor(events, 3))
}

func TestProbeIgnoresAckWithPayload(t *testing.T) {
	h := newHarness(t, newFakeApp())
	runInit(t, h, func(ev Event) {
		if ev.Is(ClassProtocol, ProtocolNewNodeOnline) && ev.Nickname == NicknameFree && ev.Data[0] == 1 {
			h.inject(1, NewEvent(PriorityHigh, ClassProtocol, ProtocolProbeAck, 1))
		}
	})
	require.Equal(t, uint8(1), h.node.Nickname())
}

func TestProbeMasterAssignsNickname(t *testing.T) {
	h := newHarness(t, newFakeApp())
	events := runInit(t, h, func(ev Event) {
		switch {
		case ev.Is(ClassProtocol, ProtocolNewNodeOnline) && ev.Nickname == NicknameFree && ev.Data[0] == NicknameMaster:
			h.inject(NicknameMaster, NewEvent(PriorityHigh, ClassProtocol, ProtocolProbeAck))
			h.inject(NicknameMaster, NewEvent(PriorityHigh, ClassProtocol, ProtocolSetNickname, 0x33, 0x40))
			h.inject(NicknameMaster, NewEvent(PriorityHigh, ClassProtocol, ProtocolSetNickname, NicknameFree, 0x42))
		}
	})
	require.Equal(t, StateActive, h.node.State())
	require.Equal(t, uint8(0x42), h.node.Nickname())
	require.Equal(t, uint8(0x42), h.app.nickname)
	require.Equal(t, []Event{
		protocolEvent(NicknameFree, ProtocolNewNodeOnline, NicknameMaster),
		protocolEvent(0x42, ProtocolNicknameAccepted),
		protocolEvent(0x42, ProtocolNewNodeOnline, 0x42),
	}, events)
}

func TestProbeMasterTimeout(t *testing.T) {
	h := newHarness(t, newFakeApp())
	var ackAt timebase.Millis
	events := runInit(t, h, func(ev Event) {
		if ev.Is(ClassProtocol, ProtocolNewNodeOnline) && ev.Nickname == NicknameFree && ev.Data[0] == NicknameMaster {
			ackAt = h.clock.Now()
			h.inject(NicknameMaster, NewEvent(PriorityHigh, ClassProtocol, ProtocolProbeAck))
		}
	})
	require.Equal(t, 1, probesFor(events, NicknameMaster))
	require.Equal(t, uint8(1), h.node.Nickname())
	require.True(t, timebase.Since(h.clock.Now(), ackAt) > MasterTimeout)
}

func TestProbeAddressExhausted(t *testing.T) {
	h := newHarness(t, newFakeApp())
	events := runInit(t, h, func(ev Event) {
		if ev.Is(ClassProtocol, ProtocolNewNodeOnline) && ev.Nickname == NicknameFree && ev.Data[0] != NicknameMaster {
			h.inject(ev.Data[0], NewEvent(PriorityHigh, ClassProtocol, ProtocolProbeAck))
		}
	})
	require.Equal(t, StateError, h.node.State())
	require.Equal(t, NicknameFree, h.app.nickname)
	require.Equal(t, protocolEvent(NicknameFree, ProtocolProbeAck, NicknameFree), events[len(events)-1])
	require.Equal(t, 1, probesFor(events, 0xfe))
	require.Equal(t, StateError, h.app.states[len(h.app.states)-1])

	for i := 0; i < 10; i++ {
		h.clock.Advance(10000)
		h.node.Process(false)
	}
	require.Empty(t, h.sent(), "silent in error state")
}

func TestProbeSessionOutcomes(t *testing.T) {
	var p probeSession
	p.reset()
	require.Equal(t, ProbeContinue, p.timeout())
	require.Equal(t, ProbeContinue, p.timeout())
	require.Equal(t, ProbeContinue, p.timeout(), "master silent moves on")
	require.Equal(t, uint8(1), p.candidate)
	require.Equal(t, ProbeContinue, p.timeout())
	require.Equal(t, ProbeContinue, p.timeout())
	require.Equal(t, ProbeClaimed, p.timeout())

	p.candidate = 0xfe
	require.Equal(t, ProbeAddressExhausted, p.advance())
	require.Equal(t, NicknameFree, p.candidate)
}

func TestNicknamePersistsAcrossRestart(t *testing.T) {
	app := newFakeApp()
	h := newHarness(t, app)
	runInit(t, h, nil)
	require.Equal(t, uint8(1), app.nickname)

	app.states = nil
	restarted := newHarness(t, app)
	restarted.node.Process(false)
	require.Equal(t, StateActive, restarted.node.State())
	require.Equal(t, []State{StateStartup, StateActive}, app.states)
}

func TestForceInit(t *testing.T) {
	h := activeHarness(t, 0x20)
	h.node.Process(true)
	require.Equal(t, StateInit, h.node.State())
	require.Equal(t, NicknameFree, h.node.Nickname())
	require.Equal(t, []Event{protocolEvent(NicknameFree, ProtocolNewNodeOnline, NicknameMaster)}, h.sent())

	// already in init: no restart
	h.node.Process(true)
	require.Empty(t, h.sent())
}

func TestHeartbeat(t *testing.T) {
	h := activeHarness(t, 0x20)
	h.clock.Advance(int(HeartbeatPeriod))
	h.node.Process(false)
	require.Empty(t, h.sent())

	h.clock.Advance(1)
	h.node.Process(false)
	hb := NewEvent(PriorityLow, ClassInformation, InformationNodeHeartbeat, 0, 0, 0)
	hb.Nickname = 0x20
	require.Equal(t, []Event{hb}, h.sent())

	h.node.Process(false)
	require.Empty(t, h.sent())
}

func TestForwardEvents(t *testing.T) {
	h := activeHarness(t, 0x20)
	ev := NewEvent(PriorityMedium, ClassControl, ControlTurnOn, 0, 1, 2)
	h.inject(0x30, ev)
	h.node.Process(false)
	ev.Nickname = 0x30
	require.Equal(t, []Event{ev}, h.app.events)
}

func TestDiscardMalformedFrames(t *testing.T) {
	h := activeHarness(t, 0x20)
	require.NoError(t, h.peer.Send(can.Frame{ID: 0x123, Len: 1}))
	require.NoError(t, h.peer.Send(can.Frame{ID: 0x0c1e0530, Extended: true, Remote: true}))
	h.node.Process(false)
	h.node.Process(false)
	require.Empty(t, h.app.events)
	require.Empty(t, h.sent())
}

func TestSendRules(t *testing.T) {
	h := newHarness(t, newFakeApp())
	ev := NewEvent(PriorityMedium, ClassControl, ControlTurnOn, 0, 1, 2)
	require.Equal(t, ErrNotActive, h.node.Send(ev))

	h = activeHarness(t, 0x20)
	require.Equal(t, ErrProtocolClass, h.node.Send(NewEvent(PriorityHigh, ClassProtocol, ProtocolProbeAck)))
	require.NoError(t, h.node.Send(ev))
	ev.Nickname = 0x20
	require.Equal(t, []Event{ev}, h.sent())
}

func TestSendRetriesAndSaturates(t *testing.T) {
	bus := can.NewLoopback(t.Name())
	port, peer := bus.Attach(), bus.Attach()
	app := newFakeApp()
	app.nickname = 0x20
	var now timebase.Millis
	clock := timebase.ClockFunc(func() timebase.Millis {
		now += 200
		return now
	})
	node := NewNode(port, clock, app, app)
	node.Process(false)
	require.Equal(t, StateActive, node.State())
	_, ok := peer.Receive()
	require.True(t, ok)

	ev := NewEvent(PriorityMedium, ClassControl, ControlTurnOn, 0, 1, 2)

	port.SetBusy(2)
	require.NoError(t, node.Send(ev), "succeeds within the window")
	require.Equal(t, uint8(0), node.ErrorCount())

	port.SetBusy(-1)
	require.Equal(t, ErrSendFailed, node.Send(ev))
	require.Equal(t, uint8(1), node.ErrorCount())

	for i := 0; i < 300; i++ {
		node.Send(ev)
	}
	require.Equal(t, uint8(0xff), node.ErrorCount(), "saturated")

	port.SetBusy(0)
	node.WriteRegister(RegErrorCounter, 0, 0x55)
	require.Equal(t, uint8(0), node.ErrorCount())
}

func TestErrorCounter(t *testing.T) {
	var c ErrorCounter
	for i := 0; i < 254; i++ {
		require.Equal(t, CounterCounted, c.Inc())
	}
	require.Equal(t, CounterSaturated, c.Inc())
	require.Equal(t, CounterSaturated, c.Inc())
	require.Equal(t, uint8(0xff), c.Value())
	c.Reset()
	require.Equal(t, uint8(0), c.Value())
}
