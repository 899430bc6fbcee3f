package board

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/swali.go/pkg/can"
	fx "github.com/robotalks/swali.go/pkg/framework"
	"github.com/robotalks/swali.go/pkg/gpio"
	"github.com/robotalks/swali.go/pkg/led"
	"github.com/robotalks/swali.go/pkg/store"
	"github.com/robotalks/swali.go/pkg/swali"
	"github.com/robotalks/swali.go/pkg/timebase"
	"github.com/robotalks/swali.go/pkg/vscp"
)

type rig struct {
	t      *testing.T
	clock  *timebase.Manual
	bank   *gpio.Bank
	medium *store.MemMedium
	board  *Board
	loop   *fx.Loop
}

func testConfig(t *testing.T, preset string) Config {
	cfg, err := DefaultConfig(preset)
	require.NoError(t, err)
	for i := range cfg.GUID {
		cfg.GUID[i] = byte(i + 1)
	}
	cfg.MfgID = [vscp.MfgIDSize]byte{'M', 'Z'}
	return cfg
}

// storedMedium is a medium with a valid blob and nickname.
func storedMedium(nick byte) *store.MemMedium {
	m := store.NewMemMedium(BlobSize)
	for i := 0; i < BlobSize; i++ {
		m.Program(i, 0)
	}
	m.Program(OffBoot, BootValid)
	m.Program(OffNickname, nick)
	return m
}

func newRig(t *testing.T, bus *can.Loopback, cfg Config, medium *store.MemMedium, clock *timebase.Manual) *rig {
	r := &rig{t: t, clock: clock, bank: gpio.NewBank(), medium: medium}
	b, err := New(cfg, bus.Attach(), medium, r.bank, clock)
	require.NoError(t, err)
	r.board = b
	r.loop = fx.NewLoop().Add(b)
	return r
}

func step(ms int, clock *timebase.Manual, rigs ...*rig) {
	for i := 0; i < ms; i++ {
		for _, r := range rigs {
			r.loop.RunOnce(context.Background())
		}
		clock.Advance(1)
	}
}

func drain(t *testing.T, port *can.LoopbackPort) (evs []vscp.Event) {
	for {
		f, ok := port.Receive()
		if !ok {
			return
		}
		ev, err := vscp.EventFromFrame(f)
		require.NoError(t, err)
		evs = append(evs, ev)
	}
}

func TestPresets(t *testing.T) {
	require.Equal(t, []string{"beijing", "paris"}, PresetNames())
	cfg, err := DefaultConfig("beijing")
	require.NoError(t, err)
	require.Equal(t, swali.Layout{Inputs: 10}, cfg.Layout)
	require.NoError(t, cfg.Validate())
	_, err = DefaultConfig("tokyo")
	require.Error(t, err)

	cfg.MDF = "http://a.very.long.host.example/swali/mdf.xml"
	require.Error(t, cfg.Validate())
}

func TestLayoutTooLarge(t *testing.T) {
	cfg := testConfig(t, "paris")
	cfg.Layout = swali.Layout{Inputs: 13}
	_, err := New(cfg, can.NewLoopback(t.Name()).Attach(), store.NewMemMedium(BlobSize), gpio.NewBank(), &timebase.Manual{})
	require.Error(t, err)
}

func TestFreshBlob(t *testing.T) {
	medium := store.NewMemMedium(BlobSize)
	r := newRig(t, can.NewLoopback(t.Name()), testConfig(t, "paris"), medium, &timebase.Manual{})
	require.EqualValues(t, BootValid, medium.Load(OffBoot))
	require.EqualValues(t, vscp.NicknameFree, medium.Load(OffNickname))
	require.EqualValues(t, 0, medium.Load(OffSwali))
	for i := 0; i < GUIDStored; i++ {
		require.EqualValues(t, 13+i, medium.Load(OffGUID+i))
	}
	guid := r.board.GUID()
	require.EqualValues(t, 1, guid[0])
	require.EqualValues(t, 16, guid[15])
}

func TestClaimNickname(t *testing.T) {
	bus := can.NewLoopback(t.Name())
	peer := bus.Attach()
	clock := &timebase.Manual{}
	r := newRig(t, bus, testConfig(t, "paris"), store.NewMemMedium(BlobSize), clock)
	require.Equal(t, led.Off, r.board.LED().State())

	step(1, clock, r)
	require.Equal(t, vscp.StateInit, r.board.Node().State())
	require.Equal(t, led.BlinkSlow, r.board.LED().State())

	for i := 0; i < 4000 && r.board.Node().State() != vscp.StateActive; i++ {
		step(1, clock, r)
	}
	require.Equal(t, vscp.StateActive, r.board.Node().State())
	require.EqualValues(t, 1, r.board.Node().Nickname())
	require.Equal(t, led.On, r.board.LED().State())
	evs := drain(t, peer)
	require.True(t, evs[len(evs)-1].Is(vscp.ClassProtocol, vscp.ProtocolNewNodeOnline))

	step(100, clock, r)
	require.EqualValues(t, 1, r.medium.Load(OffNickname))
}

func TestStoredNickname(t *testing.T) {
	bus := can.NewLoopback(t.Name())
	peer := bus.Attach()
	clock := &timebase.Manual{}
	r := newRig(t, bus, testConfig(t, "beijing"), storedMedium(0x22), clock)
	step(1, clock, r)
	require.Equal(t, vscp.StateActive, r.board.Node().State())
	require.Equal(t, []vscp.Event{{
		Priority: vscp.PriorityHigh,
		Class:    vscp.ClassProtocol,
		Type:     vscp.ProtocolNewNodeOnline,
		Nickname: 0x22,
		Size:     1,
		Data:     [8]byte{0x22},
	}}, drain(t, peer))
}

func TestStateLED(t *testing.T) {
	r := newRig(t, can.NewLoopback(t.Name()), testConfig(t, "paris"), storedMedium(1), &timebase.Manual{})
	tests := []struct {
		state vscp.State
		led   led.State
	}{
		{vscp.StateInit, led.BlinkSlow},
		{vscp.StateActive, led.On},
		{vscp.StateError, led.BlinkFast},
		{vscp.StateStartup, led.Off},
	}
	for _, test := range tests {
		m := vscp.NewSet(vscp.MsgState, 0, uint8(test.state))
		r.board.HandleMessage(&m)
		require.Equal(t, test.led, r.board.LED().State(), test.state.String())
	}
}

func TestMessages(t *testing.T) {
	cfg := testConfig(t, "paris")
	r := newRig(t, can.NewLoopback(t.Name()), cfg, storedMedium(0x31), &timebase.Manual{})
	get := func(id vscp.MsgID, idx byte) (byte, bool) {
		m := vscp.NewGet(id, idx)
		r.board.HandleMessage(&m)
		require.Equal(t, idx, m.Value[0])
		return m.Value[1], m.Length == 2
	}
	set := func(id vscp.MsgID, idx, value byte) {
		m := vscp.NewSet(id, idx, value)
		r.board.HandleMessage(&m)
	}

	tests := []struct {
		name  string
		id    vscp.MsgID
		idx   byte
		value byte
		ok    bool
	}{
		{"nickname", vscp.MsgNickname, 0, 0x31, true},
		{"pages", vscp.MsgPagesUsed, 0, 7, true},
		{"guid prefix", vscp.MsgGUID, 3, 4, true},
		{"guid stored", vscp.MsgGUID, 12, 0, true},
		{"guid range", vscp.MsgGUID, 16, 0, false},
		{"mdf", vscp.MsgMDF, 1, 's', true},
		{"mdf padding", vscp.MsgMDF, 31, 0, true},
		{"mdf range", vscp.MsgMDF, 32, 0, false},
		{"std device", vscp.MsgStdDevice, 4, 'I', true},
		{"std device padding", vscp.MsgStdDevice, 7, 0, true},
		{"mfg id", vscp.MsgMfgID, 1, 'Z', true},
		{"firmware", vscp.MsgFWVersion, 0, 1, true},
		{"firmware range", vscp.MsgFWVersion, 3, 0, false},
		{"no boot loader", vscp.MsgBootAlg, 0, 0, false},
		{"dm info", vscp.MsgDMInfo, 2, 0, true},
		{"user id", vscp.MsgUserID, 4, 0, true},
		{"user id range", vscp.MsgUserID, 5, 0, false},
		{"alarm", vscp.MsgAlarmStatus, 0, 0, true},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			value, ok := get(test.id, test.idx)
			require.Equal(t, test.ok, ok)
			if ok {
				require.Equal(t, test.value, value)
			}
		})
	}

	set(vscp.MsgNickname, 0, 0x44)
	set(vscp.MsgUserID, 2, 0x99)
	set(vscp.MsgGUID, 15, 0x77)
	set(vscp.MsgGUID, 0, 0x77)
	require.EqualValues(t, 0x44, r.board.Store().Bytes()[OffNickname])
	require.EqualValues(t, 0x99, r.board.Store().Bytes()[OffUserID+2])
	require.EqualValues(t, 0x77, r.board.Store().Bytes()[OffGUID+3])
	v, _ := get(vscp.MsgGUID, 0)
	require.EqualValues(t, 1, v)

	set(vscp.MsgAlarmStatus, 0, 0)
	r.board.config.BootAlgorithm = 0
	v, ok := get(vscp.MsgBootAlg, 0)
	require.True(t, ok)
	require.EqualValues(t, 0, v)
}

func TestRegisterBridge(t *testing.T) {
	r := newRig(t, can.NewLoopback(t.Name()), testConfig(t, "paris"), storedMedium(1), &timebase.Manual{})
	node := r.board.Node()
	require.EqualValues(t, 'O', node.ReadRegister(swali.RegID0, 6))
	require.EqualValues(t, 0, node.ReadRegister(swali.RegID0, 7))
	node.WriteRegister(swali.RegZone, 1, 9)
	require.EqualValues(t, 9, node.ReadRegister(swali.RegZone, 1))
	require.EqualValues(t, 9, r.board.Store().Bytes()[OffSwali+swali.OutputConfigSize+1])
	require.EqualValues(t, 7, node.ReadRegister(vscp.RegPagesUsed, 0))
}

func TestEnterBootLoader(t *testing.T) {
	r := newRig(t, can.NewLoopback(t.Name()), testConfig(t, "paris"), storedMedium(1), &timebase.Manual{})
	rebooted := 0
	r.board.Reboot = func() {
		require.EqualValues(t, BootRequest, r.medium.Load(OffBoot))
		rebooted++
	}
	m := vscp.NewSet(vscp.MsgEnterBoot, 0)
	r.board.HandleMessage(&m)
	require.Equal(t, 1, rebooted)
}

func TestLongPress(t *testing.T) {
	clock := &timebase.Manual{}
	p := button{clock: clock, released: true}
	require.False(t, p.longPress(false))
	clock.Advance(2000)
	require.False(t, p.longPress(false))
	clock.Advance(1)
	require.True(t, p.longPress(false))
	clock.Advance(5000)
	require.False(t, p.longPress(false))
	require.False(t, p.longPress(true))

	// a short press restarts timing
	require.False(t, p.longPress(false))
	clock.Advance(1500)
	require.False(t, p.longPress(true))
	require.False(t, p.longPress(false))
	clock.Advance(1500)
	require.False(t, p.longPress(false))
	clock.Advance(600)
	require.True(t, p.longPress(false))
}

func TestLongPressForcesInit(t *testing.T) {
	clock := &timebase.Manual{}
	r := newRig(t, can.NewLoopback(t.Name()), testConfig(t, "paris"), storedMedium(5), clock)
	step(10, clock, r)
	require.Equal(t, vscp.StateActive, r.board.Node().State())
	r.bank.Set(gpio.InitButton, false)
	step(2001, clock, r)
	require.Equal(t, vscp.StateActive, r.board.Node().State())
	step(2, clock, r)
	require.Equal(t, vscp.StateInit, r.board.Node().State())
	require.Equal(t, led.BlinkSlow, r.board.LED().State())
}

func TestButtonTogglesRemoteOutput(t *testing.T) {
	bus := can.NewLoopback(t.Name())
	clock := &timebase.Manual{}
	wall := newRig(t, bus, testConfig(t, "beijing"), storedMedium(0x10), clock)
	relay := newRig(t, bus, testConfig(t, "paris"), storedMedium(0x20), clock)
	step(5, clock, wall, relay)

	for _, r := range []*rig{wall, relay} {
		r.board.Node().WriteRegister(swali.RegEnable, 2, 1)
		r.board.Node().WriteRegister(swali.RegZone, 2, 8)
		r.board.Node().WriteRegister(swali.RegSubzone, 2, 1)
	}

	wall.bank.Set(2, false)
	step(100, clock, wall, relay)
	require.True(t, relay.bank.Get(2))
	require.EqualValues(t, 1, wall.board.Node().ReadRegister(swali.RegState, 2))

	wall.bank.Set(2, true)
	step(100, clock, wall, relay)
	require.True(t, relay.bank.Get(2))

	wall.bank.Set(2, false)
	step(100, clock, wall, relay)
	require.False(t, relay.bank.Get(2))
	require.EqualValues(t, 0, wall.board.Node().ReadRegister(swali.RegState, 2))
}
