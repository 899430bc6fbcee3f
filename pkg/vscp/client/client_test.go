package client

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/swali.go/pkg/board"
	"github.com/robotalks/swali.go/pkg/can"
	"github.com/robotalks/swali.go/pkg/gpio"
	"github.com/robotalks/swali.go/pkg/store"
	"github.com/robotalks/swali.go/pkg/swali"
	"github.com/robotalks/swali.go/pkg/timebase"
	"github.com/robotalks/swali.go/pkg/vscp"
)

const nodeNick = 0x22

// startNode runs a paris board with a stored nickname on bus.
func startNode(t *testing.T, bus *can.Loopback) *board.Board {
	cfg, err := board.DefaultConfig("paris")
	require.NoError(t, err)
	for i := range cfg.GUID {
		cfg.GUID[i] = byte(0x30 + i)
	}
	medium := store.NewMemMedium(board.BlobSize)
	for i := 0; i < board.BlobSize; i++ {
		medium.Program(i, 0)
	}
	medium.Program(board.OffBoot, board.BootValid)
	medium.Program(board.OffNickname, nodeNick)
	b, err := board.New(cfg, bus.Attach(), medium, gpio.NewBank(), timebase.NewMonotonic())
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		b.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return b
}

func newClient(t *testing.T) (*Client, *board.Board) {
	bus := can.NewLoopback(t.Name())
	c := New(bus.Attach())
	b := startNode(t, bus)
	return c, b
}

func timeout(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestWhoIsThere(t *testing.T) {
	c, b := newClient(t)
	info, err := c.WhoIsThere(timeout(t), nodeNick)
	require.NoError(t, err)
	require.EqualValues(t, nodeNick, info.Nickname)
	require.Equal(t, b.GUID(), info.GUID)
	require.Equal(t, "use local", info.MDF)
	require.Equal(t, "30:31:32:33:34:35:36:37:38:39:3A:3B:00:00:00:00", info.GUIDString())
}

func TestScan(t *testing.T) {
	c, _ := newClient(t)
	nodes, err := c.Scan(context.Background(), 0x20, 0x23, 200*time.Millisecond)
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	require.EqualValues(t, nodeNick, nodes[0].Nickname)
}

func TestNoResponse(t *testing.T) {
	c, _ := newClient(t)
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	_, err := c.WhoIsThere(ctx, 0x55)
	require.True(t, errors.Is(err, ErrNoResponse))
}

func TestReadRegisters(t *testing.T) {
	c, _ := newClient(t)
	values, err := c.ReadRegisters(timeout(t), nodeNick, 1, swali.RegID0, 2)
	require.NoError(t, err)
	require.Equal(t, []byte("OU"), values)

	values, err = c.ReadRegisters(timeout(t), nodeNick, 6, 0, 0x20)
	require.NoError(t, err)
	require.Len(t, values, 0x20)
	require.EqualValues(t, 'O', values[0])

	values, err = c.ReadRegisters(timeout(t), nodeNick, 0, vscp.RegPagesUsed, 1)
	require.NoError(t, err)
	require.Equal(t, []byte{7}, values)

	values, err = c.ReadRegisters(timeout(t), nodeNick, 0, vscp.RegStdDeviceFamily, vscp.StdDeviceSize)
	require.NoError(t, err)
	require.Equal(t, []byte("SWALI\x00\x00\x00"), values)

	_, err = c.ReadRegisters(timeout(t), nodeNick, 0, 0, 0)
	require.Equal(t, ErrTooMany, err)
}

func TestWriteRegisters(t *testing.T) {
	c, _ := newClient(t)
	values, err := c.WriteRegisters(timeout(t), nodeNick, 2, swali.RegZone, 5, 6)
	require.NoError(t, err)
	require.Equal(t, []byte{5, 6}, values)

	values, err = c.ReadRegisters(timeout(t), nodeNick, 2, swali.RegEnable, 3)
	require.NoError(t, err)
	require.Equal(t, []byte{0, 5, 6}, values)

	// state is read only
	values, err = c.WriteRegisters(timeout(t), nodeNick, 2, swali.RegState, 1)
	require.NoError(t, err)
	require.Equal(t, []byte{0}, values)

	_, err = c.WriteRegisters(timeout(t), nodeNick, 2, 0, 1, 2, 3, 4, 5)
	require.Equal(t, ErrTooMany, err)
}

func TestSelectedPageRegisters(t *testing.T) {
	c, _ := newClient(t)
	v, err := c.ReadRegister(timeout(t), nodeNick, vscp.RegNickname)
	require.NoError(t, err)
	require.EqualValues(t, nodeNick, v)

	v, err = c.WriteRegister(timeout(t), nodeNick, vscp.RegPageSelectLSB, 3)
	require.NoError(t, err)
	require.EqualValues(t, 3, v)

	v, err = c.WriteRegister(timeout(t), nodeNick, swali.RegSubzone, 9)
	require.NoError(t, err)
	require.EqualValues(t, 9, v)

	values, err := c.ReadRegisters(timeout(t), nodeNick, 3, swali.RegSubzone, 1)
	require.NoError(t, err)
	require.Equal(t, []byte{9}, values)
}

func TestUnhandledEvents(t *testing.T) {
	bus := can.NewLoopback(t.Name())
	c := New(bus.Attach())
	peer := bus.Attach()
	var got []vscp.Event
	c.Unhandled = func(ev vscp.Event) { got = append(got, ev) }

	ev := vscp.NewEvent(vscp.PriorityNormal, vscp.ClassInformation, vscp.InformationOn, 1, 2, 3)
	ev.Nickname = 0x40
	f, err := ev.Frame()
	require.NoError(t, err)
	require.NoError(t, peer.Send(f))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = c.ReadRegister(ctx, 0x40, 0)
	require.True(t, errors.Is(err, ErrNoResponse))
	require.Equal(t, []vscp.Event{ev}, got)

	sent, ok := peer.Receive()
	require.True(t, ok)
	req, err := vscp.EventFromFrame(sent)
	require.NoError(t, err)
	require.EqualValues(t, DefaultNickname, req.Nickname)
	require.True(t, req.Is(vscp.ClassProtocol, vscp.ProtocolReadRegister))
}
