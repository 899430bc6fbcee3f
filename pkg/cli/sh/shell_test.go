package sh

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/swali.go/pkg/board"
	"github.com/robotalks/swali.go/pkg/env"
	"github.com/robotalks/swali.go/pkg/gpio"
	"github.com/robotalks/swali.go/pkg/store"
	"github.com/robotalks/swali.go/pkg/swali"
	"github.com/robotalks/swali.go/pkg/timebase"
	"github.com/robotalks/swali.go/pkg/vscp"
	"github.com/robotalks/swali.go/pkg/vscp/client"
)

func startNode(t *testing.T, busName string, nick uint8) {
	cfg, err := board.DefaultConfig("paris")
	require.NoError(t, err)
	medium := store.NewMemMedium(board.BlobSize)
	for i := 0; i < board.BlobSize; i++ {
		medium.Program(i, 0)
	}
	medium.Program(board.OffBoot, board.BootValid)
	medium.Program(board.OffNickname, nick)
	b, err := board.New(cfg, env.Loopback(busName).Attach(), medium, gpio.NewBank(), timebase.NewMonotonic())
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
}

func connect(t *testing.T, busName string) *Shell {
	s := &Shell{Config: env.NewConfig(), Timeout: time.Second}
	require.NoError(t, s.Connect("loop://"+busName))
	t.Cleanup(s.Disconnect)
	return s
}

func TestNotConnected(t *testing.T) {
	s := &Shell{Config: env.NewConfig()}
	_, err := s.Scan(1, 2)
	require.Equal(t, ErrNotConnected, err)
	_, err = s.SelectNode(1)
	require.Equal(t, ErrNotConnected, err)
	_, err = s.ReadRegisters(0, 0, 1)
	require.Equal(t, ErrNotConnected, err)
	s.Disconnect()
}

func TestConnectUnknownScheme(t *testing.T) {
	s := &Shell{Config: env.NewConfig()}
	var unknown *env.UnknownSchemeError
	require.True(t, errors.As(s.Connect("can://x"), &unknown))
	require.Nil(t, s.Conn)
}

func TestScanAndSelect(t *testing.T) {
	startNode(t, t.Name(), 0x10)
	startNode(t, t.Name(), 0x12)
	s := connect(t, t.Name())

	nodes, err := s.Scan(0x0f, 0x13)
	require.NoError(t, err)
	require.Len(t, nodes, 2)
	require.Equal(t, uint8(0x10), nodes[0].Nickname)
	require.Equal(t, uint8(0x12), nodes[1].Nickname)

	_, err = s.ReadRegisters(0, 0, 1)
	require.Equal(t, ErrNoNode, err)

	info, err := s.SelectNode(0x12)
	require.NoError(t, err)
	require.Equal(t, "use local", info.MDF)
	require.Equal(t, info, s.Conn.Node)

	_, err = s.SelectNode(0x11)
	require.True(t, errors.Is(err, client.ErrNoResponse))
	require.Equal(t, uint8(0x12), s.Conn.Node.Nickname)
}

func TestRegisters(t *testing.T) {
	startNode(t, t.Name(), 0x20)
	s := connect(t, t.Name())
	_, err := s.SelectNode(0x20)
	require.NoError(t, err)

	values, err := s.ReadRegisters(0, vscp.RegPagesUsed, 1)
	require.NoError(t, err)
	require.Equal(t, []byte{7}, values)

	name := []byte("kitchen")
	written, err := s.WriteRegisters(3, swali.RegName, name...)
	require.NoError(t, err)
	require.Equal(t, name, written)
	values, err = s.ReadRegisters(3, swali.RegName, len(name)+1)
	require.NoError(t, err)
	require.Equal(t, append(name, 0), values)
}

func TestParse(t *testing.T) {
	val, err := ParseUint("0x1f", "REG", 8)
	require.NoError(t, err)
	require.Equal(t, uint64(0x1f), val)
	_, err = ParseUint("256", "REG", 8)
	require.Error(t, err)

	values, err := ParseBytes([]string{"1", "0xff"}, "VALUE")
	require.NoError(t, err)
	require.Equal(t, []byte{1, 0xff}, values)
	_, err = ParseBytes([]string{"x"}, "VALUE")
	require.Error(t, err)
}

func TestFormat(t *testing.T) {
	info := client.NodeInfo{Nickname: 0x12, MDF: "use local"}
	info.GUID[15] = 0xab
	require.Equal(t, "12 00:00:00:00:00:00:00:00:00:00:00:00:00:00:00:AB use local", FormatNode(info))

	values := make([]byte, 10)
	values[9] = 0x99
	require.Equal(t, "0003:10 00 00 00 00 00 00 00 00\n0003:18 00 99",
		FormatRegisters(3, 0x10, values))
}
