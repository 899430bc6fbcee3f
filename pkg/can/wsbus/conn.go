package wsbus

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/url"
	"sync"

	"github.com/golang/glog"
	"golang.org/x/net/websocket"

	"github.com/robotalks/swali.go/pkg/can"
)

// Conn is a can.Bus attached to a remote Hub. Run must be running to
// receive frames.
type Conn struct {
	*can.RxQueue

	rw     PacketReadWriter
	closer io.Closer
	wlock  sync.Mutex
}

// NewConn creates a Conn over rw. closer may be nil.
func NewConn(rw PacketReadWriter, closer io.Closer) *Conn {
	return &Conn{RxQueue: can.NewRxQueue(), rw: rw, closer: closer}
}

// Dial connects to a hub. ws:// and wss:// URLs use websocket,
// tcp:// uses a length prefixed stream.
func Dial(rawurl string) (*Conn, error) {
	u, err := url.Parse(rawurl)
	if err != nil {
		return nil, err
	}
	switch u.Scheme {
	case "ws", "wss":
		origin := "http://" + u.Host
		ws, err := websocket.Dial(rawurl, "", origin)
		if err != nil {
			return nil, err
		}
		ws.PayloadType = websocket.BinaryFrame
		return NewConn(NewWebSocket(ws), ws), nil
	case "tcp":
		conn, err := net.Dial("tcp", u.Host)
		if err != nil {
			return nil, err
		}
		return NewConn(NewStream(conn), conn), nil
	}
	return nil, fmt.Errorf("unsupported bus scheme %q", u.Scheme)
}

// Send implements can.Bus.
func (c *Conn) Send(f can.Frame) error {
	pkt, err := f.MarshalBinary()
	if err != nil {
		return err
	}
	c.wlock.Lock()
	defer c.wlock.Unlock()
	return c.rw.WritePacket(pkt)
}

// Run receives frames until ctx is done or the connection fails.
func (c *Conn) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- receiveFrames(c.rw, func(f can.Frame) error {
			c.Push(f)
			return nil
		})
	}()
	select {
	case <-ctx.Done():
		if c.closer != nil {
			c.closer.Close()
		}
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

// Close implements io.Closer.
func (c *Conn) Close() error {
	if c.closer != nil {
		return c.closer.Close()
	}
	return nil
}

// receiveFrames reads packets and passes decoded frames to fn. Packets
// which don't decode are skipped.
func receiveFrames(rw PacketReadWriter, fn func(can.Frame) error) error {
	for {
		pkt, err := rw.ReadPacket()
		if err != nil {
			return err
		}
		var f can.Frame
		if err = f.UnmarshalBinary(pkt); err != nil {
			glog.V(3).Infof("wsbus: skip packet: %v", err)
			continue
		}
		if err = fn(f); err != nil {
			return err
		}
	}
}
