// Package client accesses VSCP nodes over a bus from a host: node
// discovery and register reads and writes.
package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/swali.go/pkg/can"
	"github.com/robotalks/swali.go/pkg/vscp"
)

// DefaultNickname is used by host tools. Nodes claim nicknames from the
// bottom up, so it rarely collides.
const DefaultNickname uint8 = 0xfe

// MaxWrite is the most registers written by one request.
const MaxWrite = 4

var (
	// ErrNoResponse indicates the node didn't answer in time.
	ErrNoResponse = errors.New("no response")
	// ErrTooMany indicates a request exceeds the protocol limits.
	ErrTooMany = errors.New("too many registers")
)

// NodeInfo identifies a node found on the bus.
type NodeInfo struct {
	Nickname uint8
	GUID     [vscp.GUIDSize]byte
	MDF      string
}

// GUIDString formats the GUID the usual colon separated way.
func (n NodeInfo) GUIDString() string {
	var buf bytes.Buffer
	for i, b := range n.GUID {
		if i > 0 {
			buf.WriteByte(':')
		}
		fmt.Fprintf(&buf, "%02X", b)
	}
	return buf.String()
}

type notifier interface {
	Notify() <-chan struct{}
}

// Client runs one request at a time over a bus. Frames which don't
// answer the pending request go to Unhandled, if set.
type Client struct {
	Nickname uint8
	// PollInterval is used when the bus can't notify on receive.
	PollInterval time.Duration
	Unhandled    func(vscp.Event)

	bus  can.Bus
	lock sync.Mutex
}

// New creates a client.
func New(bus can.Bus) *Client {
	return &Client{
		Nickname:     DefaultNickname,
		PollInterval: time.Millisecond,
		bus:          bus,
	}
}

// Send transmits an event with the client nickname.
func (c *Client) Send(ev vscp.Event) error {
	ev.Nickname = c.Nickname
	f, err := ev.Frame()
	if err != nil {
		return err
	}
	glog.V(2).Infof("client: SND %s", ev)
	return c.bus.Send(f)
}

func (c *Client) request(typ uint8, data ...byte) error {
	return c.Send(vscp.NewEvent(vscp.PriorityNormal, vscp.ClassProtocol, typ, data...))
}

// collect feeds received protocol events from nick of the given type to fn
// until fn returns true.
func (c *Client) collect(ctx context.Context, nick, typ uint8, fn func(vscp.Event) bool) error {
	var wake <-chan struct{}
	if n, ok := c.bus.(notifier); ok {
		wake = n.Notify()
	}
	ticker := time.NewTicker(c.PollInterval)
	defer ticker.Stop()
	for {
		for f, ok := c.bus.Receive(); ok; f, ok = c.bus.Receive() {
			ev, err := vscp.EventFromFrame(f)
			if err != nil {
				continue
			}
			if ev.Nickname == nick && ev.Is(vscp.ClassProtocol, typ) {
				if fn(ev) {
					return nil
				}
				continue
			}
			if c.Unhandled != nil {
				c.Unhandled(ev)
			}
		}
		select {
		case <-ctx.Done():
			if ctx.Err() == context.DeadlineExceeded {
				return fmt.Errorf("node %02x: %w", nick, ErrNoResponse)
			}
			return ctx.Err()
		case <-wake:
		case <-ticker.C:
		}
	}
}

// WhoIsThere asks a node for its GUID and MDF location.
func (c *Client) WhoIsThere(ctx context.Context, nick uint8) (info NodeInfo, err error) {
	c.lock.Lock()
	defer c.lock.Unlock()
	if err = c.request(vscp.ProtocolWhoIsThere, nick); err != nil {
		return
	}
	const frames = 7
	var payload [frames * 7]byte
	var seen uint8
	err = c.collect(ctx, nick, vscp.ProtocolWhoIsThereResponse, func(ev vscp.Event) bool {
		idx := ev.Data[0]
		if ev.Size != 8 || idx >= frames {
			return false
		}
		copy(payload[idx*7:], ev.Data[1:8])
		seen |= 1 << idx
		return seen == 1<<frames-1
	})
	if err != nil {
		return
	}
	info.Nickname = nick
	for i := range info.GUID {
		info.GUID[i] = payload[vscp.GUIDSize-1-i]
	}
	mdf := payload[vscp.GUIDSize:]
	if n := bytes.IndexByte(mdf, 0); n >= 0 {
		mdf = mdf[:n]
	}
	info.MDF = string(mdf)
	return
}

// Scan probes nicknames from..to, waiting up to timeout for each.
func (c *Client) Scan(ctx context.Context, from, to uint8, timeout time.Duration) ([]NodeInfo, error) {
	var nodes []NodeInfo
	for nick := int(from); nick <= int(to); nick++ {
		if nick == int(c.Nickname) {
			continue
		}
		reqCtx, cancel := context.WithTimeout(ctx, timeout)
		info, err := c.WhoIsThere(reqCtx, uint8(nick))
		cancel()
		if err == nil {
			nodes = append(nodes, info)
			continue
		}
		if !errors.Is(err, ErrNoResponse) {
			return nodes, err
		}
	}
	return nodes, nil
}

// ReadRegisters reads count (1 to 256) consecutive registers of a page.
func (c *Client) ReadRegisters(ctx context.Context, nick uint8, page uint16, reg uint8, count int) ([]byte, error) {
	if count < 1 || count > 256 {
		return nil, ErrTooMany
	}
	c.lock.Lock()
	defer c.lock.Unlock()
	if err := c.request(vscp.ProtocolExtendedPageRead,
		nick, uint8(page>>8), uint8(page), reg, uint8(count)); err != nil {
		return nil, err
	}
	values := make([]byte, count)
	received := 0
	err := c.collect(ctx, nick, vscp.ProtocolExtendedPageResponse, func(ev vscp.Event) bool {
		if ev.Size < 4 || uint16(ev.Data[1])<<8|uint16(ev.Data[2]) != page {
			return false
		}
		off := int(ev.Data[3] - reg)
		for i := 4; i < int(ev.Size) && off+i-4 < count; i++ {
			values[off+i-4] = ev.Data[i]
			received++
		}
		return received >= count
	})
	if err != nil {
		return nil, err
	}
	return values, nil
}

// WriteRegisters writes up to MaxWrite consecutive registers of a page
// and returns the values read back by the node.
func (c *Client) WriteRegisters(ctx context.Context, nick uint8, page uint16, reg uint8, values ...byte) ([]byte, error) {
	if len(values) == 0 || len(values) > MaxWrite {
		return nil, ErrTooMany
	}
	c.lock.Lock()
	defer c.lock.Unlock()
	data := append([]byte{nick, uint8(page >> 8), uint8(page), reg}, values...)
	if err := c.request(vscp.ProtocolExtendedPageWrite, data...); err != nil {
		return nil, err
	}
	var result []byte
	err := c.collect(ctx, nick, vscp.ProtocolExtendedPageResponse, func(ev vscp.Event) bool {
		if ev.Size < 4 || ev.Data[3] != reg || uint16(ev.Data[1])<<8|uint16(ev.Data[2]) != page {
			return false
		}
		result = append([]byte(nil), ev.Data[4:ev.Size]...)
		return true
	})
	return result, err
}

// ReadRegister reads a register on the node's selected page.
func (c *Client) ReadRegister(ctx context.Context, nick, reg uint8) (byte, error) {
	c.lock.Lock()
	defer c.lock.Unlock()
	if err := c.request(vscp.ProtocolReadRegister, nick, reg); err != nil {
		return 0, err
	}
	return c.rwResponse(ctx, nick, reg)
}

// WriteRegister writes a register on the node's selected page and
// returns the value read back.
func (c *Client) WriteRegister(ctx context.Context, nick, reg, value uint8) (byte, error) {
	c.lock.Lock()
	defer c.lock.Unlock()
	if err := c.request(vscp.ProtocolWriteRegister, nick, reg, value); err != nil {
		return 0, err
	}
	return c.rwResponse(ctx, nick, reg)
}

func (c *Client) rwResponse(ctx context.Context, nick, reg uint8) (value byte, err error) {
	err = c.collect(ctx, nick, vscp.ProtocolRWResponse, func(ev vscp.Event) bool {
		if ev.Size != 2 || ev.Data[0] != reg {
			return false
		}
		value = ev.Data[1]
		return true
	})
	return
}
