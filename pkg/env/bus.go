package env

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"sync"

	"github.com/golang/glog"

	"github.com/robotalks/swali.go/pkg/can"
	"github.com/robotalks/swali.go/pkg/can/slcan"
	"github.com/robotalks/swali.go/pkg/can/wsbus"
)

// Transport is an opened bus. Run serves background I/O until the
// context is done or the transport fails.
type Transport interface {
	can.Bus
	Run(ctx context.Context) error
	Close() error
}

// UnknownSchemeError indicates an unsupported bus URL scheme.
type UnknownSchemeError struct {
	Scheme string
}

// Error implements error.
func (e *UnknownSchemeError) Error() string {
	return fmt.Sprintf("unknown bus URL scheme: %q", e.Scheme)
}

var (
	loopbacksLock sync.Mutex
	loopbacks     = make(map[string]*can.Loopback)
)

// Loopback returns the in-process bus of the name, creating it on first use.
func Loopback(name string) *can.Loopback {
	loopbacksLock.Lock()
	defer loopbacksLock.Unlock()
	bus := loopbacks[name]
	if bus == nil {
		bus = can.NewLoopback(name)
		loopbacks[name] = bus
	}
	return bus
}

type loopbackTransport struct {
	*can.LoopbackPort
}

func (t loopbackTransport) Run(ctx context.Context) error {
	<-ctx.Done()
	return nil
}

// OpenBus opens a bus by URL:
//
//	loop://NAME                              in-process loopback
//	slcan:///dev/ttyUSB0?baud=115200&bitrate=125000
//	ws://host:port/path, wss://...            websocket hub
//	tcp://host:port                           stream hub
func OpenBus(rawurl string) (Transport, error) {
	u, err := url.Parse(rawurl)
	if err != nil {
		return nil, fmt.Errorf("invalid bus URL: %w", err)
	}
	switch u.Scheme {
	case "loop":
		name := u.Host + u.Path
		if name == "" {
			name = "default"
		}
		return loopbackTransport{Loopback(name).Attach()}, nil
	case "slcan":
		address := u.Path
		if address == "" {
			address = u.Opaque
		}
		baud, err := intParam(u, "baud")
		if err != nil {
			return nil, err
		}
		bitrate, err := intParam(u, "bitrate")
		if err != nil {
			return nil, err
		}
		glog.Infof("bus: slcan %s baud=%d bitrate=%d", address, baud, bitrate)
		port, err := slcan.Dial(address, baud, bitrate)
		if err != nil {
			return nil, err
		}
		return port, nil
	case "ws", "wss", "tcp":
		glog.Infof("bus: %s", rawurl)
		conn, err := wsbus.Dial(rawurl)
		if err != nil {
			return nil, err
		}
		return conn, nil
	default:
		return nil, &UnknownSchemeError{Scheme: u.Scheme}
	}
}

func intParam(u *url.URL, name string) (int, error) {
	val := u.Query().Get(name)
	if val == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", name, val, err)
	}
	return n, nil
}

// OpenBus opens the configured bus.
func (c *Config) OpenBus() (Transport, error) {
	return OpenBus(c.BusURL)
}
