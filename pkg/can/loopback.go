package can

import (
	"sync"

	"github.com/golang/glog"
)

// Loopback is an in-process CAN bus. A frame sent by one port is
// delivered to every other port whose filter accepts it.
type Loopback struct {
	Name string

	lock  sync.RWMutex
	ports []*LoopbackPort
}

// LoopbackPort is one node attachment on a Loopback bus.
type LoopbackPort struct {
	*RxQueue

	bus      *Loopback
	lock     sync.Mutex
	busy     int
	txLog    []Frame
	logTx    bool
	detached bool
}

// NewLoopback creates an empty loopback bus.
func NewLoopback(name string) *Loopback {
	return &Loopback{Name: name}
}

// Attach creates a new port.
func (b *Loopback) Attach() *LoopbackPort {
	p := &LoopbackPort{RxQueue: NewRxQueue(), bus: b}
	b.lock.Lock()
	b.ports = append(b.ports, p)
	b.lock.Unlock()
	return p
}

func (b *Loopback) deliver(from *LoopbackPort, f Frame) {
	b.lock.RLock()
	defer b.lock.RUnlock()
	for _, p := range b.ports {
		if p != from {
			p.Push(f)
		}
	}
}

func (b *Loopback) detach(port *LoopbackPort) {
	b.lock.Lock()
	defer b.lock.Unlock()
	for n, p := range b.ports {
		if p == port {
			b.ports = append(b.ports[:n], b.ports[n+1:]...)
			return
		}
	}
}

// Send implements Bus.
func (p *LoopbackPort) Send(f Frame) error {
	p.lock.Lock()
	if p.detached {
		p.lock.Unlock()
		return ErrClosed
	}
	if p.busy > 0 {
		p.busy--
		p.lock.Unlock()
		return ErrTxBusy
	}
	if p.logTx {
		p.txLog = append(p.txLog, f)
	}
	p.lock.Unlock()
	glog.V(3).Infof("%s TX %s", p.bus.Name, f)
	p.bus.deliver(p, f)
	return nil
}

// SetBusy makes the next n Send calls fail with ErrTxBusy.
// A negative n keeps the port busy until SetBusy(0).
func (p *LoopbackPort) SetBusy(n int) {
	p.lock.Lock()
	p.busy = n
	if n < 0 {
		p.busy = int(^uint(0) >> 1)
	}
	p.lock.Unlock()
}

// RecordTx enables recording of successfully sent frames.
func (p *LoopbackPort) RecordTx() *LoopbackPort {
	p.lock.Lock()
	p.logTx = true
	p.lock.Unlock()
	return p
}

// TxLog returns and clears recorded frames.
func (p *LoopbackPort) TxLog() []Frame {
	p.lock.Lock()
	defer p.lock.Unlock()
	frames := p.txLog
	p.txLog = nil
	return frames
}

// Inject queues a frame as if received from the bus, bypassing other ports.
func (p *LoopbackPort) Inject(f Frame) {
	p.Push(f)
}

// Close detaches the port from the bus.
func (p *LoopbackPort) Close() error {
	p.lock.Lock()
	p.detached = true
	p.lock.Unlock()
	p.bus.detach(p)
	return nil
}
