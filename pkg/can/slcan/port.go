package slcan

import (
	"context"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/goburrow/serial"
	"github.com/golang/glog"

	"github.com/robotalks/swali.go/pkg/can"
)

// Default serial settings of common adapters.
const (
	DefaultBaudRate = 115200
	DefaultBitrate  = 125000
	DefaultTimeout  = 100 * time.Millisecond
)

// Port is a can.Bus over an SLCAN adapter. Run must be running to
// receive frames.
type Port struct {
	*can.RxQueue

	Bitrate int

	rw     io.ReadWriteCloser
	wlock  sync.Mutex
	parser Parser
	nacks  uint64
	errs   uint64
}

// NewPort wraps an open serial stream.
func NewPort(rw io.ReadWriteCloser) *Port {
	return &Port{RxQueue: can.NewRxQueue(), Bitrate: DefaultBitrate, rw: rw}
}

// Dial opens the serial device at address and the CAN channel.
func Dial(address string, baudRate, bitrate int) (*Port, error) {
	if baudRate <= 0 {
		baudRate = DefaultBaudRate
	}
	rw, err := serial.Open(&serial.Config{
		Address:  address,
		BaudRate: baudRate,
		DataBits: 8,
		StopBits: 1,
		Parity:   "N",
		Timeout:  DefaultTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", address, err)
	}
	p := NewPort(rw)
	if bitrate > 0 {
		p.Bitrate = bitrate
	}
	if err = p.Open(); err != nil {
		rw.Close()
		return nil, err
	}
	return p, nil
}

// Open configures the bitrate and opens the CAN channel.
func (p *Port) Open() error {
	code, ok := Bitrates[p.Bitrate]
	if !ok {
		return fmt.Errorf("unsupported bitrate %d", p.Bitrate)
	}
	for _, cmd := range [][]byte{{'C', cr}, {'S', code, cr}, {'O', cr}} {
		if err := p.write(cmd); err != nil {
			return err
		}
	}
	glog.Infof("slcan: open at %d bit/s", p.Bitrate)
	return nil
}

// Send implements can.Bus.
func (p *Port) Send(f can.Frame) error {
	return p.write(Encode(f))
}

func (p *Port) write(line []byte) error {
	p.wlock.Lock()
	defer p.wlock.Unlock()
	_, err := p.rw.Write(line)
	return err
}

// Nacks returns the number of commands rejected by the adapter.
func (p *Port) Nacks() uint64 {
	return atomic.LoadUint64(&p.nacks)
}

// Errors returns the number of malformed lines received.
func (p *Port) Errors() uint64 {
	return atomic.LoadUint64(&p.errs)
}

// Run reads the adapter until ctx is done or the stream fails.
func (p *Port) Run(ctx context.Context) error {
	byteCh, errCh := make(chan []byte), make(chan error, 1)
	subCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go p.readLoop(subCtx, byteCh, errCh)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-errCh:
			return err
		case data := <-byteCh:
			for _, b := range data {
				p.apply(p.parser.Parse(b))
			}
		}
	}
}

func (p *Port) readLoop(ctx context.Context, byteCh chan []byte, errCh chan error) {
	buf := make([]byte, 64)
	for {
		n, err := p.rw.Read(buf)
		if err != nil && err != serial.ErrTimeout {
			errCh <- err
			return
		}
		if n > 0 {
			select {
			case byteCh <- append([]byte(nil), buf[:n]...):
			case <-ctx.Done():
				return
			}
		}
		select {
		case <-ctx.Done():
			return
		default:
		}
	}
}

func (p *Port) apply(r Result) {
	switch {
	case r.Frame != nil:
		glog.V(4).Infof("slcan: RCV %s", *r.Frame)
		p.Push(*r.Frame)
	case r.Nack:
		atomic.AddUint64(&p.nacks, 1)
		glog.V(2).Info("slcan: command rejected")
	case r.Err != nil:
		atomic.AddUint64(&p.errs, 1)
		glog.V(2).Infof("slcan: %v", r.Err)
	case r.Response != nil:
		glog.V(2).Infof("slcan: response %q", r.Response)
	}
}

// Close closes the CAN channel and the stream.
func (p *Port) Close() error {
	p.write([]byte{'C', cr})
	return p.rw.Close()
}
