package can

import "errors"

// ErrTxBusy indicates the transmit path is momentarily full.
// Callers may retry.
var ErrTxBusy = errors.New("transmit busy")

// ErrClosed indicates the bus has been closed.
var ErrClosed = errors.New("bus closed")

// Bus is a non-blocking CAN interface.
type Bus interface {
	// Send queues a frame for transmission. It never blocks and returns
	// ErrTxBusy when the frame can't be accepted now.
	Send(Frame) error
	// Receive polls one received frame.
	Receive() (Frame, bool)
	// AddFilter narrows the acceptance filter, see AcceptanceFilter.
	AddFilter(mask, filter uint32)
}

// AcceptanceFilter emulates a single mask/filter register pair. Adding
// more filters widens acceptance by clearing the mask bits where the
// filters disagree. The zero value accepts every frame.
type AcceptanceFilter struct {
	mask   uint32
	filter uint32
	set    bool
}

// Add merges a mask/filter pair.
func (a *AcceptanceFilter) Add(mask, filter uint32) {
	if !a.set {
		a.mask, a.filter, a.set = 0xffffffff, filter, true
	}
	a.mask &= mask
	a.mask &^= a.filter ^ filter
	a.filter &= filter
}

// Mask returns the merged mask.
func (a *AcceptanceFilter) Mask() uint32 { return a.mask }

// Filter returns the merged filter.
func (a *AcceptanceFilter) Filter() uint32 { return a.filter }

// Accepts tests an ID against the merged filter.
func (a *AcceptanceFilter) Accepts(id uint32) bool {
	if !a.set {
		return true
	}
	return id&a.mask == a.filter&a.mask
}

const ringCapacity = 64

// ring is a bounded frame FIFO which drops the oldest frame when full.
type ring struct {
	data       [ringCapacity]Frame
	head, tail int
	count      int
	dropped    uint64
}

func (r *ring) push(f Frame) {
	if r.count == ringCapacity {
		r.head = (r.head + 1) % ringCapacity
		r.count--
		r.dropped++
	}
	r.data[r.tail] = f
	r.tail = (r.tail + 1) % ringCapacity
	r.count++
}

func (r *ring) pop() (f Frame, ok bool) {
	if r.count == 0 {
		return
	}
	f, ok = r.data[r.head], true
	r.head = (r.head + 1) % ringCapacity
	r.count--
	return
}
