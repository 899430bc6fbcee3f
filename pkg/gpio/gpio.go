package gpio

import "sync"

// Reserved discrete ids. The status LED is an output and the init button
// an input, so they share an id.
const (
	StatusLED  uint8 = 255
	InitButton uint8 = 255
)

// Discrete is a bank of digital inputs and outputs addressed by id.
type Discrete interface {
	Read(id uint8) bool
	Write(id uint8, level bool)
}

// Bank is an in-memory Discrete used for simulation. Inputs float high
// (pull-up) until driven.
type Bank struct {
	lock   sync.RWMutex
	low    [256]bool
	out    [256]bool
	notify func(id uint8, level bool)
}

// NewBank creates a Bank.
func NewBank() *Bank {
	return &Bank{}
}

// OnWrite installs a callback invoked when an output level changes.
func (b *Bank) OnWrite(fn func(id uint8, level bool)) {
	b.lock.Lock()
	b.notify = fn
	b.lock.Unlock()
}

// Read implements Discrete.
func (b *Bank) Read(id uint8) bool {
	b.lock.RLock()
	defer b.lock.RUnlock()
	return !b.low[id]
}

// Write implements Discrete.
func (b *Bank) Write(id uint8, level bool) {
	b.lock.Lock()
	changed := b.out[id] != level
	b.out[id] = level
	fn := b.notify
	b.lock.Unlock()
	if changed && fn != nil {
		fn(id, level)
	}
}

// Set drives an input pin.
func (b *Bank) Set(id uint8, level bool) {
	b.lock.Lock()
	b.low[id] = !level
	b.lock.Unlock()
}

// Get returns the last level written to an output pin.
func (b *Bank) Get(id uint8) bool {
	b.lock.RLock()
	defer b.lock.RUnlock()
	return b.out[id]
}
