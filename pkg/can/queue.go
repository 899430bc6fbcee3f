package can

import "sync"

// RxQueue is a goroutine-safe bounded receive queue with an acceptance
// filter. Transports that read in the background push into it and serve
// Bus.Receive from it.
type RxQueue struct {
	lock   sync.Mutex
	filter AcceptanceFilter
	rx     ring
	notify chan struct{}
}

// NewRxQueue creates an RxQueue.
func NewRxQueue() *RxQueue {
	return &RxQueue{notify: make(chan struct{}, 1)}
}

// Push offers a received frame. It returns false if the filter rejects it.
func (q *RxQueue) Push(f Frame) bool {
	q.lock.Lock()
	if !q.filter.Accepts(f.ID) {
		q.lock.Unlock()
		return false
	}
	q.rx.push(f)
	q.lock.Unlock()
	select {
	case q.notify <- struct{}{}:
	default:
	}
	return true
}

// Receive implements Bus.
func (q *RxQueue) Receive() (Frame, bool) {
	q.lock.Lock()
	defer q.lock.Unlock()
	return q.rx.pop()
}

// AddFilter implements Bus.
func (q *RxQueue) AddFilter(mask, filter uint32) {
	q.lock.Lock()
	q.filter.Add(mask, filter)
	q.lock.Unlock()
}

// Len returns the number of queued frames.
func (q *RxQueue) Len() int {
	q.lock.Lock()
	defer q.lock.Unlock()
	return q.rx.count
}

// Dropped returns how many frames were discarded on overflow.
func (q *RxQueue) Dropped() uint64 {
	q.lock.Lock()
	defer q.lock.Unlock()
	return q.rx.dropped
}

// Notify is signaled after a frame is queued.
func (q *RxQueue) Notify() <-chan struct{} {
	return q.notify
}
