package store

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/golang/glog"
)

// MaxReadsPerUpdate bounds the bytes compared by one Update.
const MaxReadsPerUpdate = 4

// ErrTooLarge indicates the blob doesn't fit the medium.
var ErrTooLarge = errors.New("blob exceeds medium")

// Store keeps a RAM copy of the config blob and writes changes back to
// the medium in the background, one byte at a time. It isn't safe for
// concurrent use; Update and the owner of Bytes must share a goroutine.
type Store struct {
	medium Medium
	data   []byte
	offset int
	equal  int
	err    error
}

// Open loads size bytes from the medium.
func Open(m Medium, size int) (*Store, error) {
	if size > m.Size() {
		return nil, fmt.Errorf("%w: %d > %d bytes", ErrTooLarge, size, m.Size())
	}
	s := &Store{medium: m, data: make([]byte, size)}
	for i := range s.data {
		s.data[i] = m.Load(i)
	}
	return s, nil
}

// Bytes returns the RAM copy. Modifications are written back by Update.
func (s *Store) Bytes() []byte {
	return s.data
}

// Size returns the blob size.
func (s *Store) Size() int {
	return len(s.data)
}

// Update compares up to MaxReadsPerUpdate bytes against the medium and
// starts writing the first difference found.
func (s *Store) Update() {
	if len(s.data) == 0 || !s.medium.WriteDone() {
		return
	}
	for count := 0; count < MaxReadsPerUpdate; count++ {
		if b := s.data[s.offset]; b != s.medium.Load(s.offset) {
			if err := s.medium.Program(s.offset, b); err != nil {
				glog.Errorf("store: write %02x at %d: %v", b, s.offset, err)
				if s.err == nil {
					s.err = err
				}
			} else {
				glog.V(3).Infof("store: write %02x at %d", b, s.offset)
			}
			return
		}
		s.offset++
		if s.offset == len(s.data) {
			s.offset = 0
		}
		if s.equal < len(s.data) {
			s.equal++
		}
	}
}

// Clean reports whether a full pass over the blob found no difference
// since the last WaitWritten.
func (s *Store) Clean() bool {
	return s.equal >= len(s.data)
}

// WaitWritten drives Update until a full pass finds the medium in sync,
// or a write fails.
func (s *Store) WaitWritten() error {
	s.equal = 0
	s.err = nil
	for !s.Clean() {
		s.Update()
		if s.err != nil {
			return s.err
		}
		runtime.Gosched()
	}
	return nil
}
