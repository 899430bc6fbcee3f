package store

import (
	"fmt"
	"os"
	"sync"
)

// Erased is the value of a byte never programmed.
const Erased byte = 0xff

// Medium is byte addressable non-volatile memory. Program starts a write
// which may complete later; WriteDone reports whether the medium is ready
// for the next one.
type Medium interface {
	Size() int
	Load(off int) byte
	Program(off int, b byte) error
	WriteDone() bool
}

// MemMedium keeps the content in memory.
type MemMedium struct {
	// WriteTicks is the number of WriteDone polls a write stays busy.
	WriteTicks int

	lock   sync.Mutex
	data   []byte
	busy   int
	writes int
}

// NewMemMedium creates an erased medium of size bytes.
func NewMemMedium(size int) *MemMedium {
	m := &MemMedium{data: make([]byte, size)}
	for i := range m.data {
		m.data[i] = Erased
	}
	return m
}

// Size implements Medium.
func (m *MemMedium) Size() int {
	return len(m.data)
}

// Load implements Medium.
func (m *MemMedium) Load(off int) byte {
	m.lock.Lock()
	defer m.lock.Unlock()
	return m.data[off]
}

// Program implements Medium.
func (m *MemMedium) Program(off int, b byte) error {
	m.lock.Lock()
	defer m.lock.Unlock()
	if off < 0 || off >= len(m.data) {
		return fmt.Errorf("offset %d out of range", off)
	}
	m.data[off] = b
	m.busy = m.WriteTicks
	m.writes++
	return nil
}

// WriteDone implements Medium.
func (m *MemMedium) WriteDone() bool {
	m.lock.Lock()
	defer m.lock.Unlock()
	if m.busy > 0 {
		m.busy--
		return false
	}
	return true
}

// Writes returns the number of bytes programmed.
func (m *MemMedium) Writes() int {
	m.lock.Lock()
	defer m.lock.Unlock()
	return m.writes
}

// FileMedium is a memory image backed by a file. Writes go through to
// the file immediately.
type FileMedium struct {
	file *os.File
	data []byte
}

// OpenFile opens or creates an image file of size bytes. A new or short
// file is padded with erased bytes.
func OpenFile(path string, size int) (*FileMedium, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, err
	}
	m := &FileMedium{file: f, data: make([]byte, size)}
	n, err := f.ReadAt(m.data, 0)
	if err != nil && n < size {
		for i := n; i < size; i++ {
			m.data[i] = Erased
		}
		if _, err = f.WriteAt(m.data[n:], int64(n)); err != nil {
			f.Close()
			return nil, err
		}
	}
	return m, nil
}

// Size implements Medium.
func (m *FileMedium) Size() int {
	return len(m.data)
}

// Load implements Medium.
func (m *FileMedium) Load(off int) byte {
	return m.data[off]
}

// Program implements Medium.
func (m *FileMedium) Program(off int, b byte) error {
	if off < 0 || off >= len(m.data) {
		return fmt.Errorf("offset %d out of range", off)
	}
	if _, err := m.file.WriteAt([]byte{b}, int64(off)); err != nil {
		return err
	}
	m.data[off] = b
	return nil
}

// WriteDone implements Medium.
func (m *FileMedium) WriteDone() bool {
	return true
}

// Close implements io.Closer.
func (m *FileMedium) Close() error {
	return m.file.Close()
}
