package store

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOpenTooLarge(t *testing.T) {
	_, err := Open(NewMemMedium(16), 17)
	require.True(t, errors.Is(err, ErrTooLarge))
}

func TestOpenLoads(t *testing.T) {
	m := NewMemMedium(8)
	require.NoError(t, m.Program(3, 0x42))
	s, err := Open(m, 4)
	require.NoError(t, err)
	require.Equal(t, []byte{0xff, 0xff, 0xff, 0x42}, s.Bytes())
}

func TestUpdateWritesOneByte(t *testing.T) {
	m := NewMemMedium(16)
	s, err := Open(m, 16)
	require.NoError(t, err)
	s.Bytes()[1] = 1
	s.Bytes()[2] = 2
	s.Bytes()[9] = 9

	s.Update()
	require.Equal(t, 1, m.Writes())
	require.EqualValues(t, 1, m.Load(1))
	require.EqualValues(t, 0xff, m.Load(2))

	s.Update()
	require.Equal(t, 2, m.Writes())
	require.EqualValues(t, 2, m.Load(2))

	// offsets 2..5 are compared, nothing written
	s.Update()
	require.Equal(t, 2, m.Writes())
	s.Update()
	require.Equal(t, 3, m.Writes())
	require.EqualValues(t, 9, m.Load(9))
}

func TestUpdateWaitsForMedium(t *testing.T) {
	m := NewMemMedium(4)
	m.WriteTicks = 3
	s, err := Open(m, 4)
	require.NoError(t, err)
	copy(s.Bytes(), []byte{1, 2, 3, 4})
	s.Update()
	require.Equal(t, 1, m.Writes())
	for i := 0; i < 3; i++ {
		s.Update()
	}
	require.Equal(t, 1, m.Writes())
	s.Update()
	require.Equal(t, 2, m.Writes())
}

func TestWaitWritten(t *testing.T) {
	m := NewMemMedium(64)
	m.WriteTicks = 2
	s, err := Open(m, 48)
	require.NoError(t, err)
	for i := range s.Bytes() {
		s.Bytes()[i] = byte(i)
	}
	require.NoError(t, s.WaitWritten())
	require.True(t, s.Clean())
	for i := 0; i < 48; i++ {
		require.EqualValues(t, i, m.Load(i))
	}
	require.EqualValues(t, 0xff, m.Load(48))

	writes := m.Writes()
	require.NoError(t, s.WaitWritten())
	require.Equal(t, writes, m.Writes())
}

type failingMedium struct {
	*MemMedium
}

func (m failingMedium) Program(off int, b byte) error {
	return errors.New("worn out")
}

func TestWaitWrittenError(t *testing.T) {
	s, err := Open(failingMedium{NewMemMedium(8)}, 8)
	require.NoError(t, err)
	s.Bytes()[5] = 0
	require.EqualError(t, s.WaitWritten(), "worn out")
}

func TestFileMedium(t *testing.T) {
	path := filepath.Join(t.TempDir(), "node.img")
	m, err := OpenFile(path, 32)
	require.NoError(t, err)
	require.Equal(t, 32, m.Size())
	require.EqualValues(t, Erased, m.Load(31))

	s, err := Open(m, 32)
	require.NoError(t, err)
	s.Bytes()[0] = 0xaa
	s.Bytes()[17] = 0x11
	require.NoError(t, s.WaitWritten())
	require.NoError(t, m.Close())

	m, err = OpenFile(path, 64)
	require.NoError(t, err)
	defer m.Close()
	require.EqualValues(t, 0xaa, m.Load(0))
	require.EqualValues(t, 0x11, m.Load(17))
	require.EqualValues(t, Erased, m.Load(40))
}
