// Package can defines CAN frames, the bus abstraction used by VSCP nodes
// and in-process transports.
package can

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// ID masks.
const (
	MaskExtendedID uint32 = 0x1fffffff
	MaskStandardID uint32 = 0x7ff
)

// FrameSize is the size of a binary encoded frame.
const FrameSize = 13

const (
	flagExtended byte = 0x80
	flagRemote   byte = 0x40
	maskLen      byte = 0x0f
)

// ErrFrameSize indicates a binary frame has the wrong size or length field.
var ErrFrameSize = errors.New("invalid frame size")

// Frame is a classic CAN frame.
type Frame struct {
	ID       uint32
	Extended bool
	Remote   bool
	Len      uint8
	Data     [8]byte
}

// Payload returns the valid data bytes.
func (f Frame) Payload() []byte {
	n := f.Len
	if n > 8 {
		n = 8
	}
	return f.Data[:n]
}

// String implements fmt.Stringer.
func (f Frame) String() string {
	id := fmt.Sprintf("%03x", f.ID)
	if f.Extended {
		id = fmt.Sprintf("%08x", f.ID)
	}
	if f.Remote {
		return fmt.Sprintf("%s [%d] remote", id, f.Len)
	}
	return fmt.Sprintf("%s [%d] % x", id, f.Len, f.Payload())
}

// MarshalBinary encodes the frame as 4 bytes big-endian ID, 1 byte
// flags|len and 8 data bytes.
func (f Frame) MarshalBinary() ([]byte, error) {
	if f.Len > 8 {
		return nil, ErrFrameSize
	}
	buf := make([]byte, FrameSize)
	binary.BigEndian.PutUint32(buf, f.ID)
	buf[4] = f.Len
	if f.Extended {
		buf[4] |= flagExtended
	}
	if f.Remote {
		buf[4] |= flagRemote
	}
	copy(buf[5:], f.Data[:])
	return buf, nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (f *Frame) UnmarshalBinary(data []byte) error {
	if len(data) != FrameSize || data[4]&maskLen > 8 {
		return ErrFrameSize
	}
	f.ID = binary.BigEndian.Uint32(data)
	f.Extended = data[4]&flagExtended != 0
	f.Remote = data[4]&flagRemote != 0
	f.Len = data[4] & maskLen
	copy(f.Data[:], data[5:])
	if f.Extended {
		f.ID &= MaskExtendedID
	} else {
		f.ID &= MaskStandardID
	}
	return nil
}
