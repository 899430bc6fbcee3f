// Package slcan implements the Lawicel serial line CAN protocol spoken by
// most USB-CAN adapters.
package slcan

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/robotalks/swali.go/pkg/can"
)

const (
	cr   byte = '\r'
	bell byte = 0x07
)

// Bitrates maps bit/s to the Sn command argument.
var Bitrates = map[int]byte{
	10000:   '0',
	20000:   '1',
	50000:   '2',
	100000:  '3',
	125000:  '4',
	250000:  '5',
	500000:  '6',
	800000:  '7',
	1000000: '8',
}

// ErrBadLine indicates a received line doesn't decode to a frame.
var ErrBadLine = errors.New("malformed slcan line")

// Encode formats a frame as a transmit command, including the trailing CR.
func Encode(f can.Frame) []byte {
	cmd, id := byte('t'), fmt.Sprintf("%03X", f.ID&can.MaskStandardID)
	if f.Extended {
		cmd, id = 'T', fmt.Sprintf("%08X", f.ID&can.MaskExtendedID)
	}
	if f.Remote {
		cmd -= 'T' - 'R'
	}
	n := f.Len
	if n > 8 {
		n = 8
	}
	line := append([]byte{cmd}, id...)
	line = append(line, '0'+n)
	if !f.Remote {
		for _, b := range f.Data[:n] {
			line = append(line, fmt.Sprintf("%02X", b)...)
		}
	}
	return append(line, cr)
}

// Decode parses a received frame line without the trailing CR.
func Decode(line []byte) (f can.Frame, err error) {
	if len(line) == 0 {
		return f, ErrBadLine
	}
	idLen := 3
	switch line[0] {
	case 'T':
		f.Extended, idLen = true, 8
	case 't':
	case 'R':
		f.Extended, f.Remote, idLen = true, true, 8
	case 'r':
		f.Remote = true
	default:
		return f, ErrBadLine
	}
	if len(line) < 2+idLen {
		return f, ErrBadLine
	}
	id, err := strconv.ParseUint(string(line[1:1+idLen]), 16, 32)
	if err != nil {
		return f, ErrBadLine
	}
	f.ID = uint32(id)
	if (f.Extended && f.ID > can.MaskExtendedID) || (!f.Extended && f.ID > can.MaskStandardID) {
		return f, ErrBadLine
	}
	n := line[1+idLen] - '0'
	if n > 8 {
		return f, ErrBadLine
	}
	f.Len = n
	data := line[2+idLen:]
	if f.Remote {
		if len(data) != 0 {
			return f, ErrBadLine
		}
		return f, nil
	}
	if len(data) != int(n)*2 {
		return f, ErrBadLine
	}
	for i := 0; i < int(n); i++ {
		b, err := strconv.ParseUint(string(data[i*2:i*2+2]), 16, 8)
		if err != nil {
			return f, ErrBadLine
		}
		f.Data[i] = byte(b)
	}
	return f, nil
}
