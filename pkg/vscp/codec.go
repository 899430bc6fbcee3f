package vscp

import (
	"errors"

	"github.com/robotalks/swali.go/pkg/can"
)

// MaxClass is the largest class representable in a level 1 identifier.
const MaxClass uint16 = 0x1ff

var (
	// ErrClassRange indicates the class doesn't fit the 9-bit ID field.
	ErrClassRange = errors.New("class out of range")
	// ErrNotExtended indicates a standard 11-bit frame.
	ErrNotExtended = errors.New("not an extended frame")
	// ErrRemoteFrame indicates a remote transmission request.
	ErrRemoteFrame = errors.New("remote frame")
)

// EncodeID builds the 29-bit CAN identifier.
func EncodeID(priority Priority, class uint16, typ, nickname uint8) (uint32, error) {
	if class > MaxClass {
		return 0, ErrClassRange
	}
	return uint32(priority&7)<<26 |
		uint32(class)<<16 |
		uint32(typ)<<8 |
		uint32(nickname), nil
}

// DecodeID splits a 29-bit CAN identifier.
func DecodeID(id uint32) (priority Priority, class uint16, typ, nickname uint8) {
	return Priority((id >> 26) & 7), uint16((id >> 16) & 0x1ff), uint8(id >> 8), uint8(id)
}

// Frame encodes the event. The event's own Nickname is the source.
func (e Event) Frame() (can.Frame, error) {
	id, err := EncodeID(e.Priority, e.Class, e.Type, e.Nickname)
	if err != nil {
		return can.Frame{}, err
	}
	f := can.Frame{ID: id, Extended: true, Len: e.Size, Data: e.Data}
	if f.Len > 8 {
		f.Len = 8
	}
	return f, nil
}

// EventFromFrame decodes a received frame.
func EventFromFrame(f can.Frame) (ev Event, err error) {
	if !f.Extended {
		return ev, ErrNotExtended
	}
	if f.Remote {
		return ev, ErrRemoteFrame
	}
	ev.Priority, ev.Class, ev.Type, ev.Nickname = DecodeID(f.ID)
	ev.Size = f.Len
	if ev.Size > 8 {
		ev.Size = 8
	}
	copy(ev.Data[:], f.Data[:ev.Size])
	return ev, nil
}
