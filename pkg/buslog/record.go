// Package buslog captures bus traffic to CBOR encoded log files.
package buslog

import (
	"fmt"
	"time"

	"github.com/robotalks/swali.go/pkg/can"
	"github.com/robotalks/swali.go/pkg/vscp"
)

// Direction indicates the frame flow relative to the capturing port.
type Direction uint8

// Directions.
const (
	DirectionIn  Direction = 0
	DirectionOut Direction = 1
)

// String returns the direction name.
func (d Direction) String() string {
	switch d {
	case DirectionIn:
		return "IN"
	case DirectionOut:
		return "OUT"
	default:
		return "UNKNOWN"
	}
}

// Record is one captured frame.
type Record struct {
	Timestamp time.Time `cbor:"1,keyasint"`
	Direction Direction `cbor:"2,keyasint"`
	ID        uint32    `cbor:"3,keyasint"`
	Extended  bool      `cbor:"4,keyasint,omitempty"`
	Remote    bool      `cbor:"5,keyasint,omitempty"`
	Data      []byte    `cbor:"6,keyasint,omitempty"`
}

// NewRecord captures a frame.
func NewRecord(t time.Time, dir Direction, f can.Frame) Record {
	return Record{
		Timestamp: t,
		Direction: dir,
		ID:        f.ID,
		Extended:  f.Extended,
		Remote:    f.Remote,
		Data:      append([]byte(nil), f.Payload()...),
	}
}

// Frame restores the captured frame.
func (r Record) Frame() (f can.Frame, err error) {
	if len(r.Data) > len(f.Data) {
		return f, can.ErrFrameSize
	}
	f.ID, f.Extended, f.Remote = r.ID, r.Extended, r.Remote
	f.Len = uint8(copy(f.Data[:], r.Data))
	return f, nil
}

// String decodes the record as a VSCP event where possible.
func (r Record) String() string {
	prefix := fmt.Sprintf("%s %-3s", r.Timestamp.Format("15:04:05.000000"), r.Direction)
	f, err := r.Frame()
	if err != nil {
		return fmt.Sprintf("%s invalid: %v", prefix, err)
	}
	ev, err := vscp.EventFromFrame(f)
	if err != nil {
		return fmt.Sprintf("%s %s", prefix, f)
	}
	return fmt.Sprintf("%s %s", prefix, ev)
}
