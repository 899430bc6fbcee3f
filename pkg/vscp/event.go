// Package vscp implements a VSCP level 1 node over CAN: nickname
// discovery, the standard register map, protocol events and the
// message channel to the hosting application.
package vscp

import "fmt"

// Priority is the 3-bit frame priority, 0 is the highest.
type Priority uint8

// Priorities.
const (
	PriorityHigh   Priority = 0
	PriorityNormal Priority = 3
	PriorityMedium          = PriorityNormal
	PriorityLow    Priority = 7
)

// Level 1 classes.
const (
	ClassProtocol    uint16 = 0
	ClassAlarm       uint16 = 1
	ClassSecurity    uint16 = 2
	ClassMeasurement uint16 = 10
	ClassInformation uint16 = 20
	ClassControl     uint16 = 30
)

// Protocol class types.
const (
	ProtocolNewNodeOnline         uint8 = 0x02
	ProtocolProbeAck              uint8 = 0x03
	ProtocolSetNickname           uint8 = 0x06
	ProtocolNicknameAccepted      uint8 = 0x07
	ProtocolDropNickname          uint8 = 0x08
	ProtocolReadRegister          uint8 = 0x09
	ProtocolRWResponse            uint8 = 0x0a
	ProtocolWriteRegister         uint8 = 0x0b
	ProtocolEnterBootLoader       uint8 = 0x0c
	ProtocolAckBootLoader         uint8 = 0x0d
	ProtocolNackBootLoader        uint8 = 0x0e
	ProtocolResetDevice           uint8 = 0x1e
	ProtocolWhoIsThere            uint8 = 0x1f
	ProtocolWhoIsThereResponse    uint8 = 0x20
	ProtocolGetMatrixInfo         uint8 = 0x21
	ProtocolGetMatrixInfoResponse uint8 = 0x22
	ProtocolExtendedPageRead      uint8 = 0x25
	ProtocolExtendedPageWrite     uint8 = 0x26
	ProtocolExtendedPageResponse  uint8 = 0x27
	ProtocolIncrementRegister     uint8 = 0x28
	ProtocolDecrementRegister     uint8 = 0x29
)

// Information class types.
const (
	InformationButton        uint8 = 0x01
	InformationOn            uint8 = 0x03
	InformationOff           uint8 = 0x04
	InformationNodeHeartbeat uint8 = 0x09
)

// Control class types.
const (
	ControlTurnOn  uint8 = 0x05
	ControlTurnOff uint8 = 0x06
)

// Reserved nicknames.
const (
	NicknameMaster uint8 = 0x00
	NicknameFree   uint8 = 0xff
)

// Event is a level 1 VSCP event.
type Event struct {
	Priority Priority
	Class    uint16
	Type     uint8
	Nickname uint8
	Size     uint8
	Data     [8]byte
}

// NewEvent creates an event. Data beyond 8 bytes is dropped.
func NewEvent(priority Priority, class uint16, typ uint8, data ...byte) Event {
	ev := Event{Priority: priority, Class: class, Type: typ}
	ev.Size = uint8(copy(ev.Data[:], data))
	return ev
}

// Payload returns the valid data bytes.
func (e Event) Payload() []byte {
	n := e.Size
	if n > 8 {
		n = 8
	}
	return e.Data[:n]
}

// Is tests class and type.
func (e Event) Is(class uint16, typ uint8) bool {
	return e.Class == class && e.Type == typ
}

// String implements fmt.Stringer.
func (e Event) String() string {
	return fmt.Sprintf("nick=%02x class=%d type=%d prio=%d [% x]",
		e.Nickname, e.Class, e.Type, e.Priority, e.Payload())
}
