package vscp

import "fmt"

// MsgID identifies a message exchanged with the application.
type MsgID uint8

// Message direction flags, combined with MsgID in Message.Type.
const (
	MsgSet uint8 = 0x00
	MsgGet uint8 = 0x80
)

// Message ids.
const (
	MsgState       MsgID = 0x00
	MsgNickname    MsgID = 0x01
	MsgRegValue    MsgID = 0x02
	MsgEnterBoot   MsgID = 0x03
	MsgBootAlg     MsgID = 0x04
	MsgGUID        MsgID = 0x05
	MsgMDF         MsgID = 0x06
	MsgDMInfo      MsgID = 0x07
	MsgAlarmStatus MsgID = 0x08
	MsgUserID      MsgID = 0x09
	MsgMfgID       MsgID = 0x0a
	MsgFWVersion   MsgID = 0x0b
	MsgStdDevice   MsgID = 0x0c
	MsgResetConfig MsgID = 0x0d
	MsgPagesUsed   MsgID = 0x0e
)

var msgNames = map[MsgID]string{
	MsgState:       "STATE",
	MsgNickname:    "NICKNAME",
	MsgRegValue:    "REGVALUE",
	MsgEnterBoot:   "ENTER_BOOT",
	MsgBootAlg:     "BOOT_ALG",
	MsgGUID:        "GUID",
	MsgMDF:         "MDF",
	MsgDMInfo:      "DMINFO",
	MsgAlarmStatus: "ALARMSTATUS",
	MsgUserID:      "USERID",
	MsgMfgID:       "MFGID",
	MsgFWVersion:   "FWVERSION",
	MsgStdDevice:   "STD_DEVICE",
	MsgResetConfig: "RESET_CONFIG",
	MsgPagesUsed:   "PAGES_USED",
}

// String implements fmt.Stringer.
func (id MsgID) String() string {
	if name, ok := msgNames[id]; ok {
		return name
	}
	return fmt.Sprintf("MSG(%02x)", uint8(id))
}

// Message is the fixed-size request/response exchanged synchronously
// between the node and the application.
//
// A GET of a single-byte value is sent with Length 1 and Value[0] set
// to the index; the application answers by setting Length 2 and Value[1]
// while leaving Value[0] untouched. A REGVALUE GET carries
// {reg, pageHi, pageLo} and is answered with Length 4 and Value[3].
type Message struct {
	Type   uint8
	Length uint8
	Value  [8]byte
}

// NewGet creates a GET message for a single indexed value.
func NewGet(id MsgID, index byte) Message {
	return Message{Type: MsgGet | uint8(id), Length: 1, Value: [8]byte{index}}
}

// NewSet creates a SET message.
func NewSet(id MsgID, values ...byte) Message {
	m := Message{Type: MsgSet | uint8(id)}
	m.Length = uint8(copy(m.Value[:], values))
	return m
}

// ID returns the message id without direction flag.
func (m *Message) ID() MsgID {
	return MsgID(m.Type &^ MsgGet)
}

// IsGet tells if the message is a request for a value.
func (m *Message) IsGet() bool {
	return m.Type&MsgGet != 0
}

// Index is the value index of an indexed GET/SET.
func (m *Message) Index() byte {
	return m.Value[0]
}

// SetValue is the value of an indexed SET.
func (m *Message) SetValue() byte {
	return m.Value[1]
}

// Reply answers an indexed GET.
func (m *Message) Reply(value byte) {
	m.Value[1] = value
	m.Length = 2
}

// Register returns register and page of a REGVALUE message.
func (m *Message) Register() (reg byte, page uint16) {
	return m.Value[0], uint16(m.Value[1])<<8 | uint16(m.Value[2])
}

// RegisterValue is the value of a REGVALUE SET.
func (m *Message) RegisterValue() byte {
	return m.Value[3]
}

// ReplyRegister answers a REGVALUE GET.
func (m *Message) ReplyRegister(value byte) {
	m.Value[3] = value
	m.Length = 4
}

// String implements fmt.Stringer.
func (m *Message) String() string {
	dir := "SET"
	if m.IsGet() {
		dir = "GET"
	}
	n := m.Length
	if n > 8 {
		n = 8
	}
	return fmt.Sprintf("%s %s [% x]", dir, m.ID(), m.Value[:n])
}

// MessageHandler answers messages from the node. It's called
// synchronously and must not block or send bus events.
type MessageHandler interface {
	HandleMessage(*Message)
}

// HandleMessageFunc is the func form of MessageHandler.
type HandleMessageFunc func(*Message)

// HandleMessage implements MessageHandler.
func (f HandleMessageFunc) HandleMessage(m *Message) {
	f(m)
}

// EventHandler receives non-protocol events from the bus.
type EventHandler interface {
	HandleEvent(Event)
}

// HandleEventFunc is the func form of EventHandler.
type HandleEventFunc func(Event)

// HandleEvent implements EventHandler.
func (f HandleEventFunc) HandleEvent(ev Event) {
	f(ev)
}
