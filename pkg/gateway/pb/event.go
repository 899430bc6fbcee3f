// Package pb holds the MQTT payload messages of the gateway, see
// event.proto.
package pb

import (
	"github.com/golang/protobuf/proto"
)

// Event is a VSCP level 1 event as seen on the bus.
type Event struct {
	Nickname uint32 `protobuf:"varint,1,opt,name=nickname,proto3" json:"nickname,omitempty"`
	Class    uint32 `protobuf:"varint,2,opt,name=class,proto3" json:"class,omitempty"`
	Type     uint32 `protobuf:"varint,3,opt,name=type,proto3" json:"type,omitempty"`
	Priority uint32 `protobuf:"varint,4,opt,name=priority,proto3" json:"priority,omitempty"`
	Data     []byte `protobuf:"bytes,5,opt,name=data,proto3" json:"data,omitempty"`
	// unix nanoseconds when the gateway received the event.
	Timestamp int64 `protobuf:"varint,6,opt,name=timestamp,proto3" json:"timestamp,omitempty"`
}

// Reset implements proto.Message.
func (m *Event) Reset() { *m = Event{} }

// String implements proto.Message.
func (m *Event) String() string { return proto.CompactTextString(m) }

// ProtoMessage implements proto.Message.
func (*Event) ProtoMessage() {}

func init() {
	proto.RegisterType((*Event)(nil), "swali.gateway.v1.Event")
}
