package gateway

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/golang/glog"
	"github.com/golang/protobuf/proto"

	"github.com/robotalks/swali.go/pkg/can"
	"github.com/robotalks/swali.go/pkg/gateway/pb"
	"github.com/robotalks/swali.go/pkg/vscp"
)

// Topics relative to the queue prefix.
const (
	TopicEvents  = "event"
	TopicZoneSet = "zone/+/+/set"
	TopicSend    = "send"
)

// Zone state payloads.
const (
	StateOn  = "ON"
	StateOff = "OFF"
)

// DefaultNickname is the nickname stamped on events the gateway sends.
const DefaultNickname uint8 = 0xfd

// Bridge publishes bus events to MQTT and sends MQTT requests to the bus.
type Bridge struct {
	Nickname     uint8
	PollInterval time.Duration

	broker Broker
	bus    can.Bus
	now    func() time.Time
	txLock sync.Mutex
}

type notifier interface {
	Notify() <-chan struct{}
}

// NewBridge creates a Bridge.
func NewBridge(broker Broker, bus can.Bus) *Bridge {
	return &Bridge{
		Nickname:     DefaultNickname,
		PollInterval: time.Millisecond,
		broker:       broker,
		bus:          bus,
		now:          time.Now,
	}
}

// EventTopic is where events from nick of class/type are published.
func EventTopic(nick uint8, class uint16, typ uint8) string {
	return fmt.Sprintf("%s/%d/%d/%d", TopicEvents, nick, class, typ)
}

// ZoneStateTopic is the retained state topic of a zone/subzone.
func ZoneStateTopic(zone, subzone uint8) string {
	return fmt.Sprintf("zone/%d/%d/state", zone, subzone)
}

// Run subscribes to the request topics and forwards bus events until ctx
// is done.
func (b *Bridge) Run(ctx context.Context) error {
	subs := []*Subscription{
		b.broker.Sub(TopicZoneSet, b.zoneSet),
		b.broker.Sub(TopicSend, b.send),
	}
	defer func() {
		for _, sub := range subs {
			sub.Close()
		}
	}()

	var wake <-chan struct{}
	if n, ok := b.bus.(notifier); ok {
		wake = n.Notify()
	}
	ticker := time.NewTicker(b.PollInterval)
	defer ticker.Stop()
	for {
		for f, ok := b.bus.Receive(); ok; f, ok = b.bus.Receive() {
			ev, err := vscp.EventFromFrame(f)
			if err != nil {
				glog.V(2).Infof("gateway: skip frame %s: %v", f, err)
				continue
			}
			b.Publish(ev)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-wake:
		case <-ticker.C:
		}
	}
}

// Publish forwards one bus event. Protocol events are not published.
func (b *Bridge) Publish(ev vscp.Event) {
	if ev.Class == vscp.ClassProtocol {
		return
	}
	msg := &pb.Event{
		Nickname:  uint32(ev.Nickname),
		Class:     uint32(ev.Class),
		Type:      uint32(ev.Type),
		Priority:  uint32(ev.Priority),
		Data:      append([]byte(nil), ev.Payload()...),
		Timestamp: b.now().UnixNano(),
	}
	payload, err := proto.Marshal(msg)
	if err != nil {
		glog.Errorf("gateway: encode %s: %v", ev, err)
		return
	}
	b.broker.PubWith(EventTopic(ev.Nickname, ev.Class, ev.Type), payload, 0, false)

	if ev.Class != vscp.ClassInformation || ev.Size < 3 {
		return
	}
	var state string
	switch ev.Type {
	case vscp.InformationOn:
		state = StateOn
	case vscp.InformationOff:
		state = StateOff
	default:
		return
	}
	b.broker.PubWith(ZoneStateTopic(ev.Data[1], ev.Data[2]), []byte(state), 1, true)
}

// SendEvent transmits an event to the bus with the gateway nickname.
func (b *Bridge) SendEvent(ev vscp.Event) error {
	ev.Nickname = b.Nickname
	f, err := ev.Frame()
	if err != nil {
		return err
	}
	b.txLock.Lock()
	defer b.txLock.Unlock()
	glog.V(2).Infof("gateway: SND %s", ev)
	return b.bus.Send(f)
}

func (b *Bridge) zoneSet(topic string, payload []byte) {
	parts := strings.Split(topic, "/")
	if len(parts) != 4 {
		return
	}
	zone, err := strconv.ParseUint(parts[1], 10, 8)
	if err != nil {
		glog.Warningf("gateway: %s: bad zone: %v", topic, err)
		return
	}
	subzone, err := strconv.ParseUint(parts[2], 10, 8)
	if err != nil {
		glog.Warningf("gateway: %s: bad subzone: %v", topic, err)
		return
	}
	var typ uint8
	switch strings.ToUpper(strings.TrimSpace(string(payload))) {
	case StateOn, "1", "TRUE":
		typ = vscp.ControlTurnOn
	case StateOff, "0", "FALSE":
		typ = vscp.ControlTurnOff
	default:
		glog.Warningf("gateway: %s: unknown state %q", topic, payload)
		return
	}
	ev := vscp.NewEvent(vscp.PriorityNormal, vscp.ClassControl, typ, 0, uint8(zone), uint8(subzone))
	if err := b.SendEvent(ev); err != nil {
		glog.Warningf("gateway: %s: %v", topic, err)
	}
}

func (b *Bridge) send(topic string, payload []byte) {
	var msg pb.Event
	if err := proto.Unmarshal(payload, &msg); err != nil {
		glog.Warningf("gateway: %s: %v", topic, err)
		return
	}
	if msg.Class > 0x1ff || msg.Type > 0xff || msg.Priority > 7 || len(msg.Data) > 8 {
		glog.Warningf("gateway: %s: event out of range: %s", topic, msg.String())
		return
	}
	ev := vscp.NewEvent(vscp.Priority(msg.Priority), uint16(msg.Class), uint8(msg.Type), msg.Data...)
	if err := b.SendEvent(ev); err != nil {
		glog.Warningf("gateway: %s: %v", topic, err)
	}
}
