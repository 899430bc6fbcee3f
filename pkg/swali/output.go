package swali

import (
	"github.com/robotalks/swali.go/pkg/timebase"
	"github.com/robotalks/swali.go/pkg/vscp"
)

const minute timebase.Millis = 60000

const (
	cfgOnTimeHrs  = 3
	cfgOnTimeMins = 4
	outputName    = 5
)

// output drives a relay or light with an optional auto-off timer.
type output struct {
	layer   *Layer
	channel uint8
	cfg     config

	state    bool
	reported bool
	resync   bool
	last     timebase.Millis
	hrs      uint8
	mins     uint8
}

func newOutput(l *Layer, ch uint8, cfg config) *output {
	o := &output{layer: l, channel: ch, cfg: cfg, last: l.clock.Now()}
	o.update()
	return o
}

func (o *output) timerOn() bool {
	return o.cfg[cfgOnTimeHrs] != 0 || o.cfg[cfgOnTimeMins] != 0
}

func (o *output) process() {
	if o.cfg.flag(FlagEnable) {
		o.accumulate()
		if o.timerOn() && o.hrs == o.cfg[cfgOnTimeHrs] && o.mins == o.cfg[cfgOnTimeMins] {
			o.layer.send(vscp.NewEvent(vscp.PriorityMedium, vscp.ClassControl, vscp.ControlTurnOff,
				o.channel, o.cfg.zone(), o.cfg.subzone()))
		}
		if o.state != o.reported || o.resync {
			o.sendInfo()
			o.reported = o.state
			o.resync = false
		}
	}
	o.update()
}

// accumulate counts whole minutes of on time.
func (o *output) accumulate() {
	now := o.layer.clock.Now()
	if !o.state {
		o.last = now
		o.hrs, o.mins = 0, 0
		return
	}
	for timebase.Since(now, o.last) >= minute {
		o.last += minute
		o.mins++
		if o.mins == 60 {
			o.mins = 0
			o.hrs++
		}
	}
}

func (o *output) handleEvent(ev vscp.Event) {
	if !o.cfg.flag(FlagEnable) {
		return
	}
	if ev.Class != vscp.ClassControl || ev.Size != 3 || ev.Data[1] != o.cfg.zone() ||
		(ev.Data[2] != o.cfg.subzone() && ev.Data[2] != 255) {
		return
	}
	switch ev.Type {
	case vscp.ControlTurnOn:
		o.turn(true)
	case vscp.ControlTurnOff:
		o.turn(false)
	}
}

// turn applies a request. Repeating the current state makes the next
// process report it again for peers that missed it.
func (o *output) turn(on bool) {
	if o.state == on {
		o.resync = true
		return
	}
	o.state = on
}

func (o *output) update() {
	level := o.state
	if o.cfg.flag(FlagInvert) {
		level = !level
	}
	o.layer.io.Write(o.channel, level)
}

func (o *output) sendInfo() {
	typ := vscp.InformationOff
	if o.state {
		typ = vscp.InformationOn
	}
	o.layer.send(vscp.NewEvent(vscp.PriorityMedium, vscp.ClassInformation, typ,
		o.channel, o.cfg.zone(), o.cfg.subzone()))
}

func (o *output) readRegister(reg uint8) uint8 {
	switch regRange(reg) {
	case RegID0:
		return 'O'
	case RegID1:
		return 'U'
	case RegState:
		return boolByte(o.state)
	case RegEnable:
		return o.cfg.readFlag(FlagEnable)
	case RegZone:
		return o.cfg.zone()
	case RegSubzone:
		return o.cfg.subzone()
	case RegInvert:
		return o.cfg.readFlag(FlagInvert)
	case RegOnTimeHrs:
		return o.cfg[cfgOnTimeHrs]
	case RegOnTimeMins:
		return o.cfg[cfgOnTimeMins]
	case RegActHrs:
		return o.hrs
	case RegActMins:
		return o.mins
	case RegName:
		return o.cfg.name(outputName)[reg-RegName]
	}
	return 0
}

func (o *output) writeRegister(reg, value uint8) {
	switch regRange(reg) {
	case RegEnable:
		o.cfg.setFlag(FlagEnable, value != 0)
	case RegZone:
		o.cfg[cfgZone] = value
	case RegSubzone:
		o.cfg[cfgSubzone] = value
	case RegInvert:
		o.cfg.setFlag(FlagInvert, value != 0)
	case RegOnTimeHrs:
		o.cfg[cfgOnTimeHrs] = value
	case RegOnTimeMins:
		o.cfg[cfgOnTimeMins] = value
	case RegName:
		o.cfg.name(outputName)[reg-RegName] = value
	}
}

func (o *output) info() ChannelInfo {
	return ChannelInfo{
		Channel: int(o.channel),
		Kind:    KindOutput,
		Name:    nameString(o.cfg.name(outputName)),
		Enabled: o.cfg.flag(FlagEnable),
		Zone:    o.cfg.zone(),
		Subzone: o.cfg.subzone(),
		State:   o.state,
	}
}
