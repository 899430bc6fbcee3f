package swali

import (
	"github.com/robotalks/swali.go/pkg/vscp"
)

// SampleModulus spreads input sampling over ticks: a channel samples
// its pin on one tick out of SampleModulus.
const SampleModulus = 8

const inputName = 3

// input is a debounced push button or switch.
type input struct {
	layer   *Layer
	channel uint8
	cfg     config

	state   bool
	pressed bool
	shifter uint8
}

func newInput(l *Layer, ch uint8, cfg config) *input {
	return &input{layer: l, channel: ch, cfg: cfg}
}

// sample shifts in one pin sample when it's this channel's turn. Pins
// are pulled up, so the logic is inverted unless FlagInvert is set.
func (in *input) sample(counter uint8) {
	if in.channel%SampleModulus != counter%SampleModulus {
		return
	}
	level := in.layer.io.Read(in.channel)
	if !in.cfg.flag(FlagInvert) {
		level = !level
	}
	in.shifter = in.shifter<<1 | boolByte(level)
}

func (in *input) process() {
	if !in.pressed && in.shifter == 0xff {
		in.pressed = true
		in.sendButton(true)
		if in.cfg.flag(FlagEnable) {
			in.sendControl()
		}
	}
	if in.pressed && in.shifter == 0x00 {
		in.pressed = false
		in.sendButton(false)
		if in.cfg.flag(FlagEnable) && in.cfg.flag(FlagTypeToggle) {
			in.sendControl()
		}
	}
}

// handleEvent tracks the state of the zone. It must not send.
func (in *input) handleEvent(ev vscp.Event) {
	if !in.cfg.flag(FlagEnable) {
		return
	}
	if ev.Class != vscp.ClassInformation || ev.Size != 3 ||
		ev.Data[1] != in.cfg.zone() || ev.Data[2] != in.cfg.subzone() {
		return
	}
	switch ev.Type {
	case vscp.InformationOn:
		in.state = true
	case vscp.InformationOff:
		in.state = false
	}
}

func (in *input) readRegister(reg uint8) uint8 {
	switch regRange(reg) {
	case RegID0:
		return 'I'
	case RegID1:
		return 'N'
	case RegState:
		return boolByte(in.state)
	case RegEnable:
		return in.cfg.readFlag(FlagEnable)
	case RegZone:
		return in.cfg.zone()
	case RegSubzone:
		return in.cfg.subzone()
	case RegType:
		return in.cfg.readFlag(FlagTypeToggle)
	case RegInvert:
		return in.cfg.readFlag(FlagInvert)
	case RegName:
		return in.cfg.name(inputName)[reg-RegName]
	}
	return 0
}

func (in *input) writeRegister(reg, value uint8) {
	switch regRange(reg) {
	case RegEnable:
		in.cfg.setFlag(FlagEnable, value != 0)
	case RegZone:
		in.cfg[cfgZone] = value
	case RegSubzone:
		in.cfg[cfgSubzone] = value
	case RegType:
		in.cfg.setFlag(FlagTypeToggle, value != 0)
	case RegInvert:
		in.cfg.setFlag(FlagInvert, value != 0)
	case RegName:
		in.cfg.name(inputName)[reg-RegName] = value
	}
}

func (in *input) info() ChannelInfo {
	return ChannelInfo{
		Channel: int(in.channel),
		Kind:    KindInput,
		Name:    nameString(in.cfg.name(inputName)),
		Enabled: in.cfg.flag(FlagEnable),
		Zone:    in.cfg.zone(),
		Subzone: in.cfg.subzone(),
		State:   in.state,
	}
}

func (in *input) sendButton(pressed bool) {
	in.layer.send(vscp.NewEvent(vscp.PriorityMedium, vscp.ClassInformation, vscp.InformationButton,
		boolByte(pressed), 255, 255, 0, in.channel))
}

// sendControl toggles the zone based on the tracked state.
func (in *input) sendControl() {
	typ := vscp.ControlTurnOn
	if in.state {
		typ = vscp.ControlTurnOff
	}
	in.layer.send(vscp.NewEvent(vscp.PriorityMedium, vscp.ClassControl, typ,
		in.channel, in.cfg.zone(), in.cfg.subzone()))
}
