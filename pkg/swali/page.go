package swali

import "fmt"

// PageSize is the number of registers describing a channel.
const PageSize = int(RegName) + NameLength

// Page is a channel register page as read from a node.
type Page []byte

// Kind tells the channel kind from the ID registers.
func (p Page) Kind() Kind {
	if len(p) < 2 {
		return KindUndefined
	}
	switch string(p[RegID0 : RegID1+1]) {
	case "IN":
		return KindInput
	case "OU":
		return KindOutput
	}
	return KindUndefined
}

// Info decodes the page of channel ch.
func (p Page) Info(ch int) (ChannelInfo, error) {
	if len(p) < PageSize {
		return ChannelInfo{}, fmt.Errorf("channel %d: short page of %d registers", ch, len(p))
	}
	kind := p.Kind()
	if kind == KindUndefined {
		return ChannelInfo{}, fmt.Errorf("channel %d: unknown id %q", ch, p[RegID0:RegID1+1])
	}
	return ChannelInfo{
		Channel: ch,
		Kind:    kind,
		Name:    nameString(p[RegName:PageSize]),
		Enabled: p[RegEnable] != 0,
		Zone:    p[RegZone],
		Subzone: p[RegSubzone],
		State:   p[RegState] != 0,
	}, nil
}

// OnTime is the configured auto-off time of an output, in minutes.
func (p Page) OnTime() int {
	return int(p[RegOnTimeHrs])*60 + int(p[RegOnTimeMins])
}

// ActiveTime is the time an output has been on, in minutes.
func (p Page) ActiveTime() int {
	return int(p[RegActHrs])*60 + int(p[RegActMins])
}

// Toggle reports an input switching its zone on each press.
func (p Page) Toggle() bool {
	return p[RegType] != 0
}

// Inverted reports the pin level is inverted.
func (p Page) Inverted() bool {
	return p[RegInvert] != 0
}

// NameRegisters encodes a name for the name registers, padded with NUL.
func NameRegisters(name string) ([]byte, error) {
	if len(name) > NameLength {
		return nil, fmt.Errorf("name longer than %d bytes", NameLength)
	}
	regs := make([]byte, NameLength)
	copy(regs, name)
	return regs, nil
}
