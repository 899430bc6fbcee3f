package swali

import "github.com/robotalks/swali.go/pkg/vscp"

// ChannelInfo is a snapshot of a channel for tooling.
type ChannelInfo struct {
	Channel int
	Kind    Kind
	Name    string
	Enabled bool
	Zone    uint8
	Subzone uint8
	State   bool
}

type channel interface {
	process()
	handleEvent(ev vscp.Event)
	readRegister(reg uint8) uint8
	writeRegister(reg, value uint8)
	info() ChannelInfo
}

func boolByte(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}
