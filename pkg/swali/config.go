package swali

import "errors"

// NameLength is the size of a channel name, not NUL terminated when full.
const NameLength = 16

// Config record sizes.
const (
	InputConfigSize  = 3 + NameLength
	OutputConfigSize = 5 + NameLength
)

// Channel flags.
const (
	FlagEnable     uint8 = 0x80
	FlagInvert     uint8 = 0x20
	FlagTypeDim    uint8 = 0x02
	FlagTypeToggle uint8 = 0x01
)

// ErrConfigTooLarge indicates the config region can't hold all channels.
var ErrConfigTooLarge = errors.New("channel config exceeds region")

// config is a view of one channel record inside the persistent blob.
// Writes go straight to the blob.
type config []byte

const (
	cfgFlags   = 0
	cfgZone    = 1
	cfgSubzone = 2
)

func (c config) flag(f uint8) bool {
	return c[cfgFlags]&f != 0
}

func (c config) setFlag(f uint8, on bool) {
	if on {
		c[cfgFlags] |= f
	} else {
		c[cfgFlags] &^= f
	}
}

func (c config) readFlag(f uint8) uint8 {
	if c.flag(f) {
		return 1
	}
	return 0
}

func (c config) zone() uint8    { return c[cfgZone] }
func (c config) subzone() uint8 { return c[cfgSubzone] }

// name returns the name bytes starting at off.
func (c config) name(off int) []byte {
	return c[off : off+NameLength]
}

func nameString(b []byte) string {
	for i, c := range b {
		if c == 0 || c == 0xff {
			return string(b[:i])
		}
	}
	return string(b)
}
