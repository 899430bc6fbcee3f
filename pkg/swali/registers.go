package swali

// Channel registers. Each channel owns one register page.
const (
	RegID0        uint8 = 0x00
	RegID1        uint8 = 0x01
	RegState      uint8 = 0x02
	RegEnable     uint8 = 0x03
	RegZone       uint8 = 0x04
	RegSubzone    uint8 = 0x05
	RegType       uint8 = 0x06
	RegInvert     uint8 = 0x07
	RegOnTimeHrs  uint8 = 0x08
	RegOnTimeMins uint8 = 0x09
	RegActHrs     uint8 = 0x0a
	RegActMins    uint8 = 0x0b
	RegName       uint8 = 0x10
)

// regRange folds the name block onto RegName.
func regRange(reg uint8) uint8 {
	if reg >= RegName && reg < RegName+NameLength {
		return RegName
	}
	return reg
}
