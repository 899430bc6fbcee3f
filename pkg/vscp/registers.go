package vscp

// Standard register map.
const (
	RegAlarmStatus          uint8 = 0x80
	RegVSCPMajorVersion     uint8 = 0x81
	RegVSCPMinorVersion     uint8 = 0x82
	RegErrorCounter         uint8 = 0x83
	RegUserID0              uint8 = 0x84
	RegUserID4              uint8 = 0x88
	RegManufacturerID0      uint8 = 0x89
	RegManufacturerSubID3   uint8 = 0x90
	RegNickname             uint8 = 0x91
	RegPageSelectMSB        uint8 = 0x92
	RegPageSelectLSB        uint8 = 0x93
	RegFirmwareMajor        uint8 = 0x94
	RegFirmwareMinor        uint8 = 0x95
	RegFirmwareSubMinor     uint8 = 0x96
	RegBootLoaderAlgorithm  uint8 = 0x97
	RegBufferSize           uint8 = 0x98
	RegPagesUsed            uint8 = 0x99
	RegStdDeviceFamily      uint8 = 0x9a
	RegStdDeviceType        uint8 = 0x9e
	RegDefaultConfigRestore uint8 = 0xa2
	RegGUID                 uint8 = 0xd0
	RegMDF                  uint8 = 0xe0

	// RegStandard is the first register of the standard map.
	RegStandard uint8 = 0x80
)

// Sizes of multi-byte identity fields.
const (
	GUIDSize      = 16
	MDFSize       = 32
	UserIDSize    = 5
	MfgIDSize     = 8
	StdDeviceSize = 8
	DMInfoSize    = 4
)

// VSCP specification version reported in the standard registers.
const (
	VersionMajor uint8 = 1
	VersionMinor uint8 = 9
)

// stdRegisterRange folds the multi-byte fields onto their first register.
func stdRegisterRange(reg uint8) uint8 {
	switch {
	case reg >= RegUserID0 && reg <= RegUserID4:
		return RegUserID0
	case reg >= RegManufacturerID0 && reg <= RegManufacturerSubID3:
		return RegManufacturerID0
	case reg >= RegFirmwareMajor && reg <= RegFirmwareSubMinor:
		return RegFirmwareMajor
	case reg >= RegStdDeviceFamily && reg < RegStdDeviceFamily+StdDeviceSize:
		return RegStdDeviceFamily
	case reg >= RegGUID && reg < RegGUID+GUIDSize:
		return RegGUID
	case reg >= RegMDF:
		return RegMDF
	}
	return reg
}

// ReadRegister reads a register on the page. It's the same access path
// used by remote register reads.
func (n *Node) ReadRegister(reg uint8, page uint16) uint8 {
	if reg < RegStandard {
		m := Message{Type: MsgGet | uint8(MsgRegValue), Length: 3}
		m.Value[0], m.Value[1], m.Value[2] = reg, uint8(page>>8), uint8(page)
		n.msgs.HandleMessage(&m)
		if m.Length == 4 {
			return m.Value[3]
		}
		return 0
	}
	return n.readStdRegister(reg)
}

// WriteRegister writes a register on the page. Read-only and undefined
// registers ignore writes.
func (n *Node) WriteRegister(reg uint8, page uint16, value uint8) {
	if reg < RegStandard {
		m := Message{Type: MsgSet | uint8(MsgRegValue), Length: 4}
		m.Value[0], m.Value[1], m.Value[2], m.Value[3] = reg, uint8(page>>8), uint8(page), value
		n.msgs.HandleMessage(&m)
		return
	}
	n.writeStdRegister(reg, value)
}

func (n *Node) readStdRegister(reg uint8) uint8 {
	switch base := stdRegisterRange(reg); base {
	case RegAlarmStatus:
		value, _ := n.getMsgValue(MsgAlarmStatus, 0)
		n.setMsgValue(MsgAlarmStatus, 0, 0)
		return value
	case RegVSCPMajorVersion:
		return VersionMajor
	case RegVSCPMinorVersion:
		return VersionMinor
	case RegErrorCounter:
		return n.errors.Value()
	case RegNickname:
		return n.nickname
	case RegPageSelectMSB:
		return uint8(n.page >> 8)
	case RegPageSelectLSB:
		return uint8(n.page)
	case RegBufferSize:
		return 0
	case RegBootLoaderAlgorithm:
		value, _ := n.getMsgValue(MsgBootAlg, 0)
		return value
	case RegPagesUsed:
		value, _ := n.getMsgValue(MsgPagesUsed, 0)
		return value
	case RegUserID0, RegManufacturerID0, RegFirmwareMajor, RegStdDeviceFamily, RegGUID, RegMDF:
		value, _ := n.getMsgValue(stdRegisterMsg[base], reg-base)
		return value
	}
	return 0
}

var stdRegisterMsg = map[uint8]MsgID{
	RegUserID0:         MsgUserID,
	RegManufacturerID0: MsgMfgID,
	RegFirmwareMajor:   MsgFWVersion,
	RegStdDeviceFamily: MsgStdDevice,
	RegGUID:            MsgGUID,
	RegMDF:             MsgMDF,
}

func (n *Node) writeStdRegister(reg, value uint8) {
	switch stdRegisterRange(reg) {
	case RegErrorCounter:
		n.errors.Reset()
	case RegUserID0:
		n.setMsgValue(MsgUserID, reg-RegUserID0, value)
	case RegPageSelectMSB:
		n.page = n.page&0x00ff | uint16(value)<<8
	case RegPageSelectLSB:
		n.page = n.page&0xff00 | uint16(value)
	case RegDefaultConfigRestore:
		// Restoring defaults remotely is not supported.
	}
}

// getMsgValue asks the application for one indexed byte. ok is false
// when the reply doesn't echo the index with Length 2.
func (n *Node) getMsgValue(id MsgID, index uint8) (value uint8, ok bool) {
	m := NewGet(id, index)
	n.msgs.HandleMessage(&m)
	if m.Length == 2 && m.Value[0] == index {
		return m.Value[1], true
	}
	return 0, false
}

func (n *Node) setMsgValue(id MsgID, index, value uint8) {
	m := NewSet(id, index, value)
	n.msgs.HandleMessage(&m)
}

func (n *Node) sendMsg(id MsgID, values ...byte) {
	m := NewSet(id, values...)
	n.msgs.HandleMessage(&m)
}

func (n *Node) guid(index uint8) uint8 {
	value, _ := n.getMsgValue(MsgGUID, index)
	return value
}

func (n *Node) mdf(index uint8) uint8 {
	value, _ := n.getMsgValue(MsgMDF, index)
	return value
}
