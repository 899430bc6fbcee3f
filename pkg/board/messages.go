package board

import (
	"github.com/golang/glog"

	"github.com/robotalks/swali.go/pkg/led"
	"github.com/robotalks/swali.go/pkg/vscp"
)

var stateLED = map[vscp.State]led.State{
	vscp.StateStartup: led.Off,
	vscp.StateInit:    led.BlinkSlow,
	vscp.StateActive:  led.On,
	vscp.StateError:   led.BlinkFast,
}

// HandleMessage implements vscp.MessageHandler. Requests left
// unanswered are treated as unsupported by the node.
func (b *Board) HandleMessage(m *vscp.Message) {
	idx := m.Index()
	get := m.IsGet()
	switch m.ID() {
	case vscp.MsgState:
		if !get {
			if s, ok := stateLED[vscp.State(m.SetValue())]; ok {
				b.led.Set(s)
			}
		}
	case vscp.MsgNickname:
		if get {
			m.Reply(b.blob[OffNickname])
		} else {
			b.blob[OffNickname] = m.SetValue()
		}
	case vscp.MsgRegValue:
		reg, page := m.Register()
		if get {
			m.ReplyRegister(b.layer.ReadRegister(page, reg))
		} else {
			b.layer.WriteRegister(page, reg, m.RegisterValue())
		}
	case vscp.MsgPagesUsed:
		if get {
			m.Reply(uint8(b.layer.Pages()))
		}
	case vscp.MsgGUID:
		b.guidMessage(m, idx)
	case vscp.MsgUserID:
		if idx >= vscp.UserIDSize {
			return
		}
		if get {
			m.Reply(b.blob[OffUserID+int(idx)])
		} else {
			b.blob[OffUserID+int(idx)] = m.SetValue()
		}
	case vscp.MsgMDF:
		if get && idx < vscp.MDFSize {
			m.Reply(stringByte(b.config.MDF, idx))
		}
	case vscp.MsgStdDevice:
		if get && idx < vscp.StdDeviceSize {
			m.Reply(stringByte(b.config.StdDevice, idx))
		}
	case vscp.MsgMfgID:
		if get && idx < vscp.MfgIDSize {
			m.Reply(b.config.MfgID[idx])
		}
	case vscp.MsgFWVersion:
		if get && int(idx) < len(b.config.Firmware) {
			m.Reply(b.config.Firmware[idx])
		}
	case vscp.MsgBootAlg:
		if get && b.config.BootAlgorithm != NoBootLoader {
			m.Reply(uint8(b.config.BootAlgorithm))
		}
	case vscp.MsgDMInfo:
		if get && idx < vscp.DMInfoSize {
			m.Reply(0)
		}
	case vscp.MsgAlarmStatus:
		if get {
			m.Reply(b.alarm)
		} else {
			b.alarm = m.SetValue()
		}
	case vscp.MsgEnterBoot:
		b.enterBootLoader()
	}
}

func (b *Board) guidMessage(m *vscp.Message, idx uint8) {
	if idx >= vscp.GUIDSize {
		return
	}
	stored := idx >= vscp.GUIDSize-GUIDStored
	off := OffGUID + int(idx) - (vscp.GUIDSize - GUIDStored)
	if m.IsGet() {
		if stored {
			m.Reply(b.blob[off])
		} else {
			m.Reply(b.config.GUID[idx])
		}
		return
	}
	if stored {
		b.blob[off] = m.SetValue()
	}
}

func (b *Board) enterBootLoader() {
	glog.Info("board: entering boot loader")
	b.blob[OffBoot] = BootRequest
	if err := b.store.WaitWritten(); err != nil {
		glog.Errorf("board: persist boot request: %v", err)
		return
	}
	if b.Reboot != nil {
		b.Reboot()
	}
}

// stringByte returns the byte at idx, 0 past the end.
func stringByte(s string, idx uint8) uint8 {
	if int(idx) < len(s) {
		return s[idx]
	}
	return 0
}
