package vscp

// whoIsThereFrames is the number of frames answering WhoIsThere.
const whoIsThereFrames = 7

func (n *Node) handleProtocol(ev Event) {
	d := ev.Data
	switch ev.Type {
	case ProtocolNewNodeOnline:
		if ev.Size == 1 && d[0] == n.nickname {
			n.sendProtocol(ProtocolProbeAck)
		}

	case ProtocolSetNickname:
		if ev.Size == 2 && d[0] == n.nickname {
			n.adopt(d[1])
			n.sendProtocol(ProtocolNicknameAccepted)
		}

	case ProtocolDropNickname:
		if ev.Size > 0 && d[0] == n.nickname {
			n.setState(StateInit)
		}

	case ProtocolReadRegister:
		if ev.Size == 2 && d[0] == n.nickname {
			reg := d[1]
			n.sendProtocol(ProtocolRWResponse, reg, n.ReadRegister(reg, n.page))
		}

	case ProtocolWriteRegister:
		if ev.Size == 3 && d[0] == n.nickname {
			reg := d[1]
			n.WriteRegister(reg, n.page, d[2])
			n.sendProtocol(ProtocolRWResponse, reg, n.ReadRegister(reg, n.page))
		}

	case ProtocolIncrementRegister, ProtocolDecrementRegister:
		if ev.Size == 2 && d[0] == n.nickname {
			reg := d[1]
			value := n.ReadRegister(reg, n.page)
			if ev.Type == ProtocolIncrementRegister {
				value++
			} else {
				value--
			}
			n.WriteRegister(reg, n.page, value)
			n.sendProtocol(ProtocolRWResponse, reg, n.ReadRegister(reg, n.page))
		}

	case ProtocolEnterBootLoader:
		if ev.Size == 8 && d[0] == n.nickname {
			n.enterBootLoader(d)
		}

	case ProtocolResetDevice:
		// Device reset is not supported.

	case ProtocolWhoIsThere:
		if ev.Size == 1 && (d[0] == n.nickname || d[0] == NicknameFree) {
			n.whoIsThere()
		}

	case ProtocolGetMatrixInfo:
		if ev.Size == 1 && d[0] == n.nickname {
			var info [DMInfoSize]byte
			for i := range info {
				info[i], _ = n.getMsgValue(MsgDMInfo, uint8(i))
			}
			n.sendProtocol(ProtocolGetMatrixInfoResponse, info[:]...)
		}

	case ProtocolExtendedPageRead:
		if ev.Size >= 4 && d[0] == n.nickname {
			n.extendedPageRead(ev)
		}

	case ProtocolExtendedPageWrite:
		if ev.Size >= 4 && d[0] == n.nickname {
			n.extendedPageWrite(ev)
		}
	}
}

// enterBootLoader checks the challenge {nick, alg, guid0, guid3, guid5, guid7}.
func (n *Node) enterBootLoader(d [8]byte) {
	alg, ok := n.getMsgValue(MsgBootAlg, 0)
	if ok && d[1] == alg &&
		d[2] == n.guid(0) && d[3] == n.guid(3) &&
		d[4] == n.guid(5) && d[5] == n.guid(7) {
		n.sendMsg(MsgEnterBoot)
		return
	}
	n.sendProtocol(ProtocolNackBootLoader, alg)
}

// whoIsThere sends the GUID from byte 15 down to 0 followed by the MDF
// URL, 7 bytes per frame after the frame index.
func (n *Node) whoIsThere() {
	var payload [whoIsThereFrames * 7]byte
	for i := 0; i < GUIDSize; i++ {
		payload[i] = n.guid(uint8(GUIDSize - 1 - i))
	}
	for i := 0; i < len(payload)-GUIDSize; i++ {
		payload[GUIDSize+i] = n.mdf(uint8(i))
	}
	for i := 0; i < whoIsThereFrames; i++ {
		data := make([]byte, 8)
		data[0] = uint8(i)
		copy(data[1:], payload[i*7:])
		n.sendProtocol(ProtocolWhoIsThereResponse, data...)
	}
}

func (n *Node) extendedPageRead(ev Event) {
	d := ev.Data
	page := uint16(d[1])<<8 | uint16(d[2])
	count := 1
	if ev.Size > 4 {
		if count = int(d[4]); count == 0 {
			count = 256
		}
	}
	for index, offset := 0, 0; offset < count; index++ {
		chunk := count - offset
		if chunk > 4 {
			chunk = 4
		}
		first := d[3] + uint8(offset)
		resp := NewEvent(PriorityLow, ClassProtocol, ProtocolExtendedPageResponse,
			uint8(index), d[1], d[2], first)
		for i := 0; i < chunk; i++ {
			resp.Data[4+i] = n.ReadRegister(first+uint8(i), page)
		}
		resp.Size = uint8(4 + chunk)
		n.sendEvent(resp)
		offset += chunk
	}
}

func (n *Node) extendedPageWrite(ev Event) {
	d := ev.Data
	page := uint16(d[1])<<8 | uint16(d[2])
	resp := NewEvent(PriorityLow, ClassProtocol, ProtocolExtendedPageResponse, 0, d[1], d[2], d[3])
	for i := 0; i < int(ev.Size)-4; i++ {
		reg := d[3] + uint8(i)
		n.WriteRegister(reg, page, d[4+i])
		resp.Data[4+i] = n.ReadRegister(reg, page)
	}
	resp.Size = ev.Size
	n.sendEvent(resp)
}
