package vscp

import (
	"github.com/golang/glog"

	"github.com/robotalks/swali.go/pkg/timebase"
)

// ProbeOutcome tells how a nickname probe step ended.
type ProbeOutcome int

// Probe outcomes.
const (
	ProbeContinue ProbeOutcome = iota
	ProbeClaimed
	ProbeAddressExhausted
)

type probePhase int

const (
	phaseSendProbe probePhase = iota
	phaseWaitForAck
	phaseWaitForMaster
)

// probeSession tracks nickname discovery. It only lives in Init.
type probeSession struct {
	candidate uint8
	phase     probePhase
	retries   int
	start     timebase.Millis
}

func (p *probeSession) reset() {
	*p = probeSession{candidate: NicknameMaster}
}

// advance moves to the next candidate with a fresh retry budget.
func (p *probeSession) advance() ProbeOutcome {
	if p.candidate >= NicknameFree-1 {
		p.candidate = NicknameFree
		return ProbeAddressExhausted
	}
	p.candidate++
	p.phase, p.retries = phaseSendProbe, 0
	return ProbeContinue
}

// timeout handles an unanswered probe.
func (p *probeSession) timeout() ProbeOutcome {
	if p.retries < ProbeRetries-1 {
		p.retries++
		p.phase = phaseSendProbe
		return ProbeContinue
	}
	if p.candidate == NicknameMaster {
		return p.advance()
	}
	return ProbeClaimed
}

func (n *Node) prepareInit() {
	n.nickname = NicknameFree
	n.probe.reset()
}

func (n *Node) handleInit() {
	p := &n.probe
	outcome := ProbeContinue
	switch p.phase {
	case phaseSendProbe:
		n.sendProtocol(ProtocolNewNodeOnline, p.candidate)
		p.phase, p.start = phaseWaitForAck, n.clock.Now()
	case phaseWaitForAck:
		if timebase.Since(n.clock.Now(), p.start) > ProbeTimeout {
			outcome = p.timeout()
			break
		}
		ev, ok := n.receive()
		if !ok || !ev.Is(ClassProtocol, ProtocolProbeAck) || ev.Size != 0 || ev.Nickname != p.candidate {
			break
		}
		if p.candidate == NicknameMaster {
			glog.Info("vscp: master present, waiting for nickname")
			p.phase, p.start = phaseWaitForMaster, n.clock.Now()
			break
		}
		glog.V(1).Infof("vscp: nickname %02x in use", p.candidate)
		outcome = p.advance()
	case phaseWaitForMaster:
		if timebase.Since(n.clock.Now(), p.start) > MasterTimeout {
			glog.Warning("vscp: master didn't assign a nickname")
			outcome = p.advance()
			break
		}
		ev, ok := n.receive()
		if ok && ev.Is(ClassProtocol, ProtocolSetNickname) && ev.Size == 2 && ev.Data[0] == NicknameFree {
			n.adopt(ev.Data[1])
			n.sendProtocol(ProtocolNicknameAccepted)
			n.setState(StateActive)
			return
		}
	}

	switch outcome {
	case ProbeClaimed:
		n.adopt(p.candidate)
		n.setState(StateActive)
	case ProbeAddressExhausted:
		glog.Error("vscp: no free nickname, giving up")
		n.sendProtocol(ProtocolProbeAck, NicknameFree)
		n.setMsgValue(MsgNickname, 0, NicknameFree)
		n.setState(StateError)
	}
}
