package slcan

import "github.com/robotalks/swali.go/pkg/can"

// MaxLineLength is the longest line accepted from the adapter.
const MaxLineLength = 32

// Result is the outcome of feeding one byte to the Parser.
type Result struct {
	// Frame is set when a frame line completed.
	Frame *can.Frame
	// Ack is set for an empty or z/Z confirmation line.
	Ack bool
	// Nack is set when the adapter rejected a command.
	Nack bool
	// Response holds any other completed line, e.g. a version string.
	Response []byte
	// Err is set when a completed line can't be decoded.
	Err error
}

// Parser assembles adapter output into lines.
type Parser struct {
	line     []byte
	overflow bool
}

// Reset discards a partial line.
func (p *Parser) Reset() {
	p.line, p.overflow = p.line[:0], false
}

// Parse consumes one byte.
func (p *Parser) Parse(b byte) (r Result) {
	switch b {
	case bell:
		p.Reset()
		r.Nack = true
		return
	case cr:
		r = p.complete()
		p.Reset()
		return
	case '\n':
		return
	}
	if len(p.line) >= MaxLineLength {
		p.overflow = true
		return
	}
	p.line = append(p.line, b)
	return
}

func (p *Parser) complete() (r Result) {
	if p.overflow {
		r.Err = ErrBadLine
		return
	}
	if len(p.line) == 0 || (len(p.line) == 1 && (p.line[0] == 'z' || p.line[0] == 'Z')) {
		r.Ack = true
		return
	}
	switch p.line[0] {
	case 'T', 't', 'R', 'r':
		f, err := Decode(p.line)
		if err != nil {
			r.Err = err
			return
		}
		r.Frame = &f
	default:
		r.Response = append([]byte(nil), p.line...)
	}
	return
}
