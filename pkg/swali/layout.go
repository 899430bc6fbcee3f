package swali

import "fmt"

// Kind is the type of a channel.
type Kind uint8

// Channel kinds.
const (
	KindUndefined Kind = iota
	KindInput
	KindOutput
)

// String implements fmt.Stringer.
func (k Kind) String() string {
	switch k {
	case KindInput:
		return "input"
	case KindOutput:
		return "output"
	}
	return "undefined"
}

// Layout is the number of channels of each kind. Inputs occupy the
// lowest channel numbers, followed by outputs.
type Layout struct {
	Inputs  int `json:"inputs" yaml:"inputs"`
	Outputs int `json:"outputs" yaml:"outputs"`
}

// Channels returns the total channel count.
func (l Layout) Channels() int {
	return l.Inputs + l.Outputs
}

// KindOf maps a channel number to its kind.
func (l Layout) KindOf(ch int) Kind {
	switch {
	case ch < 0:
		return KindUndefined
	case ch < l.Inputs:
		return KindInput
	case ch < l.Inputs+l.Outputs:
		return KindOutput
	}
	return KindUndefined
}

// LocalIndex maps a channel number to the index among channels of the
// same kind. It returns 0 for undefined channels.
func (l Layout) LocalIndex(ch int) int {
	switch l.KindOf(ch) {
	case KindInput:
		return ch
	case KindOutput:
		return ch - l.Inputs
	}
	return 0
}

// ConfigSize returns the number of config bytes needed by the layout.
func (l Layout) ConfigSize() int {
	return l.Inputs*InputConfigSize + l.Outputs*OutputConfigSize
}

// Validate checks the layout fits the 8-bit channel numbering.
func (l Layout) Validate() error {
	if l.Inputs < 0 || l.Outputs < 0 {
		return fmt.Errorf("invalid layout %d/%d", l.Inputs, l.Outputs)
	}
	if l.Channels() > 255 {
		return fmt.Errorf("too many channels: %d", l.Channels())
	}
	return nil
}

// String implements fmt.Stringer.
func (l Layout) String() string {
	return fmt.Sprintf("%d inputs, %d outputs", l.Inputs, l.Outputs)
}
