package board

import (
	"fmt"
	"sort"

	"github.com/robotalks/swali.go/pkg/swali"
	"github.com/robotalks/swali.go/pkg/vscp"
)

// Persistent blob layout.
const (
	BlobSize    = 256
	OffBoot     = 0x00
	OffNickname = 0x01
	OffGUID     = 0x02
	OffUserID   = 0x06
	OffSwali    = 0x10

	// GUIDStored is the number of trailing GUID bytes kept in the blob.
	GUIDStored = 4
)

// Boot marker values.
const (
	BootValid   byte = 0xaa
	BootRequest byte = 0xff
)

// NoBootLoader disables the boot loader algorithm reply.
const NoBootLoader = -1

// Config describes the node identity and channel layout.
type Config struct {
	Layout swali.Layout
	// GUID provides the first 12 bytes of the GUID. The last 4 bytes come
	// from the persistent blob and are seeded from here when it's cleared.
	GUID      [vscp.GUIDSize]byte
	MDF       string
	StdDevice string
	MfgID     [vscp.MfgIDSize]byte
	Firmware  [3]byte
	// BootAlgorithm is NoBootLoader when no boot loader is installed.
	BootAlgorithm int
}

// Presets are the known board layouts.
var Presets = map[string]swali.Layout{
	"beijing": {Inputs: 10},
	"paris":   {Outputs: 7},
}

// PresetNames returns the sorted preset names.
func PresetNames() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultConfig returns the config of a preset board.
func DefaultConfig(preset string) (Config, error) {
	layout, ok := Presets[preset]
	if !ok {
		return Config{}, fmt.Errorf("unknown board %q", preset)
	}
	return Config{
		Layout:        layout,
		MDF:           "use local",
		StdDevice:     "SWALI",
		Firmware:      [3]byte{1, 0, 0},
		BootAlgorithm: NoBootLoader,
	}, nil
}

// Validate checks the config fits the blob.
func (c *Config) Validate() error {
	if err := c.Layout.Validate(); err != nil {
		return err
	}
	if len(c.MDF) > vscp.MDFSize {
		return fmt.Errorf("MDF URL longer than %d bytes", vscp.MDFSize)
	}
	if len(c.StdDevice) > vscp.StdDeviceSize {
		return fmt.Errorf("standard device id longer than %d bytes", vscp.StdDeviceSize)
	}
	if c.BootAlgorithm < NoBootLoader || c.BootAlgorithm > 0xff {
		return fmt.Errorf("invalid boot loader algorithm %d", c.BootAlgorithm)
	}
	return nil
}
