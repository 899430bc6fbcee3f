package env

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/robotalks/swali.go/pkg/board"
	"github.com/robotalks/swali.go/pkg/vscp"
)

// NodeFile is the YAML description of a node run on a host.
type NodeFile struct {
	// Board names a preset layout. Inputs/Outputs override it.
	Board   string `yaml:"board"`
	Inputs  *int   `yaml:"inputs"`
	Outputs *int   `yaml:"outputs"`

	// Name tells apart nodes on the same machine when deriving the GUID.
	Name string `yaml:"name"`
	// GUID overrides the derived GUID, colon separated hex.
	GUID          string `yaml:"guid"`
	MDF           string `yaml:"mdf"`
	StdDevice     string `yaml:"std_device"`
	MfgID         string `yaml:"mfg_id"`
	Firmware      string `yaml:"firmware"`
	BootAlgorithm *int   `yaml:"boot_algorithm"`

	Store   string `yaml:"store"`
	Bus     string `yaml:"bus"`
	Capture string `yaml:"capture"`
}

// LoadNodeFile reads a node description.
func LoadNodeFile(path string) (*NodeFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseNodeFile(data)
}

// ParseNodeFile parses a node description from YAML.
func ParseNodeFile(data []byte) (*NodeFile, error) {
	var nf NodeFile
	if err := yaml.Unmarshal(data, &nf); err != nil {
		return nil, fmt.Errorf("parse node file: %w", err)
	}
	return &nf, nil
}

// Validate checks the description without changing it.
func (nf *NodeFile) Validate() error {
	if nf.Board == "" && nf.Inputs == nil && nf.Outputs == nil {
		return errors.New("board preset or channel counts required")
	}
	if nf.Board != "" {
		if _, ok := board.Presets[nf.Board]; !ok {
			return fmt.Errorf("unknown board %q, expect one of %s",
				nf.Board, strings.Join(board.PresetNames(), ", "))
		}
	}
	if nf.Inputs != nil && *nf.Inputs < 0 || nf.Outputs != nil && *nf.Outputs < 0 {
		return errors.New("negative channel count")
	}
	if nf.GUID != "" {
		if _, err := parseHex(nf.GUID, vscp.GUIDSize); err != nil {
			return fmt.Errorf("guid: %w", err)
		}
	}
	if nf.MfgID != "" {
		if _, err := parseHex(nf.MfgID, vscp.MfgIDSize); err != nil {
			return fmt.Errorf("mfg_id: %w", err)
		}
	}
	if nf.Firmware != "" {
		if _, err := parseVersion(nf.Firmware); err != nil {
			return err
		}
	}
	conf, err := nf.BoardConfig([vscp.GUIDSize]byte{})
	if err != nil {
		return err
	}
	return conf.Validate()
}

// BoardConfig builds the board config. guid is used unless the file
// specifies one.
func (nf *NodeFile) BoardConfig(guid [vscp.GUIDSize]byte) (board.Config, error) {
	preset := nf.Board
	if preset == "" {
		preset = board.PresetNames()[0]
	}
	conf, err := board.DefaultConfig(preset)
	if err != nil {
		return conf, err
	}
	if nf.Board == "" {
		conf.Layout.Inputs, conf.Layout.Outputs = 0, 0
	}
	if nf.Inputs != nil {
		conf.Layout.Inputs = *nf.Inputs
	}
	if nf.Outputs != nil {
		conf.Layout.Outputs = *nf.Outputs
	}

	conf.GUID = guid
	if nf.GUID != "" {
		b, err := parseHex(nf.GUID, vscp.GUIDSize)
		if err != nil {
			return conf, fmt.Errorf("guid: %w", err)
		}
		copy(conf.GUID[:], b)
	}
	if nf.MfgID != "" {
		b, err := parseHex(nf.MfgID, vscp.MfgIDSize)
		if err != nil {
			return conf, fmt.Errorf("mfg_id: %w", err)
		}
		copy(conf.MfgID[:], b)
	}
	if nf.MDF != "" {
		conf.MDF = nf.MDF
	}
	if nf.StdDevice != "" {
		conf.StdDevice = nf.StdDevice
	}
	if nf.Firmware != "" {
		if conf.Firmware, err = parseVersion(nf.Firmware); err != nil {
			return conf, err
		}
	}
	if nf.BootAlgorithm != nil {
		conf.BootAlgorithm = *nf.BootAlgorithm
	}
	return conf, nil
}

// Apply copies the locations set in the file into the config.
func (nf *NodeFile) Apply(c *Config) {
	if nf.Store != "" {
		c.StorePath = nf.Store
	}
	if nf.Bus != "" {
		c.BusURL = nf.Bus
	}
	if nf.Capture != "" {
		c.CapturePath = nf.Capture
	}
}

func parseHex(s string, size int) ([]byte, error) {
	b, err := hex.DecodeString(strings.NewReplacer(":", "", "-", "").Replace(s))
	if err != nil {
		return nil, err
	}
	if len(b) != size {
		return nil, fmt.Errorf("expect %d bytes, got %d", size, len(b))
	}
	return b, nil
}

func parseVersion(s string) (ver [3]byte, err error) {
	parts := strings.Split(s, ".")
	if len(parts) != 3 {
		return ver, fmt.Errorf("firmware version %q: expect MAJOR.MINOR.PATCH", s)
	}
	for i, part := range parts {
		n, err := strconv.ParseUint(part, 10, 8)
		if err != nil {
			return ver, fmt.Errorf("firmware version %q: %w", s, err)
		}
		ver[i] = byte(n)
	}
	return ver, nil
}
