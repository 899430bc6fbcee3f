// Package channels adds the channel configuration commands to the shell.
package channels

import (
	"bytes"
	"fmt"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/swali.go/pkg/cli/sh"
	"github.com/robotalks/swali.go/pkg/swali"
	"github.com/robotalks/swali.go/pkg/vscp"
)

// Channel is a channel page read from the selected node.
type Channel struct {
	swali.ChannelInfo
	Toggle     bool `json:"toggle,omitempty"`
	Inverted   bool `json:"inverted,omitempty"`
	OnTime     int  `json:"on_time,omitempty"`
	ActiveTime int  `json:"active_time,omitempty"`
}

// Count reads the number of channels of the selected node.
func Count(s *sh.Shell) (int, error) {
	values, err := s.ReadRegisters(0, vscp.RegPagesUsed, 1)
	if err != nil {
		return 0, err
	}
	return int(values[0]), nil
}

// Read reads one channel of the selected node.
func Read(s *sh.Shell, ch int) (*Channel, error) {
	regs, err := s.ReadRegisters(uint16(ch), 0, swali.PageSize)
	if err != nil {
		return nil, err
	}
	page := swali.Page(regs)
	info, err := page.Info(ch)
	if err != nil {
		return nil, err
	}
	c := &Channel{ChannelInfo: info}
	switch info.Kind {
	case swali.KindInput:
		c.Toggle, c.Inverted = page.Toggle(), page.Inverted()
	case swali.KindOutput:
		c.Inverted = page.Inverted()
		c.OnTime, c.ActiveTime = page.OnTime(), page.ActiveTime()
	}
	return c, nil
}

// ReadAll reads all channels of the selected node.
func ReadAll(s *sh.Shell) ([]*Channel, error) {
	count, err := Count(s)
	if err != nil {
		return nil, err
	}
	channels := make([]*Channel, 0, count)
	for ch := 0; ch < count; ch++ {
		c, err := Read(s, ch)
		if err != nil {
			return channels, err
		}
		channels = append(channels, c)
	}
	return channels, nil
}

// SetName writes the channel name.
func SetName(s *sh.Shell, ch int, name string) error {
	regs, err := swali.NameRegisters(name)
	if err != nil {
		return err
	}
	_, err = s.WriteRegisters(uint16(ch), swali.RegName, regs...)
	return err
}

// SetEnabled enables or disables a channel.
func SetEnabled(s *sh.Shell, ch int, enabled bool) error {
	var val byte
	if enabled {
		val = 1
	}
	_, err := s.WriteRegisters(uint16(ch), swali.RegEnable, val)
	return err
}

// SetZone assigns a channel to zone/subzone.
func SetZone(s *sh.Shell, ch int, zone, subzone uint8) error {
	_, err := s.WriteRegisters(uint16(ch), swali.RegZone, zone, subzone)
	return err
}

// Format prints a channel into friendly string for display.
func Format(c *Channel) string {
	var w bytes.Buffer
	fmt.Fprintf(&w, "%3d %-6s zone=%d/%d", c.Channel, c.Kind, c.Zone, c.Subzone)
	if !c.Enabled {
		w.WriteString(" disabled")
	}
	state := "off"
	if c.State {
		state = "on"
	}
	fmt.Fprintf(&w, " %s", state)
	if c.Toggle {
		w.WriteString(" toggle")
	}
	if c.Inverted {
		w.WriteString(" inverted")
	}
	if c.Kind == swali.KindOutput && c.OnTime > 0 {
		fmt.Fprintf(&w, " auto-off=%dm active=%dm", c.OnTime, c.ActiveTime)
	}
	if c.Name != "" {
		fmt.Fprintf(&w, " %q", c.Name)
	}
	return w.String()
}

func channelArg(c *ishell.Context) (int, bool) {
	if len(c.Args) < 1 {
		c.Err(fmt.Errorf("CHANNEL required"))
		return 0, false
	}
	ch, err := sh.ParseUint(c.Args[0], "CHANNEL", 8)
	if err != nil {
		c.Err(err)
		return 0, false
	}
	return int(ch), true
}

var (
	// ChannelsCmd lists channels.
	ChannelsCmd = ishell.Cmd{
		Name:    "channels",
		Aliases: []string{"chs"},
		Help:    "",
		Func: sh.MustHaveNode(func(c *ishell.Context) {
			s := sh.ShellFrom(c)
			channels, err := ReadAll(s)
			if err != nil {
				c.Err(err)
				return
			}
			s.Output(c, channels, func() string {
				var w bytes.Buffer
				for n, ch := range channels {
					if n > 0 {
						w.WriteByte('\n')
					}
					w.WriteString(Format(ch))
				}
				return w.String()
			})
		}),
	}

	// ChannelCmd shows one channel.
	ChannelCmd = ishell.Cmd{
		Name:    "channel",
		Aliases: []string{"ch"},
		Help:    "CHANNEL",
		Func: sh.MustHaveNode(func(c *ishell.Context) {
			ch, ok := channelArg(c)
			if !ok {
				return
			}
			s := sh.ShellFrom(c)
			channel, err := Read(s, ch)
			if err != nil {
				c.Err(err)
				return
			}
			s.Output(c, channel, func() string { return Format(channel) })
		}),
	}

	// NameCmd names a channel.
	NameCmd = ishell.Cmd{
		Name: "name",
		Help: "CHANNEL TEXT",
		Func: sh.MustHaveNode(func(c *ishell.Context) {
			ch, ok := channelArg(c)
			if !ok {
				return
			}
			var name string
			for n, arg := range c.Args[1:] {
				if n > 0 {
					name += " "
				}
				name += arg
			}
			if err := SetName(sh.ShellFrom(c), ch, name); err != nil {
				c.Err(err)
			}
		}),
	}

	// EnableCmd enables or disables a channel.
	EnableCmd = ishell.Cmd{
		Name: "enable",
		Help: "CHANNEL 0|1",
		Func: sh.MustHaveNode(func(c *ishell.Context) {
			ch, ok := channelArg(c)
			if !ok {
				return
			}
			if len(c.Args) < 2 {
				c.Err(fmt.Errorf("0 or 1 required"))
				return
			}
			val, err := sh.ParseUint(c.Args[1], "value", 1)
			if err != nil {
				c.Err(err)
				return
			}
			if err := SetEnabled(sh.ShellFrom(c), ch, val != 0); err != nil {
				c.Err(err)
			}
		}),
	}

	// ZoneCmd assigns a channel to a zone.
	ZoneCmd = ishell.Cmd{
		Name: "zone",
		Help: "CHANNEL ZONE SUBZONE",
		Func: sh.MustHaveNode(func(c *ishell.Context) {
			ch, ok := channelArg(c)
			if !ok {
				return
			}
			if len(c.Args) < 3 {
				c.Err(fmt.Errorf("ZONE and SUBZONE required"))
				return
			}
			zones, err := sh.ParseBytes(c.Args[1:3], "zone")
			if err != nil {
				c.Err(err)
				return
			}
			if err := SetZone(sh.ShellFrom(c), ch, zones[0], zones[1]); err != nil {
				c.Err(err)
			}
		}),
	}
)

func init() {
	sh.AddCmds(
		&ChannelsCmd,
		&ChannelCmd,
		&NameCmd,
		&EnableCmd,
		&ZoneCmd,
	)
}
