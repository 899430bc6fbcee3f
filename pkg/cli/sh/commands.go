package sh

import (
	"fmt"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/swali.go/pkg/vscp/client"
)

var (
	// ConnectCmd opens a bus.
	ConnectCmd = ishell.Cmd{
		Name:    "connect",
		Aliases: []string{"c"},
		Help:    "[BUS-URL]",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			url := s.Config.BusURL
			if len(c.Args) > 0 {
				url = c.Args[0]
			}
			if err := s.Connect(url); err != nil {
				c.Err(err)
			}
		},
	}

	// DisconnectCmd closes current bus.
	DisconnectCmd = ishell.Cmd{
		Name:    "disconnect",
		Aliases: []string{"d"},
		Help:    "",
		Func: func(c *ishell.Context) {
			ShellFrom(c).Disconnect()
		},
	}

	// ScanCmd finds nodes on the bus.
	ScanCmd = ishell.Cmd{
		Name:    "scan",
		Aliases: []string{"l"},
		Help:    "[FROM [TO]]",
		Func: MustBeConnected(func(c *ishell.Context) {
			from, to := uint64(1), uint64(0xfd)
			var err error
			if len(c.Args) > 0 {
				if from, err = ParseUint(c.Args[0], "FROM", 8); err != nil {
					c.Err(err)
					return
				}
				to = from
			}
			if len(c.Args) > 1 {
				if to, err = ParseUint(c.Args[1], "TO", 8); err != nil {
					c.Err(err)
					return
				}
			}
			s := ShellFrom(c)
			nodes, err := s.Scan(uint8(from), uint8(to))
			if err != nil {
				c.Err(err)
				return
			}
			if nodes == nil {
				nodes = []client.NodeInfo{}
			}
			s.Output(c, nodes, func() string {
				if len(nodes) == 0 {
					return "No nodes found"
				}
				var out string
				for n, info := range nodes {
					if n > 0 {
						out += "\n"
					}
					out += FormatNode(info)
				}
				return out
			})
		}),
	}

	// NodeCmd selects a node.
	NodeCmd = ishell.Cmd{
		Name:    "node",
		Aliases: []string{"n"},
		Help:    "NICKNAME",
		Func: MustBeConnected(func(c *ishell.Context) {
			if len(c.Args) < 1 {
				c.Err(fmt.Errorf("NICKNAME required"))
				return
			}
			nick, err := ParseUint(c.Args[0], "NICKNAME", 8)
			if err != nil {
				c.Err(err)
				return
			}
			s := ShellFrom(c)
			info, err := s.SelectNode(uint8(nick))
			if err != nil {
				c.Err(err)
				return
			}
			s.Output(c, info, func() string { return FormatNode(*info) })
		}),
	}

	// RegsCmd reads registers.
	RegsCmd = ishell.Cmd{
		Name:    "regs",
		Aliases: []string{"r"},
		Help:    "PAGE REG [COUNT]",
		Func: MustHaveNode(func(c *ishell.Context) {
			if len(c.Args) < 2 {
				c.Err(fmt.Errorf("PAGE and REG required"))
				return
			}
			page, err := ParseUint(c.Args[0], "PAGE", 16)
			if err != nil {
				c.Err(err)
				return
			}
			reg, err := ParseUint(c.Args[1], "REG", 8)
			if err != nil {
				c.Err(err)
				return
			}
			count := uint64(1)
			if len(c.Args) > 2 {
				if count, err = ParseUint(c.Args[2], "COUNT", 9); err != nil {
					c.Err(err)
					return
				}
			}
			s := ShellFrom(c)
			values, err := s.ReadRegisters(uint16(page), uint8(reg), int(count))
			if err != nil {
				c.Err(err)
				return
			}
			s.Output(c, registerValues(values), func() string {
				return FormatRegisters(uint16(page), uint8(reg), values)
			})
		}),
	}

	// SetRegCmd writes registers.
	SetRegCmd = ishell.Cmd{
		Name:    "setreg",
		Aliases: []string{"w"},
		Help:    "PAGE REG VALUE...",
		Func: MustHaveNode(func(c *ishell.Context) {
			if len(c.Args) < 3 {
				c.Err(fmt.Errorf("PAGE, REG and VALUE required"))
				return
			}
			page, err := ParseUint(c.Args[0], "PAGE", 16)
			if err != nil {
				c.Err(err)
				return
			}
			reg, err := ParseUint(c.Args[1], "REG", 8)
			if err != nil {
				c.Err(err)
				return
			}
			values, err := ParseBytes(c.Args[2:], "VALUE")
			if err != nil {
				c.Err(err)
				return
			}
			s := ShellFrom(c)
			written, err := s.WriteRegisters(uint16(page), uint8(reg), values...)
			if err != nil {
				c.Err(err)
				return
			}
			s.Output(c, registerValues(written), func() string {
				return FormatRegisters(uint16(page), uint8(reg), written)
			})
		}),
	}
)

// registerValues keeps JSON output numeric.
func registerValues(values []byte) []int {
	ints := make([]int, len(values))
	for n, val := range values {
		ints[n] = int(val)
	}
	return ints
}
