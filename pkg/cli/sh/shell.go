// Package sh provides the interactive configuration shell.
package sh

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"strconv"
	"time"

	"github.com/abiosoft/ishell"
	"github.com/golang/glog"

	"github.com/robotalks/swali.go/pkg/env"
	"github.com/robotalks/swali.go/pkg/vscp/client"
)

// Shell provides ishell backed interactive shell.
type Shell struct {
	Interactive bool
	OutputJSON  bool
	AutoConnect bool
	Timeout     time.Duration

	Shell  *ishell.Shell
	Config *env.Config
	Conn   *Conn
}

// Conn is an open bus with a running transport.
type Conn struct {
	Ctx       context.Context
	Cancel    func()
	URL       string
	Transport env.Transport
	Client    *client.Client
	// Node is the selected node, nil if none.
	Node *client.NodeInfo
}

const (
	shellKey          = "$shell"
	unconnectedPrompt = "[none] > "

	// DefaultTimeout limits every bus request.
	DefaultTimeout = time.Second
	// ScanTimeout is the wait for each nickname during scan.
	ScanTimeout = 100 * time.Millisecond
)

var (
	// ErrNotConnected indicates no bus is open.
	ErrNotConnected = errors.New("not connected")
	// ErrNoNode indicates no node is selected.
	ErrNoNode = errors.New("no node selected")
)

var (
	// flags

	evalOnly   bool
	outputJSON bool

	// commands
	commands = []*ishell.Cmd{
		&ConnectCmd,
		&DisconnectCmd,
		&ScanCmd,
		&NodeCmd,
		&RegsCmd,
		&SetRegCmd,
	}
)

func init() {
	flag.BoolVar(&evalOnly, "e", evalOnly, "Evaluation only, no interactive shell.")
	flag.BoolVar(&outputJSON, "json", outputJSON, "Print output in JSON.")
}

// AddCmds is used by other commands providers during init func.
func AddCmds(cmds ...*ishell.Cmd) {
	commands = append(commands, cmds...)
}

// New creates a new shell.
func New(conf *env.Config) *Shell {
	s := &Shell{
		Interactive: !evalOnly,
		OutputJSON:  outputJSON,
		Timeout:     DefaultTimeout,

		Shell:  ishell.New(),
		Config: conf,
	}
	s.Shell.Set(shellKey, s)
	s.Shell.SetPrompt(unconnectedPrompt)
	for _, cmd := range commands {
		s.Shell.AddCmd(cmd)
	}
	return s
}

// ShellFrom gets Shell from ishell context.
func ShellFrom(c *ishell.Context) *Shell {
	return c.Get(shellKey).(*Shell)
}

// MustBeConnected wraps command func requires a connection.
func MustBeConnected(fn func(c *ishell.Context)) func(c *ishell.Context) {
	return func(c *ishell.Context) {
		if ShellFrom(c).Conn == nil {
			c.Err(ErrNotConnected)
			return
		}
		fn(c)
	}
}

// MustHaveNode wraps command func requires a selected node.
func MustHaveNode(fn func(c *ishell.Context)) func(c *ishell.Context) {
	return MustBeConnected(func(c *ishell.Context) {
		if ShellFrom(c).Conn.Node == nil {
			c.Err(ErrNoNode)
			return
		}
		fn(c)
	})
}

// ParseUint parses a decimal or 0x prefixed argument.
func ParseUint(arg, name string, bits int) (uint64, error) {
	val, err := strconv.ParseUint(arg, 0, bits)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", name, arg)
	}
	return val, nil
}

// ParseBytes parses all args as byte values.
func ParseBytes(args []string, name string) ([]byte, error) {
	values := make([]byte, len(args))
	for n, arg := range args {
		val, err := ParseUint(arg, name, 8)
		if err != nil {
			return nil, err
		}
		values[n] = byte(val)
	}
	return values, nil
}

// FormatNode prints NodeInfo into friendly string for display.
func FormatNode(info client.NodeInfo) string {
	var w bytes.Buffer
	fmt.Fprintf(&w, "%02x %s", info.Nickname, info.GUIDString())
	if info.MDF != "" {
		fmt.Fprintf(&w, " %s", info.MDF)
	}
	return w.String()
}

// FormatRegisters dumps registers 8 per line.
func FormatRegisters(page uint16, reg uint8, values []byte) string {
	var w bytes.Buffer
	for n, val := range values {
		if n%8 == 0 {
			if n > 0 {
				w.WriteByte('\n')
			}
			fmt.Fprintf(&w, "%04x:%02x", page, int(reg)+n)
		}
		fmt.Fprintf(&w, " %02x", val)
	}
	return w.String()
}

// Output prints v as JSON or with the text formatter.
func (s *Shell) Output(c *ishell.Context, v interface{}, text func() string) {
	if s.OutputJSON {
		out, err := json.Marshal(v)
		if err != nil {
			c.Err(err)
			return
		}
		c.Println(string(out))
		return
	}
	c.Println(text())
}

// Context creates the context of one request.
func (s *Shell) Context() (context.Context, context.CancelFunc) {
	parent := context.Background()
	if s.Conn != nil {
		parent = s.Conn.Ctx
	}
	timeout := s.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return context.WithTimeout(parent, timeout)
}

// Connect opens the bus at url, closing the current one.
func (s *Shell) Connect(url string) error {
	transport, err := env.OpenBus(url)
	if err != nil {
		return err
	}
	conn := &Conn{
		URL:       url,
		Transport: transport,
		Client:    client.New(transport),
	}
	conn.Ctx, conn.Cancel = context.WithCancel(context.Background())
	go func() {
		if err := transport.Run(conn.Ctx); err != nil && conn.Ctx.Err() == nil {
			glog.Errorf("bus %s: %v", url, err)
		}
	}()
	s.Disconnect()
	s.Conn = conn
	s.setPrompt()
	return nil
}

// Disconnect closes the current bus.
func (s *Shell) Disconnect() {
	if s.Conn != nil {
		s.Conn.Cancel()
		s.Conn.Transport.Close()
		s.Conn = nil
		s.setPrompt()
	}
}

func (s *Shell) setPrompt() {
	if s.Shell == nil {
		return
	}
	switch {
	case s.Conn == nil:
		s.Shell.SetPrompt(unconnectedPrompt)
	case s.Conn.Node == nil:
		s.Shell.SetPrompt("[bus] > ")
	default:
		s.Shell.SetPrompt(fmt.Sprintf("[%02x] > ", s.Conn.Node.Nickname))
	}
}

// Scan finds the nodes with nicknames in [from, to].
func (s *Shell) Scan(from, to uint8) ([]client.NodeInfo, error) {
	if s.Conn == nil {
		return nil, ErrNotConnected
	}
	return s.Conn.Client.Scan(s.Conn.Ctx, from, to, ScanTimeout)
}

// SelectNode asks the node for its identity and makes it current.
func (s *Shell) SelectNode(nick uint8) (*client.NodeInfo, error) {
	if s.Conn == nil {
		return nil, ErrNotConnected
	}
	ctx, cancel := s.Context()
	defer cancel()
	info, err := s.Conn.Client.WhoIsThere(ctx, nick)
	if err != nil {
		return nil, err
	}
	s.Conn.Node = &info
	s.setPrompt()
	return &info, nil
}

// ReadRegisters reads registers of the selected node.
func (s *Shell) ReadRegisters(page uint16, reg uint8, count int) ([]byte, error) {
	if s.Conn == nil {
		return nil, ErrNotConnected
	}
	if s.Conn.Node == nil {
		return nil, ErrNoNode
	}
	ctx, cancel := s.Context()
	defer cancel()
	return s.Conn.Client.ReadRegisters(ctx, s.Conn.Node.Nickname, page, reg, count)
}

// WriteRegisters writes registers of the selected node, at most
// client.MaxWrite per request.
func (s *Shell) WriteRegisters(page uint16, reg uint8, values ...byte) ([]byte, error) {
	if s.Conn == nil {
		return nil, ErrNotConnected
	}
	if s.Conn.Node == nil {
		return nil, ErrNoNode
	}
	result := make([]byte, 0, len(values))
	for len(values) > 0 {
		n := len(values)
		if n > client.MaxWrite {
			n = client.MaxWrite
		}
		ctx, cancel := s.Context()
		written, err := s.Conn.Client.WriteRegisters(ctx, s.Conn.Node.Nickname, page, reg, values[:n]...)
		cancel()
		if err != nil {
			return result, err
		}
		result = append(result, written...)
		values, reg = values[n:], reg+uint8(n)
	}
	return result, nil
}

// Run runs the shell.
func (s *Shell) Run(args ...string) {
	if s.AutoConnect && s.Config.BusURL != "" {
		if err := s.Connect(s.Config.BusURL); err != nil {
			glog.Fatalf("connect %q failed: %v", s.Config.BusURL, err)
		}
	}
	defer s.Disconnect()

	if len(args) > 0 {
		if err := s.Shell.Process(args...); err != nil {
			glog.Fatalln(err)
		}
		return
	}
	if s.Interactive {
		s.Shell.Run()
		return
	}
	glog.Fatalln("command expected")
}

// WithAutoConnect sets AutoConnect.
func (s *Shell) WithAutoConnect(en bool) *Shell {
	s.AutoConnect = en
	return s
}

// Main is a helper to provide a single call in main.
func Main() {
	flag.Parse()
	New(env.NewConfig()).WithAutoConnect(true).Run(flag.Args()...)
}
