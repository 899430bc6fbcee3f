package main

//go-build: CGO_ENABLED=0

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"strings"

	"github.com/golang/glog"

	"github.com/robotalks/swali.go/pkg/board"
	"github.com/robotalks/swali.go/pkg/buslog"
	"github.com/robotalks/swali.go/pkg/can"
	"github.com/robotalks/swali.go/pkg/can/wsbus"
	"github.com/robotalks/swali.go/pkg/env"
	fx "github.com/robotalks/swali.go/pkg/framework"
	"github.com/robotalks/swali.go/pkg/gpio"
	"github.com/robotalks/swali.go/pkg/store"
	"github.com/robotalks/swali.go/pkg/timebase"
)

var (
	preset   = "paris"
	name     = "node"
	listen   string
	stdinPin bool
)

func init() {
	env.SetupFlags()
	flag.StringVar(&preset, "board", preset, "Board preset: "+strings.Join(board.PresetNames(), ", ")+".")
	flag.StringVar(&name, "name", name, "Node name, tells apart GUIDs of nodes on one machine.")
	flag.StringVar(&listen, "listen", listen, "Serve the loop:// bus to remote peers at this address, on /bus (websocket) and tcp on the next port.")
	flag.BoolVar(&stdinPin, "stdin", stdinPin, "Read input pin levels from stdin as lines of PIN LEVEL.")
}

func nodeFile(conf *env.Config) (*env.NodeFile, error) {
	if conf.NodeFile == "" {
		return &env.NodeFile{Board: preset, Name: name}, nil
	}
	nf, err := env.LoadNodeFile(conf.NodeFile)
	if err != nil {
		return nil, err
	}
	if err := nf.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", conf.NodeFile, err)
	}
	nf.Apply(conf)
	if nf.Name == "" {
		nf.Name = name
	}
	return nf, nil
}

// readPins sets input levels from lines of "PIN LEVEL".
func readPins(ctx context.Context, bank *gpio.Bank) error {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		var pin, level int
		if _, err := fmt.Sscan(scanner.Text(), &pin, &level); err != nil || pin < 0 || pin > 0xff {
			glog.Warningf("stdin: expect PIN LEVEL, got %q", scanner.Text())
			continue
		}
		bank.Set(uint8(pin), level != 0)
		if ctx.Err() != nil {
			break
		}
	}
	return scanner.Err()
}

func serveHub(ctx context.Context, hub *wsbus.Hub) error {
	mux := http.NewServeMux()
	mux.Handle("/bus", hub.Handler())
	server := &http.Server{Addr: listen, Handler: mux}
	host, port, err := net.SplitHostPort(listen)
	if err != nil {
		return err
	}
	var tcpPort int
	if _, err := fmt.Sscan(port, &tcpPort); err != nil {
		return fmt.Errorf("listen port %q: %w", port, err)
	}
	ln, err := net.Listen("tcp", net.JoinHostPort(host, fmt.Sprint(tcpPort+1)))
	if err != nil {
		return err
	}
	glog.Infof("hub: ws://%s/bus tcp://%s", listen, ln.Addr())
	return fx.NewRunnerWith(ctx).Go(
		fx.NamedRun("hub-tcp", fx.RunFunc(func(ctx context.Context) error {
			return hub.ServeTCP(ctx, ln)
		})),
		fx.NamedRun("hub-http", fx.RunFunc(func(ctx context.Context) error {
			return fx.RunWithContextCloser(ctx, server, server.ListenAndServe)
		})),
	).Wait()
}

func main() {
	flag.Parse()

	conf := env.NewConfig()
	nf, err := nodeFile(conf)
	if err != nil {
		glog.Fatal(err)
	}
	guid, err := env.MachineGUID(nf.Name)
	if err != nil {
		glog.Fatalf("machine id: %v", err)
	}
	cfg, err := nf.BoardConfig(guid)
	if err != nil {
		glog.Fatal(err)
	}

	transport, err := conf.OpenBus()
	if err != nil {
		glog.Fatalf("open bus %s: %v", conf.BusURL, err)
	}
	defer transport.Close()
	var bus can.Bus = transport
	if conf.CapturePath != "" {
		logger, err := buslog.NewFileLogger(conf.CapturePath)
		if err != nil {
			glog.Fatalf("capture: %v", err)
		}
		defer logger.Close()
		bus = buslog.NewTap(transport, logger)
	}

	medium, err := store.OpenFile(conf.StorePath, board.BlobSize)
	if err != nil {
		glog.Fatalf("store: %v", err)
	}
	defer medium.Close()

	bank := gpio.NewBank()
	bank.OnWrite(func(id uint8, level bool) {
		if id == gpio.StatusLED {
			glog.V(1).Infof("led: %v", level)
			return
		}
		glog.Infof("output %d: %v", id, level)
	})
	b, err := board.New(cfg, bus, medium, bank, timebase.NewMonotonic())
	if err != nil {
		glog.Fatal(err)
	}
	runner := fx.NewRunner().HandleSignals()
	ctx, cancel := context.WithCancel(runner.Context)
	b.Reboot = func() {
		glog.Info("boot loader requested, exit")
		cancel()
	}
	runner.GoWith(ctx,
		fx.NamedRun("bus", fx.RunFunc(transport.Run)),
		fx.NamedRun("board", fx.RunFunc(b.Run)),
	)
	if listen != "" {
		if !strings.HasPrefix(conf.BusURL, "loop://") {
			glog.Fatalf("-listen requires a loop:// bus")
		}
		hub := wsbus.NewHub(env.Loopback(strings.TrimPrefix(conf.BusURL, "loop://")))
		runner.GoWith(ctx, fx.NamedRun("hub", fx.RunFunc(func(ctx context.Context) error {
			return serveHub(ctx, hub)
		})))
	}
	if stdinPin {
		go func() {
			if err := readPins(ctx, bank); err != nil {
				glog.Errorf("stdin: %v", err)
			}
		}()
	}
	if err := runner.Wait(); err != nil {
		glog.Errorf("stopped: %v", err)
	}
}
