package main

//go-build: CGO_ENABLED=0

import (
	"flag"

	"github.com/golang/glog"

	"github.com/robotalks/swali.go/pkg/buslog"
	"github.com/robotalks/swali.go/pkg/can"
	"github.com/robotalks/swali.go/pkg/env"
	fx "github.com/robotalks/swali.go/pkg/framework"
	"github.com/robotalks/swali.go/pkg/gateway"
)

var nickname = uint(gateway.DefaultNickname)

func init() {
	env.SetupFlags()
	flag.UintVar(&nickname, "nickname", nickname, "Nickname of events sent by the gateway.")
}

func main() {
	flag.Parse()

	conf := env.NewConfig()
	if nickname > 0xff {
		glog.Fatalf("invalid nickname %d", nickname)
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

	queue, err := gateway.NewQueueFromURL(conf.MQTTURL)
	if err != nil {
		glog.Fatalf("mqtt url: %v", err)
	}
	if err := queue.Connect(); err != nil {
		glog.Fatalf("mqtt connect %s: %v", conf.MQTTURL, err)
	}
	defer queue.Close()

	bridge := gateway.NewBridge(queue, bus)
	bridge.Nickname = uint8(nickname)
	err = fx.NewRunner().HandleSignals().Go(
		fx.NamedRun("bus", fx.RunFunc(transport.Run)),
		fx.NamedRun("bridge", fx.RunFunc(bridge.Run)),
	).Wait()
	if err != nil {
		glog.Errorf("stopped: %v", err)
	}
}
