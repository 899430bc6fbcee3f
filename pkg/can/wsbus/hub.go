package wsbus

import (
	"context"
	"io"
	"net"
	"net/http"

	"github.com/golang/glog"
	"golang.org/x/net/websocket"

	"github.com/robotalks/swali.go/pkg/can"
)

// Hub shares a Loopback bus with remote connections. Each remote peer
// becomes a port on the bus.
type Hub struct {
	bus *can.Loopback
}

// NewHub creates a Hub around bus.
func NewHub(bus *can.Loopback) *Hub {
	return &Hub{bus: bus}
}

// Bus returns the shared bus for local attachments.
func (h *Hub) Bus() *can.Loopback {
	return h.bus
}

// Handler returns the websocket endpoint.
func (h *Hub) Handler() http.Handler {
	return websocket.Handler(func(ws *websocket.Conn) {
		ws.PayloadType = websocket.BinaryFrame
		if err := h.Serve(ws.Request().Context(), NewWebSocket(ws)); err != nil && err != io.EOF {
			glog.V(1).Infof("wsbus: %s: %v", ws.Request().RemoteAddr, err)
		}
	})
}

// ServeTCP accepts stream connections until ctx is done.
func (h *Hub) ServeTCP(ctx context.Context, ln net.Listener) error {
	go func() {
		<-ctx.Done()
		ln.Close()
	}()
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}
		go func() {
			defer conn.Close()
			if err := h.Serve(ctx, NewStream(conn)); err != nil && err != io.EOF {
				glog.V(1).Infof("wsbus: %s: %v", conn.RemoteAddr(), err)
			}
		}()
	}
}

// Serve relays frames between rw and the bus until either side stops.
func (h *Hub) Serve(ctx context.Context, rw PacketReadWriter) error {
	port := h.bus.Attach()
	defer port.Close()
	glog.V(1).Info("wsbus: peer attached")

	errCh := make(chan error, 1)
	go func() {
		errCh <- receiveFrames(rw, port.Send)
	}()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-errCh:
			return err
		case <-port.Notify():
			for f, ok := port.Receive(); ok; f, ok = port.Receive() {
				pkt, _ := f.MarshalBinary()
				if err := rw.WritePacket(pkt); err != nil {
					return err
				}
			}
		}
	}
}
