// Package wsbus carries CAN frames over message oriented streams so
// host processes can share one virtual bus. Frames travel in their
// 13-byte binary encoding.
package wsbus

import (
	"encoding/binary"
	"io"

	"golang.org/x/net/websocket"
)

// PacketReadWriter reads and writes whole packets.
type PacketReadWriter interface {
	ReadPacket() ([]byte, error)
	WritePacket([]byte) error
}

// WebSocket sends one packet per binary websocket message.
type WebSocket websocket.Conn

// NewWebSocket wraps websocket.Conn.
func NewWebSocket(conn *websocket.Conn) *WebSocket {
	return (*WebSocket)(conn)
}

// ReadPacket implements PacketReadWriter.
func (p *WebSocket) ReadPacket() (pkt []byte, err error) {
	err = websocket.Message.Receive((*websocket.Conn)(p), &pkt)
	return
}

// WritePacket implements PacketReadWriter.
func (p *WebSocket) WritePacket(pkt []byte) error {
	return websocket.Message.Send((*websocket.Conn)(p), pkt)
}

// Stream prefixes each packet with its 4-byte little-endian length.
type Stream struct {
	io.ReadWriter
}

// NewStream creates a Stream.
func NewStream(s io.ReadWriter) *Stream {
	return &Stream{s}
}

// maxStreamPacket bounds the packet size accepted from a stream.
const maxStreamPacket = 1024

// ReadPacket implements PacketReadWriter.
func (p *Stream) ReadPacket() ([]byte, error) {
	var size uint32
	if err := binary.Read(p, binary.LittleEndian, &size); err != nil {
		return nil, err
	}
	if size > maxStreamPacket {
		return nil, io.ErrShortBuffer
	}
	pkt := make([]byte, size)
	_, err := io.ReadFull(p, pkt)
	return pkt, err
}

// WritePacket implements PacketReadWriter.
func (p *Stream) WritePacket(pkt []byte) error {
	buf := make([]byte, 4+len(pkt))
	binary.LittleEndian.PutUint32(buf, uint32(len(pkt)))
	copy(buf[4:], pkt)
	_, err := p.Write(buf)
	return err
}
