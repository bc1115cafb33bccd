package mpegts

import (
	"bytes"
	"io"
)

const (
	// PacketSize is the size of a single MPEG-TS packet.
	PacketSize = 188
	// SyncByte marks the start of every packet.
	SyncByte = 0x47
)

// Parser reassembles aligned MPEG-TS packets from an arbitrarily chunked
// byte stream.
type Parser struct {
	buf *bytes.Buffer
}

// NewParser creates an empty Parser.
func NewParser() *Parser {
	return &Parser{
		buf: &bytes.Buffer{},
	}
}

// Write appends stream data to the parser's buffer.
func (p *Parser) Write(data []byte) (int, error) {
	return p.buf.Write(data)
}

// Next returns the next complete packet. Data in front of the first sync
// byte is discarded. io.EOF signals that the buffer holds no complete
// packet yet.
func (p *Parser) Next() ([]byte, error) {
	packet := make([]byte, PacketSize)
	if err := p.NextInto(packet); err != nil {
		return nil, err
	}
	return packet, nil
}

// NextInto is the allocation free variant of Next. packet must hold
// PacketSize bytes.
func (p *Parser) NextInto(packet []byte) error {
	idx := bytes.IndexByte(p.buf.Bytes(), SyncByte)
	if idx == -1 {
		p.buf.Reset()
		return io.EOF
	}

	if idx > 0 {
		p.buf.Next(idx)
	}

	if p.buf.Len() < PacketSize {
		return io.EOF
	}

	_, err := io.ReadFull(p.buf, packet[:PacketSize])
	return err
}

// Sniff reports whether data opens with an aligned run of MPEG-TS packets.
// Two aligned sync bytes are required, a lone 0x47 is too common in other
// media to be a signal.
func Sniff(data []byte) bool {
	if len(data) <= PacketSize {
		return false
	}
	return data[0] == SyncByte && data[PacketSize] == SyncByte
}
