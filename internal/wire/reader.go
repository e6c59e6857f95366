package wire

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
)

// Reader decodes frames from a stream. It rejects malformed frame types,
// frames above the negotiated maximum and missing end markers, so that a
// corrupt stream fails at the framing layer instead of inside a method
// decoder. Not safe for concurrent use.
type Reader struct {
	r        *bufio.Reader
	maxFrame uint32
	head     [FrameHeaderSize]byte
}

// NewReader wraps r with a frame decoder limited to maxFrame octet payloads.
func NewReader(r io.Reader, maxFrame uint32) *Reader {
	if maxFrame == 0 {
		maxFrame = FrameMinSize
	}
	return &Reader{
		r:        bufio.NewReaderSize(r, FrameMinSize),
		maxFrame: maxFrame,
	}
}

// SetMaxFrame raises or lowers the payload limit after tune negotiation.
func (r *Reader) SetMaxFrame(max uint32) {
	r.maxFrame = max
}

// ReadProtocolHeader consumes the 8 octet greeting that opens a connection
// and returns it for version inspection.
func (r *Reader) ReadProtocolHeader() ([]byte, error) {
	header := make([]byte, len(ProtocolHeader))
	if _, err := io.ReadFull(r.r, header); err != nil {
		return nil, fmt.Errorf("read protocol header: %w", err)
	}
	return header, nil
}

// ReadFrame reads one complete frame, validating its framing.
func (r *Reader) ReadFrame() (*Frame, error) {
	if _, err := io.ReadFull(r.r, r.head[:]); err != nil {
		return nil, err
	}

	typ := r.head[0]
	if !validFrameType(typ) {
		return nil, fmt.Errorf("invalid frame type %d", typ)
	}

	channel := binary.BigEndian.Uint16(r.head[1:3])
	size := binary.BigEndian.Uint32(r.head[3:7])
	if size > r.maxFrame {
		return nil, fmt.Errorf("frame of %d octets exceeds negotiated maximum %d", size, r.maxFrame)
	}

	payload := make([]byte, size)
	if _, err := io.ReadFull(r.r, payload); err != nil {
		return nil, fmt.Errorf("read frame payload: %w", err)
	}

	end, err := r.r.ReadByte()
	if err != nil {
		return nil, fmt.Errorf("read frame end: %w", err)
	}
	if end != FrameEnd {
		return nil, fmt.Errorf("invalid frame end marker: 0x%02X", end)
	}

	return &Frame{Type: typ, Channel: channel, Payload: payload}, nil
}
