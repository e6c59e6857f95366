package wire

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
)

// Writer encodes frames onto a stream, flushing after every frame so a
// request never sits in the buffer waiting for traffic that depends on it.
// Not safe for concurrent use; callers serialize writes.
type Writer struct {
	w        *bufio.Writer
	maxFrame uint32
	head     [FrameHeaderSize]byte
}

// NewWriter wraps w with a frame encoder limited to maxFrame octet payloads.
func NewWriter(w io.Writer, maxFrame uint32) *Writer {
	if maxFrame == 0 {
		maxFrame = FrameMinSize
	}
	return &Writer{
		w:        bufio.NewWriterSize(w, FrameMinSize),
		maxFrame: maxFrame,
	}
}

// SetMaxFrame raises or lowers the payload limit after tune negotiation.
func (w *Writer) SetMaxFrame(max uint32) {
	w.maxFrame = max
}

// WriteFrame writes one complete frame and flushes it, returning the number
// of octets put on the wire.
func (w *Writer) WriteFrame(f *Frame) (int, error) {
	if uint32(len(f.Payload)) > w.maxFrame {
		return 0, fmt.Errorf("frame of %d octets exceeds negotiated maximum %d", len(f.Payload), w.maxFrame)
	}

	w.head[0] = f.Type
	binary.BigEndian.PutUint16(w.head[1:3], f.Channel)
	binary.BigEndian.PutUint32(w.head[3:7], uint32(len(f.Payload)))

	if _, err := w.w.Write(w.head[:]); err != nil {
		return 0, fmt.Errorf("write frame header: %w", err)
	}
	if _, err := w.w.Write(f.Payload); err != nil {
		return 0, fmt.Errorf("write frame payload: %w", err)
	}
	if err := w.w.WriteByte(FrameEnd); err != nil {
		return 0, fmt.Errorf("write frame end: %w", err)
	}
	if err := w.w.Flush(); err != nil {
		return 0, fmt.Errorf("flush frame: %w", err)
	}
	return f.WireSize(), nil
}

// WriteProtocolHeader sends the 8 octet greeting that opens a connection.
func (w *Writer) WriteProtocolHeader() error {
	if _, err := w.w.Write(ProtocolHeader); err != nil {
		return fmt.Errorf("write protocol header: %w", err)
	}
	return w.w.Flush()
}
