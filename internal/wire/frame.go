package wire

import (
	"encoding/binary"
	"fmt"
)

// Frame is one unit of the AMQP 0-9-1 framing layer. The payload layout
// depends on Type; Channel is stamped by the sender just before the frame
// goes on the wire.
type Frame struct {
	Type    uint8
	Channel uint16
	Payload []byte
}

// Method is the decoded payload of a method frame. Args holds the
// method-specific argument bytes, to be walked with NewFields.
type Method struct {
	ClassID  uint16
	MethodID uint16
	Args     []byte
}

// Header is the decoded payload of a content header frame.
type Header struct {
	ClassID    uint16
	Weight     uint16
	BodySize   uint64
	Properties []byte
}

// NewMethod builds a method frame for the given class and method. A nil
// args slice encodes a method without arguments.
func NewMethod(class, method uint16, args []byte) *Frame {
	payload := make([]byte, 4+len(args))
	binary.BigEndian.PutUint16(payload[0:2], class)
	binary.BigEndian.PutUint16(payload[2:4], method)
	copy(payload[4:], args)
	return &Frame{Type: FrameMethod, Payload: payload}
}

// NewHeader builds a content header frame announcing bodySize octets of
// content, with the already encoded property list appended. Weight is
// always zero in 0-9-1.
func NewHeader(class uint16, bodySize uint64, properties []byte) *Frame {
	payload := make([]byte, 12+len(properties))
	binary.BigEndian.PutUint16(payload[0:2], class)
	binary.BigEndian.PutUint16(payload[2:4], 0)
	binary.BigEndian.PutUint64(payload[4:12], bodySize)
	copy(payload[12:], properties)
	return &Frame{Type: FrameHeader, Payload: payload}
}

// NewBody builds a content body frame carrying one chunk of message content.
func NewBody(data []byte) *Frame {
	return &Frame{Type: FrameBody, Payload: data}
}

// NewHeartbeat builds a heartbeat frame. Heartbeats always travel on
// channel zero with an empty payload.
func NewHeartbeat() *Frame {
	return &Frame{Type: FrameHeartbeat}
}

// WireSize is the number of octets the frame occupies on the wire,
// including the 7 octet header and the end marker.
func (f *Frame) WireSize() int {
	return FrameHeaderSize + len(f.Payload) + FrameEndSize
}

// ParseMethod decodes the payload of a method frame.
func (f *Frame) ParseMethod() (*Method, error) {
	if f.Type != FrameMethod {
		return nil, fmt.Errorf("not a method frame: type %d", f.Type)
	}
	if len(f.Payload) < 4 {
		return nil, fmt.Errorf("method frame too short: %d octets", len(f.Payload))
	}
	return &Method{
		ClassID:  binary.BigEndian.Uint16(f.Payload[0:2]),
		MethodID: binary.BigEndian.Uint16(f.Payload[2:4]),
		Args:     f.Payload[4:],
	}, nil
}

// ParseHeader decodes the payload of a content header frame.
func (f *Frame) ParseHeader() (*Header, error) {
	if f.Type != FrameHeader {
		return nil, fmt.Errorf("not a header frame: type %d", f.Type)
	}
	if len(f.Payload) < 12 {
		return nil, fmt.Errorf("header frame too short: %d octets", len(f.Payload))
	}
	return &Header{
		ClassID:    binary.BigEndian.Uint16(f.Payload[0:2]),
		Weight:     binary.BigEndian.Uint16(f.Payload[2:4]),
		BodySize:   binary.BigEndian.Uint64(f.Payload[4:12]),
		Properties: f.Payload[12:],
	}, nil
}

func (f *Frame) String() string {
	return fmt.Sprintf("Frame{type=%s, channel=%d, size=%d}", frameTypeName(f.Type), f.Channel, len(f.Payload))
}

func frameTypeName(t uint8) string {
	switch t {
	case FrameMethod:
		return "METHOD"
	case FrameHeader:
		return "HEADER"
	case FrameBody:
		return "BODY"
	case FrameHeartbeat:
		return "HEARTBEAT"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", t)
	}
}

func validFrameType(t uint8) bool {
	switch t {
	case FrameMethod, FrameHeader, FrameBody, FrameHeartbeat:
		return true
	}
	return false
}
