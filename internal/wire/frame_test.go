package wire

import (
	"bytes"
	"strings"
	"testing"
)

func TestNewMethod(t *testing.T) {
	args := []byte{0x00, 0x00, 0x05, 'q', 'u', 'e', 'u', 'e'}
	f := NewMethod(ClassQueue, QueueDeclare, args)

	if f.Type != FrameMethod {
		t.Errorf("frame type: got %d, want %d", f.Type, FrameMethod)
	}
	if f.Channel != 0 {
		t.Errorf("channel before stamping: got %d, want 0", f.Channel)
	}
	if len(f.Payload) != 4+len(args) {
		t.Errorf("payload size: got %d, want %d", len(f.Payload), 4+len(args))
	}

	m, err := f.ParseMethod()
	if err != nil {
		t.Fatalf("parse method: %v", err)
	}
	if m.ClassID != ClassQueue {
		t.Errorf("class id: got %d, want %d", m.ClassID, ClassQueue)
	}
	if m.MethodID != QueueDeclare {
		t.Errorf("method id: got %d, want %d", m.MethodID, QueueDeclare)
	}
	if !bytes.Equal(m.Args, args) {
		t.Errorf("args: got %v, want %v", m.Args, args)
	}
}

func TestNewMethodNilArgs(t *testing.T) {
	f := NewMethod(ClassTx, TxSelect, nil)

	if len(f.Payload) != 4 {
		t.Errorf("payload size: got %d, want 4", len(f.Payload))
	}
	m, err := f.ParseMethod()
	if err != nil {
		t.Fatalf("parse method: %v", err)
	}
	if len(m.Args) != 0 {
		t.Errorf("args size: got %d, want 0", len(m.Args))
	}
}

func TestNewHeader(t *testing.T) {
	props := []byte{0x80, 0x00, 0x0A, 't', 'e', 'x', 't', '/', 'p', 'l', 'a', 'i', 'n'}
	f := NewHeader(ClassBasic, 1024, props)

	if f.Type != FrameHeader {
		t.Errorf("frame type: got %d, want %d", f.Type, FrameHeader)
	}

	h, err := f.ParseHeader()
	if err != nil {
		t.Fatalf("parse header: %v", err)
	}
	if h.ClassID != ClassBasic {
		t.Errorf("class id: got %d, want %d", h.ClassID, ClassBasic)
	}
	if h.Weight != 0 {
		t.Errorf("weight: got %d, want 0", h.Weight)
	}
	if h.BodySize != 1024 {
		t.Errorf("body size: got %d, want 1024", h.BodySize)
	}
	if !bytes.Equal(h.Properties, props) {
		t.Errorf("properties: got %v, want %v", h.Properties, props)
	}
}

func TestNewBody(t *testing.T) {
	data := []byte("hello")
	f := NewBody(data)

	if f.Type != FrameBody {
		t.Errorf("frame type: got %d, want %d", f.Type, FrameBody)
	}
	if !bytes.Equal(f.Payload, data) {
		t.Errorf("payload: got %v, want %v", f.Payload, data)
	}
}

func TestNewHeartbeat(t *testing.T) {
	f := NewHeartbeat()

	if f.Type != FrameHeartbeat {
		t.Errorf("frame type: got %d, want %d", f.Type, FrameHeartbeat)
	}
	if len(f.Payload) != 0 {
		t.Errorf("payload size: got %d, want 0", len(f.Payload))
	}
	if f.WireSize() != FrameHeaderSize+FrameEndSize {
		t.Errorf("wire size: got %d, want %d", f.WireSize(), FrameHeaderSize+FrameEndSize)
	}
}

func TestParseMethodWrongType(t *testing.T) {
	f := NewBody([]byte("not a method"))
	if _, err := f.ParseMethod(); err == nil {
		t.Error("expected error parsing body frame as method")
	}
}

func TestParseMethodTruncated(t *testing.T) {
	f := &Frame{Type: FrameMethod, Payload: []byte{0x00, 0x14}}
	if _, err := f.ParseMethod(); err == nil {
		t.Error("expected error parsing truncated method frame")
	}
}

func TestParseHeaderTruncated(t *testing.T) {
	f := &Frame{Type: FrameHeader, Payload: []byte{0x00, 0x3C, 0x00, 0x00}}
	if _, err := f.ParseHeader(); err == nil {
		t.Error("expected error parsing truncated header frame")
	}
}

func TestReadWriteRoundTrip(t *testing.T) {
	frames := []*Frame{
		{Type: FrameMethod, Channel: 1, Payload: []byte{0x00, 0x14, 0x00, 0x0A}},
		{Type: FrameHeader, Channel: 1, Payload: make([]byte, 14)},
		{Type: FrameBody, Channel: 1, Payload: []byte("message body")},
		{Type: FrameHeartbeat, Channel: 0, Payload: []byte{}},
	}

	var buf bytes.Buffer
	w := NewWriter(&buf, FrameMinSize)
	for i, f := range frames {
		n, err := w.WriteFrame(f)
		if err != nil {
			t.Fatalf("write frame %d: %v", i, err)
		}
		if n != f.WireSize() {
			t.Errorf("frame %d octets written: got %d, want %d", i, n, f.WireSize())
		}
	}

	r := NewReader(&buf, FrameMinSize)
	for i, want := range frames {
		got, err := r.ReadFrame()
		if err != nil {
			t.Fatalf("read frame %d: %v", i, err)
		}
		if got.Type != want.Type {
			t.Errorf("frame %d type: got %d, want %d", i, got.Type, want.Type)
		}
		if got.Channel != want.Channel {
			t.Errorf("frame %d channel: got %d, want %d", i, got.Channel, want.Channel)
		}
		if !bytes.Equal(got.Payload, want.Payload) {
			t.Errorf("frame %d payload: got %v, want %v", i, got.Payload, want.Payload)
		}
	}
}

func TestWriterRejectsOversizeFrame(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, FrameMinSize)
	w.SetMaxFrame(16)

	_, err := w.WriteFrame(NewBody(make([]byte, 17)))
	if err == nil {
		t.Fatal("expected error writing frame above the maximum")
	}
	if buf.Len() != 0 {
		t.Errorf("octets written after rejection: got %d, want 0", buf.Len())
	}
}

func TestReaderRejectsOversizeFrame(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, FrameMinSize)
	if _, err := w.WriteFrame(NewBody(make([]byte, 64))); err != nil {
		t.Fatalf("write frame: %v", err)
	}

	r := NewReader(&buf, FrameMinSize)
	r.SetMaxFrame(16)
	if _, err := r.ReadFrame(); err == nil {
		t.Fatal("expected error reading frame above the maximum")
	}
}

func TestReaderRejectsUnknownFrameType(t *testing.T) {
	raw := []byte{9, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, FrameEnd}
	r := NewReader(bytes.NewReader(raw), FrameMinSize)

	_, err := r.ReadFrame()
	if err == nil {
		t.Fatal("expected error for unknown frame type")
	}
	if !strings.Contains(err.Error(), "invalid frame type") {
		t.Errorf("error: got %q, want mention of invalid frame type", err)
	}
}

func TestReaderRejectsBadEndMarker(t *testing.T) {
	raw := []byte{FrameMethod, 0x00, 0x01, 0x00, 0x00, 0x00, 0x00, 0xAB}
	r := NewReader(bytes.NewReader(raw), FrameMinSize)

	_, err := r.ReadFrame()
	if err == nil {
		t.Fatal("expected error for bad end marker")
	}
	if !strings.Contains(err.Error(), "0xAB") {
		t.Errorf("error: got %q, want the offending octet", err)
	}
}

func TestProtocolHeaderRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, FrameMinSize)
	if err := w.WriteProtocolHeader(); err != nil {
		t.Fatalf("write protocol header: %v", err)
	}

	r := NewReader(&buf, FrameMinSize)
	got, err := r.ReadProtocolHeader()
	if err != nil {
		t.Fatalf("read protocol header: %v", err)
	}
	if !bytes.Equal(got, ProtocolHeader) {
		t.Errorf("protocol header: got %v, want %v", got, ProtocolHeader)
	}
}

func TestFrameString(t *testing.T) {
	tests := []struct {
		name  string
		frame *Frame
		want  string
	}{
		{"method", &Frame{Type: FrameMethod, Channel: 3, Payload: make([]byte, 4)}, "Frame{type=METHOD, channel=3, size=4}"},
		{"header", &Frame{Type: FrameHeader, Channel: 1, Payload: make([]byte, 14)}, "Frame{type=HEADER, channel=1, size=14}"},
		{"body", &Frame{Type: FrameBody, Channel: 1, Payload: make([]byte, 256)}, "Frame{type=BODY, channel=1, size=256}"},
		{"heartbeat", &Frame{Type: FrameHeartbeat}, "Frame{type=HEARTBEAT, channel=0, size=0}"},
		{"unknown", &Frame{Type: 7, Channel: 2}, "Frame{type=UNKNOWN(7), channel=2, size=0}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.frame.String(); got != tt.want {
				t.Errorf("String(): got %q, want %q", got, tt.want)
			}
		})
	}
}

func BenchmarkWriteFrame(b *testing.B) {
	f := NewBody(make([]byte, 1024))
	var buf bytes.Buffer
	w := NewWriter(&buf, FrameMinSize)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		buf.Reset()
		if _, err := w.WriteFrame(f); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkReadFrame(b *testing.B) {
	var buf bytes.Buffer
	w := NewWriter(&buf, FrameMinSize)
	if _, err := w.WriteFrame(NewBody(make([]byte, 1024))); err != nil {
		b.Fatal(err)
	}
	raw := buf.Bytes()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		r := NewReader(bytes.NewReader(raw), FrameMinSize)
		if _, err := r.ReadFrame(); err != nil {
			b.Fatal(err)
		}
	}
}
