package amqp

import (
	"fmt"
	"testing"

	"github.com/rs/zerolog"

	"github.com/israelio/amqp-go/internal/wire"
)

// fakeTransport records every frame a channel hands over and can inject
// write failures.
type fakeTransport struct {
	frames []*wire.Frame
	fail   error
	body   int
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{body: 4096}
}

func (t *fakeTransport) transmit(channel uint16, f *wire.Frame) (int, error) {
	if t.fail != nil {
		return 0, t.fail
	}
	f.Channel = channel
	t.frames = append(t.frames, f)
	return f.WireSize(), nil
}

func (t *fakeTransport) maxBody() int {
	return t.body
}

func (t *fakeTransport) method(tb testing.TB, i int) *wire.Method {
	tb.Helper()
	if i >= len(t.frames) {
		tb.Fatalf("frame %d not sent, have %d", i, len(t.frames))
	}
	m, err := t.frames[i].ParseMethod()
	if err != nil {
		tb.Fatalf("parse frame %d: %v", i, err)
	}
	return m
}

func (t *fakeTransport) lastMethod(tb testing.TB) *wire.Method {
	tb.Helper()
	if len(t.frames) == 0 {
		tb.Fatal("no frames sent")
	}
	return t.method(tb, len(t.frames)-1)
}

func newTestChannel(id uint16, handler ChannelHandler) (*Channel, *fakeTransport) {
	tr := newFakeTransport()
	return newChannel(tr, id, handler, testLogger(), nil), tr
}

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}

// recorder captures completion reports as ordered event strings.
type recorder struct {
	events []string
}

func (r *recorder) OnReady(*Channel)   { r.events = append(r.events, "ready") }
func (r *recorder) OnClosed(*Channel)  { r.events = append(r.events, "closed") }
func (r *recorder) OnPaused(*Channel)  { r.events = append(r.events, "paused") }
func (r *recorder) OnResumed(*Channel) { r.events = append(r.events, "resumed") }

func (r *recorder) OnError(_ *Channel, message string) {
	r.events = append(r.events, "error:"+message)
}

func (r *recorder) OnExchangeDeclared(*Channel) { r.events = append(r.events, "exchange-declared") }
func (r *recorder) OnExchangeDeleted(*Channel)  { r.events = append(r.events, "exchange-deleted") }
func (r *recorder) OnExchangeBound(*Channel)    { r.events = append(r.events, "exchange-bound") }
func (r *recorder) OnExchangeUnbound(*Channel)  { r.events = append(r.events, "exchange-unbound") }

func (r *recorder) OnQueueDeclared(_ *Channel, name string, messages, consumers uint32) {
	r.events = append(r.events, fmt.Sprintf("queue-declared:%s:%d:%d", name, messages, consumers))
}

func (r *recorder) OnQueueBound(*Channel)   { r.events = append(r.events, "queue-bound") }
func (r *recorder) OnQueueUnbound(*Channel) { r.events = append(r.events, "queue-unbound") }

func (r *recorder) OnQueueDeleted(_ *Channel, messages uint32) {
	r.events = append(r.events, fmt.Sprintf("queue-deleted:%d", messages))
}

func (r *recorder) OnQueuePurged(_ *Channel, messages uint32) {
	r.events = append(r.events, fmt.Sprintf("queue-purged:%d", messages))
}
