package amqp

import "github.com/israelio/amqp-go/internal/wire"

// Unroutable publishes sent with Mandatory or Immediate come back as a
// basic.return followed by content frames. This client exposes no
// consumer surface, so returns are logged, counted and dropped; the
// drain exists to keep the frame stream aligned across them.

type pendingReturn struct {
	code      uint16
	text      string
	exchange  string
	key       string
	remaining uint64
	gotHeader bool
}

func (ch *Channel) beginReturn(code uint16, text, exchange, key string) {
	if ch.ret != nil {
		ch.log.Warn().Msg("return interrupted by another return")
		ch.finishReturn()
	}
	ch.ret = &pendingReturn{code: code, text: text, exchange: exchange, key: key}
}

// acceptContent consumes one header or body frame of an in-flight return.
// Content arriving with no return pending is dropped; deliveries cannot
// occur on a channel that never registers a consumer.
func (ch *Channel) acceptContent(f *wire.Frame) {
	if ch.ret == nil {
		ch.log.Warn().Uint8("frame", f.Type).Msg("content frame with no return pending")
		return
	}

	switch f.Type {
	case wire.FrameHeader:
		h, err := f.ParseHeader()
		if err != nil {
			ch.log.Warn().Err(err).Msg("malformed return header")
			ch.finishReturn()
			return
		}
		ch.ret.gotHeader = true
		ch.ret.remaining = h.BodySize
		if ch.ret.remaining == 0 {
			ch.finishReturn()
		}
	case wire.FrameBody:
		if !ch.ret.gotHeader {
			ch.log.Warn().Msg("return body before header")
			ch.finishReturn()
			return
		}
		if uint64(len(f.Payload)) >= ch.ret.remaining {
			ch.finishReturn()
			return
		}
		ch.ret.remaining -= uint64(len(f.Payload))
	}
}

func (ch *Channel) finishReturn() {
	r := ch.ret
	ch.ret = nil
	if r == nil {
		return
	}
	ch.metrics.MessageReturned()
	ch.log.Warn().
		Uint16("code", r.code).
		Str("reason", r.text).
		Str("exchange", r.exchange).
		Str("key", r.key).
		Msg("unroutable message returned and dropped")
}
