package amqp

import (
	"github.com/rs/zerolog"

	"github.com/israelio/amqp-go/internal/wire"
)

type sessionState uint8

const (
	sessionConnected sessionState = iota
	sessionClosed
)

// transport is the slice of the owning connection a channel needs: stamp
// a frame with the channel id, put it on the wire and report the octets
// written, plus the largest content chunk one body frame may carry.
type transport interface {
	transmit(channel uint16, f *wire.Frame) (int, error)
	maxBody() int
}

// Channel is one multiplexed session on a connection. Operations are
// asynchronous: a nil return means the request was handed to the
// transport, not that the broker accepted it. Outcomes arrive later
// through the ChannelHandler as the read loop decodes broker replies.
//
// The protocol correlates replies by arrival order, so at most one
// request should be outstanding per channel; interleaving requests makes
// completion reports ambiguous. The usual shape is to issue the next
// request from the handler callback for the previous one.
//
// A Channel is not synchronized. All operations and state queries must
// run on one goroutine at a time, and the handler callbacks run on the
// connection's read loop goroutine. Once closed, whether by Close, by
// the broker or by connection failure, a channel never reconnects; open
// a new one instead.
type Channel struct {
	conn    transport
	id      uint16
	handler ChannelHandler
	log     zerolog.Logger
	metrics MetricsCollector

	state sessionState
	tx    bool

	ret *pendingReturn
}

func newChannel(conn transport, id uint16, handler ChannelHandler, log zerolog.Logger, metrics MetricsCollector) *Channel {
	if metrics == nil {
		metrics = NewNoOpMetricsCollector()
	}
	return &Channel{
		conn:    conn,
		id:      id,
		handler: handler,
		log:     log.With().Uint16("channel", id).Logger(),
		metrics: metrics,
		state:   sessionConnected,
	}
}

// ID returns the channel number this session occupies on the connection.
func (ch *Channel) ID() uint16 {
	return ch.id
}

// Connected reports whether the channel can still carry requests.
func (ch *Channel) Connected() bool {
	return ch.state == sessionConnected
}

// TransactionActive reports whether a transaction has been started and
// not yet committed or rolled back.
func (ch *Channel) TransactionActive() bool {
	return ch.tx
}

// SetHandler replaces the completion report receiver. A nil handler
// drops all reports.
func (ch *Channel) SetHandler(h ChannelHandler) {
	ch.handler = h
}

// send guards the transport: nothing reaches the wire once the channel
// has closed.
func (ch *Channel) send(f *wire.Frame) (int, error) {
	if ch.state != sessionConnected {
		return 0, ErrChannelClosed
	}
	n, err := ch.conn.transmit(ch.id, f)
	if err != nil {
		return n, err
	}
	ch.metrics.RequestSent()
	return n, nil
}

func (ch *Channel) sendMethod(class, method uint16, args []byte) error {
	_, err := ch.send(wire.NewMethod(class, method, args))
	return err
}

// Close requests an orderly shutdown of the channel. The channel stays
// connected until the broker's reply arrives and OnClosed fires; requests
// issued in between are still sent and the broker discards them.
func (ch *Channel) Close() error {
	args, err := wire.NewBuilder().
		Uint16(wire.ReplySuccess).
		ShortStr("channel closed").
		Uint16(0).
		Uint16(0).
		Build()
	if err != nil {
		return err
	}
	return ch.sendMethod(wire.ClassChannel, wire.ChannelClose, args)
}

// Pause asks the broker to stop scheduling deliveries on the channel.
// OnPaused fires when the broker confirms.
func (ch *Channel) Pause() error {
	return ch.flow(false)
}

// Resume asks the broker to restart deliveries after a Pause. OnResumed
// fires when the broker confirms.
func (ch *Channel) Resume() error {
	return ch.flow(true)
}

func (ch *Channel) flow(active bool) error {
	args, err := wire.NewBuilder().Bits(active).Build()
	if err != nil {
		return err
	}
	return ch.sendMethod(wire.ClassChannel, wire.ChannelFlow, args)
}
