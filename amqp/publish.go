package amqp

import "github.com/israelio/amqp-go/internal/wire"

// Publishing is a message to publish: its content header properties plus
// the body.
type Publishing struct {
	Properties
	Body []byte
}

// Publish sends a message to an exchange with the given routing key. An
// empty exchange name addresses the broker's default exchange, which
// routes directly to the queue named by the key. Honored flags:
// Mandatory, Immediate.
//
// Publishing is fire and forget: the broker sends no reply, so a nil
// return only means the method, header and body frames were handed to
// the transport. A broker side rejection arrives as a channel error, and
// unroutable mandatory messages come back as a logged return.
func (ch *Channel) Publish(exchange, key string, flags Flag, msg Publishing) error {
	if ch.state != sessionConnected {
		return ErrChannelClosed
	}

	props, err := EncodeProperties(&msg.Properties)
	if err != nil {
		return err
	}
	args, err := wire.NewBuilder().
		Uint16(0).
		ShortStr(exchange).
		ShortStr(key).
		Bits(flags.Has(Mandatory), flags.Has(Immediate)).
		Build()
	if err != nil {
		return err
	}

	if err := ch.sendMethod(wire.ClassBasic, wire.BasicPublish, args); err != nil {
		return err
	}
	if _, err := ch.send(wire.NewHeader(wire.ClassBasic, uint64(len(msg.Body)), props)); err != nil {
		return err
	}
	for _, chunk := range splitBody(msg.Body, ch.conn.maxBody()) {
		if _, err := ch.send(wire.NewBody(chunk)); err != nil {
			return err
		}
	}

	ch.metrics.MessagePublished()
	return nil
}

// splitBody slices content into chunks no larger than the negotiated
// body frame capacity. An empty body yields no frames.
func splitBody(body []byte, max int) [][]byte {
	if len(body) == 0 {
		return nil
	}
	if max <= 0 {
		return [][]byte{body}
	}
	chunks := make([][]byte, 0, (len(body)+max-1)/max)
	for len(body) > max {
		chunks = append(chunks, body[:max])
		body = body[max:]
	}
	return append(chunks, body)
}
