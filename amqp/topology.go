package amqp

import "github.com/israelio/amqp-go/internal/wire"

// Exchange and queue administration. Every operation here returns once
// the request is on the wire; the broker's confirmation arrives through
// the matching handler report. Flag bits not defined for a method are
// ignored.

// DeclareExchange creates an exchange, or asserts it exists when Passive
// is set. Kind is one of the broker's exchange types, usually "direct",
// "fanout", "topic" or "headers". Honored flags: Passive, Durable,
// AutoDelete, Internal, NoWait. OnExchangeDeclared reports completion.
func (ch *Channel) DeclareExchange(name, kind string, flags Flag, args Table) error {
	if ch.state != sessionConnected {
		return ErrChannelClosed
	}
	if name == "" {
		return ErrExchangeNameRequired
	}
	body, err := wire.NewBuilder().
		Uint16(0).
		ShortStr(name).
		ShortStr(kind).
		Bits(flags.Has(Passive), flags.Has(Durable), flags.Has(AutoDelete), flags.Has(Internal), flags.Has(NoWait)).
		Table(args).
		Build()
	if err != nil {
		return err
	}
	return ch.sendMethod(wire.ClassExchange, wire.ExchangeDeclare, body)
}

// BindExchange routes messages from the source exchange to the target
// exchange when the routing key matches. Honored flags: NoWait.
// OnExchangeBound reports completion.
func (ch *Channel) BindExchange(source, target, key string, flags Flag, args Table) error {
	if ch.state != sessionConnected {
		return ErrChannelClosed
	}
	if source == "" || target == "" {
		return ErrExchangeNameRequired
	}
	body, err := wire.NewBuilder().
		Uint16(0).
		ShortStr(target).
		ShortStr(source).
		ShortStr(key).
		Bits(flags.Has(NoWait)).
		Table(args).
		Build()
	if err != nil {
		return err
	}
	return ch.sendMethod(wire.ClassExchange, wire.ExchangeBind, body)
}

// UnbindExchange removes an exchange to exchange binding. Honored flags:
// NoWait. OnExchangeUnbound reports completion.
func (ch *Channel) UnbindExchange(source, target, key string, flags Flag, args Table) error {
	if ch.state != sessionConnected {
		return ErrChannelClosed
	}
	if source == "" || target == "" {
		return ErrExchangeNameRequired
	}
	body, err := wire.NewBuilder().
		Uint16(0).
		ShortStr(target).
		ShortStr(source).
		ShortStr(key).
		Bits(flags.Has(NoWait)).
		Table(args).
		Build()
	if err != nil {
		return err
	}
	return ch.sendMethod(wire.ClassExchange, wire.ExchangeUnbind, body)
}

// RemoveExchange deletes an exchange. Honored flags: IfUnused, NoWait.
// OnExchangeDeleted reports completion.
func (ch *Channel) RemoveExchange(name string, flags Flag) error {
	if ch.state != sessionConnected {
		return ErrChannelClosed
	}
	if name == "" {
		return ErrExchangeNameRequired
	}
	body, err := wire.NewBuilder().
		Uint16(0).
		ShortStr(name).
		Bits(flags.Has(IfUnused), flags.Has(NoWait)).
		Build()
	if err != nil {
		return err
	}
	return ch.sendMethod(wire.ClassExchange, wire.ExchangeDelete, body)
}

// DeclareQueue creates a queue, or asserts it exists when Passive is set.
// An empty name asks the broker to generate one; the generated name
// arrives in OnQueueDeclared. Honored flags: Passive, Durable, Exclusive,
// AutoDelete, NoWait.
func (ch *Channel) DeclareQueue(name string, flags Flag, args Table) error {
	if ch.state != sessionConnected {
		return ErrChannelClosed
	}
	body, err := wire.NewBuilder().
		Uint16(0).
		ShortStr(name).
		Bits(flags.Has(Passive), flags.Has(Durable), flags.Has(Exclusive), flags.Has(AutoDelete), flags.Has(NoWait)).
		Table(args).
		Build()
	if err != nil {
		return err
	}
	return ch.sendMethod(wire.ClassQueue, wire.QueueDeclare, body)
}

// BindQueue routes messages from the exchange to the queue when the
// routing key matches. An empty queue name means the most recently
// declared queue on this channel. Honored flags: NoWait. OnQueueBound
// reports completion.
func (ch *Channel) BindQueue(exchange, queue, key string, flags Flag, args Table) error {
	if ch.state != sessionConnected {
		return ErrChannelClosed
	}
	if exchange == "" {
		return ErrExchangeNameRequired
	}
	body, err := wire.NewBuilder().
		Uint16(0).
		ShortStr(queue).
		ShortStr(exchange).
		ShortStr(key).
		Bits(flags.Has(NoWait)).
		Table(args).
		Build()
	if err != nil {
		return err
	}
	return ch.sendMethod(wire.ClassQueue, wire.QueueBind, body)
}

// UnbindQueue removes a queue binding. The wire method defines no option
// bits, so there is no flags parameter. OnQueueUnbound reports completion.
func (ch *Channel) UnbindQueue(exchange, queue, key string, args Table) error {
	if ch.state != sessionConnected {
		return ErrChannelClosed
	}
	if exchange == "" {
		return ErrExchangeNameRequired
	}
	body, err := wire.NewBuilder().
		Uint16(0).
		ShortStr(queue).
		ShortStr(exchange).
		ShortStr(key).
		Table(args).
		Build()
	if err != nil {
		return err
	}
	return ch.sendMethod(wire.ClassQueue, wire.QueueUnbind, body)
}

// PurgeQueue drops the messages a queue holds. Honored flags: NoWait.
// OnQueuePurged reports the number removed.
func (ch *Channel) PurgeQueue(name string, flags Flag) error {
	if ch.state != sessionConnected {
		return ErrChannelClosed
	}
	body, err := wire.NewBuilder().
		Uint16(0).
		ShortStr(name).
		Bits(flags.Has(NoWait)).
		Build()
	if err != nil {
		return err
	}
	return ch.sendMethod(wire.ClassQueue, wire.QueuePurge, body)
}

// RemoveQueue deletes a queue. Honored flags: IfUnused, IfEmpty, NoWait.
// OnQueueDeleted reports the number of messages deleted with it.
func (ch *Channel) RemoveQueue(name string, flags Flag) error {
	if ch.state != sessionConnected {
		return ErrChannelClosed
	}
	body, err := wire.NewBuilder().
		Uint16(0).
		ShortStr(name).
		Bits(flags.Has(IfUnused), flags.Has(IfEmpty), flags.Has(NoWait)).
		Build()
	if err != nil {
		return err
	}
	return ch.sendMethod(wire.ClassQueue, wire.QueueDelete, body)
}
