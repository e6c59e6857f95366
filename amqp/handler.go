package amqp

// ChannelHandler receives the asynchronous completion reports of a
// channel. The connection's read loop invokes exactly one method per
// broker reply, in wire order, always from the same goroutine. A handler
// that blocks stalls every channel on the connection.
//
// Embed NopChannelHandler to implement a subset, or use ChannelCallbacks
// to wire plain functions.
type ChannelHandler interface {
	// OnReady fires once the broker has confirmed the channel open.
	OnReady(ch *Channel)
	// OnClosed fires when an orderly close completes. The channel is
	// already in the closed state when the handler runs.
	OnClosed(ch *Channel)
	// OnError fires when the broker terminates the channel or the
	// connection fails underneath it. The message is the broker's
	// diagnostic text. The channel is already closed when it runs.
	OnError(ch *Channel, message string)
	// OnPaused fires when the broker confirms a flow stop.
	OnPaused(ch *Channel)
	// OnResumed fires when the broker confirms a flow restart.
	OnResumed(ch *Channel)

	OnExchangeDeclared(ch *Channel)
	OnExchangeDeleted(ch *Channel)
	OnExchangeBound(ch *Channel)
	OnExchangeUnbound(ch *Channel)

	// OnQueueDeclared carries the queue name the broker settled on,
	// which matters for server named queues declared with an empty
	// name, plus its current depth and consumer count.
	OnQueueDeclared(ch *Channel, name string, messages, consumers uint32)
	OnQueueBound(ch *Channel)
	OnQueueUnbound(ch *Channel)
	// OnQueueDeleted carries the number of messages deleted with the queue.
	OnQueueDeleted(ch *Channel, messages uint32)
	// OnQueuePurged carries the number of messages purged.
	OnQueuePurged(ch *Channel, messages uint32)
}

// NopChannelHandler implements every ChannelHandler method as a no-op.
type NopChannelHandler struct{}

func (NopChannelHandler) OnReady(*Channel)                               {}
func (NopChannelHandler) OnClosed(*Channel)                              {}
func (NopChannelHandler) OnError(*Channel, string)                       {}
func (NopChannelHandler) OnPaused(*Channel)                              {}
func (NopChannelHandler) OnResumed(*Channel)                             {}
func (NopChannelHandler) OnExchangeDeclared(*Channel)                    {}
func (NopChannelHandler) OnExchangeDeleted(*Channel)                     {}
func (NopChannelHandler) OnExchangeBound(*Channel)                       {}
func (NopChannelHandler) OnExchangeUnbound(*Channel)                     {}
func (NopChannelHandler) OnQueueDeclared(*Channel, string, uint32, uint32) {}
func (NopChannelHandler) OnQueueBound(*Channel)                          {}
func (NopChannelHandler) OnQueueUnbound(*Channel)                        {}
func (NopChannelHandler) OnQueueDeleted(*Channel, uint32)                {}
func (NopChannelHandler) OnQueuePurged(*Channel, uint32)                 {}

// ChannelCallbacks adapts plain functions to ChannelHandler. Nil fields
// are skipped.
type ChannelCallbacks struct {
	Ready            func(ch *Channel)
	Closed           func(ch *Channel)
	Error            func(ch *Channel, message string)
	Paused           func(ch *Channel)
	Resumed          func(ch *Channel)
	ExchangeDeclared func(ch *Channel)
	ExchangeDeleted  func(ch *Channel)
	ExchangeBound    func(ch *Channel)
	ExchangeUnbound  func(ch *Channel)
	QueueDeclared    func(ch *Channel, name string, messages, consumers uint32)
	QueueBound       func(ch *Channel)
	QueueUnbound     func(ch *Channel)
	QueueDeleted     func(ch *Channel, messages uint32)
	QueuePurged      func(ch *Channel, messages uint32)
}

func (c *ChannelCallbacks) OnReady(ch *Channel) {
	if c.Ready != nil {
		c.Ready(ch)
	}
}

func (c *ChannelCallbacks) OnClosed(ch *Channel) {
	if c.Closed != nil {
		c.Closed(ch)
	}
}

func (c *ChannelCallbacks) OnError(ch *Channel, message string) {
	if c.Error != nil {
		c.Error(ch, message)
	}
}

func (c *ChannelCallbacks) OnPaused(ch *Channel) {
	if c.Paused != nil {
		c.Paused(ch)
	}
}

func (c *ChannelCallbacks) OnResumed(ch *Channel) {
	if c.Resumed != nil {
		c.Resumed(ch)
	}
}

func (c *ChannelCallbacks) OnExchangeDeclared(ch *Channel) {
	if c.ExchangeDeclared != nil {
		c.ExchangeDeclared(ch)
	}
}

func (c *ChannelCallbacks) OnExchangeDeleted(ch *Channel) {
	if c.ExchangeDeleted != nil {
		c.ExchangeDeleted(ch)
	}
}

func (c *ChannelCallbacks) OnExchangeBound(ch *Channel) {
	if c.ExchangeBound != nil {
		c.ExchangeBound(ch)
	}
}

func (c *ChannelCallbacks) OnExchangeUnbound(ch *Channel) {
	if c.ExchangeUnbound != nil {
		c.ExchangeUnbound(ch)
	}
}

func (c *ChannelCallbacks) OnQueueDeclared(ch *Channel, name string, messages, consumers uint32) {
	if c.QueueDeclared != nil {
		c.QueueDeclared(ch, name, messages, consumers)
	}
}

func (c *ChannelCallbacks) OnQueueBound(ch *Channel) {
	if c.QueueBound != nil {
		c.QueueBound(ch)
	}
}

func (c *ChannelCallbacks) OnQueueUnbound(ch *Channel) {
	if c.QueueUnbound != nil {
		c.QueueUnbound(ch)
	}
}

func (c *ChannelCallbacks) OnQueueDeleted(ch *Channel, messages uint32) {
	if c.QueueDeleted != nil {
		c.QueueDeleted(ch, messages)
	}
}

func (c *ChannelCallbacks) OnQueuePurged(ch *Channel, messages uint32) {
	if c.QueuePurged != nil {
		c.QueuePurged(ch, messages)
	}
}
