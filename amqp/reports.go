package amqp

import "errors"

// Completion reports. The connection's read loop calls exactly one of
// these per decoded broker reply, in wire order, on its own goroutine.
// Each call forwards to the handler even when it repeats an earlier
// report; deduplication is the read loop's responsibility, not the
// session's. Only reportClosed and reportChannelError change state, and
// both force any transaction off before the handler runs.

func (ch *Channel) reportReady() {
	ch.metrics.ReportDelivered()
	ch.log.Debug().Msg("channel ready")
	if ch.handler != nil {
		ch.handler.OnReady(ch)
	}
}

func (ch *Channel) reportClosed() {
	ch.state = sessionClosed
	ch.tx = false
	ch.metrics.ReportDelivered()
	ch.metrics.ChannelClosed()
	ch.log.Debug().Msg("channel closed")
	if ch.handler != nil {
		ch.handler.OnClosed(ch)
	}
}

func (ch *Channel) reportChannelError(message string) {
	ch.state = sessionClosed
	ch.tx = false
	ch.metrics.ReportDelivered()
	ch.metrics.ChannelError(errors.New(message))
	ch.log.Warn().Str("reason", message).Msg("channel error")
	if ch.handler != nil {
		ch.handler.OnError(ch, message)
	}
}

func (ch *Channel) reportPaused() {
	ch.metrics.ReportDelivered()
	ch.log.Debug().Msg("channel paused")
	if ch.handler != nil {
		ch.handler.OnPaused(ch)
	}
}

func (ch *Channel) reportResumed() {
	ch.metrics.ReportDelivered()
	ch.log.Debug().Msg("channel resumed")
	if ch.handler != nil {
		ch.handler.OnResumed(ch)
	}
}

func (ch *Channel) reportExchangeDeclared() {
	ch.metrics.ReportDelivered()
	ch.log.Debug().Msg("exchange declared")
	if ch.handler != nil {
		ch.handler.OnExchangeDeclared(ch)
	}
}

func (ch *Channel) reportExchangeDeleted() {
	ch.metrics.ReportDelivered()
	ch.log.Debug().Msg("exchange deleted")
	if ch.handler != nil {
		ch.handler.OnExchangeDeleted(ch)
	}
}

func (ch *Channel) reportExchangeBound() {
	ch.metrics.ReportDelivered()
	ch.log.Debug().Msg("exchange bound")
	if ch.handler != nil {
		ch.handler.OnExchangeBound(ch)
	}
}

func (ch *Channel) reportExchangeUnbound() {
	ch.metrics.ReportDelivered()
	ch.log.Debug().Msg("exchange unbound")
	if ch.handler != nil {
		ch.handler.OnExchangeUnbound(ch)
	}
}

func (ch *Channel) reportQueueDeclared(name string, messages, consumers uint32) {
	ch.metrics.ReportDelivered()
	ch.log.Debug().
		Str("queue", name).
		Uint32("messages", messages).
		Uint32("consumers", consumers).
		Msg("queue declared")
	if ch.handler != nil {
		ch.handler.OnQueueDeclared(ch, name, messages, consumers)
	}
}

func (ch *Channel) reportQueueBound() {
	ch.metrics.ReportDelivered()
	ch.log.Debug().Msg("queue bound")
	if ch.handler != nil {
		ch.handler.OnQueueBound(ch)
	}
}

func (ch *Channel) reportQueueUnbound() {
	ch.metrics.ReportDelivered()
	ch.log.Debug().Msg("queue unbound")
	if ch.handler != nil {
		ch.handler.OnQueueUnbound(ch)
	}
}

func (ch *Channel) reportQueueDeleted(messages uint32) {
	ch.metrics.ReportDelivered()
	ch.log.Debug().Uint32("messages", messages).Msg("queue deleted")
	if ch.handler != nil {
		ch.handler.OnQueueDeleted(ch, messages)
	}
}

func (ch *Channel) reportQueuePurged(messages uint32) {
	ch.metrics.ReportDelivered()
	ch.log.Debug().Uint32("messages", messages).Msg("queue purged")
	if ch.handler != nil {
		ch.handler.OnQueuePurged(ch, messages)
	}
}
