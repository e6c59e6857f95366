package amqp

import (
	"testing"

	"github.com/stretchr/testify/require"
)

var (
	_ ChannelHandler = NopChannelHandler{}
	_ ChannelHandler = (*ChannelCallbacks)(nil)
	_ ChannelHandler = (*recorder)(nil)
)

func invokeAll(h ChannelHandler, ch *Channel) {
	h.OnReady(ch)
	h.OnClosed(ch)
	h.OnError(ch, "NOT_FOUND - no exchange 'x'")
	h.OnPaused(ch)
	h.OnResumed(ch)
	h.OnExchangeDeclared(ch)
	h.OnExchangeDeleted(ch)
	h.OnExchangeBound(ch)
	h.OnExchangeUnbound(ch)
	h.OnQueueDeclared(ch, "q", 1, 2)
	h.OnQueueBound(ch)
	h.OnQueueUnbound(ch)
	h.OnQueueDeleted(ch, 3)
	h.OnQueuePurged(ch, 4)
}

func TestNopChannelHandler(t *testing.T) {
	ch, _ := newTestChannel(1, nil)
	invokeAll(NopChannelHandler{}, ch)
}

func TestChannelCallbacksZeroValue(t *testing.T) {
	ch, _ := newTestChannel(1, nil)
	invokeAll(&ChannelCallbacks{}, ch)
}

func TestChannelCallbacksDispatch(t *testing.T) {
	ch, _ := newTestChannel(1, nil)

	var got []string
	note := func(event string) func(*Channel) {
		return func(c *Channel) {
			require.Same(t, ch, c)
			got = append(got, event)
		}
	}

	cb := &ChannelCallbacks{
		Ready:            note("ready"),
		Closed:           note("closed"),
		Paused:           note("paused"),
		Resumed:          note("resumed"),
		ExchangeDeclared: note("exchange-declared"),
		ExchangeDeleted:  note("exchange-deleted"),
		ExchangeBound:    note("exchange-bound"),
		ExchangeUnbound:  note("exchange-unbound"),
		QueueBound:       note("queue-bound"),
		QueueUnbound:     note("queue-unbound"),
		Error: func(c *Channel, message string) {
			got = append(got, "error:"+message)
		},
		QueueDeclared: func(c *Channel, name string, messages, consumers uint32) {
			require.Equal(t, "q", name)
			require.Equal(t, uint32(1), messages)
			require.Equal(t, uint32(2), consumers)
			got = append(got, "queue-declared")
		},
		QueueDeleted: func(c *Channel, messages uint32) {
			require.Equal(t, uint32(3), messages)
			got = append(got, "queue-deleted")
		},
		QueuePurged: func(c *Channel, messages uint32) {
			require.Equal(t, uint32(4), messages)
			got = append(got, "queue-purged")
		},
	}

	invokeAll(cb, ch)

	require.Equal(t, []string{
		"ready", "closed", "error:NOT_FOUND - no exchange 'x'",
		"paused", "resumed",
		"exchange-declared", "exchange-deleted", "exchange-bound", "exchange-unbound",
		"queue-declared", "queue-bound", "queue-unbound", "queue-deleted", "queue-purged",
	}, got)
}

func TestChannelCallbacksPartial(t *testing.T) {
	ch, _ := newTestChannel(1, nil)

	var ready int
	cb := &ChannelCallbacks{Ready: func(*Channel) { ready++ }}
	invokeAll(cb, ch)

	require.Equal(t, 1, ready)
}
