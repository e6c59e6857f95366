package amqp

import "sync/atomic"

// MetricsCollector receives counters from connections and channels.
// Implementations must be safe for concurrent use.
type MetricsCollector interface {
	ConnectionOpened()
	ConnectionClosed()
	ConnectionError(err error)
	ChannelOpened()
	ChannelClosed()
	ChannelError(err error)
	// RequestSent counts method frames handed to the transport.
	RequestSent()
	// ReportDelivered counts completion reports decoded from broker replies.
	ReportDelivered()
	MessagePublished()
	// MessageReturned counts unroutable publishes the broker sent back.
	MessageReturned()
}

// StandardMetricsCollector keeps the counters in process.
type StandardMetricsCollector struct {
	connectionsOpened atomic.Int64
	connectionsClosed atomic.Int64
	connectionErrors  atomic.Int64
	channelsOpened    atomic.Int64
	channelsClosed    atomic.Int64
	channelErrors     atomic.Int64
	requestsSent      atomic.Int64
	reportsDelivered  atomic.Int64
	messagesPublished atomic.Int64
	messagesReturned  atomic.Int64
}

// NewStandardMetricsCollector returns a collector counting in memory.
func NewStandardMetricsCollector() *StandardMetricsCollector {
	return &StandardMetricsCollector{}
}

func (m *StandardMetricsCollector) ConnectionOpened()     { m.connectionsOpened.Add(1) }
func (m *StandardMetricsCollector) ConnectionClosed()     { m.connectionsClosed.Add(1) }
func (m *StandardMetricsCollector) ConnectionError(error) { m.connectionErrors.Add(1) }
func (m *StandardMetricsCollector) ChannelOpened()        { m.channelsOpened.Add(1) }
func (m *StandardMetricsCollector) ChannelClosed()        { m.channelsClosed.Add(1) }
func (m *StandardMetricsCollector) ChannelError(error)    { m.channelErrors.Add(1) }
func (m *StandardMetricsCollector) RequestSent()          { m.requestsSent.Add(1) }
func (m *StandardMetricsCollector) ReportDelivered()      { m.reportsDelivered.Add(1) }
func (m *StandardMetricsCollector) MessagePublished()     { m.messagesPublished.Add(1) }
func (m *StandardMetricsCollector) MessageReturned()      { m.messagesReturned.Add(1) }

func (m *StandardMetricsCollector) GetConnectionsOpened() int64 { return m.connectionsOpened.Load() }
func (m *StandardMetricsCollector) GetConnectionsClosed() int64 { return m.connectionsClosed.Load() }
func (m *StandardMetricsCollector) GetConnectionErrors() int64  { return m.connectionErrors.Load() }
func (m *StandardMetricsCollector) GetChannelsOpened() int64    { return m.channelsOpened.Load() }
func (m *StandardMetricsCollector) GetChannelsClosed() int64    { return m.channelsClosed.Load() }
func (m *StandardMetricsCollector) GetChannelErrors() int64     { return m.channelErrors.Load() }
func (m *StandardMetricsCollector) GetRequestsSent() int64      { return m.requestsSent.Load() }
func (m *StandardMetricsCollector) GetReportsDelivered() int64  { return m.reportsDelivered.Load() }
func (m *StandardMetricsCollector) GetMessagesPublished() int64 { return m.messagesPublished.Load() }
func (m *StandardMetricsCollector) GetMessagesReturned() int64  { return m.messagesReturned.Load() }

// NoOpMetricsCollector discards every observation.
type NoOpMetricsCollector struct{}

// NewNoOpMetricsCollector returns a collector that does nothing.
func NewNoOpMetricsCollector() *NoOpMetricsCollector {
	return &NoOpMetricsCollector{}
}

func (*NoOpMetricsCollector) ConnectionOpened()     {}
func (*NoOpMetricsCollector) ConnectionClosed()     {}
func (*NoOpMetricsCollector) ConnectionError(error) {}
func (*NoOpMetricsCollector) ChannelOpened()        {}
func (*NoOpMetricsCollector) ChannelClosed()        {}
func (*NoOpMetricsCollector) ChannelError(error)    {}
func (*NoOpMetricsCollector) RequestSent()          {}
func (*NoOpMetricsCollector) ReportDelivered()      {}
func (*NoOpMetricsCollector) MessagePublished()     {}
func (*NoOpMetricsCollector) MessageReturned()      {}
