// Package amqp is a client for the AMQP 0-9-1 protocol as spoken by
// RabbitMQ. A Connection multiplexes numbered channels over one TCP or
// TLS socket, and a Channel carries the work itself: exchange and queue
// administration, publishing, transactions, pausing and resuming
// delivery flow.
//
// The client is asynchronous. A channel operation returns once its
// request frame has been handed to the transport; the broker's answer
// arrives later as a completion report on the channel's ChannelHandler,
// invoked from the connection's read loop in the order the replies
// arrive on the wire. OnError and OnClosed end a session, after which
// every operation on it fails with ErrChannelClosed.
//
// Reports for one channel are serial and follow wire order, but the
// protocol correlates them with requests only by position. Keep at most
// one request outstanding per channel, usually by issuing the next
// request from the previous report's callback. See Channel for the
// goroutine confinement contract.
//
// Connections come from a ConnectionFactory configured through
// functional options. ParseURI and Config cover amqp:// URIs and file
// or environment based setup.
package amqp
