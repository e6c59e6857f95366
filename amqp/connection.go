package amqp

import (
	"context"
	"fmt"
	"net"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/israelio/amqp-go/internal/util"
	"github.com/israelio/amqp-go/internal/wire"
)

// ConnectionState tracks the connection lifecycle.
type ConnectionState int32

const (
	StateConnecting ConnectionState = iota
	StateOpen
	StateClosing
	StateClosed
)

func (s ConnectionState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("unknown(%d)", int32(s))
	}
}

// ServerInfo is the broker identification announced during the handshake.
type ServerInfo struct {
	Product     string `mapstructure:"product"`
	Version     string `mapstructure:"version"`
	Platform    string `mapstructure:"platform"`
	ClusterName string `mapstructure:"cluster_name"`
}

// closeTimeout caps how long Close waits for the broker's close-ok.
const closeTimeout = 5 * time.Second

// newChannelIDs covers the usable channel id range; zero is reserved for
// connection traffic.
func newChannelIDs(channelMax uint16) *util.IntAllocator {
	return util.NewIntAllocator(1, int(channelMax))
}

// Connection is one AMQP connection multiplexing channels over a single
// socket. A read loop decodes broker frames and drives each channel's
// completion reports; writes from any goroutine are serialized onto the
// socket. Unlike Channel, a Connection is safe for concurrent use.
type Connection struct {
	factory *ConnectionFactory
	conn    net.Conn
	reader  *wire.Reader
	writer  *wire.Writer
	writeMu sync.Mutex

	id      string
	log     zerolog.Logger
	metrics MetricsCollector

	channelMax  uint16
	frameMax    uint32
	heartbeat   time.Duration
	server      ServerInfo
	serverProps Table

	mu       sync.Mutex
	channels map[uint16]*Channel
	ids      *util.IntAllocator

	state       atomic.Int32
	closeOk     chan struct{}
	closeOkOnce sync.Once

	group      *errgroup.Group
	cancel     context.CancelFunc
	finishOnce sync.Once
	done       chan struct{}
	errMu      sync.Mutex
	err        error
}

// State returns the connection lifecycle state.
func (c *Connection) State() ConnectionState {
	return ConnectionState(c.state.Load())
}

// ID returns the identifier this connection carries in its log events.
func (c *Connection) ID() string {
	return c.id
}

// ChannelMax returns the negotiated channel id limit.
func (c *Connection) ChannelMax() uint16 {
	return c.channelMax
}

// FrameMax returns the negotiated frame size limit in octets.
func (c *Connection) FrameMax() uint32 {
	return c.frameMax
}

// Heartbeat returns the negotiated heartbeat interval, zero when disabled.
func (c *Connection) Heartbeat() time.Duration {
	return c.heartbeat
}

// Server returns the broker identification decoded from the handshake.
func (c *Connection) Server() ServerInfo {
	return c.server
}

// ServerProperties returns the raw server property table from the handshake.
func (c *Connection) ServerProperties() Table {
	return c.serverProps
}

// Done is closed once the connection has fully shut down and every
// channel has received its final report.
func (c *Connection) Done() <-chan struct{} {
	return c.done
}

// Err returns the failure that ended the connection, or nil after an
// orderly close. Valid once Done is closed.
func (c *Connection) Err() error {
	c.errMu.Lock()
	defer c.errMu.Unlock()
	return c.err
}

// Channel opens a new channel with the given report handler, which may be
// nil to discard reports. The channel accepts requests immediately;
// OnReady fires once the broker confirms the open.
func (c *Connection) Channel(handler ChannelHandler) (*Channel, error) {
	if c.State() != StateOpen {
		return nil, ErrConnectionClosed
	}

	c.mu.Lock()
	id, ok := c.ids.Allocate()
	if !ok {
		c.mu.Unlock()
		return nil, ErrMaxChannels
	}
	ch := newChannel(c, uint16(id), handler, c.log, c.metrics)
	c.channels[ch.id] = ch
	c.mu.Unlock()

	args, err := wire.NewBuilder().ShortStr("").Build()
	if err == nil {
		err = ch.sendMethod(wire.ClassChannel, wire.ChannelOpen, args)
	}
	if err != nil {
		c.forget(ch)
		return nil, err
	}

	c.metrics.ChannelOpened()
	c.log.Debug().Uint16("channel", ch.id).Msg("channel opened")
	return ch, nil
}

// Close shuts the connection down in order: the close handshake runs,
// the loops stop and every remaining channel receives a final report.
// Returns ErrConnectionClosed when the connection is already down.
func (c *Connection) Close() error {
	if !c.state.CompareAndSwap(int32(StateOpen), int32(StateClosing)) {
		return ErrConnectionClosed
	}
	c.log.Debug().Msg("closing connection")

	args, err := wire.NewBuilder().
		Uint16(wire.ReplySuccess).
		ShortStr("connection closed").
		Uint16(0).
		Uint16(0).
		Build()
	if err == nil {
		err = c.writeRaw(0, wire.NewMethod(wire.ClassConnection, wire.ConnectionClose, args))
	}
	if err == nil {
		select {
		case <-c.closeOk:
		case <-c.done:
		case <-time.After(closeTimeout):
			c.log.Warn().Msg("timed out waiting for close-ok")
		}
	}

	c.cancel()
	if werr := c.group.Wait(); werr != nil && err == nil {
		err = werr
	}
	c.finish(nil)
	return err
}

// transmit stamps a frame with its channel id and writes it, returning
// the octets put on the wire. It refuses once the connection has left
// the open state.
func (c *Connection) transmit(channel uint16, f *wire.Frame) (int, error) {
	if c.State() != StateOpen {
		return 0, ErrConnectionClosed
	}
	f.Channel = channel
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.writer.WriteFrame(f)
}

// maxBody is the largest content chunk one body frame may carry under
// the negotiated frame size.
func (c *Connection) maxBody() int {
	return int(c.frameMax) - wire.FrameHeaderSize - wire.FrameEndSize
}

// writeRaw writes regardless of lifecycle state. The handshake, protocol
// replies from the read loop and the closing sequence use it.
func (c *Connection) writeRaw(channel uint16, f *wire.Frame) error {
	f.Channel = channel
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_, err := c.writer.WriteFrame(f)
	return err
}

func (c *Connection) channel(id uint16) *Channel {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.channels[id]
}

// forget drops a channel from the registry and recycles its id.
func (c *Connection) forget(ch *Channel) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.channels[ch.id] == ch {
		delete(c.channels, ch.id)
		c.ids.Free(int(ch.id))
	}
}

// start launches the read and heartbeat loops plus a watchdog that kicks
// the blocked reader awake when the group shuts down.
func (c *Connection) start() {
	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel

	g, gctx := errgroup.WithContext(ctx)
	c.group = g
	g.Go(func() error { return c.readLoop(gctx) })
	g.Go(func() error { return c.heartbeatLoop(gctx) })

	go func() {
		<-gctx.Done()
		c.conn.SetReadDeadline(time.Now())
	}()
	go c.supervise()
}

func (c *Connection) supervise() {
	err := c.group.Wait()
	c.cancel()
	c.finish(err)
}

// readLoop is the single frame consumer. Every channel report is invoked
// from here, which is what gives reports their in order, one at a time
// delivery.
func (c *Connection) readLoop(ctx context.Context) error {
	for {
		if c.heartbeat > 0 {
			c.conn.SetReadDeadline(time.Now().Add(2 * c.heartbeat))
		}
		f, err := c.reader.ReadFrame()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
			}
			if c.State() == StateClosing {
				return nil
			}
			if ne, ok := err.(net.Error); ok && ne.Timeout() && c.heartbeat > 0 {
				return NewError(int(wire.ReplyConnectionForced), "heartbeat timeout", false)
			}
			return fmt.Errorf("read frame: %w", err)
		}
		if err := c.route(f); err != nil {
			return err
		}
	}
}

func (c *Connection) heartbeatLoop(ctx context.Context) error {
	if c.heartbeat <= 0 {
		<-ctx.Done()
		return nil
	}

	ticker := time.NewTicker(c.heartbeat / 2)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := c.writeRaw(0, wire.NewHeartbeat()); err != nil {
				if c.State() == StateClosing {
					return nil
				}
				return fmt.Errorf("send heartbeat: %w", err)
			}
			c.log.Trace().Msg("heartbeat sent")
		}
	}
}

// route hands one inbound frame to its handler. A non-nil error takes
// the connection down.
func (c *Connection) route(f *wire.Frame) error {
	switch f.Type {
	case wire.FrameHeartbeat:
		c.log.Trace().Msg("heartbeat received")
		return nil

	case wire.FrameMethod:
		m, err := f.ParseMethod()
		if err != nil {
			return err
		}
		if f.Channel == 0 {
			return c.connectionMethod(m)
		}
		return c.channelMethod(f.Channel, m)

	case wire.FrameHeader, wire.FrameBody:
		if ch := c.channel(f.Channel); ch != nil {
			ch.acceptContent(f)
		} else {
			c.log.Warn().Uint16("channel", f.Channel).Msg("content frame for unknown channel")
		}
		return nil

	default:
		return NewError(int(wire.ReplyUnexpectedFrame), fmt.Sprintf("unexpected frame type %d", f.Type), false)
	}
}

func (c *Connection) connectionMethod(m *wire.Method) error {
	if m.ClassID != wire.ClassConnection {
		c.log.Warn().Uint16("class", m.ClassID).Uint16("method", m.MethodID).Msg("unexpected method on channel 0")
		return nil
	}

	switch m.MethodID {
	case wire.ConnectionClose:
		fields := wire.NewFields(m.Args)
		code, err := fields.Uint16()
		if err != nil {
			return fmt.Errorf("parse connection.close: %w", err)
		}
		text, err := fields.ShortStr()
		if err != nil {
			return fmt.Errorf("parse connection.close: %w", err)
		}
		if err := c.writeRaw(0, wire.NewMethod(wire.ClassConnection, wire.ConnectionCloseOk, nil)); err != nil {
			c.log.Debug().Err(err).Msg("could not acknowledge connection.close")
		}
		return NewError(int(code), text, true)

	case wire.ConnectionCloseOk:
		c.closeOkOnce.Do(func() { close(c.closeOk) })
		return nil

	case wire.ConnectionBlocked:
		reason, _ := wire.NewFields(m.Args).ShortStr()
		c.log.Warn().Str("reason", reason).Msg("connection blocked by broker")
		return nil

	case wire.ConnectionUnblocked:
		c.log.Info().Msg("connection unblocked by broker")
		return nil

	default:
		c.log.Warn().Uint16("method", m.MethodID).Msg("unhandled connection method")
		return nil
	}
}

// channelMethod decodes a channel scoped method and invokes the matching
// completion report.
func (c *Connection) channelMethod(id uint16, m *wire.Method) error {
	ch := c.channel(id)
	if ch == nil {
		c.log.Warn().
			Uint16("channel", id).
			Uint16("class", m.ClassID).
			Uint16("method", m.MethodID).
			Msg("method for unknown channel")
		return nil
	}

	switch m.ClassID {
	case wire.ClassChannel:
		return c.channelClassMethod(ch, m)

	case wire.ClassExchange:
		switch m.MethodID {
		case wire.ExchangeDeclareOk:
			ch.reportExchangeDeclared()
		case wire.ExchangeDeleteOk:
			ch.reportExchangeDeleted()
		case wire.ExchangeBindOk:
			ch.reportExchangeBound()
		case wire.ExchangeUnbindOk:
			ch.reportExchangeUnbound()
		default:
			c.logUnhandled(ch, m)
		}
		return nil

	case wire.ClassQueue:
		return c.queueMethod(ch, m)

	case wire.ClassBasic:
		if m.MethodID == wire.BasicReturn {
			fields := wire.NewFields(m.Args)
			code, err := fields.Uint16()
			if err != nil {
				return fmt.Errorf("parse basic.return: %w", err)
			}
			text, err := fields.ShortStr()
			if err != nil {
				return fmt.Errorf("parse basic.return: %w", err)
			}
			exchange, err := fields.ShortStr()
			if err != nil {
				return fmt.Errorf("parse basic.return: %w", err)
			}
			key, err := fields.ShortStr()
			if err != nil {
				return fmt.Errorf("parse basic.return: %w", err)
			}
			ch.beginReturn(code, text, exchange, key)
			return nil
		}
		c.logUnhandled(ch, m)
		return nil

	case wire.ClassTx:
		switch m.MethodID {
		case wire.TxSelectOk:
			ch.log.Debug().Msg("transaction selected")
		case wire.TxCommitOk:
			ch.log.Debug().Msg("transaction commit acknowledged")
		case wire.TxRollbackOk:
			ch.log.Debug().Msg("transaction rollback acknowledged")
		default:
			c.logUnhandled(ch, m)
		}
		return nil

	default:
		c.logUnhandled(ch, m)
		return nil
	}
}

func (c *Connection) channelClassMethod(ch *Channel, m *wire.Method) error {
	switch m.MethodID {
	case wire.ChannelOpenOk:
		ch.reportReady()

	case wire.ChannelFlowOk:
		active, err := wire.NewFields(m.Args).Bool()
		if err != nil {
			return fmt.Errorf("parse channel.flow-ok: %w", err)
		}
		if active {
			ch.reportResumed()
		} else {
			ch.reportPaused()
		}

	case wire.ChannelFlow:
		active, err := wire.NewFields(m.Args).Bool()
		if err != nil {
			return fmt.Errorf("parse channel.flow: %w", err)
		}
		reply, err := wire.NewBuilder().Bits(active).Build()
		if err != nil {
			return err
		}
		if err := c.writeRaw(ch.id, wire.NewMethod(wire.ClassChannel, wire.ChannelFlowOk, reply)); err != nil {
			c.log.Debug().Err(err).Msg("could not acknowledge channel.flow")
		}
		if active {
			ch.reportResumed()
		} else {
			ch.reportPaused()
		}

	case wire.ChannelClose:
		fields := wire.NewFields(m.Args)
		code, err := fields.Uint16()
		if err != nil {
			return fmt.Errorf("parse channel.close: %w", err)
		}
		text, err := fields.ShortStr()
		if err != nil {
			return fmt.Errorf("parse channel.close: %w", err)
		}
		if err := c.writeRaw(ch.id, wire.NewMethod(wire.ClassChannel, wire.ChannelCloseOk, nil)); err != nil {
			c.log.Debug().Err(err).Msg("could not acknowledge channel.close")
		}
		c.log.Debug().Uint16("channel", ch.id).Uint16("code", code).Str("reason", text).Msg("broker closed channel")
		c.forget(ch)
		ch.reportChannelError(text)

	case wire.ChannelCloseOk:
		c.forget(ch)
		ch.reportClosed()

	default:
		c.logUnhandled(ch, m)
	}
	return nil
}

func (c *Connection) queueMethod(ch *Channel, m *wire.Method) error {
	switch m.MethodID {
	case wire.QueueDeclareOk:
		fields := wire.NewFields(m.Args)
		name, err := fields.ShortStr()
		if err != nil {
			return fmt.Errorf("parse queue.declare-ok: %w", err)
		}
		messages, err := fields.Uint32()
		if err != nil {
			return fmt.Errorf("parse queue.declare-ok: %w", err)
		}
		consumers, err := fields.Uint32()
		if err != nil {
			return fmt.Errorf("parse queue.declare-ok: %w", err)
		}
		ch.reportQueueDeclared(name, messages, consumers)

	case wire.QueueBindOk:
		ch.reportQueueBound()

	case wire.QueueUnbindOk:
		ch.reportQueueUnbound()

	case wire.QueuePurgeOk:
		messages, err := wire.NewFields(m.Args).Uint32()
		if err != nil {
			return fmt.Errorf("parse queue.purge-ok: %w", err)
		}
		ch.reportQueuePurged(messages)

	case wire.QueueDeleteOk:
		messages, err := wire.NewFields(m.Args).Uint32()
		if err != nil {
			return fmt.Errorf("parse queue.delete-ok: %w", err)
		}
		ch.reportQueueDeleted(messages)

	default:
		c.logUnhandled(ch, m)
	}
	return nil
}

func (c *Connection) logUnhandled(ch *Channel, m *wire.Method) {
	c.log.Warn().
		Uint16("channel", ch.id).
		Uint16("class", m.ClassID).
		Uint16("method", m.MethodID).
		Msg("unhandled method")
}

// finish is the single teardown path. It runs at most once, strictly
// after both loops have exited, so the final channel reports keep the
// serial delivery the read loop guarantees.
func (c *Connection) finish(cause error) {
	c.finishOnce.Do(func() {
		c.state.Store(int32(StateClosed))
		c.conn.Close()

		c.mu.Lock()
		channels := make([]*Channel, 0, len(c.channels))
		for _, ch := range c.channels {
			channels = append(channels, ch)
		}
		c.channels = make(map[uint16]*Channel)
		c.mu.Unlock()

		reason := "connection closed"
		if e, ok := cause.(*Error); ok {
			reason = e.Reason
		} else if cause != nil {
			reason = "connection closed: " + cause.Error()
		}
		for _, ch := range channels {
			if ch.Connected() {
				ch.reportChannelError(reason)
			}
		}

		if cause != nil {
			c.errMu.Lock()
			c.err = cause
			c.errMu.Unlock()
			c.metrics.ConnectionError(cause)
			c.log.Error().Err(cause).Msg("connection failed")
		} else {
			c.log.Info().Msg("connection closed")
		}
		c.metrics.ConnectionClosed()
		close(c.done)
	})
}

// handshake drives the client side of the connection negotiation, from
// protocol header through open-ok. The socket deadline covers the whole
// exchange.
func (c *Connection) handshake() error {
	if t := c.factory.HandshakeTimeout; t > 0 {
		c.conn.SetDeadline(time.Now().Add(t))
		defer c.conn.SetDeadline(time.Time{})
	}

	if err := c.writer.WriteProtocolHeader(); err != nil {
		return err
	}

	start, err := c.expectMethod(wire.ConnectionStart)
	if err != nil {
		return err
	}
	if err := c.handleStart(start); err != nil {
		return err
	}

	tune, err := c.expectMethod(wire.ConnectionTune)
	if err != nil {
		return err
	}
	if err := c.handleTune(tune); err != nil {
		return err
	}

	openArgs, err := wire.NewBuilder().
		ShortStr(c.factory.VHost).
		ShortStr("").
		Bits(false).
		Build()
	if err != nil {
		return err
	}
	if err := c.writeRaw(0, wire.NewMethod(wire.ClassConnection, wire.ConnectionOpen, openArgs)); err != nil {
		return err
	}
	if _, err := c.expectMethod(wire.ConnectionOpenOk); err != nil {
		return err
	}
	return nil
}

// expectMethod reads one frame and requires it to be the given connection
// class method. A connection.close in its place is surfaced as the
// broker's refusal, which is how authentication and vhost failures show
// up during the handshake.
func (c *Connection) expectMethod(method uint16) (*wire.Method, error) {
	f, err := c.reader.ReadFrame()
	if err != nil {
		return nil, fmt.Errorf("read frame: %w", err)
	}
	m, err := f.ParseMethod()
	if err != nil {
		return nil, err
	}
	if m.ClassID == wire.ClassConnection && m.MethodID == wire.ConnectionClose {
		fields := wire.NewFields(m.Args)
		code, _ := fields.Uint16()
		text, _ := fields.ShortStr()
		c.writeRaw(0, wire.NewMethod(wire.ClassConnection, wire.ConnectionCloseOk, nil))
		return nil, NewError(int(code), text, true)
	}
	if m.ClassID != wire.ClassConnection || m.MethodID != method {
		return nil, fmt.Errorf("expected connection method %d, got class %d method %d", method, m.ClassID, m.MethodID)
	}
	return m, nil
}

func (c *Connection) handleStart(m *wire.Method) error {
	fields := wire.NewFields(m.Args)
	major, err := fields.Uint8()
	if err != nil {
		return fmt.Errorf("parse connection.start: %w", err)
	}
	minor, err := fields.Uint8()
	if err != nil {
		return fmt.Errorf("parse connection.start: %w", err)
	}
	if major != wire.VersionMajor || minor != wire.VersionMinor {
		return fmt.Errorf("unsupported protocol version %d.%d", major, minor)
	}
	props, err := fields.Table()
	if err != nil {
		return fmt.Errorf("parse server properties: %w", err)
	}
	mechanisms, err := fields.LongStr()
	if err != nil {
		return fmt.Errorf("parse security mechanisms: %w", err)
	}
	if !strings.Contains(string(mechanisms), "PLAIN") {
		return fmt.Errorf("server offers no PLAIN authentication, only %q", mechanisms)
	}

	c.serverProps = props
	if err := DecodeTable(props, &c.server); err != nil {
		c.log.Debug().Err(err).Msg("could not decode server properties")
	}

	secret := "\x00" + c.factory.Username + "\x00" + c.factory.Password
	args, err := wire.NewBuilder().
		Table(c.clientProperties()).
		ShortStr("PLAIN").
		LongStr([]byte(secret)).
		ShortStr("en_US").
		Build()
	if err != nil {
		return err
	}
	return c.writeRaw(0, wire.NewMethod(wire.ClassConnection, wire.ConnectionStartOk, args))
}

func (c *Connection) handleTune(m *wire.Method) error {
	fields := wire.NewFields(m.Args)
	channelMax, err := fields.Uint16()
	if err != nil {
		return fmt.Errorf("parse connection.tune: %w", err)
	}
	frameMax, err := fields.Uint32()
	if err != nil {
		return fmt.Errorf("parse connection.tune: %w", err)
	}
	heartbeat, err := fields.Uint16()
	if err != nil {
		return fmt.Errorf("parse connection.tune: %w", err)
	}

	c.channelMax = negotiate16(c.factory.ChannelMax, channelMax)
	if c.channelMax == 0 {
		c.channelMax = 65535
	}
	c.frameMax = negotiate32(c.factory.FrameMax, frameMax)
	if c.frameMax == 0 {
		c.frameMax = 131072
	}
	hb := negotiate16(uint16(c.factory.Heartbeat/time.Second), heartbeat)
	c.heartbeat = time.Duration(hb) * time.Second

	c.reader.SetMaxFrame(c.frameMax)
	c.writer.SetMaxFrame(c.frameMax)

	args, err := wire.NewBuilder().
		Uint16(c.channelMax).
		Uint32(c.frameMax).
		Uint16(hb).
		Build()
	if err != nil {
		return err
	}
	return c.writeRaw(0, wire.NewMethod(wire.ClassConnection, wire.ConnectionTuneOk, args))
}

// negotiate16 picks the shared limit: zero on either side means no
// preference, otherwise the smaller value wins.
func negotiate16(client, server uint16) uint16 {
	if client == 0 {
		return server
	}
	if server == 0 {
		return client
	}
	if client < server {
		return client
	}
	return server
}

func negotiate32(client, server uint32) uint32 {
	if client == 0 {
		return server
	}
	if server == 0 {
		return client
	}
	if client < server {
		return client
	}
	return server
}

func (c *Connection) clientProperties() Table {
	props := Table{
		"product":  "amqp-go",
		"version":  Version,
		"platform": "golang",
		"capabilities": Table{
			"connection.blocked":           true,
			"authentication_failure_close": true,
		},
	}
	if c.factory.ConnectionName != "" {
		props["connection_name"] = c.factory.ConnectionName
	}
	for k, v := range c.factory.ClientProperties {
		props[k] = v
	}
	return props
}
