package amqp

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/rs/xid"
	"github.com/rs/zerolog"
	"go.uber.org/multierr"

	"github.com/israelio/amqp-go/internal/wire"
)

// Version is announced to the broker in the client properties.
const Version = "1.0.0"

// ConnectionFactory holds everything needed to establish connections.
// Configure it with functional options, a URI or a Config, then call
// NewConnection for each connection wanted.
type ConnectionFactory struct {
	Host     string
	Port     int
	VHost    string
	Username string
	Password string

	// TLSConfig enables TLS when non-nil.
	TLSConfig *tls.Config

	// ConnectionTimeout caps the TCP dial.
	ConnectionTimeout time.Duration
	// HandshakeTimeout caps the protocol negotiation after dialing.
	HandshakeTimeout time.Duration
	// Heartbeat is the requested heartbeat interval; the broker may
	// negotiate it down. Zero asks for whatever the broker wants.
	Heartbeat time.Duration

	// ChannelMax caps the channel id range, zero for the broker's limit.
	ChannelMax uint16
	// FrameMax caps the frame size, zero for the broker's limit.
	FrameMax uint32

	// ConnectionName shows up in broker management tools.
	ConnectionName string
	// ClientProperties are merged over the defaults announced in start-ok.
	ClientProperties Table

	Logger  zerolog.Logger
	Metrics MetricsCollector
}

// NewConnectionFactory returns a factory with guest access to a broker
// on localhost, modified by the given options.
func NewConnectionFactory(opts ...FactoryOption) *ConnectionFactory {
	cf := &ConnectionFactory{
		Host:              "localhost",
		Port:              5672,
		VHost:             "/",
		Username:          "guest",
		Password:          "guest",
		ConnectionTimeout: 60 * time.Second,
		HandshakeTimeout:  10 * time.Second,
		Heartbeat:         10 * time.Second,
		Logger:            zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(cf)
	}
	return cf
}

// Validate reports every configuration problem at once.
func (cf *ConnectionFactory) Validate() error {
	var errs error
	if cf.Host == "" {
		errs = multierr.Append(errs, errors.New("host cannot be empty"))
	}
	if cf.Port < 1 || cf.Port > 65535 {
		errs = multierr.Append(errs, fmt.Errorf("port %d outside [1, 65535]", cf.Port))
	}
	if cf.VHost == "" {
		errs = multierr.Append(errs, errors.New("vhost cannot be empty"))
	}
	if cf.Username == "" {
		errs = multierr.Append(errs, errors.New("username cannot be empty"))
	}
	if cf.ConnectionTimeout < 0 {
		errs = multierr.Append(errs, errors.New("connection timeout cannot be negative"))
	}
	if cf.HandshakeTimeout < 0 {
		errs = multierr.Append(errs, errors.New("handshake timeout cannot be negative"))
	}
	if cf.Heartbeat < 0 {
		errs = multierr.Append(errs, errors.New("heartbeat cannot be negative"))
	}
	return errs
}

// NewConnection dials the broker and negotiates a connection.
func (cf *ConnectionFactory) NewConnection() (*Connection, error) {
	return cf.NewConnectionWithContext(context.Background())
}

// NewConnectionWithContext dials the broker under ctx and negotiates a
// connection. The context covers the dial only; the connection outlives it.
func (cf *ConnectionFactory) NewConnectionWithContext(ctx context.Context) (*Connection, error) {
	if err := cf.Validate(); err != nil {
		return nil, fmt.Errorf("invalid connection factory: %w", err)
	}

	netConn, err := cf.dial(ctx)
	if err != nil {
		return nil, fmt.Errorf("dial %s:%d: %w", cf.Host, cf.Port, err)
	}

	conn, err := cf.open(netConn)
	if err != nil {
		netConn.Close()
		return nil, err
	}
	return conn, nil
}

// Open negotiates a connection over an already established transport.
// Useful for tunneled sockets and in-process pipes.
func (cf *ConnectionFactory) Open(netConn net.Conn) (*Connection, error) {
	if err := cf.Validate(); err != nil {
		return nil, fmt.Errorf("invalid connection factory: %w", err)
	}
	conn, err := cf.open(netConn)
	if err != nil {
		netConn.Close()
		return nil, err
	}
	return conn, nil
}

func (cf *ConnectionFactory) dial(ctx context.Context) (net.Conn, error) {
	addr := net.JoinHostPort(cf.Host, strconv.Itoa(cf.Port))
	dialer := &net.Dialer{Timeout: cf.ConnectionTimeout}
	if cf.TLSConfig != nil {
		td := &tls.Dialer{NetDialer: dialer, Config: cf.TLSConfig}
		return td.DialContext(ctx, "tcp", addr)
	}
	return dialer.DialContext(ctx, "tcp", addr)
}

func (cf *ConnectionFactory) open(netConn net.Conn) (*Connection, error) {
	metrics := cf.Metrics
	if metrics == nil {
		metrics = NewNoOpMetricsCollector()
	}

	c := &Connection{
		factory:  cf,
		conn:     netConn,
		reader:   wire.NewReader(netConn, wire.FrameMinSize),
		writer:   wire.NewWriter(netConn, wire.FrameMinSize),
		id:       xid.New().String(),
		metrics:  metrics,
		channels: make(map[uint16]*Channel),
		closeOk:  make(chan struct{}),
		done:     make(chan struct{}),
	}
	c.log = cf.Logger.With().Str("connection", c.id).Logger()

	if err := c.handshake(); err != nil {
		return nil, fmt.Errorf("handshake: %w", err)
	}

	c.ids = newChannelIDs(c.channelMax)
	c.state.Store(int32(StateOpen))
	c.metrics.ConnectionOpened()
	c.log.Info().
		Str("product", c.server.Product).
		Str("version", c.server.Version).
		Str("vhost", cf.VHost).
		Uint16("channel_max", c.channelMax).
		Uint32("frame_max", c.frameMax).
		Dur("heartbeat", c.heartbeat).
		Msg("connected")

	c.start()
	return c, nil
}
