package amqp

import (
	"crypto/tls"
	"time"

	"github.com/rs/zerolog"
)

// FactoryOption mutates a ConnectionFactory under construction.
type FactoryOption func(*ConnectionFactory)

// WithHost sets the broker host.
func WithHost(host string) FactoryOption {
	return func(cf *ConnectionFactory) {
		cf.Host = host
	}
}

// WithPort sets the broker port.
func WithPort(port int) FactoryOption {
	return func(cf *ConnectionFactory) {
		cf.Port = port
	}
}

// WithCredentials sets the username and password for PLAIN authentication.
func WithCredentials(username, password string) FactoryOption {
	return func(cf *ConnectionFactory) {
		cf.Username = username
		cf.Password = password
	}
}

// WithVHost sets the virtual host to open.
func WithVHost(vhost string) FactoryOption {
	return func(cf *ConnectionFactory) {
		cf.VHost = vhost
	}
}

// WithTLS enables TLS with the given configuration.
func WithTLS(config *tls.Config) FactoryOption {
	return func(cf *ConnectionFactory) {
		cf.TLSConfig = config
	}
}

// WithConnectionTimeout caps the TCP dial.
func WithConnectionTimeout(timeout time.Duration) FactoryOption {
	return func(cf *ConnectionFactory) {
		cf.ConnectionTimeout = timeout
	}
}

// WithHandshakeTimeout caps the protocol negotiation.
func WithHandshakeTimeout(timeout time.Duration) FactoryOption {
	return func(cf *ConnectionFactory) {
		cf.HandshakeTimeout = timeout
	}
}

// WithHeartbeat requests a heartbeat interval; the broker may negotiate
// it down. Zero takes the broker's preference.
func WithHeartbeat(interval time.Duration) FactoryOption {
	return func(cf *ConnectionFactory) {
		cf.Heartbeat = interval
	}
}

// WithChannelMax caps how many channel ids a connection may use.
func WithChannelMax(max uint16) FactoryOption {
	return func(cf *ConnectionFactory) {
		cf.ChannelMax = max
	}
}

// WithFrameMax caps the negotiated frame size in octets.
func WithFrameMax(max uint32) FactoryOption {
	return func(cf *ConnectionFactory) {
		cf.FrameMax = max
	}
}

// WithConnectionName labels the connection in broker management tools.
func WithConnectionName(name string) FactoryOption {
	return func(cf *ConnectionFactory) {
		cf.ConnectionName = name
	}
}

// WithClientProperties replaces the property table merged over the
// defaults announced to the broker.
func WithClientProperties(props Table) FactoryOption {
	return func(cf *ConnectionFactory) {
		cf.ClientProperties = props
	}
}

// WithClientProperty adds one property to the table announced to the broker.
func WithClientProperty(key string, value interface{}) FactoryOption {
	return func(cf *ConnectionFactory) {
		if cf.ClientProperties == nil {
			cf.ClientProperties = Table{}
		}
		cf.ClientProperties[key] = value
	}
}

// WithLogger routes connection and channel events to the given logger.
func WithLogger(log zerolog.Logger) FactoryOption {
	return func(cf *ConnectionFactory) {
		cf.Logger = log
	}
}

// WithMetrics routes counters to the given collector.
func WithMetrics(m MetricsCollector) FactoryOption {
	return func(cf *ConnectionFactory) {
		cf.Metrics = m
	}
}
