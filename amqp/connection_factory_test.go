package amqp

import (
	"crypto/tls"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

func TestNewConnectionFactoryDefaults(t *testing.T) {
	cf := NewConnectionFactory()

	require.Equal(t, "localhost", cf.Host)
	require.Equal(t, 5672, cf.Port)
	require.Equal(t, "/", cf.VHost)
	require.Equal(t, "guest", cf.Username)
	require.Equal(t, "guest", cf.Password)
	require.Equal(t, 60*time.Second, cf.ConnectionTimeout)
	require.Equal(t, 10*time.Second, cf.HandshakeTimeout)
	require.Equal(t, 10*time.Second, cf.Heartbeat)
	require.Nil(t, cf.TLSConfig)
	require.NoError(t, cf.Validate())
}

func TestFactoryOptions(t *testing.T) {
	metrics := NewStandardMetricsCollector()
	tlsConfig := &tls.Config{ServerName: "broker"}

	cf := NewConnectionFactory(
		WithHost("broker"),
		WithPort(5673),
		WithCredentials("user", "secret"),
		WithVHost("orders"),
		WithTLS(tlsConfig),
		WithConnectionTimeout(5*time.Second),
		WithHandshakeTimeout(2*time.Second),
		WithHeartbeat(30*time.Second),
		WithChannelMax(128),
		WithFrameMax(65536),
		WithConnectionName("ingest-1"),
		WithClientProperty("team", "payments"),
		WithLogger(zerolog.Nop()),
		WithMetrics(metrics),
	)

	require.Equal(t, "broker", cf.Host)
	require.Equal(t, 5673, cf.Port)
	require.Equal(t, "user", cf.Username)
	require.Equal(t, "secret", cf.Password)
	require.Equal(t, "orders", cf.VHost)
	require.Same(t, tlsConfig, cf.TLSConfig)
	require.Equal(t, 5*time.Second, cf.ConnectionTimeout)
	require.Equal(t, 2*time.Second, cf.HandshakeTimeout)
	require.Equal(t, 30*time.Second, cf.Heartbeat)
	require.Equal(t, uint16(128), cf.ChannelMax)
	require.Equal(t, uint32(65536), cf.FrameMax)
	require.Equal(t, "ingest-1", cf.ConnectionName)
	require.Equal(t, "payments", cf.ClientProperties["team"])
	require.Same(t, metrics, cf.Metrics)
}

func TestWithClientPropertiesReplaces(t *testing.T) {
	cf := NewConnectionFactory(
		WithClientProperty("a", 1),
		WithClientProperties(Table{"b": 2}),
	)
	require.NotContains(t, cf.ClientProperties, "a")
	require.Equal(t, 2, cf.ClientProperties["b"])
}

func TestFactoryValidateCollectsEveryProblem(t *testing.T) {
	cf := NewConnectionFactory(
		WithHost(""),
		WithPort(0),
		WithVHost(""),
		WithCredentials("", ""),
		WithHeartbeat(-time.Second),
	)

	err := cf.Validate()
	require.Error(t, err)

	problems := multierr.Errors(err)
	require.Len(t, problems, 5)
	require.Contains(t, err.Error(), "host cannot be empty")
	require.Contains(t, err.Error(), "port 0 outside [1, 65535]")
	require.Contains(t, err.Error(), "vhost cannot be empty")
	require.Contains(t, err.Error(), "username cannot be empty")
	require.Contains(t, err.Error(), "heartbeat cannot be negative")
}

func TestNewConnectionRejectsInvalidFactory(t *testing.T) {
	cf := NewConnectionFactory(WithHost(""))

	_, err := cf.NewConnection()
	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid connection factory")
}
