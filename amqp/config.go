package amqp

import (
	"crypto/tls"
	"fmt"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/kelseyhightower/envconfig"
)

// Duration wraps time.Duration so TOML files and environment variables
// share Go's duration syntax ("30s", "1m30s").
type Duration time.Duration

// UnmarshalText parses a Go duration string.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Config is the file and environment facing shape of connection
// settings. Environment variables use the AMQP_ prefix, so host comes
// from AMQP_HOST and so on. Zero valued fields defer to the factory
// defaults, or to the URI when one is given.
type Config struct {
	URI               string   `toml:"uri" envconfig:"URI"`
	Host              string   `toml:"host" envconfig:"HOST"`
	Port              int      `toml:"port" envconfig:"PORT"`
	VHost             string   `toml:"vhost" envconfig:"VHOST"`
	Username          string   `toml:"username" envconfig:"USERNAME"`
	Password          string   `toml:"password" envconfig:"PASSWORD"`
	ConnectionName    string   `toml:"connection_name" envconfig:"CONNECTION_NAME"`
	Heartbeat         Duration `toml:"heartbeat" envconfig:"HEARTBEAT"`
	ConnectionTimeout Duration `toml:"connection_timeout" envconfig:"CONNECTION_TIMEOUT"`
	HandshakeTimeout  Duration `toml:"handshake_timeout" envconfig:"HANDSHAKE_TIMEOUT"`
	ChannelMax        uint16   `toml:"channel_max" envconfig:"CHANNEL_MAX"`
	FrameMax          uint32   `toml:"frame_max" envconfig:"FRAME_MAX"`

	TLS                bool `toml:"tls" envconfig:"TLS"`
	InsecureSkipVerify bool `toml:"insecure_skip_verify" envconfig:"INSECURE_SKIP_VERIFY"`
}

// LoadConfig reads a TOML config file.
func LoadConfig(path string) (*Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}
	return &cfg, nil
}

// ConfigFromEnv builds a Config from AMQP_ environment variables alone.
func ConfigFromEnv() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("amqp", &cfg); err != nil {
		return nil, fmt.Errorf("process environment: %w", err)
	}
	return &cfg, nil
}

// ApplyEnv overlays AMQP_ environment variables onto the config. Unset
// variables leave their fields untouched, so a file loaded first keeps
// its values unless the environment overrides them.
func (c *Config) ApplyEnv() error {
	if err := envconfig.Process("amqp", c); err != nil {
		return fmt.Errorf("process environment: %w", err)
	}
	return nil
}

// Factory converts the config into a ConnectionFactory: defaults first,
// the URI when present, then every set field on top.
func (c *Config) Factory() (*ConnectionFactory, error) {
	cf := NewConnectionFactory()
	if c.URI != "" {
		if err := cf.SetURI(c.URI); err != nil {
			return nil, err
		}
	}
	if c.Host != "" {
		cf.Host = c.Host
	}
	if c.Port != 0 {
		cf.Port = c.Port
	}
	if c.VHost != "" {
		cf.VHost = c.VHost
	}
	if c.Username != "" {
		cf.Username = c.Username
	}
	if c.Password != "" {
		cf.Password = c.Password
	}
	if c.ConnectionName != "" {
		cf.ConnectionName = c.ConnectionName
	}
	if c.Heartbeat > 0 {
		cf.Heartbeat = c.Heartbeat.Std()
	}
	if c.ConnectionTimeout > 0 {
		cf.ConnectionTimeout = c.ConnectionTimeout.Std()
	}
	if c.HandshakeTimeout > 0 {
		cf.HandshakeTimeout = c.HandshakeTimeout.Std()
	}
	if c.ChannelMax > 0 {
		cf.ChannelMax = c.ChannelMax
	}
	if c.FrameMax > 0 {
		cf.FrameMax = c.FrameMax
	}
	if c.TLS && cf.TLSConfig == nil {
		cf.TLSConfig = &tls.Config{
			ServerName:         cf.Host,
			InsecureSkipVerify: c.InsecureSkipVerify,
		}
	}
	return cf, nil
}
