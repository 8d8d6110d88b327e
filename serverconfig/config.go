// Package serverconfig loads the Transport/Connector defaults spec.md
// §6 lists (backlog, idle timeout, max URI, max body, max keep-alive
// requests) from a config file, grounded on the pack's cobra+viper CLI
// wiring convention (nabbar-golib/cobra pairs a spf13/cobra command
// with file-based configuration the same way cmd/reactorhttpd does).
package serverconfig

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/xzero/reactorhttp/endpoint"
	"github.com/xzero/reactorhttp/transport"
)

// Config is the flattened, file-loadable form of the knobs
// endpoint.ConnectorConfig and transport.Config split between them.
type Config struct {
	Network          string        `mapstructure:"network"`
	Address          string        `mapstructure:"address"`
	Backlog          int           `mapstructure:"backlog"`
	MultiAcceptCount int           `mapstructure:"multi_accept_count"`
	ReusePort        bool          `mapstructure:"reuse_port"`

	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	MaxStartLineLen int           `mapstructure:"max_uri_bytes"`
	MaxHeaderLine   int           `mapstructure:"max_header_bytes"`
	MaxBodyBytes    int           `mapstructure:"max_body_bytes"`
	RequestMax      int           `mapstructure:"max_keepalive_requests"`
	ReadBufferSize  int           `mapstructure:"read_buffer_bytes"`

	MetricsAddr string `mapstructure:"metrics_address"`
}

// Defaults mirrors spec.md §6's concrete numbers: backlog 128, idle
// timeout 60s, max URI 8 KiB, max body 4 MiB, max keep-alive requests
// 100.
func Defaults() Config {
	return Config{
		Network:          "tcp",
		Address:          ":8080",
		Backlog:          128,
		MultiAcceptCount: 16,
		ReusePort:        false,
		IdleTimeout:      60 * time.Second,
		MaxStartLineLen:  8 << 10,
		MaxHeaderLine:    8 << 10,
		MaxBodyBytes:     4 << 20,
		RequestMax:       100,
		ReadBufferSize:   16 << 10,
		MetricsAddr:      ":9090",
	}
}

// Load reads path (if non-empty) via viper, falling back to Defaults
// for every key the file doesn't set, and environment variables
// prefixed REACTORHTTP_ overriding both (e.g. REACTORHTTP_ADDRESS).
func Load(path string) (Config, error) {
	v := viper.New()
	def := Defaults()
	v.SetDefault("network", def.Network)
	v.SetDefault("address", def.Address)
	v.SetDefault("backlog", def.Backlog)
	v.SetDefault("multi_accept_count", def.MultiAcceptCount)
	v.SetDefault("reuse_port", def.ReusePort)
	v.SetDefault("idle_timeout", def.IdleTimeout)
	v.SetDefault("max_uri_bytes", def.MaxStartLineLen)
	v.SetDefault("max_header_bytes", def.MaxHeaderLine)
	v.SetDefault("max_body_bytes", def.MaxBodyBytes)
	v.SetDefault("max_keepalive_requests", def.RequestMax)
	v.SetDefault("read_buffer_bytes", def.ReadBufferSize)
	v.SetDefault("metrics_address", def.MetricsAddr)

	v.SetEnvPrefix("reactorhttp")
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("serverconfig: reading %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("serverconfig: unmarshal: %w", err)
	}
	return cfg, nil
}

// ConnectorConfig projects the accept-loop knobs into
// endpoint.ConnectorConfig.
func (c Config) ConnectorConfig() endpoint.ConnectorConfig {
	return endpoint.ConnectorConfig{
		Network:          c.Network,
		Address:          c.Address,
		Backlog:          c.Backlog,
		MultiAcceptCount: c.MultiAcceptCount,
		ReusePort:        c.ReusePort,
		IdleTimeout:      c.IdleTimeout,
	}
}

// TransportConfig projects the per-connection knobs into a
// transport.Config; Handler, Executor, Reenter, Logger, and Metrics are
// left for the caller to fill in since Config has no notion of any of
// them.
func (c Config) TransportConfig() transport.Config {
	return transport.Config{
		MaxStartLineLen: c.MaxStartLineLen,
		MaxHeaderLine:   c.MaxHeaderLine,
		MaxBodyBytes:    c.MaxBodyBytes,
		RequestMax:      c.RequestMax,
		IdleTimeout:     c.IdleTimeout,
		ReadBufferSize:  c.ReadBufferSize,
	}
}
