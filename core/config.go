package core

import (
	"fmt"
	"strings"
	"time"
)

type EndpointConfig struct {
	URL     string            `koanf:"url" mapstructure:"url" yaml:"url"`
	Headers map[string]string `koanf:"headers" mapstructure:"headers" yaml:"headers"`
	Async   bool              `koanf:"async" mapstructure:"async" yaml:"async"`
}

type TransportConfig struct {
	Timeout              string `koanf:"timeout" mapstructure:"timeout" yaml:"timeout"`
	MaxResponseBodyBytes int64  `koanf:"max_response_body_bytes" mapstructure:"max_response_body_bytes" yaml:"max_response_body_bytes"`
	Tracing              bool   `koanf:"tracing" mapstructure:"tracing" yaml:"tracing"`
}

// Config describes a listener. Category endpoints left nil are derived
// from Base on first use.
type Config struct {
	ServiceName string          `koanf:"service_name" mapstructure:"service_name" yaml:"service_name"`
	Base        EndpointConfig  `koanf:"base" mapstructure:"base" yaml:"base"`
	Creation    *EndpointConfig `koanf:"creation" mapstructure:"creation" yaml:"creation"`
	Change      *EndpointConfig `koanf:"change" mapstructure:"change" yaml:"change"`
	Removal     *EndpointConfig `koanf:"removal" mapstructure:"removal" yaml:"removal"`
	Transport   TransportConfig `koanf:"transport" mapstructure:"transport" yaml:"transport"`
}

func DefaultConfig() Config {
	return Config{
		ServiceName: "flaghooks",
		Transport: TransportConfig{
			Timeout: "30s",
		},
	}
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.ServiceName) == "" {
		return validationError("service_name", "service_name is required")
	}
	if _, err := c.Transport.TimeoutDuration(); err != nil {
		return validationError("transport.timeout", err.Error())
	}
	if c.Transport.MaxResponseBodyBytes < 0 {
		return validationError("transport.max_response_body_bytes", "must not be negative")
	}
	return nil
}

func (c TransportConfig) TimeoutDuration() (time.Duration, error) {
	raw := strings.TrimSpace(c.Timeout)
	if raw == "" {
		return 0, nil
	}
	timeout, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid timeout %q: %w", raw, err)
	}
	if timeout < 0 {
		return 0, fmt.Errorf("timeout %q must not be negative", raw)
	}
	return timeout, nil
}

// Options converts the configuration into endpoint options. An empty URL is
// treated as absent so the value is inherited from the base configuration.
func (c EndpointConfig) Options() *EndpointOptions {
	options := NewEndpointOptions().
		WithHeaders(c.Headers).
		WithAsync(c.Async)
	if strings.TrimSpace(c.URL) != "" {
		options.WithURL(strings.TrimSpace(c.URL))
	}
	return options
}

// Endpoint returns the configuration for a category, nil when unset.
func (c Config) Endpoint(category Category) *EndpointConfig {
	switch category {
	case CategoryBase:
		base := c.Base
		return &base
	case CategoryCreate:
		return c.Creation
	case CategoryUpdate:
		return c.Change
	case CategoryDelete:
		return c.Removal
	default:
		return nil
	}
}
