package config

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"go.uber.org/zap/zapcore"
)

// ApplicationConfiguration is the client configuration.
type ApplicationConfiguration struct {
	RPC    RPC    `yaml:"RPC"`
	Waiter Waiter `yaml:"Waiter"`

	LogLevel    string `yaml:"LogLevel"`
	LogPath     string `yaml:"LogPath"`
	LogEncoding string `yaml:"LogEncoding"`

	// RegistryPath is the path to the deployed contract registry.
	RegistryPath string `yaml:"RegistryPath"`

	Prometheus BasicService `yaml:"Prometheus"`
	Pprof      BasicService `yaml:"Pprof"`
}

// Waiter configures transaction awaiting.
type Waiter struct {
	// PollInterval is the interval between receipt requests.
	PollInterval time.Duration `yaml:"PollInterval"`
	// Timeout limits the wait, zero means no limit.
	Timeout time.Duration `yaml:"Timeout"`
}

// Validate checks ApplicationConfiguration for internal consistency and
// returns an error if any invalid settings are found.
func (a *ApplicationConfiguration) Validate() error {
	if err := a.RPC.Validate(); err != nil {
		return fmt.Errorf("invalid RPC config: %w", err)
	}
	if a.Waiter.PollInterval <= 0 {
		return errors.New("invalid Waiter config: PollInterval must be positive")
	}
	if a.Waiter.Timeout < 0 {
		return errors.New("invalid Waiter config: negative Timeout")
	}
	if a.LogLevel != "" {
		if _, err := zapcore.ParseLevel(a.LogLevel); err != nil {
			return fmt.Errorf("invalid LogLevel: %w", err)
		}
	}
	switch a.LogEncoding {
	case "", "console", "json":
	default:
		return fmt.Errorf("invalid LogEncoding: %s", a.LogEncoding)
	}
	if a.Prometheus.Enabled && len(a.Prometheus.Addresses) == 0 {
		return errors.New("no addresses specified for enabled Prometheus service")
	}
	if a.Pprof.Enabled && len(a.Pprof.Addresses) == 0 {
		return errors.New("no addresses specified for enabled Pprof service")
	}
	return nil
}

// RPC is the node connection configuration.
type RPC struct {
	// Endpoint is the node JSON-RPC URL, it can also be set via CLI flags.
	Endpoint        string        `yaml:"Endpoint"`
	DialTimeout     time.Duration `yaml:"DialTimeout"`
	RequestTimeout  time.Duration `yaml:"RequestTimeout"`
	CacheSize       int           `yaml:"CacheSize"`
	MaxConnsPerHost int           `yaml:"MaxConnsPerHost"`
}

// Validate checks RPC settings.
func (r RPC) Validate() error {
	if r.Endpoint != "" {
		u, err := url.Parse(r.Endpoint)
		if err != nil {
			return fmt.Errorf("bad Endpoint: %w", err)
		}
		switch u.Scheme {
		case "http", "https", "ws", "wss":
		default:
			return fmt.Errorf("unsupported Endpoint scheme %q", u.Scheme)
		}
	}
	if r.DialTimeout < 0 || r.RequestTimeout < 0 {
		return errors.New("negative timeout")
	}
	if r.CacheSize < 0 || r.MaxConnsPerHost < 0 {
		return errors.New("negative limit")
	}
	return nil
}
