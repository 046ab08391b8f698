package config

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultConfigPath is the default path to the config file.
	DefaultConfigPath = "./config/easycontract.yml"

	// DefaultPollInterval is the default receipt polling interval.
	DefaultPollInterval = 4 * time.Second
	// DefaultRequestTimeout is the default timeout of a single node request.
	DefaultRequestTimeout = 4 * time.Second
	// DefaultDialTimeout is the default node connection timeout.
	DefaultDialTimeout = 4 * time.Second
	// DefaultCacheSize is the default number of cached receipts and blocks.
	DefaultCacheSize = 128
	// DefaultRegistryPath is the default deployed contract registry file.
	DefaultRegistryPath = "./data/registry.db"
)

// Version is the version of the client, set at build time.
var Version string

// Config is the top level struct representing the config for the client.
type Config struct {
	ApplicationConfiguration ApplicationConfiguration `yaml:"ApplicationConfiguration"`
}

// Default returns the configuration with all default values set.
func Default() Config {
	return Config{
		ApplicationConfiguration: ApplicationConfiguration{
			RPC: RPC{
				DialTimeout:    DefaultDialTimeout,
				RequestTimeout: DefaultRequestTimeout,
				CacheSize:      DefaultCacheSize,
			},
			Waiter: Waiter{
				PollInterval: DefaultPollInterval,
			},
			LogLevel:     "info",
			RegistryPath: DefaultRegistryPath,
		},
	}
}

// LoadFile loads config from the provided path. Unknown fields are not
// allowed, unspecified ones keep their default values.
func LoadFile(configPath string) (Config, error) {
	configData, err := os.ReadFile(configPath)
	if err != nil {
		return Config{}, fmt.Errorf("unable to read config: %w", err)
	}
	return Load(configData)
}

// Load parses the given YAML config data and validates the result.
func Load(configData []byte) (Config, error) {
	var config = Default()

	decoder := yaml.NewDecoder(bytes.NewReader(configData))
	decoder.KnownFields(true)
	err := decoder.Decode(&config)
	if err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config YAML: %w", err)
	}

	err = config.ApplicationConfiguration.Validate()
	if err != nil {
		return Config{}, err
	}
	return config, nil
}
