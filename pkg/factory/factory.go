package factory

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"

	"github.com/free5gc/profilecheck/internal/logger"
)

// ProfileCheckDefaultConfigPath is used when no -c flag is given.
const ProfileCheckDefaultConfigPath = "./config/profilecheck.yaml"

// Loader provides methods to load and validate the configuration.
type Loader interface {
	Load(path string) (*Config, error)
}

// DefaultLoader is a simple YAML file loader/validator with defaults.
type DefaultLoader struct{}

// Load reads YAML from the given path, applies defaults, and validates.
func (l *DefaultLoader) Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	return ParseConfig(data)
}

// ParseConfig decodes YAML, applies defaults, and validates.
func ParseConfig(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.UnmarshalStrict(data, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal yaml: %w", err)
	}
	applyDefaults(&cfg)
	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &cfg, nil
}

// ReadConfig loads the configuration at path with the DefaultLoader and
// logs the effective settings.
func ReadConfig(path string) (*Config, error) {
	loader := &DefaultLoader{}
	cfg, err := loader.Load(path)
	if err != nil {
		return nil, err
	}

	logger.CfgLog.Infof(
		"config loaded path=%s version=%s store.driver=%s schemaCheck=%t rateKeys=%v",
		path, cfg.Info.Version, cfg.Store.Driver,
		cfg.Validation.SchemaCheckEnabled(), cfg.Profile.RateKeys,
	)
	return cfg, nil
}

// DefaultConfig returns the configuration used when every field is left
// empty.
func DefaultConfig() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}
