package app

import (
	"awsmcp/internal/config"
)

// Config holds the application configuration
type Config struct {
	// ConfigPath, when set, replaces the user and project configuration layers.
	ConfigPath string

	// Debug forces debug logging regardless of the configured level.
	Debug bool

	// Command-line overrides. Zero values keep the loaded configuration.
	Transport string
	Port      int
	RESTPort  int

	// Version is reported to MCP clients and in server-info.
	Version string

	// Loaded configuration
	AppConfig *config.Config
}

// NewConfig creates a new application configuration
func NewConfig(configPath string, debug bool, version string) *Config {
	return &Config{
		ConfigPath: configPath,
		Debug:      debug,
		Version:    version,
	}
}

// applyOverrides copies command-line overrides onto the loaded configuration.
func (c *Config) applyOverrides(cfg *config.Config) error {
	if c.Transport != "" {
		cfg.Server.Transport = c.Transport
	}
	if c.Port != 0 {
		cfg.Server.Port = c.Port
	}
	if c.RESTPort != 0 {
		cfg.Server.RESTPort = c.RESTPort
	}
	if c.Debug {
		cfg.Logging.Level = "debug"
	}
	return cfg.Validate()
}
