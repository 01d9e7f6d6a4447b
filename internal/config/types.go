package config

import (
	"time"
)

// Config is the top-level configuration structure for awsmcp.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	AWS      AWSConfig      `yaml:"aws"`
	Database DatabaseConfig `yaml:"database"`
	Tenancy  TenancyConfig  `yaml:"tenancy"`
	Logs     LogsConfig     `yaml:"logs"`
	Logging  LoggingConfig  `yaml:"logging"`
}

const (
	// TransportStreamableHTTP is the streamable HTTP transport.
	TransportStreamableHTTP = "streamable-http"
	// TransportSSE is the Server-Sent Events transport.
	TransportSSE = "sse"
	// TransportStdio is the standard I/O transport.
	TransportStdio = "stdio"
)

// ServerConfig controls how the MCP server is exposed.
type ServerConfig struct {
	Host         string `yaml:"host,omitempty"`         // Bind host (default: 0.0.0.0)
	Port         int    `yaml:"port,omitempty"`         // MCP listen port (default: 8000)
	Transport    string `yaml:"transport,omitempty"`    // streamable-http, sse or stdio
	EndpointPath string `yaml:"endpointPath,omitempty"` // Path of the streamable HTTP endpoint
	RESTPort     int    `yaml:"restPort,omitempty"`     // REST bridge port, 0 disables it
}

// AWSConfig selects the AWS credentials and region used by every client.
type AWSConfig struct {
	Region  string `yaml:"region,omitempty"`
	Profile string `yaml:"profile,omitempty"`
}

// DatabaseConfig holds the default relational connection settings.
type DatabaseConfig struct {
	URL            string        `yaml:"url,omitempty"`
	ConnectTimeout time.Duration `yaml:"connectTimeout,omitempty"`
}

// TenancyConfig holds the identifiers used to qualify multi-tenant table names.
type TenancyConfig struct {
	Environment string `yaml:"environment,omitempty"` // e.g. dev, stg, prod
	AppName     string `yaml:"appName,omitempty"`
}

// LogsConfig bounds CloudWatch Logs Insights polling.
type LogsConfig struct {
	PollInterval time.Duration `yaml:"pollInterval,omitempty"`
	QueryTimeout time.Duration `yaml:"queryTimeout,omitempty"`
}

// LoggingConfig selects log level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level,omitempty"`
	Format string `yaml:"format,omitempty"` // text or json
}

// GetDefaultConfig returns the built-in defaults.
func GetDefaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8000,
			Transport:    TransportStreamableHTTP,
			EndpointPath: "/mcp",
		},
		Database: DatabaseConfig{
			ConnectTimeout: 10 * time.Second,
		},
		Tenancy: TenancyConfig{
			Environment: "dev",
			AppName:     "main",
		},
		Logs: LogsConfig{
			PollInterval: time.Second,
			QueryTimeout: 5 * time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}
