package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// For mocking in tests
var osUserHomeDir = os.UserHomeDir
var osGetwd = os.Getwd

const (
	userConfigDir    = ".config/awsmcp"
	projectConfigDir = ".awsmcp"
	configFileName   = "config.yaml"
)

// envBindings maps configuration keys to the environment variables that
// override them. Keys follow the YAML structure.
var envBindings = map[string][]string{
	"server.host":      {"HOST"},
	"server.port":      {"PORT"},
	"server.transport": {"MCP_TRANSPORT"},
	"server.restport":  {"REST_PORT"},
	"aws.region":       {"AWS_REGION", "AWS_DEFAULT_REGION"},
	"aws.profile":      {"AWS_PROFILE"},
	"database.url":     {"DATABASE_URL"},
	"tenancy.env":      {"NODE_ENV"},
	"tenancy.app":      {"APP_NAME"},
	"logging.level":    {"LOG_LEVEL"},
	"logging.format":   {"LOG_FORMAT"},
}

// LoadConfig loads the configuration by layering default, user, project and
// environment settings.
func LoadConfig() (Config, error) {
	// 1. Start with the default configuration
	config := GetDefaultConfig()

	// 2. User-specific configuration
	userConfigPath, err := getUserConfigPath()
	if err != nil {
		// User config is optional
		fmt.Fprintf(os.Stderr, "Warning: Could not determine user config path: %v\n", err)
	} else if _, err := os.Stat(userConfigPath); !os.IsNotExist(err) {
		userConfig, err := loadConfigFromFile(userConfigPath)
		if err != nil {
			return Config{}, fmt.Errorf("error loading user config from %s: %w", userConfigPath, err)
		}
		config = mergeConfigs(config, userConfig)
	}

	// 3. Project-specific configuration
	projectConfigPath, err := getProjectConfigPath()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Could not determine project config path: %v\n", err)
	} else if _, err := os.Stat(projectConfigPath); !os.IsNotExist(err) {
		projectConfig, err := loadConfigFromFile(projectConfigPath)
		if err != nil {
			return Config{}, fmt.Errorf("error loading project config from %s: %w", projectConfigPath, err)
		}
		config = mergeConfigs(config, projectConfig)
	}

	// 4. Environment
	config = applyEnvironment(config)

	return config, config.Validate()
}

// LoadConfigFromPath loads defaults, the given file and the environment,
// skipping the user and project layers.
func LoadConfigFromPath(path string) (Config, error) {
	fileConfig, err := loadConfigFromFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("error loading config from %s: %w", path, err)
	}
	config := applyEnvironment(mergeConfigs(GetDefaultConfig(), fileConfig))
	return config, config.Validate()
}

var getUserConfigPath = func() (string, error) {
	homeDir, err := osUserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, userConfigDir, configFileName), nil
}

var getProjectConfigPath = func() (string, error) {
	wd, err := osGetwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(wd, projectConfigDir, configFileName), nil
}

// loadConfigFromFile loads a Config from a YAML file.
func loadConfigFromFile(filePath string) (Config, error) {
	var config Config
	data, err := os.ReadFile(filePath)
	if err != nil {
		return Config{}, err
	}
	if err := yaml.Unmarshal(data, &config); err != nil {
		return Config{}, err
	}
	return config, nil
}

// mergeConfigs merges 'overlay' config into 'base' config. Zero values in
// the overlay leave the base untouched.
func mergeConfigs(base, overlay Config) Config {
	merged := base

	if overlay.Server.Host != "" {
		merged.Server.Host = overlay.Server.Host
	}
	if overlay.Server.Port != 0 {
		merged.Server.Port = overlay.Server.Port
	}
	if overlay.Server.Transport != "" {
		merged.Server.Transport = overlay.Server.Transport
	}
	if overlay.Server.EndpointPath != "" {
		merged.Server.EndpointPath = overlay.Server.EndpointPath
	}
	if overlay.Server.RESTPort != 0 {
		merged.Server.RESTPort = overlay.Server.RESTPort
	}

	if overlay.AWS.Region != "" {
		merged.AWS.Region = overlay.AWS.Region
	}
	if overlay.AWS.Profile != "" {
		merged.AWS.Profile = overlay.AWS.Profile
	}

	if overlay.Database.URL != "" {
		merged.Database.URL = overlay.Database.URL
	}
	if overlay.Database.ConnectTimeout != 0 {
		merged.Database.ConnectTimeout = overlay.Database.ConnectTimeout
	}

	if overlay.Tenancy.Environment != "" {
		merged.Tenancy.Environment = overlay.Tenancy.Environment
	}
	if overlay.Tenancy.AppName != "" {
		merged.Tenancy.AppName = overlay.Tenancy.AppName
	}

	if overlay.Logs.PollInterval != 0 {
		merged.Logs.PollInterval = overlay.Logs.PollInterval
	}
	if overlay.Logs.QueryTimeout != 0 {
		merged.Logs.QueryTimeout = overlay.Logs.QueryTimeout
	}

	if overlay.Logging.Level != "" {
		merged.Logging.Level = overlay.Logging.Level
	}
	if overlay.Logging.Format != "" {
		merged.Logging.Format = overlay.Logging.Format
	}

	return merged
}

// applyEnvironment overlays values taken from environment variables.
func applyEnvironment(config Config) Config {
	v := viper.New()
	for key, envs := range envBindings {
		_ = v.BindEnv(append([]string{key}, envs...)...)
	}

	if v.IsSet("server.host") {
		config.Server.Host = v.GetString("server.host")
	}
	if v.IsSet("server.port") {
		config.Server.Port = v.GetInt("server.port")
	}
	if v.IsSet("server.transport") {
		config.Server.Transport = v.GetString("server.transport")
	}
	if v.IsSet("server.restport") {
		config.Server.RESTPort = v.GetInt("server.restport")
	}
	if v.IsSet("aws.region") {
		config.AWS.Region = v.GetString("aws.region")
	}
	if v.IsSet("aws.profile") {
		config.AWS.Profile = v.GetString("aws.profile")
	}
	if v.IsSet("database.url") {
		config.Database.URL = v.GetString("database.url")
	}
	if v.IsSet("tenancy.env") {
		config.Tenancy.Environment = v.GetString("tenancy.env")
	}
	if v.IsSet("tenancy.app") {
		config.Tenancy.AppName = v.GetString("tenancy.app")
	}
	if v.IsSet("logging.level") {
		config.Logging.Level = v.GetString("logging.level")
	}
	if v.IsSet("logging.format") {
		config.Logging.Format = v.GetString("logging.format")
	}

	return config
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.RESTPort < 0 || c.Server.RESTPort > 65535 {
		return fmt.Errorf("invalid REST port: %d", c.Server.RESTPort)
	}
	switch c.Server.Transport {
	case TransportStreamableHTTP, TransportSSE, TransportStdio:
	default:
		return fmt.Errorf("unsupported transport %q", c.Server.Transport)
	}
	if c.Logs.PollInterval <= 0 {
		return fmt.Errorf("logs.pollInterval must be positive")
	}
	if c.Logs.QueryTimeout <= 0 {
		return fmt.Errorf("logs.queryTimeout must be positive")
	}
	if c.Tenancy.Environment == "" || c.Tenancy.AppName == "" {
		return fmt.Errorf("tenancy environment and appName must be set")
	}
	return nil
}

// GetUserConfigDir returns the user configuration directory path
func GetUserConfigDir() (string, error) {
	homeDir, err := osUserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, userConfigDir), nil
}
