package app

import (
	"context"
	"fmt"
	"io"
	"os"

	"awsmcp/internal/config"
	"awsmcp/pkg/logging"
)

// Application is the main application structure that bootstraps and runs awsmcp
type Application struct {
	config   *Config
	services *Services
}

// logOutput receives server logs. Stdout is reserved for the stdio transport.
var logOutput io.Writer = os.Stderr

// NewApplication creates and initializes a new application instance
func NewApplication(ctx context.Context, cfg *Config) (*Application, error) {
	// Log to stderr until the configured level and format are known
	bootLevel := logging.LevelInfo
	if cfg.Debug {
		bootLevel = logging.LevelDebug
	}
	logging.InitForCLI(bootLevel, logOutput)

	var appCfg config.Config
	var err error

	if cfg.ConfigPath != "" {
		appCfg, err = config.LoadConfigFromPath(cfg.ConfigPath)
		if err != nil {
			logging.Error("Bootstrap", err, "Failed to load configuration from path: %s", cfg.ConfigPath)
			return nil, fmt.Errorf("failed to load configuration from path %s: %w", cfg.ConfigPath, err)
		}
		logging.Info("Bootstrap", "Loaded configuration from custom path: %s", cfg.ConfigPath)
	} else {
		appCfg, err = config.LoadConfig()
		if err != nil {
			logging.Error("Bootstrap", err, "Failed to load configuration")
			return nil, fmt.Errorf("failed to load configuration: %w", err)
		}
		logging.Debug("Bootstrap", "Loaded configuration using layered approach")
	}

	if err := cfg.applyOverrides(&appCfg); err != nil {
		return nil, fmt.Errorf("invalid command-line overrides: %w", err)
	}
	cfg.AppConfig = &appCfg

	logging.Init(logging.ParseLevel(appCfg.Logging.Level), logging.Format(appCfg.Logging.Format), logOutput)

	services, err := InitializeServices(ctx, cfg)
	if err != nil {
		logging.Error("Bootstrap", err, "Failed to initialize services")
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	return &Application{
		config:   cfg,
		services: services,
	}, nil
}

// Run serves until ctx ends, a termination signal arrives or the transport fails.
func (a *Application) Run(ctx context.Context) error {
	return runServeMode(ctx, a.services)
}

// Services returns the wired services.
func (a *Application) Services() *Services {
	return a.services
}
