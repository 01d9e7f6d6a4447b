package app

import (
	"context"
	"fmt"
	"net"
	"strconv"

	"awsmcp/internal/config"
	"awsmcp/internal/gateway"
	"awsmcp/internal/httpapi"
	"awsmcp/internal/server"
	"awsmcp/internal/tools"
	"awsmcp/pkg/logging"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
)

// Services holds all the initialized services
type Services struct {
	Gateway *gateway.Gateway
	Facade  *tools.Facade
	Server  *server.Server

	// REST is nil unless a REST port is configured.
	REST *httpapi.Server
}

// loadAWSConfig resolves credentials and region from the default chain.
var loadAWSConfig = func(ctx context.Context, cfg config.AWSConfig) (aws.Config, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	if cfg.Profile != "" {
		opts = append(opts, awsconfig.WithSharedConfigProfile(cfg.Profile))
	}
	return awsconfig.LoadDefaultConfig(ctx, opts...)
}

// InitializeServices creates and wires every service from cfg.
func InitializeServices(ctx context.Context, cfg *Config) (*Services, error) {
	appCfg := cfg.AppConfig

	awsCfg, err := loadAWSConfig(ctx, appCfg.AWS)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}
	if awsCfg.Region == "" {
		logging.Warn("Services", "No AWS region configured; AWS calls will fail until AWS_REGION is set")
	}

	gw := gateway.NewFromAWSConfig(awsCfg, gateway.Options{
		Connector:    gateway.PgxConnector(appCfg.Database.ConnectTimeout),
		PollInterval: appCfg.Logs.PollInterval,
		QueryTimeout: appCfg.Logs.QueryTimeout,
		Environment:  appCfg.Tenancy.Environment,
		AppName:      appCfg.Tenancy.AppName,
	})

	facade := tools.New(gw, tools.Options{
		DatabaseURL: appCfg.Database.URL,
		Environment: appCfg.Tenancy.Environment,
		AppName:     appCfg.Tenancy.AppName,
		Version:     cfg.Version,
	})

	services := &Services{
		Gateway: gw,
		Facade:  facade,
		Server: server.New(server.Config{
			Host:         appCfg.Server.Host,
			Port:         appCfg.Server.Port,
			Transport:    appCfg.Server.Transport,
			EndpointPath: appCfg.Server.EndpointPath,
			Version:      cfg.Version,
		}, facade),
	}

	if appCfg.Server.RESTPort > 0 {
		addr := net.JoinHostPort(appCfg.Server.Host, strconv.Itoa(appCfg.Server.RESTPort))
		services.REST = httpapi.NewServer(addr, facade)
		logging.Debug("Services", "REST bridge enabled on %s", addr)
	}

	logging.Debug("Services", "Services initialized (transport=%s, env=%s, app=%s)",
		appCfg.Server.Transport, appCfg.Tenancy.Environment, appCfg.Tenancy.AppName)

	return services, nil
}
