package app

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"awsmcp/internal/config"
	"awsmcp/internal/server"
	"awsmcp/pkg/logging"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	logOutput = io.Discard
	logging.InitForCLI(logging.LevelError, io.Discard)
	os.Exit(m.Run())
}

var loaderEnv = []string{
	"HOST", "PORT", "MCP_TRANSPORT", "REST_PORT",
	"AWS_REGION", "AWS_DEFAULT_REGION", "AWS_PROFILE",
	"DATABASE_URL", "NODE_ENV", "APP_NAME", "LOG_LEVEL", "LOG_FORMAT",
}

func isolate(t *testing.T) {
	t.Helper()
	for _, env := range loaderEnv {
		t.Setenv(env, "")
	}

	original := loadAWSConfig
	t.Cleanup(func() { loadAWSConfig = original })
	loadAWSConfig = func(ctx context.Context, cfg config.AWSConfig) (aws.Config, error) {
		return aws.Config{Region: "ap-northeast-1"}, nil
	}
}

func freePort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	return ln.Addr().(*net.TCPAddr).Port
}

func TestConfig_ApplyOverrides(t *testing.T) {
	tests := []struct {
		name    string
		app     Config
		check   func(t *testing.T, cfg config.Config)
		wantErr string
	}{
		{
			name: "no overrides",
			app:  Config{},
			check: func(t *testing.T, cfg config.Config) {
				assert.Equal(t, config.GetDefaultConfig(), cfg)
			},
		},
		{
			name: "transport and ports",
			app:  Config{Transport: config.TransportSSE, Port: 9100, RESTPort: 3100},
			check: func(t *testing.T, cfg config.Config) {
				assert.Equal(t, config.TransportSSE, cfg.Server.Transport)
				assert.Equal(t, 9100, cfg.Server.Port)
				assert.Equal(t, 3100, cfg.Server.RESTPort)
			},
		},
		{
			name: "debug forces level",
			app:  Config{Debug: true},
			check: func(t *testing.T, cfg config.Config) {
				assert.Equal(t, "debug", cfg.Logging.Level)
			},
		},
		{
			name:    "invalid transport",
			app:     Config{Transport: "carrier-pigeon"},
			wantErr: "unsupported transport",
		},
		{
			name:    "invalid port",
			app:     Config{Port: 70000},
			wantErr: "invalid server port",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.GetDefaultConfig()
			err := tt.app.applyOverrides(&cfg)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			tt.check(t, cfg)
		})
	}
}

func TestNewApplication_FromPath(t *testing.T) {
	isolate(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  transport: stdio
tenancy:
  environment: prod
  appName: portal
database:
  url: postgres://db/app
`), 0644))

	app, err := NewApplication(context.Background(), &Config{ConfigPath: path, RESTPort: 3200, Version: "1.2.3"})
	require.NoError(t, err)

	cfg := app.config.AppConfig
	require.NotNil(t, cfg)
	assert.Equal(t, config.TransportStdio, cfg.Server.Transport)
	assert.Equal(t, "prod", cfg.Tenancy.Environment)

	services := app.Services()
	assert.NotNil(t, services.Gateway)
	assert.NotNil(t, services.Server)
	require.NotNil(t, services.REST)

	info := services.Facade.ServerInfo()
	assert.Equal(t, "1.0.0", info.Version)
	assert.Equal(t, "1.2.3", info.Build)
	assert.Equal(t, "prod-portal-orders", services.Facade.TenantTable("orders", "acme"))
}

func TestNewApplication_Errors(t *testing.T) {
	isolate(t)

	_, err := NewApplication(context.Background(), &Config{ConfigPath: filepath.Join(t.TempDir(), "missing.yaml")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load configuration from path")

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 8000\n"), 0644))
	_, err = NewApplication(context.Background(), &Config{ConfigPath: path, Transport: "carrier-pigeon"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid command-line overrides")
}

func TestInitializeServices_RESTDisabledByDefault(t *testing.T) {
	isolate(t)

	cfg := config.GetDefaultConfig()
	services, err := InitializeServices(context.Background(), &Config{AppConfig: &cfg})
	require.NoError(t, err)
	assert.Nil(t, services.REST)
}

func TestRunServeMode(t *testing.T) {
	isolate(t)

	cfg := config.GetDefaultConfig()
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = freePort(t)
	restPort := freePort(t)
	cfg.Server.RESTPort = restPort

	services, err := InitializeServices(context.Background(), &Config{AppConfig: &cfg})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- runServeMode(ctx, services) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get(fmt.Sprintf("http://127.0.0.1:%d/mcp/health", restPort))
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("serve mode did not stop")
	}
}

func TestRunServeMode_StdioEOF(t *testing.T) {
	isolate(t)

	cfg := config.GetDefaultConfig()
	cfg.Server.Transport = config.TransportStdio

	services, err := InitializeServices(context.Background(), &Config{AppConfig: &cfg})
	require.NoError(t, err)

	inR, inW := io.Pipe()
	services.Server = server.New(server.Config{
		Transport: config.TransportStdio,
		Stdin:     inR,
		Stdout:    io.Discard,
	}, services.Facade)
	require.NoError(t, inW.Close())

	done := make(chan error, 1)
	go func() { done <- runServeMode(context.Background(), services) }()

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("serve mode did not stop on stdin EOF")
	}
}
