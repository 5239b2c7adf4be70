package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldline-ai/genie-bridge/internal/genie"
)

func validConfig() *Config {
	return &Config{
		DatabricksHost:  "workspace.cloud.databricks.com",
		DatabricksToken: "dapi-test",
		SpacesJSON:      `[{"space_id":"a","title":"A"}]`,
		Transport:       TransportStdio,
	}
}

func TestValidateOK(t *testing.T) {
	require.NoError(t, validConfig().Validate())
}

func TestValidateMissingHost(t *testing.T) {
	cfg := validConfig()
	cfg.DatabricksHost = ""

	err := cfg.Validate()
	require.Error(t, err)
	assert.True(t, genie.IsKind(err, genie.KindConfig))
}

func TestValidateHostWithScheme(t *testing.T) {
	cfg := validConfig()
	cfg.DatabricksHost = "https://workspace.cloud.databricks.com"

	err := cfg.Validate()
	require.Error(t, err)
	assert.True(t, genie.IsKind(err, genie.KindConfig))
	assert.Contains(t, err.Error(), "scheme")
}

func TestValidateMissingToken(t *testing.T) {
	cfg := validConfig()
	cfg.DatabricksToken = ""
	assert.True(t, genie.IsKind(cfg.Validate(), genie.KindConfig))
}

func TestValidateMissingSpaces(t *testing.T) {
	cfg := validConfig()
	cfg.SpacesJSON = ""
	cfg.SpacesFile = ""
	assert.True(t, genie.IsKind(cfg.Validate(), genie.KindConfig))
}

func TestValidateBadTransport(t *testing.T) {
	cfg := validConfig()
	cfg.Transport = "grpc"
	assert.True(t, genie.IsKind(cfg.Validate(), genie.KindConfig))
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABRICKS_HOST", "workspace.cloud.databricks.com/")
	t.Setenv("DATABRICKS_TOKEN", "dapi-test")

	cfg := Load()
	assert.Equal(t, "workspace.cloud.databricks.com", cfg.DatabricksHost, "trailing slash trimmed")
	assert.Equal(t, 3*time.Second, cfg.PollInterval)
	assert.Equal(t, 90*time.Second, cfg.PollTimeout)
	assert.Equal(t, 3, cfg.MaxRetries)
	assert.Equal(t, TransportStdio, cfg.Transport)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DATABRICKS_HOST", "ws.example.com")
	t.Setenv("DATABRICKS_TOKEN", "tok")
	t.Setenv("GENIE_POLL_INTERVAL", "500ms")
	t.Setenv("GENIE_POLL_TIMEOUT", "2m")
	t.Setenv("GENIE_MAX_RETRIES", "5")
	t.Setenv("MCP_TRANSPORT", "http")
	t.Setenv("PORT", "9090")

	cfg := Load()
	assert.Equal(t, 500*time.Millisecond, cfg.PollInterval)
	assert.Equal(t, 2*time.Minute, cfg.PollTimeout)
	assert.Equal(t, 5, cfg.MaxRetries)
	assert.Equal(t, TransportHTTP, cfg.Transport)
	assert.Equal(t, "9090", cfg.HTTPPort)
}
