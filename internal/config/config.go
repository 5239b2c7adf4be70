// Package config provides environment configuration for the bridge.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/fieldline-ai/genie-bridge/internal/genie"
)

// Transport selects how the MCP server is exposed.
const (
	TransportStdio = "stdio"
	TransportHTTP  = "http"
)

// Config holds all configuration for the bridge.
type Config struct {
	// Databricks workspace settings. Host carries no scheme prefix.
	DatabricksHost  string
	DatabricksToken string

	// Space registry: path to a JSON file, or inline JSON. Inline wins.
	SpacesFile string
	SpacesJSON string

	// Polling policy
	PollInterval time.Duration
	PollTimeout  time.Duration
	MaxRetries   int

	// MCP transport
	Transport string
	HTTPPort  string

	// HTTP-mode auth and rate limiting. Auth is enabled when JWTSecret is
	// non-empty.
	JWTSecret         string
	RateLimitRequests int
	RateLimitWindow   time.Duration

	// NATS settings. Events are disabled when NATSURL is empty.
	NATSURL      string
	NATSCAFile   string
	NATSCertFile string
	NATSKeyFile  string
	NATSToken    string

	// Logging
	LogLevel string

	// Tracing
	TracingEndpoint string
	TracingEnabled  bool
}

// Load reads configuration from environment variables.
func Load() *Config {
	return &Config{
		// Databricks
		DatabricksHost:  strings.TrimSuffix(getEnv("DATABRICKS_HOST", ""), "/"),
		DatabricksToken: getEnv("DATABRICKS_TOKEN", ""),

		// Registry
		SpacesFile: getEnv("GENIE_SPACES_FILE", ""),
		SpacesJSON: getEnv("GENIE_SPACES", ""),

		// Polling
		PollInterval: getDurationEnv("GENIE_POLL_INTERVAL", 3*time.Second),
		PollTimeout:  getDurationEnv("GENIE_POLL_TIMEOUT", 90*time.Second),
		MaxRetries:   getIntEnv("GENIE_MAX_RETRIES", 3),

		// Transport
		Transport: getEnv("MCP_TRANSPORT", TransportStdio),
		HTTPPort:  getEnv("PORT", "8080"),

		// HTTP auth and rate limiting
		JWTSecret:         getEnv("JWT_SECRET", ""),
		RateLimitRequests: getIntEnv("RATE_LIMIT_REQUESTS", 60),
		RateLimitWindow:   getDurationEnv("RATE_LIMIT_WINDOW", time.Minute),

		// NATS
		NATSURL:      getEnv("NATS_URL", ""),
		NATSCAFile:   getEnv("NATS_CA_FILE", ""),
		NATSCertFile: getEnv("NATS_CERT_FILE", ""),
		NATSKeyFile:  getEnv("NATS_KEY_FILE", ""),
		NATSToken:    getEnv("NATS_TOKEN", ""),

		// Logging
		LogLevel: getEnv("LOG_LEVEL", "info"),

		// Tracing
		TracingEndpoint: getEnv("TRACING_ENDPOINT", "localhost:4318"),
		TracingEnabled:  getBoolEnv("TRACING_ENABLED", false),
	}
}

// Validate fails fast on missing or malformed settings, before any remote
// call is attempted.
func (c *Config) Validate() error {
	if c.DatabricksHost == "" {
		return &genie.Error{Kind: genie.KindConfig, Message: "DATABRICKS_HOST is required"}
	}
	if strings.Contains(c.DatabricksHost, "://") {
		return &genie.Error{Kind: genie.KindConfig, Message: "DATABRICKS_HOST must not include a scheme prefix"}
	}
	if c.DatabricksToken == "" {
		return &genie.Error{Kind: genie.KindConfig, Message: "DATABRICKS_TOKEN is required"}
	}
	if c.SpacesFile == "" && c.SpacesJSON == "" {
		return &genie.Error{Kind: genie.KindConfig, Message: "GENIE_SPACES or GENIE_SPACES_FILE is required"}
	}
	if c.Transport != TransportStdio && c.Transport != TransportHTTP {
		return &genie.Error{Kind: genie.KindConfig, Message: "MCP_TRANSPORT must be stdio or http"}
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
