package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port string
	Env  string

	// Upstream inference endpoint
	UpstreamURL    string
	UpstreamAPIKey string
	ModelID        string

	// Moderation gateway (optional). When GatewayURL is set every
	// inference call is routed through it with caching enabled.
	GatewayURL      string
	GatewayCacheTTL int

	// Static assets
	StaticDir string

	// Frontend
	FrontendURL string
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	cfg := &Config{
		Port:            getEnvOrDefault("PORT", "8080"),
		Env:             getEnvOrDefault("ENV", "development"),
		UpstreamURL:     mustGetEnv("UPSTREAM_URL"),
		UpstreamAPIKey:  getEnvOrDefault("UPSTREAM_API_KEY", ""),
		ModelID:         getEnvOrDefault("MODEL_ID", "@cf/meta/llama-3.1-8b-instruct"),
		GatewayURL:      getEnvOrDefault("GATEWAY_URL", ""),
		GatewayCacheTTL: getEnvAsIntOrDefault("GATEWAY_CACHE_TTL", 3360),
		StaticDir:       getEnvOrDefault("STATIC_DIR", "./web"),
		FrontendURL:     getEnvOrDefault("FRONTEND_URL", "http://localhost:5173"),
	}

	return cfg
}

// UsingGateway reports whether inference calls are routed through the
// moderation gateway.
func (c *Config) UsingGateway() bool {
	return c.GatewayURL != ""
}

func mustGetEnv(key string) string {
	val := os.Getenv(key)
	if val == "" {
		panic(fmt.Sprintf("required environment variable %s is not set", key))
	}
	return val
}

func getEnvOrDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func getEnvAsIntOrDefault(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}
