// Package config loads gateway runtime configuration from the environment,
// following the same .env-then-os.Getenv layering the rest of this repo
// family uses.
package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds runtime configuration for the gateway process.
type Config struct {
	// HTTP listener
	APIHost string
	APIPort int

	// Private admin listener (metrics + anything not meant for the public edge)
	AdminHost string
	AdminPort int

	// Per-provider credentials. Infura and Pokt require a project/API key;
	// startup fails if either is empty.
	InfuraProjectID string
	PoktProjectID   string
	BinanceAPIKey   string
	ZKSyncAPIKey    string
	OmniatechAPIKey string

	// Dispatcher tuning
	MaxAttempts      int
	UpstreamTimeout  time.Duration
	RequestBodyLimit int64
	ExternalIPHint   string

	// WebSocket bridge tuning
	WSHandshakeTimeout time.Duration
	WSMaxMessageBytes  int64
	WSMaxGlobalConns   int
	WSMaxPerIPConns    int

	// Background weight updater
	DynamicWeightsEnabled   bool
	WeightUpdateInterval    time.Duration
	PrometheusQueryURL      string
	WeightUpdaterMaxWeight  uint32
	WeightUpdaterGraceTicks int

	// Project metadata cache in front of the external ProjectRegistry
	ProjectCacheSize int
	ProjectCacheTTL  time.Duration

	LogLevel string
}

// Load reads configuration from `.env` (if present) and the process
// environment, applying defaults, then validates required fields.
func Load() (Config, error) {
	loadDotEnv()

	cfg := Config{
		APIHost:   getEnv("GATEWAY_HOST", "0.0.0.0"),
		APIPort:   getEnvInt("GATEWAY_PORT", 8080),
		AdminHost: getEnv("GATEWAY_ADMIN_HOST", "127.0.0.1"),
		AdminPort: getEnvInt("GATEWAY_ADMIN_PORT", 8081),

		InfuraProjectID: getEnv("INFURA_PROJECT_ID", ""),
		PoktProjectID:   getEnv("POKT_PROJECT_ID", ""),
		BinanceAPIKey:   getEnv("BINANCE_API_KEY", ""),
		ZKSyncAPIKey:    getEnv("ZKSYNC_API_KEY", ""),
		OmniatechAPIKey: getEnv("OMNIATECH_API_KEY", ""),

		MaxAttempts:      getEnvInt("GATEWAY_MAX_ATTEMPTS", 3),
		UpstreamTimeout:  time.Duration(getEnvInt("GATEWAY_REQUEST_TIMEOUT_SEC", 10)) * time.Second,
		RequestBodyLimit: int64(getEnvInt("GATEWAY_MAX_BODY_BYTES", 1<<20)),
		ExternalIPHint:   getEnv("GATEWAY_EXTERNAL_IP", ""),

		WSHandshakeTimeout: time.Duration(getEnvInt("GATEWAY_WS_HANDSHAKE_TIMEOUT_SEC", 10)) * time.Second,
		WSMaxMessageBytes:  int64(getEnvInt("GATEWAY_WS_MAX_MESSAGE_BYTES", 1<<20)),
		WSMaxGlobalConns:   getEnvInt("GATEWAY_WS_MAX_GLOBAL_CONNS", 5000),
		WSMaxPerIPConns:    getEnvInt("GATEWAY_WS_MAX_PER_IP_CONNS", 20),

		DynamicWeightsEnabled:   getEnvBool("DYNAMIC_WEIGHTS", true),
		WeightUpdateInterval:    time.Duration(getEnvInt("GATEWAY_WEIGHT_UPDATE_INTERVAL_SEC", 30)) * time.Second,
		PrometheusQueryURL:      getEnv("PROMETHEUS_QUERY_URL", "http://localhost:9090"),
		WeightUpdaterMaxWeight:  uint32(getEnvInt("GATEWAY_WEIGHT_MAX", 100)),
		WeightUpdaterGraceTicks: getEnvInt("GATEWAY_WEIGHT_GRACE_TICKS", 3),

		ProjectCacheSize: getEnvInt("GATEWAY_PROJECT_CACHE_SIZE", 4096),
		ProjectCacheTTL:  time.Duration(getEnvInt("GATEWAY_PROJECT_CACHE_TTL_SEC", 30)) * time.Second,

		LogLevel: getEnv("GATEWAY_LOG_LEVEL", "info"),
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate enforces the startup-failure contract: Infura and
// Pokt project/API keys are required.
func (c *Config) Validate() error {
	var missing []string
	if c.InfuraProjectID == "" {
		missing = append(missing, "INFURA_PROJECT_ID")
	}
	if c.PoktProjectID == "" {
		missing = append(missing, "POKT_PROJECT_ID")
	}
	if len(missing) > 0 {
		return fmt.Errorf("config: missing required environment variables: %s", strings.Join(missing, ", "))
	}
	if c.MaxAttempts < 1 {
		return fmt.Errorf("config: GATEWAY_MAX_ATTEMPTS must be >= 1")
	}
	return nil
}

func loadDotEnv() {
	if err := godotenv.Load(); err == nil {
		log.Printf("config: loaded .env file")
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		return v == "1" || v == "true"
	}
	return def
}
