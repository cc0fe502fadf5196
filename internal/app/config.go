package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
)

// Config holds the complete application configuration, loadable from
// environment variables (CHECKOUT_ prefix), flags, or YAML config files.
type Config struct {
	Addr        string `default:"0.0.0.0:8080" usage:"API server listen address"`
	DatabaseURL string `usage:"PostgreSQL connection URL (CHECKOUT_DATABASE_URL or DATABASE_URL)" flag:"database-url"`
	RedisAddr   string `default:"" usage:"Redis address for the callback replay guard; empty disables it" flag:"redis-addr"`
	Currency    string `default:"INR" usage:"Default currency for gateway sessions"`

	APIKeyPepper  string `usage:"HMAC pepper for API key hashing" flag:"api-key-pepper"`
	WebhookSecret string `usage:"HMAC secret for payment callback signatures" flag:"webhook-secret"`

	Gateway   GatewayConfig
	Replay    ReplayConfig
	RateLimit RateLimitConfig
	Graceful  GracefulConfig
}

// GatewayConfig holds payment provider credentials and endpoint.
type GatewayConfig struct {
	BaseURL   string        `usage:"Payment gateway API base URL" flag:"gateway-base-url"`
	KeyID     string        `usage:"Payment gateway key id" flag:"gateway-key-id"`
	KeySecret string        `usage:"Payment gateway key secret" flag:"gateway-key-secret"`
	Timeout   time.Duration `default:"10s" usage:"Payment gateway call timeout"`
}

// ReplayConfig sizes the callback replay guard.
type ReplayConfig struct {
	Expected uint          `default:"1000000" usage:"Expected callbacks per TTL for bloom sizing"`
	FPRate   float64       `default:"0.001" usage:"Bloom filter false positive rate" flag:"fp-rate"`
	TTL      time.Duration `default:"24h" usage:"Replay mark lifetime"`
}

// RateLimitConfig controls the per-client sliding window rate limiter.
type RateLimitConfig struct {
	Max    int           `default:"100" usage:"Max requests per window"`
	Window time.Duration `default:"1m"  usage:"Rate limit window duration"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// LoadConfig loads configuration from environment variables, YAML config
// files, and platform defaults.
func LoadConfig() (*Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "CHECKOUT",
		Files:     []string{"config.yaml", "/etc/checkout/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if cfg.DatabaseURL == "" {
		return nil, errors.New("database URL is required: set CHECKOUT_DATABASE_URL or DATABASE_URL")
	}
	if cfg.WebhookSecret == "" {
		return nil, errors.New("webhook secret is required: set CHECKOUT_WEBHOOK_SECRET")
	}

	return &cfg, nil
}

// applyPlatformDefaults maps platform-provided environment variables
// (Railway, Render, etc.) that use standard names like DATABASE_URL and
// PORT onto the CHECKOUT_-prefixed configuration.
func (c *Config) applyPlatformDefaults() {
	if c.DatabaseURL == "" {
		if v := os.Getenv("DATABASE_URL"); v != "" {
			c.DatabaseURL = v
		}
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == "0.0.0.0:8080" {
		c.Addr = "0.0.0.0:" + port
	}
}
