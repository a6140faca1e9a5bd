package app

import (
	"os"
	"strings"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
)

// Storage backends.
const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

const defaultAddr = "0.0.0.0:8080"

// Config holds the server configuration, loadable from environment variables
// (CATALOG_ prefix), flags, or YAML config files.
type Config struct {
	Addr        string `default:"0.0.0.0:8080" usage:"API server listen address"`
	DatabaseURL string `usage:"PostgreSQL connection URL (CATALOG_DATABASE_URL or DATABASE_URL)" flag:"database-url"`
	Storage     string `default:"postgres" usage:"Product store: postgres or memory"`
	BasePath    string `default:"" usage:"Path prefix for the product routes, e.g. /api" flag:"base-path"`
	RateLimit   RateLimitConfig
	CORS        CORSConfig
	Graceful    GracefulConfig
}

// RateLimitConfig controls the per-client sliding window rate limiter. A zero
// Max disables it.
type RateLimitConfig struct {
	Max    int           `default:"0"  usage:"Max requests per window per client, 0 disables"`
	Window time.Duration `default:"1m" usage:"Rate limit window duration"`
}

// CORSConfig controls Cross-Origin Resource Sharing headers.
type CORSConfig struct {
	Origins          []string `default:"*" usage:"Allowed CORS origins"`
	AllowCredentials bool     `default:"false" usage:"Allow credentials (cookies, auth headers)" flag:"cors-credentials"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// LoadConfig loads configuration from environment variables and YAML config
// files, then applies platform defaults and validates the result.
func LoadConfig() (*Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "CATALOG",
		Files:     []string{"config.yaml", "/etc/catalog/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyPlatformDefaults maps the standard DATABASE_URL and PORT variables set
// by hosting platforms onto the CATALOG_-prefixed configuration.
func (c *Config) applyPlatformDefaults() {
	if c.DatabaseURL == "" {
		c.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == defaultAddr {
		c.Addr = "0.0.0.0:" + port
	}
	c.BasePath = strings.TrimSuffix(c.BasePath, "/")
}

func (c *Config) validate() error {
	switch c.Storage {
	case StoragePostgres:
		if c.DatabaseURL == "" {
			return errors.New("database URL is required: set CATALOG_DATABASE_URL or DATABASE_URL")
		}
	case StorageMemory:
	default:
		return errors.Errorf("unknown storage %q: want %s or %s", c.Storage, StoragePostgres, StorageMemory)
	}
	if c.BasePath != "" && !strings.HasPrefix(c.BasePath, "/") {
		return errors.Errorf("base path %q must start with /", c.BasePath)
	}
	return nil
}
