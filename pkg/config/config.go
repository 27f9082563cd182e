package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Storage drivers understood by OpenStore.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverBadger   = "badger"
)

// Config holds all application configuration.
// Every field can be set from the environment using the key in its envconfig tag.
type Config struct {
	Server        ServerConfig
	Database      DatabaseConfig
	Logging       LoggingConfig
	Security      SecurityConfig
	Services      ServicesConfig
	Classifier    ClassifierConfig
	Cache         CacheConfig
	Observability ObservabilityConfig
	Secrets       SecretsConfig
}

type ServerConfig struct {
	Port            string        `envconfig:"PORT" default:"5102"`
	GRPCPort        string        `envconfig:"GRPC_PORT"`
	Env             string        `envconfig:"APP_ENV" default:"development"`
	Version         string        `envconfig:"APP_VERSION" default:"dev"`
	Timeout         time.Duration `envconfig:"SERVER_TIMEOUT" default:"30s"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
}

type DatabaseConfig struct {
	Driver   string        `envconfig:"DB_DRIVER" default:"sqlite"`
	Path     string        `envconfig:"DB_PATH" default:"chat.db"`
	Host     string        `envconfig:"DB_HOST" default:"localhost"`
	Port     string        `envconfig:"DB_PORT" default:"5432"`
	User     string        `envconfig:"DB_USER" default:"postgres"`
	Password string        `envconfig:"DB_PASSWORD"`
	Name     string        `envconfig:"DB_NAME" default:"chat"`
	SSLMode  string        `envconfig:"DB_SSL_MODE" default:"disable"`
	MaxConns int           `envconfig:"DB_MAX_CONNS" default:"20"`
	Timeout  time.Duration `envconfig:"DB_TIMEOUT" default:"5s"`
	Retries  int           `envconfig:"DB_CONNECT_RETRIES" default:"5"`
}

type LoggingConfig struct {
	Level  string `envconfig:"LOG_LEVEL" default:"info"`
	Format string `envconfig:"LOG_FORMAT" default:"json"`
}

type SecurityConfig struct {
	RateLimit      float64  `envconfig:"RATE_LIMIT" default:"5"`
	RateLimitBurst int      `envconfig:"RATE_LIMIT_BURST" default:"10"`
	AllowedOrigins []string `envconfig:"ALLOWED_ORIGINS" default:"*"`
	MaxBodySize    int64    `envconfig:"MAX_BODY_SIZE" default:"65536"`
}

type ServicesConfig struct {
	// SentimentURL is the base URL of the remote classification service. Empty disables it.
	SentimentURL     string        `envconfig:"AI_SERVICE_URL"`
	SentimentTimeout time.Duration `envconfig:"AI_SERVICE_TIMEOUT" default:"2s"`
}

type ClassifierConfig struct {
	// KeywordsPath points to a JSON keyword document. Empty uses the built-in sets.
	KeywordsPath string `envconfig:"KEYWORDS_PATH"`
}

type CacheConfig struct {
	Enabled     bool          `envconfig:"CACHE_ENABLED" default:"true"`
	TTL         time.Duration `envconfig:"CACHE_TTL" default:"1m"`
	MaxSize     int           `envconfig:"CACHE_MAX_SIZE" default:"64"`
	PurgeWindow time.Duration `envconfig:"CACHE_PURGE_WINDOW" default:"5m"`
	RedisURL    string        `envconfig:"REDIS_URL"`
}

type ObservabilityConfig struct {
	MetricsEnabled    bool          `envconfig:"METRICS_ENABLED" default:"true"`
	TracingEnabled    bool          `envconfig:"TRACING_ENABLED" default:"false"`
	OpenAPISchemaPath string        `envconfig:"OPENAPI_SCHEMA_PATH"`
	HealthInterval    time.Duration `envconfig:"HEALTH_CHECK_INTERVAL" default:"30s"`
}

type SecretsConfig struct {
	VaultEnabled bool          `envconfig:"VAULT_ENABLED" default:"false"`
	VaultAddr    string        `envconfig:"VAULT_ADDR" default:"http://localhost:8200"`
	VaultToken   string        `envconfig:"VAULT_TOKEN"`
	VaultPath    string        `envconfig:"VAULT_PATH" default:"chat-sentiment"`
	CacheTTL     time.Duration `envconfig:"SECRETS_CACHE_TTL" default:"5m"`
}

// Load reads an optional .env file and decodes the environment into a Config.
func Load() (*Config, error) {
	// A missing .env file is normal outside local development.
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	c.Database.Driver = strings.ToLower(strings.TrimSpace(c.Database.Driver))
	switch c.Database.Driver {
	case DriverSQLite, DriverPostgres, DriverBadger:
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.Database.Driver)
	}
	if c.Services.SentimentTimeout <= 0 {
		return fmt.Errorf("AI_SERVICE_TIMEOUT must be positive, got %s", c.Services.SentimentTimeout)
	}
	return nil
}

// Namespace identifies the message store so caches shared between stores keep
// their entries apart.
func (d DatabaseConfig) Namespace() string {
	switch d.Driver {
	case DriverPostgres:
		return fmt.Sprintf("%s:%s:%s/%s", d.Driver, d.Host, d.Port, d.Name)
	default:
		return d.Driver + ":" + d.Path
	}
}

// IsProduction reports whether the service runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}
