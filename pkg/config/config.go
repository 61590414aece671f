package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Sort keys accepted by the college catalog.
const (
	SortAdmissionRate = "admission_rate"
	SortTuition       = "tuition"
)

// Ranking failure policies.
const (
	PolicyFail    = "fail"
	PolicyDegrade = "degrade"
)

// Ranking providers.
const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
)

// Models used when RANKING_MODEL is unset.
const (
	DefaultAnthropicModel = "claude-sonnet-4-20250514"
	DefaultOpenAIModel    = "gpt-4o"
)

// Config holds all configuration for the college-match engine.
// Configuration can come from YAML file (config.yaml) or environment variables.
// Environment variables always override YAML values for fields that support both.
// Secrets (passwords, keys) must only come from environment variables.
type Config struct {
	// Server configuration
	BindAddr string `yaml:"bind_addr" env:"BIND_ADDR" env-default:"127.0.0.1"`
	Port     string `yaml:"port" env:"PORT" env-default:"8080"`
	Env      string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	LogLevel string `yaml:"log_level" env:"LOG_LEVEL" env-default:"info"`
	Version  string `yaml:"-"` // Set at load time, not from config

	// ShutdownTimeout bounds graceful shutdown of in-flight requests.
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT" env-default:"30s"`

	Auth     AuthConfig     `yaml:"auth"`
	CORS     CORSConfig     `yaml:"cors"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Catalog  CatalogConfig  `yaml:"catalog"`
	Ranking  RankingConfig  `yaml:"ranking"`
	Search   SearchConfig   `yaml:"search"`
}

// AuthConfig holds authentication-related configuration.
type AuthConfig struct {
	// EnableVerification controls whether JWT tokens are validated.
	// Set to false for local development without auth server.
	EnableVerification bool `yaml:"enable_verification" env:"AUTH_ENABLE_VERIFICATION" env-default:"true"`

	// JWKSEndpointsStr is a comma-separated list of issuer=jwks_url pairs.
	// Format: "issuer1=url1,issuer2=url2"
	JWKSEndpointsStr string `yaml:"jwks_endpoints" env:"JWKS_ENDPOINTS" env-default:""`

	// Audience every accepted token must carry in its aud claim.
	Audience string `yaml:"audience" env:"AUTH_AUDIENCE" env-default:"collegematch"`

	// JWKSEndpoints is the parsed map from JWKSEndpointsStr (not from config file).
	JWKSEndpoints map[string]string `yaml:"-"`
}

// CORSConfig lists the browser origins allowed to call the API.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins" env:"CORS_ALLOWED_ORIGINS" env-separator:"," env-default:"http://localhost:3000"`
	MaxAge         int      `yaml:"max_age" env:"CORS_MAX_AGE" env-default:"300"`
}

// DatabaseConfig holds PostgreSQL database configuration.
type DatabaseConfig struct {
	Host           string `yaml:"host" env:"PGHOST" env-default:"localhost"`
	Port           int    `yaml:"port" env:"PGPORT" env-default:"5432"`
	User           string `yaml:"user" env:"PGUSER" env-default:"collegematch"`
	Password       string `yaml:"-" env:"PGPASSWORD"` // Secret - not in YAML
	Database       string `yaml:"database" env:"PGDATABASE" env-default:"collegematch"`
	MaxConnections int32  `yaml:"max_connections" env:"PGMAX_CONNECTIONS" env-default:"25"`
	SSLMode        string `yaml:"ssl_mode" env:"PGSSLMODE" env-default:"disable"`
}

// RedisConfig holds the optional catalog response cache connection.
// An empty host disables caching.
type RedisConfig struct {
	Host     string `yaml:"host" env:"REDIS_HOST" env-default:""`
	Port     int    `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
	Password string `yaml:"-" env:"REDIS_PASSWORD"` // Secret - not in YAML
	DB       int    `yaml:"db" env:"REDIS_DB" env-default:"0"`
}

// CatalogConfig configures the College Scorecard client.
type CatalogConfig struct {
	BaseURL     string        `yaml:"base_url" env:"SCORECARD_BASE_URL" env-default:"https://api.data.gov/ed/collegescorecard/v1/schools"`
	APIKey      string        `yaml:"-" env:"SCORECARD_API_KEY"` // Secret - not in YAML
	Timeout     time.Duration `yaml:"timeout" env:"SCORECARD_TIMEOUT" env-default:"30s"`
	MaxBudget   int           `yaml:"max_budget" env:"SCORECARD_MAX_BUDGET" env-default:"80000"`
	PerPage     int           `yaml:"per_page" env:"SCORECARD_PER_PAGE" env-default:"100"`
	SortKey     string        `yaml:"sort_key" env:"SCORECARD_SORT_KEY" env-default:"admission_rate"`
	MaxAttempts int           `yaml:"max_attempts" env:"SCORECARD_MAX_ATTEMPTS" env-default:"3"`
	RetryDelay  time.Duration `yaml:"retry_delay" env:"SCORECARD_RETRY_DELAY" env-default:"1s"`
	CacheTTL    time.Duration `yaml:"cache_ttl" env:"SCORECARD_CACHE_TTL" env-default:"6h"`
}

// RankingConfig configures the generative ranking provider.
type RankingConfig struct {
	Enabled   bool   `yaml:"enabled" env:"RANKING_ENABLED" env-default:"true"`
	Provider  string `yaml:"provider" env:"RANKING_PROVIDER" env-default:"anthropic"`
	Model     string `yaml:"model" env:"RANKING_MODEL" env-default:""` // empty selects the provider's default
	BaseURL   string `yaml:"base_url" env:"RANKING_BASE_URL" env-default:""`
	MaxTokens int    `yaml:"max_tokens" env:"RANKING_MAX_TOKENS" env-default:"8192"`

	AnthropicAPIKey string `yaml:"-" env:"ANTHROPIC_API_KEY"` // Secret - not in YAML
	OpenAIAPIKey    string `yaml:"-" env:"OPENAI_API_KEY"`    // Secret - not in YAML

	// Circuit breaker around the provider.
	BreakerFailures uint32        `yaml:"breaker_failures" env:"RANKING_BREAKER_FAILURES" env-default:"5"`
	BreakerTimeout  time.Duration `yaml:"breaker_timeout" env:"RANKING_BREAKER_TIMEOUT" env-default:"60s"`
}

// APIKey returns the key for the configured provider.
func (c *RankingConfig) APIKey() string {
	if c.Provider == ProviderOpenAI {
		return c.OpenAIAPIKey
	}
	return c.AnthropicAPIKey
}

// ModelName returns the configured model, or the default for the provider.
func (c *RankingConfig) ModelName() string {
	if c.Model != "" {
		return c.Model
	}
	if c.Provider == ProviderOpenAI {
		return DefaultOpenAIModel
	}
	return DefaultAnthropicModel
}

// IsAvailable returns true if ranking is enabled and a provider key is present.
func (c *RankingConfig) IsAvailable() bool {
	return c.Enabled && c.APIKey() != ""
}

// SearchConfig configures the search pipeline.
type SearchConfig struct {
	Timeout              time.Duration `yaml:"timeout" env:"SEARCH_TIMEOUT" env-default:"90s"`
	RankingFailurePolicy string        `yaml:"ranking_failure_policy" env:"SEARCH_RANKING_FAILURE_POLICY" env-default:"fail"`
	HistoryLimit         int           `yaml:"history_limit" env:"SEARCH_HISTORY_LIMIT" env-default:"10"`
	MaxHistoryLimit      int           `yaml:"max_history_limit" env:"SEARCH_MAX_HISTORY_LIMIT" env-default:"50"`

	// Per-user throttle on search creation.
	RateLimitPerMinute int `yaml:"rate_limit_per_minute" env:"SEARCH_RATE_LIMIT_PER_MINUTE" env-default:"6"`
	RateLimitBurst     int `yaml:"rate_limit_burst" env:"SEARCH_RATE_LIMIT_BURST" env-default:"2"`
}

// Load reads configuration from config.yaml (if present) with environment variable
// overrides. A local .env file is loaded into the environment first; variables
// already set in the process take precedence over it.
func Load(version string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env: %w", err)
	}

	cfg := &Config{
		Version: version,
	}

	if _, err := os.Stat("config.yaml"); err == nil {
		if err := cleanenv.ReadConfig("config.yaml", cfg); err != nil {
			return nil, fmt.Errorf("failed to read config.yaml: %w", err)
		}
	} else {
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("failed to read environment: %w", err)
		}
	}

	cfg.Auth.JWKSEndpoints = parseJWKSEndpoints(cfg.Auth.JWKSEndpointsStr)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks enum values and numeric ranges that cleanenv cannot express.
func (c *Config) Validate() error {
	switch c.Catalog.SortKey {
	case SortAdmissionRate, SortTuition:
	default:
		return fmt.Errorf("catalog.sort_key must be %q or %q, got %q", SortAdmissionRate, SortTuition, c.Catalog.SortKey)
	}

	switch c.Search.RankingFailurePolicy {
	case PolicyFail, PolicyDegrade:
	default:
		return fmt.Errorf("search.ranking_failure_policy must be %q or %q, got %q", PolicyFail, PolicyDegrade, c.Search.RankingFailurePolicy)
	}

	switch c.Ranking.Provider {
	case ProviderAnthropic, ProviderOpenAI:
	default:
		return fmt.Errorf("ranking.provider must be %q or %q, got %q", ProviderAnthropic, ProviderOpenAI, c.Ranking.Provider)
	}

	if c.Catalog.MaxBudget <= 0 {
		return fmt.Errorf("catalog.max_budget must be positive")
	}
	if c.Catalog.MaxAttempts < 1 {
		return fmt.Errorf("catalog.max_attempts must be at least 1")
	}
	if c.Catalog.PerPage < 1 || c.Catalog.PerPage > 100 {
		return fmt.Errorf("catalog.per_page must be between 1 and 100")
	}
	if c.Ranking.MaxTokens < 1 {
		return fmt.Errorf("ranking.max_tokens must be positive")
	}
	if c.Search.Timeout <= 0 {
		return fmt.Errorf("search.timeout must be positive")
	}
	if c.Search.HistoryLimit < 1 || c.Search.HistoryLimit > c.Search.MaxHistoryLimit {
		return fmt.Errorf("search.history_limit must be between 1 and %d", c.Search.MaxHistoryLimit)
	}
	return nil
}

// parseJWKSEndpoints parses the JWKS endpoints string into a map.
// Format: "issuer1=url1,issuer2=url2"
func parseJWKSEndpoints(value string) map[string]string {
	endpoints := make(map[string]string)
	if value == "" {
		return endpoints
	}

	for _, pair := range strings.Split(value, ",") {
		issuer, jwksURL, ok := strings.Cut(pair, "=")
		if ok {
			endpoints[strings.TrimSpace(issuer)] = strings.TrimSpace(jwksURL)
		}
	}
	return endpoints
}

// ConnectionString returns a PostgreSQL connection string.
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// URL returns the connection string in URL form, as golang-migrate expects.
func (c *DatabaseConfig) URL() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     "/" + c.Database,
		RawQuery: "sslmode=" + url.QueryEscape(c.SSLMode),
	}
	return u.String()
}
