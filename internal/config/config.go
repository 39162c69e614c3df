// Package config provides configuration structures and loading for the price
// comparison service. Components receive an explicit config struct at
// construction time; nothing reads the environment outside Load.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
)

// Config holds all configuration for the price comparison service.
type Config struct {
	// PostgreSQL connection string; empty disables persistence.
	PostgresDSN string `env:"POSTGRES_DSN"`
	// Log level (debug, info, warn, error)
	LogLevel string `env:"LOG_LEVEL" envDefault:"info" validate:"oneof=debug info warn error"`
	// Log format (json, console)
	LogFormat string `env:"LOG_FORMAT" envDefault:"json" validate:"oneof=json console"`
	// HTTP server address
	HTTPAddr string `env:"HTTP_ADDR" envDefault:":8080"`
	// Persist normalized prices after searches and refreshes
	StoreResults bool `env:"STORE_RESULTS" envDefault:"true"`
	// Retry budget per provider call
	MaxRetries int `env:"MAX_RETRIES" envDefault:"3" validate:"gte=0"`
	// First backoff delay; doubles per attempt
	InitialDelay time.Duration `env:"INITIAL_DELAY" envDefault:"1s"`
	// Concurrent adapter calls during fan-out
	Concurrency int `env:"CONCURRENCY" envDefault:"4" validate:"gte=1"`
	// Default result limit when a search does not specify one
	DefaultLimit int `env:"DEFAULT_LIMIT" envDefault:"10" validate:"gte=1"`
	// Locale for formatted price strings
	Locale string `env:"LOCALE" envDefault:"en-US"`
	// Hour of day (0-23) for the daily price refresh
	RefreshHour int `env:"REFRESH_HOUR" envDefault:"6" validate:"gte=0,lte=23"`
	// Barcodes refreshed daily by the scheduler
	TrackedIdentifiers []string `env:"TRACKED_IDENTIFIERS"`
	// Enabled providers
	Providers []string `env:"PROVIDERS" envDefault:"serpapi,amazon,scrapingbee,bestbuy"`

	SerpAPI     SerpAPIConfig     `envPrefix:"SERPAPI_"`
	Amazon      AmazonConfig      `envPrefix:"AMAZON_"`
	ScrapingBee ScrapingBeeConfig `envPrefix:"SCRAPINGBEE_"`
}

// SerpAPIConfig holds credentials and settings for the SerpAPI provider.
type SerpAPIConfig struct {
	APIKey string `env:"API_KEY"`
	Engine string `env:"ENGINE" envDefault:"google_shopping"`
	// CategoryMap maps internal category slugs to provider search facets.
	CategoryMap map[string]string `env:"CATEGORY_MAP"`
}

// AmazonConfig holds credentials for the Product Advertising API.
type AmazonConfig struct {
	AccessKey  string `env:"ACCESS_KEY"`
	SecretKey  string `env:"SECRET_KEY"`
	PartnerTag string `env:"PARTNER_TAG"`
	Region     string `env:"REGION" envDefault:"us-east-1"`
	Host       string `env:"HOST" envDefault:"webservices.amazon.com"`
	// CategoryMap maps internal category slugs to PA-API search indices.
	CategoryMap map[string]string `env:"CATEGORY_MAP"`
}

// ScrapingBeeConfig holds credentials and target for the proxy-extraction
// provider.
type ScrapingBeeConfig struct {
	APIKey     string `env:"API_KEY"`
	TargetBase string `env:"TARGET_BASE" envDefault:"https://www.walmart.com"`
	StoreID    string `env:"STORE_ID" envDefault:"walmart"`
	StoreName  string `env:"STORE_NAME" envDefault:"Walmart"`
}

// Load builds a Config from defaults and environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	return cfg, nil
}

// Validate checks field constraints. Called once after flag overrides.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}
