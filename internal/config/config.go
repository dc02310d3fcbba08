package config

import (
	"fmt"
	"log"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port                 string        `mapstructure:"PORT"`
	Env                  string        `mapstructure:"ENV"`
	DatabaseURL          string        `mapstructure:"DATABASE_URL"`
	DBMaxConns           int32         `mapstructure:"DB_MAX_CONNS"`
	DBMinConns           int32         `mapstructure:"DB_MIN_CONNS"`
	DefaultTenant        string        `mapstructure:"DEFAULT_TENANT"`
	CORSOrigins          []string      `mapstructure:"CORS_ORIGINS"`
	AuthIssuer           string        `mapstructure:"AUTH_ISSUER"`
	AuthAudience         string        `mapstructure:"AUTH_AUDIENCE"`
	AuthJWKSURL          string        `mapstructure:"AUTH_JWKS_URL"`
	FHIRBaseURL          string        `mapstructure:"FHIR_BASE_URL"`
	FHIRUsername         string        `mapstructure:"FHIR_USERNAME"`
	FHIRPassword         string        `mapstructure:"FHIR_PASSWORD"`
	FHIRTimeout          time.Duration `mapstructure:"FHIR_TIMEOUT"`
	LastVisitConcurrency int           `mapstructure:"LAST_VISIT_CONCURRENCY"`
	SPABaseURL           string        `mapstructure:"SPA_BASE_URL"`
	RateLimitRPS         float64       `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst       int           `mapstructure:"RATE_LIMIT_BURST"`
	RequestTimeout       time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	BodyLimit            string        `mapstructure:"BODY_LIMIT"`
}

var keys = []string{
	"PORT", "ENV", "DATABASE_URL", "DB_MAX_CONNS", "DB_MIN_CONNS", "DEFAULT_TENANT",
	"CORS_ORIGINS", "AUTH_ISSUER", "AUTH_AUDIENCE", "AUTH_JWKS_URL",
	"FHIR_BASE_URL", "FHIR_USERNAME", "FHIR_PASSWORD", "FHIR_TIMEOUT",
	"LAST_VISIT_CONCURRENCY", "SPA_BASE_URL", "RATE_LIMIT_RPS", "RATE_LIMIT_BURST",
	"REQUEST_TIMEOUT", "BODY_LIMIT",
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 2)
	v.SetDefault("DEFAULT_TENANT", "default")
	v.SetDefault("CORS_ORIGINS", "http://localhost:8080")
	v.SetDefault("FHIR_BASE_URL", "http://localhost:8080/openmrs/ws/fhir2/R4")
	v.SetDefault("FHIR_TIMEOUT", "15s")
	v.SetDefault("LAST_VISIT_CONCURRENCY", 8)
	v.SetDefault("SPA_BASE_URL", "/openmrs/spa")
	v.SetDefault("RATE_LIMIT_RPS", 50)
	v.SetDefault("RATE_LIMIT_BURST", 100)
	v.SetDefault("REQUEST_TIMEOUT", "30s")
	v.SetDefault("BODY_LIMIT", "64K")

	// Bind env vars explicitly so Unmarshal picks them up
	for _, k := range keys {
		_ = v.BindEnv(k)
	}

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if len(cfg.CORSOrigins) == 1 && strings.Contains(cfg.CORSOrigins[0], ",") {
		cfg.CORSOrigins = strings.Split(cfg.CORSOrigins[0], ",")
	}
	cfg.SPABaseURL = strings.TrimRight(cfg.SPABaseURL, "/")

	if cfg.IsDev() {
		log.Println("WARNING: running in DEVELOPMENT mode (ENV=development): all requests get admin access.")
	}

	return cfg, nil
}

// HasDatabase reports whether a database is configured. The patient list runs
// without one; cohorts, migrations and tenants need it.
func (c *Config) HasDatabase() bool {
	return c.DatabaseURL != ""
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction returns true when the server is configured for production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Validate checks that the configuration is safe to run. Outside development
// a JWKS URL is required so bearer tokens can be verified.
func (c *Config) Validate() error {
	if !c.IsDev() && c.AuthJWKSURL == "" {
		return fmt.Errorf("AUTH_JWKS_URL must be set when ENV=%q", c.Env)
	}

	u, err := url.Parse(c.FHIRBaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("FHIR_BASE_URL must be an absolute http(s) URL, got %q", c.FHIRBaseURL)
	}
	if c.IsProduction() && c.FHIRUsername == "" {
		return fmt.Errorf("FHIR_USERNAME is required in production")
	}

	if c.LastVisitConcurrency < 1 {
		return fmt.Errorf("LAST_VISIT_CONCURRENCY must be at least 1, got %d", c.LastVisitConcurrency)
	}
	if c.FHIRTimeout <= 0 {
		return fmt.Errorf("FHIR_TIMEOUT must be positive, got %s", c.FHIRTimeout)
	}
	if c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("DB_MIN_CONNS (%d) exceeds DB_MAX_CONNS (%d)", c.DBMinConns, c.DBMaxConns)
	}

	return nil
}
