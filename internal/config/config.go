package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port           string   `mapstructure:"PORT"`
	Env            string   `mapstructure:"ENV"`
	DatabaseURL    string   `mapstructure:"DATABASE_URL"`
	DBMaxConns     int32    `mapstructure:"DB_MAX_CONNS"`
	DBMinConns     int32    `mapstructure:"DB_MIN_CONNS"`
	AuthIssuer     string   `mapstructure:"AUTH_ISSUER"`
	AuthJWKSURL    string   `mapstructure:"AUTH_JWKS_URL"`
	AuthAudience   string   `mapstructure:"AUTH_AUDIENCE"`
	DefaultClinic  string   `mapstructure:"DEFAULT_CLINIC"`
	CORSOrigins    []string `mapstructure:"CORS_ORIGINS"`
	RateLimitRPS   float64  `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst int      `mapstructure:"RATE_LIMIT_BURST"`

	// Operator web-service transmission budget.
	TISSWSBaseURL     string        `mapstructure:"TISS_WS_BASE_URL"`
	TISSWSTimeout     time.Duration `mapstructure:"TISS_WS_TIMEOUT"`
	TISSWSMaxAttempts int           `mapstructure:"TISS_WS_MAX_ATTEMPTS"`
}

// WebServiceConfig carries the timeout/retry budget handed to the batch
// transmission layer. The core supplies these values but never implements
// retry policy beyond them.
type WebServiceConfig struct {
	BaseURL     string
	Timeout     time.Duration
	MaxAttempts int
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 5)
	v.SetDefault("DEFAULT_CLINIC", "default")
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("RATE_LIMIT_RPS", 100)
	v.SetDefault("RATE_LIMIT_BURST", 200)
	v.SetDefault("TISS_WS_TIMEOUT", "30s")
	v.SetDefault("TISS_WS_MAX_ATTEMPTS", 3)

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("PORT")
	v.BindEnv("ENV")
	v.BindEnv("DATABASE_URL")
	v.BindEnv("DB_MAX_CONNS")
	v.BindEnv("DB_MIN_CONNS")
	v.BindEnv("AUTH_ISSUER")
	v.BindEnv("AUTH_JWKS_URL")
	v.BindEnv("AUTH_AUDIENCE")
	v.BindEnv("DEFAULT_CLINIC")
	v.BindEnv("CORS_ORIGINS")
	v.BindEnv("RATE_LIMIT_RPS")
	v.BindEnv("RATE_LIMIT_BURST")
	v.BindEnv("TISS_WS_BASE_URL")
	v.BindEnv("TISS_WS_TIMEOUT")
	v.BindEnv("TISS_WS_MAX_ATTEMPTS")

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.CORSOrigins == nil {
		origins := v.GetString("CORS_ORIGINS")
		if origins != "" {
			cfg.CORSOrigins = strings.Split(origins, ",")
		}
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if cfg.IsDev() {
		log.Println("WARNING: server is running in DEVELOPMENT mode (ENV=development).")
		log.Println("WARNING: DevAuthMiddleware is active; all requests get admin access.")
		log.Println("WARNING: set ENV=production and configure AUTH_ISSUER for production.")
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction returns true when the server is configured for production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// WebService returns the transmission budget derived from the loaded config.
func (c *Config) WebService() WebServiceConfig {
	ws := WebServiceConfig{
		BaseURL:     c.TISSWSBaseURL,
		Timeout:     c.TISSWSTimeout,
		MaxAttempts: c.TISSWSMaxAttempts,
	}
	if ws.Timeout <= 0 {
		ws.Timeout = 30 * time.Second
	}
	if ws.MaxAttempts <= 0 {
		ws.MaxAttempts = 1
	}
	return ws
}

// Validate checks that the configuration is safe to run. Outside development,
// AUTH_ISSUER must be set so real JWT authentication is enforced.
func (c *Config) Validate() error {
	if !c.IsDev() && c.AuthIssuer == "" {
		return fmt.Errorf(
			"AUTH_ISSUER must be set when ENV is %q; refusing to start without authentication configuration", c.Env)
	}
	if c.IsProduction() && c.TISSWSBaseURL == "" {
		return fmt.Errorf("TISS_WS_BASE_URL is required in production")
	}
	return nil
}
