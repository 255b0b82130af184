package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port              string   `mapstructure:"PORT"`
	Env               string   `mapstructure:"ENV"`
	EHRBaseURL        string   `mapstructure:"EHR_BASE_URL"`
	EHRUsername       string   `mapstructure:"EHR_USERNAME"`
	EHRPassword       string   `mapstructure:"EHR_PASSWORD"`
	EHRTimeoutSeconds int      `mapstructure:"EHR_TIMEOUT_SECONDS"`
	FetchConcurrency  int      `mapstructure:"FETCH_CONCURRENCY"`
	AuthSecret        string   `mapstructure:"AUTH_SECRET"`
	CORSOrigins       []string `mapstructure:"CORS_ORIGINS"`
	RateLimitRPS      float64  `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst    int      `mapstructure:"RATE_LIMIT_BURST"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("EHR_TIMEOUT_SECONDS", 30)
	v.SetDefault("FETCH_CONCURRENCY", 4)
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("RATE_LIMIT_RPS", 100)
	v.SetDefault("RATE_LIMIT_BURST", 200)

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("PORT")
	v.BindEnv("ENV")
	v.BindEnv("EHR_BASE_URL")
	v.BindEnv("EHR_USERNAME")
	v.BindEnv("EHR_PASSWORD")
	v.BindEnv("EHR_TIMEOUT_SECONDS")
	v.BindEnv("FETCH_CONCURRENCY")
	v.BindEnv("AUTH_SECRET")
	v.BindEnv("CORS_ORIGINS")
	v.BindEnv("RATE_LIMIT_RPS")
	v.BindEnv("RATE_LIMIT_BURST")

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

	if cfg.EHRBaseURL == "" {
		return nil, fmt.Errorf("EHR_BASE_URL is required")
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// EHRTimeout returns the outbound request timeout as a duration.
func (c *Config) EHRTimeout() time.Duration {
	return time.Duration(c.EHRTimeoutSeconds) * time.Second
}

// Validate checks that the configuration is safe to run. Outside
// development mode the EHR credentials and an AUTH_SECRET for inbound
// bearer tokens are required.
func (c *Config) Validate() error {
	if !c.IsDev() {
		if c.EHRUsername == "" || c.EHRPassword == "" {
			return fmt.Errorf("EHR_USERNAME and EHR_PASSWORD are required when ENV=%q", c.Env)
		}
		if c.AuthSecret == "" {
			return fmt.Errorf("AUTH_SECRET is required when ENV=%q", c.Env)
		}
	}
	if c.FetchConcurrency < 0 {
		return fmt.Errorf("FETCH_CONCURRENCY must not be negative, got %d", c.FetchConcurrency)
	}
	if c.EHRTimeoutSeconds <= 0 {
		return fmt.Errorf("EHR_TIMEOUT_SECONDS must be positive, got %d", c.EHRTimeoutSeconds)
	}
	return nil
}
