package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port               string   `mapstructure:"PORT"`
	Env                string   `mapstructure:"ENV"`
	DatabaseURL        string   `mapstructure:"DATABASE_URL"`
	DBMaxConns         int32    `mapstructure:"DB_MAX_CONNS"`
	DBMinConns         int32    `mapstructure:"DB_MIN_CONNS"`
	CORSOrigins        []string `mapstructure:"CORS_ORIGINS"`
	ScorerURL          string   `mapstructure:"SCORER_URL"`
	ScorerTimeoutMS    int      `mapstructure:"SCORER_TIMEOUT_MS"`
	AgingSweepSecs     int      `mapstructure:"AGING_SWEEP_INTERVAL_SECS"`
	AgingThresholdMins int      `mapstructure:"AGING_THRESHOLD_MINS"`
	AgingStepMins      int      `mapstructure:"AGING_STEP_MINS"`
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
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("SCORER_TIMEOUT_MS", 2000)
	v.SetDefault("AGING_SWEEP_INTERVAL_SECS", 120)
	v.SetDefault("AGING_THRESHOLD_MINS", 15)
	v.SetDefault("AGING_STEP_MINS", 5)

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("PORT")
	v.BindEnv("ENV")
	v.BindEnv("DATABASE_URL")
	v.BindEnv("DB_MAX_CONNS")
	v.BindEnv("DB_MIN_CONNS")
	v.BindEnv("CORS_ORIGINS")
	v.BindEnv("SCORER_URL")
	v.BindEnv("SCORER_TIMEOUT_MS")
	v.BindEnv("AGING_SWEEP_INTERVAL_SECS")
	v.BindEnv("AGING_THRESHOLD_MINS")
	v.BindEnv("AGING_STEP_MINS")

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

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// ScorerTimeout returns the bounded wait applied to external scorer calls.
func (c *Config) ScorerTimeout() time.Duration {
	return time.Duration(c.ScorerTimeoutMS) * time.Millisecond
}

// AgingSweepInterval returns the cadence of the starvation aging sweep.
func (c *Config) AgingSweepInterval() time.Duration {
	return time.Duration(c.AgingSweepSecs) * time.Second
}

// Validate checks that the configuration is safe to run. The aging knobs
// feed directly into score arithmetic, so zero or negative values are
// rejected up front instead of surfacing as division faults later.
func (c *Config) Validate() error {
	if c.ScorerTimeoutMS <= 0 {
		return fmt.Errorf("SCORER_TIMEOUT_MS must be positive, got %d", c.ScorerTimeoutMS)
	}
	if c.AgingSweepSecs <= 0 {
		return fmt.Errorf("AGING_SWEEP_INTERVAL_SECS must be positive, got %d", c.AgingSweepSecs)
	}
	if c.AgingThresholdMins < 0 {
		return fmt.Errorf("AGING_THRESHOLD_MINS must not be negative, got %d", c.AgingThresholdMins)
	}
	if c.AgingStepMins <= 0 {
		return fmt.Errorf("AGING_STEP_MINS must be positive, got %d", c.AgingStepMins)
	}
	return nil
}
