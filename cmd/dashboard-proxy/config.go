package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/ulule/limiter/v3"
)

const production = "production"

// Config is read from the environment, optionally seeded by .env files.
type Config struct {
	Port        string   `env:"PORT" envDefault:"8080"`
	APIURL      string   `env:"DASHBOARD_API_URL" envDefault:"http://localhost:3000"`
	UserAgent   string   `env:"USER_AGENT" envDefault:"admin-dashboard-proxy/1.0"`
	RedisURL    string   `env:"REDIS_URL"`
	Environment string   `env:"APP_ENV" envDefault:"development"`
	Origins     []string `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000"`
	AuthRate    string   `env:"AUTH_RATE_LIMIT" envDefault:"20-M"`
	LogLevel    string   `env:"LOG_LEVEL" envDefault:"info"`
	LogPretty   bool     `env:"LOG_PRETTY" envDefault:"false"`
}

// Production reports whether cookies must be Secure.
func (c Config) Production() bool {
	return c.Environment == production
}

// Rate parses AuthRate ("<limit>-<S|M|H|D>").
func (c Config) Rate() (limiter.Rate, error) {
	rate, err := limiter.NewRateFromFormatted(c.AuthRate)
	if err != nil {
		return limiter.Rate{}, fmt.Errorf("parse AUTH_RATE_LIMIT %q: %w", c.AuthRate, err)
	}
	return rate, nil
}

// loadEnvFiles loads the env files that exist; missing ones are skipped.
func loadEnvFiles(files ...string) error {
	existing := make([]string, 0, len(files))
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			existing = append(existing, f)
		} else if !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("stat %s: %w", f, err)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	return godotenv.Load(existing...)
}

func loadConfig(files ...string) (Config, error) {
	if err := loadEnvFiles(files...); err != nil {
		return Config{}, fmt.Errorf("load env files: %w", err)
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}
	if _, err := cfg.Rate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
