// Package config reads marketd settings from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const minJWTSecret = 32

var ErrWeakSecret = fmt.Errorf("JWT_SECRET is required and must be at least %d chars", minJWTSecret)

type Config struct {
	Port         string
	LogLevel     string
	JWTSecret    string
	TokenTTL     time.Duration
	MetricsToken string

	// DatabaseURL switches the catalog to Postgres when set.
	DatabaseURL string
	// CatalogSeed names a YAML seed file; empty uses the built-in seed.
	CatalogSeed string

	PredictURL     string
	PredictTimeout time.Duration
}

// Load reads the environment through getenv, which is os.Getenv when nil.
func Load(getenv func(string) string) (Config, error) {
	if getenv == nil {
		getenv = os.Getenv
	}
	get := func(k, def string) string {
		if v := strings.TrimSpace(getenv(k)); v != "" {
			return v
		}
		return def
	}

	cfg := Config{
		Port:         get("PORT", "8080"),
		LogLevel:     get("LOG_LEVEL", "info"),
		JWTSecret:    getenv("JWT_SECRET"),
		MetricsToken: getenv("METRICS_TOKEN"),
		DatabaseURL:  getenv("DATABASE_URL"),
		CatalogSeed:  getenv("CATALOG_SEED"),
		PredictURL:   get("PREDICT_URL", "http://127.0.0.1:5000"),
	}

	var err error
	if cfg.TokenTTL, err = duration(get("TOKEN_TTL", "15m")); err != nil {
		return Config{}, fmt.Errorf("TOKEN_TTL: %w", err)
	}
	if cfg.PredictTimeout, err = duration(get("PREDICT_TIMEOUT", "3s")); err != nil {
		return Config{}, fmt.Errorf("PREDICT_TIMEOUT: %w", err)
	}
	if _, err := strconv.Atoi(cfg.Port); err != nil {
		return Config{}, fmt.Errorf("PORT: %w", err)
	}

	return cfg, nil
}

// Validate enforces settings marketd refuses to start without.
func (c Config) Validate() error {
	if len(c.JWTSecret) < minJWTSecret {
		return ErrWeakSecret
	}
	return nil
}

func (c Config) Addr() string { return ":" + c.Port }

func duration(s string) (time.Duration, error) {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, errors.New("must be positive")
	}
	return d, nil
}
