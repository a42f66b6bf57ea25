package main

import (
	"os"
	"time"

	"github.com/joho/godotenv"

	"numberline/internal/engine"
)

// Config holds the server settings read from the environment.
type Config struct {
	Port            string
	IsProduction    bool
	DefaultMode     engine.Mode
	SessionTimeout  time.Duration
	CookieMaxAge    time.Duration
	StaticCacheAge  time.Duration
	CleanupInterval time.Duration
	RateLimitRPS    int
	RateLimitBurst  int
}

// loadConfig reads .env (if present) and the process environment.
func loadConfig() Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logWarn("Failed to load .env: %v", err)
	}

	cfg := Config{
		Port:            getEnvString("PORT", "8080"),
		IsProduction:    os.Getenv("GIN_MODE") == "release" || os.Getenv("ENV") == "production",
		DefaultMode:     engine.Normal,
		SessionTimeout:  getEnvDuration("SESSION_TIMEOUT", 2*time.Hour),
		CookieMaxAge:    getEnvDuration("COOKIE_MAX_AGE", 2*time.Hour),
		StaticCacheAge:  getEnvDuration("STATIC_CACHE_AGE", 5*time.Minute),
		CleanupInterval: getEnvDuration("SESSION_CLEANUP_INTERVAL", 10*time.Minute),
		RateLimitRPS:    getEnvInt("RATE_LIMIT_RPS", 5),
		RateLimitBurst:  getEnvInt("RATE_LIMIT_BURST", 10),
	}

	if name := getEnvString("DEFAULT_MODE", ""); name != "" {
		if mode, ok := engine.ModeByName(name); ok {
			cfg.DefaultMode = mode
		} else {
			logWarn("Unknown DEFAULT_MODE %q, using %s", name, cfg.DefaultMode.Name)
		}
	}
	return cfg
}

// envName returns the label used in logs and /healthz.
func (c Config) envName() string {
	if c.IsProduction {
		return "production"
	}
	return "development"
}
