// Package appconf holds process-level configuration shared by the API server
// and the GTFS manager. Values come from environment variables, optionally
// seeded from a .env file.
package appconf

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Environment int

const (
	Test Environment = iota
	Development
	Production
)

// EnvFlagToEnvironment maps the --env flag (or APP_ENV) to an Environment.
// Unknown values fall back to Development.
func EnvFlagToEnvironment(env string) Environment {
	switch env {
	case "production":
		return Production
	case "test":
		return Test
	default:
		return Development
	}
}

func (e Environment) String() string {
	switch e {
	case Production:
		return "production"
	case Test:
		return "test"
	default:
		return "development"
	}
}

// Config is the application-level configuration. GTFS-specific settings live
// in the gtfs package's own Config; this covers the HTTP surface and process
// concerns.
type Config struct {
	Env           Environment
	ListenAddr    string
	Verbose       bool
	RatePerSecond int
	RateBurst     int
}

// Load reads configuration from the environment. A .env file in the working
// directory is loaded first if present; real environment variables win.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Env:           EnvFlagToEnvironment(os.Getenv("APP_ENV")),
		ListenAddr:    getenvDefault("LISTEN_ADDR", ":3000"),
		RatePerSecond: 100,
		RateBurst:     200,
	}

	if v := os.Getenv("VERBOSE"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid VERBOSE: %q", v)
		}
		cfg.Verbose = b
	}

	if v := os.Getenv("RATE_LIMIT_PER_SECOND"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return Config{}, fmt.Errorf("invalid RATE_LIMIT_PER_SECOND: %q", v)
		}
		cfg.RatePerSecond = n
		if cfg.RateBurst < n {
			cfg.RateBurst = n
		}
	}

	return cfg, nil
}

// GetenvDuration reads a duration expressed in seconds from the environment,
// returning fallback when unset. Errors on non-integer values.
func GetenvDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	secs, err := strconv.Atoi(v)
	if err != nil || secs <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, v)
	}
	return time.Duration(secs) * time.Second, nil
}

func getenvDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
