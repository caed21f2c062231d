package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/joho/godotenv"
)

// Cache backends.
const (
	CacheNone   = "none"
	CacheMemory = "memory"
	CacheRedis  = "redis"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	GinMode         string
	ShutdownTimeout time.Duration

	// Model artifacts, loaded once at startup.
	ModelPath        string
	PreprocessorPath string
	InferenceTimeout time.Duration

	// Prediction cache configuration.
	CacheBackend string
	CacheSize    int
	CacheTTL     time.Duration
	RedisURL     string
}

// Load reads configuration from environment variables, applying defaults where unset.
// A .env file in the working directory is loaded first if present; variables
// already set in the environment take precedence.
func Load() (*Config, error) {
	_ = godotenv.Load()

	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	inferenceTimeout, err := parsePositiveDuration("INFERENCE_TIMEOUT", "5s")
	if err != nil {
		return nil, err
	}

	cacheTTL, err := parsePositiveDuration("CACHE_TTL", "1h")
	if err != nil {
		return nil, err
	}

	cacheSize, err := parseCacheSize()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		GinMode:         sharedcfg.EnvOrDefault("GIN_MODE", "release"),
		ShutdownTimeout: shutdownTimeout,

		ModelPath:        sharedcfg.EnvOrDefault("MODEL_PATH", "artifacts/model.json"),
		PreprocessorPath: sharedcfg.EnvOrDefault("PREPROCESSOR_PATH", "artifacts/preprocessor.json"),
		InferenceTimeout: inferenceTimeout,

		CacheBackend: strings.ToLower(sharedcfg.EnvOrDefault("CACHE_BACKEND", CacheMemory)),
		CacheSize:    cacheSize,
		CacheTTL:     cacheTTL,
		RedisURL:     os.Getenv("REDIS_URL"),
	}

	switch cfg.GinMode {
	case "debug", "release", "test":
	default:
		return nil, fmt.Errorf("invalid GIN_MODE %q", cfg.GinMode)
	}

	switch cfg.CacheBackend {
	case CacheNone, CacheMemory:
	case CacheRedis:
		if cfg.RedisURL == "" {
			return nil, errors.New("CACHE_BACKEND is redis but REDIS_URL is not set")
		}
	default:
		return nil, fmt.Errorf("invalid CACHE_BACKEND %q", cfg.CacheBackend)
	}

	return cfg, nil
}

func parsePositiveDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parseCacheSize() (int, error) {
	s := os.Getenv("CACHE_SIZE")
	if s == "" {
		return 1000, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, errors.New("invalid CACHE_SIZE")
	}
	return n, nil
}
